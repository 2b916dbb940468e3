package prompt

import (
	"fmt"
	"sort"
	"sync"

	"github.com/killallgit/promptforge/pkg/errors"
	"github.com/killallgit/promptforge/pkg/template"
)

var (
	// ErrAlreadyRegistered is returned when a name is registered twice
	ErrAlreadyRegistered = errors.New("prompt already registered")
	// ErrNotFound is returned for unknown names
	ErrNotFound = errors.New("prompt not found")
)

// DefaultRegistry is the global prompt registry
var DefaultRegistry = NewRegistry()

// registry is a concrete implementation of the Registry interface
type registry struct {
	mu      sync.RWMutex
	prompts map[string]Prompt
}

// NewRegistry creates a new prompt registry
func NewRegistry() Registry {
	return &registry{
		prompts: make(map[string]Prompt),
	}
}

// Register registers a prompt with a name
func (r *registry) Register(name string, p Prompt) error {
	if p == nil {
		return errors.Newf("cannot register nil prompt %s", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.prompts[name]; exists {
		return errors.Wrapf(ErrAlreadyRegistered, "prompt %s", name)
	}

	r.prompts[name] = p
	return nil
}

// Get retrieves a prompt by name
func (r *registry) Get(name string) (Prompt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, exists := r.prompts[name]
	if !exists {
		return nil, errors.Wrapf(ErrNotFound, "prompt %s", name)
	}

	return p, nil
}

// List returns all registered names in sorted order
func (r *registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.prompts))
	for name := range r.prompts {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Clear removes all registered prompts
func (r *registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prompts = make(map[string]Prompt)
}

// Lookup retrieves a prompt and checks its concrete kind.
//
//	chat, err := prompt.Lookup[*prompt.ChatTemplate](reg, "support/greeting")
func Lookup[T Prompt](r Registry, name string) (T, error) {
	var zero T

	p, err := r.Get(name)
	if err != nil {
		return zero, err
	}

	typed, ok := p.(T)
	if !ok {
		return zero, errors.Newf("prompt %s is a %s, not a %T", name, KindOf(p), zero)
	}
	return typed, nil
}

// KindOf names the kind of p for listings.
func KindOf(p Prompt) string {
	switch p.(type) {
	case *ChatTemplate:
		return "chat"
	case *FewShotChatTemplate:
		return "fewshot"
	case *template.Template:
		return "template"
	default:
		return "unknown"
	}
}

// MustRegister registers a prompt and panics if it fails
func MustRegister(name string, p Prompt) {
	if err := DefaultRegistry.Register(name, p); err != nil {
		panic(fmt.Sprintf("failed to register prompt %s: %v", name, err))
	}
}

// MustGet retrieves a prompt and panics if not found
func MustGet(name string) Prompt {
	p, err := DefaultRegistry.Get(name)
	if err != nil {
		panic(fmt.Sprintf("prompt %s not found", name))
	}
	return p
}
