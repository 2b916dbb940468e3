package prompt

import (
	"github.com/tmc/langchaingo/prompts"

	"github.com/killallgit/promptforge/pkg/template"
)

// Prompt is any loadable prompt: a *template.Template, a *ChatTemplate or a
// *FewShotChatTemplate. All of them format into langchaingo prompt values.
type Prompt interface {
	prompts.FormatPrompter
}

var (
	_ Prompt = (*template.Template)(nil)
	_ Prompt = (*ChatTemplate)(nil)
	_ Prompt = (*FewShotChatTemplate)(nil)
)

// Loader loads prompts from various sources
type Loader interface {
	// Load loads a single string template by name/path
	Load(name string) (*template.Template, error)

	// LoadChat loads a chat template by name/path
	LoadChat(name string) (*ChatTemplate, error)

	// LoadFewShotChat loads a few-shot chat block by name/path
	LoadFewShotChat(name string) (*FewShotChatTemplate, error)

	// LoadPrompt loads whichever kind of prompt the document holds
	LoadPrompt(name string) (Prompt, error)
}

// Registry manages named prompts
type Registry interface {
	// Register registers a prompt with a name
	Register(name string, p Prompt) error

	// Get retrieves a prompt by name
	Get(name string) (Prompt, error)

	// List returns all registered names in sorted order
	List() []string

	// Clear removes all registered prompts
	Clear()
}

// Config controls how loaders build prompts
type Config struct {
	// TemplateDir is the directory containing prompt files
	TemplateDir string

	// Separator is used by few-shot configs that declare none
	Separator string

	// PlaceholderLimit applies to placeholders built from message definitions
	PlaceholderLimit int

	// Concurrency bounds chat resolution and directory loading
	Concurrency int

	// FewShotMode is used by few-shot configs that declare none
	FewShotMode FewShotMode
}

func (c Config) chatOptions() []Option {
	return []Option{
		WithConcurrency(c.Concurrency),
		WithPlaceholderLimit(c.PlaceholderLimit),
	}
}
