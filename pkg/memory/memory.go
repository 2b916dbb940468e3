package memory

import (
	"context"
	"fmt"
	"os"
	"sync"

	lcmemory "github.com/tmc/langchaingo/memory"
	"github.com/tmc/langchaingo/schema"
	"gopkg.in/yaml.v3"

	"github.com/killallgit/promptforge/pkg/errors"
	"github.com/killallgit/promptforge/pkg/logger"
	"github.com/killallgit/promptforge/pkg/message"
)

var _ Store = (*Memory)(nil)

// Memory is a Store over a langchaingo chat message history. The default
// backend keeps messages in process.
type Memory struct {
	mu      sync.Mutex
	history schema.ChatMessageHistory
	window  int
}

// Option configures a Memory
type Option func(*Memory)

// WithWindow keeps only the last n messages when reading. n <= 0 keeps all.
func WithWindow(n int) Option {
	return func(m *Memory) {
		m.window = n
	}
}

// WithHistory replaces the in-process backend.
func WithHistory(h schema.ChatMessageHistory) Option {
	return func(m *Memory) {
		m.history = h
	}
}

// New creates an empty Memory.
func New(opts ...Option) *Memory {
	m := &Memory{}
	for _, opt := range opts {
		opt(m)
	}
	if m.history == nil {
		m.history = lcmemory.NewChatMessageHistory()
	}
	return m
}

// FromMessages creates a Memory seeded with msgs.
func FromMessages(ctx context.Context, msgs []message.Message, opts ...Option) (*Memory, error) {
	m := New(opts...)
	if err := m.Add(ctx, msgs...); err != nil {
		return nil, err
	}
	return m, nil
}

// LoadFile reads a JSON or YAML list of {"role", "content"} messages.
func LoadFile(ctx context.Context, path string, opts ...Option) (*Memory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read history file")
	}

	var raw []map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Malformed("invalid history file %s: %v", path, err)
	}
	msgs := make([]message.Message, 0, len(raw))
	for i, entry := range raw {
		role, _ := entry["role"].(string)
		content, err := contentString(entry["content"])
		if err != nil {
			return nil, errors.Wrapf(err, "history message %d", i)
		}
		r, err := message.ParseRole(role)
		if err != nil {
			return nil, errors.Wrapf(err, "history message %d", i)
		}
		msg, err := message.New(r, content)
		if err != nil {
			return nil, errors.Wrapf(err, "history message %d", i)
		}
		msgs = append(msgs, msg)
	}

	logger.Debug("Loaded %d history messages from %s", len(msgs), path)
	return FromMessages(ctx, msgs, opts...)
}

// contentString accepts any YAML scalar as message content.
func contentString(v any) (string, error) {
	switch v := v.(type) {
	case nil:
		return "", errors.Malformed("message has no content")
	case string:
		return v, nil
	case map[string]any, []any:
		return "", errors.Malformed("message content must be a scalar, got %T", v)
	default:
		return fmt.Sprint(v), nil
	}
}

func (m *Memory) Add(ctx context.Context, msgs ...message.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, msg := range msgs {
		if err := m.history.AddMessage(ctx, msg.ToChatMessage()); err != nil {
			return errors.Wrap(err, "failed to record message")
		}
	}
	return nil
}

func (m *Memory) Messages(ctx context.Context) ([]message.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cms, err := m.history.Messages(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read history")
	}
	msgs, err := message.FromChatMessages(cms)
	if err != nil {
		return nil, err
	}

	if m.window > 0 && len(msgs) > m.window {
		msgs = msgs[len(msgs)-m.window:]
	}
	return msgs, nil
}

// Bind stores the history in vars[name] in the form a placeholder reads.
func (m *Memory) Bind(ctx context.Context, vars map[string]string, name string) error {
	msgs, err := m.Messages(ctx)
	if err != nil {
		return err
	}
	encoded, err := message.MarshalHistory(msgs)
	if err != nil {
		return err
	}
	vars[name] = encoded
	return nil
}

func (m *Memory) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.history.Clear(ctx)
}
