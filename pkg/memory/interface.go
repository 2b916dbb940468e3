package memory

import (
	"context"

	"github.com/killallgit/promptforge/pkg/message"
)

// Store records a conversation so it can be replayed into a chat template
// placeholder.
type Store interface {
	// Add appends messages to the history
	Add(ctx context.Context, msgs ...message.Message) error

	// Messages returns the history, oldest first
	Messages(ctx context.Context) ([]message.Message, error)

	// Bind writes the history into vars under name
	Bind(ctx context.Context, vars map[string]string, name string) error

	// Clear drops all messages
	Clear(ctx context.Context) error
}
