package prompt

import (
	"encoding/json"

	"github.com/killallgit/promptforge/pkg/errors"
	"github.com/killallgit/promptforge/pkg/message"
	"github.com/killallgit/promptforge/pkg/template"
)

// DefaultPlaceholderLimit caps how many history messages a placeholder
// expands to when no limit is given.
const DefaultPlaceholderLimit = 100

// MessagesPlaceholder is a named slot in a chat template that expands to a
// list of previously recorded messages supplied at format time as a JSON
// array.
type MessagesPlaceholder struct {
	VariableName string `json:"variable_name"`
	Optional     bool   `json:"optional"`
	Limit        int    `json:"n_messages"`
}

// PlaceholderOption configures a MessagesPlaceholder
type PlaceholderOption func(*MessagesPlaceholder)

// WithOptional lets the placeholder's variable be absent at format time.
func WithOptional(optional bool) PlaceholderOption {
	return func(p *MessagesPlaceholder) {
		p.Optional = optional
	}
}

// WithLimit sets the maximum number of messages expanded. Zero or less
// means DefaultPlaceholderLimit.
func WithLimit(n int) PlaceholderOption {
	return func(p *MessagesPlaceholder) {
		p.Limit = n
	}
}

// NewMessagesPlaceholder creates a required placeholder for name.
func NewMessagesPlaceholder(name string, opts ...PlaceholderOption) MessagesPlaceholder {
	p := MessagesPlaceholder{VariableName: name, Limit: DefaultPlaceholderLimit}
	for _, opt := range opts {
		opt(&p)
	}
	p.normalize()
	return p
}

// PlaceholderFromTemplate builds a placeholder from text such as "{history}".
// The text must declare exactly one variable.
func PlaceholderFromTemplate(raw string, opts ...PlaceholderOption) (MessagesPlaceholder, error) {
	name, err := template.ExtractPlaceholderVariable(raw)
	if err != nil {
		return MessagesPlaceholder{}, err
	}
	return NewMessagesPlaceholder(name, opts...), nil
}

func (p *MessagesPlaceholder) normalize() {
	if p.Limit <= 0 {
		p.Limit = DefaultPlaceholderLimit
	}
}

// Resolve expands the placeholder against vars. An absent optional variable
// yields no messages; an absent required one is a missing-variable error.
// The history is truncated to the first Limit messages.
func (p MessagesPlaceholder) Resolve(vars map[string]string) ([]message.Message, error) {
	raw, ok := vars[p.VariableName]
	if !ok {
		if p.Optional {
			return nil, nil
		}
		return nil, errors.MissingVariable(p.VariableName, nil, nil)
	}

	msgs, err := message.ParseHistory(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "placeholder %s", p.VariableName)
	}

	limit := p.Limit
	if limit <= 0 {
		limit = DefaultPlaceholderLimit
	}
	if len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return msgs, nil
}

// UnmarshalJSON applies the default limit to a zero n_messages.
func (p *MessagesPlaceholder) UnmarshalJSON(data []byte) error {
	type plain MessagesPlaceholder
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return errors.Malformed("invalid placeholder JSON: %v", err)
	}
	if decoded.VariableName == "" {
		return errors.Malformed("placeholder is missing variable_name")
	}
	*p = MessagesPlaceholder(decoded)
	p.normalize()
	return nil
}
