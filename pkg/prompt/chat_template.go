package prompt

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"
	"golang.org/x/sync/errgroup"

	"github.com/killallgit/promptforge/pkg/errors"
	"github.com/killallgit/promptforge/pkg/message"
	"github.com/killallgit/promptforge/pkg/template"
)

var _ prompts.FormatPrompter = (*ChatTemplate)(nil)

// MessageDefinition is a (role, raw text) pair used to build a chat template.
type MessageDefinition struct {
	Role     message.Role `json:"role" yaml:"role" toml:"role"`
	Template string       `json:"template" yaml:"template" toml:"template"`
}

// Chat is shorthand for a MessageDefinition.
func Chat(role message.Role, text string) MessageDefinition {
	return MessageDefinition{Role: role, Template: text}
}

// ChatTemplate is an ordered sequence of message entries. It is immutable
// after construction and safe for concurrent use.
type ChatTemplate struct {
	entries          []MessageLike
	concurrency      int
	placeholderLimit int
}

// Option configures a ChatTemplate
type Option func(*ChatTemplate)

// WithConcurrency resolves up to n entries at a time. Output order never
// depends on completion order. n <= 1 resolves sequentially.
func WithConcurrency(n int) Option {
	return func(c *ChatTemplate) {
		c.concurrency = n
	}
}

// WithPlaceholderLimit sets the limit of placeholders built by FromMessages.
func WithPlaceholderLimit(n int) Option {
	return func(c *ChatTemplate) {
		c.placeholderLimit = n
	}
}

// NewChatTemplate creates a chat template from prepared entries.
func NewChatTemplate(entries []MessageLike, opts ...Option) *ChatTemplate {
	c := &ChatTemplate{entries: append([]MessageLike(nil), entries...)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FromMessages builds a chat template from (role, text) definitions.
//
//   - placeholder: the text must declare exactly one variable
//   - fewshotprompt: the text is a serialized FewShotChatTemplate
//   - otherwise the text is parsed as a template; plain text is baked into a
//     concrete message right away
//
// Any failure aborts the whole build.
func FromMessages(defs []MessageDefinition, opts ...Option) (*ChatTemplate, error) {
	c := NewChatTemplate(nil, opts...)
	c.entries = make([]MessageLike, 0, len(defs))

	for i, def := range defs {
		entry, err := c.entryFromDefinition(def)
		if err != nil {
			return nil, errors.Wrapf(err, "message %d (%s)", i, def.Role)
		}
		c.entries = append(c.entries, entry)
	}

	return c, nil
}

func (c *ChatTemplate) entryFromDefinition(def MessageDefinition) (MessageLike, error) {
	switch def.Role {
	case message.RolePlaceholder:
		p, err := PlaceholderFromTemplate(def.Template, WithLimit(c.placeholderLimit))
		if err != nil {
			return MessageLike{}, err
		}
		return PlaceholderEntry(p), nil

	case message.RoleFewShotPrompt:
		f, err := ParseFewShotChatTemplate(def.Template)
		if err != nil {
			return MessageLike{}, err
		}
		return FewShotEntry(f), nil
	}

	if !def.Role.IsValid() {
		return MessageLike{}, errors.InvalidRole("unknown role %q", def.Role)
	}

	tmpl, err := template.New(def.Template)
	if err != nil {
		return MessageLike{}, err
	}

	if tmpl.TemplateFormat() == template.PlainText {
		msg, err := def.Role.ToMessage(def.Template)
		if err != nil {
			return MessageLike{}, err
		}
		return BaseMessage(msg), nil
	}

	return RoleTemplate(def.Role, tmpl), nil
}

// Entries returns a copy of the entries in order.
func (c *ChatTemplate) Entries() []MessageLike {
	return append([]MessageLike(nil), c.entries...)
}

// Len returns the number of entries.
func (c *ChatTemplate) Len() int {
	return len(c.entries)
}

// Concat returns a new template holding c's entries followed by each of
// others'. The operands are left untouched.
func (c *ChatTemplate) Concat(others ...*ChatTemplate) *ChatTemplate {
	out := &ChatTemplate{
		entries:          append([]MessageLike(nil), c.entries...),
		concurrency:      c.concurrency,
		placeholderLimit: c.placeholderLimit,
	}
	for _, o := range others {
		if o == nil {
			continue
		}
		out.entries = append(out.entries, o.entries...)
	}
	return out
}

// FormatMessages resolves every entry against vars and returns the
// resulting messages in entry order.
func (c *ChatTemplate) FormatMessages(vars map[string]string) ([]message.Message, error) {
	return c.FormatMessagesContext(context.Background(), vars)
}

// Invoke is an alias for FormatMessages.
func (c *ChatTemplate) Invoke(vars map[string]string) ([]message.Message, error) {
	return c.FormatMessages(vars)
}

// FormatMessagesContext is FormatMessages with cancellation. When several
// entries fail, the error of the lowest-index entry is returned.
func (c *ChatTemplate) FormatMessagesContext(ctx context.Context, vars map[string]string) ([]message.Message, error) {
	if vars == nil {
		vars = map[string]string{}
	}

	results := make([][]message.Message, len(c.entries))
	errs := make([]error, len(c.entries))

	if c.concurrency <= 1 || len(c.entries) < 2 {
		for i, entry := range c.entries {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			msgs, err := entry.resolve(vars)
			if err != nil {
				return nil, errors.Wrapf(err, "entry %d", i)
			}
			results[i] = msgs
		}
		return flatten(results), nil
	}

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, entry := range c.entries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			results[i], errs[i] = entry.resolve(vars)
			return nil
		})
	}
	_ = g.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, errors.Wrapf(err, "entry %d", i)
		}
	}
	return flatten(results), nil
}

func flatten(results [][]message.Message) []message.Message {
	n := 0
	for _, r := range results {
		n += len(r)
	}
	out := make([]message.Message, 0, n)
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}

// Format resolves the template and joins the message contents with "\n".
func (c *ChatTemplate) Format(vars map[string]string) (string, error) {
	msgs, err := c.FormatMessages(vars)
	if err != nil {
		return "", err
	}

	contents := make([]string, len(msgs))
	for i, m := range msgs {
		contents[i] = m.Content
	}
	return strings.Join(contents, "\n"), nil
}

// ToVariablesMap maps the first variable of each role template to that
// entry's role name. Later entries overwrite earlier ones that share a
// variable, and further variables of an entry are not recorded.
func (c *ChatTemplate) ToVariablesMap() map[string]string {
	vars := make(map[string]string)
	for _, entry := range c.entries {
		role, tmpl, ok := entry.AsRoleTemplate()
		if !ok || tmpl == nil {
			continue
		}
		if names := template.ExtractVariables(tmpl.Raw()); len(names) > 0 {
			vars[names[0]] = role.String()
		}
	}
	return vars
}

// InputVariables returns the variables needed at format time, in first
// occurrence order.
func (c *ChatTemplate) InputVariables() []string {
	seen := make(map[string]bool)
	var out []string
	for _, entry := range c.entries {
		for _, name := range entry.InputVariables() {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}

// AcceptedVariables returns every variable the template reads when it is
// supplied, in first occurrence order. Unlike InputVariables it includes
// optional placeholders.
func (c *ChatTemplate) AcceptedVariables() []string {
	seen := make(map[string]bool)
	var out []string
	for _, entry := range c.entries {
		for _, name := range entry.AcceptedVariables() {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}

// FormatPrompt formats the template as a langchaingo chat prompt value.
func (c *ChatTemplate) FormatPrompt(values map[string]any) (llms.PromptValue, error) {
	msgs, err := c.FormatMessages(template.StringValues(values))
	if err != nil {
		return nil, err
	}
	return prompts.ChatPromptValue(message.ChatMessages(msgs)), nil
}

// GetInputVariables returns the list of input variable names
func (c *ChatTemplate) GetInputVariables() []string {
	return c.InputVariables()
}

// MarshalJSON encodes the template as {"messages": [...]}.
func (c *ChatTemplate) MarshalJSON() ([]byte, error) {
	entries := c.entries
	if entries == nil {
		entries = []MessageLike{}
	}
	return json.Marshal(struct {
		Messages []MessageLike `json:"messages"`
	}{entries})
}

// UnmarshalJSON decodes {"messages": [...]}. The messages field is required.
func (c *ChatTemplate) UnmarshalJSON(data []byte) error {
	var doc struct {
		Messages *[]MessageLike `json:"messages"`
	}
	if err := decodeJSON(data, &doc); err != nil {
		return err
	}
	if doc.Messages == nil {
		return errors.Malformed("missing field messages")
	}
	c.entries = *doc.Messages
	return nil
}

// ParseChatTemplate decodes a chat template from its JSON form.
func ParseChatTemplate(text string, opts ...Option) (*ChatTemplate, error) {
	c := &ChatTemplate{}
	if err := decodeJSON([]byte(text), c); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WithOptions returns a copy of c with opts applied, e.g. a different
// concurrency limit.
func (c *ChatTemplate) WithOptions(opts ...Option) *ChatTemplate {
	out := c.Concat()
	for _, opt := range opts {
		opt(out)
	}
	return out
}
