package prompt

import (
	"encoding/json"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"

	"github.com/killallgit/promptforge/pkg/errors"
	"github.com/killallgit/promptforge/pkg/message"
	"github.com/killallgit/promptforge/pkg/template"
)

var _ prompts.FormatPrompter = (*FewShotChatTemplate)(nil)

// FewShotMode selects how a rendered few-shot block becomes messages.
type FewShotMode string

const (
	// FewShotAsSystem wraps the whole block in one system message.
	FewShotAsSystem FewShotMode = "system"
	// FewShotAsTranscript re-parses the block as "role: content" lines.
	FewShotAsTranscript FewShotMode = "transcript"
)

// ParseFewShotMode accepts "system" or "transcript", ignoring case. The
// empty string means FewShotAsSystem.
func ParseFewShotMode(s string) (FewShotMode, error) {
	switch FewShotMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", FewShotAsSystem:
		return FewShotAsSystem, nil
	case FewShotAsTranscript:
		return FewShotAsTranscript, nil
	default:
		return "", errors.Unsupported("unknown few-shot mode %q", s)
	}
}

// FewShotChatTemplate pairs a few-shot block with an example chat template.
// The example prompt contributes only its variable-to-role schema: each
// example is formatted with values like {"question": "human"}, so the real
// content lives in the example text itself.
type FewShotChatTemplate struct {
	examples      *FewShotTemplate
	examplePrompt *ChatTemplate
	mode          FewShotMode
}

// FewShotChatOption configures a FewShotChatTemplate
type FewShotChatOption func(*FewShotChatTemplate)

// WithMode sets how Messages renders the block.
func WithMode(mode FewShotMode) FewShotChatOption {
	return func(f *FewShotChatTemplate) {
		f.mode = mode
	}
}

// NewFewShotChatTemplate creates a few-shot chat block.
func NewFewShotChatTemplate(examples *FewShotTemplate, examplePrompt *ChatTemplate, opts ...FewShotChatOption) *FewShotChatTemplate {
	if examples == nil {
		examples = NewFewShotTemplate(nil)
	}
	if examplePrompt == nil {
		examplePrompt = NewChatTemplate(nil)
	}
	f := &FewShotChatTemplate{
		examples:      examples,
		examplePrompt: examplePrompt,
		mode:          FewShotAsSystem,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Examples returns the few-shot block.
func (f *FewShotChatTemplate) Examples() *FewShotTemplate { return f.examples }

// ExamplePrompt returns the chat template whose variables name the roles.
func (f *FewShotChatTemplate) ExamplePrompt() *ChatTemplate { return f.examplePrompt }

// Mode returns how Messages renders the block.
func (f *FewShotChatTemplate) Mode() FewShotMode { return f.mode }

// Format renders the few-shot block with explicit values.
func (f *FewShotChatTemplate) Format(vars map[string]string) (string, error) {
	return f.examples.Format(vars)
}

// FormatExamples renders the block with the example prompt's schema. A
// non-empty block ends with the separator so it concatenates cleanly before
// the messages that follow; no examples yields the empty string.
func (f *FewShotChatTemplate) FormatExamples() (string, error) {
	if len(f.examples.examples) == 0 {
		return "", nil
	}

	out, err := f.Format(f.examplePrompt.ToVariablesMap())
	if err != nil {
		return "", err
	}
	if out == "" {
		return "", nil
	}
	return out + f.examples.separator, nil
}

// Messages renders the block as messages according to the mode.
func (f *FewShotChatTemplate) Messages() ([]message.Message, error) {
	block, err := f.FormatExamples()
	if err != nil {
		return nil, err
	}

	switch f.mode {
	case FewShotAsTranscript:
		return message.ParseTranscript(block)
	case FewShotAsSystem, "":
		return []message.Message{message.NewSystemMessage(block)}, nil
	default:
		return nil, errors.Unsupported("unknown few-shot mode %q", f.mode)
	}
}

// FormatPrompt renders the block as a langchaingo chat prompt value. The
// values are not used; the block is fully determined by its examples.
func (f *FewShotChatTemplate) FormatPrompt(_ map[string]any) (llms.PromptValue, error) {
	msgs, err := f.Messages()
	if err != nil {
		return nil, err
	}
	return prompts.ChatPromptValue(message.ChatMessages(msgs)), nil
}

// GetInputVariables returns nil; a few-shot block needs no input.
func (f *FewShotChatTemplate) GetInputVariables() []string {
	return nil
}

type fewShotChatJSON struct {
	Examples      *FewShotTemplate `json:"examples"`
	ExamplePrompt *ChatTemplate    `json:"example_prompt"`
	Mode          FewShotMode      `json:"mode,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (f *FewShotChatTemplate) MarshalJSON() ([]byte, error) {
	return json.Marshal(fewShotChatJSON{
		Examples:      f.examples,
		ExamplePrompt: f.examplePrompt,
		Mode:          f.mode,
	})
}

// UnmarshalJSON implements json.Unmarshaler. Both examples and
// example_prompt are required.
func (f *FewShotChatTemplate) UnmarshalJSON(data []byte) error {
	var doc fewShotChatJSON
	if err := decodeJSON(data, &doc); err != nil {
		return err
	}
	if doc.Examples == nil {
		return errors.Malformed("few-shot chat template is missing examples")
	}
	if doc.ExamplePrompt == nil {
		return errors.Malformed("few-shot chat template is missing example_prompt")
	}

	mode, err := ParseFewShotMode(string(doc.Mode))
	if err != nil {
		return err
	}

	*f = *NewFewShotChatTemplate(doc.Examples, doc.ExamplePrompt, WithMode(mode))
	return nil
}

// ParseFewShotChatTemplate decodes a few-shot chat block from JSON, as
// carried by a fewshotprompt message definition.
func ParseFewShotChatTemplate(text string) (*FewShotChatTemplate, error) {
	f := &FewShotChatTemplate{}
	if err := decodeJSON([]byte(text), f); err != nil {
		return nil, err
	}
	return f, nil
}

// NewExampleBlock is a convenience for the common case: examples built from
// (input, output) pairs and a human/ai example prompt over two variables.
//
//	NewExampleBlock("question", "answer",
//	    [2]string{"{question}: What is 5 + 5?", "{answer}: 10"})
func NewExampleBlock(inputVar, outputVar string, pairs ...[2]string) (*FewShotChatTemplate, error) {
	if !template.IsValidIdentifier(inputVar) || !template.IsValidIdentifier(outputVar) {
		return nil, errors.Malformed("example variables must be identifiers: %q, %q", inputVar, outputVar)
	}
	examples, err := Examples(pairs...)
	if err != nil {
		return nil, err
	}
	examplePrompt, err := FromMessages([]MessageDefinition{
		Chat(message.RoleHuman, "{"+inputVar+"}"),
		Chat(message.RoleAI, "{"+outputVar+"}"),
	})
	if err != nil {
		return nil, err
	}
	return NewFewShotChatTemplate(NewFewShotTemplate(examples), examplePrompt), nil
}
