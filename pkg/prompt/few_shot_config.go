package prompt

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/killallgit/promptforge/pkg/errors"
	"github.com/killallgit/promptforge/pkg/template"
)

// FewShotChatConfig is the hand-written form of a few-shot chat block, as
// kept in prompt files:
//
//	example_separator = "\n\n"
//	prefix = { template = "### Examples:" }
//
//	[[examples]]
//	template = "{question}: What is 2 + 2?\n{answer}: 4"
//
//	[[messages]]
//	type = "RolePromptTemplate"
//	value = ["human", "{question}"]
//
// Messages form the example prompt; only their variable-to-role schema is
// used when the block renders.
type FewShotChatConfig struct {
	ExampleSeparator string            `toml:"example_separator" json:"example_separator,omitempty" yaml:"example_separator,omitempty"`
	Prefix           *template.Config  `toml:"prefix" json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Suffix           *template.Config  `toml:"suffix" json:"suffix,omitempty" yaml:"suffix,omitempty"`
	Examples         []template.Config `toml:"examples" json:"examples" yaml:"examples"`
	Messages         []MessageConfig   `toml:"messages" json:"messages" yaml:"messages"`
	Mode             string            `toml:"mode" json:"mode,omitempty" yaml:"mode,omitempty"`
}

// MessageConfig is one tagged entry of FewShotChatConfig.Messages, in the
// same {"type", "value"} shape used by serialized chat templates.
type MessageConfig struct {
	Type  string `toml:"type" json:"type" yaml:"type"`
	Value any    `toml:"value" json:"value" yaml:"value"`
}

// DecodeFewShotChatConfig reads a config in the given format. Unknown
// top-level keys are rejected in every format.
func DecodeFewShotChatConfig(data []byte, format DocumentFormat) (*FewShotChatConfig, error) {
	var cfg FewShotChatConfig

	switch format {
	case DocumentTOML:
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return nil, errors.Malformed("failed to parse few-shot TOML: %v", err)
		}
		for _, key := range md.Undecoded() {
			if len(key) == 1 {
				return nil, errors.Malformed("unknown few-shot field %q", key.String())
			}
		}

	case DocumentYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return nil, errors.Malformed("failed to parse few-shot YAML: %v", err)
		}

	case DocumentJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return nil, errors.Malformed("failed to parse few-shot JSON: %v", err)
		}

	default:
		return nil, errors.Unsupported("few-shot configs cannot be read from %s", format)
	}

	return &cfg, nil
}

// Build turns the config into a FewShotChatTemplate. An empty separator
// means DefaultExampleSeparator.
func (c FewShotChatConfig) Build() (*FewShotChatTemplate, error) {
	doc := fewShotJSON{
		Examples: c.Examples,
		Prefix:   c.Prefix,
		Suffix:   c.Suffix,
	}
	if c.ExampleSeparator != "" {
		doc.Separator = &c.ExampleSeparator
	}
	examples, err := doc.build()
	if err != nil {
		return nil, err
	}

	entries := make([]MessageLike, 0, len(c.Messages))
	for i, m := range c.Messages {
		entry, err := m.build()
		if err != nil {
			return nil, errors.Wrapf(err, "message %d", i)
		}
		entries = append(entries, entry)
	}

	mode, err := ParseFewShotMode(c.Mode)
	if err != nil {
		return nil, err
	}

	return NewFewShotChatTemplate(examples, NewChatTemplate(entries), WithMode(mode)), nil
}

func (m MessageConfig) build() (MessageLike, error) {
	if strings.TrimSpace(m.Type) == "" {
		return MessageLike{}, errors.Malformed("message entry is missing type")
	}
	data, err := json.Marshal(m)
	if err != nil {
		return MessageLike{}, errors.Malformed("message entry value cannot be encoded: %v", err)
	}

	var entry MessageLike
	if err := decodeJSON(data, &entry); err != nil {
		return MessageLike{}, err
	}
	return entry, nil
}
