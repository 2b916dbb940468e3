package template

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/cbroglie/mustache"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"

	"github.com/killallgit/promptforge/pkg/errors"
)

var _ prompts.FormatPrompter = (*Template)(nil)

// Template is a parsed prompt template: the raw text, its detected format,
// the variables it declares and any default (partial) values.
//
// A Template is immutable once shared. Partial and ClearPartials mutate the
// receiver and must only be called by the owner before handing it out.
type Template struct {
	raw       string
	format    Format
	variables []string
	partials  map[string]string
	compiled  *mustache.Template
}

// New parses raw into a Template. Brace structure is validated eagerly and
// Mustache templates are compiled up front, so malformed input fails here
// rather than at format time.
func New(raw string) (*Template, error) {
	format, err := Classify(raw)
	if err != nil {
		return nil, err
	}

	t := &Template{
		raw:       raw,
		format:    format,
		variables: ExtractVariables(raw),
		partials:  make(map[string]string),
	}

	if format == Mustache {
		compiled, err := mustache.ParseString(raw)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrMalformedTemplate, "failed to compile mustache template: %v", err)
		}
		t.compiled = compiled
	}

	return t, nil
}

// MustNew is like New but panics on error. Intended for package-level
// templates built from string literals.
func MustNew(raw string) *Template {
	t, err := New(raw)
	if err != nil {
		panic(fmt.Sprintf("template: %v", err))
	}
	return t
}

// Raw returns the original template string
func (t *Template) Raw() string {
	return t.raw
}

// TemplateFormat returns the detected placeholder syntax
func (t *Template) TemplateFormat() Format {
	return t.format
}

// InputVariables returns the declared variable names in declaration order
func (t *Template) InputVariables() []string {
	return slices.Clone(t.variables)
}

// Partial binds a default value for name. Values passed to Format override it.
func (t *Template) Partial(name, value string) *Template {
	t.partials[name] = value
	return t
}

// ClearPartials removes every default value.
func (t *Template) ClearPartials() *Template {
	clear(t.partials)
	return t
}

// Partials returns a copy of the default values.
func (t *Template) Partials() map[string]string {
	return maps.Clone(t.partials)
}

// WithPartials returns a copy of t with partials added on top of the
// existing defaults. The receiver is left untouched.
func (t *Template) WithPartials(partials map[string]string) *Template {
	clone := *t
	clone.partials = maps.Clone(t.partials)
	maps.Copy(clone.partials, partials)
	return &clone
}

// Format substitutes vars into the template. Partials supply defaults and
// vars win on key collisions. Every declared variable must be present.
//
// FmtString substitution replaces the exact text "{name}". A group written
// with inner spaces, such as "{ name }", still declares name and still has to
// be supplied, but it is left in the output as written.
func (t *Template) Format(vars map[string]string) (string, error) {
	merged := t.mergeValues(vars)

	if err := t.validateVariables(merged); err != nil {
		return "", err
	}

	switch t.format {
	case PlainText:
		return t.raw, nil
	case FmtString:
		return t.formatFmtString(merged), nil
	case Mustache:
		return t.formatMustache(merged)
	default:
		return "", errors.Unsupported("template format %s", t.format)
	}
}

// formatFmtString replaces "{name}" for each declared variable in declaration
// order across the whole string. A substituted value that contains a later
// variable's placeholder is substituted again by that later pass.
func (t *Template) formatFmtString(vars map[string]string) string {
	result := t.raw
	for _, name := range t.variables {
		result = strings.ReplaceAll(result, "{"+name+"}", vars[name])
	}
	return result
}

func (t *Template) formatMustache(vars map[string]string) (string, error) {
	if t.compiled == nil {
		return "", errors.Unsupported("mustache template %q was not compiled", t.raw)
	}
	out, err := t.compiled.Render(vars)
	if err != nil {
		return "", errors.Render(err)
	}
	return out, nil
}

// mergeValues merges partial variables with provided values
func (t *Template) mergeValues(vars map[string]string) map[string]string {
	merged := make(map[string]string, len(t.partials)+len(vars))
	maps.Copy(merged, t.partials)
	maps.Copy(merged, vars)
	return merged
}

// validateVariables reports the first declared variable missing from values
func (t *Template) validateVariables(values map[string]string) error {
	for _, name := range t.variables {
		if _, ok := values[name]; !ok {
			received := slices.Sorted(maps.Keys(values))
			return errors.MissingVariable(name, t.InputVariables(), received)
		}
	}
	return nil
}

// FormatPrompt formats the template as a langchaingo prompt value. Values
// are converted to strings with fmt.Sprint.
func (t *Template) FormatPrompt(values map[string]any) (llms.PromptValue, error) {
	out, err := t.Format(StringValues(values))
	if err != nil {
		return nil, err
	}
	return prompts.StringPromptValue(out), nil
}

// GetInputVariables returns the list of input variable names
func (t *Template) GetInputVariables() []string {
	return t.InputVariables()
}

// String returns the raw template text.
func (t *Template) String() string {
	return t.raw
}

// StringValues converts a langchaingo-style value map into the flat string
// map templates format with.
func StringValues(values map[string]any) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		switch val := v.(type) {
		case string:
			out[k] = val
		case nil:
			out[k] = ""
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}

// Config is the serialized form of a Template.
type Config struct {
	Template       string            `json:"template" toml:"template" yaml:"template"`
	TemplateFormat string            `json:"template_format,omitempty" toml:"template_format" yaml:"template_format,omitempty"`
	InputVariables []string          `json:"input_variables,omitempty" toml:"input_variables" yaml:"input_variables,omitempty"`
	Partials       map[string]string `json:"partials,omitempty" toml:"partials" yaml:"partials,omitempty"`
}

// Build parses the config into a Template. A declared template_format that
// disagrees with the detected one is rejected; declared input_variables are
// informational and re-derived from the text.
func (c Config) Build() (*Template, error) {
	t, err := New(c.Template)
	if err != nil {
		return nil, err
	}

	if c.TemplateFormat != "" {
		declared, err := ParseFormat(c.TemplateFormat)
		if err != nil {
			return nil, err
		}
		if declared != t.format {
			return nil, errors.Unsupported("template declares %s but is %s: %q", declared, t.format, c.Template)
		}
	}

	for k, v := range c.Partials {
		t.Partial(k, v)
	}

	return t, nil
}

// Config returns the serialized form of t.
func (t *Template) Config() Config {
	c := Config{
		Template:       t.raw,
		TemplateFormat: t.format.String(),
		InputVariables: t.InputVariables(),
	}
	if len(t.partials) > 0 {
		c.Partials = t.Partials()
	}
	return c
}

// MarshalJSON implements json.Marshaler.
func (t *Template) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Config())
}

// UnmarshalJSON implements json.Unmarshaler. The decoded text is re-parsed
// so the Template invariants hold.
func (t *Template) UnmarshalJSON(data []byte) error {
	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return errors.Malformed("failed to parse template JSON: %v", err)
	}
	parsed, err := c.Build()
	if err != nil {
		return err
	}
	*t = *parsed
	return nil
}
