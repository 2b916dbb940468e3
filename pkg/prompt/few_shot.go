package prompt

import (
	"encoding/json"
	"strings"

	"github.com/killallgit/promptforge/pkg/errors"
	"github.com/killallgit/promptforge/pkg/template"
)

// DefaultExampleSeparator joins the segments of a few-shot block.
const DefaultExampleSeparator = "\n\n"

// FewShotTemplate renders a block of example templates with an optional
// prefix and suffix.
type FewShotTemplate struct {
	examples  []*template.Template
	prefix    *template.Template
	suffix    *template.Template
	separator string
}

// FewShotOption configures a FewShotTemplate
type FewShotOption func(*FewShotTemplate)

// WithPrefix renders t before the examples.
func WithPrefix(t *template.Template) FewShotOption {
	return func(f *FewShotTemplate) {
		f.prefix = t
	}
}

// WithSuffix renders t after the examples.
func WithSuffix(t *template.Template) FewShotOption {
	return func(f *FewShotTemplate) {
		f.suffix = t
	}
}

// WithSeparator replaces DefaultExampleSeparator.
func WithSeparator(sep string) FewShotOption {
	return func(f *FewShotTemplate) {
		f.separator = sep
	}
}

// NewFewShotTemplate creates a few-shot block over examples.
func NewFewShotTemplate(examples []*template.Template, opts ...FewShotOption) *FewShotTemplate {
	f := &FewShotTemplate{
		examples:  append([]*template.Template(nil), examples...),
		separator: DefaultExampleSeparator,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// AddExample appends an example. Call it only while building.
func (f *FewShotTemplate) AddExample(t *template.Template) *FewShotTemplate {
	f.examples = append(f.examples, t)
	return f
}

// Examples returns a copy of the example templates.
func (f *FewShotTemplate) Examples() []*template.Template {
	return append([]*template.Template(nil), f.examples...)
}

// Prefix returns the prefix template, or nil.
func (f *FewShotTemplate) Prefix() *template.Template { return f.prefix }

// Suffix returns the suffix template, or nil.
func (f *FewShotTemplate) Suffix() *template.Template { return f.suffix }

// Separator returns the string joining the block's segments.
func (f *FewShotTemplate) Separator() string { return f.separator }

// Format renders prefix, examples and suffix and joins the non-empty
// segments with the separator. Every example is formatted with the same
// vars; one missing variable fails the whole call.
func (f *FewShotTemplate) Format(vars map[string]string) (string, error) {
	var segments []string

	if f.prefix != nil {
		out, err := f.prefix.Format(vars)
		if err != nil {
			return "", errors.Wrap(err, "prefix")
		}
		segments = append(segments, out)
	}

	rendered := make([]string, 0, len(f.examples))
	for i, ex := range f.examples {
		out, err := ex.Format(vars)
		if err != nil {
			return "", errors.Wrapf(err, "example %d", i)
		}
		rendered = append(rendered, out)
	}
	segments = append(segments, strings.Join(rendered, f.separator))

	if f.suffix != nil {
		out, err := f.suffix.Format(vars)
		if err != nil {
			return "", errors.Wrap(err, "suffix")
		}
		segments = append(segments, out)
	}

	nonEmpty := segments[:0]
	for _, s := range segments {
		if s != "" {
			nonEmpty = append(nonEmpty, s)
		}
	}
	return strings.Join(nonEmpty, f.separator), nil
}

// Examples builds example templates from (input, output) pairs, joining
// each pair with a newline.
//
//	Examples([2]string{"{question}: What is 5 + 5?", "{answer}: 10"})
func Examples(pairs ...[2]string) ([]*template.Template, error) {
	out := make([]*template.Template, 0, len(pairs))
	for i, p := range pairs {
		t, err := template.New(p[0] + "\n" + p[1])
		if err != nil {
			return nil, errors.Wrapf(err, "example %d", i)
		}
		out = append(out, t)
	}
	return out, nil
}

type fewShotJSON struct {
	Examples  []template.Config `json:"examples"`
	Separator *string           `json:"example_separator,omitempty"`
	Prefix    *template.Config  `json:"prefix,omitempty"`
	Suffix    *template.Config  `json:"suffix,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (f *FewShotTemplate) MarshalJSON() ([]byte, error) {
	doc := fewShotJSON{
		Examples:  make([]template.Config, len(f.examples)),
		Separator: &f.separator,
	}
	for i, ex := range f.examples {
		doc.Examples[i] = ex.Config()
	}
	if f.prefix != nil {
		c := f.prefix.Config()
		doc.Prefix = &c
	}
	if f.suffix != nil {
		c := f.suffix.Config()
		doc.Suffix = &c
	}
	return json.Marshal(doc)
}

// UnmarshalJSON implements json.Unmarshaler. A missing example_separator
// means DefaultExampleSeparator.
func (f *FewShotTemplate) UnmarshalJSON(data []byte) error {
	var doc fewShotJSON
	if err := decodeJSON(data, &doc); err != nil {
		return err
	}

	built, err := doc.build()
	if err != nil {
		return err
	}
	*f = *built
	return nil
}

func (doc fewShotJSON) build() (*FewShotTemplate, error) {
	var opts []FewShotOption
	if doc.Separator != nil {
		opts = append(opts, WithSeparator(*doc.Separator))
	}
	if doc.Prefix != nil {
		t, err := doc.Prefix.Build()
		if err != nil {
			return nil, errors.Wrap(err, "prefix")
		}
		opts = append(opts, WithPrefix(t))
	}
	if doc.Suffix != nil {
		t, err := doc.Suffix.Build()
		if err != nil {
			return nil, errors.Wrap(err, "suffix")
		}
		opts = append(opts, WithSuffix(t))
	}

	examples := make([]*template.Template, 0, len(doc.Examples))
	for i, c := range doc.Examples {
		t, err := c.Build()
		if err != nil {
			return nil, errors.Wrapf(err, "example %d", i)
		}
		examples = append(examples, t)
	}

	return NewFewShotTemplate(examples, opts...), nil
}
