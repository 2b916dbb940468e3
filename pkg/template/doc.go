// Package template parses and formats single prompt templates.
//
// The format of a template is derived from its brace structure:
//
//	"Hello world"       PlainText
//	"Hello {name}"      FmtString
//	"Hello {{name}}"    Mustache
//
// Mixed or unbalanced braces are rejected with errors.ErrMalformedTemplate,
// and a brace group holding more than one word is rejected with
// errors.ErrUnsupportedFormat. Mustache templates are rendered with
// github.com/cbroglie/mustache, which HTML-escapes values by default.
//
// A Template also satisfies prompts.FormatPrompter from langchaingo so it can
// be handed to chains that expect one.
package template
