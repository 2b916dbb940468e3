package template

import (
	"strings"

	"github.com/killallgit/promptforge/pkg/errors"
)

// Format is the placeholder syntax of a template, derived from its brace
// structure.
type Format int

const (
	// PlainText has no braces and never needs substitution.
	PlainText Format = iota
	// FmtString uses single-brace placeholders: "Hello {name}".
	FmtString
	// Mustache uses double-brace placeholders: "Hello {{name}}".
	Mustache
)

// String returns the serialized name of the format.
func (f Format) String() string {
	switch f {
	case PlainText:
		return "PlainText"
	case FmtString:
		return "FmtString"
	case Mustache:
		return "Mustache"
	default:
		return "Unknown"
	}
}

// ParseFormat converts a serialized format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "plaintext", "plain_text", "plain":
		return PlainText, nil
	case "fmtstring", "fmt_string", "fstring":
		return FmtString, nil
	case "mustache":
		return Mustache, nil
	default:
		return PlainText, errors.Unsupported("unknown template format %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Format) UnmarshalText(text []byte) error {
	parsed, err := ParseFormat(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// IsPlainText reports whether s contains no braces.
func IsPlainText(s string) bool {
	return HasNoBraces(s)
}

// IsFmtString reports whether s is a single-brace template whose groups each
// hold one token.
func IsFmtString(s string) bool {
	return HasOnlySingleBraces(s) && !HasMultipleWordsBetweenBraces(s)
}

// IsMustache reports whether s is a double-brace template whose groups each
// hold one token.
func IsMustache(s string) bool {
	return HasOnlyDoubleBraces(s) && !HasMultipleWordsBetweenBraces(s)
}

// IsValidTemplate reports whether the brace structure of s is well formed:
// no braces, or balanced braces that are all single or all doubled.
func IsValidTemplate(s string) bool {
	if HasNoBraces(s) {
		return true
	}
	shape := analyzeBraces(s)
	return shape.left == shape.right && (shape.single || shape.double)
}

// Validate returns ErrMalformedTemplate when the brace structure of s is
// unbalanced or mixes single and double braces.
func Validate(s string) error {
	if !IsValidTemplate(s) {
		return errors.Malformed("unbalanced or mixed braces in %q", s)
	}
	return nil
}

// Detect classifies a well-formed template string. Balanced braces whose
// groups contain several words yield ErrUnsupportedFormat.
func Detect(s string) (Format, error) {
	switch {
	case IsPlainText(s):
		return PlainText, nil
	case IsMustache(s):
		return Mustache, nil
	case IsFmtString(s):
		return FmtString, nil
	default:
		return PlainText, errors.Unsupported("cannot classify %q", s)
	}
}

// Classify validates s and then detects its format.
func Classify(s string) (Format, error) {
	if err := Validate(s); err != nil {
		return PlainText, err
	}
	return Detect(s)
}
