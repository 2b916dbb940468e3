package template

import (
	"regexp"
	"strings"
	"sync"
)

// Placeholder patterns, compiled on first use and shared read-only.
var (
	// Match a single- or double-brace group, capturing its content.
	braceGroupPattern = sync.OnceValue(func() *regexp.Regexp {
		return regexp.MustCompile(`\{\{?\s*([^}]+)\s*\}?\}`)
	})

	// Match {var} or {{var}} for variable extraction.
	variablePattern = sync.OnceValue(func() *regexp.Regexp {
		return regexp.MustCompile(`\{{1,2}([^}]+)\}{1,2}`)
	})

	identifierPattern = sync.OnceValue(func() *regexp.Regexp {
		return regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
	})
)

// braceShape summarises the brace runs of a string. A run is a maximal
// sequence of identical brace characters.
type braceShape struct {
	left, right int
	single      bool // every run has length 1
	double      bool // every run has length 2
}

func analyzeBraces(s string) braceShape {
	shape := braceShape{single: true, double: true}

	for i := 0; i < len(s); {
		c := s[i]
		if c != '{' && c != '}' {
			i++
			continue
		}

		run := 1
		for i+run < len(s) && s[i+run] == c {
			run++
		}
		if c == '{' {
			shape.left += run
		} else {
			shape.right += run
		}
		if run != 1 {
			shape.single = false
		}
		if run != 2 {
			shape.double = false
		}
		i += run
	}

	return shape
}

// CountLeftBraces returns the number of '{' characters in s.
func CountLeftBraces(s string) int {
	return strings.Count(s, "{")
}

// CountRightBraces returns the number of '}' characters in s.
func CountRightBraces(s string) int {
	return strings.Count(s, "}")
}

// HasNoBraces reports whether s contains no brace at all.
func HasNoBraces(s string) bool {
	return !strings.ContainsAny(s, "{}")
}

// HasOnlySingleBraces reports whether s has balanced braces and every brace
// stands alone (no "{{" or "}}").
func HasOnlySingleBraces(s string) bool {
	shape := analyzeBraces(s)
	return shape.left > 0 && shape.left == shape.right && shape.single
}

// HasOnlyDoubleBraces reports whether s has balanced braces and every brace
// delimiter is doubled ("{{" / "}}").
func HasOnlyDoubleBraces(s string) bool {
	shape := analyzeBraces(s)
	return shape.left > 0 && shape.left == shape.right && shape.double
}

// HasMultipleWordsBetweenBraces reports whether any brace group holds more
// than one whitespace-separated token, as in "{one two}" or "{{#each xs}}".
func HasMultipleWordsBetweenBraces(s string) bool {
	for _, m := range braceGroupPattern().FindAllStringSubmatch(s, -1) {
		if len(strings.Fields(m[1])) > 1 {
			return true
		}
	}
	return false
}

// IsValidIdentifier reports whether s matches [A-Za-z_][A-Za-z0-9_]*.
func IsValidIdentifier(s string) bool {
	return identifierPattern().MatchString(s)
}
