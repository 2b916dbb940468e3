package template

import (
	"strings"

	"github.com/killallgit/promptforge/pkg/errors"
)

// ExtractVariables returns the variable names declared in s by single- or
// double-brace groups, deduplicated in first-occurrence order. Groups whose
// trimmed content is not a valid identifier are ignored.
func ExtractVariables(s string) []string {
	seen := make(map[string]bool)
	var vars []string

	for _, m := range variablePattern().FindAllStringSubmatch(s, -1) {
		name := strings.TrimSpace(m[1])
		if !IsValidIdentifier(name) || seen[name] {
			continue
		}
		seen[name] = true
		vars = append(vars, name)
	}

	return vars
}

// ExtractPlaceholderVariable returns the single variable declared in s.
// A placeholder slot such as "{history}" must declare exactly one.
func ExtractPlaceholderVariable(s string) (string, error) {
	vars := ExtractVariables(s)
	if len(vars) != 1 {
		return "", errors.Malformed("placeholder %q must contain exactly one variable, found %d", s, len(vars))
	}
	return vars[0], nil
}
