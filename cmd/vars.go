package cmd

import (
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/killallgit/promptforge/pkg/errors"
	"github.com/killallgit/promptforge/pkg/prompt"
	"github.com/killallgit/promptforge/pkg/template"
)

// collectVars merges the --vars file with --var pairs; pairs win.
func collectVars(varsFile string, pairs []string) (map[string]string, error) {
	vars := make(map[string]string)

	if varsFile != "" {
		data, err := os.ReadFile(varsFile)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read vars file")
		}
		// YAML is a superset of JSON, so one decoder reads both.
		var values map[string]any
		if err := yaml.Unmarshal(data, &values); err != nil {
			return nil, errors.Wrapf(err, "failed to parse vars file %s", varsFile)
		}
		for k, v := range template.StringValues(values) {
			vars[k] = v
		}
	}

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, errors.Newf("invalid --var %q, want key=value", pair)
		}
		vars[key] = value
	}

	return vars, nil
}

// acceptor is implemented by prompts that read more variables than they
// require, such as chat templates with optional placeholders.
type acceptor interface {
	AcceptedVariables() []string
}

// checkStrict rejects variables the prompt never reads.
func checkStrict(p prompt.Prompt, vars map[string]string) error {
	names := p.GetInputVariables()
	if a, ok := p.(acceptor); ok {
		names = a.AcceptedVariables()
	}

	declared := make(map[string]bool, len(names))
	for _, name := range names {
		declared[name] = true
	}

	var unused []string
	for name := range vars {
		if !declared[name] {
			unused = append(unused, name)
		}
	}
	if len(unused) == 0 {
		return nil
	}
	sort.Strings(unused)
	return errors.WithHint(
		errors.Newf("unused variables: %s", strings.Join(unused, ", ")),
		"disable prompt.strict to allow extra variables",
	)
}
