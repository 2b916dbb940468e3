package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/killallgit/promptforge/pkg/errors"
	"github.com/killallgit/promptforge/pkg/template"
)

func newInspectCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "inspect [template]",
		Short: "Show the detected format and variables of a template",
		Example: `  promptforge inspect "Hello {name}"
  promptforge inspect --file prompts/greeting.txt`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := inspectInput(file, args)
			if err != nil {
				return err
			}

			tmpl, err := template.New(raw)
			if err != nil {
				return err
			}

			styles := newStyles(cmd.OutOrStdout())
			vars := strings.Join(tmpl.InputVariables(), ", ")
			if vars == "" {
				vars = "(none)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", styles.label.Render("format:   "), tmpl.TemplateFormat())
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", styles.label.Render("variables:"), vars)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "read the template text from a file")
	return cmd
}

func inspectInput(file string, args []string) (string, error) {
	switch {
	case file != "" && len(args) > 0:
		return "", errors.New("pass either a template or --file, not both")
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", errors.Wrap(err, "failed to read template file")
		}
		return strings.TrimSuffix(string(data), "\n"), nil
	case len(args) == 1:
		return args[0], nil
	default:
		return "", errors.New("no template given")
	}
}
