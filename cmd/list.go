package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/killallgit/promptforge/pkg/config"
	"github.com/killallgit/promptforge/pkg/prompt"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [dir]",
		Short: "List the prompts in a directory",
		Long: `Load every prompt below a directory (the template directory by
default) and list its name, kind and input variables.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := config.Get().Prompt.TemplateDir
			if len(args) == 1 {
				dir = args[0]
			}

			registry, err := prompt.LoadDir(dir, promptConfig())
			if err != nil {
				return err
			}

			names := registry.List()
			width := 0
			for _, name := range names {
				width = max(width, len(name))
			}

			styles := newStyles(cmd.OutOrStdout())
			for _, name := range names {
				p, err := registry.Get(name)
				if err != nil {
					return err
				}
				vars := strings.Join(p.GetInputVariables(), ", ")
				fmt.Fprintf(cmd.OutOrStdout(), "%-*s  %-8s  %s\n",
					width, name, prompt.KindOf(p), styles.dim.Render(vars))
			}
			return nil
		},
	}
}
