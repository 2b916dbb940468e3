package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/killallgit/promptforge/pkg/errors"
	"github.com/killallgit/promptforge/pkg/prompt"
)

func newConvertCmd() *cobra.Command {
	var (
		to  string
		out string
	)

	cmd := &cobra.Command{
		Use:   "convert <file|name>",
		Short: "Re-encode a prompt as JSON, TOML or YAML",
		Example: `  promptforge convert prompts/chat.yaml --to toml
  promptforge convert prompts/math.toml --to json --out math.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := prompt.ParseDocumentFormat(to)
			if err != nil {
				return err
			}

			p, err := resolvePrompt(args[0])
			if err != nil {
				return err
			}

			data, err := prompt.MarshalDocument(p, format)
			if err != nil {
				return err
			}

			if out == "" {
				_, err = cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			if err := os.WriteFile(out, data, 0644); err != nil {
				return errors.Wrapf(err, "failed to write %s", out)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&to, "to", "t", "json", "target format: json, toml or yaml")
	cmd.Flags().StringVarP(&out, "out", "O", "", "write to a file instead of stdout")
	return cmd
}
