package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/killallgit/promptforge/pkg/config"
	"github.com/killallgit/promptforge/pkg/errors"
	"github.com/killallgit/promptforge/pkg/logger"
	"github.com/killallgit/promptforge/pkg/memory"
	"github.com/killallgit/promptforge/pkg/message"
	"github.com/killallgit/promptforge/pkg/prompt"
	"github.com/killallgit/promptforge/pkg/template"
	"github.com/killallgit/promptforge/pkg/tokens"
)

func newRenderCmd() *cobra.Command {
	var (
		varPairs []string
		varsFile string
		output   string
		color    bool
		count    bool
		model    string
		history  string
		histVar  string
		window   int
	)

	cmd := &cobra.Command{
		Use:   "render <file|name>",
		Short: "Render a prompt with variables",
		Long: `Render a prompt file, or a prompt named relative to the template
directory, and print the resulting messages.`,
		Example: `  promptforge render prompts/chat.yaml --var name=Sam
  promptforge render support/chat --vars vars.json -o json --color
  promptforge render support/chat --history history.yaml --window 10`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vars, err := collectVars(varsFile, varPairs)
			if err != nil {
				return err
			}

			if history != "" {
				mem, err := memory.LoadFile(cmd.Context(), history, memory.WithWindow(window))
				if err != nil {
					return err
				}
				if err := mem.Bind(cmd.Context(), vars, histVar); err != nil {
					return err
				}
			}

			p, err := resolvePrompt(args[0])
			if err != nil {
				return err
			}

			if config.Get().Prompt.Strict {
				if err := checkStrict(p, vars); err != nil {
					return err
				}
			}

			msgs, text, err := renderPrompt(cmd.Context(), p, vars)
			if err != nil {
				return err
			}
			logger.Debug("Rendered %s into %d messages", args[0], len(msgs))

			if err := writeMessages(cmd.OutOrStdout(), output, color, msgs, text); err != nil {
				return err
			}
			if count {
				reportTokens(cmd.ErrOrStderr(), tokens.NewCounter(model), msgs)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&varPairs, "var", nil, "variable as key=value (repeatable)")
	cmd.Flags().StringVar(&varsFile, "vars", "", "JSON or YAML file of variables")
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "output format: text, messages or json")
	cmd.Flags().BoolVar(&color, "color", false, "highlight json output")
	cmd.Flags().BoolVar(&count, "tokens", false, "print the token count of the rendered messages to stderr")
	cmd.Flags().StringVar(&model, "model", "gpt-4", "model whose tokenizer --tokens uses")
	cmd.Flags().StringVar(&history, "history", "", "JSON or YAML file of prior messages for a placeholder")
	cmd.Flags().StringVar(&histVar, "history-var", "history", "placeholder variable that receives --history")
	cmd.Flags().IntVar(&window, "window", 0, "keep only the last n --history messages (0 keeps all)")

	cmd.Flags().Bool("strict", false, "reject variables the prompt does not declare")
	viper.BindPFlag("prompt.strict", cmd.Flags().Lookup("strict"))

	return cmd
}

// resolvePrompt loads a file path, or failing that a prompt name from the
// template directory.
func resolvePrompt(ref string) (prompt.Prompt, error) {
	cfg := promptConfig()

	if _, err := os.Stat(ref); err == nil {
		loader := prompt.NewFileLoaderWithConfig(filepath.Dir(ref), cfg)
		return loader.LoadPrompt(filepath.Base(ref))
	}

	if cfg.TemplateDir == "" {
		return nil, errors.Newf("prompt %s not found", ref)
	}
	if _, err := os.Stat(cfg.TemplateDir); err != nil {
		return nil, errors.WithHintf(
			errors.Newf("prompt %s not found", ref),
			"template directory %s does not exist", cfg.TemplateDir,
		)
	}

	registry, err := prompt.LoadDir(cfg.TemplateDir, cfg)
	if err != nil {
		return nil, err
	}
	return registry.Get(filepath.ToSlash(ref))
}

// renderPrompt resolves p into messages plus the text form printed by the
// text output.
func renderPrompt(ctx context.Context, p prompt.Prompt, vars map[string]string) ([]message.Message, string, error) {
	switch p := p.(type) {
	case *prompt.ChatTemplate:
		msgs, err := p.FormatMessagesContext(ctx, vars)
		if err != nil {
			return nil, "", err
		}
		return msgs, message.FormatTranscript(msgs), nil

	case *prompt.FewShotChatTemplate:
		msgs, err := p.Messages()
		if err != nil {
			return nil, "", err
		}
		return msgs, message.FormatTranscript(msgs), nil

	case *template.Template:
		text, err := p.Format(vars)
		if err != nil {
			return nil, "", err
		}
		return []message.Message{message.NewHumanMessage(text)}, text, nil

	default:
		return nil, "", errors.Newf("cannot render %T", p)
	}
}

func reportTokens(w io.Writer, counter *tokens.Counter, msgs []message.Message) {
	suffix := ""
	if !counter.Exact() {
		suffix = " (estimated)"
	}
	fmt.Fprintf(w, "tokens: %d%s\n", counter.CountMessages(msgs), suffix)
}
