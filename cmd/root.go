package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/killallgit/promptforge/pkg/config"
	"github.com/killallgit/promptforge/pkg/logger"
	"github.com/killallgit/promptforge/pkg/prompt"
)

// NewRootCmd builds the promptforge command tree.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "promptforge",
		Short: "Build and render prompt templates",
		Long: `Inspect, render and convert prompt templates.

Templates use {var} or {{var}} placeholders. Chat templates, few-shot
example blocks and plain templates can be kept as JSON, TOML or YAML files.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.Load(cfgFile); err != nil {
				return err
			}
			return logger.Init()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return logger.Close()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is .promptforge/settings.yaml)")

	rootCmd.PersistentFlags().StringP("log-level", "l", "warn", "log level")
	viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.PersistentFlags().String("template-dir", "", "directory searched for named prompts")
	viper.BindPFlag("prompt.template_dir", rootCmd.PersistentFlags().Lookup("template-dir"))

	rootCmd.AddCommand(
		newInspectCmd(),
		newRenderCmd(),
		newListCmd(),
		newConvertCmd(),
	)

	return rootCmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// promptConfig maps the loaded settings onto loader options.
func promptConfig() prompt.Config {
	settings := config.Get().Prompt
	return prompt.Config{
		TemplateDir:      settings.TemplateDir,
		Separator:        settings.Separator,
		PlaceholderLimit: settings.PlaceholderLimit,
		Concurrency:      settings.Concurrency,
		FewShotMode:      prompt.FewShotMode(settings.FewShotMode),
	}
}
