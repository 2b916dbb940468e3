package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/killallgit/promptforge/pkg/errors"
)

// EnvPrefix prefixes every environment override, e.g. PROMPTFORGE_LOGGING_LEVEL.
const EnvPrefix = "PROMPTFORGE"

// Config represents the application configuration
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Prompt  PromptConfig  `mapstructure:"prompt"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	LogFile  string `mapstructure:"log_file"` // empty logs to stderr
	Preserve bool   `mapstructure:"preserve"`
	Level    string `mapstructure:"level"`
}

// PromptConfig holds defaults applied when loading and rendering templates
type PromptConfig struct {
	TemplateDir      string `mapstructure:"template_dir"`
	Separator        string `mapstructure:"separator"`
	PlaceholderLimit int    `mapstructure:"placeholder_limit"`
	Concurrency      int    `mapstructure:"concurrency"`
	FewShotMode      string `mapstructure:"few_shot_mode"`
	Strict           bool   `mapstructure:"strict"` // reject --var keys no template declares
}

var cfg *Config

// Get returns the global config instance
func Get() *Config {
	if cfg == nil {
		panic("config not initialized")
	}
	return cfg
}

// IsLoaded reports whether Load has succeeded.
func IsLoaded() bool {
	return cfg != nil
}

// Load loads configuration from file and environment
func Load(cfgFile string) (*Config, error) {
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(err, "failed to get home directory")
		}

		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome == "" {
			xdgConfigHome = filepath.Join(home, ".config")
		}

		viper.AddConfigPath("./.promptforge")
		viper.AddConfigPath(filepath.Join(xdgConfigHome, "promptforge"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("settings")
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// An explicit file must exist; the search path is optional.
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrapf(err, "failed to read config")
		}
	}

	loaded := &Config{}
	if err := viper.Unmarshal(loaded); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	if err := loaded.validate(); err != nil {
		return nil, err
	}

	cfg = loaded
	return cfg, nil
}

// setDefaults sets all default configuration values
func setDefaults() {
	// Logging defaults
	viper.SetDefault("logging.log_file", "")
	viper.SetDefault("logging.preserve", false)
	viper.SetDefault("logging.level", "warn")

	// Prompt defaults
	viper.SetDefault("prompt.template_dir", "./prompts")
	viper.SetDefault("prompt.separator", "\n\n")
	viper.SetDefault("prompt.placeholder_limit", 100)
	viper.SetDefault("prompt.concurrency", 1)
	viper.SetDefault("prompt.few_shot_mode", "system")
	viper.SetDefault("prompt.strict", false)
}

func (c *Config) validate() error {
	if c.Prompt.PlaceholderLimit < 0 {
		return errors.Newf("prompt.placeholder_limit must not be negative, got %d", c.Prompt.PlaceholderLimit)
	}
	if c.Prompt.Concurrency < 0 {
		return errors.Newf("prompt.concurrency must not be negative, got %d", c.Prompt.Concurrency)
	}
	switch strings.ToLower(c.Prompt.FewShotMode) {
	case "", "system", "transcript":
	default:
		return errors.Newf("prompt.few_shot_mode must be system or transcript, got %q", c.Prompt.FewShotMode)
	}
	return nil
}
