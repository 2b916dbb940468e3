package config

import (
	"path/filepath"

	"github.com/spf13/viper"
)

// BaseSettingsDir returns the directory of the config file in use, or "."
// when no file was read.
func BaseSettingsDir() string {
	if configPath := viper.GetString("config.path"); configPath != "" {
		return configPath
	}

	currentConfig := viper.ConfigFileUsed()
	if currentConfig == "" {
		return "."
	}
	return filepath.Dir(currentConfig)
}

// BuildSettingsPath resolves target relative to BaseSettingsDir.
func BuildSettingsPath(target string) string {
	return filepath.Join(BaseSettingsDir(), target)
}
