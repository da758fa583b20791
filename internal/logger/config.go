package logger

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds logging configuration
type Config struct {
	Level          string `yaml:"level"`
	ConsoleEnabled bool   `yaml:"console_enabled"`
	ConsoleFormat  string `yaml:"console_format"`
	FileEnabled    bool   `yaml:"file_enabled"`
	FilePath       string `yaml:"file_path"`
	FileFormat     string `yaml:"file_format"`
	FileMaxSizeMB  int    `yaml:"file_max_size_mb"`
	FileMaxBackups int    `yaml:"file_max_backups"`
	FileMaxAgeDays int    `yaml:"file_max_age_days"`
	FileCompress   bool   `yaml:"file_compress"`
}

// LoggingConfig wraps the Config for YAML parsing
type LoggingConfig struct {
	Logging Config `yaml:"logging"`
}

// envOverrides are the environment variables that win over the YAML file.
// Unset variables leave the pointer nil.
type envOverrides struct {
	Level         *string `env:"LOG_LEVEL"`
	ConsoleFormat *string `env:"LOG_CONSOLE_FORMAT"`
	FileEnabled   *bool   `env:"LOG_FILE_ENABLED"`
	FilePath      *string `env:"LOG_FILE_PATH"`
}

// DefaultConfig returns the logging configuration used when no file is present
func DefaultConfig() Config {
	return Config{
		Level:          "INFO",
		ConsoleEnabled: true,
		ConsoleFormat:  "text",
		FileEnabled:    false,
		FilePath:       "logs/questd.log",
		FileFormat:     "text",
		FileMaxSizeMB:  10,
		FileMaxBackups: 5,
		FileMaxAgeDays: 30,
	}
}

// LoadConfig loads logging configuration from a YAML file
// and applies environment variable overrides
func LoadConfig(configPath string) (Config, error) {
	config := DefaultConfig()

	// Silently use defaults if the file doesn't exist or can't be parsed
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			var loggingConfig LoggingConfig
			if err := yaml.Unmarshal(data, &loggingConfig); err == nil {
				config.merge(loggingConfig.Logging)
			}
		}
	}

	if err := config.applyEnv(); err != nil {
		return config, err
	}
	return config, nil
}

// merge copies the values set in loaded over the defaults
func (c *Config) merge(loaded Config) {
	if loaded.Level != "" {
		c.Level = loaded.Level
	}
	// Bools always come from the file
	c.ConsoleEnabled = loaded.ConsoleEnabled
	c.FileEnabled = loaded.FileEnabled
	c.FileCompress = loaded.FileCompress
	if loaded.ConsoleFormat != "" {
		c.ConsoleFormat = loaded.ConsoleFormat
	}
	if loaded.FilePath != "" {
		c.FilePath = loaded.FilePath
	}
	if loaded.FileFormat != "" {
		c.FileFormat = loaded.FileFormat
	}
	if loaded.FileMaxSizeMB > 0 {
		c.FileMaxSizeMB = loaded.FileMaxSizeMB
	}
	if loaded.FileMaxBackups > 0 {
		c.FileMaxBackups = loaded.FileMaxBackups
	}
	if loaded.FileMaxAgeDays > 0 {
		c.FileMaxAgeDays = loaded.FileMaxAgeDays
	}
}

func (c *Config) applyEnv() error {
	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return fmt.Errorf("failed to parse logging environment: %w", err)
	}
	if overrides.Level != nil && *overrides.Level != "" {
		c.Level = *overrides.Level
	}
	if overrides.ConsoleFormat != nil && *overrides.ConsoleFormat != "" {
		c.ConsoleFormat = *overrides.ConsoleFormat
	}
	if overrides.FileEnabled != nil {
		c.FileEnabled = *overrides.FileEnabled
	}
	if overrides.FilePath != nil && *overrides.FilePath != "" {
		c.FilePath = *overrides.FilePath
	}
	return nil
}
