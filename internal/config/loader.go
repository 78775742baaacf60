package config

import (
	"strings"

	"github.com/spf13/viper"

	"marzban-go/internal/constants"
	apperrors "marzban-go/internal/errors"
)

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()

	// Set default values
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MARZBAN_PORT", constants.DefaultPanelPort)
	v.SetDefault("MARZBAN_SSL", false)
	v.SetDefault("MARZBAN_INSECURE", false)
	v.SetDefault("MARZBAN_TIMEOUT", "0s")
	v.SetDefault("MARZBAN_TOKEN_TTL", "0s")

	// Define environment variables
	v.BindEnv("MARZBAN_HOST")
	v.BindEnv("MARZBAN_USERNAME")
	v.BindEnv("MARZBAN_PASSWORD")
	v.BindEnv("MARZBAN_SUB_BASE_URL")

	cfg := &Config{
		LogLevel: v.GetString("LOG_LEVEL"),
		Panel: PanelConfig{
			Host:       strings.TrimSpace(v.GetString("MARZBAN_HOST")),
			Port:       v.GetInt("MARZBAN_PORT"),
			SSL:        v.GetBool("MARZBAN_SSL"),
			User:       strings.TrimSpace(v.GetString("MARZBAN_USERNAME")),
			Password:   strings.TrimSpace(v.GetString("MARZBAN_PASSWORD")),
			Timeout:    v.GetDuration("MARZBAN_TIMEOUT"),
			Insecure:   v.GetBool("MARZBAN_INSECURE"),
			TokenTTL:   v.GetDuration("MARZBAN_TOKEN_TTL"),
			SubBaseURL: strings.TrimSpace(v.GetString("MARZBAN_SUB_BASE_URL")),
		},
	}

	// Validate configuration
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.Panel.Host == "" {
		return &apperrors.ConfigError{Section: "panel", Message: "MARZBAN_HOST is required"}
	}
	if cfg.Panel.User == "" {
		return &apperrors.ConfigError{Section: "panel", Message: "MARZBAN_USERNAME is required"}
	}
	if cfg.Panel.Password == "" {
		return &apperrors.ConfigError{Section: "panel", Message: "MARZBAN_PASSWORD is required"}
	}
	if cfg.Panel.Port <= 0 || cfg.Panel.Port > 65535 {
		return &apperrors.ConfigError{Section: "panel", Message: "MARZBAN_PORT must be between 1 and 65535"}
	}
	if cfg.Panel.Timeout < 0 || cfg.Panel.TokenTTL < 0 {
		return &apperrors.ConfigError{Section: "panel", Message: "durations must not be negative"}
	}

	return nil
}
