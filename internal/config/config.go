package config

import (
	"time"

	"marzban-go/pkg/marzban"
)

// Config represents the application configuration
type Config struct {
	Panel    PanelConfig `mapstructure:"panel"`
	LogLevel string      `mapstructure:"log_level"`
}

// PanelConfig holds the connection settings of a Marzban panel
type PanelConfig struct {
	Host       string        `mapstructure:"host"`
	Port       int           `mapstructure:"port"`
	SSL        bool          `mapstructure:"ssl"`
	User       string        `mapstructure:"user"`
	Password   string        `mapstructure:"password"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Insecure   bool          `mapstructure:"insecure"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
	SubBaseURL string        `mapstructure:"sub_base_url"`
}

// ClientConfig converts the panel settings into the client's configuration
func (p PanelConfig) ClientConfig() marzban.Config {
	return marzban.Config{
		Host:               p.Host,
		Port:               p.Port,
		SSL:                p.SSL,
		Username:           p.User,
		Password:           p.Password,
		Timeout:            p.Timeout,
		InsecureSkipVerify: p.Insecure,
		TokenTTL:           p.TokenTTL,
	}
}
