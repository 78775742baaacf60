package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "marzban-go/internal/errors"
)

func setPanelEnv(t *testing.T) {
	t.Setenv("MARZBAN_HOST", " panel.example.com ")
	t.Setenv("MARZBAN_USERNAME", "root")
	t.Setenv("MARZBAN_PASSWORD", "s3cret")
	t.Setenv("MARZBAN_PORT", "")
	t.Setenv("MARZBAN_SSL", "")
	t.Setenv("MARZBAN_TIMEOUT", "")
	t.Setenv("MARZBAN_TOKEN_TTL", "")
	t.Setenv("MARZBAN_INSECURE", "")
	t.Setenv("MARZBAN_SUB_BASE_URL", "")
	t.Setenv("LOG_LEVEL", "")
}

func TestLoadDefaults(t *testing.T) {
	setPanelEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "panel.example.com", cfg.Panel.Host)
	require.Equal(t, 8000, cfg.Panel.Port)
	require.False(t, cfg.Panel.SSL)
	require.Zero(t, cfg.Panel.Timeout)
	require.Zero(t, cfg.Panel.TokenTTL)
	require.Equal(t, "info", cfg.LogLevel)
}

func TestLoadOverrides(t *testing.T) {
	setPanelEnv(t)
	t.Setenv("MARZBAN_PORT", "8443")
	t.Setenv("MARZBAN_SSL", "true")
	t.Setenv("MARZBAN_TIMEOUT", "15s")
	t.Setenv("MARZBAN_TOKEN_TTL", "12h")
	t.Setenv("MARZBAN_INSECURE", "true")
	t.Setenv("MARZBAN_SUB_BASE_URL", "https://sub.example.com")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "https://sub.example.com", cfg.Panel.SubBaseURL)

	client := cfg.Panel.ClientConfig()
	require.Equal(t, "https://panel.example.com:8443", client.BaseURL())
	require.Equal(t, "root", client.Username)
	require.Equal(t, 15*time.Second, client.Timeout)
	require.Equal(t, 12*time.Hour, client.TokenTTL)
	require.True(t, client.InsecureSkipVerify)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	testCases := []struct {
		name string
		key  string
		val  string
	}{
		{name: "missing host", key: "MARZBAN_HOST", val: ""},
		{name: "missing username", key: "MARZBAN_USERNAME", val: ""},
		{name: "missing password", key: "MARZBAN_PASSWORD", val: "  "},
		{name: "port out of range", key: "MARZBAN_PORT", val: "70000"},
		{name: "negative timeout", key: "MARZBAN_TIMEOUT", val: "-1s"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			setPanelEnv(t)
			t.Setenv(testCase.key, testCase.val)

			_, err := Load()
			var configErr *apperrors.ConfigError
			require.True(t, errors.As(err, &configErr))
			require.Equal(t, "panel", configErr.Section)
		})
	}
}
