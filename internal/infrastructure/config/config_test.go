package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "stdio", cfg.Transport.Mode)
	assert.Equal(t, 64*1024*1024, cfg.Transport.MaxMessageBytes)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9100")
	t.Setenv("TRANSPORT", "ws")
	t.Setenv("TRANSPORT_MAX_MESSAGE_BYTES", "1048576")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, "ws", cfg.Transport.Mode)
	assert.Equal(t, 1048576, cfg.Transport.MaxMessageBytes)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestLoadOrDefaultFallsBack(t *testing.T) {
	t.Setenv("TRANSPORT_MAX_MESSAGE_BYTES", "not a number")

	cfg := LoadOrDefault()
	assert.Equal(t, Default().Transport.MaxMessageBytes, cfg.Transport.MaxMessageBytes)
}
