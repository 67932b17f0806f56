package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/rpg-rules-api/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 50051, cfg.GRPCPort)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "https://www.dnd5eapi.co/api/2014/", cfg.GameData.BaseURL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GRPC_PORT", "9090")
	t.Setenv("REDIS_ADDR", "redis:6380")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.GRPCPort)
	assert.Equal(t, "redis:6380", cfg.Redis.Addr)
}

func TestLoadRejectsBadPort(t *testing.T) {
	t.Setenv("GRPC_PORT", "99999")

	_, err := config.Load()
	assert.Error(t, err)
}
