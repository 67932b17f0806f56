// Package config loads service configuration from the environment
package config

import (
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/KirkDiggler/rpg-rules-api/internal/errors"
)

// Config holds all configuration for the service
type Config struct {
	GRPCPort int `env:"GRPC_PORT" envDefault:"50051"`

	Redis RedisConfig

	GameData GameDataConfig
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr            string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	PoolSize        int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns    int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	ConnMaxIdleTime time.Duration `env:"REDIS_CONN_MAX_IDLE_TIME" envDefault:"5m"`
	UseTLS          bool          `env:"REDIS_USE_TLS" envDefault:"false"`
}

// GameDataConfig holds configuration for the external reference data API
type GameDataConfig struct {
	BaseURL     string        `env:"DND5E_API_URL" envDefault:"https://www.dnd5eapi.co/api/2014/"`
	HTTPTimeout time.Duration `env:"DND5E_API_TIMEOUT" envDefault:"30s"`
	CacheTTL    time.Duration `env:"DND5E_API_CACHE_TTL" envDefault:"24h"`
}

// Load parses configuration from environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse environment")
	}
	if cfg.GRPCPort < 1 || cfg.GRPCPort > 65535 {
		return nil, errors.InvalidArgumentf("invalid gRPC port %d", cfg.GRPCPort)
	}
	return &cfg, nil
}
