package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/auditgate/expense-fraud-engine/internal/service/fraud"
)

// envPrefix namespaces the engine's environment variables (EFE_SERVER_PORT,
// EFE_HISTORY_BACKEND, ...)
const envPrefix = "EFE_"

type Config struct {
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
	LogLevel    string `koanf:"loglevel"`

	Server  ServerConfig  `koanf:"server"`
	History HistoryConfig `koanf:"history"`
	Redis   RedisConfig   `koanf:"redis"`

	Scoring fraud.ScoringRules `koanf:"scoring"`
}

type ServerConfig struct {
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"readtimeout"`
	WriteTimeout    time.Duration `koanf:"writetimeout"`
	ShutdownTimeout time.Duration `koanf:"shutdowntimeout"`

	RateLimit RateLimitConfig `koanf:"ratelimit"`
}

type RateLimitConfig struct {
	RequestsPerSecond int `koanf:"requestspersecond"`
	BurstSize         int `koanf:"burstsize"`
}

// HistoryConfig selects and bounds the historical expense store
type HistoryConfig struct {
	// Backend is "memory" or "redis"
	Backend string `koanf:"backend"`

	// MaxSize bounds the number of retained records; the oldest are
	// evicted first
	MaxSize int `koanf:"maxsize"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`

	// Key is the list key the history records live under
	Key string `koanf:"key"`
}

// Load builds the configuration from defaults, an optional YAML file and
// EFE_-prefixed environment variables, in increasing precedence. An empty
// path falls back to configs/config.yaml.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := &Config{
		Version:     "dev",
		Environment: "development",
		LogLevel:    "info",
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RateLimit: RateLimitConfig{
				RequestsPerSecond: 100,
				BurstSize:         200,
			},
		},
		History: HistoryConfig{
			Backend: "memory",
			MaxSize: 1000,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
			DB:   0,
			Key:  "efe:history",
		},
		Scoring: *fraud.DefaultScoringRules(),
	}

	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	// Config file is optional
	if path == "" {
		path = "configs/config.yaml"
	}
	_ = k.Load(file.Provider(path), yaml.Parser())

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, envPrefix)), "_", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate fails fast on configuration the engine cannot start with
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in (0, 65535], got %d", c.Server.Port)
	}
	if c.Server.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("server.ratelimit.requestspersecond must be > 0")
	}
	if c.Server.RateLimit.BurstSize < c.Server.RateLimit.RequestsPerSecond {
		return fmt.Errorf("server.ratelimit.burstsize must be >= requestspersecond")
	}

	switch c.History.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("history.backend must be memory or redis, got %q", c.History.Backend)
	}
	if c.History.MaxSize <= 0 {
		return fmt.Errorf("history.maxsize must be > 0, got %d", c.History.MaxSize)
	}
	if c.History.Backend == "redis" && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required with the redis history backend")
	}

	if err := c.Scoring.Validate(); err != nil {
		return fmt.Errorf("scoring: %w", err)
	}
	return nil
}
