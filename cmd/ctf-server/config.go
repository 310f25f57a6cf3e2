package main

import (
	"fmt"
	"os"
	"time"

	"flagforge/internal/common/cache"
	"flagforge/internal/common/db"
	"flagforge/internal/ratelimit"
	"flagforge/internal/server/middleware"
	userservice "flagforge/internal/user/service"
	"flagforge/pkg/utils/logger"

	"gopkg.in/yaml.v3"
)

const (
	defaultHTTPAddr        = "0.0.0.0:8080"
	defaultReadTimeout     = 5 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultMaxHeaderBytes  = 1 << 20
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	ReadTimeout    time.Duration `yaml:"readTimeout"`
	WriteTimeout   time.Duration `yaml:"writeTimeout"`
	IdleTimeout    time.Duration `yaml:"idleTimeout"`
	MaxHeaderBytes int           `yaml:"maxHeaderBytes"`
}

// RateLimitConfig holds the per-category token bucket policies.
type RateLimitConfig struct {
	Login          ratelimit.Policy `yaml:"login"`
	FlagSubmission ratelimit.Policy `yaml:"flagSubmission"`
}

// LeaderboardConfig holds leaderboard cache settings.
type LeaderboardConfig struct {
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// AppConfig is the full server configuration.
type AppConfig struct {
	Server      ServerConfig            `yaml:"server"`
	Logger      logger.Config           `yaml:"logger"`
	MySQL       db.MySQLConfig          `yaml:"mysql"`
	Redis       cache.RedisConfig       `yaml:"redis"`
	Auth        userservice.TokenConfig `yaml:"auth"`
	RateLimit   RateLimitConfig         `yaml:"rateLimit"`
	Leaderboard LeaderboardConfig       `yaml:"leaderboard"`
	CORS        middleware.CORSConfig   `yaml:"cors"`
}

func loadAppConfig(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s failed: %w", path, err)
	}

	cfg := &AppConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s failed: %w", path, err)
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultHTTPAddr
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = defaultIdleTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = defaultMaxHeaderBytes
	}
	if cfg.MySQL.DSN == "" {
		return nil, fmt.Errorf("mysql.dsn is required")
	}
	if cfg.Auth.Secret == "" {
		return nil, fmt.Errorf("auth.secret is required")
	}
	return cfg, nil
}

// policies merges configured overrides onto the defaults. A category
// left out of the config keeps its default limits.
func (c *AppConfig) policies() map[ratelimit.Category]ratelimit.Policy {
	policies := ratelimit.DefaultPolicies()
	if c.RateLimit.Login.Capacity > 0 && c.RateLimit.Login.Window > 0 {
		policies[ratelimit.Login] = c.RateLimit.Login
	}
	if c.RateLimit.FlagSubmission.Capacity > 0 && c.RateLimit.FlagSubmission.Window > 0 {
		policies[ratelimit.FlagSubmission] = c.RateLimit.FlagSubmission
	}
	return policies
}
