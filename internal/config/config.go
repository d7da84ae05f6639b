// Package config loads application configuration from the environment with
// an optional YAML override file.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"gopkg.in/yaml.v3"
)

// Config holds all runtime settings for the API server.
type Config struct {
	AppName    string `env:"APP_NAME,default=EatRite API"`
	Version    string `env:"APP_VERSION,default=1.0.0"`
	APIPrefix  string `env:"API_PREFIX,default=/api/v1"`
	ListenAddr string `env:"LISTEN_ADDR,default=:8000"`

	// Security
	SecretKey          string `env:"SECRET_KEY,default=your-secret-key-here-change-in-production"`
	TokenExpireMinutes int    `env:"ACCESS_TOKEN_EXPIRE_MINUTES,default=30"`

	// Supabase remote backend; empty URL or service key disables it and the
	// in-memory fallback handles everything.
	SupabaseURL        string `env:"SUPABASE_URL,default="`
	SupabaseAnonKey    string `env:"SUPABASE_ANON_KEY,default="`
	SupabaseServiceKey string `env:"SUPABASE_SERVICE_KEY,default="`

	// CORS; comma-separated origins. Defaults cover Expo development hosts.
	CORSOrigins string `env:"CORS_ORIGINS,default=http://localhost:8081;http://localhost:19000;http://localhost:19006"`

	// Rate limiting
	RateLimitPerSecond int `env:"RATE_LIMIT_PER_SECOND,default=20"`
	RateLimitBurst     int `env:"RATE_LIMIT_BURST,default=40"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=json"`
}

// fileConfig mirrors the subset of Config that may be overridden from a
// YAML file (config/app.yaml by default).
type fileConfig struct {
	ListenAddr         string   `yaml:"listen_addr"`
	CORSOrigins        []string `yaml:"cors_origins"`
	TokenExpireMinutes int      `yaml:"access_token_expire_minutes"`
	RateLimitPerSecond int      `yaml:"rate_limit_per_second"`
	RateLimitBurst     int      `yaml:"rate_limit_burst"`
	LogLevel           string   `yaml:"log_level"`
	LogFormat          string   `yaml:"log_format"`
}

// Load decodes configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	if cfg.TokenExpireMinutes <= 0 {
		return nil, fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}
	return &cfg, nil
}

// LoadWithFile decodes environment configuration and, if path exists,
// applies overrides from the YAML file.
func LoadWithFile(path string) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	if fc.ListenAddr != "" {
		cfg.ListenAddr = fc.ListenAddr
	}
	if len(fc.CORSOrigins) > 0 {
		cfg.CORSOrigins = strings.Join(fc.CORSOrigins, ";")
	}
	if fc.TokenExpireMinutes > 0 {
		cfg.TokenExpireMinutes = fc.TokenExpireMinutes
	}
	if fc.RateLimitPerSecond > 0 {
		cfg.RateLimitPerSecond = fc.RateLimitPerSecond
	}
	if fc.RateLimitBurst > 0 {
		cfg.RateLimitBurst = fc.RateLimitBurst
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	if fc.LogFormat != "" {
		cfg.LogFormat = fc.LogFormat
	}

	return cfg, nil
}

// TokenTTL returns the configured access token lifetime.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenExpireMinutes) * time.Minute
}

// AllowedOrigins splits the configured CORS origins.
func (c *Config) AllowedOrigins() []string {
	parts := strings.FieldsFunc(c.CORSOrigins, func(r rune) bool { return r == ';' || r == ',' })
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

// SupabaseConfigured reports whether the remote backend can be used.
func (c *Config) SupabaseConfigured() bool {
	return c.SupabaseURL != "" && c.SupabaseServiceKey != ""
}
