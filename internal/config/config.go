// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GigDir Contributors

// Package config loads server configuration from a YAML file with
// command-line flag overrides.
package config

import (
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/gigdir/gigdir/internal/auth"
)

// Config holds all server configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	Email    EmailConfig    `koanf:"email"`
	Log      LogConfig      `koanf:"log"`
	Metrics  MetricsConfig  `koanf:"metrics"`
}

// ServerConfig configures the HTTP API listener.
type ServerConfig struct {
	Addr string `koanf:"addr"`
	// BaseURL is the externally visible origin used when composing
	// password-reset links.
	BaseURL string `koanf:"base_url"`
}

// DatabaseConfig configures the PostgreSQL connection.
type DatabaseConfig struct {
	URL string `koanf:"url"`
}

// AuthConfig configures token issuance and password hashing.
type AuthConfig struct {
	TokenSecret string        `koanf:"token_secret"`
	TokenTTL    time.Duration `koanf:"token_ttl"`
	HashWorkers int           `koanf:"hash_workers"`
}

// EmailConfig configures the outbound mail client.
type EmailConfig struct {
	ServerToken string `koanf:"server_token"`
	From        string `koanf:"from"`
	Endpoint    string `koanf:"endpoint"`
}

// LogConfig configures structured logging output.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// MetricsConfig configures the observability listener.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// Default returns the configuration defaults. Values the YAML file or
// flags do not mention keep these settings.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:    ":8080",
			BaseURL: "http://localhost:8080",
		},
		Auth: AuthConfig{
			TokenTTL:    auth.DefaultTokenTTL,
			HashWorkers: auth.DefaultHashWorkers,
		},
		Email: EmailConfig{
			Endpoint: "https://api.postmarkapp.com/email",
		},
		Log: LogConfig{
			Format: "json",
			Level:  "info",
		},
		Metrics: MetricsConfig{
			Addr: ":9090",
		},
	}
}

// Load reads configuration from an optional YAML file and applies flag
// overrides on top. An empty path skips file loading. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_PARSE_FAILED").
			With("path", path).
			Wrap(err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that have no sensible default.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").New("database.url is required")
	}
	if c.Auth.TokenSecret == "" {
		return oops.Code("CONFIG_INVALID").New("auth.token_secret is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return oops.Code("CONFIG_INVALID").
			With("token_ttl", c.Auth.TokenTTL.String()).
			New("auth.token_ttl must be positive")
	}
	if c.Auth.HashWorkers <= 0 {
		return oops.Code("CONFIG_INVALID").
			With("hash_workers", c.Auth.HashWorkers).
			New("auth.hash_workers must be positive")
	}
	return nil
}
