// Package config provides unified configuration for the keygate gateway.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. .env file (never overrides variables already in the environment)
//  4. Environment variable overrides (KEYGATE_ prefix, then legacy names)
//  5. File reference resolution (_file suffix fields)
//  6. Validation
package config

import (
	"time"

	"github.com/rhuss/keygate/pkg/credential"
)

// Config holds all configuration for the keygate gateway.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Auth          AuthConfig          `yaml:"auth"`
	Storage       StorageConfig       `yaml:"storage"`
	Logging       LoggingConfig       `yaml:"logging"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port              int           `yaml:"port"`                // default: 8080
	MaxBodySize       int64         `yaml:"max_body_size"`       // default: 1 MB
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`    // default: 30s
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"` // default: 10s
}

// AuthConfig holds the shared secrets for each authentication scheme.
// A scheme whose secrets are empty is disabled.
type AuthConfig struct {
	APIKey     string      `yaml:"api_key"`
	APIKeyFile string      `yaml:"api_key_file"` // _file variant for api_key
	Basic      BasicConfig `yaml:"basic"`
	OAuth      OAuthConfig `yaml:"oauth"`

	// TokenTTL is the lifetime of issued bearer tokens (default: 1h).
	TokenTTL time.Duration `yaml:"token_ttl"`

	// Strict rejects a request as soon as any presented credential fails
	// instead of falling through to the next scheme.
	Strict bool `yaml:"strict"`
}

// BasicConfig holds HTTP Basic credentials.
type BasicConfig struct {
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	PasswordFile string `yaml:"password_file"` // _file variant for password
}

// OAuthConfig holds the client id/secret pair. The secret also signs
// issued tokens.
type OAuthConfig struct {
	ClientID         string `yaml:"client_id"`
	ClientSecret     string `yaml:"client_secret"`
	ClientSecretFile string `yaml:"client_secret_file"` // _file variant for client_secret
}

// Secrets converts the auth settings into the verifier's secret set.
func (a AuthConfig) Secrets() credential.Secrets {
	return credential.Secrets{
		APIKey:        a.APIKey,
		BasicUsername: a.Basic.Username,
		BasicPassword: a.Basic.Password,
		ClientID:      a.OAuth.ClientID,
		ClientSecret:  a.OAuth.ClientSecret,
	}
}

// StorageConfig holds record store settings.
type StorageConfig struct {
	Type     string         `yaml:"type"`     // "memory", "postgres" or "sqlite", default: "memory"
	MaxSize  int            `yaml:"max_size"` // for memory store, 0 = unlimited (default)
	Postgres PostgresConfig `yaml:"postgres"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"`         // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`        // default: 25
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: false
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path        string        `yaml:"path"`         // default: "keygate.db"
	BusyTimeout time.Duration `yaml:"busy_timeout"` // default: 5s
}

// LoggingConfig holds log output settings. KEYGATE_DEBUG,
// KEYGATE_LOG_LEVEL and KEYGATE_LOG_FORMAT take precedence at runtime.
type LoggingConfig struct {
	Debug  string `yaml:"debug"`  // comma-separated categories
	Level  string `yaml:"level"`  // default: "INFO"
	Format string `yaml:"format"` // "text" or "json", default: "text"
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"` // default: true
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:              8080,
			MaxBodySize:       1 << 20,
			ShutdownTimeout:   30 * time.Second,
			ReadHeaderTimeout: 10 * time.Second,
		},
		Auth: AuthConfig{
			TokenTTL: credential.DefaultTokenTTL,
		},
		Storage: StorageConfig{
			Type: "memory",
			Postgres: PostgresConfig{
				MaxConns: 25,
			},
			SQLite: SQLiteConfig{
				Path:        "keygate.db",
				BusyTimeout: 5 * time.Second,
			},
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
			},
		},
	}
}
