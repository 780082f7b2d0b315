package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rhuss/keygate/pkg/debug"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, KEYGATE_CONFIG env, ./config.yaml, /etc/keygate/config.yaml)
//  3. .env file (KEYGATE_ENV_FILE or ./.env)
//  4. Environment variable overrides
//  5. File reference resolution (_file suffix)
//  6. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
		debug.Log("config", "loaded config file", "path", filePath)
	}

	env, err := newEnv()
	if err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(&cfg, env); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. KEYGATE_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/keygate/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("KEYGATE_CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{
		"config.yaml",
		"/etc/keygate/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// env resolves variables from the process environment first and a .env
// file second. The process environment is never modified.
type env struct {
	dotenv map[string]string
}

// newEnv reads the .env file named by KEYGATE_ENV_FILE, or ./.env when
// present. An explicitly named file must exist.
func newEnv() (env, error) {
	path := os.Getenv("KEYGATE_ENV_FILE")
	explicit := path != ""
	if !explicit {
		path = ".env"
	}

	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return env{}, nil
		}
		return env{}, fmt.Errorf("reading env file %s: %w", path, err)
	}
	debug.Log("config", "loaded env file", "path", path, "vars", len(values))
	return env{dotenv: values}, nil
}

// lookup returns the first non-empty value among names.
func (e env) lookup(names ...string) (string, bool) {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v, true
		}
		if v := e.dotenv[name]; v != "" {
			return v, true
		}
	}
	return "", false
}

// applyEnvOverrides maps environment variables to config fields. Each
// KEYGATE_ name is checked before the legacy name it replaces.
func applyEnvOverrides(cfg *Config, e env) error {
	var errs []error

	str := func(dst *string, names ...string) {
		if v, ok := e.lookup(names...); ok {
			*dst = v
		}
	}
	integer := func(dst *int, names ...string) {
		if v, ok := e.lookup(names...); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", names[0], err))
				return
			}
			*dst = n
		}
	}
	duration := func(dst *time.Duration, names ...string) {
		if v, ok := e.lookup(names...); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", names[0], err))
				return
			}
			*dst = d
		}
	}
	boolean := func(dst *bool, names ...string) {
		if v, ok := e.lookup(names...); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", names[0], err))
				return
			}
			*dst = b
		}
	}

	integer(&cfg.Server.Port, "KEYGATE_PORT", "PORT")

	str(&cfg.Auth.APIKey, "KEYGATE_API_KEY", "API_KEY")
	str(&cfg.Auth.Basic.Username, "KEYGATE_BASIC_USER", "BASIC_USER")
	str(&cfg.Auth.Basic.Password, "KEYGATE_BASIC_PASS", "BASIC_PASS")
	str(&cfg.Auth.OAuth.ClientID, "KEYGATE_OAUTH_CLIENT", "OAUTH_CLIENT")
	str(&cfg.Auth.OAuth.ClientSecret, "KEYGATE_OAUTH_SECRET", "OAUTH_SECRET")
	duration(&cfg.Auth.TokenTTL, "KEYGATE_TOKEN_TTL")
	boolean(&cfg.Auth.Strict, "KEYGATE_STRICT_AUTH")

	str(&cfg.Storage.Type, "KEYGATE_STORAGE")
	integer(&cfg.Storage.MaxSize, "KEYGATE_STORAGE_SIZE")
	str(&cfg.Storage.Postgres.DSN, "KEYGATE_DATABASE_URL", "DATABASE_URL")
	boolean(&cfg.Storage.Postgres.MigrateOnStart, "KEYGATE_MIGRATE_ON_START")
	str(&cfg.Storage.SQLite.Path, "KEYGATE_SQLITE_PATH")

	boolean(&cfg.Observability.Metrics.Enabled, "KEYGATE_METRICS_ENABLED")

	return errors.Join(errs...)
}

// resolveFileReferences reads _file fields and populates the corresponding value fields.
// For each field ending in _file, if the value field is empty and the file field is set,
// the file is read, whitespace is trimmed, and the value field is populated.
func resolveFileReferences(cfg *Config) error {
	refs := []struct {
		name  string
		file  string
		value *string
	}{
		{"auth.api_key_file", cfg.Auth.APIKeyFile, &cfg.Auth.APIKey},
		{"auth.basic.password_file", cfg.Auth.Basic.PasswordFile, &cfg.Auth.Basic.Password},
		{"auth.oauth.client_secret_file", cfg.Auth.OAuth.ClientSecretFile, &cfg.Auth.OAuth.ClientSecret},
		{"storage.postgres.dsn_file", cfg.Storage.Postgres.DSNFile, &cfg.Storage.Postgres.DSN},
	}

	for _, ref := range refs {
		if ref.file == "" || *ref.value != "" {
			continue
		}
		val, err := readSecretFile(ref.file)
		if err != nil {
			return fmt.Errorf("%s: %w", ref.name, err)
		}
		*ref.value = val
	}

	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
