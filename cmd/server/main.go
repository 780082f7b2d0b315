// Command server runs the keygate gateway.
//
// Configuration is read from a YAML file (KEYGATE_CONFIG, ./config.yaml or
// /etc/keygate/config.yaml), an optional .env file and the environment:
//
//	KEYGATE_PORT / PORT                  - Listen port (default: 8080)
//	KEYGATE_API_KEY / API_KEY            - Static API key
//	KEYGATE_BASIC_USER / BASIC_USER      - Basic auth username
//	KEYGATE_BASIC_PASS / BASIC_PASS      - Basic auth password
//	KEYGATE_OAUTH_CLIENT / OAUTH_CLIENT  - Client id for client credentials
//	KEYGATE_OAUTH_SECRET / OAUTH_SECRET  - Client secret, also signs tokens
//	KEYGATE_STORAGE                      - "memory", "postgres" or "sqlite"
//	KEYGATE_DATABASE_URL / DATABASE_URL  - PostgreSQL DSN
//	KEYGATE_SQLITE_PATH                  - SQLite database file
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/rhuss/keygate/pkg/auth"
	"github.com/rhuss/keygate/pkg/config"
	"github.com/rhuss/keygate/pkg/credential"
	"github.com/rhuss/keygate/pkg/debug"
	"github.com/rhuss/keygate/pkg/storage/memory"
	"github.com/rhuss/keygate/pkg/storage/postgres"
	"github.com/rhuss/keygate/pkg/storage/sqlite"
	"github.com/rhuss/keygate/pkg/transport"
	transporthttp "github.com/rhuss/keygate/pkg/transport/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load("")
	if err != nil {
		return err
	}

	debug.Init(cfg.Logging.Debug, cfg.Logging.Level, cfg.Logging.Format)
	logger := slog.Default()

	verifier := credential.NewVerifier(cfg.Auth.Secrets(), credential.WithTokenTTL(cfg.Auth.TokenTTL))
	logSchemes(logger, verifier.Secrets(), cfg.Auth.Strict)
	resolver := auth.New(verifier, cfg.Auth.Strict)

	store, err := newStore(context.Background(), cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	srv := transporthttp.NewServer(
		transport.InstrumentStore(cfg.Storage.Type, store),
		verifier,
		resolver,
		transporthttp.WithAddr(":"+strconv.Itoa(cfg.Server.Port)),
		transporthttp.WithMaxBodySize(cfg.Server.MaxBodySize),
		transporthttp.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		transporthttp.WithMetrics(cfg.Observability.Metrics.Enabled),
		transporthttp.WithLogger(logger),
	)

	return srv.ListenAndServe()
}

// newStore opens the configured record store.
func newStore(ctx context.Context, cfg config.StorageConfig) (transport.RecordStore, error) {
	switch cfg.Type {
	case "postgres":
		store, err := postgres.New(ctx, postgres.Config{
			DSN:            cfg.Postgres.DSN,
			MaxConns:       cfg.Postgres.MaxConns,
			MigrateOnStart: cfg.Postgres.MigrateOnStart,
		})
		if err != nil {
			return nil, fmt.Errorf("opening postgres store: %w", err)
		}
		slog.Info("storage enabled", "type", "postgres", "max_conns", cfg.Postgres.MaxConns)
		return store, nil
	case "sqlite":
		store, err := sqlite.New(ctx, sqlite.Config{
			Path:        cfg.SQLite.Path,
			BusyTimeout: cfg.SQLite.BusyTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		slog.Info("storage enabled", "type", "sqlite", "path", cfg.SQLite.Path)
		return store, nil
	default:
		slog.Info("storage enabled", "type", "memory", "max_size", cfg.MaxSize)
		return memory.New(cfg.MaxSize), nil
	}
}

// logSchemes reports which schemes can ever succeed. Secret values are
// never logged.
func logSchemes(logger *slog.Logger, s credential.Secrets, strict bool) {
	logger.Info("authentication configured",
		"api_key", s.APIKeyEnabled(),
		"basic", s.BasicEnabled(),
		"client_credentials", s.ClientEnabled(),
		"strict", strict,
	)
	if !s.APIKeyEnabled() && !s.BasicEnabled() && !s.ClientEnabled() {
		logger.Warn("no authentication scheme configured, all protected routes will return 401")
	}
}
