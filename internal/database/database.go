package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"

	"stmadison/internal/metrics"
)

// DBConfig holds everything Open needs to bring up the engine.
type DBConfig struct {
	// Path is the engine's working file; ignored when InMemory is set.
	Path     string
	InMemory bool

	KeyID  string
	Secret string
	// SecretName names the registered credential; defaults to gcs_secret.
	SecretName string

	// InstallExtensions runs INSTALL before LOAD, for hosts without a
	// preinstalled httpfs.
	InstallExtensions bool

	Views []View

	// Preflight, when set, runs after the credentials are resolved and before
	// the engine is opened.
	Preflight func(ctx context.Context) error
}

// dsn returns the go-duckdb data source name. The empty string is an in-memory database.
func dsn(cfg DBConfig) string {
	if cfg.InMemory || cfg.Path == "" || cfg.Path == ":memory:" {
		return ""
	}
	return cfg.Path
}

// Open runs the startup protocol and returns the shared handle. Any failing
// step aborts: there is no degraded mode.
func Open(ctx context.Context, cfg DBConfig, logger *slog.Logger, m *metrics.Metrics) (*Handle, error) {
	if strings.TrimSpace(cfg.KeyID) == "" || strings.TrimSpace(cfg.Secret) == "" {
		return nil, ErrMissingCredentials
	}
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Preflight != nil {
		if err := cfg.Preflight(ctx); err != nil {
			return nil, initErr("preflight", err)
		}
		logger.Info("remote objects reachable", "views", len(cfg.Views))
	}

	source := dsn(cfg)
	if source != "" {
		if err := os.MkdirAll(filepath.Dir(source), 0o755); err != nil {
			return nil, initErr("create data directory", err)
		}
	}

	db, err := sql.Open("duckdb", source)
	if err != nil {
		return nil, initErr("open engine", err)
	}
	h := NewHandle(db, m)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, initErr("ping engine", err)
	}
	if source == "" {
		logger.Info("engine opened", "mode", "memory")
	} else {
		logger.Info("engine opened", "mode", "file", "path", source)
	}

	if err := Bootstrap(ctx, h, cfg); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("remote views mounted", "views", len(cfg.Views))
	return h, nil
}

// Bootstrap loads the object store extension, registers the credentials and
// mounts the views. It is safe to run repeatedly against the same engine.
func Bootstrap(ctx context.Context, h *Handle, cfg DBConfig) error {
	g, err := h.Acquire(ctx)
	if err != nil {
		return initErr("acquire connection", err)
	}
	defer g.Release()

	if cfg.InstallExtensions {
		if _, err := g.ExecContext(ctx, "INSTALL httpfs"); err != nil {
			return initErr("install httpfs", err)
		}
	}
	if _, err := g.ExecContext(ctx, "LOAD httpfs"); err != nil {
		return initErr("load httpfs", err)
	}
	secretSQL, err := createSecretSQL(cfg)
	if err != nil {
		return initErr("register secret", err)
	}
	if _, err := g.ExecContext(ctx, secretSQL); err != nil {
		return initErr("register secret", err)
	}
	if err := MountViews(ctx, g, cfg.Views); err != nil {
		return initErr("mount views", err)
	}
	return nil
}

// createSecretSQL scopes the key pair to the gcs protocol. DuckDB does not
// accept parameters here, so the values are rendered as escaped literals.
func createSecretSQL(cfg DBConfig) (string, error) {
	name := cfg.SecretName
	if name == "" {
		name = "gcs_secret"
	}
	if !identRe.MatchString(name) {
		return "", fmt.Errorf("invalid secret name %q", name)
	}
	return fmt.Sprintf(
		"CREATE OR REPLACE TEMPORARY SECRET %s (TYPE gcs, KEY_ID %s, SECRET %s)",
		name, quoteLiteral(cfg.KeyID), quoteLiteral(cfg.Secret)), nil
}
