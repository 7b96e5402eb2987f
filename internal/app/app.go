// Package app assembles the pieces shared by the server and the lookup CLI.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fluent/fluent-logger-golang/fluent"

	"stmadison/internal/config"
	"stmadison/internal/database"
	"stmadison/internal/logging"
	"stmadison/internal/metrics"
	"stmadison/internal/objectstore"
	"stmadison/internal/repository"
)

// NewLogger builds the process logger from cfg. The returned close func flushes
// the Fluent Bit client when one was configured.
func NewLogger(cfg *config.Config) (*slog.Logger, func()) {
	lc := logging.Config{
		Writer: os.Stdout,
		Level:  logging.ParseLevel(cfg.Log.Level),
		JSON:   strings.EqualFold(cfg.Log.Format, "json"),
	}
	closeFn := func() {}

	var fluentErr error
	if cfg.Fluent.Enabled {
		var client *fluent.Fluent
		client, fluentErr = logging.NewFluentClient(cfg.Fluent.Host, cfg.Fluent.Port, cfg.AppName)
		if fluentErr == nil {
			lc.Fluent = client
			lc.FluentLevel = logging.ParseLevel(cfg.Fluent.Level)
			closeFn = func() { _ = client.Close() }
		}
	}

	logger := logging.New(lc).With("app", cfg.AppName)
	if fluentErr != nil {
		logger.Warn("fluent bit disabled", "error", fluentErr)
	}
	return logger, closeFn
}

// DBConfig maps the process config onto the engine startup parameters.
func DBConfig(cfg *config.Config) database.DBConfig {
	dc := database.DBConfig{
		Path:              cfg.Database.Path,
		InMemory:          cfg.DatabaseInMemory(),
		KeyID:             cfg.Remote.KeyID,
		Secret:            cfg.Remote.Secret,
		InstallExtensions: cfg.Database.InstallExtensions,
		Views:             database.DefaultViews(cfg.Remote.SilverURI, cfg.Remote.GoldURI),
	}
	if cfg.Remote.Preflight {
		dc.Preflight = remotePreflight(cfg, dc.Views)
	}
	return dc
}

func remotePreflight(cfg *config.Config, views []database.View) func(context.Context) error {
	return func(ctx context.Context) error {
		checker, err := objectstore.New(ctx, objectstore.Config{
			Endpoint: cfg.Remote.Endpoint,
			KeyID:    cfg.Remote.KeyID,
			Secret:   cfg.Remote.Secret,
		})
		if err != nil {
			return err
		}
		uris := make([]string, 0, len(views))
		for _, v := range views {
			uris = append(uris, v.Path)
		}
		return checker.Check(ctx, uris...)
	}
}

// Repositories bundles the three repositories over one handle.
type Repositories struct {
	Properties repository.PropertyRepository
	Parcels    repository.ParcelAssessmentRepository
	Efficiency repository.LandEfficiencyRepository
}

// Open brings the engine up and builds the repositories over it.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (*database.Handle, *Repositories, error) {
	h, err := database.Open(ctx, DBConfig(cfg), logger, m)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	return h, &Repositories{
		Properties: repository.NewDuckDBPropertyRepository(h, logger, m),
		Parcels:    repository.NewDuckDBParcelAssessmentRepository(h, logger, m),
		Efficiency: repository.NewDuckDBLandEfficiencyRepository(h, logger, m),
	}, nil
}
