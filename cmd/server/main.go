package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"stmadison/internal/api"
	"stmadison/internal/app"
	"stmadison/internal/config"
	"stmadison/internal/database"
	"stmadison/internal/metrics"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, closeLogs := app.NewLogger(cfg)
	defer closeLogs()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	h, repos, err := app.Open(ctx, cfg, logger, m)
	if err != nil {
		if errors.Is(err, database.ErrMissingCredentials) {
			logger.Error("GCS_KEY_ID and GCS_SECRET must be set")
		} else {
			logger.Error("database initialization failed", "error", err)
		}
		return err
	}
	defer func() {
		if err := h.Close(); err != nil {
			logger.Warn("close database", "error", err)
		}
	}()

	handlers := api.NewHandlers(repos.Properties, repos.Parcels, repos.Efficiency, h, logger)
	srv := api.NewServer(api.ServerConfig{
		Addr:           cfg.HTTP.Addr,
		RequestTimeout: cfg.HTTP.RequestTimeout,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
	}, handlers, logger, m, reg)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		return err
	}
	logger.Info("server stopped")
	return nil
}
