package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/lmittmann/tint"
)

// Config selects the active sinks.
type Config struct {
	Writer io.Writer
	Level  slog.Leveler
	JSON   bool

	Fluent      *fluent.Fluent
	FluentLevel slog.Leveler
}

// New builds the process logger. Stdout is always active; Fluent Bit is added
// when a client is configured.
func New(cfg Config) *slog.Logger {
	if cfg.Writer == nil {
		cfg.Writer = os.Stdout
	}
	if cfg.Level == nil {
		cfg.Level = slog.LevelInfo
	}

	var stdout slog.Handler
	if cfg.JSON {
		stdout = slog.NewJSONHandler(cfg.Writer, &slog.HandlerOptions{Level: cfg.Level})
	} else {
		stdout = tint.NewHandler(cfg.Writer, &tint.Options{
			Level:      cfg.Level,
			TimeFormat: "2006-01-02 15:04:05",
		})
	}

	handlers := []slog.Handler{stdout}
	if cfg.Fluent != nil {
		handlers = append(handlers, NewFluentHandler(cfg.Fluent, cfg.FluentLevel))
	}
	if len(handlers) == 1 {
		return slog.New(stdout)
	}
	return slog.New(NewFanoutHandler(handlers...))
}

// NewFluentClient connects to a Fluent Bit forward input. There is no ping:
// delivery errors show up on the first post.
func NewFluentClient(host string, port int, tagPrefix string) (*fluent.Fluent, error) {
	if tagPrefix == "" {
		return nil, fmt.Errorf("fluent tag prefix is required")
	}
	client, err := fluent.New(fluent.Config{
		FluentHost: host,
		FluentPort: port,
		TagPrefix:  tagPrefix,
		Async:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("create fluent client: %w", err)
	}
	return client, nil
}

// ParseLevel maps a config string to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type ctxKey struct{}

// WithContext stores a request-scoped logger.
func WithContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the request-scoped logger, or fallback when none is set.
func FromContext(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	if fallback != nil {
		return fallback
	}
	return slog.Default()
}

// Discard is a logger that drops everything; handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
