package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"stmadison/internal/metrics"
)

// Handle wraps the single engine connection. Only one Guard exists at a time;
// callers queue in Acquire.
type Handle struct {
	db      *sql.DB
	sem     chan struct{}
	metrics *metrics.Metrics
}

// NewHandle wraps db. The pool is pinned to one connection so that every unit
// of work sees the same session state (secrets, views).
func NewHandle(db *sql.DB, m *metrics.Metrics) *Handle {
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)
	return &Handle{db: db, sem: make(chan struct{}, 1), metrics: m}
}

// Acquire blocks until the connection is free or ctx is done.
// The returned Guard must be released, normally with defer.
func (h *Handle) Acquire(ctx context.Context) (*Guard, error) {
	start := time.Now()
	select {
	case h.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("acquire connection: %w", ctx.Err())
	}
	h.metrics.ObserveConnectionWait(time.Since(start))
	return &Guard{h: h}, nil
}

// Ping runs a trivial query through the guarded connection.
func (h *Handle) Ping(ctx context.Context) error {
	g, err := h.Acquire(ctx)
	if err != nil {
		return err
	}
	defer g.Release()

	var one int
	if err := g.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close closes the underlying database. It waits for the current guard holder.
func (h *Handle) Close() error {
	h.sem <- struct{}{}
	defer func() { <-h.sem }()
	return h.db.Close()
}

// Guard is exclusive access to the connection for one unit of work.
type Guard struct {
	h    *Handle
	once sync.Once
}

// Release returns the connection. Calling it more than once is harmless.
func (g *Guard) Release() {
	g.once.Do(func() { <-g.h.sem })
}

// QueryContext runs a query on the guarded connection.
func (g *Guard) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return g.h.db.QueryContext(ctx, query, args...)
}

// QueryRowContext runs a single-row query on the guarded connection.
func (g *Guard) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return g.h.db.QueryRowContext(ctx, query, args...)
}

// ExecContext runs a statement on the guarded connection.
func (g *Guard) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return g.h.db.ExecContext(ctx, query, args...)
}
