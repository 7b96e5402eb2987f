package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stmadison/internal/metrics"
)

// ServerConfig holds the listener and router settings.
type ServerConfig struct {
	Addr           string
	RequestTimeout time.Duration
	AllowedOrigins []string
}

// Server owns the HTTP listener.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewRouter wires the lookup routes, /health and, when gatherer is set, /metrics.
func NewRouter(cfg ServerConfig, h *Handlers, logger *slog.Logger, m *metrics.Metrics, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(
		LoggerMiddleware(logger),
		MetricsMiddleware(m),
		middleware.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", traceHeader},
			ExposedHeaders: []string{traceHeader},
			MaxAge:         300,
		}),
	)

	r.Get("/health", h.Health)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		if cfg.RequestTimeout > 0 {
			r.Use(middleware.Timeout(cfg.RequestTimeout))
		}
		r.Get("/property/{address}", h.GetProperty)
		r.Get("/parcel-assessment/{parcelId}", h.GetParcelAssessment)
		r.Get("/land-efficiency", h.GetLandEfficiency)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteJSONError(w, http.StatusNotFound, "route not found")
	})
	return r
}

// NewServer creates a server with the full router mounted.
func NewServer(cfg ServerConfig, h *Handlers, logger *slog.Logger, m *metrics.Metrics, gatherer prometheus.Gatherer) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           NewRouter(cfg, h, logger, m, gatherer),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Start blocks until the server stops. A clean Stop returns nil.
func (s *Server) Start() error {
	s.logger.Info("starting http server", "address", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the listener down, waiting for in-flight requests until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping http server")
	return s.httpServer.Shutdown(ctx)
}
