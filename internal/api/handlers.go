package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"stmadison/internal/logging"
	"stmadison/internal/repository"
)

// Pinger reports whether the data layer can answer a trivial query.
type Pinger interface {
	Ping(ctx context.Context) error
}

const healthProbeTimeout = 2 * time.Second

// Handlers serves the lookup routes over the repositories.
type Handlers struct {
	properties repository.PropertyRepository
	parcels    repository.ParcelAssessmentRepository
	efficiency repository.LandEfficiencyRepository
	db         Pinger
	logger     *slog.Logger
}

// NewHandlers creates the route handlers. A nil logger falls back to slog.Default.
func NewHandlers(
	properties repository.PropertyRepository,
	parcels repository.ParcelAssessmentRepository,
	efficiency repository.LandEfficiencyRepository,
	db Pinger,
	logger *slog.Logger,
) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		properties: properties,
		parcels:    parcels,
		efficiency: efficiency,
		db:         db,
		logger:     logger,
	}
}

// GetProperty handles GET /property/{address}.
func (h *Handlers) GetProperty(w http.ResponseWriter, r *http.Request) {
	address := pathParam(r, "address")
	if address == "" {
		WriteJSONError(w, http.StatusBadRequest, "address is required")
		return
	}
	result, err := h.properties.GetPropertyWithHistory(r.Context(), address)
	if err != nil {
		h.fail(w, r, err, "failed to fetch property")
		return
	}
	RespondWithJSON(w, http.StatusOK, result)
}

// GetParcelAssessment handles GET /parcel-assessment/{parcelId}.
func (h *Handlers) GetParcelAssessment(w http.ResponseWriter, r *http.Request) {
	parcelID := pathParam(r, "parcelId")
	if parcelID == "" {
		WriteJSONError(w, http.StatusBadRequest, "parcel id is required")
		return
	}
	rows, err := h.parcels.GetParcelAssessment(r.Context(), parcelID)
	if err != nil {
		h.fail(w, r, err, "failed to fetch parcel assessment")
		return
	}
	RespondWithJSON(w, http.StatusOK, rows)
}

// GetLandEfficiency handles GET /land-efficiency.
func (h *Handlers) GetLandEfficiency(w http.ResponseWriter, r *http.Request) {
	rows, err := h.efficiency.GetLandEfficiencyMetrics(r.Context())
	if err != nil {
		h.fail(w, r, err, "failed to fetch land efficiency metrics")
		return
	}
	RespondWithJSON(w, http.StatusOK, rows)
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// Health probes the engine with a trivial query.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthProbeTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		logging.FromContext(r.Context(), h.logger).Warn("health probe failed", "error", err)
		RespondWithJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "degraded", Database: "unavailable"})
		return
	}
	RespondWithJSON(w, http.StatusOK, healthResponse{Status: "ok", Database: "connected"})
}

// fail maps repository kinds onto status codes. Error detail goes to the log only.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error, message string) {
	logger := logging.FromContext(r.Context(), h.logger)
	if errors.Is(err, repository.ErrNotFound) {
		logger.Info("lookup miss", "error", err)
		WriteJSONError(w, http.StatusNotFound, "not found")
		return
	}
	logger.Error(message, "error", err)
	WriteJSONError(w, http.StatusInternalServerError, message)
}

// pathParam returns the decoded chi URL parameter. chi matches on the
// already-decoded Path unless the request carries a RawPath, so only the
// latter needs unescaping.
func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return raw
	}
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}
