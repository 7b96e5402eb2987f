package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"stmadison/internal/database"
	"stmadison/internal/logging"
	"stmadison/internal/metrics"
	"stmadison/internal/types"
)

// LandEfficiencyRepository returns land efficiency ratios for every parcel.
type LandEfficiencyRepository interface {
	GetLandEfficiencyMetrics(ctx context.Context) ([]types.LandEfficiencyMetrics, error)
}

// Full scan; the parcel set is one municipality, so no paging.
const landEfficiencyQuery = `
	SELECT
		CAST(land_value_per_sqft_lot AS DOUBLE),
		CAST(net_taxes_per_sqft_lot AS DOUBLE),
		CAST(land_share_property AS DOUBLE),
		CAST(land_value_alignment_index AS DOUBLE)
	FROM silver.parcels`

// DuckDBLandEfficiencyRepository scans silver.parcels.
type DuckDBLandEfficiencyRepository struct {
	db      *database.Handle
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewDuckDBLandEfficiencyRepository creates a repository over the shared handle.
func NewDuckDBLandEfficiencyRepository(db *database.Handle, logger *slog.Logger, m *metrics.Metrics) *DuckDBLandEfficiencyRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &DuckDBLandEfficiencyRepository{db: db, logger: logger, metrics: m}
}

// GetLandEfficiencyMetrics returns one row per parcel; no rows is an empty slice.
func (r *DuckDBLandEfficiencyRepository) GetLandEfficiencyMetrics(ctx context.Context) (out []types.LandEfficiencyMetrics, err error) {
	const op = "land_efficiency.GetLandEfficiencyMetrics"
	start := time.Now()
	defer func() {
		r.metrics.ObserveQuery("land_efficiency", "GetLandEfficiencyMetrics", outcome(err), time.Since(start))
	}()

	g, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, dbErr(op, err)
	}
	defer g.Release()

	rows, err := g.QueryContext(ctx, landEfficiencyQuery)
	if err != nil {
		return nil, dbErr(op, err)
	}
	out, err = collect(op, rows, scanLandEfficiency)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx, r.logger).Debug("land efficiency scan finished", "rows", len(out))
	return out, nil
}

func scanLandEfficiency(s rowScanner) (types.LandEfficiencyMetrics, error) {
	var perSqft, taxPerSqft, share, alignment sql.NullFloat64
	if err := s.Scan(&perSqft, &taxPerSqft, &share, &alignment); err != nil {
		return types.LandEfficiencyMetrics{}, err
	}
	return types.LandEfficiencyMetrics{
		LandValuePerSqft:        floatPtr(perSqft),
		NetTaxesPerSqft:         floatPtr(taxPerSqft),
		LandShareOfProperty:     floatPtr(share),
		LandValueAlignmentIndex: floatPtr(alignment),
	}, nil
}
