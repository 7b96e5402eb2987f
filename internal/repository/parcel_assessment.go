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

// ParcelAssessmentRepository returns the current assessment rows for a parcel.
type ParcelAssessmentRepository interface {
	GetParcelAssessment(ctx context.Context, parcelID string) ([]types.ParcelAssessment, error)
}

const parcelAssessmentQuery = `
	SELECT
		CAST(current_land_value AS BIGINT),
		CAST(current_improvement_value AS BIGINT),
		CAST(current_total_value AS BIGINT),
		CAST(net_taxes AS DOUBLE),
		CAST(lot_size AS DOUBLE)
	FROM silver.parcels
	WHERE parcel_id = ?`

// DuckDBParcelAssessmentRepository reads silver.parcels.
type DuckDBParcelAssessmentRepository struct {
	db      *database.Handle
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewDuckDBParcelAssessmentRepository creates a repository over the shared handle.
func NewDuckDBParcelAssessmentRepository(db *database.Handle, logger *slog.Logger, m *metrics.Metrics) *DuckDBParcelAssessmentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &DuckDBParcelAssessmentRepository{db: db, logger: logger, metrics: m}
}

// GetParcelAssessment returns every silver.parcels row for parcelID. No rows
// is an empty slice, not ErrNotFound.
func (r *DuckDBParcelAssessmentRepository) GetParcelAssessment(ctx context.Context, parcelID string) (out []types.ParcelAssessment, err error) {
	const op = "parcel_assessment.GetParcelAssessment"
	start := time.Now()
	defer func() {
		r.metrics.ObserveQuery("parcel_assessment", "GetParcelAssessment", outcome(err), time.Since(start))
	}()

	g, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, dbErr(op, err)
	}
	defer g.Release()

	rows, err := g.QueryContext(ctx, parcelAssessmentQuery, parcelID)
	if err != nil {
		return nil, dbErr(op, err)
	}
	out, err = collect(op, rows, scanParcelAssessment)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx, r.logger).Debug("parcel assessment rows", "parcel_id", parcelID, "rows", len(out))
	return out, nil
}

func scanParcelAssessment(s rowScanner) (types.ParcelAssessment, error) {
	var (
		land, improvement, total sql.NullInt64
		netTaxes, lotSize        sql.NullFloat64
	)
	if err := s.Scan(&land, &improvement, &total, &netTaxes, &lotSize); err != nil {
		return types.ParcelAssessment{}, err
	}
	return types.ParcelAssessment{
		CurrentLandValue:        intPtr(land),
		CurrentImprovementValue: intPtr(improvement),
		CurrentTotalValue:       intPtr(total),
		NetTaxes:                floatPtr(netTaxes),
		LotSize:                 floatPtr(lotSize),
	}, nil
}
