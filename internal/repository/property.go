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

// PropertyRepository answers address lookups with the parcel's tax history.
type PropertyRepository interface {
	GetPropertyWithHistory(ctx context.Context, address string) (*types.PropertyWithHistory, error)
	GetTaxRecords(ctx context.Context, parcelID string) ([]types.TaxRecord, error)
}

// Duplicate addresses are not expected in gold.sites. Fetching two rows lets
// us log when that assumption breaks while still returning the first site.
const propertyByAddressQuery = `
	SELECT
		site_parcel_id, parcel_address, property_class, property_use,
		area_name, alder_district_name,
		CAST(bedrooms AS DOUBLE), CAST(full_baths AS DOUBLE), CAST(half_baths AS DOUBLE),
		CAST(total_living_area AS DOUBLE), CAST(lot_size AS DOUBLE),
		current_total_value
	FROM gold.sites
	WHERE parcel_address = ?
	ORDER BY site_parcel_id
	LIMIT 2`

const taxRecordsQuery = `
	SELECT
		tax_year,
		assessed_value_land, assessed_value_improvement, total_assessed_value,
		county_tax, city_tax, school_tax, matc_tax, gross_tax, net_tax
	FROM silver.tax_roll
	WHERE parcel_id = ?
	ORDER BY tax_year DESC`

// DuckDBPropertyRepository reads gold.sites and silver.tax_roll.
type DuckDBPropertyRepository struct {
	db      *database.Handle
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewDuckDBPropertyRepository creates a repository over the shared handle.
func NewDuckDBPropertyRepository(db *database.Handle, logger *slog.Logger, m *metrics.Metrics) *DuckDBPropertyRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &DuckDBPropertyRepository{db: db, logger: logger, metrics: m}
}

// GetPropertyWithHistory looks up the site by exact address, then its tax roll.
// Both queries run under one guard.
func (r *DuckDBPropertyRepository) GetPropertyWithHistory(ctx context.Context, address string) (result *types.PropertyWithHistory, err error) {
	const op = "property.GetPropertyWithHistory"
	defer r.observe("GetPropertyWithHistory", time.Now(), &err)

	g, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, dbErr(op, err)
	}
	defer g.Release()

	prop, err := r.propertyByAddress(ctx, g, op, address)
	if err != nil {
		return nil, err
	}
	records, err := r.taxRecords(ctx, g, op, prop.SiteParcelID)
	if err != nil {
		return nil, err
	}
	return &types.PropertyWithHistory{Property: *prop, TaxRecords: records}, nil
}

// GetTaxRecords returns the tax roll for a parcel, most recent year first.
func (r *DuckDBPropertyRepository) GetTaxRecords(ctx context.Context, parcelID string) (records []types.TaxRecord, err error) {
	const op = "property.GetTaxRecords"
	defer r.observe("GetTaxRecords", time.Now(), &err)

	g, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, dbErr(op, err)
	}
	defer g.Release()

	return r.taxRecords(ctx, g, op, parcelID)
}

func (r *DuckDBPropertyRepository) propertyByAddress(ctx context.Context, g *database.Guard, op, address string) (*types.Property, error) {
	rows, err := g.QueryContext(ctx, propertyByAddressQuery, address)
	if err != nil {
		return nil, dbErr(op, err)
	}
	props, err := collect(op, rows, scanProperty)
	if err != nil {
		return nil, err
	}
	if len(props) == 0 {
		return nil, notFound(op)
	}
	if len(props) > 1 {
		logging.FromContext(ctx, r.logger).Warn("address matches more than one site, using the first",
			"address", address,
			"site_parcel_id", props[0].SiteParcelID,
			"other_site_parcel_id", props[1].SiteParcelID)
	}
	return &props[0], nil
}

func (r *DuckDBPropertyRepository) taxRecords(ctx context.Context, g *database.Guard, op, parcelID string) ([]types.TaxRecord, error) {
	rows, err := g.QueryContext(ctx, taxRecordsQuery, parcelID)
	if err != nil {
		return nil, dbErr(op, err)
	}
	return collect(op, rows, scanTaxRecord)
}

func (r *DuckDBPropertyRepository) observe(method string, start time.Time, err *error) {
	r.metrics.ObserveQuery("property", method, outcome(*err), time.Since(start))
}

func scanProperty(s rowScanner) (types.Property, error) {
	var (
		p                                           types.Property
		bedrooms, fullBaths, halfBaths, living, lot sql.NullFloat64
	)
	err := s.Scan(
		&p.SiteParcelID, &p.ParcelAddress, &p.PropertyClass, &p.PropertyUse,
		&p.AreaName, &p.AlderDistrictName,
		&bedrooms, &fullBaths, &halfBaths, &living, &lot,
		database.MoneyInto(&p.CurrentValue2025),
	)
	if err != nil {
		return types.Property{}, err
	}
	p.Bedrooms = floatPtr(bedrooms)
	p.FullBaths = floatPtr(fullBaths)
	p.HalfBaths = floatPtr(halfBaths)
	p.TotalLivingArea = floatPtr(living)
	p.LotSize = floatPtr(lot)
	return p, nil
}

func scanTaxRecord(s rowScanner) (types.TaxRecord, error) {
	var t types.TaxRecord
	err := s.Scan(
		&t.TaxYear,
		database.MoneyInto(&t.AssessedValueLand),
		database.MoneyInto(&t.AssessedValueImprovement),
		database.MoneyInto(&t.TotalAssessedValue),
		database.MoneyInto(&t.CountyTax),
		database.MoneyInto(&t.CityTax),
		database.MoneyInto(&t.SchoolTax),
		database.MoneyInto(&t.MatcTax),
		database.MoneyInto(&t.GrossTax),
		database.MoneyInto(&t.NetTax),
	)
	return t, err
}
