package types

import "github.com/shopspring/decimal"

// Property is one row of gold.sites: the curated per-site facts for a parcel.
// Structural facts are optional because the source data has gaps.
type Property struct {
	SiteParcelID      string `json:"site_parcel_id"`
	ParcelAddress     string `json:"parcel_address"`
	PropertyClass     string `json:"property_class"`
	PropertyUse       string `json:"property_use"`
	AreaName          string `json:"area_name"`
	AlderDistrictName string `json:"alder_district_name"`

	Bedrooms        *float64 `json:"bedrooms"`
	FullBaths       *float64 `json:"full_baths"`
	HalfBaths       *float64 `json:"half_baths"`
	TotalLivingArea *float64 `json:"total_living_area"`
	LotSize         *float64 `json:"lot_size"`

	CurrentValue2025 decimal.Decimal `json:"current_value_2025"`
}

// PropertyWithHistory joins a property to its tax roll by site_parcel_id.
// TaxRecords is ordered by tax year, most recent first, and may be empty.
type PropertyWithHistory struct {
	Property   Property    `json:"property"`
	TaxRecords []TaxRecord `json:"tax_records"`
}
