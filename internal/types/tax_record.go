package types

import "github.com/shopspring/decimal"

// TaxRecord is one year of assessment and levy for a parcel (silver.tax_roll).
// All amounts are currency and kept as exact decimals.
type TaxRecord struct {
	TaxYear int32 `json:"tax_year"`

	AssessedValueLand        decimal.Decimal `json:"assessed_value_land"`
	AssessedValueImprovement decimal.Decimal `json:"assessed_value_improvement"`
	TotalAssessedValue       decimal.Decimal `json:"total_assessed_value"`

	CountyTax decimal.Decimal `json:"county_tax"`
	CityTax   decimal.Decimal `json:"city_tax"`
	SchoolTax decimal.Decimal `json:"school_tax"`
	MatcTax   decimal.Decimal `json:"matc_tax"`
	GrossTax  decimal.Decimal `json:"gross_tax"`
	NetTax    decimal.Decimal `json:"net_tax"`
}
