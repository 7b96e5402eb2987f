package types

// ParcelAssessment is the current-year summary of a parcel from silver.parcels.
// NetTaxes and LotSize are display aggregates, so float64 is fine there.
type ParcelAssessment struct {
	CurrentLandValue        *int64   `json:"current_land_value"`
	CurrentImprovementValue *int64   `json:"current_improvement_value"`
	CurrentTotalValue       *int64   `json:"current_total_value"`
	NetTaxes                *float64 `json:"net_taxes"`
	LotSize                 *float64 `json:"lot_size"`
}

// LandEfficiencyMetrics holds the per-parcel ratios computed upstream in silver.parcels.
type LandEfficiencyMetrics struct {
	LandValuePerSqft        *float64 `json:"land_value_per_sqft"`
	NetTaxesPerSqft         *float64 `json:"net_taxes_per_sqft"`
	LandShareOfProperty     *float64 `json:"land_share_of_property"`
	LandValueAlignmentIndex *float64 `json:"land_value_alignment_index"`
}
