package main

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"stmadison/internal/types"
)

const (
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorReset = "\033[0m"
)

var printer = message.NewPrinter(language.English)

func money(d decimal.Decimal) string {
	return "$" + printer.Sprintf("%.2f", d.Round(2).InexactFloat64())
}

func optNumber(v *float64) string {
	if v == nil {
		return "-"
	}
	if math.IsInf(*v, 0) || math.IsNaN(*v) {
		return "-"
	}
	if *v == math.Trunc(*v) {
		return printer.Sprintf("%d", int64(*v))
	}
	return printer.Sprintf("%.2f", *v)
}

func optInt(v *int64) string {
	if v == nil {
		return "-"
	}
	return "$" + printer.Sprintf("%d", *v)
}

// yoy formats the change from prev to cur. Tax going up is red, down is green.
func yoy(cur, prev decimal.Decimal) string {
	if prev.IsZero() {
		return ""
	}
	pct := cur.Sub(prev).Div(prev).Mul(decimal.NewFromInt(100)).Round(1)
	switch pct.Sign() {
	case 1:
		return fmt.Sprintf(" %s[+%s%%]%s", colorRed, pct.StringFixed(1), colorReset)
	case -1:
		return fmt.Sprintf(" %s[%s%%]%s", colorGreen, pct.StringFixed(1), colorReset)
	default:
		return " [0.0%]"
	}
}

func renderProperty(w io.Writer, p types.Property) {
	fmt.Fprintln(w, strings.Repeat("-", 80))
	fmt.Fprintf(w, "Address           : %s\n", p.ParcelAddress)
	fmt.Fprintf(w, "Parcel            : %s\n", p.SiteParcelID)
	fmt.Fprintf(w, "Class / Use       : %s / %s\n", p.PropertyClass, p.PropertyUse)
	fmt.Fprintf(w, "Area              : %s\n", p.AreaName)
	fmt.Fprintf(w, "Alder District    : %s\n", p.AlderDistrictName)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Bedrooms          : %s\n", optNumber(p.Bedrooms))
	fmt.Fprintf(w, "Baths (full/half) : %s / %s\n", optNumber(p.FullBaths), optNumber(p.HalfBaths))
	fmt.Fprintf(w, "Living Area (sf)  : %s\n", optNumber(p.TotalLivingArea))
	fmt.Fprintf(w, "Lot Size (sf)     : %s\n", optNumber(p.LotSize))
	fmt.Fprintf(w, "Current Value     : %s\n", money(p.CurrentValue2025))
}

// historyLines renders one line per tax year, most recent first, each with the
// change against the year before it.
func historyLines(records []types.TaxRecord) []string {
	lines := make([]string, 0, len(records))
	for i, r := range records {
		var assessedDiff, taxDiff string
		if i+1 < len(records) {
			prev := records[i+1]
			assessedDiff = yoy(r.TotalAssessedValue, prev.TotalAssessedValue)
			taxDiff = yoy(r.NetTax, prev.NetTax)
		}
		lines = append(lines, fmt.Sprintf("%d  assessed %s%s  net tax %s%s",
			r.TaxYear, money(r.TotalAssessedValue), assessedDiff, money(r.NetTax), taxDiff))
	}
	return lines
}

func renderLevy(w io.Writer, r types.TaxRecord) {
	fmt.Fprintln(w, strings.Repeat("-", 80))
	fmt.Fprintf(w, "Tax Year          : %d\n", r.TaxYear)
	fmt.Fprintf(w, "Assessed Land     : %s\n", money(r.AssessedValueLand))
	fmt.Fprintf(w, "  Improvement     : %s\n", money(r.AssessedValueImprovement))
	fmt.Fprintf(w, "  Total           : %s\n", money(r.TotalAssessedValue))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "County            : %s\n", money(r.CountyTax))
	fmt.Fprintf(w, "City              : %s\n", money(r.CityTax))
	fmt.Fprintf(w, "School            : %s\n", money(r.SchoolTax))
	fmt.Fprintf(w, "MATC              : %s\n", money(r.MatcTax))
	fmt.Fprintf(w, "Gross Tax         : %s\n", money(r.GrossTax))
	fmt.Fprintf(w, "Net Tax           : %s\n", money(r.NetTax))
	fmt.Fprintln(w, strings.Repeat("-", 80))
}

func renderAssessments(w io.Writer, parcelID string, rows []types.ParcelAssessment) {
	if len(rows) == 0 {
		fmt.Fprintf(w, "No assessment found for parcel: %s\n", parcelID)
		return
	}
	for _, a := range rows {
		fmt.Fprintln(w, strings.Repeat("-", 80))
		fmt.Fprintf(w, "Land Value        : %s\n", optInt(a.CurrentLandValue))
		fmt.Fprintf(w, "Improvement Value : %s\n", optInt(a.CurrentImprovementValue))
		fmt.Fprintf(w, "Total Value       : %s\n", optInt(a.CurrentTotalValue))
		fmt.Fprintf(w, "Net Taxes         : %s\n", optNumber(a.NetTaxes))
		fmt.Fprintf(w, "Lot Size (sf)     : %s\n", optNumber(a.LotSize))
	}
	fmt.Fprintln(w, strings.Repeat("-", 80))
}

type alignmentSummary struct {
	Count    int
	Missing  int
	Mean     float64
	StdDev   float64
	Min, Max float64
	// Outliers are values more than two standard deviations from the mean,
	// sorted by distance from it.
	Outliers []float64
}

func summarizeAlignment(rows []types.LandEfficiencyMetrics) alignmentSummary {
	var s alignmentSummary
	var vals []float64
	for _, r := range rows {
		if r.LandValueAlignmentIndex == nil || math.IsNaN(*r.LandValueAlignmentIndex) {
			s.Missing++
			continue
		}
		vals = append(vals, *r.LandValueAlignmentIndex)
	}
	s.Count = len(vals)
	if s.Count == 0 {
		return s
	}
	s.Mean, s.StdDev = meanStd(vals)
	s.Min, s.Max = vals[0], vals[0]
	for _, v := range vals {
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
		if s.StdDev > 0 && math.Abs(v-s.Mean) > 2*s.StdDev {
			s.Outliers = append(s.Outliers, v)
		}
	}
	sort.Slice(s.Outliers, func(i, j int) bool {
		return math.Abs(s.Outliers[i]-s.Mean) > math.Abs(s.Outliers[j]-s.Mean)
	})
	return s
}

func renderAlignment(w io.Writer, s alignmentSummary) {
	fmt.Fprintln(w, strings.Repeat("-", 80))
	fmt.Fprintf(w, "Parcels with index : %s (missing %s)\n", printer.Sprintf("%d", s.Count), printer.Sprintf("%d", s.Missing))
	if s.Count == 0 {
		fmt.Fprintln(w, strings.Repeat("-", 80))
		return
	}
	fmt.Fprintf(w, "Mean / Std Dev     : %.3f / %.3f\n", s.Mean, s.StdDev)
	fmt.Fprintf(w, "Min / Max          : %.3f / %.3f\n", s.Min, s.Max)
	fmt.Fprintf(w, "Outliers (>2σ)     : %d\n", len(s.Outliers))
	for i, v := range s.Outliers {
		if i == 10 {
			fmt.Fprintf(w, "  ... %d more\n", len(s.Outliers)-i)
			break
		}
		fmt.Fprintf(w, "  %.3f\n", v)
	}
	fmt.Fprintln(w, strings.Repeat("-", 80))
}

func meanStd(vals []float64) (mean, std float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))
	for _, v := range vals {
		std += (v - mean) * (v - mean)
	}
	std = math.Sqrt(std / float64(len(vals)))
	return
}
