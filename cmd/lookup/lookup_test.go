package main

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stmadison/internal/app"
	"stmadison/internal/repository"
	"stmadison/internal/types"
)

type stubProperties struct {
	res     *types.PropertyWithHistory
	err     error
	records []types.TaxRecord
}

func (s *stubProperties) GetPropertyWithHistory(context.Context, string) (*types.PropertyWithHistory, error) {
	return s.res, s.err
}

func (s *stubProperties) GetTaxRecords(context.Context, string) ([]types.TaxRecord, error) {
	return s.records, nil
}

type stubParcels struct{ rows []types.ParcelAssessment }

func (s *stubParcels) GetParcelAssessment(context.Context, string) ([]types.ParcelAssessment, error) {
	return s.rows, nil
}

type stubEfficiency struct {
	rows []types.LandEfficiencyMetrics
	err  error
}

func (s *stubEfficiency) GetLandEfficiencyMetrics(context.Context) ([]types.LandEfficiencyMetrics, error) {
	return s.rows, s.err
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func f64(v float64) *float64 { return &v }

func TestMeanStd(t *testing.T) {
	mean, std := meanStd([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, 5.0, mean, 1e-9)
	assert.InDelta(t, 2.0, std, 1e-9)

	mean, std = meanStd(nil)
	assert.Zero(t, mean)
	assert.Zero(t, std)
}

func TestSummarizeAlignment(t *testing.T) {
	rows := []types.LandEfficiencyMetrics{{}, {LandValueAlignmentIndex: f64(math.NaN())}}
	for i := 0; i < 20; i++ {
		rows = append(rows, types.LandEfficiencyMetrics{LandValueAlignmentIndex: f64(1.0)})
	}
	rows = append(rows, types.LandEfficiencyMetrics{LandValueAlignmentIndex: f64(9.0)})

	s := summarizeAlignment(rows)
	assert.Equal(t, 21, s.Count)
	assert.Equal(t, 2, s.Missing)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 9.0, s.Max)
	assert.Equal(t, []float64{9.0}, s.Outliers)

	empty := summarizeAlignment(nil)
	assert.Zero(t, empty.Count)
	assert.Empty(t, empty.Outliers)
}

func TestHistoryLines_YearOverYear(t *testing.T) {
	records := []types.TaxRecord{
		{TaxYear: 2024, TotalAssessedValue: dec("110000"), NetTax: dec("900")},
		{TaxYear: 2023, TotalAssessedValue: dec("100000"), NetTax: dec("1000")},
	}
	lines := historyLines(records)
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "2024"))
	assert.Contains(t, lines[0], "$110,000.00")
	assert.Contains(t, lines[0], "[+10.0%]")
	assert.Contains(t, lines[0], "[-10.0%]")
	assert.NotContains(t, lines[1], "%")
}

func TestLookup_Property(t *testing.T) {
	var out bytes.Buffer
	props := &stubProperties{res: &types.PropertyWithHistory{
		Property: types.Property{
			SiteParcelID:     "P001",
			ParcelAddress:    "123 Main St",
			Bedrooms:         f64(3),
			CurrentValue2025: dec("350000.50"),
		},
		TaxRecords: []types.TaxRecord{{TaxYear: 2024, NetTax: dec("6123.45")}},
	}}
	l := &lookup{out: &out, repos: &app.Repositories{Properties: props}}

	require.NoError(t, l.run(context.Background(), "123 Main St"))
	assert.Contains(t, out.String(), "Address           : 123 Main St")
	assert.Contains(t, out.String(), "$350,000.50")
	assert.Contains(t, out.String(), "net tax $6,123.45")
}

func TestLookup_PropertyMissAndFailure(t *testing.T) {
	var out bytes.Buffer
	props := &stubProperties{err: &repository.Error{Op: "op", Kind: repository.ErrNotFound}}
	l := &lookup{out: &out, repos: &app.Repositories{Properties: props}}

	require.NoError(t, l.run(context.Background(), "1 Nowhere Rd"))
	assert.Contains(t, out.String(), "No property found for address: 1 Nowhere Rd")

	props.err = &repository.Error{Op: "op", Kind: repository.ErrDatabase, Err: errors.New("boom")}
	err := l.run(context.Background(), "1 Nowhere Rd")
	assert.ErrorIs(t, err, repository.ErrDatabase)
}

func TestLookup_ParcelAndEfficiency(t *testing.T) {
	var out bytes.Buffer
	land := int64(125000)
	l := &lookup{out: &out, repos: &app.Repositories{
		Properties: &stubProperties{records: []types.TaxRecord{{TaxYear: 2024, NetTax: dec("10")}}},
		Parcels:    &stubParcels{rows: []types.ParcelAssessment{{CurrentLandValue: &land}}},
		Efficiency: &stubEfficiency{rows: []types.LandEfficiencyMetrics{{LandValueAlignmentIndex: f64(1.5)}}},
	}}

	require.NoError(t, l.run(context.Background(), "parcel=0709"))
	assert.Contains(t, out.String(), "Land Value        : $125,000")
	assert.Contains(t, out.String(), "2024  assessed")

	out.Reset()
	require.NoError(t, l.run(context.Background(), "EFFICIENCY"))
	assert.Contains(t, out.String(), "Parcels with index : 1 (missing 0)")

	assert.Error(t, l.run(context.Background(), "parcel="))
}

func TestOptNumber(t *testing.T) {
	assert.Equal(t, "-", optNumber(nil))
	assert.Equal(t, "3", optNumber(f64(3)))
	assert.Equal(t, "5,227.20", optNumber(f64(5227.2)))
	assert.Equal(t, "-", optNumber(f64(math.Inf(1))))
	assert.Equal(t, "-", optNumber(f64(math.Inf(-1))))
	assert.Equal(t, "-", optNumber(f64(math.NaN())))
}

func TestLookup_PromptWritesToOut(t *testing.T) {
	var out bytes.Buffer
	l := &lookup{out: &out, repos: &app.Repositories{
		Efficiency: &stubEfficiency{rows: []types.LandEfficiencyMetrics{{LandValueAlignmentIndex: f64(0.8)}}},
	}}

	l.mounted(1500 * time.Millisecond)
	require.NoError(t, l.prompt(context.Background(), strings.NewReader("efficiency\nparcel=\n\nnever read\n")))

	got := out.String()
	assert.Contains(t, got, "Remote views mounted in 1.5s")
	assert.Equal(t, 3, strings.Count(got, "Enter address, parcel=<id>"))
	assert.Contains(t, got, "Parcels with index : 1 (missing 0)")
	assert.Contains(t, got, "usage: parcel=<id>")
}

func TestLookup_PromptStopsAtEOF(t *testing.T) {
	var out bytes.Buffer
	eff := &stubEfficiency{}
	l := &lookup{out: &out, repos: &app.Repositories{Efficiency: eff}}

	require.NoError(t, l.prompt(context.Background(), strings.NewReader("efficiency")))
	assert.Contains(t, out.String(), "Parcels with index : 0 (missing 0)")
}
