package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stmadison/internal/logging"
	"stmadison/internal/metrics"
	"stmadison/internal/repository"
	"stmadison/internal/types"
)

type fakeProperties struct {
	gotAddress string
	result     *types.PropertyWithHistory
	err        error
}

func (f *fakeProperties) GetPropertyWithHistory(_ context.Context, address string) (*types.PropertyWithHistory, error) {
	f.gotAddress = address
	return f.result, f.err
}

func (f *fakeProperties) GetTaxRecords(context.Context, string) ([]types.TaxRecord, error) {
	return nil, nil
}

type fakeParcels struct {
	gotID string
	rows  []types.ParcelAssessment
	err   error
}

func (f *fakeParcels) GetParcelAssessment(_ context.Context, parcelID string) ([]types.ParcelAssessment, error) {
	f.gotID = parcelID
	return f.rows, f.err
}

type fakeEfficiency struct {
	rows []types.LandEfficiencyMetrics
	err  error
}

func (f *fakeEfficiency) GetLandEfficiencyMetrics(context.Context) ([]types.LandEfficiencyMetrics, error) {
	return f.rows, f.err
}

type fakePinger struct{ err error }

func (f *fakePinger) Ping(context.Context) error { return f.err }

type fixture struct {
	props  *fakeProperties
	parcel *fakeParcels
	eff    *fakeEfficiency
	ping   *fakePinger
	reg    *prometheus.Registry
	m      *metrics.Metrics
}

func (fx *fixture) router() http.Handler {
	h := NewHandlers(fx.props, fx.parcel, fx.eff, fx.ping, logging.Discard())
	return NewRouter(ServerConfig{}, h, logging.Discard(), fx.m, fx.reg)
}

func newFixture() *fixture {
	reg := prometheus.NewRegistry()
	return &fixture{
		props:  &fakeProperties{},
		parcel: &fakeParcels{},
		eff:    &fakeEfficiency{},
		ping:   &fakePinger{},
		reg:    reg,
		m:      metrics.New(reg),
	}
}

func do(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGetProperty_OK(t *testing.T) {
	fx := newFixture()
	fx.props.result = &types.PropertyWithHistory{
		Property: types.Property{
			SiteParcelID:     "P001",
			ParcelAddress:    "123 Main St",
			CurrentValue2025: decimal.RequireFromString("350000.00"),
		},
		TaxRecords: []types.TaxRecord{{TaxYear: 2024, NetTax: decimal.RequireFromString("6123.45")}},
	}

	rec := do(t, fx.router(), "/property/123%20Main%20St")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "123 Main St", fx.props.gotAddress)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	prop := body["property"].(map[string]any)
	assert.Equal(t, "P001", prop["site_parcel_id"])
	assert.Len(t, body["tax_records"], 1)
}

func TestGetProperty_NotFound(t *testing.T) {
	fx := newFixture()
	fx.props.err = &repository.Error{Op: "property.GetPropertyWithHistory", Kind: repository.ErrNotFound}

	rec := do(t, fx.router(), "/property/nowhere")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"not found"}`, rec.Body.String())
}

func TestGetProperty_DatabaseErrorIsOpaque(t *testing.T) {
	fx := newFixture()
	fx.props.err = &repository.Error{Op: "property.GetPropertyWithHistory", Kind: repository.ErrDatabase, Err: errors.New("IO Error: gs://secret-bucket unreachable")}

	rec := do(t, fx.router(), "/property/123%20Main%20St")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret-bucket")
}

func TestGetParcelAssessment(t *testing.T) {
	fx := newFixture()
	land := int64(120000)
	fx.parcel.rows = []types.ParcelAssessment{{CurrentLandValue: &land}}

	rec := do(t, fx.router(), "/parcel-assessment/0709-123-4567-8")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0709-123-4567-8", fx.parcel.gotID)
	assert.Contains(t, rec.Body.String(), `"current_land_value":120000`)

	fx.parcel.rows = []types.ParcelAssessment{}
	rec = do(t, fx.router(), "/parcel-assessment/none")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	fx.parcel.err = &repository.Error{Op: "parcel_assessment.GetParcelAssessment", Kind: repository.ErrRowMapping, Err: errors.New("bad column")}
	rec = do(t, fx.router(), "/parcel-assessment/broken")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetLandEfficiency(t *testing.T) {
	fx := newFixture()
	idx := 1.25
	fx.eff.rows = []types.LandEfficiencyMetrics{{LandValueAlignmentIndex: &idx}, {}}

	rec := do(t, fx.router(), "/land-efficiency")
	require.Equal(t, http.StatusOK, rec.Code)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, 1.25, rows[0]["land_value_alignment_index"])
	assert.Nil(t, rows[1]["land_value_alignment_index"])

	fx.eff.err = &repository.Error{Op: "land_efficiency.GetLandEfficiencyMetrics", Kind: repository.ErrDatabase}
	rec = do(t, fx.router(), "/land-efficiency")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealth(t *testing.T) {
	fx := newFixture()
	rec := do(t, fx.router(), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","database":"connected"}`, rec.Body.String())

	fx.ping.err = errors.New("connection closed")
	rec = do(t, fx.router(), "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"degraded","database":"unavailable"}`, rec.Body.String())
}

func TestRouter_TraceIDAndMetrics(t *testing.T) {
	fx := newFixture()
	router := fx.router()

	req := httptest.NewRequest(http.MethodGet, "/land-efficiency", nil)
	req.Header.Set(traceHeader, "7f1c1b9e-3c55-4c7e-9d43-5f0a4c7c2a10")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "7f1c1b9e-3c55-4c7e-9d43-5f0a4c7c2a10", rec.Header().Get(traceHeader))

	rec = do(t, router, "/land-efficiency")
	assert.NotEmpty(t, rec.Header().Get(traceHeader))
	assert.NotEqual(t, "7f1c1b9e-3c55-4c7e-9d43-5f0a4c7c2a10", rec.Header().Get(traceHeader))

	fx.props.err = &repository.Error{Op: "property.GetPropertyWithHistory", Kind: repository.ErrNotFound}
	do(t, router, "/property/a")
	do(t, router, "/property/b")

	assert.Equal(t, 2.0, testutil.ToFloat64(fx.m.HTTPRequests.WithLabelValues("/property/{address}", http.MethodGet, "404")))
	assert.Equal(t, 2.0, testutil.ToFloat64(fx.m.HTTPRequests.WithLabelValues("/land-efficiency", http.MethodGet, "200")))

	rec = do(t, router, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "stmadison_http_requests_total")
}

func TestRouter_UnknownRoute(t *testing.T) {
	rec := do(t, newFixture().router(), "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"route not found"}`, rec.Body.String())
}

func TestGetProperty_PathDecodedOnce(t *testing.T) {
	fx := newFixture()
	fx.props.result = &types.PropertyWithHistory{}
	router := fx.router()

	cases := []struct {
		path string
		want string
	}{
		{"/property/12%2520Oak", "12%20Oak"},
		{"/property/Unit%2541%20Main%20St", "Unit%41 Main St"},
		{"/property/123%20Main%20St", "123 Main St"},
		{"/property/Apt%201%2F2%20Elm", "Apt 1/2 Elm"},
	}
	for _, tc := range cases {
		rec := do(t, router, tc.path)
		require.Equal(t, http.StatusOK, rec.Code, tc.path)
		assert.Equal(t, tc.want, fx.props.gotAddress, tc.path)
	}

	rec := do(t, router, "/parcel-assessment/0709%25A")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0709%A", fx.parcel.gotID)
}
