package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecotraq/be-waste-dashboard/internal/client"
	"github.com/ecotraq/be-waste-dashboard/internal/record"
	"github.com/ecotraq/be-waste-dashboard/internal/retrieval"
	"github.com/ecotraq/be-waste-dashboard/internal/scoring"
	"github.com/ecotraq/be-waste-dashboard/internal/service"
)

type stubLoader struct {
	result retrieval.LoadResult
	role   record.RoleContext
}

func (s *stubLoader) LoadNormalized(_ context.Context, _ string, role record.RoleContext) retrieval.LoadResult {
	s.role = role
	return s.result
}

type stubSource struct{}

func (stubSource) CallView(context.Context, string, record.RoleContext) ([]record.Row, error) {
	return nil, errors.New("not implemented")
}

func (stubSource) ReadTable(context.Context, string, client.ReadOptions) ([]record.Row, error) {
	return nil, errors.New("not implemented")
}

func (stubSource) ReadMany(context.Context, string, []string) ([]record.Row, error) {
	return nil, errors.New("not implemented")
}

func (stubSource) InsertRow(_ context.Context, _ string, row record.Row) (record.Row, error) {
	stored := row.Clone()
	stored["id"] = "we-1"
	return stored, nil
}

func newTestHandler(loader service.ScreenLoader) *HTTPHandler {
	log := zerolog.Nop()
	return NewHTTPHandler(
		service.NewDashboardService(loader, log),
		service.NewComplianceService(loader, scoring.DefaultPolicy(), log),
		service.NewWeighingService(stubSource{}, nil, log),
		log,
	)
}

func TestLoadScreenEndpoint(t *testing.T) {
	loader := &stubLoader{result: retrieval.LoadResult{
		Rows: []record.Row{{"id": "w1"}},
		Tier: 2,
	}}
	h := newTestHandler(loader)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/screens/waste_items", nil)
	req.Header.Set("X-User-ID", "u1")
	req.Header.Set("X-User-Role", "operator")
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp screenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Tier)
	assert.Len(t, resp.Rows, 1)
	assert.Empty(t, resp.Error)

	// Identity headers become the role context; an operator is not
	// privileged.
	assert.Equal(t, "u1", loader.role.UserID)
	assert.False(t, loader.role.Privileged)
}

func TestLoadScreenExhaustedReportsError(t *testing.T) {
	loader := &stubLoader{result: retrieval.LoadResult{
		Rows: []record.Row{},
		Err:  errors.New("all retrieval tiers failed for screen waste_items"),
	}}
	h := newTestHandler(loader)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/screens/waste_items", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	var resp screenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotNil(t, resp.Rows)
	assert.Empty(t, resp.Rows)
	assert.Contains(t, resp.Error, "all retrieval tiers failed")
}

func TestPrivilegedRole(t *testing.T) {
	loader := &stubLoader{result: retrieval.LoadResult{Rows: []record.Row{}, Tier: 1}}
	h := newTestHandler(loader)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/screens/incidents", nil)
	req.Header.Set("X-User-ID", "a1")
	req.Header.Set("X-User-Role", "supervisor")
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.True(t, loader.role.Privileged)
}

func TestClassifyVarianceEndpoint(t *testing.T) {
	h := newTestHandler(&stubLoader{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/variance/classify?estimated=100&measured=115", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var v scoring.Variance
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	require.NotNil(t, v.Percent)
	assert.Equal(t, 15.0, *v.Percent)
	assert.Equal(t, scoring.VarianceReview, v.Band)
}

func TestClassifyVarianceEndpointRejectsBadInput(t *testing.T) {
	h := newTestHandler(&stubLoader{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/variance/classify?estimated=abc&measured=1", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecordWeighingEndpoint(t *testing.T) {
	h := newTestHandler(&stubLoader{})

	body := `{"waste_item_id":"w1","estimated_kg":100,"measured_kg":104}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/weighings", strings.NewReader(body))
	req.Header.Set("X-User-ID", "u1")
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var result service.RecordWeighingResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, scoring.VarianceExcellent, result.Variance.Band)
	assert.Equal(t, "we-1", result.Row["id"])
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestHandler(&stubLoader{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
