package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/crossval/quorum/internal/domain"
	"github.com/crossval/quorum/internal/engine"
	"github.com/crossval/quorum/internal/provider"
	"github.com/crossval/quorum/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testEngine() *engine.Engine {
	descriptors := []domain.ProviderDescriptor{
		{ID: "alpha", Kind: domain.KindMock, Family: "fam-a", CostPerKiloToken: 0.01, MeanLatency: 100 * time.Millisecond, Reliability: 0.95},
		{ID: "beta", Kind: domain.KindMock, Family: "fam-b", CostPerKiloToken: 0.005, MeanLatency: 100 * time.Millisecond, Reliability: 0.9},
		{ID: "gamma", Kind: domain.KindMock, Family: "fam-a", CostPerKiloToken: 0.002, MeanLatency: 100 * time.Millisecond, Reliability: 0.85},
	}
	logger, _ := zap.NewDevelopment()

	mock := provider.NewMockInvoker()
	mock.ScriptVerdict("alpha", true, 0.9)
	mock.ScriptVerdict("beta", true, 0.85)
	mock.ScriptVerdict("gamma", true, 0.8)

	registry := engine.NewRegistry(descriptors, logger)
	return engine.New(engine.Config{}, registry, mock,
		store.NewMemoryResponseCache(), store.NewMemoryHistoryStore(), nil, logger)
}

func TestValidationHandler_Validate(t *testing.T) {
	h := NewValidationHandler(testEngine())

	body, _ := json.Marshal(map[string]any{
		"hypothesis": "water is wet",
		"max_cost":   1.0,
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/validate", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Validate(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result domain.CrossValidationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Verdict)
	assert.Equal(t, domain.AgreementUnanimous, result.Agreement)
	assert.Len(t, result.Responses, 3)
}

func TestValidationHandler_EmptyHypothesis(t *testing.T) {
	h := NewValidationHandler(testEngine())

	body, _ := json.Marshal(map[string]any{"hypothesis": "  "})
	req := httptest.NewRequest(http.MethodPost, "/v1/validate", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Validate(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValidationHandler_MalformedBody(t *testing.T) {
	h := NewValidationHandler(testEngine())

	req := httptest.NewRequest(http.MethodPost, "/v1/validate", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()

	h.Validate(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportHandler_Get(t *testing.T) {
	eng := testEngine()
	h := NewReportHandler(eng)

	req := httptest.NewRequest(http.MethodGet, "/v1/report", nil)
	rec := httptest.NewRecorder()

	h.Get(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var report domain.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 0, report.TotalValidations)
	assert.Len(t, report.ProviderPerformance, 3)
}

func TestProviderHandler_List(t *testing.T) {
	h := NewProviderHandler(testEngine())

	req := httptest.NewRequest(http.MethodGet, "/v1/providers", nil)
	rec := httptest.NewRecorder()

	h.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp listProvidersResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Providers, 3)
	assert.Equal(t, "alpha", resp.Providers[0].ID)
	assert.NotEmpty(t, resp.Providers[0].Fallbacks)

	sum := 0.0
	for _, p := range resp.Providers {
		sum += p.Weight
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}
