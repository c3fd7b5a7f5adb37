package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/underwriting-cli/internal/model"
	"github.com/sells-group/underwriting-cli/internal/store"
)

// fakeProcessor returns a canned result and records the email it was given.
type fakeProcessor struct {
	result *model.PipelineResult
	emails []string
}

func (f *fakeProcessor) Process(_ context.Context, emailContent string) *model.PipelineResult {
	f.emails = append(f.emails, emailContent)
	return f.result
}

func successfulResult() *model.PipelineResult {
	premium := 4750.0
	return &model.PipelineResult{
		Success: true,
		QuoteID: "Q-20260830-DEADBEEF",
		ClientProfile: &model.ClientProfile{
			ClientName: "Acme Roofing LLC",
			RawEmail:   "quote request",
		},
		ModifierResult: &model.ModifierResult{AdjustedPremium: premium},
		RiskAssessment: &model.RiskAssessment{
			OverallRiskLevel: model.RiskLevelMedium,
			RiskScore:        55,
			Recommendation:   model.RecommendAccept,
		},
		AuthorityCheck: &model.AuthorityCheck{
			AuthorityLevel:   model.AuthorityStandard,
			AutoBindEligible: true,
		},
		GeneratedQuote: &model.GeneratedQuote{
			QuoteID:     "Q-20260830-DEADBEEF",
			QuoteLetter: "Dear Broker, ...",
			PremiumSummary: []model.QuotePremiumSummary{
				{CoverageType: "general_liability", Premium: premium},
			},
		},
		Metrics: &model.PipelineMetrics{TotalDurationSeconds: 12.5, LLMCalls: 7},
	}
}

func openTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestRouter_Health(t *testing.T) {
	router := newRouter(&fakeProcessor{}, openTestStore(t))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["version"])
}

func TestRouter_PostQuote_Success(t *testing.T) {
	proc := &fakeProcessor{result: successfulResult()}
	router := newRouter(proc, openTestStore(t))

	email := strings.Repeat("Need a quote for Acme Roofing. ", 5)
	body, _ := json.Marshal(quoteRequest{EmailContent: email})

	req := httptest.NewRequest(http.MethodPost, "/api/quotes", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, proc.emails, 1)
	assert.Equal(t, email, proc.emails[0])

	var resp quoteResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Q-20260830-DEADBEEF", resp.QuoteID)
	assert.Equal(t, "Acme Roofing LLC", resp.ClientName)
	require.NotNil(t, resp.TotalPremium)
	assert.Equal(t, 4750.0, *resp.TotalPremium)
	assert.Equal(t, "MEDIUM", resp.RiskLevel)
	assert.Equal(t, "ACCEPT", resp.Recommendation)
	assert.False(t, resp.RequiresApproval)
	assert.Equal(t, "Dear Broker, ...", resp.QuoteLetter)
	require.Len(t, resp.PremiumBreakdown, 1)
	assert.Equal(t, "general_liability", resp.PremiumBreakdown[0].CoverageType)
}

func TestRouter_PostQuote_TooShort(t *testing.T) {
	proc := &fakeProcessor{result: successfulResult()}
	router := newRouter(proc, openTestStore(t))

	body, _ := json.Marshal(quoteRequest{EmailContent: "too short"})

	req := httptest.NewRequest(http.MethodPost, "/api/quotes", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "at least 50 characters")
	assert.Empty(t, proc.emails, "pipeline must not run on invalid input")
}

func TestRouter_PostQuote_InvalidBody(t *testing.T) {
	router := newRouter(&fakeProcessor{}, openTestStore(t))

	req := httptest.NewRequest(http.MethodPost, "/api/quotes", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid request body")
}

func TestRouter_PostQuote_PipelineFailure(t *testing.T) {
	proc := &fakeProcessor{result: &model.PipelineResult{
		Success: false,
		Errors:  []string{"pipeline: parse email: malformed response"},
	}}
	router := newRouter(proc, openTestStore(t))

	email := strings.Repeat("Need a quote for Acme Roofing. ", 5)
	body, _ := json.Marshal(quoteRequest{EmailContent: email})

	req := httptest.NewRequest(http.MethodPost, "/api/quotes", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp quoteResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Empty(t, resp.QuoteID)
	require.Len(t, resp.Errors, 1)
	assert.Contains(t, resp.Errors[0], "malformed response")
}

func TestRouter_GetQuote(t *testing.T) {
	st := openTestStore(t)
	saved, err := st.SaveResult(context.Background(), successfulResult())
	require.NoError(t, err)

	router := newRouter(&fakeProcessor{}, st)

	req := httptest.NewRequest(http.MethodGet, "/api/quotes/"+saved.QuoteID, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var got model.StoredResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, saved.QuoteID, got.QuoteID)
	assert.Equal(t, "Acme Roofing LLC", got.ClientProfile.ClientName)
	assert.False(t, got.SavedAt.IsZero())
}

func TestRouter_GetQuote_NotFound(t *testing.T) {
	router := newRouter(&fakeProcessor{}, openTestStore(t))

	req := httptest.NewRequest(http.MethodGet, "/api/quotes/Q-20260101-FFFFFFFF", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "Q-20260101-FFFFFFFF not found")
}
