package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/auditgate/expense-fraud-engine/internal/history"
	"github.com/auditgate/expense-fraud-engine/internal/service/fraud"
)

func newTestMux(t *testing.T) (http.Handler, *history.MemoryStore) {
	t.Helper()

	logger := zaptest.NewLogger(t)
	store := history.NewMemoryStore(history.DefaultMaxSize, logger)
	svc, err := fraud.NewService(fraud.DefaultScoringRules(), nil, logger)
	require.NoError(t, err)

	handler := NewHandler(svc, store, logger)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/expenses/score", handler.scoreExpense)
	mux.HandleFunc("POST /api/v1/expenses/score-batch", handler.scoreBatch)
	mux.HandleFunc("GET /healthz", handler.healthz)
	return mux, store
}

func postJSON(t *testing.T, mux http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestScoreExpense(t *testing.T) {
	mux, store := newTestMux(t)

	body := `{
		"vendor": "Acme Office Supplies Pvt Ltd",
		"amount": "1500.00",
		"date": "15 Jan 2025",
		"category": "Supplies",
		"employee_id": "emp-001",
		"raw_text": "Invoice 4411: office chairs, Acme Office Supplies"
	}`

	rec := postJSON(t, mux, "/api/v1/expenses/score", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var assessment fraud.FraudAssessment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &assessment))

	assert.Equal(t, fraud.DecisionApprove, assessment.Decision)
	assert.Zero(t, assessment.FinalScore)

	// Scored expenses are recorded for future submissions
	n, err := store.Len(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestScoreExpense_ResubmissionFlagsDuplicate(t *testing.T) {
	mux, _ := newTestMux(t)

	body := `{
		"vendor": "Uber India",
		"amount": "450.00",
		"date": "15 Jan 2025",
		"category": "Travel",
		"raw_text": "UBER trip receipt ref 99812 airport drop total 450.00"
	}`

	first := postJSON(t, mux, "/api/v1/expenses/score", body)
	require.Equal(t, http.StatusOK, first.Code)
	second := postJSON(t, mux, "/api/v1/expenses/score", body)
	require.Equal(t, http.StatusOK, second.Code)

	var firstResult, secondResult fraud.FraudAssessment
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &firstResult))
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &secondResult))

	assert.Zero(t, firstResult.ComponentScores.Duplicate)
	assert.Equal(t, 100, secondResult.ComponentScores.Duplicate)
	assert.Greater(t, secondResult.FinalScore, firstResult.FinalScore)
	assert.Contains(t, secondResult.Reasons, "Exact duplicate receipt detected")
}

func TestScoreExpense_BadRequests(t *testing.T) {
	mux, store := newTestMux(t)

	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{name: "malformed json", body: `{"vendor":`, wantCode: "INVALID_BODY"},
		{name: "missing fields", body: `{"vendor": "Uber India"}`, wantCode: "MISSING_FIELDS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, mux, "/api/v1/expenses/score", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}

	// Nothing is recorded on a rejected request
	n, err := store.Len(t.Context())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestScoreBatch(t *testing.T) {
	mux, store := newTestMux(t)

	body := `{"expenses": [
		{"vendor": "Acme Office Supplies Pvt Ltd", "amount": "1500.00", "date": "15 Jan 2025", "category": "Supplies", "raw_text": "Invoice 4411"},
		{"vendor": "Hotel Taj"},
		{"vendor": "City Taxi Service", "amount": "310.00", "date": "14 Jan 2025", "category": "Travel", "raw_text": "Taxi fare stand 7"}
	]}`

	rec := postJSON(t, mux, "/api/v1/expenses/score-batch", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp batchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 3)

	require.NotNil(t, resp.Results[0].Assessment)
	assert.Nil(t, resp.Results[0].Error)

	assert.Nil(t, resp.Results[1].Assessment)
	require.NotNil(t, resp.Results[1].Error)
	assert.Equal(t, "MISSING_FIELDS", resp.Results[1].Error.Code)

	require.NotNil(t, resp.Results[2].Assessment)

	// Only the scoreable entries are recorded
	n, err := store.Len(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestScoreBatch_SharedSnapshot(t *testing.T) {
	mux, _ := newTestMux(t)

	entry := `{"vendor": "Cafe One", "amount": "120.00", "date": "15 Jan 2025", "category": "Meals", "raw_text": "Cafe One table 2 total 120.00"}`
	body := fmt.Sprintf(`{"expenses": [%s, %s]}`, entry, entry)

	rec := postJSON(t, mux, "/api/v1/expenses/score-batch", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp batchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 2)

	// Both entries were scored against the snapshot taken before the batch,
	// so neither sees the other.
	for _, res := range resp.Results {
		require.NotNil(t, res.Assessment)
		assert.Zero(t, res.Assessment.ComponentScores.Duplicate)
	}
}

func TestScoreBatch_Limits(t *testing.T) {
	mux, _ := newTestMux(t)

	t.Run("empty batch", func(t *testing.T) {
		rec := postJSON(t, mux, "/api/v1/expenses/score-batch", `{"expenses": []}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("oversized batch", func(t *testing.T) {
		entries := make([]string, maxBatchSize+1)
		for i := range entries {
			entries[i] = fmt.Sprintf(`{"vendor": "V%d", "amount": "10", "date": "15 Jan 2025", "category": "Other"}`, i)
		}
		body := fmt.Sprintf(`{"expenses": [%s]}`, strings.Join(entries, ","))

		rec := postJSON(t, mux, "/api/v1/expenses/score-batch", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHealthz(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		mux, _ := newTestMux(t)

		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status": "healthy"}`, rec.Body.String())
	})

	t.Run("unreachable store", func(t *testing.T) {
		logger := zaptest.NewLogger(t)
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		store, err := history.NewRedisStore(t.Context(), client, "efe:history", history.DefaultMaxSize, logger)
		require.NoError(t, err)
		mr.Close()

		svc, err := fraud.NewService(fraud.DefaultScoringRules(), nil, logger)
		require.NoError(t, err)
		handler := NewHandler(svc, store, logger)

		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		handler.healthz(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}
