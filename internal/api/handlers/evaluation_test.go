package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mweber/quotesd/internal/contracts"
	"github.com/mweber/quotesd/internal/evaluation"
	"github.com/mweber/quotesd/internal/quotes"
	"github.com/mweber/quotesd/pkg/config"
	"github.com/mweber/quotesd/pkg/logger"
	"github.com/mweber/quotesd/pkg/redis"
)

func newEvaluationHandler(t *testing.T, store contracts.QuoteStore) *EvaluationHandler {
	t.Helper()

	cfg := &config.Config{Env: "development", LogLevel: "error", LogFormat: "json"}
	log := logger.New(cfg)

	// Redis disabled: the cache degrades to a pass-through
	client, err := redis.New(&config.Config{Redis: config.RedisConfig{Enabled: false}})
	require.NoError(t, err)
	cache := redis.NewCache(client, "test")

	extractor := evaluation.NewWeeklyCloseExtractor(store)
	perf := evaluation.NewPerformanceEvaluator(store, log)
	rsl := evaluation.NewRSLevyEvaluator(extractor, log)
	pipeline := evaluation.NewPipeline(store, perf, rsl, 2, log)

	return NewEvaluationHandler(pipeline, cache, time.Minute, log)
}

func seededStore(t *testing.T) *quotes.MemStore {
	t.Helper()
	store := quotes.NewMemStore()

	key := contracts.SeriesKey{ISIN: "DE0005140008", ExchangeID: 1}
	store.SetSeriesInfo(contracts.SeriesInfo{
		Key:          key,
		SecurityName: "Deutsche Bank",
		SecurityType: contracts.TypeStock,
		ExchangeName: "XETRA",
	})

	// Weekly Fridays for just over a year, rising 0.5 per week
	ctx := context.Background()
	end := time.Date(2024, 7, 5, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 60; i++ {
		price := decimal.NewFromFloat(100 - float64(i)*0.5)
		require.NoError(t, store.Upsert(ctx, key, end.AddDate(0, 0, -7*i), price))
	}

	return store
}

func TestEvaluationHandler_GetPerformance(t *testing.T) {
	handler := newEvaluationHandler(t, seededStore(t))

	req := httptest.NewRequest("GET", "/api/evaluation/performance?count=1&unit=year", nil)
	rec := httptest.NewRecorder()

	handler.GetPerformance(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var rows []PerformanceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)

	assert.Equal(t, "DE0005140008", rows[0].ISIN)
	assert.Equal(t, "Deutsche Bank", rows[0].SecurityName)
	assert.Equal(t, "XETRA", rows[0].ExchangeName)
	assert.Equal(t, "2024-07-05", rows[0].LatestDate)
	assert.Greater(t, rows[0].Performance, 0.0, "rising series has positive performance")
}

func TestEvaluationHandler_GetPerformance_DefaultsToOneYear(t *testing.T) {
	handler := newEvaluationHandler(t, seededStore(t))

	req := httptest.NewRequest("GET", "/api/evaluation/performance", nil)
	rec := httptest.NewRecorder()

	handler.GetPerformance(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var rows []PerformanceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	assert.Len(t, rows, 1)
}

func TestEvaluationHandler_GetPerformance_BadParams(t *testing.T) {
	handler := newEvaluationHandler(t, seededStore(t))

	tests := []struct {
		name string
		url  string
	}{
		{name: "zero count", url: "/api/evaluation/performance?count=0&unit=year"},
		{name: "negative count", url: "/api/evaluation/performance?count=-3&unit=month"},
		{name: "non-numeric count", url: "/api/evaluation/performance?count=abc"},
		{name: "unknown unit", url: "/api/evaluation/performance?count=1&unit=week"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.url, nil)
			rec := httptest.NewRecorder()

			handler.GetPerformance(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestEvaluationHandler_GetPerformance_EmptyStore(t *testing.T) {
	handler := newEvaluationHandler(t, quotes.NewMemStore())

	req := httptest.NewRequest("GET", "/api/evaluation/performance?count=1&unit=day", nil)
	rec := httptest.NewRecorder()

	handler.GetPerformance(rec, req)

	// No series is not an error, just an empty result
	require.Equal(t, http.StatusOK, rec.Code)

	var rows []PerformanceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	assert.Empty(t, rows)
}

func TestEvaluationHandler_GetRSL(t *testing.T) {
	handler := newEvaluationHandler(t, seededStore(t))

	req := httptest.NewRequest("GET", "/api/evaluation/rsl", nil)
	rec := httptest.NewRecorder()

	handler.GetRSL(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var rows []RSLResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)

	assert.Equal(t, "DE0005140008", rows[0].ISIN)
	assert.Equal(t, "2024-07-05", rows[0].NewestWeeklyClose)
	assert.Greater(t, rows[0].RSLValue, 1.0, "rising series scores above 1")
}

func TestEvaluationHandler_GetRSL_ShortHistoryOmitted(t *testing.T) {
	store := quotes.NewMemStore()
	key := contracts.SeriesKey{ISIN: "DE0005140008", ExchangeID: 1}
	store.SetSeriesInfo(contracts.SeriesInfo{Key: key, ExchangeName: "XETRA"})

	ctx := context.Background()
	end := time.Date(2024, 7, 5, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Upsert(ctx, key, end.AddDate(0, 0, -7*i), decimal.NewFromInt(50)))
	}

	handler := newEvaluationHandler(t, store)

	req := httptest.NewRequest("GET", "/api/evaluation/rsl", nil)
	rec := httptest.NewRecorder()

	handler.GetRSL(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var rows []RSLResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	assert.Empty(t, rows)
}
