package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/mweber/quotesd/internal/contracts"
	"github.com/mweber/quotesd/internal/evaluation"
	"github.com/mweber/quotesd/pkg/logger"
	"github.com/mweber/quotesd/pkg/redis"
)

// EvaluationHandler handles the performance and RSL evaluation endpoints.
// Raw evaluation results are cached in Redis; the scheduler's warmup job
// fills the same keys overnight.
type EvaluationHandler struct {
	pipeline *evaluation.Pipeline
	cache    *redis.Cache
	cacheTTL time.Duration
	logger   *logger.Logger
}

// NewEvaluationHandler creates a new evaluation handler
func NewEvaluationHandler(pipeline *evaluation.Pipeline, cache *redis.Cache, cacheTTL time.Duration, log *logger.Logger) *EvaluationHandler {
	return &EvaluationHandler{
		pipeline: pipeline,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   log,
	}
}

// PerformanceResponse is one series' performance row
type PerformanceResponse struct {
	ISIN         string  `json:"isin"`
	SecurityName string  `json:"security_name"`
	SecurityType string  `json:"security_type"`
	ExchangeName string  `json:"exchange_name"`
	LatestDate   string  `json:"latest_date"`
	BaseDate     string  `json:"base_date"`
	Performance  float64 `json:"performance"`
}

// GetPerformance evaluates all series over the requested interval.
// Series without enough history are omitted; an invalid interval fails the
// whole request with 400.
// GET /api/evaluation/performance?count=1&unit=year
func (h *EvaluationHandler) GetPerformance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Parse interval (default: 1 year)
	count := 1
	if countStr := r.URL.Query().Get("count"); countStr != "" {
		c, err := strconv.Atoi(countStr)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'count' parameter")
			return
		}
		count = c
	}

	unit := contracts.UnitYear
	if unitStr := r.URL.Query().Get("unit"); unitStr != "" {
		u, err := contracts.ParseIntervalUnit(unitStr)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'unit' parameter (valid: day, month, year)")
			return
		}
		unit = u
	}

	interval := contracts.Interval{Count: count, Unit: unit}

	// Reject before the cache lookup, so count=0 never hits a stale key
	if err := interval.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	cacheKey := evaluation.PerformanceCacheKey(interval)

	var results []contracts.PerformanceResult
	if found, _ := h.cache.Get(ctx, cacheKey, &results); !found {
		var err error
		results, err = h.pipeline.EvaluatePerformance(ctx, interval)
		if errors.Is(err, contracts.ErrInvalidInterval) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err != nil {
			h.logger.WithError(err).Error("Performance evaluation failed")
			respondError(w, http.StatusInternalServerError, "Failed to evaluate performance")
			return
		}

		if err := h.cache.Set(ctx, cacheKey, results, h.cacheTTL); err != nil {
			h.logger.WithError(err).Warn("Failed to cache performance results")
		}
	}

	response := make([]PerformanceResponse, len(results))
	for i, res := range results {
		response[i] = PerformanceResponse{
			ISIN:         res.Key.ISIN,
			SecurityName: res.SecurityName,
			SecurityType: string(res.SecurityType),
			ExchangeName: res.ExchangeName,
			LatestDate:   res.LatestDate.Format("2006-01-02"),
			BaseDate:     res.BaseDate.Format("2006-01-02"),
			Performance:  res.Performance.InexactFloat64(),
		}
	}

	respondJSON(w, http.StatusOK, response)
}

// RSLResponse is one series' relative-strength row
type RSLResponse struct {
	ISIN              string  `json:"isin"`
	SecurityName      string  `json:"security_name"`
	SecurityType      string  `json:"security_type"`
	ExchangeName      string  `json:"exchange_name"`
	NewestWeeklyClose string  `json:"newest_weekly_close"`
	RSLValue          float64 `json:"rsl_value"`
}

// GetRSL evaluates the RSL indicator for all series with at least 27 weekly
// closes; the rest are omitted, never errors.
// GET /api/evaluation/rsl
func (h *EvaluationHandler) GetRSL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var results []contracts.RSLevyResult
	if found, _ := h.cache.Get(ctx, evaluation.RSLCacheKey, &results); !found {
		var err error
		results, err = h.pipeline.EvaluateRSL(ctx)
		if err != nil {
			h.logger.WithError(err).Error("RSL evaluation failed")
			respondError(w, http.StatusInternalServerError, "Failed to evaluate RSL")
			return
		}

		if err := h.cache.Set(ctx, evaluation.RSLCacheKey, results, h.cacheTTL); err != nil {
			h.logger.WithError(err).Warn("Failed to cache RSL results")
		}
	}

	response := make([]RSLResponse, len(results))
	for i, res := range results {
		response[i] = RSLResponse{
			ISIN:              res.Key.ISIN,
			SecurityName:      res.SecurityName,
			SecurityType:      string(res.SecurityType),
			ExchangeName:      res.ExchangeName,
			NewestWeeklyClose: res.NewestWeeklyClose.Format("2006-01-02"),
			RSLValue:          res.RSLValue.InexactFloat64(),
		}
	}

	respondJSON(w, http.StatusOK, response)
}
