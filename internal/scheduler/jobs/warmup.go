package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/mweber/quotesd/internal/contracts"
	"github.com/mweber/quotesd/internal/evaluation"
	"github.com/mweber/quotesd/pkg/logger"
	"github.com/mweber/quotesd/pkg/redis"
)

// warmupIntervals are the lookback windows precomputed overnight; they
// cover the intervals the dashboard requests by default
var warmupIntervals = []contracts.Interval{
	{Count: 1, Unit: contracts.UnitMonth},
	{Count: 6, Unit: contracts.UnitMonth},
	{Count: 1, Unit: contracts.UnitYear},
}

// EvaluationWarmupJob precomputes evaluation results into the cache so the
// first morning request does not pay for a full pipeline run. It writes the
// same cache keys the API handler reads.
type EvaluationWarmupJob struct {
	pipeline *evaluation.Pipeline
	cache    *redis.Cache
	ttl      time.Duration
	logger   *logger.Logger
}

// NewEvaluationWarmupJob creates a new warmup job
func NewEvaluationWarmupJob(pipeline *evaluation.Pipeline, cache *redis.Cache, ttl time.Duration, log *logger.Logger) *EvaluationWarmupJob {
	return &EvaluationWarmupJob{
		pipeline: pipeline,
		cache:    cache,
		ttl:      ttl,
		logger:   log,
	}
}

// Name returns the job name
func (j *EvaluationWarmupJob) Name() string {
	return "evaluation_warmup"
}

// Schedule returns the cron schedule (every day at 5 AM)
func (j *EvaluationWarmupJob) Schedule() string {
	return "0 0 5 * * *"
}

// Run executes the warmup
func (j *EvaluationWarmupJob) Run(ctx context.Context) error {
	for _, interval := range warmupIntervals {
		results, err := j.pipeline.EvaluatePerformance(ctx, interval)
		if err != nil {
			return fmt.Errorf("warm performance %s: %w", interval, err)
		}
		if err := j.cache.Set(ctx, evaluation.PerformanceCacheKey(interval), results, j.ttl); err != nil {
			return fmt.Errorf("cache performance %s: %w", interval, err)
		}

		j.logger.WithFields(map[string]interface{}{
			"interval": interval.String(),
			"series":   len(results),
		}).Debug("Warmed performance cache")
	}

	rslResults, err := j.pipeline.EvaluateRSL(ctx)
	if err != nil {
		return fmt.Errorf("warm rsl: %w", err)
	}
	if err := j.cache.Set(ctx, evaluation.RSLCacheKey, rslResults, j.ttl); err != nil {
		return fmt.Errorf("cache rsl: %w", err)
	}

	j.logger.WithField("series", len(rslResults)).Info("Evaluation cache warmed")
	return nil
}
