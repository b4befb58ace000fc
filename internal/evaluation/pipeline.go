package evaluation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/mweber/quotesd/internal/contracts"
	"github.com/mweber/quotesd/pkg/logger"
)

// Pipeline runs an evaluator over every known series and collects the
// results of those with sufficient data. Series are independent, so the
// per-series evaluations fan out across a worker pool.
type Pipeline struct {
	store   contracts.QuoteStore
	perf    *PerformanceEvaluator
	rsl     *RSLevyEvaluator
	workers int
	logger  *logger.Logger
}

// NewPipeline creates a new evaluation pipeline
func NewPipeline(store contracts.QuoteStore, perf *PerformanceEvaluator, rsl *RSLevyEvaluator, workers int, log *logger.Logger) *Pipeline {
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{
		store:   store,
		perf:    perf,
		rsl:     rsl,
		workers: workers,
		logger:  log.WithField("module", "pipeline"),
	}
}

// PerformanceCacheKey is the cache key under which performance results for
// an interval are stored; shared between the API handler and the warmup job
func PerformanceCacheKey(interval contracts.Interval) string {
	return fmt.Sprintf("performance:%d:%s", interval.Count, interval.Unit)
}

// RSLCacheKey is the cache key for RSL results
const RSLCacheKey = "rsl"

// runStats counts per-series outcomes of one pipeline run
type runStats struct {
	evaluated    int
	skippedData  int // no points, or no point old enough
	skippedShort int // fewer than 27 weekly closes
}

// EvaluatePerformance computes the performance of every series over the
// given interval. Series without sufficiently old data are omitted, never
// an error. An invalid interval aborts the request before any series is
// touched.
func (p *Pipeline) EvaluatePerformance(ctx context.Context, interval contracts.Interval) ([]contracts.PerformanceResult, error) {
	// Caller configuration error, checked up front
	if err := interval.Validate(); err != nil {
		return nil, err
	}

	series, err := p.store.AllSeries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}

	results, stats := fanOut(p, ctx, series, func(ctx context.Context, info contracts.SeriesInfo) (*contracts.PerformanceResult, error) {
		return p.perf.Evaluate(ctx, info, interval)
	})

	// Stable output order: ISIN, then exchange name
	sort.Slice(results, func(i, j int) bool {
		if results[i].Key.ISIN != results[j].Key.ISIN {
			return results[i].Key.ISIN < results[j].Key.ISIN
		}
		return results[i].ExchangeName < results[j].ExchangeName
	})

	p.logger.WithFields(map[string]interface{}{
		"interval":     interval.String(),
		"series":       len(series),
		"evaluated":    stats.evaluated,
		"skipped_data": stats.skippedData,
	}).Info("Performance evaluation completed")

	return results, nil
}

// EvaluateRSL computes the RSL indicator for every series with at least 27
// weekly closes; the rest are omitted.
func (p *Pipeline) EvaluateRSL(ctx context.Context) ([]contracts.RSLevyResult, error) {
	series, err := p.store.AllSeries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}

	results, stats := fanOut(p, ctx, series, p.rsl.Evaluate)

	sort.Slice(results, func(i, j int) bool {
		if results[i].Key.ISIN != results[j].Key.ISIN {
			return results[i].Key.ISIN < results[j].Key.ISIN
		}
		return results[i].ExchangeName < results[j].ExchangeName
	})

	p.logger.WithFields(map[string]interface{}{
		"series":        len(series),
		"evaluated":     stats.evaluated,
		"skipped_data":  stats.skippedData,
		"skipped_short": stats.skippedShort,
	}).Info("RSL evaluation completed")

	return results, nil
}

// fanOut distributes the per-series evaluations over the worker pool and
// collects the non-skipped results. When ctx is done it stops dispatching
// further series and returns what has been computed so far; partial output
// is already the normal mode here, since missing-data skips are routine.
func fanOut[R any](p *Pipeline, ctx context.Context, series []contracts.SeriesInfo, eval func(context.Context, contracts.SeriesInfo) (*R, error)) ([]R, runStats) {
	seriesCh := make(chan contracts.SeriesInfo)
	type outcome struct {
		result *R
		err    error
	}
	outcomeCh := make(chan outcome, len(series))

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for info := range seriesCh {
				result, err := eval(ctx, info)
				outcomeCh <- outcome{result: result, err: err}
			}
		}()
	}

	// Dispatch; a request deadline stops scheduling further series
	go func() {
		defer close(seriesCh)
		for _, info := range series {
			select {
			case <-ctx.Done():
				return
			case seriesCh <- info:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomeCh)
	}()

	var results []R
	var stats runStats
	for out := range outcomeCh {
		switch {
		case out.err == nil:
			results = append(results, *out.result)
			stats.evaluated++
		case errors.Is(out.err, contracts.ErrNotFound):
			stats.skippedData++
		case errors.Is(out.err, ErrInsufficientHistory):
			stats.skippedShort++
		default:
			// Unexpected per-series failure: log and keep the batch going
			p.logger.WithError(out.err).Warn("Series evaluation failed")
		}
	}

	return results, stats
}
