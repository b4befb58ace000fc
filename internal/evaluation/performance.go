package evaluation

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/mweber/quotesd/internal/contracts"
	"github.com/mweber/quotesd/pkg/logger"
)

// PerformanceEvaluator computes the price performance of a series over a
// trailing calendar interval
type PerformanceEvaluator struct {
	store  contracts.QuoteStore
	logger *logger.Logger
}

// NewPerformanceEvaluator creates a new performance evaluator
func NewPerformanceEvaluator(store contracts.QuoteStore, log *logger.Logger) *PerformanceEvaluator {
	return &PerformanceEvaluator{
		store:  store,
		logger: log.WithField("module", "performance"),
	}
}

// Evaluate computes performance = latestPrice/basePrice - 1, where the base
// is the stored point nearest on or before latestDate minus the interval.
//
// Returns contracts.ErrNotFound when the series is empty or has no point old
// enough for the interval; that is normal for newly listed instruments and
// batch callers skip the series. contracts.ErrInvalidInterval propagates for
// a count below 1 and aborts the whole request.
func (e *PerformanceEvaluator) Evaluate(ctx context.Context, info contracts.SeriesInfo, interval contracts.Interval) (*contracts.PerformanceResult, error) {
	key := info.Key

	latestDate, err := e.store.LatestDate(ctx, key)
	if err != nil {
		return nil, err
	}

	latestPrice, err := e.store.PriceAt(ctx, key, latestDate)
	if err != nil {
		return nil, err
	}

	targetDate, err := SubtractInterval(latestDate, interval.Count, interval.Unit)
	if err != nil {
		return nil, err
	}

	baseDate, err := e.store.DateOnOrBefore(ctx, key, targetDate)
	if err != nil {
		return nil, err
	}

	basePrice, err := e.store.PriceAt(ctx, key, baseDate)
	if err != nil {
		return nil, err
	}

	performance := latestPrice.Div(basePrice).Sub(decimal.NewFromInt(1))

	e.logger.WithFields(map[string]interface{}{
		"series":      key.String(),
		"latest_date": latestDate.Format("2006-01-02"),
		"base_date":   baseDate.Format("2006-01-02"),
		"performance": performance.String(),
	}).Debug("Evaluated performance")

	return &contracts.PerformanceResult{
		SeriesInfo:  info,
		LatestDate:  latestDate,
		LatestPrice: latestPrice,
		BaseDate:    baseDate,
		BasePrice:   basePrice,
		Performance: performance,
	}, nil
}
