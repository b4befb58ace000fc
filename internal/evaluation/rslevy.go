package evaluation

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mweber/quotesd/internal/contracts"
	"github.com/mweber/quotesd/pkg/logger"
)

// rslWeeks is the number of weekly closes the Levy indicator is computed on
const rslWeeks = 27

// ErrInsufficientHistory signals that a series has fewer weekly closes than
// the RSL indicator needs. It is an expected condition, never surfaced to
// callers: the pipeline counts it and drops the series from the result.
var ErrInsufficientHistory = errors.New("insufficient weekly history")

// RSLevyEvaluator computes the Relative Strength Levy indicator: the latest
// weekly close relative to the mean of the trailing 27 weekly closes. A flat
// series scores exactly 1.0; values above 1 mean the latest close sits above
// its recent weekly average.
type RSLevyEvaluator struct {
	extractor *WeeklyCloseExtractor
	logger    *logger.Logger
}

// NewRSLevyEvaluator creates a new RSL evaluator
func NewRSLevyEvaluator(extractor *WeeklyCloseExtractor, log *logger.Logger) *RSLevyEvaluator {
	return &RSLevyEvaluator{
		extractor: extractor,
		logger:    log.WithField("module", "rslevy"),
	}
}

// Evaluate computes the RSL score from the newest 27 weekly closes.
// Returns ErrInsufficientHistory when fewer than 27 weeks are available and
// contracts.ErrNotFound when the series has no points at all.
func (e *RSLevyEvaluator) Evaluate(ctx context.Context, info contracts.SeriesInfo) (*contracts.RSLevyResult, error) {
	closes, err := e.extractor.Extract(ctx, info.Key)
	if err != nil {
		return nil, err
	}

	if len(closes) < rslWeeks {
		return nil, fmt.Errorf("%w: %d of %d weeks for %s", ErrInsufficientHistory, len(closes), rslWeeks, info.Key)
	}

	// Exactly the newest 27 weeks enter the score
	closes = closes[:rslWeeks]
	newest := closes[0]

	sum := decimal.Zero
	for _, c := range closes {
		sum = sum.Add(c.Price)
	}

	rsl := newest.Price.Mul(decimal.NewFromInt(rslWeeks)).Div(sum)

	e.logger.WithFields(map[string]interface{}{
		"series":       info.Key.String(),
		"newest_close": newest.WeekEnd.Format("2006-01-02"),
		"rsl":          rsl.String(),
	}).Debug("Evaluated RSL")

	return &contracts.RSLevyResult{
		SeriesInfo:        info,
		NewestWeeklyClose: newest.WeekEnd,
		RSLValue:          rsl,
	}, nil
}
