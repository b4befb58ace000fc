package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/mweber/quotesd/internal/contracts"
	"github.com/mweber/quotesd/internal/evaluation"
	"github.com/mweber/quotesd/pkg/logger"
)

// QuoteCountReportJob logs per-series quote counts and date coverage once a
// day. It gives a quick view of which series are still receiving data and
// which have gone stale without querying the database by hand.
type QuoteCountReportJob struct {
	store  contracts.QuoteStore
	logger *logger.Logger
}

// NewQuoteCountReportJob creates a new quote count report job
func NewQuoteCountReportJob(store contracts.QuoteStore, log *logger.Logger) *QuoteCountReportJob {
	return &QuoteCountReportJob{
		store:  store,
		logger: log.WithField("job", "quote_count_report"),
	}
}

// Name returns the job name
func (j *QuoteCountReportJob) Name() string {
	return "quote_count_report"
}

// Schedule returns the cron schedule (daily at 04:30 AM)
func (j *QuoteCountReportJob) Schedule() string {
	return "0 30 4 * * *"
}

// Run logs count and date coverage of every stored series
func (j *QuoteCountReportJob) Run(ctx context.Context) error {
	series, err := j.store.AllSeries(ctx)
	if err != nil {
		return fmt.Errorf("failed to list series: %w", err)
	}

	for _, info := range series {
		dates, err := evaluation.ResolveSeriesDates(ctx, j.store, info.Key)
		if errors.Is(err, contracts.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to resolve dates for %s: %w", info.Key, err)
		}

		j.logger.WithFields(map[string]interface{}{
			"series":   info.Key.String(),
			"exchange": info.ExchangeName,
			"earliest": dates.Earliest.Format("2006-01-02"),
			"latest":   dates.Latest.Format("2006-01-02"),
			"span":     dates.Span().String(),
		}).Debug("Series date coverage")
	}

	counts, err := j.store.Counts(ctx)
	if err != nil {
		return fmt.Errorf("failed to load quote counts: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c.Count
	}

	j.logger.WithFields(map[string]interface{}{
		"series": len(counts),
		"quotes": total,
	}).Info("Quote count report completed")

	return nil
}
