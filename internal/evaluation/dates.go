package evaluation

import (
	"context"
	"time"

	"github.com/mweber/quotesd/internal/contracts"
)

// SeriesDates summarizes the date coverage of one series
type SeriesDates struct {
	Earliest time.Time
	Latest   time.Time
}

// Span returns the covered range as a duration
func (d SeriesDates) Span() time.Duration {
	return d.Latest.Sub(d.Earliest)
}

// ResolveSeriesDates looks up the earliest and latest stored dates for a
// series. It propagates contracts.ErrNotFound for empty series; batch
// callers treat that as a skip, never as a failure.
func ResolveSeriesDates(ctx context.Context, store contracts.QuoteStore, key contracts.SeriesKey) (SeriesDates, error) {
	latest, err := store.LatestDate(ctx, key)
	if err != nil {
		return SeriesDates{}, err
	}

	earliest, err := store.EarliestDate(ctx, key)
	if err != nil {
		return SeriesDates{}, err
	}

	return SeriesDates{Earliest: earliest, Latest: latest}, nil
}
