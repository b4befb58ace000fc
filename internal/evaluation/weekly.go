package evaluation

import (
	"context"
	"sort"

	"github.com/mweber/quotesd/internal/contracts"
)

// windowWeeks is the trailing window fetched for weekly-close extraction.
// One week more than the 27 the RSL evaluator needs, so a sparse newest
// week cannot starve the indicator.
const windowWeeks = 28

// WeeklyCloseExtractor buckets a trailing window of a daily series into
// calendar weeks and keeps one closing price per week. Weekly closes give
// the RSL indicator a stable cadence no matter how many trading days a
// week actually had.
type WeeklyCloseExtractor struct {
	store contracts.QuoteStore
}

// NewWeeklyCloseExtractor creates a new weekly close extractor
func NewWeeklyCloseExtractor(store contracts.QuoteStore) *WeeklyCloseExtractor {
	return &WeeklyCloseExtractor{store: store}
}

// Extract returns the weekly closes of the trailing window, newest first.
// Returns contracts.ErrNotFound when the series has no points.
//
// Week bucketing follows ISO 8601: weeks run Monday through Sunday and
// week 1 is the week containing the year's first Thursday. The rule decides
// which days group together around year boundaries, e.g. Dec 31 can fall
// into week 1 of the following year.
func (x *WeeklyCloseExtractor) Extract(ctx context.Context, key contracts.SeriesKey) ([]contracts.WeeklyClose, error) {
	latest, err := x.store.LatestDate(ctx, key)
	if err != nil {
		return nil, err
	}

	windowStart := latest.AddDate(0, 0, -windowWeeks*7)
	points, err := x.store.PointsInRange(ctx, key, windowStart, latest)
	if err != nil {
		return nil, err
	}

	// One close per ISO year-week: the point with the maximum date wins.
	// Points arrive in ascending date order, so the last write per bucket
	// is the week's close.
	closes := make(map[int]contracts.QuotePoint)
	for _, p := range points {
		closes[isoWeekKey(p)] = p
	}

	result := make([]contracts.WeeklyClose, 0, len(closes))
	for _, p := range closes {
		result = append(result, contracts.WeeklyClose{WeekEnd: p.Date, Price: p.Price})
	}

	// Newest first
	sort.Slice(result, func(i, j int) bool {
		return result[i].WeekEnd.After(result[j].WeekEnd)
	})

	return result, nil
}

// isoWeekKey folds a point's ISO year and week into one bucket key
func isoWeekKey(p contracts.QuotePoint) int {
	year, week := p.Date.ISOWeek()
	return year*100 + week
}
