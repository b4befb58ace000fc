package contracts

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SeriesKey identifies one price series: a security listed on an exchange
type SeriesKey struct {
	ISIN       string `json:"isin"`
	ExchangeID int64  `json:"exchange_id"`
}

// String returns the key in isin@exchange form, used for logging
func (k SeriesKey) String() string {
	return fmt.Sprintf("%s@%d", k.ISIN, k.ExchangeID)
}

// SeriesInfo carries a series key plus the descriptive attributes attached
// to evaluation results. The attributes are reporting-only and never enter
// any calculation.
type SeriesInfo struct {
	Key          SeriesKey    `json:"key"`
	SecurityName string       `json:"security_name"`
	SecurityType SecurityType `json:"security_type"`
	ExchangeName string       `json:"exchange_name"`
}

// QuotePoint is one dated price observation. Dates are calendar days;
// within one series each date occurs at most once.
type QuotePoint struct {
	Date  time.Time       `json:"date"`
	Price decimal.Decimal `json:"price"`
}

// WeeklyClose is the last observed price within one calendar week
type WeeklyClose struct {
	WeekEnd time.Time       `json:"week_end"`
	Price   decimal.Decimal `json:"price"`
}

// SeriesCount reports how many quotes are stored for one series
type SeriesCount struct {
	ISIN         string `json:"isin"`
	ExchangeName string `json:"exchange_name"`
	Count        int64  `json:"count"`
}

// IntervalUnit is the calendar unit of a lookback interval
type IntervalUnit string

const (
	UnitDay   IntervalUnit = "day"
	UnitMonth IntervalUnit = "month"
	UnitYear  IntervalUnit = "year"
)

// ParseIntervalUnit converts a string into an IntervalUnit
func ParseIntervalUnit(s string) (IntervalUnit, error) {
	switch IntervalUnit(s) {
	case UnitDay, UnitMonth, UnitYear:
		return IntervalUnit(s), nil
	}
	return "", fmt.Errorf("unknown interval unit %q", s)
}

// Interval is a caller-supplied lookback window for performance evaluation
type Interval struct {
	Count int          `json:"count"`
	Unit  IntervalUnit `json:"unit"`
}

// Validate checks the interval for a positive count and a known unit
func (i Interval) Validate() error {
	if i.Count < 1 {
		return fmt.Errorf("%w, got %d", ErrInvalidInterval, i.Count)
	}
	if _, err := ParseIntervalUnit(string(i.Unit)); err != nil {
		return err
	}
	return nil
}

// String returns the interval in "3 months" form
func (i Interval) String() string {
	if i.Count == 1 {
		return fmt.Sprintf("1 %s", i.Unit)
	}
	return fmt.Sprintf("%d %ss", i.Count, i.Unit)
}

// PerformanceResult is the outcome of a performance evaluation for one series
type PerformanceResult struct {
	SeriesInfo
	LatestDate  time.Time       `json:"latest_date"`
	LatestPrice decimal.Decimal `json:"latest_price"`
	BaseDate    time.Time       `json:"base_date"`
	BasePrice   decimal.Decimal `json:"base_price"`
	Performance decimal.Decimal `json:"performance"`
}

// RSLevyResult is the outcome of a relative-strength evaluation for one series
type RSLevyResult struct {
	SeriesInfo
	NewestWeeklyClose time.Time       `json:"newest_weekly_close"`
	RSLValue          decimal.Decimal `json:"rsl_value"`
}

// Day normalizes a timestamp to its calendar day (midnight UTC).
// Quotes are one-per-day, so every date entering a store goes through this.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
