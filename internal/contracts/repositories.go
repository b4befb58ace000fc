package contracts

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Repository interfaces are defined here; implementations live in
// internal/securities, internal/exchanges and internal/quotes.

// SecurityRepository manages the security registry
type SecurityRepository interface {
	GetAll(ctx context.Context) ([]*Security, error)
	GetByISIN(ctx context.Context, isin string) (*Security, error)
	Upsert(ctx context.Context, security *Security) error
	Update(ctx context.Context, security *Security) error
}

// ExchangeRepository manages the exchange registry
type ExchangeRepository interface {
	GetAll(ctx context.Context) ([]*Exchange, error)
	GetByID(ctx context.Context, id int64) (*Exchange, error)
	GetByName(ctx context.Context, name string) (*Exchange, error)
	Upsert(ctx context.Context, exchange *Exchange) (*Exchange, error)
	Update(ctx context.Context, exchange *Exchange) error
}

// QuoteStore holds the date-ordered price series and answers the queries
// the evaluators are built on. Any backend satisfying this contract works;
// the service ships a Postgres implementation and an in-memory one.
//
// All lookups return ErrNotFound when the series (or the requested date)
// has no data. PriceAt presumes the date exists; callers establish that
// first, typically via DateOnOrBefore.
type QuoteStore interface {
	// Upsert inserts or overwrites the price for (key, date).
	// Overwriting is not an error; the last completed write wins.
	Upsert(ctx context.Context, key SeriesKey, date time.Time, price decimal.Decimal) error

	// UpsertBatch applies a sequence of upserts for one series
	UpsertBatch(ctx context.Context, key SeriesKey, points []QuotePoint) error

	// LatestDate returns the maximum date stored for the series
	LatestDate(ctx context.Context, key SeriesKey) (time.Time, error)

	// EarliestDate returns the minimum date stored for the series
	EarliestDate(ctx context.Context, key SeriesKey) (time.Time, error)

	// DateOnOrBefore returns the largest stored date <= ref
	DateOnOrBefore(ctx context.Context, key SeriesKey, ref time.Time) (time.Time, error)

	// PriceAt returns the price at an exact date
	PriceAt(ctx context.Context, key SeriesKey, date time.Time) (decimal.Decimal, error)

	// PointsInRange returns all points with from <= date <= to, ascending
	PointsInRange(ctx context.Context, key SeriesKey, from, to time.Time) ([]QuotePoint, error)

	// AllSeries lists every series with at least one point, together with
	// its reporting attributes, ordered by ISIN then exchange name
	AllSeries(ctx context.Context) ([]SeriesInfo, error)

	// Counts reports the number of stored quotes per series
	Counts(ctx context.Context) ([]SeriesCount, error)
}
