package quotes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mweber/quotesd/internal/contracts"
)

// Repository is the Postgres implementation of contracts.QuoteStore.
// One row per (isin, exchange_id, quote_date); the primary key makes the
// one-quote-per-day invariant a constraint instead of application logic.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new quote repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Upsert inserts or overwrites the price for (key, date)
func (r *Repository) Upsert(ctx context.Context, key contracts.SeriesKey, date time.Time, price decimal.Decimal) error {
	query := `
		INSERT INTO quotes (isin, exchange_id, quote_date, price)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (isin, exchange_id, quote_date) DO UPDATE SET
			price = EXCLUDED.price
	`

	_, err := r.pool.Exec(ctx, query, key.ISIN, key.ExchangeID, contracts.Day(date), price)
	return err
}

// UpsertBatch applies a sequence of upserts for one series
func (r *Repository) UpsertBatch(ctx context.Context, key contracts.SeriesKey, points []contracts.QuotePoint) error {
	if len(points) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO quotes (isin, exchange_id, quote_date, price)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (isin, exchange_id, quote_date) DO UPDATE SET
			price = EXCLUDED.price
	`
	for _, p := range points {
		batch.Queue(query, key.ISIN, key.ExchangeID, contracts.Day(p.Date), p.Price)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range points {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upsert batch: %w", err)
		}
	}
	return nil
}

// LatestDate returns the maximum stored date for the series
func (r *Repository) LatestDate(ctx context.Context, key contracts.SeriesKey) (time.Time, error) {
	query := `
		SELECT quote_date
		FROM quotes
		WHERE isin = $1 AND exchange_id = $2
		ORDER BY quote_date DESC
		LIMIT 1
	`
	return r.scanDate(ctx, query, key.ISIN, key.ExchangeID)
}

// EarliestDate returns the minimum stored date for the series
func (r *Repository) EarliestDate(ctx context.Context, key contracts.SeriesKey) (time.Time, error) {
	query := `
		SELECT quote_date
		FROM quotes
		WHERE isin = $1 AND exchange_id = $2
		ORDER BY quote_date ASC
		LIMIT 1
	`
	return r.scanDate(ctx, query, key.ISIN, key.ExchangeID)
}

// DateOnOrBefore returns the largest stored date <= ref
func (r *Repository) DateOnOrBefore(ctx context.Context, key contracts.SeriesKey, ref time.Time) (time.Time, error) {
	query := `
		SELECT quote_date
		FROM quotes
		WHERE isin = $1 AND exchange_id = $2 AND quote_date <= $3
		ORDER BY quote_date DESC
		LIMIT 1
	`
	return r.scanDate(ctx, query, key.ISIN, key.ExchangeID, contracts.Day(ref))
}

// scanDate runs a single-date query, translating no-rows into ErrNotFound
func (r *Repository) scanDate(ctx context.Context, query string, args ...interface{}) (time.Time, error) {
	var date time.Time
	err := r.pool.QueryRow(ctx, query, args...).Scan(&date)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, contracts.ErrNotFound
	}
	if err != nil {
		return time.Time{}, err
	}
	return contracts.Day(date), nil
}

// PriceAt returns the price at an exact date
func (r *Repository) PriceAt(ctx context.Context, key contracts.SeriesKey, date time.Time) (decimal.Decimal, error) {
	query := `
		SELECT price
		FROM quotes
		WHERE isin = $1 AND exchange_id = $2 AND quote_date = $3
	`

	var price decimal.Decimal
	err := r.pool.QueryRow(ctx, query, key.ISIN, key.ExchangeID, contracts.Day(date)).Scan(&price)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Decimal{}, contracts.ErrNotFound
	}
	if err != nil {
		return decimal.Decimal{}, err
	}
	return price, nil
}

// PointsInRange returns all points with from <= quote_date <= to, ascending
func (r *Repository) PointsInRange(ctx context.Context, key contracts.SeriesKey, from, to time.Time) ([]contracts.QuotePoint, error) {
	query := `
		SELECT quote_date, price
		FROM quotes
		WHERE isin = $1 AND exchange_id = $2 AND quote_date BETWEEN $3 AND $4
		ORDER BY quote_date ASC
	`

	rows, err := r.pool.Query(ctx, query, key.ISIN, key.ExchangeID, contracts.Day(from), contracts.Day(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []contracts.QuotePoint
	for rows.Next() {
		var p contracts.QuotePoint
		if err := rows.Scan(&p.Date, &p.Price); err != nil {
			return nil, err
		}
		p.Date = contracts.Day(p.Date)
		points = append(points, p)
	}
	return points, rows.Err()
}

// AllSeries lists every series with at least one quote, joined with its
// reporting attributes, ordered by ISIN then exchange name
func (r *Repository) AllSeries(ctx context.Context) ([]contracts.SeriesInfo, error) {
	query := `
		SELECT q.isin, s.name, s.type, q.exchange_id, e.name
		FROM quotes q
		INNER JOIN securities s ON q.isin = s.isin
		INNER JOIN exchanges e ON q.exchange_id = e.id
		GROUP BY q.isin, s.name, s.type, q.exchange_id, e.name
		ORDER BY q.isin ASC, e.name ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var infos []contracts.SeriesInfo
	for rows.Next() {
		var info contracts.SeriesInfo
		if err := rows.Scan(&info.Key.ISIN, &info.SecurityName, &info.SecurityType, &info.Key.ExchangeID, &info.ExchangeName); err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Counts reports the number of stored quotes per series
func (r *Repository) Counts(ctx context.Context) ([]contracts.SeriesCount, error) {
	query := `
		SELECT q.isin, e.name, COUNT(*)
		FROM quotes q
		INNER JOIN exchanges e ON q.exchange_id = e.id
		GROUP BY q.isin, e.name
		ORDER BY q.isin ASC, e.name ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []contracts.SeriesCount
	for rows.Next() {
		var c contracts.SeriesCount
		if err := rows.Scan(&c.ISIN, &c.ExchangeName, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
