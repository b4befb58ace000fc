package exchanges

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mweber/quotesd/internal/contracts"
)

// Repository is the Postgres implementation of contracts.ExchangeRepository
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new exchange repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetAll retrieves all registered exchanges, ordered by name
func (r *Repository) GetAll(ctx context.Context) ([]*contracts.Exchange, error) {
	query := `
		SELECT id, name
		FROM exchanges
		ORDER BY name ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exchanges []*contracts.Exchange
	for rows.Next() {
		var e contracts.Exchange
		if err := rows.Scan(&e.ID, &e.Name); err != nil {
			return nil, err
		}
		exchanges = append(exchanges, &e)
	}
	return exchanges, rows.Err()
}

// GetByID retrieves a single exchange by its ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*contracts.Exchange, error) {
	query := `
		SELECT id, name
		FROM exchanges
		WHERE id = $1
	`

	var e contracts.Exchange
	err := r.pool.QueryRow(ctx, query, id).Scan(&e.ID, &e.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, contracts.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// GetByName retrieves a single exchange by its unique name
func (r *Repository) GetByName(ctx context.Context, name string) (*contracts.Exchange, error) {
	query := `
		SELECT id, name
		FROM exchanges
		WHERE name = $1
	`

	var e contracts.Exchange
	err := r.pool.QueryRow(ctx, query, name).Scan(&e.ID, &e.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, contracts.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Upsert inserts an exchange by name, returning the stored row. The name
// column is unique, so re-registering an existing exchange returns the
// original row with its original ID.
func (r *Repository) Upsert(ctx context.Context, exchange *contracts.Exchange) (*contracts.Exchange, error) {
	// The no-op overwrite makes RETURNING work on the conflict path too
	query := `
		INSERT INTO exchanges (name)
		VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name
	`

	var e contracts.Exchange
	if err := r.pool.QueryRow(ctx, query, exchange.Name).Scan(&e.ID, &e.Name); err != nil {
		return nil, err
	}
	return &e, nil
}

// Update renames an existing exchange; ErrNotFound when the ID is unknown
func (r *Repository) Update(ctx context.Context, exchange *contracts.Exchange) error {
	query := `
		UPDATE exchanges
		SET name = $2
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, exchange.ID, exchange.Name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("exchange %d: %w", exchange.ID, contracts.ErrNotFound)
	}
	return nil
}
