package securities

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mweber/quotesd/internal/contracts"
)

// Repository is the Postgres implementation of contracts.SecurityRepository
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new security repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetAll retrieves all registered securities, ordered by ISIN
func (r *Repository) GetAll(ctx context.Context) ([]*contracts.Security, error) {
	query := `
		SELECT isin, nsin, name, type
		FROM securities
		ORDER BY isin ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var securities []*contracts.Security
	for rows.Next() {
		var s contracts.Security
		if err := rows.Scan(&s.ISIN, &s.NSIN, &s.Name, &s.Type); err != nil {
			return nil, err
		}
		securities = append(securities, &s)
	}
	return securities, rows.Err()
}

// GetByISIN retrieves a single security by its ISIN
func (r *Repository) GetByISIN(ctx context.Context, isin string) (*contracts.Security, error) {
	query := `
		SELECT isin, nsin, name, type
		FROM securities
		WHERE isin = $1
	`

	var s contracts.Security
	err := r.pool.QueryRow(ctx, query, isin).Scan(&s.ISIN, &s.NSIN, &s.Name, &s.Type)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, contracts.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Upsert inserts a security or overwrites the descriptive fields of an
// existing one with the same ISIN
func (r *Repository) Upsert(ctx context.Context, security *contracts.Security) error {
	query := `
		INSERT INTO securities (isin, nsin, name, type)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (isin) DO UPDATE SET
			nsin = EXCLUDED.nsin,
			name = EXCLUDED.name,
			type = EXCLUDED.type
	`

	_, err := r.pool.Exec(ctx, query, security.ISIN, security.NSIN, security.Name, security.Type)
	return err
}

// Update modifies an existing security; ErrNotFound when the ISIN is
// unregistered
func (r *Repository) Update(ctx context.Context, security *contracts.Security) error {
	query := `
		UPDATE securities
		SET nsin = $2, name = $3, type = $4
		WHERE isin = $1
	`

	tag, err := r.pool.Exec(ctx, query, security.ISIN, security.NSIN, security.Name, security.Type)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("security %s: %w", security.ISIN, contracts.ErrNotFound)
	}
	return nil
}
