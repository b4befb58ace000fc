package quotes

import (
	"context"
	"fmt"

	"github.com/mweber/quotesd/internal/contracts"
	"github.com/mweber/quotesd/pkg/logger"
)

// IngestService applies incoming quote batches to the store. It resolves
// the (security, exchange) pair to a series key first; ingestion for an
// unregistered security or exchange fails with ErrNotFound instead of
// creating orphaned series.
type IngestService struct {
	securities contracts.SecurityRepository
	exchanges  contracts.ExchangeRepository
	store      contracts.QuoteStore
	logger     *logger.Logger
}

// NewIngestService creates a new ingest service
func NewIngestService(
	securities contracts.SecurityRepository,
	exchanges contracts.ExchangeRepository,
	store contracts.QuoteStore,
	log *logger.Logger,
) *IngestService {
	return &IngestService{
		securities: securities,
		exchanges:  exchanges,
		store:      store,
		logger:     log.WithField("module", "ingest"),
	}
}

// ResolveKey maps a security ISIN and exchange ID to a series key.
// Fails with contracts.ErrNotFound when either side is unregistered.
func (s *IngestService) ResolveKey(ctx context.Context, isin string, exchangeID int64) (contracts.SeriesKey, error) {
	if _, err := s.securities.GetByISIN(ctx, isin); err != nil {
		return contracts.SeriesKey{}, fmt.Errorf("security %s: %w", isin, err)
	}
	if _, err := s.exchanges.GetByID(ctx, exchangeID); err != nil {
		return contracts.SeriesKey{}, fmt.Errorf("exchange %d: %w", exchangeID, err)
	}
	return contracts.SeriesKey{ISIN: isin, ExchangeID: exchangeID}, nil
}

// Ingest resolves the series key and upserts the quote batch. Duplicate or
// out-of-order dates are simply overwrites; there is no cross-date
// validation. Returns the number of points applied.
func (s *IngestService) Ingest(ctx context.Context, isin string, exchangeID int64, points []contracts.QuotePoint) (int, error) {
	key, err := s.ResolveKey(ctx, isin, exchangeID)
	if err != nil {
		return 0, err
	}

	if err := s.store.UpsertBatch(ctx, key, points); err != nil {
		return 0, fmt.Errorf("upsert quotes for %s: %w", key, err)
	}

	s.logger.WithFields(map[string]interface{}{
		"series": key.String(),
		"points": len(points),
	}).Info("Quotes ingested")

	return len(points), nil
}
