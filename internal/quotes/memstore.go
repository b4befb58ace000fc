package quotes

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mweber/quotesd/internal/contracts"
)

// MemStore is an in-memory implementation of contracts.QuoteStore. It backs
// the offline evaluation mode (CSV input) and the evaluator tests; the
// contract makes the storage technology irrelevant to the evaluators.
//
// Safe for concurrent use. Upserts for the same (key, date) follow
// last-write-wins, matching the Postgres implementation.
type MemStore struct {
	mu     sync.RWMutex
	series map[contracts.SeriesKey]*memSeries
}

type memSeries struct {
	info   contracts.SeriesInfo
	points map[time.Time]decimal.Decimal
}

// NewMemStore creates an empty in-memory quote store
func NewMemStore() *MemStore {
	return &MemStore{
		series: make(map[contracts.SeriesKey]*memSeries),
	}
}

// SetSeriesInfo attaches reporting attributes to a series. Without it a
// series still works, it just evaluates with empty name fields.
func (s *MemStore) SetSeriesInfo(info contracts.SeriesInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensure(info.Key).info = info
}

// ensure returns the series for key, creating it if needed. Caller holds mu.
func (s *MemStore) ensure(key contracts.SeriesKey) *memSeries {
	ser, ok := s.series[key]
	if !ok {
		ser = &memSeries{
			info:   contracts.SeriesInfo{Key: key},
			points: make(map[time.Time]decimal.Decimal),
		}
		s.series[key] = ser
	}
	return ser
}

// Upsert inserts or overwrites the price for (key, date)
func (s *MemStore) Upsert(_ context.Context, key contracts.SeriesKey, dt time.Time, price decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensure(key).points[contracts.Day(dt)] = price
	return nil
}

// UpsertBatch applies a sequence of upserts for one series
func (s *MemStore) UpsertBatch(_ context.Context, key contracts.SeriesKey, points []contracts.QuotePoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ser := s.ensure(key)
	for _, p := range points {
		ser.points[contracts.Day(p.Date)] = p.Price
	}
	return nil
}

// LatestDate returns the maximum stored date for the series
func (s *MemStore) LatestDate(_ context.Context, key contracts.SeriesKey) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ser, ok := s.series[key]
	if !ok || len(ser.points) == 0 {
		return time.Time{}, contracts.ErrNotFound
	}

	var latest time.Time
	for dt := range ser.points {
		if dt.After(latest) {
			latest = dt
		}
	}
	return latest, nil
}

// EarliestDate returns the minimum stored date for the series
func (s *MemStore) EarliestDate(_ context.Context, key contracts.SeriesKey) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ser, ok := s.series[key]
	if !ok || len(ser.points) == 0 {
		return time.Time{}, contracts.ErrNotFound
	}

	var earliest time.Time
	for dt := range ser.points {
		if earliest.IsZero() || dt.Before(earliest) {
			earliest = dt
		}
	}
	return earliest, nil
}

// DateOnOrBefore returns the largest stored date <= ref
func (s *MemStore) DateOnOrBefore(_ context.Context, key contracts.SeriesKey, ref time.Time) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ser, ok := s.series[key]
	if !ok {
		return time.Time{}, contracts.ErrNotFound
	}

	refDay := contracts.Day(ref)
	var best time.Time
	for dt := range ser.points {
		if !dt.After(refDay) && dt.After(best) {
			best = dt
		}
	}
	if best.IsZero() {
		return time.Time{}, contracts.ErrNotFound
	}
	return best, nil
}

// PriceAt returns the price at an exact date
func (s *MemStore) PriceAt(_ context.Context, key contracts.SeriesKey, dt time.Time) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ser, ok := s.series[key]
	if !ok {
		return decimal.Decimal{}, contracts.ErrNotFound
	}

	price, ok := ser.points[contracts.Day(dt)]
	if !ok {
		return decimal.Decimal{}, contracts.ErrNotFound
	}
	return price, nil
}

// PointsInRange returns all points with from <= date <= to, ascending
func (s *MemStore) PointsInRange(_ context.Context, key contracts.SeriesKey, from, to time.Time) ([]contracts.QuotePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ser, ok := s.series[key]
	if !ok {
		return nil, nil
	}

	fromDay, toDay := contracts.Day(from), contracts.Day(to)
	var points []contracts.QuotePoint
	for dt, price := range ser.points {
		if !dt.Before(fromDay) && !dt.After(toDay) {
			points = append(points, contracts.QuotePoint{Date: dt, Price: price})
		}
	}

	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
	return points, nil
}

// AllSeries lists every series with at least one point, ordered by ISIN
// then exchange name
func (s *MemStore) AllSeries(_ context.Context) ([]contracts.SeriesInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]contracts.SeriesInfo, 0, len(s.series))
	for _, ser := range s.series {
		if len(ser.points) == 0 {
			continue
		}
		infos = append(infos, ser.info)
	}

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Key.ISIN != infos[j].Key.ISIN {
			return infos[i].Key.ISIN < infos[j].Key.ISIN
		}
		return infos[i].ExchangeName < infos[j].ExchangeName
	})
	return infos, nil
}

// Counts reports the number of stored quotes per series
func (s *MemStore) Counts(_ context.Context) ([]contracts.SeriesCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make([]contracts.SeriesCount, 0, len(s.series))
	for _, ser := range s.series {
		if len(ser.points) == 0 {
			continue
		}
		counts = append(counts, contracts.SeriesCount{
			ISIN:         ser.info.Key.ISIN,
			ExchangeName: ser.info.ExchangeName,
			Count:        int64(len(ser.points)),
		})
	}

	sort.Slice(counts, func(i, j int) bool {
		if counts[i].ISIN != counts[j].ISIN {
			return counts[i].ISIN < counts[j].ISIN
		}
		return counts[i].ExchangeName < counts[j].ExchangeName
	})
	return counts, nil
}
