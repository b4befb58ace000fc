package quotes

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mweber/quotesd/internal/contracts"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var memKey = contracts.SeriesKey{ISIN: "DE0005140008", ExchangeID: 1}

func seedStore(t *testing.T, store *MemStore, prices map[time.Time]float64) {
	t.Helper()
	ctx := context.Background()
	for dt, price := range prices {
		if err := store.Upsert(ctx, memKey, dt, decimal.NewFromFloat(price)); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func TestMemStore_UpsertOverwrites(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	seedStore(t, store, map[time.Time]float64{date(2024, 3, 1): 100})
	if err := store.Upsert(ctx, memKey, date(2024, 3, 1), decimal.NewFromInt(105)); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	price, err := store.PriceAt(ctx, memKey, date(2024, 3, 1))
	if err != nil {
		t.Fatalf("PriceAt: %v", err)
	}
	if !price.Equal(decimal.NewFromInt(105)) {
		t.Errorf("price = %s, want 105 (last write wins)", price)
	}

	counts, err := store.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if len(counts) != 1 || counts[0].Count != 1 {
		t.Errorf("expected a single stored quote after overwrite, got %+v", counts)
	}
}

func TestMemStore_DatesNormalizedToMidnightUTC(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	// Afternoon timestamp in a non-UTC zone must address the same day slot
	loc := time.FixedZone("CET", 3600)
	if err := store.Upsert(ctx, memKey, time.Date(2024, 3, 1, 15, 30, 0, 0, loc), decimal.NewFromInt(100)); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	price, err := store.PriceAt(ctx, memKey, date(2024, 3, 1))
	if err != nil {
		t.Fatalf("PriceAt: %v", err)
	}
	if !price.Equal(decimal.NewFromInt(100)) {
		t.Errorf("price = %s, want 100", price)
	}
}

func TestMemStore_DateOnOrBefore(t *testing.T) {
	store := NewMemStore()
	seedStore(t, store, map[time.Time]float64{
		date(2024, 3, 1):  100,
		date(2024, 3, 8):  101,
		date(2024, 3, 15): 102,
	})

	tests := []struct {
		name    string
		ref     time.Time
		want    time.Time
		wantErr bool
	}{
		{name: "exact hit", ref: date(2024, 3, 8), want: date(2024, 3, 8)},
		{name: "gap falls back", ref: date(2024, 3, 10), want: date(2024, 3, 8)},
		{name: "after latest", ref: date(2024, 4, 1), want: date(2024, 3, 15)},
		{name: "before earliest", ref: date(2024, 2, 1), wantErr: true},
	}

	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.DateOnOrBefore(ctx, memKey, tt.ref)
			if tt.wantErr {
				if !errors.Is(err, contracts.ErrNotFound) {
					t.Fatalf("expected ErrNotFound, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DateOnOrBefore: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("got %s, want %s", got.Format("2006-01-02"), tt.want.Format("2006-01-02"))
			}
		})
	}
}

func TestMemStore_LatestAndEarliest(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	// Insertion order must not matter
	seedStore(t, store, map[time.Time]float64{
		date(2024, 3, 8):  101,
		date(2024, 3, 1):  100,
		date(2024, 3, 15): 102,
	})

	latest, err := store.LatestDate(ctx, memKey)
	if err != nil {
		t.Fatalf("LatestDate: %v", err)
	}
	if !latest.Equal(date(2024, 3, 15)) {
		t.Errorf("latest = %s, want 2024-03-15", latest.Format("2006-01-02"))
	}

	earliest, err := store.EarliestDate(ctx, memKey)
	if err != nil {
		t.Fatalf("EarliestDate: %v", err)
	}
	if !earliest.Equal(date(2024, 3, 1)) {
		t.Errorf("earliest = %s, want 2024-03-01", earliest.Format("2006-01-02"))
	}

	_, err = store.LatestDate(ctx, contracts.SeriesKey{ISIN: "unknown", ExchangeID: 9})
	if !errors.Is(err, contracts.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown series, got %v", err)
	}
}

func TestMemStore_PointsInRange(t *testing.T) {
	store := NewMemStore()
	seedStore(t, store, map[time.Time]float64{
		date(2024, 3, 1):  100,
		date(2024, 3, 8):  101,
		date(2024, 3, 15): 102,
		date(2024, 3, 22): 103,
	})

	points, err := store.PointsInRange(context.Background(), memKey, date(2024, 3, 8), date(2024, 3, 15))
	if err != nil {
		t.Fatalf("PointsInRange: %v", err)
	}

	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	// Ascending, bounds inclusive
	if !points[0].Date.Equal(date(2024, 3, 8)) || !points[1].Date.Equal(date(2024, 3, 15)) {
		t.Errorf("unexpected range: %s .. %s",
			points[0].Date.Format("2006-01-02"), points[1].Date.Format("2006-01-02"))
	}
}

func TestMemStore_AllSeriesSkipsEmpty(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	withData := contracts.SeriesInfo{Key: memKey, SecurityName: "Deutsche Bank", ExchangeName: "XETRA"}
	store.SetSeriesInfo(withData)
	seedStore(t, store, map[time.Time]float64{date(2024, 3, 1): 100})

	// Info registered but no points: must not appear
	store.SetSeriesInfo(contracts.SeriesInfo{
		Key:          contracts.SeriesKey{ISIN: "US0378331005", ExchangeID: 2},
		ExchangeName: "NASDAQ",
	})

	series, err := store.AllSeries(ctx)
	if err != nil {
		t.Fatalf("AllSeries: %v", err)
	}
	if len(series) != 1 {
		t.Fatalf("expected 1 series, got %d", len(series))
	}
	if series[0].SecurityName != "Deutsche Bank" {
		t.Errorf("series info not preserved: %+v", series[0])
	}
}
