package evaluation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mweber/quotesd/internal/contracts"
	"github.com/mweber/quotesd/internal/quotes"
	"github.com/mweber/quotesd/pkg/config"
	"github.com/mweber/quotesd/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{
		Env:       "development",
		LogLevel:  "error",
		LogFormat: "json",
	})
}

var testKey = contracts.SeriesKey{ISIN: "DE0005140008", ExchangeID: 1}

// seedDaily inserts one point per given date with the given price
func seedDaily(t *testing.T, store *quotes.MemStore, key contracts.SeriesKey, prices map[time.Time]float64) {
	t.Helper()
	ctx := context.Background()
	for dt, price := range prices {
		if err := store.Upsert(ctx, key, dt, decimal.NewFromFloat(price)); err != nil {
			t.Fatalf("seed %s: %v", dt.Format("2006-01-02"), err)
		}
	}
}

func TestWeeklyCloseExtractor_LastPointOfWeekWins(t *testing.T) {
	store := quotes.NewMemStore()

	// One full ISO week (Mon 2024-03-04 .. Fri 2024-03-08) plus the Monday
	// of the following week
	seedDaily(t, store, testKey, map[time.Time]float64{
		date(2024, 3, 4):  100, // Mon
		date(2024, 3, 5):  101,
		date(2024, 3, 6):  102,
		date(2024, 3, 7):  103,
		date(2024, 3, 8):  104, // Fri, close of week 10
		date(2024, 3, 11): 110, // Mon, week 11
	})

	extractor := NewWeeklyCloseExtractor(store)
	closes, err := extractor.Extract(context.Background(), testKey)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if len(closes) != 2 {
		t.Fatalf("expected 2 weekly closes, got %d", len(closes))
	}

	// Newest first
	if !closes[0].WeekEnd.Equal(date(2024, 3, 11)) {
		t.Errorf("newest close = %s, want 2024-03-11", closes[0].WeekEnd.Format("2006-01-02"))
	}
	if !closes[1].WeekEnd.Equal(date(2024, 3, 8)) {
		t.Errorf("previous close = %s, want 2024-03-08", closes[1].WeekEnd.Format("2006-01-02"))
	}
	if !closes[1].Price.Equal(decimal.NewFromInt(104)) {
		t.Errorf("week close price = %s, want 104", closes[1].Price)
	}
}

func TestWeeklyCloseExtractor_ISOYearBoundary(t *testing.T) {
	store := quotes.NewMemStore()

	// 2020-12-31 (Thu) and 2021-01-01 (Fri) are both ISO week 53 of 2020:
	// they must share one bucket with the Friday as close. 2021-01-04 (Mon)
	// starts week 1 of 2021.
	seedDaily(t, store, testKey, map[time.Time]float64{
		date(2020, 12, 31): 50,
		date(2021, 1, 1):   51,
		date(2021, 1, 4):   52,
	})

	extractor := NewWeeklyCloseExtractor(store)
	closes, err := extractor.Extract(context.Background(), testKey)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if len(closes) != 2 {
		t.Fatalf("expected 2 weekly closes across year boundary, got %d", len(closes))
	}
	if !closes[1].WeekEnd.Equal(date(2021, 1, 1)) {
		t.Errorf("week 53 close = %s, want 2021-01-01", closes[1].WeekEnd.Format("2006-01-02"))
	}
	if !closes[1].Price.Equal(decimal.NewFromInt(51)) {
		t.Errorf("week 53 close price = %s, want 51", closes[1].Price)
	}
}

func TestWeeklyCloseExtractor_WindowExcludesOldPoints(t *testing.T) {
	store := quotes.NewMemStore()

	latest := date(2024, 7, 5)
	seedDaily(t, store, testKey, map[time.Time]float64{
		latest:                    100,
		latest.AddDate(0, 0, -7):  99,
		latest.AddDate(0, -12, 0): 10, // a year back, outside the window
	})

	extractor := NewWeeklyCloseExtractor(store)
	closes, err := extractor.Extract(context.Background(), testKey)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if len(closes) != 2 {
		t.Fatalf("expected 2 closes inside the window, got %d", len(closes))
	}
	for _, c := range closes {
		if c.WeekEnd.Before(latest.AddDate(0, 0, -28*7)) {
			t.Errorf("close %s lies outside the trailing window", c.WeekEnd.Format("2006-01-02"))
		}
	}
}

func TestWeeklyCloseExtractor_EmptySeries(t *testing.T) {
	extractor := NewWeeklyCloseExtractor(quotes.NewMemStore())

	_, err := extractor.Extract(context.Background(), testKey)
	if !errors.Is(err, contracts.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty series, got %v", err)
	}
}
