package evaluation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mweber/quotesd/internal/contracts"
	"github.com/mweber/quotesd/internal/quotes"
)

// seedWeekly inserts count weekly points ending at end (one per Friday),
// all at the given price
func seedWeekly(t *testing.T, store *quotes.MemStore, key contracts.SeriesKey, end time.Time, count int, price float64) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < count; i++ {
		dt := end.AddDate(0, 0, -7*i)
		if err := store.Upsert(ctx, key, dt, decimal.NewFromFloat(price)); err != nil {
			t.Fatalf("seed %s: %v", dt.Format("2006-01-02"), err)
		}
	}
}

func newRSLEvaluator(store *quotes.MemStore) *RSLevyEvaluator {
	return NewRSLevyEvaluator(NewWeeklyCloseExtractor(store), testLogger())
}

func TestRSLevyEvaluator_FlatSeriesScoresOne(t *testing.T) {
	store := quotes.NewMemStore()
	// 27 flat weekly closes, Fridays ending 2024-07-05
	seedWeekly(t, store, testKey, date(2024, 7, 5), 27, 50)

	eval := newRSLEvaluator(store)
	result, err := eval.Evaluate(context.Background(), contracts.SeriesInfo{Key: testKey})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if !result.RSLValue.Equal(decimal.NewFromInt(1)) {
		t.Errorf("rsl = %s, want 1", result.RSLValue)
	}
	if !result.NewestWeeklyClose.Equal(date(2024, 7, 5)) {
		t.Errorf("newest close = %s, want 2024-07-05", result.NewestWeeklyClose.Format("2006-01-02"))
	}
}

func TestRSLevyEvaluator_RisingSeriesScoresAboveOne(t *testing.T) {
	store := quotes.NewMemStore()

	// Prices rise by 1 per week; the newest close sits above the mean
	ctx := context.Background()
	end := date(2024, 7, 5)
	for i := 0; i < 27; i++ {
		dt := end.AddDate(0, 0, -7*i)
		price := decimal.NewFromInt(int64(100 - i))
		if err := store.Upsert(ctx, testKey, dt, price); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	eval := newRSLEvaluator(store)
	result, err := eval.Evaluate(ctx, contracts.SeriesInfo{Key: testKey})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if !result.RSLValue.GreaterThan(decimal.NewFromInt(1)) {
		t.Errorf("rsl = %s, want > 1 for a rising series", result.RSLValue)
	}
}

func TestRSLevyEvaluator_TooFewWeeks(t *testing.T) {
	store := quotes.NewMemStore()
	seedWeekly(t, store, testKey, date(2024, 7, 5), 26, 50)

	eval := newRSLEvaluator(store)
	_, err := eval.Evaluate(context.Background(), contracts.SeriesInfo{Key: testKey})
	if !errors.Is(err, ErrInsufficientHistory) {
		t.Fatalf("expected ErrInsufficientHistory, got %v", err)
	}
}

func TestRSLevyEvaluator_UsesNewestWeeksOnly(t *testing.T) {
	store := quotes.NewMemStore()

	// 28 weeks of history; the oldest week carries an extreme price that
	// must not enter the 27-week score
	seedWeekly(t, store, testKey, date(2024, 7, 5), 27, 50)
	oldest := date(2024, 7, 5).AddDate(0, 0, -7*27)
	if err := store.Upsert(context.Background(), testKey, oldest, decimal.NewFromInt(1000)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	eval := newRSLEvaluator(store)
	result, err := eval.Evaluate(context.Background(), contracts.SeriesInfo{Key: testKey})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if !result.RSLValue.Equal(decimal.NewFromInt(1)) {
		t.Errorf("rsl = %s, want 1 (oldest week excluded)", result.RSLValue)
	}
}

func TestRSLevyEvaluator_EmptySeries(t *testing.T) {
	eval := newRSLEvaluator(quotes.NewMemStore())

	_, err := eval.Evaluate(context.Background(), contracts.SeriesInfo{Key: testKey})
	if !errors.Is(err, contracts.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
