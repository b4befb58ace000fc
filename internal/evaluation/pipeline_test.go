package evaluation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mweber/quotesd/internal/contracts"
	"github.com/mweber/quotesd/internal/quotes"
)

func newTestPipeline(store contracts.QuoteStore, workers int) *Pipeline {
	log := testLogger()
	perf := NewPerformanceEvaluator(store, log)
	rsl := NewRSLevyEvaluator(NewWeeklyCloseExtractor(store), log)
	return NewPipeline(store, perf, rsl, workers, log)
}

// seedSeries registers a series with info and daily points
func seedSeries(t *testing.T, store *quotes.MemStore, info contracts.SeriesInfo, count int, price float64) {
	t.Helper()
	store.SetSeriesInfo(info)
	end := date(2024, 7, 5)
	for i := 0; i < count; i++ {
		seedDaily(t, store, info.Key, map[time.Time]float64{end.AddDate(0, 0, -7*i): price})
	}
}

func TestPipeline_PerformanceSkipsShortSeries(t *testing.T) {
	store := quotes.NewMemStore()

	full := contracts.SeriesInfo{
		Key:          contracts.SeriesKey{ISIN: "DE0005140008", ExchangeID: 1},
		SecurityName: "Deutsche Bank",
		ExchangeName: "XETRA",
	}
	short := contracts.SeriesInfo{
		Key:          contracts.SeriesKey{ISIN: "US0378331005", ExchangeID: 1},
		SecurityName: "Apple",
		ExchangeName: "XETRA",
	}

	seedSeries(t, store, full, 60, 50) // > 1 year of weekly points
	seedSeries(t, store, short, 2, 50) // two weeks only

	pipeline := newTestPipeline(store, 4)
	results, err := pipeline.EvaluatePerformance(context.Background(), contracts.Interval{Count: 1, Unit: contracts.UnitYear})
	if err != nil {
		t.Fatalf("EvaluatePerformance: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("expected 1 result (short series skipped), got %d", len(results))
	}
	if results[0].Key != full.Key {
		t.Errorf("unexpected series in result: %s", results[0].Key)
	}
}

func TestPipeline_OutputOrderIsDeterministic(t *testing.T) {
	store := quotes.NewMemStore()

	infos := []contracts.SeriesInfo{
		{Key: contracts.SeriesKey{ISIN: "US0378331005", ExchangeID: 2}, ExchangeName: "NASDAQ"},
		{Key: contracts.SeriesKey{ISIN: "DE0005140008", ExchangeID: 2}, ExchangeName: "NASDAQ"},
		{Key: contracts.SeriesKey{ISIN: "DE0005140008", ExchangeID: 1}, ExchangeName: "XETRA"},
	}
	for _, info := range infos {
		seedSeries(t, store, info, 60, 50)
	}

	pipeline := newTestPipeline(store, 4)

	want := []contracts.SeriesKey{
		{ISIN: "DE0005140008", ExchangeID: 2}, // NASDAQ sorts before XETRA
		{ISIN: "DE0005140008", ExchangeID: 1},
		{ISIN: "US0378331005", ExchangeID: 2},
	}

	// Worker scheduling varies between runs; the output order must not
	for run := 0; run < 5; run++ {
		results, err := pipeline.EvaluatePerformance(context.Background(), contracts.Interval{Count: 1, Unit: contracts.UnitYear})
		if err != nil {
			t.Fatalf("EvaluatePerformance: %v", err)
		}
		if len(results) != len(want) {
			t.Fatalf("expected %d results, got %d", len(want), len(results))
		}
		for i, w := range want {
			if results[i].Key != w {
				t.Fatalf("run %d: result[%d] = %s, want %s", run, i, results[i].Key, w)
			}
		}
	}
}

// trackingStore records whether the series list was requested
type trackingStore struct {
	*quotes.MemStore
	listed bool
}

func (s *trackingStore) AllSeries(ctx context.Context) ([]contracts.SeriesInfo, error) {
	s.listed = true
	return s.MemStore.AllSeries(ctx)
}

func TestPipeline_InvalidIntervalAbortsBeforeListing(t *testing.T) {
	store := &trackingStore{MemStore: quotes.NewMemStore()}
	pipeline := newTestPipeline(store, 2)

	_, err := pipeline.EvaluatePerformance(context.Background(), contracts.Interval{Count: 0, Unit: contracts.UnitYear})
	if !errors.Is(err, contracts.ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval, got %v", err)
	}
	if store.listed {
		t.Error("series were listed despite an invalid interval")
	}
}

func TestPipeline_RSLSkipsMixedFailures(t *testing.T) {
	store := quotes.NewMemStore()

	full := contracts.SeriesInfo{Key: contracts.SeriesKey{ISIN: "DE0005140008", ExchangeID: 1}, ExchangeName: "XETRA"}
	short := contracts.SeriesInfo{Key: contracts.SeriesKey{ISIN: "US0378331005", ExchangeID: 1}, ExchangeName: "XETRA"}

	seedSeries(t, store, full, 27, 50)
	seedSeries(t, store, short, 5, 50)

	pipeline := newTestPipeline(store, 4)
	results, err := pipeline.EvaluateRSL(context.Background())
	if err != nil {
		t.Fatalf("EvaluateRSL: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Key != full.Key {
		t.Errorf("unexpected series in result: %s", results[0].Key)
	}
}

func TestPipeline_CanceledContextReturnsPartial(t *testing.T) {
	store := quotes.NewMemStore()
	seedSeries(t, store, contracts.SeriesInfo{Key: testKey, ExchangeName: "XETRA"}, 60, 50)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pipeline := newTestPipeline(store, 2)
	results, err := pipeline.EvaluatePerformance(ctx, contracts.Interval{Count: 1, Unit: contracts.UnitYear})
	if err != nil {
		t.Fatalf("EvaluatePerformance: %v", err)
	}

	// A canceled context stops dispatch; at most the already-dispatched
	// series appear
	if len(results) > 1 {
		t.Fatalf("expected at most 1 result, got %d", len(results))
	}
}
