package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mweber/quotesd/internal/contracts"
	"github.com/mweber/quotesd/internal/evaluation"
	"github.com/mweber/quotesd/internal/quotes"
	"github.com/mweber/quotesd/pkg/config"
	"github.com/mweber/quotesd/pkg/database"
	"github.com/mweber/quotesd/pkg/logger"
)

// evaluateCmd represents the evaluate command
var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate performance or RSL over all series",
	Long: `Evaluates all quote series and prints the results.

By default the trailing performance over the given interval is computed
from the database. With --rsl the Relative Strength Levy indicator is
computed instead. With --csv the quotes are loaded from a CSV file and
the database is not touched.

CSV format (header optional):
  isin,security_name,security_type,exchange_name,date,price

Example:
  go run ./cmd/quotesd evaluate
  go run ./cmd/quotesd evaluate --count 6 --unit month
  go run ./cmd/quotesd evaluate --rsl --csv quotes.csv`,
	RunE: runEvaluate,
}

var (
	evalCount int
	evalUnit  string
	evalRSL   bool
	evalCSV   string
)

func init() {
	rootCmd.AddCommand(evaluateCmd)

	// Flags
	evaluateCmd.Flags().IntVar(&evalCount, "count", 1, "interval count")
	evaluateCmd.Flags().StringVar(&evalUnit, "unit", "year", "interval unit (day|month|year)")
	evaluateCmd.Flags().BoolVar(&evalRSL, "rsl", false, "compute RSL instead of performance")
	evaluateCmd.Flags().StringVar(&evalCSV, "csv", "", "load quotes from CSV file instead of the database")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Open the quote store (CSV file or database)
	var store contracts.QuoteStore
	if evalCSV != "" {
		mem, err := quotes.LoadCSVFile(evalCSV)
		if err != nil {
			return fmt.Errorf("load csv: %w", err)
		}
		store = mem
		fmt.Printf("Loaded quotes from %s\n", evalCSV)
	} else {
		db, err := database.New(cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()
		store = quotes.NewRepository(db.Pool)
	}

	// 4. Create evaluation pipeline
	extractor := evaluation.NewWeeklyCloseExtractor(store)
	perfEval := evaluation.NewPerformanceEvaluator(store, log)
	rslEval := evaluation.NewRSLevyEvaluator(extractor, log)
	pipeline := evaluation.NewPipeline(store, perfEval, rslEval, cfg.Evaluation.Workers, log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// 5. Evaluate and print
	if evalRSL {
		return printRSL(ctx, pipeline)
	}

	unit, err := contracts.ParseIntervalUnit(evalUnit)
	if err != nil {
		return fmt.Errorf("invalid unit: %w", err)
	}

	return printPerformance(ctx, pipeline, contracts.Interval{Count: evalCount, Unit: unit})
}

func printPerformance(ctx context.Context, pipeline *evaluation.Pipeline, interval contracts.Interval) error {
	results, err := pipeline.EvaluatePerformance(ctx, interval)
	if err != nil {
		return fmt.Errorf("evaluate performance: %w", err)
	}

	fmt.Printf("\nPerformance over %s (%d series):\n\n", interval, len(results))
	fmt.Printf("%-14s %-24s %-12s %-12s %-12s %10s\n",
		"ISIN", "NAME", "EXCHANGE", "BASE", "LATEST", "PERF")

	for _, r := range results {
		fmt.Printf("%-14s %-24s %-12s %-12s %-12s %9.2f%%\n",
			r.Key.ISIN,
			truncate(r.SecurityName, 24),
			truncate(r.ExchangeName, 12),
			r.BaseDate.Format("2006-01-02"),
			r.LatestDate.Format("2006-01-02"),
			r.Performance.InexactFloat64()*100,
		)
	}

	return nil
}

func printRSL(ctx context.Context, pipeline *evaluation.Pipeline) error {
	results, err := pipeline.EvaluateRSL(ctx)
	if err != nil {
		return fmt.Errorf("evaluate rsl: %w", err)
	}

	fmt.Printf("\nRSL (%d series):\n\n", len(results))
	fmt.Printf("%-14s %-24s %-12s %-12s %8s\n",
		"ISIN", "NAME", "EXCHANGE", "WEEK END", "RSL")

	for _, r := range results {
		fmt.Printf("%-14s %-24s %-12s %-12s %8.4f\n",
			r.Key.ISIN,
			truncate(r.SecurityName, 24),
			truncate(r.ExchangeName, 12),
			r.NewestWeeklyClose.Format("2006-01-02"),
			r.RSLValue.InexactFloat64(),
		)
	}

	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
