package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mweber/quotesd/internal/quotes"
	"github.com/mweber/quotesd/pkg/config"
	"github.com/mweber/quotesd/pkg/database"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show stored quote counts per series",
	Long: `Shows how many quotes are stored for every (security, exchange) series.

Example:
  go run ./cmd/quotesd status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	fmt.Println("=== quotesd Quote Counts ===")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	store := quotes.NewRepository(db.Pool)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	counts, err := store.Counts(ctx)
	if err != nil {
		return fmt.Errorf("load quote counts: %w", err)
	}

	if len(counts) == 0 {
		fmt.Println("\nNo quotes stored")
		return nil
	}

	fmt.Printf("\n%-14s %-16s %8s\n", "ISIN", "EXCHANGE", "QUOTES")
	var total int64
	for _, c := range counts {
		fmt.Printf("%-14s %-16s %8d\n", c.ISIN, truncate(c.ExchangeName, 16), c.Count)
		total += c.Count
	}

	fmt.Printf("\n%d series, %d quotes total\n", len(counts), total)
	return nil
}
