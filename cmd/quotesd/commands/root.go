package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	env        string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quotesd",
	Short: "quotesd - securities quote tracking and analytics",
	Long: `quotesd Unified CLI

Tracks end-of-day quotes per (security, exchange) series and evaluates
trailing performance and the Relative Strength Levy indicator over them.

Usage:
  go run ./cmd/quotesd [command]

Examples:
  go run ./cmd/quotesd api
  go run ./cmd/quotesd evaluate --count 6 --unit month
  go run ./cmd/quotesd scheduler start
  go run ./cmd/quotesd ping`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "development", "environment (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
