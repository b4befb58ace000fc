package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/mweber/quotesd/internal/api"
	"github.com/mweber/quotesd/internal/api/handlers"
	"github.com/mweber/quotesd/internal/evaluation"
	"github.com/mweber/quotesd/internal/exchanges"
	"github.com/mweber/quotesd/internal/quotes"
	"github.com/mweber/quotesd/internal/securities"
	"github.com/mweber/quotesd/pkg/config"
	"github.com/mweber/quotesd/pkg/database"
	"github.com/mweber/quotesd/pkg/logger"
	"github.com/mweber/quotesd/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the REST API server",
	Long: `Starts the REST API server.

This command:
- serves the security and exchange registries
- accepts quote ingestion (rate limited)
- serves performance and RSL evaluations

Endpoints:
  GET  /health
  GET  /api/securities                GET/PUT /api/securities/{isin}
  GET  /api/exchanges                 GET/PUT /api/exchanges/{id}
  GET  /api/quotes                    POST    /api/quotes
  GET  /api/quotes/counts
  GET  /api/evaluation/performance    GET     /api/evaluation/rsl

Example:
  go run ./cmd/quotesd api
  go run ./cmd/quotesd api --port 8090`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (overrides PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== quotesd API Server ===")

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// 3. Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	log.Info("Connected to database")

	// 4. Connect to Redis (no-op client when disabled)
	redisClient, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()

	cache := redis.NewCache(redisClient, "quotesd")

	// 5. Create repositories
	securityRepo := securities.NewRepository(db.Pool)
	exchangeRepo := exchanges.NewRepository(db.Pool)
	quoteStore := quotes.NewRepository(db.Pool)

	// 6. Create ingest service
	ingest := quotes.NewIngestService(securityRepo, exchangeRepo, quoteStore, log)

	// 7. Create evaluation pipeline
	extractor := evaluation.NewWeeklyCloseExtractor(quoteStore)
	perfEval := evaluation.NewPerformanceEvaluator(quoteStore, log)
	rslEval := evaluation.NewRSLevyEvaluator(extractor, log)
	pipeline := evaluation.NewPipeline(quoteStore, perfEval, rslEval, cfg.Evaluation.Workers, log)

	// 8. Create handlers
	securityHandler := handlers.NewSecurityHandler(securityRepo, log)
	exchangeHandler := handlers.NewExchangeHandler(exchangeRepo, log)
	quoteHandler := handlers.NewQuoteHandler(ingest, quoteStore, log)
	evalHandler := handlers.NewEvaluationHandler(pipeline, cache, cfg.Evaluation.CacheTTL, log)

	// 9. Create ingest rate limiter (nil disables)
	var ingestLimiter *rate.Limiter
	if cfg.Ingest.RatePerSecond > 0 {
		ingestLimiter = rate.NewLimiter(rate.Limit(cfg.Ingest.RatePerSecond), cfg.Ingest.Burst)
	}

	// 10. Create router
	router := api.NewRouter(securityHandler, exchangeHandler, quoteHandler, evalHandler, ingestLimiter, log)

	// 11. Create server
	server := api.New(cfg, log, router)

	// 12. Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	fmt.Println("  GET  /api/securities")
	fmt.Println("  GET  /api/exchanges")
	fmt.Println("  POST /api/quotes")
	fmt.Println("  GET  /api/evaluation/performance")
	fmt.Println("  GET  /api/evaluation/rsl")
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
