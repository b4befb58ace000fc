package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mweber/quotesd/internal/evaluation"
	"github.com/mweber/quotesd/internal/quotes"
	"github.com/mweber/quotesd/internal/scheduler"
	"github.com/mweber/quotesd/internal/scheduler/jobs"
	"github.com/mweber/quotesd/pkg/config"
	"github.com/mweber/quotesd/pkg/database"
	"github.com/mweber/quotesd/pkg/logger"
	"github.com/mweber/quotesd/pkg/redis"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Manage the scheduler",
	Long: `Starts the scheduler or manages its jobs.

This command:
- runs the scheduler daemon
- lists registered jobs
- shows job execution history

Subcommands:
  start   - start the scheduler
  list    - list registered jobs
  run     - run a specific job immediately
  status  - show job execution history

Example:
  go run ./cmd/quotesd scheduler start
  go run ./cmd/quotesd scheduler list
  go run ./cmd/quotesd scheduler run evaluation_warmup`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler",
		Long: `Starts the scheduler and schedules all registered jobs.

Registered jobs:
- evaluation_warmup: daily at 05:00 (precompute performance and RSL into cache)
- quote_count_report: daily at 04:30 (log per-series quote counts)

Stop the scheduler with Ctrl+C.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run a specific job immediately",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}

	schedulerStatusCmd = &cobra.Command{
		Use:   "status [job_name]",
		Short: "Show job execution history",
		Args:  cobra.ExactArgs(1),
		RunE:  showJobStatus,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
	schedulerCmd.AddCommand(schedulerStatusCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== quotesd Scheduler ===")

	// Initialize dependencies
	sched, cleanup, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	// Start scheduler
	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	sched, cleanup, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	fmt.Println("Registered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}

	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	fmt.Printf("Running job: %s\n", jobName)

	sched, cleanup, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	if err := sched.RunJob(jobName); err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	fmt.Println("Job started (running in background, watch the logs)")
	fmt.Println("Press Ctrl+C to exit")

	// Keep the process alive while the job runs
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	return nil
}

func showJobStatus(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	sched, cleanup, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	history, err := sched.GetJobHistory(jobName)
	if err != nil {
		return fmt.Errorf("job history: %w", err)
	}

	fmt.Printf("📊 %s\n", jobName)
	results := history.GetLatestResults(10)
	if len(results) == 0 {
		fmt.Println("   No runs recorded yet")
		return nil
	}

	for _, r := range results {
		status := "✅"
		if !r.Success {
			status = "❌"
		}
		fmt.Printf("   %s %s  duration=%v", status, r.StartTime.Format("2006-01-02 15:04:05"), r.Duration)
		if r.Error != "" {
			fmt.Printf("  error=%s", r.Error)
		}
		fmt.Println()
	}

	return nil
}

func initScheduler() (*scheduler.Scheduler, func(), error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	// 4. Connect to Redis
	redisClient, err := redis.New(cfg)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}

	cache := redis.NewCache(redisClient, "quotesd")

	// 5. Create quote store
	quoteStore := quotes.NewRepository(db.Pool)

	// 6. Create evaluation pipeline
	extractor := evaluation.NewWeeklyCloseExtractor(quoteStore)
	perfEval := evaluation.NewPerformanceEvaluator(quoteStore, log)
	rslEval := evaluation.NewRSLevyEvaluator(extractor, log)
	pipeline := evaluation.NewPipeline(quoteStore, perfEval, rslEval, cfg.Evaluation.Workers, log)

	// 7. Create scheduler
	sched := scheduler.New(log)

	// 8. Register jobs
	if err := sched.AddJob(jobs.NewEvaluationWarmupJob(pipeline, cache, cfg.Evaluation.CacheTTL, log)); err != nil {
		db.Close()
		return nil, nil, err
	}
	if err := sched.AddJob(jobs.NewQuoteCountReportJob(quoteStore, log)); err != nil {
		db.Close()
		return nil, nil, err
	}

	cleanup := func() {
		redisClient.Close()
		db.Close()
	}

	return sched, cleanup, nil
}
