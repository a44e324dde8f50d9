package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rental-engine-backend/internal/app"
	"rental-engine-backend/internal/config"
	"rental-engine-backend/internal/jobs"
	"rental-engine-backend/internal/logger"
	"rental-engine-backend/internal/scheduler"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'mark-overdue-agreements', 'all')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Rental Engine Cronjob Runner...", "log_level", cfg.Log.Level)
	if cfg.Storage.Type != config.StoragePostgres {
		logger.Warn("Job runner is using in-memory storage and will only see its own empty state")
	}

	engine, err := app.New(context.Background(), cfg)
	if err != nil {
		logger.Error("Failed to initialize rental engine", "error", err)
		log.Fatalf("Failed to initialize rental engine: %v", err)
	}
	defer engine.Close()

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(&jobs.Services{
		Rentals:   engine.Rentals,
		Customers: engine.Customers,
		Inventory: engine.Inventory,
		Notifier:  engine.Notifier,
	}, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		runJobOnce(jobRunner, *runOnce)
		logger.Info("Job execution completed", "job", *runOnce)
		printReport(jobRunner)
		return
	}

	// Initialize Scheduler
	cronScheduler := scheduler.NewScheduler(jobRunner)

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once and exits
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) {
	switch jobName {
	case "mark-overdue-agreements":
		jobRunner.MarkOverdueAgreements()
	case "send-overdue-reminders":
		jobRunner.MarkOverdueAgreements()
		jobRunner.SendOverdueReminders()
	case "snapshot-utilization":
		jobRunner.SnapshotUtilization()
	case "all":
		jobRunner.RunAll()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - mark-overdue-agreements\n")
		fmt.Printf("  - send-overdue-reminders\n")
		fmt.Printf("  - snapshot-utilization\n")
		fmt.Printf("  - all\n")
		os.Exit(1)
	}
}

// printReport writes what the run observed to stdout as JSON.
func printReport(jobRunner *jobs.JobRunner) {
	report := struct {
		Snapshot     jobs.UtilizationSnapshot `json:"snapshot"`
		OverdueSince map[string]time.Time     `json:"overdue_since"`
	}{
		Snapshot:     jobRunner.LastSnapshot(),
		OverdueSince: jobRunner.OverdueSince(),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		logger.Error("Failed to write job report", "error", err)
	}
}
