// Command runner executes the full modeling comparison in one shot: it
// generates a synthetic population, loads it into each of the three document
// models, runs the query battery against each, and prints a timing report.
//
// The process exits non-zero only when no model completed, so a single
// failing strategy still yields a comparable report for the others.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/upcschool/mongolab/internal/runner"
	"github.com/upcschool/mongolab/pkg/config"
	"github.com/upcschool/mongolab/pkg/health"
	"github.com/upcschool/mongolab/pkg/logger"
	"github.com/upcschool/mongolab/pkg/metrics"
	labmongo "github.com/upcschool/mongolab/pkg/mongo"
	"github.com/upcschool/mongolab/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	docCount := flag.Int("n", 0, "total documents to generate (overrides config)")
	repeat := flag.Int("repeat", 0, "times to repeat the query battery (overrides config)")
	seed := flag.Int64("seed", 0, "dataset seed, 0 for random (overrides config)")
	verbose := flag.Bool("verbose", false, "print sample rows for each query")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *docCount > 0 {
		cfg.Lab.DocCount = *docCount
	}
	if *repeat > 0 {
		cfg.Lab.Repeat = *repeat
	}
	if *seed != 0 {
		cfg.Lab.Seed = *seed
	}
	if *verbose {
		cfg.Lab.Verbose = true
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	runID := uuid.New().String()
	slog.Info("starting modeling comparison",
		"run_id", runID,
		"doc_count", cfg.Lab.DocCount,
		"repeat", cfg.Lab.Repeat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithRunID(ctx, runID)

	client, err := labmongo.New(ctx, cfg.Mongo)
	if err != nil {
		slog.Error("mongodb client setup failed", "error", err)
		os.Exit(1)
	}
	defer client.Close(context.Background())

	checker := health.NewChecker()
	checker.Register("mongodb", func(ctx context.Context) health.ComponentHealth {
		if err := client.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		shutdown := metrics.StartServer(cfg.Metrics.Port, checker)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown failed", "error", err)
			}
		}()
	}

	// Preflight only warns: each model gets its own chance to fail, and a
	// partial report beats no report. Retries cover a server that is still
	// starting next to the lab.
	preflight := resilience.Retry(ctx, "mongodb preflight", resilience.Config{Attempts: 3}, func(ctx context.Context) error {
		checkCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.ConnectTimeout)
		defer cancel()
		if report := checker.Run(checkCtx); report.Status != health.StatusUp {
			return fmt.Errorf("health status %s", report.Status)
		}
		return nil
	})
	if preflight != nil {
		slog.Warn("mongodb not reachable at startup", "error", preflight)
	}

	fmt.Println("=== MongoDB Modeling Lab ===")
	fmt.Printf("Server:    %s\n", cfg.Mongo.URI())
	fmt.Printf("Database:  %s\n", cfg.Mongo.Database)
	fmt.Printf("Documents: %s\n", humanize.Comma(int64(cfg.Lab.DocCount)))
	fmt.Printf("Repeat:    %d\n", cfg.Lab.Repeat)
	fmt.Println()

	r := runner.New(cfg, runner.Models(client, cfg.Lab.BatchSize), m, os.Stdout)
	results := r.Run(ctx)

	completed := 0
	for _, res := range results {
		if res.Completed() {
			completed++
		}
	}
	if completed == 0 {
		slog.Error("no model completed the battery")
		os.Exit(1)
	}
	slog.Info("comparison finished", "run_id", runID, "completed", completed, "models", len(results))
}
