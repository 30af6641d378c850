// Command mongolab is the interactive console for the modeling lab. It
// presents one menu per document model plus a full-comparison option, and
// reads choices from stdin.
//
// Logs go to stderr so prompts and query output on stdout stay readable.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/upcschool/mongolab/internal/menu"
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
	seed := flag.Int64("seed", 0, "dataset seed, 0 for random (overrides config)")
	verbose := flag.Bool("verbose", false, "print full result sets instead of samples")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *seed != 0 {
		cfg.Lab.Seed = *seed
	}
	if *verbose {
		cfg.Lab.Verbose = true
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	runID := uuid.New().String()
	slog.Info("starting interactive lab",
		"run_id", runID,
		"server", cfg.Mongo.URI(),
		"database", cfg.Mongo.Database)

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

	// Retries cover a server that is still starting next to the lab; the
	// menu stays usable either way.
	preflight := resilience.Retry(ctx, "mongodb preflight", resilience.Config{Attempts: 3}, func(ctx context.Context) error {
		checkCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.ConnectTimeout)
		defer cancel()
		if report := checker.Run(checkCtx); report.Status != health.StatusUp {
			return fmt.Errorf("health status %s", report.Status)
		}
		return nil
	})
	if preflight != nil {
		slog.Warn("mongodb not reachable, operations will fail until it is", "error", preflight)
	}

	mods := runner.Models(client, cfg.Lab.BatchSize)
	if err := menu.New(cfg, mods, m, os.Stdin, os.Stdout).Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			slog.Info("interrupted", "run_id", runID)
			return
		}
		slog.Error("menu failed", "error", err)
		os.Exit(1)
	}
	slog.Info("goodbye", "run_id", runID)
}
