// Command ingestor runs the job-feed ingestion service: a cron-triggered
// pipeline that filters, normalizes and stores postings for one
// profession, plus a small HTTP API for manual triggers.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/vagasfeed/ingestor/internal/app"
	"github.com/vagasfeed/ingestor/internal/config"
	"github.com/vagasfeed/ingestor/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "ingestor:", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := flag.String("config", "", "path to config file (yaml)")
	runOnce := flag.Bool("once", false, "execute a single pipeline run and exit")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer logging.Sync(logger)

	ctx := context.Background()
	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if *runOnce {
		defer application.Close()
		report, err := application.RunOnce(ctx)
		if err != nil {
			return err
		}
		logger.Info("run finished",
			zap.String("run_id", report.ID),
			zap.Int("processed", report.Counters.Processed),
			zap.Int("stored", report.Counters.Stored),
		)
		return nil
	}

	return application.Run(ctx)
}
