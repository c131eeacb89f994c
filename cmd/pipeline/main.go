package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"incomefit/internal/config"
	"incomefit/internal/infrastructure"
	"incomefit/internal/pipeline"
)

func main() {
	bracketsPath := flag.String("brackets", "", "source bracket table CSV (period,lower,upper,count)")
	deflatorsPath := flag.String("deflators", "", "deflator table CSV (period,index_ratio)")
	outDir := flag.String("out", "", "checkpoint output directory (defaults to the configured checkpoint dir)")
	force := flag.Bool("force", false, "recompute every stage, ignoring existing checkpoints")
	configFile := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *outDir != "" {
		cfg.Paths.CheckpointDir = *outDir
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	runID := uuid.New().String()
	ctx := infrastructure.WithRunID(context.Background(), runID)

	logger.InfoContext(ctx, "starting pipeline run",
		slog.String("brackets", *bracketsPath),
		slog.String("deflators", *deflatorsPath),
		slog.String("checkpoint_dir", cfg.Paths.CheckpointDir),
		slog.Bool("force", *force))

	p := pipeline.New(logger, cfg)
	result, err := p.Run(ctx, pipeline.Options{
		BracketsPath:  *bracketsPath,
		DeflatorsPath: *deflatorsPath,
		Force:         *force,
	})
	if err != nil {
		logger.ErrorContext(ctx, "pipeline run failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if len(result.SkippedPeriods) > 0 {
		logger.WarnContext(ctx, "periods skipped for missing deflator index",
			slog.Any("periods", result.SkippedPeriods))
	}
	logger.InfoContext(ctx, "pipeline run finished",
		slog.Int("periods", len(result.Rows)))
}
