package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/baxromumarov/fbref-downloader/internal/config"
	"github.com/baxromumarov/fbref-downloader/internal/pipeline"
)

func main() {
	configPath := flag.String("config", "configs/teams.yaml", "Path to the run configuration")
	dataDir := flag.String("data", "", "Override the cache directory")
	output := flag.String("out", "", "Override the combined output path")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *output != "" {
		cfg.Output = *output
	}

	d, err := pipeline.New(cfg)
	if err != nil {
		slog.Error("failed to initialize pipeline", "error", err)
		os.Exit(1)
	}

	slog.Info("starting download run",
		"config", *configPath,
		"teams", len(cfg.Teams),
		"seasons", cfg.Seasons,
	)

	if err := d.Run(context.Background()); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}
