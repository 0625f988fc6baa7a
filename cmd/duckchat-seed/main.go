package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/duckchat/duckchat/internal/config"
	"github.com/duckchat/duckchat/internal/demo/seed"
	"github.com/duckchat/duckchat/internal/engine/duckdb"
	"github.com/duckchat/duckchat/internal/ingest"
	"github.com/duckchat/duckchat/internal/observability"
	"github.com/duckchat/duckchat/internal/schema"
)

func main() {
	var (
		table = flag.String("table", "demo_events", "destination table name")
		rows  = flag.Int("rows", 5000, "number of demo rows to generate")
		users = flag.Int("users", 200, "distinct demo user cardinality")
		rseed = flag.Int64("seed", 42, "random seed for deterministic data")
	)
	flag.Parse()

	cfg, err := config.LoadFromEnv("duckchat-seed")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg, os.Stdout)

	eng, err := duckdb.Open(cfg.Engine.Path)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = eng.Close() }()

	dir, err := os.MkdirTemp("", "duckchat-seed-*")
	if err != nil {
		logger.Error("failed to create temp dir", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	path := filepath.Join(dir, *table+".csv")
	file, err := os.Create(path)
	if err != nil {
		logger.Error("failed to create csv file", slog.Any("error", err))
		os.Exit(1)
	}
	if err := seed.WriteCSV(file, seed.NewGenerator(*rseed, *users), *rows); err != nil {
		_ = file.Close()
		logger.Error("failed to write demo csv", slog.Any("error", err))
		os.Exit(1)
	}
	if err := file.Close(); err != nil {
		logger.Error("failed to close csv file", slog.Any("error", err))
		os.Exit(1)
	}

	importer := &ingest.Importer{
		Engine: eng,
		Schema: schema.NewBuilder(eng, logger),
		Logger: logger,
	}
	if err := importer.ImportLocal(context.Background(), path, *table); err != nil {
		logger.Error("demo import failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("seeded demo data",
		slog.String("table", *table),
		slog.Int("rows", *rows),
		slog.String("database", cfg.Engine.Path),
	)
}
