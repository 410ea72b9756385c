// Package main seeds the species, items and quiz_questions tables from the
// YAML content tree.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/mythic/internal/config"
	"github.com/cory-johannsen/mythic/internal/content"
	"github.com/cory-johannsen/mythic/internal/observability"
	"github.com/cory-johannsen/mythic/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	dryRun := flag.Bool("dry-run", false, "validate content without writing to the database")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	cat, err := content.Load(cfg.Content)
	if err != nil {
		logger.Fatal("loading content", zap.Error(err))
	}
	logger.Info("content validated",
		zap.Int("species", len(cat.AllSpecies())),
		zap.Int("items", len(cat.AllItems())),
		zap.Int("questions", len(cat.AllQuestions())),
	)
	if *dryRun {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	defer pool.Close()

	counts, err := postgres.NewCatalogRepository(pool).Upsert(ctx, cat)
	if err != nil {
		logger.Fatal("importing content", zap.Error(err))
	}
	logger.Info("import complete",
		zap.Int("species", counts.Species),
		zap.Int("items", counts.Items),
		zap.Int("questions", counts.Questions),
		zap.Duration("elapsed", time.Since(start)),
	)
}
