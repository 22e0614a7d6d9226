package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/naka-gawa/gitcord/internal/config"
	"github.com/naka-gawa/gitcord/internal/gateway"
	"github.com/naka-gawa/gitcord/internal/store/sqlite"
	"github.com/naka-gawa/gitcord/internal/usecase"
)

// httpTimeout bounds every request to GitHub.
const httpTimeout = 30 * time.Second

// openStore opens the database named by cfg, creating its directory.
func openStore(cfg *config.Config) (*sqlite.DB, error) {
	if dir := filepath.Dir(cfg.Database.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.Database.Path, err)
	}
	return db, nil
}

// newResolver builds an identity resolver backed by the GitHub API.
func newResolver(cfg *config.Config, db *sqlite.DB, logger *zap.Logger) (*usecase.Resolver, *gateway.GitHubGateway, error) {
	if cfg.GitHub.Token == "" {
		return nil, nil, errors.New("github.token (or GITHUB_TOKEN) is required")
	}
	gh, err := gateway.NewGitHubGateway(cfg.GitHub.Token, httpTimeout, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create GitHub gateway: %w", err)
	}
	return usecase.NewResolver(db, gh, logger), gh, nil
}

// newScheduler wires the full ingestion pipeline on db.
func newScheduler(cfg *config.Config, db *sqlite.DB, logger *zap.Logger) (*usecase.Scheduler, error) {
	if err := cfg.ValidateForRun(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	resolver, gh, err := newResolver(cfg, db, logger)
	if err != nil {
		return nil, err
	}
	publisher, err := gateway.NewDiscordPublisher(cfg.Discord.Token, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord publisher: %w", err)
	}
	return usecase.NewScheduler(cfg, usecase.SchedulerDeps{
		Source:     gh,
		Publisher:  publisher,
		Registry:   usecase.NewRegistry(db),
		Dedup:      usecase.NewDeduplicator(db),
		Classifier: usecase.NewClassifier(cfg.Scoring.Points, nil),
		Resolver:   resolver,
		Ledger:     usecase.NewLedger(db),
	}, logger)
}

// loadStore loads the configuration and opens its database.
func loadStore() (*config.Config, *sqlite.DB, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	db, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}
