// Package config loads the process configuration once at startup. The
// resulting Config is passed explicitly to every component that needs it.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultSyncInterval is how often the scheduler polls every linked repository.
const DefaultSyncInterval = 2 * time.Minute

// Config holds all gitcord configuration.
type Config struct {
	GitHub   GitHubConfig   `yaml:"github"`
	Discord  DiscordConfig  `yaml:"discord"`
	Database DatabaseConfig `yaml:"database"`
	Sync     SyncConfig     `yaml:"sync"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	Server   ServerConfig   `yaml:"server"`
}

// GitHubConfig configures the code-host client.
type GitHubConfig struct {
	Token string `yaml:"token"`
}

// DiscordConfig configures the notification channel transport.
type DiscordConfig struct {
	Token string `yaml:"token"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type SyncConfig struct {
	Interval string `yaml:"interval"` // Go duration, e.g. "2m"
}

type ScoringConfig struct {
	Points Points `yaml:"points"`
}

// Points are the score deltas credited by each scoring rule.
type Points struct {
	IssueAssigned int `yaml:"issue_assigned"`
	PRMerged      int `yaml:"pr_merged"`
	PRReviewed    int `yaml:"pr_reviewed"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"` // empty disables the status server
}

// DefaultPoints returns the scoring used when the file does not override it.
func DefaultPoints() Points {
	return Points{IssueAssigned: 0, PRMerged: 10, PRReviewed: 5}
}

// Default returns a configuration with every optional field populated.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "data/gitcord.db"},
		Sync:     SyncConfig{Interval: DefaultSyncInterval.String()},
		Scoring:  ScoringConfig{Points: DefaultPoints()},
		Server:   ServerConfig{Addr: ":8080"},
	}
}

// Load reads the YAML file at path over the defaults, then applies the
// GITHUB_TOKEN, DISCORD_TOKEN and GITCORD_DB_PATH environment overrides.
// A missing file is not an error; the defaults and environment are used.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		cfg.GitHub.Token = v
	}
	if v := os.Getenv("DISCORD_TOKEN"); v != "" {
		cfg.Discord.Token = v
	}
	if v := os.Getenv("GITCORD_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	return cfg, nil
}

// SyncInterval parses Sync.Interval, falling back to DefaultSyncInterval.
func (c *Config) SyncInterval() (time.Duration, error) {
	if c.Sync.Interval == "" {
		return DefaultSyncInterval, nil
	}
	d, err := time.ParseDuration(c.Sync.Interval)
	if err != nil {
		return 0, fmt.Errorf("invalid sync.interval %q: %w", c.Sync.Interval, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid sync.interval %q: must be positive", c.Sync.Interval)
	}
	return d, nil
}

// ValidateForRun reports the configuration the polling loop cannot start without.
func (c *Config) ValidateForRun() error {
	var errs []error
	if c.GitHub.Token == "" {
		errs = append(errs, errors.New("github.token (or GITHUB_TOKEN) is required"))
	}
	if c.Discord.Token == "" {
		errs = append(errs, errors.New("discord.token (or DISCORD_TOKEN) is required"))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if _, err := c.SyncInterval(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
