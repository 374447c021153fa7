// Yapcore - Chat-Trained Markov Text Generation Service
// Copyright 2026 Yapbot Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yapbot/yapcore

// Package config defines the service configuration and loads it with koanf
// from three layers: built-in defaults, an optional YAML file, and
// environment variables, in rising precedence.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Logging     LoggingConfig     `koanf:"logging"`
	Tokenizer   TokenizerConfig   `koanf:"tokenizer"`
	Generation  GenerationConfig  `koanf:"generation"`
	Ingest      IngestConfig      `koanf:"ingest"`
	Persistence PersistenceConfig `koanf:"persistence"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`

	// ShutdownTimeout bounds graceful connection draining.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// CORSOrigins lists allowed cross-origin callers. Empty denies all.
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitRequests per RateLimitWindow, keyed by client IP.
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// TokenizerConfig controls message normalization and training filters.
type TokenizerConfig struct {
	CaseFold         bool     `koanf:"case_fold"`
	StripPunctuation bool     `koanf:"strip_punctuation"`
	CommandPrefixes  []string `koanf:"command_prefixes"`
	SkipLinks        bool     `koanf:"skip_links"`
}

// GenerationConfig controls the random walk and its pacing.
type GenerationConfig struct {
	// MaxWords caps every generated sentence.
	MaxWords int `koanf:"max_words"`

	// MinWords, when positive, restarts unseeded walks that come up short.
	MinWords int `koanf:"min_words"`

	// Cooldown is the shared gap between generate requests. Zero disables it.
	Cooldown time.Duration `koanf:"cooldown"`

	// AutogenEnabled turns on unprompted periodic generation.
	AutogenEnabled  bool          `koanf:"autogen_enabled"`
	AutogenInterval time.Duration `koanf:"autogen_interval"`
}

// IngestConfig controls the training pipeline.
type IngestConfig struct {
	// Buffer is the pending-message channel capacity. Publishing blocks
	// when it fills.
	Buffer int64 `koanf:"buffer"`

	RetryMaxRetries      int           `koanf:"retry_max_retries"`
	RetryInitialInterval time.Duration `koanf:"retry_initial_interval"`
	RetryMaxInterval     time.Duration `koanf:"retry_max_interval"`

	// ThrottlePerSecond caps trainer throughput (0 = unlimited).
	ThrottlePerSecond int64 `koanf:"throttle_per_second"`

	CloseTimeout time.Duration `koanf:"close_timeout"`
}

// PersistenceConfig controls model snapshots.
type PersistenceConfig struct {
	// Enabled turns snapshots off entirely when false; the model then
	// lives only in memory.
	Enabled bool `koanf:"enabled"`

	// Dir is the BadgerDB directory.
	Dir string `koanf:"dir"`

	// Interval between snapshot attempts.
	Interval time.Duration `koanf:"interval"`

	SyncWrites bool `koanf:"sync_writes"`
}

// Validate checks cross-field constraints after loading.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Generation.MaxWords < 1 {
		return fmt.Errorf("generation.max_words must be positive, got %d", c.Generation.MaxWords)
	}
	if c.Generation.MinWords < 0 {
		return fmt.Errorf("generation.min_words must not be negative, got %d", c.Generation.MinWords)
	}
	if c.Generation.MinWords > c.Generation.MaxWords {
		return fmt.Errorf("generation.min_words %d exceeds max_words %d",
			c.Generation.MinWords, c.Generation.MaxWords)
	}
	if c.Ingest.Buffer < 1 {
		return fmt.Errorf("ingest.buffer must be positive, got %d", c.Ingest.Buffer)
	}
	if c.Persistence.Enabled && c.Persistence.Dir == "" {
		return fmt.Errorf("persistence.dir is required when persistence is enabled")
	}
	if c.Persistence.Enabled && c.Persistence.Interval < time.Second {
		return fmt.Errorf("persistence.interval %s too short", c.Persistence.Interval)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
