// Yapcore - Chat-Trained Markov Text Generation Service
// Copyright 2026 Yapbot Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yapbot/yapcore

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, first hit wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/yapcore/config.yaml",
	"/etc/yapcore/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "YAPCORE_CONFIG"

// envPrefix scopes the environment variables this service reads.
const envPrefix = "YAPCORE_"

// Default returns the built-in defaults, applied before file and env layers.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8710,
			Timeout:           30 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			CORSOrigins:       []string{},
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Tokenizer: TokenizerConfig{
			CaseFold:         true,
			StripPunctuation: true,
			CommandPrefixes:  []string{"!", "/", "."},
			SkipLinks:        true,
		},
		Generation: GenerationConfig{
			MaxWords:        30,
			MinWords:        0,
			Cooldown:        20 * time.Second,
			AutogenEnabled:  false,
			AutogenInterval: 5 * time.Minute,
		},
		Ingest: IngestConfig{
			Buffer:               1024,
			RetryMaxRetries:      3,
			RetryInitialInterval: 100 * time.Millisecond,
			RetryMaxInterval:     5 * time.Second,
			ThrottlePerSecond:    0,
			CloseTimeout:         30 * time.Second,
		},
		Persistence: PersistenceConfig{
			Enabled:    true,
			Dir:        "/data/yapcore",
			Interval:   5 * time.Minute,
			SyncWrites: false,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, and
// YAPCORE_* environment variables, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", envTransform)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransform maps YAPCORE_SECTION_KEY to section.key. Keys containing
// underscores are looked up in an explicit table since the section
// boundary is otherwise ambiguous.
func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// SECTION_KEY with a single-word key.
	if idx := strings.Index(key, "_"); idx > 0 {
		return key[:idx] + "." + key[idx+1:]
	}
	return key
}

// envMappings resolves variables whose key spans multiple words.
var envMappings = map[string]string{
	"server_shutdown_timeout":    "server.shutdown_timeout",
	"server_cors_origins":        "server.cors_origins",
	"server_rate_limit_requests": "server.rate_limit_requests",
	"server_rate_limit_window":   "server.rate_limit_window",
	"server_rate_limit_disabled": "server.rate_limit_disabled",

	"tokenizer_case_fold":         "tokenizer.case_fold",
	"tokenizer_strip_punctuation": "tokenizer.strip_punctuation",
	"tokenizer_command_prefixes":  "tokenizer.command_prefixes",
	"tokenizer_skip_links":        "tokenizer.skip_links",

	"generation_max_words":        "generation.max_words",
	"generation_min_words":        "generation.min_words",
	"generation_autogen_enabled":  "generation.autogen_enabled",
	"generation_autogen_interval": "generation.autogen_interval",

	"ingest_retry_max_retries":      "ingest.retry_max_retries",
	"ingest_retry_initial_interval": "ingest.retry_initial_interval",
	"ingest_retry_max_interval":     "ingest.retry_max_interval",
	"ingest_throttle_per_second":    "ingest.throttle_per_second",
	"ingest_close_timeout":          "ingest.close_timeout",

	"persistence_sync_writes": "persistence.sync_writes",
}

// sliceConfigPaths lists paths parsed as comma-separated slices when they
// arrive as env var strings.
var sliceConfigPaths = []string{
	"server.cors_origins",
	"tokenizer.command_prefixes",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("set %s: %w", path, err)
			}
		}
	}
	return nil
}
