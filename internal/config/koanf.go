// Rift Rewind - Quarterly League Journey Pipeline
// Copyright 2026 Rewind Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rewindlab/riftrewind

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

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/riftrewind/config.yaml",
	"/etc/riftrewind/config.yml",
}

// ConfigPathEnvVar overrides the config file search path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all defaults applied. These are
// the lowest-precedence layer.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8477,
			Timeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		NATS: NATSConfig{
			URL:            "nats://127.0.0.1:4222",
			EmbeddedServer: true,
			StoreDir:       "/data/nats/jetstream",
			MaxMemory:      1 << 30,  // 1GB
			MaxStore:       10 << 30, // 10GB
			DurableName:    "journey-processor",
			QueueGroup:     "processors",

			RouterRetryCount:           3,
			RouterRetryInitialInterval: 100 * time.Millisecond,
			RouterPoisonQueueEnabled:   true,
			RouterPoisonQueueTopic:     "journey.poison",
			RouterCloseTimeout:         30 * time.Second,
		},
		Storage: StorageConfig{
			Path: "/data/riftrewind",
		},
		Riot: RiotConfig{
			APIKey:            "",
			Timeout:           15 * time.Second,
			MaxRetries:        6,
			RequestsPerSecond: 15,
		},
		Narrative: NarrativeConfig{
			Enabled:   false, // Deterministic fallback text by default
			APIKey:    "",
			Model:     "claude-haiku-4-5",
			MaxTokens: 1000,
			Timeout:   45 * time.Second,
		},
		Pipeline: PipelineConfig{
			FetchConcurrency:     5,
			MaxMatchesPerQuarter: 200,
		},
	}
}

// Load builds the configuration from layered sources:
//  1. Defaults from defaultConfig
//  2. Optional YAML config file
//  3. Environment variables (highest priority)
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
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

// findConfigFile returns the first config file that exists, checking
// the CONFIG_PATH override before the default paths.
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

// envTransformFunc maps environment variable names to koanf config
// paths. Unmapped variables are skipped so unrelated environment noise
// never reaches the config.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server mappings
		"http_host":    "server.host",
		"http_port":    "server.port",
		"http_timeout": "server.timeout",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",

		// NATS mappings
		"nats_url":          "nats.url",
		"nats_embedded":     "nats.embedded_server",
		"nats_store_dir":    "nats.store_dir",
		"nats_max_memory":   "nats.max_memory",
		"nats_max_store":    "nats.max_store",
		"nats_durable_name": "nats.durable_name",
		"nats_queue_group":  "nats.queue_group",

		"nats_router_retry_count":    "nats.router_retry_count",
		"nats_router_retry_interval": "nats.router_retry_initial_interval",
		"nats_router_poison_enabled": "nats.router_poison_queue_enabled",
		"nats_router_poison_topic":   "nats.router_poison_queue_topic",
		"nats_router_close_timeout":  "nats.router_close_timeout",

		// Storage mappings
		"storage_path": "storage.path",

		// Riot client mappings
		"riot_api_key":             "riot.api_key",
		"riot_timeout":             "riot.timeout",
		"riot_max_retries":         "riot.max_retries",
		"riot_requests_per_second": "riot.requests_per_second",

		// Narrative mappings
		"narrative_enabled":    "narrative.enabled",
		"anthropic_api_key":    "narrative.api_key",
		"narrative_model":      "narrative.model",
		"narrative_max_tokens": "narrative.max_tokens",
		"narrative_timeout":    "narrative.timeout",

		// Pipeline mappings
		"fetch_concurrency":       "pipeline.fetch_concurrency",
		"max_matches_per_quarter": "pipeline.max_matches_per_quarter",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
