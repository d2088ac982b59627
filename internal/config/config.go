// Rift Rewind - Quarterly League Journey Pipeline
// Copyright 2026 Rewind Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rewindlab/riftrewind

// Package config defines the service configuration and its layered
// loader. Precedence is environment variables over the optional YAML
// file over built-in defaults.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the journey pipeline service.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	NATS      NATSConfig      `koanf:"nats"`
	Storage   StorageConfig   `koanf:"storage"`
	Riot      RiotConfig      `koanf:"riot"`
	Narrative NarrativeConfig `koanf:"narrative"`
	Pipeline  PipelineConfig  `koanf:"pipeline"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// LoggingConfig configures the global zerolog logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// NATSConfig configures the JetStream transport and the Watermill
// router that runs on top of it.
type NATSConfig struct {
	URL            string `koanf:"url"`
	EmbeddedServer bool   `koanf:"embedded_server"`
	StoreDir       string `koanf:"store_dir"`
	MaxMemory      int64  `koanf:"max_memory"`
	MaxStore       int64  `koanf:"max_store"`
	DurableName    string `koanf:"durable_name"`
	QueueGroup     string `koanf:"queue_group"`

	// Router middleware (Watermill)
	RouterRetryCount           int           `koanf:"router_retry_count"`
	RouterRetryInitialInterval time.Duration `koanf:"router_retry_initial_interval"`
	RouterPoisonQueueEnabled   bool          `koanf:"router_poison_queue_enabled"`
	RouterPoisonQueueTopic     string        `koanf:"router_poison_queue_topic"`
	RouterCloseTimeout         time.Duration `koanf:"router_close_timeout"`
}

// StorageConfig configures the BadgerDB database shared by the job
// registry and the document store.
type StorageConfig struct {
	Path string `koanf:"path"`
}

// RiotConfig configures the upstream match data client.
type RiotConfig struct {
	APIKey     string        `koanf:"api_key"`
	Timeout    time.Duration `koanf:"timeout"`
	MaxRetries int           `koanf:"max_retries"`

	// RequestsPerSecond is the client-side rate limit applied across
	// all in-flight fetch workers.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
}

// NarrativeConfig configures the lore generator. When disabled or when
// no API key is set, the deterministic fallback text is used for every
// quarter.
type NarrativeConfig struct {
	Enabled   bool          `koanf:"enabled"`
	APIKey    string        `koanf:"api_key"`
	Model     string        `koanf:"model"`
	MaxTokens int           `koanf:"max_tokens"`
	Timeout   time.Duration `koanf:"timeout"`
}

// PipelineConfig configures the stage handlers.
type PipelineConfig struct {
	// FetchConcurrency bounds the per-quarter match download pool.
	FetchConcurrency int `koanf:"fetch_concurrency"`

	// MaxMatchesPerQuarter caps how many matches a quarter fetch will
	// download, newest first.
	MaxMatchesPerQuarter int `koanf:"max_matches_per_quarter"`
}

// Validate checks cross-field constraints that the loader cannot
// express.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path required")
	}
	if c.NATS.URL == "" && !c.NATS.EmbeddedServer {
		return fmt.Errorf("nats.url required when embedded server is disabled")
	}
	if c.Pipeline.FetchConcurrency < 1 {
		return fmt.Errorf("pipeline.fetch_concurrency must be at least 1")
	}
	if c.Pipeline.MaxMatchesPerQuarter < 1 {
		return fmt.Errorf("pipeline.max_matches_per_quarter must be at least 1")
	}
	if c.Riot.RequestsPerSecond <= 0 {
		return fmt.Errorf("riot.requests_per_second must be positive")
	}
	if c.Narrative.Enabled && c.Narrative.APIKey == "" {
		return fmt.Errorf("narrative.api_key required when narrative generation is enabled")
	}
	return nil
}
