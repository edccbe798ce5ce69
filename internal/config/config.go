// Gamescout - Steam Catalog and Review Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamescout

// Package config loads Gamescout configuration.
//
// Loading order (koanf v2):
//  1. Defaults from defaultConfig()
//  2. Optional YAML file (CONFIG_PATH, gamescout.yaml, /etc/gamescout/config.yaml)
//  3. Environment variables from the explicit mapping in envTransformFunc
//
// Command-line flags are applied by cmd/gamescout after Load returns and
// before Validate is called again.
package config

import "time"

// Config holds all crawl configuration. It is immutable after Load.
type Config struct {
	Steam    SteamConfig    `koanf:"steam"`
	HTTP     HTTPConfig     `koanf:"http"`
	Catalog  CatalogConfig  `koanf:"catalog"`
	Filter   FilterConfig   `koanf:"filter"`
	Reviews  ReviewsConfig  `koanf:"reviews"`
	Output   OutputConfig   `koanf:"output"`
	Pipeline PipelineConfig `koanf:"pipeline"`
	Progress ProgressConfig `koanf:"progress"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// SteamConfig holds storefront endpoints and request identity.
type SteamConfig struct {
	APIKey        string `koanf:"api_key"` // Optional, sent with catalog requests
	UserAgent     string `koanf:"user_agent"`
	AppListURL    string `koanf:"app_list_url"`
	AppDetailsURL string `koanf:"app_details_url"`
	ReviewsURL    string `koanf:"reviews_url"` // Contains one %d verb for the app ID
	SearchURL     string `koanf:"search_url"`
	Country       string `koanf:"country"`  // cc parameter
	Language      string `koanf:"language"` // l parameter
}

// HTTPConfig controls timeouts, politeness and retry behaviour.
type HTTPConfig struct {
	Timeout           time.Duration `koanf:"timeout"`
	CatalogTimeout    time.Duration `koanf:"catalog_timeout"`
	RequestDelay      time.Duration `koanf:"request_delay"`
	RateLimitCooldown time.Duration `koanf:"rate_limit_cooldown"`
	MaxAttempts       int           `koanf:"max_attempts"`

	BreakerEnabled      bool          `koanf:"breaker_enabled"`
	BreakerTimeout      time.Duration `koanf:"breaker_timeout"`
	BreakerMinRequests  uint32        `koanf:"breaker_min_requests"`
	BreakerFailureRatio float64       `koanf:"breaker_failure_ratio"`
}

// CatalogConfig selects and shapes identifier enumeration.
type CatalogConfig struct {
	Strategy string `koanf:"strategy"` // bulk or search

	// Offset and Limit slice the bulk catalog. Limit 0 means no limit.
	Offset int `koanf:"offset"`
	Limit  int `koanf:"limit"`

	SearchPages    int           `koanf:"search_pages"`
	SearchDelay    time.Duration `koanf:"search_delay"`
	SearchTerm     string        `koanf:"search_term"`
	SearchCategory string        `koanf:"search_category"`
	SearchFilter   string        `koanf:"search_filter"`

	Shuffle bool  `koanf:"shuffle"`
	Seed    int64 `koanf:"seed"`     // 0 picks a time-based seed
	MaxApps int   `koanf:"max_apps"` // 0 means no cap
}

// FilterConfig holds acceptance rules for apps and reviews.
type FilterConfig struct {
	Types          []string `koanf:"types"`
	MinYear        int      `koanf:"min_year"` // 0 means unbounded
	MaxYear        int      `koanf:"max_year"`
	SkipComingSoon bool     `koanf:"skip_coming_soon"`
	TargetLanguage string   `koanf:"target_language"` // ISO 639-1
	MinConfidence  float64  `koanf:"min_confidence"`
	RequireReviews bool     `koanf:"require_reviews"`
}

// ReviewsConfig shapes the per-app review sample.
type ReviewsConfig struct {
	Count    int    `koanf:"count"` // 0 disables review fetching
	Filter   string `koanf:"filter"`
	Language string `koanf:"language"`
	DayRange int    `koanf:"day_range"`
}

// OutputConfig controls durable files.
type OutputConfig struct {
	Dir            string   `koanf:"dir"`
	Basename       string   `koanf:"basename"`
	Formats        []string `koanf:"formats"` // json, csv, parquet
	CatalogFile    string   `koanf:"catalog_file"`
	CatalogFormats []string `koanf:"catalog_formats"`
	Compression    string   `koanf:"compression"` // Parquet codec
	Source         string   `koanf:"source"`
	CatalogSource  string   `koanf:"catalog_source"`
}

// PipelineConfig controls concurrency and checkpoint cadence.
type PipelineConfig struct {
	Workers          int  `koanf:"workers"`
	CheckpointEvery  int  `koanf:"checkpoint_every"`
	ProgressEvery    int  `koanf:"progress_every"`
	AbortOnForbidden bool `koanf:"abort_on_forbidden"`
}

// ProgressConfig enables the resumable progress ledger.
type ProgressConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// MetricsConfig enables the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
