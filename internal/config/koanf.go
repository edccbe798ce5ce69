// Gamescout - Steam Catalog and Review Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamescout

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

// DefaultConfigPaths lists the config file locations searched in order.
var DefaultConfigPaths = []string{
	"gamescout.yaml",
	"gamescout.yml",
	"/etc/gamescout/config.yaml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns the built-in defaults. Values follow the storefront's
// tolerance observed for unauthenticated crawls.
func defaultConfig() *Config {
	return &Config{
		Steam: SteamConfig{
			UserAgent:     "SteamDataCollector/0.1 (research)",
			AppListURL:    "https://api.steampowered.com/ISteamApps/GetAppList/v2/",
			AppDetailsURL: "https://store.steampowered.com/api/appdetails",
			ReviewsURL:    "https://store.steampowered.com/appreviews/%d",
			SearchURL:     "https://store.steampowered.com/search/",
			Country:       "us",
			Language:      "english",
		},
		HTTP: HTTPConfig{
			Timeout:             10 * time.Second,
			CatalogTimeout:      60 * time.Second,
			RequestDelay:        1200 * time.Millisecond,
			RateLimitCooldown:   30 * time.Second,
			MaxAttempts:         2,
			BreakerEnabled:      true,
			BreakerTimeout:      2 * time.Minute,
			BreakerMinRequests:  10,
			BreakerFailureRatio: 0.6,
		},
		Catalog: CatalogConfig{
			Strategy:    "bulk",
			SearchPages: 60,
			SearchDelay: 500 * time.Millisecond,
		},
		Filter: FilterConfig{
			Types:          []string{"game"},
			SkipComingSoon: true,
			TargetLanguage: "en",
		},
		Reviews: ReviewsConfig{
			Count:    10,
			Filter:   "recent",
			Language: "english",
		},
		Output: OutputConfig{
			Dir:            "data",
			Basename:       "steam_games_reviews",
			Formats:        []string{"json", "csv"},
			CatalogFile:    "steam_app_list",
			CatalogFormats: []string{"parquet"},
			Compression:    "snappy",
			Source:         "steam_official_api",
			CatalogSource:  "steam_official_v0002",
		},
		Pipeline: PipelineConfig{
			Workers:          1,
			CheckpointEvery:  50,
			ProgressEvery:    10,
			AbortOnForbidden: true,
		},
		Progress: ProgressConfig{
			Enabled: false,
			Path:    "data/.progress",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9464",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment. An explicit path wins over CONFIG_PATH and the default paths;
// a missing explicit path is an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configPath := path
	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return nil, fmt.Errorf("config file %s: %w", configPath, err)
		}
	} else {
		configPath = findConfigFile()
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Default returns a validated copy of the built-in defaults.
func Default() *Config {
	return defaultConfig()
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

// sliceConfigPaths are parsed from comma-separated env values.
var sliceConfigPaths = []string{
	"filter.types",
	"output.formats",
	"output.catalog_formats",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
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
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
// Unmapped variables are ignored.
var envMappings = map[string]string{
	"steam_api_key":         "steam.api_key",
	"steam_user_agent":      "steam.user_agent",
	"steam_country":         "steam.country",
	"steam_language":        "steam.language",
	"steam_app_list_url":    "steam.app_list_url",
	"steam_app_details_url": "steam.app_details_url",
	"steam_reviews_url":     "steam.reviews_url",
	"steam_search_url":      "steam.search_url",

	"http_timeout":        "http.timeout",
	"catalog_timeout":     "http.catalog_timeout",
	"request_delay":       "http.request_delay",
	"rate_limit_cooldown": "http.rate_limit_cooldown",
	"max_attempts":        "http.max_attempts",
	"breaker_enabled":     "http.breaker_enabled",
	"breaker_timeout":     "http.breaker_timeout",

	"catalog_strategy": "catalog.strategy",
	"catalog_offset":   "catalog.offset",
	"catalog_limit":    "catalog.limit",
	"search_pages":     "catalog.search_pages",
	"search_delay":     "catalog.search_delay",
	"search_term":      "catalog.search_term",
	"search_filter":    "catalog.search_filter",
	"shuffle":          "catalog.shuffle",
	"shuffle_seed":     "catalog.seed",
	"max_games":        "catalog.max_apps",
	"max_apps":         "catalog.max_apps",

	"app_types":        "filter.types",
	"start_year":       "filter.min_year",
	"end_year":         "filter.max_year",
	"skip_coming_soon": "filter.skip_coming_soon",
	"target_language":  "filter.target_language",
	"require_reviews":  "filter.require_reviews",

	"review_count":     "reviews.count",
	"review_filter":    "reviews.filter",
	"review_language":  "reviews.language",
	"review_day_range": "reviews.day_range",

	"output_dir":          "output.dir",
	"output_basename":     "output.basename",
	"output_formats":      "output.formats",
	"catalog_formats":     "output.catalog_formats",
	"parquet_compression": "output.compression",

	"workers":            "pipeline.workers",
	"checkpoint_every":   "pipeline.checkpoint_every",
	"progress_every":     "pipeline.progress_every",
	"abort_on_forbidden": "pipeline.abort_on_forbidden",

	"progress_enabled": "progress.enabled",
	"progress_path":    "progress.path",

	"metrics_enabled": "metrics.enabled",
	"metrics_addr":    "metrics.addr",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps an environment variable name to a koanf path.
//
// Examples:
//   - STEAM_API_KEY -> steam.api_key
//   - OUTPUT_DIR -> output.dir
//   - START_YEAR -> filter.min_year
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
