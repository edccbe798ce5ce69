// Gamescout - Steam Catalog and Review Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamescout

package config

import (
	"fmt"
	"strings"
)

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSteam(); err != nil {
		return err
	}
	if err := c.validateHTTP(); err != nil {
		return err
	}
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateFilter(); err != nil {
		return err
	}
	if err := c.validateReviews(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateSteam() error {
	if c.Steam.UserAgent == "" {
		return fmt.Errorf("STEAM_USER_AGENT must not be empty")
	}
	if c.Steam.AppListURL == "" || c.Steam.AppDetailsURL == "" || c.Steam.SearchURL == "" {
		return fmt.Errorf("storefront endpoint URLs must not be empty")
	}
	if strings.Count(c.Steam.ReviewsURL, "%d") != 1 {
		return fmt.Errorf("STEAM_REVIEWS_URL must contain exactly one %%d verb, got %q", c.Steam.ReviewsURL)
	}
	return nil
}

func (c *Config) validateHTTP() error {
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %v", c.HTTP.Timeout)
	}
	if c.HTTP.CatalogTimeout <= 0 {
		return fmt.Errorf("CATALOG_TIMEOUT must be positive, got %v", c.HTTP.CatalogTimeout)
	}
	if c.HTTP.RequestDelay < 0 {
		return fmt.Errorf("REQUEST_DELAY must not be negative, got %v", c.HTTP.RequestDelay)
	}
	if c.HTTP.RateLimitCooldown < 0 {
		return fmt.Errorf("RATE_LIMIT_COOLDOWN must not be negative, got %v", c.HTTP.RateLimitCooldown)
	}
	if c.HTTP.MaxAttempts < 1 || c.HTTP.MaxAttempts > 10 {
		return fmt.Errorf("MAX_ATTEMPTS must be between 1 and 10, got %d", c.HTTP.MaxAttempts)
	}
	if c.HTTP.BreakerEnabled {
		if c.HTTP.BreakerFailureRatio <= 0 || c.HTTP.BreakerFailureRatio > 1 {
			return fmt.Errorf("breaker failure ratio must be in (0, 1], got %v", c.HTTP.BreakerFailureRatio)
		}
		if c.HTTP.BreakerTimeout <= 0 {
			return fmt.Errorf("BREAKER_TIMEOUT must be positive, got %v", c.HTTP.BreakerTimeout)
		}
	}
	return nil
}

func (c *Config) validateCatalog() error {
	switch c.Catalog.Strategy {
	case "bulk", "search":
	default:
		return fmt.Errorf("CATALOG_STRATEGY must be bulk or search, got %q", c.Catalog.Strategy)
	}
	if c.Catalog.Offset < 0 || c.Catalog.Limit < 0 || c.Catalog.MaxApps < 0 {
		return fmt.Errorf("catalog offset, limit and max_apps must not be negative")
	}
	if c.Catalog.Strategy == "search" && c.Catalog.SearchPages < 1 {
		return fmt.Errorf("SEARCH_PAGES must be at least 1, got %d", c.Catalog.SearchPages)
	}
	return nil
}

func (c *Config) validateFilter() error {
	if len(c.Filter.Types) == 0 {
		return fmt.Errorf("APP_TYPES must name at least one type")
	}
	if c.Filter.MinYear < 0 || c.Filter.MaxYear < 0 {
		return fmt.Errorf("START_YEAR and END_YEAR must not be negative")
	}
	if c.Filter.MinYear > 0 && c.Filter.MaxYear > 0 && c.Filter.MinYear > c.Filter.MaxYear {
		return fmt.Errorf("START_YEAR (%d) is after END_YEAR (%d)", c.Filter.MinYear, c.Filter.MaxYear)
	}
	if len(c.Filter.TargetLanguage) != 2 {
		return fmt.Errorf("TARGET_LANGUAGE must be an ISO 639-1 code, got %q", c.Filter.TargetLanguage)
	}
	if c.Filter.MinConfidence < 0 || c.Filter.MinConfidence > 1 {
		return fmt.Errorf("language min confidence must be in [0, 1], got %v", c.Filter.MinConfidence)
	}
	return nil
}

func (c *Config) validateReviews() error {
	if c.Reviews.Count < 0 {
		return fmt.Errorf("REVIEW_COUNT must not be negative, got %d", c.Reviews.Count)
	}
	switch c.Reviews.Filter {
	case "recent", "updated", "all", "random":
	default:
		return fmt.Errorf("REVIEW_FILTER must be recent, updated, all or random, got %q", c.Reviews.Filter)
	}
	if c.Reviews.DayRange < 0 {
		return fmt.Errorf("REVIEW_DAY_RANGE must not be negative, got %d", c.Reviews.DayRange)
	}
	return nil
}

func (c *Config) validateOutput() error {
	if c.Output.Dir == "" {
		return fmt.Errorf("OUTPUT_DIR must not be empty")
	}
	if c.Output.Basename == "" || c.Output.CatalogFile == "" {
		return fmt.Errorf("output file names must not be empty")
	}
	if len(c.Output.Formats) == 0 {
		return fmt.Errorf("OUTPUT_FORMATS must name at least one format")
	}
	for _, f := range append(append([]string{}, c.Output.Formats...), c.Output.CatalogFormats...) {
		switch f {
		case "json", "csv", "parquet":
		default:
			return fmt.Errorf("unknown output format %q (json, csv, parquet)", f)
		}
	}
	switch strings.ToLower(c.Output.Compression) {
	case "snappy", "zstd", "gzip", "uncompressed":
	default:
		return fmt.Errorf("PARQUET_COMPRESSION must be snappy, zstd, gzip or uncompressed, got %q", c.Output.Compression)
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.Workers < 1 || c.Pipeline.Workers > 32 {
		return fmt.Errorf("WORKERS must be between 1 and 32, got %d", c.Pipeline.Workers)
	}
	if c.Pipeline.CheckpointEvery < 1 {
		return fmt.Errorf("CHECKPOINT_EVERY must be at least 1, got %d", c.Pipeline.CheckpointEvery)
	}
	if c.Pipeline.ProgressEvery < 1 {
		return fmt.Errorf("PROGRESS_EVERY must be at least 1, got %d", c.Pipeline.ProgressEvery)
	}
	if c.Progress.Enabled && c.Progress.Path == "" {
		return fmt.Errorf("PROGRESS_PATH is required when PROGRESS_ENABLED=true")
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("METRICS_ADDR is required when METRICS_ENABLED=true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be trace, debug, info, warn or error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
