// Gamescout - Steam Catalog and Review Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamescout

package main

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/tomtom215/gamescout/internal/catalog"
	"github.com/tomtom215/gamescout/internal/config"
	"github.com/tomtom215/gamescout/internal/ingest"
	"github.com/tomtom215/gamescout/internal/language"
	"github.com/tomtom215/gamescout/internal/logging"
	"github.com/tomtom215/gamescout/internal/models"
	"github.com/tomtom215/gamescout/internal/normalize"
	"github.com/tomtom215/gamescout/internal/output"
	"github.com/tomtom215/gamescout/internal/steamapi"
	"github.com/tomtom215/gamescout/internal/supervisor/services"
)

type crawlFlags struct {
	ids         []string
	resume      bool
	workers     int
	maxApps     int
	strategy    string
	reviewCount int
	shuffle     bool
	seed        int64
	startYear   int
	endYear     int
}

func newCrawlCmd(g *globalFlags) *cobra.Command {
	f := &crawlFlags{}

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Collect game details and reviews into checkpointed datasets",
		Example: `  gamescout crawl --max-apps 500 --start-year 2015 --end-year 2020
  gamescout crawl --ids 620,400 --review-count 50
  gamescout crawl --resume`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, g, f.apply(cmd))
			if err != nil {
				return err
			}
			ids, err := parseIDs(f.ids)
			if err != nil {
				return err
			}
			return runCrawl(cmd.Context(), cfg, ids, f.resume)
		},
	}

	fl := cmd.Flags()
	fl.StringSliceVar(&f.ids, "ids", nil, "crawl only these app ids instead of enumerating the catalog")
	fl.BoolVar(&f.resume, "resume", false, "continue a previous crawl from its checkpoint and progress ledger")
	fl.IntVar(&f.workers, "workers", 0, "concurrent fetch workers")
	fl.IntVar(&f.maxApps, "max-apps", 0, "stop after this many app ids (0 = no cap)")
	fl.StringVar(&f.strategy, "strategy", "", "enumeration strategy: bulk or search")
	fl.IntVar(&f.reviewCount, "review-count", 0, "reviews per game (0 = skip reviews)")
	fl.BoolVar(&f.shuffle, "shuffle", false, "randomly sample max-apps ids from the catalog")
	fl.Int64Var(&f.seed, "seed", 0, "shuffle seed (0 = time based)")
	fl.IntVar(&f.startYear, "start-year", 0, "earliest release year to keep")
	fl.IntVar(&f.endYear, "end-year", 0, "latest release year to keep")
	return cmd
}

// apply copies explicitly set flags over the loaded config.
func (f *crawlFlags) apply(cmd *cobra.Command) func(*config.Config) {
	return func(cfg *config.Config) {
		fl := cmd.Flags()
		if f.resume {
			cfg.Progress.Enabled = true
		}
		if fl.Changed("workers") {
			cfg.Pipeline.Workers = f.workers
		}
		if fl.Changed("max-apps") {
			cfg.Catalog.MaxApps = f.maxApps
		}
		if fl.Changed("strategy") {
			cfg.Catalog.Strategy = f.strategy
		}
		if fl.Changed("review-count") {
			cfg.Reviews.Count = f.reviewCount
		}
		if fl.Changed("shuffle") {
			cfg.Catalog.Shuffle = f.shuffle
		}
		if fl.Changed("seed") {
			cfg.Catalog.Seed = f.seed
		}
		if fl.Changed("start-year") {
			cfg.Filter.MinYear = f.startYear
		}
		if fl.Changed("end-year") {
			cfg.Filter.MaxYear = f.endYear
		}
	}
}

func parseIDs(raw []string) ([]models.AppID, error) {
	ids := make([]models.AppID, 0, len(raw))
	for _, s := range raw {
		id, err := normalize.CoerceID(s)
		if err != nil {
			return nil, fmt.Errorf("--ids: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func runCrawl(ctx context.Context, cfg *config.Config, ids []models.AppID, resume bool) error {
	client := steamapi.NewClient(&cfg.Steam, &cfg.HTTP)

	var enum catalog.Enumerator
	if len(ids) > 0 {
		enum = catalog.Limit(&catalog.StaticEnumerator{IDs: ids}, cfg.Catalog.MaxApps)
	} else {
		var err error
		if enum, err = catalog.New(cfg, client); err != nil {
			return err
		}
	}

	fetcher := ingest.NewFetcher(client, language.NewWhatlangDetector(cfg.Filter.MinConfidence), &cfg.Filter, &cfg.Reviews)

	out := cfg.Output
	sinks, err := output.NewSinks(out.Dir, out.Basename, out.Source, out.Compression, out.Formats)
	if err != nil {
		return err
	}
	collector := ingest.NewCollector(sinks, normalize.New(out.Source), cfg.Pipeline.CheckpointEvery)

	var progress ingest.ProgressTracker
	if cfg.Progress.Enabled {
		ledger, err := ingest.OpenBadgerProgress(cfg.Progress.Path)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := ledger.Close(); cerr != nil {
				logging.Warn().Err(cerr).Msg("Error closing progress ledger")
			}
		}()
		progress = ledger
	}

	if resume {
		if err := seedFromCheckpoint(collector, out); err != nil {
			return err
		}
	}

	opts := ingest.Options{
		Workers:          cfg.Pipeline.Workers,
		ProgressEvery:    cfg.Pipeline.ProgressEvery,
		ReviewCount:      cfg.Reviews.Count,
		RequireReviews:   cfg.Filter.RequireReviews,
		AbortOnForbidden: cfg.Pipeline.AbortOnForbidden,
		Resume:           resume,
	}
	if cfg.HTTP.BreakerEnabled {
		opts.BreakerWait = client.BreakerTimeout()
	}
	pipeline := ingest.NewPipeline(enum, fetcher, collector, progress, opts)

	return runSupervised(ctx, cfg, "crawl", services.JobFunc(func(ctx context.Context) error {
		_, err := pipeline.Run(ctx)
		return err
	}))
}

// seedFromCheckpoint loads the JSON checkpoint so a resumed crawl rewrites
// what it already collected.
func seedFromCheckpoint(collector *ingest.Collector, out config.OutputConfig) error {
	if !slices.Contains(out.Formats, "json") {
		logging.Warn().Msg("Resume without json output: previously accepted apps will be fetched again")
		return nil
	}
	path := filepath.Join(out.Dir, out.Basename+".json")
	snap, err := output.LoadJSONSnapshot(path)
	if err != nil {
		return fmt.Errorf("loading checkpoint: %w", err)
	}
	if len(snap.Apps) == 0 {
		logging.Info().Str("path", path).Msg("No checkpoint found; starting fresh")
		return nil
	}
	collector.Seed(snap)
	logging.Info().
		Str("path", path).
		Int("apps", len(snap.Apps)).
		Int("reviews", len(snap.Reviews)).
		Msg("Resuming from checkpoint")
	return nil
}
