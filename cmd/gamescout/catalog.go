// Gamescout - Steam Catalog and Review Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamescout

package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/tomtom215/gamescout/internal/catalog"
	"github.com/tomtom215/gamescout/internal/config"
	"github.com/tomtom215/gamescout/internal/logging"
	"github.com/tomtom215/gamescout/internal/normalize"
	"github.com/tomtom215/gamescout/internal/output"
	"github.com/tomtom215/gamescout/internal/steamapi"
	"github.com/tomtom215/gamescout/internal/supervisor/services"
)

func newCatalogCmd(g *globalFlags) *cobra.Command {
	var offset, limit int

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Write a cleaned snapshot of the full application catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, g, func(cfg *config.Config) {
				if cmd.Flags().Changed("offset") {
					cfg.Catalog.Offset = offset
				}
				if cmd.Flags().Changed("limit") {
					cfg.Catalog.Limit = limit
				}
			})
			if err != nil {
				return err
			}
			return runCatalog(cmd.Context(), cfg)
		},
	}
	cmd.Flags().IntVar(&offset, "offset", 0, "skip this many catalog entries")
	cmd.Flags().IntVar(&limit, "limit", 0, "keep at most this many entries (0 = all)")
	return cmd
}

func runCatalog(ctx context.Context, cfg *config.Config) error {
	client := steamapi.NewClient(&cfg.Steam, &cfg.HTTP)
	out := cfg.Output

	sinks, err := output.NewSinks(out.Dir, out.CatalogFile, out.CatalogSource, out.Compression, out.CatalogFormats)
	if err != nil {
		return err
	}
	snapshotter := catalog.NewSnapshotter(
		catalog.NewBulkEnumerator(client, cfg.Catalog.Offset, cfg.Catalog.Limit),
		normalize.New(out.CatalogSource),
		sinks,
	)

	return runSupervised(ctx, cfg, "catalog", services.JobFunc(func(ctx context.Context) error {
		res, err := snapshotter.Snapshot(ctx)
		if err != nil {
			return err
		}
		logging.Info().
			Int("apps", res.Apps).
			Int("dropped", res.Stats.Dropped()).
			Str("path", res.Path).
			Dur("duration", res.Duration).
			Msg("Catalog snapshot written")
		return nil
	}))
}
