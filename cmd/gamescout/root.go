// Gamescout - Steam Catalog and Review Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamescout

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/gamescout/internal/config"
	"github.com/tomtom215/gamescout/internal/logging"
	"github.com/tomtom215/gamescout/internal/metrics"
	"github.com/tomtom215/gamescout/internal/supervisor"
	"github.com/tomtom215/gamescout/internal/supervisor/services"
)

// Set by -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
	outputDir  string
	metrics    string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "gamescout",
		Short: "Steam catalog and review ingestion",
		Long: `gamescout enumerates Steam application identifiers, fetches store details and
user reviews politely, filters them, and writes checkpointed JSON, CSV and
Parquet datasets.`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "path to config file (default: CONFIG_PATH or gamescout.yaml)")
	pf.StringVar(&g.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	pf.StringVar(&g.logFormat, "log-format", "", "log format: json or console")
	pf.StringVar(&g.outputDir, "output-dir", "", "directory for datasets (overrides OUTPUT_DIR)")
	pf.StringVar(&g.metrics, "metrics-addr", "", "serve /metrics and /healthz on this address")

	root.AddCommand(newCrawlCmd(g))
	root.AddCommand(newCatalogCmd(g))
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gamescout %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

// loadConfig loads the layered config, applies global flags, validates and
// initializes logging.
func loadConfig(cmd *cobra.Command, g *globalFlags, apply func(*config.Config)) (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Logging.Level = g.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = g.logFormat
	}
	if flags.Changed("output-dir") {
		cfg.Output.Dir = g.outputDir
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = g.metrics
	}
	if apply != nil {
		apply(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	return cfg, nil
}

// runSupervised runs job under the supervisor tree, next to the metrics
// server when enabled, and returns the job's own result.
func runSupervised(ctx context.Context, cfg *config.Config, name string, job services.Job) error {
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: 30 * time.Second,
	})

	svc := services.NewJobService(name, job)
	tree.AddJob(svc)
	if cfg.Metrics.Enabled {
		tree.AddObservability(services.NewMetricsService(cfg.Metrics.Addr, metrics.NewRouter(), 5*time.Second))
	}

	err := tree.Serve(ctx)
	if err != nil && !errors.Is(err, suture.ErrTerminateSupervisorTree) && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, u := range unstopped {
		logging.Warn().Str("service", u.Name).Msg("Service failed to stop")
	}

	return jobResult(ctx, svc, name, jobDrainTimeout)
}

// jobDrainTimeout bounds the wait for a job still finishing its final write
// after the tree stopped. It exceeds the pipeline's finalize timeout.
const jobDrainTimeout = 3 * time.Minute

// jobResult waits for a started job to return and reports its error.
func jobResult(ctx context.Context, svc *services.JobService, name string, drain time.Duration) error {
	select {
	case <-svc.Started():
	default:
		// canceled before the job started
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s did not run", name)
	}

	select {
	case <-svc.Done():
		return svc.Err()
	case <-time.After(drain):
		return fmt.Errorf("%s did not finish within %s of shutdown", name, drain)
	}
}
