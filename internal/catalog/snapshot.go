// Gamescout - Steam Catalog and Review Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamescout

package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/gamescout/internal/logging"
	"github.com/tomtom215/gamescout/internal/metrics"
	"github.com/tomtom215/gamescout/internal/models"
	"github.com/tomtom215/gamescout/internal/normalize"
	"github.com/tomtom215/gamescout/internal/output"
)

// SnapshotResult summarizes one catalog snapshot.
type SnapshotResult struct {
	Apps     int
	Stats    normalize.Stats
	Path     string
	Duration time.Duration
}

// Snapshotter writes a cleaned copy of the bulk catalog.
type Snapshotter struct {
	bulk       *BulkEnumerator
	normalizer *normalize.Normalizer
	sink       output.Sink
}

// NewSnapshotter wires the bulk catalog through normalizer into sink.
func NewSnapshotter(bulk *BulkEnumerator, normalizer *normalize.Normalizer, sink output.Sink) *Snapshotter {
	return &Snapshotter{bulk: bulk, normalizer: normalizer, sink: sink}
}

// Snapshot fetches, cleans and atomically writes the catalog.
func (s *Snapshotter) Snapshot(ctx context.Context) (*SnapshotResult, error) {
	start := time.Now()

	rows, err := s.bulk.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}

	apps, stats := s.normalizer.Normalize(rows)
	logging.Info().
		Int("input", stats.Input).
		Int("kept", stats.Kept).
		Int("bad_id", stats.BadID).
		Int("missing_name", stats.MissingName).
		Int("duplicates", stats.Duplicates).
		Msg("Catalog cleaned")

	writeStart := time.Now()
	err = s.sink.Write(ctx, models.Snapshot{Apps: apps})
	metrics.RecordCheckpoint(time.Since(writeStart), err)
	if err != nil {
		return nil, fmt.Errorf("write catalog snapshot: %w", err)
	}
	metrics.SetCollectionSize(len(apps), 0)

	return &SnapshotResult{
		Apps:     len(apps),
		Stats:    stats,
		Path:     s.sink.Path(),
		Duration: time.Since(start),
	}, nil
}
