// Gamescout - Steam Catalog and Review Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamescout

package ingest

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

// Collector owns the in-progress collection and writes it out as full
// snapshots. It is not safe for concurrent use; the pipeline's ordering
// goroutine is its only caller.
type Collector struct {
	sink       output.Sink
	normalizer *normalize.Normalizer
	every      int

	apps    []models.AppRecord
	seen    map[models.AppID]bool
	reviews []models.ReviewRecord

	processed int

	// version increments on every change; written is the version on disk.
	version     uint64
	written     uint64
	everWritten bool
	writes      int
}

// NewCollector returns an empty collector writing through sink every
// checkpointEvery processed identifiers (0 disables periodic checkpoints).
func NewCollector(sink output.Sink, normalizer *normalize.Normalizer, checkpointEvery int) *Collector {
	return &Collector{
		sink:       sink,
		normalizer: normalizer,
		every:      checkpointEvery,
		seen:       make(map[models.AppID]bool),
	}
}

// Seed loads a previously written snapshot. The snapshot is treated as
// already on disk, so Finalize without new data writes nothing.
func (c *Collector) Seed(s models.Snapshot) {
	for i := range s.Apps {
		if c.seen[s.Apps[i].AppID] {
			continue
		}
		c.seen[s.Apps[i].AppID] = true
		c.apps = append(c.apps, s.Apps[i])
	}
	for i := range s.Reviews {
		if c.seen[s.Reviews[i].AppID] {
			c.reviews = append(c.reviews, s.Reviews[i])
		}
	}
	c.written = c.version
	c.everWritten = len(s.Apps) > 0
	metrics.SetCollectionSize(len(c.apps), len(c.reviews))
}

// IDs returns a copy of the identifiers in the collection.
func (c *Collector) IDs() map[models.AppID]bool {
	ids := make(map[models.AppID]bool, len(c.seen))
	for id := range c.seen {
		ids[id] = true
	}
	return ids
}

// Accumulate appends an accepted app and its reviews. The first record for
// an identifier wins; later ones are ignored and false is returned.
func (c *Collector) Accumulate(app models.AppRecord, reviews []models.ReviewRecord) bool {
	if c.seen[app.AppID] {
		return false
	}
	c.seen[app.AppID] = true
	c.apps = append(c.apps, app)
	for i := range reviews {
		r := reviews[i]
		r.AppID = app.AppID
		c.reviews = append(c.reviews, r)
	}
	c.version++
	metrics.SetCollectionSize(len(c.apps), len(c.reviews))
	return true
}

// MarkProcessed counts one handled identifier, whatever its outcome.
func (c *Collector) MarkProcessed() {
	c.processed++
}

// Processed returns the number of identifiers counted so far.
func (c *Collector) Processed() int { return c.processed }

// Due reports whether the processed count sits on a checkpoint boundary.
func (c *Collector) Due() bool {
	return c.every > 0 && c.processed > 0 && c.processed%c.every == 0
}

// Dirty reports whether the collection changed since the last write.
func (c *Collector) Dirty() bool {
	return c.version != c.written || !c.everWritten
}

// CheckpointIfDue writes a snapshot on a checkpoint boundary when the
// collection changed. It reports whether a write happened.
func (c *Collector) CheckpointIfDue(ctx context.Context) (bool, error) {
	if !c.Due() || c.version == c.written {
		return false, nil
	}
	if err := c.write(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Finalize writes the collection if it changed or was never written.
// Calling it again without new data is a no-op.
func (c *Collector) Finalize(ctx context.Context) error {
	if !c.Dirty() {
		return nil
	}
	return c.write(ctx)
}

// Writes returns the number of snapshots written.
func (c *Collector) Writes() int { return c.writes }

// Len returns the number of apps held.
func (c *Collector) Len() int { return len(c.apps) }

// Snapshot returns a copy of the current collection.
func (c *Collector) Snapshot() models.Snapshot {
	return models.Snapshot{
		Apps:    append([]models.AppRecord(nil), c.apps...),
		Reviews: append([]models.ReviewRecord(nil), c.reviews...),
	}
}

func (c *Collector) write(ctx context.Context) error {
	start := time.Now()
	clean, stats := c.normalizer.NormalizeSnapshot(c.Snapshot())

	err := c.sink.Write(ctx, clean)
	metrics.RecordCheckpoint(time.Since(start), err)
	if err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}

	// Keep the cleaned form so the next write of unchanged data is identical.
	c.apps = clean.Apps
	c.reviews = clean.Reviews
	c.written = c.version
	c.everWritten = true
	c.writes++
	metrics.SetCollectionSize(len(c.apps), len(c.reviews))

	logging.Debug().
		Int("apps", len(clean.Apps)).
		Int("reviews", len(clean.Reviews)).
		Int("dropped", stats.Dropped()).
		Dur("duration", time.Since(start)).
		Str("path", c.sink.Path()).
		Msg("Checkpoint written")
	return nil
}
