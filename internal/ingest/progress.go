// Gamescout - Steam Catalog and Review Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamescout

package ingest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/gamescout/internal/models"
)

// Outcome is the recorded result for one identifier.
type Outcome string

const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeFiltered Outcome = "filtered"
	OutcomeError    Outcome = "error"
)

// Done reports whether a resumed run may skip the identifier.
func (o Outcome) Done() bool {
	return o == OutcomeAccepted || o == OutcomeFiltered
}

// ProgressTracker records per-identifier outcomes so an interrupted crawl can
// resume without refetching finished apps.
type ProgressTracker interface {
	// MarkOutcome records the outcome for id, replacing any earlier one.
	MarkOutcome(ctx context.Context, id models.AppID, outcome Outcome) error

	// Outcome returns the recorded outcome for id.
	Outcome(ctx context.Context, id models.AppID) (Outcome, bool, error)

	// SaveStats persists the latest run statistics.
	SaveStats(ctx context.Context, stats *RunStats) error

	// LoadStats returns the last saved statistics, or nil.
	LoadStats(ctx context.Context) (*RunStats, error)

	// Clear removes all recorded progress.
	Clear(ctx context.Context) error
}

const (
	progressPrefix = "crawl:"
	outcomePrefix  = progressPrefix + "outcome:"
	statsKey       = progressPrefix + "stats"
)

func outcomeKey(id models.AppID) []byte {
	return []byte(outcomePrefix + strconv.FormatInt(int64(id), 10))
}

// BadgerProgress implements ProgressTracker using BadgerDB.
type BadgerProgress struct {
	db    *badger.DB
	owned bool
}

// NewBadgerProgress creates a tracker on an open BadgerDB. The caller keeps
// ownership of db.
func NewBadgerProgress(db *badger.DB) *BadgerProgress {
	return &BadgerProgress{db: db}
}

// OpenBadgerProgress opens (or creates) a ledger at path.
func OpenBadgerProgress(path string) (*BadgerProgress, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Suppress BadgerDB logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open progress ledger: %w", err)
	}
	p := NewBadgerProgress(db)
	p.owned = true
	return p, nil
}

// Close closes the database if this tracker opened it.
func (p *BadgerProgress) Close() error {
	if p.owned {
		return p.db.Close()
	}
	return nil
}

// MarkOutcome implements ProgressTracker.
func (p *BadgerProgress) MarkOutcome(_ context.Context, id models.AppID, outcome Outcome) error {
	return p.db.Update(func(txn *badger.Txn) error {
		return txn.Set(outcomeKey(id), []byte(outcome))
	})
}

// Outcome implements ProgressTracker.
func (p *BadgerProgress) Outcome(_ context.Context, id models.AppID) (Outcome, bool, error) {
	var out Outcome
	found := false
	err := p.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(outcomeKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			out = Outcome(val)
			found = true
			return nil
		})
	})
	if err != nil {
		return "", false, fmt.Errorf("load outcome for %d: %w", id, err)
	}
	return out, found, nil
}

// SaveStats implements ProgressTracker.
func (p *BadgerProgress) SaveStats(_ context.Context, stats *RunStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	return p.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(statsKey), data)
	})
}

// LoadStats implements ProgressTracker. Returns nil, nil if nothing was saved.
func (p *BadgerProgress) LoadStats(_ context.Context) (*RunStats, error) {
	var stats *RunStats
	err := p.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(statsKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			stats = &RunStats{}
			return json.Unmarshal(val, stats)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	return stats, nil
}

// Clear implements ProgressTracker.
func (p *BadgerProgress) Clear(_ context.Context) error {
	return p.db.DropPrefix([]byte(progressPrefix))
}

// InMemoryProgress implements ProgressTracker without persistence.
type InMemoryProgress struct {
	mu       sync.RWMutex
	outcomes map[models.AppID]Outcome
	stats    *RunStats
}

// NewInMemoryProgress creates an empty in-memory tracker.
func NewInMemoryProgress() *InMemoryProgress {
	return &InMemoryProgress{outcomes: make(map[models.AppID]Outcome)}
}

// MarkOutcome implements ProgressTracker.
func (p *InMemoryProgress) MarkOutcome(_ context.Context, id models.AppID, outcome Outcome) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.outcomes[id] = outcome
	return nil
}

// Outcome implements ProgressTracker.
func (p *InMemoryProgress) Outcome(_ context.Context, id models.AppID) (Outcome, bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	o, ok := p.outcomes[id]
	return o, ok, nil
}

// SaveStats implements ProgressTracker.
func (p *InMemoryProgress) SaveStats(_ context.Context, stats *RunStats) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats = stats.Clone()
	return nil
}

// LoadStats implements ProgressTracker.
func (p *InMemoryProgress) LoadStats(_ context.Context) (*RunStats, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stats == nil {
		return nil, nil
	}
	return p.stats.Clone(), nil
}

// Clear implements ProgressTracker.
func (p *InMemoryProgress) Clear(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.outcomes = make(map[models.AppID]Outcome)
	p.stats = nil
	return nil
}
