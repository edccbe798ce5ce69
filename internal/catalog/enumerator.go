// Gamescout - Steam Catalog and Review Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamescout

// Package catalog enumerates candidate Steam app identifiers.
//
// Enumeration is lazy: each strategy calls emit once per identifier in a
// deterministic order, de-duplicated per run, with AppRef.Index assigned in
// emission order. A non-nil error from emit stops enumeration and is returned
// unchanged.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/tomtom215/gamescout/internal/config"
	"github.com/tomtom215/gamescout/internal/models"
	"github.com/tomtom215/gamescout/internal/steamapi"
)

// Enumerator yields app identifiers.
type Enumerator interface {
	Enumerate(ctx context.Context, emit func(models.AppRef) error) error
}

// Strategy names accepted by New.
const (
	StrategyBulk   = "bulk"
	StrategySearch = "search"
)

// New builds the enumerator selected by cfg.Catalog, wrapped with sampling
// when shuffle or max_apps is configured.
func New(cfg *config.Config, client *steamapi.Client) (Enumerator, error) {
	var enum Enumerator
	switch cfg.Catalog.Strategy {
	case StrategyBulk, "":
		enum = NewBulkEnumerator(client, cfg.Catalog.Offset, cfg.Catalog.Limit)
	case StrategySearch:
		enum = NewSearchEnumerator(client, SearchOptions{
			Query: steamapi.SearchQuery{
				Term:     cfg.Catalog.SearchTerm,
				Category: cfg.Catalog.SearchCategory,
				Filter:   cfg.Catalog.SearchFilter,
			},
			Pages: cfg.Catalog.SearchPages,
			Delay: cfg.Catalog.SearchDelay,
		})
	default:
		return nil, fmt.Errorf("unknown catalog strategy %q", cfg.Catalog.Strategy)
	}

	switch {
	case cfg.Catalog.Shuffle:
		return Sample(enum, cfg.Catalog.MaxApps, cfg.Catalog.Seed), nil
	case cfg.Catalog.MaxApps > 0:
		return Limit(enum, cfg.Catalog.MaxApps), nil
	}
	return enum, nil
}

// emitter de-duplicates identifiers and numbers them in emission order.
type emitter struct {
	seen map[models.AppID]struct{}
	next int
	emit func(models.AppRef) error
}

func newEmitter(emit func(models.AppRef) error) *emitter {
	return &emitter{seen: make(map[models.AppID]struct{}), emit: emit}
}

// add reports false for duplicates without calling emit.
func (e *emitter) add(id models.AppID, name string) (bool, error) {
	if _, dup := e.seen[id]; dup {
		return false, nil
	}
	e.seen[id] = struct{}{}
	ref := models.AppRef{ID: id, Name: name, Index: e.next}
	e.next++
	return true, e.emit(ref)
}

// StaticEnumerator emits a fixed list of identifiers.
type StaticEnumerator struct {
	IDs []models.AppID
}

// Enumerate implements Enumerator.
func (s StaticEnumerator) Enumerate(ctx context.Context, emit func(models.AppRef) error) error {
	e := newEmitter(emit)
	for _, id := range s.IDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !id.Valid() {
			continue
		}
		if _, err := e.add(id, ""); err != nil {
			return err
		}
	}
	return nil
}

// errLimitReached stops the inner enumerator once a cap is hit.
var errLimitReached = errors.New("catalog limit reached")

type limited struct {
	inner Enumerator
	max   int
}

// Limit caps enum to the first max identifiers. max <= 0 means no cap.
func Limit(enum Enumerator, max int) Enumerator {
	if max <= 0 {
		return enum
	}
	return &limited{inner: enum, max: max}
}

func (l *limited) Enumerate(ctx context.Context, emit func(models.AppRef) error) error {
	n := 0
	err := l.inner.Enumerate(ctx, func(ref models.AppRef) error {
		if err := emit(ref); err != nil {
			return err
		}
		n++
		if n >= l.max {
			return errLimitReached
		}
		return nil
	})
	if errors.Is(err, errLimitReached) {
		return nil
	}
	return err
}

type sampled struct {
	inner Enumerator
	max   int
	seed  int64
}

// Sample buffers the whole enumeration, shuffles it and keeps at most max
// identifiers (max <= 0 keeps all). The same non-zero seed always yields the
// same order; seed 0 picks a time-based seed.
func Sample(enum Enumerator, max int, seed int64) Enumerator {
	return &sampled{inner: enum, max: max, seed: seed}
}

func (s *sampled) Enumerate(ctx context.Context, emit func(models.AppRef) error) error {
	var refs []models.AppRef
	if err := s.inner.Enumerate(ctx, func(ref models.AppRef) error {
		refs = append(refs, ref)
		return nil
	}); err != nil {
		return err
	}

	seed := s.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1))
	rng.Shuffle(len(refs), func(i, j int) { refs[i], refs[j] = refs[j], refs[i] })

	if s.max > 0 && len(refs) > s.max {
		refs = refs[:s.max]
	}
	for i := range refs {
		if err := ctx.Err(); err != nil {
			return err
		}
		refs[i].Index = i
		if err := emit(refs[i]); err != nil {
			return err
		}
	}
	return nil
}
