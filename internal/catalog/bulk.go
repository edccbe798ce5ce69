// Gamescout - Steam Catalog and Review Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamescout

package catalog

import (
	"context"
	"strings"

	"github.com/tomtom215/gamescout/internal/logging"
	"github.com/tomtom215/gamescout/internal/models"
	"github.com/tomtom215/gamescout/internal/normalize"
	"github.com/tomtom215/gamescout/internal/steamapi"
)

// AppListSource downloads the full catalog.
type AppListSource interface {
	FetchAppList(ctx context.Context) ([]steamapi.AppListEntry, error)
}

// BulkEnumerator walks the official app list in catalog order.
type BulkEnumerator struct {
	source AppListSource
	offset int
	limit  int
}

// NewBulkEnumerator slices the catalog to [offset, offset+limit). limit 0
// means through the end.
func NewBulkEnumerator(source AppListSource, offset, limit int) *BulkEnumerator {
	if offset < 0 {
		offset = 0
	}
	return &BulkEnumerator{source: source, offset: offset, limit: limit}
}

// Rows fetches the sliced catalog as raw normalizer input. A malformed or
// empty catalog is returned as steamapi.ErrEmptyOrMalformedCatalog.
func (b *BulkEnumerator) Rows(ctx context.Context) ([]normalize.RawApp, error) {
	entries, err := b.source.FetchAppList(ctx)
	if err != nil {
		return nil, err
	}
	total := len(entries)

	if b.offset >= len(entries) {
		entries = nil
	} else {
		entries = entries[b.offset:]
	}
	if b.limit > 0 && len(entries) > b.limit {
		entries = entries[:b.limit]
	}

	logging.Info().
		Int("catalog_size", total).
		Int("offset", b.offset).
		Int("selected", len(entries)).
		Msg("Fetched app catalog")

	rows := make([]normalize.RawApp, len(entries))
	for i, e := range entries {
		rows[i] = normalize.RawApp{AppID: e.AppID, Name: e.Name}
	}
	return rows, nil
}

// Enumerate implements Enumerator.
func (b *BulkEnumerator) Enumerate(ctx context.Context, emit func(models.AppRef) error) error {
	rows, err := b.Rows(ctx)
	if err != nil {
		return err
	}

	e := newEmitter(emit)
	skipped := 0
	for i := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		id, err := normalize.CoerceID(rows[i].AppID)
		if err != nil {
			skipped++
			continue
		}
		if _, err := e.add(id, strings.TrimSpace(rows[i].Name)); err != nil {
			return err
		}
	}
	if skipped > 0 {
		logging.Debug().Int("skipped", skipped).Msg("Catalog entries with invalid ids skipped")
	}
	return nil
}
