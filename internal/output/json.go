// Gamescout - Steam Catalog and Review Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamescout

package output

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"

	"github.com/tomtom215/gamescout/internal/models"
)

// jsonDocument is the nested review dataset: one entry per app with its
// reviews inline.
type jsonDocument struct {
	Source      string    `json:"source"`
	AppCount    int       `json:"app_count"`
	ReviewCount int       `json:"review_count"`
	Apps        []jsonApp `json:"apps"`
}

type jsonApp struct {
	models.AppRecord
	Reviews []models.ReviewRecord `json:"reviews"`
}

// JSONSink writes the nested JSON dataset.
type JSONSink struct {
	path   string
	source string
}

// NewJSONSink returns a sink writing to path.
func NewJSONSink(path, source string) *JSONSink {
	return &JSONSink{path: path, source: source}
}

// Path implements Sink.
func (s *JSONSink) Path() string { return s.path }

// Write implements Sink.
func (s *JSONSink) Write(_ context.Context, snap models.Snapshot) error {
	byApp := snap.ReviewsByApp()
	doc := jsonDocument{
		Source:      s.source,
		AppCount:    len(snap.Apps),
		ReviewCount: len(snap.Reviews),
		Apps:        make([]jsonApp, len(snap.Apps)),
	}
	for i := range snap.Apps {
		reviews := byApp[snap.Apps[i].AppID]
		if reviews == nil {
			reviews = []models.ReviewRecord{}
		}
		doc.Apps[i] = jsonApp{AppRecord: snap.Apps[i], Reviews: reviews}
	}

	return WriteFileAtomic(s.path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(doc)
	})
}

// LoadJSONSnapshot reads a dataset written by JSONSink back into a snapshot.
// A missing file yields an empty snapshot and no error.
func LoadJSONSnapshot(path string) (models.Snapshot, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return models.Snapshot{}, nil
	}
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc jsonDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	snap := models.Snapshot{Apps: make([]models.AppRecord, 0, len(doc.Apps))}
	for _, a := range doc.Apps {
		snap.Apps = append(snap.Apps, a.AppRecord)
		snap.Reviews = append(snap.Reviews, a.Reviews...)
	}
	return snap, nil
}
