// Gamescout - Steam Catalog and Review Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamescout

package output

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/gamescout/internal/models"
)

// CSVHeader is the column order of the flat review dataset.
var CSVHeader = []string{
	"app_id", "name", "release_date", "release_year", "price", "tags", "type",
	"review_id", "review_text", "voted_up", "votes_up", "language",
	"source", "ingested_at",
}

// CSVSink writes one row per (app, review) pair.
type CSVSink struct {
	path string
}

// NewCSVSink returns a sink writing to path.
func NewCSVSink(path string) *CSVSink {
	return &CSVSink{path: path}
}

// Path implements Sink.
func (s *CSVSink) Path() string { return s.path }

// Write implements Sink.
func (s *CSVSink) Write(_ context.Context, snap models.Snapshot) error {
	rows := snap.Rows()
	return WriteFileAtomic(s.path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(CSVHeader); err != nil {
			return err
		}
		for i := range rows {
			if err := cw.Write(csvRecord(&rows[i])); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}

func csvRecord(r *models.ReviewRow) []string {
	year := ""
	if r.App.ReleaseYear > 0 {
		year = strconv.Itoa(r.App.ReleaseYear)
	}
	return []string{
		r.App.AppID.String(),
		r.App.Name,
		r.App.ReleaseDate,
		year,
		r.App.Price,
		strings.Join(r.App.Tags, "|"),
		string(r.App.Type),
		r.Review.ReviewID,
		r.Review.Text,
		strconv.FormatBool(r.Review.VotedUp),
		strconv.Itoa(r.Review.VotesUp),
		r.Review.Language,
		r.App.Source,
		r.App.IngestedAt.UTC().Format(time.RFC3339),
	}
}
