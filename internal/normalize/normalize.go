// Gamescout - Steam Catalog and Review Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamescout

// Package normalize cleans collected records before they are written.
//
// Cleaning coerces identifiers, drops rows without an identifier or a name,
// removes duplicate identifiers (first occurrence wins, order preserved) and
// stamps provenance. A bad row is dropped and counted, never fatal.
//
// Normalization is idempotent: cleaning already-clean output returns it
// unchanged, so records keep the ingestion time of their first cleaning.
package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/gamescout/internal/logging"
	"github.com/tomtom215/gamescout/internal/models"
	"github.com/tomtom215/gamescout/internal/validation"
)

// RawApp is an uncleaned catalog row. AppID may be any numeric kind, a
// json.Number or a numeric string.
type RawApp struct {
	AppID       interface{}
	Name        string
	ReleaseDate string
	ReleaseYear int
	Price       string
	Tags        []string
	Type        models.AppType
}

// Stats counts what cleaning removed.
type Stats struct {
	Input          int
	Kept           int
	BadID          int
	MissingName    int
	Duplicates     int
	OrphanReviews  int
	EmptyReviews   int
	ReviewsKept    int
	ReviewsInInput int
}

// Dropped is the number of app rows removed.
func (s Stats) Dropped() int {
	return s.BadID + s.MissingName + s.Duplicates
}

// Normalizer stamps Source and the clock's time on surviving rows.
type Normalizer struct {
	Source string
	Now    func() time.Time
}

// New returns a Normalizer using the wall clock in UTC.
func New(source string) *Normalizer {
	return &Normalizer{Source: source, Now: func() time.Time { return time.Now().UTC() }}
}

var errBadID = errors.New("invalid app id")

// CoerceID converts a loosely typed identifier to AppID.
func CoerceID(v interface{}) (models.AppID, error) {
	var id int64
	switch t := v.(type) {
	case nil:
		return 0, fmt.Errorf("%w: missing", errBadID)
	case models.AppID:
		id = int64(t)
	case int:
		id = int64(t)
	case int32:
		id = int64(t)
	case int64:
		id = t
	case uint32:
		id = int64(t)
	case float64:
		if t != math.Trunc(t) || t > math.MaxInt64 || t < math.MinInt64 {
			return 0, fmt.Errorf("%w: %v is not integral", errBadID, t)
		}
		id = int64(t)
	case json.Number:
		return CoerceID(t.String())
	case fmt.Stringer:
		return CoerceID(t.String())
	case string:
		s := strings.TrimSpace(t)
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			f, ferr := strconv.ParseFloat(s, 64)
			if ferr != nil {
				return 0, fmt.Errorf("%w: %q", errBadID, t)
			}
			return CoerceID(f)
		}
		id = n
	default:
		return 0, fmt.Errorf("%w: unsupported type %T", errBadID, v)
	}
	if id <= 0 {
		return 0, fmt.Errorf("%w: %d is not positive", errBadID, id)
	}
	return models.AppID(id), nil
}

// Normalize cleans raw catalog rows.
func (n *Normalizer) Normalize(rows []RawApp) ([]models.AppRecord, Stats) {
	stats := Stats{Input: len(rows)}
	candidates := make([]models.AppRecord, 0, len(rows))

	for i := range rows {
		row := &rows[i]
		id, err := CoerceID(row.AppID)
		if err != nil {
			stats.BadID++
			logging.Debug().Err(err).Int("row", i).Msg("Dropping row")
			continue
		}
		candidates = append(candidates, models.AppRecord{
			AppID:       id,
			Name:        row.Name,
			ReleaseDate: row.ReleaseDate,
			ReleaseYear: row.ReleaseYear,
			Price:       row.Price,
			Tags:        row.Tags,
			Type:        row.Type,
		})
	}

	apps := n.cleanRecords(candidates, &stats)
	return apps, stats
}

// NormalizeSnapshot cleans a collected snapshot. Reviews survive only when
// their app survived and their text is not blank.
func (n *Normalizer) NormalizeSnapshot(s models.Snapshot) (models.Snapshot, Stats) {
	stats := Stats{Input: len(s.Apps), ReviewsInInput: len(s.Reviews)}
	apps := n.cleanRecords(s.Apps, &stats)

	kept := make(map[models.AppID]bool, len(apps))
	for i := range apps {
		kept[apps[i].AppID] = true
	}

	reviews := make([]models.ReviewRecord, 0, len(s.Reviews))
	for i := range s.Reviews {
		r := s.Reviews[i]
		if !kept[r.AppID] {
			stats.OrphanReviews++
			continue
		}
		r.Text = strings.TrimSpace(r.Text)
		if r.Text == "" {
			stats.EmptyReviews++
			continue
		}
		if r.VotesUp < 0 {
			r.VotesUp = 0
		}
		reviews = append(reviews, r)
	}
	stats.ReviewsKept = len(reviews)

	return models.Snapshot{Apps: apps, Reviews: reviews}, stats
}

// cleanRecords validates, deduplicates and stamps typed records.
func (n *Normalizer) cleanRecords(in []models.AppRecord, stats *Stats) []models.AppRecord {
	now := n.Now()
	seen := make(map[models.AppID]bool, len(in))
	out := make([]models.AppRecord, 0, len(in))

	for i := range in {
		rec := in[i]
		rec.Name = strings.TrimSpace(rec.Name)

		if verr := validation.ValidateStruct(&rec); verr != nil {
			if verr.Has("app_id") {
				stats.BadID++
			} else {
				stats.MissingName++
			}
			logging.Debug().Int64("app_id", int64(rec.AppID)).Str("reason", verr.Error()).Msg("Dropping row")
			continue
		}
		if seen[rec.AppID] {
			stats.Duplicates++
			continue
		}
		seen[rec.AppID] = true

		rec.Tags = dedupTags(rec.Tags)
		if rec.Type == "" {
			rec.Type = models.AppTypeOther
		}
		if rec.Source == "" {
			rec.Source = n.Source
		}
		if rec.IngestedAt.IsZero() {
			rec.IngestedAt = now
		}
		out = append(out, rec)
	}
	stats.Kept = len(out)
	return out
}

// dedupTags trims, drops blanks and keeps first appearance order.
func dedupTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
