// Gamescout - Steam Catalog and Review Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamescout

package ingest

import (
	"time"

	"github.com/tomtom215/gamescout/internal/models"
)

// RunStats holds statistics about a crawl run.
type RunStats struct {
	// RunID correlates log lines of one run.
	RunID string `json:"run_id"`

	// ResumedFrom is the run ID a resumed crawl continues.
	ResumedFrom string `json:"resumed_from,omitempty"`

	// Enumerated is the number of identifiers the catalog yielded.
	Enumerated int64 `json:"enumerated"`

	// Processed counts identifiers handled, whatever the outcome.
	Processed int64 `json:"processed"`

	// Accepted counts apps added to the collection.
	Accepted int64 `json:"accepted"`

	// Filtered counts apps skipped by a filter rule.
	Filtered   int64                `json:"filtered"`
	FilteredBy map[SkipReason]int64 `json:"filtered_by,omitempty"`

	// Errors counts apps that failed to fetch.
	Errors int64 `json:"errors"`

	// Resumed counts identifiers skipped because a previous run finished them.
	Resumed int64 `json:"resumed"`

	ReviewsKept     int64 `json:"reviews_kept"`
	ReviewsFiltered int64 `json:"reviews_filtered"`

	Checkpoints int64 `json:"checkpoints"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	// LastProcessedID is the most recent identifier applied in order.
	LastProcessedID models.AppID `json:"last_processed_id"`

	// Aborted is set when a fatal error ended the run early.
	Aborted bool `json:"aborted"`
}

func newRunStats(runID string) *RunStats {
	return &RunStats{
		RunID:      runID,
		FilteredBy: make(map[SkipReason]int64),
		StartTime:  time.Now(),
	}
}

// Duration returns the elapsed run time.
func (s *RunStats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// ItemsPerSecond returns the processing rate.
func (s *RunStats) ItemsPerSecond() float64 {
	duration := s.Duration().Seconds()
	if duration == 0 {
		return 0
	}
	return float64(s.Processed) / duration
}

// Clone returns a deep copy.
func (s *RunStats) Clone() *RunStats {
	c := *s
	c.FilteredBy = make(map[SkipReason]int64, len(s.FilteredBy))
	for k, v := range s.FilteredBy {
		c.FilteredBy[k] = v
	}
	return &c
}
