// Gamescout - Steam Catalog and Review Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamescout

package models

import "time"

// ReviewRecord is one language-filtered user review of an accepted app.
type ReviewRecord struct {
	AppID    AppID  `json:"app_id"`
	ReviewID string `json:"review_id,omitempty"`
	Text     string `json:"review_text"`
	VotedUp  bool   `json:"voted_up"`
	VotesUp  int    `json:"votes_up"`
	// Language is the detected ISO 639-1 code of Text.
	Language  string     `json:"language,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// Snapshot is the full in-memory collection written at every checkpoint.
// It is never a delta.
type Snapshot struct {
	Apps    []AppRecord
	Reviews []ReviewRecord
}

// ReviewsByApp groups reviews by app, preserving review order within each app.
func (s *Snapshot) ReviewsByApp() map[AppID][]ReviewRecord {
	out := make(map[AppID][]ReviewRecord, len(s.Apps))
	for i := range s.Reviews {
		r := s.Reviews[i]
		out[r.AppID] = append(out[r.AppID], r)
	}
	return out
}

// ReviewRow is one row of the flat app-by-review dataset.
type ReviewRow struct {
	App    AppRecord
	Review ReviewRecord
}

// Rows joins apps with their reviews in app order. Apps without reviews
// produce no rows.
func (s *Snapshot) Rows() []ReviewRow {
	byApp := s.ReviewsByApp()
	rows := make([]ReviewRow, 0, len(s.Reviews))
	for i := range s.Apps {
		app := s.Apps[i]
		for _, r := range byApp[app.AppID] {
			rows = append(rows, ReviewRow{App: app, Review: r})
		}
	}
	return rows
}
