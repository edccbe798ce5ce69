// Gamescout - Steam Catalog and Review Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamescout

package ingest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/gamescout/internal/config"
	"github.com/tomtom215/gamescout/internal/language"
	"github.com/tomtom215/gamescout/internal/models"
	"github.com/tomtom215/gamescout/internal/normalize"
	"github.com/tomtom215/gamescout/internal/steamapi"
)

var fixedNow = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

func testNormalizer() *normalize.Normalizer {
	return &normalize.Normalizer{Source: "steam_official_api", Now: func() time.Time { return fixedNow }}
}

// mustDetails decodes an appdetails data object.
func mustDetails(t *testing.T, raw string) *steamapi.AppDetails {
	t.Helper()
	var d steamapi.AppDetails
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		t.Fatalf("bad details fixture: %v", err)
	}
	return &d
}

func gameJSON(name, date string) string {
	return fmt.Sprintf(`{"type":"game","name":%q,"release_date":{"coming_soon":false,"date":%q}}`, name, date)
}

// fakeStore is an in-memory StoreAPI. Apps without details answer
// success=false.
type fakeStore struct {
	mu      sync.Mutex
	details map[models.AppID]*steamapi.AppDetails
	reviews map[models.AppID][]steamapi.Review
	// errs returns a queued error per call before falling back to data.
	errs map[models.AppID][]error
	// onDetail runs before each detail lookup.
	onDetail func(id models.AppID)

	detailCalls atomic.Int32
	reviewCalls atomic.Int32
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		details: make(map[models.AppID]*steamapi.AppDetails),
		reviews: make(map[models.AppID][]steamapi.Review),
		errs:    make(map[models.AppID][]error),
	}
}

func (f *fakeStore) addGame(t *testing.T, id models.AppID, name string, reviews ...string) {
	t.Helper()
	f.details[id] = mustDetails(t, gameJSON(name, "1 Nov, 2000"))
	for i, text := range reviews {
		f.reviews[id] = append(f.reviews[id], steamapi.Review{
			RecommendationID: fmt.Sprintf("%d-%d", id, i),
			Review:           text,
			VotedUp:          true,
			VotesUp:          i,
		})
	}
}

func (f *fakeStore) failNext(id models.AppID, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[id] = append(f.errs[id], err)
}

func (f *fakeStore) FetchAppDetails(ctx context.Context, id models.AppID) (*steamapi.AppDetails, bool, error) {
	f.detailCalls.Add(1)
	if f.onDetail != nil {
		f.onDetail(id)
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if q := f.errs[id]; len(q) > 0 {
		f.errs[id] = q[1:]
		return nil, false, q[0]
	}
	d, ok := f.details[id]
	return d, ok, nil
}

func (f *fakeStore) FetchReviews(ctx context.Context, id models.AppID, q steamapi.ReviewQuery) ([]steamapi.Review, error) {
	f.reviewCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.reviews[id]
	if len(r) > q.Count {
		r = r[:q.Count]
	}
	return append([]steamapi.Review(nil), r...), nil
}

// memorySink records every snapshot written and can fail on demand.
type memorySink struct {
	mu     sync.Mutex
	writes []models.Snapshot
	fail   error
}

func (m *memorySink) Write(_ context.Context, s models.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.writes = append(m.writes, s)
	return nil
}

func (m *memorySink) Path() string { return "memory" }

func (m *memorySink) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.writes)
}

func (m *memorySink) last() models.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.writes) == 0 {
		return models.Snapshot{}
	}
	return m.writes[len(m.writes)-1]
}

func appIDs(apps []models.AppRecord) []models.AppID {
	out := make([]models.AppID, len(apps))
	for i := range apps {
		out[i] = apps[i].AppID
	}
	return out
}

// englishDetector treats every text as English except those listed.
func englishDetector(other map[string]string) language.Detector {
	return language.StaticDetector{Answers: other, Default: "en"}
}

func testFetcher(api StoreAPI, detector language.Detector, mutate func(*config.Config)) *Fetcher {
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	return NewFetcher(api, detector, &cfg.Filter, &cfg.Reviews)
}
