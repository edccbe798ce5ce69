// Gamescout - Steam Catalog and Review Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamescout

package ingest

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/tomtom215/gamescout/internal/config"
	"github.com/tomtom215/gamescout/internal/models"
	"github.com/tomtom215/gamescout/internal/steamapi"
)

func TestExtractYear(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"1 Nov, 2000", 2000, true},
		{"Aug 21, 2012", 2012, true},
		{"Q3 2025", 2025, true},
		{"2019", 2019, true},
		{"Coming soon", 0, false},
		{"", 0, false},
		{"To be announced", 0, false},
		{"Build 1234, released 2015", 2015, true},
		{"Build 3021", 3021, true},
		{"12345", 0, false},
		{"Dec2015", 2015, true},
		{"2015年3月", 2015, true},
		{"released:1999.", 1999, true},
	}
	for _, tt := range tests {
		got, ok := ExtractYear(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ExtractYear(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestFetchDetail_Filters(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.details[1] = mustDetails(t, gameJSON("Half-Life", "8 Nov, 1998"))
	store.details[2] = mustDetails(t, `{"type":"dlc","name":"Soundtrack","release_date":{"date":"1 Jan, 2010"}}`)
	store.details[3] = mustDetails(t, `{"type":"game","name":"Soon","release_date":{"coming_soon":true,"date":"2027"}}`)
	store.details[4] = mustDetails(t, gameJSON("Undated", "To be announced"))
	store.details[5] = mustDetails(t, gameJSON("Old", "1 Jan, 1985"))
	store.details[6] = mustDetails(t, gameJSON("   ", "1 Jan, 2010"))
	// id 7 has no details: success=false

	f := testFetcher(store, englishDetector(nil), func(c *config.Config) {
		c.Filter.MinYear = 1990
	})

	tests := []struct {
		id     models.AppID
		reason SkipReason
	}{
		{2, SkipNotGame},
		{3, SkipComingSoon},
		{4, SkipNoYear},
		{5, SkipYearOutOfRange},
		{6, SkipNoName},
		{7, SkipNotSuccessful},
	}
	for _, tt := range tests {
		_, err := f.FetchDetail(context.Background(), models.AppRef{ID: tt.id})
		if !errors.Is(err, ErrSkip) {
			t.Errorf("id %d: error = %v, want skip", tt.id, err)
			continue
		}
		if got := SkipReasonOf(err); got != tt.reason {
			t.Errorf("id %d: reason = %s, want %s", tt.id, got, tt.reason)
		}
	}

	app, err := f.FetchDetail(context.Background(), models.AppRef{ID: 1})
	if err != nil {
		t.Fatalf("FetchDetail(1) error = %v", err)
	}
	if app.Name != "Half-Life" || app.ReleaseYear != 1998 || app.Type != models.AppTypeGame {
		t.Errorf("app = %+v", app)
	}
}

func TestFetchDetail_PriceTagsAndNameFallback(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.details[10] = mustDetails(t, `{
		"type":"game","name":"","is_free":false,
		"release_date":{"date":"1 Nov, 2000"},
		"price_overview":{"currency":"USD","final_formatted":"$9.99"},
		"genres":[{"description":"Action"}],
		"categories":[{"description":"Multi-player"},{"description":"Action"},{"description":" "}]
	}`)
	store.details[11] = mustDetails(t, `{"type":"game","name":"Free Thing","is_free":true,"release_date":{"date":"2021"}}`)

	f := testFetcher(store, englishDetector(nil), nil)

	app, err := f.FetchDetail(context.Background(), models.AppRef{ID: 10, Name: "Counter-Strike"})
	if err != nil {
		t.Fatal(err)
	}
	if app.Name != "Counter-Strike" || app.Price != "$9.99" {
		t.Errorf("app = %+v", app)
	}
	if !reflect.DeepEqual(app.Tags, []string{"Action", "Multi-player"}) {
		t.Errorf("tags = %v", app.Tags)
	}

	free, err := f.FetchDetail(context.Background(), models.AppRef{ID: 11})
	if err != nil {
		t.Fatal(err)
	}
	if free.Price != "Free" {
		t.Errorf("price = %q, want Free", free.Price)
	}
}

func TestFetchDetail_PropagatesRequestErrors(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.failNext(1, &steamapi.RequestError{Kind: steamapi.ErrNotFound, Status: 404})

	_, err := testFetcher(store, englishDetector(nil), nil).FetchDetail(context.Background(), models.AppRef{ID: 1})
	if !errors.Is(err, steamapi.ErrNotFound) || errors.Is(err, ErrSkip) {
		t.Errorf("error = %v, want not found", err)
	}
}

func TestFetchReviews_Filters(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.reviews[10] = []steamapi.Review{
		{RecommendationID: "a", Review: "  Great classic shooter  ", VotedUp: true, VotesUp: 5, TimestampCreated: 1700000000},
		{RecommendationID: "b", Review: "   "},
		{RecommendationID: "c", Review: "Ein großartiges Spiel"},
		{RecommendationID: "d", Review: "???"},
		{RecommendationID: "e", Review: "Still fun", VotesUp: -3},
	}
	detector := englishDetector(map[string]string{
		"Ein großartiges Spiel": "de",
		"???":                   "",
	})

	reviews, counts, err := testFetcher(store, detector, nil).FetchReviews(context.Background(), 10, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(reviews) != 2 {
		t.Fatalf("kept %d reviews, want 2", len(reviews))
	}
	if reviews[0].Text != "Great classic shooter" || reviews[0].Language != "en" || reviews[0].CreatedAt == nil {
		t.Errorf("review[0] = %+v", reviews[0])
	}
	if reviews[1].VotesUp != 0 || reviews[1].AppID != 10 {
		t.Errorf("review[1] = %+v", reviews[1])
	}
	want := FilterCounts{Empty: 1, Language: 1, Detector: 1}
	if counts != want {
		t.Errorf("counts = %+v, want %+v", counts, want)
	}
}

func TestFetchReviews_ZeroCount(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	reviews, _, err := testFetcher(store, englishDetector(nil), nil).FetchReviews(context.Background(), 10, 0)
	if err != nil || reviews != nil {
		t.Errorf("FetchReviews(count=0) = %v, %v", reviews, err)
	}
	if store.reviewCalls.Load() != 0 {
		t.Error("count 0 must not call the storefront")
	}
}
