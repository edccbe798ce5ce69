// Gamescout - Steam Catalog and Review Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamescout

package steamapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/gamescout/internal/config"
	"github.com/tomtom215/gamescout/internal/models"
)

func TestFetchAppList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		want    int
		wantErr error
	}{
		{"valid", `{"applist":{"apps":[{"appid":10,"name":"Counter-Strike"},{"appid":20,"name":"TFC"}]}}`, 2, nil},
		{"missing applist", `{"response":{}}`, 0, ErrEmptyOrMalformedCatalog},
		{"missing apps", `{"applist":{}}`, 0, ErrEmptyOrMalformedCatalog},
		{"empty apps", `{"applist":{"apps":[]}}`, 0, ErrEmptyOrMalformedCatalog},
		{"not json", `<html>maintenance</html>`, 0, ErrEmptyOrMalformedCatalog},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			apps, err := newTestClient(t, srv, nil).FetchAppList(context.Background())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				if !IsFatal(err) || !errors.Is(err, ErrMalformedResponse) {
					t.Errorf("catalog error should be fatal and malformed: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("FetchAppList() error = %v", err)
			}
			if len(apps) != tt.want {
				t.Fatalf("len(apps) = %d, want %d", len(apps), tt.want)
			}
			if n, ok := apps[0].AppID.(json.Number); !ok || n.String() != "10" {
				t.Errorf("AppID = %#v, want json.Number 10", apps[0].AppID)
			}
		})
	}
}

func TestFetchAppList_SendsKeyWhenConfigured(t *testing.T) {
	t.Parallel()

	var gotKey atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey.Store(r.URL.Query().Get("key"))
		_, _ = w.Write([]byte(`{"applist":{"apps":[{"appid":1,"name":"x"}]}}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv, func(c *config.Config) { c.Steam.APIKey = "abc" })
	if _, err := client.FetchAppList(context.Background()); err != nil {
		t.Fatal(err)
	}
	if k, _ := gotKey.Load().(string); k != "abc" {
		t.Errorf("key = %q, want abc", k)
	}
}

func TestFetchAppDetails(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("cc") != "us" || q.Get("l") != "english" {
			t.Errorf("locale params = cc=%q l=%q", q.Get("cc"), q.Get("l"))
		}
		switch q.Get("appids") {
		case "10":
			_, _ = w.Write([]byte(`{"10":{"success":true,"data":{"type":"game","name":"Counter-Strike","steam_appid":10,
				"is_free":false,"release_date":{"coming_soon":false,"date":"1 Nov, 2000"},
				"price_overview":{"currency":"USD","final_formatted":"$9.99"},
				"genres":[{"id":"1","description":"Action"}],"categories":[{"id":1,"description":"Multi-player"}]}}}`))
		case "20":
			_, _ = w.Write([]byte(`{"20":{"success":false}}`))
		case "30":
			_, _ = w.Write([]byte(`{"30":{"success":false,"data":[]}}`))
		default:
			_, _ = w.Write([]byte(`garbage`))
		}
	}))
	defer srv.Close()
	client := newTestClient(t, srv, nil)

	d, ok, err := client.FetchAppDetails(context.Background(), 10)
	if err != nil || !ok {
		t.Fatalf("FetchAppDetails(10) = ok %v, err %v", ok, err)
	}
	if d.Name != "Counter-Strike" || d.Type != "game" || d.ReleaseDate.Date != "1 Nov, 2000" {
		t.Errorf("details = %+v", d)
	}
	if d.PriceOverview == nil || d.PriceOverview.FinalFormatted != "$9.99" {
		t.Errorf("price = %+v", d.PriceOverview)
	}
	if len(d.Genres) != 1 || len(d.Categories) != 1 {
		t.Errorf("genres/categories = %v/%v", d.Genres, d.Categories)
	}

	for _, id := range []int64{20, 30} {
		_, ok, err := client.FetchAppDetails(context.Background(), models.AppID(id))
		if err != nil || ok {
			t.Errorf("FetchAppDetails(%d) = ok %v, err %v; want not ok, nil", id, ok, err)
		}
	}

	if _, _, err := client.FetchAppDetails(context.Background(), 99); !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("garbage body error = %v, want ErrMalformedResponse", err)
	}
}

func TestFetchReviews_Paginates(t *testing.T) {
	t.Parallel()

	var pages atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("json") != "1" || q.Get("filter") != "recent" || q.Get("language") != "english" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		n, _ := strconv.Atoi(q.Get("num_per_page"))
		page := pages.Add(1)
		reviews := make([]Review, n)
		for i := range reviews {
			reviews[i] = Review{RecommendationID: fmt.Sprintf("%d-%d", page, i), Review: "fine", VotedUp: true}
		}
		success := 1
		_ = json.NewEncoder(w).Encode(reviewsResponse{Success: &success, Cursor: fmt.Sprintf("c%d", page), Reviews: reviews})
	}))
	defer srv.Close()

	got, err := newTestClient(t, srv, nil).FetchReviews(context.Background(), 570,
		ReviewQuery{Count: 150, Language: "english", Filter: "recent"})
	if err != nil {
		t.Fatalf("FetchReviews() error = %v", err)
	}
	if len(got) != 150 {
		t.Errorf("len = %d, want 150", len(got))
	}
	if p := pages.Load(); p != 2 {
		t.Errorf("pages = %d, want 2", p)
	}
}

func TestFetchReviews_StopsWhenExhausted(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/appreviews/10" {
			t.Errorf("path = %s", r.URL.Path)
		}
		// Storefront repeats the cursor once the sample is exhausted.
		_, _ = w.Write([]byte(`{"success":1,"cursor":"*","reviews":[{"recommendationid":"1","review":"ok","voted_up":true,"votes_up":3}]}`))
	}))
	defer srv.Close()

	got, err := newTestClient(t, srv, nil).FetchReviews(context.Background(), 10, ReviewQuery{Count: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].VotesUp != 3 {
		t.Errorf("reviews = %+v", got)
	}
}

func TestFetchReviews_FailureFlag(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":2}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, nil).FetchReviews(context.Background(), 10, ReviewQuery{Count: 5})
	if !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("error = %v, want ErrMalformedResponse", err)
	}
}

func TestFetchReviews_SuccessKeyOptional(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"reviews":[{"recommendationid":"7","review":"great game","voted_up":true,"votes_up":3}]}`))
	}))
	defer srv.Close()

	got, err := newTestClient(t, srv, nil).FetchReviews(context.Background(), 10, ReviewQuery{Count: 5})
	if err != nil {
		t.Fatalf("FetchReviews() error = %v", err)
	}
	if len(got) != 1 || got[0].Review != "great game" {
		t.Errorf("reviews = %+v, want one review", got)
	}
}

func TestFetchSearchPage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("page") != "3" || q.Get("filter") != "topsellers" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	body, err := newTestClient(t, srv, nil).FetchSearchPage(context.Background(), SearchQuery{Filter: "topsellers"}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "<html></html>" {
		t.Errorf("body = %s", body)
	}
}
