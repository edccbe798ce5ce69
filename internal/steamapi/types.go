// Gamescout - Steam Catalog and Review Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamescout

package steamapi

import "github.com/goccy/go-json"

// appListResponse is the GetAppList v2 payload:
// {"applist":{"apps":[{"appid":10,"name":"Counter-Strike"}]}}
// Pointers distinguish a missing key from an empty value.
type appListResponse struct {
	AppList *struct {
		Apps *[]AppListEntry `json:"apps"`
	} `json:"applist"`
}

// AppListEntry is one catalog row. AppID is left untyped (json.Number or
// string) for the normalizer to coerce.
type AppListEntry struct {
	AppID interface{} `json:"appid"`
	Name  string      `json:"name"`
}

// appDetailsResult is the value under the app ID key of an appdetails payload.
// Data is kept raw because failed lookups sometimes carry "data":[].
type appDetailsResult struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

// AppDetails is the subset of appdetails data Gamescout uses.
type AppDetails struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	SteamAppID  int64  `json:"steam_appid"`
	IsFree      bool   `json:"is_free"`
	ReleaseDate struct {
		ComingSoon bool   `json:"coming_soon"`
		Date       string `json:"date"`
	} `json:"release_date"`
	PriceOverview *struct {
		Currency       string `json:"currency"`
		FinalFormatted string `json:"final_formatted"`
	} `json:"price_overview"`
	Genres     []Descriptor `json:"genres"`
	Categories []Descriptor `json:"categories"`
}

// Descriptor is a genre or category entry.
type Descriptor struct {
	Description string `json:"description"`
}

// reviewsResponse is the appreviews payload with json=1.
type reviewsResponse struct {
	Success      *int   `json:"success"` // absent on some mirrors
	Cursor       string `json:"cursor"`
	QuerySummary struct {
		NumReviews   int `json:"num_reviews"`
		TotalReviews int `json:"total_reviews"`
	} `json:"query_summary"`
	Reviews []Review `json:"reviews"`
}

// Review is one raw user review.
type Review struct {
	RecommendationID string `json:"recommendationid"`
	Language         string `json:"language"`
	Review           string `json:"review"`
	VotedUp          bool   `json:"voted_up"`
	VotesUp          int    `json:"votes_up"`
	TimestampCreated int64  `json:"timestamp_created"`
}

// ReviewQuery shapes one review sample request.
type ReviewQuery struct {
	Count    int    // total reviews wanted; pages of up to 100 are fetched
	Language string // storefront language name, e.g. "english"
	Filter   string // recent, updated, all
	DayRange int    // only with filter=all; 0 omits the parameter
}

// SearchQuery shapes storefront search pagination.
type SearchQuery struct {
	Term     string
	Category string // category1 parameter
	Filter   string // e.g. topsellers
}
