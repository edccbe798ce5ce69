// Gamescout - Steam Catalog and Review Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamescout

package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/gamescout/internal/config"
	"github.com/tomtom215/gamescout/internal/language"
	"github.com/tomtom215/gamescout/internal/metrics"
	"github.com/tomtom215/gamescout/internal/models"
	"github.com/tomtom215/gamescout/internal/steamapi"
)

// StoreAPI is the subset of the storefront client used per app.
type StoreAPI interface {
	FetchAppDetails(ctx context.Context, id models.AppID) (*steamapi.AppDetails, bool, error)
	FetchReviews(ctx context.Context, id models.AppID, q steamapi.ReviewQuery) ([]steamapi.Review, error)
}

// SkipReason explains why an app was filtered out.
type SkipReason string

const (
	SkipNotSuccessful  SkipReason = "not_successful"
	SkipNotGame        SkipReason = "not_game"
	SkipComingSoon     SkipReason = "coming_soon"
	SkipNoYear         SkipReason = "no_year"
	SkipYearOutOfRange SkipReason = "year_out_of_range"
	SkipNoName         SkipReason = "no_name"
	SkipNoReviews      SkipReason = "no_reviews"
)

// ErrSkip marks an app that was filtered out. Skips are not failures.
var ErrSkip = errors.New("app filtered out")

// SkipError carries the reason an app was skipped.
type SkipError struct {
	ID     models.AppID
	Reason SkipReason
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("app %d filtered out: %s", e.ID, e.Reason)
}

// Is makes errors.Is(err, ErrSkip) true.
func (e *SkipError) Is(target error) bool { return target == ErrSkip }

func skip(id models.AppID, reason SkipReason) error {
	return &SkipError{ID: id, Reason: reason}
}

// SkipReasonOf returns the reason carried by err, or "" if err is not a skip.
func SkipReasonOf(err error) SkipReason {
	var se *SkipError
	if errors.As(err, &se) {
		return se.Reason
	}
	return ""
}

// FilterCounts tallies reviews dropped by the per-review filter.
type FilterCounts struct {
	Empty    int
	Language int
	Detector int
}

// Total is the number of dropped reviews.
func (c FilterCounts) Total() int { return c.Empty + c.Language + c.Detector }

// Fetcher turns identifiers into accepted records.
type Fetcher struct {
	api      StoreAPI
	detector language.Detector
	filter   config.FilterConfig
	reviews  config.ReviewsConfig
	types    map[models.AppType]bool
}

// NewFetcher returns a Fetcher applying filterCfg and reviewsCfg.
func NewFetcher(api StoreAPI, detector language.Detector, filterCfg *config.FilterConfig, reviewsCfg *config.ReviewsConfig) *Fetcher {
	types := make(map[models.AppType]bool, len(filterCfg.Types))
	for _, t := range filterCfg.Types {
		types[models.ParseAppType(strings.TrimSpace(t))] = true
	}
	return &Fetcher{
		api:      api,
		detector: detector,
		filter:   *filterCfg,
		reviews:  *reviewsCfg,
		types:    types,
	}
}

// FetchDetail loads and filters one app. Filtered apps return a *SkipError.
func (f *Fetcher) FetchDetail(ctx context.Context, ref models.AppRef) (models.AppRecord, error) {
	details, ok, err := f.api.FetchAppDetails(ctx, ref.ID)
	if err != nil {
		return models.AppRecord{}, err
	}
	if !ok || details == nil {
		return models.AppRecord{}, skip(ref.ID, SkipNotSuccessful)
	}

	typ := models.ParseAppType(details.Type)
	if !f.types[typ] {
		return models.AppRecord{}, skip(ref.ID, SkipNotGame)
	}
	if f.filter.SkipComingSoon && details.ReleaseDate.ComingSoon {
		return models.AppRecord{}, skip(ref.ID, SkipComingSoon)
	}

	name := strings.TrimSpace(details.Name)
	if name == "" {
		name = strings.TrimSpace(ref.Name)
	}
	if name == "" {
		return models.AppRecord{}, skip(ref.ID, SkipNoName)
	}

	year, ok := ExtractYear(details.ReleaseDate.Date)
	if !ok {
		return models.AppRecord{}, skip(ref.ID, SkipNoYear)
	}
	if (f.filter.MinYear > 0 && year < f.filter.MinYear) || (f.filter.MaxYear > 0 && year > f.filter.MaxYear) {
		return models.AppRecord{}, skip(ref.ID, SkipYearOutOfRange)
	}

	return models.AppRecord{
		AppID:       ref.ID,
		Name:        name,
		ReleaseDate: strings.TrimSpace(details.ReleaseDate.Date),
		ReleaseYear: year,
		Price:       price(details),
		Tags:        tags(details),
		Type:        typ,
	}, nil
}

func price(d *steamapi.AppDetails) string {
	if d.PriceOverview != nil && d.PriceOverview.FinalFormatted != "" {
		return d.PriceOverview.FinalFormatted
	}
	if d.IsFree {
		return "Free"
	}
	return ""
}

// tags merges genre and category descriptions, first appearance wins.
func tags(d *steamapi.AppDetails) []string {
	seen := make(map[string]bool)
	var out []string
	for _, group := range [][]steamapi.Descriptor{d.Genres, d.Categories} {
		for _, desc := range group {
			t := strings.TrimSpace(desc.Description)
			if t == "" || seen[t] {
				continue
			}
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// FetchReviews loads up to count reviews for id and keeps those written in
// the target language. A detector failure drops the review.
func (f *Fetcher) FetchReviews(ctx context.Context, id models.AppID, count int) ([]models.ReviewRecord, FilterCounts, error) {
	var counts FilterCounts
	if count <= 0 {
		return nil, counts, nil
	}

	raw, err := f.api.FetchReviews(ctx, id, steamapi.ReviewQuery{
		Count:    count,
		Language: f.reviews.Language,
		Filter:   f.reviews.Filter,
		DayRange: f.reviews.DayRange,
	})
	if err != nil {
		return nil, counts, err
	}

	out := make([]models.ReviewRecord, 0, len(raw))
	for i := range raw {
		r := &raw[i]
		text := strings.TrimSpace(r.Review)
		if text == "" {
			counts.Empty++
			metrics.ReviewsDropped.WithLabelValues("empty").Inc()
			continue
		}

		lang, derr := f.detector.Detect(text)
		if derr != nil {
			counts.Detector++
			metrics.ReviewsDropped.WithLabelValues("detector").Inc()
			continue
		}
		if f.filter.TargetLanguage != "" && lang != f.filter.TargetLanguage {
			counts.Language++
			metrics.ReviewsDropped.WithLabelValues("language").Inc()
			continue
		}

		votes := r.VotesUp
		if votes < 0 {
			votes = 0
		}
		rec := models.ReviewRecord{
			AppID:    id,
			ReviewID: r.RecommendationID,
			Text:     text,
			VotedUp:  r.VotedUp,
			VotesUp:  votes,
			Language: lang,
		}
		if r.TimestampCreated > 0 {
			t := time.Unix(r.TimestampCreated, 0).UTC()
			rec.CreatedAt = &t
		}
		out = append(out, rec)
	}
	metrics.ReviewsKept.Add(float64(len(out)))
	return out, counts, nil
}
