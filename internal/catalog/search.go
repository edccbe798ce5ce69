// Gamescout - Steam Catalog and Review Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamescout

package catalog

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/tomtom215/gamescout/internal/logging"
	"github.com/tomtom215/gamescout/internal/models"
	"github.com/tomtom215/gamescout/internal/normalize"
	"github.com/tomtom215/gamescout/internal/steamapi"
)

// SearchPageSource fetches raw storefront search result pages.
type SearchPageSource interface {
	FetchSearchPage(ctx context.Context, q steamapi.SearchQuery, page int) ([]byte, error)
}

// SearchOptions configures storefront search pagination.
type SearchOptions struct {
	Query steamapi.SearchQuery
	Pages int           // last page requested, starting at 1
	Delay time.Duration // pause between pages on top of the client limiter
}

// SearchEnumerator walks storefront search result pages.
type SearchEnumerator struct {
	source SearchPageSource
	opts   SearchOptions
}

// NewSearchEnumerator returns an enumerator over opts.Pages result pages.
func NewSearchEnumerator(source SearchPageSource, opts SearchOptions) *SearchEnumerator {
	if opts.Pages <= 0 {
		opts.Pages = 1
	}
	return &SearchEnumerator{source: source, opts: opts}
}

// SearchHit is one identifier found on a results page.
type SearchHit struct {
	ID   models.AppID
	Name string
}

// ParseSearchPage extracts app identifiers from a results page. Rows listing
// several ids (bundles) yield one hit per id.
func ParseSearchPage(body []byte) ([]SearchHit, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse search page: %w", err)
	}

	var hits []SearchHit
	doc.Find("a.search_result_row[data-ds-appid]").Each(func(_ int, s *goquery.Selection) {
		raw, _ := s.Attr("data-ds-appid")
		name := strings.TrimSpace(s.Find(".title").First().Text())
		for _, part := range strings.Split(raw, ",") {
			id, err := normalize.CoerceID(strings.TrimSpace(part))
			if err != nil {
				continue
			}
			hits = append(hits, SearchHit{ID: id, Name: name})
		}
	})
	return hits, nil
}

// Enumerate implements Enumerator. It stops after the last configured page
// or at the first page without results. Failed pages are skipped unless the
// failure is fatal; if no page succeeds the last error is returned.
func (s *SearchEnumerator) Enumerate(ctx context.Context, emit func(models.AppRef) error) error {
	log := logging.WithComponent("search_enumerator")
	e := newEmitter(emit)

	var lastErr error
	succeeded := 0
	for page := 1; page <= s.opts.Pages; page++ {
		if page > 1 && s.opts.Delay > 0 {
			if err := steamapi.Sleep(ctx, s.opts.Delay); err != nil {
				return err
			}
		}

		body, err := s.source.FetchSearchPage(ctx, s.opts.Query, page)
		if err == nil {
			var hits []SearchHit
			if hits, err = ParseSearchPage(body); err == nil {
				succeeded++
				if len(hits) == 0 {
					log.Debug().Int("page", page).Msg("Empty search page, stopping")
					return nil
				}
				added := 0
				for _, h := range hits {
					ok, emitErr := e.add(h.ID, h.Name)
					if emitErr != nil {
						return emitErr
					}
					if ok {
						added++
					}
				}
				log.Debug().Int("page", page).Int("hits", len(hits)).Int("new", added).Msg("Search page parsed")
				continue
			}
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if steamapi.IsFatal(err) {
			return err
		}
		lastErr = err
		log.Warn().Err(err).Int("page", page).Msg("Search page failed, skipping")
	}

	if succeeded == 0 && lastErr != nil {
		return fmt.Errorf("all search pages failed: %w", lastErr)
	}
	return nil
}
