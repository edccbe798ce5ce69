// Gamescout - Steam Catalog and Review Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamescout

package steamapi

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/tomtom215/gamescout/internal/models"
)

// Endpoint labels used in logs and metrics.
const (
	EndpointAppList    = "applist"
	EndpointAppDetails = "appdetails"
	EndpointReviews    = "appreviews"
	EndpointSearch     = "search"
)

// maxReviewsPerPage is the storefront's num_per_page ceiling.
const maxReviewsPerPage = 100

// FetchAppList downloads the full catalog. A missing or empty apps array
// returns ErrEmptyOrMalformedCatalog.
func (c *Client) FetchAppList(ctx context.Context) ([]AppListEntry, error) {
	params := url.Values{}
	if c.steam.APIKey != "" {
		params.Set("key", c.steam.APIKey)
	}

	resp, err := c.GetWithTimeout(ctx, EndpointAppList, c.steam.AppListURL, params, c.catalogTimeout)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(resp.Body))
	dec.UseNumber()
	var payload appListResponse
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmptyOrMalformedCatalog, err)
	}
	if payload.AppList == nil || payload.AppList.Apps == nil {
		return nil, fmt.Errorf("%w: missing applist.apps", ErrEmptyOrMalformedCatalog)
	}
	if len(*payload.AppList.Apps) == 0 {
		return nil, fmt.Errorf("%w: applist.apps is empty", ErrEmptyOrMalformedCatalog)
	}
	return *payload.AppList.Apps, nil
}

// FetchAppDetails looks up one app. ok is false when the storefront reports
// success=false or omits the app.
func (c *Client) FetchAppDetails(ctx context.Context, id models.AppID) (details *AppDetails, ok bool, err error) {
	params := url.Values{}
	params.Set("appids", id.String())
	if c.steam.Country != "" {
		params.Set("cc", c.steam.Country)
	}
	if c.steam.Language != "" {
		params.Set("l", c.steam.Language)
	}

	resp, err := c.Get(ctx, EndpointAppDetails, c.steam.AppDetailsURL, params)
	if err != nil {
		return nil, false, err
	}

	var envelope map[string]appDetailsResult
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return nil, false, malformed(EndpointAppDetails, err)
	}
	result, found := envelope[id.String()]
	if !found || !result.Success {
		return nil, false, nil
	}

	var d AppDetails
	if err := json.Unmarshal(result.Data, &d); err != nil {
		return nil, false, malformed(EndpointAppDetails, err)
	}
	return &d, true, nil
}

// FetchReviews returns up to q.Count raw reviews, following the cursor when
// more than one page is needed. It stops early when the storefront runs out.
func (c *Client) FetchReviews(ctx context.Context, id models.AppID, q ReviewQuery) ([]Review, error) {
	if q.Count <= 0 {
		return nil, nil
	}

	endpointURL := fmt.Sprintf(c.steam.ReviewsURL, int64(id))
	cursor := "*"
	seenCursors := map[string]bool{}
	out := make([]Review, 0, q.Count)

	for len(out) < q.Count {
		perPage := min(q.Count-len(out), maxReviewsPerPage)

		params := url.Values{}
		params.Set("json", "1")
		params.Set("num_per_page", strconv.Itoa(perPage))
		params.Set("review_type", "all")
		params.Set("purchase_type", "all")
		params.Set("cursor", cursor)
		if q.Language != "" {
			params.Set("language", q.Language)
		}
		if q.Filter != "" {
			params.Set("filter", q.Filter)
		}
		if q.DayRange > 0 {
			params.Set("day_range", strconv.Itoa(q.DayRange))
		}

		resp, err := c.Get(ctx, EndpointReviews, endpointURL, params)
		if err != nil {
			return nil, err
		}

		var page reviewsResponse
		if err := json.Unmarshal(resp.Body, &page); err != nil {
			return nil, malformed(EndpointReviews, err)
		}
		if page.Success != nil && *page.Success != 1 {
			return nil, &RequestError{Kind: ErrMalformedResponse, Endpoint: EndpointReviews, URL: endpointURL,
				Err: fmt.Errorf("success=%d", *page.Success)}
		}

		out = append(out, page.Reviews...)
		seenCursors[cursor] = true
		if len(page.Reviews) < perPage || page.Cursor == "" || seenCursors[page.Cursor] {
			break
		}
		cursor = page.Cursor
	}

	if len(out) > q.Count {
		out = out[:q.Count]
	}
	return out, nil
}

// FetchSearchPage returns the HTML of one storefront search results page.
func (c *Client) FetchSearchPage(ctx context.Context, q SearchQuery, page int) ([]byte, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	if q.Term != "" {
		params.Set("term", q.Term)
	}
	if q.Category != "" {
		params.Set("category1", q.Category)
	}
	if q.Filter != "" {
		params.Set("filter", q.Filter)
	}
	if c.steam.Country != "" {
		params.Set("cc", c.steam.Country)
	}
	if c.steam.Language != "" {
		params.Set("l", c.steam.Language)
	}

	resp, err := c.Get(ctx, EndpointSearch, c.steam.SearchURL, params)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func malformed(endpoint string, err error) error {
	return &RequestError{Kind: ErrMalformedResponse, Endpoint: endpoint, Err: err}
}
