// Gamescout - Steam Catalog and Review Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamescout

// Package steamapi is the rate-limited HTTP client for the Steam storefront
// and Web API.
//
// Every request:
//   - waits on one shared rate limiter (the politeness delay, also the
//     aggregate ceiling when several workers share the client)
//   - carries the configured User-Agent and a bounded timeout
//   - passes through a circuit breaker that counts only transient failures
//   - follows RetryPolicy for 429 and is classified into the kinds in errors.go
//
// The client never retries indefinitely and never panics on network errors.
package steamapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/gamescout/internal/config"
	"github.com/tomtom215/gamescout/internal/logging"
	"github.com/tomtom215/gamescout/internal/metrics"
)

// Response is a fully read, decoded 2xx response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Client talks to the storefront. Safe for concurrent use.
type Client struct {
	steam   config.SteamConfig
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[*Response]
	policy  RetryPolicy

	timeout        time.Duration
	catalogTimeout time.Duration
	breakerTimeout time.Duration
}

// NewClient creates a client from configuration.
func NewClient(steamCfg *config.SteamConfig, httpCfg *config.HTTPConfig) *Client {
	limit := rate.Inf
	if httpCfg.RequestDelay > 0 {
		limit = rate.Every(httpCfg.RequestDelay)
	}

	c := &Client{
		steam:   *steamCfg,
		http:    &http.Client{},
		limiter: rate.NewLimiter(limit, 1),
		policy:  NewRetryPolicy(httpCfg),
		timeout:        httpCfg.Timeout,
		catalogTimeout: httpCfg.CatalogTimeout,
		breakerTimeout: httpCfg.BreakerTimeout,
	}
	if httpCfg.BreakerEnabled {
		c.breaker = newBreaker(httpCfg)
	}
	if steamCfg.APIKey == "" {
		logging.Warn().Msg("STEAM_API_KEY not set; using unauthenticated storefront access")
	}
	return c
}

// BreakerTimeout is how long an open circuit stays open.
func (c *Client) BreakerTimeout() time.Duration {
	return c.breakerTimeout
}

// Get fetches rawURL with params using the per-request timeout.
func (c *Client) Get(ctx context.Context, endpoint, rawURL string, params url.Values) (*Response, error) {
	return c.get(ctx, endpoint, rawURL, params, c.timeout)
}

// GetWithTimeout is Get with an explicit per-request timeout.
func (c *Client) GetWithTimeout(ctx context.Context, endpoint, rawURL string, params url.Values, timeout time.Duration) (*Response, error) {
	return c.get(ctx, endpoint, rawURL, params, timeout)
}

func (c *Client) get(ctx context.Context, endpoint, rawURL string, params url.Values, timeout time.Duration) (*Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid %s URL: %w", endpoint, err)
	}
	if len(params) > 0 {
		q := u.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	if c.breaker == nil {
		return c.doWithRetry(ctx, endpoint, u, timeout)
	}

	resp, err := c.breaker.Execute(func() (*Response, error) {
		return c.doWithRetry(ctx, endpoint, u, timeout)
	})
	if err != nil && isRejection(err) {
		metrics.RecordRequest(endpoint, "rejected", 0)
		return nil, &RequestError{Kind: ErrCircuitOpen, Endpoint: endpoint, URL: redact(u), Err: err}
	}
	return resp, err
}

// doWithRetry sends the request, applying the retry policy.
func (c *Client) doWithRetry(ctx context.Context, endpoint string, u *url.URL, timeout time.Duration) (*Response, error) {
	for attempt := 1; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		start := time.Now()
		resp, err := c.do(ctx, u, timeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			reqErr := &RequestError{Kind: ErrTransient, Endpoint: endpoint, URL: redact(u), Err: err}
			metrics.RecordRequest(endpoint, Outcome(reqErr), time.Since(start))
			return nil, reqErr
		}

		if c.policy.ShouldRetry(resp.Status, attempt) {
			delay := c.policy.Delay(resp.Header)
			metrics.RecordRequest(endpoint, "rate_limited", time.Since(start))
			metrics.RateLimitCooldowns.Inc()
			logging.Warn().
				Str("endpoint", endpoint).
				Int("status", resp.Status).
				Int("attempt", attempt).
				Dur("cooldown", delay).
				Msg("Rate limited, cooling down before retry")
			if err := sleepCtx(ctx, delay); err != nil {
				return nil, err
			}
			continue
		}

		kind := classifyStatus(resp.Status)
		if kind == nil {
			metrics.RecordRequest(endpoint, "ok", time.Since(start))
			return resp, nil
		}

		reqErr := &RequestError{Kind: kind, Endpoint: endpoint, URL: redact(u), Status: resp.Status}
		if body := snippet(resp.Body); body != "" && !errors.Is(kind, ErrNotFound) {
			reqErr.Err = errors.New(body)
		}
		metrics.RecordRequest(endpoint, Outcome(reqErr), time.Since(start))
		return nil, reqErr
	}
}

// do performs one HTTP exchange and reads the decoded body.
func (c *Client) do(ctx context.Context, u *url.URL, timeout time.Duration) (*Response, error) {
	reqCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.steam.UserAgent)
	req.Header.Set("Accept-Encoding", acceptEncoding)
	req.Header.Set("Accept", "application/json, text/html;q=0.9, */*;q=0.8")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp.Header.Get("Content-Encoding"), resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

// redact drops secrets from a URL before it reaches logs or errors.
func redact(u *url.URL) string {
	q := u.Query()
	if q.Has("key") {
		q.Set("key", "REDACTED")
		cp := *u
		cp.RawQuery = q.Encode()
		return cp.String()
	}
	return u.String()
}
