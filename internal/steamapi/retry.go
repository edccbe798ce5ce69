// Gamescout - Steam Catalog and Review Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamescout

package steamapi

import (
	"context"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/gamescout/internal/config"
)

// RetryPolicy is the single retry rule shared by every endpoint.
//
// A response whose status is in RetryOn is retried after Cooldown until
// MaxAttempts requests have been sent; all other statuses are classified
// immediately. The storefront answers 429 with a long penalty window, so
// the default is one retry after a 30 second cooldown.
type RetryPolicy struct {
	MaxAttempts int
	Cooldown    time.Duration
	RetryOn     []int
}

// DefaultRetryPolicy returns one retry on 429 after 30s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 2,
		Cooldown:    30 * time.Second,
		RetryOn:     []int{http.StatusTooManyRequests},
	}
}

// NewRetryPolicy applies the configured attempts and cooldown to the
// default policy.
func NewRetryPolicy(cfg *config.HTTPConfig) RetryPolicy {
	p := DefaultRetryPolicy()
	if cfg.MaxAttempts > 0 {
		p.MaxAttempts = cfg.MaxAttempts
	}
	p.Cooldown = cfg.RateLimitCooldown
	return p
}

// ShouldRetry reports whether a response with status, received on the given
// 1-based attempt, earns another attempt.
func (p RetryPolicy) ShouldRetry(status, attempt int) bool {
	return attempt < p.MaxAttempts && slices.Contains(p.RetryOn, status)
}

// Delay returns the wait before the next attempt. A Retry-After header in
// seconds wins when it is longer than the cooldown.
func (p RetryPolicy) Delay(h http.Header) time.Duration {
	delay := p.Cooldown
	if ra := strings.TrimSpace(h.Get("Retry-After")); ra != "" {
		if secs, err := strconv.Atoi(ra); err == nil && secs > 0 {
			if d := time.Duration(secs) * time.Second; d > delay {
				delay = d
			}
		}
	}
	return delay
}

// classifyStatus maps a final HTTP status to a failure kind, or nil for 2xx.
func classifyStatus(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusTooManyRequests:
		return ErrRateLimited
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrForbidden
	case status == http.StatusNotFound:
		return ErrNotFound
	default:
		return ErrTransient
	}
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Sleep is the context-aware wait used for politeness delays outside the client.
func Sleep(ctx context.Context, d time.Duration) error {
	return sleepCtx(ctx, d)
}
