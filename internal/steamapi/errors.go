// Gamescout - Steam Catalog and Review Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamescout

package steamapi

import (
	"errors"
	"fmt"
)

// Failure kinds. Every error returned by Client wraps exactly one of these,
// or a context error when the caller cancelled.
var (
	// ErrRateLimited is HTTP 429 persisting after the retry budget.
	ErrRateLimited = errors.New("rate limited")

	// ErrForbidden is HTTP 401/403. The pipeline treats it as fatal for the run.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound is HTTP 404. The item is skipped.
	ErrNotFound = errors.New("not found")

	// ErrTransient covers network errors, timeouts, 5xx and other non-2xx statuses.
	ErrTransient = errors.New("transient failure")

	// ErrMalformedResponse means the body could not be decoded or lacked required keys.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrCircuitOpen means the circuit breaker rejected the request without sending it.
	ErrCircuitOpen = errors.New("circuit open")

	// ErrEmptyOrMalformedCatalog is fatal for catalog enumeration.
	ErrEmptyOrMalformedCatalog = fmt.Errorf("empty or malformed catalog: %w", ErrMalformedResponse)
)

// RequestError describes a failed storefront request.
type RequestError struct {
	Kind     error
	Endpoint string
	URL      string // query secrets removed
	Status   int    // 0 when no response was received
	Err      error
}

func (e *RequestError) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Endpoint, e.URL, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the underlying cause to errors.Is/As.
func (e *RequestError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// IsTransient reports whether err is worth retrying later.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient) || errors.Is(err, ErrRateLimited) || errors.Is(err, ErrCircuitOpen)
}

// IsFatal reports whether err should end the whole run.
func IsFatal(err error) bool {
	return errors.Is(err, ErrForbidden) || errors.Is(err, ErrEmptyOrMalformedCatalog)
}

// Outcome returns the metrics label for err.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	case errors.Is(err, ErrCircuitOpen):
		return "rejected"
	default:
		return "transient"
	}
}
