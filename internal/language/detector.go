// Gamescout - Steam Catalog and Review Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamescout

// Package language detects the natural language of review text.
package language

import (
	"errors"
	"strings"

	"github.com/abadojack/whatlanggo"
)

// ErrUndetermined is returned when no language can be assigned to a text.
// Callers treat it as "filtered out", never as a run failure.
var ErrUndetermined = errors.New("language undetermined")

// Detector maps text to an ISO 639-1 code.
type Detector interface {
	Detect(text string) (string, error)
}

// WhatlangDetector uses trigram statistics from whatlanggo.
type WhatlangDetector struct {
	// MinConfidence rejects detections below this score (0 accepts all).
	MinConfidence float64
}

// NewWhatlangDetector returns a detector with the given confidence floor.
func NewWhatlangDetector(minConfidence float64) *WhatlangDetector {
	return &WhatlangDetector{MinConfidence: minConfidence}
}

// Detect returns the ISO 639-1 code of text.
func (d *WhatlangDetector) Detect(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrUndetermined
	}

	info := whatlanggo.Detect(text)
	if info.Lang < 0 {
		return "", ErrUndetermined
	}
	code := info.Lang.Iso6391()
	if code == "" {
		return "", ErrUndetermined
	}
	if d.MinConfidence > 0 && info.Confidence < d.MinConfidence {
		return "", ErrUndetermined
	}
	return code, nil
}

// StaticDetector returns preset answers keyed by exact text. Unknown texts
// return Default, or ErrUndetermined when Default is empty.
type StaticDetector struct {
	Answers map[string]string
	Default string
}

// Detect implements Detector.
func (d StaticDetector) Detect(text string) (string, error) {
	if code, ok := d.Answers[text]; ok {
		if code == "" {
			return "", ErrUndetermined
		}
		return code, nil
	}
	if d.Default == "" {
		return "", ErrUndetermined
	}
	return d.Default, nil
}
