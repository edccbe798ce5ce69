// Gamescout - Steam Catalog and Review Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamescout

package models

import (
	"strconv"
	"time"
)

// AppID is the storefront's numeric application identifier.
// Valid identifiers are strictly positive.
type AppID int64

// String returns the decimal form used in URLs and envelope keys.
func (id AppID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Valid reports whether the identifier is usable.
func (id AppID) Valid() bool {
	return id > 0
}

// AppRef is an identifier emitted by a catalog enumerator.
type AppRef struct {
	ID AppID
	// Name is the display name known at enumeration time, if any.
	Name string
	// Index is the zero-based emission position. Workers may finish out of
	// order; the collector applies results in Index order.
	Index int
}

// AppType classifies a storefront application.
type AppType string

const (
	AppTypeGame  AppType = "game"
	AppTypeDLC   AppType = "dlc"
	AppTypeOther AppType = "other"
)

// ParseAppType maps the storefront's free-form type string onto AppType.
func ParseAppType(s string) AppType {
	switch s {
	case "game":
		return AppTypeGame
	case "dlc":
		return AppTypeDLC
	default:
		return AppTypeOther
	}
}

// AppRecord is an accepted, cleaned application. Records are never mutated
// after acceptance; checkpoints replace the whole collection.
type AppRecord struct {
	AppID       AppID     `json:"app_id" validate:"required,gt=0"`
	Name        string    `json:"name" validate:"notblank"`
	ReleaseDate string    `json:"release_date,omitempty"`
	ReleaseYear int       `json:"release_year,omitempty"`
	Price       string    `json:"price,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	Type        AppType   `json:"type,omitempty"`
	Source      string    `json:"source,omitempty"`
	IngestedAt  time.Time `json:"ingested_at"`
}
