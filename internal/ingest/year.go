// Gamescout - Steam Catalog and Review Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamescout

package ingest

import (
	"regexp"
	"strconv"
)

var (
	// Tokens are bounded by non-digits only, so "Dec2015" yields 2015.
	centuryYear = regexp.MustCompile(`(?:^|\D)((?:19|20)\d{2})(?:\D|$)`)
	anyYear     = regexp.MustCompile(`(?:^|\D)(\d{4})(?:\D|$)`)
)

// ExtractYear finds a release year in a human-formatted date such as
// "21 Aug, 2012" or "Q3 2025". Years starting 19 or 20 win over other
// 4-digit tokens. The string is not parsed as a date.
func ExtractYear(s string) (int, bool) {
	m := centuryYear.FindStringSubmatch(s)
	if m == nil {
		m = anyYear.FindStringSubmatch(s)
	}
	if m == nil {
		return 0, false
	}
	tok := m[1]
	year, err := strconv.Atoi(tok)
	if err != nil {
		return 0, false
	}
	return year, true
}
