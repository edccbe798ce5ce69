// Gamescout - Steam Catalog and Review Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamescout

package output

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/tomtom215/gamescout/internal/logging"
	"github.com/tomtom215/gamescout/internal/models"
)

// Sink persists a full snapshot, replacing any previous content.
type Sink interface {
	Write(ctx context.Context, s models.Snapshot) error
	Path() string
}

// MultiSink writes to each sink in order and stops at the first error.
type MultiSink []Sink

// Write implements Sink.
func (m MultiSink) Write(ctx context.Context, s models.Snapshot) error {
	for _, sink := range m {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		if err := sink.Write(ctx, s); err != nil {
			return fmt.Errorf("sink %s: %w", sink.Path(), err)
		}
		logging.Debug().
			Str("path", sink.Path()).
			Int("apps", len(s.Apps)).
			Int("reviews", len(s.Reviews)).
			Dur("duration", time.Since(start)).
			Msg("Snapshot written")
	}
	return nil
}

// Path lists the member paths.
func (m MultiSink) Path() string {
	paths := make([]string, len(m))
	for i, s := range m {
		paths[i] = s.Path()
	}
	return fmt.Sprint(paths)
}

// NewSinks builds one sink per format for dir/basename.<ext>.
func NewSinks(dir, basename, source, compression string, formats []string) (MultiSink, error) {
	sinks := make(MultiSink, 0, len(formats))
	for _, f := range formats {
		switch f {
		case "json":
			sinks = append(sinks, NewJSONSink(filepath.Join(dir, basename+".json"), source))
		case "csv":
			sinks = append(sinks, NewCSVSink(filepath.Join(dir, basename+".csv")))
		case "parquet":
			sinks = append(sinks, NewParquetSink(filepath.Join(dir, basename+".parquet"), compression))
		default:
			return nil, fmt.Errorf("unknown output format %q", f)
		}
	}
	return sinks, nil
}
