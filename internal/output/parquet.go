// Gamescout - Steam Catalog and Review Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamescout

package output

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	// DuckDB driver registers "duckdb" with database/sql.
	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/google/uuid"

	"github.com/tomtom215/gamescout/internal/logging"
	"github.com/tomtom215/gamescout/internal/models"
)

// ParquetSink writes the app table of a snapshot as Parquet through an
// in-memory DuckDB instance.
type ParquetSink struct {
	path        string
	compression string
}

// NewParquetSink returns a sink writing to path with the given codec
// (snappy, zstd, gzip or uncompressed).
func NewParquetSink(path, compression string) *ParquetSink {
	if compression == "" {
		compression = "snappy"
	}
	return &ParquetSink{path: path, compression: strings.ToUpper(compression)}
}

// Path implements Sink.
func (s *ParquetSink) Path() string { return s.path }

const createAppsTable = `
	CREATE TABLE apps (
		app_id       BIGINT NOT NULL,
		name         VARCHAR NOT NULL,
		release_date VARCHAR,
		release_year INTEGER,
		price        VARCHAR,
		tags         VARCHAR,
		type         VARCHAR,
		source       VARCHAR,
		ingested_at  TIMESTAMPTZ
	)`

// Write implements Sink.
func (s *ParquetSink) Write(ctx context.Context, snap models.Snapshot) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return fmt.Errorf("failed to open duckdb: %w", err)
	}
	defer closeWithLog(db, "duckdb")

	if _, err := db.ExecContext(ctx, createAppsTable); err != nil {
		return fmt.Errorf("failed to create apps table: %w", err)
	}
	if err := insertApps(ctx, db, snap.Apps); err != nil {
		return err
	}

	// DuckDB writes the file itself, so the temp file is named here and
	// committed with the same rename as WriteFileAtomic.
	tmpName := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%s.parquet", filepath.Base(s.path), uuid.New().String()[:8]))
	copyQuery := fmt.Sprintf(`
		COPY (
			SELECT
				app_id, name, release_date, release_year, price,
				CASE WHEN tags = '' THEN []::VARCHAR[] ELSE string_split(tags, '|') END AS tags,
				type, source, ingested_at
			FROM apps
		) TO %s (
			FORMAT PARQUET,
			COMPRESSION '%s',
			ROW_GROUP_SIZE 100000
		)`, quoteLiteral(tmpName), s.compression)

	if _, err := db.ExecContext(ctx, copyQuery); err != nil {
		removeQuietly(tmpName)
		return fmt.Errorf("failed to export parquet: %w", err)
	}
	if err := syncFile(tmpName); err != nil {
		removeQuietly(tmpName)
		return fmt.Errorf("failed to sync %s: %w", filepath.Base(s.path), err)
	}
	return commit(tmpName, s.path)
}

func insertApps(ctx context.Context, db *sql.DB, apps []models.AppRecord) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback() // in-memory database is discarded anyway
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO apps VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer closeWithLog(stmt, "statement")

	for i := range apps {
		a := &apps[i]
		if _, err = stmt.ExecContext(ctx,
			int64(a.AppID), a.Name, a.ReleaseDate, a.ReleaseYear, a.Price,
			strings.Join(a.Tags, "|"), string(a.Type), a.Source, a.IngestedAt,
		); err != nil {
			return fmt.Errorf("failed to insert app %d: %w", a.AppID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit apps: %w", err)
	}
	return nil
}

// quoteLiteral renders s as a SQL string literal.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

type closer interface{ Close() error }

func closeWithLog(c closer, resourceType string) {
	if err := c.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}
