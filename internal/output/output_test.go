// Gamescout - Steam Catalog and Review Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamescout

package output

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/gamescout/internal/models"
)

var ingested = time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)

func testSnapshot() models.Snapshot {
	return models.Snapshot{
		Apps: []models.AppRecord{
			{AppID: 10, Name: "Counter-Strike", ReleaseDate: "1 Nov, 2000", ReleaseYear: 2000, Price: "$9.99",
				Tags: []string{"Action", "Multi-player"}, Type: models.AppTypeGame, Source: "steam_official_api", IngestedAt: ingested},
			{AppID: 30, Name: "Day of Defeat", ReleaseYear: 2003, Type: models.AppTypeGame, Source: "steam_official_api", IngestedAt: ingested},
		},
		Reviews: []models.ReviewRecord{
			{AppID: 10, ReviewID: "r1", Text: "Classic, still \"great\", 10/10", VotedUp: true, VotesUp: 4, Language: "en"},
			{AppID: 10, ReviewID: "r2", Text: "line one\nline two", VotedUp: false, VotesUp: 0, Language: "en"},
		},
	}
}

func TestWriteFileAtomic_FailureKeepsPreviousFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data.json")
	if err := WriteFileAtomic(path, func(w io.Writer) error {
		_, err := w.Write([]byte("checkpoint K"))
		return err
	}); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("interrupted")
	err := WriteFileAtomic(path, func(w io.Writer) error {
		_, _ = w.Write([]byte("half of checkpoint K+1"))
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want wrapped interruption", err)
	}

	got, _ := os.ReadFile(path)
	if string(got) != "checkpoint K" {
		t.Errorf("file = %q, want previous checkpoint", got)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestJSONSink_RoundTripAndDeterminism(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sink := NewJSONSink(filepath.Join(dir, "reviews.json"), "steam_official_api")
	snap := testSnapshot()

	if err := sink.Write(context.Background(), snap); err != nil {
		t.Fatal(err)
	}
	first, _ := os.ReadFile(sink.Path())
	if err := sink.Write(context.Background(), snap); err != nil {
		t.Fatal(err)
	}
	second, _ := os.ReadFile(sink.Path())
	if !bytes.Equal(first, second) {
		t.Error("writing the same snapshot twice produced different bytes")
	}

	for _, want := range []string{`"app_count": 2`, `"review_count": 2`, `"reviews": []`} {
		if !strings.Contains(string(first), want) {
			t.Errorf("document missing %s", want)
		}
	}

	loaded, err := LoadJSONSnapshot(sink.Path())
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.Apps) != 2 || len(loaded.Reviews) != 2 {
		t.Fatalf("loaded %d apps, %d reviews", len(loaded.Apps), len(loaded.Reviews))
	}
	if !loaded.Apps[0].IngestedAt.Equal(ingested) || loaded.Reviews[1].Text != "line one\nline two" {
		t.Errorf("loaded snapshot differs: %+v", loaded)
	}
}

func TestLoadJSONSnapshot_Missing(t *testing.T) {
	t.Parallel()

	snap, err := LoadJSONSnapshot(filepath.Join(t.TempDir(), "none.json"))
	if err != nil || len(snap.Apps) != 0 {
		t.Errorf("LoadJSONSnapshot(missing) = %+v, %v", snap, err)
	}
}

func TestCSVSink(t *testing.T) {
	t.Parallel()

	sink := NewCSVSink(filepath.Join(t.TempDir(), "reviews.csv"))
	if err := sink.Write(context.Background(), testSnapshot()); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(sink.Path())
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}

	// header plus one row per review; app 30 has none
	if len(records) != 3 {
		t.Fatalf("rows = %d, want 3", len(records))
	}
	if !reflect.DeepEqual(records[0], CSVHeader) {
		t.Errorf("header = %v", records[0])
	}
	row := records[1]
	if row[0] != "10" || row[5] != "Action|Multi-player" || row[8] != `Classic, still "great", 10/10` || row[9] != "true" {
		t.Errorf("row = %v", row)
	}
	if records[2][8] != "line one\nline two" {
		t.Errorf("multi-line text = %q", records[2][8])
	}
}

func TestParquetSink(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "steam_app_list.parquet")
	sink := NewParquetSink(path, "snappy")
	if err := sink.Write(context.Background(), testSnapshot()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	apps, err := readParquetApps(context.Background(), path)
	if err != nil {
		t.Fatalf("readParquetApps() error = %v", err)
	}
	if len(apps) != 2 {
		t.Fatalf("len = %d, want 2", len(apps))
	}
	if apps[0].AppID != 10 || apps[0].Name != "Counter-Strike" || !reflect.DeepEqual(apps[0].Tags, []string{"Action", "Multi-player"}) {
		t.Errorf("apps[0] = %+v", apps[0])
	}
	if apps[1].Tags != nil {
		t.Errorf("apps[1].Tags = %v, want nil", apps[1].Tags)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("unexpected files: %v", entries)
	}
}

func TestNewSinks(t *testing.T) {
	t.Parallel()

	sinks, err := NewSinks("out", "steam_games_reviews", "src", "snappy", []string{"json", "csv"})
	if err != nil {
		t.Fatal(err)
	}
	if len(sinks) != 2 || sinks[0].Path() != filepath.Join("out", "steam_games_reviews.json") {
		t.Errorf("sinks = %v", sinks.Path())
	}
	if _, err := NewSinks("out", "x", "src", "snappy", []string{"xml"}); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestSyncFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "written-elsewhere.parquet")
	if err := os.WriteFile(path, []byte("PAR1"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := syncFile(path); err != nil {
		t.Errorf("syncFile() error = %v", err)
	}
	if err := syncFile(path + ".missing"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("syncFile(missing) = %v, want ErrNotExist", err)
	}
}

// readParquetApps loads an app table written by ParquetSink.
func readParquetApps(ctx context.Context, path string) ([]models.AppRecord, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}
	defer closeWithLog(db, "duckdb")

	query := fmt.Sprintf(`
		SELECT app_id, name, release_date, release_year, price, array_to_string(tags, '|'), type, source, ingested_at
		FROM read_parquet(%s)`, quoteLiteral(path))
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet: %w", err)
	}
	defer closeWithLog(rows, "rows")

	var apps []models.AppRecord
	for rows.Next() {
		var (
			a                       models.AppRecord
			id                      int64
			releaseDate, price, typ sql.NullString
			source, tags            sql.NullString
			year                    sql.NullInt64
		)
		if err := rows.Scan(&id, &a.Name, &releaseDate, &year, &price, &tags, &typ, &source, &a.IngestedAt); err != nil {
			return nil, fmt.Errorf("failed to scan app row: %w", err)
		}
		a.AppID = models.AppID(id)
		a.ReleaseDate = releaseDate.String
		a.ReleaseYear = int(year.Int64)
		a.Price = price.String
		a.Type = models.AppType(typ.String)
		a.Source = source.String
		if tags.String != "" {
			a.Tags = strings.Split(tags.String, "|")
		}
		apps = append(apps, a)
	}
	return apps, rows.Err()
}
