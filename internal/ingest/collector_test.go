// Gamescout - Steam Catalog and Review Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamescout

package ingest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/tomtom215/gamescout/internal/models"
	"github.com/tomtom215/gamescout/internal/output"
)

func app(id models.AppID, name string) models.AppRecord {
	return models.AppRecord{AppID: id, Name: name, ReleaseYear: 2000, Type: models.AppTypeGame}
}

func TestCollector_FirstSeenWins(t *testing.T) {
	t.Parallel()

	sink := &memorySink{}
	c := NewCollector(sink, testNormalizer(), 0)

	if !c.Accumulate(app(10, "first"), []models.ReviewRecord{{Text: "a"}}) {
		t.Fatal("first accumulate rejected")
	}
	if c.Accumulate(app(10, "second"), []models.ReviewRecord{{Text: "b"}}) {
		t.Error("duplicate accepted")
	}
	c.Accumulate(app(30, "third"), nil)

	if err := c.Finalize(context.Background()); err != nil {
		t.Fatal(err)
	}
	snap := sink.last()
	if got := appIDs(snap.Apps); !reflect.DeepEqual(got, []models.AppID{10, 30}) {
		t.Errorf("ids = %v", got)
	}
	if snap.Apps[0].Name != "first" || len(snap.Reviews) != 1 || snap.Reviews[0].AppID != 10 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestCollector_CheckpointCadence(t *testing.T) {
	t.Parallel()

	sink := &memorySink{}
	c := NewCollector(sink, testNormalizer(), 3)
	ctx := context.Background()

	for i := 1; i <= 7; i++ {
		// ids 4..6 are processed but filtered: nothing new to write at 6
		if i < 4 || i > 6 {
			c.Accumulate(app(models.AppID(i), "game"), nil)
		}
		c.MarkProcessed()
		wrote, err := c.CheckpointIfDue(ctx)
		if err != nil {
			t.Fatal(err)
		}
		wantWrite := i == 3
		if wrote != wantWrite {
			t.Errorf("processed %d: wrote = %v, want %v", i, wrote, wantWrite)
		}
	}
	if err := c.Finalize(ctx); err != nil {
		t.Fatal(err)
	}
	if sink.count() != 2 {
		t.Errorf("writes = %d, want 2", sink.count())
	}
	if got := appIDs(sink.last().Apps); !reflect.DeepEqual(got, []models.AppID{1, 2, 3, 7}) {
		t.Errorf("final ids = %v", got)
	}
}

func TestCollector_FinalizeIsIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "reviews.json")
	sink := output.NewJSONSink(path, "steam_official_api")
	c := NewCollector(sink, testNormalizer(), 0)
	c.Accumulate(app(10, " Counter-Strike "), []models.ReviewRecord{{ReviewID: "r1", Text: "great", VotedUp: true}})

	ctx := context.Background()
	if err := c.Finalize(ctx); err != nil {
		t.Fatal(err)
	}
	first, _ := os.ReadFile(path)

	// a forced rewrite of unchanged data is byte-identical
	if err := c.write(ctx); err != nil {
		t.Fatal(err)
	}
	second, _ := os.ReadFile(path)
	if !bytes.Equal(first, second) {
		t.Errorf("checkpoint changed without new data:\n%s\n%s", first, second)
	}

	if err := c.Finalize(ctx); err != nil {
		t.Fatal(err)
	}
	if c.Writes() != 2 {
		t.Errorf("writes = %d, want 2 (Finalize without changes must not write)", c.Writes())
	}
}

func TestCollector_EmptyFinalizeWrites(t *testing.T) {
	t.Parallel()

	sink := &memorySink{}
	c := NewCollector(sink, testNormalizer(), 10)
	if err := c.Finalize(context.Background()); err != nil {
		t.Fatal(err)
	}
	if sink.count() != 1 {
		t.Errorf("writes = %d, want 1", sink.count())
	}
}

// interruptingSink writes real JSON checkpoints until armed, then dies
// halfway through the next one.
type interruptingSink struct {
	*output.JSONSink
	armed bool
}

func (s *interruptingSink) Write(ctx context.Context, snap models.Snapshot) error {
	if !s.armed {
		return s.JSONSink.Write(ctx, snap)
	}
	return output.WriteFileAtomic(s.Path(), func(w io.Writer) error {
		_, _ = w.Write([]byte(`{"source":"steam_official_api","apps":[`))
		return errors.New("killed")
	})
}

func TestCollector_CrashBetweenCheckpoints(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "reviews.json")
	sink := &interruptingSink{JSONSink: output.NewJSONSink(path, "steam_official_api")}
	c := NewCollector(sink, testNormalizer(), 2)
	ctx := context.Background()

	for _, id := range []models.AppID{1, 2} {
		c.Accumulate(app(id, "game"), nil)
		c.MarkProcessed()
	}
	if wrote, err := c.CheckpointIfDue(ctx); !wrote || err != nil {
		t.Fatalf("checkpoint K: wrote=%v err=%v", wrote, err)
	}
	checkpointK, _ := os.ReadFile(path)

	sink.armed = true
	for _, id := range []models.AppID{3, 4} {
		c.Accumulate(app(id, "game"), nil)
		c.MarkProcessed()
	}
	if _, err := c.CheckpointIfDue(ctx); err == nil {
		t.Fatal("expected interrupted checkpoint to fail")
	}

	onDisk, _ := os.ReadFile(path)
	if !bytes.Equal(onDisk, checkpointK) {
		t.Error("file changed after interrupted checkpoint")
	}
	snap, err := output.LoadJSONSnapshot(path)
	if err != nil {
		t.Fatalf("checkpoint K unreadable: %v", err)
	}
	if got := appIDs(snap.Apps); !reflect.DeepEqual(got, []models.AppID{1, 2}) {
		t.Errorf("ids = %v, want [1 2]", got)
	}
	if !c.Dirty() {
		t.Error("collector must stay dirty after a failed write")
	}
}

func TestCollector_Seed(t *testing.T) {
	t.Parallel()

	sink := &memorySink{}
	c := NewCollector(sink, testNormalizer(), 0)
	c.Seed(models.Snapshot{
		Apps:    []models.AppRecord{app(1, "a"), app(2, "b")},
		Reviews: []models.ReviewRecord{{AppID: 1, Text: "ok"}, {AppID: 9, Text: "orphan"}},
	})

	if err := c.Finalize(context.Background()); err != nil {
		t.Fatal(err)
	}
	if sink.count() != 0 {
		t.Error("seeded collection without changes must not be rewritten")
	}
	if c.Accumulate(app(2, "dup"), nil) {
		t.Error("seeded id accepted again")
	}
	c.Accumulate(app(3, "c"), nil)
	if err := c.Finalize(context.Background()); err != nil {
		t.Fatal(err)
	}
	snap := sink.last()
	if got := appIDs(snap.Apps); !reflect.DeepEqual(got, []models.AppID{1, 2, 3}) || len(snap.Reviews) != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
}
