package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"episodic/internal/renamer"
	"episodic/internal/services"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "history.db"), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleRecord(kind string) renamer.RunRecord {
	now := time.Now().UTC()
	return renamer.RunRecord{
		Kind:      kind,
		Directory: "/tv/show",
		Show:      "My Show",
		Season:    1,
		Outcomes: []renamer.Outcome{
			{Original: "a.mkv", Target: "My Show S01E01.mkv", Status: renamer.StatusRenamed},
			{Original: "b.mkv", Target: "My Show S01E02.mkv", Status: renamer.StatusFailed, Reason: "source no longer exists"},
			{Original: "c.mkv", Target: "c.mkv", Status: renamer.StatusNoop},
		},
		StartedAt:  now.Add(-time.Second),
		FinishedAt: now,
	}
}

func TestRecordAndGetRun(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.RecordRun(ctx, sampleRecord("apply")); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	runs, err := store.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	run := runs[0]
	if run.Kind != "apply" || run.Show != "My Show" || run.Season != 1 {
		t.Fatalf("run = %+v", run)
	}
	if run.Renamed != 1 || run.Failed != 1 || run.Skipped != 1 {
		t.Fatalf("counts = %d/%d/%d", run.Renamed, run.Failed, run.Skipped)
	}

	got, entries, err := store.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.ID != run.ID {
		t.Fatalf("GetRun id = %q, want %q", got.ID, run.ID)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Original != "a.mkv" || entries[0].Status != string(renamer.StatusRenamed) {
		t.Fatalf("entry order lost: %+v", entries[0])
	}
	if entries[1].Reason != "source no longer exists" {
		t.Fatalf("reason not persisted: %+v", entries[1])
	}
}

func TestGetRunByPrefix(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.RecordRun(ctx, sampleRecord("apply")); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	runs, err := store.ListRuns(ctx, 1)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}

	got, _, err := store.GetRun(ctx, runs[0].ID[:8])
	if err != nil {
		t.Fatalf("GetRun by prefix: %v", err)
	}
	if got.ID != runs[0].ID {
		t.Fatalf("prefix lookup returned %q, want %q", got.ID, runs[0].ID)
	}
}

func TestGetRunUnknown(t *testing.T) {
	store := openTestStore(t)
	_, _, err := store.GetRun(context.Background(), "does-not-exist")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	older := sampleRecord("apply")
	older.StartedAt = time.Now().UTC().Add(-time.Hour)
	older.FinishedAt = older.StartedAt.Add(time.Second)
	if err := store.RecordRun(ctx, older); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	if err := store.RecordRun(ctx, sampleRecord("restore")); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	runs, err := store.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].Kind != "restore" || runs[1].Kind != "apply" {
		t.Fatalf("unexpected order: %+v", runs)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	first, err := Open(ctx, path, nil)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	if err := first.RecordRun(ctx, sampleRecord("apply")); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second, err := Open(ctx, path, nil)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer second.Close()
	runs, err := second.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("data lost across reopen: %+v", runs)
	}
}
