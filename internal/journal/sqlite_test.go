package journal

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/me/schedview/internal/store"
)

func testJournal(t *testing.T) *SQLiteJournal {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}))
	j, err := Open(context.Background(), ":memory:", logger)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestMigrate_Idempotent(t *testing.T) {
	j := testJournal(t)
	if err := j.Migrate(context.Background()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestObserveAndList(t *testing.T) {
	j := testJournal(t)
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	j.Observe(store.Outcome{Seq: 1, Action: store.ActionCreateProcess, PID: 3, Message: "process added", Time: 0, At: at, Duration: 12 * time.Millisecond})
	j.Observe(store.Outcome{Seq: 2, Action: store.ActionSchedule, Message: "scheduled", Time: 1, At: at.Add(time.Second),
		RefreshErr: errors.New("network error")})
	j.Observe(store.Outcome{Seq: 3, Action: store.ActionSuspend, PID: 8, Message: "suspend failed", Err: errors.New("code 400: suspend failed"),
		Time: 1, At: at.Add(2 * time.Second)})

	entries, err := j.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("len = %d, want 3", len(entries))
	}

	newest := entries[0]
	if newest.Seq != 3 || newest.Action != "suspend" || newest.OK || newest.PID != 8 {
		t.Errorf("newest = %+v", newest)
	}
	if newest.Error != "code 400: suspend failed" {
		t.Errorf("Error = %q", newest.Error)
	}

	step := entries[1]
	if !step.OK || step.RefreshError != "network error" || step.StepTime != 1 {
		t.Errorf("step entry = %+v", step)
	}

	oldest := entries[2]
	if oldest.Duration != 12 || !oldest.CreatedAt.Equal(at) {
		t.Errorf("oldest = %+v", oldest)
	}
}

func TestList_LimitAndFilter(t *testing.T) {
	j := testJournal(t)
	ctx := context.Background()
	for i := 1; i <= 30; i++ {
		a := store.ActionSchedule
		if i%3 == 0 {
			a = store.ActionGetSystemStatus
		}
		if _, err := j.Record(ctx, store.Outcome{Seq: uint64(i), Action: a, Message: "ok"}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	all, err := j.List(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 20 {
		t.Errorf("default limit: len = %d, want 20", len(all))
	}
	if all[0].Seq != 30 {
		t.Errorf("first Seq = %d, want 30", all[0].Seq)
	}

	reads, err := j.ListAction(ctx, store.ActionGetSystemStatus, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(reads) != 10 {
		t.Errorf("filtered len = %d, want 10", len(reads))
	}
	for _, e := range reads {
		if e.Action != string(store.ActionGetSystemStatus) {
			t.Errorf("unexpected action %q", e.Action)
		}
	}

	n, err := j.Count(ctx)
	if err != nil || n != 30 {
		t.Errorf("Count = %d, %v, want 30", n, err)
	}
}

func TestPrune(t *testing.T) {
	j := testJournal(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		// Sub-second offsets make sure the stored text still sorts by time.
		at := base.Add(time.Duration(i) * 500 * time.Millisecond)
		if _, err := j.Record(ctx, store.Outcome{Seq: uint64(i + 1), Action: store.ActionReset, At: at}); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := j.Prune(ctx, base.Add(time.Second))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	if n, _ := j.Count(ctx); n != 3 {
		t.Errorf("Count = %d, want 3", n)
	}
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "journal.db")
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	j, err := Open(context.Background(), path, logger)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := j.Record(context.Background(), store.Outcome{Seq: 1, Action: store.ActionReset}); err != nil {
		t.Fatal(err)
	}
	j.Close()

	// Reopening keeps the data and re-runs the migrations.
	j, err = Open(context.Background(), path, logger)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer j.Close()
	if n, _ := j.Count(context.Background()); n != 1 {
		t.Errorf("Count after reopen = %d, want 1", n)
	}
}

func TestJournal_AsObserver(t *testing.T) {
	var _ store.Observer = (*SQLiteJournal)(nil)
}
