// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRunLifecycle(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	run := Run{
		ID:        "run-1",
		StartedAt: time.Unix(1714000000, 0),
		Scope:     "all",
		Formats:   "json,markdown",
	}
	if err := store.BeginRun(ctx, run); err != nil {
		t.Fatalf("BeginRun failed: %v", err)
	}

	runs, err := store.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	if runs[0].Status != RunRunning {
		t.Errorf("fresh run status = %q, want running", runs[0].Status)
	}
	if runs[0].FinishedAt != nil {
		t.Error("fresh run must not have a finish time")
	}

	if err := store.FinishRun(ctx, "run-1", RunDone, 5, 1, "/tmp/out.zip"); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}

	runs, err = store.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	got := runs[0]
	if got.Status != RunDone || got.Exported != 5 || got.Failed != 1 {
		t.Errorf("finished run = %+v", got)
	}
	if got.FinishedAt == nil {
		t.Error("finished run must carry a finish time")
	}
	if got.ArchivePath != "/tmp/out.zip" {
		t.Errorf("archive path = %q", got.ArchivePath)
	}
}

func TestFinishUnknownRun(t *testing.T) {
	store := openTestStore(t)
	if err := store.FinishRun(context.Background(), "nope", RunDone, 0, 0, ""); err == nil {
		t.Fatal("finishing an unrecorded run must fail")
	}
}

func TestBeginRunRequiresID(t *testing.T) {
	store := openTestStore(t)
	if err := store.BeginRun(context.Background(), Run{StartedAt: time.Now()}); err == nil {
		t.Fatal("expected error for missing run id")
	}
}

func TestOutcomesOrderedAndUpserted(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.BeginRun(ctx, Run{ID: "run-1", StartedAt: time.Now(), Scope: "ids", Formats: "json"}); err != nil {
		t.Fatal(err)
	}

	outcomes := []Outcome{
		{RunID: "run-1", ConversationID: "c3", Status: OutcomeEmpty},
		{RunID: "run-1", ConversationID: "c2", Title: "Broken", Status: OutcomeFailed, Reason: "fetch failed"},
		{RunID: "run-1", ConversationID: "c1", Title: "Good", Status: OutcomeExported},
	}
	for _, o := range outcomes {
		if err := store.RecordOutcome(ctx, o); err != nil {
			t.Fatalf("RecordOutcome(%s) failed: %v", o.ConversationID, err)
		}
	}

	// A resumed run re-records c2 as exported; the row is replaced.
	if err := store.RecordOutcome(ctx, Outcome{
		RunID: "run-1", ConversationID: "c2", Title: "Broken", Status: OutcomeExported,
	}); err != nil {
		t.Fatal(err)
	}

	got, err := store.Outcomes(ctx, "run-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 outcomes after upsert, got %d", len(got))
	}
	// exported sorts first, then empty.
	if got[0].ConversationID != "c1" || got[1].ConversationID != "c2" {
		t.Errorf("order = %s, %s, %s", got[0].ConversationID, got[1].ConversationID, got[2].ConversationID)
	}
	if got[1].Status != OutcomeExported {
		t.Errorf("c2 status after upsert = %q", got[1].Status)
	}
	if got[2].Status != OutcomeEmpty {
		t.Errorf("c3 status = %q", got[2].Status)
	}
}

func TestRecentRunsNewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i, start := range []int64{100, 300, 200} {
		run := Run{
			ID:        []string{"a", "b", "c"}[i],
			StartedAt: time.Unix(start, 0),
			Scope:     "all",
			Formats:   "json",
		}
		if err := store.BeginRun(ctx, run); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := store.RecentRuns(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("limit not applied: got %d runs", len(runs))
	}
	if runs[0].ID != "b" || runs[1].ID != "c" {
		t.Errorf("order = %s, %s; want b, c", runs[0].ID, runs[1].ID)
	}
}
