package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "tokf.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordEventIDsAreMonotonic(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 5; i++ {
		id, err := s.RecordEvent(ctx, UsageEvent{RecordedAt: time.Now().UTC(), Command: "git push", InputBytes: 10, OutputBytes: 5})
		if err != nil {
			t.Fatalf("RecordEvent: %v", err)
		}
		ids = append(ids, id)
	}
	for i, id := range ids {
		if id != int64(i+1) {
			t.Fatalf("expected id %d, got %d", i+1, id)
		}
	}
}

func TestPendingCountAndCursor(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := s.RecordEvent(ctx, UsageEvent{RecordedAt: time.Now().UTC(), Command: "cmd"}); err != nil {
			t.Fatalf("RecordEvent: %v", err)
		}
	}
	n, err := s.PendingCount(ctx)
	if err != nil {
		t.Fatalf("PendingCount: %v", err)
	}
	if n != 5 {
		t.Fatalf("expected 5 pending, got %d", n)
	}

	if err := s.SetCursor(ctx, 5, time.Now().UTC()); err != nil {
		t.Fatalf("SetCursor: %v", err)
	}
	n, err = s.PendingCount(ctx)
	if err != nil {
		t.Fatalf("PendingCount: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 pending after cursor advance, got %d", n)
	}

	for i := 0; i < 2; i++ {
		if _, err := s.RecordEvent(ctx, UsageEvent{RecordedAt: time.Now().UTC(), Command: "cmd"}); err != nil {
			t.Fatalf("RecordEvent: %v", err)
		}
	}
	pending, err := s.PendingEvents(ctx, 0)
	if err != nil {
		t.Fatalf("PendingEvents: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != 6 || pending[1].ID != 7 {
		t.Fatalf("expected events 6,7 pending, got %+v", pending)
	}
}

func TestBackfillFilterHashesReportsUnrecognized(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	known := "git/push"
	if _, err := s.RecordEvent(ctx, UsageEvent{RecordedAt: time.Now().UTC(), Command: "git push", FilterName: &known}); err != nil {
		t.Fatalf("RecordEvent: %v", err)
	}
	unknown := "totally/unknown"
	if _, err := s.RecordEvent(ctx, UsageEvent{RecordedAt: time.Now().UTC(), Command: "xyz", FilterName: &unknown}); err != nil {
		t.Fatalf("RecordEvent: %v", err)
	}

	unrecognized, err := s.BackfillFilterHashes(ctx, map[string]string{"git/push": "deadbeef"})
	if err != nil {
		t.Fatalf("BackfillFilterHashes: %v", err)
	}
	if len(unrecognized) != 1 || unrecognized[0] != "totally/unknown" {
		t.Fatalf("expected totally/unknown reported, got %v", unrecognized)
	}
}

func TestAppendHistoryTruncatesPerProject(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		err := s.AppendHistory(ctx, HistoryRecord{
			Timestamp: time.Now().UTC(), Project: "proj-a", Command: "cmd",
			RawOutput: "raw", FilteredOutput: "filtered",
		}, 10)
		if err != nil {
			t.Fatalf("AppendHistory: %v", err)
		}
	}

	var count int
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM history WHERE project = 'proj-a'`)
	if err := row.Scan(&count); err != nil {
		t.Fatalf("scan count: %v", err)
	}
	if count != 10 {
		t.Fatalf("expected history truncated to 10 rows, got %d", count)
	}
}

func TestClearHistoryDoesNotReuseEventIDs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.RecordEvent(ctx, UsageEvent{RecordedAt: time.Now().UTC(), Command: "cmd"}); err != nil {
		t.Fatalf("RecordEvent: %v", err)
	}
	if err := s.AppendHistory(ctx, HistoryRecord{Timestamp: time.Now().UTC(), Project: "p", Command: "cmd", RawOutput: "r", FilteredOutput: "f"}, 10); err != nil {
		t.Fatalf("AppendHistory: %v", err)
	}
	if err := s.ClearHistory(ctx, nil); err != nil {
		t.Fatalf("ClearHistory: %v", err)
	}

	id, err := s.RecordEvent(ctx, UsageEvent{RecordedAt: time.Now().UTC(), Command: "cmd2"})
	if err != nil {
		t.Fatalf("RecordEvent: %v", err)
	}
	if id != 2 {
		t.Fatalf("expected event id to continue from 2 after clearing history, got %d", id)
	}
}

func TestClearHistoryRestartsHistoryIDs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := HistoryRecord{Timestamp: time.Now().UTC(), Project: "p", Command: "cmd", RawOutput: "r", FilteredOutput: "f"}
	if err := s.AppendHistory(ctx, rec, 10); err != nil {
		t.Fatalf("AppendHistory: %v", err)
	}
	if err := s.AppendHistory(ctx, rec, 10); err != nil {
		t.Fatalf("AppendHistory: %v", err)
	}

	var before int64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(id) FROM history`).Scan(&before); err != nil {
		t.Fatalf("scan max id: %v", err)
	}
	if before != 2 {
		t.Fatalf("expected max history id 2 before clearing, got %d", before)
	}

	if err := s.ClearHistory(ctx, nil); err != nil {
		t.Fatalf("ClearHistory: %v", err)
	}

	if err := s.AppendHistory(ctx, rec, 10); err != nil {
		t.Fatalf("AppendHistory after clear: %v", err)
	}
	var after int64
	if err := s.db.QueryRowContext(ctx, `SELECT id FROM history`).Scan(&after); err != nil {
		t.Fatalf("scan id after clear: %v", err)
	}
	if after != 1 {
		t.Fatalf("expected history id to restart from 1 after ClearHistory, got %d", after)
	}
}

func TestGainSummaryAggregates(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	name := "git/push"
	if _, err := s.RecordEvent(ctx, UsageEvent{RecordedAt: time.Now().UTC(), Command: "git push", FilterName: &name, InputTokensEst: 100, OutputTokensEst: 10}); err != nil {
		t.Fatalf("RecordEvent: %v", err)
	}

	summary, err := s.GainSummary(ctx)
	if err != nil {
		t.Fatalf("GainSummary: %v", err)
	}
	if summary.Saved() != 90 {
		t.Fatalf("expected 90 tokens saved, got %d", summary.Saved())
	}

	byFilter, err := s.GainByFilter(ctx)
	if err != nil {
		t.Fatalf("GainByFilter: %v", err)
	}
	if len(byFilter) != 1 || byFilter[0].FilterName != "git/push" {
		t.Fatalf("expected one filter gain row for git/push, got %+v", byFilter)
	}
}
