package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/smartcabinet/controller/internal/cabinet/store/sqlite"
	"github.com/smartcabinet/controller/internal/cabinet/types"
)

func entry(item, badge, name string, action types.Action) types.LogEntry {
	return types.LogEntry{
		Item:      item,
		BadgeID:   badge,
		ActorName: name,
		Action:    action,
		Timestamp: time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestOfflineQueue_AppendMergesPerItemInOrder(t *testing.T) {
	conn := openTestDB(t)
	q := sqlite.NewOfflineQueue(conn, newTestWriter(t, conn))
	ctx := context.Background()

	// Two offline transactions touching the same item must both survive,
	// in order — the second append merges behind the first.
	first := entry("Shoebox 7", "S1", "Bob", types.ActionBorrowed)
	second := entry("Shoebox 7", "S2", "Eve", types.ActionReturned)

	if err := q.Append(ctx, []types.LogEntry{first}); err != nil {
		t.Fatalf("Append first: %v", err)
	}
	if err := q.Append(ctx, []types.LogEntry{second}); err != nil {
		t.Fatalf("Append second: %v", err)
	}

	depth, err := q.Depth(ctx)
	if err != nil {
		t.Fatalf("Depth: %v", err)
	}
	if depth != 2 {
		t.Fatalf("expected depth 2, got %d", depth)
	}

	got, err := q.DrainAll(ctx)
	if err != nil {
		t.Fatalf("DrainAll: %v", err)
	}
	rows := got["Shoebox 7"]
	if len(rows) != 2 {
		t.Fatalf("expected 2 queued entries for item, got %d", len(rows))
	}
	if rows[0].BadgeID != "S1" || rows[1].BadgeID != "S2" {
		t.Fatalf("expected order S1 then S2, got %q then %q", rows[0].BadgeID, rows[1].BadgeID)
	}
	if rows[0].Action != types.ActionBorrowed || rows[1].Action != types.ActionReturned {
		t.Fatalf("actions not preserved: %v", rows)
	}
}

func TestOfflineQueue_DrainEmptiesQueue(t *testing.T) {
	conn := openTestDB(t)
	q := sqlite.NewOfflineQueue(conn, newTestWriter(t, conn))
	ctx := context.Background()

	if err := q.Append(ctx, []types.LogEntry{entry("Shoebox 1", "S1", "Bob", types.ActionBorrowed)}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := q.DrainAll(ctx); err != nil {
		t.Fatalf("DrainAll: %v", err)
	}

	depth, err := q.Depth(ctx)
	if err != nil {
		t.Fatalf("Depth: %v", err)
	}
	if depth != 0 {
		t.Fatalf("expected empty queue after drain, depth=%d", depth)
	}

	again, err := q.DrainAll(ctx)
	if err != nil {
		t.Fatalf("DrainAll (empty): %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("expected nothing on second drain, got %v", again)
	}
}

func TestOfflineQueue_SurvivesReopen(t *testing.T) {
	conn := openTestDB(t)
	ctx := context.Background()

	q := sqlite.NewOfflineQueue(conn, newTestWriter(t, conn))
	if err := q.Append(ctx, []types.LogEntry{entry("Shoebox 2", "A1", "Jane", types.ActionBorrowed)}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	// A fresh queue over the same database sees the backlog.
	q2 := sqlite.NewOfflineQueue(conn, newTestWriter(t, conn))
	depth, err := q2.Depth(ctx)
	if err != nil {
		t.Fatalf("Depth: %v", err)
	}
	if depth != 1 {
		t.Fatalf("expected backlog of 1 after reopen, got %d", depth)
	}
}
