package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbpkg "github.com/smartcabinet/controller/internal/db"

	"github.com/smartcabinet/controller/internal/cabinet/types"
)

// OfflineQueue persists not-yet-uploaded log entries. Ordering within an
// item follows insertion (rowid), so replaying the queue reproduces the
// original logging order.
type OfflineQueue struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewOfflineQueue(db *sql.DB, writer *dbpkg.Worker) *OfflineQueue {
	return &OfflineQueue{db: db, writer: writer}
}

func (q *OfflineQueue) Append(ctx context.Context, entries []types.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	now := time.Now().UTC().UnixMilli()

	return q.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		for _, e := range entries {
			if _, err := tx.ExecContext(ctx, `
INSERT INTO offline_log(item_name, badge_id, actor_name, action, logged_at_ms, queued_at_ms)
VALUES (?, ?, ?, ?, ?, ?);
`, e.Item, e.BadgeID, e.ActorName, string(e.Action), e.Timestamp.UTC().UnixMilli(), now); err != nil {
				return fmt.Errorf("queue append %q: %w", e.Item, err)
			}
		}
		return nil
	})
}

func (q *OfflineQueue) DrainAll(ctx context.Context) (map[string][]types.LogEntry, error) {
	out := make(map[string][]types.LogEntry)

	err := q.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
SELECT item_name, badge_id, actor_name, action, logged_at_ms
FROM offline_log
ORDER BY id;
`)
		if err != nil {
			return fmt.Errorf("queue drain select: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var e types.LogEntry
			var action string
			var loggedMs int64
			if err := rows.Scan(&e.Item, &e.BadgeID, &e.ActorName, &action, &loggedMs); err != nil {
				return fmt.Errorf("queue drain scan: %w", err)
			}
			e.Action = types.Action(action)
			e.Timestamp = time.UnixMilli(loggedMs).UTC()
			out[e.Item] = append(out[e.Item], e)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("queue drain rows: %w", err)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM offline_log;"); err != nil {
			return fmt.Errorf("queue drain clear: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (q *OfflineQueue) Depth(ctx context.Context) (int, error) {
	var n int
	if err := q.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM offline_log;").Scan(&n); err != nil {
		return 0, fmt.Errorf("queue depth: %w", err)
	}
	return n, nil
}
