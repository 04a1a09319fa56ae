package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbpkg "github.com/smartcabinet/controller/internal/db"

	"github.com/smartcabinet/controller/internal/cabinet/types"
)

// RosterStore keeps the access tables in the local SQLite database. All
// writes go through the shared writer goroutine.
type RosterStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewRosterStore(db *sql.DB, writer *dbpkg.Worker) *RosterStore {
	return &RosterStore{db: db, writer: writer}
}

func tableName(table types.Table) (name, keyCol, valCol string, err error) {
	switch table {
	case types.TableAdmins:
		return "admins", "badge_id", "name", nil
	case types.TableStudents:
		return "students", "badge_id", "name", nil
	case types.TableInventory:
		return "inventory", "tag_id", "item_name", nil
	default:
		return "", "", "", fmt.Errorf("unknown roster table %q", table)
	}
}

func (s *RosterStore) LoadTable(ctx context.Context, table types.Table) (map[string]string, error) {
	name, keyCol, valCol, err := tableName(table)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT %s, %s FROM %s;", keyCol, valCol, name))
	if err != nil {
		return nil, fmt.Errorf("LoadTable %s: %w", name, err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("LoadTable %s scan: %w", name, err)
		}
		out[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("LoadTable %s rows: %w", name, err)
	}
	return out, nil
}

func (s *RosterStore) AppendEntry(ctx context.Context, table types.Table, key, value string) error {
	name, keyCol, valCol, err := tableName(table)
	if err != nil {
		return err
	}
	now := time.Now().UTC().UnixMilli()

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`
INSERT INTO %s(%s, %s, created_at_ms) VALUES (?, ?, ?)
ON CONFLICT(%s) DO UPDATE SET %s = excluded.%s;
`, name, keyCol, valCol, keyCol, valCol, valCol), key, value, now); err != nil {
			return fmt.Errorf("AppendEntry %s: %w", name, err)
		}
		return nil
	})
}

func (s *RosterStore) ReplaceTable(ctx context.Context, table types.Table, contents map[string]string) error {
	name, keyCol, valCol, err := tableName(table)
	if err != nil {
		return err
	}
	now := time.Now().UTC().UnixMilli()

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s;", name)); err != nil {
			return fmt.Errorf("ReplaceTable %s clear: %w", name, err)
		}
		for k, v := range contents {
			if _, err := tx.ExecContext(ctx, fmt.Sprintf(
				"INSERT INTO %s(%s, %s, created_at_ms) VALUES (?, ?, ?);",
				name, keyCol, valCol), k, v, now); err != nil {
				return fmt.Errorf("ReplaceTable %s insert: %w", name, err)
			}
		}
		return nil
	})
}
