package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SeedDev inserts a starter admin badge and a couple of inventory items so a
// bench run with simulated hardware doesn't have to go through persistent
// enrollment first. Never called in prod.
func SeedDev(ctx context.Context, db *sql.DB) error {
	now := time.Now().UTC().UnixMilli()

	if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO admins(badge_id, name, created_at_ms)
VALUES ('0000001', 'Dev Admin', ?);`, now); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	for i, item := range []string{"Shoebox 1", "Shoebox 2"} {
		if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO inventory(tag_id, item_name, created_at_ms)
VALUES (?, ?, ?);`, fmt.Sprintf("E2000000000000000000000%d", i+1), item, now); err != nil {
			return fmt.Errorf("seed inventory %q: %w", item, err)
		}
	}

	return nil
}
