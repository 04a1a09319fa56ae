package store

import (
	"context"

	"github.com/smartcabinet/controller/internal/cabinet/types"
)

// RosterStore persists the three access tables (admins, students,
// inventory) as flat key→name mappings.
//
// LoadTable of a missing or empty table returns an empty map — a missing
// local file is a recoverable condition, not an error. AppendEntry is
// write-through: it must be durable before it returns. ReplaceTable swaps a
// whole table atomically; it is how the roster sync applies remote changes
// (including revocations, which simply vanish from the new contents).
type RosterStore interface {
	LoadTable(ctx context.Context, table types.Table) (map[string]string, error)
	AppendEntry(ctx context.Context, table types.Table, key, value string) error
	ReplaceTable(ctx context.Context, table types.Table, contents map[string]string) error
}
