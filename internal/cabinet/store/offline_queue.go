package store

import (
	"context"

	"github.com/smartcabinet/controller/internal/cabinet/types"
)

// OfflineQueue is the durable backlog of log entries that could not be
// uploaded because the remote store was unreachable.
//
// Append merges new entries under their item key behind any already queued
// for that item — never overwriting. DrainAll returns everything grouped by
// item in queued order and atomically empties the queue; if the subsequent
// upload fails the caller is expected to re-Append, so entries are never
// silently lost mid-flight by the queue itself.
type OfflineQueue interface {
	Append(ctx context.Context, entries []types.LogEntry) error
	DrainAll(ctx context.Context) (map[string][]types.LogEntry, error)
	Depth(ctx context.Context) (int, error)
}
