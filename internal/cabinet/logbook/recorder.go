// Package logbook turns an inventory re-scan into log entries: it owns the
// in-memory snapshot of what was in the cabinet after the last transaction,
// diffs each new scan against it, and writes the resulting entries to the
// remote log or the durable offline queue.
package logbook

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/smartcabinet/controller/internal/cabinet/inventory"
	"github.com/smartcabinet/controller/internal/cabinet/remote"
	"github.com/smartcabinet/controller/internal/cabinet/roster"
	"github.com/smartcabinet/controller/internal/cabinet/store"
	"github.com/smartcabinet/controller/internal/cabinet/types"
	"github.com/smartcabinet/controller/internal/metrics"
)

// Recorder serializes the snapshot read-modify-write: logging runs on its
// own goroutine per transaction, and two transactions racing on the
// snapshot would double-count or miss a movement.
type Recorder struct {
	scanner *inventory.Scanner
	roster  *roster.Service
	logs    remote.LogBook
	queue   store.OfflineQueue
	online  remote.Probe
	logger  *log.Logger
	metrics *metrics.Metrics

	mu       sync.Mutex
	snapshot types.TagSet

	backlog atomic.Bool
}

func NewRecorder(
	scanner *inventory.Scanner,
	ros *roster.Service,
	logs remote.LogBook,
	queue store.OfflineQueue,
	online remote.Probe,
	logger *log.Logger,
	m *metrics.Metrics,
) *Recorder {
	return &Recorder{
		scanner:  scanner,
		roster:   ros,
		logs:     logs,
		queue:    queue,
		online:   online,
		logger:   logger,
		metrics:  m,
		snapshot: types.TagSet{},
	}
}

// Rebuild retakes the snapshot from a fresh scan. Called once at boot and
// after enrollment sessions, which may have added or taken inventory
// outside a logged transaction.
func (r *Recorder) Rebuild(ctx context.Context) error {
	tags, err := r.scanner.Scan(ctx)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.snapshot = tags
	r.mu.Unlock()
	return nil
}

// InitBacklog primes the backlog flag from the durable queue at boot; a
// restart must not strand entries queued by a previous run.
func (r *Recorder) InitBacklog(ctx context.Context) error {
	depth, err := r.queue.Depth(ctx)
	if err != nil {
		return err
	}
	r.backlog.Store(depth > 0)
	r.metrics.OfflineQueueDepth.Set(float64(depth))
	return nil
}

// HasBacklog reports whether offline entries are awaiting upload.
func (r *Recorder) HasBacklog() bool {
	return r.backlog.Load()
}

// SetBacklog is used at boot (queue survived a restart) and by the uploader
// after a successful drain.
func (r *Recorder) SetBacklog(b bool) {
	r.backlog.Store(b)
}

// Record re-scans the cabinet, diffs against the previous snapshot, and
// logs every movement under the given actor. The snapshot only advances
// once every entry has landed — remotely or in the offline queue — so a
// failed write is re-detected by the next transaction instead of lost.
func (r *Recorder) Record(ctx context.Context, txnID, badgeID, actorName string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	newTags, err := r.scanner.Scan(ctx)
	if err != nil {
		r.logger.Printf("txn=%s inventory scan failed: %v", txnID, err)
		return
	}

	entries := r.diff(r.snapshot, newTags, badgeID, actorName)
	if len(entries) == 0 {
		r.snapshot = newTags
		return
	}

	if !r.flush(ctx, txnID, entries) {
		return
	}

	for _, e := range entries {
		r.metrics.TransactionsTotal.WithLabelValues(string(e.Action)).Inc()
	}
	r.snapshot = newTags
}

// diff applies the three-way labeling rule. A tag that vanished is a
// borrow; a tag that appeared is a return if it resolves to enrolled
// inventory, or an "added" foreign item logged under its raw tag id. A
// foreign tag that vanished has nothing to resolve against and is skipped.
func (r *Recorder) diff(old, now types.TagSet, badgeID, actorName string) []types.LogEntry {
	ts := time.Now()
	removed, appeared := old.Diff(now)

	var entries []types.LogEntry
	for _, tag := range removed {
		item, known := r.roster.ItemName(tag)
		if !known {
			continue
		}
		entries = append(entries, types.LogEntry{
			Item: item, BadgeID: badgeID, ActorName: actorName,
			Action: types.ActionBorrowed, Timestamp: ts,
		})
	}
	for _, tag := range appeared {
		item, known := r.roster.ItemName(tag)
		action := types.ActionReturned
		if !known {
			item = tag
			action = types.ActionAdded
		}
		entries = append(entries, types.LogEntry{
			Item: item, BadgeID: badgeID, ActorName: actorName,
			Action: action, Timestamp: ts,
		})
	}
	return entries
}

// flush writes entries online when possible, otherwise to the offline
// queue. Reports whether every entry landed somewhere durable.
func (r *Recorder) flush(ctx context.Context, txnID string, entries []types.LogEntry) bool {
	if r.online() {
		failed := entries[:0:0]
		for item, group := range groupByItem(entries) {
			if err := r.logs.Append(ctx, item, group); err != nil {
				r.logger.Printf("txn=%s remote log append %q failed, queuing: %v", txnID, item, err)
				failed = append(failed, group...)
			}
		}
		entries = failed
		if len(entries) == 0 {
			return true
		}
	}

	if err := r.queue.Append(ctx, entries); err != nil {
		r.logger.Printf("txn=%s offline queue append failed: %v", txnID, err)
		return false
	}
	r.backlog.Store(true)
	if depth, err := r.queue.Depth(ctx); err == nil {
		r.metrics.OfflineQueueDepth.Set(float64(depth))
	}
	return true
}

func groupByItem(entries []types.LogEntry) map[string][]types.LogEntry {
	out := make(map[string][]types.LogEntry)
	for _, e := range entries {
		out[e.Item] = append(out[e.Item], e)
	}
	return out
}
