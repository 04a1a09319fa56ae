package memory

import (
	"context"
	"sync"

	"github.com/smartcabinet/controller/internal/cabinet/types"
)

// OfflineQueue is an in-memory OfflineQueue for tests and dev environments.
type OfflineQueue struct {
	mu      sync.Mutex
	pending map[string][]types.LogEntry
	depth   int
}

func NewOfflineQueue() *OfflineQueue {
	return &OfflineQueue{pending: make(map[string][]types.LogEntry)}
}

func (q *OfflineQueue) Append(_ context.Context, entries []types.LogEntry) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, e := range entries {
		q.pending[e.Item] = append(q.pending[e.Item], e)
		q.depth++
	}
	return nil
}

func (q *OfflineQueue) DrainAll(_ context.Context) (map[string][]types.LogEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.pending
	q.pending = make(map[string][]types.LogEntry)
	q.depth = 0
	return out, nil
}

func (q *OfflineQueue) Depth(_ context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.depth, nil
}
