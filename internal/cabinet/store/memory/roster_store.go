package memory

import (
	"context"
	"sync"

	"github.com/smartcabinet/controller/internal/cabinet/types"
)

// RosterStore is an in-memory RosterStore for tests and dev environments.
type RosterStore struct {
	mu     sync.RWMutex
	tables map[types.Table]map[string]string
}

func NewRosterStore() *RosterStore {
	return &RosterStore{tables: make(map[types.Table]map[string]string)}
}

func (s *RosterStore) LoadTable(_ context.Context, table types.Table) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(s.tables[table]))
	for k, v := range s.tables[table] {
		out[k] = v
	}
	return out, nil
}

func (s *RosterStore) AppendEntry(_ context.Context, table types.Table, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tables[table] == nil {
		s.tables[table] = make(map[string]string)
	}
	s.tables[table][key] = value
	return nil
}

func (s *RosterStore) ReplaceTable(_ context.Context, table types.Table, contents map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]string, len(contents))
	for k, v := range contents {
		next[k] = v
	}
	s.tables[table] = next
	return nil
}
