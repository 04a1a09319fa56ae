// Package roster holds the in-memory access tables (admins, students,
// inventory) backed by durable local storage, and the idle gate that keeps
// the background sync from swapping tables mid-transaction.
package roster

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/smartcabinet/controller/internal/cabinet/store"
	"github.com/smartcabinet/controller/internal/cabinet/types"
)

// swapRetryInterval is how often a blocked table swap re-checks the idle
// flag.
const swapRetryInterval = 250 * time.Millisecond

// Service is the identity store. Reads are served from memory; every write
// goes through the durable RosterStore before the in-memory copy changes.
type Service struct {
	store store.RosterStore

	mu        sync.RWMutex
	admins    map[string]string
	students  map[string]string
	inventory map[string]string

	// idle is true only while the access loop is blocked waiting for a
	// badge. Whole-table swaps are only legal while it holds.
	idle atomic.Bool
}

func NewService(st store.RosterStore) *Service {
	return &Service{
		store:     st,
		admins:    map[string]string{},
		students:  map[string]string{},
		inventory: map[string]string{},
	}
}

// Load reads all three tables from durable storage. Missing tables come
// back empty, so a first boot is indistinguishable from an empty roster.
func (s *Service) Load(ctx context.Context) error {
	admins, err := s.store.LoadTable(ctx, types.TableAdmins)
	if err != nil {
		return err
	}
	students, err := s.store.LoadTable(ctx, types.TableStudents)
	if err != nil {
		return err
	}
	inventory, err := s.store.LoadTable(ctx, types.TableInventory)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.admins, s.students, s.inventory = admins, students, inventory
	s.mu.Unlock()
	return nil
}

// Classify looks a badge up, admins first — an id that erroneously appears
// in both tables is deterministically an admin.
func (s *Service) Classify(badgeID string) (types.Role, string) {
	badgeID = strings.TrimSpace(badgeID)
	if badgeID == "" {
		return types.RoleUnknown, ""
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if name, ok := s.admins[badgeID]; ok {
		return types.RoleAdmin, name
	}
	if name, ok := s.students[badgeID]; ok {
		return types.RoleStudent, name
	}
	return types.RoleUnknown, ""
}

func (s *Service) HasAdmins() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.admins) > 0
}

// ItemName resolves an inventory tag to its enrolled item name.
func (s *Service) ItemName(tagID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name, ok := s.inventory[tagID]
	return name, ok
}

// KnownTags returns the set of every enrolled inventory tag.
func (s *Service) KnownTags() types.TagSet {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tags := make(types.TagSet, len(s.inventory))
	for tag := range s.inventory {
		tags.Add(tag)
	}
	return tags
}

// AppendIdentity enrolls one badge or tag: durable write first, then the
// in-memory table. Used by the enrollment server.
func (s *Service) AppendIdentity(ctx context.Context, table types.Table, key, value string) error {
	if err := s.store.AppendEntry(ctx, table, key, value); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch table {
	case types.TableAdmins:
		s.admins[key] = value
	case types.TableStudents:
		s.students[key] = value
	case types.TableInventory:
		s.inventory[key] = value
	}
	return nil
}

// Tables returns a deep copy of all three tables, for comparison by the
// roster sync.
func (s *Service) Tables() map[types.Table]map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[types.Table]map[string]string, 3)
	for table, src := range map[types.Table]map[string]string{
		types.TableAdmins:    s.admins,
		types.TableStudents:  s.students,
		types.TableInventory: s.inventory,
	} {
		cp := make(map[string]string, len(src))
		for k, v := range src {
			cp[k] = v
		}
		out[table] = cp
	}
	return out
}

// SetIdle flips the idle flag. Only the access control loop calls this.
func (s *Service) SetIdle(idle bool) {
	s.idle.Store(idle)
}

// Idle reports whether it is currently safe to swap tables.
func (s *Service) Idle() bool {
	return s.idle.Load()
}

// ReplaceAllWhenIdle atomically swaps in a full new roster, blocking until
// the cabinet is idle. A swap mid-authorization could revoke a badge that is
// already mid-transaction, so a busy cabinet makes the caller wait and
// retry rather than forcing the swap.
func (s *Service) ReplaceAllWhenIdle(ctx context.Context, tables map[types.Table]map[string]string) error {
	for !s.idle.Load() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(swapRetryInterval):
		}
	}

	for table, contents := range tables {
		if err := s.store.ReplaceTable(ctx, table, contents); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := tables[types.TableAdmins]; ok {
		s.admins = t
	}
	if t, ok := tables[types.TableStudents]; ok {
		s.students = t
	}
	if t, ok := tables[types.TableInventory]; ok {
		s.inventory = t
	}
	return nil
}
