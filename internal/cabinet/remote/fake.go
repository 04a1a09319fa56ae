package remote

import (
	"context"
	"errors"
	"sync"

	"github.com/smartcabinet/controller/internal/cabinet/types"
)

// ErrOffline is returned by the fake when its online flag is down.
var ErrOffline = errors.New("remote unreachable")

// Fake is an in-memory remote store for tests and dev environments. It
// implements Roster and LogBook, enforces the log-length cap the way the
// real sheet does, and can be flipped offline.
type Fake struct {
	mu     sync.Mutex
	online bool
	tables map[types.Table][]Row
	logs   map[string][][]string // per item, newest-first
	sheets map[string]bool
}

func NewFake() *Fake {
	return &Fake{
		online: true,
		tables: make(map[types.Table][]Row),
		logs:   make(map[string][][]string),
		sheets: make(map[string]bool),
	}
}

// SetOnline flips reachability. The matching Probe reports the same state.
func (f *Fake) SetOnline(online bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.online = online
}

// Probe returns a Probe wired to the fake's online flag.
func (f *Fake) Probe() Probe {
	return func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.online
	}
}

// SetTable replaces a roster worksheet wholesale. Test setup helper.
func (f *Fake) SetTable(table types.Table, rows []Row) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tables[table] = append([]Row(nil), rows...)
}

func (f *Fake) FetchTable(_ context.Context, table types.Table) ([]Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.online {
		return nil, ErrOffline
	}
	return append([]Row(nil), f.tables[table]...), nil
}

func (f *Fake) AppendIdentity(_ context.Context, table types.Table, badgeID, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.online {
		return ErrOffline
	}
	f.tables[table] = append(f.tables[table], Row{Name: name, BadgeID: badgeID})
	return nil
}

func (f *Fake) Append(_ context.Context, item string, entries []types.LogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.online {
		return ErrOffline
	}

	rows := f.logs[item]
	for _, e := range entries {
		rows = append([][]string{e.Row()}, rows...)
	}
	if len(rows) > types.MaxLogLength {
		rows = rows[:types.MaxLogLength]
	}
	f.logs[item] = rows
	return nil
}

func (f *Fake) CreateSheet(_ context.Context, item string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.online {
		return ErrOffline
	}
	f.sheets[item] = true
	if _, ok := f.logs[item]; !ok {
		f.logs[item] = nil
	}
	return nil
}

// LogRows returns a copy of an item's log, newest-first. Test-only helper.
func (f *Fake) LogRows(item string) [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]string, len(f.logs[item]))
	for i, r := range f.logs[item] {
		out[i] = append([]string(nil), r...)
	}
	return out
}

// HasSheet reports whether CreateSheet was called for item. Test-only helper.
func (f *Fake) HasSheet(item string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sheets[item]
}

// TableRows returns a copy of a roster worksheet. Test-only helper.
func (f *Fake) TableRows(table types.Table) []Row {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Row(nil), f.tables[table]...)
}
