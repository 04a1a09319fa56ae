package syncer

import (
	"context"
	"log"
	"maps"
	"time"

	"github.com/smartcabinet/controller/internal/cabinet/remote"
	"github.com/smartcabinet/controller/internal/cabinet/roster"
	"github.com/smartcabinet/controller/internal/cabinet/types"
)

const defaultSyncInterval = 60 * time.Second

// RosterSync periodically pulls the remote roster worksheets, filters out
// revoked rows, and — strictly while the cabinet is idle — swaps the result
// into the identity store and local durable storage. This is how access
// revocation reaches an offline-capable cabinet.
type RosterSync struct {
	remote remote.Roster
	roster *roster.Service
	online remote.Probe
	logger *log.Logger

	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewRosterSync(rem remote.Roster, ros *roster.Service, online remote.Probe, logger *log.Logger) *RosterSync {
	return &RosterSync{
		remote:   rem,
		roster:   ros,
		online:   online,
		logger:   logger,
		interval: defaultSyncInterval,
		done:     make(chan struct{}),
	}
}

// SetInterval shortens the sync interval; tests use this.
func (s *RosterSync) SetInterval(d time.Duration) {
	if d > 0 {
		s.interval = d
	}
}

func (s *RosterSync) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	go s.loop(ctx)
}

func (s *RosterSync) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	<-s.done
}

func (s *RosterSync) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.online() {
				continue
			}
			s.syncOnce(ctx)
		}
	}
}

// syncOnce fetches every table and applies changes, if any. Fetch errors
// skip the cycle; connectivity loss is expected, not a fault.
func (s *RosterSync) syncOnce(ctx context.Context) {
	fetched := make(map[types.Table]map[string]string, 3)
	for _, table := range []types.Table{types.TableAdmins, types.TableStudents, types.TableInventory} {
		rows, err := s.remote.FetchTable(ctx, table)
		if err != nil {
			s.logger.Printf("roster sync: fetch %s: %v", table, err)
			return
		}

		contents := make(map[string]string, len(rows))
		for _, row := range rows {
			if row.Revoked {
				continue
			}
			contents[row.BadgeID] = row.Name
		}
		fetched[table] = contents
	}

	// An entirely empty remote roster is more likely a half-provisioned
	// spreadsheet than a mass revocation; never wipe local tables over it.
	if len(fetched[types.TableAdmins]) == 0 && len(fetched[types.TableStudents]) == 0 &&
		len(fetched[types.TableInventory]) == 0 {
		return
	}

	current := s.roster.Tables()
	changed := false
	for table, contents := range fetched {
		if !maps.Equal(current[table], contents) {
			changed = true
			break
		}
	}
	if !changed {
		return
	}

	if err := s.roster.ReplaceAllWhenIdle(ctx, fetched); err != nil {
		s.logger.Printf("roster sync: replace: %v", err)
		return
	}
	s.logger.Printf("roster sync: applied remote roster (admins=%d students=%d inventory=%d)",
		len(fetched[types.TableAdmins]), len(fetched[types.TableStudents]), len(fetched[types.TableInventory]))
}
