// Package remote is the boundary to the spreadsheet-backed roster and log
// store. The cabinet treats it as an external collaborator: reachable on a
// good day, absent on a bad one, and never load-bearing for the foreground
// scan loop.
package remote

import (
	"context"
	"net"
	"time"

	"github.com/smartcabinet/controller/internal/cabinet/types"
)

// Row is one roster worksheet row. Revoked mirrors the sheet's access flag:
// a revoked row is filtered out before the local tables are replaced.
type Row struct {
	Name    string `json:"name"`
	BadgeID string `json:"badge_id"`
	Revoked bool   `json:"revoked"`
}

// Roster reads and appends the ADMINS/STUDENTS/INVENTORY worksheets.
type Roster interface {
	FetchTable(ctx context.Context, table types.Table) ([]Row, error)
	AppendIdentity(ctx context.Context, table types.Table, badgeID, name string) error
}

// LogBook appends usage entries to per-item log destinations. Append
// inserts newest-first and evicts the oldest rows beyond MaxLogLength.
// CreateSheet provisions a fresh, empty destination for newly enrolled
// inventory.
type LogBook interface {
	Append(ctx context.Context, item string, entries []types.LogEntry) error
	CreateSheet(ctx context.Context, item string) error
}

// Probe is a cheap reachability check. Connectivity loss is expected and is
// a degradation trigger, not a fault.
type Probe func() bool

// DialProbe probes by opening (and immediately closing) a TCP connection to
// a well-known host, the same trick the cabinet has always used to answer
// "are we online".
func DialProbe(addr string) Probe {
	if addr == "" {
		addr = "one.one.one.one:80"
	}
	return func() bool {
		conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true
	}
}
