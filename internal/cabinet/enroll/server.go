// Package enroll implements the admin enrollment server: a single-client,
// session-oriented TCP handler through which a remote admin app adds new
// admins, students, and inventory items.
//
// The wire discipline is strict turn-taking. The transport gives no message
// framing, so each side sends at most one message (max 1024 bytes, one
// transport read) and waits for the other side's 3-byte "ack" before
// proceeding. Any violation — unknown token, short read, early disconnect —
// is a client fault that tears the session down; it never disturbs the
// access control loop.
package enroll

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/smartcabinet/controller/internal/cabinet/hardware"
	"github.com/smartcabinet/controller/internal/cabinet/inventory"
	"github.com/smartcabinet/controller/internal/cabinet/remote"
	"github.com/smartcabinet/controller/internal/cabinet/roster"
	"github.com/smartcabinet/controller/internal/cabinet/types"
	"github.com/smartcabinet/controller/internal/metrics"
)

const (
	// maxMessage bounds a single transport read; message boundaries equal
	// read boundaries, so the peer never sends more than this at once.
	maxMessage = 1024

	// acceptTimeout bounds the wait for the admin app in an ordinary
	// session. No connection within the bound means the admin changed
	// their mind — a quiet abort, not an error.
	acceptTimeout = 60 * time.Second

	// badgeTimeout bounds the in-session wait for a badge or tag scan.
	badgeTimeout = 60 * time.Second
)

var ack = []byte("ack")

type Server struct {
	addr    string
	badge   hardware.BadgeScanner
	scanner *inventory.Scanner
	roster  *roster.Service
	remote  remote.Roster
	logs    remote.LogBook
	logger  *log.Logger
	metrics *metrics.Metrics

	// onListen, when set, is told the bound address as soon as Run starts
	// listening. Tests use it to find an ephemeral port.
	onListen func(net.Addr)
}

type Dependencies struct {
	Addr          string
	BadgeScanner  hardware.BadgeScanner
	InventoryScan *inventory.Scanner
	Roster        *roster.Service
	RemoteRoster  remote.Roster
	RemoteLogs    remote.LogBook
	Logger        *log.Logger
	Metrics       *metrics.Metrics
	OnListen      func(net.Addr)
}

func NewServer(d Dependencies) *Server {
	return &Server{
		addr:     d.Addr,
		badge:    d.BadgeScanner,
		scanner:  d.InventoryScan,
		roster:   d.Roster,
		remote:   d.RemoteRoster,
		logs:     d.RemoteLogs,
		logger:   d.Logger,
		metrics:  d.Metrics,
		onListen: d.OnListen,
	}
}

// Run listens for exactly one admin connection and serves its session to
// completion. With persistent=false the accept gives up after 60 seconds;
// persistent=true blocks until a connection arrives and is reserved for the
// zero-admins bootstrap, without which the cabinet cannot function.
//
// Protocol faults are absorbed here: Run logs them and returns nil so the
// caller's loop carries on regardless.
func (s *Server) Run(ctx context.Context, persistent bool) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("enroll listen %s: %w", s.addr, err)
	}
	if s.onListen != nil {
		s.onListen(ln.Addr())
	}
	return s.ServeListener(ctx, ln, persistent)
}

// ServeListener is Run over a caller-provided listener. The listener is
// closed when the session ends.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener, persistent bool) error {
	defer ln.Close()

	// Unblock Accept if the controller shuts down.
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	if !persistent {
		if tl, ok := ln.(*net.TCPListener); ok {
			_ = tl.SetDeadline(time.Now().Add(acceptTimeout))
		}
	}

	conn, err := ln.Accept()
	if err != nil {
		var nerr net.Error
		if errors.As(err, &nerr) && nerr.Timeout() {
			s.logger.Printf("enroll: no admin connection within %s, aborting session", acceptTimeout)
			s.metrics.EnrollmentSessions.WithLabelValues("timeout").Inc()
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("enroll accept: %w", err)
	}
	defer conn.Close()

	// Same treatment for the session socket: a shutdown mid-session must not
	// leave the server blocked in a read on a silent peer.
	stopSession := context.AfterFunc(ctx, func() { conn.Close() })
	defer stopSession()

	s.logger.Printf("enroll: session opened from %s", conn.RemoteAddr())

	if err := s.session(ctx, conn); err != nil {
		// Client fault: tear down the socket and move on.
		s.logger.Printf("enroll: session fault: %v", err)
		s.metrics.EnrollmentSessions.WithLabelValues("fault").Inc()
		return nil
	}
	s.metrics.EnrollmentSessions.WithLabelValues("done").Inc()
	return nil
}

func (s *Server) session(ctx context.Context, conn net.Conn) error {
	for {
		token, err := s.recv(conn)
		if err != nil {
			return fmt.Errorf("read command: %w", err)
		}
		cmd, err := ParseCommand(token)
		if err != nil {
			return err
		}

		switch cmd {
		case CommandDone:
			s.logger.Printf("enroll: session done")
			return nil
		case CommandAdmin:
			err = s.addIdentity(ctx, conn, types.TableAdmins)
		case CommandStudent:
			err = s.addIdentity(ctx, conn, types.TableStudents)
		case CommandShoebox:
			err = s.addShoebox(ctx, conn)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", cmd, err)
		}
	}
}

// addIdentity enrolls one badge: scan, send the id to the peer, receive the
// human-entered name, write through locally and remotely.
func (s *Server) addIdentity(ctx context.Context, conn net.Conn, table types.Table) error {
	badgeID, err := s.badge.ReadBadge(ctx, badgeTimeout)
	if err != nil {
		return fmt.Errorf("badge scan: %w", err)
	}
	if badgeID == "" {
		return errors.New("badge scan timed out")
	}

	if err := s.send(conn, []byte(badgeID)); err != nil {
		return err
	}
	name, err := s.recv(conn)
	if err != nil {
		return fmt.Errorf("read name: %w", err)
	}

	if err := s.roster.AppendIdentity(ctx, table, badgeID, string(name)); err != nil {
		return fmt.Errorf("local append: %w", err)
	}
	s.appendRemote(table, badgeID, string(name))

	s.logger.Printf("enroll: added %s %q (%s)", table, name, badgeID)
	return nil
}

// addShoebox enrolls one inventory item: the admin puts it in the cabinet,
// the first unfamiliar tag is sent to the peer, and the entered item name
// gets a roster row plus a fresh log destination.
func (s *Server) addShoebox(ctx context.Context, conn net.Conn) error {
	scanCtx, cancel := context.WithTimeout(ctx, badgeTimeout)
	defer cancel()

	tag, err := s.scanner.ScanUntilNew(scanCtx, s.roster.KnownTags())
	if err != nil {
		return fmt.Errorf("tag scan: %w", err)
	}

	if err := s.send(conn, []byte(tag)); err != nil {
		return err
	}
	name, err := s.recv(conn)
	if err != nil {
		return fmt.Errorf("read item name: %w", err)
	}
	item := string(name)

	if err := s.roster.AppendIdentity(ctx, types.TableInventory, tag, item); err != nil {
		return fmt.Errorf("local append: %w", err)
	}
	s.appendRemote(types.TableInventory, tag, item)
	go func() {
		rctx, rcancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer rcancel()
		if err := s.logs.CreateSheet(rctx, item); err != nil {
			s.logger.Printf("enroll: create log sheet %q: %v", item, err)
		}
	}()

	s.logger.Printf("enroll: added inventory %q (%s)", item, tag)
	return nil
}

// appendRemote pushes a new roster row in the background; the session
// doesn't stall on the spreadsheet, and a failure only costs a log line —
// the row is already durable locally and the next sync reconciles.
func (s *Server) appendRemote(table types.Table, key, value string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.remote.AppendIdentity(ctx, table, key, value); err != nil {
			s.logger.Printf("enroll: remote append %s: %v", table, err)
		}
	}()
}

// send writes one message and waits for the peer's ack.
func (s *Server) send(conn net.Conn, msg []byte) error {
	if _, err := conn.Write(msg); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	buf := make([]byte, maxMessage)
	n, err := conn.Read(buf)
	if err != nil {
		return fmt.Errorf("await ack: %w", err)
	}
	if !bytes.Equal(buf[:n], ack) {
		return fmt.Errorf("expected ack, got %q", buf[:n])
	}
	return nil
}

// recv reads one message and acks it.
func (s *Server) recv(conn net.Conn) ([]byte, error) {
	buf := make([]byte, maxMessage)
	n, err := conn.Read(buf)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, errors.New("empty message")
	}
	if _, err := conn.Write(ack); err != nil {
		return nil, fmt.Errorf("send ack: %w", err)
	}
	return buf[:n], nil
}
