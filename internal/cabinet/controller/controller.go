// Package controller runs the cabinet's foreground state machine: scan a
// badge, classify, unlock, supervise the door, and hand the transaction off
// to the logbook. Everything slow or remote happens on background
// goroutines so the loop is always back at the scanner promptly.
package controller

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/smartcabinet/controller/internal/cabinet/door"
	"github.com/smartcabinet/controller/internal/cabinet/enroll"
	"github.com/smartcabinet/controller/internal/cabinet/hardware"
	"github.com/smartcabinet/controller/internal/cabinet/logbook"
	"github.com/smartcabinet/controller/internal/cabinet/remote"
	"github.com/smartcabinet/controller/internal/cabinet/roster"
	"github.com/smartcabinet/controller/internal/cabinet/types"
	"github.com/smartcabinet/controller/internal/metrics"
)

// Timeouts holds the state machine's soft deadlines. They transition
// states; none of them is an error.
type Timeouts struct {
	// Open is how long a granted user has to pull the door open before
	// the transaction is abandoned and the strike re-locks.
	Open time.Duration

	// Close is how long a student may keep the door open before the
	// alarm starts. Admins are exempt.
	Close time.Duration

	// HoldGrace is the pause after unlocking before the hold re-read; it
	// gives the admin time to take the badge away if they only want the
	// door.
	HoldGrace time.Duration

	// HoldRead is the re-read window: the same badge still present within
	// it means "enter enrollment", not "open the door".
	HoldRead time.Duration

	// DenyPause keeps the red LED visible after an unknown badge.
	DenyPause time.Duration

	// AlarmInterval spaces the alarm beeps while the door is held open.
	AlarmInterval time.Duration
}

// DefaultTimeouts match the cabinet's long-standing constants: 5s to open,
// 60s to close, 1s grace + 100ms re-read for hold detection.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Open:          5 * time.Second,
		Close:         60 * time.Second,
		HoldGrace:     time.Second,
		HoldRead:      100 * time.Millisecond,
		DenyPause:     time.Second,
		AlarmInterval: time.Second,
	}
}

type Dependencies struct {
	Badge    hardware.BadgeScanner
	Door     *door.Controller
	Roster   *roster.Service
	Recorder *logbook.Recorder
	Enroll   *enroll.Server
	Online   remote.Probe
	Logger   *log.Logger
	Metrics  *metrics.Metrics
	Timeouts Timeouts
}

type Controller struct {
	badge    hardware.BadgeScanner
	door     *door.Controller
	roster   *roster.Service
	recorder *logbook.Recorder
	enroll   *enroll.Server
	online   remote.Probe
	logger   *log.Logger
	metrics  *metrics.Metrics
	t        Timeouts
}

func New(d Dependencies) *Controller {
	return &Controller{
		badge:    d.Badge,
		door:     d.Door,
		roster:   d.Roster,
		recorder: d.Recorder,
		enroll:   d.Enroll,
		online:   d.Online,
		logger:   d.Logger,
		metrics:  d.Metrics,
		t:        d.Timeouts,
	}
}

// Run drives the cabinet until ctx is cancelled. It assumes the roster is
// loaded; boot sequencing (door closed, lock, snapshot) happens here so
// every start reaches the loop in the same state.
func (c *Controller) Run(ctx context.Context) error {
	// The cabinet always starts locked with the door shut; whatever state
	// the power cut left behind is gone, so re-derive it.
	if !c.door.WaitClosed(ctx, 0) {
		return ctx.Err()
	}
	c.door.Lock()

	if err := c.recorder.Rebuild(ctx); err != nil {
		return err
	}
	if err := c.recorder.InitBacklog(ctx); err != nil {
		return err
	}

	// A cabinet with no admins cannot be used or administered; block in a
	// persistent enrollment session until at least one exists.
	if !c.roster.HasAdmins() {
		c.logger.Printf("no admins enrolled; entering persistent enrollment")
		c.door.Unlock()
		if err := c.enroll.Run(ctx, true); err != nil {
			return err
		}
		c.door.Lock()
		if !c.roster.HasAdmins() {
			c.logger.Printf("persistent enrollment ended with no admins; continuing anyway")
		}
	}

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.scanOnce(ctx)
	}
}

// scanOnce is one trip around the state machine: Idle → Classifying →
// Unlocking → (hold?) → SupervisingDoor → Logging → Idle.
func (c *Controller) scanOnce(ctx context.Context) {
	c.badge.SetLED(hardware.LedAmber)
	c.roster.SetIdle(true)

	badgeID, err := c.badge.ReadBadge(ctx, 0)
	if err != nil || badgeID == "" {
		return
	}

	role, name := c.roster.Classify(badgeID)
	if role == types.RoleUnknown {
		c.metrics.ScansTotal.WithLabelValues("denied").Inc()
		c.badge.SetLED(hardware.LedRed)
		sleep(ctx, c.t.DenyPause)
		return
	}

	c.roster.SetIdle(false)
	c.metrics.ScansTotal.WithLabelValues(role.String()).Inc()

	txn := uuid.NewString()
	c.logger.Printf("txn=%s badge=%s role=%s name=%q granted", txn, badgeID, role, name)

	c.badge.Beep(hardware.BuzzOne)
	c.badge.SetLED(hardware.LedGreen)
	c.door.Unlock()

	admin := role == types.RoleAdmin
	if admin && c.detectHold(ctx, badgeID) {
		c.enrollmentSession(ctx, txn, badgeID, name)
		return
	}

	if !c.superviseDoor(ctx, admin) {
		// Never opened: the user walked away. No usage, nothing to log.
		c.logger.Printf("txn=%s door not opened, transaction abandoned", txn)
		return
	}

	c.badge.SetLED(hardware.LedRed)
	go func() {
		c.recorder.Record(ctx, txn, badgeID, name)
		c.badge.Beep(hardware.BuzzOne)
	}()
}

// detectHold distinguishes "unlock for me" from "enter enrollment": after a
// grace pause, an admin badge still in scanner range reads again within a
// short window.
func (c *Controller) detectHold(ctx context.Context, badgeID string) bool {
	sleep(ctx, c.t.HoldGrace)
	again, err := c.badge.ReadBadge(ctx, c.t.HoldRead)
	return err == nil && again == badgeID
}

// enrollmentSession runs the admin enrollment flow behind an already
// unlocked door, then restores the locked-idle state. Enrollment needs the
// remote roster, so without connectivity the session is skipped outright.
func (c *Controller) enrollmentSession(ctx context.Context, txn, badgeID, name string) {
	if !c.online() {
		c.logger.Printf("txn=%s enrollment requested while offline, skipping session", txn)
	} else {
		c.badge.Beep(hardware.BuzzOne)
		c.logger.Printf("txn=%s entering enrollment session", txn)
		if err := c.enroll.Run(ctx, false); err != nil {
			c.logger.Printf("txn=%s enrollment session: %v", txn, err)
		}
	}

	// Admin may be working inside; wait however long it takes.
	c.door.WaitClosed(ctx, 0)
	c.door.Lock()
	c.badge.Beep(hardware.BuzzOne)

	// The session may have added or taken inventory; log it like any other
	// transaction, without holding up the next badge.
	go c.recorder.Record(ctx, txn, badgeID, name)
}

// superviseDoor watches one open/close cycle and re-locks. Reports whether
// the cabinet was actually used (door opened).
func (c *Controller) superviseDoor(ctx context.Context, admin bool) bool {
	if !c.door.WaitOpen(ctx, c.t.Open) {
		c.door.Lock()
		return false
	}

	if admin {
		// Admins may prop the door open through a whole lab session.
		c.door.WaitClosed(ctx, 0)
	} else if !c.door.WaitClosed(ctx, c.t.Close) {
		c.alarm(ctx)
	}

	c.door.Lock()
	return true
}

// alarm beeps until the door is physically closed. There is no timeout:
// an open cabinet stays loud.
func (c *Controller) alarm(ctx context.Context) {
	c.logger.Printf("door held open past close timeout, alarming")
	for !c.door.IsClosed() {
		if ctx.Err() != nil {
			return
		}
		c.badge.Beep(hardware.BuzzFive)
		sleep(ctx, c.t.AlarmInterval)
	}
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
