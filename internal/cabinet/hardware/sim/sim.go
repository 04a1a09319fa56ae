// Package sim provides in-memory hardware implementations. Tests script
// them directly; the binary falls back to them when no real drivers are
// wired, which keeps the controller runnable on a bench without a cabinet.
package sim

import (
	"context"
	"sync"
	"time"

	"github.com/smartcabinet/controller/internal/cabinet/hardware"
	"github.com/smartcabinet/controller/internal/cabinet/types"
)

// BadgeScanner feeds badge reads from a channel. Present pushes a badge as
// if it were tapped on the scanner.
type BadgeScanner struct {
	mu    sync.Mutex
	reads chan string
	led   hardware.Led
	beeps []hardware.Buzzer
}

func NewBadgeScanner() *BadgeScanner {
	return &BadgeScanner{reads: make(chan string, 16)}
}

// Present queues a badge tap.
func (s *BadgeScanner) Present(badgeID string) {
	s.reads <- badgeID
}

func (s *BadgeScanner) ReadBadge(ctx context.Context, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		select {
		case id := <-s.reads:
			return id, nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case id := <-s.reads:
		return id, nil
	case <-t.C:
		return "", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (s *BadgeScanner) SetLED(led hardware.Led) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.led = led
}

func (s *BadgeScanner) Beep(b hardware.Buzzer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beeps = append(s.beeps, b)
}

// LED returns the last color set. Test-only helper.
func (s *BadgeScanner) LED() hardware.Led {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.led
}

// Beeps returns a copy of every beep issued so far. Test-only helper.
func (s *BadgeScanner) Beeps() []hardware.Buzzer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]hardware.Buzzer, len(s.beeps))
	copy(out, s.beeps)
	return out
}

// InventoryReader returns whatever tag set was last staged with SetTags.
type InventoryReader struct {
	mu    sync.Mutex
	tags  types.TagSet
	sweep time.Duration
}

func NewInventoryReader(tags ...string) *InventoryReader {
	return &InventoryReader{tags: types.NewTagSet(tags...)}
}

// SetTags stages the tags the next sweep will report.
func (r *InventoryReader) SetTags(tags ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tags = types.NewTagSet(tags...)
}

// AddTag stages one extra tag without disturbing the rest.
func (r *InventoryReader) AddTag(tag string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tags.Add(tag)
}

// SetSweepDuration makes Scan take a fixed amount of time, approximating a
// real RF sweep. Zero (the default) returns immediately.
func (r *InventoryReader) SetSweepDuration(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweep = d
}

func (r *InventoryReader) Scan(ctx context.Context) (types.TagSet, error) {
	r.mu.Lock()
	sweep := r.sweep
	tags := r.tags.Clone()
	r.mu.Unlock()

	if sweep > 0 {
		t := time.NewTimer(sweep)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return tags, nil
}

// LockRelay records every signal transition so tests can assert idempotence
// (setting the same state twice must not register a second transition).
type LockRelay struct {
	mu          sync.Mutex
	energized   bool
	transitions int
}

func NewLockRelay() *LockRelay { return &LockRelay{} }

func (r *LockRelay) Set(energized bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.energized != energized {
		r.transitions++
	}
	r.energized = energized
}

// Energized reports the current relay state. Test-only helper.
func (r *LockRelay) Energized() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.energized
}

// Transitions reports how many times the output actually changed level.
func (r *LockRelay) Transitions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transitions
}

// DoorSensor is one settable door leaf.
type DoorSensor struct {
	mu     sync.Mutex
	closed bool
}

func NewDoorSensor(closed bool) *DoorSensor { return &DoorSensor{closed: closed} }

func (s *DoorSensor) SetClosed(closed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = closed
}

func (s *DoorSensor) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
