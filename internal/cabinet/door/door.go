// Package door owns the electric strike and the door-leaf sensors.
package door

import (
	"context"
	"time"

	"github.com/smartcabinet/controller/internal/cabinet/hardware"
)

const (
	defaultPollInterval = 100 * time.Millisecond
	defaultSettleDelay  = 250 * time.Millisecond
)

// Controller exposes unlock/lock and blocking wait-for-open/closed over the
// raw relay and sensor signals. Timeouts here are state transitions, not
// errors: a door that never opens is a user who walked away.
type Controller struct {
	relay   hardware.LockRelay
	sensors []hardware.DoorSensor

	pollInterval time.Duration
	settleDelay  time.Duration
}

// Option tweaks a Controller. Defaults suit a reed switch polled at 100ms
// and a strike that needs 250ms to settle before de-energizing.
type Option func(*Controller)

func WithPollInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

func WithSettleDelay(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.settleDelay = d
		}
	}
}

func NewController(relay hardware.LockRelay, sensors []hardware.DoorSensor, opts ...Option) *Controller {
	c := &Controller{
		relay:        relay,
		sensors:      sensors,
		pollInterval: defaultPollInterval,
		settleDelay:  defaultSettleDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Unlock energizes the strike. Fail-safe and idempotent: there is nothing
// to report at the signal level.
func (c *Controller) Unlock() {
	c.relay.Set(true)
}

// Lock de-energizes the strike after the settle delay so the latch is not
// caught mid-travel. Idempotent.
func (c *Controller) Lock() {
	if c.settleDelay > 0 {
		time.Sleep(c.settleDelay)
	}
	c.relay.Set(false)
}

// IsOpen is true if any leaf reads open.
func (c *Controller) IsOpen() bool {
	for _, s := range c.sensors {
		if !s.Closed() {
			return true
		}
	}
	return false
}

// IsClosed requires every leaf to read closed.
func (c *Controller) IsClosed() bool {
	return !c.IsOpen()
}

// WaitOpen polls until the door opens or the timeout elapses, and reports
// whether it opened. ctx cancellation counts as "did not open".
func (c *Controller) WaitOpen(ctx context.Context, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if c.IsOpen() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(c.pollInterval):
		}
	}
}

// WaitClosed polls until every leaf is closed. A timeout <= 0 blocks
// indefinitely (an admin may prop the door open through a work session).
// Reports whether the door closed before the deadline.
func (c *Controller) WaitClosed(ctx context.Context, timeout time.Duration) bool {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	for {
		if c.IsClosed() {
			return true
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(c.pollInterval):
		}
	}
}
