package door_test

import (
	"context"
	"testing"
	"time"

	"github.com/smartcabinet/controller/internal/cabinet/door"
	"github.com/smartcabinet/controller/internal/cabinet/hardware"
	"github.com/smartcabinet/controller/internal/cabinet/hardware/sim"
)

func newTestController(leaves ...*sim.DoorSensor) (*door.Controller, *sim.LockRelay) {
	relay := sim.NewLockRelay()
	sensors := make([]hardware.DoorSensor, 0, len(leaves))
	for _, l := range leaves {
		sensors = append(sensors, l)
	}
	c := door.NewController(relay, sensors,
		door.WithPollInterval(5*time.Millisecond),
		door.WithSettleDelay(0),
	)
	return c, relay
}

func TestLock_Idempotent(t *testing.T) {
	leaf := sim.NewDoorSensor(true)
	c, relay := newTestController(leaf)

	c.Unlock()
	if !relay.Energized() {
		t.Fatal("expected strike energized after Unlock")
	}

	c.Lock()
	c.Lock()
	if relay.Energized() {
		t.Fatal("expected strike de-energized after Lock")
	}
	// Unlock + single effective lock: exactly two level changes.
	if got := relay.Transitions(); got != 2 {
		t.Fatalf("expected 2 relay transitions, got %d", got)
	}
}

func TestIsOpen_AnyLeafOpens(t *testing.T) {
	left := sim.NewDoorSensor(true)
	right := sim.NewDoorSensor(true)
	c, _ := newTestController(left, right)

	if c.IsOpen() {
		t.Fatal("both leaves closed: expected IsOpen=false")
	}
	right.SetClosed(false)
	if !c.IsOpen() {
		t.Fatal("one leaf open: expected IsOpen=true")
	}
	if c.IsClosed() {
		t.Fatal("one leaf open: expected IsClosed=false")
	}
}

func TestWaitOpen_TimesOut(t *testing.T) {
	leaf := sim.NewDoorSensor(true)
	c, _ := newTestController(leaf)

	start := time.Now()
	opened := c.WaitOpen(context.Background(), 30*time.Millisecond)
	if opened {
		t.Fatal("door never opened: expected WaitOpen=false")
	}
	if time.Since(start) < 30*time.Millisecond {
		t.Fatal("WaitOpen returned before the timeout elapsed")
	}
}

func TestWaitOpen_SeesOpening(t *testing.T) {
	leaf := sim.NewDoorSensor(true)
	c, _ := newTestController(leaf)

	go func() {
		time.Sleep(20 * time.Millisecond)
		leaf.SetClosed(false)
	}()
	if !c.WaitOpen(context.Background(), time.Second) {
		t.Fatal("expected WaitOpen to observe the door opening")
	}
}

func TestWaitClosed_NoTimeoutBlocksUntilClosed(t *testing.T) {
	leaf := sim.NewDoorSensor(false)
	c, _ := newTestController(leaf)

	go func() {
		time.Sleep(25 * time.Millisecond)
		leaf.SetClosed(true)
	}()
	if !c.WaitClosed(context.Background(), 0) {
		t.Fatal("expected WaitClosed to observe the door closing")
	}
}

func TestWaitClosed_TimesOut(t *testing.T) {
	leaf := sim.NewDoorSensor(false)
	c, _ := newTestController(leaf)

	if c.WaitClosed(context.Background(), 20*time.Millisecond) {
		t.Fatal("door stayed open: expected WaitClosed=false")
	}
}
