// Package hardware defines the abstract capabilities of the cabinet's
// peripherals: the badge scanner on the front panel, the inventory RFID
// reader inside the cabinet, the strike relay, and the door sensors.
//
// Real drivers (pcProx serial scanner, ThingMagic reader, GPIO) live behind
// these interfaces and are out of scope here; the sim subpackage provides
// scriptable implementations for tests and bench runs.
package hardware

import (
	"context"
	"time"

	"github.com/smartcabinet/controller/internal/cabinet/types"
)

// Led is the badge scanner's indicator color.
type Led int

const (
	LedOff Led = iota
	LedRed
	LedGreen
	LedAmber
)

// Buzzer selects a beep pattern on the badge scanner.
type Buzzer int

const (
	BuzzOne  Buzzer = 1 // acknowledge
	BuzzFive Buzzer = 5 // alarm / error
	BuzzLong Buzzer = 101
)

// BadgeScanner reads badges presented to the front-panel scanner and drives
// its LED and buzzer.
type BadgeScanner interface {
	// ReadBadge blocks until a badge is presented, the timeout elapses, or
	// ctx is cancelled. A zero or negative timeout blocks indefinitely.
	// An empty id with a nil error means the read timed out.
	ReadBadge(ctx context.Context, timeout time.Duration) (string, error)

	SetLED(led Led)
	Beep(b Buzzer)
}

// InventoryReader performs a fixed-duration RF sweep of the cabinet interior
// and reports every tag currently in range.
type InventoryReader interface {
	Scan(ctx context.Context) (types.TagSet, error)
}

// LockRelay drives the electric strike. Energized means unlocked.
type LockRelay interface {
	Set(energized bool)
}

// DoorSensor reports one door leaf. Closed is true while the leaf's reed
// switch is made.
type DoorSensor interface {
	Closed() bool
}
