package types

import "time"

// Action labels what an inventory diff says happened to a single item.
type Action string

const (
	// ActionBorrowed: the tag was present at the last snapshot and is gone now.
	ActionBorrowed Action = "borrowed"
	// ActionReturned: the tag reappeared and resolves to a known inventory item.
	ActionReturned Action = "returned"
	// ActionAdded: the tag appeared but was never enrolled; logged under the
	// raw tag id so an admin can spot foreign items left in the cabinet.
	ActionAdded Action = "added"
)

// MaxLogLength caps every log destination (remote worksheet). Once a
// destination holds this many rows the oldest row is evicted on insert.
const MaxLogLength = 1000

// TimestampLayout matches the log sheet's timestamp column.
const TimestampLayout = "01/02/2006-15:04:05"

// LogEntry is one appended, never-mutated row of an item's usage log.
type LogEntry struct {
	Item      string
	BadgeID   string
	ActorName string
	Action    Action
	Timestamp time.Time
}

// Row renders the entry in log-sheet column order (user, RFID, action,
// timestamp).
func (e LogEntry) Row() []string {
	return []string{e.ActorName, e.BadgeID, string(e.Action), e.Timestamp.Format(TimestampLayout)}
}
