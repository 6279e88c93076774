package dragdrop

import (
	"time"

	"github.com/javiermolinar/coachcal/internal/conflict"
)

// State is a drag lifecycle state.
type State int

const (
	Idle State = iota
	Dragging
	Dropped
	Checking
	Committed
	ConflictPresented
	RolledBack
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Dropped:
		return "dropped"
	case Checking:
		return "checking"
	case Committed:
		return "committed"
	case ConflictPresented:
		return "conflict-presented"
	case RolledBack:
		return "rolled-back"
	default:
		return "unknown"
	}
}

// Target is the cell a drag is released over.
type Target struct {
	Day       time.Time
	Hour      int
	Minute    int
	TrainerID string // empty keeps the current trainer
	Disabled  bool   // cell does not accept drops
}

// Accepts returns true if the target can receive a drop.
func (t *Target) Accepts() bool {
	return t != nil && !t.Disabled
}

// Start returns the absolute start time the target represents.
func (t *Target) Start() time.Time {
	d := t.Day
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour, t.Minute, 0, 0, d.Location())
}

// Payload describes one drag gesture.
type Payload struct {
	SessionID string
	FromDate  time.Time
	ToDate    time.Time
	ToHour    int
	ToMinute  int
	TrainerID string
}

// Ticket identifies one pending conflict check.
type Ticket struct {
	SessionID    string
	Generation   uint64
	Placement    conflict.Placement
	StoreVersion uint64 // store version the check runs against
}

// Outcome is the result of running a ticket's check.
type Outcome struct {
	Ticket
	Result *conflict.Result
	Err    error
}

// Transition records one state change.
type Transition struct {
	SessionID  string
	From       State
	To         State
	Generation uint64
	Reason     string
	Stale      bool // the outcome was superseded and discarded
}

// drag is the per-session record of an active gesture.
type drag struct {
	state      State
	generation uint64
	payload    Payload
	placement  conflict.Placement
	result     *conflict.Result
	lastErr    error
}
