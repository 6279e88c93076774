// Package conflict decides whether a proposed session placement collides with
// the rest of the calendar and suggests nearby free slots when it does.
//
// Conflicts are values, never errors. The only error a check produces for a
// well-formed request is ErrCheckFailed, which signals that a data source could
// not be read and the verdict is unknown.
package conflict

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/javiermolinar/coachcal/internal/session"
)

// ErrCheckFailed is returned when a data source fails during a check.
var ErrCheckFailed = errors.New("could not verify schedule, try again")

// Kind identifies the rule a conflict violates.
type Kind string

const (
	KindDoubleBooking       Kind = "double-booking"
	KindBufferViolation     Kind = "buffer-violation"
	KindPastTime            Kind = "past-time"
	KindTrainerUnavailable  Kind = "trainer-unavailable"
	KindClientDoubleBooking Kind = "client-double-booking"
)

// Severity tells whether a conflict can reasonably be overridden.
type Severity string

const (
	SeverityHard Severity = "hard"
	SeveritySoft Severity = "soft"
)

// Severity returns the default severity of a kind.
func (k Kind) Severity() Severity {
	switch k {
	case KindBufferViolation, KindClientDoubleBooking:
		return SeveritySoft
	default:
		return SeverityHard
	}
}

// Conflict is one reason a placement is rejected.
type Conflict struct {
	SessionID string // colliding session, empty for time rules
	Kind      Kind
	Severity  Severity
	Interval  session.Interval // the colliding window
	Message   string
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s (%s): %s", c.Kind, c.Severity, c.Message)
}

// SlotSuggestion is a conflict-free alternative start.
type SlotSuggestion struct {
	Start     time.Time
	TrainerID string
	Distance  time.Duration // absolute distance from the proposed start
}

// Result is the verdict for one placement.
type Result struct {
	HasConflicts bool
	Conflicts    []Conflict
	Alternatives []SlotSuggestion

	// Proposed is the effective interval the session would occupy.
	Proposed session.Interval
}

// HasHard returns true if any conflict has hard severity.
func (r *Result) HasHard() bool {
	for _, c := range r.Conflicts {
		if c.Severity == SeverityHard {
			return true
		}
	}
	return false
}

// Kinds returns the distinct conflict kinds in result order.
func (r *Result) Kinds() []Kind {
	seen := make(map[Kind]bool)
	var out []Kind
	for _, c := range r.Conflicts {
		if !seen[c.Kind] {
			seen[c.Kind] = true
			out = append(out, c.Kind)
		}
	}
	return out
}

// Placement is a proposed new position for an existing session.
type Placement struct {
	SessionID  string
	Start      time.Time
	TrainerID  string   // empty keeps the session's current trainer
	Privileged bool     // admin actor: past-time is not enforced
	Exclude    []string // sessions ignored as collision candidates
}

// At builds a placement at the top of hour on date.
func At(sessionID string, date time.Time, hour int, trainerID string) Placement {
	start := time.Date(date.Year(), date.Month(), date.Day(), hour, 0, 0, 0, date.Location())
	return Placement{SessionID: sessionID, Start: start, TrainerID: trainerID}
}

// excluded returns true if id is in the placement's exclusion list.
func (p Placement) excluded(id string) bool {
	for _, x := range p.Exclude {
		if x == id {
			return true
		}
	}
	return false
}

// Source is the read side of the session store the checker inspects.
type Source interface {
	Get(id string) (*session.Session, error)
	TrainerSessions(trainerID string) []*session.Session
	ClientSessions(clientID string) []*session.Session
}

// AvailabilitySource reports blocked time for a trainer on a day.
type AvailabilitySource interface {
	Unavailable(ctx context.Context, trainerID string, day time.Time) ([]session.Interval, error)
}

// MultiSource merges several availability sources.
type MultiSource []AvailabilitySource

// Unavailable returns the blocked time reported by every source.
func (m MultiSource) Unavailable(ctx context.Context, trainerID string, day time.Time) ([]session.Interval, error) {
	var out []session.Interval
	for _, src := range m {
		if src == nil {
			continue
		}
		blocked, err := src.Unavailable(ctx, trainerID, day)
		if err != nil {
			return nil, err
		}
		out = append(out, blocked...)
	}
	return out, nil
}

// Window gives the bookable window of a day used to search for alternatives.
type Window interface {
	DayWindow(day time.Time) session.Interval
}

// Config tunes classification and the alternative search.
type Config struct {
	StepMinutes             int
	MaxAlternatives         int
	SearchDays              int
	DoubleBookingMinOverlap int // core overlap in minutes from which a collision is a double booking
	CheckClientConflicts    bool
}

// DefaultConfig returns the standard tuning.
func DefaultConfig() Config {
	return Config{
		StepMinutes:             15,
		MaxAlternatives:         3,
		SearchDays:              3,
		DoubleBookingMinOverlap: 15,
		CheckClientConflicts:    true,
	}
}

func (c Config) normalized() Config {
	d := DefaultConfig()
	if c.StepMinutes <= 0 {
		c.StepMinutes = d.StepMinutes
	}
	if c.MaxAlternatives < 0 {
		c.MaxAlternatives = 0
	}
	if c.SearchDays < 0 {
		c.SearchDays = 0
	}
	if c.DoubleBookingMinOverlap < 0 {
		c.DoubleBookingMinOverlap = 0
	}
	return c
}
