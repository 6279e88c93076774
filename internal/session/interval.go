package session

import (
	"fmt"
	"time"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval builds an interval from a start and a length in minutes.
func NewInterval(start time.Time, minutes int) Interval {
	return Interval{Start: start, End: start.Add(time.Duration(minutes) * time.Minute)}
}

// Empty returns true if the interval covers no time.
func (i Interval) Empty() bool {
	return !i.Start.Before(i.End)
}

// Minutes returns the interval length in whole minutes.
func (i Interval) Minutes() int {
	if i.Empty() {
		return 0
	}
	return int(i.End.Sub(i.Start).Minutes())
}

// Overlaps returns true if two intervals intersect.
// Two half-open ranges overlap if: a.start < b.end AND b.start < a.end
func (i Interval) Overlaps(other Interval) bool {
	if i.Empty() || other.Empty() {
		return false
	}
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// Intersect returns the overlapping part of two intervals and whether it is non-empty.
func (i Interval) Intersect(other Interval) (Interval, bool) {
	start := i.Start
	if other.Start.After(start) {
		start = other.Start
	}
	end := i.End
	if other.End.Before(end) {
		end = other.End
	}
	out := Interval{Start: start, End: end}
	if out.Empty() {
		return Interval{}, false
	}
	return out, true
}

// OverlapMinutes returns how many minutes two intervals share.
func (i Interval) OverlapMinutes(other Interval) int {
	out, ok := i.Intersect(other)
	if !ok {
		return 0
	}
	return out.Minutes()
}

// Contains returns true if t falls inside the interval.
func (i Interval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}

// Covers returns true if other lies entirely inside i.
func (i Interval) Covers(other Interval) bool {
	return !other.Start.Before(i.Start) && !other.End.After(i.End)
}

// Shift moves the interval by d.
func (i Interval) Shift(d time.Duration) Interval {
	return Interval{Start: i.Start.Add(d), End: i.End.Add(d)}
}

func (i Interval) String() string {
	if i.Start.YearDay() == i.End.YearDay() && i.Start.Year() == i.End.Year() {
		return fmt.Sprintf("%s %s-%s", i.Start.Format("2006-01-02"), i.Start.Format("15:04"), i.End.Format("15:04"))
	}
	return fmt.Sprintf("%s - %s", i.Start.Format("2006-01-02 15:04"), i.End.Format("2006-01-02 15:04"))
}

// CoreInterval returns [SessionDate, SessionDate+Duration).
func CoreInterval(s *Session) Interval {
	return NewInterval(s.SessionDate, s.Duration)
}

// EffectiveInterval returns the occupancy window including buffers:
// [SessionDate-BufferBefore, SessionDate+Duration+BufferAfter).
// Rendering draws exactly this window, and conflict checks test against it.
func EffectiveInterval(s *Session) Interval {
	return EffectiveIntervalAt(s, s.SessionDate)
}

// EffectiveIntervalAt returns the effective interval the session would have if it started at start.
func EffectiveIntervalAt(s *Session, start time.Time) Interval {
	return Interval{
		Start: start.Add(-time.Duration(s.BufferBefore) * time.Minute),
		End:   start.Add(time.Duration(s.Duration+s.BufferAfter) * time.Minute),
	}
}

// BufferBeforeInterval returns the reserved window before the session, empty if none.
func BufferBeforeInterval(s *Session) Interval {
	return Interval{
		Start: s.SessionDate.Add(-time.Duration(s.BufferBefore) * time.Minute),
		End:   s.SessionDate,
	}
}

// BufferAfterInterval returns the reserved window after the session, empty if none.
func BufferAfterInterval(s *Session) Interval {
	end := s.End()
	return Interval{
		Start: end,
		End:   end.Add(time.Duration(s.BufferAfter) * time.Minute),
	}
}
