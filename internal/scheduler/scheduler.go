// Package scheduler provides working-hours logic for trainer calendars.
package scheduler

import (
	"context"
	"strings"
	"time"

	"github.com/javiermolinar/coachcal/internal/session"
)

// Scheduler knows the studio working days and daily opening window.
type Scheduler struct {
	workdays map[string]bool
	dayStart string // "HH:MM"
	dayEnd   string // "HH:MM"

	// enforce makes time outside the working window count as unavailable.
	enforce bool
}

// New creates a new Scheduler with the given configuration.
func New(workdays []string, dayStart, dayEnd string) *Scheduler {
	wd := make(map[string]bool)
	for _, d := range workdays {
		wd[strings.ToLower(d)] = true
	}
	return &Scheduler{
		workdays: wd,
		dayStart: dayStart,
		dayEnd:   dayEnd,
	}
}

// SetEnforceWorkHours toggles reporting of off-hours as unavailable time.
func (s *Scheduler) SetEnforceWorkHours(enforce bool) {
	s.enforce = enforce
}

// AvailableSlot represents an available time slot for scheduling.
type AvailableSlot struct {
	Date  time.Time
	Start string // "HH:MM"
	End   string // "HH:MM"
}

// NextAvailableStart returns the next available start time for booking.
// If now is before dayStart, returns dayStart of today (if workday) or next workday.
// If now is during work hours, returns now (rounded to next 15 min).
// If now is after dayEnd, returns dayStart of next workday.
func (s *Scheduler) NextAvailableStart(now time.Time) AvailableSlot {
	nowTime := now.Format("15:04")

	if s.IsWorkday(now) {
		if nowTime < s.dayStart {
			return AvailableSlot{
				Date:  now,
				Start: s.dayStart,
				End:   s.dayEnd,
			}
		}
		if nowTime < s.dayEnd {
			rounded := RoundUp(now, 15)
			start := rounded.Format("15:04")
			if start >= s.dayEnd || rounded.Day() != now.Day() {
				return s.nextWorkday(now)
			}
			return AvailableSlot{
				Date:  now,
				Start: start,
				End:   s.dayEnd,
			}
		}
	}

	return s.nextWorkday(now)
}

// StartTime returns NextAvailableStart as an absolute time.
func (s *Scheduler) StartTime(now time.Time) time.Time {
	slot := s.NextAvailableStart(now)
	m := parseTime(slot.Start)
	d := slot.Date
	return time.Date(d.Year(), d.Month(), d.Day(), m/60, m%60, 0, 0, d.Location())
}

// nextWorkday finds the next workday starting from the day after the given time.
func (s *Scheduler) nextWorkday(from time.Time) AvailableSlot {
	next := from.AddDate(0, 0, 1)
	for range 7 {
		if s.IsWorkday(next) {
			return AvailableSlot{
				Date:  next,
				Start: s.dayStart,
				End:   s.dayEnd,
			}
		}
		next = next.AddDate(0, 0, 1)
	}
	// Fallback: should never happen if workdays is configured correctly
	return AvailableSlot{
		Date:  from.AddDate(0, 0, 1),
		Start: s.dayStart,
		End:   s.dayEnd,
	}
}

// IsWorkday returns true if the given time falls on a configured workday.
func (s *Scheduler) IsWorkday(t time.Time) bool {
	weekday := strings.ToLower(t.Weekday().String())
	return s.workdays[weekday]
}

// IsWithinWorkHours returns true if the given time is within configured work hours.
func (s *Scheduler) IsWithinWorkHours(t time.Time) bool {
	if !s.IsWorkday(t) {
		return false
	}
	nowTime := t.Format("15:04")
	return nowTime >= s.dayStart && nowTime < s.dayEnd
}

// DayWindow returns the opening window of the given day, ignoring workdays.
func (s *Scheduler) DayWindow(day time.Time) session.Interval {
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return session.Interval{
		Start: midnight.Add(time.Duration(parseTime(s.dayStart)) * time.Minute),
		End:   midnight.Add(time.Duration(parseTime(s.dayEnd)) * time.Minute),
	}
}

// Unavailable reports off-hours of the day as blocked time when work hours are
// enforced. A non-workday is blocked entirely. The trainer is ignored: working
// hours are studio-wide.
func (s *Scheduler) Unavailable(_ context.Context, _ string, day time.Time) ([]session.Interval, error) {
	if !s.enforce {
		return nil, nil
	}
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	next := midnight.AddDate(0, 0, 1)
	if !s.IsWorkday(day) {
		return []session.Interval{{Start: midnight, End: next}}, nil
	}

	w := s.DayWindow(day)
	var out []session.Interval
	if w.Start.After(midnight) {
		out = append(out, session.Interval{Start: midnight, End: w.Start})
	}
	if w.End.Before(next) {
		out = append(out, session.Interval{Start: w.End, End: next})
	}
	return out, nil
}

// CanFit returns true if a session of the given duration (in minutes) can fit
// starting at the given time on the given date.
func (s *Scheduler) CanFit(date time.Time, startTime string, durationMinutes int) bool {
	if !s.IsWorkday(date) {
		return false
	}
	return s.CanFitAnyDay(startTime, durationMinutes)
}

// CanFitAnyDay checks if a session of the given duration fits within day
// boundaries without checking if the date is a workday.
func (s *Scheduler) CanFitAnyDay(startTime string, durationMinutes int) bool {
	start := parseTime(startTime)
	end := parseTime(s.dayEnd)

	if start < parseTime(s.dayStart) || start >= end {
		return false
	}

	return start+durationMinutes <= end
}

// ValidateTimeSlot checks if a time slot is valid for the given date.
// Returns an error message if invalid, empty string if valid.
func (s *Scheduler) ValidateTimeSlot(date time.Time, start, end string) string {
	if !s.IsWorkday(date) {
		return "not a workday"
	}
	return s.ValidateTimeSlotAnyDay(start, end)
}

// ValidateTimeSlotAnyDay validates a time slot without checking if the date is a workday.
// Returns an error message if invalid, empty string if valid.
func (s *Scheduler) ValidateTimeSlotAnyDay(start, end string) string {
	startMin := parseTime(start)
	endMin := parseTime(end)

	if startMin >= endMin {
		return "start time must be before end time"
	}
	if startMin < parseTime(s.dayStart) {
		return "start time is before opening time"
	}
	if endMin > parseTime(s.dayEnd) {
		return "end time is after closing time"
	}

	return ""
}

// DayStart returns the configured day start time.
func (s *Scheduler) DayStart() string {
	return s.dayStart
}

// DayEnd returns the configured day end time.
func (s *Scheduler) DayEnd() string {
	return s.dayEnd
}

// RoundUp rounds a time up to the next step-minute boundary.
func RoundUp(t time.Time, step int) time.Time {
	if step <= 0 {
		return t
	}
	minute := t.Minute()
	remainder := minute % step
	if remainder == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t
	}
	return t.Add(time.Duration(step-remainder) * time.Minute).Truncate(time.Minute)
}

// parseTime parses "HH:MM" to minutes since midnight.
func parseTime(s string) int {
	if len(s) < 5 {
		return 0
	}
	h := int(s[0]-'0')*10 + int(s[1]-'0')
	m := int(s[3]-'0')*10 + int(s[4]-'0')
	return h*60 + m
}
