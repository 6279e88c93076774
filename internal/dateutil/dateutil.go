// Package dateutil provides date parsing, calendar anchors and day labels.
package dateutil

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Validation errors.
var (
	ErrInvalidDateFormat  = errors.New("date must be in YYYY-MM-DD format")
	ErrInvalidClockFormat = errors.New("time must be in HH:MM format")
	ErrInvalidWeekday     = errors.New("unknown weekday")
	ErrEndDateBeforeStart = errors.New("end date must be on or after start date")
	ErrDateInPast         = errors.New("cannot schedule in the past")
)

// DayKeyLayout is the layout of the day bucket key used across views.
const DayKeyLayout = "2006-01-02"

// weekdayMap maps weekday names to time.Weekday values.
var weekdayMap = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sun":       time.Sunday,
	"mon":       time.Monday,
	"tue":       time.Tuesday,
	"wed":       time.Wednesday,
	"thu":       time.Thursday,
	"fri":       time.Friday,
	"sat":       time.Saturday,
}

// DateRange represents a validated, inclusive range of days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange creates a new DateRange with validation.
// startDate can be empty (defaults to today) or in YYYY-MM-DD format.
// endDate can be empty (defaults to startDate) or in YYYY-MM-DD format.
func NewDateRange(startDate, endDate string) (*DateRange, error) {
	start, err := ParseDate(startDate)
	if err != nil {
		return nil, err
	}

	end := start
	if endDate != "" {
		end, err = ParseDate(endDate)
		if err != nil {
			return nil, err
		}
	}

	if end.Before(start) {
		return nil, ErrEndDateBeforeStart
	}

	return &DateRange{Start: start, End: end}, nil
}

// Contains returns true if t falls on a day inside the range.
func (r DateRange) Contains(t time.Time) bool {
	day := TruncateToDay(t)
	return !day.Before(TruncateToDay(r.Start)) && !day.After(TruncateToDay(r.End))
}

// EndExclusive returns midnight after the last day of the range.
func (r DateRange) EndExclusive() time.Time {
	return TruncateToDay(r.End).AddDate(0, 0, 1)
}

// ParseDate parses a date string in YYYY-MM-DD format in local time.
// If the string is empty, returns today's date.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return TruncateToDay(time.Now()), nil
	}
	t, err := time.ParseInLocation(DayKeyLayout, s, time.Local)
	if err != nil {
		return time.Time{}, ErrInvalidDateFormat
	}
	return t, nil
}

// ParseClock parses "HH:MM" into hour and minute.
func ParseClock(s string) (hour, minute int, err error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, 0, fmt.Errorf("%w, got %q", ErrInvalidClockFormat, s)
	}
	t, perr := time.Parse("15:04", s)
	if perr != nil {
		return 0, 0, fmt.Errorf("%w, got %q", ErrInvalidClockFormat, s)
	}
	return t.Hour(), t.Minute(), nil
}

// ClockMinutes converts "HH:MM" to minutes since midnight.
func ClockMinutes(s string) (int, error) {
	h, m, err := ParseClock(s)
	if err != nil {
		return 0, err
	}
	return h*60 + m, nil
}

// At returns the given day at hour:minute in the day's location.
func At(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

// ParseWeekday parses a weekday name ("monday", "mon").
func ParseWeekday(s string) (time.Weekday, error) {
	wd, ok := weekdayMap[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return time.Sunday, fmt.Errorf("%w: %q", ErrInvalidWeekday, s)
	}
	return wd, nil
}

// DayKey returns the YYYY-MM-DD bucket key of t.
func DayKey(t time.Time) string {
	return t.Format(DayKeyLayout)
}

// SameDay returns true if both times fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// WeekRange returns the Monday and Sunday of the ISO week containing t.
func WeekRange(t time.Time) (monday, sunday time.Time) {
	monday = StartOfWeek(t, time.Monday)
	sunday = monday.AddDate(0, 0, 6)
	return monday, sunday
}

// StartOfWeek returns midnight of the first day of the week containing t.
func StartOfWeek(t time.Time, weekStart time.Weekday) time.Time {
	t = TruncateToDay(t)
	offset := (int(t.Weekday()) - int(weekStart) + 7) % 7
	return t.AddDate(0, 0, -offset)
}

// StartOfMonth returns midnight of the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// MonthGridStart returns the first cell of a 6-week month grid: the week start
// on or before the first of the month.
func MonthGridStart(t time.Time, weekStart time.Weekday) time.Time {
	return StartOfWeek(StartOfMonth(t), weekStart)
}

// TruncateToDay returns t with time set to midnight.
func TruncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DayLabel returns "Today", "Tomorrow", "Yesterday" or a formatted date.
func DayLabel(day, now time.Time) string {
	d := TruncateToDay(day)
	today := TruncateToDay(now)
	switch {
	case d.Equal(today):
		return "Today"
	case d.Equal(today.AddDate(0, 0, 1)):
		return "Tomorrow"
	case d.Equal(today.AddDate(0, 0, -1)):
		return "Yesterday"
	case d.Year() == today.Year():
		return d.Format("Mon, Jan 2")
	default:
		return d.Format("Mon, Jan 2, 2006")
	}
}

// ParseRelativeDate parses a date string that can be:
//   - Empty string or "today": returns relativeTo date
//   - Absolute date: "2025-01-15" (YYYY-MM-DD)
//   - Keywords: "tomorrow", "yesterday"
//   - Weekday names: "monday" through "sunday" (next occurrence, always future)
//   - Next prefixed: "next-monday" through "next-sunday", "next-week"
//
// All inputs are case-insensitive. Past absolute dates are accepted; callers that
// must refuse them use ParseFutureDate.
func ParseRelativeDate(s string, relativeTo time.Time) (time.Time, error) {
	today := TruncateToDay(relativeTo)
	input := strings.ToLower(strings.TrimSpace(s))

	switch input {
	case "", "today":
		return today, nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	case "yesterday":
		return today.AddDate(0, 0, -1), nil
	case "next-week":
		return today.AddDate(0, 0, 7), nil
	}

	if strings.HasPrefix(input, "next-") {
		if target, ok := weekdayMap[strings.TrimPrefix(input, "next-")]; ok {
			return nextWeekday(today, target), nil
		}
		return time.Time{}, ErrInvalidDateFormat
	}

	if target, ok := weekdayMap[input]; ok {
		return nextWeekday(today, target), nil
	}

	result, err := time.ParseInLocation(DayKeyLayout, input, relativeTo.Location())
	if err != nil {
		return time.Time{}, ErrInvalidDateFormat
	}
	return result, nil
}

// ParseFutureDate is ParseRelativeDate that rejects days before relativeTo.
func ParseFutureDate(s string, relativeTo time.Time) (time.Time, error) {
	d, err := ParseRelativeDate(s, relativeTo)
	if err != nil {
		return time.Time{}, err
	}
	if d.Before(TruncateToDay(relativeTo)) {
		return time.Time{}, ErrDateInPast
	}
	return d, nil
}

// nextWeekday returns the next occurrence of the given weekday after today.
// If today is the target weekday, returns one week from today.
func nextWeekday(today time.Time, target time.Weekday) time.Time {
	daysUntil := int(target) - int(today.Weekday())
	if daysUntil <= 0 {
		daysUntil += 7
	}
	return today.AddDate(0, 0, daysUntil)
}
