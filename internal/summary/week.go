// Package summary aggregates a week of sessions per trainer.
package summary

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/javiermolinar/coachcal/internal/dateutil"
	"github.com/javiermolinar/coachcal/internal/session"
)

// TrainerWeek holds one trainer's totals for a week.
type TrainerWeek struct {
	Trainer       session.Trainer
	Booked        int
	Open          int
	Blocked       int
	Cancelled     int
	Completed     int
	BookedMinutes int
	PeakMinutes   int // booked minutes inside the peak window
	Clients       int // distinct clients seen
}

// Utilization returns the share of bookable sessions that are booked.
func (t TrainerWeek) Utilization() int {
	bookable := t.Booked + t.Completed + t.Open
	if bookable == 0 {
		return 0
	}
	return ((t.Booked + t.Completed) * 100) / bookable
}

// WeekSummary holds the aggregated week.
type WeekSummary struct {
	Start    time.Time
	End      time.Time
	Sessions []*session.Session
	Trainers []TrainerWeek // ordered by trainer display name
	Total    TrainerWeek
}

// WeekSummaryOptions configures week summary statistics.
type WeekSummaryOptions struct {
	PeakStart string // "HH:MM"
	PeakEnd   string
}

// BuildWeekSummaryOptions configures the repository-backed summary builder.
type BuildWeekSummaryOptions struct {
	WeekStart time.Time
	TrainerID string
	PeakStart string
	PeakEnd   string
}

// SummarizeWeek aggregates the sessions of the ISO week containing weekStart.
// Sessions outside that week are ignored.
func SummarizeWeek(weekStart time.Time, sessions []*session.Session, opts WeekSummaryOptions) (*WeekSummary, error) {
	start, end := dateutil.WeekRange(weekStart)
	week := dateutil.DateRange{Start: start, End: end}

	peakFrom, peakTo := -1, -1
	if opts.PeakStart != "" && opts.PeakEnd != "" {
		h, m, err := dateutil.ParseClock(opts.PeakStart)
		if err != nil {
			return nil, fmt.Errorf("peak start: %w", err)
		}
		peakFrom = h*60 + m
		if h, m, err = dateutil.ParseClock(opts.PeakEnd); err != nil {
			return nil, fmt.Errorf("peak end: %w", err)
		}
		peakTo = h*60 + m
		if peakTo <= peakFrom {
			return nil, fmt.Errorf("peak window %s-%s is empty", opts.PeakStart, opts.PeakEnd)
		}
	}

	summary := &WeekSummary{Start: start, End: end}
	byTrainer := make(map[string]*TrainerWeek)
	clients := make(map[string]map[string]bool)

	for _, s := range sessions {
		if s == nil || !week.Contains(s.SessionDate) {
			continue
		}
		summary.Sessions = append(summary.Sessions, s)

		tw, ok := byTrainer[s.TrainerID]
		if !ok {
			tw = &TrainerWeek{Trainer: session.Trainer{ID: s.TrainerID, Name: s.TrainerName}}
			byTrainer[s.TrainerID] = tw
			clients[s.TrainerID] = make(map[string]bool)
		}
		peak := 0
		if peakFrom >= 0 {
			peak = overlapMinutes(s, peakFrom, peakTo)
		}
		accumulate(tw, s, peak)
		accumulate(&summary.Total, s, peak)

		if s.ClientID != "" && !s.IsCancelled() {
			clients[s.TrainerID][s.ClientID] = true
		}
	}

	seen := make(map[string]bool)
	for id, tw := range byTrainer {
		tw.Clients = len(clients[id])
		for c := range clients[id] {
			seen[c] = true
		}
		summary.Trainers = append(summary.Trainers, *tw)
	}
	summary.Total.Clients = len(seen)

	sort.Slice(summary.Sessions, func(i, j int) bool {
		return summary.Sessions[i].SessionDate.Before(summary.Sessions[j].SessionDate)
	})
	sort.Slice(summary.Trainers, func(i, j int) bool {
		a, b := summary.Trainers[i].Trainer, summary.Trainers[j].Trainer
		if a.DisplayName() != b.DisplayName() {
			return a.DisplayName() < b.DisplayName()
		}
		return a.ID < b.ID
	})
	return summary, nil
}

// BuildWeekSummary loads the sessions of the requested week and summarizes them.
func BuildWeekSummary(ctx context.Context, repo session.Fetcher, opts BuildWeekSummaryOptions) (*WeekSummary, error) {
	weekStart := opts.WeekStart
	if weekStart.IsZero() {
		weekStart = time.Now()
	}

	start, end := dateutil.WeekRange(weekStart)
	sessions, err := repo.FetchSessions(ctx, dateutil.DateRange{Start: start, End: end}, session.Filter{TrainerID: opts.TrainerID})
	if err != nil {
		return nil, fmt.Errorf("fetching sessions: %w", err)
	}

	return SummarizeWeek(start, sessions, WeekSummaryOptions{
		PeakStart: opts.PeakStart,
		PeakEnd:   opts.PeakEnd,
	})
}

func accumulate(tw *TrainerWeek, s *session.Session, peak int) {
	switch {
	case s.IsCancelled():
		tw.Cancelled++
	case s.IsCompleted():
		tw.Completed++
		tw.BookedMinutes += s.Duration
		tw.PeakMinutes += peak
	case s.IsUnavailableBlock():
		tw.Blocked++
	case s.IsScheduled():
		tw.Booked++
		tw.BookedMinutes += s.Duration
		tw.PeakMinutes += peak
	default:
		tw.Open++
	}
}

// overlapMinutes returns how much of the session core falls inside the
// [from, to) minute-of-day window on its own day.
func overlapMinutes(s *session.Session, from, to int) int {
	start := s.SessionDate.Hour()*60 + s.SessionDate.Minute()
	end := start + s.Duration
	lo, hi := max(start, from), min(end, to)
	if hi <= lo {
		return 0
	}
	return hi - lo
}
