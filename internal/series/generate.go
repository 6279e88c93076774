package series

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/javiermolinar/coachcal/internal/conflict"
	"github.com/javiermolinar/coachcal/internal/dateutil"
	"github.com/javiermolinar/coachcal/internal/session"
)

// Rule describes a new recurring series.
type Rule struct {
	StartDate  time.Time
	EndDate    time.Time
	DaysOfWeek []time.Weekday
	Times      []string // "HH:MM"
	Duration   int      // minutes

	TrainerID    string
	TrainerName  string
	ClientID     string
	ClientName   string
	Location     string
	BufferBefore int
	BufferAfter  int
	Status       session.Status // defaults as in session.New
}

// Validate checks the rule before any occurrence is built.
func (r Rule) Validate() error {
	switch {
	case r.Duration <= 0:
		return fmt.Errorf("%w: duration must be greater than zero", ErrInvalidRule)
	case len(r.DaysOfWeek) == 0:
		return fmt.Errorf("%w: at least one weekday is required", ErrInvalidRule)
	case len(r.Times) == 0:
		return fmt.Errorf("%w: at least one start time is required", ErrInvalidRule)
	case r.EndDate.Before(r.StartDate):
		return fmt.Errorf("%w: %w", ErrInvalidRule, dateutil.ErrEndDateBeforeStart)
	}
	for _, t := range r.Times {
		if _, _, err := dateutil.ParseClock(t); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidRule, err)
		}
	}
	return nil
}

// Occurrences returns every start the rule produces, past ones included.
func (r Rule) Occurrences() []time.Time {
	days := make(map[time.Weekday]bool, len(r.DaysOfWeek))
	for _, d := range r.DaysOfWeek {
		days[d] = true
	}

	var out []time.Time
	end := dateutil.TruncateToDay(r.EndDate)
	for day := dateutil.TruncateToDay(r.StartDate); !day.After(end); day = day.AddDate(0, 0, 1) {
		if !days[day.Weekday()] {
			continue
		}
		for _, t := range r.Times {
			h, m, _ := dateutil.ParseClock(t)
			out = append(out, dateutil.At(day, h, m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Skipped is an occurrence that was not created.
type Skipped struct {
	Start     time.Time
	Reason    string
	Conflicts []conflict.Conflict
}

// GenerateReport summarizes a new series.
type GenerateReport struct {
	GroupID string
	Created []*session.Session
	Skipped []Skipped
}

// Generate creates the future occurrences of a rule as a new group. Occurrences
// that would collide with the trainer's calendar, or with each other, are
// skipped and reported.
func (m *Manager) Generate(ctx context.Context, r Rule) (*GenerateReport, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	now := m.now()
	report := &GenerateReport{GroupID: uuid.NewString()}
	existing := m.store.TrainerSessions(r.TrainerID)

	for _, start := range r.Occurrences() {
		if !start.After(now) {
			report.Skipped = append(report.Skipped, Skipped{Start: start, Reason: "in the past"})
			continue
		}
		s, err := session.New(start, r.Duration, session.NewOptions{
			TrainerID:    r.TrainerID,
			TrainerName:  r.TrainerName,
			ClientID:     r.ClientID,
			ClientName:   r.ClientName,
			Location:     r.Location,
			BufferBefore: r.BufferBefore,
			BufferAfter:  r.BufferAfter,
			Status:       r.Status,
		})
		if err != nil {
			return nil, err
		}
		s.RecurringGroupID = report.GroupID

		if r.TrainerID != "" {
			if cs := m.collisions(s, existing, report.Created); len(cs) > 0 {
				report.Skipped = append(report.Skipped, Skipped{Start: start, Reason: "conflict", Conflicts: cs})
				continue
			}
		}
		report.Created = append(report.Created, s)
	}

	if len(report.Created) == 0 {
		return report, nil
	}
	if m.creator != nil {
		if err := m.creator.CreateSessions(ctx, report.Created); err != nil {
			return nil, fmt.Errorf("creating series: %w", err)
		}
	}
	if err := m.store.Add(report.Created...); err != nil {
		return nil, err
	}
	m.log.Info("series generated",
		zap.String("group", report.GroupID),
		zap.Int("created", len(report.Created)),
		zap.Int("skipped", len(report.Skipped)))
	return report, nil
}

func (m *Manager) collisions(s *session.Session, groups ...[]*session.Session) []conflict.Conflict {
	var out []conflict.Conflict
	for _, group := range groups {
		for _, other := range group {
			if cf, ok := m.checker.Classify(s, s.SessionDate, other); ok {
				out = append(out, cf)
			}
		}
	}
	return out
}
