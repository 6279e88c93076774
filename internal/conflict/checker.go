package conflict

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/javiermolinar/coachcal/internal/dateutil"
	"github.com/javiermolinar/coachcal/internal/session"
)

// Checker evaluates placements against a session source.
// It never mutates the source.
type Checker struct {
	src    Source
	cfg    Config
	window Window
	avail  AvailabilitySource
	now    func() time.Time
}

// NewChecker creates a checker over src.
func NewChecker(src Source, cfg Config) *Checker {
	return &Checker{
		src: src,
		cfg: cfg.normalized(),
		now: time.Now,
	}
}

// WithWindow sets the daily window alternatives are searched in.
func (c *Checker) WithWindow(w Window) *Checker {
	c.window = w
	return c
}

// WithAvailability sets the source of trainer blocked time.
func (c *Checker) WithAvailability(a AvailabilitySource) *Checker {
	c.avail = a
	return c
}

// WithClock replaces the clock used for the past-time rule.
func (c *Checker) WithClock(now func() time.Time) *Checker {
	c.now = now
	return c
}

// Config returns the checker tuning.
func (c *Checker) Config() Config {
	return c.cfg
}

// Check returns the verdict for placing a session at p.
// Identical inputs over an unchanged source yield identical results.
func (c *Checker) Check(ctx context.Context, p Placement) (*Result, error) {
	s, err := c.src.Get(p.SessionID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: loading session %s: %w", ErrCheckFailed, p.SessionID, err)
	}

	return c.verdict(ctx, s, p)
}

// CheckNew returns the verdict for a session that is not in the source yet,
// at the start and trainer it already carries. privileged waives past-time.
func (c *Checker) CheckNew(ctx context.Context, s *session.Session, privileged bool) (*Result, error) {
	return c.verdict(ctx, s, Placement{
		SessionID:  s.ID,
		Start:      s.SessionDate,
		TrainerID:  s.TrainerID,
		Privileged: privileged,
	})
}

func (c *Checker) verdict(ctx context.Context, s *session.Session, p Placement) (*Result, error) {
	now := c.now()
	blocked := make(availabilityCache)

	conflicts, err := c.evaluate(ctx, s, p, p.Start, now, blocked)
	if err != nil {
		return nil, err
	}

	res := &Result{
		HasConflicts: len(conflicts) > 0,
		Conflicts:    conflicts,
		Proposed:     session.EffectiveIntervalAt(s, p.Start),
	}
	if res.HasConflicts {
		res.Alternatives, err = c.alternatives(ctx, s, p, now, blocked)
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Classify reports how placing s at start collides with other, if it does.
// other must belong to the same trainer.
func (c *Checker) Classify(s *session.Session, start time.Time, other *session.Session) (Conflict, bool) {
	if other.IsCancelled() {
		return Conflict{}, false
	}
	proposed := session.EffectiveIntervalAt(s, start)
	theirs := session.EffectiveInterval(other)
	hit, ok := proposed.Intersect(theirs)
	if !ok {
		return Conflict{}, false
	}

	core := session.NewInterval(start, s.Duration)
	coreOverlap, coreHit := core.Intersect(session.CoreInterval(other))

	switch {
	case other.IsUnavailableBlock():
		return newConflict(other.ID, KindTrainerUnavailable, theirs,
			fmt.Sprintf("trainer is blocked %s", theirs)), true
	case other.IsBooked() && coreHit && coreOverlap.Minutes() >= c.cfg.DoubleBookingMinOverlap:
		return newConflict(other.ID, KindDoubleBooking, coreOverlap,
			fmt.Sprintf("overlaps booked session %s by %d min", other.ID, coreOverlap.Minutes())), true
	default:
		return newConflict(other.ID, KindBufferViolation, hit,
			fmt.Sprintf("intrudes on the buffer of session %s (%s)", other.ID, hit)), true
	}
}

func newConflict(id string, kind Kind, iv session.Interval, msg string) Conflict {
	return Conflict{
		SessionID: id,
		Kind:      kind,
		Severity:  kind.Severity(),
		Interval:  iv,
		Message:   msg,
	}
}

// evaluate runs every rule for s placed at start.
func (c *Checker) evaluate(ctx context.Context, s *session.Session, p Placement, start, now time.Time, blocked availabilityCache) ([]Conflict, error) {
	trainerID := p.TrainerID
	if trainerID == "" {
		trainerID = s.TrainerID
	}

	var out []Conflict
	hitIDs := make(map[string]bool)

	if trainerID != "" {
		for _, other := range c.src.TrainerSessions(trainerID) {
			if other.ID == s.ID || p.excluded(other.ID) {
				continue
			}
			if cf, ok := c.Classify(s, start, other); ok {
				out = append(out, cf)
				hitIDs[other.ID] = true
			}
		}
	}

	core := session.NewInterval(start, s.Duration)

	if !p.Privileged && start.Before(now) {
		out = append(out, newConflict("", KindPastTime, core, "start time is in the past"))
	}

	if c.avail != nil && trainerID != "" {
		intervals, err := blocked.get(ctx, c.avail, trainerID, start)
		if err != nil {
			return nil, err
		}
		if end := core.End.Add(-time.Nanosecond); !dateutil.SameDay(start, end) {
			more, err := blocked.get(ctx, c.avail, trainerID, end)
			if err != nil {
				return nil, err
			}
			intervals = append(intervals, more...)
		}
		for _, iv := range intervals {
			if hit, ok := core.Intersect(iv); ok {
				out = append(out, newConflict("", KindTrainerUnavailable, hit,
					fmt.Sprintf("trainer is unavailable %s", hit)))
			}
		}
	}

	if c.cfg.CheckClientConflicts && s.ClientID != "" {
		for _, other := range c.src.ClientSessions(s.ClientID) {
			if other.ID == s.ID || p.excluded(other.ID) || hitIDs[other.ID] || other.IsUnavailableBlock() {
				continue
			}
			if hit, ok := core.Intersect(session.CoreInterval(other)); ok {
				out = append(out, newConflict(other.ID, KindClientDoubleBooking, hit,
					fmt.Sprintf("client already booked in session %s", other.ID)))
			}
		}
	}

	sortConflicts(out)
	return out, nil
}

func sortConflicts(cs []Conflict) {
	sort.SliceStable(cs, func(i, j int) bool {
		a, b := cs[i], cs[j]
		if !a.Interval.Start.Equal(b.Interval.Start) {
			return a.Interval.Start.Before(b.Interval.Start)
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.SessionID < b.SessionID
	})
}

// alternatives searches grid-aligned starts on the proposed day first, then on
// adjacent days (+1, -1, +2, ...), and returns the nearest conflict-free ones.
func (c *Checker) alternatives(ctx context.Context, s *session.Session, p Placement, now time.Time, blocked availabilityCache) ([]SlotSuggestion, error) {
	if c.cfg.MaxAlternatives == 0 {
		return nil, nil
	}
	trainerID := p.TrainerID
	if trainerID == "" {
		trainerID = s.TrainerID
	}

	day := dateutil.TruncateToDay(p.Start)
	offsets := []int{0}
	for d := 1; d <= c.cfg.SearchDays; d++ {
		offsets = append(offsets, d, -d)
	}

	var found []SlotSuggestion
	for _, off := range offsets {
		for _, start := range c.candidates(day.AddDate(0, 0, off), s.Duration) {
			if start.Equal(p.Start) {
				continue
			}
			if !p.Privileged && start.Before(now) {
				continue
			}
			cs, err := c.evaluate(ctx, s, p, start, now, blocked)
			if err != nil {
				return nil, err
			}
			if len(cs) > 0 {
				continue
			}
			found = append(found, SlotSuggestion{
				Start:     start,
				TrainerID: trainerID,
				Distance:  absDuration(start.Sub(p.Start)),
			})
		}
	}

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].Distance != found[j].Distance {
			return found[i].Distance < found[j].Distance
		}
		return found[i].Start.Before(found[j].Start)
	})
	if len(found) > c.cfg.MaxAlternatives {
		found = found[:c.cfg.MaxAlternatives]
	}
	return found, nil
}

// candidates returns step-aligned starts in the day window that leave room for
// the whole session.
func (c *Checker) candidates(day time.Time, duration int) []time.Time {
	var w session.Interval
	if c.window != nil {
		w = c.window.DayWindow(day)
	} else {
		w = session.Interval{Start: day, End: day.AddDate(0, 0, 1)}
	}

	step := time.Duration(c.cfg.StepMinutes) * time.Minute
	length := time.Duration(duration) * time.Minute

	first := w.Start
	if rem := first.Sub(dateutil.TruncateToDay(first)) % step; rem != 0 {
		first = first.Add(step - rem)
	}

	var out []time.Time
	for t := first; !t.Add(length).After(w.End); t = t.Add(step) {
		out = append(out, t)
	}
	return out
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// availabilityCache memoizes blocked time per trainer and day within one check.
type availabilityCache map[string][]session.Interval

func (a availabilityCache) get(ctx context.Context, src AvailabilitySource, trainerID string, day time.Time) ([]session.Interval, error) {
	key := trainerID + "/" + dateutil.DayKey(day)
	if v, ok := a[key]; ok {
		return v, nil
	}
	v, err := src.Unavailable(ctx, trainerID, dateutil.TruncateToDay(day))
	if err != nil {
		return nil, fmt.Errorf("%w: availability of trainer %s: %w", ErrCheckFailed, trainerID, err)
	}
	a[key] = v
	return v, nil
}
