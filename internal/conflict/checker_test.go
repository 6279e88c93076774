package conflict

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/javiermolinar/coachcal/internal/dateutil"
	"github.com/javiermolinar/coachcal/internal/scheduler"
	"github.com/javiermolinar/coachcal/internal/session"
	"github.com/javiermolinar/coachcal/internal/store"
)

var everyDay = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

func at(day, hour, minute int) time.Time {
	return time.Date(2024, 6, day, hour, minute, 0, 0, time.UTC)
}

func newSession(id, trainer string, start time.Time, duration int, status session.Status) *session.Session {
	return &session.Session{
		ID:          id,
		SessionDate: start,
		Duration:    duration,
		Status:      status,
		TrainerID:   trainer,
	}
}

// scenario: S books trainer 7 from 09:00 for an hour with a 15 minute buffer after.
func scenario(t *testing.T, extra ...*session.Session) (*store.Store, *Checker) {
	t.Helper()
	s := newSession("S", "7", at(10, 9, 0), 60, session.StatusScheduled)
	s.BufferAfter = 15
	tt := newSession("T", "7", at(10, 14, 0), 30, session.StatusScheduled)

	st := store.New()
	if err := st.Replace(dateutil.DateRange{}, append([]*session.Session{s, tt}, extra...)); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	c := NewChecker(st, DefaultConfig()).
		WithWindow(scheduler.New(everyDay, "05:00", "22:00")).
		WithClock(func() time.Time { return at(1, 12, 0) })
	return st, c
}

func mustCheck(t *testing.T, c *Checker, p Placement) *Result {
	t.Helper()
	res, err := c.Check(context.Background(), p)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	return res
}

func TestBufferViolationScenario(t *testing.T) {
	_, c := scenario(t)
	res := mustCheck(t, c, Placement{SessionID: "T", Start: at(10, 9, 50)})

	if !res.HasConflicts || len(res.Conflicts) != 1 {
		t.Fatalf("conflicts = %v, want one", res.Conflicts)
	}
	got := res.Conflicts[0]
	if got.Kind != KindBufferViolation || got.SessionID != "S" || got.Severity != SeveritySoft {
		t.Errorf("conflict = %+v, want soft buffer-violation with S", got)
	}
	if !got.Interval.Start.Equal(at(10, 9, 50)) || !got.Interval.End.Equal(at(10, 10, 15)) {
		t.Errorf("interval = %v, want 09:50-10:15", got.Interval)
	}
	if len(res.Alternatives) == 0 {
		t.Fatal("expected alternatives")
	}
	if first := res.Alternatives[0]; !first.Start.Equal(at(10, 10, 15)) || first.TrainerID != "7" {
		t.Errorf("nearest alternative = %v, want 10:15 for trainer 7", first)
	}
	if len(res.Alternatives) > DefaultConfig().MaxAlternatives {
		t.Errorf("got %d alternatives, want at most %d", len(res.Alternatives), DefaultConfig().MaxAlternatives)
	}
	for i := 1; i < len(res.Alternatives); i++ {
		if res.Alternatives[i].Distance < res.Alternatives[i-1].Distance {
			t.Errorf("alternatives not ranked nearest-first: %v", res.Alternatives)
		}
	}
}

func TestDoubleBooking(t *testing.T) {
	_, c := scenario(t)
	res := mustCheck(t, c, Placement{SessionID: "T", Start: at(10, 9, 15)})
	if kinds := res.Kinds(); !reflect.DeepEqual(kinds, []Kind{KindDoubleBooking}) {
		t.Fatalf("kinds = %v, want [double-booking]", kinds)
	}
	if !res.HasHard() {
		t.Error("double booking should be hard")
	}
	if res.Conflicts[0].Interval.Minutes() != 30 {
		t.Errorf("core overlap = %d min, want 30", res.Conflicts[0].Interval.Minutes())
	}
}

func TestDoubleBookingThresholdIsConfigurable(t *testing.T) {
	st, _ := scenario(t)
	cfg := DefaultConfig()
	cfg.DoubleBookingMinOverlap = 5
	c := NewChecker(st, cfg).WithClock(func() time.Time { return at(1, 0, 0) })

	res := mustCheck(t, c, Placement{SessionID: "T", Start: at(10, 9, 50)})
	if kinds := res.Kinds(); !reflect.DeepEqual(kinds, []Kind{KindDoubleBooking}) {
		t.Errorf("kinds = %v, want [double-booking] with a 5 minute threshold", kinds)
	}
}

func TestOpenSlotCollisionIsBufferViolation(t *testing.T) {
	open := newSession("O", "7", at(10, 16, 0), 60, session.StatusAvailable)
	_, c := scenario(t, open)
	res := mustCheck(t, c, Placement{SessionID: "T", Start: at(10, 16, 0)})
	if kinds := res.Kinds(); !reflect.DeepEqual(kinds, []Kind{KindBufferViolation}) {
		t.Errorf("kinds = %v, want [buffer-violation]", kinds)
	}
}

func TestBlockedSession(t *testing.T) {
	block := newSession("B", "7", at(10, 12, 0), 60, session.StatusBlocked)
	block.IsBlocked = true
	_, c := scenario(t, block)

	res := mustCheck(t, c, Placement{SessionID: "T", Start: at(10, 12, 30)})
	if kinds := res.Kinds(); !reflect.DeepEqual(kinds, []Kind{KindTrainerUnavailable}) {
		t.Errorf("kinds = %v, want [trainer-unavailable]", kinds)
	}
}

func TestPastTime(t *testing.T) {
	st, _ := scenario(t)
	c := NewChecker(st, DefaultConfig()).
		WithWindow(scheduler.New(everyDay, "05:00", "22:00")).
		WithClock(func() time.Time { return at(10, 18, 0) })

	t.Run("rejected for regular actors", func(t *testing.T) {
		res := mustCheck(t, c, Placement{SessionID: "T", Start: at(10, 16, 0)})
		if kinds := res.Kinds(); !reflect.DeepEqual(kinds, []Kind{KindPastTime}) {
			t.Fatalf("kinds = %v, want [past-time]", kinds)
		}
		for _, alt := range res.Alternatives {
			if alt.Start.Before(at(10, 18, 0)) {
				t.Errorf("alternative %v is in the past", alt.Start)
			}
		}
	})

	t.Run("allowed when privileged", func(t *testing.T) {
		res := mustCheck(t, c, Placement{SessionID: "T", Start: at(10, 16, 0), Privileged: true})
		if res.HasConflicts {
			t.Errorf("unexpected conflicts %v", res.Conflicts)
		}
	})
}

func TestAvailabilitySource(t *testing.T) {
	st, _ := scenario(t)
	hours := scheduler.New(everyDay, "05:00", "22:00")
	hours.SetEnforceWorkHours(true)
	c := NewChecker(st, DefaultConfig()).
		WithWindow(hours).
		WithAvailability(MultiSource{hours}).
		WithClock(func() time.Time { return at(1, 0, 0) })

	res := mustCheck(t, c, Placement{SessionID: "T", Start: at(10, 4, 30)})
	if kinds := res.Kinds(); !reflect.DeepEqual(kinds, []Kind{KindTrainerUnavailable}) {
		t.Errorf("kinds = %v, want [trainer-unavailable]", kinds)
	}

	res = mustCheck(t, c, Placement{SessionID: "T", Start: at(10, 11, 0)})
	if res.HasConflicts {
		t.Errorf("unexpected conflicts inside working hours: %v", res.Conflicts)
	}
}

type failingAvailability struct{}

func (failingAvailability) Unavailable(context.Context, string, time.Time) ([]session.Interval, error) {
	return nil, errors.New("availability service down")
}

func TestCheckFailed(t *testing.T) {
	st, _ := scenario(t)
	c := NewChecker(st, DefaultConfig()).
		WithAvailability(failingAvailability{}).
		WithClock(func() time.Time { return at(1, 0, 0) })

	_, err := c.Check(context.Background(), Placement{SessionID: "T", Start: at(10, 11, 0)})
	if !errors.Is(err, ErrCheckFailed) {
		t.Errorf("got error %v, want %v", err, ErrCheckFailed)
	}
}

func TestClientDoubleBooking(t *testing.T) {
	other := newSession("X", "8", at(10, 16, 0), 60, session.StatusScheduled)
	other.ClientID = "c1"
	st, _ := scenario(t, other)
	tt, _ := st.Get("T")
	tt.ClientID = "c1"
	if err := st.Add(tt); err != nil {
		t.Fatalf("Add: %v", err)
	}

	c := NewChecker(st, DefaultConfig()).WithClock(func() time.Time { return at(1, 0, 0) })
	res := mustCheck(t, c, Placement{SessionID: "T", Start: at(10, 16, 30)})
	if kinds := res.Kinds(); !reflect.DeepEqual(kinds, []Kind{KindClientDoubleBooking}) {
		t.Errorf("kinds = %v, want [client-double-booking]", kinds)
	}

	cfg := DefaultConfig()
	cfg.CheckClientConflicts = false
	c = NewChecker(st, cfg).WithClock(func() time.Time { return at(1, 0, 0) })
	if res := mustCheck(t, c, Placement{SessionID: "T", Start: at(10, 16, 30)}); res.HasConflicts {
		t.Errorf("client rule disabled, got %v", res.Conflicts)
	}
}

func TestCheckNew(t *testing.T) {
	other := newSession("X", "8", at(10, 16, 0), 60, session.StatusScheduled)
	other.ClientID = "c1"
	st, c := scenario(t, other)
	before := st.Len()

	tests := []struct {
		name       string
		session    *session.Session
		privileged bool
		want       []Kind
	}{
		{"free slot", newSession("N", "7", at(10, 11, 0), 60, session.StatusScheduled), false, nil},
		{"over a booking", newSession("N", "7", at(10, 9, 30), 60, session.StatusScheduled), false, []Kind{KindDoubleBooking}},
		{"client busy elsewhere", func() *session.Session {
			s := newSession("N", "7", at(10, 16, 0), 30, session.StatusScheduled)
			s.ClientID = "c1"
			return s
		}(), false, []Kind{KindClientDoubleBooking}},
		{"past", newSession("N", "7", at(1, 9, 0), 60, session.StatusScheduled), false, []Kind{KindPastTime}},
		{"past as admin", newSession("N", "7", at(1, 9, 0), 60, session.StatusScheduled), true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := c.CheckNew(context.Background(), tt.session, tt.privileged)
			if err != nil {
				t.Fatalf("CheckNew: %v", err)
			}
			if kinds := res.Kinds(); !reflect.DeepEqual(kinds, tt.want) {
				t.Errorf("kinds = %v, want %v", kinds, tt.want)
			}
			if res.HasConflicts && len(res.Alternatives) == 0 {
				t.Error("expected alternatives for a conflicting booking")
			}
		})
	}
	if st.Len() != before {
		t.Errorf("store changed size from %d to %d", before, st.Len())
	}
}

func TestCancelledSessionsIgnored(t *testing.T) {
	st, c := scenario(t)
	if _, err := st.Cancel([]string{"S"}, "admin", ""); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	res := mustCheck(t, c, Placement{SessionID: "T", Start: at(10, 9, 15)})
	if res.HasConflicts || res.Alternatives != nil {
		t.Errorf("cancelled session still collides: %v", res.Conflicts)
	}
}

func TestExcludeAndTargetTrainer(t *testing.T) {
	_, c := scenario(t)

	res := mustCheck(t, c, Placement{SessionID: "T", Start: at(10, 9, 15), Exclude: []string{"S"}})
	if res.HasConflicts {
		t.Errorf("excluded session still collides: %v", res.Conflicts)
	}

	res = mustCheck(t, c, At("T", at(10, 0, 0), 9, "8"))
	if res.HasConflicts {
		t.Errorf("trainer 8 is free at 09:00, got %v", res.Conflicts)
	}
}

func TestIdempotentCheck(t *testing.T) {
	_, c := scenario(t)
	p := Placement{SessionID: "T", Start: at(10, 9, 50)}
	first := mustCheck(t, c, p)
	second := mustCheck(t, c, p)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("results differ:\n%+v\n%+v", first, second)
	}
}

func TestUnknownSession(t *testing.T) {
	_, c := scenario(t)
	_, err := c.Check(context.Background(), Placement{SessionID: "nope", Start: at(10, 9, 0)})
	if !errors.Is(err, session.ErrSessionNotFound) {
		t.Errorf("got error %v, want %v", err, session.ErrSessionNotFound)
	}
}

func TestAlternativesSearchAdjacentDays(t *testing.T) {
	// Fill trainer 7's whole window on the 10th.
	block := newSession("B", "7", at(10, 5, 0), 17*60, session.StatusBlocked)
	block.IsBlocked = true
	st := store.New()
	tt := newSession("T", "7", at(12, 9, 0), 60, session.StatusScheduled)
	if err := st.Replace(dateutil.DateRange{}, []*session.Session{block, tt}); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	c := NewChecker(st, DefaultConfig()).
		WithWindow(scheduler.New(everyDay, "05:00", "22:00")).
		WithClock(func() time.Time { return at(1, 0, 0) })

	res := mustCheck(t, c, Placement{SessionID: "T", Start: at(10, 12, 0)})
	if len(res.Alternatives) != 3 {
		t.Fatalf("got %d alternatives, want 3", len(res.Alternatives))
	}
	// The evening of the 9th is closer than the morning of the 11th.
	want := []time.Time{at(9, 21, 0), at(9, 20, 45), at(9, 20, 30)}
	for i, w := range want {
		if got := res.Alternatives[i].Start; !got.Equal(w) {
			t.Errorf("alternative %d = %v, want %v", i, got, w)
		}
	}
}
