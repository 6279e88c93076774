package engine

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/javiermolinar/coachcal/internal/config"
	"github.com/javiermolinar/coachcal/internal/conflict"
	"github.com/javiermolinar/coachcal/internal/db"
	"github.com/javiermolinar/coachcal/internal/dragdrop"
	"github.com/javiermolinar/coachcal/internal/series"
	"github.com/javiermolinar/coachcal/internal/session"
)

// Monday 10 June 2024, 07:00.
var now = time.Date(2024, 6, 10, 7, 0, 0, 0, time.UTC)

func at(day, hour, minute int) time.Time {
	return time.Date(2024, 6, day, hour, minute, 0, 0, time.UTC)
}

func newEngine(t *testing.T, admin bool) (*Engine, *db.SQLite) {
	t.Helper()

	repo, err := db.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test repo: %v", err)
	}
	repo.SetLocation(time.UTC)
	t.Cleanup(func() { _ = repo.Close() })

	e := New(repo, config.Default(), nil, admin)
	e.SetClock(func() time.Time { return now })
	return e, repo
}

func book(t *testing.T, e *Engine, start time.Time, opts session.NewOptions) *session.Session {
	t.Helper()
	s, err := e.NewSession(start, 0, opts)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	res, err := e.Book(context.Background(), s, false)
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	if res.HasConflicts {
		t.Fatalf("unexpected conflicts %v", res.Conflicts)
	}
	return s
}

func TestNewSessionDefaults(t *testing.T) {
	e, _ := newEngine(t, false)

	s, err := e.NewSession(at(11, 9, 0), 0, session.NewOptions{TrainerID: "7"})
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	if s.Duration != 60 || s.Location != "Main Studio" || s.Status != session.StatusAvailable {
		t.Errorf("unexpected defaults %+v", s)
	}
}

func TestBook(t *testing.T) {
	ctx := context.Background()

	t.Run("persists and indexes", func(t *testing.T) {
		e, repo := newEngine(t, false)
		if err := e.LoadAround(ctx, now); err != nil {
			t.Fatalf("LoadAround failed: %v", err)
		}
		s := book(t, e, at(11, 9, 0), session.NewOptions{TrainerID: "7", ClientID: "c1"})

		if _, err := repo.GetSession(ctx, s.ID); err != nil {
			t.Errorf("expected session persisted: %v", err)
		}
		if got := e.Store.Index().ByTrainerHour("7", 9); len(got) != 1 {
			t.Errorf("expected session indexed, got %d", len(got))
		}
	})

	t.Run("conflict blocks booking", func(t *testing.T) {
		e, repo := newEngine(t, false)
		book(t, e, at(11, 9, 0), session.NewOptions{TrainerID: "7", ClientID: "c1"})

		s, _ := e.NewSession(at(11, 9, 30), 0, session.NewOptions{TrainerID: "7", ClientID: "c2"})
		res, err := e.Book(ctx, s, true)
		if err != nil {
			t.Fatalf("Book failed: %v", err)
		}
		if !res.HasConflicts || res.Conflicts[0].Kind != conflict.KindDoubleBooking {
			t.Fatalf("expected double booking, got %+v", res)
		}
		if _, err := repo.GetSession(ctx, s.ID); !errors.Is(err, session.ErrSessionNotFound) {
			t.Error("force without admin must not persist")
		}
	})

	t.Run("past time rejected unless admin", func(t *testing.T) {
		e, _ := newEngine(t, false)
		s, _ := e.NewSession(at(10, 6, 0), 0, session.NewOptions{TrainerID: "7"})
		res, err := e.Book(ctx, s, false)
		if err != nil {
			t.Fatalf("Book failed: %v", err)
		}
		if !res.HasConflicts || res.Conflicts[0].Kind != conflict.KindPastTime {
			t.Errorf("expected past-time conflict, got %+v", res)
		}

		admin, _ := newEngine(t, true)
		s, _ = admin.NewSession(at(10, 6, 0), 0, session.NewOptions{TrainerID: "7"})
		res, err = admin.Book(ctx, s, false)
		if err != nil || res.HasConflicts {
			t.Errorf("expected admin booking in the past, got %+v %v", res, err)
		}
	})

	t.Run("availability block", func(t *testing.T) {
		e, repo := newEngine(t, false)
		block := &db.Block{TrainerID: "7", Interval: session.NewInterval(at(11, 12, 0), 120), Reason: "physio"}
		if err := repo.AddBlock(ctx, block); err != nil {
			t.Fatalf("AddBlock failed: %v", err)
		}
		s, _ := e.NewSession(at(11, 13, 0), 0, session.NewOptions{TrainerID: "7"})
		res, err := e.Book(ctx, s, false)
		if err != nil {
			t.Fatalf("Book failed: %v", err)
		}
		if !res.HasConflicts || res.Conflicts[0].Kind != conflict.KindTrainerUnavailable {
			t.Errorf("expected trainer-unavailable, got %+v", res)
		}
	})

	t.Run("block after midnight", func(t *testing.T) {
		e, repo := newEngine(t, false)
		block := &db.Block{TrainerID: "7", Interval: session.NewInterval(at(12, 0, 0), 60), Reason: "travel"}
		if err := repo.AddBlock(ctx, block); err != nil {
			t.Fatalf("AddBlock failed: %v", err)
		}
		s, _ := e.NewSession(at(11, 23, 30), 0, session.NewOptions{TrainerID: "7"})
		res, err := e.Book(ctx, s, false)
		if err != nil {
			t.Fatalf("Book failed: %v", err)
		}
		if !res.HasConflicts || res.Conflicts[0].Kind != conflict.KindTrainerUnavailable {
			t.Errorf("expected trainer-unavailable, got %+v", res)
		}
	})

	t.Run("client already booked", func(t *testing.T) {
		e, repo := newEngine(t, false)
		book(t, e, at(11, 9, 0), session.NewOptions{TrainerID: "7", ClientID: "c1"})

		s, _ := e.NewSession(at(11, 9, 30), 0, session.NewOptions{TrainerID: "8", ClientID: "c1"})
		res, err := e.Book(ctx, s, false)
		if err != nil {
			t.Fatalf("Book failed: %v", err)
		}
		if !res.HasConflicts || res.Conflicts[0].Kind != conflict.KindClientDoubleBooking {
			t.Fatalf("expected client-double-booking, got %+v", res)
		}
		if _, err := repo.GetSession(ctx, s.ID); !errors.Is(err, session.ErrSessionNotFound) {
			t.Error("conflicting booking must not persist")
		}
	})
}

func TestDragCommitsThroughRepository(t *testing.T) {
	ctx := context.Background()
	e, repo := newEngine(t, false)
	s := book(t, e, at(11, 9, 0), session.NewOptions{TrainerID: "7", ClientID: "c1"})

	// Reload from storage as the calendar would.
	if err := e.LoadAround(ctx, at(11, 0, 0)); err != nil {
		t.Fatalf("LoadAround failed: %v", err)
	}

	m := e.DragManager()
	if err := m.Begin(s.ID); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	ticket, err := m.Drop(s.ID, &dragdrop.Target{Day: at(12, 0, 0), Hour: 15})
	if err != nil || ticket == nil {
		t.Fatalf("Drop failed: %v", err)
	}
	tr, err := m.Resolve(ctx, m.Check(ctx, *ticket))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if tr.To != dragdrop.Idle || m.State(s.ID) != dragdrop.Idle {
		t.Errorf("expected drag to finish, got %s", tr.To)
	}

	got, err := repo.GetSession(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if !got.SessionDate.Equal(at(12, 15, 0)) {
		t.Errorf("expected persisted move to 12th 15:00, got %v", got.SessionDate)
	}
}

func TestSeriesThroughRepository(t *testing.T) {
	ctx := context.Background()
	e, repo := newEngine(t, false)
	if err := e.LoadAround(ctx, now); err != nil {
		t.Fatalf("LoadAround failed: %v", err)
	}

	report, err := e.Series.Generate(ctx, series.Rule{
		StartDate:  at(10, 0, 0),
		EndDate:    at(21, 0, 0),
		DaysOfWeek: []time.Weekday{time.Monday, time.Wednesday},
		Times:      []string{"18:00"},
		Duration:   60,
		TrainerID:  "7",
		ClientID:   "c1",
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	// 10, 12, 17 and 19 June.
	if len(report.Created) != 4 {
		t.Fatalf("expected 4 occurrences, got %d", len(report.Created))
	}

	cancelled, err := e.Series.Cancel(ctx, report.GroupID, series.CancelOptions{By: "admin", Reason: "holiday"})
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if len(cancelled.Cancelled) != 4 {
		t.Errorf("expected 4 cancelled, got %d", len(cancelled.Cancelled))
	}
	members, err := repo.ListGroup(ctx, report.GroupID)
	if err != nil {
		t.Fatalf("ListGroup failed: %v", err)
	}
	for _, m := range members {
		if m.Status != session.StatusCancelled {
			t.Errorf("member %s not cancelled in storage: %s", m.ID, m.Status)
		}
	}
}

func TestTrainersFallback(t *testing.T) {
	ctx := context.Background()
	e, repo := newEngine(t, false)
	book(t, e, at(11, 9, 0), session.NewOptions{TrainerID: "7", TrainerName: "Bea"})

	got, err := e.Trainers(ctx)
	if err != nil {
		t.Fatalf("Trainers failed: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Bea" {
		t.Errorf("expected derived roster, got %+v", got)
	}

	if err := repo.SaveTrainer(ctx, session.Trainer{ID: "8", Name: "Ann"}); err != nil {
		t.Fatalf("SaveTrainer failed: %v", err)
	}
	got, _ = e.Trainers(ctx)
	if len(got) != 1 || got[0].ID != "8" {
		t.Errorf("expected recorded roster, got %+v", got)
	}
}
