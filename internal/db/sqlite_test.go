package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/javiermolinar/coachcal/internal/conflict"
	"github.com/javiermolinar/coachcal/internal/dateutil"
	"github.com/javiermolinar/coachcal/internal/session"
)

// Compile-time checks.
var (
	_ session.Repository          = (*SQLite)(nil)
	_ session.BatchCommitter      = (*SQLite)(nil)
	_ session.OverrideCommitter   = (*SQLite)(nil)
	_ conflict.AvailabilitySource = (*SQLite)(nil)
)

var day = time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC)

func newTestRepo(t *testing.T) *SQLite {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	repo, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create test repo: %v", err)
	}
	repo.SetLocation(time.UTC)
	repo.now = func() time.Time { return day }

	t.Cleanup(func() {
		_ = repo.Close()
	})

	return repo
}

func newSession(id, trainer string, hour, minute int, status session.Status) *session.Session {
	return &session.Session{
		ID:          id,
		SessionDate: day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute),
		Duration:    60,
		Status:      status,
		TrainerID:   trainer,
		TrainerName: "Trainer " + trainer,
		CreatedAt:   day,
		UpdatedAt:   day,
	}
}

func mustCreate(t *testing.T, repo *SQLite, sessions ...*session.Session) {
	t.Helper()
	if err := repo.CreateSessions(context.Background(), sessions); err != nil {
		t.Fatalf("CreateSessions failed: %v", err)
	}
}

func TestCreateAndGetSession(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	s := newSession("a", "7", 9, 30, session.StatusScheduled)
	s.ClientID = "c1"
	s.ClientName = "Dana"
	s.Location = "Main Studio"
	s.BufferBefore = 10
	s.BufferAfter = 15
	s.RecurringGroupID = "g1"
	mustCreate(t, repo, s)

	got, err := repo.GetSession(ctx, "a")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if !got.SessionDate.Equal(s.SessionDate) {
		t.Errorf("expected start %v, got %v", s.SessionDate, got.SessionDate)
	}
	if got.Status != session.StatusScheduled || got.ClientName != "Dana" || got.Location != "Main Studio" {
		t.Errorf("unexpected session %+v", got)
	}
	if got.BufferBefore != 10 || got.BufferAfter != 15 || got.RecurringGroupID != "g1" {
		t.Errorf("unexpected buffers or group %+v", got)
	}
	if got.CancelledAt != nil {
		t.Error("expected no cancellation time")
	}
}

func TestGetSession_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetSession(context.Background(), "missing")
	if !errors.Is(err, session.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestCreateSessions_Invalid(t *testing.T) {
	repo := newTestRepo(t)

	s := newSession("a", "7", 9, 0, session.StatusScheduled)
	s.Duration = 0
	err := repo.CreateSessions(context.Background(), []*session.Session{s})
	if !errors.Is(err, session.ErrInvalidSession) {
		t.Errorf("expected ErrInvalidSession, got %v", err)
	}
}

func TestCreateSessions_Overlap(t *testing.T) {
	tests := []struct {
		name     string
		existing []*session.Session
		batch    []*session.Session
		wantErr  bool
	}{
		{
			name:     "collides with stored session",
			existing: []*session.Session{newSession("a", "7", 9, 0, session.StatusScheduled)},
			batch:    []*session.Session{newSession("b", "7", 9, 30, session.StatusScheduled)},
			wantErr:  true,
		},
		{
			name:     "adjacent is fine",
			existing: []*session.Session{newSession("a", "7", 9, 0, session.StatusScheduled)},
			batch:    []*session.Session{newSession("b", "7", 10, 0, session.StatusScheduled)},
		},
		{
			name:     "other trainer is fine",
			existing: []*session.Session{newSession("a", "7", 9, 0, session.StatusScheduled)},
			batch:    []*session.Session{newSession("b", "8", 9, 0, session.StatusScheduled)},
		},
		{
			name:     "cancelled session frees the slot",
			existing: []*session.Session{newSession("a", "7", 9, 0, session.StatusCancelled)},
			batch:    []*session.Session{newSession("b", "7", 9, 0, session.StatusScheduled)},
		},
		{
			name: "buffer of stored session",
			existing: []*session.Session{func() *session.Session {
				s := newSession("a", "7", 9, 0, session.StatusScheduled)
				s.BufferAfter = 15
				return s
			}()},
			batch:   []*session.Session{newSession("b", "7", 10, 0, session.StatusScheduled)},
			wantErr: true,
		},
		{
			name:     "buffer of new session",
			existing: []*session.Session{newSession("a", "7", 10, 0, session.StatusScheduled)},
			batch: []*session.Session{func() *session.Session {
				s := newSession("b", "7", 9, 0, session.StatusScheduled)
				s.BufferAfter = 10
				return s
			}()},
			wantErr: true,
		},
		{
			name: "collision inside the batch",
			batch: []*session.Session{
				newSession("a", "7", 9, 0, session.StatusScheduled),
				newSession("b", "7", 9, 45, session.StatusScheduled),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newTestRepo(t)
			if len(tt.existing) > 0 {
				mustCreate(t, repo, tt.existing...)
			}
			err := repo.CreateSessions(context.Background(), tt.batch)
			if tt.wantErr != errors.Is(err, ErrOverlap) {
				t.Fatalf("wantErr=%v, got %v", tt.wantErr, err)
			}
			if tt.wantErr {
				// Nothing from the batch is written.
				for _, s := range tt.batch {
					if _, err := repo.GetSession(context.Background(), s.ID); err == nil && s.ID != "a" {
						t.Errorf("session %s should not have been written", s.ID)
					}
				}
			}
		})
	}
}

func TestFetchSessions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a := newSession("a", "7", 9, 0, session.StatusScheduled)
	b := newSession("b", "8", 8, 0, session.StatusAvailable)
	b.ClientID = ""
	c := newSession("c", "7", 11, 0, session.StatusCancelled)
	c.RecurringGroupID = "g1"
	next := newSession("n", "7", 9, 0, session.StatusScheduled)
	next.SessionDate = next.SessionDate.AddDate(0, 0, 7)
	mustCreate(t, repo, a, b, c, next)

	week := dateutil.DateRange{Start: day, End: day.AddDate(0, 0, 6)}

	tests := []struct {
		name   string
		filter session.Filter
		want   []string
	}{
		{"whole range ordered by start", session.Filter{}, []string{"b", "a", "c"}},
		{"by trainer", session.Filter{TrainerID: "7"}, []string{"a", "c"}},
		{"by group", session.Filter{RecurringGroupID: "g1"}, []string{"c"}},
		{"by statuses", session.Filter{Statuses: []session.Status{session.StatusScheduled, session.StatusAvailable}}, []string{"b", "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.FetchSessions(ctx, week, tt.filter)
			if err != nil {
				t.Fatalf("FetchSessions failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d sessions, got %d", len(tt.want), len(got))
			}
			for i, s := range got {
				if s.ID != tt.want[i] {
					t.Errorf("position %d: expected %s, got %s", i, tt.want[i], s.ID)
				}
			}
		})
	}
}

func TestCommitReschedule(t *testing.T) {
	ctx := context.Background()

	t.Run("moves start and trainer", func(t *testing.T) {
		repo := newTestRepo(t)
		if err := repo.SaveTrainer(ctx, session.Trainer{ID: "8", Name: "Bea"}); err != nil {
			t.Fatalf("SaveTrainer failed: %v", err)
		}
		mustCreate(t, repo, newSession("a", "7", 9, 0, session.StatusScheduled))

		newStart := day.AddDate(0, 0, 1).Add(14 * time.Hour)
		if err := repo.CommitReschedule(ctx, "a", newStart, "8"); err != nil {
			t.Fatalf("CommitReschedule failed: %v", err)
		}
		got, _ := repo.GetSession(ctx, "a")
		if !got.SessionDate.Equal(newStart) || got.TrainerID != "8" || got.TrainerName != "Bea" {
			t.Errorf("unexpected session after move %+v", got)
		}

		// The day column follows the move.
		moved, _ := repo.FetchSessions(ctx, dateutil.DateRange{Start: newStart, End: newStart}, session.Filter{})
		if len(moved) != 1 {
			t.Errorf("expected session on new day, got %d", len(moved))
		}
	})

	t.Run("keeps trainer when empty", func(t *testing.T) {
		repo := newTestRepo(t)
		mustCreate(t, repo, newSession("a", "7", 9, 0, session.StatusScheduled))
		if err := repo.CommitReschedule(ctx, "a", day.Add(10*time.Hour), ""); err != nil {
			t.Fatalf("CommitReschedule failed: %v", err)
		}
		got, _ := repo.GetSession(ctx, "a")
		if got.TrainerID != "7" {
			t.Errorf("expected trainer 7, got %s", got.TrainerID)
		}
	})

	t.Run("rejects completed and missing", func(t *testing.T) {
		repo := newTestRepo(t)
		mustCreate(t, repo, newSession("done", "7", 9, 0, session.StatusCompleted))

		err := repo.CommitReschedule(ctx, "done", day.Add(10*time.Hour), "")
		if !errors.Is(err, session.ErrCommitFailed) || !errors.Is(err, session.ErrNotReschedulable) {
			t.Errorf("expected commit rejection, got %v", err)
		}
		err = repo.CommitReschedule(ctx, "missing", day.Add(10*time.Hour), "")
		if !errors.Is(err, session.ErrCommitFailed) || !errors.Is(err, session.ErrSessionNotFound) {
			t.Errorf("expected commit rejection for missing session, got %v", err)
		}
	})

	t.Run("rejects overlapping effective intervals", func(t *testing.T) {
		buffered := newSession("a", "7", 9, 0, session.StatusScheduled)
		buffered.BufferAfter = 15
		tests := []struct {
			name    string
			start   time.Time
			trainer string
			wantErr bool
		}{
			{"core overlap", day.Add(9*time.Hour + 30*time.Minute), "", true},
			{"inside the buffer", day.Add(10*time.Hour + 5*time.Minute), "", true},
			{"after the buffer", day.Add(10*time.Hour + 15*time.Minute), "", false},
			{"other trainer", day.Add(9 * time.Hour), "8", false},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				repo := newTestRepo(t)
				mustCreate(t, repo, buffered.Clone(), newSession("b", "7", 14, 0, session.StatusScheduled))

				err := repo.CommitReschedule(ctx, "b", tt.start, tt.trainer)
				if tt.wantErr != errors.Is(err, session.ErrCommitFailed) {
					t.Fatalf("wantErr=%v, got %v", tt.wantErr, err)
				}
				got, _ := repo.GetSession(ctx, "b")
				if tt.wantErr && got.Hour() != 14 {
					t.Errorf("rejected move was written: %v", got.SessionDate)
				}
			})
		}
	})

	t.Run("cancelled sessions do not block", func(t *testing.T) {
		repo := newTestRepo(t)
		mustCreate(t, repo,
			newSession("gone", "7", 9, 0, session.StatusCancelled),
			newSession("b", "7", 14, 0, session.StatusScheduled),
		)
		if err := repo.CommitReschedule(ctx, "b", day.Add(9*time.Hour), ""); err != nil {
			t.Errorf("CommitReschedule failed: %v", err)
		}
	})
}

func TestCommitReschedules(t *testing.T) {
	ctx := context.Background()

	t.Run("chain moves into vacated slots", func(t *testing.T) {
		repo := newTestRepo(t)
		mustCreate(t, repo,
			newSession("a", "7", 9, 0, session.StatusScheduled),
			newSession("b", "7", 10, 0, session.StatusScheduled),
		)
		moves := []session.Move{
			{ID: "a", Start: day.Add(10 * time.Hour)},
			{ID: "b", Start: day.Add(11 * time.Hour)},
		}
		if err := repo.CommitReschedules(ctx, moves); err != nil {
			t.Fatalf("CommitReschedules failed: %v", err)
		}
		a, _ := repo.GetSession(ctx, "a")
		b, _ := repo.GetSession(ctx, "b")
		if a.Hour() != 10 || b.Hour() != 11 {
			t.Errorf("a at %d, b at %d, want 10 and 11", a.Hour(), b.Hour())
		}
	})

	t.Run("one overlap rejects the batch", func(t *testing.T) {
		repo := newTestRepo(t)
		mustCreate(t, repo,
			newSession("a", "7", 9, 0, session.StatusScheduled),
			newSession("b", "7", 10, 0, session.StatusScheduled),
			newSession("x", "7", 12, 0, session.StatusScheduled),
		)
		moves := []session.Move{
			{ID: "a", Start: day.Add(10 * time.Hour)},
			{ID: "b", Start: day.Add(12 * time.Hour)},
		}
		err := repo.CommitReschedules(ctx, moves)
		if !errors.Is(err, session.ErrCommitFailed) || !errors.Is(err, ErrOverlap) {
			t.Fatalf("expected overlap rejection, got %v", err)
		}
		a, _ := repo.GetSession(ctx, "a")
		if a.Hour() != 9 {
			t.Errorf("a moved to %d, want the batch rolled back", a.Hour())
		}
	})
}

func TestCommitOverride(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	mustCreate(t, repo,
		newSession("a", "7", 9, 0, session.StatusScheduled),
		newSession("b", "7", 14, 0, session.StatusScheduled),
		newSession("done", "7", 16, 0, session.StatusCompleted),
	)

	if err := repo.CommitOverride(ctx, "b", day.Add(9*time.Hour+30*time.Minute), ""); err != nil {
		t.Fatalf("CommitOverride failed: %v", err)
	}
	b, _ := repo.GetSession(ctx, "b")
	if !b.SessionDate.Equal(day.Add(9*time.Hour + 30*time.Minute)) {
		t.Errorf("b starts at %v, want 09:30", b.SessionDate)
	}

	err := repo.CommitOverride(ctx, "done", day.Add(18*time.Hour), "")
	if !errors.Is(err, session.ErrNotReschedulable) {
		t.Errorf("expected completed session to stay put, got %v", err)
	}
}

func TestCancelSessions(t *testing.T) {
	ctx := context.Background()

	t.Run("skips completed", func(t *testing.T) {
		repo := newTestRepo(t)
		mustCreate(t, repo,
			newSession("a", "7", 9, 0, session.StatusScheduled),
			newSession("b", "7", 10, 0, session.StatusCompleted),
		)
		if err := repo.CancelSessions(ctx, []string{"a", "b"}, "admin", "closed"); err != nil {
			t.Fatalf("CancelSessions failed: %v", err)
		}

		a, _ := repo.GetSession(ctx, "a")
		if a.Status != session.StatusCancelled || a.CancelledBy != "admin" || a.CancellationReason != "closed" {
			t.Errorf("unexpected cancelled session %+v", a)
		}
		if a.CancelledAt == nil || !a.CancelledAt.Equal(day) {
			t.Errorf("expected cancellation time %v, got %v", day, a.CancelledAt)
		}
		b, _ := repo.GetSession(ctx, "b")
		if b.Status != session.StatusCompleted {
			t.Errorf("completed session changed to %s", b.Status)
		}
	})

	t.Run("unknown id writes nothing", func(t *testing.T) {
		repo := newTestRepo(t)
		mustCreate(t, repo, newSession("a", "7", 9, 0, session.StatusScheduled))

		err := repo.CancelSessions(ctx, []string{"a", "missing"}, "admin", "")
		if !errors.Is(err, session.ErrSessionNotFound) {
			t.Fatalf("expected ErrSessionNotFound, got %v", err)
		}
		a, _ := repo.GetSession(ctx, "a")
		if a.Status != session.StatusScheduled {
			t.Errorf("expected rollback, got %s", a.Status)
		}
	})
}

func TestUpdateStatus(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	mustCreate(t, repo, newSession("a", "7", 9, 0, session.StatusRequested))

	if err := repo.UpdateStatus(ctx, "a", session.StatusConfirmed); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	got, _ := repo.GetSession(ctx, "a")
	if got.Status != session.StatusConfirmed {
		t.Errorf("expected confirmed, got %s", got.Status)
	}

	if err := repo.UpdateStatus(ctx, "a", "bogus"); !errors.Is(err, session.ErrInvalidStatus) {
		t.Errorf("expected ErrInvalidStatus, got %v", err)
	}
	if err := repo.UpdateStatus(ctx, "missing", session.StatusCompleted); !errors.Is(err, session.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestTrainers(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, tr := range []session.Trainer{{ID: "2", Name: "Zoe"}, {ID: "1", Name: "Ann"}, {ID: "2", Name: "Bea"}} {
		if err := repo.SaveTrainer(ctx, tr); err != nil {
			t.Fatalf("SaveTrainer failed: %v", err)
		}
	}
	if err := repo.SaveTrainer(ctx, session.Trainer{Name: "Nobody"}); err == nil {
		t.Error("expected error for empty id")
	}

	got, err := repo.ListTrainers(ctx)
	if err != nil {
		t.Fatalf("ListTrainers failed: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Ann" || got[1].Name != "Bea" {
		t.Errorf("unexpected roster %+v", got)
	}
}

func TestBlocks(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	lunch := &Block{TrainerID: "7", Interval: session.NewInterval(day.Add(12*time.Hour), 60), Reason: "lunch"}
	if err := repo.AddBlock(ctx, lunch); err != nil {
		t.Fatalf("AddBlock failed: %v", err)
	}
	if lunch.ID == 0 {
		t.Error("expected ID to be set after insert")
	}
	overnight := &Block{TrainerID: "7", Interval: session.NewInterval(day.Add(23*time.Hour), 120)}
	other := &Block{TrainerID: "8", Interval: session.NewInterval(day.Add(9*time.Hour), 60)}
	for _, b := range []*Block{overnight, other} {
		if err := repo.AddBlock(ctx, b); err != nil {
			t.Fatalf("AddBlock failed: %v", err)
		}
	}

	if err := repo.AddBlock(ctx, &Block{TrainerID: "7"}); err == nil {
		t.Error("expected error for empty interval")
	}

	t.Run("unavailable on day", func(t *testing.T) {
		got, err := repo.Unavailable(ctx, "7", day)
		if err != nil {
			t.Fatalf("Unavailable failed: %v", err)
		}
		if len(got) != 2 || !got[0].Start.Equal(lunch.Interval.Start) {
			t.Errorf("unexpected intervals %v", got)
		}

		// The overnight block spills into the next day.
		next, _ := repo.Unavailable(ctx, "7", day.AddDate(0, 0, 1))
		if len(next) != 1 {
			t.Errorf("expected overnight block on next day, got %v", next)
		}
	})

	t.Run("list all trainers", func(t *testing.T) {
		got, err := repo.ListBlocks(ctx, "", dateutil.DateRange{Start: day, End: day})
		if err != nil {
			t.Fatalf("ListBlocks failed: %v", err)
		}
		if len(got) != 3 {
			t.Errorf("expected 3 blocks, got %d", len(got))
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := repo.DeleteBlock(ctx, lunch.ID); err != nil {
			t.Fatalf("DeleteBlock failed: %v", err)
		}
		if err := repo.DeleteBlock(ctx, lunch.ID); !errors.Is(err, ErrBlockNotFound) {
			t.Errorf("expected ErrBlockNotFound, got %v", err)
		}
	})
}
