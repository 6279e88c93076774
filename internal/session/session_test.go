package session

import (
	"errors"
	"testing"
	"time"
	"unicode/utf8"
)

func TestNew(t *testing.T) {
	start := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

	t.Run("open slot defaults to available", func(t *testing.T) {
		s, err := New(start, 60, NewOptions{TrainerID: "7"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.Status != StatusAvailable {
			t.Errorf("Status = %q, want %q", s.Status, StatusAvailable)
		}
		if s.ID == "" {
			t.Error("expected a generated ID")
		}
	})

	t.Run("client booking defaults to scheduled", func(t *testing.T) {
		s, err := New(start, 60, NewOptions{TrainerID: "7", ClientID: "c1"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.Status != StatusScheduled {
			t.Errorf("Status = %q, want %q", s.Status, StatusScheduled)
		}
	})

	t.Run("blocked status sets IsBlocked", func(t *testing.T) {
		s, err := New(start, 60, NewOptions{TrainerID: "7", Status: StatusBlocked})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !s.IsBlocked || !s.IsUnavailableBlock() {
			t.Error("expected blocked session to be an unavailable block")
		}
	})

	t.Run("unique ids", func(t *testing.T) {
		a, _ := New(start, 30, NewOptions{})
		b, _ := New(start, 30, NewOptions{})
		if a.ID == b.ID {
			t.Errorf("expected distinct ids, got %q twice", a.ID)
		}
	})
}

func TestValidate(t *testing.T) {
	start := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	valid := func() *Session {
		return &Session{ID: "s1", SessionDate: start, Duration: 60, Status: StatusScheduled}
	}

	tests := []struct {
		name    string
		mutate  func(*Session)
		wantErr error
	}{
		{"valid", func(*Session) {}, nil},
		{"zero duration", func(s *Session) { s.Duration = 0 }, ErrInvalidDuration},
		{"negative buffer before", func(s *Session) { s.BufferBefore = -5 }, ErrInvalidBuffer},
		{"negative buffer after", func(s *Session) { s.BufferAfter = -1 }, ErrInvalidBuffer},
		{"unknown status", func(s *Session) { s.Status = "paused" }, ErrInvalidStatus},
		{"missing id", func(s *Session) { s.ID = "" }, ErrInvalidSession},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(s)
			err := s.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got error %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidSession) {
				t.Errorf("expected %v to wrap ErrInvalidSession", err)
			}
		})
	}
}

func TestParseStatus(t *testing.T) {
	tests := map[string]Status{
		"available": StatusAvailable,
		"Booked":    StatusScheduled,
		"canceled":  StatusCancelled,
		"complete":  StatusCompleted,
		"blocked":   StatusBlocked,
	}
	for in, want := range tests {
		got, err := ParseStatus(in)
		if err != nil {
			t.Fatalf("ParseStatus(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseStatus(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := ParseStatus("later"); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("got error %v, want %v", err, ErrInvalidStatus)
	}
}

func TestStatusPredicates(t *testing.T) {
	tests := []struct {
		status        Status
		booked        bool
		scheduled     bool
		canReschedule bool
	}{
		{StatusAvailable, false, false, true},
		{StatusScheduled, true, true, true},
		{StatusConfirmed, true, true, true},
		{StatusCompleted, true, true, false},
		{StatusCancelled, false, false, false},
		{StatusBlocked, false, true, true},
		{StatusRequested, false, true, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			s := &Session{Status: tt.status}
			if got := s.IsBooked(); got != tt.booked {
				t.Errorf("IsBooked = %v, want %v", got, tt.booked)
			}
			if got := s.IsScheduled(); got != tt.scheduled {
				t.Errorf("IsScheduled = %v, want %v", got, tt.scheduled)
			}
			if got := s.CanReschedule(); got != tt.canReschedule {
				t.Errorf("CanReschedule = %v, want %v", got, tt.canReschedule)
			}
		})
	}
}

func TestCloneAndCancel(t *testing.T) {
	start := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	s := &Session{ID: "s1", SessionDate: start, Duration: 60, Status: StatusScheduled}
	at := start.Add(-24 * time.Hour)
	s.Cancel("trainer-7", "sick", at)

	if !s.IsCancelled() {
		t.Fatal("expected session to be cancelled")
	}
	if s.CancelledBy != "trainer-7" || s.CancellationReason != "sick" {
		t.Errorf("cancel audit = (%q, %q)", s.CancelledBy, s.CancellationReason)
	}

	c := s.Clone()
	*c.CancelledAt = c.CancelledAt.Add(time.Hour)
	if !s.CancelledAt.Equal(at) {
		t.Errorf("clone shares CancelledAt with original: %v", s.CancelledAt)
	}
}

func TestTrainerNames(t *testing.T) {
	if got := (Trainer{ID: "7"}).DisplayName(); got != "Trainer 7" {
		t.Errorf("DisplayName = %q, want %q", got, "Trainer 7")
	}
	if got := (Trainer{ID: "7", Name: "Ana Ruiz"}).Initials(); got != "AR" {
		t.Errorf("Initials = %q, want AR", got)
	}
	if got := (Trainer{ID: "7", Name: "Bo"}).Initials(); got != "BO" {
		t.Errorf("Initials = %q, want BO", got)
	}

	multibyte := []struct {
		name string
		want string
	}{
		{"Élodie", "ÉL"},
		{"Élodie Ørsted", "ÉØ"},
		{"É", "É"},
	}
	for _, tt := range multibyte {
		t.Run(tt.name, func(t *testing.T) {
			got := (Trainer{ID: "7", Name: tt.name}).Initials()
			if got != tt.want || !utf8.ValidString(got) {
				t.Errorf("Initials = %q, want %q", got, tt.want)
			}
		})
	}
}
