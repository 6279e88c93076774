package scheduler

import (
	"context"
	"testing"
	"time"
)

var weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday"}

func TestNextAvailableStart(t *testing.T) {
	s := New(weekdays, "05:00", "22:00")

	tests := []struct {
		name      string
		now       time.Time
		wantStart string
		wantDay   int
	}{
		{"before opening", time.Date(2025, 1, 6, 4, 30, 0, 0, time.Local), "05:00", 6},
		{"during hours rounds up", time.Date(2025, 1, 6, 10, 23, 0, 0, time.Local), "10:30", 6},
		{"exactly on boundary", time.Date(2025, 1, 6, 10, 30, 0, 0, time.Local), "10:30", 6},
		{"after closing goes to next day", time.Date(2025, 1, 6, 22, 10, 0, 0, time.Local), "05:00", 7},
		{"rounding past closing", time.Date(2025, 1, 6, 21, 50, 0, 0, time.Local), "05:00", 7},
		{"saturday goes to monday", time.Date(2025, 1, 4, 10, 0, 0, 0, time.Local), "05:00", 6},
		{"friday evening goes to monday", time.Date(2025, 1, 10, 23, 0, 0, 0, time.Local), "05:00", 13},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			slot := s.NextAvailableStart(tc.now)
			if slot.Start != tc.wantStart {
				t.Errorf("start = %s, want %s", slot.Start, tc.wantStart)
			}
			if slot.End != "22:00" {
				t.Errorf("end = %s, want 22:00", slot.End)
			}
			if slot.Date.Day() != tc.wantDay {
				t.Errorf("day = %d, want %d", slot.Date.Day(), tc.wantDay)
			}
		})
	}
}

func TestStartTime(t *testing.T) {
	s := New(weekdays, "05:00", "22:00")
	got := s.StartTime(time.Date(2025, 1, 6, 10, 23, 0, 0, time.Local))
	want := time.Date(2025, 1, 6, 10, 30, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Errorf("StartTime = %v, want %v", got, want)
	}
}

func TestIsWithinWorkHours(t *testing.T) {
	s := New(weekdays, "05:00", "22:00")

	tests := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"monday morning", time.Date(2025, 1, 6, 7, 0, 0, 0, time.Local), true},
		{"monday at opening", time.Date(2025, 1, 6, 5, 0, 0, 0, time.Local), true},
		{"monday at closing", time.Date(2025, 1, 6, 22, 0, 0, 0, time.Local), false},
		{"monday night", time.Date(2025, 1, 6, 4, 59, 0, 0, time.Local), false},
		{"sunday", time.Date(2025, 1, 5, 10, 0, 0, 0, time.Local), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := s.IsWithinWorkHours(tc.t); got != tc.want {
				t.Errorf("IsWithinWorkHours = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDayWindow(t *testing.T) {
	s := New(weekdays, "05:00", "22:00")
	w := s.DayWindow(time.Date(2024, 6, 10, 13, 0, 0, 0, time.UTC))
	if w.Start.Hour() != 5 || w.End.Hour() != 22 {
		t.Errorf("DayWindow = %v, want 05:00-22:00", w)
	}
	if w.Minutes() != 17*60 {
		t.Errorf("window minutes = %d, want %d", w.Minutes(), 17*60)
	}
}

func TestUnavailable(t *testing.T) {
	ctx := context.Background()
	monday := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	sunday := time.Date(2024, 6, 9, 0, 0, 0, 0, time.UTC)

	t.Run("not enforced", func(t *testing.T) {
		s := New(weekdays, "05:00", "22:00")
		got, err := s.Unavailable(ctx, "7", sunday)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected no blocked time, got %v", got)
		}
	})

	t.Run("workday blocks outside window", func(t *testing.T) {
		s := New(weekdays, "05:00", "22:00")
		s.SetEnforceWorkHours(true)
		got, err := s.Unavailable(ctx, "7", monday)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("got %d intervals, want 2", len(got))
		}
		if got[0].End.Hour() != 5 || got[1].Start.Hour() != 22 {
			t.Errorf("got %v, want [00:00-05:00 22:00-24:00]", got)
		}
	})

	t.Run("non workday fully blocked", func(t *testing.T) {
		s := New(weekdays, "05:00", "22:00")
		s.SetEnforceWorkHours(true)
		got, _ := s.Unavailable(ctx, "7", sunday)
		if len(got) != 1 || got[0].Minutes() != 24*60 {
			t.Errorf("got %v, want whole day", got)
		}
	})
}

func TestCanFit(t *testing.T) {
	s := New(weekdays, "09:00", "17:00")
	monday := time.Date(2025, 1, 6, 0, 0, 0, 0, time.Local)
	saturday := time.Date(2025, 1, 4, 0, 0, 0, 0, time.Local)

	tests := []struct {
		name     string
		date     time.Time
		start    string
		duration int
		want     bool
	}{
		{"1h at 9am", monday, "09:00", 60, true},
		{"exact fit to end", monday, "16:30", 30, true},
		{"overruns closing", monday, "16:00", 120, false},
		{"before opening", monday, "08:00", 60, false},
		{"at closing", monday, "17:00", 30, false},
		{"weekend", saturday, "10:00", 60, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := s.CanFit(tc.date, tc.start, tc.duration); got != tc.want {
				t.Errorf("CanFit = %v, want %v", got, tc.want)
			}
		})
	}

	if !s.CanFitAnyDay("10:00", 60) {
		t.Error("CanFitAnyDay should ignore the weekday")
	}
}

func TestValidateTimeSlot(t *testing.T) {
	s := New(weekdays, "09:00", "17:00")
	monday := time.Date(2025, 1, 6, 0, 0, 0, 0, time.Local)
	saturday := time.Date(2025, 1, 4, 0, 0, 0, 0, time.Local)

	tests := []struct {
		name  string
		date  time.Time
		start string
		end   string
		want  string
	}{
		{"valid slot", monday, "09:00", "11:00", ""},
		{"weekend", saturday, "09:00", "11:00", "not a workday"},
		{"start >= end", monday, "11:00", "09:00", "start time must be before end time"},
		{"before opening", monday, "08:00", "10:00", "start time is before opening time"},
		{"after closing", monday, "16:00", "18:00", "end time is after closing time"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := s.ValidateTimeSlot(tc.date, tc.start, tc.end); got != tc.want {
				t.Errorf("ValidateTimeSlot = %q, want %q", got, tc.want)
			}
		})
	}

	if got := s.ValidateTimeSlotAnyDay("10:00", "12:00"); got != "" {
		t.Errorf("ValidateTimeSlotAnyDay = %q, want empty", got)
	}
}

func TestRoundUp(t *testing.T) {
	tests := []struct {
		input time.Time
		step  int
		want  string
	}{
		{time.Date(2025, 1, 6, 10, 0, 0, 0, time.Local), 15, "10:00"},
		{time.Date(2025, 1, 6, 10, 1, 0, 0, time.Local), 15, "10:15"},
		{time.Date(2025, 1, 6, 10, 15, 0, 0, time.Local), 15, "10:15"},
		{time.Date(2025, 1, 6, 10, 46, 0, 0, time.Local), 15, "11:00"},
		{time.Date(2025, 1, 6, 10, 0, 1, 0, time.Local), 15, "10:15"}, // has seconds
		{time.Date(2025, 1, 6, 10, 7, 0, 0, time.Local), 30, "10:30"},
		{time.Date(2025, 1, 6, 10, 7, 0, 0, time.Local), 0, "10:07"},
	}

	for _, tc := range tests {
		t.Run(tc.input.Format("15:04:05"), func(t *testing.T) {
			got := RoundUp(tc.input, tc.step).Format("15:04")
			if got != tc.want {
				t.Errorf("RoundUp(%d) = %s, want %s", tc.step, got, tc.want)
			}
		})
	}
}

func TestParseTime(t *testing.T) {
	tests := map[string]int{"00:00": 0, "05:00": 300, "12:30": 750, "22:00": 1320, "bad": 0}
	for in, want := range tests {
		if got := parseTime(in); got != want {
			t.Errorf("parseTime(%s) = %d, want %d", in, got, want)
		}
	}
}
