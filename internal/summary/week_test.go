package summary

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/javiermolinar/coachcal/internal/dateutil"
	"github.com/javiermolinar/coachcal/internal/session"
)

func at(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.UTC)
}

func mk(start time.Time, minutes int, trainer, client string, status session.Status) *session.Session {
	return &session.Session{
		ID:          start.Format("0102-1504") + trainer + client,
		SessionDate: start,
		Duration:    minutes,
		Status:      status,
		TrainerID:   trainer,
		TrainerName: map[string]string{"7": "Bea Ortiz", "9": "Al Kim"}[trainer],
		ClientID:    client,
	}
}

func TestSummarizeWeek(t *testing.T) {
	wednesday := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	monday := time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)
	sunday := time.Date(2025, 1, 19, 0, 0, 0, 0, time.UTC)

	sessions := []*session.Session{
		mk(at(monday, 9, 0), 60, "7", "ann", session.StatusScheduled),
		mk(at(monday, 10, 30), 60, "7", "ann", session.StatusCompleted),
		mk(at(monday, 12, 0), 60, "7", "", session.StatusAvailable),
		mk(at(sunday, 18, 0), 45, "9", "bob", session.StatusConfirmed),
		mk(at(sunday, 19, 0), 45, "9", "cara", session.StatusCancelled),
		mk(at(sunday.AddDate(0, 0, 1), 9, 0), 60, "7", "dan", session.StatusScheduled),
	}

	summary, err := SummarizeWeek(wednesday, sessions, WeekSummaryOptions{
		PeakStart: "09:00",
		PeakEnd:   "11:00",
	})
	if err != nil {
		t.Fatalf("SummarizeWeek failed: %v", err)
	}

	if !summary.Start.Equal(monday) {
		t.Fatalf("start = %v, want %v", summary.Start, monday)
	}
	if !summary.End.Equal(sunday) {
		t.Fatalf("end = %v, want %v", summary.End, sunday)
	}
	if len(summary.Sessions) != 5 {
		t.Fatalf("sessions = %d, want 5", len(summary.Sessions))
	}
	if len(summary.Trainers) != 2 || summary.Trainers[0].Trainer.ID != "9" {
		t.Fatalf("trainers = %+v, want Al Kim first", summary.Trainers)
	}

	bea := summary.Trainers[1]
	if bea.Booked != 1 || bea.Completed != 1 || bea.Open != 1 {
		t.Errorf("bea counts = %+v", bea)
	}
	if bea.BookedMinutes != 120 {
		t.Errorf("bea booked minutes = %d, want 120", bea.BookedMinutes)
	}
	if bea.PeakMinutes != 90 {
		t.Errorf("bea peak minutes = %d, want 90", bea.PeakMinutes)
	}
	if bea.Clients != 1 {
		t.Errorf("bea clients = %d, want 1", bea.Clients)
	}
	if bea.Utilization() != 66 {
		t.Errorf("bea utilization = %d, want 66", bea.Utilization())
	}

	al := summary.Trainers[0]
	if al.Booked != 1 || al.Cancelled != 1 || al.Clients != 1 || al.PeakMinutes != 0 {
		t.Errorf("al = %+v", al)
	}

	if summary.Total.BookedMinutes != 165 || summary.Total.Clients != 2 {
		t.Errorf("total = %+v", summary.Total)
	}
}

func TestSummarizeWeekPeakWindow(t *testing.T) {
	monday := time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)
	sessions := []*session.Session{mk(at(monday, 9, 0), 60, "7", "ann", session.StatusScheduled)}

	tests := []struct {
		name       string
		start, end string
		wantErr    bool
	}{
		{name: "no window", start: "", end: ""},
		{name: "bad clock", start: "9am", end: "11:00", wantErr: true},
		{name: "empty window", start: "11:00", end: "09:00", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := SummarizeWeek(monday, sessions, WeekSummaryOptions{PeakStart: tt.start, PeakEnd: tt.end})
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && s.Total.PeakMinutes != 0 {
				t.Errorf("peak minutes = %d without a window", s.Total.PeakMinutes)
			}
		})
	}
}

type fetcherFunc func(ctx context.Context, r dateutil.DateRange, f session.Filter) ([]*session.Session, error)

func (fn fetcherFunc) FetchSessions(ctx context.Context, r dateutil.DateRange, f session.Filter) ([]*session.Session, error) {
	return fn(ctx, r, f)
}

func TestBuildWeekSummary(t *testing.T) {
	thursday := time.Date(2025, 1, 16, 0, 0, 0, 0, time.UTC)

	var gotRange dateutil.DateRange
	var gotFilter session.Filter
	repo := fetcherFunc(func(_ context.Context, r dateutil.DateRange, f session.Filter) ([]*session.Session, error) {
		gotRange, gotFilter = r, f
		return []*session.Session{mk(at(thursday, 8, 0), 60, "7", "ann", session.StatusScheduled)}, nil
	})

	summary, err := BuildWeekSummary(context.Background(), repo, BuildWeekSummaryOptions{WeekStart: thursday, TrainerID: "7"})
	if err != nil {
		t.Fatalf("BuildWeekSummary failed: %v", err)
	}
	if dateutil.DayKey(gotRange.Start) != "2025-01-13" || dateutil.DayKey(gotRange.End) != "2025-01-19" {
		t.Errorf("range = %v", gotRange)
	}
	if gotFilter.TrainerID != "7" {
		t.Errorf("filter = %+v", gotFilter)
	}
	if summary.Total.Booked != 1 {
		t.Errorf("total = %+v", summary.Total)
	}

	failing := fetcherFunc(func(context.Context, dateutil.DateRange, session.Filter) ([]*session.Session, error) {
		return nil, errors.New("disk I/O error")
	})
	if _, err := BuildWeekSummary(context.Background(), failing, BuildWeekSummaryOptions{WeekStart: thursday}); err == nil {
		t.Error("expected fetch error")
	}
}
