package session

import (
	"testing"
	"time"
)

func at(hour, minute int) time.Time {
	return time.Date(2024, 6, 10, hour, minute, 0, 0, time.UTC)
}

func TestIntervalOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"disjoint", Interval{at(9, 0), at(10, 0)}, Interval{at(11, 0), at(12, 0)}, false},
		{"touching end to start", Interval{at(9, 0), at(10, 0)}, Interval{at(10, 0), at(11, 0)}, false},
		{"partial", Interval{at(9, 0), at(10, 15)}, Interval{at(9, 50), at(10, 20)}, true},
		{"contained", Interval{at(9, 0), at(12, 0)}, Interval{at(10, 0), at(10, 30)}, true},
		{"empty never overlaps", Interval{at(9, 30), at(9, 30)}, Interval{at(9, 0), at(10, 0)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlaps(tt.b); got != tt.want {
				t.Errorf("a.Overlaps(b) = %v, want %v", got, tt.want)
			}
			if got := tt.b.Overlaps(tt.a); got != tt.want {
				t.Errorf("b.Overlaps(a) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIntervalIntersect(t *testing.T) {
	a := Interval{at(9, 0), at(10, 15)}
	b := Interval{at(9, 50), at(10, 20)}
	got, ok := a.Intersect(b)
	if !ok {
		t.Fatal("expected intersection")
	}
	if !got.Start.Equal(at(9, 50)) || !got.End.Equal(at(10, 15)) {
		t.Errorf("Intersect = %v, want 09:50-10:15", got)
	}
	if m := a.OverlapMinutes(b); m != 25 {
		t.Errorf("OverlapMinutes = %d, want 25", m)
	}
	if _, ok := a.Intersect(Interval{at(11, 0), at(12, 0)}); ok {
		t.Error("expected no intersection")
	}
}

func TestEffectiveInterval(t *testing.T) {
	s := &Session{SessionDate: at(9, 0), Duration: 60, BufferBefore: 10, BufferAfter: 15}

	eff := EffectiveInterval(s)
	if !eff.Start.Equal(at(8, 50)) || !eff.End.Equal(at(10, 15)) {
		t.Errorf("EffectiveInterval = %v, want 08:50-10:15", eff)
	}
	core := CoreInterval(s)
	if !core.Start.Equal(at(9, 0)) || !core.End.Equal(at(10, 0)) {
		t.Errorf("CoreInterval = %v, want 09:00-10:00", core)
	}
	if got := BufferBeforeInterval(s).Minutes(); got != 10 {
		t.Errorf("buffer before = %d minutes, want 10", got)
	}
	if got := BufferAfterInterval(s).Minutes(); got != 15 {
		t.Errorf("buffer after = %d minutes, want 15", got)
	}

	moved := EffectiveIntervalAt(s, at(14, 0))
	if moved.Minutes() != eff.Minutes() {
		t.Errorf("moved interval length = %d, want %d", moved.Minutes(), eff.Minutes())
	}
	if !moved.Start.Equal(at(13, 50)) {
		t.Errorf("moved start = %v, want 13:50", moved.Start)
	}
}

func TestEffectiveIntervalNoBuffers(t *testing.T) {
	s := &Session{SessionDate: at(9, 0), Duration: 30}
	if !EffectiveInterval(s).Start.Equal(CoreInterval(s).Start) {
		t.Error("without buffers the effective interval equals the core")
	}
	if !BufferBeforeInterval(s).Empty() || !BufferAfterInterval(s).Empty() {
		t.Error("expected empty buffer intervals")
	}
}
