package projector

import (
	"time"

	"github.com/javiermolinar/coachcal/internal/dateutil"
	"github.com/javiermolinar/coachcal/internal/session"
	"github.com/javiermolinar/coachcal/internal/slotindex"
)

// Responsive breakpoints for the week window, in columns or pixels.
const (
	narrowWidth = 431
	mediumWidth = 768
)

// MinBlockHeight is the smallest drawn height of a session block.
const MinBlockHeight = 24

// VisibleDaysFor returns how many week days fit in width.
func VisibleDaysFor(width int) int {
	switch {
	case width < narrowWidth:
		return 1
	case width < mediumWidth:
		return 3
	default:
		return 7
	}
}

// Block is a session positioned on the hour grid.
type Block struct {
	Session *session.Session
	Top     float64 // from FirstHour
	Height  float64 // core duration, at least MinBlockHeight

	BufferBeforeHeight float64
	BufferAfterHeight  float64
}

// WeekDay is one column of the week grid.
type WeekDay struct {
	Date    time.Time
	Key     string
	Label   string
	IsToday bool
	Blocks  []Block
	Hidden  int // sessions outside the hour grid
}

// WeekModel is the week grid with its visible window.
type WeekModel struct {
	Start time.Time
	Days  []WeekDay // always seven
	Hours []int

	VisibleDays  int
	DayOffset    int
	CanGoBack    bool
	CanGoForward bool

	ShowNow bool
	NowTop  float64
	NowDay  int // index into Days, -1 when today is not in this week
}

// Visible returns the days inside the current window.
func (w WeekModel) Visible() []WeekDay {
	end := w.DayOffset + w.VisibleDays
	if end > len(w.Days) {
		end = len(w.Days)
	}
	return w.Days[w.DayOffset:end]
}

// ClampOffset bounds offset so that the visible window stays inside the week.
func ClampOffset(offset, visible int) int {
	visible = normalizeVisible(visible)
	if offset > 7-visible {
		offset = 7 - visible
	}
	if offset < 0 {
		offset = 0
	}
	return offset
}

func normalizeVisible(v int) int {
	switch {
	case v <= 1:
		return 1
	case v <= 3:
		return 3
	default:
		return 7
	}
}

// Week lays out the seven days starting on the week start on or before date.
func Week(idx *slotindex.Index, date time.Time, p Params) WeekModel {
	p = p.normalized()
	start := dateutil.StartOfWeek(date, p.WeekStart)
	visible := normalizeVisible(p.VisibleDays)
	offset := ClampOffset(p.DayOffset, visible)

	w := WeekModel{
		Start:        start,
		Days:         make([]WeekDay, 7),
		Hours:        p.Hours(),
		VisibleDays:  visible,
		DayOffset:    offset,
		CanGoBack:    offset > 0,
		CanGoForward: offset+visible < 7,
		NowDay:       -1,
	}

	for i := range w.Days {
		day := start.AddDate(0, 0, i)
		key := dateutil.DayKey(day)
		wd := WeekDay{
			Date:    day,
			Key:     key,
			Label:   day.Format("Mon 2"),
			IsToday: dateutil.SameDay(day, p.Now),
		}
		for _, s := range idx.ByDay(key) {
			h := s.Hour()
			if h < p.FirstHour || h >= p.LastHour {
				wd.Hidden++
				continue
			}
			wd.Blocks = append(wd.Blocks, place(s, p))
		}
		if wd.IsToday {
			w.NowDay = i
		}
		w.Days[i] = wd
	}

	if h := p.Now.Hour(); w.NowDay >= 0 && h >= p.FirstHour && h <= p.LastHour {
		w.ShowNow = true
		w.NowTop = offsetFromGrid(p.Now, p)
	}
	return w
}

func place(s *session.Session, p Params) Block {
	height := float64(s.Duration) / 60 * p.PixelsPerHour
	if height < MinBlockHeight {
		height = MinBlockHeight
	}
	return Block{
		Session:            s,
		Top:                offsetFromGrid(s.SessionDate, p),
		Height:             height,
		BufferBeforeHeight: float64(s.BufferBefore) / 60 * p.PixelsPerHour,
		BufferAfterHeight:  float64(s.BufferAfter) / 60 * p.PixelsPerHour,
	}
}

func offsetFromGrid(t time.Time, p Params) float64 {
	return float64(t.Hour()-p.FirstHour)*p.PixelsPerHour + float64(t.Minute())/60*p.PixelsPerHour
}
