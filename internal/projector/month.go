package projector

import (
	"time"

	"github.com/javiermolinar/coachcal/internal/dateutil"
	"github.com/javiermolinar/coachcal/internal/session"
	"github.com/javiermolinar/coachcal/internal/slotindex"
)

// Orb is the compact status marker of one session in a month cell.
type Orb struct {
	SessionID string
	Status    session.Status
	Start     time.Time
}

// MonthCell is one day of the month grid.
type MonthCell struct {
	Date     time.Time
	Key      string
	InMonth  bool
	IsToday  bool
	Count    int
	Orbs     []Orb
	Overflow int // sessions beyond the orb cap, shown as +N
}

// MonthModel is a six-week grid.
type MonthModel struct {
	Month time.Time // first of the month
	Cells []MonthCell
	Total int
}

// Weeks returns the grid split into rows of seven cells.
func (m MonthModel) Weeks() [][]MonthCell {
	var out [][]MonthCell
	for i := 0; i+7 <= len(m.Cells); i += 7 {
		out = append(out, m.Cells[i:i+7])
	}
	return out
}

// Month buckets sessions by day across 42 cells anchored to the week start on
// or before the first of the month.
func Month(idx *slotindex.Index, date time.Time, p Params) MonthModel {
	p = p.normalized()
	first := dateutil.StartOfMonth(date)
	start := dateutil.MonthGridStart(date, p.WeekStart)

	m := MonthModel{Month: first, Cells: make([]MonthCell, MonthCells)}
	for i := range m.Cells {
		day := start.AddDate(0, 0, i)
		key := dateutil.DayKey(day)
		sessions := idx.ByDay(key)

		cell := MonthCell{
			Date:    day,
			Key:     key,
			InMonth: day.Month() == first.Month(),
			IsToday: dateutil.SameDay(day, p.Now),
			Count:   len(sessions),
		}
		for j, s := range sessions {
			if j == p.MaxOrbs {
				break
			}
			cell.Orbs = append(cell.Orbs, Orb{SessionID: s.ID, Status: s.Status, Start: s.SessionDate})
		}
		cell.Overflow = cell.Count - len(cell.Orbs)
		m.Total += cell.Count
		m.Cells[i] = cell
	}
	return m
}
