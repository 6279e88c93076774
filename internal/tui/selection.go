package tui

import (
	"github.com/javiermolinar/coachcal/internal/dateutil"
	"github.com/javiermolinar/coachcal/internal/projector"
	"github.com/javiermolinar/coachcal/internal/session"
)

// columns returns the trainer columns of the day views, the aggregate column
// last when shown.
func (m Model) columns() []projector.Column {
	if m.kind != projector.KindDay && m.kind != projector.KindDayStacked {
		return nil
	}
	v, err := m.project()
	if err != nil || v.Day == nil {
		return nil
	}
	return dayColumns(v.Day)
}

func dayColumns(d *projector.DayModel) []projector.Column {
	cols := d.Columns
	if d.All != nil {
		cols = append(cols[:len(cols):len(cols)], *d.All)
	}
	return cols
}

func (m Model) columnCount() int {
	return len(m.columns())
}

// selectedColumn returns the trainer column under the cursor.
func (m Model) selectedColumn() (projector.Column, bool) {
	cols := m.columns()
	if len(cols) == 0 {
		return projector.Column{}, false
	}
	return cols[max(0, min(m.col, len(cols)-1))], true
}

// selectedSlot returns the hour cell under the cursor. The week view resolves
// it against the aggregate column of the selected day.
func (m Model) selectedSlot() (projector.Slot, projector.SlotSelection, bool) {
	var col projector.Column
	switch m.kind {
	case projector.KindDay, projector.KindDayStacked:
		c, ok := m.selectedColumn()
		if !ok {
			return projector.Slot{}, projector.SlotSelection{}, false
		}
		col = c
	case projector.KindWeek:
		p := m.viewParams()
		p.ShowAllTrainers = true
		d := projector.Day(m.index(), m.date, p)
		col = *d.All
		if m.trainer != "" {
			col.Trainer.ID = m.trainer
		}
	default:
		return projector.Slot{}, projector.SlotSelection{}, false
	}

	for _, slot := range col.Slots {
		if slot.Hour == m.hour {
			return slot, projector.SlotSelection{Date: m.date, Hour: m.hour, TrainerID: col.Trainer.ID}, true
		}
	}
	return projector.Slot{}, projector.SlotSelection{}, false
}

// selectedSession returns the session under the cursor, nil when the cursor
// is on an empty cell or in the month view.
func (m Model) selectedSession() *session.Session {
	v, err := m.project()
	if err != nil {
		return nil
	}

	switch {
	case v.Week != nil:
		key := dateutil.DayKey(m.date)
		for _, d := range v.Week.Days {
			if d.Key != key {
				continue
			}
			for _, b := range d.Blocks {
				if b.Session.Hour() == m.hour {
					return b.Session
				}
			}
		}
	case v.Day != nil:
		cols := dayColumns(v.Day)
		if len(cols) == 0 {
			return nil
		}
		col := cols[max(0, min(m.col, len(cols)-1))]
		for _, slot := range col.Slots {
			if slot.Hour == m.hour && len(slot.Sessions) > 0 {
				return slot.Sessions[0].Session
			}
		}
	case v.Agenda != nil:
		i := 0
		for _, g := range v.Agenda.Groups {
			for _, s := range g.Sessions {
				if i == m.item {
					return s
				}
				i++
			}
		}
	}
	return nil
}
