package projector

import (
	"strconv"
	"time"

	"github.com/javiermolinar/coachcal/internal/dateutil"
	"github.com/javiermolinar/coachcal/internal/session"
	"github.com/javiermolinar/coachcal/internal/slotindex"
)

// AllTrainersID identifies the aggregate column of the day views.
const AllTrainersID = slotindex.UnassignedPrefix

// SlotState describes an hourly cell of a day column.
type SlotState int

const (
	SlotAvailable SlotState = iota
	SlotOccupied
	SlotPast
)

func (s SlotState) String() string {
	switch s {
	case SlotOccupied:
		return "occupied"
	case SlotPast:
		return "past"
	default:
		return "available"
	}
}

// SessionBlock is a session drawn in a slot with its buffer blocks.
type SessionBlock struct {
	Session      *session.Session
	Core         session.Interval
	BufferBefore session.Interval // empty when the session has none
	BufferAfter  session.Interval
	Draggable    bool
}

// Slot is one hour of one column.
type Slot struct {
	Hour      int
	Start     time.Time
	State     SlotState
	Sessions  []SessionBlock
	Clickable bool
	Label     string // "Open", "Past" or empty
}

// Column is one trainer on a day.
type Column struct {
	Trainer   session.Trainer
	Slots     []Slot
	Booked    int
	Available int
	Expanded  bool
}

// Summary returns the header line of a column.
func (c Column) Summary() string {
	return strconv.Itoa(c.Booked) + " booked · " + strconv.Itoa(c.Available) + " open"
}

// DayModel is the per-trainer grid of one day.
type DayModel struct {
	Date    time.Time
	Label   string
	Hours   []int
	Labeled map[int]bool // hours that carry a time label at the current density
	Columns []Column
	All     *Column // aggregate column, nil unless requested

	Stacked        bool
	TotalTrainers  int
	HiddenTrainers int
	HasMore        bool
}

// Day projects every trainer of the day side by side.
func Day(idx *slotindex.Index, date time.Time, p Params) DayModel {
	return day(idx, date, p, false)
}

// DayStacked projects trainers as stacked sections, paginated by
// Params.VisibleTrainers.
func DayStacked(idx *slotindex.Index, date time.Time, p Params) DayModel {
	return day(idx, date, p, true)
}

func day(idx *slotindex.Index, date time.Time, p Params, stacked bool) DayModel {
	p = p.normalized()
	date = dateutil.TruncateToDay(date)
	dayIdx := idx.ForDay(dateutil.DayKey(date))

	trainers := p.Trainers
	if len(trainers) == 0 {
		trainers = dayIdx.Trainers()
	}

	m := DayModel{
		Date:          date,
		Label:         dateutil.DayLabel(date, p.Now),
		Hours:         p.Hours(),
		Labeled:       make(map[int]bool),
		Stacked:       stacked,
		TotalTrainers: len(trainers),
	}
	interval := 1
	if p.Density == DensityCompact {
		interval = 2
	}
	for _, h := range m.Hours {
		if (h-p.FirstHour)%interval == 0 {
			m.Labeled[h] = true
		}
	}

	shown := trainers
	if stacked && len(shown) > p.VisibleTrainers {
		shown = shown[:p.VisibleTrainers]
		m.HiddenTrainers = len(trainers) - len(shown)
		m.HasMore = true
	}

	for _, t := range shown {
		col := column(t, m.Hours, date, p, func(h int) []*session.Session {
			return dayIdx.ByTrainerHour(t.ID, h)
		})
		col.Expanded = !stacked || p.Expanded == nil || p.Expanded[t.ID]
		m.Columns = append(m.Columns, col)
	}

	if p.ShowAllTrainers {
		all := column(session.Trainer{ID: AllTrainersID, Name: "All Trainers"}, m.Hours, date, p, dayIdx.Unassigned)
		all.Expanded = true
		m.All = &all
	}
	return m
}

func column(t session.Trainer, hours []int, date time.Time, p Params, lookup func(int) []*session.Session) Column {
	col := Column{Trainer: t, Slots: make([]Slot, 0, len(hours))}
	for _, h := range hours {
		start := dateutil.At(date, h, 0)
		slot := Slot{Hour: h, Start: start}
		sessions := lookup(h)

		switch {
		case len(sessions) > 0:
			slot.State = SlotOccupied
			for _, s := range sessions {
				slot.Sessions = append(slot.Sessions, block(s))
				if s.IsScheduled() {
					col.Booked++
				} else {
					col.Available++
				}
			}
		case start.Before(p.Now):
			slot.State = SlotPast
			slot.Clickable = p.Admin
			if p.Admin {
				slot.Label = "Past"
			}
		default:
			slot.State = SlotAvailable
			slot.Clickable = true
			slot.Label = "Open"
		}
		col.Slots = append(col.Slots, slot)
	}
	return col
}

func block(s *session.Session) SessionBlock {
	return SessionBlock{
		Session:      s,
		Core:         session.CoreInterval(s),
		BufferBefore: session.BufferBeforeInterval(s),
		BufferAfter:  session.BufferAfterInterval(s),
		Draggable:    Draggable(s),
	}
}

// Draggable reports whether a session may be picked up in a calendar view.
func Draggable(s *session.Session) bool {
	if s == nil || s.IsBlocked {
		return false
	}
	switch s.Status {
	case session.StatusAvailable, session.StatusCompleted, session.StatusCancelled, session.StatusBlocked:
		return false
	}
	return true
}
