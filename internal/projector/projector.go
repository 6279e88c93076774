// Package projector turns an indexed session slice into render models for the
// month, week, day and agenda calendars.
//
// Every projector is a pure function of (index, date, params). None of them
// mutates the index or the sessions it holds, and cancelled sessions never
// appear in any model because the index excludes them.
package projector

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/javiermolinar/coachcal/internal/session"
	"github.com/javiermolinar/coachcal/internal/slotindex"
)

// ErrUnknownView is returned by RenderView for an unknown kind.
var ErrUnknownView = errors.New("unknown view")

// Kind selects a calendar view.
type Kind int

const (
	KindMonth Kind = iota
	KindWeek
	KindDay
	KindDayStacked
	KindAgenda
)

// Kinds lists every view in cycling order.
var Kinds = []Kind{KindMonth, KindWeek, KindDay, KindDayStacked, KindAgenda}

func (k Kind) String() string {
	switch k {
	case KindMonth:
		return "month"
	case KindWeek:
		return "week"
	case KindDay:
		return "day"
	case KindDayStacked:
		return "stacked"
	case KindAgenda:
		return "agenda"
	default:
		return fmt.Sprintf("view(%d)", int(k))
	}
}

// ParseKind parses a view name.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "month":
		return KindMonth, nil
	case "week":
		return KindWeek, nil
	case "day":
		return KindDay, nil
	case "stacked", "day-stacked":
		return KindDayStacked, nil
	case "agenda", "list":
		return KindAgenda, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownView, s)
	}
}

// Next returns the following view in cycling order.
func (k Kind) Next() Kind {
	for i, v := range Kinds {
		if v == k {
			return Kinds[(i+1)%len(Kinds)]
		}
	}
	return KindMonth
}

// Density controls how much detail day grids label.
type Density int

const (
	DensityComfortable Density = iota
	DensityCompact
)

// Params are the view parameters shared by all projectors.
type Params struct {
	Now       time.Time
	WeekStart time.Weekday
	Admin     bool

	// Hour grid: FirstHour through LastHour inclusive.
	FirstHour     int
	LastHour      int
	PixelsPerHour float64

	// Month
	MaxOrbs int

	// Week
	VisibleDays int // 1, 3 or 7
	DayOffset   int

	// Day
	Trainers        []session.Trainer // explicit roster, derived from sessions when empty
	VisibleTrainers int
	ShowAllTrainers bool
	Expanded        map[string]bool
	Density         Density

	// Agenda
	AgendaPageSize int
	AgendaPages    int // pages loaded so far, at least one
}

// Defaults used when a Params field is zero.
const (
	DefaultFirstHour       = 5
	DefaultLastHour        = 22
	DefaultPixelsPerHour   = 64
	DefaultMaxOrbs         = 3
	DefaultVisibleTrainers = 6
	DefaultAgendaPageSize  = 20
	MonthCells             = 42
)

// DefaultParams returns the standard view parameters.
func DefaultParams(now time.Time) Params {
	return Params{
		Now:             now,
		WeekStart:       time.Sunday,
		FirstHour:       DefaultFirstHour,
		LastHour:        DefaultLastHour,
		PixelsPerHour:   DefaultPixelsPerHour,
		MaxOrbs:         DefaultMaxOrbs,
		VisibleDays:     7,
		VisibleTrainers: DefaultVisibleTrainers,
		AgendaPageSize:  DefaultAgendaPageSize,
		AgendaPages:     1,
	}
}

func (p Params) normalized() Params {
	if p.FirstHour <= 0 && p.LastHour <= 0 {
		p.FirstHour, p.LastHour = DefaultFirstHour, DefaultLastHour
	}
	if p.LastHour < p.FirstHour {
		p.LastHour = p.FirstHour
	}
	if p.PixelsPerHour <= 0 {
		p.PixelsPerHour = DefaultPixelsPerHour
	}
	if p.MaxOrbs <= 0 {
		p.MaxOrbs = DefaultMaxOrbs
	}
	if p.VisibleTrainers <= 0 {
		p.VisibleTrainers = DefaultVisibleTrainers
	}
	if p.AgendaPageSize <= 0 {
		p.AgendaPageSize = DefaultAgendaPageSize
	}
	if p.AgendaPages <= 0 {
		p.AgendaPages = 1
	}
	if p.Now.IsZero() {
		p.Now = time.Now()
	}
	return p
}

// Hours returns the hour rows of the grid.
func (p Params) Hours() []int {
	p = p.normalized()
	hours := make([]int, 0, p.LastHour-p.FirstHour+1)
	for h := p.FirstHour; h <= p.LastHour; h++ {
		hours = append(hours, h)
	}
	return hours
}

// ShowMore reveals another page of trainers in the stacked day view.
func (p Params) ShowMore() Params {
	if p.VisibleTrainers <= 0 {
		p.VisibleTrainers = DefaultVisibleTrainers
	}
	p.VisibleTrainers += DefaultVisibleTrainers
	return p
}

// LoadMore requests one more agenda page.
func (p Params) LoadMore() Params {
	if p.AgendaPages <= 0 {
		p.AgendaPages = 1
	}
	p.AgendaPages++
	return p
}

// Input is everything a projector reads.
type Input struct {
	Index  *slotindex.Index
	Date   time.Time
	Params Params
}

// View is the render model of one calendar view. Exactly one model field is
// set, matching Kind.
type View struct {
	Kind   Kind
	Month  *MonthModel
	Week   *WeekModel
	Day    *DayModel
	Agenda *AgendaModel
}

// RenderView dispatches to the projector for kind.
func RenderView(kind Kind, in Input) (View, error) {
	switch kind {
	case KindMonth:
		m := Month(in.Index, in.Date, in.Params)
		return View{Kind: kind, Month: &m}, nil
	case KindWeek:
		w := Week(in.Index, in.Date, in.Params)
		return View{Kind: kind, Week: &w}, nil
	case KindDay:
		d := Day(in.Index, in.Date, in.Params)
		return View{Kind: kind, Day: &d}, nil
	case KindDayStacked:
		d := DayStacked(in.Index, in.Date, in.Params)
		return View{Kind: kind, Day: &d}, nil
	case KindAgenda:
		a := Agenda(in.Index, in.Date, in.Params)
		return View{Kind: kind, Agenda: &a}, nil
	default:
		return View{}, fmt.Errorf("%w: %s", ErrUnknownView, kind)
	}
}

// SlotSelection identifies an empty cell picked by the user.
type SlotSelection struct {
	Date      time.Time
	Hour      int
	TrainerID string // empty for the All Trainers column
}

// Callbacks connect views to booking dialogs owned by the host application.
type Callbacks struct {
	// OnSelectSlot opens a booking flow and reports whether it completed.
	OnSelectSlot func(SlotSelection) bool
	// OnSelectSession opens the detail flow of a session.
	OnSelectSession func(*session.Session)
}

// SelectSlot invokes OnSelectSlot for clickable slots only. Past slots are
// inert unless the view was projected for an admin.
func (c Callbacks) SelectSlot(slot Slot, sel SlotSelection) bool {
	if !slot.Clickable || c.OnSelectSlot == nil {
		return false
	}
	return c.OnSelectSlot(sel)
}

// SelectSession invokes OnSelectSession. Cancelled sessions are ignored.
func (c Callbacks) SelectSession(s *session.Session) bool {
	if s == nil || s.IsCancelled() || c.OnSelectSession == nil {
		return false
	}
	c.OnSelectSession(s)
	return true
}
