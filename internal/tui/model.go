package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/coachcal/internal/conflict"
	"github.com/javiermolinar/coachcal/internal/dateutil"
	"github.com/javiermolinar/coachcal/internal/dragdrop"
	"github.com/javiermolinar/coachcal/internal/engine"
	"github.com/javiermolinar/coachcal/internal/projector"
	"github.com/javiermolinar/coachcal/internal/session"
	"github.com/javiermolinar/coachcal/internal/slotindex"
	"github.com/javiermolinar/coachcal/internal/tui/theme"
)

// Mode represents the current interaction mode.
type Mode int

const (
	ModeNormal   Mode = iota
	ModeMove          // picking a drop target for a session
	ModeConflict      // conflict panel of a rejected drop
	ModePrompt
	ModeDetail
)

func (m Mode) String() string {
	switch m {
	case ModeMove:
		return "move"
	case ModeConflict:
		return "conflict"
	case ModePrompt:
		return "prompt"
	case ModeDetail:
		return "detail"
	default:
		return "normal"
	}
}

const (
	// statusTTL is how long a status message stays on screen.
	statusTTL = 4 * time.Second

	// agendaLoadThreshold is how close to the last loaded agenda row the
	// selection gets before the next page loads.
	agendaLoadThreshold = 3
)

// moveState is the drop target of a session being moved.
type moveState struct {
	sessionID string
	label     string
	duration  int
	date      time.Time
	hour      int
	minute    int
	trainerID string
	checking  bool
}

func (s moveState) start() time.Time {
	return dateutil.At(s.date, s.hour, s.minute)
}

// conflictState is the panel shown for a rejected drop.
type conflictState struct {
	sessionID string
	placement time.Time
	result    *conflict.Result
	selected  int
	failed    bool // the check could not run and may be retried
	checking  bool
}

// Model is the calendar model.
type Model struct {
	// Dependencies
	eng   *engine.Engine
	drags *dragdrop.Manager
	opts  Options
	ctx   context.Context

	// Theme and styles
	theme  *theme.Theme
	styles *Styles
	keys   keyMap
	help   help.Model

	// View state
	kind    projector.Kind
	params  projector.Params
	date    time.Time // selected day
	hour    int       // selected hour row
	col     int       // selected trainer column in the day views
	item    int       // selected agenda row
	trainer string    // trainer filter, empty shows everyone
	roster  []session.Trainer

	mode     Mode
	move     moveState
	conflict conflictState
	detail   *session.Session

	// Components
	prompt textinput.Model

	// Terminal dimensions
	width  int
	height int

	// Messages
	statusMsg string
	statusErr bool
}

// New creates the calendar model and loads the sessions around today.
func New(eng *engine.Engine, opts Options) (Model, error) {
	cfg := eng.Config()
	th, err := theme.Load(cfg.UI.Theme)
	if err != nil {
		return Model{}, err
	}

	prompt := textinput.New()
	prompt.Prompt = "> "
	prompt.Placeholder = "/goto tomorrow"
	prompt.CharLimit = 120

	now := eng.Now()
	m := Model{
		eng:    eng,
		drags:  eng.DragManager(),
		opts:   opts,
		ctx:    context.Background(),
		theme:  th,
		styles: NewStyles(th),
		keys:   newKeyMap(),
		help:   help.New(),
		kind:   cfg.DefaultView(),
		params: eng.ViewParams(),
		date:   dateutil.TruncateToDay(now),
		hour:   now.Hour(),
		prompt: prompt,
	}
	initDebugLog(eng.Logger(), opts.Debug)
	m.drags.SetObserver(logTransition)
	m.clampHour()

	if err := m.ensureLoaded(m.date); err != nil {
		return Model{}, err
	}
	if err := m.refreshRoster(); err != nil {
		return Model{}, err
	}
	return m, nil
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// ensureLoaded loads the sessions around day unless the store already holds
// them. Drags in flight are abandoned when the window is replaced.
func (m *Model) ensureLoaded(day time.Time) error {
	if m.eng.Store.Window().Contains(day) {
		return nil
	}
	m.drags.CancelAll()
	if err := m.eng.LoadAround(m.ctx, day); err != nil {
		return fmt.Errorf("loading sessions: %w", err)
	}
	return nil
}

func (m *Model) refreshRoster() error {
	roster, err := m.eng.Trainers(m.ctx)
	if err != nil {
		return err
	}
	m.roster = roster
	return nil
}

// setDate moves the selection to day, loading sessions when needed.
func (m *Model) setDate(day time.Time) {
	day = dateutil.TruncateToDay(day)
	if err := m.ensureLoaded(day); err != nil {
		m.setError(err)
		return
	}
	m.date = day
	m.followWeekWindow()
}

// followWeekWindow keeps the selected day inside the visible week window.
func (m *Model) followWeekWindow() {
	visible := m.visibleDays()
	start := dateutil.StartOfWeek(m.date, m.params.WeekStart)
	i := int(m.date.Sub(start).Hours() / 24)
	offset := m.params.DayOffset
	if i < offset {
		offset = i
	}
	if i >= offset+visible {
		offset = i - visible + 1
	}
	m.params.DayOffset = projector.ClampOffset(offset, visible)
}

// visibleDays returns the week window size for the terminal width. One cell
// is taken as eight pixels.
func (m Model) visibleDays() int {
	if m.width == 0 {
		return 7
	}
	return projector.VisibleDaysFor(m.width * 8)
}

func (m *Model) clampHour() {
	hours := m.params.Hours()
	m.hour = max(hours[0], min(m.hour, hours[len(hours)-1]))
}

// viewParams returns the projector parameters for the current frame.
func (m Model) viewParams() projector.Params {
	p := m.params
	p.Now = m.eng.Now()
	p.VisibleDays = m.visibleDays()
	p.Trainers = m.roster
	if m.trainer != "" {
		p.Trainers = nil
		for _, t := range m.roster {
			if t.ID == m.trainer {
				p.Trainers = append(p.Trainers, t)
			}
		}
	}
	return p
}

// index returns the loaded sessions, narrowed to the trainer filter.
func (m Model) index() *slotindex.Index {
	if m.trainer == "" {
		return m.eng.Store.Index()
	}
	return slotindex.Build(m.eng.Store.TrainerSessions(m.trainer))
}

// project renders the current view model.
func (m Model) project() (projector.View, error) {
	return projector.RenderView(m.kind, projector.Input{
		Index:  m.index(),
		Date:   m.date,
		Params: m.viewParams(),
	})
}

// trainerName returns the display name of a trainer id.
func (m Model) trainerName(id string) string {
	for _, t := range m.roster {
		if t.ID == id {
			return t.DisplayName()
		}
	}
	return id
}

func (m *Model) setStatus(msg string) tea.Cmd {
	m.statusMsg = msg
	m.statusErr = false
	return clearStatusCmd()
}

func (m *Model) setError(err error) {
	logError("status", err)
	m.statusMsg = err.Error()
	m.statusErr = true
}
