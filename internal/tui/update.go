package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/coachcal/internal/dateutil"
	"github.com/javiermolinar/coachcal/internal/projector"
	"github.com/javiermolinar/coachcal/internal/session"
	"github.com/javiermolinar/coachcal/internal/tui/commands"
	"github.com/javiermolinar/coachcal/internal/tui/input"
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.prompt.Width = max(msg.Width-4, 10)
		m.followWeekWindow()
		return m, nil

	case commands.CheckedMsg:
		return m.handleChecked(msg)

	case commands.StatusMsgCmd:
		return m, m.setStatus(msg.Msg)

	case commands.ClearStatusMsg:
		m.statusMsg = ""
		m.statusErr = false
		return m, nil

	case commands.ErrMsg:
		m.setError(msg.Err)
		return m, nil
	}

	return m, nil
}

func clearStatusCmd() tea.Cmd {
	return commands.ClearStatusAfter(statusTTL)
}

// handleKeyMsg handles keyboard input.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	LogKeyPress(msg, m.mode)

	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	switch m.mode {
	case ModePrompt:
		return m.handlePromptKeys(msg)
	case ModeMove:
		return m.handleMoveKeys(msg)
	case ModeConflict:
		return m.handleConflictKeys(msg)
	case ModeDetail:
		return m.handleDetailKeys(msg)
	default:
		return m.handleNormalKeys(msg)
	}
}

// handleNormalKeys handles keys in normal mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	// Navigation
	case key.Matches(msg, m.keys.Left):
		m.moveHorizontal(-1)
	case key.Matches(msg, m.keys.Right):
		m.moveHorizontal(1)
	case key.Matches(msg, m.keys.Up):
		m.moveVertical(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveVertical(1)
	case key.Matches(msg, m.keys.Prev):
		m.shiftPeriod(-1)
	case key.Matches(msg, m.keys.Next):
		m.shiftPeriod(1)
	case key.Matches(msg, m.keys.Today):
		now := m.eng.Now()
		m.setDate(now)
		m.hour = now.Hour()
		m.clampHour()
		m.item = 0

	// Views
	case key.Matches(msg, m.keys.Cycle):
		m.setKind(m.kind.Next())
	case key.Matches(msg, m.keys.Month):
		m.setKind(projector.KindMonth)
	case key.Matches(msg, m.keys.Week):
		m.setKind(projector.KindWeek)
	case key.Matches(msg, m.keys.Day):
		m.setKind(projector.KindDay)
	case key.Matches(msg, m.keys.Stacked):
		m.setKind(projector.KindDayStacked)
	case key.Matches(msg, m.keys.Agenda):
		m.setKind(projector.KindAgenda)

	// Actions
	case key.Matches(msg, m.keys.Select):
		return m.handleSelect()
	case key.Matches(msg, m.keys.Move):
		return m.beginMove(m.selectedSession())
	case key.Matches(msg, m.keys.Copy):
		return m, commands.CopyText(m.dayAgendaText(), "day agenda")
	case key.Matches(msg, m.keys.Expand):
		m.toggleExpanded()
	case key.Matches(msg, m.keys.More):
		m.showMore()
	case key.Matches(msg, m.keys.All):
		m.params.ShowAllTrainers = !m.params.ShowAllTrainers
		m.col = max(0, min(m.col, m.columnCount()-1))
	case key.Matches(msg, m.keys.Prompt):
		return m.openPrompt("/")
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}

	return m, nil
}

// moveHorizontal moves the selection across days or trainer columns.
func (m *Model) moveHorizontal(d int) {
	switch m.kind {
	case projector.KindDay, projector.KindDayStacked:
		m.col = max(0, min(m.col+d, m.columnCount()-1))
	default:
		m.setDate(m.date.AddDate(0, 0, d))
		m.item = 0
	}
	LogCursorMove(*m, "horizontal")
}

// moveVertical moves the selection across hours, weeks or agenda rows.
func (m *Model) moveVertical(d int) {
	switch m.kind {
	case projector.KindMonth:
		m.setDate(m.date.AddDate(0, 0, 7*d))
	case projector.KindAgenda:
		v, err := m.project()
		if err != nil || v.Agenda == nil {
			return
		}
		m.item = max(0, min(m.item+d, v.Agenda.Loaded-1))
		if v.Agenda.HasMore && projector.ShouldLoadMore(m.item, 1, v.Agenda.Loaded, agendaLoadThreshold) {
			m.params = m.params.LoadMore()
		}
	default:
		m.hour += d
		m.clampHour()
	}
	LogCursorMove(*m, "vertical")
}

// shiftPeriod jumps one month, week or day depending on the view.
func (m *Model) shiftPeriod(d int) {
	switch m.kind {
	case projector.KindMonth:
		m.setDate(m.date.AddDate(0, d, 0))
	case projector.KindDay, projector.KindDayStacked:
		m.setDate(m.date.AddDate(0, 0, d))
	default:
		m.setDate(m.date.AddDate(0, 0, 7*d))
	}
	m.item = 0
}

func (m *Model) setKind(k projector.Kind) {
	if k == m.kind {
		return
	}
	m.kind = k
	m.item = 0
	m.params.AgendaPages = 1
	LogCursorMove(*m, "view "+k.String())
}

// toggleExpanded expands or collapses the selected trainer column.
func (m *Model) toggleExpanded() {
	col, ok := m.selectedColumn()
	if !ok {
		return
	}
	expanded := make(map[string]bool, len(m.params.Expanded)+1)
	if m.params.Expanded == nil {
		for _, c := range m.columns() {
			expanded[c.Trainer.ID] = true
		}
	}
	for id, v := range m.params.Expanded {
		expanded[id] = v
	}
	expanded[col.Trainer.ID] = !expanded[col.Trainer.ID]
	m.params.Expanded = expanded
}

// showMore reveals more trainers or agenda rows.
func (m *Model) showMore() {
	switch m.kind {
	case projector.KindDayStacked:
		m.params = m.params.ShowMore()
	case projector.KindAgenda:
		m.params = m.params.LoadMore()
	}
}

// handleSelect opens the selected session, drills into a month day, or
// starts a booking on an open slot.
func (m Model) handleSelect() (tea.Model, tea.Cmd) {
	if m.kind == projector.KindMonth {
		m.setKind(projector.KindDay)
		return m, nil
	}

	var cmd tea.Cmd
	cb := projector.Callbacks{
		OnSelectSession: func(s *session.Session) {
			m.detail = s
			LogModeChange(m.mode, ModeDetail, "select")
			m.mode = ModeDetail
		},
		OnSelectSlot: func(sel projector.SlotSelection) bool {
			line := "/book " + dateutil.At(sel.Date, sel.Hour, 0).Format("15:04") + " "
			if sel.TrainerID != "" && sel.TrainerID != projector.AllTrainersID {
				line += "@" + sel.TrainerID + " "
			}
			var updated tea.Model
			updated, cmd = m.openPrompt(line)
			m = updated.(Model)
			return true
		},
	}

	if s := m.selectedSession(); s != nil {
		cb.SelectSession(s)
		return m, nil
	}

	slot, sel, ok := m.selectedSlot()
	if !ok {
		return m, nil
	}
	if !cb.SelectSlot(slot, sel) {
		return m, m.setStatus("Past slots cannot be booked")
	}
	return m, cmd
}

// handleDetailKeys handles keys while the session detail is open.
func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel), key.Matches(msg, m.keys.Select), key.Matches(msg, m.keys.Quit):
		LogModeChange(m.mode, ModeNormal, "detail closed")
		m.mode = ModeNormal
		m.detail = nil
	case key.Matches(msg, m.keys.Move):
		s := m.detail
		m.mode = ModeNormal
		m.detail = nil
		return m.beginMove(s)
	case key.Matches(msg, m.keys.Copy):
		return m, commands.CopyText(sessionSummary(m.detail), "session")
	}
	return m, nil
}

// openPrompt focuses the command prompt with an initial value.
func (m Model) openPrompt(value string) (tea.Model, tea.Cmd) {
	LogModeChange(m.mode, ModePrompt, "prompt")
	m.mode = ModePrompt
	m.prompt.SetValue(value)
	m.prompt.CursorEnd()
	m.prompt.Focus()
	return m, textinput.Blink
}

// handlePromptKeys handles keys in prompt mode.
func (m Model) handlePromptKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closePrompt()
		return m, nil

	case "enter":
		value := m.prompt.Value()
		m.closePrompt()
		return m.handlePromptSubmit(value)

	case "tab":
		if completion, ok := input.PromptAutocomplete(m.prompt.Value(), promptCommands); ok {
			m.prompt.SetValue(completion)
			m.prompt.CursorEnd()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func (m *Model) closePrompt() {
	LogModeChange(m.mode, ModeNormal, "prompt closed")
	m.mode = ModeNormal
	m.prompt.Blur()
	m.prompt.SetValue("")
}
