package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/javiermolinar/coachcal/internal/conflict"
	"github.com/javiermolinar/coachcal/internal/dateutil"
	"github.com/javiermolinar/coachcal/internal/projector"
	"github.com/javiermolinar/coachcal/internal/session"
	"github.com/javiermolinar/coachcal/internal/tui/input"
	"github.com/javiermolinar/coachcal/internal/tui/view"
)

// View renders the model.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return view.Render(view.ViewState{})
	}

	header := m.renderHeader()
	footerState := m.footerState()
	bodyHeight := max(m.height-len(header)-view.FooterHeight(footerState), 1)

	var body []string
	v, err := m.project()
	if err != nil {
		body = []string{m.styles.StatusErrorStyle.Render(err.Error())}
	} else {
		body = m.renderGrid(v, m.width).window(bodyHeight)
	}

	lines := append(header, view.FitLines(strings.Join(body, "\n"), m.width, bodyHeight)...)
	lines = append(lines, view.RenderFooter(footerState))

	return view.Render(view.ViewState{
		Width:        m.width,
		Height:       m.height,
		BaseContent:  strings.Join(lines, "\n"),
		ModalContent: m.renderModal(),
		ModalBg:      m.styles.Background(),
	})
}

// renderHeader renders the title bar and the view tabs.
func (m Model) renderHeader() []string {
	title := m.styles.TitleStyle.Render("coachcal") + " " + m.styles.HeaderStyle.Render(m.periodLabel())
	if m.trainer != "" {
		title += m.styles.MutedStyle.Render("  trainer: " + m.trainerName(m.trainer))
	}
	if m.eng.Admin() {
		title += "  " + m.styles.SoftConflictStyle.Render("admin")
	}

	tabs := make([]string, 0, len(projector.Kinds))
	for i, k := range projector.Kinds {
		label := strconv.Itoa(i+1) + " " + k.String()
		if k == m.kind {
			tabs = append(tabs, m.styles.CursorStyle.Render(" "+label+" "))
			continue
		}
		tabs = append(tabs, m.styles.MutedStyle.Render(" "+label+" "))
	}
	return []string{fit(title, m.width), fit(strings.Join(tabs, ""), m.width)}
}

// periodLabel describes the range the current view shows.
func (m Model) periodLabel() string {
	switch m.kind {
	case projector.KindMonth:
		return m.date.Format("January 2006")
	case projector.KindWeek:
		start := dateutil.StartOfWeek(m.date, m.params.WeekStart)
		end := start.AddDate(0, 0, 6)
		return start.Format("Jan 2") + " – " + end.Format("Jan 2, 2006")
	case projector.KindAgenda:
		return "From " + dateutil.DayLabel(m.date, m.eng.Now())
	default:
		return dateutil.DayLabel(m.date, m.eng.Now()) + " " + m.date.Format("2006-01-02")
	}
}

func (m Model) footerState() view.FooterViewState {
	state := view.FooterViewState{
		Width:     m.width,
		StatsLine: m.statsLine(),
	}

	if m.mode == ModePrompt {
		state.PromptLine = m.styles.PromptStyle.Render(m.prompt.View())
		if matches := input.PromptMatchingCommands(m.prompt.Value(), promptCommands); len(matches) > 0 {
			hints := make([]string, 0, len(matches))
			for _, c := range matches {
				hints = append(hints, c.Name+" "+c.Args)
			}
			state.PromptLine += m.styles.MutedStyle.Render("  " + strings.Join(hints, "  "))
		}
	}

	status := m.statusMsg
	if status == "" {
		status = " "
	}
	if m.statusErr {
		state.StatusLine = m.styles.StatusErrorStyle.Render(status)
	} else {
		state.StatusLine = m.styles.StatusStyle.Render(status)
	}

	if m.help.ShowAll && m.mode == ModeNormal {
		state.HelpLine = m.help.FullHelpView(m.keys.FullHelp())
	} else {
		state.HelpLine = m.help.ShortHelpView(m.keys.modeHelp(m.mode, m.conflict.failed))
	}
	return state
}

// statsLine summarizes the selected day.
func (m Model) statsLine() string {
	var booked, open, blocked int
	for _, s := range m.index().ByDay(dateutil.DayKey(m.date)) {
		switch {
		case s.IsUnavailableBlock():
			blocked++
		case s.IsScheduled():
			booked++
		case s.Status == session.StatusAvailable:
			open++
		}
	}
	line := fmt.Sprintf("%s · %d booked · %d open · %d blocked",
		m.date.Format("Mon, Jan 2"), booked, open, blocked)
	if m.mode == ModeMove {
		line += " · moving " + m.move.label
	}
	return m.styles.MutedStyle.Render(line)
}

// renderModal renders the open modal, empty when none is open.
func (m Model) renderModal() string {
	switch m.mode {
	case ModeDetail:
		if m.detail == nil {
			return ""
		}
		footer := view.RenderKeyHints(m.styles.Modal,
			view.KeyHint{Key: "m", Action: "move"},
			view.KeyHint{Key: "y", Action: "copy"},
			view.KeyHint{Key: "esc", Action: "close"})
		return view.RenderModalFrame("Session", view.RenderDetailBody(detailFields(m.detail), m.panelStyles()), footer, m.styles.Modal)

	case ModeConflict:
		return m.renderConflictModal()
	}
	return ""
}

func (m Model) renderConflictModal() string {
	placement := m.conflict.placement.Format("Mon Jan 2 15:04")
	if m.conflict.failed {
		body := m.styles.ModalBodyStyle.Render("Could not verify the schedule for " + placement + ".")
		if m.conflict.checking {
			body += "\n\n" + m.styles.ModalLabelStyle.Render("Checking…")
		}
		footer := view.RenderKeyHints(m.styles.Modal,
			view.KeyHint{Key: "r", Action: "retry"},
			view.KeyHint{Key: "esc", Action: "cancel"})
		return view.RenderModalFrame("Check failed", body, footer, m.styles.Modal)
	}

	panel := view.ConflictPanelModel{
		Placement: placement,
		Selected:  m.conflict.selected,
		Checking:  m.conflict.checking,
	}
	if res := m.conflict.result; res != nil {
		for _, c := range res.Conflicts {
			panel.Conflicts = append(panel.Conflicts, view.ConflictLine{
				Kind:    string(c.Kind),
				Message: c.Message,
				Hard:    c.Severity == conflict.SeverityHard,
			})
		}
		for _, alt := range res.Alternatives {
			label := alt.Start.Format("Mon Jan 2 15:04")
			if alt.TrainerID != "" {
				label += " · " + m.trainerName(alt.TrainerID)
			}
			panel.Alternatives = append(panel.Alternatives, label)
		}
	}

	override := "override"
	if !m.eng.Admin() {
		override = "override (admin)"
	}
	footer := view.RenderKeyHints(m.styles.Modal,
		view.KeyHint{Key: "enter", Action: "take slot"},
		view.KeyHint{Key: "o", Action: override},
		view.KeyHint{Key: "esc", Action: "cancel"})
	return view.RenderModalFrame("Conflict", view.RenderConflictBody(panel, m.panelStyles()), footer, m.styles.Modal)
}

func (m Model) panelStyles() view.PanelStyles {
	return view.PanelStyles{
		BodyStyle:   m.styles.ModalBodyStyle,
		LabelStyle:  m.styles.ModalLabelStyle,
		SelectStyle: m.styles.ModalSelectStyle,
		HardStyle:   m.styles.HardConflictStyle,
		SoftStyle:   m.styles.SoftConflictStyle,
	}
}

func detailFields(s *session.Session) []view.DetailField {
	buffers := ""
	if s.BufferBefore > 0 || s.BufferAfter > 0 {
		buffers = fmt.Sprintf("%dm before · %dm after", s.BufferBefore, s.BufferAfter)
	}
	trainer := ""
	if s.TrainerID != "" {
		trainer = trainerDisplay(s)
	}
	series := ""
	if s.RecurringGroupID != "" {
		series = shortID(s.RecurringGroupID)
	}
	return []view.DetailField{
		{Label: "Client", Value: sessionLabel(s)},
		{Label: "Trainer", Value: trainer},
		{Label: "When", Value: s.SessionDate.Format("Mon Jan 2 2006") + " " + timeRange(s)},
		{Label: "Buffers", Value: buffers},
		{Label: "Location", Value: s.Location},
		{Label: "Status", Value: string(s.Status)},
		{Label: "Series", Value: series},
		{Label: "ID", Value: shortID(s.ID)},
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// sessionSummary is the one-line clipboard form of a session.
func sessionSummary(s *session.Session) string {
	if s == nil {
		return ""
	}
	line := s.SessionDate.Format("Mon Jan 2") + " " + timeRange(s) + " " + sessionLabel(s)
	if s.TrainerID != "" {
		line += " with " + trainerDisplay(s)
	}
	if s.Location != "" {
		line += " @ " + s.Location
	}
	return line
}

// dayAgendaText is the plain-text agenda of the selected day.
func (m Model) dayAgendaText() string {
	sessions := m.index().ByDay(dateutil.DayKey(m.date))
	if len(sessions) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.date.Format("Monday, January 2") + "\n")
	for _, s := range sessions {
		line := timeRange(s) + " " + sessionLabel(s)
		if s.TrainerID != "" {
			line += " (" + trainerDisplay(s) + ")"
		}
		if s.Location != "" {
			line += " " + s.Location
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}
