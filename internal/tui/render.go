package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/javiermolinar/coachcal/internal/dateutil"
	"github.com/javiermolinar/coachcal/internal/projector"
	"github.com/javiermolinar/coachcal/internal/session"
)

// Grid layout.
const (
	timeColWidth  = 6
	minDayWidth   = 8
	minColWidth   = 12
	monthRowLines = 3
)

// grid is a rendered view body: fixed header lines, scrollable rows and the
// row the cursor is on.
type grid struct {
	header []string
	rows   []string
	cursor int
}

// fit cuts or pads s to exactly width columns.
func fit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if w := lipgloss.Width(s); w > width {
		return ansi.Truncate(s, width, "…")
	} else if w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

func cell(s string, width int, style lipgloss.Style) string {
	return style.Render(fit(s, width))
}

// sessionLabel names a session in a grid cell.
func sessionLabel(s *session.Session) string {
	switch {
	case s.IsUnavailableBlock():
		return "Blocked"
	case s.ClientName != "":
		return s.ClientName
	case s.ClientID != "":
		return s.ClientID
	case s.Status == session.StatusAvailable:
		return "Open"
	default:
		return string(s.Status)
	}
}

func timeRange(s *session.Session) string {
	return s.SessionDate.Format("15:04") + "–" + s.End().Format("15:04")
}

func hourLabel(h int) string {
	return fmt.Sprintf("%02d:00", h)
}

// renderGrid renders the body of the projected view.
func (m Model) renderGrid(v projector.View, width int) grid {
	switch {
	case v.Month != nil:
		return m.renderMonth(*v.Month, width)
	case v.Week != nil:
		return m.renderWeek(*v.Week, width)
	case v.Day != nil && v.Day.Stacked:
		return m.renderStacked(*v.Day, width)
	case v.Day != nil:
		return m.renderDay(*v.Day, width)
	case v.Agenda != nil:
		return m.renderAgenda(*v.Agenda, width)
	}
	return grid{}
}

func (m Model) renderMonth(mm projector.MonthModel, width int) grid {
	cw := max((width-6)/7, 6)
	var g grid

	var names []string
	for i := 0; i < 7; i++ {
		wd := time.Weekday((int(m.params.WeekStart) + i) % 7)
		names = append(names, cell(wd.String()[:3], cw, m.styles.DayHeaderStyle))
	}
	g.header = append(g.header, strings.Join(names, " "))

	selected := dateutil.DayKey(m.date)
	for wi, week := range mm.Weeks() {
		var days, orbs, counts []string
		for _, c := range week {
			numStyle := m.styles.HeaderStyle
			switch {
			case c.Key == selected:
				numStyle = m.styles.CursorStyle
				g.cursor = wi * monthRowLines
			case c.IsToday:
				numStyle = m.styles.DayHeaderTodayStyle
			case !c.InMonth:
				numStyle = m.styles.MutedStyle
			}
			days = append(days, cell(strconv.Itoa(c.Date.Day()), cw, numStyle))

			var o strings.Builder
			for _, orb := range c.Orbs {
				o.WriteString(m.styles.StatusOrb(orb.Status))
			}
			if c.Overflow > 0 {
				o.WriteString(m.styles.MutedStyle.Render(" +" + strconv.Itoa(c.Overflow)))
			}
			orbs = append(orbs, fit(o.String(), cw))

			count := ""
			if c.Count > 0 {
				count = strconv.Itoa(c.Count) + " sess"
			}
			counts = append(counts, cell(count, cw, m.styles.MutedStyle))
		}
		g.rows = append(g.rows, strings.Join(days, " "), strings.Join(orbs, " "), strings.Join(counts, " "))
	}
	return g
}

func (m Model) renderWeek(w projector.WeekModel, width int) grid {
	days := w.Visible()
	if len(days) == 0 {
		return grid{}
	}
	dw := max((width-timeColWidth)/len(days)-1, minDayWidth)
	now := m.eng.Now()
	selected := dateutil.DayKey(m.date)
	var g grid

	back, fwd := " ", " "
	if w.CanGoBack {
		back = "‹"
	}
	if w.CanGoForward {
		fwd = "›"
	}
	header := []string{fit(back, timeColWidth-1) + fwd}
	hidden := 0
	for _, d := range days {
		style := m.styles.DayHeaderStyle
		if d.IsToday {
			style = m.styles.DayHeaderTodayStyle
		}
		label := d.Label
		if d.Key == selected {
			label = "▸" + label
		}
		header = append(header, cell(label, dw, style))
		hidden += d.Hidden
	}
	g.header = append(g.header, strings.Join(header, " "))

	for ri, h := range w.Hours {
		tstyle := m.styles.TimeColumnStyle
		if w.ShowNow && now.Hour() == h {
			tstyle = m.styles.NowTimeStyle
		}
		row := []string{cell(hourLabel(h), timeColWidth-1, tstyle)}
		for _, d := range days {
			var blocks []*session.Session
			for _, b := range d.Blocks {
				if b.Session.Hour() == h {
					blocks = append(blocks, b.Session)
				}
			}
			isCursor := d.Key == selected && h == m.hour
			if isCursor {
				g.cursor = ri
			}
			row = append(row, m.renderSlotCell(d.Date, h, "", blocks, dw, isCursor, ri%2 == 1))
		}
		g.rows = append(g.rows, strings.Join(row, " "))
	}
	if hidden > 0 {
		g.rows = append(g.rows, m.styles.MutedStyle.Render(
			fmt.Sprintf("%d session(s) outside %s–%s", hidden, hourLabel(w.Hours[0]), hourLabel(w.Hours[len(w.Hours)-1]+1))))
	}
	return g
}

// renderSlotCell draws one hour cell. trainerID narrows the move target match
// to a column in the day views.
func (m Model) renderSlotCell(day time.Time, hour int, trainerID string, blocks []*session.Session, width int, isCursor, alt bool) string {
	now := m.eng.Now()

	if m.mode == ModeMove && dateutil.SameDay(day, m.move.date) && hour == m.move.hour &&
		(trainerID == "" || trainerID == m.move.trainerID) {
		label := fmt.Sprintf("%02d:%02d %s", m.move.hour, m.move.minute, m.move.label)
		return cell(label, width, m.styles.MoveTargetStyle)
	}

	if len(blocks) == 0 {
		style := m.styles.EmptyCellStyle
		if isCursor {
			style = m.styles.CursorStyle
		}
		return cell("·", width, style)
	}

	s := blocks[0]
	label := s.SessionDate.Format("15:04") + " " + sessionLabel(s)
	if s.BufferBefore > 0 || s.BufferAfter > 0 {
		label += " ⋯"
	}
	if len(blocks) > 1 {
		label += " +" + strconv.Itoa(len(blocks)-1)
	}

	style := m.styles.SessionStyle(s, now, alt)
	switch {
	case m.mode != ModeNormal && s.ID == m.move.sessionID:
		style = m.styles.MoveSourceStyle
	case isCursor:
		style = m.styles.CursorStyle
	}
	return cell(label, width, style)
}

func (m Model) renderDay(d projector.DayModel, width int) grid {
	cols := dayColumns(&d)
	if len(cols) == 0 {
		return grid{rows: []string{m.styles.MutedStyle.Render("No trainers on this day.")}}
	}
	cw := max((width-timeColWidth)/len(cols)-1, minColWidth)
	sel := max(0, min(m.col, len(cols)-1))
	var g grid

	names := []string{strings.Repeat(" ", timeColWidth-1)}
	summaries := []string{strings.Repeat(" ", timeColWidth-1)}
	for i, c := range cols {
		style := m.styles.DayHeaderStyle
		if i == sel {
			style = m.styles.DayHeaderTodayStyle
		}
		names = append(names, cell(c.Trainer.DisplayName(), cw, style))
		summaries = append(summaries, cell(c.Summary(), cw, m.styles.MutedStyle))
	}
	g.header = []string{strings.Join(names, " "), strings.Join(summaries, " ")}

	for ri, h := range d.Hours {
		label := ""
		if d.Labeled[h] {
			label = hourLabel(h)
		}
		row := []string{cell(label, timeColWidth-1, m.styles.TimeColumnStyle)}
		for i, c := range cols {
			slot := c.Slots[ri]
			isCursor := i == sel && h == m.hour
			if isCursor {
				g.cursor = ri
			}
			row = append(row, m.renderDaySlot(d.Date, c, slot, cw, isCursor))
		}
		g.rows = append(g.rows, strings.Join(row, " "))
	}
	return g
}

func (m Model) renderDaySlot(day time.Time, c projector.Column, slot projector.Slot, width int, isCursor bool) string {
	if len(slot.Sessions) == 0 {
		if m.mode == ModeMove && dateutil.SameDay(day, m.move.date) && slot.Hour == m.move.hour && c.Trainer.ID == m.move.trainerID {
			return m.renderSlotCell(day, slot.Hour, c.Trainer.ID, nil, width, isCursor, false)
		}
		style := m.styles.OpenLabelStyle
		if slot.State == projector.SlotPast {
			style = m.styles.MutedStyle
		}
		if isCursor {
			style = m.styles.CursorStyle
		}
		return cell(slot.Label, width, style)
	}

	blocks := make([]*session.Session, 0, len(slot.Sessions))
	for _, b := range slot.Sessions {
		blocks = append(blocks, b.Session)
	}
	return m.renderSlotCell(day, slot.Hour, c.Trainer.ID, blocks, width, isCursor, slot.Hour%2 == 1)
}

func (m Model) renderStacked(d projector.DayModel, width int) grid {
	cols := dayColumns(&d)
	if len(cols) == 0 {
		return grid{rows: []string{m.styles.MutedStyle.Render("No trainers on this day.")}}
	}
	sel := max(0, min(m.col, len(cols)-1))
	var g grid

	for i, c := range cols {
		marker := "▸ "
		if c.Expanded {
			marker = "▾ "
		}
		style := m.styles.HeaderStyle
		if i == sel {
			style = m.styles.DayHeaderTodayStyle
		}
		g.rows = append(g.rows, fit(style.Render(marker+c.Trainer.DisplayName())+m.styles.MutedStyle.Render("  "+c.Summary()), width))
		if !c.Expanded {
			if i == sel {
				g.cursor = len(g.rows) - 1
			}
			continue
		}
		for _, slot := range c.Slots {
			isCursor := i == sel && slot.Hour == m.hour
			if isCursor {
				g.cursor = len(g.rows)
			}
			if len(slot.Sessions) == 0 && !isCursor && !d.Labeled[slot.Hour] {
				continue
			}
			row := "  " + cell(hourLabel(slot.Hour), timeColWidth-1, m.styles.TimeColumnStyle) + " " +
				m.renderDaySlot(d.Date, c, slot, width-timeColWidth-3, isCursor)
			g.rows = append(g.rows, row)
		}
	}
	if d.HasMore {
		g.rows = append(g.rows, m.styles.MutedStyle.Render(
			fmt.Sprintf("%d more trainer(s), press M to show", d.HiddenTrainers)))
	}
	return g
}

func (m Model) renderAgenda(a projector.AgendaModel, width int) grid {
	var g grid
	if a.Total == 0 {
		g.rows = append(g.rows, m.styles.MutedStyle.Render("No upcoming sessions."))
		return g
	}

	i := 0
	for _, group := range a.Groups {
		style := m.styles.DayHeaderStyle
		if group.Label == "Today" {
			style = m.styles.DayHeaderTodayStyle
		}
		g.rows = append(g.rows, style.Render(group.Label))
		for _, s := range group.Sessions {
			line := "  " + timeRange(s) + "  " + m.styles.StatusOrb(s.Status) + " " + sessionLabel(s)
			if s.TrainerID != "" {
				line += m.styles.MutedStyle.Render(" · " + trainerDisplay(s))
			}
			if s.Location != "" {
				line += m.styles.MutedStyle.Render(" · " + s.Location)
			}
			if i == m.item {
				g.cursor = len(g.rows)
				line = m.styles.CursorStyle.Render(fit(ansi.Strip(line), width))
			}
			g.rows = append(g.rows, fit(line, width))
			i++
		}
	}
	if a.HasMore {
		g.rows = append(g.rows, m.styles.MutedStyle.Render(
			fmt.Sprintf("Showing %d of %d, press M for more", a.Loaded, a.Total)))
	}
	return g
}

func trainerDisplay(s *session.Session) string {
	return session.Trainer{ID: s.TrainerID, Name: s.TrainerName}.DisplayName()
}

// window returns the rows that fit in height, keeping the cursor row in view.
func (g grid) window(height int) []string {
	lines := append([]string{}, g.header...)
	avail := height - len(g.header)
	if avail <= 0 {
		return lines[:max(0, min(len(lines), height))]
	}
	if len(g.rows) <= avail {
		return append(lines, g.rows...)
	}
	offset := max(0, min(g.cursor-avail/2, len(g.rows)-avail))
	return append(lines, g.rows[offset:offset+avail]...)
}
