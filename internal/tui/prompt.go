package tui

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/coachcal/internal/dateutil"
	"github.com/javiermolinar/coachcal/internal/projector"
	"github.com/javiermolinar/coachcal/internal/session"
	"github.com/javiermolinar/coachcal/internal/tui/input"
)

var promptCommands = []input.PromptCommand{
	{Name: "/goto", Args: "<date>", Description: "Jump to a date (today, friday, 2025-01-15)"},
	{Name: "/view", Args: "<month|week|day|stacked|agenda>", Description: "Switch view"},
	{Name: "/trainer", Args: "<id|all>", Description: "Show one trainer's sessions"},
	{Name: "/book", Args: "<HH:MM> [@trainer] [client]", Description: "Book a session on the selected day"},
	{Name: "/cancel", Args: "[reason]", Description: "Cancel the selected session"},
	{Name: "/density", Args: "<comfortable|compact>", Description: "Hour label density"},
	{Name: "/help", Description: "Toggle full help"},
}

// errNoSelection is returned by commands that act on the selected session.
var errNoSelection = errors.New("no session selected")

// handlePromptSubmit runs a prompt command.
func (m Model) handlePromptSubmit(line string) (tea.Model, tea.Cmd) {
	if strings.TrimSpace(line) == "" {
		return m, nil
	}
	cmd, err := input.Parse(line)
	if err != nil {
		m.setError(err)
		return m, nil
	}

	switch cmd.Name {
	case "/goto":
		day, err := dateutil.ParseRelativeDate(cmd.Arg(), m.eng.Now())
		if err != nil {
			m.setError(err)
			return m, nil
		}
		m.setDate(day)
		return m, m.setStatus("Showing " + dateutil.DayLabel(day, m.eng.Now()))

	case "/view":
		k, err := projector.ParseKind(cmd.Arg())
		if err != nil {
			m.setError(err)
			return m, nil
		}
		m.setKind(k)
		return m, nil

	case "/trainer":
		return m.filterTrainer(cmd.Arg())

	case "/book":
		return m.book(cmd.Args)

	case "/cancel":
		return m.cancelSelected(cmd.Arg())

	case "/density":
		switch strings.ToLower(cmd.Arg()) {
		case "compact":
			m.params.Density = projector.DensityCompact
		case "comfortable", "":
			m.params.Density = projector.DensityComfortable
		default:
			m.setError(fmt.Errorf("unknown density %q", cmd.Arg()))
		}
		return m, nil

	case "/help":
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	m.setError(fmt.Errorf("unknown command %s", cmd.Name))
	return m, nil
}

// filterTrainer narrows every view to one trainer, or clears the filter.
func (m Model) filterTrainer(arg string) (tea.Model, tea.Cmd) {
	arg = strings.TrimSpace(arg)
	if arg == "" || strings.EqualFold(arg, "all") {
		m.trainer = ""
		m.col = 0
		return m, m.setStatus("Showing all trainers")
	}
	for _, t := range m.roster {
		if t.ID == arg || strings.EqualFold(t.Name, arg) {
			m.trainer = t.ID
			m.col = 0
			return m, m.setStatus("Showing " + t.DisplayName())
		}
	}
	m.setError(fmt.Errorf("unknown trainer %q", arg))
	return m, nil
}

// book creates a session on the selected day. Without a client the session
// is an open slot.
func (m Model) book(args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		m.setError(errors.New("usage: /book <HH:MM> [@trainer] [client]"))
		return m, nil
	}
	hour, minute, err := dateutil.ParseClock(args[0])
	if err != nil {
		m.setError(err)
		return m, nil
	}

	opts := session.NewOptions{TrainerID: m.trainer}
	var client []string
	for _, a := range args[1:] {
		if strings.HasPrefix(a, "@") {
			opts.TrainerID = strings.TrimPrefix(a, "@")
			continue
		}
		client = append(client, a)
	}
	if opts.TrainerID != "" {
		opts.TrainerName = m.trainerName(opts.TrainerID)
	}
	if len(client) > 0 {
		opts.ClientName = strings.Join(client, " ")
		opts.ClientID = strings.ToLower(strings.Join(client, "-"))
	}

	s, err := m.eng.NewSession(dateutil.At(m.date, hour, minute), 0, opts)
	if err != nil {
		m.setError(err)
		return m, nil
	}
	res, err := m.eng.Book(m.ctx, s, false)
	if err != nil {
		m.setError(err)
		return m, nil
	}
	if res.HasConflicts {
		var kinds []string
		for _, k := range res.Kinds() {
			kinds = append(kinds, string(k))
		}
		m.setError(fmt.Errorf("not booked: %s", strings.Join(kinds, ", ")))
		return m, nil
	}

	m.hour = hour
	m.clampHour()
	if err := m.refreshRoster(); err != nil {
		m.setError(err)
		return m, nil
	}
	return m, m.setStatus("Booked " + sessionLabel(s) + " at " + s.SessionDate.Format("15:04"))
}

// cancelSelected cancels the session under the cursor.
func (m Model) cancelSelected(reason string) (tea.Model, tea.Cmd) {
	s := m.selectedSession()
	if s == nil {
		m.setError(errNoSelection)
		return m, nil
	}
	if s.IsCompleted() {
		m.setError(fmt.Errorf("session %s is completed", shortID(s.ID)))
		return m, nil
	}

	ids := []string{s.ID}
	by := "trainer"
	if m.eng.Admin() {
		by = "admin"
	}
	if err := m.eng.Repo().CancelSessions(m.ctx, ids, by, reason); err != nil {
		m.setError(fmt.Errorf("cancelling session: %w", err))
		return m, nil
	}
	if _, err := m.eng.Store.Cancel(ids, by, reason); err != nil {
		m.setError(err)
		return m, nil
	}
	m.drags.Cancel(s.ID)
	return m, m.setStatus("Cancelled " + sessionLabel(s))
}
