// Package tui provides the terminal calendar for coachcal.
package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/javiermolinar/coachcal/internal/engine"
)

// Options configures the terminal calendar.
type Options struct {
	Debug   bool
	NoColor bool
}

// Run starts the calendar on eng and blocks until the user quits.
func Run(eng *engine.Engine, opts Options) error {
	if opts.NoColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	m, err := New(eng, opts)
	if err != nil {
		return err
	}
	defer m.drags.CancelAll()

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running calendar: %w", err)
	}
	return nil
}
