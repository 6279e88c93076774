package tui

import (
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/javiermolinar/coachcal/internal/session"
	"github.com/javiermolinar/coachcal/internal/tui/theme"
	"github.com/javiermolinar/coachcal/internal/tui/view"
)

// Styles holds all lipgloss styles for the TUI, derived from a theme.
type Styles struct {
	palette *theme.Palette

	// Title and headers
	TitleStyle          lipgloss.Style
	HeaderStyle         lipgloss.Style
	DayHeaderStyle      lipgloss.Style
	DayHeaderTodayStyle lipgloss.Style
	TimeColumnStyle     lipgloss.Style
	NowTimeStyle        lipgloss.Style
	MutedStyle          lipgloss.Style

	// Session blocks
	BookedStyle     lipgloss.Style
	BookedAltStyle  lipgloss.Style // adjacent sessions in one column
	BookedPastStyle lipgloss.Style
	RequestedStyle  lipgloss.Style
	OpenStyle       lipgloss.Style
	BlockedStyle    lipgloss.Style
	OpenLabelStyle  lipgloss.Style
	EmptyCellStyle  lipgloss.Style

	// Cursor and drag
	CursorStyle     lipgloss.Style
	MoveSourceStyle lipgloss.Style
	MoveTargetStyle lipgloss.Style

	// Conflicts
	HardConflictStyle lipgloss.Style
	SoftConflictStyle lipgloss.Style

	// Footer
	StatusStyle      lipgloss.Style
	StatusErrorStyle lipgloss.Style
	PromptStyle      lipgloss.Style

	// Modals
	Modal            view.ModalStyles
	ModalBodyStyle   lipgloss.Style
	ModalLabelStyle  lipgloss.Style
	ModalSelectStyle lipgloss.Style
}

// NewStyles creates a Styles instance from a theme.
func NewStyles(t *theme.Theme) *Styles {
	p := theme.NewPalette(t)
	s := &Styles{palette: p}

	s.TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(p.TextOnAccent).Background(p.Accent).Padding(0, 1)
	s.HeaderStyle = lipgloss.NewStyle().Foreground(p.Fg).Bold(true)
	s.DayHeaderStyle = lipgloss.NewStyle().Foreground(p.FgMuted).Bold(true)
	s.DayHeaderTodayStyle = lipgloss.NewStyle().Foreground(p.Current).Bold(true)
	s.TimeColumnStyle = lipgloss.NewStyle().Foreground(p.FgMuted)
	s.NowTimeStyle = lipgloss.NewStyle().Foreground(p.Current).Bold(true)
	s.MutedStyle = lipgloss.NewStyle().Foreground(p.FgMuted)

	s.BookedStyle = lipgloss.NewStyle().Foreground(p.TextOnBooked).Background(p.BookedBg)
	s.BookedAltStyle = lipgloss.NewStyle().Foreground(p.TextOnBooked).Background(p.BookedBgAlt)
	s.BookedPastStyle = lipgloss.NewStyle().Foreground(p.FgMuted).Background(p.BookedPastBg)
	s.RequestedStyle = lipgloss.NewStyle().Foreground(p.Warning).Background(p.BookedPastBg)
	s.OpenStyle = lipgloss.NewStyle().Foreground(p.Open).Background(p.OpenBg)
	s.BlockedStyle = lipgloss.NewStyle().Foreground(p.FgMuted).Background(p.BlockedBg)
	s.OpenLabelStyle = lipgloss.NewStyle().Foreground(p.Open).Faint(true)
	s.EmptyCellStyle = lipgloss.NewStyle().Foreground(p.FgMuted)

	s.CursorStyle = lipgloss.NewStyle().Foreground(p.Fg).Background(p.BgSelection).Bold(true)
	s.MoveSourceStyle = lipgloss.NewStyle().Foreground(p.FgMuted).Background(p.BgHighlight).Strikethrough(true)
	s.MoveTargetStyle = lipgloss.NewStyle().Foreground(p.TextOnWarning).Background(p.Warning).Bold(true)

	s.HardConflictStyle = lipgloss.NewStyle().Foreground(p.Conflict).Bold(true)
	s.SoftConflictStyle = lipgloss.NewStyle().Foreground(p.Warning)

	s.StatusStyle = lipgloss.NewStyle().Foreground(p.Accent)
	s.StatusErrorStyle = lipgloss.NewStyle().Foreground(p.Conflict).Bold(true)
	s.PromptStyle = lipgloss.NewStyle().Foreground(p.Fg)

	m := p.Modal
	s.ModalBodyStyle = lipgloss.NewStyle().Foreground(m.Text).Background(m.Bg)
	s.ModalLabelStyle = lipgloss.NewStyle().Foreground(m.Muted).Background(m.Bg)
	s.ModalSelectStyle = lipgloss.NewStyle().Foreground(m.ReverseText).Background(m.Highlight).Bold(true)
	s.Modal = view.ModalStyles{
		ModalHeaderStyle: lipgloss.NewStyle().Background(m.Bg),
		ModalTitleStyle:  lipgloss.NewStyle().Foreground(p.Accent).Background(m.Bg).Bold(true),
		ModalFooterStyle: lipgloss.NewStyle().Foreground(m.Muted).Background(m.Bg),
		ModalBodyStyle:   s.ModalBodyStyle,
		ModalStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(m.Border).
			BorderBackground(m.Bg).
			Background(m.Bg).
			Padding(1, 2),
	}

	return s
}

// Background returns the modal background color.
func (s *Styles) Background() lipgloss.Color {
	return s.palette.Modal.Bg
}

// SessionStyle returns the block style of a session. alt selects the
// alternate shade used to separate adjacent sessions.
func (s *Styles) SessionStyle(ss *session.Session, now time.Time, alt bool) lipgloss.Style {
	switch {
	case ss.IsUnavailableBlock():
		return s.BlockedStyle
	case ss.Status == session.StatusAvailable:
		return s.OpenStyle
	case ss.Status == session.StatusRequested:
		return s.RequestedStyle
	case ss.IsCompleted() || ss.IsPast(now):
		return s.BookedPastStyle
	case alt:
		return s.BookedAltStyle
	default:
		return s.BookedStyle
	}
}

// StatusOrb returns the colored status marker of a session.
func (s *Styles) StatusOrb(st session.Status) string {
	switch st {
	case session.StatusScheduled, session.StatusConfirmed:
		return lipgloss.NewStyle().Foreground(s.palette.Booked).Render("●")
	case session.StatusCompleted:
		return s.MutedStyle.Render("✓")
	case session.StatusRequested:
		return lipgloss.NewStyle().Foreground(s.palette.Warning).Render("?")
	case session.StatusBlocked:
		return s.MutedStyle.Render("■")
	default:
		return lipgloss.NewStyle().Foreground(s.palette.Open).Render("○")
	}
}
