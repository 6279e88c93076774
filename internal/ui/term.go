package ui

import (
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/javiermolinar/coachcal/internal/conflict"
	"github.com/javiermolinar/coachcal/internal/session"
)

// Color definitions for consistent styling across the UI.
var (
	// Booked sessions: bold cyan
	colorBooked = color.New(color.FgCyan, color.Bold)

	// Open slots: green, something to fill
	colorOpen = color.New(color.FgGreen)

	// Blocked time and cancellations: dim
	colorBlocked = color.New(color.FgWhite, color.Faint)

	// Hard conflicts: red
	colorHard = color.New(color.FgRed, color.Bold)

	// Soft conflicts and requests: yellow
	colorSoft = color.New(color.FgYellow)

	// Headers: bold
	colorHeader = color.New(color.Bold)

	// Stats: green for positive metrics
	colorStats = color.New(color.FgGreen)

	// Muted: for secondary information
	colorMuted = color.New(color.FgWhite, color.Faint)
)

// termWidth returns the terminal width, or a default if detection fails.
func termWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// DisableColor disables all color output.
func DisableColor() {
	color.NoColor = true
}

// EnableColor enables color output (if terminal supports it).
func EnableColor() {
	color.NoColor = false
}

// formatStatus colors text by session status.
func formatStatus(st session.Status, s string) string {
	switch st {
	case session.StatusScheduled, session.StatusConfirmed:
		return colorBooked.Sprint(s)
	case session.StatusAvailable:
		return colorOpen.Sprint(s)
	case session.StatusRequested:
		return colorSoft.Sprint(s)
	default:
		return colorBlocked.Sprint(s)
	}
}

// formatConflict colors text by conflict severity.
func formatConflict(sev conflict.Severity, s string) string {
	if sev == conflict.SeverityHard {
		return colorHard.Sprint(s)
	}
	return colorSoft.Sprint(s)
}

// formatHeader formats text as a header.
func formatHeader(s string) string {
	return colorHeader.Sprint(s)
}

// formatStats formats text for statistics.
func formatStats(s string) string {
	return colorStats.Sprint(s)
}

// formatMuted formats text as secondary/muted.
func formatMuted(s string) string {
	return colorMuted.Sprint(s)
}
