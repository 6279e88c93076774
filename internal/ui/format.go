package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/javiermolinar/coachcal/internal/conflict"
	"github.com/javiermolinar/coachcal/internal/session"
)

// shortIDLen is how much of a session ID listings show.
const shortIDLen = 8

// Stats holds aggregated statistics for a set of sessions.
type Stats struct {
	BookedMinutes int
	Booked        int
	Open          int
	Blocked       int
	Cancelled     int
	Completed     int
}

// Total returns the number of sessions counted.
func (s Stats) Total() int {
	return s.Booked + s.Open + s.Blocked + s.Cancelled + s.Completed
}

// Utilization returns the share of bookable sessions that are booked.
func (s Stats) Utilization() int {
	bookable := s.Booked + s.Open
	if bookable == 0 {
		return 0
	}
	return (s.Booked * 100) / bookable
}

// Accumulate updates stats with one session.
func (s *Stats) Accumulate(ss *session.Session) {
	switch {
	case ss.IsCancelled():
		s.Cancelled++
	case ss.IsCompleted():
		s.Completed++
		s.BookedMinutes += ss.Duration
	case ss.IsUnavailableBlock():
		s.Blocked++
	case ss.IsScheduled():
		s.Booked++
		s.BookedMinutes += ss.Duration
	default:
		s.Open++
	}
}

// PrintStats prints the stats summary line.
func PrintStats(w io.Writer, stats Stats) {
	booked := colorBooked.Sprintf("Booked: %d (%s)", stats.Booked, FormatDuration(stats.BookedMinutes))
	open := colorOpen.Sprintf("Open: %d", stats.Open)
	fmt.Fprintf(w, "  %s  |  %s  |  Utilization: %s\n",
		booked, open, formatStats(fmt.Sprintf("%d%%", stats.Utilization())))
	if stats.Cancelled > 0 || stats.Blocked > 0 || stats.Completed > 0 {
		fmt.Fprintf(w, "  %s\n", formatMuted(fmt.Sprintf("Completed: %d  |  Blocked: %d  |  Cancelled: %d",
			stats.Completed, stats.Blocked, stats.Cancelled)))
	}
}

// FormatDuration formats minutes as a human-readable duration.
func FormatDuration(minutes int) string {
	if minutes == 0 {
		return "0m"
	}
	hours := minutes / 60
	mins := minutes % 60
	if hours == 0 {
		return fmt.Sprintf("%dm", mins)
	}
	if mins == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh%dm", hours, mins)
}

// ShortID returns the prefix of a session ID shown in listings.
func ShortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}
	return id[:shortIDLen]
}

// statusSymbol returns the status indicator for a session.
func statusSymbol(st session.Status) string {
	switch st {
	case session.StatusScheduled:
		return formatStatus(st, "●")
	case session.StatusConfirmed:
		return formatStatus(st, "◉")
	case session.StatusCompleted:
		return formatStatus(st, "✓")
	case session.StatusCancelled:
		return formatStatus(st, "✗")
	case session.StatusBlocked:
		return formatStatus(st, "■")
	case session.StatusRequested:
		return formatStatus(st, "?")
	default:
		return formatStatus(st, "○")
	}
}

// TimeRange returns "HH:MM-HH:MM" for a session.
func TimeRange(s *session.Session) string {
	return s.SessionDate.Format("15:04") + "-" + s.End().Format("15:04")
}

// Describe returns the one-line label of a session: who, with whom, where.
func Describe(s *session.Session) string {
	var parts []string
	switch {
	case s.IsUnavailableBlock():
		parts = append(parts, "Blocked")
	case s.ClientName != "":
		parts = append(parts, s.ClientName)
	case s.ClientID != "":
		parts = append(parts, s.ClientID)
	default:
		parts = append(parts, "Open")
	}
	if trainer := trainerLabel(s); trainer != "" {
		parts = append(parts, "with "+trainer)
	}
	if s.Location != "" {
		parts = append(parts, "@ "+s.Location)
	}
	return strings.Join(parts, " ")
}

func trainerLabel(s *session.Session) string {
	if s.TrainerID == "" {
		return ""
	}
	return session.Trainer{ID: s.TrainerID, Name: s.TrainerName}.DisplayName()
}

// PrintSessionRow prints a single session row with consistent formatting.
func PrintSessionRow(w io.Writer, s *session.Session, maxDescWidth int) {
	desc := ansi.Truncate(Describe(s), maxDescWidth, "...")
	if s.IsCancelled() {
		desc = formatMuted(desc)
	}
	fmt.Fprintf(w, "    %s  %s  %-*s  %s  %s\n",
		statusSymbol(s.Status), TimeRange(s), maxDescWidth, desc,
		formatMuted(FormatDuration(s.Duration)), formatMuted("["+ShortID(s.ID)+"]"))
}

// descWidth returns the description column width for the current terminal.
func descWidth() int {
	// "    ● HH:MM-HH:MM  " + "  1h30m  [xxxxxxxx]"
	const overhead = 4 + 2 + 11 + 2 + 2 + 5 + 2 + 10
	if w := termWidth() - overhead; w > 24 {
		return min(w, 60)
	}
	return 24
}

// PrintResult prints a conflict verdict and its alternatives.
func PrintResult(w io.Writer, res *conflict.Result) {
	if res == nil || !res.HasConflicts {
		fmt.Fprintf(w, "%s\n", formatStats("No conflicts."))
		return
	}
	fmt.Fprintf(w, "%s\n", formatHeader(fmt.Sprintf("%d conflict(s):", len(res.Conflicts))))
	for _, c := range res.Conflicts {
		label := formatConflict(c.Severity, fmt.Sprintf("%-22s", c.Kind))
		line := fmt.Sprintf("  %s %s", label, c.Message)
		if c.SessionID != "" {
			line += " " + formatMuted("["+ShortID(c.SessionID)+"]")
		}
		fmt.Fprintln(w, line)
	}
	PrintAlternatives(w, res.Alternatives)
}

// PrintAlternatives prints numbered alternative slots, nearest first.
func PrintAlternatives(w io.Writer, alts []conflict.SlotSuggestion) {
	if len(alts) == 0 {
		fmt.Fprintf(w, "%s\n", formatMuted("No alternative slots nearby."))
		return
	}
	fmt.Fprintf(w, "%s\n", formatHeader("Alternatives:"))
	for i, alt := range alts {
		fmt.Fprintf(w, "  %d. %s %s\n", i+1, alt.Start.Format("Mon Jan 2 15:04"),
			formatMuted("(trainer "+alt.TrainerID+")"))
	}
}
