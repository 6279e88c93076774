// Package commands provides TUI command constructors and message types.
package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/coachcal/internal/dragdrop"
)

// ErrMsg is sent when an error occurs.
type ErrMsg struct {
	Err error
}

// StatusMsgCmd is sent for temporary status messages.
type StatusMsgCmd struct {
	Msg string
}

// ClearStatusMsg is sent to clear the status message.
type ClearStatusMsg struct{}

// CheckedMsg carries the outcome of a conflict check run off the event loop.
type CheckedMsg struct {
	Outcome dragdrop.Outcome
}

// Checker runs the conflict check of a drop ticket.
type Checker interface {
	Check(ctx context.Context, t dragdrop.Ticket) dragdrop.Outcome
}

// Check runs the check for ticket. The outcome must be resolved on the event
// loop so a stale generation can be discarded there.
func Check(ctx context.Context, c Checker, ticket dragdrop.Ticket) tea.Cmd {
	return func() tea.Msg {
		return CheckedMsg{Outcome: c.Check(ctx, ticket)}
	}
}

// clipboardWrite is replaced in tests.
var clipboardWrite = clipboard.WriteAll

// CopyText copies text to the system clipboard.
func CopyText(text, what string) tea.Cmd {
	return func() tea.Msg {
		if text == "" {
			return StatusMsgCmd{Msg: "Nothing to copy"}
		}
		if err := clipboardWrite(text); err != nil {
			return ErrMsg{Err: fmt.Errorf("copying %s: %w", what, err)}
		}
		return StatusMsgCmd{Msg: "Copied " + what}
	}
}

// ClearStatusAfter clears the status line after d.
func ClearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}
