package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/javiermolinar/coachcal/internal/dragdrop"
)

// debugLog receives key presses, mode changes and drag transitions. It stays
// a no-op logger unless the calendar runs with --debug.
var debugLog = zap.NewNop()

func initDebugLog(log *zap.Logger, enabled bool) {
	if !enabled || log == nil {
		debugLog = zap.NewNop()
		return
	}
	debugLog = log.Named("tui")
	debugLog.Debug("debug start")
}

// LogKeyPress logs a key press event.
func LogKeyPress(msg tea.KeyMsg, mode Mode) {
	debugLog.Debug("key press", zap.String("key", msg.String()), zap.Stringer("mode", mode))
}

// LogModeChange logs a mode change.
func LogModeChange(from, to Mode, reason string) {
	if from == to {
		return
	}
	debugLog.Debug("mode change",
		zap.Stringer("from", from),
		zap.Stringer("to", to),
		zap.String("reason", reason))
}

// LogCursorMove logs the selected cell.
func LogCursorMove(m Model, reason string) {
	debugLog.Debug("cursor move",
		zap.Stringer("view", m.kind),
		zap.String("date", m.date.Format("2006-01-02")),
		zap.Int("hour", m.hour),
		zap.Int("column", m.col),
		zap.Int("item", m.item),
		zap.String("reason", reason))
}

func logTransition(tr dragdrop.Transition) {
	debugLog.Debug("drag",
		zap.String("session", tr.SessionID),
		zap.Stringer("from", tr.From),
		zap.Stringer("to", tr.To),
		zap.Uint64("generation", tr.Generation),
		zap.Bool("stale", tr.Stale),
		zap.String("reason", tr.Reason))
}

func logError(context string, err error) {
	debugLog.Debug("error", zap.String("context", context), zap.Error(err))
}
