package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/coachcal/internal/conflict"
	"github.com/javiermolinar/coachcal/internal/dateutil"
	"github.com/javiermolinar/coachcal/internal/dragdrop"
	"github.com/javiermolinar/coachcal/internal/projector"
	"github.com/javiermolinar/coachcal/internal/session"
	"github.com/javiermolinar/coachcal/internal/tui/commands"
)

// beginMove picks up s and enters move mode.
func (m Model) beginMove(s *session.Session) (tea.Model, tea.Cmd) {
	if s == nil {
		return m, m.setStatus("No session selected")
	}
	if err := m.drags.Begin(s.ID); err != nil {
		m.setError(err)
		return m, nil
	}

	m.move = moveState{
		sessionID: s.ID,
		label:     sessionLabel(s),
		duration:  s.Duration,
		date:      dateutil.TruncateToDay(s.SessionDate),
		hour:      s.SessionDate.Hour(),
		minute:    s.SessionDate.Minute(),
		trainerID: s.TrainerID,
	}
	LogModeChange(m.mode, ModeMove, "move "+s.ID)
	m.mode = ModeMove
	m.followMoveTarget()
	return m, m.setStatus("Moving " + m.move.label + ": pick a slot and press enter")
}

// handleMoveKeys handles keys while a drop target is picked.
func (m Model) handleMoveKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Cancel) {
		return m.cancelMove("Move cancelled")
	}
	if m.move.checking {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Select):
		return m.drop()
	case key.Matches(msg, m.keys.Left):
		m.shiftTarget(-1)
	case key.Matches(msg, m.keys.Right):
		m.shiftTarget(1)
	case key.Matches(msg, m.keys.Up):
		m.moveTargetMinutes(-60)
	case key.Matches(msg, m.keys.Down):
		m.moveTargetMinutes(60)
	case key.Matches(msg, m.keys.Earlier):
		m.moveTargetMinutes(-m.step())
	case key.Matches(msg, m.keys.Later):
		m.moveTargetMinutes(m.step())
	case key.Matches(msg, m.keys.Prev):
		m.moveTargetDays(-7)
	case key.Matches(msg, m.keys.Next):
		m.moveTargetDays(7)
	}
	return m, nil
}

func (m Model) step() int {
	if s := m.eng.Config().Conflicts.StepMinutes; s > 0 {
		return s
	}
	return 15
}

// shiftTarget moves the target to the next trainer in the day views and to
// the next day elsewhere.
func (m *Model) shiftTarget(d int) {
	if m.kind != projector.KindDay && m.kind != projector.KindDayStacked {
		m.moveTargetDays(d)
		return
	}

	var ids []string
	for _, c := range m.columns() {
		if c.Trainer.ID != projector.AllTrainersID {
			ids = append(ids, c.Trainer.ID)
		}
	}
	if len(ids) == 0 {
		return
	}
	i := 0
	for j, id := range ids {
		if id == m.move.trainerID {
			i = j + d
		}
	}
	i = max(0, min(i, len(ids)-1))
	m.move.trainerID = ids[i]
	m.followMoveTarget()
}

// moveTargetDays shifts the target by whole days inside the loaded window.
func (m *Model) moveTargetDays(d int) {
	next := m.move.date.AddDate(0, 0, d)
	if !m.eng.Store.Window().Contains(next) {
		m.statusMsg = "Outside the loaded range"
		return
	}
	m.move.date = next
	m.followMoveTarget()
}

// moveTargetMinutes shifts the target start, staying inside the hour grid.
func (m *Model) moveTargetMinutes(d int) {
	hours := m.params.Hours()
	total := m.move.hour*60 + m.move.minute + d
	first := hours[0] * 60
	last := hours[len(hours)-1]*60 + 60 - m.step()
	total = max(first, min(total, last))
	m.move.hour = total / 60
	m.move.minute = total % 60
	m.followMoveTarget()
}

// followMoveTarget keeps the cursor on the drop target.
func (m *Model) followMoveTarget() {
	m.date = m.move.date
	m.hour = m.move.hour
	m.followWeekWindow()
	for i, c := range m.columns() {
		if c.Trainer.ID == m.move.trainerID {
			m.col = i
		}
	}
}

// drop releases the session over the target and starts the conflict check
// off the event loop.
func (m Model) drop() (tea.Model, tea.Cmd) {
	target := &dragdrop.Target{
		Day:    m.move.date,
		Hour:   m.move.hour,
		Minute: m.move.minute,
	}
	if s, err := m.eng.Store.Get(m.move.sessionID); err == nil && s.TrainerID != m.move.trainerID {
		target.TrainerID = m.move.trainerID
	}

	ticket, err := m.drags.Drop(m.move.sessionID, target)
	if err != nil {
		m.setError(err)
		return m.cancelMove("")
	}
	if ticket == nil {
		return m.cancelMove("Move cancelled")
	}
	m.move.checking = true
	m.statusMsg = "Checking " + target.Start().Format("Mon Jan 2 15:04") + "…"
	m.statusErr = false
	return m, commands.Check(m.ctx, m.drags, *ticket)
}

func (m Model) cancelMove(status string) (tea.Model, tea.Cmd) {
	id := m.move.sessionID
	if m.mode == ModeConflict {
		id = m.conflict.sessionID
	}
	m.drags.Cancel(id)
	LogModeChange(m.mode, ModeNormal, "move cancelled")
	m.mode = ModeNormal
	m.move = moveState{}
	m.conflict = conflictState{}
	if status == "" {
		return m, nil
	}
	return m, m.setStatus(status)
}

// handleChecked resolves a conflict check on the event loop. Outcomes of
// superseded or cancelled drags are dropped.
func (m Model) handleChecked(msg commands.CheckedMsg) (tea.Model, tea.Cmd) {
	tr, err := m.drags.Resolve(m.ctx, msg.Outcome)
	if tr.Stale {
		logTransition(tr)
		return m, nil
	}
	id := msg.Outcome.SessionID
	start := msg.Outcome.Placement.Start

	if err != nil {
		LogModeChange(m.mode, ModeNormal, "move failed")
		m.mode = ModeNormal
		m.move = moveState{}
		m.conflict = conflictState{}
		if errors.Is(err, session.ErrCommitFailed) {
			m.setError(fmt.Errorf("move rolled back: %w", err))
		} else {
			m.setError(err)
		}
		return m, nil
	}

	switch tr.To {
	case dragdrop.ConflictPresented:
		LogModeChange(m.mode, ModeConflict, tr.Reason)
		m.mode = ModeConflict
		m.conflict = conflictState{sessionID: id, placement: start, result: m.drags.Conflicts(id)}
		m.statusMsg = ""
		return m, nil

	case dragdrop.Dropped:
		LogModeChange(m.mode, ModeConflict, "check failed")
		m.mode = ModeConflict
		m.conflict = conflictState{sessionID: id, placement: start, failed: true}
		m.setError(conflict.ErrCheckFailed)
		return m, nil
	}

	return m.moved(id)
}

// moved leaves move mode after a commit and follows the session.
func (m Model) moved(id string) (tea.Model, tea.Cmd) {
	LogModeChange(m.mode, ModeNormal, "committed")
	m.mode = ModeNormal
	m.move = moveState{}
	m.conflict = conflictState{}

	s, err := m.eng.Store.Get(id)
	if err != nil {
		m.setError(err)
		return m, nil
	}
	m.setDate(s.SessionDate)
	m.hour = s.SessionDate.Hour()
	m.clampHour()
	return m, m.setStatus("Moved " + sessionLabel(s) + " to " + s.SessionDate.Format("Mon Jan 2 15:04"))
}

// handleConflictKeys handles keys in the conflict panel.
func (m Model) handleConflictKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Cancel) {
		return m.cancelMove("Move cancelled")
	}
	if m.conflict.checking {
		return m, nil
	}

	id := m.conflict.sessionID
	if m.conflict.failed {
		if !key.Matches(msg, m.keys.Retry) {
			return m, nil
		}
		ticket, err := m.drags.Retry(id)
		if err != nil {
			m.setError(err)
			return m, nil
		}
		m.conflict.checking = true
		m.statusMsg = "Retrying…"
		m.statusErr = false
		return m, commands.Check(m.ctx, m.drags, *ticket)
	}

	var alts int
	if m.conflict.result != nil {
		alts = len(m.conflict.result.Alternatives)
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		m.conflict.selected = max(0, m.conflict.selected-1)
	case key.Matches(msg, m.keys.Down):
		m.conflict.selected = max(0, min(m.conflict.selected+1, alts-1))

	case key.Matches(msg, m.keys.Select):
		if alts == 0 {
			return m, m.setStatus("No free slot nearby")
		}
		alt := m.conflict.result.Alternatives[m.conflict.selected]
		ticket, err := m.drags.PickAlternative(id, m.conflict.selected)
		if err != nil {
			m.setError(err)
			return m, nil
		}
		m.conflict.checking = true
		m.statusMsg = "Checking " + alt.Start.Format("Mon Jan 2 15:04") + "…"
		m.statusErr = false
		return m, commands.Check(m.ctx, m.drags, *ticket)

	case key.Matches(msg, m.keys.Override):
		_, err := m.drags.Override(m.ctx, id)
		switch {
		case errors.Is(err, dragdrop.ErrOverrideNotAllowed):
			m.setError(err)
			return m, nil
		case err != nil:
			m.mode = ModeNormal
			m.conflict = conflictState{}
			m.move = moveState{}
			m.setError(fmt.Errorf("override failed: %w", err))
			return m, nil
		}
		return m.moved(id)
	}
	return m, nil
}
