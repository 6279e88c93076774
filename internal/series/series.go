// Package series applies bulk operations to recurring session groups.
package series

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/javiermolinar/coachcal/internal/conflict"
	"github.com/javiermolinar/coachcal/internal/dateutil"
	"github.com/javiermolinar/coachcal/internal/session"
	"github.com/javiermolinar/coachcal/internal/store"
)

// Series errors.
var (
	ErrGroupNotFound  = errors.New("recurring group not found")
	ErrSeriesConflict = errors.New("series has conflicting occurrences")
	ErrInvalidRule    = errors.New("invalid recurrence rule")
)

// Transform computes the new start of a series member.
type Transform func(s *session.Session) time.Time

// Shift moves every member by d.
func Shift(d time.Duration) Transform {
	return func(s *session.Session) time.Time {
		return s.SessionDate.Add(d)
	}
}

// MoveTo keeps each member's day and sets its start clock time.
func MoveTo(hour, minute int) Transform {
	return func(s *session.Session) time.Time {
		return dateutil.At(s.SessionDate, hour, minute)
	}
}

// Options controls a series reschedule.
type Options struct {
	Atomic     bool // all members move or none do
	Privileged bool // admin actor: past-time is not enforced
}

// MemberResult is the outcome for one series member.
type MemberResult struct {
	SessionID string
	From      time.Time
	To        time.Time
	OK        bool
	Conflicts []conflict.Conflict
	Err       error
}

// Report summarizes a series reschedule.
type Report struct {
	GroupID string
	Results []MemberResult
	Skipped []string // completed or cancelled members
}

// Succeeded returns the IDs of members that moved.
func (r *Report) Succeeded() []string {
	var out []string
	for _, m := range r.Results {
		if m.OK {
			out = append(out, m.SessionID)
		}
	}
	return out
}

// Failed returns the IDs of members that did not move.
func (r *Report) Failed() []string {
	var out []string
	for _, m := range r.Results {
		if !m.OK {
			out = append(out, m.SessionID)
		}
	}
	return out
}

// CancelOptions records who cancels a series and why.
type CancelOptions struct {
	By     string
	Reason string
}

// CancelReport summarizes a series cancellation.
type CancelReport struct {
	GroupID          string
	Cancelled        []string
	Completed        []string // left untouched
	AlreadyCancelled []string
}

// Manager runs series operations against a store.
type Manager struct {
	store     *store.Store
	checker   *conflict.Checker
	committer session.Committer
	writer    session.StatusWriter
	creator   session.Creator
	log       *zap.Logger
	now       func() time.Time
}

// Persistence groups the write boundaries a Manager uses. Nil members skip
// persistence for that operation.
type Persistence struct {
	Committer    session.Committer
	StatusWriter session.StatusWriter
	Creator      session.Creator
}

// NewManager creates a series manager.
func NewManager(st *store.Store, checker *conflict.Checker, p Persistence, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		store:     st,
		checker:   checker,
		committer: p.Committer,
		writer:    p.StatusWriter,
		creator:   p.Creator,
		log:       log,
		now:       time.Now,
	}
}

// SetClock replaces the clock used to decide which occurrences are in the future.
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

// Group returns every member of a group, past and future, sorted by start.
func (m *Manager) Group(groupID string) ([]*session.Session, error) {
	members := m.store.Group(groupID)
	if len(members) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, groupID)
	}
	return members, nil
}

// Reschedule applies t to every movable member. Each member is checked on its
// own, with the other moving members ignored at their old positions, and the
// new positions are then checked against each other and against the members
// that stay put. Members that pass move even if others fail, unless
// opts.Atomic is set.
func (m *Manager) Reschedule(ctx context.Context, groupID string, t Transform, opts Options) (*Report, error) {
	members, err := m.Group(groupID)
	if err != nil {
		return nil, err
	}

	report := &Report{GroupID: groupID}
	var movers []*session.Session
	for _, s := range members {
		if !s.CanReschedule() {
			report.Skipped = append(report.Skipped, s.ID)
			continue
		}
		movers = append(movers, s)
	}
	moverIDs := make([]string, len(movers))
	for i, s := range movers {
		moverIDs[i] = s.ID
	}

	results := make([]MemberResult, len(movers))
	for i, s := range movers {
		to := t(s)
		results[i] = MemberResult{SessionID: s.ID, From: s.SessionDate, To: to}
		res, err := m.checker.Check(ctx, conflict.Placement{
			SessionID:  s.ID,
			Start:      to,
			Privileged: opts.Privileged,
			Exclude:    moverIDs,
		})
		if err != nil {
			results[i].Err = err
			continue
		}
		results[i].Conflicts = res.Conflicts
		results[i].OK = !res.HasConflicts
	}

	// Cross-check the new positions of the members that passed.
	for i := range movers {
		if !results[i].OK {
			continue
		}
		for j := 0; j < i; j++ {
			if !results[j].OK || movers[i].TrainerID != movers[j].TrainerID {
				continue
			}
			moved := movers[j].Clone()
			moved.SessionDate = results[j].To
			if cf, ok := m.checker.Classify(movers[i], results[i].To, moved); ok {
				results[i].OK = false
				results[i].Conflicts = append(results[i].Conflicts, cf)
				break
			}
		}
	}
	// A member that fails keeps its old slot. Demoting one can make another
	// land on it, so repeat until no passing member collides.
	for changed := true; changed; {
		changed = false
		for i := range movers {
			if !results[i].OK {
				continue
			}
			for j := range movers {
				if i == j || results[j].OK || movers[i].TrainerID != movers[j].TrainerID {
					continue
				}
				if cf, ok := m.checker.Classify(movers[i], results[i].To, movers[j]); ok {
					results[i].OK = false
					results[i].Conflicts = append(results[i].Conflicts, cf)
					changed = true
					break
				}
			}
		}
	}
	report.Results = results

	failed := report.Failed()
	if opts.Atomic && len(failed) > 0 {
		for i := range report.Results {
			report.Results[i].OK = false
		}
		m.log.Info("atomic series reschedule aborted",
			zap.String("group", groupID),
			zap.Strings("conflicting", failed))
		return report, fmt.Errorf("%w: %d of %d occurrences", ErrSeriesConflict, len(failed), len(movers))
	}

	if err := m.apply(ctx, report, opts.Atomic); err != nil {
		return report, err
	}
	m.log.Info("series rescheduled",
		zap.String("group", groupID),
		zap.Int("moved", len(report.Succeeded())),
		zap.Int("failed", len(report.Failed())),
		zap.Int("skipped", len(report.Skipped)))
	return report, nil
}

// apply mutates the store for every successful member and persists the moves.
func (m *Manager) apply(ctx context.Context, report *Report, atomic bool) error {
	snap := m.store.Snapshot()

	for i := range report.Results {
		r := &report.Results[i]
		if !r.OK {
			continue
		}
		if err := m.store.Reschedule(r.SessionID, r.To, "", ""); err != nil {
			r.OK, r.Err = false, err
		}
	}
	if m.committer == nil {
		return nil
	}

	if bc, ok := m.committer.(session.BatchCommitter); ok {
		var moves []session.Move
		for _, r := range report.Results {
			if r.OK {
				moves = append(moves, session.Move{ID: r.SessionID, Start: r.To})
			}
		}
		err := bc.CommitReschedules(ctx, moves)
		if err == nil {
			return nil
		}
		m.log.Warn("series batch rejected", zap.Bool("atomic", atomic), zap.Error(err))
		if atomic {
			m.store.Restore(snap)
			for j := range report.Results {
				report.Results[j].OK = false
			}
			if !errors.Is(err, session.ErrCommitFailed) {
				err = fmt.Errorf("%w: %w", session.ErrCommitFailed, err)
			}
			return err
		}
		// Fall back to member by member so the members that still fit move.
	}

	var persisted []*MemberResult
	for i := range report.Results {
		r := &report.Results[i]
		if !r.OK {
			continue
		}
		err := m.committer.CommitReschedule(ctx, r.SessionID, r.To, "")
		if err == nil {
			persisted = append(persisted, r)
			continue
		}

		m.log.Warn("series member rejected",
			zap.String("session", r.SessionID),
			zap.Bool("atomic", atomic),
			zap.Error(err))
		if !atomic {
			r.OK, r.Err = false, err
			if rerr := m.store.Reschedule(r.SessionID, r.From, "", ""); rerr != nil {
				return fmt.Errorf("restoring %s: %w", r.SessionID, rerr)
			}
			continue
		}

		// Undo the members that were already written, newest first, then
		// the store.
		for k := len(persisted) - 1; k >= 0; k-- {
			p := persisted[k]
			if uerr := m.committer.CommitReschedule(ctx, p.SessionID, p.From, ""); uerr != nil {
				m.log.Error("could not revert series member", zap.String("session", p.SessionID), zap.Error(uerr))
			}
		}
		m.store.Restore(snap)
		for j := range report.Results {
			report.Results[j].OK = false
		}
		r.Err = err
		if !errors.Is(err, session.ErrCommitFailed) {
			err = fmt.Errorf("%w: %w", session.ErrCommitFailed, err)
		}
		return err
	}
	return nil
}

// Cancel marks every member that is not completed as cancelled. Completed
// members are kept as the historical record.
func (m *Manager) Cancel(ctx context.Context, groupID string, opts CancelOptions) (*CancelReport, error) {
	members, err := m.Group(groupID)
	if err != nil {
		return nil, err
	}

	report := &CancelReport{GroupID: groupID}
	var ids []string
	for _, s := range members {
		switch {
		case s.IsCompleted():
			report.Completed = append(report.Completed, s.ID)
		case s.IsCancelled():
			report.AlreadyCancelled = append(report.AlreadyCancelled, s.ID)
		default:
			ids = append(ids, s.ID)
		}
	}
	if len(ids) == 0 {
		return report, nil
	}

	snap := m.store.Snapshot()
	changed, err := m.store.Cancel(ids, opts.By, opts.Reason)
	if err != nil {
		return nil, err
	}
	if m.writer != nil {
		if err := m.writer.CancelSessions(ctx, changed, opts.By, opts.Reason); err != nil {
			m.store.Restore(snap)
			return nil, fmt.Errorf("cancelling series %s: %w", groupID, err)
		}
	}
	report.Cancelled = changed
	m.log.Info("series cancelled",
		zap.String("group", groupID),
		zap.Int("cancelled", len(changed)),
		zap.Int("completed", len(report.Completed)))
	return report, nil
}
