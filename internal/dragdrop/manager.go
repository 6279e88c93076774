// Package dragdrop implements the reschedule-by-drag state machine.
//
// A drag moves through Idle, Dragging, Dropped and Checking and ends in
// Committed, ConflictPresented or RolledBack. The conflict check is the only
// step that may run off the event loop: Drop hands out a Ticket, Check runs it,
// and Resolve applies the Outcome if its generation is still current.
package dragdrop

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/javiermolinar/coachcal/internal/conflict"
	"github.com/javiermolinar/coachcal/internal/session"
	"github.com/javiermolinar/coachcal/internal/store"
)

// Drag errors.
var (
	ErrInvalidDrag        = errors.New("session cannot be dragged")
	ErrNoActiveDrag       = errors.New("no active drag for session")
	ErrWrongState         = errors.New("operation not allowed in the current drag state")
	ErrOverrideNotAllowed = errors.New("only an admin can override conflicts")
	ErrNoAlternative      = errors.New("no such alternative")
)

// Checker runs conflict checks.
type Checker interface {
	Check(ctx context.Context, p conflict.Placement) (*conflict.Result, error)
}

// Options configures a Manager.
type Options struct {
	Admin  bool
	Logger *zap.Logger
	Now    func() time.Time
}

// Manager coordinates drags over one store. Each session has at most one
// active drag; different sessions may be in flight at once.
type Manager struct {
	mu sync.Mutex

	store     *store.Store
	checker   Checker
	committer session.Committer

	admin    bool
	now      func() time.Time
	log      *zap.Logger
	observer func(Transition)

	generation uint64
	drags      map[string]*drag
}

// NewManager creates a drag manager. committer may be nil for in-memory use.
func NewManager(st *store.Store, checker Checker, committer session.Committer, opts Options) *Manager {
	m := &Manager{
		store:     st,
		checker:   checker,
		committer: committer,
		admin:     opts.Admin,
		now:       opts.Now,
		log:       opts.Logger,
		drags:     make(map[string]*drag),
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.log == nil {
		m.log = zap.NewNop()
	}
	return m
}

// SetObserver registers a callback for every transition.
// The callback runs with the manager locked and must not call back into it.
func (m *Manager) SetObserver(fn func(Transition)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observer = fn
}

// IsAdmin reports whether the manager acts with admin privileges.
func (m *Manager) IsAdmin() bool {
	return m.admin
}

// State returns the drag state of a session.
func (m *Manager) State(sessionID string) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.drags[sessionID]; ok {
		return d.state
	}
	return Idle
}

// Generation returns the current drag generation of a session, zero if idle.
func (m *Manager) Generation(sessionID string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.drags[sessionID]; ok {
		return d.generation
	}
	return 0
}

// Payload returns the gesture data of an active drag.
func (m *Manager) Payload(sessionID string) (Payload, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.drags[sessionID]; ok {
		return d.payload, true
	}
	return Payload{}, false
}

// Conflicts returns the verdict shown while a session is in ConflictPresented.
func (m *Manager) Conflicts(sessionID string) *conflict.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.drags[sessionID]; ok && d.state == ConflictPresented {
		return d.result
	}
	return nil
}

// LastError returns the check failure that sent a drag back to Dropped.
func (m *Manager) LastError(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.drags[sessionID]; ok {
		return d.lastErr
	}
	return nil
}

// Active returns the IDs of sessions with a drag in progress.
func (m *Manager) Active() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.drags))
	for id := range m.drags {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CanDrag returns nil if the session passes the drag guard.
func (m *Manager) CanDrag(s *session.Session) error {
	switch {
	case s.IsUnavailableBlock():
		return fmt.Errorf("%w: %s is a blocked slot", ErrInvalidDrag, s.ID)
	case s.Status == session.StatusAvailable:
		return fmt.Errorf("%w: %s is an open slot", ErrInvalidDrag, s.ID)
	case s.IsCompleted():
		return fmt.Errorf("%w: %s is completed", ErrInvalidDrag, s.ID)
	case s.IsCancelled():
		return fmt.Errorf("%w: %s is cancelled", ErrInvalidDrag, s.ID)
	case !m.admin && s.IsPast(m.now()):
		return fmt.Errorf("%w: %s is in the past", ErrInvalidDrag, s.ID)
	}
	return nil
}

// Begin starts dragging a session. A drag already in progress for the same
// session is superseded and its outstanding check will be discarded.
func (m *Manager) Begin(sessionID string) error {
	s, err := m.store.Get(sessionID)
	if err != nil {
		return err
	}
	if err := m.CanDrag(s); err != nil {
		m.log.Debug("drag rejected", zap.String("session", sessionID), zap.Error(err))
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	from := Idle
	if prev, ok := m.drags[sessionID]; ok {
		from = prev.state
	}
	d := &drag{
		state:      Dragging,
		generation: m.nextGeneration(),
		payload:    Payload{SessionID: sessionID, FromDate: s.SessionDate, TrainerID: s.TrainerID},
	}
	m.drags[sessionID] = d
	reason := ""
	if from != Idle {
		reason = "superseded previous drag"
	}
	m.transition(sessionID, from, Dragging, d.generation, reason)
	return nil
}

// Drop releases a drag over target. A nil or disabled target cancels the
// drag and returns a nil ticket. Otherwise the drag enters Checking and the
// returned ticket must be passed to Check and then Resolve.
func (m *Manager) Drop(sessionID string, target *Target) (*Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, err := m.active(sessionID, Dragging)
	if err != nil {
		return nil, err
	}
	if !target.Accepts() {
		delete(m.drags, sessionID)
		m.transition(sessionID, Dragging, Idle, d.generation, "released outside a drop target")
		return nil, nil
	}

	start := target.Start()
	d.payload.ToDate = start
	d.payload.ToHour = target.Hour
	d.payload.ToMinute = target.Minute
	if target.TrainerID != "" {
		d.payload.TrainerID = target.TrainerID
	}
	d.placement = conflict.Placement{
		SessionID:  sessionID,
		Start:      start,
		TrainerID:  target.TrainerID,
		Privileged: m.admin,
	}
	d.state = Dropped
	m.transition(sessionID, Dragging, Dropped, d.generation, "")
	return m.startCheck(sessionID, d, Dropped), nil
}

// Check runs the conflict check for a ticket. It touches no manager state and
// may run on any goroutine.
func (m *Manager) Check(ctx context.Context, t Ticket) Outcome {
	res, err := m.checker.Check(ctx, t.Placement)
	return Outcome{Ticket: t, Result: res, Err: err}
}

// Resolve applies a check outcome. Outcomes of superseded or cancelled drags
// are discarded without touching the store. A clean outcome checked against an
// older store version is checked again before it commits.
func (m *Manager) Resolve(ctx context.Context, o Outcome) (Transition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.drags[o.SessionID]
	if !ok || d.generation != o.Generation || d.state != Checking {
		m.log.Info("discarding stale conflict check",
			zap.String("session", o.SessionID),
			zap.Uint64("generation", o.Generation))
		tr := Transition{SessionID: o.SessionID, From: Checking, To: m.stateLocked(o.SessionID), Generation: o.Generation, Stale: true}
		return tr, nil
	}

	res, err := o.Result, o.Err
	if err == nil && !res.HasConflicts {
		if v := m.store.Version(); v != o.StoreVersion {
			// Another commit landed while the check ran; its verdict may
			// no longer hold.
			m.log.Debug("store changed during check, re-checking",
				zap.String("session", o.SessionID),
				zap.Uint64("checked", o.StoreVersion),
				zap.Uint64("current", v))
			res, err = m.checker.Check(ctx, d.placement)
		}
	}

	if err != nil {
		if errors.Is(err, conflict.ErrCheckFailed) {
			d.state = Dropped
			d.lastErr = err
			m.log.Warn("conflict check failed", zap.String("session", o.SessionID), zap.Error(err))
			return m.transition(o.SessionID, Checking, Dropped, d.generation, conflict.ErrCheckFailed.Error()), nil
		}
		delete(m.drags, o.SessionID)
		tr := m.transition(o.SessionID, Checking, Idle, d.generation, err.Error())
		return tr, err
	}

	if res.HasConflicts {
		d.state = ConflictPresented
		d.result = res
		d.lastErr = nil
		return m.transition(o.SessionID, Checking, ConflictPresented, d.generation,
			fmt.Sprintf("%d conflict(s)", len(res.Conflicts))), nil
	}
	return m.commit(ctx, o.SessionID, d, Checking, false)
}

// Retry re-runs a check that failed.
func (m *Manager) Retry(sessionID string) (*Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, err := m.active(sessionID, Dropped)
	if err != nil {
		return nil, err
	}
	d.generation = m.nextGeneration()
	d.lastErr = nil
	return m.startCheck(sessionID, d, Dropped), nil
}

// PickAlternative re-checks the drag at one of the suggested slots.
func (m *Manager) PickAlternative(sessionID string, i int) (*Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, err := m.active(sessionID, ConflictPresented)
	if err != nil {
		return nil, err
	}
	if d.result == nil || i < 0 || i >= len(d.result.Alternatives) {
		return nil, fmt.Errorf("%w: %d", ErrNoAlternative, i)
	}
	alt := d.result.Alternatives[i]
	d.placement.Start = alt.Start
	d.placement.TrainerID = alt.TrainerID
	d.payload.ToDate = alt.Start
	d.payload.ToHour = alt.Start.Hour()
	d.payload.ToMinute = alt.Start.Minute()
	d.result = nil
	d.generation = m.nextGeneration()
	return m.startCheck(sessionID, d, ConflictPresented), nil
}

// Override commits a conflicting placement. Only admins may override.
func (m *Manager) Override(ctx context.Context, sessionID string) (Transition, error) {
	if !m.admin {
		return Transition{}, ErrOverrideNotAllowed
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	d, err := m.active(sessionID, ConflictPresented)
	if err != nil {
		return Transition{}, err
	}
	m.log.Info("overriding conflicts", zap.String("session", sessionID), zap.Int("conflicts", len(d.result.Conflicts)))
	return m.commit(ctx, sessionID, d, ConflictPresented, true)
}

// Cancel abandons a drag in any state. Outstanding checks become stale.
func (m *Manager) Cancel(sessionID string) Transition {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancelLocked(sessionID, "cancelled")
}

// CancelAll abandons every drag, for example when the view is left.
func (m *Manager) CancelAll() []Transition {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.drags))
	for id := range m.drags {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]Transition, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.cancelLocked(id, "navigated away"))
	}
	return out
}

func (m *Manager) cancelLocked(sessionID, reason string) Transition {
	d, ok := m.drags[sessionID]
	if !ok {
		return Transition{SessionID: sessionID, From: Idle, To: Idle}
	}
	delete(m.drags, sessionID)
	return m.transition(sessionID, d.state, Idle, d.generation, reason)
}

// commit applies the placement optimistically, persists it and rolls the
// store back to the pre-commit snapshot if persistence rejects it. An
// override is persisted through session.OverrideCommitter when the committer
// offers it.
func (m *Manager) commit(ctx context.Context, sessionID string, d *drag, from State, override bool) (Transition, error) {
	p := d.placement
	snap := m.store.Snapshot()

	if err := m.store.Reschedule(sessionID, p.Start, p.TrainerID, m.trainerName(p.TrainerID)); err != nil {
		delete(m.drags, sessionID)
		tr := m.transition(sessionID, from, Idle, d.generation, err.Error())
		return tr, err
	}
	d.state = Committed
	m.transition(sessionID, from, Committed, d.generation, "")

	if m.committer != nil {
		persist := m.committer.CommitReschedule
		if oc, ok := m.committer.(session.OverrideCommitter); ok && override {
			persist = oc.CommitOverride
		}
		if err := persist(ctx, sessionID, p.Start, p.TrainerID); err != nil {
			m.store.Restore(snap)
			m.log.Warn("reschedule rejected, rolled back",
				zap.String("session", sessionID),
				zap.Uint64("generation", d.generation),
				zap.Error(err))
			d.state = RolledBack
			m.transition(sessionID, Committed, RolledBack, d.generation, err.Error())
			delete(m.drags, sessionID)
			tr := m.transition(sessionID, RolledBack, Idle, d.generation, "")
			if !errors.Is(err, session.ErrCommitFailed) {
				err = fmt.Errorf("%w: %w", session.ErrCommitFailed, err)
			}
			return tr, err
		}
	}

	delete(m.drags, sessionID)
	return m.transition(sessionID, Committed, Idle, d.generation, ""), nil
}

func (m *Manager) trainerName(trainerID string) string {
	if trainerID == "" {
		return ""
	}
	for _, t := range m.store.Index().Trainers() {
		if t.ID == trainerID {
			return t.Name
		}
	}
	return ""
}

// startCheck moves a drag into Checking and returns its ticket.
func (m *Manager) startCheck(sessionID string, d *drag, from State) *Ticket {
	d.state = Checking
	m.transition(sessionID, from, Checking, d.generation, "")
	return &Ticket{
		SessionID:    sessionID,
		Generation:   d.generation,
		Placement:    d.placement,
		StoreVersion: m.store.Version(),
	}
}

func (m *Manager) active(sessionID string, want State) (*drag, error) {
	d, ok := m.drags[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoActiveDrag, sessionID)
	}
	if d.state != want {
		return nil, fmt.Errorf("%w: %s is %s, want %s", ErrWrongState, sessionID, d.state, want)
	}
	return d, nil
}

func (m *Manager) stateLocked(sessionID string) State {
	if d, ok := m.drags[sessionID]; ok {
		return d.state
	}
	return Idle
}

func (m *Manager) nextGeneration() uint64 {
	m.generation++
	return m.generation
}

func (m *Manager) transition(sessionID string, from, to State, gen uint64, reason string) Transition {
	tr := Transition{SessionID: sessionID, From: from, To: to, Generation: gen, Reason: reason}
	m.log.Debug("drag transition",
		zap.String("session", sessionID),
		zap.Stringer("from", from),
		zap.Stringer("to", to),
		zap.Uint64("generation", gen),
		zap.String("reason", reason))
	if m.observer != nil {
		m.observer(tr)
	}
	return tr
}
