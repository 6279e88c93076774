// Package store holds the canonical in-memory session collection for the
// active date window.
//
// Sessions held by the store are treated as immutable: every mutation clones
// the affected record and replaces the slot index wholesale, so an index or
// snapshot handed out earlier never changes under its reader.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/javiermolinar/coachcal/internal/dateutil"
	"github.com/javiermolinar/coachcal/internal/session"
	"github.com/javiermolinar/coachcal/internal/slotindex"
)

// Store is a single-writer container of sessions.
// Reads may happen from any goroutine.
type Store struct {
	mu sync.RWMutex

	sessions  map[string]*session.Session
	byTrainer map[string][]*session.Session
	byClient  map[string][]*session.Session
	index     *slotindex.Index

	window  dateutil.DateRange
	version uint64
	now     func() time.Time
}

// Snapshot is an opaque copy of the store contents used for rollback.
type Snapshot struct {
	sessions map[string]*session.Session
	window   dateutil.DateRange
	version  uint64
}

// Version returns the store version the snapshot was taken at.
func (s Snapshot) Version() uint64 {
	return s.version
}

// Len returns the number of sessions in the snapshot.
func (s Snapshot) Len() int {
	return len(s.sessions)
}

// New creates an empty store.
func New() *Store {
	st := &Store{
		sessions: make(map[string]*session.Session),
		now:      time.Now,
	}
	st.reindex()
	return st
}

// SetClock replaces the clock used to stamp mutations.
func (st *Store) SetClock(now func() time.Time) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.now = now
}

// Load fetches a window of sessions and replaces the store contents with them.
func (st *Store) Load(ctx context.Context, f session.Fetcher, r dateutil.DateRange, filter session.Filter) error {
	sessions, err := f.FetchSessions(ctx, r, filter)
	if err != nil {
		return fmt.Errorf("fetching sessions: %w", err)
	}
	return st.Replace(r, sessions)
}

// Replace swaps the whole collection. Records are validated and cloned.
func (st *Store) Replace(r dateutil.DateRange, sessions []*session.Session) error {
	next := make(map[string]*session.Session, len(sessions))
	for _, s := range sessions {
		if err := s.Validate(); err != nil {
			return err
		}
		next[s.ID] = s.Clone()
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions = next
	st.window = r
	st.bump()
	return nil
}

// Add inserts new sessions. Existing IDs are overwritten.
func (st *Store) Add(sessions ...*session.Session) error {
	for _, s := range sessions {
		if err := s.Validate(); err != nil {
			return err
		}
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	for _, s := range sessions {
		st.sessions[s.ID] = s.Clone()
	}
	st.bump()
	return nil
}

// Get returns a copy of the session with the given ID.
func (st *Store) Get(id string) (*session.Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", session.ErrSessionNotFound, id)
	}
	return s.Clone(), nil
}

// Sessions returns copies of every session, cancelled ones included, sorted by start.
func (st *Store) Sessions() []*session.Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]*session.Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		out = append(out, s.Clone())
	}
	sortByStart(out)
	return out
}

// Group returns copies of every member of a recurring group, sorted by start.
func (st *Store) Group(groupID string) []*session.Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	var out []*session.Session
	for _, s := range st.sessions {
		if s.RecurringGroupID == groupID {
			out = append(out, s.Clone())
		}
	}
	sortByStart(out)
	return out
}

// TrainerSessions returns the non-cancelled sessions of a trainer.
// The records are shared and must not be modified.
func (st *Store) TrainerSessions(trainerID string) []*session.Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.byTrainer[trainerID]
}

// ClientSessions returns the non-cancelled sessions of a client.
// The records are shared and must not be modified.
func (st *Store) ClientSessions(clientID string) []*session.Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.byClient[clientID]
}

// Index returns the current slot index. It is replaced, never modified.
func (st *Store) Index() *slotindex.Index {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.index
}

// Window returns the date range the store was last loaded for.
func (st *Store) Window() dateutil.DateRange {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.window
}

// Version increases on every mutation.
func (st *Store) Version() uint64 {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.version
}

// Len returns the number of sessions held, cancelled ones included.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Snapshot captures the current contents for a later Restore.
func (st *Store) Snapshot() Snapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()
	cp := make(map[string]*session.Session, len(st.sessions))
	for id, s := range st.sessions {
		cp[id] = s
	}
	return Snapshot{sessions: cp, window: st.window, version: st.version}
}

// Restore puts back the contents captured by Snapshot.
func (st *Store) Restore(snap Snapshot) {
	cp := make(map[string]*session.Session, len(snap.sessions))
	for id, s := range snap.sessions {
		cp[id] = s
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions = cp
	st.window = snap.window
	st.bump()
}

// Reschedule moves a session to a new start and optionally a new trainer.
// An empty trainerID keeps the current trainer.
func (st *Store) Reschedule(id string, start time.Time, trainerID, trainerName string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	cur, ok := st.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", session.ErrSessionNotFound, id)
	}
	if !cur.CanReschedule() {
		return fmt.Errorf("%w: %s is %s", session.ErrNotReschedulable, id, cur.Status)
	}

	next := cur.Clone()
	next.SessionDate = start
	if trainerID != "" && trainerID != next.TrainerID {
		next.TrainerID = trainerID
		next.TrainerName = trainerName
	}
	next.UpdatedAt = st.now()
	st.sessions[id] = next
	st.bump()
	return nil
}

// Cancel marks sessions cancelled and returns the IDs that changed.
// Completed and already-cancelled sessions are left untouched.
func (st *Store) Cancel(ids []string, by, reason string) ([]string, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	for _, id := range ids {
		if _, ok := st.sessions[id]; !ok {
			return nil, fmt.Errorf("%w: %s", session.ErrSessionNotFound, id)
		}
	}

	at := st.now()
	var changed []string
	for _, id := range ids {
		cur := st.sessions[id]
		if cur.IsCompleted() || cur.IsCancelled() {
			continue
		}
		next := cur.Clone()
		next.Cancel(by, reason, at)
		st.sessions[id] = next
		changed = append(changed, id)
	}
	if len(changed) > 0 {
		st.bump()
	}
	return changed, nil
}

// bump must be called with the write lock held.
func (st *Store) bump() {
	st.version++
	st.reindex()
}

// reindex rebuilds every derived lookup from the session map.
func (st *Store) reindex() {
	all := make([]*session.Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		all = append(all, s)
	}
	st.index = slotindex.Build(all)

	st.byTrainer = make(map[string][]*session.Session)
	st.byClient = make(map[string][]*session.Session)
	for _, s := range st.index.All() {
		if s.TrainerID != "" {
			st.byTrainer[s.TrainerID] = append(st.byTrainer[s.TrainerID], s)
		}
		if s.ClientID != "" {
			st.byClient[s.ClientID] = append(st.byClient[s.ClientID], s)
		}
	}
}

func sortByStart(s []*session.Session) {
	sort.Slice(s, func(i, j int) bool {
		if !s[i].SessionDate.Equal(s[j].SessionDate) {
			return s[i].SessionDate.Before(s[j].SessionDate)
		}
		return s[i].ID < s[j].ID
	})
}
