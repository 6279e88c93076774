// Package slotindex builds constant-time lookup tables over a session slice.
//
// An Index is immutable once built. Callers rebuild it wholesale whenever the
// underlying sessions change.
package slotindex

import (
	"sort"
	"strconv"

	"github.com/javiermolinar/coachcal/internal/dateutil"
	"github.com/javiermolinar/coachcal/internal/session"
)

// UnassignedPrefix prefixes the per-hour bucket that aggregates every trainer.
const UnassignedPrefix = "unassigned"

// TrainerHourKey returns the bucket key for a trainer at an hour.
func TrainerHourKey(trainerID string, hour int) string {
	return trainerID + "-" + strconv.Itoa(hour)
}

// UnassignedKey returns the bucket key that aggregates all sessions at an hour.
func UnassignedKey(hour int) string {
	return TrainerHourKey(UnassignedPrefix, hour)
}

// Index holds sessions bucketed by trainer/hour, by hour and by day.
type Index struct {
	slots   map[string][]*session.Session
	days    map[string][]*session.Session
	all     []*session.Session
	trainer []session.Trainer
}

// Build indexes the non-cancelled sessions in one pass.
// The input slice and its sessions are never modified.
func Build(sessions []*session.Session) *Index {
	idx := &Index{
		slots: make(map[string][]*session.Session),
		days:  make(map[string][]*session.Session),
	}

	live := make([]*session.Session, 0, len(sessions))
	for _, s := range sessions {
		if s == nil || s.IsCancelled() {
			continue
		}
		live = append(live, s)
	}
	sortSessions(live)
	idx.all = live

	seen := make(map[string]int)
	for _, s := range live {
		hour := s.Hour()
		if s.TrainerID != "" {
			key := TrainerHourKey(s.TrainerID, hour)
			idx.slots[key] = append(idx.slots[key], s)
			if i, ok := seen[s.TrainerID]; !ok {
				seen[s.TrainerID] = len(idx.trainer)
				idx.trainer = append(idx.trainer, session.Trainer{ID: s.TrainerID, Name: s.TrainerName})
			} else if idx.trainer[i].Name == "" {
				idx.trainer[i].Name = s.TrainerName
			}
		}
		ukey := UnassignedKey(hour)
		idx.slots[ukey] = append(idx.slots[ukey], s)

		dkey := dateutil.DayKey(s.SessionDate)
		idx.days[dkey] = append(idx.days[dkey], s)
	}

	sort.SliceStable(idx.trainer, func(i, j int) bool {
		return idx.trainer[i].DisplayName() < idx.trainer[j].DisplayName()
	})
	return idx
}

// sortSessions orders by start time, then ID, so every bucket is deterministic.
func sortSessions(s []*session.Session) {
	sort.SliceStable(s, func(i, j int) bool {
		if !s[i].SessionDate.Equal(s[j].SessionDate) {
			return s[i].SessionDate.Before(s[j].SessionDate)
		}
		return s[i].ID < s[j].ID
	})
}

// Lookup returns the bucket stored under key.
func (x *Index) Lookup(key string) []*session.Session {
	if x == nil {
		return nil
	}
	return x.slots[key]
}

// ByTrainerHour returns a trainer's sessions that start at hour.
func (x *Index) ByTrainerHour(trainerID string, hour int) []*session.Session {
	return x.Lookup(TrainerHourKey(trainerID, hour))
}

// Unassigned returns every session that starts at hour, across all trainers.
func (x *Index) Unassigned(hour int) []*session.Session {
	return x.Lookup(UnassignedKey(hour))
}

// ByDay returns the sessions on the day with the given YYYY-MM-DD key.
func (x *Index) ByDay(dayKey string) []*session.Session {
	if x == nil {
		return nil
	}
	return x.days[dayKey]
}

// DayKeys returns the indexed day keys in ascending order.
func (x *Index) DayKeys() []string {
	if x == nil {
		return nil
	}
	keys := make([]string, 0, len(x.days))
	for k := range x.days {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// All returns every indexed session sorted by start time.
func (x *Index) All() []*session.Session {
	if x == nil {
		return nil
	}
	return x.all
}

// Len returns the number of indexed sessions.
func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return len(x.all)
}

// Trainers returns the roster derived from the indexed sessions, sorted by name.
func (x *Index) Trainers() []session.Trainer {
	if x == nil {
		return nil
	}
	return x.trainer
}

// ForDay returns an index restricted to one day, the shape day and week grids
// look up by trainer and hour.
func (x *Index) ForDay(dayKey string) *Index {
	return Build(x.ByDay(dayKey))
}
