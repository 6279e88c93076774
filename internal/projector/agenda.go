package projector

import (
	"time"

	"github.com/javiermolinar/coachcal/internal/dateutil"
	"github.com/javiermolinar/coachcal/internal/session"
	"github.com/javiermolinar/coachcal/internal/slotindex"
)

// AgendaGroup is the run of sessions on one day.
type AgendaGroup struct {
	Key      string
	Date     time.Time
	Label    string
	Sessions []*session.Session
}

// AgendaModel is the flat list view, loaded a page at a time.
type AgendaModel struct {
	From    time.Time
	Groups  []AgendaGroup
	Loaded  int
	Total   int
	HasMore bool
}

// Agenda lists sessions from the start of date onward, ascending, grouped by day.
// Only Params.AgendaPages pages of Params.AgendaPageSize sessions are loaded.
func Agenda(idx *slotindex.Index, date time.Time, p Params) AgendaModel {
	p = p.normalized()
	from := dateutil.TruncateToDay(date)

	var upcoming []*session.Session
	for _, s := range idx.All() {
		if !s.SessionDate.Before(from) {
			upcoming = append(upcoming, s)
		}
	}

	limit := p.AgendaPageSize * p.AgendaPages
	m := AgendaModel{From: from, Total: len(upcoming)}
	if len(upcoming) > limit {
		upcoming = upcoming[:limit]
		m.HasMore = true
	}
	m.Loaded = len(upcoming)

	for _, s := range upcoming {
		key := dateutil.DayKey(s.SessionDate)
		if n := len(m.Groups); n == 0 || m.Groups[n-1].Key != key {
			day := dateutil.TruncateToDay(s.SessionDate)
			m.Groups = append(m.Groups, AgendaGroup{
				Key:   key,
				Date:  day,
				Label: dateutil.DayLabel(day, p.Now),
			})
		}
		g := &m.Groups[len(m.Groups)-1]
		g.Sessions = append(g.Sessions, s)
	}
	return m
}

// ShouldLoadMore reports whether a scroll position is within threshold of the
// end of the loaded content.
func ShouldLoadMore(offset, viewport, content, threshold int) bool {
	return offset+viewport >= content-threshold
}
