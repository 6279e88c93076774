package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/coachcal/internal/conflict"
	"github.com/javiermolinar/coachcal/internal/dateutil"
	"github.com/javiermolinar/coachcal/internal/dragdrop"
	"github.com/javiermolinar/coachcal/internal/engine"
	"github.com/javiermolinar/coachcal/internal/session"
)

// checkAttempts bounds retries of a conflict check that could not complete.
const checkAttempts = 3

func (a *App) moveCmd() *cobra.Command {
	var (
		date     string
		start    string
		trainer  string
		alt      int
		override bool
	)

	cmd := &cobra.Command{
		Use:     "move <session-id>",
		Aliases: []string{"reschedule"},
		Short:   "Move a session to a new date/time",
		Long: `Move a session the way dragging it in the calendar does.

The move is checked for conflicts first. When there are conflicts nothing
changes and the nearest free alternatives are listed; rerun with --alt=N to
take one of them. Admins can keep the requested time with --override.

Open slots, blocked time, completed and cancelled sessions cannot be moved.`,
		Example: `  coachcal move 3f2a9c1e --start=10:00
  coachcal move 3f2a9c1e --date=friday --start=18:00 --trainer=9
  coachcal move 3f2a9c1e --start=10:00 --alt=1
  coachcal --admin move 3f2a9c1e --start=10:00 --override`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eng, err := a.engine(ctx, a.now())
			if err != nil {
				return err
			}
			s, err := a.findSession(ctx, eng, args[0])
			if err != nil {
				return err
			}
			to, err := a.targetStart(s.SessionDate, date, start)
			if err != nil {
				return err
			}
			if err := ensureLoaded(ctx, eng, s, to); err != nil {
				return err
			}

			from := s.SessionDate
			m := eng.DragManager()
			if err := m.Begin(s.ID); err != nil {
				return err
			}
			ticket, err := m.Drop(s.ID, &dragdrop.Target{
				Day:       to,
				Hour:      to.Hour(),
				Minute:    to.Minute(),
				TrainerID: trainer,
			})
			if err != nil {
				return err
			}
			tr, err := resolveDrag(ctx, m, ticket)
			if err != nil {
				return err
			}

			if tr.To == dragdrop.ConflictPresented {
				res := m.Conflicts(s.ID)
				switch {
				case alt > 0:
					ticket, err := m.PickAlternative(s.ID, alt-1)
					if err != nil {
						m.Cancel(s.ID)
						return err
					}
					if tr, err = resolveDrag(ctx, m, ticket); err != nil {
						return err
					}
				case override:
					if tr, err = m.Override(ctx, s.ID); err != nil {
						m.Cancel(s.ID)
						return err
					}
				}
				if tr.To == dragdrop.ConflictPresented {
					PrintResult(a.out, m.Conflicts(s.ID))
					m.Cancel(s.ID)
					if len(res.Alternatives) > 0 && alt == 0 {
						fmt.Fprintf(a.out, "%s\n", formatMuted("Rerun with --alt=N to take an alternative."))
					}
					return ErrUnresolved
				}
			}
			if tr.To == dragdrop.Dropped {
				m.Cancel(s.ID)
				return conflict.ErrCheckFailed
			}

			moved, err := eng.Store.Get(s.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Moved session %s: %s → %s %s\n",
				ShortID(moved.ID),
				from.Format("Mon Jan 2 15:04"),
				moved.SessionDate.Format("Mon Jan 2 15:04"),
				Describe(moved),
			)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&date, "date", "", "New date (default: the session's date)")
	f.StringVar(&start, "start", "", "New start time (HH:MM, required)")
	f.StringVar(&trainer, "trainer", "", "New trainer ID (default: keep the trainer)")
	f.IntVar(&alt, "alt", 0, "Take the Nth suggested alternative if the time conflicts")
	f.BoolVar(&override, "override", false, "Keep the time despite conflicts (admin only)")

	_ = cmd.MarkFlagRequired("start")

	return cmd
}

// resolveDrag runs a ticket's check and applies the outcome, retrying checks
// that could not complete.
func resolveDrag(ctx context.Context, m *dragdrop.Manager, ticket *dragdrop.Ticket) (dragdrop.Transition, error) {
	var (
		tr  dragdrop.Transition
		err error
	)
	for attempt := 1; ; attempt++ {
		tr, err = m.Resolve(ctx, m.Check(ctx, *ticket))
		if err != nil || tr.To != dragdrop.Dropped || attempt == checkAttempts {
			return tr, err
		}
		if ticket, err = m.Retry(ticket.SessionID); err != nil {
			return tr, err
		}
	}
}

// targetStart resolves the destination of a move. An empty date keeps the
// session's day.
func (a *App) targetStart(current time.Time, date, clock string) (time.Time, error) {
	day := dateutil.TruncateToDay(current)
	if date != "" {
		var err error
		if day, err = a.parseDay(date); err != nil {
			return time.Time{}, err
		}
	}
	h, m, err := dateutil.ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return dateutil.At(day, h, m), nil
}

// ensureLoaded makes sure the store covers the destination day and still holds
// the session being moved.
func ensureLoaded(ctx context.Context, eng *engine.Engine, s *session.Session, to time.Time) error {
	if eng.Store.Window().Contains(to) {
		return nil
	}
	if err := eng.LoadAround(ctx, to); err != nil {
		return fmt.Errorf("loading sessions: %w", err)
	}
	if _, err := eng.Store.Get(s.ID); errors.Is(err, session.ErrSessionNotFound) {
		return eng.Store.Add(s.Clone())
	}
	return nil
}
