package ui

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/coachcal/internal/session"
)

func (a *App) addCmd() *cobra.Command {
	var (
		date     string
		start    string
		duration int
		opts     session.NewOptions
		status   string
		force    bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new session",
		Long: `Add a session to the calendar.

The session is checked against the trainer's calendar first. Conflicting
sessions are not saved; admins can save them anyway with --force.

Without a client the session is an open slot. Use --status blocked to mark
time the trainer cannot take bookings.

Example:
  coachcal add --date=tomorrow --start=09:00 --trainer=7 --trainer-name=Bea --client=c42 --client-name="Ann Lee"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			startAt, err := a.parseStart(date, start)
			if err != nil {
				return err
			}
			if status != "" {
				st, err := session.ParseStatus(status)
				if err != nil {
					return err
				}
				opts.Status = st
			}

			eng, err := a.engine(cmd.Context(), startAt)
			if err != nil {
				return err
			}
			s, err := eng.NewSession(startAt, duration, opts)
			if err != nil {
				return err
			}

			res, err := eng.Book(cmd.Context(), s, force)
			if err != nil {
				return err
			}
			if res.HasConflicts && !(force && a.admin) {
				PrintResult(a.out, res)
				return ErrUnresolved
			}

			fmt.Fprintf(a.out, "Created session %s: %s %s %s\n",
				ShortID(s.ID),
				s.SessionDate.Format("Mon 2006-01-02"),
				TimeRange(s),
				Describe(s),
			)
			if res.HasConflicts {
				fmt.Fprintf(a.out, "%s\n", formatMuted(fmt.Sprintf("Saved over %d conflict(s).", len(res.Conflicts))))
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&date, "date", "", "Session date (YYYY-MM-DD, today, tomorrow, monday..., default: today)")
	f.StringVar(&start, "start", "", "Start time (HH:MM, required)")
	f.IntVar(&duration, "duration", 0, "Duration in minutes (default from config)")
	f.StringVar(&opts.TrainerID, "trainer", "", "Trainer ID")
	f.StringVar(&opts.TrainerName, "trainer-name", "", "Trainer display name")
	f.StringVar(&opts.ClientID, "client", "", "Client ID (empty for an open slot)")
	f.StringVar(&opts.ClientName, "client-name", "", "Client display name")
	f.StringVar(&opts.Location, "location", "", "Location (default from config)")
	f.IntVar(&opts.BufferBefore, "buffer-before", 0, "Buffer before the session in minutes")
	f.IntVar(&opts.BufferAfter, "buffer-after", 0, "Buffer after the session in minutes")
	f.StringVar(&status, "status", "", "Status: available, scheduled, confirmed, requested or blocked")
	f.BoolVar(&force, "force", false, "Save despite conflicts (admin only)")

	_ = cmd.MarkFlagRequired("start")

	return cmd
}
