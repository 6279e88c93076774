package ui

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/coachcal/internal/conflict"
)

func (a *App) checkCmd() *cobra.Command {
	var (
		date    string
		start   string
		trainer string
	)

	cmd := &cobra.Command{
		Use:   "check <session-id>",
		Short: "Check whether a session can move to a new time",
		Long: `Run the conflict check for a proposed move without changing anything.

Prints every conflict the placement would cause and the nearest free
alternatives. The session ID can be shortened to any unique prefix.`,
		Example: `  coachcal check 3f2a9c1e --start=10:00
  coachcal check 3f2a9c1e --date=friday --start=18:00 --trainer=9`,
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

			res, err := eng.Checker.Check(ctx, conflict.Placement{
				SessionID:  s.ID,
				Start:      to,
				TrainerID:  trainer,
				Privileged: a.admin,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s → %s\n", s.SessionDate.Format("Mon Jan 2 15:04"), to.Format("Mon Jan 2 15:04"))
			PrintResult(a.out, res)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "New date (default: the session's date)")
	cmd.Flags().StringVar(&start, "start", "", "New start time (HH:MM, required)")
	cmd.Flags().StringVar(&trainer, "trainer", "", "New trainer ID (default: keep the trainer)")

	_ = cmd.MarkFlagRequired("start")

	return cmd
}
