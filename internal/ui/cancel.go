package ui

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *App) cancelCmd() *cobra.Command {
	var (
		by     string
		reason string
	)

	cmd := &cobra.Command{
		Use:   "cancel <session-id>...",
		Short: "Cancel sessions",
		Long: `Cancel one or more sessions by ID or unique ID prefix.

Cancelled sessions stay on record but no longer occupy the calendar.
Completed sessions cannot be cancelled. To cancel a whole recurring series
use 'coachcal series cancel'.`,
		Example: `  coachcal cancel 3f2a9c1e
  coachcal cancel 3f2a9c1e 77b0d4aa --reason="studio closed"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eng, err := a.engine(ctx, a.now())
			if err != nil {
				return err
			}

			ids := make([]string, 0, len(args))
			for _, ref := range args {
				s, err := a.findSession(ctx, eng, ref)
				if err != nil {
					return err
				}
				if s.IsCompleted() {
					return fmt.Errorf("session %s is completed", ShortID(s.ID))
				}
				ids = append(ids, s.ID)
			}

			if err := a.repo.CancelSessions(ctx, ids, by, reason); err != nil {
				return fmt.Errorf("cancelling sessions: %w", err)
			}
			if _, err := eng.Store.Cancel(ids, by, reason); err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintf(a.out, "Cancelled session %s\n", ShortID(id))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&by, "by", "trainer", "Who cancels: trainer, client or admin")
	cmd.Flags().StringVar(&reason, "reason", "", "Cancellation reason")

	return cmd
}
