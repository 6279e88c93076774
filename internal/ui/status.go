package ui

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/coachcal/internal/session"
)

func (a *App) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <session-id> <status>",
		Short: "Set the status of a session",
		Long: `Move a session through its booking workflow.

Statuses:
  available - Open slot waiting for a client
  requested - A client asked for the slot
  scheduled - Booked
  confirmed - Booked and confirmed by the client
  completed - The session took place
  blocked   - Time the trainer cannot take bookings

Use 'coachcal cancel' to cancel a session.

Example:
  coachcal status 3f2a9c1e confirmed`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := session.ParseStatus(args[1])
			if err != nil {
				return err
			}
			if st == session.StatusCancelled {
				return fmt.Errorf("use 'coachcal cancel' to cancel a session")
			}

			eng, err := a.engine(ctx, a.now())
			if err != nil {
				return err
			}
			s, err := a.findSession(ctx, eng, args[0])
			if err != nil {
				return err
			}
			if err := a.repo.UpdateStatus(ctx, s.ID, st); err != nil {
				return fmt.Errorf("setting status: %w", err)
			}

			fmt.Fprintf(a.out, "Set status for session %s: %s %s\n", ShortID(s.ID), statusSymbol(st), st)
			return nil
		},
	}
}
