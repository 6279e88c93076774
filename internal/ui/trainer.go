package ui

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/coachcal/internal/session"
)

func (a *App) trainerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trainer",
		Short: "Manage the trainer roster",
		Long: `Manage the trainers shown as day view columns.

Without a recorded roster the columns are derived from the trainers of the
loaded sessions.`,
	}
	cmd.AddCommand(a.trainerAddCmd())
	cmd.AddCommand(a.trainerListCmd())
	return cmd
}

func (a *App) trainerAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add [id] [name]",
		Short: "Add or rename a trainer",
		Long: `Add a trainer to the roster, or rename an existing one.

Example:
  coachcal trainer add 7 "Bea Ortiz"`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}
			t := session.Trainer{
				ID:   strings.TrimSpace(args[0]),
				Name: strings.TrimSpace(strings.Join(args[1:], " ")),
			}
			if t.ID == "" {
				return fmt.Errorf("trainer ID cannot be empty")
			}
			if err := a.repo.SaveTrainer(cmd.Context(), t); err != nil {
				return fmt.Errorf("saving trainer: %w", err)
			}
			fmt.Fprintf(a.out, "Saved trainer %s: %s\n", t.ID, t.Name)
			return nil
		},
	}
}

func (a *App) trainerListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List trainers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, err := a.engine(cmd.Context(), a.now())
			if err != nil {
				return err
			}
			roster, err := eng.Trainers(cmd.Context())
			if err != nil {
				return err
			}
			if len(roster) == 0 {
				fmt.Fprintln(a.out, "No trainers.")
				return nil
			}
			fmt.Fprintf(a.out, "%s\n", formatHeader("Trainers"))
			for _, t := range roster {
				fmt.Fprintf(a.out, "  %-3s %-10s %s\n", t.Initials(), t.ID, t.DisplayName())
			}
			return nil
		},
	}
}
