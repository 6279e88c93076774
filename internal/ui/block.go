package ui

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/coachcal/internal/dateutil"
	"github.com/javiermolinar/coachcal/internal/db"
	"github.com/javiermolinar/coachcal/internal/session"
)

func (a *App) blockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "block",
		Short: "Manage trainer unavailability",
		Long: `Record periods in which a trainer cannot take sessions.

Sessions placed over a block are reported as trainer-unavailable conflicts.`,
	}
	cmd.AddCommand(a.blockAddCmd())
	cmd.AddCommand(a.blockListCmd())
	cmd.AddCommand(a.blockDeleteCmd())
	return cmd
}

func (a *App) blockAddCmd() *cobra.Command {
	var (
		trainer string
		date    string
		start   string
		end     string
		reason  string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Block a trainer's time",
		Long: `Block a period of a trainer's day.

Example:
  coachcal block add --trainer=7 --date=friday --start=12:00 --end=14:00 --reason=physio`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}
			from, err := a.parseStart(date, start)
			if err != nil {
				return err
			}
			to, err := a.parseStart(date, end)
			if err != nil {
				return err
			}
			b := &db.Block{
				TrainerID: trainer,
				Interval:  session.Interval{Start: from, End: to},
				Reason:    reason,
			}
			if err := a.repo.AddBlock(cmd.Context(), b); err != nil {
				return fmt.Errorf("adding block: %w", err)
			}
			fmt.Fprintf(a.out, "Blocked trainer %s on %s %s (block #%d)\n",
				trainer, from.Format("Mon"), b.Interval, b.ID)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&trainer, "trainer", "", "Trainer ID (required)")
	f.StringVar(&date, "date", "", "Date (default: today)")
	f.StringVar(&start, "start", "", "Start time (HH:MM, required)")
	f.StringVar(&end, "end", "", "End time (HH:MM, required)")
	f.StringVar(&reason, "reason", "", "Reason shown in conflicts")

	_ = cmd.MarkFlagRequired("trainer")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}

func (a *App) blockListCmd() *cobra.Command {
	var (
		trainer string
		date    string
		days    int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List unavailability blocks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}
			from, err := a.parseDay(date)
			if err != nil {
				return err
			}
			if days < 1 {
				days = 1
			}
			r := dateutil.DateRange{Start: from, End: from.AddDate(0, 0, days-1)}
			blocks, err := a.repo.ListBlocks(cmd.Context(), trainer, r)
			if err != nil {
				return fmt.Errorf("listing blocks: %w", err)
			}
			if len(blocks) == 0 {
				fmt.Fprintln(a.out, "No blocks.")
				return nil
			}
			for _, b := range blocks {
				fmt.Fprintf(a.out, "  #%-4d %-8s %s %s  %s\n", b.ID, b.TrainerID,
					b.Interval.Start.Format("Mon"), b.Interval, formatMuted(b.Reason))
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&trainer, "trainer", "", "Only this trainer")
	f.StringVar(&date, "date", "", "First day (default: today)")
	f.IntVar(&days, "days", 7, "Number of days")

	return cmd
}

func (a *App) blockDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [block-id]",
		Short: "Delete an unavailability block",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid block ID: %w", err)
			}
			if err := a.repo.DeleteBlock(cmd.Context(), id); err != nil {
				return fmt.Errorf("deleting block: %w", err)
			}
			fmt.Fprintf(a.out, "Deleted block #%d\n", id)
			return nil
		},
	}
}
