package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/spf13/cobra"

	"github.com/javiermolinar/coachcal/internal/summary"
)

func (a *App) summaryCmd() *cobra.Command {
	var (
		date      string
		trainer   string
		peakStart string
		peakEnd   string
	)

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarize a week per trainer",
		Long: `Show booked, open and blocked sessions per trainer for the ISO week
containing a day, with booked hours and utilization.

With --peak-start and --peak-end the booked minutes inside that daily window
are reported as well.`,
		Example: `  coachcal summary
  coachcal summary --date=last-week --trainer=7
  coachcal summary --peak-start=17:00 --peak-end=20:00`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			day, err := a.parseDay(date)
			if err != nil {
				return err
			}
			if err := a.ensureRepo(); err != nil {
				return err
			}

			sum, err := summary.BuildWeekSummary(cmd.Context(), a.repo, summary.BuildWeekSummaryOptions{
				WeekStart: day,
				TrainerID: trainer,
				PeakStart: peakStart,
				PeakEnd:   peakEnd,
			})
			if err != nil {
				return err
			}

			header := fmt.Sprintf("SUMMARY: %s - %s", sum.Start.Format("Mon Jan 2"), sum.End.Format("Mon Jan 2, 2006"))
			fmt.Fprintf(a.out, "\n  %s\n", formatHeader(header))
			fmt.Fprintln(a.out, strings.Repeat("─", 74))

			if len(sum.Trainers) == 0 {
				fmt.Fprintf(a.out, "  %s\n", formatMuted("no sessions this week"))
				return nil
			}
			for _, tw := range sum.Trainers {
				printTrainerWeek(a, tw, peakStart != "" && peakEnd != "")
			}

			fmt.Fprintln(a.out, strings.Repeat("─", 74))
			PrintStats(a.out, Stats{
				BookedMinutes: sum.Total.BookedMinutes,
				Booked:        sum.Total.Booked,
				Open:          sum.Total.Open,
				Blocked:       sum.Total.Blocked,
				Cancelled:     sum.Total.Cancelled,
				Completed:     sum.Total.Completed,
			})
			fmt.Fprintf(a.out, "  %s\n", formatMuted(fmt.Sprintf("Clients: %d", sum.Total.Clients)))
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Any day of the week (default: today)")
	cmd.Flags().StringVar(&trainer, "trainer", "", "Only this trainer")
	cmd.Flags().StringVar(&peakStart, "peak-start", "", "Start of the daily peak window (HH:MM)")
	cmd.Flags().StringVar(&peakEnd, "peak-end", "", "End of the daily peak window (HH:MM)")

	return cmd
}

func printTrainerWeek(a *App, tw summary.TrainerWeek, peak bool) {
	name := tw.Trainer.DisplayName()
	if tw.Trainer.ID == "" {
		name = "Unassigned"
	}
	line := fmt.Sprintf("%-20s %s  %s  %s  %s",
		ansi.Truncate(name, 20, "..."),
		colorBooked.Sprintf("%2d booked", tw.Booked+tw.Completed),
		colorOpen.Sprintf("%2d open", tw.Open),
		formatStats(fmt.Sprintf("%6s", FormatDuration(tw.BookedMinutes))),
		formatStats(fmt.Sprintf("%3d%%", tw.Utilization())))
	if peak {
		line += "  " + formatMuted("peak "+FormatDuration(tw.PeakMinutes))
	}
	fmt.Fprintf(a.out, "  %s\n", line)
}
