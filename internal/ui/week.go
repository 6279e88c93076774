package ui

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/coachcal/internal/projector"
)

func (a *App) weekCmd() *cobra.Command {
	var (
		date    string
		trainer string
		days    int
		offset  int
	)

	cmd := &cobra.Command{
		Use:   "week",
		Short: "Show the week's sessions",
		Long: `Display the week containing a day, one section per day.

With --days=1 or --days=3 only a window of the week is shown, starting at
--offset days into the week. Sessions outside the calendar hours are counted
but not listed.`,
		Example: `  coachcal week
  coachcal week --date=next-week --trainer=7
  coachcal week --days=3 --offset=2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			day, err := a.parseDay(date)
			if err != nil {
				return err
			}
			eng, err := a.engine(cmd.Context(), day)
			if err != nil {
				return err
			}

			p := eng.ViewParams()
			p.VisibleDays = days
			p.DayOffset = offset
			w := projector.Week(viewIndex(eng, trainer), day, p)

			visible := w.Visible()
			end := visible[len(visible)-1].Date
			header := fmt.Sprintf("WEEK: %s - %s", visible[0].Date.Format("Mon Jan 2"), end.Format("Mon Jan 2, 2006"))
			fmt.Fprintf(a.out, "\n  %s\n", formatHeader(header))
			fmt.Fprintln(a.out, strings.Repeat("─", 74))

			width := descWidth()
			var stats Stats
			for _, d := range visible {
				label := d.Label
				if d.IsToday {
					label += " (today)"
				}
				fmt.Fprintf(a.out, "  %s\n", formatHeader(label))
				if len(d.Blocks) == 0 {
					fmt.Fprintf(a.out, "    %s\n", formatMuted("no sessions"))
				}
				for _, b := range d.Blocks {
					PrintSessionRow(a.out, b.Session, width)
					stats.Accumulate(b.Session)
				}
				if d.Hidden > 0 {
					fmt.Fprintf(a.out, "    %s\n", formatMuted(fmt.Sprintf("+%d outside %02d:00-%02d:00", d.Hidden, p.FirstHour, p.LastHour)))
				}
			}

			fmt.Fprintln(a.out, strings.Repeat("─", 74))
			PrintStats(a.out, stats)
			if w.CanGoBack || w.CanGoForward {
				fmt.Fprintf(a.out, "  %s\n", formatMuted(fmt.Sprintf("Days %d-%d of 7", w.DayOffset+1, w.DayOffset+len(visible))))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Any day of the week (default: today)")
	cmd.Flags().StringVar(&trainer, "trainer", "", "Only this trainer")
	cmd.Flags().IntVar(&days, "days", 7, "Visible days: 1, 3 or 7")
	cmd.Flags().IntVar(&offset, "offset", 0, "First visible day within the week")

	return cmd
}
