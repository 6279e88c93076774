package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/spf13/cobra"

	"github.com/javiermolinar/coachcal/internal/projector"
)

// monthCellWidth fits "dd ●●●+9".
const monthCellWidth = 10

func (a *App) monthCmd() *cobra.Command {
	var (
		date    string
		trainer string
	)

	cmd := &cobra.Command{
		Use:   "month",
		Short: "Show the month grid",
		Long: `Show a six-week grid of the month with one marker per session.

Days with more sessions than markers show the remainder as +N.`,
		Example: `  coachcal month
  coachcal month --date=2025-03-01 --trainer=7`,
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
			m := projector.Month(viewIndex(eng, trainer), day, eng.ViewParams())
			renderMonth(a, m)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Any day of the month (default: today)")
	cmd.Flags().StringVar(&trainer, "trainer", "", "Only this trainer")

	return cmd
}

func renderMonth(a *App, m projector.MonthModel) {
	fmt.Fprintf(a.out, "=== %s ===\n\n", formatHeader(m.Month.Format("January 2006")))

	var header strings.Builder
	for _, c := range m.Cells[:7] {
		header.WriteString(padRight(c.Date.Format("Mon"), monthCellWidth))
	}
	fmt.Fprintln(a.out, formatMuted(strings.TrimRight(header.String(), " ")))

	for _, week := range m.Weeks() {
		var line strings.Builder
		for _, c := range week {
			line.WriteString(padRight(monthCell(c), monthCellWidth))
		}
		fmt.Fprintln(a.out, strings.TrimRight(line.String(), " "))
	}

	fmt.Fprintf(a.out, "\n  %s\n", formatStats(fmt.Sprintf("%d sessions this month", m.Total)))
}

func monthCell(c projector.MonthCell) string {
	num := fmt.Sprintf("%2d", c.Date.Day())
	switch {
	case c.IsToday:
		num = formatHeader(num)
	case !c.InMonth:
		num = formatMuted(num)
	}
	if c.Count == 0 {
		return num
	}

	var orbs strings.Builder
	for _, o := range c.Orbs {
		orbs.WriteString(statusSymbol(o.Status))
	}
	if c.Overflow > 0 {
		orbs.WriteString(formatMuted(fmt.Sprintf("+%d", c.Overflow)))
	}
	return num + " " + orbs.String()
}

// padRight pads s with spaces to width display columns.
func padRight(s string, width int) string {
	if w := ansi.StringWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
