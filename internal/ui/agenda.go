package ui

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/coachcal/internal/engine"
	"github.com/javiermolinar/coachcal/internal/projector"
	"github.com/javiermolinar/coachcal/internal/slotindex"
)

func (a *App) agendaCmd() *cobra.Command {
	var (
		date    string
		trainer string
		pages   int
	)

	cmd := &cobra.Command{
		Use:     "agenda",
		Aliases: []string{"list"},
		Short:   "List upcoming sessions",
		Long: `List sessions from a day onward, grouped by day.

Sessions are loaded a page at a time; use --pages to load more.`,
		Example: `  coachcal agenda
  coachcal agenda --date=monday --trainer=7
  coachcal agenda --pages=3`,
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
			p.AgendaPages = pages
			m := projector.Agenda(viewIndex(eng, trainer), day, p)
			if m.Total == 0 {
				fmt.Fprintln(a.out, "No upcoming sessions.")
				return nil
			}

			width := descWidth()
			var stats Stats
			for i, g := range m.Groups {
				if i > 0 {
					fmt.Fprintln(a.out)
				}
				fmt.Fprintf(a.out, "=== %s ===\n", formatHeader(g.Label))
				for _, s := range g.Sessions {
					PrintSessionRow(a.out, s, width)
					stats.Accumulate(s)
				}
			}

			fmt.Fprintln(a.out)
			PrintStats(a.out, stats)
			if m.HasMore {
				fmt.Fprintf(a.out, "%s\n", formatMuted(fmt.Sprintf("Showing %d of %d sessions, use --pages=%d for more.",
					m.Loaded, m.Total, pages+1)))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "First day (default: today)")
	cmd.Flags().StringVar(&trainer, "trainer", "", "Only this trainer")
	cmd.Flags().IntVar(&pages, "pages", 1, "Pages of sessions to load")

	return cmd
}

// viewIndex returns the index of the loaded sessions, narrowed to one trainer
// when trainerID is set.
func viewIndex(eng *engine.Engine, trainerID string) *slotindex.Index {
	if trainerID == "" {
		return eng.Store.Index()
	}
	return slotindex.Build(eng.Store.TrainerSessions(trainerID))
}

