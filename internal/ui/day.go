package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/spf13/cobra"

	"github.com/javiermolinar/coachcal/internal/projector"
)

func (a *App) dayCmd() *cobra.Command {
	var (
		date     string
		stacked  bool
		more     int
		all      bool
		compact  bool
		expanded []string
	)

	cmd := &cobra.Command{
		Use:     "day",
		Aliases: []string{"show"},
		Short:   "Show one day per trainer",
		Long: `Display a day as one column of hourly slots per trainer.

Use --stacked for the paginated layout: trainers are listed a page at a time
(--more loads further pages) and only the trainers named with --expand show
their slots. --all adds a column with every trainer's sessions.`,
		Example: `  coachcal day
  coachcal day --date=tomorrow --all
  coachcal day --stacked --more=1 --expand=7,9`,
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
			roster, err := a.repo.ListTrainers(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing trainers: %w", err)
			}
			p.Trainers = roster
			p.ShowAllTrainers = all
			if compact {
				p.Density = projector.DensityCompact
			}
			for range more {
				p = p.ShowMore()
			}
			if len(expanded) > 0 {
				p.Expanded = make(map[string]bool, len(expanded))
				for _, id := range expanded {
					p.Expanded[id] = true
				}
			}

			var m projector.DayModel
			if stacked {
				m = projector.DayStacked(eng.Store.Index(), day, p)
			} else {
				m = projector.Day(eng.Store.Index(), day, p)
			}
			renderDay(a, m)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&date, "date", "", "Day to show (default: today)")
	f.BoolVar(&stacked, "stacked", false, "Stacked, paginated trainer sections")
	f.IntVar(&more, "more", 0, "Extra pages of trainers in the stacked layout")
	f.BoolVar(&all, "all", false, "Add a column with every trainer's sessions")
	f.BoolVar(&compact, "compact", false, "Label every other hour")
	f.StringSliceVar(&expanded, "expand", nil, "Trainer IDs to expand in the stacked layout")

	return cmd
}

func renderDay(a *App, m projector.DayModel) {
	fmt.Fprintf(a.out, "=== %s ===\n", formatHeader(m.Label+" · "+m.Date.Format("Monday, January 2, 2006")))
	if len(m.Columns) == 0 && m.All == nil {
		fmt.Fprintln(a.out, "No trainers scheduled.")
		return
	}

	width := descWidth()
	columns := m.Columns
	if m.All != nil {
		columns = append([]projector.Column{*m.All}, columns...)
	}
	for _, col := range columns {
		fmt.Fprintf(a.out, "\n  %s  %s\n", formatHeader(col.Trainer.DisplayName()), formatMuted(col.Summary()))
		if !col.Expanded {
			continue
		}
		for _, slot := range col.Slots {
			renderSlot(a, m, slot, width)
		}
	}

	if m.HasMore {
		fmt.Fprintf(a.out, "\n  %s\n", formatMuted(fmt.Sprintf("%d more trainer(s), use --more to show them", m.HiddenTrainers)))
	}
}

func renderSlot(a *App, m projector.DayModel, slot projector.Slot, width int) {
	label := "     "
	if m.Labeled[slot.Hour] {
		label = fmt.Sprintf("%02d:00", slot.Hour)
	}

	switch slot.State {
	case projector.SlotOccupied:
		for i, b := range slot.Sessions {
			prefix := label
			if i > 0 {
				prefix = strings.Repeat(" ", len(label))
			}
			desc := ansi.Truncate(Describe(b.Session), width, "...")
			fmt.Fprintf(a.out, "  %s  %s %s %s\n", formatMuted(prefix), statusSymbol(b.Session.Status),
				TimeRange(b.Session), desc)
		}
	case projector.SlotPast:
		fmt.Fprintf(a.out, "  %s  %s\n", formatMuted(label), formatMuted(slotLabel(slot, "·")))
	default:
		fmt.Fprintf(a.out, "  %s  %s\n", formatMuted(label), colorOpen.Sprint(slot.Label))
	}
}

func slotLabel(slot projector.Slot, fallback string) string {
	if slot.Label != "" {
		return slot.Label
	}
	return fallback
}
