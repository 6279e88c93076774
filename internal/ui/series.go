package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/coachcal/internal/dateutil"
	"github.com/javiermolinar/coachcal/internal/engine"
	"github.com/javiermolinar/coachcal/internal/series"
	"github.com/javiermolinar/coachcal/internal/session"
)

func (a *App) seriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "series",
		Short: "Manage recurring sessions",
		Long: `Create and manage recurring series of sessions.

A series groups the occurrences of one weekly rule. Shifting or cancelling a
series touches every member that is still upcoming; completed members are
kept as they are.`,
	}
	cmd.AddCommand(a.seriesCreateCmd())
	cmd.AddCommand(a.seriesShowCmd())
	cmd.AddCommand(a.seriesShiftCmd())
	cmd.AddCommand(a.seriesCancelCmd())
	return cmd
}

func (a *App) seriesCreateCmd() *cobra.Command {
	var (
		from     string
		to       string
		weeks    int
		days     []string
		times    []string
		duration int
		status   string
		opts     session.NewOptions
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a recurring series",
		Long: `Create one session per weekday and start time between two dates.

Occurrences in the past or colliding with the trainer's calendar are skipped
and listed.`,
		Example: `  coachcal series create --days=mon,wed --times=18:00 --weeks=8 --trainer=7 --client=c42
  coachcal series create --from=2025-03-03 --to=2025-03-31 --days=fri --times=07:00,08:00 --trainer=9`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			start, err := a.parseDay(from)
			if err != nil {
				return err
			}
			end := start.AddDate(0, 0, weeks*7-1)
			if to != "" {
				if end, err = a.parseDay(to); err != nil {
					return err
				}
			}

			rule := series.Rule{
				StartDate:    start,
				EndDate:      end,
				Times:        times,
				Duration:     duration,
				TrainerID:    opts.TrainerID,
				TrainerName:  opts.TrainerName,
				ClientID:     opts.ClientID,
				ClientName:   opts.ClientName,
				Location:     opts.Location,
				BufferBefore: opts.BufferBefore,
				BufferAfter:  opts.BufferAfter,
			}
			for _, d := range days {
				wd, err := dateutil.ParseWeekday(d)
				if err != nil {
					return err
				}
				rule.DaysOfWeek = append(rule.DaysOfWeek, wd)
			}
			if status != "" {
				if rule.Status, err = session.ParseStatus(status); err != nil {
					return err
				}
			}

			eng, err := a.engine(ctx, start)
			if err != nil {
				return err
			}
			applyDefaults(eng, &rule)
			if err := loadSpan(ctx, eng, start, end); err != nil {
				return err
			}

			report, err := eng.Series.Generate(ctx, rule)
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "Created series %s: %d session(s)\n", ShortID(report.GroupID), len(report.Created))
			width := descWidth()
			for _, s := range report.Created {
				fmt.Fprintf(a.out, "  %s\n", s.SessionDate.Format("Mon 2006-01-02"))
				PrintSessionRow(a.out, s, width)
			}
			if len(report.Skipped) > 0 {
				fmt.Fprintf(a.out, "%s\n", formatHeader(fmt.Sprintf("Skipped %d:", len(report.Skipped))))
				for _, sk := range report.Skipped {
					fmt.Fprintf(a.out, "  %s %s\n", sk.Start.Format("Mon Jan 2 15:04"), formatMuted(sk.Reason))
					for _, c := range sk.Conflicts {
						fmt.Fprintf(a.out, "    %s %s\n", formatConflict(c.Severity, string(c.Kind)), c.Message)
					}
				}
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&from, "from", "", "First day (default: today)")
	f.StringVar(&to, "to", "", "Last day (default: --weeks after --from)")
	f.IntVar(&weeks, "weeks", 4, "Number of weeks when --to is not set")
	f.StringSliceVar(&days, "days", nil, "Weekdays, e.g. mon,wed,fri (required)")
	f.StringSliceVar(&times, "times", nil, "Start times, e.g. 07:00,18:30 (required)")
	f.IntVar(&duration, "duration", 0, "Duration in minutes (default from config)")
	f.StringVar(&opts.TrainerID, "trainer", "", "Trainer ID")
	f.StringVar(&opts.TrainerName, "trainer-name", "", "Trainer display name")
	f.StringVar(&opts.ClientID, "client", "", "Client ID (empty for open slots)")
	f.StringVar(&opts.ClientName, "client-name", "", "Client display name")
	f.StringVar(&opts.Location, "location", "", "Location (default from config)")
	f.IntVar(&opts.BufferBefore, "buffer-before", 0, "Buffer before each session in minutes")
	f.IntVar(&opts.BufferAfter, "buffer-after", 0, "Buffer after each session in minutes")
	f.StringVar(&status, "status", "", "Status of every occurrence")

	_ = cmd.MarkFlagRequired("days")
	_ = cmd.MarkFlagRequired("times")

	return cmd
}

func (a *App) seriesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <series-id>",
		Short: "List the sessions of a series",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eng, err := a.engine(ctx, a.now())
			if err != nil {
				return err
			}
			groupID, err := a.loadGroup(ctx, eng, args[0])
			if err != nil {
				return err
			}
			members, err := eng.Series.Group(groupID)
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "=== %s ===\n", formatHeader("Series "+ShortID(groupID)))
			width := descWidth()
			var stats Stats
			for _, s := range members {
				fmt.Fprintf(a.out, "  %s\n", s.SessionDate.Format("Mon 2006-01-02"))
				PrintSessionRow(a.out, s, width)
				stats.Accumulate(s)
			}
			fmt.Fprintln(a.out)
			PrintStats(a.out, stats)
			return nil
		},
	}
}

func (a *App) seriesShiftCmd() *cobra.Command {
	var (
		by     time.Duration
		days   int
		to     string
		atomic bool
	)

	cmd := &cobra.Command{
		Use:   "shift <series-id>",
		Short: "Move every upcoming session of a series",
		Long: `Move the upcoming sessions of a series by a fixed amount, or to a new
start time on their own days.

Each session is checked on its own. Sessions that conflict stay where they
are while the rest move, unless --atomic is set, in which case either every
session moves or none does.`,
		Example: `  coachcal series shift 9b1c --by=30m
  coachcal series shift 9b1c --days=1
  coachcal series shift 9b1c --to=19:00 --atomic`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var transform series.Transform
			switch {
			case to != "":
				h, m, err := dateutil.ParseClock(to)
				if err != nil {
					return err
				}
				transform = series.MoveTo(h, m)
			case by != 0 || days != 0:
				transform = series.Shift(by + time.Duration(days)*24*time.Hour)
			default:
				return fmt.Errorf("one of --by, --days or --to is required")
			}

			eng, err := a.engine(ctx, a.now())
			if err != nil {
				return err
			}
			groupID, err := a.loadGroup(ctx, eng, args[0])
			if err != nil {
				return err
			}

			report, err := eng.Series.Reschedule(ctx, groupID, transform, series.Options{
				Atomic:     atomic,
				Privileged: a.admin,
			})
			if report != nil {
				printSeriesReport(a, report)
			}
			if errors.Is(err, series.ErrSeriesConflict) {
				return ErrUnresolved
			}
			if err != nil {
				return err
			}
			if len(report.Failed()) > 0 {
				return ErrUnresolved
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.DurationVar(&by, "by", 0, "Shift by a duration, e.g. 30m or -1h")
	f.IntVar(&days, "days", 0, "Shift by whole days")
	f.StringVar(&to, "to", "", "New start time (HH:MM) on each session's day")
	f.BoolVar(&atomic, "atomic", false, "Move every session or none")

	return cmd
}

func (a *App) seriesCancelCmd() *cobra.Command {
	var (
		by     string
		reason string
	)

	cmd := &cobra.Command{
		Use:   "cancel <series-id>",
		Short: "Cancel a series",
		Long: `Cancel every session of a series that is not completed.

Completed sessions stay on record.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eng, err := a.engine(ctx, a.now())
			if err != nil {
				return err
			}
			groupID, err := a.loadGroup(ctx, eng, args[0])
			if err != nil {
				return err
			}

			report, err := eng.Series.Cancel(ctx, groupID, series.CancelOptions{By: by, Reason: reason})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Cancelled %d session(s) of series %s\n", len(report.Cancelled), ShortID(groupID))
			if n := len(report.Completed); n > 0 {
				fmt.Fprintf(a.out, "%s\n", formatMuted(fmt.Sprintf("Kept %d completed session(s).", n)))
			}
			if n := len(report.AlreadyCancelled); n > 0 {
				fmt.Fprintf(a.out, "%s\n", formatMuted(fmt.Sprintf("%d session(s) were already cancelled.", n)))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&by, "by", "trainer", "Who cancels: trainer, client or admin")
	cmd.Flags().StringVar(&reason, "reason", "", "Cancellation reason")

	return cmd
}

func printSeriesReport(a *App, r *series.Report) {
	fmt.Fprintf(a.out, "Series %s: %d moved, %d not moved, %d skipped\n",
		ShortID(r.GroupID), len(r.Succeeded()), len(r.Failed()), len(r.Skipped))
	for _, m := range r.Results {
		mark := formatStats("✓")
		if !m.OK {
			mark = colorHard.Sprint("✗")
		}
		fmt.Fprintf(a.out, "  %s %s → %s %s\n", mark,
			m.From.Format("Mon Jan 2 15:04"), m.To.Format("Mon Jan 2 15:04"),
			formatMuted("["+ShortID(m.SessionID)+"]"))
		for _, c := range m.Conflicts {
			fmt.Fprintf(a.out, "      %s %s\n", formatConflict(c.Severity, string(c.Kind)), c.Message)
		}
		if m.Err != nil {
			fmt.Fprintf(a.out, "      %s\n", colorHard.Sprint(m.Err.Error()))
		}
	}
}

// applyDefaults fills the configured session defaults into a rule.
func applyDefaults(eng *engine.Engine, r *series.Rule) {
	cfg := eng.Config()
	if r.Duration == 0 {
		r.Duration = cfg.Sessions.DefaultDuration
	}
	if r.Location == "" {
		r.Location = cfg.Sessions.DefaultLocation
	}
	if r.BufferBefore == 0 {
		r.BufferBefore = cfg.Sessions.DefaultBufferBefore
	}
	if r.BufferAfter == 0 {
		r.BufferAfter = cfg.Sessions.DefaultBufferAfter
	}
}

// loadSpan loads every session between from and to, padded by the
// alternative search span.
func loadSpan(ctx context.Context, eng *engine.Engine, from, to time.Time) error {
	pad := eng.Config().Conflicts.SearchDays + 1
	return eng.Load(ctx, dateutil.DateRange{
		Start: dateutil.TruncateToDay(from).AddDate(0, 0, -pad),
		End:   dateutil.TruncateToDay(to).AddDate(0, 0, pad),
	})
}

// loadGroup resolves a series ID or unique prefix and loads the span its
// members cover.
func (a *App) loadGroup(ctx context.Context, eng *engine.Engine, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("empty series ID")
	}

	groupID := ref
	seen := make(map[string]bool)
	for _, s := range eng.Store.Sessions() {
		if s.RecurringGroupID == "" || seen[s.RecurringGroupID] || !strings.HasPrefix(s.RecurringGroupID, ref) {
			continue
		}
		seen[s.RecurringGroupID] = true
		groupID = s.RecurringGroupID
	}
	if len(seen) > 1 {
		return "", fmt.Errorf("series ID %q is ambiguous", ref)
	}

	members, err := a.repo.ListGroup(ctx, groupID)
	if err != nil {
		return "", err
	}
	if len(members) == 0 {
		return "", fmt.Errorf("%w: %s", series.ErrGroupNotFound, ref)
	}
	if err := loadSpan(ctx, eng, members[0].SessionDate, members[len(members)-1].SessionDate); err != nil {
		return "", err
	}
	return groupID, nil
}
