package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/coachcal/internal/dateutil"
	"github.com/javiermolinar/coachcal/internal/db"
	"github.com/javiermolinar/coachcal/internal/session"
)

// ImportReport summarizes an import.
type ImportReport struct {
	Imported int
	Existing int // already present, same ID
	Overlaps int // rejected, the trainer is busy at that time
	Trainers int
}

func (a *App) importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [database_path]",
		Short: "Import sessions from another database",
		Long: `Import all sessions and trainers from another coachcal database into the
current one.

Sessions keep their IDs, so importing the same database twice is harmless.
Sessions that would overlap a trainer's existing sessions are skipped.

Example:
  coachcal import /path/to/other.db`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}

			sourcePath, err := resolvePath(args[0])
			if err != nil {
				return err
			}
			destPath, err := resolvePath(a.config.Storage.DBPath)
			if err != nil {
				return err
			}

			if sourcePath == destPath {
				return fmt.Errorf("source database matches current database")
			}

			info, err := os.Stat(sourcePath)
			if err != nil {
				if os.IsNotExist(err) {
					return fmt.Errorf("source database does not exist: %s", sourcePath)
				}
				return fmt.Errorf("checking source database: %w", err)
			}
			if info.IsDir() {
				return fmt.Errorf("source database path is a directory: %s", sourcePath)
			}

			report, err := importSessions(cmd.Context(), a.repo, sourcePath)
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "Imported %d sessions and %d trainers from %s\n", report.Imported, report.Trainers, sourcePath)
			if report.Existing > 0 || report.Overlaps > 0 {
				fmt.Fprintf(a.out, "%s\n", formatMuted(fmt.Sprintf("Skipped %d already present, %d overlapping.",
					report.Existing, report.Overlaps)))
			}
			return nil
		},
	}

	return cmd
}

// allTime covers every day a session can be stored under.
var allTime = dateutil.DateRange{
	Start: time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC),
	End:   time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC),
}

func importSessions(ctx context.Context, dest Repository, sourcePath string) (*ImportReport, error) {
	sourceRepo, err := db.New(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("opening source database: %w", err)
	}
	defer func() { _ = sourceRepo.Close() }()

	report := &ImportReport{}

	trainers, err := sourceRepo.ListTrainers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing source trainers: %w", err)
	}
	for _, t := range trainers {
		if err := dest.SaveTrainer(ctx, t); err != nil {
			return report, fmt.Errorf("importing trainer %s: %w", t.ID, err)
		}
		report.Trainers++
	}

	sessions, err := sourceRepo.FetchSessions(ctx, allTime, session.Filter{})
	if err != nil {
		return nil, fmt.Errorf("listing source sessions: %w", err)
	}

	for _, s := range sessions {
		_, err := dest.GetSession(ctx, s.ID)
		if err == nil {
			report.Existing++
			continue
		}
		if !errors.Is(err, session.ErrSessionNotFound) {
			return report, fmt.Errorf("checking session %s: %w", s.ID, err)
		}

		err = dest.CreateSessions(ctx, []*session.Session{s})
		switch {
		case errors.Is(err, db.ErrOverlap):
			report.Overlaps++
		case err != nil:
			return report, fmt.Errorf("importing session %s: %w", s.ID, err)
		default:
			report.Imported++
		}
	}

	return report, nil
}
