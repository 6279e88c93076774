package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/javiermolinar/coachcal/internal/config"
	"github.com/javiermolinar/coachcal/internal/dateutil"
	"github.com/javiermolinar/coachcal/internal/db"
	"github.com/javiermolinar/coachcal/internal/engine"
	"github.com/javiermolinar/coachcal/internal/logging"
	"github.com/javiermolinar/coachcal/internal/session"
	"github.com/javiermolinar/coachcal/internal/tui"
)

var (
	// Version is set at build time
	Version = "dev"
	// Commit is set at build time
	Commit = "none"
)

// ErrUnresolved is returned when a placement was refused because of conflicts.
var ErrUnresolved = errors.New("placement has unresolved conflicts")

// Repository is the storage the CLI runs against.
type Repository interface {
	engine.Repository
	ListGroup(ctx context.Context, groupID string) ([]*session.Session, error)
	AddBlock(ctx context.Context, b *db.Block) error
	DeleteBlock(ctx context.Context, id int64) error
	ListBlocks(ctx context.Context, trainerID string, r dateutil.DateRange) ([]db.Block, error)
}

// App holds the CLI application state.
type App struct {
	repo   Repository
	config *config.Config
	log    *zap.Logger
	root   *cobra.Command
	out    io.Writer
	now    func() time.Time

	debug   bool // Enable debug logging
	admin   bool // Allow past-time moves and conflict overrides
	noColor bool
}

// NewApp creates a new CLI application with the given repository and config.
// A nil repository is opened from the configured database path on first use.
func NewApp(repo Repository, cfg *config.Config) *App {
	a := &App{repo: repo, config: cfg, out: os.Stdout, now: time.Now}

	a.root = &cobra.Command{
		Use:   "coachcal",
		Short: "A trainer calendar with conflict-checked scheduling",
		Long: `Coachcal keeps a studio's trainer sessions on one calendar.

Sessions can be booked, moved and cancelled from the command line or from the
interactive calendar. Every placement is checked for double-booking, buffer
violations, past times and trainer unavailability before it is saved.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return a.setup()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, err := a.engine(cmd.Context(), a.now())
			if err != nil {
				return err
			}
			return tui.Run(eng, tui.Options{Debug: a.debug, NoColor: a.noColor})
		},
	}

	// Add global flags
	flags := a.root.PersistentFlags()
	flags.BoolVar(&a.debug, "debug", false, "Enable debug logging (logs to file)")
	flags.BoolVar(&a.admin, "admin", false, "Act as an administrator (override conflicts, edit the past)")
	flags.BoolVar(&a.noColor, "no-color", false, "Disable colored output")

	a.root.AddCommand(a.versionCmd())
	a.root.AddCommand(a.configCmd())
	a.root.AddCommand(a.addCmd())
	a.root.AddCommand(a.trainerCmd())
	a.root.AddCommand(a.blockCmd())
	a.root.AddCommand(a.agendaCmd())
	a.root.AddCommand(a.monthCmd())
	a.root.AddCommand(a.weekCmd())
	a.root.AddCommand(a.dayCmd())
	a.root.AddCommand(a.checkCmd())
	a.root.AddCommand(a.moveCmd())
	a.root.AddCommand(a.cancelCmd())
	a.root.AddCommand(a.statusCmd())
	a.root.AddCommand(a.seriesCmd())
	a.root.AddCommand(a.summaryCmd())
	a.root.AddCommand(a.importCmd())

	return a
}

// SetOutput redirects command output.
func (a *App) SetOutput(w io.Writer) {
	a.out = w
	a.root.SetOut(w)
	a.root.SetErr(w)
}

// SetClock replaces the clock used to resolve relative dates and past times.
func (a *App) SetClock(now func() time.Time) {
	a.now = now
}

// SetArgs sets the command line, for tests.
func (a *App) SetArgs(args []string) {
	a.root.SetArgs(args)
}

func (a *App) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(a.out, "coachcal %s (commit: %s)\n", Version, Commit)
		},
	}
}

// Execute runs the CLI application.
func (a *App) Execute() error {
	return a.root.Execute()
}

// Close releases the repository and flushes the logger.
func (a *App) Close() error {
	var err error
	if a.repo != nil {
		err = a.repo.Close()
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
	return err
}

func (a *App) setup() error {
	if a.noColor {
		DisableColor()
	}
	if a.log == nil {
		log, err := logging.New(a.config.Log, logging.Options{Debug: a.debug})
		if err != nil {
			return fmt.Errorf("creating logger: %w", err)
		}
		a.log = log
	}
	return nil
}

// ensureRepo opens the configured database if no repository was injected.
func (a *App) ensureRepo() error {
	if a.repo != nil {
		return nil
	}
	path, err := resolvePath(a.config.Storage.DBPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	repo, err := db.New(path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	a.repo = repo
	return nil
}

// engine opens the repository and loads the calendar around day.
func (a *App) engine(ctx context.Context, day time.Time) (*engine.Engine, error) {
	if err := a.ensureRepo(); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	log := a.log
	if log == nil {
		log = zap.NewNop()
	}
	eng := engine.New(a.repo, a.config, log, a.admin)
	eng.SetClock(a.now)
	if err := eng.LoadAround(ctx, day); err != nil {
		return nil, fmt.Errorf("loading sessions: %w", err)
	}
	return eng, nil
}

// findSession resolves a full session ID or a unique prefix of one among the
// loaded sessions.
func (a *App) findSession(ctx context.Context, eng *engine.Engine, ref string) (*session.Session, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("empty session ID")
	}
	if s, err := eng.Store.Get(ref); err == nil {
		return s, nil
	}

	var match *session.Session
	for _, s := range eng.Store.Sessions() {
		if !strings.HasPrefix(s.ID, ref) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("session ID %q is ambiguous", ref)
		}
		match = s
	}
	if match != nil {
		return match, nil
	}

	// Not in the loaded window: load around the stored session instead.
	s, err := a.repo.GetSession(ctx, ref)
	if err != nil {
		return nil, err
	}
	if err := eng.LoadAround(ctx, s.SessionDate); err != nil {
		return nil, fmt.Errorf("loading sessions: %w", err)
	}
	return eng.Store.Get(s.ID)
}

// parseDay resolves a relative or absolute date against the app clock.
func (a *App) parseDay(s string) (time.Time, error) {
	return dateutil.ParseRelativeDate(s, a.now())
}

// parseStart combines a date and an "HH:MM" clock time.
func (a *App) parseStart(date, clock string) (time.Time, error) {
	day, err := a.parseDay(date)
	if err != nil {
		return time.Time{}, err
	}
	h, m, err := dateutil.ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return dateutil.At(day, h, m), nil
}

func resolvePath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("empty path")
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	return filepath.Clean(abs), nil
}
