// Package engine wires the session store, conflict checker, drag manager and
// series manager over one repository, the way the CLI and the terminal
// calendar both run them.
package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/javiermolinar/coachcal/internal/config"
	"github.com/javiermolinar/coachcal/internal/conflict"
	"github.com/javiermolinar/coachcal/internal/dateutil"
	"github.com/javiermolinar/coachcal/internal/dragdrop"
	"github.com/javiermolinar/coachcal/internal/projector"
	"github.com/javiermolinar/coachcal/internal/scheduler"
	"github.com/javiermolinar/coachcal/internal/series"
	"github.com/javiermolinar/coachcal/internal/session"
	"github.com/javiermolinar/coachcal/internal/store"
)

// Repository is the storage an engine runs against.
type Repository interface {
	session.Repository
	conflict.AvailabilitySource
}

// Engine owns one store and the components that read and write it.
type Engine struct {
	Store     *store.Store
	Scheduler *scheduler.Scheduler
	Checker   *conflict.Checker
	Series    *series.Manager

	repo  Repository
	cfg   *config.Config
	log   *zap.Logger
	admin bool
	now   func() time.Time
}

// New builds an engine. admin enables privileged moves.
func New(repo Repository, cfg *config.Config, log *zap.Logger, admin bool) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	sched := scheduler.New(cfg.Schedule.Workdays, cfg.Schedule.DayStart, cfg.Schedule.DayEnd)
	sched.SetEnforceWorkHours(cfg.Schedule.EnforceWorkHours)

	st := store.New()
	avail := conflict.MultiSource{sched, repo}
	checker := conflict.NewChecker(st, cfg.ConflictConfig()).
		WithWindow(sched).
		WithAvailability(avail)

	e := &Engine{
		Store:     st,
		Scheduler: sched,
		Checker:   checker,
		Series: series.NewManager(st, checker, series.Persistence{
			Committer:    repo,
			StatusWriter: repo,
			Creator:      repo,
		}, log.Named("series")),
		repo:  repo,
		cfg:   cfg,
		log:   log,
		admin: admin,
		now:   time.Now,
	}
	return e
}

// SetClock replaces the clock of every component.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
	e.Store.SetClock(now)
	e.Checker.WithClock(now)
	e.Series.SetClock(now)
}

// Now returns the engine's current time.
func (e *Engine) Now() time.Time {
	return e.now()
}

// Admin reports whether the engine runs with admin privileges.
func (e *Engine) Admin() bool {
	return e.admin
}

// Config returns the configuration the engine was built from.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// Logger returns the engine's logger.
func (e *Engine) Logger() *zap.Logger {
	return e.log
}

// Repo returns the underlying repository.
func (e *Engine) Repo() Repository {
	return e.repo
}

// Load replaces the store contents with the sessions of r.
func (e *Engine) Load(ctx context.Context, r dateutil.DateRange) error {
	if err := e.Store.Load(ctx, e.repo, r, session.Filter{}); err != nil {
		return err
	}
	e.log.Debug("sessions loaded",
		zap.String("from", dateutil.DayKey(r.Start)),
		zap.String("to", dateutil.DayKey(r.End)),
		zap.Int("count", e.Store.Len()))
	return nil
}

// LoadAround loads enough days around day for checks and alternatives on it.
func (e *Engine) LoadAround(ctx context.Context, day time.Time) error {
	return e.Load(ctx, e.RangeAround(day))
}

// RangeAround returns the month of day padded by a week and the alternative
// search span on both sides.
func (e *Engine) RangeAround(day time.Time) dateutil.DateRange {
	span := e.cfg.Conflicts.SearchDays + 1
	start := dateutil.StartOfMonth(day).AddDate(0, 0, -7-span)
	end := dateutil.StartOfMonth(day).AddDate(0, 1, 7+span)
	return dateutil.DateRange{Start: start, End: end}
}

// DragManager returns a drag manager committing through the repository.
func (e *Engine) DragManager() *dragdrop.Manager {
	return dragdrop.NewManager(e.Store, e.Checker, e.repo, dragdrop.Options{
		Admin:  e.admin,
		Logger: e.log.Named("drag"),
		Now:    e.now,
	})
}

// Trainers returns the recorded roster, or the one derived from the loaded
// sessions when none was recorded.
func (e *Engine) Trainers(ctx context.Context) ([]session.Trainer, error) {
	roster, err := e.repo.ListTrainers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing trainers: %w", err)
	}
	if len(roster) > 0 {
		return roster, nil
	}
	return e.Store.Index().Trainers(), nil
}

// ViewParams returns projector parameters from the config.
func (e *Engine) ViewParams() projector.Params {
	return e.cfg.ViewParams(e.now(), e.admin)
}

// NewSession builds a session with the configured defaults for unset fields.
func (e *Engine) NewSession(start time.Time, duration int, opts session.NewOptions) (*session.Session, error) {
	if duration == 0 {
		duration = e.cfg.Sessions.DefaultDuration
	}
	if opts.Location == "" {
		opts.Location = e.cfg.Sessions.DefaultLocation
	}
	if opts.BufferBefore == 0 {
		opts.BufferBefore = e.cfg.Sessions.DefaultBufferBefore
	}
	if opts.BufferAfter == 0 {
		opts.BufferAfter = e.cfg.Sessions.DefaultBufferAfter
	}
	return session.New(start, duration, opts)
}

// Book checks a new session against the loaded calendar and persists it when
// it is conflict-free, or when force is set by an admin.
func (e *Engine) Book(ctx context.Context, s *session.Session, force bool) (*conflict.Result, error) {
	res, err := e.Checker.CheckNew(ctx, s, e.admin)
	if err != nil {
		return nil, err
	}
	if res.HasConflicts && !(force && e.admin) {
		return res, nil
	}

	if err := e.repo.CreateSessions(ctx, []*session.Session{s}); err != nil {
		return res, fmt.Errorf("creating session: %w", err)
	}
	if err := e.Store.Add(s); err != nil {
		return res, err
	}
	e.log.Info("session booked",
		zap.String("session", s.ID),
		zap.String("trainer", s.TrainerID),
		zap.Time("start", s.SessionDate),
		zap.Bool("forced", res.HasConflicts))
	return res, nil
}
