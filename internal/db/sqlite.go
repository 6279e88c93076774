// Package db provides SQLite storage implementation.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/javiermolinar/coachcal/internal/dateutil"
	"github.com/javiermolinar/coachcal/internal/session"
)

// ErrOverlap is returned when a new session collides with a trainer's calendar.
var ErrOverlap = errors.New("overlaps an existing session")

// timeLayout stores instants in UTC so that text comparison orders them.
const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements session.Repository using SQLite.
type SQLite struct {
	db  *sql.DB
	loc *time.Location
	now func() time.Time
}

// New creates a new SQLite repository and runs migrations.
func New(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &SQLite{db: db, loc: time.Local, now: time.Now}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// SetLocation sets the zone sessions are returned in.
func (s *SQLite) SetLocation(loc *time.Location) {
	s.loc = loc
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

const sessionColumns = `
	id, starts_at, duration, status, trainer_id, trainer_name, client_id, client_name,
	location, buffer_before, buffer_after, is_blocked, recurring_group_id,
	cancelled_by, cancellation_reason, cancelled_at, created_at, updated_at`

const insertSession = `
	INSERT INTO sessions (
		id, session_day, starts_at, ends_at, duration, status, trainer_id, trainer_name,
		client_id, client_name, location, buffer_before, buffer_after, is_blocked,
		recurring_group_id, cancelled_by, cancellation_reason, cancelled_at, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// CreateSessions inserts new sessions in one transaction.
// Returns ErrOverlap if a session collides with its trainer's calendar or with
// another session in the batch.
func (s *SQLite) CreateSessions(ctx context.Context, sessions []*session.Session) error {
	if len(sessions) == 0 {
		return nil
	}
	for _, ss := range sessions {
		if err := ss.Validate(); err != nil {
			return err
		}
	}
	if err := checkBatchOverlap(sessions); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, ss := range sessions {
		if err := checkOverlapTx(ctx, tx, ss); err != nil {
			return err
		}
	}

	stmt, err := tx.PrepareContext(ctx, insertSession)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, ss := range sessions {
		if _, err := stmt.ExecContext(ctx, sessionArgs(ss)...); err != nil {
			return fmt.Errorf("inserting session %s: %w", ss.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func sessionArgs(ss *session.Session) []any {
	var cancelledAt any
	if ss.CancelledAt != nil {
		cancelledAt = formatTime(*ss.CancelledAt)
	}
	created, updated := ss.CreatedAt, ss.UpdatedAt
	if created.IsZero() {
		created = time.Now()
	}
	if updated.IsZero() {
		updated = created
	}
	return []any{
		ss.ID,
		dateutil.DayKey(ss.SessionDate),
		formatTime(ss.SessionDate),
		formatTime(ss.End()),
		ss.Duration,
		ss.Status,
		ss.TrainerID,
		ss.TrainerName,
		ss.ClientID,
		ss.ClientName,
		ss.Location,
		ss.BufferBefore,
		ss.BufferAfter,
		ss.IsBlocked,
		ss.RecurringGroupID,
		ss.CancelledBy,
		ss.CancellationReason,
		cancelledAt,
		formatTime(created),
		formatTime(updated),
	}
}

// GetSession retrieves a session by ID.
func (s *SQLite) GetSession(ctx context.Context, id string) (*session.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = ?`

	ss, err := s.scanSession(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", session.ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}
	return ss, nil
}

// FetchSessions returns every session whose day falls within r (inclusive)
// and that matches f, ordered by start.
func (s *SQLite) FetchSessions(ctx context.Context, r dateutil.DateRange, f session.Filter) ([]*session.Session, error) {
	var (
		where = []string{"session_day >= ?", "session_day <= ?"}
		args  = []any{dateutil.DayKey(r.Start), dateutil.DayKey(r.End)}
	)
	if f.TrainerID != "" {
		where = append(where, "trainer_id = ?")
		args = append(args, f.TrainerID)
	}
	if f.ClientID != "" {
		where = append(where, "client_id = ?")
		args = append(args, f.ClientID)
	}
	if f.RecurringGroupID != "" {
		where = append(where, "recurring_group_id = ?")
		args = append(args, f.RecurringGroupID)
	}
	if len(f.Statuses) > 0 {
		where = append(where, "status IN ("+placeholders(len(f.Statuses))+")")
		for _, st := range f.Statuses {
			args = append(args, st)
		}
	}

	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY starts_at, id`
	return s.querySessions(ctx, query, args...)
}

// ListGroup returns every member of a recurring group regardless of date.
func (s *SQLite) ListGroup(ctx context.Context, groupID string) ([]*session.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE recurring_group_id = ? ORDER BY starts_at, id`
	return s.querySessions(ctx, query, groupID)
}

func (s *SQLite) querySessions(ctx context.Context, query string, args ...any) ([]*session.Session, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*session.Session
	for rows.Next() {
		ss, err := s.scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		out = append(out, ss)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *SQLite) scanSession(row scanner) (*session.Session, error) {
	var (
		ss          session.Session
		startsAt    string
		cancelledAt sql.NullString
		createdAt   string
		updatedAt   string
	)
	err := row.Scan(
		&ss.ID,
		&startsAt,
		&ss.Duration,
		&ss.Status,
		&ss.TrainerID,
		&ss.TrainerName,
		&ss.ClientID,
		&ss.ClientName,
		&ss.Location,
		&ss.BufferBefore,
		&ss.BufferAfter,
		&ss.IsBlocked,
		&ss.RecurringGroupID,
		&ss.CancelledBy,
		&ss.CancellationReason,
		&cancelledAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if ss.SessionDate, err = s.parseTime(startsAt); err != nil {
		return nil, fmt.Errorf("parsing start: %w", err)
	}
	if ss.CreatedAt, err = s.parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parsing created at: %w", err)
	}
	if ss.UpdatedAt, err = s.parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated at: %w", err)
	}
	if cancelledAt.Valid {
		t, err := s.parseTime(cancelledAt.String)
		if err != nil {
			return nil, fmt.Errorf("parsing cancelled at: %w", err)
		}
		ss.CancelledAt = &t
	}
	return &ss, nil
}

// CommitReschedule moves a session to newStart, and to trainerID when set.
// Completed, cancelled and missing sessions, and moves that would overlap the
// effective interval of another live session of the trainer, are rejected
// with session.ErrCommitFailed.
func (s *SQLite) CommitReschedule(ctx context.Context, id string, newStart time.Time, trainerID string) error {
	return s.commitMoves(ctx, []session.Move{{ID: id, Start: newStart, TrainerID: trainerID}}, true)
}

// CommitReschedules applies every move in one transaction. Overlaps are
// checked after all moves are written, so sessions may trade places.
func (s *SQLite) CommitReschedules(ctx context.Context, moves []session.Move) error {
	if len(moves) == 0 {
		return nil
	}
	return s.commitMoves(ctx, moves, true)
}

// CommitOverride moves a session like CommitReschedule but skips the overlap
// check. It backs an admin override of presented conflicts.
func (s *SQLite) CommitOverride(ctx context.Context, id string, newStart time.Time, trainerID string) error {
	return s.commitMoves(ctx, []session.Move{{ID: id, Start: newStart, TrainerID: trainerID}}, false)
}

func (s *SQLite) commitMoves(ctx context.Context, moves []session.Move, guard bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	moved := make([]*session.Session, 0, len(moves))
	for _, mv := range moves {
		ss, err := s.moveTx(ctx, tx, mv)
		if err != nil {
			return err
		}
		moved = append(moved, ss)
	}

	if guard {
		for _, ss := range moved {
			if err := checkOverlapTx(ctx, tx, ss); err != nil {
				return fmt.Errorf("%w: %w", session.ErrCommitFailed, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// moveTx writes one move and returns the session at its new position.
func (s *SQLite) moveTx(ctx context.Context, tx *sql.Tx, mv session.Move) (*session.Session, error) {
	ss := &session.Session{ID: mv.ID, SessionDate: mv.Start}
	err := tx.QueryRowContext(ctx,
		`SELECT status, duration, buffer_before, buffer_after, trainer_id FROM sessions WHERE id = ?`, mv.ID,
	).Scan(&ss.Status, &ss.Duration, &ss.BufferBefore, &ss.BufferAfter, &ss.TrainerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %w: %s", session.ErrCommitFailed, session.ErrSessionNotFound, mv.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}
	if ss.Status == session.StatusCompleted || ss.Status == session.StatusCancelled {
		return nil, fmt.Errorf("%w: %w: %s is %s", session.ErrCommitFailed, session.ErrNotReschedulable, mv.ID, ss.Status)
	}

	end := mv.Start.Add(time.Duration(ss.Duration) * time.Minute)
	query := `UPDATE sessions SET session_day = ?, starts_at = ?, ends_at = ?, updated_at = ? WHERE id = ?`
	args := []any{dateutil.DayKey(mv.Start), formatTime(mv.Start), formatTime(end), formatTime(s.now()), mv.ID}
	if mv.TrainerID != "" {
		query = `UPDATE sessions SET session_day = ?, starts_at = ?, ends_at = ?, updated_at = ?, trainer_id = ?,
			trainer_name = COALESCE((SELECT name FROM trainers WHERE id = ?), trainer_name) WHERE id = ?`
		args = []any{dateutil.DayKey(mv.Start), formatTime(mv.Start), formatTime(end), formatTime(s.now()), mv.TrainerID, mv.TrainerID, mv.ID}
		ss.TrainerID = mv.TrainerID
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("rescheduling session %s: %w", mv.ID, err)
	}
	return ss, nil
}

// CancelSessions marks sessions as cancelled. Completed and already cancelled
// sessions are left untouched. Returns session.ErrSessionNotFound if any ID is
// unknown, in which case nothing is written.
func (s *SQLite) CancelSessions(ctx context.Context, ids []string, by, reason string) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := formatTime(s.now())
	for _, id := range ids {
		var status session.Status
		err := tx.QueryRowContext(ctx, `SELECT status FROM sessions WHERE id = ?`, id).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", session.ErrSessionNotFound, id)
		}
		if err != nil {
			return fmt.Errorf("querying session: %w", err)
		}
		if status == session.StatusCompleted || status == session.StatusCancelled {
			continue
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE sessions
			SET status = ?, cancelled_by = ?, cancellation_reason = ?, cancelled_at = ?, updated_at = ?
			WHERE id = ?`,
			session.StatusCancelled, by, reason, now, now, id)
		if err != nil {
			return fmt.Errorf("cancelling session %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// UpdateStatus sets the status of a session.
func (s *SQLite) UpdateStatus(ctx context.Context, id string, status session.Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", session.ErrInvalidStatus, status)
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET status = ?, is_blocked = ?, updated_at = ? WHERE id = ?`,
		status, status == session.StatusBlocked, formatTime(s.now()), id)
	if err != nil {
		return fmt.Errorf("updating session status: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: %s", session.ErrSessionNotFound, id)
	}
	return nil
}

// SaveTrainer inserts a trainer or renames an existing one.
func (s *SQLite) SaveTrainer(ctx context.Context, t session.Trainer) error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("trainer id is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trainers (id, name) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
		t.ID, t.Name)
	if err != nil {
		return fmt.Errorf("saving trainer: %w", err)
	}
	return nil
}

// ListTrainers returns the roster ordered by name.
func (s *SQLite) ListTrainers(ctx context.Context) ([]session.Trainer, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM trainers ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("querying trainers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []session.Trainer
	for rows.Next() {
		var t session.Trainer
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("scanning trainer: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// checkOverlapTx rejects a session whose effective interval overlaps the
// effective interval of another live session of the same trainer. Two ranges
// overlap if: start1 < end2 AND start2 < end1.
func checkOverlapTx(ctx context.Context, tx *sql.Tx, ss *session.Session) error {
	if ss.TrainerID == "" || ss.IsCancelled() {
		return nil
	}
	eff := session.EffectiveInterval(ss)
	query := `
		SELECT id, starts_at
		FROM sessions
		WHERE trainer_id = ?
		  AND id != ?
		  AND status != ?
		  AND unixepoch(starts_at) - buffer_before * 60 < ?
		  AND unixepoch(ends_at) + buffer_after * 60 > ?
		LIMIT 1
	`
	var id, startsAt string
	err := tx.QueryRowContext(ctx, query,
		ss.TrainerID,
		ss.ID,
		session.StatusCancelled,
		eff.End.Unix(),
		eff.Start.Unix(),
	).Scan(&id, &startsAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("checking overlap: %w", err)
	}
	return fmt.Errorf("%w: %s collides with %s at %s", ErrOverlap, ss.ID, id, startsAt)
}

// checkBatchOverlap checks the new sessions against each other.
func checkBatchOverlap(sessions []*session.Session) error {
	for i := 0; i < len(sessions); i++ {
		a := sessions[i]
		if a.TrainerID == "" || a.IsCancelled() {
			continue
		}
		for j := i + 1; j < len(sessions); j++ {
			b := sessions[j]
			if b.TrainerID != a.TrainerID || b.IsCancelled() {
				continue
			}
			if session.EffectiveInterval(a).Overlaps(session.EffectiveInterval(b)) {
				return fmt.Errorf("%w: %s collides with %s", ErrOverlap, a.ID, b.ID)
			}
		}
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func (s *SQLite) parseTime(v string) (time.Time, error) {
	for _, layout := range []string{timeLayout, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.In(s.loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time format: %s", v)
}
