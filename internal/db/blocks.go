package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/javiermolinar/coachcal/internal/dateutil"
	"github.com/javiermolinar/coachcal/internal/session"
)

// ErrBlockNotFound is returned when an availability block does not exist.
var ErrBlockNotFound = errors.New("availability block not found")

// Block is a period in which a trainer cannot take sessions.
type Block struct {
	ID        int64
	TrainerID string
	Interval  session.Interval
	Reason    string
}

// AddBlock records an unavailability period and sets b.ID.
func (s *SQLite) AddBlock(ctx context.Context, b *Block) error {
	if b.TrainerID == "" {
		return errors.New("trainer id is required")
	}
	if b.Interval.Empty() {
		return fmt.Errorf("block end must be after start")
	}
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO availability_blocks (trainer_id, starts_at, ends_at, reason) VALUES (?, ?, ?, ?)`,
		b.TrainerID, formatTime(b.Interval.Start), formatTime(b.Interval.End), b.Reason)
	if err != nil {
		return fmt.Errorf("inserting block: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	b.ID = id
	return nil
}

// DeleteBlock removes an availability block.
func (s *SQLite) DeleteBlock(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM availability_blocks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting block: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: %d", ErrBlockNotFound, id)
	}
	return nil
}

// ListBlocks returns the blocks of a trainer that overlap r, ordered by start.
// An empty trainerID lists every trainer.
func (s *SQLite) ListBlocks(ctx context.Context, trainerID string, r dateutil.DateRange) ([]Block, error) {
	from := dateutil.TruncateToDay(r.Start)
	return s.blocksBetween(ctx, trainerID, from, r.EndExclusive())
}

// Unavailable returns the blocked intervals of a trainer on day.
func (s *SQLite) Unavailable(ctx context.Context, trainerID string, day time.Time) ([]session.Interval, error) {
	from := dateutil.TruncateToDay(day)
	blocks, err := s.blocksBetween(ctx, trainerID, from, from.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	out := make([]session.Interval, len(blocks))
	for i, b := range blocks {
		out[i] = b.Interval
	}
	return out, nil
}

func (s *SQLite) blocksBetween(ctx context.Context, trainerID string, from, to time.Time) ([]Block, error) {
	query := `
		SELECT id, trainer_id, starts_at, ends_at, reason
		FROM availability_blocks
		WHERE starts_at < ? AND ends_at > ?`
	args := []any{formatTime(to), formatTime(from)}
	if trainerID != "" {
		query += ` AND trainer_id = ?`
		args = append(args, trainerID)
	}
	query += ` ORDER BY starts_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying blocks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Block
	for rows.Next() {
		var (
			b          Block
			start, end string
		)
		if err := rows.Scan(&b.ID, &b.TrainerID, &start, &end, &b.Reason); err != nil {
			return nil, fmt.Errorf("scanning block: %w", err)
		}
		if b.Interval.Start, err = s.parseTime(start); err != nil {
			return nil, err
		}
		if b.Interval.End, err = s.parseTime(end); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
