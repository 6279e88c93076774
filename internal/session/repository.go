package session

import (
	"context"
	"time"

	"github.com/javiermolinar/coachcal/internal/dateutil"
)

// Filter narrows a session fetch.
type Filter struct {
	TrainerID        string
	ClientID         string
	RecurringGroupID string
	Statuses         []Status
}

// Matches returns true if s passes the filter.
func (f Filter) Matches(s *Session) bool {
	if f.TrainerID != "" && s.TrainerID != f.TrainerID {
		return false
	}
	if f.ClientID != "" && s.ClientID != f.ClientID {
		return false
	}
	if f.RecurringGroupID != "" && s.RecurringGroupID != f.RecurringGroupID {
		return false
	}
	if len(f.Statuses) == 0 {
		return true
	}
	for _, st := range f.Statuses {
		if s.Status == st {
			return true
		}
	}
	return false
}

// Fetcher populates the session store. Results replace the store wholesale.
type Fetcher interface {
	FetchSessions(ctx context.Context, r dateutil.DateRange, f Filter) ([]*Session, error)
}

// Committer persists a reschedule. An ErrCommitFailed result means the move was
// rejected and any optimistic change must be rolled back.
type Committer interface {
	CommitReschedule(ctx context.Context, id string, newStart time.Time, trainerID string) error
}

// Move is one reschedule in a batch. An empty TrainerID keeps the trainer.
type Move struct {
	ID        string
	Start     time.Time
	TrainerID string
}

// BatchCommitter persists several reschedules in one transaction. The
// no-overlap rule is enforced once every move is applied, so members of a
// series may move into each other's old slots.
type BatchCommitter interface {
	CommitReschedules(ctx context.Context, moves []Move) error
}

// OverrideCommitter persists a reschedule an admin forced past its conflicts.
type OverrideCommitter interface {
	CommitOverride(ctx context.Context, id string, newStart time.Time, trainerID string) error
}

// StatusWriter persists cancellations.
type StatusWriter interface {
	CancelSessions(ctx context.Context, ids []string, by, reason string) error
}

// Creator persists new sessions.
type Creator interface {
	CreateSessions(ctx context.Context, sessions []*Session) error
}

// Repository is the full storage boundary used by the CLI and TUI.
type Repository interface {
	Fetcher
	Committer
	StatusWriter
	Creator

	// GetSession retrieves a session by ID. Returns ErrSessionNotFound if missing.
	GetSession(ctx context.Context, id string) (*Session, error)

	// UpdateStatus moves a session through its external workflow (confirm, complete).
	UpdateStatus(ctx context.Context, id string, status Status) error

	// ListTrainers returns the explicit roster, empty if none was recorded.
	ListTrainers(ctx context.Context) ([]Trainer, error)

	// SaveTrainer inserts or renames a trainer.
	SaveTrainer(ctx context.Context, t Trainer) error

	// Close releases any resources held by the repository.
	Close() error
}
