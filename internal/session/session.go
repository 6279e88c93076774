// Package session defines the core domain types for coachcal.
package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Validation errors.
var (
	ErrInvalidSession  = errors.New("invalid session")
	ErrInvalidDuration = errors.New("duration must be greater than zero")
	ErrInvalidBuffer   = errors.New("buffers cannot be negative")
	ErrInvalidStatus   = errors.New("unknown session status")
)

// Domain errors.
var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrCommitFailed     = errors.New("commit rejected")
	ErrNotReschedulable = errors.New("session cannot be rescheduled")
)

// Status represents the lifecycle state of a session.
type Status string

const (
	StatusAvailable Status = "available"
	StatusScheduled Status = "scheduled"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusBlocked   Status = "blocked"
	StatusRequested Status = "requested"
)

// Statuses lists every valid status in display order.
var Statuses = []Status{
	StatusAvailable,
	StatusScheduled,
	StatusConfirmed,
	StatusCompleted,
	StatusCancelled,
	StatusBlocked,
	StatusRequested,
}

// Valid returns true if the status is a known value.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// ParseStatus parses a status name, accepting a few common aliases.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "available", "open":
		return StatusAvailable, nil
	case "scheduled", "booked":
		return StatusScheduled, nil
	case "confirmed", "confirm":
		return StatusConfirmed, nil
	case "completed", "complete":
		return StatusCompleted, nil
	case "cancelled", "canceled", "cancel":
		return StatusCancelled, nil
	case "blocked":
		return StatusBlocked, nil
	case "requested":
		return StatusRequested, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

// Session is one bookable or booked block on a trainer's calendar.
type Session struct {
	ID          string    `validate:"required"`
	SessionDate time.Time `validate:"required"`
	Duration    int       `validate:"gt=0"` // minutes
	Status      Status    `validate:"required,oneof=available scheduled confirmed completed cancelled blocked requested"`

	TrainerID   string // empty means unassigned
	TrainerName string
	ClientID    string // empty means open slot
	ClientName  string
	Location    string

	BufferBefore int `validate:"gte=0"` // minutes
	BufferAfter  int `validate:"gte=0"` // minutes

	IsBlocked        bool
	RecurringGroupID string

	CancelledBy        string
	CancellationReason string
	CancelledAt        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewOptions configures a new session.
type NewOptions struct {
	TrainerID    string
	TrainerName  string
	ClientID     string
	ClientName   string
	Location     string
	BufferBefore int
	BufferAfter  int
	Status       Status // defaults to available, or scheduled when a client is set
}

// New creates a validated session with a fresh ID.
func New(start time.Time, duration int, opts NewOptions) (*Session, error) {
	status := opts.Status
	if status == "" {
		status = StatusAvailable
		if opts.ClientID != "" {
			status = StatusScheduled
		}
	}

	now := time.Now()
	s := &Session{
		ID:           uuid.NewString(),
		SessionDate:  start,
		Duration:     duration,
		Status:       status,
		TrainerID:    opts.TrainerID,
		TrainerName:  opts.TrainerName,
		ClientID:     opts.ClientID,
		ClientName:   opts.ClientName,
		Location:     opts.Location,
		BufferBefore: opts.BufferBefore,
		BufferAfter:  opts.BufferAfter,
		IsBlocked:    status == StatusBlocked,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks the record against the data model rules.
func (s *Session) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil session", ErrInvalidSession)
	}
	if err := structValidator().Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			switch verrs[0].Field() {
			case "Duration":
				return fmt.Errorf("%w: %w", ErrInvalidSession, ErrInvalidDuration)
			case "BufferBefore", "BufferAfter":
				return fmt.Errorf("%w: %w", ErrInvalidSession, ErrInvalidBuffer)
			case "Status":
				return fmt.Errorf("%w: %w: %q", ErrInvalidSession, ErrInvalidStatus, s.Status)
			}
		}
		return fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	return nil
}

// IsCancelled returns true if the session has been cancelled.
func (s *Session) IsCancelled() bool {
	return s.Status == StatusCancelled
}

// IsCompleted returns true if the session has been completed.
func (s *Session) IsCompleted() bool {
	return s.Status == StatusCompleted
}

// IsUnavailableBlock returns true for trainer-initiated unavailable blocks.
func (s *Session) IsUnavailableBlock() bool {
	return s.IsBlocked || s.Status == StatusBlocked
}

// IsBooked returns true for sessions holding a client booking.
func (s *Session) IsBooked() bool {
	switch s.Status {
	case StatusScheduled, StatusConfirmed, StatusCompleted:
		return true
	default:
		return false
	}
}

// IsScheduled mirrors the calendar's "occupied" notion: not an open slot and not cancelled.
func (s *Session) IsScheduled() bool {
	return s.Status != StatusAvailable && s.Status != StatusCancelled
}

// CanReschedule returns true while the session may still be moved.
func (s *Session) CanReschedule() bool {
	return !s.IsCompleted() && !s.IsCancelled()
}

// End returns the end of the session core.
func (s *Session) End() time.Time {
	return s.SessionDate.Add(time.Duration(s.Duration) * time.Minute)
}

// IsPast returns true if the session has already started.
func (s *Session) IsPast(now time.Time) bool {
	return s.SessionDate.Before(now)
}

// Hour returns the local start hour used for slot indexing.
func (s *Session) Hour() int {
	return s.SessionDate.Hour()
}

// Clone returns a copy that shares no pointers with s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.CancelledAt != nil {
		at := *s.CancelledAt
		c.CancelledAt = &at
	}
	return &c
}

// Cancel marks the session cancelled and records who did it and why.
func (s *Session) Cancel(by, reason string, at time.Time) {
	s.Status = StatusCancelled
	s.CancelledBy = by
	s.CancellationReason = reason
	s.CancelledAt = &at
	s.UpdatedAt = at
}

// Trainer is a coach whose sessions populate a calendar column.
type Trainer struct {
	ID   string
	Name string
}

// DisplayName returns the trainer name or a fallback derived from the ID.
func (t Trainer) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	return "Trainer " + t.ID
}

// Initials returns up to two uppercase initials for compact headers.
func (t Trainer) Initials() string {
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return "??"
	}
	parts := strings.Fields(name)
	if len(parts) >= 2 {
		first, second := []rune(parts[0]), []rune(parts[1])
		return strings.ToUpper(string(first[:1]) + string(second[:1]))
	}
	runes := []rune(name)
	if len(runes) < 2 {
		return strings.ToUpper(name)
	}
	return strings.ToUpper(string(runes[:2]))
}
