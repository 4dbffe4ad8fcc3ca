package domain

import (
	"context"
	"time"
)

// Attendance links one user to one event. At most one exists per (user, event).
// swagger:model Attendance
type Attendance struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// NewAttendance creates a new Attendance. ID is typically set by the repository on create.
func NewAttendance(eventID, userID string, createdAt time.Time) *Attendance {
	return &Attendance{
		EventID:   eventID,
		UserID:    userID,
		CreatedAt: createdAt,
	}
}

// Attendee is an attendance row joined with the attending user.
// swagger:model Attendee
type Attendee struct {
	UserID   string    `json:"user_id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	JoinedAt time.Time `json:"joined_at"`
}

// AttendanceWithEvent bundles an attendance with its related event.
type AttendanceWithEvent struct {
	Attendance *Attendance `json:"attendance"`
	Event      *Event      `json:"event"`
}

// RSVPStatus is the outcome of a successful join or leave request. A full or missing
// event is reported as ErrCapacityExceeded or ErrNotFound instead.
type RSVPStatus string

const (
	RSVPJoined        RSVPStatus = "joined"
	RSVPAlreadyJoined RSVPStatus = "already_joined"
	RSVPCancelled     RSVPStatus = "cancelled"
	RSVPNotJoined     RSVPStatus = "not_joined"
)

// RSVPResult reports the status of a join or leave together with the resulting slot count.
// swagger:model RSVPResult
type RSVPResult struct {
	Status         RSVPStatus  `json:"status"`
	Attendance     *Attendance `json:"attendance,omitempty"`
	AvailableSlots int         `json:"available_slots"`
}

// EventTx is the view of the store inside a transaction that holds the lock on one event row.
// All methods operate on that event.
type EventTx interface {
	Event() *Event
	GetUser(ctx context.Context, userID string) (*User, error)
	CountAttendees(ctx context.Context) (int, error)
	GetAttendance(ctx context.Context, userID string) (*Attendance, error)
	// CreateAttendance returns ErrAlreadyJoined when the (user, event) pair already exists.
	CreateAttendance(ctx context.Context, a *Attendance) error
	// DeleteAttendance reports whether a row was removed.
	DeleteAttendance(ctx context.Context, userID string) (bool, error)
	UpdateEvent(ctx context.Context, e *Event) error
}

// AttendanceRepository defines storage operations for attendances.
type AttendanceRepository interface {
	// InEventTx runs fn in a transaction holding a row lock on the event, committing if fn
	// returns nil and rolling back otherwise. Returns ErrNotFound if the event does not exist.
	InEventTx(ctx context.Context, eventID string, fn func(ctx context.Context, tx EventTx) error) error
	CountByEventID(ctx context.Context, eventID string) (int, error)
	CountByEventIDs(ctx context.Context, eventIDs []string) (map[string]int, error)
	ListAttendeesByEventID(ctx context.Context, eventID string) ([]*Attendee, error)
	ListByUserID(ctx context.Context, userID string) ([]*AttendanceWithEvent, error)
}

// RSVPService mediates all changes to an event's attendee set.
type RSVPService interface {
	Join(ctx context.Context, eventID, userID string) (*RSVPResult, error)
	Leave(ctx context.Context, eventID, userID string) (*RSVPResult, error)
	AvailableSlots(ctx context.Context, eventID string) (int, error)
	ListMyRSVPs(ctx context.Context, userID string) ([]*AttendanceWithEvent, error)
}
