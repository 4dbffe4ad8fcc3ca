package domain

import (
	"context"
	"time"
)

// Event represents a bookable event owned by its creator.
// swagger:model Event
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Location    string    `json:"location"`
	Capacity    int       `json:"capacity"`
	CreatorID   string    `json:"creator_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewEvent returns a new Event with the given fields. ID is typically set by the repository on create.
func NewEvent(title, description, category, location string, scheduledAt time.Time, capacity int, creatorID string) *Event {
	return &Event{
		Title:       title,
		Description: description,
		Category:    category,
		ScheduledAt: scheduledAt,
		Location:    location,
		Capacity:    capacity,
		CreatorID:   creatorID,
	}
}

// AvailableSlots returns capacity minus attendees, floored at zero.
func (e *Event) AvailableSlots(attendees int) int {
	if n := e.Capacity - attendees; n > 0 {
		return n
	}
	return 0
}

// EventDetails is an event together with its current attendance figures.
// swagger:model EventDetails
type EventDetails struct {
	Event          *Event `json:"event"`
	AttendeeCount  int    `json:"attendee_count"`
	AvailableSlots int    `json:"available_slots"`
	// OverCapacity is set when attendance exceeds capacity; existing attendees are kept.
	OverCapacity bool `json:"over_capacity"`
}

// NewEventDetails builds EventDetails from an event and its attendee count.
func NewEventDetails(e *Event, attendees int) *EventDetails {
	return &EventDetails{
		Event:          e,
		AttendeeCount:  attendees,
		AvailableSlots: e.AvailableSlots(attendees),
		OverCapacity:   attendees > e.Capacity,
	}
}

// EventFilter narrows the upcoming-events listing.
type EventFilter struct {
	// From excludes events scheduled before it.
	From     time.Time
	Query    string
	Category string
	// Date, when set, restricts results to events on that calendar day (UTC).
	Date *time.Time
}

// EventUpdate holds the optional fields of a partial event update.
type EventUpdate struct {
	Title       *string
	Description *string
	Category    *string
	ScheduledAt *time.Time
	Location    *string
	Capacity    *int
}

// Apply copies the set fields onto e.
func (u EventUpdate) Apply(e *Event) {
	if u.Title != nil {
		e.Title = *u.Title
	}
	if u.Description != nil {
		e.Description = *u.Description
	}
	if u.Category != nil {
		e.Category = *u.Category
	}
	if u.ScheduledAt != nil {
		e.ScheduledAt = *u.ScheduledAt
	}
	if u.Location != nil {
		e.Location = *u.Location
	}
	if u.Capacity != nil {
		e.Capacity = *u.Capacity
	}
}

// EventRepository defines the interface for event storage
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	ListUpcoming(ctx context.Context, filter EventFilter, page PaginationParams) ([]*Event, int, error)
	Delete(ctx context.Context, id string) error
}

// EventService defines event management operations.
type EventService interface {
	CreateEvent(ctx context.Context, event *Event) error
	GetEvent(ctx context.Context, eventID string) (*EventDetails, error)
	ListUpcoming(ctx context.Context, filter EventFilter, page PaginationParams) ([]*EventDetails, int, error)
	// UpdateEvent applies update if userID is the creator. Lowering capacity below the
	// current attendance returns ErrCapacityConflict and leaves the event unchanged.
	UpdateEvent(ctx context.Context, eventID, userID string, update EventUpdate) (*EventDetails, error)
	DeleteEvent(ctx context.Context, eventID, userID string) error
	ListAttendees(ctx context.Context, eventID, userID string) ([]*Attendee, error)
}
