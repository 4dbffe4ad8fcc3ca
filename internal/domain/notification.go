package domain

import (
	"context"
	"time"
)

// RSVPNotification is delivered to the NotificationHook after a join commits.
type RSVPNotification struct {
	UserID      string
	Username    string
	Email       string
	EventID     string
	Title       string
	ScheduledAt time.Time
	Location    string
	Category    string
}

// NewRSVPNotification builds the payload for user joining event.
func NewRSVPNotification(user *User, event *Event) *RSVPNotification {
	return &RSVPNotification{
		UserID:      user.ID,
		Username:    user.Username,
		Email:       user.Email,
		EventID:     event.ID,
		Title:       event.Title,
		ScheduledAt: event.ScheduledAt,
		Location:    event.Location,
		Category:    event.Category,
	}
}

// NotificationHook reacts to successful attendance changes.
type NotificationHook interface {
	RSVPConfirmed(ctx context.Context, n *RSVPNotification) error
}
