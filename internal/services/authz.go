package services

import "eventbooking/internal/domain"

// CanManageEvent reports whether userID may edit or delete event.
func CanManageEvent(userID string, event *domain.Event) bool {
	return event != nil && userID != "" && event.CreatorID == userID
}
