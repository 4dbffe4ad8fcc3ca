package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"eventbooking/internal/domain"
)

type emailNotifier struct {
	emailService domain.EmailService
}

// NewEmailNotifier returns a NotificationHook that sends an RSVP confirmation email.
func NewEmailNotifier(emailService domain.EmailService) domain.NotificationHook {
	return &emailNotifier{emailService: emailService}
}

func (n *emailNotifier) RSVPConfirmed(ctx context.Context, note *domain.RSVPNotification) error {
	if note.Email == "" {
		return fmt.Errorf("user %s has no email address", note.UserID)
	}
	return n.emailService.SendRSVPConfirmation(ctx, &domain.RSVPConfirmationEmailData{
		Email:       note.Email,
		Username:    note.Username,
		EventTitle:  note.Title,
		ScheduledAt: note.ScheduledAt,
		Location:    note.Location,
		Category:    note.Category,
	})
}

// AsyncNotifier delivers notifications on background goroutines so the caller never
// waits on, or sees the failure of, the wrapped hook.
type AsyncNotifier struct {
	next    domain.NotificationHook
	logger  *slog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewAsyncNotifier wraps next. Each delivery gets its own timeout and is detached from
// the cancellation of the request context.
func NewAsyncNotifier(next domain.NotificationHook, logger *slog.Logger, timeout time.Duration) *AsyncNotifier {
	return &AsyncNotifier{next: next, logger: logger, timeout: timeout}
}

// RSVPConfirmed schedules delivery and returns immediately.
func (a *AsyncNotifier) RSVPConfirmed(ctx context.Context, note *domain.RSVPNotification) error {
	ctx = context.WithoutCancel(ctx)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()
		if err := a.next.RSVPConfirmed(ctx, note); err != nil {
			a.logger.WarnContext(ctx, "rsvp notification failed", "event_id", note.EventID, "user_id", note.UserID, "err", err)
		}
	}()
	return nil
}

// Wait blocks until all scheduled deliveries have finished.
func (a *AsyncNotifier) Wait() {
	a.wg.Wait()
}
