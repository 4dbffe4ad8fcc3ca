package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"eventbooking/internal/domain"
)

type rsvpService struct {
	attendanceRepo domain.AttendanceRepository
	eventRepo      domain.EventRepository
	notifier       domain.NotificationHook
	logger         *slog.Logger
	contextTimeout time.Duration
	now            func() time.Time
}

// NewRSVPService creates an RSVPService. notifier may be nil.
func NewRSVPService(
	attendanceRepo domain.AttendanceRepository,
	eventRepo domain.EventRepository,
	notifier domain.NotificationHook,
	logger *slog.Logger,
	timeout time.Duration,
) domain.RSVPService {
	return &rsvpService{
		attendanceRepo: attendanceRepo,
		eventRepo:      eventRepo,
		notifier:       notifier,
		logger:         logger,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *rsvpService) Join(ctx context.Context, eventID, userID string) (*domain.RSVPResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var (
		result *domain.RSVPResult
		user   *domain.User
		event  *domain.Event
	)
	err := s.attendanceRepo.InEventTx(ctx, eventID, func(ctx context.Context, tx domain.EventTx) error {
		event = tx.Event()

		u, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		user = u

		count, err := tx.CountAttendees(ctx)
		if err != nil {
			return fmt.Errorf("count attendees: %w", err)
		}

		existing, err := tx.GetAttendance(ctx, userID)
		if err == nil {
			result = &domain.RSVPResult{
				Status:         domain.RSVPAlreadyJoined,
				Attendance:     existing,
				AvailableSlots: event.AvailableSlots(count),
			}
			return nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("get attendance: %w", err)
		}

		if count >= event.Capacity {
			return domain.ErrCapacityExceeded
		}

		a := domain.NewAttendance(eventID, userID, s.now())
		if err := tx.CreateAttendance(ctx, a); err != nil {
			if errors.Is(err, domain.ErrAlreadyJoined) {
				result = &domain.RSVPResult{Status: domain.RSVPAlreadyJoined, AvailableSlots: event.AvailableSlots(count)}
				return nil
			}
			return err
		}
		result = &domain.RSVPResult{
			Status:         domain.RSVPJoined,
			Attendance:     a,
			AvailableSlots: event.AvailableSlots(count + 1),
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUserNotFound):
			return nil, domain.ErrNotFound
		case errors.Is(err, domain.ErrCapacityExceeded):
			s.logger.InfoContext(ctx, "rsvp rejected, event full", "event_id", eventID, "user_id", userID)
			return nil, domain.ErrCapacityExceeded
		}
		return nil, fmt.Errorf("join event: %w", err)
	}

	if result.Status == domain.RSVPJoined {
		s.logger.InfoContext(ctx, "user rsvped to event", "event_id", eventID, "user_id", userID, "title", event.Title)
		s.notifyJoined(ctx, user, event)
	}
	return result, nil
}

// notifyJoined runs after commit. Hook failures are logged and never returned.
func (s *rsvpService) notifyJoined(ctx context.Context, user *domain.User, event *domain.Event) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.RSVPConfirmed(ctx, domain.NewRSVPNotification(user, event)); err != nil {
		s.logger.WarnContext(ctx, "rsvp notification failed", "event_id", event.ID, "user_id", user.ID, "err", err)
	}
}

func (s *rsvpService) Leave(ctx context.Context, eventID, userID string) (*domain.RSVPResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var result *domain.RSVPResult
	err := s.attendanceRepo.InEventTx(ctx, eventID, func(ctx context.Context, tx domain.EventTx) error {
		if _, err := tx.GetUser(ctx, userID); err != nil {
			return err
		}
		removed, err := tx.DeleteAttendance(ctx, userID)
		if err != nil {
			return fmt.Errorf("delete attendance: %w", err)
		}
		count, err := tx.CountAttendees(ctx)
		if err != nil {
			return fmt.Errorf("count attendees: %w", err)
		}
		status := domain.RSVPNotJoined
		if removed {
			status = domain.RSVPCancelled
		}
		result = &domain.RSVPResult{Status: status, AvailableSlots: tx.Event().AvailableSlots(count)}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("leave event: %w", err)
	}
	if result.Status == domain.RSVPCancelled {
		s.logger.InfoContext(ctx, "user cancelled rsvp", "event_id", eventID, "user_id", userID)
	}
	return result, nil
}

func (s *rsvpService) AvailableSlots(ctx context.Context, eventID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("get event: %w", err)
	}
	count, err := s.attendanceRepo.CountByEventID(ctx, eventID)
	if err != nil {
		return 0, fmt.Errorf("count attendees: %w", err)
	}
	return event.AvailableSlots(count), nil
}

func (s *rsvpService) ListMyRSVPs(ctx context.Context, userID string) ([]*domain.AttendanceWithEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	items, err := s.attendanceRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list attendances: %w", err)
	}
	if items == nil {
		items = []*domain.AttendanceWithEvent{}
	}
	return items, nil
}
