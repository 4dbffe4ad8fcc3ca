package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"eventbooking/internal/domain"
)

// Field limits mirror the column sizes of the events table.
const (
	maxTitleLen    = 200
	maxCategoryLen = 100
	maxLocationLen = 255
)

type eventService struct {
	eventRepo      domain.EventRepository
	attendanceRepo domain.AttendanceRepository
	logger         *slog.Logger
	contextTimeout time.Duration
	now            func() time.Time
}

func NewEventService(
	eventRepo domain.EventRepository,
	attendanceRepo domain.AttendanceRepository,
	logger *slog.Logger,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		attendanceRepo: attendanceRepo,
		logger:         logger,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func validateEvent(e *domain.Event) error {
	var problems []string
	if strings.TrimSpace(e.Title) == "" {
		problems = append(problems, "title is required")
	} else if utf8.RuneCountInString(e.Title) > maxTitleLen {
		problems = append(problems, fmt.Sprintf("title must be at most %d characters", maxTitleLen))
	}
	if utf8.RuneCountInString(e.Category) > maxCategoryLen {
		problems = append(problems, fmt.Sprintf("category must be at most %d characters", maxCategoryLen))
	}
	if utf8.RuneCountInString(e.Location) > maxLocationLen {
		problems = append(problems, fmt.Sprintf("location must be at most %d characters", maxLocationLen))
	}
	if e.ScheduledAt.IsZero() {
		problems = append(problems, "scheduled_at is required")
	}
	if e.Capacity <= 0 {
		problems = append(problems, "capacity must be a positive integer")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}

func (s *eventService) CreateEvent(ctx context.Context, event *domain.Event) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if event.CreatorID == "" {
		return fmt.Errorf("%w: event creator is required", domain.ErrInvalidInput)
	}
	event.Title = strings.TrimSpace(event.Title)
	event.Category = strings.TrimSpace(event.Category)
	if err := validateEvent(event); err != nil {
		return err
	}

	now := s.now()
	event.CreatedAt = now
	event.UpdatedAt = now
	if err := s.eventRepo.Create(ctx, event); err != nil {
		if errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("create event: %w", err)
	}
	s.logger.InfoContext(ctx, "event created", "event_id", event.ID, "creator_id", event.CreatorID, "title", event.Title)
	return nil
}

func (s *eventService) GetEvent(ctx context.Context, eventID string) (*domain.EventDetails, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var (
		event *domain.Event
		count int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		e, err := s.eventRepo.GetByID(gctx, eventID)
		if err != nil {
			return err
		}
		event = e
		return nil
	})
	g.Go(func() error {
		n, err := s.attendanceRepo.CountByEventID(gctx, eventID)
		if err != nil {
			return fmt.Errorf("count attendees: %w", err)
		}
		count = n
		return nil
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return domain.NewEventDetails(event, count), nil
}

func (s *eventService) ListUpcoming(ctx context.Context, filter domain.EventFilter, page domain.PaginationParams) ([]*domain.EventDetails, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if filter.From.IsZero() {
		filter.From = s.now()
	}
	events, total, err := s.eventRepo.ListUpcoming(ctx, filter, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	// A page past the end falls back to the last page.
	if clamped := page.Clamp(total); len(events) == 0 && clamped.Page != page.Page {
		events, total, err = s.eventRepo.ListUpcoming(ctx, filter, clamped)
		if err != nil {
			return nil, 0, fmt.Errorf("list events: %w", err)
		}
	}

	ids := make([]string, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	counts, err := s.attendanceRepo.CountByEventIDs(ctx, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("count attendees: %w", err)
	}

	details := make([]*domain.EventDetails, 0, len(events))
	for _, e := range events {
		details = append(details, domain.NewEventDetails(e, counts[e.ID]))
	}
	return details, total, nil
}

// UpdateEvent counts attendees and writes the change under the event row lock.
func (s *eventService) UpdateEvent(ctx context.Context, eventID, userID string, update domain.EventUpdate) (*domain.EventDetails, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var details *domain.EventDetails
	err := s.attendanceRepo.InEventTx(ctx, eventID, func(ctx context.Context, tx domain.EventTx) error {
		current := tx.Event()
		if !CanManageEvent(userID, current) {
			return domain.ErrForbidden
		}

		updated := *current
		update.Apply(&updated)
		updated.Title = strings.TrimSpace(updated.Title)
		updated.Category = strings.TrimSpace(updated.Category)
		if err := validateEvent(&updated); err != nil {
			return err
		}

		count, err := tx.CountAttendees(ctx)
		if err != nil {
			return fmt.Errorf("count attendees: %w", err)
		}
		if updated.Capacity < count {
			return fmt.Errorf("%w: %d attendees already joined, capacity %d", domain.ErrCapacityConflict, count, updated.Capacity)
		}

		updated.UpdatedAt = s.now()
		if err := tx.UpdateEvent(ctx, &updated); err != nil {
			return err
		}
		details = domain.NewEventDetails(&updated, count)
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrCapacityConflict):
			s.logger.InfoContext(ctx, "event update rejected", "event_id", eventID, "user_id", userID, "err", err)
			return nil, err
		case errors.Is(err, domain.ErrNotFound),
			errors.Is(err, domain.ErrForbidden),
			errors.Is(err, domain.ErrInvalidInput):
			return nil, err
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	s.logger.InfoContext(ctx, "event updated", "event_id", eventID, "user_id", userID, "title", details.Event.Title)
	return details, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, eventID, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get event: %w", err)
	}
	if !CanManageEvent(userID, event) {
		return domain.ErrForbidden
	}
	if err := s.eventRepo.Delete(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete event: %w", err)
	}
	s.logger.InfoContext(ctx, "event deleted", "event_id", eventID, "user_id", userID, "title", event.Title)
	return nil
}

func (s *eventService) ListAttendees(ctx context.Context, eventID, userID string) ([]*domain.Attendee, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if !CanManageEvent(userID, event) {
		return nil, domain.ErrForbidden
	}
	attendees, err := s.attendanceRepo.ListAttendeesByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list attendees: %w", err)
	}
	if attendees == nil {
		attendees = []*domain.Attendee{}
	}
	return attendees, nil
}
