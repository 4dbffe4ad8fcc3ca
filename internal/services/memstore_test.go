package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"eventbooking/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// memStore is an in-memory EventRepository and AttendanceRepository. InEventTx takes a
// per-event mutex and works on a copy of the attendance set that replaces the stored one
// only if fn succeeds, which mirrors the row lock and rollback of the Postgres store.
type memStore struct {
	mu          sync.Mutex
	eventLocks  map[string]*sync.Mutex
	events      map[string]*domain.Event
	users       map[string]*domain.User
	attendances map[string]map[string]*domain.Attendance
	commitErr   error
	listErr     error
}

func newMemStore() *memStore {
	return &memStore{
		eventLocks:  make(map[string]*sync.Mutex),
		events:      make(map[string]*domain.Event),
		users:       make(map[string]*domain.User),
		attendances: make(map[string]map[string]*domain.Attendance),
	}
}

func (m *memStore) addUser(username string) *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &domain.User{ID: uuid.NewString(), Username: username, Email: username + "@example.com"}
	m.users[u.ID] = u
	return u
}

func (m *memStore) addEvent(creatorID string, capacity int) *domain.Event {
	e := &domain.Event{
		Title:       "Event",
		Category:    "meetup",
		Location:    "Hall",
		ScheduledAt: time.Now().Add(48 * time.Hour),
		Capacity:    capacity,
		CreatorID:   creatorID,
	}
	_ = m.Create(context.Background(), e)
	return e
}

func (m *memStore) attendeeCount(eventID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.attendances[eventID])
}

func (m *memStore) Create(ctx context.Context, e *domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = uuid.NewString()
	cp := *e
	m.events[e.ID] = &cp
	m.eventLocks[e.ID] = &sync.Mutex{}
	m.attendances[e.ID] = make(map[string]*domain.Attendance)
	return nil
}

func (m *memStore) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *memStore) ListUpcoming(ctx context.Context, filter domain.EventFilter, page domain.PaginationParams) ([]*domain.Event, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	var matched []*domain.Event
	for _, e := range m.events {
		if e.ScheduledAt.Before(filter.From) {
			continue
		}
		if filter.Query != "" && !strings.Contains(strings.ToLower(e.Title), strings.ToLower(filter.Query)) {
			continue
		}
		if filter.Category != "" && e.Category != filter.Category {
			continue
		}
		cp := *e
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ScheduledAt.Before(matched[j].ScheduledAt) })
	total := len(matched)
	start := page.Offset()
	if start < 0 {
		return nil, 0, fmt.Errorf("OFFSET must not be negative: %d", start)
	}
	if start > total {
		start = total
	}
	end := start + page.PageSize
	if end > total || end < start {
		end = total
	}
	return matched[start:end], total, nil
}

func (m *memStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.events, id)
	delete(m.attendances, id)
	return nil
}

func (m *memStore) InEventTx(ctx context.Context, eventID string, fn func(ctx context.Context, tx domain.EventTx) error) error {
	m.mu.Lock()
	lock, ok := m.eventLocks[eventID]
	m.mu.Unlock()
	if !ok {
		return domain.ErrNotFound
	}
	lock.Lock()
	defer lock.Unlock()

	m.mu.Lock()
	stored, ok := m.events[eventID]
	if !ok {
		m.mu.Unlock()
		return domain.ErrNotFound
	}
	event := *stored
	atts := make(map[string]*domain.Attendance, len(m.attendances[eventID]))
	for k, v := range m.attendances[eventID] {
		atts[k] = v
	}
	m.mu.Unlock()

	tx := &memTx{store: m, event: &event, atts: atts}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if m.commitErr != nil {
		return m.commitErr
	}

	m.mu.Lock()
	m.events[eventID] = tx.event
	m.attendances[eventID] = tx.atts
	m.mu.Unlock()
	return nil
}

func (m *memStore) CountByEventID(ctx context.Context, eventID string) (int, error) {
	return m.attendeeCount(eventID), nil
}

func (m *memStore) CountByEventIDs(ctx context.Context, eventIDs []string) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int)
	for _, id := range eventIDs {
		if n := len(m.attendances[id]); n > 0 {
			counts[id] = n
		}
	}
	return counts, nil
}

func (m *memStore) ListAttendeesByEventID(ctx context.Context, eventID string) ([]*domain.Attendee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Attendee, 0)
	for userID, a := range m.attendances[eventID] {
		u := m.users[userID]
		out = append(out, &domain.Attendee{UserID: userID, Username: u.Username, Email: u.Email, JoinedAt: a.CreatedAt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out, nil
}

func (m *memStore) ListByUserID(ctx context.Context, userID string) ([]*domain.AttendanceWithEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.AttendanceWithEvent
	for eventID, atts := range m.attendances {
		if a, ok := atts[userID]; ok {
			cp := *m.events[eventID]
			out = append(out, &domain.AttendanceWithEvent{Attendance: a, Event: &cp})
		}
	}
	return out, nil
}

type memTx struct {
	store *memStore
	event *domain.Event
	atts  map[string]*domain.Attendance
}

func (t *memTx) Event() *domain.Event { return t.event }

func (t *memTx) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	u, ok := t.store.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (t *memTx) CountAttendees(ctx context.Context) (int, error) {
	return len(t.atts), nil
}

func (t *memTx) GetAttendance(ctx context.Context, userID string) (*domain.Attendance, error) {
	a, ok := t.atts[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

func (t *memTx) CreateAttendance(ctx context.Context, a *domain.Attendance) error {
	if _, ok := t.atts[a.UserID]; ok {
		return domain.ErrAlreadyJoined
	}
	a.ID = uuid.NewString()
	a.EventID = t.event.ID
	t.atts[a.UserID] = a
	return nil
}

func (t *memTx) DeleteAttendance(ctx context.Context, userID string) (bool, error) {
	if _, ok := t.atts[userID]; !ok {
		return false, nil
	}
	delete(t.atts, userID)
	return true, nil
}

func (t *memTx) UpdateEvent(ctx context.Context, e *domain.Event) error {
	cp := *e
	t.event = &cp
	return nil
}

// recordingNotifier implements domain.NotificationHook for tests.
type recordingNotifier struct {
	mu    sync.Mutex
	notes []*domain.RSVPNotification
	err   error
}

func (r *recordingNotifier) RSVPConfirmed(ctx context.Context, n *domain.RSVPNotification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
	return r.err
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notes)
}
