package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventbooking/internal/domain"
)

func newTestEventService(store *memStore) domain.EventService {
	return NewEventService(store, store, testLogger(), 5*time.Second)
}

func ptr[T any](v T) *T { return &v }

func TestEventService_CreateEvent(t *testing.T) {
	future := time.Now().Add(24 * time.Hour)
	tests := []struct {
		name    string
		event   *domain.Event
		wantErr error
	}{
		{
			name:  "valid",
			event: domain.NewEvent("  Go meetup ", "talks", "meetup", "Berlin", future, 20, "creator"),
		},
		{
			name:    "missing title",
			event:   domain.NewEvent("  ", "", "meetup", "Berlin", future, 20, "creator"),
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "zero capacity",
			event:   domain.NewEvent("Go meetup", "", "meetup", "Berlin", future, 0, "creator"),
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "negative capacity",
			event:   domain.NewEvent("Go meetup", "", "meetup", "Berlin", future, -3, "creator"),
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "missing date",
			event:   domain.NewEvent("Go meetup", "", "meetup", "Berlin", time.Time{}, 5, "creator"),
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "title too long",
			event:   domain.NewEvent(strings.Repeat("é", 201), "", "meetup", "Berlin", future, 5, "creator"),
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "missing creator",
			event:   domain.NewEvent("Go meetup", "", "meetup", "Berlin", future, 5, ""),
			wantErr: domain.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			svc := newTestEventService(store)

			err := svc.CreateEvent(context.Background(), tt.event)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, tt.event.ID)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, tt.event.ID)
			assert.Equal(t, "Go meetup", tt.event.Title)
			assert.False(t, tt.event.CreatedAt.IsZero())

			details, err := svc.GetEvent(context.Background(), tt.event.ID)
			require.NoError(t, err)
			assert.Equal(t, 0, details.AttendeeCount)
			assert.Equal(t, 20, details.AvailableSlots)
		})
	}
}

func TestEventService_CreateEvent_CountsCharacters(t *testing.T) {
	svc := newTestEventService(newMemStore())
	future := time.Now().Add(24 * time.Hour)

	title := strings.Repeat("é", 150)
	event := domain.NewEvent(title, "", "café", strings.Repeat("ü", 255), future, 5, "creator")
	require.Greater(t, len(title), 200)

	require.NoError(t, svc.CreateEvent(context.Background(), event))
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, title, event.Title)
}

func TestEventService_GetEvent(t *testing.T) {
	store := newMemStore()
	creator := store.addUser("creator")
	event := store.addEvent(creator.ID, 3)
	rsvps := newTestRSVPService(store, nil)
	svc := newTestEventService(store)
	ctx := context.Background()

	_, err := rsvps.Join(ctx, event.ID, store.addUser("alice").ID)
	require.NoError(t, err)

	details, err := svc.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, event.ID, details.Event.ID)
	assert.Equal(t, 1, details.AttendeeCount)
	assert.Equal(t, 2, details.AvailableSlots)
	assert.False(t, details.OverCapacity)

	_, err = svc.GetEvent(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEventService_ListUpcoming(t *testing.T) {
	store := newMemStore()
	creator := store.addUser("creator")
	now := time.Now()

	past := domain.NewEvent("Old meetup", "", "meetup", "Berlin", now.Add(-time.Hour), 5, creator.ID)
	require.NoError(t, store.Create(context.Background(), past))
	for i := 0; i < 12; i++ {
		category := "meetup"
		if i%2 == 1 {
			category = "workshop"
		}
		e := domain.NewEvent(fmt.Sprintf("Event %02d", i), "", category, "Berlin", now.Add(time.Duration(i+1)*time.Hour), 5, creator.ID)
		require.NoError(t, store.Create(context.Background(), e))
	}
	svc := newTestEventService(store)
	ctx := context.Background()

	t.Run("first page excludes past events", func(t *testing.T) {
		items, total, err := svc.ListUpcoming(ctx, domain.EventFilter{}, domain.PaginationParams{Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, 12, total)
		require.Len(t, items, 10)
		assert.Equal(t, "Event 00", items[0].Event.Title)
		for _, d := range items {
			assert.NotEqual(t, past.ID, d.Event.ID)
			assert.Equal(t, 5, d.AvailableSlots)
		}
	})

	t.Run("page past the end falls back to last page", func(t *testing.T) {
		items, total, err := svc.ListUpcoming(ctx, domain.EventFilter{}, domain.PaginationParams{Page: 9, PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, 12, total)
		require.Len(t, items, 2)
		assert.Equal(t, "Event 10", items[0].Event.Title)
	})

	t.Run("huge page falls back to last page", func(t *testing.T) {
		items, total, err := svc.ListUpcoming(ctx, domain.EventFilter{}, domain.PaginationParams{Page: 92233720368547760, PageSize: 100})
		require.NoError(t, err)
		assert.Equal(t, 12, total)
		require.Len(t, items, 12)
		assert.Equal(t, "Event 00", items[0].Event.Title)
	})

	t.Run("category filter", func(t *testing.T) {
		items, total, err := svc.ListUpcoming(ctx, domain.EventFilter{Category: "workshop"}, domain.PaginationParams{Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, 6, total)
		for _, d := range items {
			assert.Equal(t, "workshop", d.Event.Category)
		}
	})

	t.Run("repository error", func(t *testing.T) {
		store.listErr = errors.New("db down")
		defer func() { store.listErr = nil }()
		_, _, err := svc.ListUpcoming(ctx, domain.EventFilter{}, domain.PaginationParams{Page: 1, PageSize: 10})
		require.Error(t, err)
	})
}

func TestEventService_UpdateEvent(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T, capacity, joined int) (*memStore, *domain.Event, domain.EventService) {
		t.Helper()
		store := newMemStore()
		creator := store.addUser("creator")
		event := store.addEvent(creator.ID, capacity)
		rsvps := newTestRSVPService(store, nil)
		for i := 0; i < joined; i++ {
			_, err := rsvps.Join(ctx, event.ID, store.addUser(fmt.Sprintf("u%d", i)).ID)
			require.NoError(t, err)
		}
		return store, event, newTestEventService(store)
	}

	t.Run("creator updates fields", func(t *testing.T) {
		store, event, svc := setup(t, 10, 2)
		details, err := svc.UpdateEvent(ctx, event.ID, event.CreatorID, domain.EventUpdate{
			Title:    ptr("Renamed"),
			Capacity: ptr(4),
		})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", details.Event.Title)
		assert.Equal(t, 4, details.Event.Capacity)
		assert.Equal(t, 2, details.AvailableSlots)

		stored, err := store.GetByID(ctx, event.ID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", stored.Title)
		assert.Equal(t, "Hall", stored.Location)
	})

	t.Run("capacity below attendance is rejected", func(t *testing.T) {
		store, event, svc := setup(t, 10, 5)
		_, err := svc.UpdateEvent(ctx, event.ID, event.CreatorID, domain.EventUpdate{Capacity: ptr(3)})
		require.ErrorIs(t, err, domain.ErrCapacityConflict)

		stored, err := store.GetByID(ctx, event.ID)
		require.NoError(t, err)
		assert.Equal(t, 10, stored.Capacity)
		assert.Equal(t, 5, store.attendeeCount(event.ID))
	})

	t.Run("capacity equal to attendance is allowed", func(t *testing.T) {
		_, event, svc := setup(t, 10, 5)
		details, err := svc.UpdateEvent(ctx, event.ID, event.CreatorID, domain.EventUpdate{Capacity: ptr(5)})
		require.NoError(t, err)
		assert.Equal(t, 0, details.AvailableSlots)
	})

	t.Run("non creator is forbidden", func(t *testing.T) {
		store, event, svc := setup(t, 10, 0)
		_, err := svc.UpdateEvent(ctx, event.ID, store.addUser("mallory").ID, domain.EventUpdate{Title: ptr("Mine")})
		require.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("invalid update", func(t *testing.T) {
		_, event, svc := setup(t, 10, 0)
		_, err := svc.UpdateEvent(ctx, event.ID, event.CreatorID, domain.EventUpdate{Capacity: ptr(0)})
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("unknown event", func(t *testing.T) {
		_, event, svc := setup(t, 10, 0)
		_, err := svc.UpdateEvent(ctx, "missing", event.CreatorID, domain.EventUpdate{})
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestEventService_DeleteEvent(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	creator := store.addUser("creator")
	mallory := store.addUser("mallory")
	event := store.addEvent(creator.ID, 3)
	svc := newTestEventService(store)

	require.ErrorIs(t, svc.DeleteEvent(ctx, event.ID, mallory.ID), domain.ErrForbidden)
	require.NoError(t, svc.DeleteEvent(ctx, event.ID, creator.ID))
	require.ErrorIs(t, svc.DeleteEvent(ctx, event.ID, creator.ID), domain.ErrNotFound)

	_, err := svc.GetEvent(ctx, event.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEventService_ListAttendees(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	creator := store.addUser("creator")
	alice := store.addUser("alice")
	event := store.addEvent(creator.ID, 3)
	svc := newTestEventService(store)

	attendees, err := svc.ListAttendees(ctx, event.ID, creator.ID)
	require.NoError(t, err)
	assert.Empty(t, attendees)

	_, err = newTestRSVPService(store, nil).Join(ctx, event.ID, alice.ID)
	require.NoError(t, err)

	attendees, err = svc.ListAttendees(ctx, event.ID, creator.ID)
	require.NoError(t, err)
	require.Len(t, attendees, 1)
	assert.Equal(t, "alice", attendees[0].Username)

	_, err = svc.ListAttendees(ctx, event.ID, alice.ID)
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.ListAttendees(ctx, "missing", creator.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCanManageEvent(t *testing.T) {
	event := &domain.Event{CreatorID: "u1"}
	assert.True(t, CanManageEvent("u1", event))
	assert.False(t, CanManageEvent("u2", event))
	assert.False(t, CanManageEvent("", event))
	assert.False(t, CanManageEvent("u1", nil))
}
