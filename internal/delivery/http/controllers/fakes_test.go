package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"eventbooking/internal/delivery/http/helpers"
	"eventbooking/internal/delivery/http/middleware"
	"eventbooking/internal/domain"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

const (
	testEventID = "6f9619ff-8b86-d011-b42d-00c04fc964ff"
	testUserID  = "user-1"
)

// newRequest builds a request with an optional JSON body, the eventID path value and an authenticated user.
func newRequest(method, target, body, eventID, userID string) *http.Request {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if eventID != "" {
		req.SetPathValue("eventID", eventID)
	}
	if userID != "" {
		req = req.WithContext(middleware.SetUserID(req.Context(), userID))
	}
	return req
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, data any) *helpers.APIError {
	t.Helper()
	var env struct {
		Data  json.RawMessage   `json:"data"`
		Error *helpers.APIError `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	if data != nil && env.Error == nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env.Error
}

var errDB = errors.New("pq: connection refused")

// fakeUserService implements domain.UserService for handler tests.
type fakeUserService struct {
	registerErr  error
	loginErr     error
	getErr       error
	user         *domain.User
	lastUsername string
	lastEmail    string
	lastPassword string
}

func (f *fakeUserService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	f.lastUsername, f.lastEmail, f.lastPassword = username, email, password
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &domain.User{ID: testUserID, Username: username, Email: email, PasswordHash: "secret-hash"}, nil
}

func (f *fakeUserService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	f.lastUsername, f.lastPassword = username, password
	if f.loginErr != nil {
		return "", nil, f.loginErr
	}
	return "jwt-token", &domain.User{ID: testUserID, Username: username}, nil
}

func (f *fakeUserService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.user, nil
}

// fakeEventService implements domain.EventService for handler tests.
type fakeEventService struct {
	err         error
	details     *domain.EventDetails
	list        []*domain.EventDetails
	total       int
	attendees   []*domain.Attendee
	lastCreate  *domain.Event
	lastFilter  domain.EventFilter
	lastPage    domain.PaginationParams
	lastEventID string
	lastUserID  string
	lastUpdate  domain.EventUpdate
}

func (f *fakeEventService) CreateEvent(ctx context.Context, event *domain.Event) error {
	f.lastCreate = event
	if f.err != nil {
		return f.err
	}
	event.ID = testEventID
	return nil
}

func (f *fakeEventService) GetEvent(ctx context.Context, eventID string) (*domain.EventDetails, error) {
	f.lastEventID = eventID
	if f.err != nil {
		return nil, f.err
	}
	return f.details, nil
}

func (f *fakeEventService) ListUpcoming(ctx context.Context, filter domain.EventFilter, page domain.PaginationParams) ([]*domain.EventDetails, int, error) {
	f.lastFilter, f.lastPage = filter, page
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.list, f.total, nil
}

func (f *fakeEventService) UpdateEvent(ctx context.Context, eventID, userID string, update domain.EventUpdate) (*domain.EventDetails, error) {
	f.lastEventID, f.lastUserID, f.lastUpdate = eventID, userID, update
	if f.err != nil {
		return nil, f.err
	}
	return f.details, nil
}

func (f *fakeEventService) DeleteEvent(ctx context.Context, eventID, userID string) error {
	f.lastEventID, f.lastUserID = eventID, userID
	return f.err
}

func (f *fakeEventService) ListAttendees(ctx context.Context, eventID, userID string) ([]*domain.Attendee, error) {
	f.lastEventID, f.lastUserID = eventID, userID
	if f.err != nil {
		return nil, f.err
	}
	return f.attendees, nil
}

// fakeRSVPService implements domain.RSVPService for handler tests.
type fakeRSVPService struct {
	result      *domain.RSVPResult
	slots       int
	items       []*domain.AttendanceWithEvent
	err         error
	lastEventID string
	lastUserID  string
}

func (f *fakeRSVPService) Join(ctx context.Context, eventID, userID string) (*domain.RSVPResult, error) {
	f.lastEventID, f.lastUserID = eventID, userID
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeRSVPService) Leave(ctx context.Context, eventID, userID string) (*domain.RSVPResult, error) {
	f.lastEventID, f.lastUserID = eventID, userID
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeRSVPService) AvailableSlots(ctx context.Context, eventID string) (int, error) {
	f.lastEventID = eventID
	if f.err != nil {
		return 0, f.err
	}
	return f.slots, nil
}

func (f *fakeRSVPService) ListMyRSVPs(ctx context.Context, userID string) ([]*domain.AttendanceWithEvent, error) {
	f.lastUserID = userID
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

// fakeCalendar implements CalendarEncoder for handler tests.
type fakeCalendar struct {
	err error
}

func (f *fakeCalendar) Encode(w io.Writer, event *domain.Event) error {
	if f.err != nil {
		return f.err
	}
	_, err := io.WriteString(w, "BEGIN:VCALENDAR\r\nSUMMARY:"+event.Title+"\r\nEND:VCALENDAR\r\n")
	return err
}
