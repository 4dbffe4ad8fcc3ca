package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"eventbooking/internal/domain"
)

type attendanceRepository struct {
	DB *sql.DB
}

func NewAttendanceRepository(db *sql.DB) domain.AttendanceRepository {
	return &attendanceRepository{
		DB: db,
	}
}

// InEventTx locks the event row with SELECT ... FOR UPDATE for the lifetime of the
// transaction. Concurrent callers on the same event queue behind the lock; callers on
// other events are unaffected.
func (r *attendanceRepository) InEventTx(ctx context.Context, eventID string, fn func(ctx context.Context, tx domain.EventTx) error) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 FOR UPDATE`
	event, err := scanEvent(tx.QueryRowContext(ctx, query, eventID))
	if err != nil {
		_ = tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("lock event: %w", err)
	}

	if err := fn(ctx, &eventTx{tx: tx, event: event}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *attendanceRepository) CountByEventID(ctx context.Context, eventID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM attendances WHERE event_id = $1`, eventID).Scan(&n)
	return n, err
}

// CountByEventIDs returns attendee counts keyed by event ID. Events without attendees are absent.
func (r *attendanceRepository) CountByEventIDs(ctx context.Context, eventIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(eventIDs))
	if len(eventIDs) == 0 {
		return counts, nil
	}
	query := `
		SELECT event_id, COUNT(*)
		FROM attendances
		WHERE event_id = ANY($1)
		GROUP BY event_id
	`
	rows, err := r.DB.QueryContext(ctx, query, pq.Array(eventIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

func (r *attendanceRepository) ListAttendeesByEventID(ctx context.Context, eventID string) ([]*domain.Attendee, error) {
	query := `
		SELECT a.user_id, u.username, u.email, a.created_at
		FROM attendances a
		JOIN users u ON u.id = a.user_id
		WHERE a.event_id = $1
		ORDER BY a.created_at ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	attendees := make([]*domain.Attendee, 0)
	for rows.Next() {
		a := &domain.Attendee{}
		if err := rows.Scan(&a.UserID, &a.Username, &a.Email, &a.JoinedAt); err != nil {
			return nil, err
		}
		attendees = append(attendees, a)
	}
	return attendees, rows.Err()
}

func (r *attendanceRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.AttendanceWithEvent, error) {
	query := `
		SELECT a.id, a.event_id, a.user_id, a.created_at,
			e.id, e.title, e.description, e.category, e.scheduled_at, e.location, e.capacity, e.creator_id, e.created_at, e.updated_at
		FROM attendances a
		JOIN events e ON e.id = a.event_id
		WHERE a.user_id = $1
		ORDER BY e.scheduled_at ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]*domain.AttendanceWithEvent, 0)
	for rows.Next() {
		a := &domain.Attendance{}
		e := &domain.Event{}
		if err := rows.Scan(
			&a.ID, &a.EventID, &a.UserID, &a.CreatedAt,
			&e.ID, &e.Title, &e.Description, &e.Category, &e.ScheduledAt, &e.Location, &e.Capacity, &e.CreatorID, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, &domain.AttendanceWithEvent{Attendance: a, Event: e})
	}
	return items, rows.Err()
}

// eventTx implements domain.EventTx on a *sql.Tx holding the event row lock.
type eventTx struct {
	tx    *sql.Tx
	event *domain.Event
}

func (t *eventTx) Event() *domain.Event { return t.event }

func (t *eventTx) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	query := `
		SELECT id, username, email, password_hash, salt, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	u := &domain.User{}
	err := t.tx.QueryRowContext(ctx, query, userID).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Salt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (t *eventTx) CountAttendees(ctx context.Context) (int, error) {
	var n int
	err := t.tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM attendances WHERE event_id = $1`, t.event.ID).Scan(&n)
	return n, err
}

func (t *eventTx) GetAttendance(ctx context.Context, userID string) (*domain.Attendance, error) {
	query := `
		SELECT id, event_id, user_id, created_at
		FROM attendances
		WHERE event_id = $1 AND user_id = $2
	`
	a := &domain.Attendance{}
	err := t.tx.QueryRowContext(ctx, query, t.event.ID, userID).Scan(&a.ID, &a.EventID, &a.UserID, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

// CreateAttendance uses ON CONFLICT DO NOTHING so a duplicate does not abort the transaction.
func (t *eventTx) CreateAttendance(ctx context.Context, a *domain.Attendance) error {
	query := `
		INSERT INTO attendances (event_id, user_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, event_id) DO NOTHING
		RETURNING id
	`
	err := t.tx.QueryRowContext(ctx, query, t.event.ID, a.UserID, a.CreatedAt).Scan(&a.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrAlreadyJoined
		}
		switch pqCode(err) {
		case pqUniqueViolation:
			return domain.ErrAlreadyJoined
		case pqForeignKeyViolation:
			return domain.ErrUserNotFound
		}
		return err
	}
	a.EventID = t.event.ID
	return nil
}

func (t *eventTx) DeleteAttendance(ctx context.Context, userID string) (bool, error) {
	result, err := t.tx.ExecContext(ctx, `DELETE FROM attendances WHERE event_id = $1 AND user_id = $2`, t.event.ID, userID)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (t *eventTx) UpdateEvent(ctx context.Context, e *domain.Event) error {
	query := `
		UPDATE events
		SET title = $1, description = $2, category = $3, scheduled_at = $4, location = $5, capacity = $6, updated_at = $7
		WHERE id = $8
	`
	_, err := t.tx.ExecContext(ctx, query, e.Title, e.Description, e.Category, e.ScheduledAt, e.Location, e.Capacity, e.UpdatedAt, t.event.ID)
	if err != nil {
		if pqCode(err) == pqCheckViolation {
			return fmt.Errorf("%w: capacity must be positive", domain.ErrInvalidInput)
		}
		return err
	}
	t.event = e
	return nil
}
