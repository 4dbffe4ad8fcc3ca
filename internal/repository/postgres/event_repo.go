package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"eventbooking/internal/domain"
)

const eventColumns = `id, title, description, category, scheduled_at, location, capacity, creator_id, created_at, updated_at`

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.Category, &e.ScheduledAt,
		&e.Location, &e.Capacity, &e.CreatorID, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (title, description, category, scheduled_at, location, capacity, creator_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		e.Title, e.Description, e.Category, e.ScheduledAt, e.Location, e.Capacity, e.CreatorID, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
	if err != nil {
		switch pqCode(err) {
		case pqForeignKeyViolation:
			return domain.ErrUserNotFound
		case pqCheckViolation:
			return fmt.Errorf("%w: capacity must be positive", domain.ErrInvalidInput)
		}
		return err
	}
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// ListUpcoming returns one page of events matching filter ordered by scheduled time,
// together with the total number of matching events.
func (r *eventRepository) ListUpcoming(ctx context.Context, filter domain.EventFilter, page domain.PaginationParams) ([]*domain.Event, int, error) {
	where := []string{"scheduled_at >= $1"}
	args := []any{filter.From}
	n := 2
	if q := strings.TrimSpace(filter.Query); q != "" {
		where = append(where, fmt.Sprintf(`title ILIKE $%d ESCAPE '\'`, n))
		args = append(args, "%"+escapeLike(q)+"%")
		n++
	}
	if c := strings.TrimSpace(filter.Category); c != "" {
		where = append(where, fmt.Sprintf("category = $%d", n))
		args = append(args, c)
		n++
	}
	if filter.Date != nil {
		y, m, d := filter.Date.UTC().Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		where = append(where, fmt.Sprintf("scheduled_at >= $%d AND scheduled_at < $%d", n, n+1))
		args = append(args, day, day.AddDate(0, 0, 1))
		n += 2
	}
	whereSQL := strings.Join(where, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM events WHERE ` + whereSQL
	if err := r.DB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listQuery := fmt.Sprintf(`
		SELECT %s
		FROM events
		WHERE %s
		ORDER BY scheduled_at ASC, id ASC
		LIMIT $%d OFFSET $%d
	`, eventColumns, whereSQL, n, n+1)
	rows, err := r.DB.QueryContext(ctx, listQuery, append(args, page.PageSize, page.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		events = append(events, e)
	}
	return events, total, rows.Err()
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM events WHERE id = $1`
	result, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
