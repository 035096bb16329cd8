package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/rec-ctp-api/internal/models"
)

const eventColumns = `id, title, date, time, location, description, category, registration_limit, registered_students, created_by, created_at, updated_at`

// EventRepository provides database access for campus events.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository creates a new instance of EventRepository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts a new event with an empty registration set.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now
	if event.RegisteredStudents == nil {
		event.RegisteredStudents = []string{}
	}

	const query = `INSERT INTO events (id, title, date, time, location, description, category, registration_limit, registered_students, created_by, created_at, updated_at)
	VALUES (:id, :title, :date, :time, :location, :description, :category, :registration_limit, :registered_students, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// FindByID returns an event by identifier.
func (r *EventRepository) FindByID(ctx context.Context, id string) (*models.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events WHERE id = $1 LIMIT 1`, eventColumns)
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find event by id: %w", err)
	}
	return &event, nil
}

// List returns all events ordered by creation time, newest first.
func (r *EventRepository) List(ctx context.Context) ([]models.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events ORDER BY created_at DESC`, eventColumns)
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// Register appends the student to the event's registration set in a
// single conditional UPDATE. The guard rejects duplicates and enforces
// the registration limit in the same statement, so two concurrent
// registrations for the last seat cannot both succeed. Returns the
// updated registration count, or false when the guard did not match.
func (r *EventRepository) Register(ctx context.Context, eventID, studentID string) (int, bool, error) {
	const query = `UPDATE events
	SET registered_students = array_append(registered_students, $2), updated_at = $3
	WHERE id = $1
	  AND NOT ($2 = ANY(registered_students))
	  AND (registration_limit = 0 OR cardinality(registered_students) < registration_limit)
	RETURNING cardinality(registered_students)`

	var count int
	err := r.db.GetContext(ctx, &count, query, eventID, studentID, time.Now().UTC())
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("register for event: %w", err)
	}
	return count, true, nil
}

// Delete removes an event permanently.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM events WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check event delete rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
