package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rec-ctp-api/internal/models"
)

func newEventMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestEventRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newEventMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectExec("INSERT INTO events").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	event := &models.Event{Title: "Tech Symposium", Date: "2026-09-12", Time: "10:00", Location: "Main Auditorium", Category: "Technical", RegistrationLimit: 100, CreatedBy: "admin1"}
	err := repo.Create(context.Background(), event)
	require.NoError(t, err)
	assert.NotEmpty(t, event.ID)
	assert.NotNil(t, event.RegisteredStudents)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newEventMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	rows := sqlmock.NewRows([]string{"id", "title", "date", "time", "location", "description", "category", "registration_limit", "registered_students", "created_by", "created_at", "updated_at"}).
		AddRow("e1", "Tech Symposium", "2026-09-12", "10:00", "Main Auditorium", "", "Technical", 2, pq.StringArray{"s1"}, "admin1", time.Now(), time.Now())
	mock.ExpectQuery("SELECT (.+) FROM events WHERE id = \\$1").
		WithArgs("e1").
		WillReturnRows(rows)

	event, err := repo.FindByID(context.Background(), "e1")
	require.NoError(t, err)
	assert.True(t, event.IsRegistered("s1"))
	assert.False(t, event.IsRegistered("s2"))
	assert.False(t, event.IsFull())
}

func TestEventRepositoryRegister(t *testing.T) {
	db, mock, cleanup := newEventMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectQuery("UPDATE events\\s+SET registered_students = array_append").
		WithArgs("e1", "s2", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"cardinality"}).AddRow(2))

	count, ok, err := repo.Register(context.Background(), "e1", "s2")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, count)
}

func TestEventRepositoryRegisterGuardRejected(t *testing.T) {
	db, mock, cleanup := newEventMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	// Duplicate registration and a full event both fail the WHERE guard,
	// so the statement returns no row.
	mock.ExpectQuery("UPDATE events\\s+SET registered_students = array_append").
		WithArgs("e1", "s1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"cardinality"}))

	_, ok, err := repo.Register(context.Background(), "e1", "s1")
	require.NoError(t, err)
	assert.False(t, ok)
}
