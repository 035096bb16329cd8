package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rec-ctp-api/internal/models"
)

func newAchievementMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAchievementRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newAchievementMock(t)
	defer cleanup()
	repo := NewAchievementRepository(db)

	mock.ExpectExec("INSERT INTO achievements").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	ach := &models.Achievement{StudentID: "u1", Title: "First Prize", Type: "Paper Presentation", Date: "2026-02-10", Description: "National level symposium"}
	err := repo.Create(context.Background(), ach)
	require.NoError(t, err)
	assert.Equal(t, models.AchievementStatusPendingVerified, ach.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAchievementRepositoryListHighlights(t *testing.T) {
	db, mock, cleanup := newAchievementMock(t)
	defer cleanup()
	repo := NewAchievementRepository(db)

	rows := sqlmock.NewRows([]string{"title", "type", "date", "description"}).
		AddRow("First Prize", "Paper Presentation", "2026-02-10", "National level symposium")
	mock.ExpectQuery("SELECT ac.title, ac.type, ac.date, ac.description\\s+FROM achievements ac\\s+WHERE ac.status = \\$1").
		WithArgs(models.AchievementStatusVerified).
		WillReturnRows(rows)

	highlights, err := repo.ListHighlights(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, highlights, 1)
	assert.Equal(t, "First Prize", highlights[0].Title)
}

func TestAchievementRepositoryUpdateStatusAlreadyVerified(t *testing.T) {
	db, mock, cleanup := newAchievementMock(t)
	defer cleanup()
	repo := NewAchievementRepository(db)

	mock.ExpectExec("UPDATE achievements SET status").
		WithArgs("ach1", models.AchievementStatusVerified, "f1", sqlmock.AnyArg(), models.AchievementStatusPendingVerified).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.UpdateStatus(context.Background(), "ach1", models.AchievementStatusVerified, "f1")
	require.NoError(t, err)
	assert.False(t, ok)
}
