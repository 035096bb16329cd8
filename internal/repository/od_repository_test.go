package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rec-ctp-api/internal/models"
)

func newODMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func odRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "student_id", "reason", "from_date", "to_date", "description", "proof_file", "status", "reviewer_id", "remarks", "created_at", "updated_at", "student_name", "student_department"}).
		AddRow("od1", "u1", "Hackathon", time.Now(), time.Now().Add(48*time.Hour), "Smart India Hackathon finals", nil, "PENDING", nil, nil, time.Now(), time.Now(), "Student One", "CSE")
}

func TestODRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newODMock(t)
	defer cleanup()
	repo := NewODRepository(db)

	mock.ExpectExec("INSERT INTO od_requests").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	od := &models.ODRequest{StudentID: "u1", Reason: "Hackathon", FromDate: time.Now(), ToDate: time.Now().Add(48 * time.Hour), Description: "Smart India Hackathon finals"}
	err := repo.Create(context.Background(), od)
	require.NoError(t, err)
	assert.Equal(t, models.ODStatusPending, od.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestODRepositoryListByDepartment(t *testing.T) {
	db, mock, cleanup := newODMock(t)
	defer cleanup()
	repo := NewODRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM od_requests o JOIN users u ON u.id = o.student_id WHERE 1=1 AND u.department ILIKE \\$1").
		WithArgs("%CSB%").
		WillReturnRows(odRows())
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM od_requests o JOIN users u").
		WithArgs("%CSB%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	requests, total, err := repo.List(context.Background(), models.ODFilter{Department: "CSB"})
	require.NoError(t, err)
	assert.Len(t, requests, 1)
	assert.Equal(t, 1, total)
}

func TestODRepositoryUpdateStatusAlreadyDecided(t *testing.T) {
	db, mock, cleanup := newODMock(t)
	defer cleanup()
	repo := NewODRepository(db)

	mock.ExpectExec("UPDATE od_requests SET status").
		WithArgs("od1", models.ODStatusApproved, "f1", nil, sqlmock.AnyArg(), models.ODStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.UpdateStatus(context.Background(), "od1", models.ODStatusApproved, "f1", nil)
	require.NoError(t, err)
	assert.False(t, ok)
}
