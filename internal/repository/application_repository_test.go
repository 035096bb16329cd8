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

func newApplicationMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func applicationRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "student_id", "department", "batch", "register_number", "academic_year", "semester", "cgpa", "courses", "internships", "status", "reviewer_id", "remarks", "created_at", "updated_at", "student_name", "student_email"}).
		AddRow("a1", "u1", "CSE", "2021-2025", "211001", "2023-2024", "5", 8.4, []byte(`[{"course_type":"NPTEL","rec_subject_code":"CS8501","course_name":"Compilers","offering_university":"IIT Madras","credits":3,"grade":"A","dropped_elective":"Elective I","dropped_elective_code":"CS8651","semester":"5"}]`), []byte(`[]`), "PENDING", nil, nil, time.Now(), time.Now(), "Student One", "student@rajalakshmi.edu.in")
}

func TestApplicationRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newApplicationMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectExec("INSERT INTO applications").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	app := &models.Application{StudentID: "u1", Department: "CSE", Batch: "2021-2025", RegisterNumber: "211001", AcademicYear: "2023-2024", Semester: "5", CGPA: 8.4}
	err := repo.Create(context.Background(), app)
	require.NoError(t, err)
	assert.NotEmpty(t, app.ID)
	assert.Equal(t, models.ApplicationStatusPending, app.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newApplicationMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM applications a\\s+JOIN users u ON u.id = a.student_id\\s+WHERE a.id = \\$1").
		WithArgs("a1").
		WillReturnRows(applicationRows())

	app, err := repo.FindByID(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "u1", app.StudentID)
	require.Len(t, app.Courses, 1)
	assert.Equal(t, 3, app.Courses[0].Credits)
	require.NotNil(t, app.StudentName)
	assert.Equal(t, "Student One", *app.StudentName)
}

func TestApplicationRepositoryUpdateStatusConditional(t *testing.T) {
	db, mock, cleanup := newApplicationMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	remarks := "meets credit requirements"
	mock.ExpectExec("UPDATE applications SET status").
		WithArgs("a1", models.ApplicationStatusApproved, "f1", &remarks, sqlmock.AnyArg(), models.ApplicationStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.UpdateStatus(context.Background(), "a1", models.ApplicationStatusApproved, "f1", &remarks)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestApplicationRepositoryUpdateStatusAlreadyDecided(t *testing.T) {
	db, mock, cleanup := newApplicationMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectExec("UPDATE applications SET status").
		WithArgs("a1", models.ApplicationStatusRejected, "f1", nil, sqlmock.AnyArg(), models.ApplicationStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.UpdateStatus(context.Background(), "a1", models.ApplicationStatusRejected, "f1", nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestApplicationRepositoryResubmitRequiresRejected(t *testing.T) {
	db, mock, cleanup := newApplicationMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectExec("UPDATE applications SET department").
		WithArgs("a1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), models.ApplicationStatusPending, sqlmock.AnyArg(), models.ApplicationStatusRejected).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.Resubmit(context.Background(), "a1", &models.Application{Department: "CSE"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestApplicationRepositoryListByDepartmentSubstring(t *testing.T) {
	db, mock, cleanup := newApplicationMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	// "CSB" must also match departments like "CSBS".
	mock.ExpectQuery("SELECT (.+) FROM applications a JOIN users u ON u.id = a.student_id WHERE 1=1 AND a.department ILIKE \\$1").
		WithArgs("%CSB%").
		WillReturnRows(applicationRows())
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM applications a JOIN users u").
		WithArgs("%CSB%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	apps, total, err := repo.List(context.Background(), models.ApplicationFilter{Department: "CSB"})
	require.NoError(t, err)
	assert.Len(t, apps, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContainsPatternEscapesMetacharacters(t *testing.T) {
	assert.Equal(t, `%CSB%`, containsPattern("CSB"))
	assert.Equal(t, `%C\_B%`, containsPattern("C_B"))
	assert.Equal(t, `%100\%\\x%`, containsPattern(`100%\x`))
}

func TestApplicationRepositoryListByStatus(t *testing.T) {
	db, mock, cleanup := newApplicationMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM applications a JOIN users u ON u.id = a.student_id WHERE 1=1 AND a.status = ANY\\(\\$1\\)").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(applicationRows())
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM applications a JOIN users u").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	apps, total, err := repo.List(context.Background(), models.ApplicationFilter{Status: []models.ApplicationStatus{models.ApplicationStatusPending}})
	require.NoError(t, err)
	assert.Len(t, apps, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
