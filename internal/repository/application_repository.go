package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/rec-ctp-api/internal/models"
)

const applicationColumns = `a.id, a.student_id, a.department, a.batch, a.register_number, a.academic_year, a.semester, a.cgpa, a.courses, a.internships, a.status, a.reviewer_id, a.remarks, a.created_at, a.updated_at`

// ApplicationRepository provides database access for credit transfer
// applications.
type ApplicationRepository struct {
	db *sqlx.DB
}

// NewApplicationRepository creates a new instance of ApplicationRepository.
func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// Create inserts a new application in PENDING status.
func (r *ApplicationRepository) Create(ctx context.Context, app *models.Application) error {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	app.CreatedAt = now
	app.UpdatedAt = now
	app.Status = models.ApplicationStatusPending

	const query = `INSERT INTO applications (id, student_id, department, batch, register_number, academic_year, semester, cgpa, courses, internships, status, created_at, updated_at)
	VALUES (:id, :student_id, :department, :batch, :register_number, :academic_year, :semester, :cgpa, :courses, :internships, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, app); err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

// FindByID returns an application joined with the owning student's name
// and email.
func (r *ApplicationRepository) FindByID(ctx context.Context, id string) (*models.Application, error) {
	query := fmt.Sprintf(`SELECT %s, u.full_name AS student_name, u.email AS student_email
	FROM applications a
	JOIN users u ON u.id = a.student_id
	WHERE a.id = $1 LIMIT 1`, applicationColumns)

	var app models.Application
	if err := r.db.GetContext(ctx, &app, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find application by id: %w", err)
	}
	return &app, nil
}

// List returns applications matching the filter with total count.
func (r *ApplicationRepository) List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, int, error) {
	baseQuery := `FROM applications a JOIN users u ON u.id = a.student_id WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("a.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("a.department ILIKE $%d", len(args)+1))
		args = append(args, containsPattern(filter.Department))
	}
	if len(filter.Status) > 0 {
		statuses := make([]string, len(filter.Status))
		for i, s := range filter.Status {
			statuses[i] = string(s)
		}
		conditions = append(conditions, fmt.Sprintf("a.status = ANY($%d)", len(args)+1))
		args = append(args, pq.Array(statuses))
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	listQuery := fmt.Sprintf(`SELECT %s, u.full_name AS student_name, u.email AS student_email %s ORDER BY a.created_at DESC LIMIT %d OFFSET %d`, applicationColumns, baseQuery, limit, offset)

	var apps []models.Application
	if err := r.db.SelectContext(ctx, &apps, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list applications: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count applications: %w", err)
	}

	return apps, total, nil
}

// ListRecent returns the newest applications regardless of status.
func (r *ApplicationRepository) ListRecent(ctx context.Context, limit int) ([]models.Application, error) {
	if limit <= 0 || limit > 50 {
		limit = 5
	}
	query := fmt.Sprintf(`SELECT %s, u.full_name AS student_name, u.email AS student_email
	FROM applications a
	JOIN users u ON u.id = a.student_id
	ORDER BY a.created_at DESC LIMIT %d`, applicationColumns, limit)

	var apps []models.Application
	if err := r.db.SelectContext(ctx, &apps, query); err != nil {
		return nil, fmt.Errorf("list recent applications: %w", err)
	}
	return apps, nil
}

// UpdateStatus records a review decision. The update is conditional on
// the row still being PENDING so concurrent reviewers cannot both win.
func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus, reviewerID string, remarks *string) (bool, error) {
	const query = `UPDATE applications SET status = $2, reviewer_id = $3, remarks = $4, updated_at = $5 WHERE id = $1 AND status = $6`
	result, err := r.db.ExecContext(ctx, query, id, status, reviewerID, remarks, time.Now().UTC(), models.ApplicationStatusPending)
	if err != nil {
		return false, fmt.Errorf("update application status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check status rows: %w", err)
	}
	return rows > 0, nil
}

// Resubmit replaces the payload of a rejected application and moves it
// back to PENDING. The previous reviewer is cleared while the rejection
// remarks are retained for context. Returns false if the row was not in
// REJECTED status.
func (r *ApplicationRepository) Resubmit(ctx context.Context, id string, app *models.Application) (bool, error) {
	const query = `UPDATE applications SET department = $2, batch = $3, register_number = $4, academic_year = $5, semester = $6, cgpa = $7, courses = $8, internships = $9, status = $10, reviewer_id = NULL, updated_at = $11 WHERE id = $1 AND status = $12`
	result, err := r.db.ExecContext(ctx, query,
		id, app.Department, app.Batch, app.RegisterNumber, app.AcademicYear, app.Semester,
		app.CGPA, app.Courses, app.Internships, models.ApplicationStatusPending,
		time.Now().UTC(), models.ApplicationStatusRejected)
	if err != nil {
		return false, fmt.Errorf("resubmit application: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check resubmit rows: %w", err)
	}
	return rows > 0, nil
}

// Delete removes an application permanently.
func (r *ApplicationRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM applications WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete application: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check delete rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Count returns the total number of applications.
func (r *ApplicationRepository) Count(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM applications`
	var total int
	if err := r.db.GetContext(ctx, &total, query); err != nil {
		return 0, fmt.Errorf("count applications: %w", err)
	}
	return total, nil
}
