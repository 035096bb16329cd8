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

const odColumns = `o.id, o.student_id, o.reason, o.from_date, o.to_date, o.description, o.proof_file, o.status, o.reviewer_id, o.remarks, o.created_at, o.updated_at`

// ODRepository provides database access for on-duty requests.
type ODRepository struct {
	db *sqlx.DB
}

// NewODRepository creates a new instance of ODRepository.
func NewODRepository(db *sqlx.DB) *ODRepository {
	return &ODRepository{db: db}
}

// Create inserts a new on-duty request in PENDING status.
func (r *ODRepository) Create(ctx context.Context, od *models.ODRequest) error {
	if od.ID == "" {
		od.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	od.CreatedAt = now
	od.UpdatedAt = now
	od.Status = models.ODStatusPending

	const query = `INSERT INTO od_requests (id, student_id, reason, from_date, to_date, description, proof_file, status, created_at, updated_at)
	VALUES (:id, :student_id, :reason, :from_date, :to_date, :description, :proof_file, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, od); err != nil {
		return fmt.Errorf("create od request: %w", err)
	}
	return nil
}

// FindByID returns an on-duty request with the student's name and
// department joined in.
func (r *ODRepository) FindByID(ctx context.Context, id string) (*models.ODRequest, error) {
	query := fmt.Sprintf(`SELECT %s, u.full_name AS student_name, u.department AS student_department
	FROM od_requests o
	JOIN users u ON u.id = o.student_id
	WHERE o.id = $1 LIMIT 1`, odColumns)

	var od models.ODRequest
	if err := r.db.GetContext(ctx, &od, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find od request by id: %w", err)
	}
	return &od, nil
}

// List returns on-duty requests matching the filter with total count.
func (r *ODRepository) List(ctx context.Context, filter models.ODFilter) ([]models.ODRequest, int, error) {
	baseQuery := `FROM od_requests o JOIN users u ON u.id = o.student_id WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("o.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("u.department ILIKE $%d", len(args)+1))
		args = append(args, containsPattern(filter.Department))
	}
	if len(filter.Status) > 0 {
		statuses := make([]string, len(filter.Status))
		for i, s := range filter.Status {
			statuses[i] = string(s)
		}
		conditions = append(conditions, fmt.Sprintf("o.status = ANY($%d)", len(args)+1))
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

	listQuery := fmt.Sprintf(`SELECT %s, u.full_name AS student_name, u.department AS student_department %s ORDER BY o.created_at DESC LIMIT %d OFFSET %d`, odColumns, baseQuery, limit, offset)

	var requests []models.ODRequest
	if err := r.db.SelectContext(ctx, &requests, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list od requests: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count od requests: %w", err)
	}

	return requests, total, nil
}

// UpdateStatus records a review decision on a pending request. Returns
// false if the row was not in PENDING status.
func (r *ODRepository) UpdateStatus(ctx context.Context, id string, status models.ODStatus, reviewerID string, remarks *string) (bool, error) {
	const query = `UPDATE od_requests SET status = $2, reviewer_id = $3, remarks = $4, updated_at = $5 WHERE id = $1 AND status = $6`
	result, err := r.db.ExecContext(ctx, query, id, status, reviewerID, remarks, time.Now().UTC(), models.ODStatusPending)
	if err != nil {
		return false, fmt.Errorf("update od status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check od status rows: %w", err)
	}
	return rows > 0, nil
}

// Delete removes an on-duty request permanently.
func (r *ODRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM od_requests WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete od request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check od delete rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Count returns the total number of on-duty requests.
func (r *ODRepository) Count(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM od_requests`
	var total int
	if err := r.db.GetContext(ctx, &total, query); err != nil {
		return 0, fmt.Errorf("count od requests: %w", err)
	}
	return total, nil
}
