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

const achievementColumns = `ac.id, ac.student_id, ac.title, ac.type, ac.date, ac.description, ac.proof_file, ac.status, ac.reviewer_id, ac.created_at, ac.updated_at`

// AchievementRepository provides database access for student
// achievements.
type AchievementRepository struct {
	db *sqlx.DB
}

// NewAchievementRepository creates a new instance of AchievementRepository.
func NewAchievementRepository(db *sqlx.DB) *AchievementRepository {
	return &AchievementRepository{db: db}
}

// Create inserts a new achievement awaiting verification.
func (r *AchievementRepository) Create(ctx context.Context, ach *models.Achievement) error {
	if ach.ID == "" {
		ach.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	ach.CreatedAt = now
	ach.UpdatedAt = now
	ach.Status = models.AchievementStatusPendingVerified

	const query = `INSERT INTO achievements (id, student_id, title, type, date, description, proof_file, status, created_at, updated_at)
	VALUES (:id, :student_id, :title, :type, :date, :description, :proof_file, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, ach); err != nil {
		return fmt.Errorf("create achievement: %w", err)
	}
	return nil
}

// FindByID returns an achievement with the student's name and department
// joined in.
func (r *AchievementRepository) FindByID(ctx context.Context, id string) (*models.Achievement, error) {
	query := fmt.Sprintf(`SELECT %s, u.full_name AS student_name, u.department AS student_department
	FROM achievements ac
	JOIN users u ON u.id = ac.student_id
	WHERE ac.id = $1 LIMIT 1`, achievementColumns)

	var ach models.Achievement
	if err := r.db.GetContext(ctx, &ach, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find achievement by id: %w", err)
	}
	return &ach, nil
}

// List returns achievements matching the filter with total count.
func (r *AchievementRepository) List(ctx context.Context, filter models.AchievementFilter) ([]models.Achievement, int, error) {
	baseQuery := `FROM achievements ac JOIN users u ON u.id = ac.student_id WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("ac.student_id = $%d", len(args)+1))
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
		conditions = append(conditions, fmt.Sprintf("ac.status = ANY($%d)", len(args)+1))
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

	listQuery := fmt.Sprintf(`SELECT %s, u.full_name AS student_name, u.department AS student_department %s ORDER BY ac.created_at DESC LIMIT %d OFFSET %d`, achievementColumns, baseQuery, limit, offset)

	var achievements []models.Achievement
	if err := r.db.SelectContext(ctx, &achievements, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list achievements: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count achievements: %w", err)
	}

	return achievements, total, nil
}

// ListHighlights returns verified achievements projected for the public
// landing page, newest first.
func (r *AchievementRepository) ListHighlights(ctx context.Context, limit int) ([]models.AchievementHighlight, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	query := fmt.Sprintf(`SELECT ac.title, ac.type, ac.date, ac.description
	FROM achievements ac
	WHERE ac.status = $1
	ORDER BY ac.created_at DESC LIMIT %d`, limit)

	var highlights []models.AchievementHighlight
	if err := r.db.SelectContext(ctx, &highlights, query, models.AchievementStatusVerified); err != nil {
		return nil, fmt.Errorf("list achievement highlights: %w", err)
	}
	return highlights, nil
}

// UpdateStatus records a verification decision on a pending achievement.
// Returns false if the row was not awaiting verification.
func (r *AchievementRepository) UpdateStatus(ctx context.Context, id string, status models.AchievementStatus, reviewerID string) (bool, error) {
	const query = `UPDATE achievements SET status = $2, reviewer_id = $3, updated_at = $4 WHERE id = $1 AND status = $5`
	result, err := r.db.ExecContext(ctx, query, id, status, reviewerID, time.Now().UTC(), models.AchievementStatusPendingVerified)
	if err != nil {
		return false, fmt.Errorf("update achievement status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check achievement status rows: %w", err)
	}
	return rows > 0, nil
}

// Delete removes an achievement permanently.
func (r *AchievementRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM achievements WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete achievement: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check achievement delete rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
