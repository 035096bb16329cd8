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

// UploadRepository stores metadata for proof documents persisted in the
// blob store.
type UploadRepository struct {
	db *sqlx.DB
}

// NewUploadRepository creates a new instance of UploadRepository.
func NewUploadRepository(db *sqlx.DB) *UploadRepository {
	return &UploadRepository{db: db}
}

// Create inserts an uploaded file record.
func (r *UploadRepository) Create(ctx context.Context, file *models.UploadedFile) error {
	if file.ID == "" {
		file.ID = uuid.NewString()
	}
	if file.CreatedAt.IsZero() {
		file.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO uploaded_files (id, filename, file_path, mime_type, size_bytes, uploaded_by, created_at)
	VALUES (:id, :filename, :file_path, :mime_type, :size_bytes, :uploaded_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, file); err != nil {
		return fmt.Errorf("create uploaded file: %w", err)
	}
	return nil
}

// FindByID returns a stored file record.
func (r *UploadRepository) FindByID(ctx context.Context, id string) (*models.UploadedFile, error) {
	const query = `SELECT id, filename, file_path, mime_type, size_bytes, uploaded_by, created_at FROM uploaded_files WHERE id = $1 LIMIT 1`
	var file models.UploadedFile
	if err := r.db.GetContext(ctx, &file, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find uploaded file by id: %w", err)
	}
	return &file, nil
}

// Delete removes a file record.
func (r *UploadRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM uploaded_files WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete uploaded file: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check uploaded file delete rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
