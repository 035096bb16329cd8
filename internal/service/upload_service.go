package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/rec-ctp-api/internal/dto"
	"github.com/noah-isme/rec-ctp-api/internal/models"
	appErrors "github.com/noah-isme/rec-ctp-api/pkg/errors"
	"github.com/noah-isme/rec-ctp-api/pkg/storage"
)

type uploadRepository interface {
	Create(ctx context.Context, file *models.UploadedFile) error
	FindByID(ctx context.Context, id string) (*models.UploadedFile, error)
	Delete(ctx context.Context, id string) error
}

// UploadConfig bounds accepted proof documents.
type UploadConfig struct {
	MaxFileSizeBytes int64
	AllowedMIMEs     []string
}

// UploadService stores proof documents and issues signed download URLs.
// The optional reports store serves generated approval letters, which are
// signed with the same secret but carry no uploaded_files row.
type UploadService struct {
	repo    uploadRepository
	audit   applicationAuditRepository
	store   *storage.LocalStorage
	reports *storage.LocalStorage
	signer  *storage.SignedURLSigner
	metrics *MetricsService
	config  UploadConfig
	logger  *zap.Logger
}

// NewUploadService constructs an UploadService.
func NewUploadService(repo uploadRepository, audit applicationAuditRepository, store, reports *storage.LocalStorage, signer *storage.SignedURLSigner, metrics *MetricsService, config UploadConfig, logger *zap.Logger) *UploadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxFileSizeBytes <= 0 {
		config.MaxFileSizeBytes = 10 << 20
	}
	if reports == nil {
		reports = store
	}
	return &UploadService{repo: repo, audit: audit, store: store, reports: reports, signer: signer, metrics: metrics, config: config, logger: logger}
}

// Store validates and persists one proof document. The MIME type is
// sniffed from content, never trusted from the request.
func (s *UploadService) Store(ctx context.Context, claims *models.JWTClaims, filename string, size int64, r io.Reader) (*dto.UploadResponse, error) {
	if size > s.config.MaxFileSizeBytes {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds the %d byte limit", s.config.MaxFileSizeBytes))
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload")
	}
	head = head[:n]

	mimeType := http.DetectContentType(head)
	if idx := strings.Index(mimeType, ";"); idx > 0 {
		mimeType = mimeType[:idx]
	}
	if !s.mimeAllowed(mimeType) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file type %s is not accepted", mimeType))
	}

	fileID := uuid.NewString()
	storedName := fileID + strings.ToLower(filepath.Ext(filename))
	relPath, err := s.store.SaveStream(storedName, io.MultiReader(bytes.NewReader(head), io.LimitReader(r, s.config.MaxFileSizeBytes)))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store upload")
	}

	file := &models.UploadedFile{
		ID:         fileID,
		Filename:   filepath.Base(filename),
		FilePath:   relPath,
		MimeType:   mimeType,
		SizeBytes:  size,
		UploadedBy: claims.UserID,
	}
	if err := s.repo.Create(ctx, file); err != nil {
		if removeErr := s.store.Delete(storedName); removeErr != nil {
			s.logger.Warn("failed to remove orphaned upload", zap.String("file", storedName), zap.Error(removeErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record upload")
	}

	token, _, err := s.signer.Generate(file.ID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
	}

	s.metrics.RecordUpload()
	s.recordAudit(ctx, claims.UserID, models.AuditActionUpload, file.ID)

	return &dto.UploadResponse{
		UploadedFile: *file,
		DownloadURL:  "/api/v1/files/download?token=" + token,
	}, nil
}

// Open resolves a signed download token to the stored file and its
// metadata. Students may only open their own uploads; approval letters
// are open to any authenticated holder of a valid token.
func (s *UploadService) Open(ctx context.Context, claims *models.JWTClaims, token string) (*models.UploadedFile, *os.File, error) {
	fileID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}

	file, err := s.repo.FindByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Approval letters are signed with the application id and
			// have no metadata row; serve them straight from disk.
			f, openErr := s.reports.Open(filepath.Base(relPath))
			if openErr != nil {
				return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "file not found")
			}
			return &models.UploadedFile{ID: fileID, Filename: filepath.Base(relPath), FilePath: relPath, MimeType: "application/pdf"}, f, nil
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up file")
	}

	if claims != nil && claims.Role == models.RoleStudent && file.UploadedBy != claims.UserID {
		return nil, nil, appErrors.Clone(appErrors.ErrNotOwner, "file belongs to another student")
	}

	f, err := s.store.Open(filepath.Base(file.FilePath))
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "file is no longer available")
	}
	return file, f, nil
}

func (s *UploadService) mimeAllowed(mimeType string) bool {
	if len(s.config.AllowedMIMEs) == 0 {
		return true
	}
	for _, allowed := range s.config.AllowedMIMEs {
		if strings.EqualFold(allowed, mimeType) {
			return true
		}
	}
	return false
}

func (s *UploadService) recordAudit(ctx context.Context, userID, action, resourceID string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   "file",
		ResourceID: &resourceID,
	}); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
	}
}
