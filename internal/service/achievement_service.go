package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/rec-ctp-api/internal/dto"
	"github.com/noah-isme/rec-ctp-api/internal/models"
	appErrors "github.com/noah-isme/rec-ctp-api/pkg/errors"
)

const highlightsCacheKey = "achievements:highlights"

type achievementRepository interface {
	Create(ctx context.Context, ach *models.Achievement) error
	FindByID(ctx context.Context, id string) (*models.Achievement, error)
	List(ctx context.Context, filter models.AchievementFilter) ([]models.Achievement, int, error)
	ListHighlights(ctx context.Context, limit int) ([]models.AchievementHighlight, error)
	UpdateStatus(ctx context.Context, id string, status models.AchievementStatus, reviewerID string) (bool, error)
	Delete(ctx context.Context, id string) error
}

type cacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// AchievementService implements the achievement verification workflow
// and the cached public highlights feed.
type AchievementService struct {
	repo          achievementRepository
	audit         applicationAuditRepository
	cache         cacheStore
	metrics       *MetricsService
	highlightsTTL time.Duration
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewAchievementService constructs an AchievementService. A nil cache
// disables the highlights cache.
func NewAchievementService(repo achievementRepository, audit applicationAuditRepository, cache cacheStore, metrics *MetricsService, highlightsTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *AchievementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if highlightsTTL <= 0 {
		highlightsTTL = 5 * time.Minute
	}
	return &AchievementService{repo: repo, audit: audit, cache: cache, metrics: metrics, highlightsTTL: highlightsTTL, validator: validate, logger: logger}
}

// Create submits a new achievement owned by the authenticated student.
func (s *AchievementService) Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateAchievementRequest) (*models.Achievement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid achievement payload")
	}

	ach := &models.Achievement{
		StudentID:   claims.UserID,
		Title:       req.Title,
		Type:        req.Type,
		Date:        req.Date,
		Description: req.Description,
	}
	if req.ProofFile != "" {
		ach.ProofFile = &req.ProofFile
	}
	if err := s.repo.Create(ctx, ach); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create achievement")
	}

	s.recordAudit(ctx, claims.UserID, models.AuditActionStatusTransition, "achievement", ach.ID, []byte(`{"status":"PENDING_VERIFIED"}`))
	return ach, nil
}

// List returns achievements visible to the caller. Students only see
// their own.
func (s *AchievementService) List(ctx context.Context, claims *models.JWTClaims, query dto.AchievementQuery) ([]models.Achievement, int, error) {
	filter := models.AchievementFilter{
		Department: query.Department,
		Status:     query.Status,
		Limit:      query.Limit,
		Offset:     query.Offset,
	}
	if claims.Role == models.RoleStudent {
		filter.StudentID = claims.UserID
	}

	achievements, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list achievements")
	}
	return achievements, total, nil
}

// Mine lists the caller's own achievements regardless of role.
func (s *AchievementService) Mine(ctx context.Context, claims *models.JWTClaims, query dto.AchievementQuery) ([]models.Achievement, int, error) {
	filter := models.AchievementFilter{
		Status:    query.Status,
		StudentID: claims.UserID,
		Limit:     query.Limit,
		Offset:    query.Offset,
	}

	achievements, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list achievements")
	}
	return achievements, total, nil
}

// Get returns a single achievement. Students may only read their own.
func (s *AchievementService) Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.Achievement, error) {
	ach, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if claims.Role == models.RoleStudent && ach.StudentID != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrNotOwner, "achievement belongs to another student")
	}
	return ach, nil
}

// Highlights returns the public feed of verified achievements. The feed
// is served from cache when available; a verification decision
// invalidates it.
func (s *AchievementService) Highlights(ctx context.Context, limit int) ([]models.AchievementHighlight, error) {
	if s.cache != nil {
		var cached []models.AchievementHighlight
		if err := s.cache.Get(ctx, highlightsCacheKey, &cached); err == nil {
			s.metrics.RecordCacheOperation(true)
			return cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("highlights cache read failed", zap.Error(err))
		}
		s.metrics.RecordCacheOperation(false)
	}

	highlights, err := s.repo.ListHighlights(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list highlights")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, highlightsCacheKey, highlights, s.highlightsTTL); err != nil {
			s.logger.Warn("highlights cache write failed", zap.Error(err))
		}
	}
	return highlights, nil
}

// Verify records a verification decision on a pending achievement.
// Rejection is terminal.
func (s *AchievementService) Verify(ctx context.Context, claims *models.JWTClaims, id string, req dto.VerifyAchievementRequest) (*models.Achievement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid verification payload")
	}
	status := models.AchievementStatus(req.Status)
	if status != models.AchievementStatusVerified && status != models.AchievementStatusRejected {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be VERIFIED or REJECTED")
	}

	ach, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if ach.Status != models.AchievementStatusPendingVerified {
		return nil, appErrors.Clone(appErrors.ErrStateConflict, fmt.Sprintf("achievement is already %s", ach.Status))
	}

	ok, err := s.repo.UpdateStatus(ctx, id, status, claims.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update achievement status")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrStateConflict, "achievement was decided by another verifier")
	}

	s.invalidateHighlights(ctx)
	s.recordAudit(ctx, claims.UserID, models.AuditActionStatusTransition, "achievement", id, []byte(fmt.Sprintf(`{"status":%q}`, status)))
	return s.find(ctx, id)
}

// Delete removes an achievement. Faculty and admins only; students can
// never delete a submission.
func (s *AchievementService) Delete(ctx context.Context, claims *models.JWTClaims, id string) error {
	if claims.Role == models.RoleStudent {
		return appErrors.Clone(appErrors.ErrForbidden, "students cannot delete achievements")
	}
	if _, err := s.find(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "achievement not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete achievement")
	}

	s.invalidateHighlights(ctx)
	s.recordAudit(ctx, claims.UserID, models.AuditActionDelete, "achievement", id, nil)
	return nil
}

func (s *AchievementService) invalidateHighlights(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, highlightsCacheKey); err != nil {
		s.logger.Warn("highlights cache invalidation failed", zap.Error(err))
	}
}

func (s *AchievementService) find(ctx context.Context, id string) (*models.Achievement, error) {
	ach, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "achievement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load achievement")
	}
	return ach, nil
}

func (s *AchievementService) recordAudit(ctx context.Context, userID, action, resource, resourceID string, newValues []byte) {
	if s.audit == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   resource,
		ResourceID: &resourceID,
		NewValues:  newValues,
	}); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
	}
}
