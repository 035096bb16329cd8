package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/rec-ctp-api/internal/dto"
	"github.com/noah-isme/rec-ctp-api/internal/models"
	appErrors "github.com/noah-isme/rec-ctp-api/pkg/errors"
)

type odRepository interface {
	Create(ctx context.Context, od *models.ODRequest) error
	FindByID(ctx context.Context, id string) (*models.ODRequest, error)
	List(ctx context.Context, filter models.ODFilter) ([]models.ODRequest, int, error)
	UpdateStatus(ctx context.Context, id string, status models.ODStatus, reviewerID string, remarks *string) (bool, error)
	Delete(ctx context.Context, id string) error
}

// ODService implements the on-duty leave request workflow.
type ODService struct {
	repo      odRepository
	audit     applicationAuditRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewODService constructs an ODService.
func NewODService(repo odRepository, audit applicationAuditRepository, validate *validator.Validate, logger *zap.Logger) *ODService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ODService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// Create submits a new on-duty request owned by the authenticated student.
func (s *ODService) Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateODRequest) (*models.ODRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid od request payload")
	}
	if req.ToDate.Before(req.FromDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to_date must not be before from_date")
	}

	od := &models.ODRequest{
		StudentID:   claims.UserID,
		Reason:      req.Reason,
		FromDate:    req.FromDate,
		ToDate:      req.ToDate,
		Description: req.Description,
	}
	if req.ProofFile != "" {
		od.ProofFile = &req.ProofFile
	}
	if err := s.repo.Create(ctx, od); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create od request")
	}

	s.recordAudit(ctx, claims.UserID, models.AuditActionStatusTransition, "od_request", od.ID, []byte(`{"status":"PENDING"}`))
	return od, nil
}

// List returns on-duty requests visible to the caller. Students only see
// their own.
func (s *ODService) List(ctx context.Context, claims *models.JWTClaims, query dto.ODQuery) ([]models.ODRequest, int, error) {
	filter := models.ODFilter{
		Department: query.Department,
		Status:     query.Status,
		Limit:      query.Limit,
		Offset:     query.Offset,
	}
	if claims.Role == models.RoleStudent {
		filter.StudentID = claims.UserID
	}

	requests, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list od requests")
	}
	return requests, total, nil
}

// Mine lists the caller's own requests regardless of role.
func (s *ODService) Mine(ctx context.Context, claims *models.JWTClaims, query dto.ODQuery) ([]models.ODRequest, int, error) {
	filter := models.ODFilter{
		Status:    query.Status,
		StudentID: claims.UserID,
		Limit:     query.Limit,
		Offset:    query.Offset,
	}

	requests, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list od requests")
	}
	return requests, total, nil
}

// Get returns a single on-duty request. Students may only read their own.
func (s *ODService) Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.ODRequest, error) {
	return s.findOwned(ctx, claims, id)
}

// Review records an approve or reject decision on a pending request.
// Rejection is terminal; there is no resubmission path for on-duty leave.
func (s *ODService) Review(ctx context.Context, claims *models.JWTClaims, id string, req dto.ReviewRequest) (*models.ODRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}
	status := models.ODStatus(req.Status)
	if status != models.ODStatusApproved && status != models.ODStatusRejected {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be APPROVED or REJECTED")
	}

	od, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if od.Status != models.ODStatusPending {
		return nil, appErrors.Clone(appErrors.ErrStateConflict, fmt.Sprintf("od request is already %s", od.Status))
	}

	var remarks *string
	if req.Remarks != "" {
		remarks = &req.Remarks
	}
	ok, err := s.repo.UpdateStatus(ctx, id, status, claims.UserID, remarks)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update od status")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrStateConflict, "od request was decided by another reviewer")
	}

	s.recordAudit(ctx, claims.UserID, models.AuditActionStatusTransition, "od_request", id, []byte(fmt.Sprintf(`{"status":%q}`, status)))
	return s.find(ctx, id)
}

// Delete removes an on-duty request. Faculty and admins only; students
// can never delete a submission.
func (s *ODService) Delete(ctx context.Context, claims *models.JWTClaims, id string) error {
	if claims.Role == models.RoleStudent {
		return appErrors.Clone(appErrors.ErrForbidden, "students cannot delete od requests")
	}
	if _, err := s.find(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "od request not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete od request")
	}

	s.recordAudit(ctx, claims.UserID, models.AuditActionDelete, "od_request", id, nil)
	return nil
}

func (s *ODService) find(ctx context.Context, id string) (*models.ODRequest, error) {
	od, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "od request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load od request")
	}
	return od, nil
}

func (s *ODService) findOwned(ctx context.Context, claims *models.JWTClaims, id string) (*models.ODRequest, error) {
	od, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if claims.Role == models.RoleStudent && od.StudentID != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrNotOwner, "od request belongs to another student")
	}
	return od, nil
}

func (s *ODService) recordAudit(ctx context.Context, userID, action, resource, resourceID string, newValues []byte) {
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
