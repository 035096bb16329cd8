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
	"github.com/noah-isme/rec-ctp-api/pkg/export"
	"github.com/noah-isme/rec-ctp-api/pkg/storage"
)

type applicationRepository interface {
	Create(ctx context.Context, app *models.Application) error
	FindByID(ctx context.Context, id string) (*models.Application, error)
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, int, error)
	UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus, reviewerID string, remarks *string) (bool, error)
	Resubmit(ctx context.Context, id string, app *models.Application) (bool, error)
	Delete(ctx context.Context, id string) error
}

type applicationAuditRepository interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// ApplicationService implements the credit-transfer application workflow.
type ApplicationService struct {
	repo      applicationRepository
	audit     applicationAuditRepository
	exporter  *export.PDFExporter
	store     *storage.LocalStorage
	signer    *storage.SignedURLSigner
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewApplicationService constructs an ApplicationService.
func NewApplicationService(repo applicationRepository, audit applicationAuditRepository, exporter *export.PDFExporter, store *storage.LocalStorage, signer *storage.SignedURLSigner, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ApplicationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ApplicationService{repo: repo, audit: audit, exporter: exporter, store: store, signer: signer, metrics: metrics, validator: validate, logger: logger}
}

// Create submits a new application owned by the authenticated student.
func (s *ApplicationService) Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateApplicationRequest) (*models.Application, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid application payload")
	}
	if len(req.Courses) == 0 && len(req.Internships) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "application needs at least one course or internship entry")
	}

	app := &models.Application{
		StudentID:      claims.UserID,
		Department:     req.Department,
		Batch:          req.Batch,
		RegisterNumber: req.RegisterNumber,
		AcademicYear:   req.AcademicYear,
		Semester:       req.Semester,
		CGPA:           req.CGPA,
		Courses:        req.Courses,
		Internships:    req.Internships,
	}
	if err := s.repo.Create(ctx, app); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create application")
	}

	s.recordAudit(ctx, claims.UserID, models.AuditActionStatusTransition, "application", app.ID, []byte(`{"status":"PENDING"}`))
	return app, nil
}

// List returns applications visible to the caller. Students only see
// their own; faculty and admins see everything the filter matches.
func (s *ApplicationService) List(ctx context.Context, claims *models.JWTClaims, query dto.ApplicationQuery) ([]models.Application, int, error) {
	filter := models.ApplicationFilter{
		Department: query.Department,
		Status:     query.Status,
		Limit:      query.Limit,
		Offset:     query.Offset,
	}
	if claims.Role == models.RoleStudent {
		filter.StudentID = claims.UserID
	}

	apps, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
	}
	return apps, total, nil
}

// Get returns a single application. Students may only read their own.
func (s *ApplicationService) Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.Application, error) {
	app, err := s.findOwned(ctx, claims, id)
	if err != nil {
		return nil, err
	}
	return app, nil
}

// Review records an approve or reject decision on a pending application.
func (s *ApplicationService) Review(ctx context.Context, claims *models.JWTClaims, id string, req dto.ReviewRequest) (*models.Application, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}
	status := models.ApplicationStatus(req.Status)
	if status != models.ApplicationStatusApproved && status != models.ApplicationStatusRejected {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be APPROVED or REJECTED")
	}

	app, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.Status != models.ApplicationStatusPending {
		return nil, appErrors.Clone(appErrors.ErrStateConflict, fmt.Sprintf("application is already %s", app.Status))
	}

	var remarks *string
	if req.Remarks != "" {
		remarks = &req.Remarks
	}
	ok, err := s.repo.UpdateStatus(ctx, id, status, claims.UserID, remarks)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update application status")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrStateConflict, "application was decided by another reviewer")
	}

	s.recordAudit(ctx, claims.UserID, models.AuditActionStatusTransition, "application", id, []byte(fmt.Sprintf(`{"status":%q}`, status)))
	return s.find(ctx, id)
}

// Resubmit replaces the payload of the caller's rejected application and
// moves it back to PENDING. The previous rejection remarks stay visible.
func (s *ApplicationService) Resubmit(ctx context.Context, claims *models.JWTClaims, id string, req dto.ResubmitApplicationRequest) (*models.Application, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid resubmission payload")
	}
	if len(req.Courses) == 0 && len(req.Internships) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "application needs at least one course or internship entry")
	}

	app, err := s.findOwned(ctx, claims, id)
	if err != nil {
		return nil, err
	}
	if app.Status != models.ApplicationStatusRejected {
		return nil, appErrors.Clone(appErrors.ErrStateConflict, "only rejected applications can be resubmitted")
	}

	replacement := &models.Application{
		Department:     app.Department,
		Batch:          req.Batch,
		RegisterNumber: app.RegisterNumber,
		AcademicYear:   req.AcademicYear,
		Semester:       req.Semester,
		CGPA:           req.CGPA,
		Courses:        req.Courses,
		Internships:    req.Internships,
	}
	ok, err := s.repo.Resubmit(ctx, id, replacement)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resubmit application")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrStateConflict, "application is no longer rejected")
	}

	s.recordAudit(ctx, claims.UserID, models.AuditActionResubmit, "application", id, []byte(`{"status":"PENDING"}`))
	return s.find(ctx, id)
}

// Delete removes an application. Faculty and admins only; students can
// never delete a submission.
func (s *ApplicationService) Delete(ctx context.Context, claims *models.JWTClaims, id string) error {
	if claims.Role == models.RoleStudent {
		return appErrors.Clone(appErrors.ErrForbidden, "students cannot delete applications")
	}
	if _, err := s.find(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete application")
	}

	s.recordAudit(ctx, claims.UserID, models.AuditActionDelete, "application", id, nil)
	return nil
}

// GenerateReport renders the approval letter for an approved application
// and returns a signed download reference. Students can fetch letters
// for their own applications only.
func (s *ApplicationService) GenerateReport(ctx context.Context, claims *models.JWTClaims, id string) (*dto.ReportResponse, error) {
	app, err := s.findOwned(ctx, claims, id)
	if err != nil {
		return nil, err
	}
	if app.Status != models.ApplicationStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrStateConflict, "approval letters exist only for approved applications")
	}

	letter := export.ApprovalLetter{
		RegisterNumber: app.RegisterNumber,
		Department:     app.Department,
		GeneratedOn:    time.Now().UTC().Format("02 Jan 2006"),
	}
	if app.StudentName != nil {
		letter.StudentName = *app.StudentName
	}
	if app.ReviewerID != nil {
		letter.ReviewerID = *app.ReviewerID
	}
	for _, course := range app.Courses {
		letter.Courses = append(letter.Courses, export.ApprovalCourse{
			Name:       course.CourseName,
			Code:       course.RecSubjectCode,
			Credits:    course.Credits,
			University: course.OfferingUniversity,
			Grade:      course.Grade,
		})
	}

	payload, err := s.exporter.RenderApprovalLetter(letter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render approval letter")
	}

	filename := fmt.Sprintf("approval-%s.pdf", app.ID)
	relPath, err := s.store.Save(filename, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store approval letter")
	}

	token, _, err := s.signer.Generate(app.ID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
	}

	s.metrics.RecordReportGenerated()
	s.recordAudit(ctx, claims.UserID, models.AuditActionReportGenerate, "application", id, nil)

	return &dto.ReportResponse{
		ApplicationID: app.ID,
		FilePath:      relPath,
		DownloadURL:   "/api/v1/files/download?token=" + token,
	}, nil
}

func (s *ApplicationService) find(ctx context.Context, id string) (*models.Application, error) {
	app, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	return app, nil
}

func (s *ApplicationService) findOwned(ctx context.Context, claims *models.JWTClaims, id string) (*models.Application, error) {
	app, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if claims.Role == models.RoleStudent && app.StudentID != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrNotOwner, "application belongs to another student")
	}
	return app, nil
}

func (s *ApplicationService) recordAudit(ctx context.Context, userID, action, resource, resourceID string, newValues []byte) {
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
