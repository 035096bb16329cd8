package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/rec-ctp-api/internal/dto"
	"github.com/noah-isme/rec-ctp-api/internal/models"
	appErrors "github.com/noah-isme/rec-ctp-api/pkg/errors"
	"github.com/noah-isme/rec-ctp-api/pkg/export"
)

const statsCacheKey = "admin:stats"

type managedUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
	SetApproved(ctx context.Context, id string, approved bool) error
	Deactivate(ctx context.Context, id string) error
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	CountByRole(ctx context.Context, role models.UserRole) (int, error)
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type statsApplicationRepository interface {
	Count(ctx context.Context) (int, error)
	ListRecent(ctx context.Context, limit int) ([]models.Application, error)
}

type statsODRepository interface {
	Count(ctx context.Context) (int, error)
}

// UserService implements admin-side account management and the
// dashboard statistics endpoint.
type UserService struct {
	repo             managedUserRepository
	applications     statsApplicationRepository
	odRequests       statsODRepository
	cache            cacheStore
	metrics          *MetricsService
	exporter         *export.CSVExporter
	statsTTL         time.Duration
	systemAdminEmail string
	validator        *validator.Validate
	logger           *zap.Logger
}

// NewUserService constructs a UserService. The system admin email names
// the bootstrap account that can never be deactivated.
func NewUserService(repo managedUserRepository, applications statsApplicationRepository, odRequests statsODRepository, cache cacheStore, metrics *MetricsService, statsTTL time.Duration, systemAdminEmail string, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if statsTTL <= 0 {
		statsTTL = time.Minute
	}
	return &UserService{
		repo:             repo,
		applications:     applications,
		odRequests:       odRequests,
		cache:            cache,
		metrics:          metrics,
		exporter:         export.NewCSVExporter(),
		statsTTL:         statsTTL,
		systemAdminEmail: strings.ToLower(systemAdminEmail),
		validator:        validate,
		logger:           logger,
	}
}

// List returns users matching the filter with pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return users, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns a single user.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	return s.find(ctx, id)
}

// Export renders the matching accounts as a CSV roster and returns the
// bytes together with a dated attachment name.
func (s *UserService) Export(ctx context.Context, filter models.UserFilter) ([]byte, string, error) {
	filter.Page = 1
	filter.PageSize = 10000

	users, _, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}

	headers := []string{"id", "full_name", "email", "role", "department", "register_number", "approved", "active", "created_at"}
	rows := make([]map[string]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, map[string]string{
			"id":              u.ID,
			"full_name":       u.FullName,
			"email":           u.Email,
			"role":            string(u.Role),
			"department":      u.Department,
			"register_number": u.RegisterNumber,
			"approved":        strconv.FormatBool(u.Approved),
			"active":          strconv.FormatBool(u.Active),
			"created_at":      u.CreatedAt.Format(time.RFC3339),
		})
	}

	data, err := s.exporter.Render(export.Dataset{Headers: headers, Rows: rows})
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	return data, s.exporter.Filename("users"), nil
}

// Create provisions an account with any role, bypassing the approval
// gate when requested.
func (s *UserService) Create(ctx context.Context, actorID string, req dto.CreateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}

	if _, err := s.repo.FindByEmail(ctx, req.Email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "an account with this email already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing account")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Email:          strings.ToLower(req.Email),
		PasswordHash:   string(hash),
		FullName:       req.FullName,
		Role:           req.Role,
		Department:     req.Department,
		RegisterNumber: req.RegisterNumber,
		Approved:       req.Approved,
		Active:         true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	s.recordAudit(ctx, actorID, models.AuditActionUserCreate, user.ID)
	s.invalidateStats(ctx)
	return user, nil
}

// Update modifies profile fields and optionally re-hashes the password.
func (s *UserService) Update(ctx context.Context, actorID, id string, req dto.UpdateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}

	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.isSystemAdmin(user) && req.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "the system admin role cannot be changed")
	}

	user.FullName = req.FullName
	user.Email = strings.ToLower(req.Email)
	user.Role = req.Role
	user.Department = req.Department
	user.RegisterNumber = req.RegisterNumber
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}

	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
		}
		if err := s.repo.UpdatePassword(ctx, id, string(hash), time.Now().UTC()); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update password")
		}
	}

	s.recordAudit(ctx, actorID, models.AuditActionUserUpdate, id)
	return user, nil
}

// Approve toggles the approval gate on an account.
func (s *UserService) Approve(ctx context.Context, actorID, id string, req dto.ApproveUserRequest) (*models.User, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.isSystemAdmin(user) && !req.Approved {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "the system admin cannot be unapproved")
	}

	if err := s.repo.SetApproved(ctx, id, req.Approved); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update approval")
	}

	s.recordAudit(ctx, actorID, models.AuditActionUserApprove, id)
	return s.find(ctx, id)
}

// Delete deactivates an account, keeping its submissions resolvable.
// Admin accounts cannot be deleted at all.
func (s *UserService) Delete(ctx context.Context, actorID, id string) error {
	user, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if user.Role == models.RoleAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "admin accounts cannot be deleted")
	}

	if err := s.repo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate user")
	}

	s.recordAudit(ctx, actorID, models.AuditActionUserDelete, id)
	s.invalidateStats(ctx)
	return nil
}

// Stats aggregates the dashboard counters, served from cache when fresh.
func (s *UserService) Stats(ctx context.Context) (*dto.StatsResponse, error) {
	if s.cache != nil {
		var cached dto.StatsResponse
		if err := s.cache.Get(ctx, statsCacheKey, &cached); err == nil {
			s.metrics.RecordCacheOperation(true)
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("stats cache read failed", zap.Error(err))
		}
		s.metrics.RecordCacheOperation(false)
	}

	students, err := s.repo.CountByRole(ctx, models.RoleStudent)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}
	faculty, err := s.repo.CountByRole(ctx, models.RoleFaculty)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count faculty")
	}
	applications, err := s.applications.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count applications")
	}
	odRequests, err := s.odRequests.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count od requests")
	}
	recent, err := s.applications.ListRecent(ctx, 5)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list recent applications")
	}

	stats := &dto.StatsResponse{
		Counts: dto.StatsCounts{
			Students:     students,
			Faculty:      faculty,
			Applications: applications,
			ODRequests:   odRequests,
		},
		RecentApplications: recent,
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, statsCacheKey, stats, s.statsTTL); err != nil {
			s.logger.Warn("stats cache write failed", zap.Error(err))
		}
	}
	return stats, nil
}

// InvalidateStats drops the cached dashboard counters. Called by the
// request workflows after writes that change the totals.
func (s *UserService) InvalidateStats(ctx context.Context) {
	s.invalidateStats(ctx)
}

func (s *UserService) invalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, statsCacheKey); err != nil {
		s.logger.Warn("stats cache invalidation failed", zap.Error(err))
	}
}

func (s *UserService) isSystemAdmin(user *models.User) bool {
	return s.systemAdminEmail != "" && strings.ToLower(user.Email) == s.systemAdminEmail
}

func (s *UserService) find(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

func (s *UserService) recordAudit(ctx context.Context, actorID, action, resourceID string) {
	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     action,
		Resource:   "user",
		ResourceID: &resourceID,
	}); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
	}
}
