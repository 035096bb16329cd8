package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/rec-ctp-api/internal/dto"
	"github.com/noah-isme/rec-ctp-api/internal/models"
	appErrors "github.com/noah-isme/rec-ctp-api/pkg/errors"
)

type eventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	FindByID(ctx context.Context, id string) (*models.Event, error)
	List(ctx context.Context) ([]models.Event, error)
	Register(ctx context.Context, eventID, studentID string) (int, bool, error)
	Delete(ctx context.Context, id string) error
}

// EventService implements campus event management and registration.
type EventService struct {
	repo      eventRepository
	audit     applicationAuditRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEventService constructs an EventService.
func NewEventService(repo eventRepository, audit applicationAuditRepository, validate *validator.Validate, logger *zap.Logger) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &EventService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// Create publishes a new event.
func (s *EventService) Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateEventRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}

	event := &models.Event{
		Title:             req.Title,
		Date:              req.Date,
		Time:              req.Time,
		Location:          req.Location,
		Description:       req.Description,
		Category:          req.Category,
		RegistrationLimit: req.RegistrationLimit,
		CreatedBy:         claims.UserID,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}
	return event, nil
}

// List returns all published events.
func (s *EventService) List(ctx context.Context) ([]models.Event, error) {
	events, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	return events, nil
}

// Get returns a single event.
func (s *EventService) Get(ctx context.Context, id string) (*models.Event, error) {
	return s.find(ctx, id)
}

// Register adds the authenticated student to the event. The write and
// its guards run as one statement, so a full event or duplicate entry
// loses cleanly even under concurrent requests for the last seat.
func (s *EventService) Register(ctx context.Context, claims *models.JWTClaims, eventID string) (*dto.RegistrationResponse, error) {
	count, ok, err := s.repo.Register(ctx, eventID, claims.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register for event")
	}
	if ok {
		s.recordAudit(ctx, claims.UserID, "EVENT_REGISTER", "event", eventID, nil)
		return &dto.RegistrationResponse{EventID: eventID, RegisteredCount: count}, nil
	}

	// Guard failed: re-read once to report which condition lost.
	event, err := s.find(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.IsRegistered(claims.UserID) {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "already registered for this event")
	}
	if event.IsFull() {
		return nil, appErrors.Clone(appErrors.ErrStateConflict, "event has reached its registration limit")
	}
	return nil, appErrors.Clone(appErrors.ErrStateConflict, "registration could not be recorded")
}

// Delete removes an event.
func (s *EventService) Delete(ctx context.Context, claims *models.JWTClaims, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete event")
	}
	s.recordAudit(ctx, claims.UserID, models.AuditActionDelete, "event", id, nil)
	return nil
}

func (s *EventService) find(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	return event, nil
}

func (s *EventService) recordAudit(ctx context.Context, userID, action, resource, resourceID string, newValues []byte) {
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
