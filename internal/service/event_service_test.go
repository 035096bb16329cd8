package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rec-ctp-api/internal/dto"
	"github.com/noah-isme/rec-ctp-api/internal/models"
	appErrors "github.com/noah-isme/rec-ctp-api/pkg/errors"
)

type mockEventRepo struct {
	events       map[string]*models.Event
	registerOK   bool
	registerNum  int
	registerArgs []string
}

func (m *mockEventRepo) Create(ctx context.Context, event *models.Event) error {
	event.ID = "e1"
	if m.events == nil {
		m.events = map[string]*models.Event{}
	}
	m.events[event.ID] = event
	return nil
}

func (m *mockEventRepo) FindByID(ctx context.Context, id string) (*models.Event, error) {
	if e, ok := m.events[id]; ok {
		return e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEventRepo) List(ctx context.Context) ([]models.Event, error) {
	var out []models.Event
	for _, e := range m.events {
		out = append(out, *e)
	}
	return out, nil
}

func (m *mockEventRepo) Register(ctx context.Context, eventID, studentID string) (int, bool, error) {
	m.registerArgs = []string{eventID, studentID}
	return m.registerNum, m.registerOK, nil
}

func (m *mockEventRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.events[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.events, id)
	return nil
}

func TestEventServiceRegisterSuccess(t *testing.T) {
	repo := &mockEventRepo{registerOK: true, registerNum: 3}
	svc := NewEventService(repo, &mockAuditRepo{}, nil, nil)

	resp, err := svc.Register(context.Background(), studentClaims("s1"), "e1")
	require.NoError(t, err)
	assert.Equal(t, 3, resp.RegisteredCount)
	assert.Equal(t, []string{"e1", "s1"}, repo.registerArgs)
}

func TestEventServiceRegisterDuplicate(t *testing.T) {
	repo := &mockEventRepo{events: map[string]*models.Event{
		"e1": {ID: "e1", RegistrationLimit: 5, RegisteredStudents: []string{"s1"}},
	}}
	svc := NewEventService(repo, &mockAuditRepo{}, nil, nil)

	_, err := svc.Register(context.Background(), studentClaims("s1"), "e1")
	assertErrorCode(t, err, appErrors.ErrDuplicate.Code)
}

func TestEventServiceRegisterFull(t *testing.T) {
	repo := &mockEventRepo{events: map[string]*models.Event{
		"e1": {ID: "e1", RegistrationLimit: 1, RegisteredStudents: []string{"other"}},
	}}
	svc := NewEventService(repo, &mockAuditRepo{}, nil, nil)

	_, err := svc.Register(context.Background(), studentClaims("s1"), "e1")
	assertErrorCode(t, err, appErrors.ErrStateConflict.Code)
}

func TestEventServiceRegisterMissingEvent(t *testing.T) {
	repo := &mockEventRepo{}
	svc := NewEventService(repo, &mockAuditRepo{}, nil, nil)

	_, err := svc.Register(context.Background(), studentClaims("s1"), "missing")
	assertErrorCode(t, err, appErrors.ErrNotFound.Code)
}

func TestEventServiceCreate(t *testing.T) {
	repo := &mockEventRepo{}
	svc := NewEventService(repo, &mockAuditRepo{}, nil, nil)

	event, err := svc.Create(context.Background(), &models.JWTClaims{UserID: "a1", Role: models.RoleAdmin}, dto.CreateEventRequest{
		Title: "Tech Symposium", Date: "2026-09-12", Time: "10:00", Location: "Main Auditorium", Description: "Annual event", Category: "Technical", RegistrationLimit: 100,
	})
	require.NoError(t, err)
	assert.Equal(t, "a1", event.CreatedBy)
	assert.Equal(t, 100, event.RegistrationLimit)
}
