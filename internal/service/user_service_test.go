package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rec-ctp-api/internal/dto"
	"github.com/noah-isme/rec-ctp-api/internal/models"
	appErrors "github.com/noah-isme/rec-ctp-api/pkg/errors"
)

type mockManagedUserRepo struct {
	users       map[string]*models.User
	usersByMail map[string]*models.User
	deactivated []string
	approved    map[string]bool
	auditLogs   []*models.AuditLog
}

func (m *mockManagedUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockManagedUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := m.usersByMail[email]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockManagedUserRepo) Create(ctx context.Context, user *models.User) error {
	user.ID = "created-id"
	if m.users == nil {
		m.users = map[string]*models.User{}
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockManagedUserRepo) Update(ctx context.Context, user *models.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *mockManagedUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	return nil
}

func (m *mockManagedUserRepo) SetApproved(ctx context.Context, id string, approved bool) error {
	if _, ok := m.users[id]; !ok {
		return sql.ErrNoRows
	}
	if m.approved == nil {
		m.approved = map[string]bool{}
	}
	m.approved[id] = approved
	m.users[id].Approved = approved
	return nil
}

func (m *mockManagedUserRepo) Deactivate(ctx context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return sql.ErrNoRows
	}
	m.deactivated = append(m.deactivated, id)
	m.users[id].Active = false
	return nil
}

func (m *mockManagedUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var out []models.User
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (m *mockManagedUserRepo) CountByRole(ctx context.Context, role models.UserRole) (int, error) {
	count := 0
	for _, u := range m.users {
		if u.Role == role && u.Active {
			count++
		}
	}
	return count, nil
}

func (m *mockManagedUserRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

type mockStatsAppRepo struct {
	count  int
	recent []models.Application
}

func (m *mockStatsAppRepo) Count(ctx context.Context) (int, error) { return m.count, nil }
func (m *mockStatsAppRepo) ListRecent(ctx context.Context, limit int) ([]models.Application, error) {
	return m.recent, nil
}

type mockStatsODRepo struct{ count int }

func (m *mockStatsODRepo) Count(ctx context.Context) (int, error) { return m.count, nil }

func newUserService(repo *mockManagedUserRepo, cache cacheStore) *UserService {
	return NewUserService(repo, &mockStatsAppRepo{count: 4}, &mockStatsODRepo{count: 2}, cache, nil, time.Minute, "admin@rajalakshmi.edu.in", nil, nil)
}

func TestUserServiceDeleteRefusesAdmins(t *testing.T) {
	repo := &mockManagedUserRepo{users: map[string]*models.User{
		"a1": {ID: "a1", Email: "admin@rajalakshmi.edu.in", Role: models.RoleAdmin, Active: true},
		"u1": {ID: "u1", Email: "student@rajalakshmi.edu.in", Role: models.RoleStudent, Active: true},
	}}
	svc := newUserService(repo, nil)

	err := svc.Delete(context.Background(), "actor", "a1")
	assertErrorCode(t, err, appErrors.ErrForbidden.Code)

	err = svc.Delete(context.Background(), "actor", "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, repo.deactivated)
	assert.False(t, repo.users["u1"].Active)
}

func TestUserServiceApproveSystemAdminGuard(t *testing.T) {
	repo := &mockManagedUserRepo{users: map[string]*models.User{
		"a1": {ID: "a1", Email: "admin@rajalakshmi.edu.in", Role: models.RoleAdmin, Approved: true, Active: true},
		"u1": {ID: "u1", Email: "outsider@gmail.com", Role: models.RoleStudent, Active: true},
	}}
	svc := newUserService(repo, nil)

	_, err := svc.Approve(context.Background(), "actor", "a1", dto.ApproveUserRequest{Approved: false})
	assertErrorCode(t, err, appErrors.ErrForbidden.Code)

	user, err := svc.Approve(context.Background(), "actor", "u1", dto.ApproveUserRequest{Approved: true})
	require.NoError(t, err)
	assert.True(t, user.Approved)
}

func TestUserServiceCreateDuplicateEmail(t *testing.T) {
	repo := &mockManagedUserRepo{
		users:       map[string]*models.User{},
		usersByMail: map[string]*models.User{"taken@rajalakshmi.edu.in": {ID: "u1"}},
	}
	svc := newUserService(repo, nil)

	_, err := svc.Create(context.Background(), "actor", dto.CreateUserRequest{
		FullName: "Dup", Email: "taken@rajalakshmi.edu.in", Password: "secret123", Role: models.RoleStudent, Department: "CSE",
	})
	assertErrorCode(t, err, appErrors.ErrDuplicate.Code)
}

func TestUserServiceStatsAggregatesAndCaches(t *testing.T) {
	repo := &mockManagedUserRepo{users: map[string]*models.User{
		"u1": {ID: "u1", Role: models.RoleStudent, Active: true},
		"u2": {ID: "u2", Role: models.RoleStudent, Active: true},
		"f1": {ID: "f1", Role: models.RoleFaculty, Active: true},
		"x1": {ID: "x1", Role: models.RoleStudent, Active: false},
	}}
	cache := &mockCache{}
	svc := newUserService(repo, cache)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Counts.Students)
	assert.Equal(t, 1, stats.Counts.Faculty)
	assert.Equal(t, 4, stats.Counts.Applications)
	assert.Equal(t, 2, stats.Counts.ODRequests)
	assert.Contains(t, cache.entries, statsCacheKey)

	// Deleting a user drops the cached counters.
	require.NoError(t, svc.Delete(context.Background(), "actor", "u1"))
	assert.NotContains(t, cache.entries, statsCacheKey)
}
