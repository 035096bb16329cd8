package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rec-ctp-api/internal/dto"
	"github.com/noah-isme/rec-ctp-api/internal/models"
	appErrors "github.com/noah-isme/rec-ctp-api/pkg/errors"
)

type mockAchievementRepo struct {
	achievements   map[string]*models.Achievement
	highlights     []models.AchievementHighlight
	highlightCalls int
	statusOK       bool
}

func (m *mockAchievementRepo) Create(ctx context.Context, ach *models.Achievement) error {
	ach.ID = "ach-1"
	ach.Status = models.AchievementStatusPendingVerified
	if m.achievements == nil {
		m.achievements = map[string]*models.Achievement{}
	}
	m.achievements[ach.ID] = ach
	return nil
}

func (m *mockAchievementRepo) FindByID(ctx context.Context, id string) (*models.Achievement, error) {
	if a, ok := m.achievements[id]; ok {
		return a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAchievementRepo) List(ctx context.Context, filter models.AchievementFilter) ([]models.Achievement, int, error) {
	var out []models.Achievement
	for _, a := range m.achievements {
		out = append(out, *a)
	}
	return out, len(out), nil
}

func (m *mockAchievementRepo) ListHighlights(ctx context.Context, limit int) ([]models.AchievementHighlight, error) {
	m.highlightCalls++
	return m.highlights, nil
}

func (m *mockAchievementRepo) UpdateStatus(ctx context.Context, id string, status models.AchievementStatus, reviewerID string) (bool, error) {
	if m.statusOK {
		if a, ok := m.achievements[id]; ok {
			a.Status = status
			a.ReviewerID = &reviewerID
		}
	}
	return m.statusOK, nil
}

func (m *mockAchievementRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.achievements[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.achievements, id)
	return nil
}

type mockCache struct {
	entries map[string][]byte
	deleted []string
}

func (m *mockCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *mockCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.entries == nil {
		m.entries = map[string][]byte{}
	}
	m.entries[key] = raw
	return nil
}

func (m *mockCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.deleted = append(m.deleted, pattern)
	delete(m.entries, pattern)
	return nil
}

func TestAchievementServiceHighlightsCaches(t *testing.T) {
	repo := &mockAchievementRepo{highlights: []models.AchievementHighlight{{Title: "First Prize", Type: "Paper Presentation", Date: "2026-02-10"}}}
	cache := &mockCache{}
	svc := NewAchievementService(repo, &mockAuditRepo{}, cache, nil, time.Minute, nil, nil)

	first, err := svc.Highlights(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 1, repo.highlightCalls)

	// Second call is served from cache; the repository is not hit again.
	second, err := svc.Highlights(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.highlightCalls)
}

func TestAchievementServiceVerifyInvalidatesHighlights(t *testing.T) {
	repo := &mockAchievementRepo{statusOK: true, achievements: map[string]*models.Achievement{
		"ach-1": {ID: "ach-1", StudentID: "u1", Status: models.AchievementStatusPendingVerified},
	}}
	cache := &mockCache{entries: map[string][]byte{highlightsCacheKey: []byte(`[]`)}}
	svc := NewAchievementService(repo, &mockAuditRepo{}, cache, nil, time.Minute, nil, nil)

	ach, err := svc.Verify(context.Background(), facultyClaims("f1"), "ach-1", dto.VerifyAchievementRequest{Status: "VERIFIED"})
	require.NoError(t, err)
	assert.Equal(t, models.AchievementStatusVerified, ach.Status)
	assert.Contains(t, cache.deleted, highlightsCacheKey)
}

func TestAchievementServiceVerifyTerminalRejection(t *testing.T) {
	repo := &mockAchievementRepo{achievements: map[string]*models.Achievement{
		"ach-1": {ID: "ach-1", StudentID: "u1", Status: models.AchievementStatusRejected},
	}}
	svc := NewAchievementService(repo, &mockAuditRepo{}, nil, nil, time.Minute, nil, nil)

	_, err := svc.Verify(context.Background(), facultyClaims("f1"), "ach-1", dto.VerifyAchievementRequest{Status: "VERIFIED"})
	assertErrorCode(t, err, appErrors.ErrStateConflict.Code)
}

func TestAchievementServiceDeleteRoleGuard(t *testing.T) {
	repo := &mockAchievementRepo{achievements: map[string]*models.Achievement{
		"ach-1": {ID: "ach-1", StudentID: "u1", Status: models.AchievementStatusVerified},
	}}
	svc := NewAchievementService(repo, &mockAuditRepo{}, nil, nil, time.Minute, nil, nil)

	err := svc.Delete(context.Background(), studentClaims("u1"), "ach-1")
	assertErrorCode(t, err, appErrors.ErrForbidden.Code)

	err = svc.Delete(context.Background(), &models.JWTClaims{UserID: "a1", Role: models.RoleAdmin}, "ach-1")
	require.NoError(t, err)
}
