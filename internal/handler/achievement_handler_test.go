package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/rec-ctp-api/internal/dto"
	"github.com/noah-isme/rec-ctp-api/internal/middleware"
	"github.com/noah-isme/rec-ctp-api/internal/models"
)

type fakeAchievementSrv struct {
	created        *models.Achievement
	createErr      error
	achievements   []models.Achievement
	total          int
	achievement    *models.Achievement
	getErr         error
	highlights     []models.AchievementHighlight
	highlightsErr  error
	highlightLimit int
	verified       *models.Achievement
	verifyErr      error
	lastVerify     dto.VerifyAchievementRequest
	deleteErr      error
}

func (f *fakeAchievementSrv) Create(context.Context, *models.JWTClaims, dto.CreateAchievementRequest) (*models.Achievement, error) {
	return f.created, f.createErr
}

func (f *fakeAchievementSrv) List(context.Context, *models.JWTClaims, dto.AchievementQuery) ([]models.Achievement, int, error) {
	return f.achievements, f.total, nil
}

func (f *fakeAchievementSrv) Mine(context.Context, *models.JWTClaims, dto.AchievementQuery) ([]models.Achievement, int, error) {
	return f.achievements, f.total, nil
}

func (f *fakeAchievementSrv) Get(context.Context, *models.JWTClaims, string) (*models.Achievement, error) {
	return f.achievement, f.getErr
}

func (f *fakeAchievementSrv) Highlights(_ context.Context, limit int) ([]models.AchievementHighlight, error) {
	f.highlightLimit = limit
	return f.highlights, f.highlightsErr
}

func (f *fakeAchievementSrv) Verify(_ context.Context, _ *models.JWTClaims, _ string, req dto.VerifyAchievementRequest) (*models.Achievement, error) {
	f.lastVerify = req
	return f.verified, f.verifyErr
}

func (f *fakeAchievementSrv) Delete(context.Context, *models.JWTClaims, string) error {
	return f.deleteErr
}

func TestAchievementHandlerHighlightsIsPublic(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakeAchievementSrv{
		highlights: []models.AchievementHighlight{
			{Title: "Smart India Hackathon Winner", Type: "HACKATHON", Date: "2026-02-14"},
		},
	}
	handler := NewAchievementHandler(service)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/achievements/highlights", nil)

	handler.Highlights(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, service.highlightLimit)
}

func TestAchievementHandlerHighlightsCustomLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakeAchievementSrv{}
	handler := NewAchievementHandler(service)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/achievements/highlights?limit=3", nil)

	handler.Highlights(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, service.highlightLimit)
}

func TestAchievementHandlerVerifyPassesStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakeAchievementSrv{verified: &models.Achievement{ID: "ach-1", Status: models.AchievementStatusVerified}}
	handler := NewAchievementHandler(service)

	body, _ := json.Marshal(dto.VerifyAchievementRequest{Status: "VERIFIED"})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPatch, "/achievements/ach-1/status", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "ach-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "faculty-1", Role: models.RoleFaculty})

	handler.Verify(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "VERIFIED", service.lastVerify.Status)
}

func TestAchievementHandlerCreateRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAchievementHandler(&fakeAchievementSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/achievements", nil)

	handler.Create(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
