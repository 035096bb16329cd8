package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/rec-ctp-api/internal/dto"
	"github.com/noah-isme/rec-ctp-api/internal/middleware"
	"github.com/noah-isme/rec-ctp-api/internal/models"
	appErrors "github.com/noah-isme/rec-ctp-api/pkg/errors"
)

type fakeODSrv struct {
	created    *models.ODRequest
	createErr  error
	requests   []models.ODRequest
	total      int
	lastQuery  dto.ODQuery
	request    *models.ODRequest
	getErr     error
	reviewed   *models.ODRequest
	reviewErr  error
	lastReview dto.ReviewRequest
	deleteErr  error
}

func (f *fakeODSrv) Create(context.Context, *models.JWTClaims, dto.CreateODRequest) (*models.ODRequest, error) {
	return f.created, f.createErr
}

func (f *fakeODSrv) List(_ context.Context, _ *models.JWTClaims, query dto.ODQuery) ([]models.ODRequest, int, error) {
	f.lastQuery = query
	return f.requests, f.total, nil
}

func (f *fakeODSrv) Mine(_ context.Context, _ *models.JWTClaims, query dto.ODQuery) ([]models.ODRequest, int, error) {
	f.lastQuery = query
	return f.requests, f.total, nil
}

func (f *fakeODSrv) Get(context.Context, *models.JWTClaims, string) (*models.ODRequest, error) {
	return f.request, f.getErr
}

func (f *fakeODSrv) Review(_ context.Context, _ *models.JWTClaims, _ string, req dto.ReviewRequest) (*models.ODRequest, error) {
	f.lastReview = req
	return f.reviewed, f.reviewErr
}

func (f *fakeODSrv) Delete(context.Context, *models.JWTClaims, string) error {
	return f.deleteErr
}

func TestODHandlerCreateRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewODHandler(&fakeODSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/od-requests", nil)

	handler.Create(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestODHandlerCreateSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakeODSrv{created: &models.ODRequest{ID: "od-1", Status: models.ODStatusPending}}
	handler := NewODHandler(service)

	body, _ := json.Marshal(dto.CreateODRequest{
		Reason:      "Hackathon",
		FromDate:    time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		ToDate:      time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC),
		Description: "Inter-college hackathon at Anna University",
	})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/od-requests", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "student-1", Role: models.RoleStudent})

	handler.Create(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestODHandlerListParsesFilters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakeODSrv{requests: []models.ODRequest{{ID: "od-1"}}, total: 1}
	handler := NewODHandler(service)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/od-requests?status=pending,approved&department=CSE&limit=5", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "faculty-1", Role: models.RoleFaculty})

	handler.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []models.ODStatus{models.ODStatusPending, models.ODStatusApproved}, service.lastQuery.Status)
	assert.Equal(t, "CSE", service.lastQuery.Department)
	assert.Equal(t, 5, service.lastQuery.Limit)

	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, float64(1), envelope.Meta["total"])
}

func TestODHandlerReviewConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewODHandler(&fakeODSrv{
		reviewErr: appErrors.Clone(appErrors.ErrStateConflict, "request already decided"),
	})

	body, _ := json.Marshal(dto.ReviewRequest{Status: "APPROVED"})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPatch, "/od-requests/od-1/status", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "od-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "faculty-1", Role: models.RoleFaculty})

	handler.Review(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestODHandlerReviewPassesDecision(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakeODSrv{reviewed: &models.ODRequest{ID: "od-1", Status: models.ODStatusRejected}}
	handler := NewODHandler(service)

	body, _ := json.Marshal(dto.ReviewRequest{Status: "REJECTED", Remarks: "proof document missing"})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPatch, "/od-requests/od-1/status", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "od-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "faculty-1", Role: models.RoleFaculty})

	handler.Review(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "REJECTED", service.lastReview.Status)
}

func TestODHandlerDeleteSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewODHandler(&fakeODSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/od-requests/od-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "od-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "student-1", Role: models.RoleStudent})

	handler.Delete(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
}
