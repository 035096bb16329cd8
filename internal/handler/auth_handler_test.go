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

	"github.com/noah-isme/rec-ctp-api/internal/models"
)

type fakeAuthSrv struct {
	registerResp *models.AuthResponse
	registerErr  error
	googleResp   *models.AuthResponse
	resetResp    *models.AuthResponse
	resetErr     error
	lastReset    models.ResetPasswordRequest
}

func (f *fakeAuthSrv) Register(context.Context, models.RegisterRequest) (*models.AuthResponse, error) {
	return f.registerResp, f.registerErr
}

func (f *fakeAuthSrv) Login(context.Context, models.LoginRequest) (*models.AuthResponse, error) {
	return nil, nil
}

func (f *fakeAuthSrv) GoogleLogin(context.Context, models.GoogleLoginRequest) (*models.AuthResponse, error) {
	return nil, nil
}

func (f *fakeAuthSrv) GoogleRegister(context.Context, models.GoogleRegisterRequest) (*models.AuthResponse, error) {
	return f.googleResp, nil
}

func (f *fakeAuthSrv) Me(context.Context, string) (*models.UserInfo, error) {
	return nil, nil
}

func (f *fakeAuthSrv) ChangePassword(context.Context, string, models.ChangePasswordRequest) error {
	return nil
}

func (f *fakeAuthSrv) ForgotPassword(context.Context, models.ForgotPasswordRequest) error {
	return nil
}

func (f *fakeAuthSrv) ResetPassword(_ context.Context, req models.ResetPasswordRequest) (*models.AuthResponse, error) {
	f.lastReset = req
	return f.resetResp, f.resetErr
}

func registerBody(t *testing.T, email string) *bytes.Reader {
	t.Helper()
	body, err := json.Marshal(models.RegisterRequest{
		FullName:   "Student One",
		Email:      email,
		Password:   "secret123",
		Department: "CSE",
	})
	assert.NoError(t, err)
	return bytes.NewReader(body)
}

func TestAuthHandlerRegisterApprovedIsCreated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakeAuthSrv{registerResp: &models.AuthResponse{
		Token: "jwt-token",
		User:  models.UserInfo{ID: "u1", Email: "student@rajalakshmi.edu.in"},
	}}
	handler := NewAuthHandler(service)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/register", registerBody(t, "student@rajalakshmi.edu.in"))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Register(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestAuthHandlerRegisterPendingApprovalIsAccepted(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakeAuthSrv{registerResp: &models.AuthResponse{
		PendingApproval: true,
		User:            models.UserInfo{ID: "u2", Email: "student2@gmail.com"},
	}}
	handler := NewAuthHandler(service)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/register", registerBody(t, "student2@gmail.com"))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Register(c)

	assert.Equal(t, http.StatusAccepted, rec.Code)

	var envelope responseEnvelope
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, true, envelope.Data["pending_approval"])
}

func TestAuthHandlerGoogleRegisterPendingApprovalIsAccepted(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakeAuthSrv{googleResp: &models.AuthResponse{PendingApproval: true}}
	handler := NewAuthHandler(service)

	body, _ := json.Marshal(models.GoogleRegisterRequest{IDToken: "google-id-token", Department: "CSE"})
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/google/register", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.GoogleRegister(c)

	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestAuthHandlerResetPasswordReturnsFreshToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakeAuthSrv{resetResp: &models.AuthResponse{
		Token: "fresh-jwt",
		User:  models.UserInfo{ID: "u1"},
	}}
	handler := NewAuthHandler(service)

	body, _ := json.Marshal(models.ResetPasswordRequest{Token: "raw-reset-token", NewPassword: "newsecret"})
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/reset-password", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.ResetPassword(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "raw-reset-token", service.lastReset.Token)

	var envelope responseEnvelope
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "fresh-jwt", envelope.Data["token"])
}
