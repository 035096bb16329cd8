package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/rec-ctp-api/internal/dto"
	"github.com/noah-isme/rec-ctp-api/internal/models"
	appErrors "github.com/noah-isme/rec-ctp-api/pkg/errors"
	"github.com/noah-isme/rec-ctp-api/pkg/response"
)

type achievementService interface {
	Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateAchievementRequest) (*models.Achievement, error)
	List(ctx context.Context, claims *models.JWTClaims, query dto.AchievementQuery) ([]models.Achievement, int, error)
	Mine(ctx context.Context, claims *models.JWTClaims, query dto.AchievementQuery) ([]models.Achievement, int, error)
	Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.Achievement, error)
	Highlights(ctx context.Context, limit int) ([]models.AchievementHighlight, error)
	Verify(ctx context.Context, claims *models.JWTClaims, id string, req dto.VerifyAchievementRequest) (*models.Achievement, error)
	Delete(ctx context.Context, claims *models.JWTClaims, id string) error
}

// AchievementHandler wires HTTP endpoints to the achievement workflow.
type AchievementHandler struct {
	service achievementService
}

// NewAchievementHandler creates a new handler.
func NewAchievementHandler(svc achievementService) *AchievementHandler {
	return &AchievementHandler{service: svc}
}

// Create godoc
// @Summary Submit an achievement
// @Tags Achievements
// @Accept json
// @Produce json
// @Param payload body dto.CreateAchievementRequest true "Achievement payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /achievements [post]
func (h *AchievementHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateAchievementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid achievement payload"))
		return
	}

	ach, err := h.service.Create(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, ach)
}

// List godoc
// @Summary List achievements
// @Tags Achievements
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param department query string false "Department filter"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope
// @Router /achievements [get]
func (h *AchievementHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	query := dto.AchievementQuery{
		Department: c.Query("department"),
		Limit:      queryInt(c, "limit", 20),
		Offset:     queryInt(c, "offset", 0),
	}
	for _, s := range splitStatuses(c.Query("status")) {
		query.Status = append(query.Status, models.AchievementStatus(s))
	}

	achievements, total, err := h.service.List(c.Request.Context(), claims, query)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, achievements, nil, map[string]interface{}{"total": total})
}

// Mine godoc
// @Summary List the caller's own achievements
// @Tags Achievements
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope
// @Router /achievements/my [get]
func (h *AchievementHandler) Mine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	query := dto.AchievementQuery{
		Limit:  queryInt(c, "limit", 20),
		Offset: queryInt(c, "offset", 0),
	}
	for _, s := range splitStatuses(c.Query("status")) {
		query.Status = append(query.Status, models.AchievementStatus(s))
	}

	achievements, total, err := h.service.Mine(c.Request.Context(), claims, query)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, achievements, nil, map[string]interface{}{"total": total})
}

// Highlights godoc
// @Summary Public highlights feed
// @Description Verified achievements projected for the landing page; no authentication
// @Tags Achievements
// @Produce json
// @Param limit query int false "Feed size"
// @Success 200 {object} response.Envelope
// @Router /achievements/highlights [get]
func (h *AchievementHandler) Highlights(c *gin.Context) {
	highlights, err := h.service.Highlights(c.Request.Context(), queryInt(c, "limit", 10))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, highlights, nil)
}

// Get godoc
// @Summary Get one achievement
// @Tags Achievements
// @Produce json
// @Param id path string true "Achievement id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /achievements/{id} [get]
func (h *AchievementHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	ach, err := h.service.Get(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, ach, nil)
}

// Verify godoc
// @Summary Verify or reject an achievement
// @Tags Achievements
// @Accept json
// @Produce json
// @Param id path string true "Achievement id"
// @Param payload body dto.VerifyAchievementRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /achievements/{id}/status [patch]
func (h *AchievementHandler) Verify(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.VerifyAchievementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid verification payload"))
		return
	}

	ach, err := h.service.Verify(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, ach, nil)
}

// Delete godoc
// @Summary Delete an achievement
// @Tags Achievements
// @Param id path string true "Achievement id"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /achievements/{id} [delete]
func (h *AchievementHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Delete(c.Request.Context(), claims, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
