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

type odService interface {
	Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateODRequest) (*models.ODRequest, error)
	List(ctx context.Context, claims *models.JWTClaims, query dto.ODQuery) ([]models.ODRequest, int, error)
	Mine(ctx context.Context, claims *models.JWTClaims, query dto.ODQuery) ([]models.ODRequest, int, error)
	Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.ODRequest, error)
	Review(ctx context.Context, claims *models.JWTClaims, id string, req dto.ReviewRequest) (*models.ODRequest, error)
	Delete(ctx context.Context, claims *models.JWTClaims, id string) error
}

// ODHandler wires HTTP endpoints to the on-duty request workflow.
type ODHandler struct {
	service odService
}

// NewODHandler creates a new handler.
func NewODHandler(svc odService) *ODHandler {
	return &ODHandler{service: svc}
}

// Create godoc
// @Summary Submit an on-duty request
// @Tags OD Requests
// @Accept json
// @Produce json
// @Param payload body dto.CreateODRequest true "Request payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /od-requests [post]
func (h *ODHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateODRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid od request payload"))
		return
	}

	od, err := h.service.Create(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, od)
}

// List godoc
// @Summary List on-duty requests
// @Tags OD Requests
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param department query string false "Department filter"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope
// @Router /od-requests [get]
func (h *ODHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	query := dto.ODQuery{
		Department: c.Query("department"),
		Limit:      queryInt(c, "limit", 20),
		Offset:     queryInt(c, "offset", 0),
	}
	for _, s := range splitStatuses(c.Query("status")) {
		query.Status = append(query.Status, models.ODStatus(s))
	}

	requests, total, err := h.service.List(c.Request.Context(), claims, query)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, requests, nil, map[string]interface{}{"total": total})
}

// Mine godoc
// @Summary List the caller's own on-duty requests
// @Tags OD Requests
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope
// @Router /od-requests/my [get]
func (h *ODHandler) Mine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	query := dto.ODQuery{
		Limit:  queryInt(c, "limit", 20),
		Offset: queryInt(c, "offset", 0),
	}
	for _, s := range splitStatuses(c.Query("status")) {
		query.Status = append(query.Status, models.ODStatus(s))
	}

	requests, total, err := h.service.Mine(c.Request.Context(), claims, query)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, requests, nil, map[string]interface{}{"total": total})
}

// Get godoc
// @Summary Get one on-duty request
// @Tags OD Requests
// @Produce json
// @Param id path string true "Request id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /od-requests/{id} [get]
func (h *ODHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	od, err := h.service.Get(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, od, nil)
}

// Review godoc
// @Summary Approve or reject an on-duty request
// @Tags OD Requests
// @Accept json
// @Produce json
// @Param id path string true "Request id"
// @Param payload body dto.ReviewRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /od-requests/{id}/status [patch]
func (h *ODHandler) Review(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid review payload"))
		return
	}

	od, err := h.service.Review(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, od, nil)
}

// Delete godoc
// @Summary Delete an on-duty request
// @Tags OD Requests
// @Param id path string true "Request id"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /od-requests/{id} [delete]
func (h *ODHandler) Delete(c *gin.Context) {
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
