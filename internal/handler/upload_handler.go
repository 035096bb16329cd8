package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/rec-ctp-api/internal/service"
	appErrors "github.com/noah-isme/rec-ctp-api/pkg/errors"
	"github.com/noah-isme/rec-ctp-api/pkg/response"
)

// UploadHandler exposes proof document upload and signed downloads.
type UploadHandler struct {
	uploads *service.UploadService
}

// NewUploadHandler creates a new handler.
func NewUploadHandler(uploads *service.UploadService) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

// Upload godoc
// @Summary Upload a proof document
// @Description Accepts a multipart file, sniffs its content type and returns a signed download URL
// @Tags Files
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Proof document"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Router /uploads [post]
func (h *UploadHandler) Upload(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "missing file part"))
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to read upload"))
		return
	}
	defer src.Close()

	res, err := h.uploads.Store(c.Request.Context(), claims, fileHeader.Filename, fileHeader.Size, src)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, res)
}

// Download godoc
// @Summary Download a file by signed token
// @Tags Files
// @Produce octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /files/download [get]
func (h *UploadHandler) Download(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	meta, file, err := h.uploads.Open(c.Request.Context(), claims, token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	size := meta.SizeBytes
	if info, statErr := file.Stat(); statErr == nil {
		size = info.Size()
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", meta.Filename))
	c.DataFromReader(http.StatusOK, size, meta.MimeType, file, nil)
}
