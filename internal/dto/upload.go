package dto

import "github.com/noah-isme/rec-ctp-api/internal/models"

// UploadResponse enriches stored file metadata with a signed download URL.
type UploadResponse struct {
	models.UploadedFile
	DownloadURL string `json:"download_url"`
}
