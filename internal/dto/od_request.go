package dto

import (
	"time"

	"github.com/noah-isme/rec-ctp-api/internal/models"
)

// CreateODRequest payload for submitting an on-duty leave request.
type CreateODRequest struct {
	Reason      string    `json:"reason" validate:"required"`
	FromDate    time.Time `json:"from_date" validate:"required"`
	ToDate      time.Time `json:"to_date" validate:"required"`
	Description string    `json:"description" validate:"required"`
	ProofFile   string    `json:"proof_file"`
}

// ODQuery mirrors supported listing filters.
type ODQuery struct {
	Department string
	Status     []models.ODStatus
	Limit      int
	Offset     int
}
