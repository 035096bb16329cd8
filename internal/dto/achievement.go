package dto

import "github.com/noah-isme/rec-ctp-api/internal/models"

// CreateAchievementRequest payload for submitting an achievement.
type CreateAchievementRequest struct {
	Title       string `json:"title" validate:"required"`
	Type        string `json:"type" validate:"required"`
	Date        string `json:"date" validate:"required"`
	Description string `json:"description" validate:"required"`
	ProofFile   string `json:"proof_file"`
}

// VerifyAchievementRequest captures the verifier decision.
type VerifyAchievementRequest struct {
	Status string `json:"status" validate:"required"`
}

// AchievementQuery mirrors supported listing filters.
type AchievementQuery struct {
	Department string
	Status     []models.AchievementStatus
	Limit      int
	Offset     int
}
