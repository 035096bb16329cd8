package models

import "time"

// AchievementStatus uses a distinct three-state naming from the other
// request entities; verification, not approval.
type AchievementStatus string

const (
	AchievementStatusPendingVerified AchievementStatus = "PENDING_VERIFIED"
	AchievementStatusVerified        AchievementStatus = "VERIFIED"
	AchievementStatusRejected        AchievementStatus = "REJECTED"
)

// Achievement stores a student accomplishment awaiting verification.
// Rejected achievements are terminal.
type Achievement struct {
	ID          string            `db:"id" json:"id"`
	StudentID   string            `db:"student_id" json:"student_id"`
	Title       string            `db:"title" json:"title"`
	Type        string            `db:"type" json:"type"`
	Date        string            `db:"date" json:"date"`
	Description string            `db:"description" json:"description"`
	ProofFile   *string           `db:"proof_file" json:"proof_file,omitempty"`
	Status      AchievementStatus `db:"status" json:"status"`
	ReviewerID  *string           `db:"reviewer_id" json:"reviewer_id,omitempty"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time         `db:"updated_at" json:"updated_at"`

	StudentName       *string `db:"student_name" json:"student_name,omitempty"`
	StudentDepartment *string `db:"student_department" json:"student_department,omitempty"`
}

// AchievementHighlight is the public projection of a verified achievement.
// It deliberately omits ownership and contact fields.
type AchievementHighlight struct {
	Title       string `db:"title" json:"title"`
	Type        string `db:"type" json:"type"`
	Date        string `db:"date" json:"date"`
	Description string `db:"description" json:"description"`
}

// AchievementFilter constrains listing queries.
type AchievementFilter struct {
	StudentID  string
	Department string
	Status     []AchievementStatus
	Limit      int
	Offset     int
}
