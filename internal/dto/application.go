package dto

import "github.com/noah-isme/rec-ctp-api/internal/models"

// CreateApplicationRequest payload for submitting a credit-transfer
// application. The owner is always the authenticated student.
type CreateApplicationRequest struct {
	Department     string                      `json:"department" validate:"required"`
	Batch          string                      `json:"batch" validate:"required"`
	RegisterNumber string                      `json:"register_number" validate:"required"`
	AcademicYear   string                      `json:"academic_year" validate:"required"`
	Semester       string                      `json:"semester" validate:"required"`
	CGPA           float64                     `json:"cgpa" validate:"required,gte=0,lte=10"`
	Courses        []models.CourseTransfer     `json:"courses" validate:"dive"`
	Internships    []models.InternshipTransfer `json:"internships" validate:"dive"`
}

// ResubmitApplicationRequest replaces content fields on a rejected
// application and resets it to pending.
type ResubmitApplicationRequest struct {
	Batch        string                      `json:"batch" validate:"required"`
	AcademicYear string                      `json:"academic_year" validate:"required"`
	Semester     string                      `json:"semester" validate:"required"`
	CGPA         float64                     `json:"cgpa" validate:"required,gte=0,lte=10"`
	Courses      []models.CourseTransfer     `json:"courses" validate:"dive"`
	Internships  []models.InternshipTransfer `json:"internships" validate:"dive"`
}

// ReviewRequest captures a reviewer decision and optional remarks, shared
// by the application and OD status endpoints.
type ReviewRequest struct {
	Status  string `json:"status" validate:"required"`
	Remarks string `json:"remarks"`
}

// ApplicationQuery mirrors supported listing filters.
type ApplicationQuery struct {
	Department string
	Status     []models.ApplicationStatus
	Limit      int
	Offset     int
}

// ReportResponse returns the reference for a generated approval letter.
type ReportResponse struct {
	ApplicationID string `json:"application_id"`
	FilePath      string `json:"file_path"`
	DownloadURL   string `json:"download_url"`
}
