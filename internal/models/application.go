package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ApplicationStatus captures workflow states for credit-transfer applications.
type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "PENDING"
	ApplicationStatusApproved ApplicationStatus = "APPROVED"
	ApplicationStatusRejected ApplicationStatus = "REJECTED"
)

// CourseTransfer is one online-course credit transfer entry.
type CourseTransfer struct {
	CourseType         string `json:"course_type" validate:"required"`
	RecSubjectCode     string `json:"rec_subject_code" validate:"required"`
	CourseName         string `json:"course_name" validate:"required"`
	OfferingUniversity string `json:"offering_university" validate:"required"`
	Credits            int    `json:"credits" validate:"required,min=1"`
	Grade              string `json:"grade" validate:"required"`
	DroppedElective    string `json:"dropped_elective" validate:"required"`
	DroppedElectiveCode string `json:"dropped_elective_code" validate:"required"`
	Semester           string `json:"semester" validate:"required"`
	ProofFile          string `json:"proof_file,omitempty"`
}

// InternshipTransfer is one internship credit transfer entry.
type InternshipTransfer struct {
	IndustrySubjectCode string `json:"industry_subject_code" validate:"required"`
	CompanyName         string `json:"company_name" validate:"required"`
	Duration            string `json:"duration" validate:"required"`
	Grade               string `json:"grade" validate:"required"`
	DroppedElective     string `json:"dropped_elective" validate:"required"`
	Semester            string `json:"semester" validate:"required"`
	ProofFile           string `json:"proof_file,omitempty"`
}

// CourseList stores course entries as a JSONB column.
type CourseList []CourseTransfer

// Value implements driver.Valuer.
func (l CourseList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *CourseList) Scan(src interface{}) error {
	return scanJSON(src, l, "courses")
}

// InternshipList stores internship entries as a JSONB column.
type InternshipList []InternshipTransfer

// Value implements driver.Valuer.
func (l InternshipList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *InternshipList) Scan(src interface{}) error {
	return scanJSON(src, l, "internships")
}

func scanJSON(src, dest interface{}, what string) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported %s column type %T", what, src)
	}
}

// Application stores a credit-transfer request awaiting review. Ownership
// is immutable after creation; the reviewer is set on the first status
// transition.
type Application struct {
	ID             string            `db:"id" json:"id"`
	StudentID      string            `db:"student_id" json:"student_id"`
	Department     string            `db:"department" json:"department"`
	Batch          string            `db:"batch" json:"batch"`
	RegisterNumber string            `db:"register_number" json:"register_number"`
	AcademicYear   string            `db:"academic_year" json:"academic_year"`
	Semester       string            `db:"semester" json:"semester"`
	CGPA           float64           `db:"cgpa" json:"cgpa"`
	Courses        CourseList        `db:"courses" json:"courses"`
	Internships    InternshipList    `db:"internships" json:"internships"`
	Status         ApplicationStatus `db:"status" json:"status"`
	ReviewerID     *string           `db:"reviewer_id" json:"reviewer_id,omitempty"`
	Remarks        *string           `db:"remarks" json:"remarks,omitempty"`
	CreatedAt      time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time         `db:"updated_at" json:"updated_at"`

	// Joined student columns for reviewer listings.
	StudentName  *string `db:"student_name" json:"student_name,omitempty"`
	StudentEmail *string `db:"student_email" json:"student_email,omitempty"`
}

// ApplicationFilter constrains listing queries.
type ApplicationFilter struct {
	StudentID  string
	Department string
	Status     []ApplicationStatus
	Limit      int
	Offset     int
}
