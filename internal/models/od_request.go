package models

import "time"

// ODStatus captures workflow states for on-duty leave requests.
type ODStatus string

const (
	ODStatusPending  ODStatus = "PENDING"
	ODStatusApproved ODStatus = "APPROVED"
	ODStatusRejected ODStatus = "REJECTED"
)

// ODRequest stores an on-duty leave request. Rejected requests are
// terminal; there is no resubmission path.
type ODRequest struct {
	ID          string     `db:"id" json:"id"`
	StudentID   string     `db:"student_id" json:"student_id"`
	Reason      string     `db:"reason" json:"reason"`
	FromDate    time.Time  `db:"from_date" json:"from_date"`
	ToDate      time.Time  `db:"to_date" json:"to_date"`
	Description string     `db:"description" json:"description"`
	ProofFile   *string    `db:"proof_file" json:"proof_file,omitempty"`
	Status      ODStatus   `db:"status" json:"status"`
	ReviewerID  *string    `db:"reviewer_id" json:"reviewer_id,omitempty"`
	Remarks     *string    `db:"remarks" json:"remarks,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`

	StudentName       *string `db:"student_name" json:"student_name,omitempty"`
	StudentDepartment *string `db:"student_department" json:"student_department,omitempty"`
}

// ODFilter constrains listing queries.
type ODFilter struct {
	StudentID  string
	Department string
	Status     []ODStatus
	Limit      int
	Offset     int
}
