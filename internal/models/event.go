package models

import (
	"time"

	"github.com/lib/pq"
)

// Event is a campus event students can register for. RegistrationLimit of
// zero means unlimited; RegisteredStudents holds distinct student ids.
type Event struct {
	ID                 string         `db:"id" json:"id"`
	Title              string         `db:"title" json:"title"`
	Date               string         `db:"date" json:"date"`
	Time               string         `db:"time" json:"time"`
	Location           string         `db:"location" json:"location"`
	Description        string         `db:"description" json:"description"`
	Category           string         `db:"category" json:"category"`
	RegistrationLimit  int            `db:"registration_limit" json:"registration_limit"`
	RegisteredStudents pq.StringArray `db:"registered_students" json:"registered_students"`
	CreatedBy          string         `db:"created_by" json:"created_by"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`
}

// IsRegistered reports whether the student id already appears in the
// registration set.
func (e *Event) IsRegistered(studentID string) bool {
	for _, id := range e.RegisteredStudents {
		if id == studentID {
			return true
		}
	}
	return false
}

// IsFull reports whether the event has reached its registration limit.
func (e *Event) IsFull() bool {
	return e.RegistrationLimit > 0 && len(e.RegisteredStudents) >= e.RegistrationLimit
}
