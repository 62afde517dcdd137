package attendance

import (
	"errors"
	"time"
)

// Status is the recorded attendance outcome for one student in one session.
type Status string

// Attendance outcomes.
const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
	StatusExcused Status = "excused"
)

// Valid reports whether the status is one of the known outcomes.
func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate, StatusExcused:
		return true
	}
	return false
}

// Errors returned by the attendance service.
var (
	ErrInvalidStatus  = errors.New("invalid attendance status")
	ErrRecordNotFound = errors.New("attendance record not found")
)

// Record is one attendance outcome, unique per
// (student, course, date, session). Records are corrected, never deleted.
type Record struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"student_id"`
	CourseID    string    `json:"course_id"`
	Date        time.Time `json:"date"`
	SessionID   string    `json:"session_id"`
	ProfessorID string    `json:"professor_id"`
	Status      Status    `json:"status"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
