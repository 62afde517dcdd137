package schedule

import (
	"errors"
	"fmt"
	"time"
)

// SessionStatus is the lifecycle state of a concrete dated session.
type SessionStatus string

// Session lifecycle states.
const (
	StatusScheduled SessionStatus = "scheduled"
	StatusCompleted SessionStatus = "completed"
	StatusCancelled SessionStatus = "cancelled"
)

// Session types.
const (
	TypeLecture = "lecture"
	TypeLab     = "lab"
	TypeExam    = "exam"
	TypeSeminar = "seminar"
)

// Errors returned by the schedule and expansion services.
var (
	ErrScheduleNotFound  = errors.New("schedule not found")
	ErrSessionNotFound   = errors.New("session not found")
	ErrNotRecurring      = errors.New("schedule is not recurring")
	ErrInvalidRange      = errors.New("start date after end date")
	ErrInvalidTransition = errors.New("invalid session status transition")
)

// RecurringSchedule is a weekly-repeating teaching slot independent of calendar dates.
type RecurringSchedule struct {
	ID           string    `json:"id"`
	CourseID     string    `json:"course_id"`
	InstructorID string    `json:"instructor_id"`
	DayOfWeek    int       `json:"day_of_week"` // 0 = Sunday .. 6 = Saturday
	StartTime    string    `json:"start_time"`  // "15:04"
	EndTime      string    `json:"end_time"`
	Room         string    `json:"room,omitempty"`
	SessionType  string    `json:"session_type"`
	IsRecurring  bool      `json:"is_recurring"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Validate checks the schedule invariants before it is persisted.
func (s RecurringSchedule) Validate() error {
	if s.CourseID == "" || s.InstructorID == "" {
		return errors.New("course and instructor required")
	}
	if s.DayOfWeek < 0 || s.DayOfWeek > 6 {
		return fmt.Errorf("day of week %d out of range", s.DayOfWeek)
	}
	start, err := time.Parse("15:04", s.StartTime)
	if err != nil {
		return fmt.Errorf("bad start time %q", s.StartTime)
	}
	end, err := time.Parse("15:04", s.EndTime)
	if err != nil {
		return fmt.Errorf("bad end time %q", s.EndTime)
	}
	if !start.Before(end) {
		return errors.New("start time must be before end time")
	}
	return nil
}

// Session is one concrete, dated occurrence of a class.
// ScheduleID is nil for ad hoc sessions (e.g. makeup classes).
type Session struct {
	ID               string        `json:"id"`
	ScheduleID       *string       `json:"schedule_id,omitempty"`
	CourseID         string        `json:"course_id"`
	InstructorID     string        `json:"instructor_id"`
	Date             time.Time     `json:"date"`
	StartTime        string        `json:"start_time"`
	EndTime          string        `json:"end_time"`
	Room             string        `json:"room,omitempty"`
	SessionType      string        `json:"session_type"`
	Status           SessionStatus `json:"status"`
	AttendanceMarked bool          `json:"attendance_marked"`
	Notes            string        `json:"notes,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// DateOnly truncates a timestamp to its UTC calendar date.
func DateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
