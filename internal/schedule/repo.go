package schedule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Repository persists schedules and sessions in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateSchedule inserts a recurring schedule.
func (r *Repository) CreateSchedule(ctx context.Context, s RecurringSchedule) (RecurringSchedule, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO schedules (id, course_id, instructor_id, day_of_week, start_time, end_time, room, session_type, is_recurring, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at, updated_at
	`, s.ID, s.CourseID, s.InstructorID, s.DayOfWeek, s.StartTime, s.EndTime, s.Room, s.SessionType, s.IsRecurring, s.Notes)
	if err := row.Scan(&s.CreatedAt, &s.UpdatedAt); err != nil {
		return RecurringSchedule{}, err
	}
	return s, nil
}

// GetSchedule returns a schedule by id, or nil when absent.
func (r *Repository) GetSchedule(ctx context.Context, id string) (*RecurringSchedule, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, course_id, instructor_id, day_of_week, start_time, end_time, room, session_type, is_recurring, notes, created_at, updated_at
		FROM schedules WHERE id = $1
	`, id)
	var s RecurringSchedule
	if err := row.Scan(&s.ID, &s.CourseID, &s.InstructorID, &s.DayOfWeek, &s.StartTime, &s.EndTime, &s.Room, &s.SessionType, &s.IsRecurring, &s.Notes, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// UpdateSchedule overwrites the editable fields of a schedule.
func (r *Repository) UpdateSchedule(ctx context.Context, s RecurringSchedule) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE schedules
		SET day_of_week = $2, start_time = $3, end_time = $4, room = $5, session_type = $6, is_recurring = $7, notes = $8, updated_at = NOW()
		WHERE id = $1
	`, s.ID, s.DayOfWeek, s.StartTime, s.EndTime, s.Room, s.SessionType, s.IsRecurring, s.Notes)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrScheduleNotFound
	}
	return nil
}

// DeleteSchedule removes a recurring slot. Materialized sessions are untouched.
func (r *Repository) DeleteSchedule(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrScheduleNotFound
	}
	return nil
}

// InsertSessionIfAbsent creates a session for (schedule, date) unless one already
// exists. Returns whether a row was actually created.
func (r *Repository) InsertSessionIfAbsent(ctx context.Context, s Session) (bool, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, schedule_id, course_id, instructor_id, session_date, start_time, end_time, room, session_type, status, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (schedule_id, session_date) DO NOTHING
	`, s.ID, s.ScheduleID, s.CourseID, s.InstructorID, s.Date, s.StartTime, s.EndTime, s.Room, s.SessionType, s.Status, s.Notes)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// InsertSession creates an ad hoc session not tied to any schedule.
func (r *Repository) InsertSession(ctx context.Context, s Session) (Session, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO sessions (id, schedule_id, course_id, instructor_id, session_date, start_time, end_time, room, session_type, status, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING created_at, updated_at
	`, s.ID, s.ScheduleID, s.CourseID, s.InstructorID, s.Date, s.StartTime, s.EndTime, s.Room, s.SessionType, s.Status, s.Notes)
	if err := row.Scan(&s.CreatedAt, &s.UpdatedAt); err != nil {
		return Session{}, err
	}
	return s, nil
}

// GetSession returns a session by id, or nil when absent.
func (r *Repository) GetSession(ctx context.Context, id string) (*Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, schedule_id, course_id, instructor_id, session_date, start_time, end_time, room, session_type, status, attendance_marked, notes, created_at, updated_at
		FROM sessions WHERE id = $1
	`, id)
	var s Session
	if err := row.Scan(&s.ID, &s.ScheduleID, &s.CourseID, &s.InstructorID, &s.Date, &s.StartTime, &s.EndTime, &s.Room, &s.SessionType, &s.Status, &s.AttendanceMarked, &s.Notes, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// TransitionSessionStatus moves a scheduled session to completed or cancelled.
// The WHERE guard makes the transition rule hold under concurrent updates.
func (r *Repository) TransitionSessionStatus(ctx context.Context, id string, to SessionStatus) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'scheduled'
	`, id, to)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SetAttendanceMarked flags a session whose roster has been marked.
func (r *Repository) SetAttendanceMarked(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET attendance_marked = TRUE, updated_at = NOW() WHERE id = $1
	`, id)
	return err
}

// SessionFilter narrows ListSessions.
type SessionFilter struct {
	CourseID     string
	InstructorID string
	From         time.Time
	To           time.Time
	Limit        int
	Offset       int
}

// ListSessions returns sessions matching the filter, newest date first.
func (r *Repository) ListSessions(ctx context.Context, f SessionFilter) ([]Session, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	query := `SELECT id, schedule_id, course_id, instructor_id, session_date, start_time, end_time, room, session_type, status, attendance_marked, notes, created_at, updated_at FROM sessions`
	args := []any{}
	clauses := []string{}
	if f.CourseID != "" {
		args = append(args, f.CourseID)
		clauses = append(clauses, "course_id = $"+itoa(len(args)))
	}
	if f.InstructorID != "" {
		args = append(args, f.InstructorID)
		clauses = append(clauses, "instructor_id = $"+itoa(len(args)))
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		clauses = append(clauses, "session_date >= $"+itoa(len(args)))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		clauses = append(clauses, "session_date <= $"+itoa(len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY session_date DESC, start_time LIMIT $" + itoa(len(args)+1) + " OFFSET $" + itoa(len(args)+2)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.ScheduleID, &s.CourseID, &s.InstructorID, &s.Date, &s.StartTime, &s.EndTime, &s.Room, &s.SessionType, &s.Status, &s.AttendanceMarked, &s.Notes, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

func itoa(i int) string { return fmt.Sprintf("%d", i) }
