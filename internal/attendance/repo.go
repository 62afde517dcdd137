package attendance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository persists attendance records and answers enrollment checks in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Upsert writes an attendance record keyed on
// (student_id, course_id, attendance_date, session_id). A second write for the
// same key updates the existing row in place; concurrent writes for the same key
// collapse to a single row at the constraint.
func (r *Repository) Upsert(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance_records (id, student_id, course_id, attendance_date, session_id, professor_id, status, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (student_id, course_id, attendance_date, session_id) DO UPDATE SET
			status = EXCLUDED.status,
			notes = EXCLUDED.notes,
			professor_id = EXCLUDED.professor_id,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`, rec.ID, rec.StudentID, rec.CourseID, rec.Date, rec.SessionID, rec.ProfessorID, rec.Status, rec.Notes)
	if err := row.Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// IsEnrolled reports whether the student has an active enrollment in the course.
func (r *Repository) IsEnrolled(ctx context.Context, studentID, courseID string) (bool, error) {
	var enrolled bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM enrollments
			WHERE student_id = $1 AND course_id = $2 AND status = 'active'
		)
	`, studentID, courseID).Scan(&enrolled)
	return enrolled, err
}

// GetRecord returns a record by id, or nil when absent.
func (r *Repository) GetRecord(ctx context.Context, id string) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, student_id, course_id, attendance_date, session_id, professor_id, status, notes, created_at, updated_at
		FROM attendance_records WHERE id = $1
	`, id)
	var rec Record
	if err := row.Scan(&rec.ID, &rec.StudentID, &rec.CourseID, &rec.Date, &rec.SessionID, &rec.ProfessorID, &rec.Status, &rec.Notes, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// UpdateRecord corrects status and notes on an existing record.
func (r *Repository) UpdateRecord(ctx context.Context, id string, status Status, notes string) (Record, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE attendance_records
		SET status = $2, notes = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING id, student_id, course_id, attendance_date, session_id, professor_id, status, notes, created_at, updated_at
	`, id, status, notes)
	var rec Record
	if err := row.Scan(&rec.ID, &rec.StudentID, &rec.CourseID, &rec.Date, &rec.SessionID, &rec.ProfessorID, &rec.Status, &rec.Notes, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrRecordNotFound
		}
		return Record{}, err
	}
	return rec, nil
}

// ListBySession returns every record for one session.
func (r *Repository) ListBySession(ctx context.Context, sessionID string) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, student_id, course_id, attendance_date, session_id, professor_id, status, notes, created_at, updated_at
		FROM attendance_records WHERE session_id = $1
		ORDER BY student_id
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

// ListByStudent returns a student's records for a course within [from, to].
func (r *Repository) ListByStudent(ctx context.Context, studentID, courseID string, from, to time.Time) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, student_id, course_id, attendance_date, session_id, professor_id, status, notes, created_at, updated_at
		FROM attendance_records
		WHERE student_id = $1 AND course_id = $2 AND attendance_date BETWEEN $3 AND $4
		ORDER BY attendance_date
	`, studentID, courseID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var res []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.StudentID, &rec.CourseID, &rec.Date, &rec.SessionID, &rec.ProfessorID, &rec.Status, &rec.Notes, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}
