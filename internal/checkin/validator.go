package checkin

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"classroll/internal/attendance"
	"classroll/internal/queue"
	"classroll/internal/schedule"
	"classroll/internal/store"
)

// SessionStore resolves the session a token refers to.
type SessionStore interface {
	GetSession(ctx context.Context, id string) (*schedule.Session, error)
}

// EnrollmentStore answers the authorization question.
type EnrollmentStore interface {
	IsEnrolled(ctx context.Context, studentID, courseID string) (bool, error)
}

// AttendanceStore performs the idempotent attendance write.
type AttendanceStore interface {
	Upsert(ctx context.Context, rec attendance.Record) (attendance.Record, error)
}

// EventPublisher makes check-in outcomes observable.
type EventPublisher interface {
	Publish(ctx context.Context, evt queue.Event) error
}

// Validator issues check-in tokens and turns presented tokens into attendance
// records. Each check-in is a single pass: decode, expiry, session, enrollment,
// write. Every rejection exits with a distinct error and leaves no side effect.
type Validator struct {
	codec       *Codec
	sessions    SessionStore
	enrollments EnrollmentStore
	attendance  AttendanceStore
	events      EventPublisher
	log         *zap.Logger
	now         func() time.Time
}

// NewValidator creates a validator. events may be nil.
func NewValidator(codec *Codec, sessions SessionStore, enrollments EnrollmentStore, att AttendanceStore, events EventPublisher, log *zap.Logger) *Validator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Validator{
		codec:       codec,
		sessions:    sessions,
		enrollments: enrollments,
		attendance:  att,
		events:      events,
		log:         log,
		now:         time.Now,
	}
}

// IssueToken generates a check-in token for a session the instructor teaches.
// Tokens for completed or cancelled sessions are refused. Regeneration issues a
// fresh token; earlier tokens stay decodable until their own expiry.
func (v *Validator) IssueToken(ctx context.Context, sessionID, instructorID string, validity time.Duration) (string, time.Time, error) {
	sess, err := v.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	if sess == nil {
		return "", time.Time{}, schedule.ErrSessionNotFound
	}
	if instructorID != "" && sess.InstructorID != instructorID {
		return "", time.Time{}, ErrNotSessionOwner
	}
	if sess.Status != schedule.StatusScheduled {
		return "", time.Time{}, ErrSessionNotOpen
	}
	return v.codec.Issue(sess.ID, sess.CourseID, validity)
}

// CheckIn validates a presented token for an authenticated student and records
// attendance exactly once per (student, course, date, session). Re-presenting a
// still-valid token succeeds again and lands on the same record.
func (v *Validator) CheckIn(ctx context.Context, rawToken, studentID string) (attendance.Record, error) {
	if studentID == "" {
		return attendance.Record{}, fmt.Errorf("student identity required")
	}

	// Received -> Decoded. Signature is verified here, before anything else.
	tok, err := v.codec.Decode(rawToken)
	if err != nil {
		return attendance.Record{}, err
	}

	// Decoded -> ExpiryChecked. Hard boundary, no grace period.
	if v.now().UTC().After(tok.ExpiresAt) {
		return attendance.Record{}, ErrExpiredToken
	}

	// ExpiryChecked -> SessionVerified.
	sess, err := v.sessions.GetSession(ctx, tok.SessionID)
	if err != nil {
		return attendance.Record{}, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	if sess == nil || sess.CourseID != tok.CourseID || sess.Status == schedule.StatusCancelled {
		return attendance.Record{}, ErrInvalidSession
	}

	// SessionVerified -> EnrollmentVerified. A real, unexpired token is still
	// refused for an identity without an active enrollment.
	enrolled, err := v.enrollments.IsEnrolled(ctx, studentID, sess.CourseID)
	if err != nil {
		return attendance.Record{}, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	if !enrolled {
		return attendance.Record{}, ErrNotEnrolled
	}

	// EnrollmentVerified -> AttendanceWritten. The unique key makes a double
	// scan land on the same row.
	rec, err := v.attendance.Upsert(ctx, attendance.Record{
		StudentID:   studentID,
		CourseID:    sess.CourseID,
		Date:        sess.Date,
		SessionID:   sess.ID,
		ProfessorID: sess.InstructorID,
		Status:      attendance.StatusPresent,
		Notes:       "qr check-in",
	})
	if err != nil {
		return attendance.Record{}, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}

	if v.events != nil {
		evt := queue.Event{
			Type:       queue.TypeAttendanceRecorded,
			SessionID:  sess.ID,
			CourseID:   sess.CourseID,
			StudentID:  studentID,
			OccurredAt: v.now().UTC(),
		}
		if err := v.events.Publish(ctx, evt); err != nil {
			v.log.Warn("event publish failed", zap.String("type", evt.Type), zap.Error(err))
		}
	}

	v.log.Info("check-in recorded",
		zap.String("session_id", sess.ID),
		zap.String("student_id", studentID),
		zap.String("record_id", rec.ID))
	return rec, nil
}
