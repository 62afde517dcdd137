package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"classroll/internal/schedule"
	"classroll/internal/store"
)

// Store is the persistence surface the attendance service uses.
type Store interface {
	Upsert(ctx context.Context, rec Record) (Record, error)
	GetRecord(ctx context.Context, id string) (*Record, error)
	UpdateRecord(ctx context.Context, id string, status Status, notes string) (Record, error)
	ListBySession(ctx context.Context, sessionID string) ([]Record, error)
	ListByStudent(ctx context.Context, studentID, courseID string, from, to time.Time) ([]Record, error)
}

// SessionStore resolves sessions for bulk marking.
type SessionStore interface {
	GetSession(ctx context.Context, id string) (*schedule.Session, error)
	SetAttendanceMarked(ctx context.Context, id string) error
}

// Service handles instructor-side attendance marking and corrections.
type Service struct {
	store    Store
	sessions SessionStore
	log      *zap.Logger
}

// NewService creates an attendance service.
func NewService(st Store, sessions SessionStore, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: st, sessions: sessions, log: log}
}

// Mark is one roster entry in a bulk marking call.
type Mark struct {
	StudentID string `json:"student_id"`
	Status    Status `json:"status"`
	Notes     string `json:"notes,omitempty"`
}

// BulkMark upserts one record per roster entry for a session. Re-marking the
// same roster overwrites the existing rows; the count reported is the number of
// entries written.
func (s *Service) BulkMark(ctx context.Context, sessionID, professorID string, marks []Mark) (int, error) {
	for _, m := range marks {
		if m.StudentID == "" {
			return 0, fmt.Errorf("student id required")
		}
		if !m.Status.Valid() {
			return 0, fmt.Errorf("%w: %q", ErrInvalidStatus, m.Status)
		}
	}

	sess, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	if sess == nil {
		return 0, schedule.ErrSessionNotFound
	}

	written := 0
	for _, m := range marks {
		_, err := s.store.Upsert(ctx, Record{
			StudentID:   m.StudentID,
			CourseID:    sess.CourseID,
			Date:        sess.Date,
			SessionID:   sess.ID,
			ProfessorID: professorID,
			Status:      m.Status,
			Notes:       m.Notes,
		})
		if err != nil {
			return 0, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
		}
		written++
	}

	if written > 0 {
		if err := s.sessions.SetAttendanceMarked(ctx, sess.ID); err != nil {
			s.log.Warn("marking session flag failed", zap.String("session_id", sess.ID), zap.Error(err))
		}
	}
	s.log.Info("attendance bulk marked",
		zap.String("session_id", sessionID),
		zap.String("professor_id", professorID),
		zap.Int("written", written))
	return written, nil
}

// Correct updates status and notes on an existing record. Last write wins.
func (s *Service) Correct(ctx context.Context, recordID string, status Status, notes string) (Record, error) {
	if !status.Valid() {
		return Record{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	rec, err := s.store.UpdateRecord(ctx, recordID, status, notes)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return rec, nil
}

// BySession returns the attendance sheet for one session.
func (s *Service) BySession(ctx context.Context, sessionID string) ([]Record, error) {
	recs, err := s.store.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return recs, nil
}

// ByStudent returns a student's records for a course within [from, to].
func (s *Service) ByStudent(ctx context.Context, studentID, courseID string, from, to time.Time) ([]Record, error) {
	recs, err := s.store.ListByStudent(ctx, studentID, courseID, schedule.DateOnly(from), schedule.DateOnly(to))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return recs, nil
}
