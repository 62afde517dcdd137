package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"classroll/internal/queue"
	"classroll/internal/store"
)

// Store is the full persistence surface the schedule service uses.
type Store interface {
	ExpansionStore
	CreateSchedule(ctx context.Context, s RecurringSchedule) (RecurringSchedule, error)
	UpdateSchedule(ctx context.Context, s RecurringSchedule) error
	DeleteSchedule(ctx context.Context, id string) error
	InsertSession(ctx context.Context, s Session) (Session, error)
	GetSession(ctx context.Context, id string) (*Session, error)
	TransitionSessionStatus(ctx context.Context, id string, to SessionStatus) (bool, error)
	ListSessions(ctx context.Context, f SessionFilter) ([]Session, error)
}

// Service manages recurring schedules and ad hoc sessions.
type Service struct {
	store  Store
	events EventPublisher
	log    *zap.Logger
}

// NewService creates a schedule service.
func NewService(st Store, events EventPublisher, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: st, events: events, log: log}
}

// CreateSchedule validates and persists a recurring slot.
func (s *Service) CreateSchedule(ctx context.Context, sched RecurringSchedule) (RecurringSchedule, error) {
	if err := sched.Validate(); err != nil {
		return RecurringSchedule{}, err
	}
	if sched.SessionType == "" {
		sched.SessionType = TypeLecture
	}
	out, err := s.store.CreateSchedule(ctx, sched)
	if err != nil {
		return RecurringSchedule{}, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return out, nil
}

// UpdateSchedule validates and overwrites an existing slot.
func (s *Service) UpdateSchedule(ctx context.Context, sched RecurringSchedule) error {
	if err := sched.Validate(); err != nil {
		return err
	}
	err := s.store.UpdateSchedule(ctx, sched)
	if err != nil && !errors.Is(err, ErrScheduleNotFound) {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return err
}

// DeleteSchedule discontinues a recurring slot. Already-materialized sessions
// stay as they are.
func (s *Service) DeleteSchedule(ctx context.Context, id string) error {
	err := s.store.DeleteSchedule(ctx, id)
	if err != nil && !errors.Is(err, ErrScheduleNotFound) {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return err
}

// GetSchedule returns a recurring slot.
func (s *Service) GetSchedule(ctx context.Context, id string) (*RecurringSchedule, error) {
	sched, err := s.store.GetSchedule(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	if sched == nil {
		return nil, ErrScheduleNotFound
	}
	return sched, nil
}

// CreateAdHocSession creates a single dated session not derived from any schedule,
// e.g. a makeup class.
func (s *Service) CreateAdHocSession(ctx context.Context, sess Session) (Session, error) {
	if sess.CourseID == "" || sess.InstructorID == "" {
		return Session{}, errors.New("course and instructor required")
	}
	if sess.Date.IsZero() {
		return Session{}, errors.New("session date required")
	}
	if _, err := time.Parse("15:04", sess.StartTime); err != nil {
		return Session{}, fmt.Errorf("bad start time %q", sess.StartTime)
	}
	if _, err := time.Parse("15:04", sess.EndTime); err != nil {
		return Session{}, fmt.Errorf("bad end time %q", sess.EndTime)
	}
	if sess.StartTime >= sess.EndTime {
		return Session{}, errors.New("start time must be before end time")
	}
	sess.ScheduleID = nil
	sess.Date = DateOnly(sess.Date)
	sess.Status = StatusScheduled
	if sess.SessionType == "" {
		sess.SessionType = TypeLecture
	}

	out, err := s.store.InsertSession(ctx, sess)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	if s.events != nil {
		evt := queue.Event{
			Type:       queue.TypeSessionCreated,
			SessionID:  out.ID,
			CourseID:   out.CourseID,
			OccurredAt: out.Date,
		}
		if err := s.events.Publish(ctx, evt); err != nil {
			s.log.Warn("event publish failed", zap.String("type", evt.Type), zap.Error(err))
		}
	}
	return out, nil
}

// GetSession returns a session by id.
func (s *Service) GetSession(ctx context.Context, id string) (*Session, error) {
	sess, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	if sess == nil {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// TransitionSession moves a session from scheduled to completed or cancelled.
// Any other transition is rejected.
func (s *Service) TransitionSession(ctx context.Context, id string, to SessionStatus) error {
	if to != StatusCompleted && to != StatusCancelled {
		return ErrInvalidTransition
	}
	sess, err := s.store.GetSession(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	if sess == nil {
		return ErrSessionNotFound
	}
	moved, err := s.store.TransitionSessionStatus(ctx, id, to)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	if !moved {
		return ErrInvalidTransition
	}
	s.log.Info("session status changed", zap.String("session_id", id), zap.String("status", string(to)))
	return nil
}

// ListSessions returns sessions matching the filter.
func (s *Service) ListSessions(ctx context.Context, f SessionFilter) ([]Session, error) {
	out, err := s.store.ListSessions(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return out, nil
}
