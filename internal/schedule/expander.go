package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"classroll/internal/queue"
	"classroll/internal/store"
)

// ExpansionStore is the slice of the store the expander needs.
type ExpansionStore interface {
	GetSchedule(ctx context.Context, id string) (*RecurringSchedule, error)
	InsertSessionIfAbsent(ctx context.Context, s Session) (bool, error)
}

// EventPublisher makes session lifecycle events observable to external collaborators.
type EventPublisher interface {
	Publish(ctx context.Context, evt queue.Event) error
}

// Expander materializes a recurring schedule into dated session rows.
type Expander struct {
	store  ExpansionStore
	events EventPublisher
	log    *zap.Logger
}

// NewExpander creates an expander. events may be nil when no collaborator listens.
func NewExpander(st ExpansionStore, events EventPublisher, log *zap.Logger) *Expander {
	if log == nil {
		log = zap.NewNop()
	}
	return &Expander{store: st, events: events, log: log}
}

// Expand walks every calendar date in [start, end], creates one session per date
// matching the schedule's day of week, and returns the count actually created.
// Dates already covered by a session are skipped, never duplicated or overwritten.
// Any insert failure aborts the batch; the reported count is then zero. Re-running
// the same window is safe because the per-date insert is conditional.
func (e *Expander) Expand(ctx context.Context, scheduleID string, start, end time.Time) (int, error) {
	start, end = DateOnly(start), DateOnly(end)
	if start.After(end) {
		return 0, ErrInvalidRange
	}

	sched, err := e.store.GetSchedule(ctx, scheduleID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	if sched == nil {
		return 0, ErrScheduleNotFound
	}
	if !sched.IsRecurring {
		return 0, ErrNotRecurring
	}

	created := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if int(d.Weekday()) != sched.DayOfWeek {
			continue
		}
		id := uuid.NewString()
		inserted, err := e.store.InsertSessionIfAbsent(ctx, Session{
			ID:           id,
			ScheduleID:   &sched.ID,
			CourseID:     sched.CourseID,
			InstructorID: sched.InstructorID,
			Date:         d,
			StartTime:    sched.StartTime,
			EndTime:      sched.EndTime,
			Room:         sched.Room,
			SessionType:  sched.SessionType,
			Status:       StatusScheduled,
		})
		if err != nil {
			return 0, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
		}
		if !inserted {
			continue
		}
		created++
		e.publishCreated(ctx, id, sched.CourseID, d)
	}

	e.log.Info("schedule expanded",
		zap.String("schedule_id", scheduleID),
		zap.Time("start", start),
		zap.Time("end", end),
		zap.Int("created", created))
	return created, nil
}

func (e *Expander) publishCreated(ctx context.Context, sessionID, courseID string, date time.Time) {
	if e.events == nil {
		return
	}
	evt := queue.Event{
		Type:       queue.TypeSessionCreated,
		SessionID:  sessionID,
		CourseID:   courseID,
		OccurredAt: date,
	}
	if err := e.events.Publish(ctx, evt); err != nil {
		e.log.Warn("event publish failed", zap.String("type", evt.Type), zap.Error(err))
	}
}
