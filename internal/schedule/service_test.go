package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeStore struct {
	*fakeExpansionStore
	byID map[string]*Session
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		fakeExpansionStore: newFakeExpansionStore(),
		byID:               make(map[string]*Session),
	}
}

func (f *fakeStore) CreateSchedule(_ context.Context, s RecurringSchedule) (RecurringSchedule, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	f.schedules[s.ID] = &s
	return s, nil
}

func (f *fakeStore) UpdateSchedule(_ context.Context, s RecurringSchedule) error {
	if _, ok := f.schedules[s.ID]; !ok {
		return ErrScheduleNotFound
	}
	f.schedules[s.ID] = &s
	return nil
}

func (f *fakeStore) DeleteSchedule(_ context.Context, id string) error {
	if _, ok := f.schedules[id]; !ok {
		return ErrScheduleNotFound
	}
	delete(f.schedules, id)
	return nil
}

func (f *fakeStore) InsertSession(_ context.Context, s Session) (Session, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	f.byID[s.ID] = &s
	return s, nil
}

func (f *fakeStore) GetSession(_ context.Context, id string) (*Session, error) {
	return f.byID[id], nil
}

func (f *fakeStore) TransitionSessionStatus(_ context.Context, id string, to SessionStatus) (bool, error) {
	s, ok := f.byID[id]
	if !ok || s.Status != StatusScheduled {
		return false, nil
	}
	s.Status = to
	return true, nil
}

func (f *fakeStore) ListSessions(_ context.Context, _ SessionFilter) ([]Session, error) {
	var out []Session
	for _, s := range f.byID {
		out = append(out, *s)
	}
	return out, nil
}

func TestCreateScheduleValidation(t *testing.T) {
	svc := NewService(newFakeStore(), nil, nil)

	cases := []RecurringSchedule{
		{CourseID: "", InstructorID: "p", DayOfWeek: 1, StartTime: "10:00", EndTime: "11:00"},
		{CourseID: "c", InstructorID: "p", DayOfWeek: 7, StartTime: "10:00", EndTime: "11:00"},
		{CourseID: "c", InstructorID: "p", DayOfWeek: -1, StartTime: "10:00", EndTime: "11:00"},
		{CourseID: "c", InstructorID: "p", DayOfWeek: 1, StartTime: "11:00", EndTime: "10:00"},
		{CourseID: "c", InstructorID: "p", DayOfWeek: 1, StartTime: "10:00", EndTime: "10:00"},
		{CourseID: "c", InstructorID: "p", DayOfWeek: 1, StartTime: "25:00", EndTime: "26:00"},
	}
	for i, sched := range cases {
		if _, err := svc.CreateSchedule(context.Background(), sched); err == nil {
			t.Errorf("case %d: invalid schedule accepted", i)
		}
	}

	valid := RecurringSchedule{CourseID: "c", InstructorID: "p", DayOfWeek: 3, StartTime: "10:00", EndTime: "11:30", IsRecurring: true}
	out, err := svc.CreateSchedule(context.Background(), valid)
	if err != nil {
		t.Fatalf("valid schedule rejected: %v", err)
	}
	if out.ID == "" {
		t.Fatalf("created schedule has no id")
	}
	if out.SessionType != TypeLecture {
		t.Fatalf("session type default = %q, want lecture", out.SessionType)
	}
}

func TestDeleteScheduleKeepsSessions(t *testing.T) {
	st := newFakeStore()
	svc := NewService(st, nil, nil)
	exp := NewExpander(st, nil, nil)

	sched, err := svc.CreateSchedule(context.Background(), RecurringSchedule{
		CourseID: "c", InstructorID: "p", DayOfWeek: 3, StartTime: "10:00", EndTime: "11:30", IsRecurring: true,
	})
	if err != nil {
		t.Fatalf("CreateSchedule: %v", err)
	}
	if _, err := exp.Expand(context.Background(), sched.ID, date("2026-03-02"), date("2026-03-15")); err != nil {
		t.Fatalf("Expand: %v", err)
	}

	if err := svc.DeleteSchedule(context.Background(), sched.ID); err != nil {
		t.Fatalf("DeleteSchedule: %v", err)
	}
	if len(st.sessions) != 2 {
		t.Fatalf("sessions = %d after schedule delete, want 2 untouched", len(st.sessions))
	}
}

func TestCreateAdHocSession(t *testing.T) {
	svc := NewService(newFakeStore(), nil, nil)

	sess, err := svc.CreateAdHocSession(context.Background(), Session{
		CourseID:     "course-1",
		InstructorID: "prof-1",
		Date:         time.Date(2026, 3, 6, 15, 30, 0, 0, time.UTC),
		StartTime:    "09:00",
		EndTime:      "10:30",
		SessionType:  TypeLab,
	})
	if err != nil {
		t.Fatalf("CreateAdHocSession: %v", err)
	}
	if sess.ScheduleID != nil {
		t.Fatalf("ad hoc session should have no schedule id")
	}
	if sess.Status != StatusScheduled {
		t.Fatalf("status = %s, want scheduled", sess.Status)
	}
	if !sess.Date.Equal(date("2026-03-06")) {
		t.Fatalf("date not truncated: %v", sess.Date)
	}
}

func TestTransitionSession(t *testing.T) {
	st := newFakeStore()
	svc := NewService(st, nil, nil)

	sess, err := svc.CreateAdHocSession(context.Background(), Session{
		CourseID: "c", InstructorID: "p", Date: date("2026-03-06"), StartTime: "09:00", EndTime: "10:00",
	})
	if err != nil {
		t.Fatalf("CreateAdHocSession: %v", err)
	}

	if err := svc.TransitionSession(context.Background(), sess.ID, StatusCompleted); err != nil {
		t.Fatalf("scheduled -> completed: %v", err)
	}
	// completed -> cancelled is not a legal move
	if err := svc.TransitionSession(context.Background(), sess.ID, StatusCancelled); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
	// back to scheduled is never legal
	if err := svc.TransitionSession(context.Background(), sess.ID, StatusScheduled); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
	if err := svc.TransitionSession(context.Background(), "ghost", StatusCancelled); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}
