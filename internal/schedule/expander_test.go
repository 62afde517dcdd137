package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"classroll/internal/store"
)

// fakeExpansionStore keeps sessions keyed on (schedule id, date) like the
// unique constraint does.
type fakeExpansionStore struct {
	schedules  map[string]*RecurringSchedule
	sessions   map[string]Session
	getCalls   int
	failInsert bool
}

func newFakeExpansionStore() *fakeExpansionStore {
	return &fakeExpansionStore{
		schedules: make(map[string]*RecurringSchedule),
		sessions:  make(map[string]Session),
	}
}

func (f *fakeExpansionStore) GetSchedule(_ context.Context, id string) (*RecurringSchedule, error) {
	f.getCalls++
	return f.schedules[id], nil
}

func (f *fakeExpansionStore) InsertSessionIfAbsent(_ context.Context, s Session) (bool, error) {
	if f.failInsert {
		return false, errors.New("connection reset")
	}
	key := *s.ScheduleID + "|" + s.Date.Format("2006-01-02")
	if _, ok := f.sessions[key]; ok {
		return false, nil
	}
	f.sessions[key] = s
	return true, nil
}

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// Wednesday schedule used across tests. 2026-03-04 and 2026-03-11 are Wednesdays.
func seedWednesdaySchedule(st *fakeExpansionStore) string {
	st.schedules["sched-1"] = &RecurringSchedule{
		ID:           "sched-1",
		CourseID:     "course-1",
		InstructorID: "prof-1",
		DayOfWeek:    3,
		StartTime:    "10:00",
		EndTime:      "11:30",
		Room:         "B204",
		SessionType:  TypeLecture,
		IsRecurring:  true,
	}
	return "sched-1"
}

func TestExpandCreatesMatchingDates(t *testing.T) {
	st := newFakeExpansionStore()
	id := seedWednesdaySchedule(st)
	exp := NewExpander(st, nil, nil)

	created, err := exp.Expand(context.Background(), id, date("2026-03-02"), date("2026-03-15"))
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if created != 2 {
		t.Fatalf("created = %d, want 2", created)
	}
	for _, s := range st.sessions {
		if s.Date.Weekday() != time.Wednesday {
			t.Errorf("session on %s, want a Wednesday", s.Date.Weekday())
		}
		if s.Status != StatusScheduled {
			t.Errorf("status = %s, want scheduled", s.Status)
		}
		if s.ScheduleID == nil || *s.ScheduleID != id {
			t.Errorf("schedule id not carried to session")
		}
	}
}

func TestExpandIdempotent(t *testing.T) {
	st := newFakeExpansionStore()
	id := seedWednesdaySchedule(st)
	exp := NewExpander(st, nil, nil)

	first, err := exp.Expand(context.Background(), id, date("2026-03-02"), date("2026-03-15"))
	if err != nil {
		t.Fatalf("first Expand: %v", err)
	}
	second, err := exp.Expand(context.Background(), id, date("2026-03-02"), date("2026-03-15"))
	if err != nil {
		t.Fatalf("second Expand: %v", err)
	}
	if first != 2 || second != 0 {
		t.Fatalf("created = (%d, %d), want (2, 0)", first, second)
	}
	if len(st.sessions) != 2 {
		t.Fatalf("store has %d sessions, want 2", len(st.sessions))
	}
}

func TestExpandSingleDayRange(t *testing.T) {
	st := newFakeExpansionStore()
	id := seedWednesdaySchedule(st)
	exp := NewExpander(st, nil, nil)

	created, err := exp.Expand(context.Background(), id, date("2026-03-04"), date("2026-03-04"))
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if created != 1 {
		t.Fatalf("matching single day created = %d, want 1", created)
	}

	created, err = exp.Expand(context.Background(), id, date("2026-03-05"), date("2026-03-05"))
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if created != 0 {
		t.Fatalf("non-matching single day created = %d, want 0", created)
	}
}

func TestExpandInvalidRange(t *testing.T) {
	st := newFakeExpansionStore()
	id := seedWednesdaySchedule(st)
	exp := NewExpander(st, nil, nil)

	_, err := exp.Expand(context.Background(), id, date("2026-03-15"), date("2026-03-02"))
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("err = %v, want ErrInvalidRange", err)
	}
	if st.getCalls != 0 {
		t.Fatalf("range validation should reject before any store access")
	}
}

func TestExpandUnknownSchedule(t *testing.T) {
	st := newFakeExpansionStore()
	exp := NewExpander(st, nil, nil)

	_, err := exp.Expand(context.Background(), "nope", date("2026-03-02"), date("2026-03-15"))
	if !errors.Is(err, ErrScheduleNotFound) {
		t.Fatalf("err = %v, want ErrScheduleNotFound", err)
	}
}

func TestExpandNonRecurringSchedule(t *testing.T) {
	st := newFakeExpansionStore()
	id := seedWednesdaySchedule(st)
	st.schedules[id].IsRecurring = false
	exp := NewExpander(st, nil, nil)

	_, err := exp.Expand(context.Background(), id, date("2026-03-02"), date("2026-03-15"))
	if !errors.Is(err, ErrNotRecurring) {
		t.Fatalf("err = %v, want ErrNotRecurring", err)
	}
}

func TestExpandInsertFailureAbortsBatch(t *testing.T) {
	st := newFakeExpansionStore()
	id := seedWednesdaySchedule(st)
	st.failInsert = true
	exp := NewExpander(st, nil, nil)

	created, err := exp.Expand(context.Background(), id, date("2026-03-02"), date("2026-03-15"))
	if !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
	if created != 0 {
		t.Fatalf("created = %d, want 0 on abort", created)
	}
}

func TestExpandMultiYearRangeNotTruncated(t *testing.T) {
	st := newFakeExpansionStore()
	id := seedWednesdaySchedule(st)
	exp := NewExpander(st, nil, nil)

	// Two full years contain 104 or 105 Wednesdays; anything short of ~100
	// would mean the pass was capped.
	created, err := exp.Expand(context.Background(), id, date("2026-01-01"), date("2027-12-31"))
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if created < 100 {
		t.Fatalf("created = %d, multi-year range looks truncated", created)
	}
}
