package queue

import (
	"context"
	"testing"
	"time"
)

func TestInMemoryRoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewInMemory(4)
	evt := Event{
		Type:       TypeSessionCreated,
		SessionID:  "sess-1",
		CourseID:   "course-1",
		OccurredAt: time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC),
	}
	if err := q.Publish(ctx, evt); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	out, err := q.Consume(ctx)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	select {
	case got := <-out:
		if got.Type != evt.Type || got.SessionID != evt.SessionID {
			t.Fatalf("got %+v, want %+v", got, evt)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestInMemoryPublishCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	q := NewInMemory(0)
	if err := q.Publish(ctx, Event{Type: TypeAttendanceRecorded}); err == nil {
		t.Fatal("publish on cancelled context should fail")
	}
}
