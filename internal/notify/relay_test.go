package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"clipqueue/internal/model"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (n *recordingNotifier) Notify(_ string, event Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) Deliver(_ context.Context, _ string, _ model.Artifact) error {
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

func TestRelay_DeliversEvents(t *testing.T) {
	rec := &recordingNotifier{}
	relay := NewRelay(rec, 8, zap.NewNop())
	relay.Start()

	relay.Send("user-1", Event{Type: EventStarted, JobID: "job-1"})
	relay.Send("user-1", Event{Type: EventProgress, JobID: "job-1", Percent: 50})

	deadline := time.After(time.Second)
	for rec.count() < 2 {
		select {
		case <-deadline:
			t.Fatalf("Expected 2 events delivered, got %d", rec.count())
		case <-time.After(5 * time.Millisecond):
		}
	}

	relay.Close()
	<-relay.Done()
}

func TestRelay_SendDropsWhenFull(t *testing.T) {
	rec := &recordingNotifier{}
	relay := NewRelay(rec, 1, zap.NewNop())
	// Not started: nothing consumes, so the second send must be dropped.

	if !relay.Send("user-1", Event{Type: EventProgress}) {
		t.Fatal("First send should fit in the buffer")
	}
	if relay.Send("user-1", Event{Type: EventProgress}) {
		t.Error("Second send should be dropped, buffer is full")
	}
}

func TestRelay_DrainsOnClose(t *testing.T) {
	rec := &recordingNotifier{}
	relay := NewRelay(rec, 8, zap.NewNop())

	relay.Send("user-1", Event{Type: EventFailed, JobID: "job-1", Reason: "x"})

	relay.Start()
	relay.Close()

	select {
	case <-relay.Done():
	case <-time.After(time.Second):
		t.Fatal("Relay did not shut down")
	}

	if rec.count() != 1 {
		t.Errorf("Buffered event should be drained on shutdown, got %d", rec.count())
	}
}

func TestRelay_PostDeliveredWhileConsumerRuns(t *testing.T) {
	rec := &recordingNotifier{}
	relay := NewRelay(rec, 2, zap.NewNop())
	relay.Start()

	// Terminal events produced late in a shutdown (after worker contexts
	// are cancelled) must still be consumed until Close.
	relay.Post("user-1", Event{Type: EventSucceeded, JobID: "job-1"})
	relay.Post("user-1", Event{Type: EventFailed, JobID: "job-2", Reason: "x"})

	relay.Close()
	<-relay.Done()

	if rec.count() != 2 {
		t.Errorf("Expected both terminal events delivered, got %d", rec.count())
	}
}
