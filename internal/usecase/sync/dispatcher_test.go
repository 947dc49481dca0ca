package sync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

// mockProcessor implements Processor for dispatcher tests.
type mockProcessor struct {
	mu     sync.Mutex
	events []Event
	fn     func(ctx context.Context, ev Event) error
}

func (m *mockProcessor) Process(ctx context.Context, ev Event) error {
	m.mu.Lock()
	m.events = append(m.events, ev)
	m.mu.Unlock()
	if m.fn != nil {
		return m.fn(ctx, ev)
	}
	return nil
}

func (m *mockProcessor) processed() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}

func TestDispatcher_ProcessesEnqueuedDeliveries(t *testing.T) {
	proc := &mockProcessor{}
	d := NewDispatcher(proc, zap.NewNop()).WithWorkers(2)
	d.Start(context.Background())

	ids := make(map[string]bool)
	for i := 0; i < 5; i++ {
		id, err := d.Enqueue(Event{Type: EventTypeSync, Success: true, ConnectionID: "conn-1"})
		if err != nil {
			t.Fatalf("Enqueue() error = %v", err)
		}
		if id == "" || ids[id] {
			t.Fatalf("Enqueue() returned duplicate or empty id %q", id)
		}
		ids[id] = true
	}

	d.Stop()
	if got := len(proc.processed()); got != 5 {
		t.Errorf("processed %d deliveries, want 5", got)
	}
}

func TestDispatcher_EnqueueFailsWhenFull(t *testing.T) {
	block := make(chan struct{})
	proc := &mockProcessor{fn: func(context.Context, Event) error {
		<-block
		return nil
	}}
	d := NewDispatcher(proc, zap.NewNop()).WithWorkers(1).WithQueueSize(1)
	d.Start(context.Background())
	defer func() {
		close(block)
		d.Stop()
	}()

	// First delivery occupies the worker, second fills the buffer.
	// Wait for the worker to pick up the first before filling.
	if _, err := d.Enqueue(Event{Type: EventTypeSync}); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	deadline := time.Now().Add(time.Second)
	for {
		if len(proc.processed()) == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("worker never picked up the first delivery")
		}
		time.Sleep(time.Millisecond)
	}
	if _, err := d.Enqueue(Event{Type: EventTypeSync}); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	if _, err := d.Enqueue(Event{Type: EventTypeSync}); !errors.Is(err, ErrQueueFull) {
		t.Errorf("Enqueue() on full queue error = %v, want ErrQueueFull", err)
	}
}

func TestDispatcher_StopDrainsBufferedDeliveries(t *testing.T) {
	proc := &mockProcessor{fn: func(context.Context, Event) error {
		time.Sleep(5 * time.Millisecond)
		return nil
	}}
	d := NewDispatcher(proc, zap.NewNop()).WithWorkers(1).WithQueueSize(10)
	d.Start(context.Background())

	for i := 0; i < 8; i++ {
		if _, err := d.Enqueue(Event{Type: EventTypeSync}); err != nil {
			t.Fatalf("Enqueue() error = %v", err)
		}
	}

	d.Stop()
	if got := len(proc.processed()); got != 8 {
		t.Errorf("processed %d deliveries after Stop, want 8", got)
	}

	if _, err := d.Enqueue(Event{Type: EventTypeSync}); !errors.Is(err, ErrQueueFull) {
		t.Errorf("Enqueue() after Stop error = %v, want ErrQueueFull", err)
	}
}

func TestDispatcher_EnqueueRacingStopNeverPanics(t *testing.T) {
	// Enqueue must return ErrQueueFull when it loses the race with
	// Stop, never send on the closed queue.
	for i := 0; i < 100; i++ {
		d := NewDispatcher(&mockProcessor{}, zap.NewNop()).WithWorkers(2).WithQueueSize(4)
		d.Start(context.Background())

		var wg sync.WaitGroup
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						t.Errorf("Enqueue panicked: %v", r)
					}
				}()
				for j := 0; j < 10; j++ {
					_, _ = d.Enqueue(Event{Type: EventTypeSync})
				}
			}()
		}
		d.Stop()
		wg.Wait()

		if _, err := d.Enqueue(Event{Type: EventTypeSync}); !errors.Is(err, ErrQueueFull) {
			t.Fatalf("Enqueue() after Stop error = %v, want ErrQueueFull", err)
		}
	}
}

func TestDispatcher_RecoversFromPanic(t *testing.T) {
	calls := 0
	proc := &mockProcessor{fn: func(_ context.Context, ev Event) error {
		calls++
		if calls == 1 {
			panic("malformed payload")
		}
		return nil
	}}
	d := NewDispatcher(proc, zap.NewNop()).WithWorkers(1)
	d.Start(context.Background())

	if _, err := d.Enqueue(Event{Type: EventTypeSync}); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if _, err := d.Enqueue(Event{Type: EventTypeSync}); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	d.Stop()
	if got := len(proc.processed()); got != 2 {
		t.Errorf("processed %d deliveries, want 2; worker died on panic", got)
	}
}
