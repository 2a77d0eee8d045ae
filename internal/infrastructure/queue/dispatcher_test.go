package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/eatwhat/eatwhat-api/internal/core/domain"
)

// --- test doubles ---

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.SessionEvent
	err    error
	block  chan struct{}
}

func (p *recordingPublisher) Publish(_ context.Context, ev domain.SessionEvent) error {
	if p.block != nil {
		<-p.block
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) snapshot() []domain.SessionEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.SessionEvent(nil), p.events...)
}

// --- tests ---

func TestDispatcher_DeliversInOrderPerSession(t *testing.T) {
	pub := &recordingPublisher{}
	d := NewDispatcher(3, pub, zerolog.Nop())
	d.Start(context.Background())

	types := []domain.EventType{
		domain.EventSessionCreated,
		domain.EventRestaurantSubmitted,
		domain.EventRestaurantDeleted,
		domain.EventRestaurantPicked,
	}
	for _, code := range []string{"AAA111", "BBB222"} {
		for _, typ := range types {
			if err := d.Publish(context.Background(), domain.SessionEvent{Type: typ, SessionCode: code}); err != nil {
				t.Fatalf("publish: %v", err)
			}
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := d.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}

	got := map[string][]domain.EventType{}
	for _, ev := range pub.snapshot() {
		got[ev.SessionCode] = append(got[ev.SessionCode], ev.Type)
	}
	for _, code := range []string{"AAA111", "BBB222"} {
		if len(got[code]) != len(types) {
			t.Fatalf("%s: expected %d events, got %v", code, len(types), got[code])
		}
		for i, typ := range types {
			if got[code][i] != typ {
				t.Fatalf("%s: event %d = %s, want %s", code, i, got[code][i], typ)
			}
		}
	}
}

func TestDispatcher_PublishAfterStop(t *testing.T) {
	d := NewDispatcher(1, &recordingPublisher{}, zerolog.Nop())
	d.Start(context.Background())
	if err := d.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}

	err := d.Publish(context.Background(), domain.SessionEvent{Type: domain.EventSessionCreated, SessionCode: "ABC123"})
	if !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
	// Stop is idempotent.
	if err := d.Stop(context.Background()); err != nil {
		t.Fatalf("second stop: %v", err)
	}
}

func TestDispatcher_QueueFull(t *testing.T) {
	pub := &recordingPublisher{block: make(chan struct{})}
	d := NewDispatcher(1, pub, zerolog.Nop())
	d.Start(context.Background())

	ev := domain.SessionEvent{Type: domain.EventRestaurantSubmitted, SessionCode: "ABC123"}
	var full bool
	// The worker holds one event while blocked, the channel buffers the rest.
	for i := 0; i < channelBuffer+2; i++ {
		if err := d.Publish(context.Background(), ev); errors.Is(err, ErrQueueFull) {
			full = true
			break
		}
	}
	if !full {
		t.Fatal("expected ErrQueueFull once the buffer is saturated")
	}

	close(pub.block)
	if err := d.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestDispatcher_PublisherErrorDoesNotStopWorker(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	d := NewDispatcher(1, pub, zerolog.Nop())
	d.Start(context.Background())

	for i := 0; i < 3; i++ {
		_ = d.Publish(context.Background(), domain.SessionEvent{Type: domain.EventSessionLocked, SessionCode: "ABC123"})
	}
	if err := d.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if n := len(pub.snapshot()); n != 3 {
		t.Fatalf("expected 3 attempts, got %d", n)
	}
}

func TestDispatcher_ShardIndexStable(t *testing.T) {
	d := NewDispatcher(5, &recordingPublisher{}, zerolog.Nop())
	for _, code := range []string{"ABC123", "ZZZZZZ", ""} {
		a, b := d.shardIndex(code), d.shardIndex(code)
		if a != b || a < 0 || a >= 5 {
			t.Fatalf("shardIndex(%q) unstable or out of range: %d %d", code, a, b)
		}
	}
}
