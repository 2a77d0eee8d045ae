package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/eatwhat/eatwhat-api/internal/core/domain"
	"github.com/eatwhat/eatwhat-api/internal/core/ports"
	"github.com/eatwhat/eatwhat-api/internal/pkg/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	publishTimeout = 5 * time.Second
)

var (
	// ErrQueueFull is returned when the worker owning a session is saturated.
	ErrQueueFull = errors.New("event queue full")
	// ErrStopped is returned for events published after Stop.
	ErrStopped = errors.New("event dispatcher stopped")
)

// Dispatcher moves event publishing off the request path. Events are sharded
// to workers by session code, so each session's events reach the broker in the
// order they were emitted.
type Dispatcher struct {
	workers []chan domain.SessionEvent
	next    ports.EventPublisher
	log     zerolog.Logger

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

var _ ports.EventPublisher = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher with numWorkers sharded workers in front
// of next. If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, next ports.EventPublisher, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.SessionEvent, numWorkers),
		next:    next,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.SessionEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers exit once Stop has closed
// their channel and they have drained it.
func (d *Dispatcher) Start(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Publish enqueues event without blocking. The context is not used for the
// broker call; it belongs to the request that emitted the event.
func (d *Dispatcher) Publish(_ context.Context, event domain.SessionEvent) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		metrics.EventsDroppedTotal.WithLabelValues(string(event.Type)).Inc()
		return ErrStopped
	}

	idx := d.shardIndex(event.SessionCode)
	select {
	case d.workers[idx] <- event:
		metrics.EventsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
		return nil
	default:
		metrics.EventsDroppedTotal.WithLabelValues(string(event.Type)).Inc()
		return ErrQueueFull
	}
}

// Stop closes the worker channels and waits until queued events are published
// or ctx expires.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.stopped {
		d.stopped = true
		for _, ch := range d.workers {
			close(ch)
		}
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// shardIndex maps a session code deterministically to a worker index.
func (d *Dispatcher) shardIndex(sessionCode string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionCode))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.SessionEvent) {
	defer d.wg.Done()
	depth := metrics.EventsQueueDepth.WithLabelValues(strconv.Itoa(id))

	for event := range ch {
		depth.Dec()

		start := time.Now()
		pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
		err := d.next.Publish(pubCtx, event)
		cancel()
		metrics.EventPublishDuration.WithLabelValues(string(event.Type)).Observe(time.Since(start).Seconds())

		if err != nil {
			metrics.EventsPublishedTotal.WithLabelValues(string(event.Type), "error").Inc()
			d.log.Error().Err(err).
				Str("event", string(event.Type)).
				Str("session_code", event.SessionCode).
				Int("worker_id", id).
				Msg("event publishing failed")
			continue
		}
		metrics.EventsPublishedTotal.WithLabelValues(string(event.Type), "ok").Inc()
	}
}
