package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"rwa-registry-go/internal/models"

	"github.com/alitto/pond/v2"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const (
	defaultBufferSize      = 1024
	defaultWorkers         = 4
	defaultMaxRetryElapsed = 2 * time.Minute
)

// Dispatcher fans committed registry events out to sinks. Publish never
// blocks the caller; events are delivered in publish order, each one to all
// sinks concurrently.
type Dispatcher struct {
	sinks           []Sink
	queue           chan models.Event
	workers         int
	maxRetryElapsed time.Duration
	initialInterval time.Duration
	observer        Observer

	// outstanding counts accepted events whose delivery hasn't finished,
	// queued or in flight.
	outstanding atomic.Int64

	pool     pond.Pool
	stopOnce sync.Once
	stopChan chan struct{}
	doneChan chan struct{}
	started  bool
	mu       sync.Mutex
}

type DispatcherOption func(*Dispatcher)

// WithObserver reports delivery outcomes, typically to metrics
func WithObserver(o Observer) DispatcherOption {
	return func(d *Dispatcher) {
		if o != nil {
			d.observer = o
		}
	}
}

// WithRetryInterval sets the first backoff interval between delivery attempts
func WithRetryInterval(interval time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		d.initialInterval = interval
	}
}

func NewDispatcher(cfg models.EventsConfig, sinks []Sink, opts ...DispatcherOption) *Dispatcher {
	bufferSize := cfg.BufferSize
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	maxRetryElapsed := cfg.MaxRetryElapsed
	if maxRetryElapsed <= 0 {
		maxRetryElapsed = defaultMaxRetryElapsed
	}

	d := &Dispatcher{
		sinks:           sinks,
		queue:           make(chan models.Event, bufferSize),
		workers:         workers,
		maxRetryElapsed: maxRetryElapsed,
		initialInterval: backoff.DefaultInitialInterval,
		observer:        noopObserver{},
		stopChan:        make(chan struct{}),
		doneChan:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Publish enqueues an event for delivery. When the buffer is full the event
// is dropped; the audit journal still holds it.
func (d *Dispatcher) Publish(event models.Event) {
	d.outstanding.Add(1)
	select {
	case d.queue <- event:
	default:
		d.outstanding.Add(-1)
		zap.L().Warn("Event buffer full, dropping event",
			zap.String("event_id", event.Id),
			zap.String("event_type", string(event.Type)))
		d.observer.ObserveDrop(event.Type)
	}
}

// Start begins delivering queued events until Stop is called or ctx is done
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return
	}
	d.started = true
	d.pool = pond.NewPool(d.workers, pond.WithContext(ctx))
	d.mu.Unlock()

	zap.L().Info("Starting event dispatcher",
		zap.Int("sinks", len(d.sinks)),
		zap.Int("workers", d.workers),
		zap.Int("buffer_size", cap(d.queue)))

	go d.run(ctx)
}

// Stop delivers what is already queued, then waits for the worker pool to drain
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.stopChan)

		d.mu.Lock()
		started := d.started
		d.mu.Unlock()
		if !started {
			return
		}

		<-d.doneChan
		d.pool.StopAndWait()
		zap.L().Info("Event dispatcher stopped")
	})
}

// Pending returns the number of undelivered events, including the one
// currently being delivered or retried.
func (d *Dispatcher) Pending() int {
	return int(d.outstanding.Load())
}

func (d *Dispatcher) run(ctx context.Context) {
	defer close(d.doneChan)

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("Event dispatcher stopping due to context cancellation",
				zap.Int("pending", len(d.queue)))
			return
		case <-d.stopChan:
			d.drain(ctx)
			return
		case event := <-d.queue:
			d.dispatch(ctx, event)
		}
	}
}

func (d *Dispatcher) drain(ctx context.Context) {
	for {
		select {
		case event := <-d.queue:
			d.dispatch(ctx, event)
		default:
			return
		}
	}
}

// dispatch delivers one event to every sink and waits, so that a sink never
// sees event n+1 before event n.
func (d *Dispatcher) dispatch(ctx context.Context, event models.Event) {
	defer d.outstanding.Add(-1)

	if len(d.sinks) == 0 {
		return
	}

	group := d.pool.NewGroup()
	for _, sink := range d.sinks {
		group.Submit(func() {
			d.deliver(ctx, sink, event)
		})
	}
	if err := group.Wait(); err != nil {
		zap.L().Error("Event delivery group failed",
			zap.String("event_id", event.Id),
			zap.Error(err))
	}
}

func (d *Dispatcher) deliver(ctx context.Context, sink Sink, event models.Event) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = d.initialInterval
	b.MaxElapsedTime = d.maxRetryElapsed

	var attemptCount int
	var permanent bool
	operation := func() error {
		err := sink.Handle(ctx, event)
		var permanentErr *backoff.PermanentError
		permanent = errors.As(err, &permanentErr)
		return err
	}
	notifyOnError := func(err error, next time.Duration) {
		attemptCount++
		zap.L().Warn("Event delivery failed, retrying",
			zap.String("sink", sink.Name()),
			zap.String("event_id", event.Id),
			zap.Int("attempt", attemptCount),
			zap.Duration("next_retry_in", next),
			zap.Error(err))
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notifyOnError)
	if err != nil {
		err = fmt.Errorf("failed after %d attempts: %w", attemptCount+1, err)
		zap.L().Error("Event delivery abandoned",
			zap.String("sink", sink.Name()),
			zap.String("event_id", event.Id),
			zap.String("event_type", string(event.Type)),
			zap.Bool("permanent", permanent),
			zap.Error(err))
	}
	d.observer.ObserveDelivery(sink.Name(), event.Type, err)
}
