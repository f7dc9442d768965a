// Package sink delivers local event mutations to durable storage without
// holding up the caller.
package sink

import (
	"context"
	"errors"
	"sync"
	"time"

	appLog "plancal/internal/log"
	"plancal/internal/model"
)

// Sink persists mutations.
type Sink interface {
	SaveEvent(ctx context.Context, ev model.Event) error
	DeleteEvent(ctx context.Context, id string) error
}

var (
	ErrQueueFull = errors.New("sink: queue full")
	ErrClosed    = errors.New("sink: dispatcher closed")
)

const (
	DefaultQueueSize = 256
	deliverTimeout   = 10 * time.Second
)

type op struct {
	save *model.Event
	del  string
}

// Dispatcher fans mutations out to sinks on a single background goroutine,
// preserving submission order. Submissions never block: when the queue is
// full the mutation is dropped with a warning.
type Dispatcher struct {
	sinks []Sink
	queue chan op
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewDispatcher starts the delivery goroutine. queueSize below one uses
// DefaultQueueSize.
func NewDispatcher(queueSize int, sinks ...Sink) *Dispatcher {
	if queueSize < 1 {
		queueSize = DefaultQueueSize
	}
	d := &Dispatcher{
		sinks: sinks,
		queue: make(chan op, queueSize),
		done:  make(chan struct{}),
	}
	go d.run()
	return d
}

// SaveEvent queues ev for every sink. ctx is not used for delivery.
func (d *Dispatcher) SaveEvent(_ context.Context, ev model.Event) error {
	ev = ev.Clone()
	return d.submit(op{save: &ev}, "id", ev.ID)
}

// DeleteEvent queues a delete of id for every sink.
func (d *Dispatcher) DeleteEvent(_ context.Context, id string) error {
	return d.submit(op{del: id}, "id", id)
}

func (d *Dispatcher) submit(o op, kv ...any) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}
	select {
	case d.queue <- o:
		return nil
	default:
		appLog.Warn("sink queue full, mutation dropped", kv...)
		return ErrQueueFull
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for o := range d.queue {
		for _, s := range d.sinks {
			d.deliver(s, o)
		}
	}
}

func (d *Dispatcher) deliver(s Sink, o op) {
	ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
	defer cancel()

	if o.save != nil {
		if err := s.SaveEvent(ctx, *o.save); err != nil {
			appLog.Error("sink save failed", err, "id", o.save.ID)
		}
		return
	}
	if err := s.DeleteEvent(ctx, o.del); err != nil {
		appLog.Error("sink delete failed", err, "id", o.del)
	}
}

// Close stops accepting mutations and waits until the queue is drained or
// ctx is done.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
