package hook

import (
	"context"
	"log"
	"sync/atomic"
)

// DefaultQueueSize is the number of events a Dispatcher buffers.
const DefaultQueueSize = 32

// Dispatcher runs hooks off the caller's goroutine. Events are queued and
// handled in order by Run; when the queue is full new events are dropped
// so a slow hook never delays keystroke handling.
type Dispatcher struct {
	manager  *Manager
	executor *Executor
	queue    chan Event
	dropped  atomic.Uint64
}

// NewDispatcher creates a Dispatcher with a queue of size events.
func NewDispatcher(manager *Manager, executor *Executor, size int) *Dispatcher {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Dispatcher{
		manager:  manager,
		executor: executor,
		queue:    make(chan Event, size),
	}
}

// Fire queues ev. It returns false if the queue was full.
func (d *Dispatcher) Fire(ev Event) bool {
	select {
	case d.queue <- ev:
		return true
	default:
		d.dropped.Add(1)
		return false
	}
}

// Dropped returns how many events were discarded.
func (d *Dispatcher) Dropped() uint64 {
	return d.dropped.Load()
}

// Run delivers queued events until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-d.queue:
			d.deliver(ctx, ev)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, ev Event) {
	for _, h := range d.manager.For(ev.Type) {
		resp, err := d.executor.Execute(ctx, h, ev)
		if err != nil {
			log.Printf("Hook %s: %v", h.Manifest.Name, err)
			continue
		}
		if !resp.Success {
			log.Printf("Hook %s reported failure: %s", h.Manifest.Name, resp.Error)
		}
	}
}
