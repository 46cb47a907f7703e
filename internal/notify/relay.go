package notify

import (
	"sync"

	"go.uber.org/zap"
)

type envelope struct {
	owner string
	event Event
}

// Relay buffers events on a bounded channel between the workers and the
// notifier. Progress events are dropped when the buffer is full; terminal
// events block so every job yields exactly one final message. The relay
// outlives worker cancellation: it keeps consuming until Close, so
// terminal events from in-flight jobs still reach the notifier during
// shutdown.
type Relay struct {
	ch       chan envelope
	notifier Notifier
	logger   *zap.Logger

	startOnce sync.Once
	closeOnce sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// NewRelay creates a Relay with the given buffer size
func NewRelay(notifier Notifier, size int, logger *zap.Logger) *Relay {
	if size <= 0 {
		size = 64
	}
	return &Relay{
		ch:       make(chan envelope, size),
		notifier: notifier,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the consumer goroutine. It runs until Close is called.
func (r *Relay) Start() {
	r.startOnce.Do(func() {
		go r.run()
	})
}

// Close stops the consumer once the buffer is drained. Call it only
// after every producer has finished posting.
func (r *Relay) Close() {
	r.closeOnce.Do(func() {
		close(r.stop)
	})
}

// Send enqueues an event without blocking; false means the buffer was
// full and the event was dropped
func (r *Relay) Send(owner string, event Event) bool {
	select {
	case r.ch <- envelope{owner: owner, event: event}:
		return true
	default:
		r.logger.Warn("notify buffer full, dropping event",
			zap.String("owner", owner),
			zap.String("event", string(event.Type)),
			zap.String("job_id", event.JobID),
		)
		return false
	}
}

// Post enqueues an event, waiting for buffer space. It gives up only
// when the relay has already fully shut down.
func (r *Relay) Post(owner string, event Event) {
	select {
	case r.ch <- envelope{owner: owner, event: event}:
	case <-r.done:
		r.logger.Warn("relay closed, dropping event",
			zap.String("owner", owner),
			zap.String("event", string(event.Type)),
			zap.String("job_id", event.JobID),
		)
	}
}

// Done is closed once the consumer has drained and exited
func (r *Relay) Done() <-chan struct{} {
	return r.done
}

func (r *Relay) run() {
	defer close(r.done)
	for {
		select {
		case e := <-r.ch:
			r.notifier.Notify(e.owner, e.event)
		case <-r.stop:
			for {
				select {
				case e := <-r.ch:
					r.notifier.Notify(e.owner, e.event)
				default:
					return
				}
			}
		}
	}
}
