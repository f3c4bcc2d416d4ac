package webhooks

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"relayr/internal/platform/models"
)

// Dispatcher owns the pending event queue and the background drain loop.
// Enqueue never blocks; a ticker drains the whole queue in arrival order,
// one event fully processed at a time. Events are not persisted: whatever
// is queued at process exit is lost.
type Dispatcher struct {
	resolver  *SubscriberResolver
	deliverer *Deliverer
	tracker   *FailureTracker
	interval  time.Duration
	logger    zerolog.Logger

	mu      sync.Mutex
	pending []*models.WebhookEvent

	draining atomic.Bool
	stop     chan struct{}
	done     chan struct{}
}

func NewDispatcher(resolver *SubscriberResolver, deliverer *Deliverer, tracker *FailureTracker, interval time.Duration) *Dispatcher {
	if interval <= 0 {
		interval = time.Second
	}
	return &Dispatcher{
		resolver:  resolver,
		deliverer: deliverer,
		tracker:   tracker,
		interval:  interval,
		logger:    log.With().Str("component", "dispatcher").Logger(),
	}
}

// Enqueue appends the event to the pending queue. Never blocks, never
// fails.
func (d *Dispatcher) Enqueue(event *models.WebhookEvent) {
	d.mu.Lock()
	d.pending = append(d.pending, event)
	d.mu.Unlock()
}

// Start launches the drain loop. Calling Start on a running dispatcher is
// a no-op.
func (d *Dispatcher) Start() {
	if d.stop != nil {
		return
	}
	d.stop = make(chan struct{})
	d.done = make(chan struct{})

	go func() {
		defer close(d.done)
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				d.drain()
			case <-d.stop:
				return
			}
		}
	}()
}

// Stop halts the drain loop and waits for an in-flight drain to finish.
// Pending events are discarded.
func (d *Dispatcher) Stop() {
	if d.stop == nil {
		return
	}
	close(d.stop)
	<-d.done
	d.stop = nil
}

// drain processes every event queued at the moment it runs, in arrival
// order. Overlapping ticks are skipped: at most one drain executes at a
// time.
func (d *Dispatcher) drain() {
	if !d.draining.CompareAndSwap(false, true) {
		return
	}
	defer d.draining.Store(false)

	d.mu.Lock()
	events := d.pending
	d.pending = nil
	d.mu.Unlock()

	for _, event := range events {
		if err := d.process(event); err != nil {
			// One bad event must not block the rest of the queue.
			d.logger.Error().Err(err).
				Str("event_id", event.ID).
				Str("event_type", event.Type).
				Msg("event processing failed")
		}
	}
}

func (d *Dispatcher) process(event *models.WebhookEvent) (err error) {
	// A panicking collaborator must not kill the drain goroutine.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic processing event: %v", r)
		}
	}()

	webhooks, err := d.resolver.Resolve(event)
	if err != nil {
		return err
	}

	for _, webhook := range webhooks {
		outcome := d.deliverer.Deliver(context.Background(), webhook, event)
		if outcome.Failed() {
			d.logger.Warn().
				Str("webhook_id", webhook.ID).
				Str("event_id", event.ID).
				Str("reason", outcome.Error()).
				Msg("delivery failed")
		}
		if err := d.tracker.Record(webhook, outcome); err != nil {
			d.logger.Error().Err(err).
				Str("webhook_id", webhook.ID).
				Msg("failure bookkeeping failed")
		}
	}
	return nil
}
