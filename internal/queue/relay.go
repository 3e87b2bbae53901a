package queue

import (
	"context"
	"log"
	"time"

	"github.com/iliyamo/train-ticket-booking/internal/model"
	"github.com/iliyamo/train-ticket-booking/internal/monitoring"
)

// OutboxStore is the persistence contract the relay drains. Implemented by
// repository.OutboxRepo.
type OutboxStore interface {
	Pending(ctx context.Context, limit int) ([]model.OutboxMessage, error)
	MarkSent(ctx context.Context, id uint64) error
}

// EventPublisher is the transport contract the relay publishes through.
// Implemented by Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, queueName string, body []byte) error
}

// Relay drains the payment outbox: on every tick it loads pending rows
// oldest-first, publishes each and marks it sent. A row whose publish
// fails stays pending and is retried on the next tick, so delivery is
// at-least-once and a broker outage only delays notifications, never
// breaks a payment confirmation.
type Relay struct {
	store    OutboxStore
	pub      EventPublisher
	interval time.Duration
	batch    int
}

// NewRelay constructs a Relay polling at the given interval with the given
// batch size per tick.
func NewRelay(store OutboxStore, pub EventPublisher, interval time.Duration, batch int) *Relay {
	if store == nil || pub == nil {
		panic("nil dependency passed to NewRelay")
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if batch <= 0 {
		batch = 50
	}
	return &Relay{store: store, pub: pub, interval: interval, batch: batch}
}

// Run polls until the context is cancelled. Errors are logged and the loop
// keeps going; the outbox rows themselves are the retry state.
func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil {
				log.Printf("outbox-relay: tick failed: %v", err)
			}
		}
	}
}

// RunOnce performs a single drain pass and returns how many rows were
// published and marked sent. Publishing stops at the first failure to keep
// per-queue ordering intact.
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	pending, err := r.store.Pending(ctx, r.batch)
	if err != nil {
		return 0, err
	}
	monitoring.SetOutboxPending(len(pending))
	sent := 0
	for _, m := range pending {
		if err := r.pub.Publish(ctx, m.QueueName, m.Payload); err != nil {
			log.Printf("outbox-relay: publish outbox row %d to %s failed: %v", m.ID, m.QueueName, err)
			return sent, nil
		}
		if err := r.store.MarkSent(ctx, m.ID); err != nil {
			// Published but not marked: the row will be re-published on the
			// next tick. Acceptable under at-least-once delivery.
			return sent, err
		}
		sent++
	}
	return sent, nil
}
