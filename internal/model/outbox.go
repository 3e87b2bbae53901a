package model

import (
	"encoding/json"
	"time"
)

// OutboxMessage is a pending event publication recorded in the same
// database transaction as the state change that produced it. A relay
// process publishes pending rows to the message broker and marks them
// sent; a row stays pending until publication succeeds, which gives
// at-least-once delivery without coupling the state change to broker
// availability.
type OutboxMessage struct {
	ID        uint64          // payment_outbox.id
	QueueName string          // payment_outbox.queue_name
	Payload   json.RawMessage // payment_outbox.payload (full wire envelope)
	CreatedAt time.Time       // payment_outbox.created_at
	SentAt    *time.Time      // payment_outbox.sent_at (nil while pending)
}
