// Package queue defines the message contracts and the RabbitMQ producer
// and consumer that connect the payment saga to the notification
// dispatcher.
package queue

import "encoding/json"

// PaymentEventsQueue is the durable queue carrying payment lifecycle
// events.
const PaymentEventsQueue = "payment_events"

// PaymentEventsDLQ receives deliveries that exhausted their retry budget.
const PaymentEventsDLQ = "payment_events.dlq"

// EventPaymentCompleted is the event_type for a confirmed, completed
// payment.
const EventPaymentCompleted = "payment.completed"

// Envelope is the outer wire format for every message on the payment
// events queue. The payload is kept raw so the consumer can dispatch on
// event_type before decoding.
type Envelope struct {
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
}

// PaymentCompletedEvent is the payload published once a payment is
// confirmed completed. Field names and types are a wire contract shared
// with downstream consumers; amount is a plain JSON number.
type PaymentCompletedEvent struct {
	PaymentID     string  `json:"payment_id"`
	TicketID      uint64  `json:"ticket_id"`
	UserID        uint64  `json:"user_id"`
	Amount        float64 `json:"amount"`
	TransactionID string  `json:"transaction_id"`
}

// NewPaymentCompletedEnvelope marshals a completion event into the wire
// envelope.
func NewPaymentCompletedEnvelope(ev PaymentCompletedEvent) ([]byte, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{EventType: EventPaymentCompleted, Payload: payload})
}
