package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/train-ticket-booking/internal/monitoring"
)

// retryCountHeader tracks how many times a delivery has been retried after
// handler failure. It travels with the message because broker redelivery
// counters are not portable across republishes.
const retryCountHeader = "x-retry-count"

// HandlerFunc processes the payload of one recognized event type. A nil
// return acknowledges the message; an error puts it on the bounded retry
// path.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) error

// disposition is the consumer's decision for one delivery.
type disposition int

const (
	ackDone     disposition = iota // handler succeeded, remove from queue
	ackUnknown                     // unrecognized event type, drop silently
	dropPoison                     // undecodable payload, reject without requeue
	retryLater                     // handler failed, retry within the budget
)

// republisher is the slice of the AMQP channel the retry path needs.
// Satisfied by *amqp.Channel; kept narrow so the retry and dead-letter
// policy is testable without a broker, same as decide.
type republisher interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Consumer is a long-lived loop over a durable queue with prefetch 1 and
// manual acknowledgement. Connection loss is handled by a reconnect loop
// with bounded exponential backoff; handler failures are retried a bounded
// number of times and then routed to the dead-letter queue instead of
// being requeued forever.
type Consumer struct {
	url        string
	queueName  string
	handlers   map[string]HandlerFunc
	maxRetries int
}

// NewConsumer constructs a Consumer for the named queue. handlers maps
// event_type values to their processing functions; maxRetries bounds how
// often a failing delivery is retried before dead-lettering.
func NewConsumer(url, queueName string, handlers map[string]HandlerFunc, maxRetries int) *Consumer {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Consumer{url: url, queueName: queueName, handlers: handlers, maxRetries: maxRetries}
}

// Run dials the broker and consumes until the context is cancelled. On any
// transport failure it logs, waits with exponential backoff capped at 30s
// and re-establishes connection and subscription from scratch; the backoff
// resets after a successful connect.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := amqp.Dial(c.url)
		if err != nil {
			log.Printf("%s-consumer: failed to dial broker: %v; retrying in %s", c.queueName, err, backoff)
			if !sleepCtx(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if errors.Is(err, context.Canceled) {
			return err
		}
		log.Printf("%s-consumer: consume loop ended: %v; reconnecting", c.queueName, err)
		if !sleepCtx(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// One in-flight message per consumer keeps ack/nack granularity and
	// bounds in-flight work.
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	if _, err := ch.QueueDeclare(c.queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(c.queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			c.settle(ctx, ch, d)
		}
	}
}

// settle maps the decision for one delivery onto broker operations.
func (c *Consumer) settle(ctx context.Context, ch republisher, d amqp.Delivery) {
	switch c.decide(ctx, d.Body) {
	case ackDone:
		monitoring.RecordConsume("ack")
		_ = d.Ack(false)
	case ackUnknown:
		monitoring.RecordConsume("drop")
		_ = d.Ack(false)
	case dropPoison:
		log.Printf("%s-consumer: undecodable message dropped", c.queueName)
		monitoring.RecordConsume("drop")
		_ = d.Nack(false, false)
	case retryLater:
		c.retryOrDeadLetter(ctx, ch, d)
	}
}

// decide classifies a delivery body. Kept free of broker types so the
// ack/drop/retry policy is testable in isolation.
func (c *Consumer) decide(ctx context.Context, body []byte) disposition {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return dropPoison
	}
	h, ok := c.handlers[env.EventType]
	if !ok {
		log.Printf("%s-consumer: unknown event type %q", c.queueName, env.EventType)
		return ackUnknown
	}
	if err := h(ctx, env.Payload); err != nil {
		log.Printf("%s-consumer: handle %s failed: %v", c.queueName, env.EventType, err)
		return retryLater
	}
	return ackDone
}

// retryOrDeadLetter republishes a failed delivery with an incremented
// retry counter, or routes it to the dead-letter queue once the budget is
// spent. The original delivery is acked in both cases; the copy carries
// the state forward.
func (c *Consumer) retryOrDeadLetter(ctx context.Context, ch republisher, d amqp.Delivery) {
	retries := retryCount(d.Headers)
	if retries >= c.maxRetries {
		if err := c.republish(ctx, ch, PaymentEventsDLQ, d.Body, retries); err != nil {
			log.Printf("%s-consumer: dead-letter publish failed: %v; requeueing", c.queueName, err)
			_ = d.Nack(false, true)
			return
		}
		log.Printf("%s-consumer: message dead-lettered after %d retries", c.queueName, retries)
		monitoring.RecordConsume("dead_letter")
		_ = d.Ack(false)
		return
	}
	if err := c.republish(ctx, ch, c.queueName, d.Body, retries+1); err != nil {
		log.Printf("%s-consumer: retry publish failed: %v; requeueing", c.queueName, err)
		_ = d.Nack(false, true)
		return
	}
	monitoring.RecordConsume("retry")
	_ = d.Ack(false)
}

func (c *Consumer) republish(ctx context.Context, ch republisher, queueName string, body []byte, retries int) error {
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return err
	}
	return ch.PublishWithContext(ctx, "", queueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Headers:      amqp.Table{retryCountHeader: int32(retries)},
		Body:         body,
	})
}

// retryCount reads the retry header, tolerating the integer widths AMQP
// clients produce.
func retryCount(h amqp.Table) int {
	if h == nil {
		return 0
	}
	switch v := h[retryCountHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// sleepCtx sleeps for d unless the context is cancelled first. Returns
// false on cancellation.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
