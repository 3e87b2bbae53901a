package queue

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/train-ticket-booking/internal/monitoring"
)

// Publisher sends messages to durable queues over an injected AMQP
// connection. The connection is owned by the caller (opened at startup,
// closed at shutdown); the publisher opens a short-lived channel per
// publish, which is the cheap unit of work in AMQP.
type Publisher struct {
	conn *amqp.Connection
}

// NewPublisher returns a Publisher bound to the provided connection.
func NewPublisher(conn *amqp.Connection) *Publisher {
	if conn == nil {
		panic("nil amqp connection passed to NewPublisher")
	}
	return &Publisher{conn: conn}
}

// Publish declares the target queue durable, marks the message persistent
// and blocks until the broker accepts the enqueue. Any transport failure is
// returned to the caller, who decides the recovery policy; the outbox relay
// simply leaves the row pending and retries on its next tick.
func (p *Publisher) Publish(ctx context.Context, queueName string, body []byte) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // autoDelete
		false,     // exclusive
		false,     // noWait
		nil,       // args
	); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx,
		"",        // default exchange
		queueName, // routing key = queue name
		false,     // mandatory
		false,     // immediate
		pub,
	); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	monitoring.RecordPublish(queueName)
	return nil
}
