package config

// This file defines the AMQP connection constructor. The connection is
// opened once at startup and shared by the publisher side (outbox relay);
// the consumer dials its own connection so its reconnect loop can rebuild
// it from scratch.

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

// NewAMQPConnection dials the broker at the given URL. The caller owns the
// returned connection and must close it on shutdown.
func NewAMQPConnection(url string) (*amqp.Connection, error) {
	return amqp.Dial(url)
}
