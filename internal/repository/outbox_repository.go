package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/train-ticket-booking/internal/model"
)

// OutboxRepo provides data access to the payment_outbox table. Rows are
// inserted inside the payment confirm transaction (see PaymentRepo.Confirm)
// and drained by the relay, oldest first.
type OutboxRepo struct {
	db *sql.DB
}

// NewOutboxRepo returns a new OutboxRepo bound to the provided database.
func NewOutboxRepo(db *sql.DB) *OutboxRepo { return &OutboxRepo{db: db} }

// Pending returns up to limit unsent outbox rows, oldest first. Order
// matters: publishing oldest-first keeps per-queue ordering stable as long
// as only one relay runs.
func (r *OutboxRepo) Pending(ctx context.Context, limit int) ([]model.OutboxMessage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, queue_name, payload, created_at, sent_at
		 FROM payment_outbox WHERE sent_at IS NULL ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var msgs []model.OutboxMessage
	for rows.Next() {
		var m model.OutboxMessage
		if err := rows.Scan(&m.ID, &m.QueueName, &m.Payload, &m.CreatedAt, &m.SentAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return msgs, nil
}

// MarkSent stamps an outbox row as published. A row that is never marked
// stays pending and is retried on the next relay tick, which is where the
// at-least-once guarantee comes from.
func (r *OutboxRepo) MarkSent(ctx context.Context, id uint64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE payment_outbox SET sent_at = UTC_TIMESTAMP() WHERE id = ?`, id)
	return err
}
