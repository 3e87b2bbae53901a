package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/train-ticket-booking/internal/model"
)

// PaymentRepo provides data access to the payments table and the
// payment_outbox table. The two are written together: a completed payment
// and its completion event commit in one transaction, so the event can
// never be lost between the status flip and the broker.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo returns a new PaymentRepo bound to the provided database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// Create inserts a new payment row in its initial pending state.
func (r *PaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO payments (id, ticket_id, train_id, user_id, amount, currency, status, payment_method, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.TicketID, p.TrainID, p.UserID, p.Amount.String(), p.Currency,
		p.Status, p.PaymentMethod, p.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
	)
	return err
}

// GetByID loads a payment. Returns ErrPaymentNotFound when no row matches.
func (r *PaymentRepo) GetByID(ctx context.Context, id string) (*model.Payment, error) {
	var p model.Payment
	var amount string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, ticket_id, train_id, user_id, amount, currency, status, payment_method, transaction_id, created_at, updated_at
		 FROM payments WHERE id = ?`, id,
	).Scan(&p.ID, &p.TicketID, &p.TrainID, &p.UserID, &amount, &p.Currency,
		&p.Status, &p.PaymentMethod, &p.TransactionID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	if p.Amount, err = parseDecimal(amount); err != nil {
		return nil, err
	}
	return &p, nil
}

// Confirm persists a status transition. When outbox is non-nil the outbox
// row is inserted in the same transaction as the payment update, so either
// both commit or neither does.
func (r *PaymentRepo) Confirm(ctx context.Context, p *model.Payment, outbox *model.OutboxMessage) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var updatedAt interface{}
	if p.UpdatedAt != nil {
		updatedAt = p.UpdatedAt.UTC().Format("2006-01-02 15:04:05")
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE payments SET status = ?, transaction_id = ?, updated_at = ? WHERE id = ?`,
		p.Status, p.TransactionID, updatedAt, p.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPaymentNotFound
	}

	if outbox != nil {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO payment_outbox (queue_name, payload) VALUES (?, ?)`,
			outbox.QueueName, []byte(outbox.Payload)); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
