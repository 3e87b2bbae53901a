package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment status values. A payment is created pending and moves to
// completed or failed when the client (or a provider callback) confirms
// the outcome.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

// Payment records purchase intent for a ticket and its outcome. The record
// is bound to the user that initiated it: UserID never changes after
// creation and every status transition must come from that same user.
//
// Fields:
//  ID            – opaque UUID assigned at initiation.
//  TicketID      – ticket being paid for.
//  TrainID       – train the ticket belongs to.
//  UserID        – user who initiated the payment; immutable.
//  Amount        – payment amount; decimal to avoid float rounding.
//  Currency      – ISO currency code (e.g. "INR").
//  Status        – "pending", "completed" or "failed".
//  PaymentMethod – how the user pays (e.g. "card", "upi").
//  TransactionID – provider transaction reference (nil until confirmed).
//  CreatedAt     – when the payment was initiated.
//  UpdatedAt     – last status transition (nil until confirmed).
type Payment struct {
	ID            string          `json:"id"`             // payments.id (UUID)
	TicketID      uint64          `json:"ticket_id"`      // payments.ticket_id
	TrainID       uint64          `json:"train_id"`       // payments.train_id
	UserID        uint64          `json:"user_id"`        // payments.user_id
	Amount        decimal.Decimal `json:"amount"`         // payments.amount
	Currency      string          `json:"currency"`       // payments.currency
	Status        string          `json:"status"`         // payments.status
	PaymentMethod string          `json:"payment_method"` // payments.payment_method
	TransactionID *string         `json:"transaction_id"` // payments.transaction_id (nullable)
	CreatedAt     time.Time       `json:"created_at"`     // payments.created_at
	UpdatedAt     *time.Time      `json:"updated_at"`     // payments.updated_at (nullable)
}
