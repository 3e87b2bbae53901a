package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/train-ticket-booking/internal/identity"
	"github.com/iliyamo/train-ticket-booking/internal/model"
	"github.com/iliyamo/train-ticket-booking/internal/monitoring"
	"github.com/iliyamo/train-ticket-booking/internal/queue"
	"github.com/iliyamo/train-ticket-booking/internal/repository"
)

// ErrNoAvailability is returned by Initiate when a train has no available
// tickets to pay for.
var ErrNoAvailability = errors.New("no available tickets for this train")

// ErrTicketUnavailable is returned by Initiate when the requested ticket
// exists but is not available.
var ErrTicketUnavailable = errors.New("ticket is not available")

// ErrForbidden is returned by Confirm when the caller is not the user that
// initiated the payment. The record is never mutated on this path.
var ErrForbidden = errors.New("payment belongs to another user")

// ErrInvalidStatus is returned by Confirm for a status outside
// completed/failed.
var ErrInvalidStatus = errors.New("invalid payment status")

// TicketCatalog is the train/ticket listing contract consumed by the
// payment saga. The saga filters the listing client-side, matching the
// catalog collaborator contract. Implemented by repository.TicketRepo.
type TicketCatalog interface {
	ListByTrain(ctx context.Context, trainID uint64) ([]model.Ticket, error)
}

// PaymentStore is the persistence contract for payments. Confirm must
// commit the payment update and the outbox row in one transaction.
// Implemented by repository.PaymentRepo.
type PaymentStore interface {
	Create(ctx context.Context, p *model.Payment) error
	GetByID(ctx context.Context, id string) (*model.Payment, error)
	Confirm(ctx context.Context, p *model.Payment, outbox *model.OutboxMessage) error
}

// InitiatePaymentRequest carries the caller's payment intent. TicketID nil
// means "pick any available ticket on the train".
type InitiatePaymentRequest struct {
	TrainID       uint64
	TicketID      *uint64
	Amount        decimal.Decimal
	Currency      string
	PaymentMethod string
}

// PaymentService coordinates the two-step payment saga: Initiate records
// purchase intent, Confirm records the outcome and stages the completion
// event. Initiating a payment deliberately takes no seat lock; reserving
// the seat and reserving payment intent are independent flows.
type PaymentService struct {
	payments PaymentStore
	catalog  TicketCatalog
	verifier identity.Verifier
}

// NewPaymentService constructs a PaymentService. All dependencies must be
// non-nil.
func NewPaymentService(payments PaymentStore, catalog TicketCatalog, verifier identity.Verifier) *PaymentService {
	if payments == nil || catalog == nil || verifier == nil {
		panic("nil dependency passed to NewPaymentService")
	}
	return &PaymentService{payments: payments, catalog: catalog, verifier: verifier}
}

// Initiate resolves the caller's identity, picks or validates the target
// ticket and records a pending payment bound to the resolved user.
//
// With no ticket id the first available ticket in listing order is chosen,
// so selection is deterministic for a given catalog state. With a ticket id
// the ticket must appear in the train's listing (repository.ErrTicketNotFound
// otherwise) with status available (ErrTicketUnavailable otherwise).
func (s *PaymentService) Initiate(ctx context.Context, req InitiatePaymentRequest, bearer string) (*model.Payment, error) {
	user, err := s.verifier.Verify(ctx, bearer)
	if err != nil {
		monitoring.RecordPayment("initiate", "identity_error")
		return nil, fmt.Errorf("%w: %v", ErrIdentity, err)
	}

	tickets, err := s.catalog.ListByTrain(ctx, req.TrainID)
	if err != nil {
		monitoring.RecordPayment("initiate", "catalog_error")
		return nil, fmt.Errorf("list tickets: %w", err)
	}

	var ticketID uint64
	if req.TicketID == nil {
		found := false
		for _, t := range tickets {
			if t.Status == model.TicketStatusAvailable {
				ticketID = t.ID
				found = true
				break
			}
		}
		if !found {
			monitoring.RecordPayment("initiate", "no_availability")
			return nil, ErrNoAvailability
		}
	} else {
		found := false
		for _, t := range tickets {
			if t.ID != *req.TicketID {
				continue
			}
			found = true
			if t.Status != model.TicketStatusAvailable {
				monitoring.RecordPayment("initiate", "unavailable")
				return nil, ErrTicketUnavailable
			}
			break
		}
		if !found {
			monitoring.RecordPayment("initiate", "not_found")
			return nil, fmt.Errorf("ticket %d: %w", *req.TicketID, repository.ErrTicketNotFound)
		}
		ticketID = *req.TicketID
	}

	p := &model.Payment{
		ID:            uuid.NewString(),
		TicketID:      ticketID,
		TrainID:       req.TrainID,
		UserID:        user.ID,
		Amount:        req.Amount,
		Currency:      req.Currency,
		Status:        model.PaymentStatusPending,
		PaymentMethod: req.PaymentMethod,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.payments.Create(ctx, p); err != nil {
		monitoring.RecordPayment("initiate", "error")
		return nil, fmt.Errorf("create payment: %w", err)
	}
	monitoring.RecordPayment("initiate", "pending")
	return p, nil
}

// Confirm records the outcome of a pending payment. Only the user that
// initiated the payment may confirm it; a mismatch fails ErrForbidden
// without touching the record.
//
// When the new status is completed, the payment.completed event is written
// to the outbox inside the same transaction as the status update. The
// relay publishes it afterwards, so the confirmation result never depends
// on broker health.
func (s *PaymentService) Confirm(ctx context.Context, paymentID, transactionID, status, bearer string) (*model.Payment, error) {
	if status != model.PaymentStatusCompleted && status != model.PaymentStatusFailed {
		return nil, ErrInvalidStatus
	}
	user, err := s.verifier.Verify(ctx, bearer)
	if err != nil {
		monitoring.RecordPayment("confirm", "identity_error")
		return nil, fmt.Errorf("%w: %v", ErrIdentity, err)
	}
	p, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		monitoring.RecordPayment("confirm", "not_found")
		return nil, err
	}
	if p.UserID != user.ID {
		monitoring.RecordPayment("confirm", "forbidden")
		return nil, ErrForbidden
	}

	now := time.Now().UTC()
	p.Status = status
	p.TransactionID = &transactionID
	p.UpdatedAt = &now

	var outbox *model.OutboxMessage
	if status == model.PaymentStatusCompleted {
		body, err := queue.NewPaymentCompletedEnvelope(queue.PaymentCompletedEvent{
			PaymentID:     p.ID,
			TicketID:      p.TicketID,
			UserID:        p.UserID,
			Amount:        p.Amount.InexactFloat64(),
			TransactionID: transactionID,
		})
		if err != nil {
			monitoring.RecordPayment("confirm", "error")
			return nil, fmt.Errorf("encode completion event: %w", err)
		}
		outbox = &model.OutboxMessage{QueueName: queue.PaymentEventsQueue, Payload: body}
	}

	if err := s.payments.Confirm(ctx, p, outbox); err != nil {
		monitoring.RecordPayment("confirm", "error")
		return nil, fmt.Errorf("persist payment: %w", err)
	}
	monitoring.RecordPayment("confirm", status)
	return p, nil
}
