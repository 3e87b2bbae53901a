package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/train-ticket-booking/internal/identity"
	"github.com/iliyamo/train-ticket-booking/internal/model"
	"github.com/iliyamo/train-ticket-booking/internal/queue"
	"github.com/iliyamo/train-ticket-booking/internal/repository"
)

type fakeCatalog struct {
	tickets []model.Ticket
	err     error
}

func (f fakeCatalog) ListByTrain(context.Context, uint64) ([]model.Ticket, error) {
	return f.tickets, f.err
}

type fakePaymentStore struct {
	created   *model.Payment
	existing  *model.Payment
	confirmed *model.Payment
	outbox    *model.OutboxMessage
}

func (f *fakePaymentStore) Create(_ context.Context, p *model.Payment) error {
	f.created = p
	return nil
}

func (f *fakePaymentStore) GetByID(_ context.Context, id string) (*model.Payment, error) {
	if f.existing == nil || f.existing.ID != id {
		return nil, repository.ErrPaymentNotFound
	}
	cp := *f.existing
	return &cp, nil
}

func (f *fakePaymentStore) Confirm(_ context.Context, p *model.Payment, outbox *model.OutboxMessage) error {
	f.confirmed = p
	f.outbox = outbox
	return nil
}

func ticketID(id uint64) *uint64 { return &id }

func paymentFixture(tickets []model.Ticket, userID uint64) (*fakePaymentStore, *PaymentService) {
	store := &fakePaymentStore{}
	svc := NewPaymentService(store, fakeCatalog{tickets: tickets}, fakeVerifier{user: identity.User{ID: userID}})
	return store, svc
}

func TestInitiateNoAvailableTickets(t *testing.T) {
	_, svc := paymentFixture([]model.Ticket{
		{ID: 1, Status: model.TicketStatusBooked},
	}, 42)

	_, err := svc.Initiate(context.Background(), InitiatePaymentRequest{TrainID: 7, Amount: decimal.NewFromInt(100)}, "bearer")
	assert.ErrorIs(t, err, ErrNoAvailability)
}

func TestInitiatePicksFirstAvailableDeterministically(t *testing.T) {
	store, svc := paymentFixture([]model.Ticket{
		{ID: 1, Status: model.TicketStatusBooked},
		{ID: 2, Status: model.TicketStatusAvailable},
		{ID: 3, Status: model.TicketStatusAvailable},
	}, 42)

	p, err := svc.Initiate(context.Background(), InitiatePaymentRequest{
		TrainID: 7, Amount: decimal.NewFromInt(250), Currency: "INR", PaymentMethod: "card",
	}, "bearer")
	require.NoError(t, err)
	assert.EqualValues(t, 2, p.TicketID, "the first available ticket in listing order must win")
	assert.Equal(t, model.PaymentStatusPending, p.Status)
	assert.EqualValues(t, 42, p.UserID)
	assert.NotEmpty(t, p.ID)
	require.NotNil(t, store.created)
	assert.Equal(t, p.ID, store.created.ID)
}

func TestInitiateRejectsTicketMissingFromListing(t *testing.T) {
	_, svc := paymentFixture([]model.Ticket{{ID: 2, Status: model.TicketStatusAvailable}}, 42)

	_, err := svc.Initiate(context.Background(), InitiatePaymentRequest{
		TrainID: 7, TicketID: ticketID(99), Amount: decimal.NewFromInt(100), PaymentMethod: "card",
	}, "bearer")
	assert.ErrorIs(t, err, repository.ErrTicketNotFound)
}

func TestInitiateRejectsUnavailableTicket(t *testing.T) {
	_, svc := paymentFixture([]model.Ticket{{ID: 2, Status: model.TicketStatusBooked}}, 42)

	_, err := svc.Initiate(context.Background(), InitiatePaymentRequest{
		TrainID: 7, TicketID: ticketID(2), Amount: decimal.NewFromInt(100), PaymentMethod: "card",
	}, "bearer")
	assert.ErrorIs(t, err, ErrTicketUnavailable)
}

func TestInitiateIdentityFailure(t *testing.T) {
	store := &fakePaymentStore{}
	svc := NewPaymentService(store, fakeCatalog{}, fakeVerifier{err: errors.New("auth down")})

	_, err := svc.Initiate(context.Background(), InitiatePaymentRequest{TrainID: 7, Amount: decimal.NewFromInt(1)}, "bearer")
	assert.ErrorIs(t, err, ErrIdentity)
	assert.Nil(t, store.created)
}

func existingPayment(userID uint64) *model.Payment {
	return &model.Payment{
		ID:       "pay-1",
		TicketID: 11,
		TrainID:  7,
		UserID:   userID,
		Amount:   decimal.NewFromInt(250),
		Currency: "INR",
		Status:   model.PaymentStatusPending,
	}
}

func TestConfirmByDifferentUserIsForbidden(t *testing.T) {
	store, svc := paymentFixture(nil, 7) // verifier resolves user 7
	store.existing = existingPayment(42) // payment belongs to user 42

	_, err := svc.Confirm(context.Background(), "pay-1", "txn-1", model.PaymentStatusCompleted, "bearer")
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Nil(t, store.confirmed, "a forbidden confirm must never mutate the record")
}

func TestConfirmUnknownPayment(t *testing.T) {
	_, svc := paymentFixture(nil, 42)
	_, err := svc.Confirm(context.Background(), "nope", "txn-1", model.PaymentStatusCompleted, "bearer")
	assert.ErrorIs(t, err, repository.ErrPaymentNotFound)
}

func TestConfirmRejectsBogusStatus(t *testing.T) {
	_, svc := paymentFixture(nil, 42)
	_, err := svc.Confirm(context.Background(), "pay-1", "txn-1", "refunded", "bearer")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestConfirmCompletedStagesExactlyOneOutboxEvent(t *testing.T) {
	store, svc := paymentFixture(nil, 42)
	store.existing = existingPayment(42)

	p, err := svc.Confirm(context.Background(), "pay-1", "txn-9", model.PaymentStatusCompleted, "bearer")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusCompleted, p.Status)
	require.NotNil(t, p.TransactionID)
	assert.Equal(t, "txn-9", *p.TransactionID)
	require.NotNil(t, p.UpdatedAt)

	require.NotNil(t, store.outbox, "a completed payment must stage its event")
	assert.Equal(t, queue.PaymentEventsQueue, store.outbox.QueueName)

	var env queue.Envelope
	require.NoError(t, json.Unmarshal(store.outbox.Payload, &env))
	assert.Equal(t, queue.EventPaymentCompleted, env.EventType)

	var ev queue.PaymentCompletedEvent
	require.NoError(t, json.Unmarshal(env.Payload, &ev))
	assert.Equal(t, "pay-1", ev.PaymentID)
	assert.EqualValues(t, 11, ev.TicketID)
	assert.EqualValues(t, 42, ev.UserID)
	assert.InDelta(t, 250, ev.Amount, 0.0001)
	assert.Equal(t, "txn-9", ev.TransactionID)
}

func TestConfirmFailedStagesNoEvent(t *testing.T) {
	store, svc := paymentFixture(nil, 42)
	store.existing = existingPayment(42)

	p, err := svc.Confirm(context.Background(), "pay-1", "txn-9", model.PaymentStatusFailed, "bearer")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusFailed, p.Status)
	assert.Nil(t, store.outbox, "only completed payments emit events")
}
