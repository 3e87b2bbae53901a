package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/train-ticket-booking/internal/model"
	"github.com/iliyamo/train-ticket-booking/internal/queue"
)

// capturingMailer records every send for assertion.
type capturingMailer struct {
	sent []sentMail
	err  error
}

type sentMail struct {
	to, subject, body string
}

func (m *capturingMailer) Send(to, subject, body string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return "msg-1", nil
}

type fakeTicketFetcher struct {
	ticket *model.Ticket
	err    error
}

func (f fakeTicketFetcher) GetByID(context.Context, uint64) (*model.Ticket, error) {
	return f.ticket, f.err
}

type fakeTrainFetcher struct {
	train *model.Train
	err   error
}

func (f fakeTrainFetcher) GetByID(context.Context, uint64) (*model.Train, error) {
	return f.train, f.err
}

func completedPayload(t *testing.T) json.RawMessage {
	t.Helper()
	payload, err := json.Marshal(queue.PaymentCompletedEvent{
		PaymentID: "pay-1", TicketID: 11, UserID: 42, Amount: 250, TransactionID: "txn-9",
	})
	require.NoError(t, err)
	return payload
}

func TestSendReturnsMessageID(t *testing.T) {
	mailer := &capturingMailer{}
	d := NewDispatcher(mailer, nil, nil)

	resp, err := d.Send(EmailRequest{
		ToEmail:          "rider@example.com",
		Subject:          "Your OTP",
		NotificationType: TypeOTP,
		TemplateData:     map[string]interface{}{"otp": "123456"},
	})
	require.NoError(t, err)
	assert.Equal(t, "msg-1", resp.MessageID)
	assert.Equal(t, "sent", resp.Status)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "rider@example.com", mailer.sent[0].to)
}

func TestSendUnknownTypeDoesNotMail(t *testing.T) {
	mailer := &capturingMailer{}
	d := NewDispatcher(mailer, nil, nil)

	_, err := d.Send(EmailRequest{ToEmail: "a@b.c", Subject: "x", NotificationType: "nope"})
	assert.ErrorIs(t, err, ErrUnknownType)
	assert.Empty(t, mailer.sent)
}

func TestMockMailerReturnsSyntheticID(t *testing.T) {
	id, err := MockMailer{}.Send("rider@example.com", "subject", "<html></html>")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestHandlePaymentCompletedSendsBothEmails(t *testing.T) {
	mailer := &capturingMailer{}
	d := NewDispatcher(mailer,
		fakeTicketFetcher{ticket: &model.Ticket{ID: 11, TrainID: 7, SeatNumber: "C3"}},
		fakeTrainFetcher{train: &model.Train{ID: 7, Name: "Night Express", Source: "Pune", Destination: "Delhi", DepartureTime: "2026-01-15T22:00:00"}},
	)

	require.NoError(t, d.HandlePaymentCompleted(context.Background(), completedPayload(t)))
	require.Len(t, mailer.sent, 2)
	assert.Contains(t, mailer.sent[0].subject, "Payment Confirmation")
	assert.Contains(t, mailer.sent[0].body, "pay-1")
	assert.Contains(t, mailer.sent[1].subject, "Booking Confirmation")
	assert.Contains(t, mailer.sent[1].body, "Night Express")
	assert.Contains(t, mailer.sent[1].body, "C3")
}

func TestHandlePaymentCompletedFallsBackOnEnrichmentFailure(t *testing.T) {
	mailer := &capturingMailer{}
	d := NewDispatcher(mailer,
		fakeTicketFetcher{err: errors.New("catalog down")},
		fakeTrainFetcher{},
	)

	require.NoError(t, d.HandlePaymentCompleted(context.Background(), completedPayload(t)),
		"a failed enrichment must degrade the content, not drop the notification")
	require.Len(t, mailer.sent, 2)
	assert.Contains(t, mailer.sent[1].body, "Express Train", "placeholder train name expected")
}

func TestHandlePaymentCompletedRejectsBadPayload(t *testing.T) {
	d := NewDispatcher(&capturingMailer{}, nil, nil)
	assert.Error(t, d.HandlePaymentCompleted(context.Background(), json.RawMessage(`"not an object"`)))
}

func TestHandlePaymentCompletedPropagatesSendFailure(t *testing.T) {
	d := NewDispatcher(&capturingMailer{err: errors.New("smtp down")}, nil, nil)
	assert.Error(t, d.HandlePaymentCompleted(context.Background(), completedPayload(t)),
		"a send failure must reach the consumer so the delivery is retried")
}
