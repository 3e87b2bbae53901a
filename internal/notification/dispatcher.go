package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/iliyamo/train-ticket-booking/internal/model"
	"github.com/iliyamo/train-ticket-booking/internal/monitoring"
	"github.com/iliyamo/train-ticket-booking/internal/queue"
)

// EmailRequest is the notification request shape shared by the HTTP API
// and the event handlers.
type EmailRequest struct {
	ToEmail          string                 `json:"to_email"`
	Subject          string                 `json:"subject"`
	NotificationType string                 `json:"notification_type"`
	TemplateData     map[string]interface{} `json:"template_data,omitempty"`
}

// EmailResponse reports the result of a send.
type EmailResponse struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

// TicketFetcher looks up a ticket for event enrichment. Implemented by
// repository.TicketRepo.
type TicketFetcher interface {
	GetByID(ctx context.Context, id uint64) (*model.Ticket, error)
}

// TrainFetcher looks up a train for event enrichment. Implemented by
// repository.TrainRepo.
type TrainFetcher interface {
	GetByID(ctx context.Context, id uint64) (*model.Train, error)
}

// Dispatcher renders notification templates and hands the result to a
// Mailer. For payment completion events it additionally enriches the
// message with ticket and train details; when enrichment fails it falls
// back to placeholder values, preferring a degraded notification over no
// notification.
type Dispatcher struct {
	mailer  Mailer
	tickets TicketFetcher
	trains  TrainFetcher
}

// NewDispatcher constructs a Dispatcher. tickets and trains may be nil
// when event enrichment is not needed (e.g. an API-only deployment).
func NewDispatcher(mailer Mailer, tickets TicketFetcher, trains TrainFetcher) *Dispatcher {
	if mailer == nil {
		panic("nil mailer passed to NewDispatcher")
	}
	return &Dispatcher{mailer: mailer, tickets: tickets, trains: trains}
}

// Send renders the requested template and delivers it. Template failures
// (ErrUnknownType, ErrMissingField) are caller errors; delivery failures
// are not.
func (d *Dispatcher) Send(req EmailRequest) (EmailResponse, error) {
	body, err := Render(req.NotificationType, req.TemplateData)
	if err != nil {
		monitoring.RecordNotification(req.NotificationType, "render_error")
		return EmailResponse{}, err
	}
	id, err := d.mailer.Send(req.ToEmail, req.Subject, body)
	if err != nil {
		monitoring.RecordNotification(req.NotificationType, "send_error")
		return EmailResponse{}, err
	}
	monitoring.RecordNotification(req.NotificationType, "sent")
	return EmailResponse{
		MessageID: id,
		Status:    "sent",
		Message:   fmt.Sprintf("Email notification of type %s sent to %s", req.NotificationType, req.ToEmail),
	}, nil
}

// HandlePaymentCompleted consumes a payment.completed event: it enriches
// the event with ticket and train details and sends the payment and
// booking confirmation emails. An error return puts the delivery on the
// consumer's retry path.
//
// Recipient identity is not carried by the event; until an account lookup
// collaborator exists the recipient fields use fixed placeholders, exactly
// as the enrichment fallback does.
func (d *Dispatcher) HandlePaymentCompleted(ctx context.Context, payload json.RawMessage) error {
	var ev queue.PaymentCompletedEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return fmt.Errorf("decode payment.completed payload: %w", err)
	}
	log.Printf("notification: processing payment.completed for payment %s", ev.PaymentID)

	userEmail := "user@example.com"
	userName := "User"

	seat, trainName, source, destination, departure := d.enrich(ctx, ev.TicketID)

	if _, err := d.Send(EmailRequest{
		ToEmail:          userEmail,
		Subject:          "Payment Confirmation - Train Booking",
		NotificationType: TypePaymentConfirmation,
		TemplateData: map[string]interface{}{
			"name":           userName,
			"payment_id":     ev.PaymentID,
			"transaction_id": ev.TransactionID,
			"amount":         ev.Amount,
			"currency":       "INR",
			"ticket_id":      ev.TicketID,
		},
	}); err != nil {
		return fmt.Errorf("send payment confirmation: %w", err)
	}

	if _, err := d.Send(EmailRequest{
		ToEmail:          userEmail,
		Subject:          "Booking Confirmation - Train Booking",
		NotificationType: TypeBookingConfirmation,
		TemplateData: map[string]interface{}{
			"name":        userName,
			"train_name":  trainName,
			"source":      source,
			"destination": destination,
			"date":        departure,
			"seat":        seat,
			"ticket_id":   ev.TicketID,
		},
	}); err != nil {
		return fmt.Errorf("send booking confirmation: %w", err)
	}

	log.Printf("notification: processed payment.completed for payment %s", ev.PaymentID)
	return nil
}

// enrich fetches ticket and train details for the booking confirmation.
// Any failure falls back to placeholder values so the notification still
// goes out with degraded content.
func (d *Dispatcher) enrich(ctx context.Context, ticketID uint64) (seat, trainName, source, destination, departure string) {
	seat, trainName = "A1", "Express Train"
	source, destination = "Source City", "Destination City"
	departure = "2023-04-10T10:00:00"

	if d.tickets == nil || d.trains == nil {
		return
	}
	ticket, err := d.tickets.GetByID(ctx, ticketID)
	if err != nil {
		log.Printf("notification: fetch ticket %d failed: %v; using placeholders", ticketID, err)
		return
	}
	train, err := d.trains.GetByID(ctx, ticket.TrainID)
	if err != nil {
		log.Printf("notification: fetch train %d failed: %v; using placeholders", ticket.TrainID, err)
		return
	}
	return ticket.SeatNumber, train.Name, train.Source, train.Destination, train.DepartureTime
}
