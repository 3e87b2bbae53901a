package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/train-ticket-booking/internal/repository"
	"github.com/iliyamo/train-ticket-booking/internal/service"
)

// PaymentHandler exposes the two steps of the payment saga.
type PaymentHandler struct {
	Payments *service.PaymentService
}

// NewPaymentHandler constructs a PaymentHandler.
func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	if payments == nil {
		panic("nil payment service passed to NewPaymentHandler")
	}
	return &PaymentHandler{Payments: payments}
}

// Initiate handles POST /v1/payments/initiate. ticket_id may be omitted to
// let the saga pick the first available ticket on the train.
func (h *PaymentHandler) Initiate(c echo.Context) error {
	var body struct {
		TrainID       uint64  `json:"train_id"`
		TicketID      *uint64 `json:"ticket_id"`
		Amount        string  `json:"amount"`
		Currency      string  `json:"currency"`
		PaymentMethod string  `json:"payment_method"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.TrainID == 0 || body.Amount == "" || body.PaymentMethod == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "train_id, amount and payment_method are required"})
	}
	amount, err := decimal.NewFromString(body.Amount)
	if err != nil || amount.IsNegative() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid amount"})
	}
	currency := body.Currency
	if currency == "" {
		currency = "INR"
	}
	bearer := bearerToken(c)
	if bearer == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
	}
	p, err := h.Payments.Initiate(c.Request().Context(), service.InitiatePaymentRequest{
		TrainID:       body.TrainID,
		TicketID:      body.TicketID,
		Amount:        amount,
		Currency:      currency,
		PaymentMethod: body.PaymentMethod,
	}, bearer)
	switch {
	case err == nil:
		return c.JSON(http.StatusCreated, p)
	case errors.Is(err, service.ErrNoAvailability):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no available tickets for this train"})
	case errors.Is(err, service.ErrTicketUnavailable):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ticket is not available for booking"})
	case errors.Is(err, repository.ErrTicketNotFound):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ticket not found for this train"})
	case errors.Is(err, service.ErrIdentity):
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error while verifying token"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to initiate payment"})
	}
}

// Confirm handles POST /v1/payments/confirm. A completed confirmation
// stages the payment.completed event in the outbox; the HTTP result
// reflects the new payment status regardless of broker health.
func (h *PaymentHandler) Confirm(c echo.Context) error {
	var body struct {
		PaymentID     string `json:"payment_id"`
		TransactionID string `json:"transaction_id"`
		Status        string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.PaymentID == "" || body.Status == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment_id and status are required"})
	}
	bearer := bearerToken(c)
	if bearer == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
	}
	p, err := h.Payments.Confirm(c.Request().Context(), body.PaymentID, body.TransactionID, body.Status, bearer)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, p)
	case errors.Is(err, service.ErrInvalidStatus):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be completed or failed"})
	case errors.Is(err, repository.ErrPaymentNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "payment not found"})
	case errors.Is(err, service.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "you are not authorized to confirm this payment"})
	case errors.Is(err, service.ErrIdentity):
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error while verifying token"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to confirm payment"})
	}
}
