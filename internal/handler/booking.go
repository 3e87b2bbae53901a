package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/train-ticket-booking/internal/repository"
	"github.com/iliyamo/train-ticket-booking/internal/service"
)

// BookingHandler exposes the seat hold and confirm steps of the booking
// state machine.
type BookingHandler struct {
	Booking *service.BookingService
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(booking *service.BookingService) *BookingHandler {
	if booking == nil {
		panic("nil booking service passed to NewBookingHandler")
	}
	return &BookingHandler{Booking: booking}
}

// Book handles POST /v1/tickets/book. On success it returns the lock token
// the caller must present to confirm. The ticket itself is unchanged; the
// hold lives in the lock store and expires on its own.
func (h *BookingHandler) Book(c echo.Context) error {
	var body struct {
		TrainID    uint64 `json:"train_id"`
		SeatNumber string `json:"seat_number"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.TrainID == 0 || body.SeatNumber == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "train_id and seat_number are required"})
	}
	token, err := h.Booking.Book(c.Request().Context(), body.TrainID, body.SeatNumber)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"lock_id": token})
	case errors.Is(err, repository.ErrTicketNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
	case errors.Is(err, service.ErrSeatLocked):
		return c.JSON(http.StatusConflict, echo.Map{"error": "seat already locked, please try again later"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to lock seat"})
	}
}

// Confirm handles PUT /v1/tickets/confirm. The caller's bearer credential
// is forwarded to the identity verifier; a verification failure is a
// server-side fault, not a caller error.
func (h *BookingHandler) Confirm(c echo.Context) error {
	var body struct {
		TrainID    uint64 `json:"train_id"`
		SeatNumber string `json:"seat_number"`
		LockID     string `json:"lock_id"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.TrainID == 0 || body.SeatNumber == "" || body.LockID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "train_id, seat_number and lock_id are required"})
	}
	bearer := bearerToken(c)
	if bearer == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
	}
	ticket, err := h.Booking.Confirm(c.Request().Context(), body.TrainID, body.SeatNumber, body.LockID, bearer)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, ticket)
	case errors.Is(err, repository.ErrTicketNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
	case errors.Is(err, service.ErrLockConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "seat not locked or lock id mismatch"})
	case errors.Is(err, service.ErrIdentity):
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error while verifying token"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to confirm booking"})
	}
}
