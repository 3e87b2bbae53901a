package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/train-ticket-booking/internal/model"
	"github.com/iliyamo/train-ticket-booking/internal/repository"
	"github.com/iliyamo/train-ticket-booking/internal/service"
)

// TrainHandler exposes train administration and the public catalog
// listing. Ticket availability goes through the booking service so live
// seat locks are filtered out of the listing.
type TrainHandler struct {
	Trains  *repository.TrainRepo
	Tickets *repository.TicketRepo
	Booking *service.BookingService
}

// NewTrainHandler constructs a TrainHandler. All dependencies must be
// non-nil.
func NewTrainHandler(trains *repository.TrainRepo, tickets *repository.TicketRepo, booking *service.BookingService) *TrainHandler {
	if trains == nil || tickets == nil || booking == nil {
		panic("nil dependency passed to NewTrainHandler")
	}
	return &TrainHandler{Trains: trains, Tickets: tickets, Booking: booking}
}

// CreateTrain handles POST /v1/trains.
func (h *TrainHandler) CreateTrain(c echo.Context) error {
	var body struct {
		Name          string `json:"name"`
		Source        string `json:"source"`
		Destination   string `json:"destination"`
		DepartureTime string `json:"departure_time"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Name == "" || body.Source == "" || body.Destination == "" || body.DepartureTime == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, source, destination and departure_time are required"})
	}
	t := &model.Train{Name: body.Name, Source: body.Source, Destination: body.Destination, DepartureTime: body.DepartureTime}
	if err := h.Trains.Create(c.Request().Context(), t); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusCreated, t)
}

// ListTrains handles GET /v1/trains.
func (h *TrainHandler) ListTrains(c echo.Context) error {
	trains, err := h.Trains.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if trains == nil {
		trains = []model.Train{}
	}
	return c.JSON(http.StatusOK, trains)
}

// SearchTrains handles GET /v1/trains/search?term=...
func (h *TrainHandler) SearchTrains(c echo.Context) error {
	term := c.QueryParam("term")
	if term == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "term is required"})
	}
	trains, err := h.Trains.Search(c.Request().Context(), term)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if trains == nil {
		trains = []model.Train{}
	}
	return c.JSON(http.StatusOK, trains)
}

// GetTrain handles GET /v1/trains/:id.
func (h *TrainHandler) GetTrain(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid train id"})
	}
	t, err := h.Trains.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrTrainNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "train not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, t)
}

// CreateTickets handles POST /v1/tickets. The body is an array of tickets
// to create for a train; all rows start available.
func (h *TrainHandler) CreateTickets(c echo.Context) error {
	var body []struct {
		TrainID    uint64 `json:"train_id"`
		SeatNumber string `json:"seat_number"`
		Price      string `json:"price"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if len(body) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "at least one ticket is required"})
	}
	tickets := make([]model.Ticket, 0, len(body))
	for _, t := range body {
		if t.TrainID == 0 || t.SeatNumber == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "train_id and seat_number are required"})
		}
		price, err := decimal.NewFromString(t.Price)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid price"})
		}
		tickets = append(tickets, model.Ticket{TrainID: t.TrainID, SeatNumber: t.SeatNumber, Price: price})
	}
	if err := h.Tickets.CreateMultiple(c.Request().Context(), tickets); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"created": len(tickets)})
}

// AvailableTickets handles GET /v1/tickets/:train_id. It returns tickets
// that are available in the ledger and have no live seat lock.
func (h *TrainHandler) AvailableTickets(c echo.Context) error {
	trainID, err := strconv.ParseUint(c.Param("train_id"), 10, 64)
	if err != nil || trainID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid train id"})
	}
	tickets, err := h.Booking.AvailableTickets(c.Request().Context(), trainID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list tickets"})
	}
	if tickets == nil {
		tickets = []model.Ticket{}
	}
	return c.JSON(http.StatusOK, tickets)
}
