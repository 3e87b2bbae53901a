package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/train-ticket-booking/internal/identity"
	"github.com/iliyamo/train-ticket-booking/internal/notification"
)

// NotificationHandler exposes the synchronous email notification endpoint.
// The caller's identity is verified before anything is rendered or sent.
type NotificationHandler struct {
	Dispatcher *notification.Dispatcher
	Verifier   identity.Verifier
}

// NewNotificationHandler constructs a NotificationHandler.
func NewNotificationHandler(d *notification.Dispatcher, v identity.Verifier) *NotificationHandler {
	if d == nil || v == nil {
		panic("nil dependency passed to NewNotificationHandler")
	}
	return &NotificationHandler{Dispatcher: d, Verifier: v}
}

// SendEmail handles POST /v1/notifications/email.
func (h *NotificationHandler) SendEmail(c echo.Context) error {
	var req notification.EmailRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.ToEmail == "" || req.Subject == "" || req.NotificationType == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "to_email, subject and notification_type are required"})
	}
	bearer := bearerToken(c)
	if bearer == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
	}
	if _, err := h.Verifier.Verify(c.Request().Context(), bearer); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error while verifying token"})
	}
	resp, err := h.Dispatcher.Send(req)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, resp)
	case errors.Is(err, notification.ErrUnknownType):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no template found for notification type"})
	case errors.Is(err, notification.ErrMissingField):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing template data"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to send email"})
	}
}
