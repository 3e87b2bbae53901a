package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/train-ticket-booking/internal/handler"
	"github.com/iliyamo/train-ticket-booking/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication:
// the health check for load balancers and the Prometheus metrics endpoint.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAuth registers registration, login and token verification.
// Register and login are open; verify-token sits behind the JWT middleware
// and is the contract consumed by HTTP identity verifiers.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.GET("/verify-token", a.VerifyToken, middleware.JWTAuth(jwtSecret))
}

// RegisterCatalog registers train administration and the public ticket
// catalog.
func RegisterCatalog(e *echo.Echo, t *handler.TrainHandler) {
	e.POST("/v1/trains", t.CreateTrain)
	e.GET("/v1/trains", t.ListTrains)
	e.GET("/v1/trains/search", t.SearchTrains)
	e.GET("/v1/trains/:id", t.GetTrain)
	e.POST("/v1/tickets", t.CreateTickets)
	e.GET("/v1/tickets/:train_id", t.AvailableTickets)
}

// RegisterBooking registers the seat hold and confirm steps. Book is open
// (a hold is anonymous until confirmed); Confirm carries the bearer token
// in the request and forwards it to the identity verifier collaborator, so
// no JWT middleware is applied here.
func RegisterBooking(e *echo.Echo, b *handler.BookingHandler) {
	e.POST("/v1/tickets/book", b.Book)
	e.PUT("/v1/tickets/confirm", b.Confirm)
}

// RegisterPayments registers the payment saga endpoints. As with booking
// confirm, identity verification happens in the service layer.
func RegisterPayments(e *echo.Echo, p *handler.PaymentHandler) {
	e.POST("/v1/payments/initiate", p.Initiate)
	e.POST("/v1/payments/confirm", p.Confirm)
}

// RegisterNotifications registers the synchronous email endpoint.
func RegisterNotifications(e *echo.Echo, n *handler.NotificationHandler) {
	e.POST("/v1/notifications/email", n.SendEmail)
}
