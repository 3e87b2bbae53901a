package main // Entry point package

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/train-ticket-booking/internal/config"
	"github.com/iliyamo/train-ticket-booking/internal/database"
	"github.com/iliyamo/train-ticket-booking/internal/handler"
	"github.com/iliyamo/train-ticket-booking/internal/identity"
	"github.com/iliyamo/train-ticket-booking/internal/lock"
	"github.com/iliyamo/train-ticket-booking/internal/middleware"
	"github.com/iliyamo/train-ticket-booking/internal/notification"
	"github.com/iliyamo/train-ticket-booking/internal/queue"
	"github.com/iliyamo/train-ticket-booking/internal/repository"
	"github.com/iliyamo/train-ticket-booking/internal/router"
	"github.com/iliyamo/train-ticket-booking/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is the seat lock store; without it no seat can be held, so a
	// failed connection is fatal rather than a degraded mode.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Fatal("redis: connection failed; the seat lock store is required")
	}
	defer rdb.Close()

	amqpConn, err := config.NewAMQPConnection(cfg.AMQPURL)
	if err != nil {
		log.Fatalf("rabbitmq: dial failed: %v", err)
	}
	defer amqpConn.Close()

	// Repositories.
	users := repository.NewUserRepo(db)
	trains := repository.NewTrainRepo(db)
	tickets := repository.NewTicketRepo(db)
	payments := repository.NewPaymentRepo(db)
	outbox := repository.NewOutboxRepo(db)

	// Core components, wired explicitly: the lock manager, the identity
	// verifier, the booking state machine and the payment saga.
	locks := lock.NewManager(rdb)
	verifier := identity.NewLocalVerifier(cfg.JWTSecret, users)
	booking := service.NewBookingService(tickets, locks, verifier)
	paySvc := service.NewPaymentService(payments, tickets, verifier)

	// Notification side: mailer selection is explicit configuration.
	var mailer notification.Mailer
	if cfg.MailMock {
		mailer = notification.MockMailer{}
	} else {
		mailer = notification.NewSMTPMailer(cfg.SMTPAddr, cfg.SMTPHost, cfg.SMTPUser, cfg.SMTPPass, cfg.FromEmail)
	}
	dispatcher := notification.NewDispatcher(mailer, tickets, trains)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Outbox relay publishes staged payment events.
	publisher := queue.NewPublisher(amqpConn)
	relay := queue.NewRelay(outbox, publisher, cfg.OutboxInterval, cfg.OutboxBatch)
	go relay.Run(ctx)

	// Consumer side of the payment events queue. It dials its own
	// connection so its reconnect loop can rebuild from scratch.
	consumer := queue.NewConsumer(cfg.AMQPURL, queue.PaymentEventsQueue, map[string]queue.HandlerFunc{
		queue.EventPaymentCompleted: dispatcher.HandlePaymentCompleted,
	}, cfg.ConsumerMaxRetries)
	go func() {
		if err := consumer.Run(ctx); err != nil {
			log.Printf("consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(users, cfg.JWTSecret, cfg.AccessTTLMin, cfg.BcryptCost), cfg.JWTSecret)
	router.RegisterCatalog(e, handler.NewTrainHandler(trains, tickets, booking))
	router.RegisterBooking(e, handler.NewBookingHandler(booking))
	router.RegisterPayments(e, handler.NewPaymentHandler(paySvc))
	router.RegisterNotifications(e, handler.NewNotificationHandler(dispatcher, verifier))

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
