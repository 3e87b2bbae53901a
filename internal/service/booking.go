// Package service contains the booking state machine and the payment saga
// coordinator. Services depend on narrow interfaces so that the lock store,
// ledger and identity collaborators can be swapped in tests.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/iliyamo/train-ticket-booking/internal/identity"
	"github.com/iliyamo/train-ticket-booking/internal/lock"
	"github.com/iliyamo/train-ticket-booking/internal/model"
	"github.com/iliyamo/train-ticket-booking/internal/monitoring"
)

// ErrSeatLocked is returned by Book when the seat already has a live lock,
// whether detected by the pre-check or by the acquire itself.
var ErrSeatLocked = errors.New("seat already locked")

// ErrLockConflict is returned by Confirm when no lock exists for the seat
// or the stored token differs from the caller's (stale token or wrong
// caller).
var ErrLockConflict = errors.New("seat lock missing or token mismatch")

// ErrIdentity is returned when the identity collaborator cannot resolve the
// bearer credential. Handlers report it as a server-side failure, never as
// a caller error.
var ErrIdentity = errors.New("identity verification failed")

// SeatLocker is the seat lock manager contract consumed by the booking
// state machine. Implemented by lock.Manager.
type SeatLocker interface {
	Acquire(ctx context.Context, trainID uint64, seatNumber string) (string, error)
	Release(ctx context.Context, trainID uint64, seatNumber, token string) error
	Holder(ctx context.Context, trainID uint64, seatNumber string) (string, error)
	Holders(ctx context.Context, trainID uint64, seatNumbers []string) (map[string]string, error)
}

// TicketStore is the ledger contract consumed by the booking state machine.
// Implemented by repository.TicketRepo.
type TicketStore interface {
	GetBySeat(ctx context.Context, trainID uint64, seatNumber string) (*model.Ticket, error)
	ListAvailableByTrain(ctx context.Context, trainID uint64) ([]model.Ticket, error)
	MarkBooked(ctx context.Context, ticketID, buyerID uint64) error
}

// BookingService sequences seat discovery, locking and identity-bound
// confirmation. The hold phase is expressed purely through the lock store;
// the ticket row changes only at confirm time.
type BookingService struct {
	tickets  TicketStore
	locks    SeatLocker
	verifier identity.Verifier
}

// NewBookingService constructs a BookingService. All dependencies must be
// non-nil.
func NewBookingService(tickets TicketStore, locks SeatLocker, verifier identity.Verifier) *BookingService {
	if tickets == nil || locks == nil || verifier == nil {
		panic("nil dependency passed to NewBookingService")
	}
	return &BookingService{tickets: tickets, locks: locks, verifier: verifier}
}

// Book places a seat hold for the given (train, seat) and returns the fresh
// ownership token. The ticket row is not touched: the hold exists only in
// the lock store and expires on its own if never confirmed.
//
// A lock observed by the pre-check and a lock that appears between the
// pre-check and the acquire are the same benign race and both surface as
// ErrSeatLocked.
func (s *BookingService) Book(ctx context.Context, trainID uint64, seatNumber string) (string, error) {
	if _, err := s.tickets.GetBySeat(ctx, trainID, seatNumber); err != nil {
		monitoring.RecordBooking("book", "not_found")
		return "", err
	}
	holder, err := s.locks.Holder(ctx, trainID, seatNumber)
	if err != nil {
		monitoring.RecordBooking("book", "error")
		return "", fmt.Errorf("lock pre-check: %w", err)
	}
	if holder != "" {
		monitoring.RecordBooking("book", "conflict")
		return "", ErrSeatLocked
	}
	token, err := s.locks.Acquire(ctx, trainID, seatNumber)
	if errors.Is(err, lock.ErrAlreadyLocked) {
		monitoring.RecordBooking("book", "conflict")
		return "", ErrSeatLocked
	}
	if err != nil {
		monitoring.RecordBooking("book", "error")
		return "", err
	}
	monitoring.RecordBooking("book", "ok")
	return token, nil
}

// Confirm finalizes a hold into a booking. The caller must present the
// token returned by Book while the lock is still live; the bearer
// credential is resolved to the buyer's user id before the ticket flips to
// booked.
//
// The lock is released only after the ledger write succeeds. If persistence
// fails the lock stays in place, which correctly keeps racing Book calls
// from producing a second successful booking. The operation is not
// idempotent: once the lock is released a repeat call fails ErrLockConflict.
func (s *BookingService) Confirm(ctx context.Context, trainID uint64, seatNumber, token, bearer string) (*model.Ticket, error) {
	ticket, err := s.tickets.GetBySeat(ctx, trainID, seatNumber)
	if err != nil {
		monitoring.RecordBooking("confirm", "not_found")
		return nil, err
	}
	holder, err := s.locks.Holder(ctx, trainID, seatNumber)
	if err != nil {
		monitoring.RecordBooking("confirm", "error")
		return nil, fmt.Errorf("read lock: %w", err)
	}
	if holder == "" || holder != token {
		monitoring.RecordBooking("confirm", "lock_conflict")
		return nil, ErrLockConflict
	}
	user, err := s.verifier.Verify(ctx, bearer)
	if err != nil {
		monitoring.RecordBooking("confirm", "identity_error")
		return nil, fmt.Errorf("%w: %v", ErrIdentity, err)
	}
	if err := s.tickets.MarkBooked(ctx, ticket.ID, user.ID); err != nil {
		monitoring.RecordBooking("confirm", "error")
		return nil, fmt.Errorf("persist booking: %w", err)
	}
	if err := s.locks.Release(ctx, trainID, seatNumber, token); err != nil {
		// The booking is committed; a leftover lock self-heals via TTL.
		log.Printf("booking: release lock for seat %s train %d failed: %v", seatNumber, trainID, err)
	}
	ticket.Status = model.TicketStatusBooked
	ticket.BuyerID = &user.ID
	monitoring.RecordBooking("confirm", "ok")
	return ticket, nil
}

// AvailableTickets lists tickets for a train that are available in the
// ledger and have no live seat lock, so held seats disappear from the
// listing before they are booked. All seats are probed in one batched
// lock-store call.
func (s *BookingService) AvailableTickets(ctx context.Context, trainID uint64) ([]model.Ticket, error) {
	tickets, err := s.tickets.ListAvailableByTrain(ctx, trainID)
	if err != nil {
		return nil, err
	}
	seats := make([]string, len(tickets))
	for i, t := range tickets {
		seats[i] = t.SeatNumber
	}
	held, err := s.locks.Holders(ctx, trainID, seats)
	if err != nil {
		return nil, fmt.Errorf("lock probe: %w", err)
	}
	open := make([]model.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if _, locked := held[t.SeatNumber]; !locked {
			open = append(open, t)
		}
	}
	return open, nil
}
