package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/train-ticket-booking/internal/identity"
	"github.com/iliyamo/train-ticket-booking/internal/lock"
	"github.com/iliyamo/train-ticket-booking/internal/model"
	"github.com/iliyamo/train-ticket-booking/internal/repository"
)

// fakeTicketStore is an in-memory TicketStore keyed by (train, seat).
type fakeTicketStore struct {
	tickets    map[string]*model.Ticket
	markErr    error
	bookedID   uint64
	bookedUser uint64
}

func seatKey(trainID uint64, seat string) string {
	return fmt.Sprintf("%d:%s", trainID, seat)
}

func (f *fakeTicketStore) GetBySeat(_ context.Context, trainID uint64, seat string) (*model.Ticket, error) {
	t, ok := f.tickets[seatKey(trainID, seat)]
	if !ok {
		return nil, repository.ErrTicketNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTicketStore) ListAvailableByTrain(_ context.Context, trainID uint64) ([]model.Ticket, error) {
	var out []model.Ticket
	for _, t := range f.tickets {
		if t.TrainID == trainID && t.Status == model.TicketStatusAvailable {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeTicketStore) MarkBooked(_ context.Context, ticketID, buyerID uint64) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.bookedID = ticketID
	f.bookedUser = buyerID
	return nil
}

// fakeLocker is an in-memory SeatLocker holding a single lock entry.
type fakeLocker struct {
	holder     string
	acquireErr error
	acquired   bool
	released   string
}

func (f *fakeLocker) Acquire(context.Context, uint64, string) (string, error) {
	if f.acquireErr != nil {
		return "", f.acquireErr
	}
	f.acquired = true
	f.holder = "fresh-token"
	return f.holder, nil
}

func (f *fakeLocker) Release(_ context.Context, _ uint64, _ string, token string) error {
	if f.holder == token {
		f.holder = ""
	}
	f.released = token
	return nil
}

func (f *fakeLocker) Holder(context.Context, uint64, string) (string, error) {
	return f.holder, nil
}

func (f *fakeLocker) Holders(_ context.Context, _ uint64, seats []string) (map[string]string, error) {
	held := make(map[string]string)
	if f.holder != "" {
		for _, s := range seats {
			held[s] = f.holder
		}
	}
	return held, nil
}

type fakeVerifier struct {
	user identity.User
	err  error
}

func (f fakeVerifier) Verify(context.Context, string) (identity.User, error) {
	return f.user, f.err
}

func newBookingFixture() (*fakeTicketStore, *fakeLocker, *BookingService) {
	store := &fakeTicketStore{tickets: map[string]*model.Ticket{
		seatKey(7, "A1"): {ID: 11, TrainID: 7, SeatNumber: "A1", Status: model.TicketStatusAvailable},
	}}
	locker := &fakeLocker{}
	svc := NewBookingService(store, locker, fakeVerifier{user: identity.User{ID: 42, Email: "rider@example.com"}})
	return store, locker, svc
}

func TestBookUnknownSeatFailsNotFound(t *testing.T) {
	_, _, svc := newBookingFixture()
	_, err := svc.Book(context.Background(), 7, "Z9")
	assert.ErrorIs(t, err, repository.ErrTicketNotFound)
}

func TestBookConflictOnPreCheck(t *testing.T) {
	_, locker, svc := newBookingFixture()
	locker.holder = "already-held"

	_, err := svc.Book(context.Background(), 7, "A1")
	assert.ErrorIs(t, err, ErrSeatLocked)
	assert.False(t, locker.acquired, "acquire must not run when the pre-check sees a lock")
}

func TestBookConflictOnAcquireRace(t *testing.T) {
	// Pre-check sees no lock, but acquire loses the race. Both paths must
	// surface the same conflict.
	_, locker, svc := newBookingFixture()
	locker.acquireErr = lock.ErrAlreadyLocked

	_, err := svc.Book(context.Background(), 7, "A1")
	assert.ErrorIs(t, err, ErrSeatLocked)
}

func TestBookReturnsFreshTokenWithoutTouchingTicket(t *testing.T) {
	store, _, svc := newBookingFixture()

	token, err := svc.Book(context.Background(), 7, "A1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Zero(t, store.bookedID, "book must not mutate the ticket row")
}

func TestConfirmWithoutLockFailsLockConflict(t *testing.T) {
	_, _, svc := newBookingFixture()
	_, err := svc.Confirm(context.Background(), 7, "A1", "tok", "bearer")
	assert.ErrorIs(t, err, ErrLockConflict)
}

func TestConfirmWithStaleTokenFailsLockConflict(t *testing.T) {
	_, locker, svc := newBookingFixture()
	locker.holder = "the-real-token"

	_, err := svc.Confirm(context.Background(), 7, "A1", "stale-token", "bearer")
	assert.ErrorIs(t, err, ErrLockConflict)
}

func TestConfirmIdentityFailureIsServerSide(t *testing.T) {
	store, locker, _ := newBookingFixture()
	locker.holder = "tok"
	svc := NewBookingService(store, locker, fakeVerifier{err: errors.New("auth unreachable")})

	_, err := svc.Confirm(context.Background(), 7, "A1", "tok", "bearer")
	assert.ErrorIs(t, err, ErrIdentity)
	assert.Zero(t, store.bookedID, "ticket must not change when identity cannot be resolved")
	assert.Equal(t, "tok", locker.holder, "lock must survive a failed confirm")
}

func TestConfirmBooksThenReleasesLock(t *testing.T) {
	store, locker, svc := newBookingFixture()
	token, err := svc.Book(context.Background(), 7, "A1")
	require.NoError(t, err)

	ticket, err := svc.Confirm(context.Background(), 7, "A1", token, "bearer")
	require.NoError(t, err)
	assert.Equal(t, model.TicketStatusBooked, ticket.Status)
	require.NotNil(t, ticket.BuyerID)
	assert.EqualValues(t, 42, *ticket.BuyerID)
	assert.EqualValues(t, 11, store.bookedID)
	assert.EqualValues(t, 42, store.bookedUser)
	assert.Empty(t, locker.holder, "lock must be gone after a successful confirm")

	// A second confirm after release is not idempotent.
	_, err = svc.Confirm(context.Background(), 7, "A1", token, "bearer")
	assert.ErrorIs(t, err, ErrLockConflict)
}

func TestConfirmKeepsLockWhenPersistFails(t *testing.T) {
	store, locker, svc := newBookingFixture()
	store.markErr = errors.New("db down")
	locker.holder = "tok"

	_, err := svc.Confirm(context.Background(), 7, "A1", "tok", "bearer")
	require.Error(t, err)
	assert.Equal(t, "tok", locker.holder,
		"lock release must happen only after the ledger write commits")
}

func TestAvailableTicketsFiltersLockedSeats(t *testing.T) {
	store, locker, svc := newBookingFixture()
	store.tickets[seatKey(7, "B2")] = &model.Ticket{ID: 12, TrainID: 7, SeatNumber: "B2", Status: model.TicketStatusAvailable}
	locker.holder = "held" // fakeLocker holds one lock covering every probe

	open, err := svc.AvailableTickets(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, open)

	locker.holder = ""
	open, err = svc.AvailableTickets(context.Background(), 7)
	require.NoError(t, err)
	assert.Len(t, open, 2)
}
