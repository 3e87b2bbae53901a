package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/train-ticket-booking/internal/model"
)

// TicketRepo provides data access to the tickets table. Ticket rows are
// created by train administration and mutated only by the booking confirm
// step; seat holds never touch this table.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo returns a new TicketRepo bound to the provided database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

// CreateMultiple inserts a batch of tickets for a train. Each ticket must
// specify TrainID, SeatNumber and Price; status defaults to available.
// Passing an empty slice has no effect and returns nil.
func (r *TicketRepo) CreateMultiple(ctx context.Context, tickets []model.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	query := `INSERT INTO tickets (train_id, seat_number, price, status) VALUES `
	args := make([]interface{}, 0, len(tickets)*4)
	for i, t := range tickets {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, t.TrainID, t.SeatNumber, t.Price.String(), model.TicketStatusAvailable)
	}
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// GetByID loads a single ticket. Returns ErrTicketNotFound when no row matches.
func (r *TicketRepo) GetByID(ctx context.Context, id uint64) (*model.Ticket, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT id, train_id, seat_number, price, status, buyer_id FROM tickets WHERE id = ?`, id))
}

// GetBySeat loads the ticket for a (train, seat) pair. Returns
// ErrTicketNotFound when no row matches.
func (r *TicketRepo) GetBySeat(ctx context.Context, trainID uint64, seatNumber string) (*model.Ticket, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT id, train_id, seat_number, price, status, buyer_id
		 FROM tickets WHERE train_id = ? AND seat_number = ?`,
		trainID, seatNumber))
}

// ListByTrain returns every ticket for a train in insertion order. The
// payment saga filters this listing client-side, matching the catalog
// contract exposed to external callers.
func (r *TicketRepo) ListByTrain(ctx context.Context, trainID uint64) ([]model.Ticket, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, train_id, seat_number, price, status, buyer_id
		 FROM tickets WHERE train_id = ? ORDER BY id`, trainID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

// ListAvailableByTrain returns tickets for a train whose status is
// available. Callers that need live availability must additionally drop
// seats with an active lock in the lock store.
func (r *TicketRepo) ListAvailableByTrain(ctx context.Context, trainID uint64) ([]model.Ticket, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, train_id, seat_number, price, status, buyer_id
		 FROM tickets WHERE train_id = ? AND status = ? ORDER BY id`,
		trainID, model.TicketStatusAvailable)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

// MarkBooked sets the buyer and flips the ticket to booked. This is the
// single available -> booked transition; it is only reached while the
// caller holds a valid seat lock, so writes for a given ticket are
// serialized through the lock.
func (r *TicketRepo) MarkBooked(ctx context.Context, ticketID, buyerID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tickets SET status = ?, buyer_id = ? WHERE id = ?`,
		model.TicketStatusBooked, buyerID, ticketID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTicketNotFound
	}
	return nil
}

func (r *TicketRepo) scanOne(row *sql.Row) (*model.Ticket, error) {
	var t model.Ticket
	var price string
	err := row.Scan(&t.ID, &t.TrainID, &t.SeatNumber, &price, &t.Status, &t.BuyerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTicketNotFound
	}
	if err != nil {
		return nil, err
	}
	if t.Price, err = parseDecimal(price); err != nil {
		return nil, err
	}
	return &t, nil
}

func scanTickets(rows *sql.Rows) ([]model.Ticket, error) {
	var tickets []model.Ticket
	for rows.Next() {
		var t model.Ticket
		var price string
		if err := rows.Scan(&t.ID, &t.TrainID, &t.SeatNumber, &price, &t.Status, &t.BuyerID); err != nil {
			return nil, err
		}
		var err error
		if t.Price, err = parseDecimal(price); err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tickets, nil
}
