package model

import "github.com/shopspring/decimal"

// Ticket status values. A ticket starts out available and transitions to
// booked exactly once; booked tickets are immutable afterwards.
const (
	TicketStatusAvailable = "available"
	TicketStatusBooked    = "booked"
)

// Ticket is the durable record of a purchasable seat on a train and its
// booking state. The seat hold itself is not part of this record – while a
// customer is deciding, the hold lives only in the lock store. The ticket
// row changes only when a booking is confirmed.
//
// Fields:
//  ID         – primary key identifier.
//  TrainID    – train this seat belongs to.
//  SeatNumber – seat label within the train (e.g. "A1").
//  Price      – ticket price; decimal to avoid float rounding on money.
//  Status     – "available" or "booked".
//  BuyerID    – user who booked the seat (nil while available).
type Ticket struct {
	ID         uint64          `json:"id"`          // tickets.id
	TrainID    uint64          `json:"train_id"`    // tickets.train_id
	SeatNumber string          `json:"seat_number"` // tickets.seat_number
	Price      decimal.Decimal `json:"price"`       // tickets.price
	Status     string          `json:"status"`      // tickets.status
	BuyerID    *uint64         `json:"buyer_id"`    // tickets.buyer_id (nullable)
}
