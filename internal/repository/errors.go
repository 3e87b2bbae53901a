// Package repository provides data access to the MySQL ledger. This file
// defines sentinel error values reused across repositories so that higher
// layers (services, handlers) can distinguish failure scenarios with
// errors.Is instead of string matching.
package repository

import "errors"

// ErrTicketNotFound is returned when a ticket lookup matches no row.
// Handlers translate this into an HTTP 404.
var ErrTicketNotFound = errors.New("ticket not found")

// ErrTrainNotFound is returned when a train lookup matches no row.
var ErrTrainNotFound = errors.New("train not found")

// ErrPaymentNotFound is returned when a payment lookup matches no row.
var ErrPaymentNotFound = errors.New("payment not found")

// ErrUserNotFound is returned when a user lookup matches no row.
var ErrUserNotFound = errors.New("user not found")

// ErrUserExists is returned when registration collides with an existing
// username or email. Handlers translate this into an HTTP 409.
var ErrUserExists = errors.New("user already exists")
