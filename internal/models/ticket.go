package models

import (
	"time"
)

// TicketStatus represents the lifecycle state of a ticket
type TicketStatus string

const (
	TicketStatusReserved  TicketStatus = "RESERVED"
	TicketStatusPaid      TicketStatus = "PAID"
	TicketStatusCancelled TicketStatus = "CANCELLED"
	TicketStatusUsed      TicketStatus = "USED"
)

// ActiveTicketStatuses are the states that count against seat capacity.
// Cancelled tickets free their seat immediately because availability is
// always recomputed from this set, never stored.
var ActiveTicketStatuses = []TicketStatus{
	TicketStatusReserved,
	TicketStatusPaid,
	TicketStatusUsed,
}

// Ticket is a reservation against a physical route. Virtual routes never
// carry tickets; the booking flow materializes the route first.
type Ticket struct {
	ID                string       `json:"id" db:"id"`
	RouteID           string       `json:"route_id" db:"route_id"`
	UserID            string       `json:"user_id" db:"user_id"`
	Status            TicketStatus `json:"status" db:"status"`
	TicketCode        string       `json:"ticket_code" db:"ticket_code"`
	Passenger         string       `json:"passenger" db:"passenger"`
	PassengerDocument string       `json:"passenger_document" db:"passenger_document"`
	SeatNumber        *string      `json:"seat_number,omitempty" db:"seat_number"`
	PaymentID         *string      `json:"payment_id,omitempty" db:"payment_id"`
	CreatedAt         time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at" db:"updated_at"`
}

// CanTransitionTo reports whether moving to the target status is a legal
// lifecycle step: RESERVED -> PAID -> USED, with cancellation allowed from
// RESERVED and PAID. USED and CANCELLED are terminal.
func (t *Ticket) CanTransitionTo(target TicketStatus) bool {
	switch t.Status {
	case TicketStatusReserved:
		return target == TicketStatusPaid || target == TicketStatusCancelled
	case TicketStatusPaid:
		return target == TicketStatusUsed || target == TicketStatusCancelled
	default:
		return false
	}
}

// CanBeCancelled reports whether the ticket is still cancellable
func (t *Ticket) CanBeCancelled() bool {
	return t.Status == TicketStatusReserved || t.Status == TicketStatusPaid
}

// PassengerInfo identifies one passenger in a reservation request
type PassengerInfo struct {
	Name       string  `json:"name" binding:"required"`
	Document   string  `json:"document" binding:"required"`
	SeatNumber *string `json:"seat_number,omitempty"`
}

// ReserveTicketRequest represents a single-seat reservation request. The
// route ID may be either a physical route ID or a virtual occurrence ID.
type ReserveTicketRequest struct {
	RouteID           string  `json:"route_id" binding:"required"`
	Passenger         string  `json:"passenger" binding:"required"`
	PassengerDocument string  `json:"passenger_document" binding:"required"`
	SeatNumber        *string `json:"seat_number,omitempty"`
}

// ReserveMultipleRequest represents a reservation for several passengers on
// the same route.
type ReserveMultipleRequest struct {
	RouteID    string          `json:"route_id" binding:"required"`
	Passengers []PassengerInfo `json:"passengers" binding:"required,min=1"`
}

// ReservationOutcome reports the result for one passenger of a multi-seat
// reservation. Reservations are best-effort: earlier successes are kept
// when a later passenger fails.
type ReservationOutcome struct {
	Passenger string  `json:"passenger"`
	Ticket    *Ticket `json:"ticket,omitempty"`
	Error     string  `json:"error,omitempty"`
}
