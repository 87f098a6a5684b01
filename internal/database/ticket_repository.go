package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/viajabr/marketplace-backend/internal/models"
)

// TicketRepository handles database operations for the tickets table
type TicketRepository struct {
	db        DB
	routeRepo *RouteRepository
}

// NewTicketRepository creates a new TicketRepository
func NewTicketRepository(db DB, routeRepo *RouteRepository) *TicketRepository {
	return &TicketRepository{db: db, routeRepo: routeRepo}
}

const ticketColumns = `
	id, route_id, user_id, status, ticket_code, passenger,
	passenger_document, seat_number, payment_id, created_at, updated_at
`

// ReserveSeat creates a ticket in RESERVED state iff the route still has a
// free seat. The capacity check and the insert run in one transaction that
// holds a row lock on the route, so concurrent reservations of the last
// seat serialize: exactly one inserts, the rest fail with ErrSoldOut. A
// duplicate ticket code surfaces as ErrConflict so the caller can retry
// with a fresh code.
func (r *TicketRepository) ReserveSeat(ticket *models.Ticket) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin reservation: %w", err)
	}
	defer tx.Rollback()

	route, err := r.routeRepo.LockForBooking(tx, ticket.RouteID)
	if err != nil {
		return err
	}
	if !route.Active {
		return fmt.Errorf("route %s is not active: %w", route.ID, models.ErrNotFound)
	}

	available, err := r.routeRepo.GetAvailableSeatsTx(tx, ticket.RouteID)
	if err != nil {
		return err
	}
	if available < 1 {
		return fmt.Errorf("route %s: %w", route.ID, models.ErrSoldOut)
	}

	if err := r.createTx(tx, ticket); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reservation: %w", err)
	}

	return nil
}

func (r *TicketRepository) createTx(tx *sqlx.Tx, ticket *models.Ticket) error {
	query := `
		INSERT INTO tickets (
			id, route_id, user_id, status, ticket_code, passenger,
			passenger_document, seat_number
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
		RETURNING created_at, updated_at
	`

	if ticket.ID == "" {
		ticket.ID = uuid.New().String()
	}

	err := tx.QueryRow(
		query,
		ticket.ID, ticket.RouteID, ticket.UserID, ticket.Status, ticket.TicketCode,
		ticket.Passenger, ticket.PassengerDocument, ticket.SeatNumber,
	).Scan(&ticket.CreatedAt, &ticket.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "tickets_ticket_code_key") {
			return fmt.Errorf("ticket code %s already taken: %w", ticket.TicketCode, models.ErrConflict)
		}
		return fmt.Errorf("failed to create ticket: %w", err)
	}

	return nil
}

// GetByID retrieves a ticket by ID
func (r *TicketRepository) GetByID(id string) (*models.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`

	var ticket models.Ticket
	if err := r.db.Get(&ticket, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("ticket %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}

	return &ticket, nil
}

// GetByCode retrieves a ticket by its human-readable code
func (r *TicketRepository) GetByCode(code string) (*models.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE ticket_code = $1`

	var ticket models.Ticket
	if err := r.db.Get(&ticket, query, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("ticket %s: %w", code, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}

	return &ticket, nil
}

// ListByUser retrieves a page of the user's tickets, newest first
func (r *TicketRepository) ListByUser(userID string, page, limit int) ([]models.Ticket, int, error) {
	offset := (page - 1) * limit

	var total int
	if err := r.db.Get(&total, `SELECT COUNT(*) FROM tickets WHERE user_id = $1`, userID); err != nil {
		return nil, 0, fmt.Errorf("failed to count tickets: %w", err)
	}

	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	tickets := []models.Ticket{}
	if err := r.db.Select(&tickets, query, userID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list tickets: %w", err)
	}

	return tickets, total, nil
}

// UpdateStatus transitions a ticket to a new status
func (r *TicketRepository) UpdateStatus(id string, status models.TicketStatus) (*models.Ticket, error) {
	query := `
		UPDATE tickets SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + ticketColumns

	var ticket models.Ticket
	if err := r.db.Get(&ticket, query, id, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("ticket %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update ticket status: %w", err)
	}

	return &ticket, nil
}

// MarkPaid transitions the given reserved tickets to PAID and links them to
// the payment, all inside the payment transaction.
func (r *TicketRepository) MarkPaid(tx *sqlx.Tx, ticketIDs []string, paymentID string) error {
	query := `
		UPDATE tickets SET status = $2, payment_id = $3, updated_at = now()
		WHERE id = ANY($1) AND status = $4
	`

	result, err := tx.Exec(query, pq.Array(ticketIDs), models.TicketStatusPaid, paymentID, models.TicketStatusReserved)
	if err != nil {
		return fmt.Errorf("failed to mark tickets paid: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to mark tickets paid: %w", err)
	}
	if int(rows) != len(ticketIDs) {
		return fmt.Errorf("expected %d reserved tickets, updated %d: %w", len(ticketIDs), rows, models.ErrConflict)
	}

	return nil
}

// GetTicketRoute retrieves the physical route a ticket is booked on
func (r *TicketRepository) GetTicketRoute(ticketID string) (*models.Route, error) {
	query := `
		SELECT r.id, r.company_id, r.origin, r.origin_state, r.origin_country, r.origin_type,
		       r.destination, r.destination_state, r.destination_country, r.destination_type,
		       r.departure_time, r.arrival_time, r.price, r.type, r.total_seats, r.active,
		       r.created_at, r.updated_at
		FROM routes r
		JOIN tickets t ON t.route_id = r.id
		WHERE t.id = $1
	`

	var route models.Route
	if err := r.db.Get(&route, query, ticketID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("ticket %s: %w", ticketID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get ticket route: %w", err)
	}

	return &route, nil
}
