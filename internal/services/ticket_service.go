package services

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/viajabr/marketplace-backend/internal/events"
	"github.com/viajabr/marketplace-backend/internal/metrics"
	"github.com/viajabr/marketplace-backend/internal/models"
	"github.com/viajabr/marketplace-backend/pkg/ticketcode"
)

// TicketStore is the persistence surface the booking flow needs. ReserveSeat
// must enforce capacity atomically: the implementation may not insert a
// ticket unless the route still has a free seat at commit time.
type TicketStore interface {
	ReserveSeat(ticket *models.Ticket) error
	GetByID(id string) (*models.Ticket, error)
	GetByCode(code string) (*models.Ticket, error)
	ListByUser(userID string, page, limit int) ([]models.Ticket, int, error)
	UpdateStatus(id string, status models.TicketStatus) (*models.Ticket, error)
	GetTicketRoute(ticketID string) (*models.Route, error)
}

// TicketService orchestrates the booking flow: virtual occurrences are
// materialized on demand, capacity is checked at the data layer, and a
// RESERVED ticket comes back with a fresh human-readable code.
type TicketService struct {
	tickets   TicketStore
	generator *RouteGeneratorService
	metrics   *metrics.Collector
	events    events.Publisher
	logger    *logrus.Logger
}

// NewTicketService creates a new TicketService
func NewTicketService(tickets TicketStore, generator *RouteGeneratorService, collector *metrics.Collector, publisher events.Publisher, logger *logrus.Logger) *TicketService {
	return &TicketService{
		tickets:   tickets,
		generator: generator,
		metrics:   collector,
		events:    publisher,
		logger:    logger,
	}
}

// Reserve books one seat for the user. The route ID may name a virtual
// occurrence, in which case it is materialized first; a reservation is only
// ever written against a persisted route.
func (s *TicketService) Reserve(userID string, req *models.ReserveTicketRequest) (*models.Ticket, error) {
	routeID, err := s.resolveRouteID(req.RouteID)
	if err != nil {
		return nil, err
	}

	ticket := &models.Ticket{
		RouteID:           routeID,
		UserID:            userID,
		Status:            models.TicketStatusReserved,
		TicketCode:        ticketcode.New(),
		Passenger:         req.Passenger,
		PassengerDocument: req.PassengerDocument,
		SeatNumber:        req.SeatNumber,
	}

	if err := s.reserve(ticket); err != nil {
		return nil, err
	}

	return ticket, nil
}

// reserve writes the ticket, retrying once with a fresh code if the
// generated code collides with an existing one.
func (s *TicketService) reserve(ticket *models.Ticket) error {
	err := s.tickets.ReserveSeat(ticket)
	if errors.Is(err, models.ErrConflict) {
		ticket.ID = ""
		ticket.TicketCode = ticketcode.New()
		err = s.tickets.ReserveSeat(ticket)
	}
	if err != nil {
		if errors.Is(err, models.ErrSoldOut) {
			s.metrics.SoldOutRejects.Inc()
		}
		return err
	}

	s.metrics.TicketsReserved.Inc()
	s.events.Publish(events.SubjectTicketReserved, ticket)
	s.logger.WithFields(logrus.Fields{
		"ticket_id":   ticket.ID,
		"ticket_code": ticket.TicketCode,
		"route_id":    ticket.RouteID,
		"user_id":     ticket.UserID,
	}).Info("Reserved ticket")

	return nil
}

// ReserveMultiple books seats for several passengers on the same route.
// The route is resolved once; each passenger is then reserved
// independently and reported in order. Earlier successes are kept when a
// later passenger fails, so a party can end up partially booked when the
// route fills up mid-request.
func (s *TicketService) ReserveMultiple(userID string, req *models.ReserveMultipleRequest) ([]models.ReservationOutcome, error) {
	routeID, err := s.resolveRouteID(req.RouteID)
	if err != nil {
		return nil, err
	}

	outcomes := make([]models.ReservationOutcome, 0, len(req.Passengers))
	for _, p := range req.Passengers {
		ticket := &models.Ticket{
			RouteID:           routeID,
			UserID:            userID,
			Status:            models.TicketStatusReserved,
			TicketCode:        ticketcode.New(),
			Passenger:         p.Name,
			PassengerDocument: p.Document,
			SeatNumber:        p.SeatNumber,
		}

		outcome := models.ReservationOutcome{Passenger: p.Name}
		if err := s.reserve(ticket); err != nil {
			outcome.Error = err.Error()
		} else {
			outcome.Ticket = ticket
		}
		outcomes = append(outcomes, outcome)
	}

	return outcomes, nil
}

// resolveRouteID maps a virtual occurrence ID to its materialized physical
// route, passing physical IDs through untouched.
func (s *TicketService) resolveRouteID(routeID string) (string, error) {
	if !models.IsVirtualRouteID(routeID) {
		return routeID, nil
	}

	route, err := s.generator.MaterializeRoute(routeID)
	if err != nil {
		return "", err
	}

	return route.ID, nil
}

// Get retrieves a ticket, enforcing that customers only see their own
func (s *TicketService) Get(actorID string, actorRole models.UserRole, ticketID string) (*models.Ticket, error) {
	ticket, err := s.tickets.GetByID(ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.UserID != actorID && actorRole != models.UserRoleAdmin {
		return nil, fmt.Errorf("ticket %s belongs to another user: %w", ticketID, models.ErrForbidden)
	}
	return ticket, nil
}

// ListMine retrieves a page of the user's tickets
func (s *TicketService) ListMine(userID string, page, limit int) ([]models.Ticket, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return s.tickets.ListByUser(userID, page, limit)
}

// Cancel cancels a ticket, freeing its seat immediately: availability is
// derived from active tickets, so no counter needs updating.
func (s *TicketService) Cancel(actorID string, actorRole models.UserRole, ticketID string) (*models.Ticket, error) {
	ticket, err := s.tickets.GetByID(ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.UserID != actorID && actorRole != models.UserRoleAdmin {
		return nil, fmt.Errorf("ticket %s belongs to another user: %w", ticketID, models.ErrForbidden)
	}
	if !ticket.CanBeCancelled() {
		return nil, fmt.Errorf("ticket %s is %s: %w", ticketID, ticket.Status, models.ErrConflict)
	}

	updated, err := s.tickets.UpdateStatus(ticketID, models.TicketStatusCancelled)
	if err != nil {
		return nil, err
	}

	s.metrics.TicketsCancelled.Inc()
	s.events.Publish(events.SubjectTicketCancelled, updated)
	s.logger.WithFields(logrus.Fields{
		"ticket_id": ticketID,
		"route_id":  updated.RouteID,
	}).Info("Cancelled ticket")

	return updated, nil
}

// Use redeems a paid ticket at boarding. Only the operating company may
// redeem, and only a PAID ticket can become USED.
func (s *TicketService) Use(companyID string, code string) (*models.Ticket, error) {
	ticket, err := s.tickets.GetByCode(code)
	if err != nil {
		return nil, err
	}

	route, err := s.tickets.GetTicketRoute(ticket.ID)
	if err != nil {
		return nil, err
	}
	if route.CompanyID != companyID {
		return nil, fmt.Errorf("ticket %s belongs to another company's route: %w", code, models.ErrForbidden)
	}

	if !ticket.CanTransitionTo(models.TicketStatusUsed) {
		return nil, fmt.Errorf("ticket %s is %s, not PAID: %w", code, ticket.Status, models.ErrConflict)
	}

	updated, err := s.tickets.UpdateStatus(ticket.ID, models.TicketStatusUsed)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"ticket_id":   ticket.ID,
		"ticket_code": code,
	}).Info("Ticket used")

	return updated, nil
}
