package services

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/viajabr/marketplace-backend/internal/database"
	"github.com/viajabr/marketplace-backend/internal/events"
	"github.com/viajabr/marketplace-backend/internal/gateway"
	"github.com/viajabr/marketplace-backend/internal/models"
)

// PaymentService charges reserved tickets through the payment gateway and
// flips them to PAID. Recording the payment and updating the tickets happen
// in one transaction; a gateway charge that settles without its tickets is
// not a state this service can produce.
type PaymentService struct {
	payments *database.PaymentRepository
	tickets  *database.TicketRepository
	gateway  gateway.PaymentGateway
	events   events.Publisher
	logger   *logrus.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(payments *database.PaymentRepository, tickets *database.TicketRepository, gw gateway.PaymentGateway, publisher events.Publisher, logger *logrus.Logger) *PaymentService {
	return &PaymentService{
		payments: payments,
		tickets:  tickets,
		gateway:  gw,
		events:   publisher,
		logger:   logger,
	}
}

// PayTickets charges the user for a batch of their reserved tickets. Card
// payments settle synchronously and mark the tickets PAID; PIX and boleto
// come back pending, tickets stay RESERVED until the gateway confirms.
func (s *PaymentService) PayTickets(userID string, req *models.PayTicketsRequest) (*models.PayTicketsResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var amount float64
	for _, id := range req.TicketIDs {
		ticket, err := s.tickets.GetByID(id)
		if err != nil {
			return nil, err
		}
		if ticket.UserID != userID {
			return nil, fmt.Errorf("ticket %s belongs to another user: %w", id, models.ErrForbidden)
		}
		if !ticket.CanTransitionTo(models.TicketStatusPaid) {
			return nil, fmt.Errorf("ticket %s is %s, not RESERVED: %w", id, ticket.Status, models.ErrConflict)
		}

		route, err := s.tickets.GetTicketRoute(id)
		if err != nil {
			return nil, err
		}
		amount += route.Price
	}

	chargeReq := gateway.ChargeRequest{
		UserID: userID,
		Amount: amount,
		Method: models.PaymentMethod(req.Method),
		Card:   req.Card,
	}
	if req.PixKey != nil {
		chargeReq.PixKey = *req.PixKey
	}

	result, err := s.gateway.Charge(chargeReq)
	if err != nil {
		return nil, fmt.Errorf("gateway charge failed: %w", err)
	}
	if result.Status == models.PaymentStatusFailed {
		s.logger.WithFields(logrus.Fields{
			"user_id":     userID,
			"external_id": result.ExternalID,
			"amount":      amount,
		}).Warn("Payment declined")
		return nil, models.ErrPaymentDeclined
	}

	payment := &models.Payment{
		UserID:     userID,
		Status:     result.Status,
		Method:     models.PaymentMethod(req.Method),
		Amount:     amount,
		ExternalID: &result.ExternalID,
	}

	tx, err := s.payments.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.payments.CreateTx(tx, payment); err != nil {
		return nil, err
	}

	if result.Status == models.PaymentStatusPaid {
		if err := s.tickets.MarkPaid(tx, req.TicketIDs, payment.ID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit payment: %w", err)
	}

	tickets := make([]models.Ticket, 0, len(req.TicketIDs))
	for _, id := range req.TicketIDs {
		ticket, err := s.tickets.GetByID(id)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *ticket)
	}

	if result.Status == models.PaymentStatusPaid {
		s.events.Publish(events.SubjectTicketPaid, models.PayTicketsResponse{Payment: payment, Tickets: tickets})
	}
	s.logger.WithFields(logrus.Fields{
		"payment_id": payment.ID,
		"user_id":    userID,
		"amount":     amount,
		"status":     payment.Status,
		"tickets":    len(tickets),
	}).Info("Processed payment")

	return &models.PayTicketsResponse{Payment: payment, Tickets: tickets}, nil
}

// Get retrieves one of the user's payments
func (s *PaymentService) Get(userID, paymentID string) (*models.Payment, error) {
	payment, err := s.payments.GetByID(paymentID)
	if err != nil {
		return nil, err
	}
	if payment.UserID != userID {
		return nil, fmt.Errorf("payment %s belongs to another user: %w", paymentID, models.ErrForbidden)
	}
	return payment, nil
}

// ListMine retrieves the user's payments, newest first
func (s *PaymentService) ListMine(userID string) ([]models.Payment, error) {
	return s.payments.ListByUser(userID)
}
