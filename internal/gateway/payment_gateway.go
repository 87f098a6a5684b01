package gateway

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/viajabr/marketplace-backend/internal/models"
)

// ChargeRequest is a single charge attempt against the gateway
type ChargeRequest struct {
	UserID string
	Amount float64
	Method models.PaymentMethod
	Card   *models.CardData
	PixKey string
}

// ChargeResult is the gateway's answer to a charge attempt
type ChargeResult struct {
	ExternalID string
	Status     models.PaymentStatus
	// PixQRCode is set for PIX charges awaiting customer confirmation
	PixQRCode string
}

// PaymentGateway abstracts the payment provider. The marketplace never
// stores card data; it passes it through to the gateway and keeps only
// the external charge ID.
type PaymentGateway interface {
	Charge(req ChargeRequest) (*ChargeResult, error)
	Refund(externalID string) error
}

// MockGateway simulates a payment provider for development and sandbox
// environments. Card charges settle immediately; PIX charges come back
// pending with a QR code payload.
type MockGateway struct {
	logger *logrus.Logger
}

// NewMockGateway creates a new MockGateway
func NewMockGateway(logger *logrus.Logger) *MockGateway {
	return &MockGateway{logger: logger}
}

// declineSuffix marks test cards that always decline
const declineSuffix = "0002"

// Charge simulates a charge
func (g *MockGateway) Charge(req ChargeRequest) (*ChargeResult, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("charge amount must be positive, got %.2f", req.Amount)
	}

	externalID := "mock_" + uuid.New().String()

	switch req.Method {
	case models.PaymentMethodCreditCard, models.PaymentMethodDebitCard:
		if req.Card == nil {
			return nil, fmt.Errorf("card data is required for card charges")
		}
		if strings.HasSuffix(req.Card.Number, declineSuffix) {
			g.logger.WithField("external_id", externalID).Info("Mock gateway declined card charge")
			return &ChargeResult{ExternalID: externalID, Status: models.PaymentStatusFailed}, nil
		}
		return &ChargeResult{ExternalID: externalID, Status: models.PaymentStatusPaid}, nil

	case models.PaymentMethodPix:
		qr := fmt.Sprintf("00020126mock%s5204%d", externalID, time.Now().Unix())
		return &ChargeResult{ExternalID: externalID, Status: models.PaymentStatusPending, PixQRCode: qr}, nil

	case models.PaymentMethodBoleto:
		return &ChargeResult{ExternalID: externalID, Status: models.PaymentStatusPending}, nil

	default:
		return nil, fmt.Errorf("unsupported payment method: %s", req.Method)
	}
}

// Refund simulates a refund
func (g *MockGateway) Refund(externalID string) error {
	if !strings.HasPrefix(externalID, "mock_") {
		return fmt.Errorf("unknown charge %s", externalID)
	}
	g.logger.WithField("external_id", externalID).Info("Mock gateway refunded charge")
	return nil
}
