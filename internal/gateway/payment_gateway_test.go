package gateway

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viajabr/marketplace-backend/internal/models"
)

func newTestGateway() *MockGateway {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewMockGateway(logger)
}

func TestCharge(t *testing.T) {
	gw := newTestGateway()

	t.Run("Card Settles Immediately", func(t *testing.T) {
		result, err := gw.Charge(ChargeRequest{
			UserID: "user-1",
			Amount: 250,
			Method: models.PaymentMethodCreditCard,
			Card:   &models.CardData{Number: "4242424242424242"},
		})
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusPaid, result.Status)
		assert.NotEmpty(t, result.ExternalID)
	})

	t.Run("Decline Card", func(t *testing.T) {
		result, err := gw.Charge(ChargeRequest{
			UserID: "user-1",
			Amount: 250,
			Method: models.PaymentMethodCreditCard,
			Card:   &models.CardData{Number: "4000000000000002"},
		})
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusFailed, result.Status)
	})

	t.Run("Card Data Required", func(t *testing.T) {
		_, err := gw.Charge(ChargeRequest{
			UserID: "user-1",
			Amount: 250,
			Method: models.PaymentMethodDebitCard,
		})
		assert.Error(t, err)
	})

	t.Run("Pix Comes Back Pending With QR", func(t *testing.T) {
		result, err := gw.Charge(ChargeRequest{
			UserID: "user-1",
			Amount: 250,
			Method: models.PaymentMethodPix,
		})
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusPending, result.Status)
		assert.NotEmpty(t, result.PixQRCode)
	})

	t.Run("Non-Positive Amount", func(t *testing.T) {
		_, err := gw.Charge(ChargeRequest{
			UserID: "user-1",
			Amount: 0,
			Method: models.PaymentMethodPix,
		})
		assert.Error(t, err)
	})
}

func TestRefund(t *testing.T) {
	gw := newTestGateway()

	result, err := gw.Charge(ChargeRequest{
		UserID: "user-1",
		Amount: 100,
		Method: models.PaymentMethodBoleto,
	})
	require.NoError(t, err)

	assert.NoError(t, gw.Refund(result.ExternalID))
	assert.Error(t, gw.Refund("charge-from-elsewhere"))
}
