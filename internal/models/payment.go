package models

import (
	"time"
)

// PaymentStatus represents the state of a payment
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
	PaymentStatusFailed   PaymentStatus = "FAILED"
)

// PaymentMethod represents how a payment was made
type PaymentMethod string

const (
	PaymentMethodCreditCard PaymentMethod = "CREDIT_CARD"
	PaymentMethodDebitCard  PaymentMethod = "DEBIT_CARD"
	PaymentMethodPix        PaymentMethod = "PIX"
	PaymentMethodBoleto     PaymentMethod = "BOLETO"
)

// IsValid checks whether the payment method is known
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCreditCard, PaymentMethodDebitCard, PaymentMethodPix, PaymentMethodBoleto:
		return true
	}
	return false
}

// Payment records a payment covering one or more tickets
type Payment struct {
	ID         string        `json:"id" db:"id"`
	UserID     string        `json:"user_id" db:"user_id"`
	Status     PaymentStatus `json:"status" db:"status"`
	Method     PaymentMethod `json:"method" db:"method"`
	Amount     float64       `json:"amount" db:"amount"`
	ExternalID *string       `json:"external_id,omitempty" db:"external_id"`
	CreatedAt  time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at" db:"updated_at"`
}

// PayTicketsRequest represents the payload for paying reserved tickets
type PayTicketsRequest struct {
	TicketIDs []string  `json:"ticket_ids" binding:"required,min=1"`
	Method    string    `json:"method" binding:"required"`
	Card      *CardData `json:"card,omitempty"`
	PixKey    *string   `json:"pix_key,omitempty"`
}

// CardData carries card details for card payments. Never logged.
type CardData struct {
	Number         string `json:"number"`
	Holder         string `json:"holder"`
	ExpirationDate string `json:"expiration_date"`
	CVV            string `json:"cvv"`
}

// Validate validates the payment request
func (r *PayTicketsRequest) Validate() error {
	method := PaymentMethod(r.Method)
	if !method.IsValid() {
		return NewValidationError("method", "must be one of CREDIT_CARD, DEBIT_CARD, PIX, BOLETO")
	}
	if (method == PaymentMethodCreditCard || method == PaymentMethodDebitCard) && r.Card == nil {
		return NewValidationError("card", "card data is required for card payments")
	}
	return nil
}

// PayTicketsResponse reports the payment and the updated tickets
type PayTicketsResponse struct {
	Payment *Payment `json:"payment"`
	Tickets []Ticket `json:"tickets"`
}
