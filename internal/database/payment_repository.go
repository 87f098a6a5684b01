package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/viajabr/marketplace-backend/internal/models"
)

// PaymentRepository handles database operations for the payments table
type PaymentRepository struct {
	db DB
}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(db DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `
	id, user_id, status, method, amount, external_id, created_at, updated_at
`

// Begin starts a payment transaction. Recording the payment and flipping
// ticket statuses commit together or not at all.
func (r *PaymentRepository) Begin() (*sqlx.Tx, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin payment transaction: %w", err)
	}
	return tx, nil
}

// CreateTx inserts a payment record within a transaction
func (r *PaymentRepository) CreateTx(tx *sqlx.Tx, payment *models.Payment) error {
	query := `
		INSERT INTO payments (id, user_id, status, method, amount, external_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}

	err := tx.QueryRow(
		query,
		payment.ID, payment.UserID, payment.Status, payment.Method,
		payment.Amount, payment.ExternalID,
	).Scan(&payment.CreatedAt, &payment.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

// GetByID retrieves a payment by ID
func (r *PaymentRepository) GetByID(id string) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	var payment models.Payment
	if err := r.db.Get(&payment, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("payment %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	return &payment, nil
}

// ListByUser retrieves a user's payments, newest first
func (r *PaymentRepository) ListByUser(userID string) ([]models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE user_id = $1 ORDER BY created_at DESC`

	payments := []models.Payment{}
	if err := r.db.Select(&payments, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	return payments, nil
}
