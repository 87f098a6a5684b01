package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/viajabr/marketplace-backend/internal/models"
)

// UserRepository handles database operations for the users table
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `
	id, company_id, name, email, password_hash, document, phone, role,
	created_at, updated_at
`

// Create inserts a new user
func (r *UserRepository) Create(user *models.User) error {
	query := `
		INSERT INTO users (id, company_id, name, email, password_hash, document, phone, role)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	err := r.db.QueryRow(
		query,
		user.ID, user.CompanyID, user.Name, user.Email, user.PasswordHash,
		user.Document, user.Phone, user.Role,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return fmt.Errorf("email %s already registered: %w", user.Email, models.ErrConflict)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user models.User
	if err := r.db.Get(&user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	var user models.User
	if err := r.db.Get(&user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", email, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// SetCompany links a user to its company and promotes it to the COMPANY role
func (r *UserRepository) SetCompany(userID, companyID string) error {
	query := `
		UPDATE users SET company_id = $2, role = $3, updated_at = now()
		WHERE id = $1
	`

	result, err := r.db.Exec(query, userID, companyID, models.UserRoleCompany)
	if err != nil {
		return fmt.Errorf("failed to set user company: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to set user company: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user %s: %w", userID, models.ErrNotFound)
	}

	return nil
}
