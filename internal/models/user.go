package models

import (
	"net/mail"
	"time"
)

// UserRole represents the role of a platform user
type UserRole string

const (
	UserRoleCustomer UserRole = "CUSTOMER"
	UserRoleCompany  UserRole = "COMPANY"
	UserRoleAdmin    UserRole = "ADMIN"
)

// User represents a platform user account
type User struct {
	ID           string    `json:"id" db:"id"`
	CompanyID    *string   `json:"company_id,omitempty" db:"company_id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Document     *string   `json:"document,omitempty" db:"document"`
	Phone        *string   `json:"phone,omitempty" db:"phone"`
	Role         UserRole  `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// RegisterRequest represents the payload for user registration
type RegisterRequest struct {
	Name     string  `json:"name" binding:"required"`
	Email    string  `json:"email" binding:"required"`
	Password string  `json:"password" binding:"required"`
	Document *string `json:"document"`
	Phone    *string `json:"phone"`
}

// Validate validates the registration request
func (r *RegisterRequest) Validate() error {
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return NewValidationError("email", "must be a valid email address")
	}
	if len(r.Password) < 8 {
		return NewValidationError("password", "must be at least 8 characters")
	}
	return nil
}

// AuthenticateRequest represents the login payload
type AuthenticateRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse carries the issued token pair
type AuthResponse struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
