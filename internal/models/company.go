package models

import (
	"time"
)

// Company represents a transport company on the marketplace. Companies must
// be approved by an admin before their routes and templates go live.
type Company struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	TaxID       string    `json:"tax_id" db:"tax_id"`
	TradingName string    `json:"trading_name" db:"trading_name"`
	LegalName   string    `json:"legal_name" db:"legal_name"`
	Logo        *string   `json:"logo,omitempty" db:"logo"`
	Approved    bool      `json:"approved" db:"approved"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// CreateCompanyRequest represents the payload for company onboarding
type CreateCompanyRequest struct {
	TaxID       string  `json:"tax_id" binding:"required"`
	TradingName string  `json:"trading_name" binding:"required"`
	LegalName   string  `json:"legal_name" binding:"required"`
	Logo        *string `json:"logo"`
}

// UpdateCompanyRequest represents the payload for updating a company
type UpdateCompanyRequest struct {
	TradingName *string `json:"trading_name,omitempty"`
	LegalName   *string `json:"legal_name,omitempty"`
	Logo        *string `json:"logo,omitempty"`
}
