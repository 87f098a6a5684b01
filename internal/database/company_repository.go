package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/viajabr/marketplace-backend/internal/models"
)

// CompanyRepository handles database operations for the companies table
type CompanyRepository struct {
	db DB
}

// NewCompanyRepository creates a new CompanyRepository
func NewCompanyRepository(db DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

const companyColumns = `
	id, user_id, tax_id, trading_name, legal_name, logo, approved,
	created_at, updated_at
`

// Create inserts a new company pending approval
func (r *CompanyRepository) Create(company *models.Company) error {
	query := `
		INSERT INTO companies (id, user_id, tax_id, trading_name, legal_name, logo)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	if company.ID == "" {
		company.ID = uuid.New().String()
	}

	err := r.db.QueryRow(
		query,
		company.ID, company.UserID, company.TaxID, company.TradingName,
		company.LegalName, company.Logo,
	).Scan(&company.CreatedAt, &company.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "companies_tax_id_key") {
			return fmt.Errorf("company with tax id %s already exists: %w", company.TaxID, models.ErrConflict)
		}
		return fmt.Errorf("failed to create company: %w", err)
	}

	return nil
}

// GetByID retrieves a company by ID
func (r *CompanyRepository) GetByID(id string) (*models.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE id = $1`

	var company models.Company
	if err := r.db.Get(&company, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("company %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}

	return &company, nil
}

// GetByUserID retrieves the company owned by a user
func (r *CompanyRepository) GetByUserID(userID string) (*models.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE user_id = $1`

	var company models.Company
	if err := r.db.Get(&company, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("company for user %s: %w", userID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}

	return &company, nil
}

// List retrieves a page of companies, optionally filtered by approval state
func (r *CompanyRepository) List(approved *bool, page, limit int) ([]models.Company, int, error) {
	offset := (page - 1) * limit

	where := ""
	args := []interface{}{}
	if approved != nil {
		where = ` WHERE approved = $1`
		args = append(args, *approved)
	}

	var total int
	if err := r.db.Get(&total, `SELECT COUNT(*) FROM companies`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count companies: %w", err)
	}

	query := `SELECT ` + companyColumns + ` FROM companies` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	companies := []models.Company{}
	if err := r.db.Select(&companies, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list companies: %w", err)
	}

	return companies, total, nil
}

// Update applies the non-nil fields of the update request
func (r *CompanyRepository) Update(id string, req *models.UpdateCompanyRequest) (*models.Company, error) {
	query := `
		UPDATE companies SET
			trading_name = COALESCE($2, trading_name),
			legal_name = COALESCE($3, legal_name),
			logo = COALESCE($4, logo),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + companyColumns

	var company models.Company
	if err := r.db.Get(&company, query, id, req.TradingName, req.LegalName, req.Logo); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("company %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update company: %w", err)
	}

	return &company, nil
}

// SetApproved flips the approval flag (admin approve/reject workflow)
func (r *CompanyRepository) SetApproved(id string, approved bool) error {
	result, err := r.db.Exec(`UPDATE companies SET approved = $2, updated_at = now() WHERE id = $1`, id, approved)
	if err != nil {
		return fmt.Errorf("failed to set company approval: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to set company approval: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("company %s: %w", id, models.ErrNotFound)
	}

	return nil
}

// Delete removes a company
func (r *CompanyRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM companies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete company: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete company: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("company %s: %w", id, models.ErrNotFound)
	}

	return nil
}
