package services

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/viajabr/marketplace-backend/internal/database"
	"github.com/viajabr/marketplace-backend/internal/models"
)

// CompanyService handles company onboarding and the admin approval flow
type CompanyService struct {
	companies *database.CompanyRepository
	users     *database.UserRepository
	logger    *logrus.Logger
}

// NewCompanyService creates a new CompanyService
func NewCompanyService(companies *database.CompanyRepository, users *database.UserRepository, logger *logrus.Logger) *CompanyService {
	return &CompanyService{
		companies: companies,
		users:     users,
		logger:    logger,
	}
}

// Register onboards a new company owned by the user. The account gains the
// COMPANY role immediately, but routes and templates only surface in search
// once an admin approves the company.
func (s *CompanyService) Register(userID string, req *models.CreateCompanyRequest) (*models.Company, error) {
	company := &models.Company{
		UserID:      userID,
		TaxID:       req.TaxID,
		TradingName: req.TradingName,
		LegalName:   req.LegalName,
		Logo:        req.Logo,
	}

	if err := s.companies.Create(company); err != nil {
		return nil, err
	}

	if err := s.users.SetCompany(userID, company.ID); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"company_id":   company.ID,
		"user_id":      userID,
		"trading_name": company.TradingName,
	}).Info("Registered company")

	return company, nil
}

// Get retrieves a company by ID
func (s *CompanyService) Get(companyID string) (*models.Company, error) {
	return s.companies.GetByID(companyID)
}

// GetMine retrieves the company owned by the user
func (s *CompanyService) GetMine(userID string) (*models.Company, error) {
	return s.companies.GetByUserID(userID)
}

// List retrieves a page of companies, optionally filtered by approval state
func (s *CompanyService) List(approved *bool, page, limit int) ([]models.Company, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return s.companies.List(approved, page, limit)
}

// Update applies changes to the user's own company
func (s *CompanyService) Update(userID, companyID string, req *models.UpdateCompanyRequest) (*models.Company, error) {
	company, err := s.companies.GetByID(companyID)
	if err != nil {
		return nil, err
	}
	if company.UserID != userID {
		return nil, fmt.Errorf("company %s belongs to another user: %w", companyID, models.ErrForbidden)
	}

	return s.companies.Update(companyID, req)
}

// SetApproval approves or rejects a company (admin only, enforced at the
// routing layer)
func (s *CompanyService) SetApproval(companyID string, approved bool) (*models.Company, error) {
	if err := s.companies.SetApproved(companyID, approved); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"company_id": companyID,
		"approved":   approved,
	}).Info("Updated company approval")

	return s.companies.GetByID(companyID)
}
