package services

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/viajabr/marketplace-backend/internal/models"
)

// TemplateManagementStore widens TemplateStore with the write surface the
// template CRUD endpoints need.
type TemplateManagementStore interface {
	TemplateStore
	Create(t *models.RouteTemplate) error
	ListByCompany(companyID string, page, limit int) ([]models.RouteTemplate, int, error)
	Update(id string, req *models.UpdateRouteTemplateRequest) (*models.RouteTemplate, error)
	Delete(id string) error
}

// TemplateService manages a company's recurring schedule templates. All
// weekday and clock validation happens here, at the write boundary, so
// the generator can treat malformed persisted data as an anomaly rather
// than a normal case.
type TemplateService struct {
	templates TemplateManagementStore
	logger    *logrus.Logger
}

// NewTemplateService creates a new TemplateService
func NewTemplateService(templates TemplateManagementStore, logger *logrus.Logger) *TemplateService {
	return &TemplateService{templates: templates, logger: logger}
}

// Create registers a new weekly template for the company
func (s *TemplateService) Create(companyID string, req *models.CreateRouteTemplateRequest) (*models.RouteTemplate, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	template := &models.RouteTemplate{
		CompanyID:          companyID,
		Origin:             req.Origin,
		OriginState:        req.OriginState,
		OriginCountry:      req.OriginCountry,
		OriginType:         models.LocationType(req.OriginType),
		Destination:        req.Destination,
		DestinationState:   req.DestinationState,
		DestinationCountry: req.DestinationCountry,
		DestinationType:    models.LocationType(req.DestinationType),
		DepartureTime:      req.DepartureTime,
		ArrivalTime:        req.ArrivalTime,
		DaysOfWeek:         models.IntArray(req.DaysOfWeek),
		Price:              req.Price,
		Type:               models.TransportType(req.Type),
		TotalSeats:         req.TotalSeats,
		Active:             true,
	}

	if err := s.templates.Create(template); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"template_id": template.ID,
		"company_id":  companyID,
	}).Info("Created route template")

	return template, nil
}

// Get retrieves one of the company's templates
func (s *TemplateService) Get(companyID, templateID string) (*models.RouteTemplate, error) {
	template, err := s.templates.GetByID(templateID)
	if err != nil {
		return nil, err
	}
	if template.CompanyID != companyID {
		return nil, fmt.Errorf("template %s belongs to another company: %w", templateID, models.ErrForbidden)
	}
	return template, nil
}

// List retrieves a page of the company's templates
func (s *TemplateService) List(companyID string, page, limit int) ([]models.RouteTemplate, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return s.templates.ListByCompany(companyID, page, limit)
}

// Update applies changes to a company's own template. Already-materialized
// occurrences are not touched; the new schedule only affects future
// expansions.
func (s *TemplateService) Update(companyID, templateID string, req *models.UpdateRouteTemplateRequest) (*models.RouteTemplate, error) {
	if _, err := s.Get(companyID, templateID); err != nil {
		return nil, err
	}

	if req.DaysOfWeek != nil {
		probe := models.RouteTemplate{DaysOfWeek: models.IntArray(req.DaysOfWeek)}
		if !probe.ValidDaysOfWeek() {
			return nil, models.NewValidationError("days_of_week", "weekdays must be between 0 (Sunday) and 6 (Saturday)")
		}
	}
	if req.DepartureTime != nil {
		if _, _, err := models.ParseClock(*req.DepartureTime); err != nil {
			return nil, models.NewValidationError("departure_time", "must be in HH:MM format")
		}
	}
	if req.ArrivalTime != nil {
		if _, _, err := models.ParseClock(*req.ArrivalTime); err != nil {
			return nil, models.NewValidationError("arrival_time", "must be in HH:MM format")
		}
	}

	return s.templates.Update(templateID, req)
}

// Delete removes a company's template. Routes already materialized from it
// survive; only future expansion stops.
func (s *TemplateService) Delete(companyID, templateID string) error {
	if _, err := s.Get(companyID, templateID); err != nil {
		return err
	}
	return s.templates.Delete(templateID)
}
