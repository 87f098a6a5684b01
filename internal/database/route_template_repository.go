package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/viajabr/marketplace-backend/internal/models"
)

// RouteTemplateRepository handles database operations for the
// route_templates table.
type RouteTemplateRepository struct {
	db DB
}

// NewRouteTemplateRepository creates a new RouteTemplateRepository
func NewRouteTemplateRepository(db DB) *RouteTemplateRepository {
	return &RouteTemplateRepository{db: db}
}

const routeTemplateColumns = `
	id, company_id, origin, origin_state, origin_country, origin_type,
	destination, destination_state, destination_country, destination_type,
	departure_time, arrival_time, days_of_week, price, type, total_seats,
	active, created_at, updated_at
`

// Create inserts a new route template
func (r *RouteTemplateRepository) Create(t *models.RouteTemplate) error {
	query := `
		INSERT INTO route_templates (
			id, company_id, origin, origin_state, origin_country, origin_type,
			destination, destination_state, destination_country, destination_type,
			departure_time, arrival_time, days_of_week, price, type, total_seats, active
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17
		)
		RETURNING created_at, updated_at
	`

	if t.ID == "" {
		t.ID = uuid.New().String()
	}

	err := r.db.QueryRow(
		query,
		t.ID, t.CompanyID, t.Origin, t.OriginState, t.OriginCountry, t.OriginType,
		t.Destination, t.DestinationState, t.DestinationCountry, t.DestinationType,
		t.DepartureTime, t.ArrivalTime, t.DaysOfWeek, t.Price, t.Type, t.TotalSeats, t.Active,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create route template: %w", err)
	}

	return nil
}

// GetByID retrieves a route template by ID
func (r *RouteTemplateRepository) GetByID(id string) (*models.RouteTemplate, error) {
	query := `SELECT ` + routeTemplateColumns + ` FROM route_templates WHERE id = $1`

	var t models.RouteTemplate
	if err := r.db.Get(&t, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("route template %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get route template: %w", err)
	}

	return &t, nil
}

// FindByOriginAndDestination retrieves active templates whose origin and
// destination match the given names (case-insensitive partial match),
// optionally filtered by transport type.
func (r *RouteTemplateRepository) FindByOriginAndDestination(origin, destination, transportType string) ([]models.RouteTemplate, error) {
	query := `
		SELECT ` + routeTemplateColumns + `
		FROM route_templates
		WHERE active
		  AND origin ILIKE '%' || $1 || '%'
		  AND destination ILIKE '%' || $2 || '%'
	`
	args := []interface{}{origin, destination}

	if transportType != "" {
		query += ` AND type = $3`
		args = append(args, transportType)
	}
	query += ` ORDER BY departure_time`

	templates := []models.RouteTemplate{}
	if err := r.db.Select(&templates, query, args...); err != nil {
		return nil, fmt.Errorf("failed to find route templates: %w", err)
	}

	return templates, nil
}

// ListByCompany retrieves a page of templates owned by a company
func (r *RouteTemplateRepository) ListByCompany(companyID string, page, limit int) ([]models.RouteTemplate, int, error) {
	offset := (page - 1) * limit

	var total int
	if err := r.db.Get(&total, `SELECT COUNT(*) FROM route_templates WHERE company_id = $1`, companyID); err != nil {
		return nil, 0, fmt.Errorf("failed to count route templates: %w", err)
	}

	query := `
		SELECT ` + routeTemplateColumns + `
		FROM route_templates
		WHERE company_id = $1
		ORDER BY departure_time
		LIMIT $2 OFFSET $3
	`

	templates := []models.RouteTemplate{}
	if err := r.db.Select(&templates, query, companyID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list route templates: %w", err)
	}

	return templates, total, nil
}

// Update applies the non-nil fields of the update request
func (r *RouteTemplateRepository) Update(id string, req *models.UpdateRouteTemplateRequest) (*models.RouteTemplate, error) {
	query := `
		UPDATE route_templates SET
			departure_time = COALESCE($2, departure_time),
			arrival_time = COALESCE($3, arrival_time),
			days_of_week = COALESCE($4, days_of_week),
			price = COALESCE($5, price),
			total_seats = COALESCE($6, total_seats),
			active = COALESCE($7, active),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + routeTemplateColumns

	var days models.IntArray
	if req.DaysOfWeek != nil {
		days = models.IntArray(req.DaysOfWeek)
	}

	var t models.RouteTemplate
	err := r.db.Get(&t, query, id, req.DepartureTime, req.ArrivalTime, days, req.Price, req.TotalSeats, req.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("route template %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update route template: %w", err)
	}

	return &t, nil
}

// Delete removes a route template
func (r *RouteTemplateRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM route_templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete route template: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete route template: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("route template %s: %w", id, models.ErrNotFound)
	}

	return nil
}
