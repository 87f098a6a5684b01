package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/viajabr/marketplace-backend/internal/models"
)

// queryer is satisfied by both the pooled DB and *sqlx.Tx so repository
// reads can run inside or outside a transaction.
type queryer interface {
	Get(dest interface{}, query string, args ...interface{}) error
	Select(dest interface{}, query string, args ...interface{}) error
	QueryRow(query string, args ...interface{}) *sql.Row
}

// RouteRepository handles database operations for the routes table
type RouteRepository struct {
	db DB
}

// NewRouteRepository creates a new RouteRepository
func NewRouteRepository(db DB) *RouteRepository {
	return &RouteRepository{db: db}
}

// departureTolerance mirrors the generator's ±5-minute matching band;
// departureSlotWidth is the 10-minute bucket of the unique index backstop.
const (
	departureTolerance = 5 * time.Minute
	departureSlotWidth = 10 * time.Minute
)

const routeColumns = `
	id, company_id, origin, origin_state, origin_country, origin_type,
	destination, destination_state, destination_country, destination_type,
	departure_time, arrival_time, price, type, total_seats, active,
	created_at, updated_at
`

// isUniqueViolation reports whether the error is a PostgreSQL
// unique_violation on the given constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "23505" && pqErr.Constraint == constraint
}

// Create inserts a new physical route. A unique violation on the
// (company_id, departure_slot) index means another writer created the same
// occurrence first; that surfaces as models.ErrConflict so callers can
// re-read and return the winner.
func (r *RouteRepository) Create(route *models.Route) error {
	return r.create(r.db, route)
}

func (r *RouteRepository) create(q queryer, route *models.Route) error {
	query := `
		INSERT INTO routes (
			id, company_id, origin, origin_state, origin_country, origin_type,
			destination, destination_state, destination_country, destination_type,
			departure_time, arrival_time, price, type, total_seats, active
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16
		)
		RETURNING created_at, updated_at
	`

	if route.ID == "" {
		route.ID = uuid.New().String()
	}

	err := q.QueryRow(
		query,
		route.ID, route.CompanyID, route.Origin, route.OriginState, route.OriginCountry, route.OriginType,
		route.Destination, route.DestinationState, route.DestinationCountry, route.DestinationType,
		route.DepartureTime, route.ArrivalTime, route.Price, route.Type, route.TotalSeats, route.Active,
	).Scan(&route.CreatedAt, &route.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "uq_routes_company_departure_slot") {
			return fmt.Errorf("route for company %s at %s already exists: %w",
				route.CompanyID, route.DepartureTime.Format(time.RFC3339), models.ErrConflict)
		}
		return fmt.Errorf("failed to create route: %w", err)
	}

	return nil
}

// GetByID retrieves a physical route by ID
func (r *RouteRepository) GetByID(id string) (*models.Route, error) {
	query := `SELECT ` + routeColumns + ` FROM routes WHERE id = $1`

	var route models.Route
	if err := r.db.Get(&route, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("route %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get route: %w", err)
	}

	return &route, nil
}

// Search retrieves a page of active physical routes matching the filter,
// ordered by departure time. Returns the matching page and the total count.
func (r *RouteRepository) Search(filter *models.RouteSearchFilter) ([]models.Route, int, error) {
	conditions := []string{"r.active"}
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Origin != "" {
		conditions = append(conditions, fmt.Sprintf("r.origin ILIKE '%%' || %s || '%%'", arg(filter.Origin)))
	}
	if filter.Destination != "" {
		conditions = append(conditions, fmt.Sprintf("r.destination ILIKE '%%' || %s || '%%'", arg(filter.Destination)))
	}
	if filter.Date != nil {
		dayStart := filter.Date.UTC().Truncate(24 * time.Hour)
		dayEnd := dayStart.Add(24 * time.Hour)
		conditions = append(conditions, fmt.Sprintf("r.departure_time >= %s", arg(dayStart)))
		conditions = append(conditions, fmt.Sprintf("r.departure_time < %s", arg(dayEnd)))
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("r.type = %s", arg(filter.Type)))
	}
	if filter.MinPrice != nil {
		conditions = append(conditions, fmt.Sprintf("r.price >= %s", arg(*filter.MinPrice)))
	}
	if filter.MaxPrice != nil {
		conditions = append(conditions, fmt.Sprintf("r.price <= %s", arg(*filter.MaxPrice)))
	}
	if len(filter.CompanyIDs) > 0 {
		conditions = append(conditions, fmt.Sprintf("r.company_id = ANY(%s)", arg(filter.CompanyIDs)))
	}
	if filter.DepartureTimeStart != "" {
		conditions = append(conditions, fmt.Sprintf("to_char(r.departure_time AT TIME ZONE 'UTC', 'HH24:MI') >= %s", arg(filter.DepartureTimeStart)))
	}
	if filter.DepartureTimeEnd != "" {
		conditions = append(conditions, fmt.Sprintf("to_char(r.departure_time AT TIME ZONE 'UTC', 'HH24:MI') <= %s", arg(filter.DepartureTimeEnd)))
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM routes r WHERE ` + where
	if err := r.db.Get(&total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count routes: %w", err)
	}

	query := `
		SELECT r.id, r.company_id, r.origin, r.origin_state, r.origin_country, r.origin_type,
		       r.destination, r.destination_state, r.destination_country, r.destination_type,
		       r.departure_time, r.arrival_time, r.price, r.type, r.total_seats, r.active,
		       r.created_at, r.updated_at, c.trading_name AS company_name
		FROM routes r
		JOIN companies c ON c.id = r.company_id
		WHERE ` + where + `
		ORDER BY r.departure_time
		LIMIT ` + arg(filter.Limit) + ` OFFSET ` + arg((filter.Page-1)*filter.Limit)

	routes := []models.Route{}
	if err := r.db.Select(&routes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to search routes: %w", err)
	}

	return routes, total, nil
}

// SearchLocations retrieves the distinct endpoint descriptors of active
// routes whose place name matches the query, for autocomplete. side narrows
// the lookup to "origin" or "destination"; empty searches both ends.
func (r *RouteRepository) SearchLocations(query, side string, limit int) ([]models.Location, error) {
	parts := []string{}
	if side == "" || side == "origin" {
		parts = append(parts, `
			SELECT DISTINCT origin AS name, origin_state AS state,
			       origin_country AS country, origin_type AS type
			FROM routes
			WHERE active AND origin ILIKE '%' || $1 || '%'`)
	}
	if side == "" || side == "destination" {
		parts = append(parts, `
			SELECT DISTINCT destination AS name, destination_state AS state,
			       destination_country AS country, destination_type AS type
			FROM routes
			WHERE active AND destination ILIKE '%' || $1 || '%'`)
	}

	stmt := strings.Join(parts, " UNION ") + ` ORDER BY name LIMIT $2`

	locations := []models.Location{}
	if err := r.db.Select(&locations, stmt, query, limit); err != nil {
		return nil, fmt.Errorf("failed to search locations: %w", err)
	}

	return locations, nil
}

// ListByCompany retrieves a page of routes owned by a company
func (r *RouteRepository) ListByCompany(companyID string, page, limit int) ([]models.Route, int, error) {
	offset := (page - 1) * limit

	var total int
	if err := r.db.Get(&total, `SELECT COUNT(*) FROM routes WHERE company_id = $1`, companyID); err != nil {
		return nil, 0, fmt.Errorf("failed to count routes: %w", err)
	}

	query := `
		SELECT ` + routeColumns + `
		FROM routes
		WHERE company_id = $1
		ORDER BY departure_time
		LIMIT $2 OFFSET $3
	`

	routes := []models.Route{}
	if err := r.db.Select(&routes, query, companyID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list routes: %w", err)
	}

	return routes, total, nil
}

// FindByCompanyAndWindow retrieves the company's routes departing inside
// [from, to), used by the materializer's idempotency check. Runs inside the
// materialization transaction so it observes rows created by the lock
// holder that preceded us.
func (r *RouteRepository) FindByCompanyAndWindow(tx *sqlx.Tx, companyID string, from, to time.Time) ([]models.Route, error) {
	query := `
		SELECT ` + routeColumns + `
		FROM routes
		WHERE company_id = $1 AND departure_time >= $2 AND departure_time < $3
		ORDER BY departure_time
	`

	routes := []models.Route{}
	if err := tx.Select(&routes, query, companyID, from, to); err != nil {
		return nil, fmt.Errorf("failed to find routes in window: %w", err)
	}

	return routes, nil
}

// AcquireMaterializationLock takes a transaction-scoped advisory lock keyed
// on the company and departure slot. Serializes concurrent materializations
// of the same occurrence so the check-then-create below it is atomic; the
// unique (company_id, departure_slot) index remains as backstop.
func (r *RouteRepository) AcquireMaterializationLock(tx *sqlx.Tx, companyID string, slot time.Time) error {
	key := companyID + "@" + slot.UTC().Format(time.RFC3339)
	if _, err := tx.Exec(`SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
		return fmt.Errorf("failed to acquire materialization lock: %w", err)
	}
	return nil
}

// CreateOccurrence persists a template-derived occurrence exactly once.
// The existence check and the insert run in one transaction holding an
// advisory lock keyed on (company, departure slot), so two concurrent
// materializations of the same occurrence serialize: the first creates,
// the second finds the winner inside the window and returns it. Should the
// lock ever be bypassed (e.g. a manual insert racing in), the unique
// (company_id, departure_slot) index fires and the conflict is resolved by
// re-reading the winner once.
func (r *RouteRepository) CreateOccurrence(route *models.Route) (*models.Route, error) {
	slot := route.DepartureTime.UTC().Truncate(departureSlotWidth)
	from := route.DepartureTime.Add(-departureTolerance)
	to := route.DepartureTime.Add(departureTolerance + time.Second)

	tx, err := r.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin materialization: %w", err)
	}
	defer tx.Rollback()

	if err := r.AcquireMaterializationLock(tx, route.CompanyID, slot); err != nil {
		return nil, err
	}

	existing, err := r.FindByCompanyAndWindow(tx, route.CompanyID, from, to)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		winner := existing[0]
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit materialization: %w", err)
		}
		return &winner, nil
	}

	if err := r.create(tx, route); err != nil {
		if errors.Is(err, models.ErrConflict) {
			// Constraint beat the lock; the transaction is aborted, so
			// re-read the winner outside it.
			return r.findWinner(route.CompanyID, from, to)
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit materialization: %w", err)
	}

	return route, nil
}

// findWinner re-reads the route that won a materialization race
func (r *RouteRepository) findWinner(companyID string, from, to time.Time) (*models.Route, error) {
	query := `
		SELECT ` + routeColumns + `
		FROM routes
		WHERE company_id = $1 AND departure_time >= $2 AND departure_time < $3
		ORDER BY departure_time
		LIMIT 1
	`

	var winner models.Route
	if err := r.db.Get(&winner, query, companyID, from, to); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("conflicting route vanished: %w", models.ErrConflict)
		}
		return nil, fmt.Errorf("failed to re-read winning route: %w", err)
	}

	return &winner, nil
}

// Update applies the non-nil fields of the update request
func (r *RouteRepository) Update(id string, req *models.UpdateRouteRequest) (*models.Route, error) {
	var departure, arrival *time.Time
	if req.DepartureTime != nil {
		t, err := time.Parse(time.RFC3339, *req.DepartureTime)
		if err != nil {
			return nil, models.NewValidationError("departure_time", "must be a valid RFC3339 timestamp")
		}
		departure = &t
	}
	if req.ArrivalTime != nil {
		t, err := time.Parse(time.RFC3339, *req.ArrivalTime)
		if err != nil {
			return nil, models.NewValidationError("arrival_time", "must be a valid RFC3339 timestamp")
		}
		arrival = &t
	}

	query := `
		UPDATE routes SET
			departure_time = COALESCE($2, departure_time),
			arrival_time = COALESCE($3, arrival_time),
			price = COALESCE($4, price),
			total_seats = COALESCE($5, total_seats),
			active = COALESCE($6, active),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + routeColumns

	var route models.Route
	err := r.db.Get(&route, query, id, departure, arrival, req.Price, req.TotalSeats, req.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("route %s: %w", id, models.ErrNotFound)
		}
		if isUniqueViolation(err, "uq_routes_company_departure_slot") {
			return nil, fmt.Errorf("another route departs in the same slot: %w", models.ErrConflict)
		}
		return nil, fmt.Errorf("failed to update route: %w", err)
	}

	return &route, nil
}

// Deactivate soft-deletes a route. Routes with tickets are never removed.
func (r *RouteRepository) Deactivate(id string) error {
	result, err := r.db.Exec(`UPDATE routes SET active = FALSE, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate route: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to deactivate route: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("route %s: %w", id, models.ErrNotFound)
	}

	return nil
}

// Delete removes a route that has no tickets
func (r *RouteRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM routes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete route: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete route: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("route %s: %w", id, models.ErrNotFound)
	}

	return nil
}

// HasTickets reports whether any ticket references the route
func (r *RouteRepository) HasTickets(id string) (bool, error) {
	var count int
	if err := r.db.Get(&count, `SELECT COUNT(*) FROM tickets WHERE route_id = $1`, id); err != nil {
		return false, fmt.Errorf("failed to count route tickets: %w", err)
	}
	return count > 0, nil
}

// GetAvailableSeats computes the remaining seats for a physical route:
// total capacity minus the count of tickets in seat-consuming states.
// Availability is always derived, never stored, so a cancellation frees
// its seat with no counter to keep in sync. Clamped at zero.
func (r *RouteRepository) GetAvailableSeats(routeID string) (int, error) {
	return r.availableSeats(r.db, routeID)
}

// GetAvailableSeatsTx computes remaining seats within a transaction
func (r *RouteRepository) GetAvailableSeatsTx(tx *sqlx.Tx, routeID string) (int, error) {
	return r.availableSeats(tx, routeID)
}

func (r *RouteRepository) availableSeats(q queryer, routeID string) (int, error) {
	query := `
		SELECT GREATEST(0, r.total_seats - (
			SELECT COUNT(*) FROM tickets t
			WHERE t.route_id = r.id AND t.status = ANY($2)
		))
		FROM routes r
		WHERE r.id = $1
	`

	statuses := make([]string, len(models.ActiveTicketStatuses))
	for i, s := range models.ActiveTicketStatuses {
		statuses[i] = string(s)
	}

	var available int
	if err := q.Get(&available, query, routeID, pq.Array(statuses)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("route %s: %w", routeID, models.ErrNotFound)
		}
		return 0, fmt.Errorf("failed to compute available seats: %w", err)
	}

	return available, nil
}

// LockForBooking loads a route row with a FOR UPDATE lock. Booking holds
// this lock while it recounts tickets and inserts, so two reservations of
// the last seat serialize and the loser sees the winner's ticket.
func (r *RouteRepository) LockForBooking(tx *sqlx.Tx, routeID string) (*models.Route, error) {
	query := `SELECT ` + routeColumns + ` FROM routes WHERE id = $1 FOR UPDATE`

	var route models.Route
	if err := tx.Get(&route, query, routeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("route %s: %w", routeID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to lock route: %w", err)
	}

	return &route, nil
}
