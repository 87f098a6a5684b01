package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/viajabr/marketplace-backend/internal/metrics"
	"github.com/viajabr/marketplace-backend/internal/models"
)

// departureTolerance is the band inside which a template-derived departure
// and a persisted route's departure count as the same trip. It is the only
// thing standing between a template and a duplicated physical route, so it
// must match the bucket width enforced by the routes unique index.
const departureTolerance = 5 * time.Minute

// TemplateStore is the template lookup surface the generator needs
type TemplateStore interface {
	GetByID(id string) (*models.RouteTemplate, error)
	FindByOriginAndDestination(origin, destination, transportType string) ([]models.RouteTemplate, error)
}

// RouteStore is the physical-route surface the generator and booking flow
// need. CreateOccurrence must be atomic with respect to concurrent calls
// for the same (company, departure slot): implementations either find the
// existing route inside the same transaction or convert a uniqueness
// violation into returning the winner.
type RouteStore interface {
	GetByID(id string) (*models.Route, error)
	Search(filter *models.RouteSearchFilter) ([]models.Route, int, error)
	GetAvailableSeats(routeID string) (int, error)
	CreateOccurrence(route *models.Route) (*models.Route, error)
}

// RouteGeneratorService expands recurring route templates into concrete,
// bookable occurrences for a requested date, and materializes a virtual
// occurrence into a persisted route exactly once when a booking needs it.
type RouteGeneratorService struct {
	templates TemplateStore
	routes    RouteStore
	metrics   *metrics.Collector
	logger    *logrus.Logger
}

// NewRouteGeneratorService creates a new RouteGeneratorService
func NewRouteGeneratorService(templates TemplateStore, routes RouteStore, collector *metrics.Collector, logger *logrus.Logger) *RouteGeneratorService {
	return &RouteGeneratorService{
		templates: templates,
		routes:    routes,
		metrics:   collector,
		logger:    logger,
	}
}

// GenerateParams are the inputs of one occurrence expansion
type GenerateParams struct {
	Origin      string
	Destination string
	Date        time.Time // UTC calendar date
	Type        string
	Passengers  int
}

// GenerateRoutes expands templates matching origin/destination/type into
// occurrences for the given date. Physical routes already persisted for the
// day may be passed in to avoid a duplicate query; when nil they are
// fetched. Occurrences are deduplicated against the physical list on
// (company, departure time ±5min) so one real trip never appears twice.
//
// A template whose weekday set is malformed is skipped and logged; one bad
// row must never abort the whole search.
func (s *RouteGeneratorService) GenerateRoutes(params GenerateParams, existing []models.Route) ([]models.Route, error) {
	if params.Passengers < 1 {
		params.Passengers = 1
	}

	templates, err := s.templates.FindByOriginAndDestination(params.Origin, params.Destination, params.Type)
	if err != nil {
		return nil, fmt.Errorf("failed to load route templates: %w", err)
	}
	if len(templates) == 0 {
		return []models.Route{}, nil
	}

	matching := make([]models.RouteTemplate, 0, len(templates))
	for _, t := range templates {
		if !t.ValidDaysOfWeek() {
			s.metrics.TemplatesSkipped.Inc()
			s.logger.WithFields(logrus.Fields{
				"template_id":  t.ID,
				"days_of_week": t.DaysOfWeek,
			}).Warn("Skipping template with malformed weekday set")
			continue
		}
		if t.RunsOn(params.Date) {
			matching = append(matching, t)
		}
	}
	if len(matching) == 0 {
		return []models.Route{}, nil
	}

	if existing == nil {
		dayStart := params.Date.UTC().Truncate(24 * time.Hour)
		existing, _, err = s.routes.Search(&models.RouteSearchFilter{
			Origin:      params.Origin,
			Destination: params.Destination,
			Date:        &dayStart,
			Type:        params.Type,
			Page:        1,
			Limit:       100, // generous bound, one day of one corridor
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load existing routes: %w", err)
		}
	}

	occurrences := make([]models.Route, 0, len(matching))
	for _, t := range matching {
		occurrence, err := s.expandTemplate(&t, params.Date, existing, params.Passengers)
		if err != nil {
			// Data-quality anomaly on a single template: log and move on.
			s.metrics.TemplatesSkipped.Inc()
			s.logger.WithError(err).WithField("template_id", t.ID).Warn("Skipping template with malformed schedule")
			continue
		}
		if occurrence != nil {
			occurrences = append(occurrences, *occurrence)
		}
	}

	// Final pass: a virtual occurrence must never coexist with a physical
	// route for the same real trip, even if the physical list contained
	// routes outside the matched-template set.
	result := occurrences[:0]
	for _, o := range occurrences {
		if o.IsVirtual && findMatchingRoute(existing, o.CompanyID, o.DepartureTime) != nil {
			continue
		}
		result = append(result, o)
	}

	s.metrics.VirtualRoutesGenerated.Add(float64(countVirtual(result)))

	return result, nil
}

// expandTemplate produces the occurrence of one template on one date:
// the matching physical route when one exists (and still has room), a
// fresh virtual occurrence otherwise, or nil when the physical match is
// already full for the requested party size.
func (s *RouteGeneratorService) expandTemplate(t *models.RouteTemplate, date time.Time, existing []models.Route, passengers int) (*models.Route, error) {
	depHour, depMinute, err := models.ParseClock(t.DepartureTime)
	if err != nil {
		return nil, err
	}

	departure := models.CombineClockUTC(date, depHour, depMinute)

	if physical := findMatchingRoute(existing, t.CompanyID, departure); physical != nil {
		available, err := s.routes.GetAvailableSeats(physical.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check availability of route %s: %w", physical.ID, err)
		}
		if available >= passengers {
			return physical, nil
		}
		// Full physical route: dropped, never replaced by a virtual twin.
		return nil, nil
	}

	virtual, err := routeFromTemplate(t, date)
	if err != nil {
		return nil, err
	}
	virtual.ID = models.VirtualRouteID(t.ID, date)
	virtual.IsVirtual = true

	now := time.Now().UTC()
	virtual.CreatedAt = now
	virtual.UpdatedAt = now

	return virtual, nil
}

// MaterializeRoute converts a virtual occurrence into a persisted route,
// idempotently: repeated and concurrent calls for the same virtual ID
// converge on one physical route. The check-then-create runs inside the
// store's occurrence transaction; a lost race surfaces there as the
// winner's route, not a duplicate.
func (s *RouteGeneratorService) MaterializeRoute(virtualID string) (*models.Route, error) {
	templateID, date, err := models.ParseVirtualRouteID(virtualID)
	if err != nil {
		return nil, &models.MaterializationError{VirtualID: virtualID, Err: err}
	}

	template, err := s.templates.GetByID(templateID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// The template may have been deleted since the search response
			// that produced this ID.
			return nil, err
		}
		return nil, &models.MaterializationError{VirtualID: virtualID, Err: err}
	}

	route, err := routeFromTemplate(template, date)
	if err != nil {
		return nil, &models.MaterializationError{VirtualID: virtualID, Err: err}
	}

	created, err := s.routes.CreateOccurrence(route)
	if err != nil {
		return nil, &models.MaterializationError{VirtualID: virtualID, Err: err}
	}

	s.metrics.RoutesMaterialized.Inc()
	s.logger.WithFields(logrus.Fields{
		"template_id": templateID,
		"date":        date.Format("2006-01-02"),
		"route_id":    created.ID,
	}).Info("Materialized virtual route")

	return created, nil
}

// PreviewRoute resolves a virtual occurrence ID into the route it would
// materialize to, without persisting anything. Used to serve route detail
// requests for search results that are still virtual.
func (s *RouteGeneratorService) PreviewRoute(virtualID string) (*models.Route, error) {
	templateID, date, err := models.ParseVirtualRouteID(virtualID)
	if err != nil {
		return nil, fmt.Errorf("route %s: %w", virtualID, models.ErrNotFound)
	}

	template, err := s.templates.GetByID(templateID)
	if err != nil {
		return nil, err
	}
	if !template.RunsOn(date) {
		return nil, fmt.Errorf("template %s does not run on %s: %w", templateID, date.Format("2006-01-02"), models.ErrNotFound)
	}

	route, err := routeFromTemplate(template, date)
	if err != nil {
		return nil, err
	}
	route.ID = virtualID
	route.IsVirtual = true

	now := time.Now().UTC()
	route.CreatedAt = now
	route.UpdatedAt = now

	return route, nil
}

// routeFromTemplate builds the physical route a template produces on a
// given date, applying the overnight arrival rollover.
func routeFromTemplate(t *models.RouteTemplate, date time.Time) (*models.Route, error) {
	depHour, depMinute, err := models.ParseClock(t.DepartureTime)
	if err != nil {
		return nil, err
	}
	arrHour, arrMinute, err := models.ParseClock(t.ArrivalTime)
	if err != nil {
		return nil, err
	}

	departure := models.CombineClockUTC(date, depHour, depMinute)
	arrival := models.CombineClockUTC(date, arrHour, arrMinute)
	if arrival.Before(departure) {
		arrival = arrival.AddDate(0, 0, 1)
	}

	return &models.Route{
		CompanyID:          t.CompanyID,
		Origin:             t.Origin,
		OriginState:        t.OriginState,
		OriginCountry:      t.OriginCountry,
		OriginType:         t.OriginType,
		Destination:        t.Destination,
		DestinationState:   t.DestinationState,
		DestinationCountry: t.DestinationCountry,
		DestinationType:    t.DestinationType,
		DepartureTime:      departure,
		ArrivalTime:        arrival,
		Price:              t.Price,
		Type:               t.Type,
		TotalSeats:         t.TotalSeats,
		Active:             true,
	}, nil
}

// findMatchingRoute returns the first route in the list run by the company
// with a departure within the tolerance band of the given instant.
func findMatchingRoute(routes []models.Route, companyID string, departure time.Time) *models.Route {
	for i := range routes {
		r := &routes[i]
		if r.CompanyID != companyID {
			continue
		}
		diff := r.DepartureTime.Sub(departure)
		if diff < 0 {
			diff = -diff
		}
		if diff <= departureTolerance {
			return r
		}
	}
	return nil
}

func countVirtual(routes []models.Route) int {
	n := 0
	for _, r := range routes {
		if r.IsVirtual {
			n++
		}
	}
	return n
}
