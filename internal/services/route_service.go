package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/viajabr/marketplace-backend/internal/metrics"
	"github.com/viajabr/marketplace-backend/internal/models"
)

// RouteManagementStore widens RouteStore with the write surface the route
// CRUD endpoints need.
type RouteManagementStore interface {
	RouteStore
	Create(route *models.Route) error
	Update(id string, req *models.UpdateRouteRequest) (*models.Route, error)
	Deactivate(id string) error
	Delete(id string) error
	HasTickets(id string) (bool, error)
	ListByCompany(companyID string, page, limit int) ([]models.Route, int, error)
	SearchLocations(query, side string, limit int) ([]models.Location, error)
}

// RouteService serves occurrence searches and the company-facing route CRUD.
// A search response interleaves persisted routes with virtual occurrences
// computed from templates; both carry their seat availability.
type RouteService struct {
	routes    RouteManagementStore
	generator *RouteGeneratorService
	metrics   *metrics.Collector
	logger    *logrus.Logger
}

// NewRouteService creates a new RouteService
func NewRouteService(routes RouteManagementStore, generator *RouteGeneratorService, collector *metrics.Collector, logger *logrus.Logger) *RouteService {
	return &RouteService{
		routes:    routes,
		generator: generator,
		metrics:   collector,
		logger:    logger,
	}
}

// physicalFetchLimit bounds how many persisted routes one search pulls for
// a single corridor and day before merging in virtual occurrences.
const physicalFetchLimit = 100

// SearchOccurrences returns the bookable occurrences for a corridor and
// date: persisted routes with enough free seats for the party, plus
// virtual occurrences from templates that have no persisted twin. The
// merged list is sorted by departure and paginated in memory; the whole
// day fits comfortably inside the fetch bound.
func (s *RouteService) SearchOccurrences(req *models.SearchRoutesRequest) (*models.SearchRoutesResponse, error) {
	req.Normalize()
	date, err := req.ParsedDate()
	if err != nil {
		return nil, err
	}

	s.metrics.SearchesTotal.Inc()

	physicals, _, err := s.routes.Search(&models.RouteSearchFilter{
		Origin:      req.Origin,
		Destination: req.Destination,
		Date:        &date,
		Type:        req.Type,
		Page:        1,
		Limit:       physicalFetchLimit,
	})
	if err != nil {
		return nil, err
	}

	occurrences, err := s.generator.GenerateRoutes(GenerateParams{
		Origin:      req.Origin,
		Destination: req.Destination,
		Date:        date,
		Type:        req.Type,
		Passengers:  req.Passengers,
	}, physicals)
	if err != nil {
		return nil, err
	}

	merged := make([]models.RouteDetails, 0, len(physicals)+len(occurrences))
	for _, p := range physicals {
		available, err := s.routes.GetAvailableSeats(p.ID)
		if err != nil {
			return nil, err
		}
		if available >= req.Passengers {
			merged = append(merged, models.RouteDetails{Route: p, AvailableSeats: available})
		}
	}
	for _, o := range occurrences {
		// Physical matches in the generator output are already present.
		if o.IsVirtual {
			merged = append(merged, models.RouteDetails{Route: o, AvailableSeats: o.TotalSeats})
		}
	}

	sort.Slice(merged, func(i, j int) bool {
		return merged[i].DepartureTime.Before(merged[j].DepartureTime)
	})

	return &models.SearchRoutesResponse{
		Routes: paginate(merged, req.Page, req.Limit),
		Meta:   models.NewSearchMeta(len(merged), req.Page, req.Limit),
	}, nil
}

// AdvancedSearch is SearchOccurrences with price, company and departure
// window filters. The extra filters are pushed into the physical query and
// applied in memory to virtual occurrences.
func (s *RouteService) AdvancedSearch(req *models.AdvancedSearchRequest) (*models.SearchRoutesResponse, error) {
	req.Normalize()
	date, err := req.ParsedDate()
	if err != nil {
		return nil, err
	}

	s.metrics.SearchesTotal.Inc()

	physicals, _, err := s.routes.Search(&models.RouteSearchFilter{
		Origin:             req.Origin,
		Destination:        req.Destination,
		Date:               &date,
		Type:               req.Type,
		MinPrice:           req.MinPrice,
		MaxPrice:           req.MaxPrice,
		CompanyIDs:         models.StringArray(req.Companies),
		DepartureTimeStart: req.DepartureTimeStart,
		DepartureTimeEnd:   req.DepartureTimeEnd,
		Page:               1,
		Limit:              physicalFetchLimit,
	})
	if err != nil {
		return nil, err
	}

	occurrences, err := s.generator.GenerateRoutes(GenerateParams{
		Origin:      req.Origin,
		Destination: req.Destination,
		Date:        date,
		Type:        req.Type,
		Passengers:  req.Passengers,
	}, physicals)
	if err != nil {
		return nil, err
	}

	merged := make([]models.RouteDetails, 0, len(physicals)+len(occurrences))
	for _, p := range physicals {
		available, err := s.routes.GetAvailableSeats(p.ID)
		if err != nil {
			return nil, err
		}
		if available >= req.Passengers {
			merged = append(merged, models.RouteDetails{Route: p, AvailableSeats: available})
		}
	}
	for _, o := range occurrences {
		if o.IsVirtual && matchesAdvancedFilters(&o, req) {
			merged = append(merged, models.RouteDetails{Route: o, AvailableSeats: o.TotalSeats})
		}
	}

	sort.Slice(merged, func(i, j int) bool {
		return merged[i].DepartureTime.Before(merged[j].DepartureTime)
	})

	return &models.SearchRoutesResponse{
		Routes: paginate(merged, req.Page, req.Limit),
		Meta:   models.NewSearchMeta(len(merged), req.Page, req.Limit),
	}, nil
}

// matchesAdvancedFilters applies the extra search filters to a virtual
// occurrence, mirroring the SQL conditions used for physical routes.
func matchesAdvancedFilters(route *models.Route, req *models.AdvancedSearchRequest) bool {
	if req.MinPrice != nil && route.Price < *req.MinPrice {
		return false
	}
	if req.MaxPrice != nil && route.Price > *req.MaxPrice {
		return false
	}
	if len(req.Companies) > 0 {
		found := false
		for _, id := range req.Companies {
			if id == route.CompanyID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	clock := route.DepartureTime.UTC().Format("15:04")
	if req.DepartureTimeStart != "" && clock < req.DepartureTimeStart {
		return false
	}
	if req.DepartureTimeEnd != "" && clock > req.DepartureTimeEnd {
		return false
	}
	return true
}

// paginate slices one page out of the merged occurrence list
func paginate(routes []models.RouteDetails, page, limit int) []models.RouteDetails {
	start := (page - 1) * limit
	if start >= len(routes) {
		return []models.RouteDetails{}
	}
	end := start + limit
	if end > len(routes) {
		end = len(routes)
	}
	return routes[start:end]
}

// locationsLimit bounds one autocomplete response
const locationsLimit = 20

// SearchLocations serves the origin/destination autocomplete. Only persisted
// routes feed it; template endpoints reach it once their first occurrence
// materializes or a manual route is created for the corridor.
func (s *RouteService) SearchLocations(req *models.SearchLocationsRequest) ([]models.Location, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.routes.SearchLocations(req.Query, req.Type, locationsLimit)
}

// GetDetails resolves a route ID, virtual or physical, into the route and
// its current availability. Virtual occurrences report full capacity: no
// ticket can exist against them yet.
func (s *RouteService) GetDetails(routeID string) (*models.RouteDetails, error) {
	if models.IsVirtualRouteID(routeID) {
		route, err := s.generator.PreviewRoute(routeID)
		if err != nil {
			return nil, err
		}
		return &models.RouteDetails{Route: *route, AvailableSeats: route.TotalSeats}, nil
	}

	route, err := s.routes.GetByID(routeID)
	if err != nil {
		return nil, err
	}

	available, err := s.routes.GetAvailableSeats(routeID)
	if err != nil {
		return nil, err
	}

	return &models.RouteDetails{Route: *route, AvailableSeats: available}, nil
}

// Create registers a manually scheduled route for a company
func (s *RouteService) Create(companyID string, req *models.CreateRouteRequest) (*models.Route, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	departure, _ := time.Parse(time.RFC3339, req.DepartureTime)
	arrival, _ := time.Parse(time.RFC3339, req.ArrivalTime)

	route := &models.Route{
		CompanyID:          companyID,
		Origin:             req.Origin,
		OriginState:        req.OriginState,
		OriginCountry:      req.OriginCountry,
		OriginType:         models.LocationType(req.OriginType),
		Destination:        req.Destination,
		DestinationState:   req.DestinationState,
		DestinationCountry: req.DestinationCountry,
		DestinationType:    models.LocationType(req.DestinationType),
		DepartureTime:      departure.UTC(),
		ArrivalTime:        arrival.UTC(),
		Price:              req.Price,
		Type:               models.TransportType(req.Type),
		TotalSeats:         req.TotalSeats,
		Active:             true,
	}

	if err := s.routes.Create(route); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"route_id":   route.ID,
		"company_id": companyID,
	}).Info("Created route")

	return route, nil
}

// Update applies changes to a company's own route
func (s *RouteService) Update(companyID, routeID string, req *models.UpdateRouteRequest) (*models.Route, error) {
	route, err := s.routes.GetByID(routeID)
	if err != nil {
		return nil, err
	}
	if route.CompanyID != companyID {
		return nil, fmt.Errorf("route %s belongs to another company: %w", routeID, models.ErrForbidden)
	}

	return s.routes.Update(routeID, req)
}

// Delete removes a company's route. A route that already has tickets is
// deactivated instead so existing bookings stay resolvable.
func (s *RouteService) Delete(companyID, routeID string) error {
	route, err := s.routes.GetByID(routeID)
	if err != nil {
		return err
	}
	if route.CompanyID != companyID {
		return fmt.Errorf("route %s belongs to another company: %w", routeID, models.ErrForbidden)
	}

	hasTickets, err := s.routes.HasTickets(routeID)
	if err != nil {
		return err
	}
	if hasTickets {
		s.logger.WithField("route_id", routeID).Info("Route has tickets, deactivating instead of deleting")
		return s.routes.Deactivate(routeID)
	}

	return s.routes.Delete(routeID)
}

// ListByCompany retrieves a page of the company's routes
func (s *RouteService) ListByCompany(companyID string, page, limit int) ([]models.Route, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return s.routes.ListByCompany(companyID, page, limit)
}
