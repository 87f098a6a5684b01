package models

import (
	"time"
)

// SearchRoutesRequest holds the parameters of an occurrence search. Date is
// a calendar date; the UTC day window derived from it bounds the physical
// route lookup and selects which templates run.
type SearchRoutesRequest struct {
	Origin      string `form:"origin" json:"origin" binding:"required"`
	Destination string `form:"destination" json:"destination" binding:"required"`
	Date        string `form:"date" json:"date" binding:"required"` // YYYY-MM-DD
	Type        string `form:"type" json:"type"`
	Passengers  int    `form:"passengers" json:"passengers"`
	Page        int    `form:"page" json:"page"`
	Limit       int    `form:"limit" json:"limit"`
}

// ParsedDate returns the requested date as a UTC midnight instant
func (r *SearchRoutesRequest) ParsedDate() (time.Time, error) {
	d, err := time.ParseInLocation("2006-01-02", r.Date, time.UTC)
	if err != nil {
		return time.Time{}, NewValidationError("date", "must be in YYYY-MM-DD format")
	}
	return d, nil
}

// Normalize applies defaults for optional search parameters
func (r *SearchRoutesRequest) Normalize() {
	if r.Passengers < 1 {
		r.Passengers = 1
	}
	if r.Page < 1 {
		r.Page = 1
	}
	if r.Limit < 1 || r.Limit > 100 {
		r.Limit = 10
	}
}

// AdvancedSearchRequest extends the basic search with extra filters
type AdvancedSearchRequest struct {
	SearchRoutesRequest
	MinPrice           *float64 `form:"min_price" json:"min_price"`
	MaxPrice           *float64 `form:"max_price" json:"max_price"`
	Companies          []string `form:"companies" json:"companies"`
	DepartureTimeStart string   `form:"departure_time_start" json:"departure_time_start"` // HH:MM
	DepartureTimeEnd   string   `form:"departure_time_end" json:"departure_time_end"`     // HH:MM
}

// Location is one autocomplete entry: a distinct endpoint descriptor drawn
// from the persisted routes.
type Location struct {
	Name    string       `json:"name" db:"name"`
	State   *string      `json:"state,omitempty" db:"state"`
	Country string       `json:"country" db:"country"`
	Type    LocationType `json:"type" db:"type"`
}

// SearchLocationsRequest holds the parameters of a location autocomplete
// lookup. Type narrows the search to one end of the route.
type SearchLocationsRequest struct {
	Query string `form:"query" json:"query" binding:"required"`
	Type  string `form:"type" json:"type"` // "origin", "destination" or empty for both
}

// Validate validates the location search parameters
func (r *SearchLocationsRequest) Validate() error {
	switch r.Type {
	case "", "origin", "destination":
		return nil
	}
	return NewValidationError("type", "must be origin or destination")
}

// RouteSearchFilter is the repository-level filter for physical routes
type RouteSearchFilter struct {
	Origin             string
	Destination        string
	Date               *time.Time
	Type               string
	MinPrice           *float64
	MaxPrice           *float64
	CompanyIDs         StringArray
	DepartureTimeStart string
	DepartureTimeEnd   string
	Page               int
	Limit              int
}

// SearchMeta carries pagination info in search responses
type SearchMeta struct {
	Total      int  `json:"total"`
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	TotalPages int  `json:"total_pages"`
	HasMore    bool `json:"has_more"`
}

// NewSearchMeta builds pagination metadata from a total row count
func NewSearchMeta(total, page, limit int) SearchMeta {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return SearchMeta{
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
		HasMore:    page < totalPages,
	}
}

// SearchRoutesResponse is the merged virtual+physical occurrence list,
// each entry carrying its computed seat availability.
type SearchRoutesResponse struct {
	Routes []RouteDetails `json:"routes"`
	Meta   SearchMeta     `json:"meta"`
}
