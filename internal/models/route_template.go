package models

import (
	"time"
)

// RouteTemplate is a recurring weekly schedule definition owned by a
// company. Templates are never bookable themselves; the route generator
// expands them into per-date occurrences. Weekdays follow time.Weekday
// numbering (0=Sunday..6=Saturday) and are evaluated against the UTC
// calendar, never a local timezone.
type RouteTemplate struct {
	ID                 string        `json:"id" db:"id"`
	CompanyID          string        `json:"company_id" db:"company_id"`
	Origin             string        `json:"origin" db:"origin"`
	OriginState        *string       `json:"origin_state,omitempty" db:"origin_state"`
	OriginCountry      string        `json:"origin_country" db:"origin_country"`
	OriginType         LocationType  `json:"origin_type" db:"origin_type"`
	Destination        string        `json:"destination" db:"destination"`
	DestinationState   *string       `json:"destination_state,omitempty" db:"destination_state"`
	DestinationCountry string        `json:"destination_country" db:"destination_country"`
	DestinationType    LocationType  `json:"destination_type" db:"destination_type"`
	DepartureTime      string        `json:"departure_time" db:"departure_time"` // HH:MM wall clock
	ArrivalTime        string        `json:"arrival_time" db:"arrival_time"`     // HH:MM wall clock
	DaysOfWeek         IntArray      `json:"days_of_week" db:"days_of_week"`
	Price              float64       `json:"price" db:"price"`
	Type               TransportType `json:"type" db:"type"`
	TotalSeats         int           `json:"total_seats" db:"total_seats"`
	Active             bool          `json:"active" db:"active"`
	CreatedAt          time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at" db:"updated_at"`
}

// RunsOn reports whether the template operates on the UTC weekday of the
// given date. An empty or malformed weekday set never matches; callers that
// care about the distinction validate with ValidDaysOfWeek first.
func (t *RouteTemplate) RunsOn(date time.Time) bool {
	day := int(date.UTC().Weekday())
	for _, d := range t.DaysOfWeek {
		if d == day {
			return true
		}
	}
	return false
}

// ValidDaysOfWeek reports whether the weekday set is non-empty and every
// entry is in [0,6].
func (t *RouteTemplate) ValidDaysOfWeek() bool {
	if len(t.DaysOfWeek) == 0 {
		return false
	}
	for _, d := range t.DaysOfWeek {
		if d < 0 || d > 6 {
			return false
		}
	}
	return true
}

// CreateRouteTemplateRequest represents the payload for creating a template
type CreateRouteTemplateRequest struct {
	Origin             string  `json:"origin" binding:"required"`
	OriginState        *string `json:"origin_state"`
	OriginCountry      string  `json:"origin_country" binding:"required"`
	OriginType         string  `json:"origin_type" binding:"required"`
	Destination        string  `json:"destination" binding:"required"`
	DestinationState   *string `json:"destination_state"`
	DestinationCountry string  `json:"destination_country" binding:"required"`
	DestinationType    string  `json:"destination_type" binding:"required"`
	DepartureTime      string  `json:"departure_time" binding:"required"` // HH:MM
	ArrivalTime        string  `json:"arrival_time" binding:"required"`   // HH:MM
	DaysOfWeek         []int   `json:"days_of_week" binding:"required"`
	Price              float64 `json:"price" binding:"required"`
	Type               string  `json:"type" binding:"required"`
	TotalSeats         int     `json:"total_seats" binding:"required"`
}

// Validate validates the create template request. Weekday range is enforced
// here, at the template-store boundary, so the generator can trust persisted
// data and treat anything else as a data-quality anomaly.
func (r *CreateRouteTemplateRequest) Validate() error {
	if !TransportType(r.Type).IsValid() {
		return NewValidationError("type", "must be one of BUS, BOAT, FERRY")
	}
	if r.TotalSeats <= 0 {
		return NewValidationError("total_seats", "must be greater than zero")
	}
	if r.Price <= 0 {
		return NewValidationError("price", "must be greater than zero")
	}
	if len(r.DaysOfWeek) == 0 {
		return NewValidationError("days_of_week", "must contain at least one weekday")
	}
	seen := map[int]bool{}
	for _, d := range r.DaysOfWeek {
		if d < 0 || d > 6 {
			return NewValidationError("days_of_week", "weekdays must be between 0 (Sunday) and 6 (Saturday)")
		}
		if seen[d] {
			return NewValidationError("days_of_week", "weekdays must not repeat")
		}
		seen[d] = true
	}
	if _, _, err := ParseClock(r.DepartureTime); err != nil {
		return NewValidationError("departure_time", "must be in HH:MM format")
	}
	if _, _, err := ParseClock(r.ArrivalTime); err != nil {
		return NewValidationError("arrival_time", "must be in HH:MM format")
	}
	return nil
}

// UpdateRouteTemplateRequest represents the payload for updating a template
type UpdateRouteTemplateRequest struct {
	DepartureTime *string  `json:"departure_time,omitempty"`
	ArrivalTime   *string  `json:"arrival_time,omitempty"`
	DaysOfWeek    []int    `json:"days_of_week,omitempty"`
	Price         *float64 `json:"price,omitempty"`
	TotalSeats    *int     `json:"total_seats,omitempty"`
	Active        *bool    `json:"active,omitempty"`
}
