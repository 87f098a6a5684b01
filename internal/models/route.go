package models

import (
	"fmt"
	"strings"
	"time"
)

// TransportType represents the transport mode of a route
type TransportType string

const (
	TransportTypeBus   TransportType = "BUS"
	TransportTypeBoat  TransportType = "BOAT"
	TransportTypeFerry TransportType = "FERRY"
)

// IsValid checks whether the transport type is one of the known modes
func (t TransportType) IsValid() bool {
	switch t {
	case TransportTypeBus, TransportTypeBoat, TransportTypeFerry:
		return true
	}
	return false
}

// LocationType classifies an origin/destination descriptor
type LocationType string

const (
	LocationTypeCity     LocationType = "CITY"
	LocationTypeTerminal LocationType = "TERMINAL"
	LocationTypePort     LocationType = "PORT"
)

// Route represents a bookable trip occurrence. A route is either physical
// (persisted, referenced by tickets) or virtual (computed from a template
// for one search response, never stored). IsVirtual is the only marker; a
// virtual route's ID encodes its template and date, see VirtualRouteID.
type Route struct {
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
	DepartureTime      time.Time     `json:"departure_time" db:"departure_time"`
	ArrivalTime        time.Time     `json:"arrival_time" db:"arrival_time"`
	Price              float64       `json:"price" db:"price"`
	Type               TransportType `json:"type" db:"type"`
	TotalSeats         int           `json:"total_seats" db:"total_seats"`
	Active             bool          `json:"active" db:"active"`
	IsVirtual          bool          `json:"is_virtual" db:"-"`
	CompanyName        *string       `json:"company_name,omitempty" db:"company_name"`
	CreatedAt          time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at" db:"updated_at"`
}

// virtualRoutePrefix marks route identifiers that refer to a template
// occurrence instead of a persisted row.
const virtualRoutePrefix = "virtual-"

// virtualDateLayout is the fixed-width date suffix of a virtual route ID.
// The fixed width is what keeps decoding unambiguous even though template
// IDs contain hyphens.
const virtualDateLayout = "2006-01-02"

// VirtualRouteID builds the identifier of a virtual occurrence for a
// template on a given UTC date: "virtual-<templateID>-<YYYY-MM-DD>".
func VirtualRouteID(templateID string, date time.Time) string {
	return virtualRoutePrefix + templateID + "-" + date.UTC().Format(virtualDateLayout)
}

// IsVirtualRouteID reports whether the identifier refers to a virtual route.
func IsVirtualRouteID(id string) bool {
	return strings.HasPrefix(id, virtualRoutePrefix)
}

// ParseVirtualRouteID decodes a virtual route identifier back into its
// template ID and UTC date. The date suffix is always exactly 10 characters,
// so the split point is positional and total: any string that passes the
// shape checks decodes to exactly one (templateID, date) pair.
func ParseVirtualRouteID(id string) (templateID string, date time.Time, err error) {
	if !strings.HasPrefix(id, virtualRoutePrefix) {
		return "", time.Time{}, fmt.Errorf("not a virtual route id: %q", id)
	}

	rest := id[len(virtualRoutePrefix):]
	// Minimum shape: one-character template id, separator, 10-char date.
	if len(rest) < len(virtualDateLayout)+2 {
		return "", time.Time{}, fmt.Errorf("malformed virtual route id: %q", id)
	}

	sep := len(rest) - len(virtualDateLayout) - 1
	if rest[sep] != '-' {
		return "", time.Time{}, fmt.Errorf("malformed virtual route id: %q", id)
	}

	templateID = rest[:sep]
	dateStr := rest[sep+1:]

	date, err = time.ParseInLocation(virtualDateLayout, dateStr, time.UTC)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("invalid date in virtual route id %q: %w", id, err)
	}

	return templateID, date, nil
}

// CreateRouteRequest represents the payload for manual route creation
type CreateRouteRequest struct {
	Origin             string  `json:"origin" binding:"required"`
	OriginState        *string `json:"origin_state"`
	OriginCountry      string  `json:"origin_country" binding:"required"`
	OriginType         string  `json:"origin_type" binding:"required"`
	Destination        string  `json:"destination" binding:"required"`
	DestinationState   *string `json:"destination_state"`
	DestinationCountry string  `json:"destination_country" binding:"required"`
	DestinationType    string  `json:"destination_type" binding:"required"`
	DepartureTime      string  `json:"departure_time" binding:"required"` // RFC3339
	ArrivalTime        string  `json:"arrival_time" binding:"required"`   // RFC3339
	Price              float64 `json:"price" binding:"required"`
	Type               string  `json:"type" binding:"required"`
	TotalSeats         int     `json:"total_seats" binding:"required"`
}

// Validate validates the create route request
func (r *CreateRouteRequest) Validate() error {
	if !TransportType(r.Type).IsValid() {
		return NewValidationError("type", "must be one of BUS, BOAT, FERRY")
	}
	if r.TotalSeats <= 0 {
		return NewValidationError("total_seats", "must be greater than zero")
	}
	if r.Price <= 0 {
		return NewValidationError("price", "must be greater than zero")
	}
	departure, err := time.Parse(time.RFC3339, r.DepartureTime)
	if err != nil {
		return NewValidationError("departure_time", "must be a valid RFC3339 timestamp")
	}
	arrival, err := time.Parse(time.RFC3339, r.ArrivalTime)
	if err != nil {
		return NewValidationError("arrival_time", "must be a valid RFC3339 timestamp")
	}
	if !arrival.After(departure) {
		return NewValidationError("arrival_time", "must be after departure_time")
	}
	return nil
}

// UpdateRouteRequest represents the payload for updating a route
type UpdateRouteRequest struct {
	DepartureTime *string  `json:"departure_time,omitempty"`
	ArrivalTime   *string  `json:"arrival_time,omitempty"`
	Price         *float64 `json:"price,omitempty"`
	TotalSeats    *int     `json:"total_seats,omitempty"`
	Active        *bool    `json:"active,omitempty"`
}

// RouteDetails is a route enriched with its computed seat availability
type RouteDetails struct {
	Route
	AvailableSeats int `json:"available_seats"`
}
