package models

import (
	"database/sql/driver"

	"github.com/lib/pq"
)

// IntArray is a custom type for handling INTEGER[] columns in PostgreSQL.
// Used for route template weekday sets (days_of_week). Value and Scan go
// through pq.Int64Array; lib/pq has no element decoder for plain int.
type IntArray []int

// Value implements the driver.Valuer interface
func (a IntArray) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	wide := make(pq.Int64Array, len(a))
	for i, v := range a {
		wide[i] = int64(v)
	}
	return wide.Value()
}

// Scan implements the sql.Scanner interface
func (a *IntArray) Scan(src interface{}) error {
	if src == nil {
		*a = nil
		return nil
	}
	var wide pq.Int64Array
	if err := wide.Scan(src); err != nil {
		return err
	}
	out := make(IntArray, len(wide))
	for i, v := range wide {
		out[i] = int(v)
	}
	*a = out
	return nil
}

// StringArray is a custom type for TEXT[] values in PostgreSQL queries.
// Carries the company-id filter of route searches.
type StringArray []string

// Value implements the driver.Valuer interface
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	return pq.StringArray(a).Value()
}

// Scan implements the sql.Scanner interface
func (a *StringArray) Scan(src interface{}) error {
	if src == nil {
		*a = nil
		return nil
	}
	return (*pq.StringArray)(a).Scan(src)
}
