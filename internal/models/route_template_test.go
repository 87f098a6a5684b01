package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteTemplateRunsOn(t *testing.T) {
	// 2026-03-15 is a Sunday, 2026-03-16 a Monday.
	sunday := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	monday := time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)

	tpl := RouteTemplate{DaysOfWeek: IntArray{1, 3, 5}}
	assert.True(t, tpl.RunsOn(monday))
	assert.False(t, tpl.RunsOn(sunday))

	t.Run("UTC Weekday Not Local", func(t *testing.T) {
		// Saturday 22:00 in UTC-3 is already Sunday in UTC.
		loc := time.FixedZone("BRT", -3*3600)
		saturdayNight := time.Date(2026, 3, 14, 22, 0, 0, 0, loc)

		sundayOnly := RouteTemplate{DaysOfWeek: IntArray{0}}
		assert.True(t, sundayOnly.RunsOn(saturdayNight))

		saturdayOnly := RouteTemplate{DaysOfWeek: IntArray{6}}
		assert.False(t, saturdayOnly.RunsOn(saturdayNight))
	})

	t.Run("Empty Set Never Matches", func(t *testing.T) {
		empty := RouteTemplate{}
		assert.False(t, empty.RunsOn(monday))
	})
}

func TestRouteTemplateValidDaysOfWeek(t *testing.T) {
	assert.True(t, (&RouteTemplate{DaysOfWeek: IntArray{0, 6}}).ValidDaysOfWeek())
	assert.False(t, (&RouteTemplate{DaysOfWeek: IntArray{}}).ValidDaysOfWeek())
	assert.False(t, (&RouteTemplate{DaysOfWeek: nil}).ValidDaysOfWeek())
	assert.False(t, (&RouteTemplate{DaysOfWeek: IntArray{7}}).ValidDaysOfWeek())
	assert.False(t, (&RouteTemplate{DaysOfWeek: IntArray{1, -1}}).ValidDaysOfWeek())
}

func TestCreateRouteTemplateRequestValidate(t *testing.T) {
	valid := func() CreateRouteTemplateRequest {
		return CreateRouteTemplateRequest{
			Origin:             "Belem",
			OriginCountry:      "BR",
			OriginType:         "PORT",
			Destination:        "Macapa",
			DestinationCountry: "BR",
			DestinationType:    "PORT",
			DepartureTime:      "18:00",
			ArrivalTime:        "06:00",
			DaysOfWeek:         []int{1, 4},
			Price:              180,
			Type:               "FERRY",
			TotalSeats:         200,
		}
	}

	t.Run("Valid", func(t *testing.T) {
		req := valid()
		assert.NoError(t, req.Validate())
	})

	t.Run("Empty Weekdays", func(t *testing.T) {
		req := valid()
		req.DaysOfWeek = []int{}
		assert.Error(t, req.Validate())
	})

	t.Run("Weekday Out Of Range", func(t *testing.T) {
		req := valid()
		req.DaysOfWeek = []int{1, 7}
		assert.Error(t, req.Validate())
	})

	t.Run("Duplicate Weekday", func(t *testing.T) {
		req := valid()
		req.DaysOfWeek = []int{2, 2}
		assert.Error(t, req.Validate())
	})

	t.Run("Bad Clock", func(t *testing.T) {
		req := valid()
		req.DepartureTime = "25:00"

		err := req.Validate()
		require.Error(t, err)

		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "departure_time", vErr.Field)
	})
}

func TestParseClock(t *testing.T) {
	hour, minute, err := ParseClock("07:45")
	require.NoError(t, err)
	assert.Equal(t, 7, hour)
	assert.Equal(t, 45, minute)

	hour, minute, err = ParseClock("00:00")
	require.NoError(t, err)
	assert.Equal(t, 0, hour)
	assert.Equal(t, 0, minute)

	for _, bad := range []string{"24:00", "7:45", "07:60", "0745", ""} {
		_, _, err := ParseClock(bad)
		assert.Error(t, err, "expected %q to be rejected", bad)
	}
}

func TestCombineClockUTC(t *testing.T) {
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	got := CombineClockUTC(date, 18, 30)
	assert.Equal(t, time.Date(2026, 3, 15, 18, 30, 0, 0, time.UTC), got)

	// The time-of-day of the input date is irrelevant.
	noon := time.Date(2026, 3, 15, 12, 17, 9, 0, time.UTC)
	assert.Equal(t, got, CombineClockUTC(noon, 18, 30))
}
