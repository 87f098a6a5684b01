package database

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viajabr/marketplace-backend/internal/models"
)

// newMockDB wraps a sqlmock connection in the sqlx-backed DB used by the
// repositories.
func newMockDB(t *testing.T) (DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &PostgresDB{DB: sqlx.NewDb(db, "sqlmock")}, mock
}

var routeRows = []string{
	"id", "company_id", "origin", "origin_state", "origin_country", "origin_type",
	"destination", "destination_state", "destination_country", "destination_type",
	"departure_time", "arrival_time", "price", "type", "total_seats", "active",
	"created_at", "updated_at",
}

func addRouteRow(rows *sqlmock.Rows, id, companyID string, departure time.Time) *sqlmock.Rows {
	now := time.Now().UTC()
	return rows.AddRow(
		id, companyID, "Manaus", nil, "BR", "PORT",
		"Santarem", nil, "BR", "PORT",
		departure, departure.Add(12*time.Hour), 250.0, "BOAT", 120, true,
		now, now,
	)
}

func TestRouteGetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRouteRepository(db)
	departure := time.Date(2026, 3, 16, 8, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM routes WHERE id`).
			WithArgs("route-1").
			WillReturnRows(addRouteRow(sqlmock.NewRows(routeRows), "route-1", "company-1", departure))

		route, err := repo.GetByID("route-1")
		require.NoError(t, err)
		assert.Equal(t, "route-1", route.ID)
		assert.Equal(t, "company-1", route.CompanyID)
		assert.True(t, route.DepartureTime.Equal(departure))

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM routes WHERE id`).
			WithArgs("route-404").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID("route-404")
		assert.ErrorIs(t, err, models.ErrNotFound)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRouteCreate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRouteRepository(db)

	route := &models.Route{
		CompanyID:          "company-1",
		Origin:             "Manaus",
		OriginCountry:      "BR",
		OriginType:         models.LocationTypePort,
		Destination:        "Santarem",
		DestinationCountry: "BR",
		DestinationType:    models.LocationTypePort,
		DepartureTime:      time.Date(2026, 3, 16, 8, 0, 0, 0, time.UTC),
		ArrivalTime:        time.Date(2026, 3, 16, 20, 0, 0, 0, time.UTC),
		Price:              250,
		Type:               models.TransportTypeBoat,
		TotalSeats:         120,
		Active:             true,
	}

	t.Run("Success", func(t *testing.T) {
		now := time.Now().UTC()
		mock.ExpectQuery(`INSERT INTO routes`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

		err := repo.Create(route)
		require.NoError(t, err)
		assert.NotEmpty(t, route.ID, "an ID is assigned before insert")

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Duplicate Departure Slot", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO routes`).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "uq_routes_company_departure_slot"})

		err := repo.Create(route)
		assert.ErrorIs(t, err, models.ErrConflict)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Other Database Error", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO routes`).
			WillReturnError(fmt.Errorf("connection reset"))

		err := repo.Create(route)
		require.Error(t, err)
		assert.NotErrorIs(t, err, models.ErrConflict)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAvailableSeats(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRouteRepository(db)

	t.Run("Derived From Active Tickets", func(t *testing.T) {
		mock.ExpectQuery(`SELECT GREATEST`).
			WithArgs("route-1", sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"greatest"}).AddRow(7))

		available, err := repo.GetAvailableSeats("route-1")
		require.NoError(t, err)
		assert.Equal(t, 7, available)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Missing Route", func(t *testing.T) {
		mock.ExpectQuery(`SELECT GREATEST`).
			WithArgs("route-404", sqlmock.AnyArg()).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetAvailableSeats("route-404")
		assert.ErrorIs(t, err, models.ErrNotFound)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSearchLocations(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRouteRepository(db)
	locationRows := []string{"name", "state", "country", "type"}

	t.Run("Both Ends", func(t *testing.T) {
		mock.ExpectQuery(`SELECT DISTINCT origin (.+) UNION\s+SELECT DISTINCT destination`).
			WithArgs("Man", 20).
			WillReturnRows(sqlmock.NewRows(locationRows).
				AddRow("Manaus", "AM", "BR", "PORT"))

		locations, err := repo.SearchLocations("Man", "", 20)
		require.NoError(t, err)
		require.Len(t, locations, 1)
		assert.Equal(t, "Manaus", locations[0].Name)
		assert.Equal(t, models.LocationTypePort, locations[0].Type)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Destination Side Only", func(t *testing.T) {
		mock.ExpectQuery(`SELECT DISTINCT destination AS name`).
			WithArgs("Sant", 20).
			WillReturnRows(sqlmock.NewRows(locationRows))

		locations, err := repo.SearchLocations("Sant", "destination", 20)
		require.NoError(t, err)
		assert.Empty(t, locations)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCreateOccurrence(t *testing.T) {
	departure := time.Date(2026, 3, 16, 8, 0, 0, 0, time.UTC)

	occurrence := func() *models.Route {
		return &models.Route{
			CompanyID:          "company-1",
			Origin:             "Manaus",
			OriginCountry:      "BR",
			OriginType:         models.LocationTypePort,
			Destination:        "Santarem",
			DestinationCountry: "BR",
			DestinationType:    models.LocationTypePort,
			DepartureTime:      departure,
			ArrivalTime:        departure.Add(12 * time.Hour),
			Price:              250,
			Type:               models.TransportTypeBoat,
			TotalSeats:         120,
			Active:             true,
		}
	}

	t.Run("Existing Route In Window Wins", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewRouteRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT (.+) FROM routes\s+WHERE company_id`).
			WillReturnRows(addRouteRow(sqlmock.NewRows(routeRows), "route-existing", "company-1", departure))
		mock.ExpectCommit()

		created, err := repo.CreateOccurrence(occurrence())
		require.NoError(t, err)
		assert.Equal(t, "route-existing", created.ID)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Empty Window Creates", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewRouteRepository(db)
		now := time.Now().UTC()

		mock.ExpectBegin()
		mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT (.+) FROM routes\s+WHERE company_id`).
			WillReturnRows(sqlmock.NewRows(routeRows))
		mock.ExpectQuery(`INSERT INTO routes`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
		mock.ExpectCommit()

		created, err := repo.CreateOccurrence(occurrence())
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unique Violation Re-Reads Winner", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewRouteRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT (.+) FROM routes\s+WHERE company_id`).
			WillReturnRows(sqlmock.NewRows(routeRows))
		mock.ExpectQuery(`INSERT INTO routes`).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "uq_routes_company_departure_slot"})
		mock.ExpectQuery(`SELECT (.+) FROM routes\s+WHERE company_id`).
			WillReturnRows(addRouteRow(sqlmock.NewRows(routeRows), "route-winner", "company-1", departure))
		mock.ExpectRollback()

		created, err := repo.CreateOccurrence(occurrence())
		require.NoError(t, err)
		assert.Equal(t, "route-winner", created.ID)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRouteDeactivateAndDelete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRouteRepository(db)

	t.Run("Deactivate", func(t *testing.T) {
		mock.ExpectExec(`UPDATE routes SET active = FALSE`).
			WithArgs("route-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Deactivate("route-1"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Deactivate Missing", func(t *testing.T) {
		mock.ExpectExec(`UPDATE routes SET active = FALSE`).
			WithArgs("route-404").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Deactivate("route-404"), models.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Delete", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM routes`).
			WithArgs("route-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Delete("route-1"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestHasTickets(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRouteRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM tickets WHERE route_id`).
		WithArgs("route-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	has, err := repo.HasTickets("route-1")
	require.NoError(t, err)
	assert.True(t, has)

	assert.NoError(t, mock.ExpectationsWereMet())
}
