package services

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viajabr/marketplace-backend/internal/events"
	"github.com/viajabr/marketplace-backend/internal/metrics"
	"github.com/viajabr/marketplace-backend/internal/models"
	"github.com/viajabr/marketplace-backend/pkg/ticketcode"
)

// fakeTicketStore keeps tickets in memory. Errors queued in reserveErrs are
// returned by successive ReserveSeat calls, letting tests script conflict
// and sold-out sequences.
type fakeTicketStore struct {
	mu           sync.Mutex
	tickets      map[string]*models.Ticket
	routesByID   map[string]*models.Route
	reserveErrs  []error
	reserveCalls int
	seenCodes    []string
}

func newFakeTicketStore() *fakeTicketStore {
	return &fakeTicketStore{
		tickets:    map[string]*models.Ticket{},
		routesByID: map[string]*models.Route{},
	}
}

func (f *fakeTicketStore) ReserveSeat(ticket *models.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reserveCalls++
	f.seenCodes = append(f.seenCodes, ticket.TicketCode)

	if len(f.reserveErrs) > 0 {
		err := f.reserveErrs[0]
		f.reserveErrs = f.reserveErrs[1:]
		if err != nil {
			return err
		}
	}

	if ticket.ID == "" {
		ticket.ID = fmt.Sprintf("ticket-%d", len(f.tickets)+1)
	}
	clone := *ticket
	f.tickets[clone.ID] = &clone
	return nil
}

func (f *fakeTicketStore) GetByID(id string) (*models.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tickets[id]
	if !ok {
		return nil, fmt.Errorf("ticket %s: %w", id, models.ErrNotFound)
	}
	clone := *t
	return &clone, nil
}

func (f *fakeTicketStore) GetByCode(code string) (*models.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tickets {
		if t.TicketCode == code {
			clone := *t
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("ticket %s: %w", code, models.ErrNotFound)
}

func (f *fakeTicketStore) ListByUser(userID string, page, limit int) ([]models.Ticket, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Ticket{}
	for _, t := range f.tickets {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	return out, len(out), nil
}

func (f *fakeTicketStore) UpdateStatus(id string, status models.TicketStatus) (*models.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tickets[id]
	if !ok {
		return nil, fmt.Errorf("ticket %s: %w", id, models.ErrNotFound)
	}
	t.Status = status
	t.UpdatedAt = time.Now().UTC()
	clone := *t
	return &clone, nil
}

func (f *fakeTicketStore) GetTicketRoute(ticketID string) (*models.Route, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tickets[ticketID]
	if !ok {
		return nil, fmt.Errorf("ticket %s: %w", ticketID, models.ErrNotFound)
	}
	route, ok := f.routesByID[t.RouteID]
	if !ok {
		return nil, fmt.Errorf("route %s: %w", t.RouteID, models.ErrNotFound)
	}
	clone := *route
	return &clone, nil
}

func newTicketService(tickets *fakeTicketStore, templates *fakeTemplateStore, routes *fakeRouteStore) *TicketService {
	generator := NewRouteGeneratorService(templates, routes, metrics.NewCollector(), testLogger())
	return NewTicketService(tickets, generator, metrics.NewCollector(), events.NoopPublisher{}, testLogger())
}

func reserveRequest() *models.ReserveTicketRequest {
	return &models.ReserveTicketRequest{
		RouteID:           "route-1",
		Passenger:         "Maria Silva",
		PassengerDocument: "123.456.789-00",
	}
}

func TestReserve(t *testing.T) {
	t.Run("Physical Route", func(t *testing.T) {
		tickets := newFakeTicketStore()
		service := newTicketService(tickets,
			&fakeTemplateStore{templates: map[string]*models.RouteTemplate{}},
			newFakeRouteStore())

		ticket, err := service.Reserve("user-1", reserveRequest())
		require.NoError(t, err)
		assert.Equal(t, models.TicketStatusReserved, ticket.Status)
		assert.Equal(t, "route-1", ticket.RouteID)
		assert.Equal(t, "user-1", ticket.UserID)
		assert.True(t, ticketcode.IsValid(ticket.TicketCode))
		assert.Equal(t, 1, tickets.reserveCalls)
	})

	t.Run("Virtual Route Is Materialized First", func(t *testing.T) {
		tickets := newFakeTicketStore()
		templates := &fakeTemplateStore{templates: map[string]*models.RouteTemplate{
			"tpl-1": testTemplate("tpl-1"),
		}}
		routes := newFakeRouteStore()
		service := newTicketService(tickets, templates, routes)

		req := reserveRequest()
		req.RouteID = models.VirtualRouteID("tpl-1", monday)

		ticket, err := service.Reserve("user-1", req)
		require.NoError(t, err)
		assert.Equal(t, 1, routes.created)
		assert.False(t, models.IsVirtualRouteID(ticket.RouteID))

		materialized, err := routes.GetByID(ticket.RouteID)
		require.NoError(t, err)
		assert.Equal(t, "company-1", materialized.CompanyID)
	})

	t.Run("Materialization Failure Blocks Reservation", func(t *testing.T) {
		tickets := newFakeTicketStore()
		service := newTicketService(tickets,
			&fakeTemplateStore{templates: map[string]*models.RouteTemplate{}},
			newFakeRouteStore())

		req := reserveRequest()
		req.RouteID = models.VirtualRouteID("tpl-gone", monday)

		_, err := service.Reserve("user-1", req)
		require.Error(t, err)
		assert.Equal(t, 0, tickets.reserveCalls, "no ticket may be written after a failed materialization")
	})

	t.Run("Code Collision Retries Once", func(t *testing.T) {
		tickets := newFakeTicketStore()
		tickets.reserveErrs = []error{
			fmt.Errorf("ticket code taken: %w", models.ErrConflict),
			nil,
		}
		service := newTicketService(tickets,
			&fakeTemplateStore{templates: map[string]*models.RouteTemplate{}},
			newFakeRouteStore())

		ticket, err := service.Reserve("user-1", reserveRequest())
		require.NoError(t, err)
		assert.Equal(t, 2, tickets.reserveCalls)
		require.Len(t, tickets.seenCodes, 2)
		assert.NotEqual(t, tickets.seenCodes[0], tickets.seenCodes[1], "retry must use a fresh code")
		assert.Equal(t, tickets.seenCodes[1], ticket.TicketCode)
	})

	t.Run("Second Collision Fails", func(t *testing.T) {
		tickets := newFakeTicketStore()
		tickets.reserveErrs = []error{
			fmt.Errorf("ticket code taken: %w", models.ErrConflict),
			fmt.Errorf("ticket code taken: %w", models.ErrConflict),
		}
		service := newTicketService(tickets,
			&fakeTemplateStore{templates: map[string]*models.RouteTemplate{}},
			newFakeRouteStore())

		_, err := service.Reserve("user-1", reserveRequest())
		assert.ErrorIs(t, err, models.ErrConflict)
		assert.Equal(t, 2, tickets.reserveCalls)
	})

	t.Run("Sold Out Is Not Retried", func(t *testing.T) {
		tickets := newFakeTicketStore()
		tickets.reserveErrs = []error{
			fmt.Errorf("route route-1: %w", models.ErrSoldOut),
		}
		service := newTicketService(tickets,
			&fakeTemplateStore{templates: map[string]*models.RouteTemplate{}},
			newFakeRouteStore())

		_, err := service.Reserve("user-1", reserveRequest())
		assert.ErrorIs(t, err, models.ErrSoldOut)
		assert.Equal(t, 1, tickets.reserveCalls)
	})
}

func TestReserveMultiple(t *testing.T) {
	t.Run("Partial Success Keeps Earlier Seats", func(t *testing.T) {
		tickets := newFakeTicketStore()
		tickets.reserveErrs = []error{
			nil,
			fmt.Errorf("route route-1: %w", models.ErrSoldOut),
			fmt.Errorf("route route-1: %w", models.ErrSoldOut),
		}
		service := newTicketService(tickets,
			&fakeTemplateStore{templates: map[string]*models.RouteTemplate{}},
			newFakeRouteStore())

		outcomes, err := service.ReserveMultiple("user-1", &models.ReserveMultipleRequest{
			RouteID: "route-1",
			Passengers: []models.PassengerInfo{
				{Name: "Maria Silva", Document: "111"},
				{Name: "Joao Souza", Document: "222"},
				{Name: "Ana Costa", Document: "333"},
			},
		})
		require.NoError(t, err)
		require.Len(t, outcomes, 3)

		assert.NotNil(t, outcomes[0].Ticket)
		assert.Empty(t, outcomes[0].Error)

		assert.Nil(t, outcomes[1].Ticket)
		assert.NotEmpty(t, outcomes[1].Error)
		assert.Nil(t, outcomes[2].Ticket)

		assert.Len(t, tickets.tickets, 1, "the successful seat stays booked")
	})

	t.Run("Route Resolved Once", func(t *testing.T) {
		tickets := newFakeTicketStore()
		templates := &fakeTemplateStore{templates: map[string]*models.RouteTemplate{
			"tpl-1": testTemplate("tpl-1"),
		}}
		routes := newFakeRouteStore()
		service := newTicketService(tickets, templates, routes)

		outcomes, err := service.ReserveMultiple("user-1", &models.ReserveMultipleRequest{
			RouteID: models.VirtualRouteID("tpl-1", monday),
			Passengers: []models.PassengerInfo{
				{Name: "Maria Silva", Document: "111"},
				{Name: "Joao Souza", Document: "222"},
			},
		})
		require.NoError(t, err)
		require.Len(t, outcomes, 2)
		assert.Equal(t, 1, routes.created)
		assert.Equal(t, outcomes[0].Ticket.RouteID, outcomes[1].Ticket.RouteID)
	})
}

func TestTicketGet(t *testing.T) {
	tickets := newFakeTicketStore()
	service := newTicketService(tickets,
		&fakeTemplateStore{templates: map[string]*models.RouteTemplate{}},
		newFakeRouteStore())

	owned, err := service.Reserve("user-1", reserveRequest())
	require.NoError(t, err)

	t.Run("Owner", func(t *testing.T) {
		got, err := service.Get("user-1", models.UserRoleCustomer, owned.ID)
		require.NoError(t, err)
		assert.Equal(t, owned.ID, got.ID)
	})

	t.Run("Other Customer", func(t *testing.T) {
		_, err := service.Get("user-2", models.UserRoleCustomer, owned.ID)
		assert.ErrorIs(t, err, models.ErrForbidden)
	})

	t.Run("Admin", func(t *testing.T) {
		_, err := service.Get("admin-1", models.UserRoleAdmin, owned.ID)
		assert.NoError(t, err)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := service.Get("user-1", models.UserRoleCustomer, "nope")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestTicketCancel(t *testing.T) {
	tickets := newFakeTicketStore()
	service := newTicketService(tickets,
		&fakeTemplateStore{templates: map[string]*models.RouteTemplate{}},
		newFakeRouteStore())

	t.Run("Reserved Ticket", func(t *testing.T) {
		ticket, err := service.Reserve("user-1", reserveRequest())
		require.NoError(t, err)

		cancelled, err := service.Cancel("user-1", models.UserRoleCustomer, ticket.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TicketStatusCancelled, cancelled.Status)
	})

	t.Run("Other Customer Forbidden", func(t *testing.T) {
		ticket, err := service.Reserve("user-1", reserveRequest())
		require.NoError(t, err)

		_, err = service.Cancel("user-2", models.UserRoleCustomer, ticket.ID)
		assert.ErrorIs(t, err, models.ErrForbidden)
	})

	t.Run("Used Ticket Cannot Be Cancelled", func(t *testing.T) {
		ticket, err := service.Reserve("user-1", reserveRequest())
		require.NoError(t, err)
		_, err = tickets.UpdateStatus(ticket.ID, models.TicketStatusUsed)
		require.NoError(t, err)

		_, err = service.Cancel("user-1", models.UserRoleCustomer, ticket.ID)
		assert.ErrorIs(t, err, models.ErrConflict)
	})
}

func TestTicketUse(t *testing.T) {
	setup := func(t *testing.T, status models.TicketStatus) (*TicketService, *fakeTicketStore, *models.Ticket) {
		tickets := newFakeTicketStore()
		service := newTicketService(tickets,
			&fakeTemplateStore{templates: map[string]*models.RouteTemplate{}},
			newFakeRouteStore())

		ticket, err := service.Reserve("user-1", reserveRequest())
		require.NoError(t, err)
		if status != models.TicketStatusReserved {
			_, err = tickets.UpdateStatus(ticket.ID, status)
			require.NoError(t, err)
		}
		tickets.routesByID["route-1"] = &models.Route{ID: "route-1", CompanyID: "company-1"}
		return service, tickets, ticket
	}

	t.Run("Paid Ticket Becomes Used", func(t *testing.T) {
		service, _, ticket := setup(t, models.TicketStatusPaid)

		used, err := service.Use("company-1", ticket.TicketCode)
		require.NoError(t, err)
		assert.Equal(t, models.TicketStatusUsed, used.Status)
	})

	t.Run("Wrong Company Forbidden", func(t *testing.T) {
		service, _, ticket := setup(t, models.TicketStatusPaid)

		_, err := service.Use("company-2", ticket.TicketCode)
		assert.ErrorIs(t, err, models.ErrForbidden)
	})

	t.Run("Reserved Ticket Rejected", func(t *testing.T) {
		service, _, ticket := setup(t, models.TicketStatusReserved)

		_, err := service.Use("company-1", ticket.TicketCode)
		assert.ErrorIs(t, err, models.ErrConflict)
	})

	t.Run("Unknown Code", func(t *testing.T) {
		service, _, _ := setup(t, models.TicketStatusPaid)

		_, err := service.Use("company-1", "TKT-FFFFFFFF")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}
