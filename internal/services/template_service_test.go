package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viajabr/marketplace-backend/internal/models"
)

type fakeTemplateManagementStore struct {
	fakeTemplateStore
	created int
}

func newFakeTemplateManagementStore() *fakeTemplateManagementStore {
	return &fakeTemplateManagementStore{
		fakeTemplateStore: fakeTemplateStore{templates: map[string]*models.RouteTemplate{}},
	}
}

func (f *fakeTemplateManagementStore) Create(t *models.RouteTemplate) error {
	f.created++
	t.ID = fmt.Sprintf("tpl-%d", f.created)
	clone := *t
	f.templates[clone.ID] = &clone
	return nil
}

func (f *fakeTemplateManagementStore) ListByCompany(companyID string, page, limit int) ([]models.RouteTemplate, int, error) {
	out := []models.RouteTemplate{}
	for _, t := range f.templates {
		if t.CompanyID == companyID {
			out = append(out, *t)
		}
	}
	return out, len(out), nil
}

func (f *fakeTemplateManagementStore) Update(id string, req *models.UpdateRouteTemplateRequest) (*models.RouteTemplate, error) {
	t, ok := f.templates[id]
	if !ok {
		return nil, fmt.Errorf("template %s: %w", id, models.ErrNotFound)
	}
	if req.DepartureTime != nil {
		t.DepartureTime = *req.DepartureTime
	}
	if req.ArrivalTime != nil {
		t.ArrivalTime = *req.ArrivalTime
	}
	if req.DaysOfWeek != nil {
		t.DaysOfWeek = models.IntArray(req.DaysOfWeek)
	}
	if req.Price != nil {
		t.Price = *req.Price
	}
	clone := *t
	return &clone, nil
}

func (f *fakeTemplateManagementStore) Delete(id string) error {
	if _, ok := f.templates[id]; !ok {
		return fmt.Errorf("template %s: %w", id, models.ErrNotFound)
	}
	delete(f.templates, id)
	return nil
}

func createTemplateRequest() *models.CreateRouteTemplateRequest {
	return &models.CreateRouteTemplateRequest{
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

func TestTemplateCreate(t *testing.T) {
	store := newFakeTemplateManagementStore()
	service := NewTemplateService(store, testLogger())

	t.Run("Success", func(t *testing.T) {
		template, err := service.Create("company-1", createTemplateRequest())
		require.NoError(t, err)
		assert.NotEmpty(t, template.ID)
		assert.Equal(t, "company-1", template.CompanyID)
		assert.True(t, template.Active)
		assert.Equal(t, models.IntArray{1, 4}, template.DaysOfWeek)
	})

	t.Run("Invalid Weekdays Rejected", func(t *testing.T) {
		req := createTemplateRequest()
		req.DaysOfWeek = []int{8}
		_, err := service.Create("company-1", req)
		assert.Error(t, err)
	})
}

func TestTemplateOwnership(t *testing.T) {
	store := newFakeTemplateManagementStore()
	service := NewTemplateService(store, testLogger())

	template, err := service.Create("company-1", createTemplateRequest())
	require.NoError(t, err)

	t.Run("Get By Owner", func(t *testing.T) {
		got, err := service.Get("company-1", template.ID)
		require.NoError(t, err)
		assert.Equal(t, template.ID, got.ID)
	})

	t.Run("Get By Other Company", func(t *testing.T) {
		_, err := service.Get("company-2", template.ID)
		assert.ErrorIs(t, err, models.ErrForbidden)
	})

	t.Run("Update By Other Company", func(t *testing.T) {
		price := 200.0
		_, err := service.Update("company-2", template.ID, &models.UpdateRouteTemplateRequest{Price: &price})
		assert.ErrorIs(t, err, models.ErrForbidden)
	})

	t.Run("Delete By Other Company", func(t *testing.T) {
		err := service.Delete("company-2", template.ID)
		assert.ErrorIs(t, err, models.ErrForbidden)
	})
}

func TestTemplateUpdate(t *testing.T) {
	store := newFakeTemplateManagementStore()
	service := NewTemplateService(store, testLogger())

	template, err := service.Create("company-1", createTemplateRequest())
	require.NoError(t, err)

	t.Run("Success", func(t *testing.T) {
		updated, err := service.Update("company-1", template.ID, &models.UpdateRouteTemplateRequest{
			DaysOfWeek: []int{0, 6},
		})
		require.NoError(t, err)
		assert.Equal(t, models.IntArray{0, 6}, updated.DaysOfWeek)
	})

	t.Run("Invalid Weekdays", func(t *testing.T) {
		_, err := service.Update("company-1", template.ID, &models.UpdateRouteTemplateRequest{
			DaysOfWeek: []int{0, 7},
		})
		var vErr *models.ValidationError
		assert.ErrorAs(t, err, &vErr)
	})

	t.Run("Invalid Clock", func(t *testing.T) {
		bad := "9pm"
		_, err := service.Update("company-1", template.ID, &models.UpdateRouteTemplateRequest{
			DepartureTime: &bad,
		})
		var vErr *models.ValidationError
		assert.ErrorAs(t, err, &vErr)
	})
}

func TestTemplateDelete(t *testing.T) {
	store := newFakeTemplateManagementStore()
	service := NewTemplateService(store, testLogger())

	template, err := service.Create("company-1", createTemplateRequest())
	require.NoError(t, err)

	require.NoError(t, service.Delete("company-1", template.ID))

	_, err = service.Get("company-1", template.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
