package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/viajabr/marketplace-backend/internal/middleware"
	"github.com/viajabr/marketplace-backend/internal/models"
	"github.com/viajabr/marketplace-backend/internal/services"
)

// RouteHandler handles HTTP requests for route search and management
type RouteHandler struct {
	service *services.RouteService
	logger  *logrus.Logger
}

// NewRouteHandler creates a new route handler
func NewRouteHandler(service *services.RouteService, logger *logrus.Logger) *RouteHandler {
	return &RouteHandler{
		service: service,
		logger:  logger,
	}
}

// Search handles GET /api/v1/routes/search. The response mixes persisted
// routes and virtual occurrences; virtual IDs are bookable like any other.
func (h *RouteHandler) Search(c *gin.Context) {
	var req models.SearchRoutesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, err := h.service.SearchOccurrences(&req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// AdvancedSearch handles POST /api/v1/routes/search/advanced
func (h *RouteHandler) AdvancedSearch(c *gin.Context) {
	var req models.AdvancedSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, err := h.service.AdvancedSearch(&req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// SearchLocations handles GET /api/v1/routes/locations (autocomplete)
func (h *RouteHandler) SearchLocations(c *gin.Context) {
	var req models.SearchLocationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}

	locations, err := h.service.SearchLocations(&req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"locations": locations})
}

// Get handles GET /api/v1/routes/:id for both physical and virtual IDs
func (h *RouteHandler) Get(c *gin.Context) {
	details, err := h.service.GetDetails(c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, details)
}

// Create handles POST /api/v1/company/routes
func (h *RouteHandler) Create(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.CreateRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	route, err := h.service.Create(*userCtx.CompanyID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, route)
}

// Update handles PUT /api/v1/company/routes/:id
func (h *RouteHandler) Update(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.UpdateRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	route, err := h.service.Update(*userCtx.CompanyID, c.Param("id"), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, route)
}

// Delete handles DELETE /api/v1/company/routes/:id
func (h *RouteHandler) Delete(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	if err := h.service.Delete(*userCtx.CompanyID, c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListMine handles GET /api/v1/company/routes
func (h *RouteHandler) ListMine(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)
	page, limit := pageParams(c)

	routes, total, err := h.service.ListByCompany(*userCtx.CompanyID, page, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"routes": routes,
		"meta":   models.NewSearchMeta(total, page, limit),
	})
}
