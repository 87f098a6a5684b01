package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/viajabr/marketplace-backend/internal/middleware"
	"github.com/viajabr/marketplace-backend/internal/models"
	"github.com/viajabr/marketplace-backend/internal/services"
)

// RouteTemplateHandler handles HTTP requests for recurring route templates
type RouteTemplateHandler struct {
	service *services.TemplateService
	logger  *logrus.Logger
}

// NewRouteTemplateHandler creates a new route template handler
func NewRouteTemplateHandler(service *services.TemplateService, logger *logrus.Logger) *RouteTemplateHandler {
	return &RouteTemplateHandler{
		service: service,
		logger:  logger,
	}
}

// Create handles POST /api/v1/company/templates
func (h *RouteTemplateHandler) Create(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.CreateRouteTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	template, err := h.service.Create(*userCtx.CompanyID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, template)
}

// Get handles GET /api/v1/company/templates/:id
func (h *RouteTemplateHandler) Get(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	template, err := h.service.Get(*userCtx.CompanyID, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, template)
}

// List handles GET /api/v1/company/templates
func (h *RouteTemplateHandler) List(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)
	page, limit := pageParams(c)

	templates, total, err := h.service.List(*userCtx.CompanyID, page, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"templates": templates,
		"meta":      models.NewSearchMeta(total, page, limit),
	})
}

// Update handles PUT /api/v1/company/templates/:id
func (h *RouteTemplateHandler) Update(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.UpdateRouteTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	template, err := h.service.Update(*userCtx.CompanyID, c.Param("id"), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, template)
}

// Delete handles DELETE /api/v1/company/templates/:id
func (h *RouteTemplateHandler) Delete(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	if err := h.service.Delete(*userCtx.CompanyID, c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
