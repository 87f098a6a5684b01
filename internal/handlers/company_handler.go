package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/viajabr/marketplace-backend/internal/middleware"
	"github.com/viajabr/marketplace-backend/internal/models"
	"github.com/viajabr/marketplace-backend/internal/services"
)

// CompanyHandler handles HTTP requests for company onboarding and admin
// approval.
type CompanyHandler struct {
	service *services.CompanyService
	logger  *logrus.Logger
}

// NewCompanyHandler creates a new company handler
func NewCompanyHandler(service *services.CompanyService, logger *logrus.Logger) *CompanyHandler {
	return &CompanyHandler{
		service: service,
		logger:  logger,
	}
}

// Register handles POST /api/v1/companies
func (h *CompanyHandler) Register(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	company, err := h.service.Register(userCtx.UserID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, company)
}

// GetMine handles GET /api/v1/companies/me
func (h *CompanyHandler) GetMine(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	company, err := h.service.GetMine(userCtx.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, company)
}

// Get handles GET /api/v1/companies/:id
func (h *CompanyHandler) Get(c *gin.Context) {
	company, err := h.service.Get(c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, company)
}

// List handles GET /api/v1/admin/companies with an optional ?approved filter
func (h *CompanyHandler) List(c *gin.Context) {
	page, limit := pageParams(c)

	var approved *bool
	if raw := c.Query("approved"); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			respondBindError(c, err)
			return
		}
		approved = &value
	}

	companies, total, err := h.service.List(approved, page, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"companies": companies,
		"meta":      models.NewSearchMeta(total, page, limit),
	})
}

// Update handles PUT /api/v1/companies/:id
func (h *CompanyHandler) Update(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.UpdateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	company, err := h.service.Update(userCtx.UserID, c.Param("id"), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, company)
}

// approvalRequest is the body of an admin approval decision
type approvalRequest struct {
	Approved *bool `json:"approved" binding:"required"`
}

// SetApproval handles POST /api/v1/admin/companies/:id/approval
func (h *CompanyHandler) SetApproval(c *gin.Context) {
	var req approvalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	company, err := h.service.SetApproval(c.Param("id"), *req.Approved)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, company)
}
