package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/viajabr/marketplace-backend/internal/middleware"
	"github.com/viajabr/marketplace-backend/internal/models"
	"github.com/viajabr/marketplace-backend/internal/services"
)

// TicketHandler handles HTTP requests for ticket booking and lifecycle
type TicketHandler struct {
	service *services.TicketService
	logger  *logrus.Logger
}

// NewTicketHandler creates a new ticket handler
func NewTicketHandler(service *services.TicketService, logger *logrus.Logger) *TicketHandler {
	return &TicketHandler{
		service: service,
		logger:  logger,
	}
}

// Reserve handles POST /api/v1/tickets/reserve. The route ID may be a
// virtual occurrence ID from a search response.
func (h *TicketHandler) Reserve(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.ReserveTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ticket, err := h.service.Reserve(userCtx.UserID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, ticket)
}

// ReserveMultiple handles POST /api/v1/tickets/reserve-multiple. The
// response always reports one outcome per passenger; partial success is a
// 207-style 200, not an error.
func (h *TicketHandler) ReserveMultiple(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.ReserveMultipleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	outcomes, err := h.service.ReserveMultiple(userCtx.UserID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": outcomes})
}

// ListMine handles GET /api/v1/tickets
func (h *TicketHandler) ListMine(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)
	page, limit := pageParams(c)

	tickets, total, err := h.service.ListMine(userCtx.UserID, page, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tickets": tickets,
		"meta":    models.NewSearchMeta(total, page, limit),
	})
}

// Get handles GET /api/v1/tickets/:id
func (h *TicketHandler) Get(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	ticket, err := h.service.Get(userCtx.UserID, userCtx.Role, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, ticket)
}

// Cancel handles POST /api/v1/tickets/:id/cancel
func (h *TicketHandler) Cancel(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	ticket, err := h.service.Cancel(userCtx.UserID, userCtx.Role, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, ticket)
}

// useTicketRequest is the body of a boarding redemption call
type useTicketRequest struct {
	TicketCode string `json:"ticket_code" binding:"required"`
}

// Use handles POST /api/v1/company/tickets/use
func (h *TicketHandler) Use(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req useTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ticket, err := h.service.Use(*userCtx.CompanyID, req.TicketCode)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, ticket)
}
