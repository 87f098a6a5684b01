package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/viajabr/marketplace-backend/internal/middleware"
	"github.com/viajabr/marketplace-backend/internal/models"
	"github.com/viajabr/marketplace-backend/internal/services"
)

// PaymentHandler handles HTTP requests for paying reserved tickets
type PaymentHandler struct {
	service *services.PaymentService
	logger  *logrus.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(service *services.PaymentService, logger *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		logger:  logger,
	}
}

// Pay handles POST /api/v1/payments
func (h *PaymentHandler) Pay(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.PayTicketsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, err := h.service.PayTickets(userCtx.UserID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// Get handles GET /api/v1/payments/:id
func (h *PaymentHandler) Get(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	payment, err := h.service.Get(userCtx.UserID, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, payment)
}

// ListMine handles GET /api/v1/payments
func (h *PaymentHandler) ListMine(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	payments, err := h.service.ListMine(userCtx.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payments": payments})
}
