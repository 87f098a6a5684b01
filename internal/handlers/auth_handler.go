package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/viajabr/marketplace-backend/internal/middleware"
	"github.com/viajabr/marketplace-backend/internal/models"
	"github.com/viajabr/marketplace-backend/internal/services"
)

// AuthHandler handles HTTP requests for authentication
type AuthHandler struct {
	service *services.AuthService
	users   services.UserStore
	logger  *logrus.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(service *services.AuthService, users services.UserStore, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		users:   users,
		logger:  logger,
	}
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, err := h.service.Register(&req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.AuthenticateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, err := h.service.Login(&req, c.GetHeader("User-Agent"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// refreshRequest is the body of a token refresh call
type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Refresh handles POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, err := h.service.Refresh(req.RefreshToken)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	user, err := h.users.GetByID(userCtx.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
