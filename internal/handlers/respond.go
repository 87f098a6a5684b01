package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/viajabr/marketplace-backend/internal/models"
)

// respondError maps a service error to its HTTP status and writes the
// standard error envelope. Unrecognized errors become 500s with a generic
// message; the cause only goes to the log.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	var validationErr *models.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": validationErr.Error(),
		})
		return
	}

	var materializationErr *models.MaterializationError
	if errors.As(err, &materializationErr) {
		logger.WithError(err).Error("Materialization failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "Failed to prepare the route for booking. Please try again.",
		})
		return
	}

	switch {
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"status":  "error",
			"message": err.Error(),
		})
	case errors.Is(err, models.ErrSoldOut):
		c.JSON(http.StatusConflict, gin.H{
			"status":  "error",
			"message": "No seats available for this route",
		})
	case errors.Is(err, models.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{
			"status":  "error",
			"message": err.Error(),
		})
	case errors.Is(err, models.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{
			"status":  "error",
			"message": "You don't have permission to access this resource",
		})
	case errors.Is(err, models.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{
			"status":  "error",
			"message": err.Error(),
		})
	case errors.Is(err, models.ErrPaymentDeclined):
		c.JSON(http.StatusPaymentRequired, gin.H{
			"status":  "error",
			"message": err.Error(),
		})
	default:
		logger.WithError(err).Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "Internal server error. Please try again later.",
		})
	}
}

// respondBindError writes a 400 for a request body or query that failed
// Gin binding.
func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"status":  "error",
		"message": "Invalid request format",
		"error":   err.Error(),
	})
}

// pageParams reads the standard page/limit query parameters
func pageParams(c *gin.Context) (page, limit int) {
	page = intQuery(c, "page", 1)
	limit = intQuery(c, "limit", 10)
	return page, limit
}

func intQuery(c *gin.Context, key string, fallback int) int {
	value := c.Query(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
