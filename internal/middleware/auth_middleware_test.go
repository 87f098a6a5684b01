package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viajabr/marketplace-backend/internal/models"
	"github.com/viajabr/marketplace-backend/pkg/jwt"
)

func setupRouter(jwtService *jwt.Service, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	handlers := []gin.HandlerFunc{AuthMiddleware(jwtService)}
	handlers = append(handlers, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		userCtx := MustGetUserContext(c)
		c.JSON(http.StatusOK, gin.H{"user_id": userCtx.UserID})
	})

	router.GET("/protected", handlers...)
	return router
}

func request(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	jwtService := jwt.NewService("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)
	router := setupRouter(jwtService)

	t.Run("Valid Token", func(t *testing.T) {
		token, err := jwtService.GenerateAccessToken("user-1", "maria@example.com", "CUSTOMER", nil)
		require.NoError(t, err)

		w := request(router, "Bearer "+token)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "user-1")
	})

	t.Run("Missing Header", func(t *testing.T) {
		w := request(router, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "MISSING_AUTH_HEADER")
	})

	t.Run("Wrong Scheme", func(t *testing.T) {
		w := request(router, "Basic dXNlcjpwYXNz")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_AUTH_FORMAT")
	})

	t.Run("Garbage Token", func(t *testing.T) {
		w := request(router, "Bearer not.a.token")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
	})

	t.Run("Refresh Token Rejected", func(t *testing.T) {
		token, err := jwtService.GenerateRefreshToken("user-1", "maria@example.com")
		require.NoError(t, err)

		w := request(router, "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Expired Token", func(t *testing.T) {
		expired := jwt.NewService("access-secret", "refresh-secret", -time.Minute, -time.Minute)
		token, err := expired.GenerateAccessToken("user-1", "maria@example.com", "CUSTOMER", nil)
		require.NoError(t, err)

		w := request(router, "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequireRole(t *testing.T) {
	jwtService := jwt.NewService("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)
	router := setupRouter(jwtService, RequireRole(models.UserRoleCompany, models.UserRoleAdmin))

	t.Run("Allowed Role", func(t *testing.T) {
		token, err := jwtService.GenerateAccessToken("user-1", "ops@example.com", "ADMIN", nil)
		require.NoError(t, err)

		w := request(router, "Bearer "+token)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Denied Role", func(t *testing.T) {
		token, err := jwtService.GenerateAccessToken("user-1", "maria@example.com", "CUSTOMER", nil)
		require.NoError(t, err)

		w := request(router, "Bearer "+token)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "INSUFFICIENT_PERMISSIONS")
	})
}

func TestRequireCompany(t *testing.T) {
	jwtService := jwt.NewService("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)
	router := setupRouter(jwtService, RequireCompany())

	t.Run("Linked To Company", func(t *testing.T) {
		companyID := "company-1"
		token, err := jwtService.GenerateAccessToken("user-1", "ops@example.com", "COMPANY", &companyID)
		require.NoError(t, err)

		w := request(router, "Bearer "+token)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("No Company", func(t *testing.T) {
		token, err := jwtService.GenerateAccessToken("user-1", "maria@example.com", "CUSTOMER", nil)
		require.NoError(t, err)

		w := request(router, "Bearer "+token)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "COMPANY_REQUIRED")
	})
}

func TestGetUserContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, exists := GetUserContext(c)
	assert.False(t, exists)

	c.Set(UserContextKey, UserContext{UserID: "user-1", Role: models.UserRoleCustomer})
	userCtx, exists := GetUserContext(c)
	require.True(t, exists)
	assert.Equal(t, "user-1", userCtx.UserID)
}
