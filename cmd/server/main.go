package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/viajabr/marketplace-backend/internal/config"
	"github.com/viajabr/marketplace-backend/internal/database"
	"github.com/viajabr/marketplace-backend/internal/events"
	"github.com/viajabr/marketplace-backend/internal/gateway"
	"github.com/viajabr/marketplace-backend/internal/handlers"
	"github.com/viajabr/marketplace-backend/internal/metrics"
	"github.com/viajabr/marketplace-backend/internal/middleware"
	"github.com/viajabr/marketplace-backend/internal/models"
	"github.com/viajabr/marketplace-backend/internal/services"
	"github.com/viajabr/marketplace-backend/pkg/jwt"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting ViajaBR Marketplace Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Run migrations before opening the pool when requested
	if cfg.Database.RunMigrations {
		logger.Info("Running database migrations...")
		if err := database.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsURL); err != nil {
			logger.Fatalf("Failed to run migrations: %v", err)
		}
		logger.Info("Migrations applied")
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize event publisher
	var publisher events.Publisher
	if cfg.NATS.URL != "" {
		natsPublisher, err := events.NewNATSPublisher(cfg.NATS.URL, logger)
		if err != nil {
			logger.Fatalf("Failed to connect to NATS: %v", err)
		}
		defer natsPublisher.Close()
		publisher = natsPublisher
		logger.Info("NATS event publisher connected")
	} else {
		publisher = events.NoopPublisher{}
		logger.Info("No NATS_URL configured, events disabled")
	}

	// Initialize metrics
	collector := metrics.NewCollector()

	// Initialize repositories
	userRepo := database.NewUserRepository(db)
	companyRepo := database.NewCompanyRepository(db)
	templateRepo := database.NewRouteTemplateRepository(db)
	routeRepo := database.NewRouteRepository(db)
	ticketRepo := database.NewTicketRepository(db, routeRepo)
	paymentRepo := database.NewPaymentRepository(db)

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	paymentGateway := gateway.NewMockGateway(logger)
	if cfg.Payment.Environment != "sandbox" {
		logger.Warnf("Payment environment is %q but only the mock gateway is wired; charges will not reach a real provider", cfg.Payment.Environment)
	}

	generatorService := services.NewRouteGeneratorService(templateRepo, routeRepo, collector, logger)
	routeService := services.NewRouteService(routeRepo, generatorService, collector, logger)
	templateService := services.NewTemplateService(templateRepo, logger)
	ticketService := services.NewTicketService(ticketRepo, generatorService, collector, publisher, logger)
	paymentService := services.NewPaymentService(paymentRepo, ticketRepo, paymentGateway, publisher, logger)
	authService := services.NewAuthService(userRepo, jwtService, cfg.Security.BcryptCost, logger)
	companyService := services.NewCompanyService(companyRepo, userRepo, logger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, userRepo, logger)
	routeHandler := handlers.NewRouteHandler(routeService, logger)
	templateHandler := handlers.NewRouteTemplateHandler(templateService, logger)
	ticketHandler := handlers.NewTicketHandler(ticketService, logger)
	paymentHandler := handlers.NewPaymentHandler(paymentService, logger)
	companyHandler := handlers.NewCompanyHandler(companyService, logger)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Security.EnableRequestLog {
		router.Use(requestLogger(logger))
	}

	// CORS configuration
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Operational endpoints
	router.GET("/health", healthCheckHandler(db))
	router.GET("/metrics", gin.WrapH(collector.Handler()))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Authentication (public)
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)

			protected := auth.Group("")
			protected.Use(middleware.AuthMiddleware(jwtService))
			{
				protected.GET("/me", authHandler.Me)
			}
		}

		// Route search (public)
		routes := v1.Group("/routes")
		{
			routes.GET("/search", routeHandler.Search)
			routes.POST("/search/advanced", routeHandler.AdvancedSearch)
			routes.GET("/locations", routeHandler.SearchLocations)
			routes.GET("/:id", routeHandler.Get)
		}

		// Tickets (customer)
		tickets := v1.Group("/tickets")
		tickets.Use(middleware.AuthMiddleware(jwtService))
		{
			tickets.POST("/reserve", ticketHandler.Reserve)
			tickets.POST("/reserve-multiple", ticketHandler.ReserveMultiple)
			tickets.GET("", ticketHandler.ListMine)
			tickets.GET("/:id", ticketHandler.Get)
			tickets.POST("/:id/cancel", ticketHandler.Cancel)
		}

		// Payments (customer)
		payments := v1.Group("/payments")
		payments.Use(middleware.AuthMiddleware(jwtService))
		{
			payments.POST("", paymentHandler.Pay)
			payments.GET("", paymentHandler.ListMine)
			payments.GET("/:id", paymentHandler.Get)
		}

		// Company onboarding and public company info
		companies := v1.Group("/companies")
		{
			companies.GET("/:id", companyHandler.Get)

			companiesProtected := companies.Group("")
			companiesProtected.Use(middleware.AuthMiddleware(jwtService))
			{
				companiesProtected.POST("", companyHandler.Register)
				companiesProtected.GET("/me", companyHandler.GetMine)
				companiesProtected.PUT("/:id", companyHandler.Update)
			}
		}

		// Company operations (company role required)
		company := v1.Group("/company")
		company.Use(middleware.AuthMiddleware(jwtService))
		company.Use(middleware.RequireRole(models.UserRoleCompany, models.UserRoleAdmin))
		company.Use(middleware.RequireCompany())
		{
			company.POST("/routes", routeHandler.Create)
			company.GET("/routes", routeHandler.ListMine)
			company.PUT("/routes/:id", routeHandler.Update)
			company.DELETE("/routes/:id", routeHandler.Delete)

			company.POST("/templates", templateHandler.Create)
			company.GET("/templates", templateHandler.List)
			company.GET("/templates/:id", templateHandler.Get)
			company.PUT("/templates/:id", templateHandler.Update)
			company.DELETE("/templates/:id", templateHandler.Delete)

			company.POST("/tickets/use", ticketHandler.Use)
		}

		// Admin operations
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthMiddleware(jwtService))
		admin.Use(middleware.RequireRole(models.UserRoleAdmin))
		{
			admin.GET("/companies", companyHandler.List)
			admin.POST("/companies/:id/approval", companyHandler.SetApproval)
		}
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": latency.Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}

		if userCtx, exists := middleware.GetUserContext(c); exists {
			fields["user_id"] = userCtx.UserID
			fields["role"] = userCtx.Role
		}

		entry := logger.WithFields(fields)

		status := c.Writer.Status()
		switch {
		case status >= 500:
			entry.Error("Request completed with server error")
		case status >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed successfully")
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
