package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/shadikamal997/cheesemap-sub001/internal/config"
	"github.com/shadikamal997/cheesemap-sub001/internal/database"
	"github.com/shadikamal997/cheesemap-sub001/internal/handlers"
	"github.com/shadikamal997/cheesemap-sub001/internal/middleware"
	"github.com/shadikamal997/cheesemap-sub001/internal/models"
	"github.com/shadikamal997/cheesemap-sub001/internal/services"
	"github.com/shadikamal997/cheesemap-sub001/pkg/geocode"
	"github.com/shadikamal997/cheesemap-sub001/pkg/jwt"
	"github.com/shadikamal997/cheesemap-sub001/pkg/payment"
	"github.com/shadikamal997/cheesemap-sub001/pkg/storage"
	"github.com/shadikamal997/cheesemap-sub001/pkg/validator"
	"github.com/sirupsen/logrus"
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

	logger.Info("Starting CheeseMap API")
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
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	if err := validator.RegisterTags(binding.Validator.Engine()); err != nil {
		logger.Fatalf("Failed to register validation tags: %v", err)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	applied, err := database.Migrate(db.DB)
	if err != nil {
		logger.Fatalf("Failed to apply migrations: %v", err)
	}
	if len(applied) > 0 {
		logger.WithField("versions", applied).Info("Applied database migrations")
	}

	// Repositories
	userRepository := database.NewUserRepository(db)
	refreshTokenRepository := database.NewRefreshTokenRepository(db)
	businessRepository := database.NewBusinessRepository(db.DB)
	inventoryRepository := database.NewInventoryRepository(db.DB)
	farmBatchRepository := database.NewFarmBatchRepository(db.DB)
	tourRepository := database.NewTourRepository(db.DB)
	tourBookingRepository := database.NewTourBookingRepository(db.DB)
	orderRepository := database.NewOrderRepository(db.DB)
	paymentRepository := database.NewPaymentRepository(db.DB)
	paymentEventRepository := database.NewPaymentEventRepository(db.DB, logger)
	passportRepository := database.NewPassportRepository(db.DB)
	verificationRepository := database.NewVerificationRepository(db.DB)
	statsRepository := database.NewStatsRepository(db.DB)

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	var auditService *services.AuditService
	if cfg.Security.EnableAuditLog {
		auditService = services.NewAuditService(db)
	}

	var geocoder geocode.Geocoder
	if cfg.Geocoding.Enabled {
		geocoder = geocode.NewBANClient(geocode.BANConfig{
			BaseURL:  cfg.Geocoding.BaseURL,
			Timeout:  cfg.Geocoding.Timeout,
			MinScore: 0.5,
		})
		logger.WithField("base_url", cfg.Geocoding.BaseURL).Info("Address geocoding enabled")
	}

	imageStore, err := storage.NewLocalStore(cfg.Storage.UploadDir, cfg.Storage.PublicBaseURL)
	if err != nil {
		logger.Fatalf("Failed to initialize image storage: %v", err)
	}

	if cfg.Stripe.SecretKey == "" {
		logger.Warn("STRIPE_SECRET_KEY is not set, payment creation will fail")
	}
	gateway := payment.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret)

	imageService := services.NewImageService(imageStore, cfg.Storage.MaxImagePx, logger)
	authService := services.NewAuthService(userRepository, refreshTokenRepository, jwtService, auditService, cfg.Security.BcryptCost, logger)
	rateLimitService := services.NewRateLimitService(db, services.RateLimitConfig{
		MaxEmailAttempts: cfg.Security.LoginMaxPerEmail,
		EmailWindow:      cfg.Security.LoginEmailWindow,
		MaxIPAttempts:    cfg.Security.LoginMaxPerIP,
		IPWindow:         cfg.Security.LoginIPWindow,
	})
	authService.SetRateLimiter(rateLimitService)
	businessService := services.NewBusinessService(businessRepository, geocoder, imageService, logger)
	inventoryService := services.NewInventoryService(inventoryRepository, businessService, imageService, logger)
	farmService := services.NewFarmService(farmBatchRepository, businessService, logger)
	tourService := services.NewTourService(tourRepository, businessService, logger)
	bookingService := services.NewBookingService(tourBookingRepository, tourService, paymentRepository, gateway, logger)
	orderService := services.NewOrderService(orderRepository, businessService, paymentRepository, gateway, logger)
	paymentService := services.NewPaymentService(paymentRepository, orderRepository, tourBookingRepository, gateway, cfg.Stripe.Currency, logger)
	paymentService.SetEventLog(paymentEventRepository)
	passportService := services.NewPassportService(passportRepository, businessService)
	verificationService := services.NewVerificationService(verificationRepository, businessService, auditService, logger)
	adminService := services.NewAdminService(userRepository, refreshTokenRepository, statsRepository, auditService, logger)

	// Initialize and start cron service
	cronService := services.NewCronService(
		tourBookingRepository,
		orderRepository,
		refreshTokenRepository,
		auditService,
		cfg.Booking.HoldMinutes,
		logger,
	)
	cronService.SetRateLimiter(rateLimitService)
	if err := cronService.Start(); err != nil {
		logger.Fatalf("Failed to start cron service: %v", err)
	}
	logger.Info("Cron service started")

	// Initialize handlers
	maxUploadBytes := int64(cfg.Storage.MaxUploadMB) << 20
	authHandler := handlers.NewAuthHandler(authService, logger)
	businessHandler := handlers.NewBusinessHandler(businessService, verificationService, maxUploadBytes, logger)
	inventoryHandler := handlers.NewInventoryHandler(inventoryService, maxUploadBytes, logger)
	farmHandler := handlers.NewFarmHandler(farmService, logger)
	tourHandler := handlers.NewTourHandler(tourService, bookingService, logger)
	bookingHandler := handlers.NewBookingHandler(bookingService, logger)
	orderHandler := handlers.NewOrderHandler(orderService, logger)
	paymentHandler := handlers.NewPaymentHandler(paymentService, logger)
	passportHandler := handlers.NewPassportHandler(passportService, logger)
	adminHandler := handlers.NewAdminHandler(adminService, verificationService, cronService, logger)

	// Initialize Gin router
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		logger.Fatalf("Invalid trusted proxies: %v", err)
	}

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// Uploaded images, unless a CDN serves them
	if strings.HasPrefix(cfg.Storage.PublicBaseURL, "/") {
		router.Static(cfg.Storage.PublicBaseURL, cfg.Storage.UploadDir)
	}

	requireAuth := []gin.HandlerFunc{
		middleware.AuthMiddleware(jwtService, logger),
		middleware.RequireActiveAccount(userRepository, logger),
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(db))

		// Public routes
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
		}

		v1.GET("/businesses", businessHandler.ListBusinesses)
		v1.GET("/businesses/:id", businessHandler.GetBusiness)
		v1.GET("/businesses/:id/inventory", inventoryHandler.ListInventory)
		v1.GET("/tours", tourHandler.ListTours)
		v1.GET("/tours/:id", tourHandler.GetTour)
		v1.GET("/tours/:id/schedules", tourHandler.ListSchedules)
		v1.GET("/tours/:id/availability", tourHandler.Availability)

		// Stripe calls this directly and signs the payload
		v1.POST("/webhooks/stripe", paymentHandler.StripeWebhook)

		// Protected routes
		protected := v1.Group("", requireAuth...)
		{
			protected.POST("/auth/logout", authHandler.Logout)

			users := protected.Group("/users")
			{
				users.GET("/me", authHandler.GetProfile)
				users.PUT("/me", authHandler.UpdateProfile)
				users.GET("/me/sessions", authHandler.ListSessions)
				users.DELETE("/me/sessions/:id", authHandler.RevokeSession)
				users.GET("/me/businesses", businessHandler.ListMyBusinesses)
			}

			// Businesses
			protected.POST("/businesses", middleware.RequireRole(models.RoleProducer, models.RoleAdmin), businessHandler.CreateBusiness)
			protected.PUT("/businesses/:id", businessHandler.UpdateBusiness)
			protected.DELETE("/businesses/:id", businessHandler.DeleteBusiness)
			protected.POST("/businesses/:id/images", businessHandler.UploadImage)
			protected.POST("/businesses/:id/verification", businessHandler.SubmitVerification)
			protected.GET("/businesses/:id/verification", businessHandler.ListVerifications)

			// Inventory
			protected.POST("/businesses/:id/inventory", inventoryHandler.CreateItem)
			protected.PUT("/inventory/:id", inventoryHandler.UpdateItem)
			protected.DELETE("/inventory/:id", inventoryHandler.DeleteItem)
			protected.PATCH("/inventory/:id/stock", inventoryHandler.AdjustStock)
			protected.POST("/inventory/:id/image", inventoryHandler.UploadImage)

			// Farm batches
			protected.GET("/businesses/:id/batches", farmHandler.ListBatches)
			protected.POST("/businesses/:id/batches", farmHandler.CreateBatch)
			protected.GET("/batches/:id", farmHandler.GetBatch)
			protected.PUT("/batches/:id", farmHandler.UpdateBatch)
			protected.GET("/batches/:id/aging-logs", farmHandler.ListAgingLogs)
			protected.POST("/batches/:id/aging-logs", farmHandler.AddAgingLog)

			// Tours
			protected.POST("/businesses/:id/tours", tourHandler.CreateTour)
			protected.PUT("/tours/:id", tourHandler.UpdateTour)
			protected.DELETE("/tours/:id", tourHandler.DeleteTour)
			protected.POST("/tours/:id/schedules", tourHandler.CreateSchedule)
			protected.POST("/tour-schedules/:id/cancel", tourHandler.CancelSchedule)

			// Bookings
			protected.POST("/bookings", bookingHandler.CreateBooking)
			protected.GET("/bookings/me", bookingHandler.ListMyBookings)
			protected.GET("/bookings/:id", bookingHandler.GetBooking)
			protected.POST("/bookings/:id/cancel", bookingHandler.CancelBooking)
			protected.GET("/businesses/:id/bookings", bookingHandler.ListBusinessBookings)

			// Orders
			protected.POST("/orders", orderHandler.CreateOrder)
			protected.GET("/orders/me", orderHandler.ListMyOrders)
			protected.GET("/orders/:id", orderHandler.GetOrder)
			protected.POST("/orders/:id/cancel", orderHandler.CancelOrder)
			protected.PATCH("/orders/:id/status", orderHandler.UpdateOrderStatus)
			protected.GET("/businesses/:id/orders", orderHandler.ListBusinessOrders)

			// Payments
			protected.POST("/payments/orders", paymentHandler.PayOrder)
			protected.POST("/payments/bookings", paymentHandler.PayBooking)
			protected.GET("/payments/:id", paymentHandler.GetPayment)

			// Passport
			protected.GET("/passport", passportHandler.GetPassport)
			protected.POST("/passport/stamps", passportHandler.AddStamp)
			protected.DELETE("/passport/stamps/:id", passportHandler.DeleteStamp)
		}

		// Admin routes
		admin := v1.Group("/admin", append(requireAuth, middleware.RequireRole(models.RoleAdmin))...)
		{
			admin.GET("/verification-requests", adminHandler.ListVerificationRequests)
			admin.POST("/verification-requests/:id/approve", adminHandler.ApproveVerification)
			admin.POST("/verification-requests/:id/reject", adminHandler.RejectVerification)
			admin.GET("/users", adminHandler.ListUsers)
			admin.PUT("/users/:id/status", adminHandler.UpdateUserStatus)
			admin.GET("/users/:id/audit", adminHandler.GetUserAudit)
			admin.GET("/stats", adminHandler.GetStats)
			admin.GET("/payments/:id/events", paymentHandler.GetPaymentEvents)
			admin.GET("/jobs", adminHandler.GetJobs)
			admin.POST("/jobs/:name/run", adminHandler.RunJob)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
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

	logger.Info("Stopping cron service...")
	cronService.Stop()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
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
