package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"founderkit-backend/internal/config"
	"founderkit-backend/internal/handlers"
	"founderkit-backend/internal/middleware"
	"founderkit-backend/internal/models"
	"founderkit-backend/internal/payments"
	"founderkit-backend/internal/payments/mock"
	"founderkit-backend/internal/payments/stripe"
	"founderkit-backend/internal/repository"
	"founderkit-backend/internal/service"
	"founderkit-backend/pkg/cache"
	"founderkit-backend/pkg/logger"
)

type Application struct {
	cfg *config.Config

	db         *gorm.DB
	cache      *cache.Cache
	provider   payments.Provider
	rateLimits *middleware.RateLimitManager

	repositories repositoryContainer
	services     serviceContainer
	handlers     handlerContainer

	router *gin.Engine
	server *http.Server
}

type repositoryContainer struct {
	Order repository.OrderRepository
}

type serviceContainer struct {
	Checkout *service.CheckoutService
	Webhook  *service.WebhookService
}

type handlerContainer struct {
	Payment  *handlers.PaymentHandler
	Webhook  *handlers.WebhookHandler
	Checkout *handlers.CheckoutHandler
}

func New(cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{cfg: cfg}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.runMigrations(); err != nil {
		return nil, err
	}

	app.initCache()

	if err := app.initPaymentProvider(); err != nil {
		return nil, err
	}

	app.rateLimits = middleware.NewRateLimitManager(context.Background())
	app.initRepositories()
	app.initServices()
	app.initHandlers()
	app.initRouter()

	app.server = &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        app.router,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   20 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	return app, nil
}

func (a *Application) Run() error {
	logger.Info("Server starting", map[string]interface{}{
		"port":          a.cfg.Port,
		"environment":   a.cfg.Environment,
		"mock_payments": a.cfg.MockPayments(),
	})

	return a.server.ListenAndServe()
}

func (a *Application) Shutdown(ctx context.Context) error {
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			return err
		}
	}

	if a.rateLimits != nil {
		a.rateLimits.Shutdown()
	}

	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			logger.Error(err, "Failed to close cache connection", nil)
		}
	}

	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			sqlDB.Close()
		}
	}

	return nil
}

func (a *Application) Router() *gin.Engine {
	return a.router
}

func (a *Application) initDatabase() error {
	logger.Info("Connecting to database", nil)

	db, err := gorm.Open(postgres.Open(a.cfg.DatabaseURL), &gorm.Config{
		Logger: logger.NewGormLogger(),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	a.db = db
	return nil
}

func (a *Application) runMigrations() error {
	if a.db == nil {
		return fmt.Errorf("database connection is not initialized")
	}

	logger.Info("Running database migrations", nil)

	if err := a.db.AutoMigrate(&models.Order{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return nil
}

func (a *Application) initCache() {
	if !a.cfg.EnableRedis {
		a.cache, _ = cache.NewCache("", false)
		return
	}

	c, err := cache.NewCache(a.cfg.RedisURL, true)
	if err != nil {
		// Dedup falls back to order-level idempotency; not fatal.
		logger.Warn("Redis unavailable, webhook dedup cache disabled", map[string]interface{}{
			"redis_url": a.cfg.RedisURL,
		})
		a.cache, _ = cache.NewCache("", false)
		return
	}
	a.cache = c
}

func (a *Application) initPaymentProvider() error {
	if a.cfg.MockPayments() {
		logger.Warn("No Stripe secret key configured, using mock payment provider", nil)
		a.provider = mock.NewProvider()
		return nil
	}

	provider, err := stripe.NewProvider(a.cfg.StripeSecretKey)
	if err != nil {
		return fmt.Errorf("failed to initialize stripe provider: %w", err)
	}
	a.provider = provider
	return nil
}

func (a *Application) initRepositories() {
	a.repositories = repositoryContainer{
		Order: repository.NewOrderRepository(a.db),
	}
}

func (a *Application) initServices() {
	a.services = serviceContainer{
		Checkout: service.NewCheckoutService(a.provider, a.repositories.Order),
		Webhook:  service.NewWebhookService(a.repositories.Order, a.cache, a.cfg.StripeWebhookSecret),
	}
}

func (a *Application) initHandlers() {
	a.handlers = handlerContainer{
		Payment:  handlers.NewPaymentHandler(a.services.Checkout),
		Webhook:  handlers.NewWebhookHandler(a.services.Webhook),
		Checkout: handlers.NewCheckoutHandler(a.repositories.Order, a.cfg),
	}
}

func (a *Application) initRouter() {
	if a.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.GinLogger())
	router.Use(middleware.RequestIDMiddleware())
	if a.cfg.EnableMetrics {
		router.Use(middleware.MetricsMiddleware())
	}
	router.Use(middleware.RateLimitMiddleware(a.cfg, a.rateLimits))

	// Checkout is embedded on marketing pages served from arbitrary
	// origins, so the API answers preflight for all of them.
	router.Use(cors.New(cors.Config{
		AllowOriginFunc:  func(origin string) bool { return true },
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.HandleMethodNotAllowed = true
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, models.ErrorResponse{
			Error:   "Method not allowed",
			Message: c.Request.Method + " is not supported on " + c.Request.URL.Path,
		})
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	if a.cfg.EnableMetrics {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	api := router.Group("/api")
	{
		api.POST("/create-payment-intent", a.handlers.Payment.CreateIntent)
		api.POST("/webhook", a.handlers.Webhook.Handle)
		api.GET("/checkout/status", a.handlers.Checkout.Status)
		api.GET("/checkout/config", a.handlers.Checkout.Config)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Route not found",
			"path":  c.Request.URL.Path,
		})
	})

	a.router = router
}
