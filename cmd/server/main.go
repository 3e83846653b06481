package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	shopifyapp "github.com/stockhaus/backend/internal/application/shopify"
	shopifydomain "github.com/stockhaus/backend/internal/domain/shopify"
	"github.com/stockhaus/backend/internal/infrastructure/auth"
	"github.com/stockhaus/backend/internal/infrastructure/config"
	"github.com/stockhaus/backend/internal/infrastructure/logger"
	"github.com/stockhaus/backend/internal/infrastructure/persistence"
	"github.com/stockhaus/backend/internal/infrastructure/ratelimit"
	"github.com/stockhaus/backend/internal/infrastructure/scheduler"
	shopifyinfra "github.com/stockhaus/backend/internal/infrastructure/shopify"
	"github.com/stockhaus/backend/internal/interfaces/http/handler"
	"github.com/stockhaus/backend/internal/interfaces/http/middleware"
	"github.com/stockhaus/backend/internal/interfaces/http/router"
)

//	@title			Stockhaus Backend API
//	@version		1.0
//	@description	Multi-tenant ERP backend with external commerce synchronization

//	@contact.name	API Support
//	@contact.url	https://github.com/stockhaus/backend

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		Service:    cfg.App.Name,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Stockhaus Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Optional Redis connection, shared by the rate limiter, OAuth state
	// store and token blacklist
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			cancel()
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		cancel()
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing Redis", zap.Error(err))
			}
		}()
		log.Info("Redis connected successfully")
	}

	// Initialize repositories
	integrationRepo := persistence.NewGormIntegrationRepository(db.DB)
	syncLogRepo := persistence.NewGormSyncLogRepository(db.DB)
	recordStore := persistence.NewGormRecordStore(db.DB)

	// Admin API client factory with the per-store request budget
	var apiLimiter ratelimit.Limiter
	if redisClient != nil {
		apiLimiter = ratelimit.NewRedisLimiterWithClient(redisClient, "shopify:budget")
	} else {
		apiLimiter = ratelimit.NewMemoryLimiter()
	}
	clientFactory := shopifyinfra.NewFactory(shopifyinfra.Config{
		RequestTimeout:    cfg.Shopify.RequestTimeout,
		MaxRetries:        cfg.Shopify.MaxRetries,
		RetryBaseDelay:    cfg.Shopify.RetryBaseDelay,
		PageLimit:         cfg.Shopify.PageLimit,
		MaxPages:          cfg.Shopify.MaxPages,
		RequestsPerSecond: cfg.Shopify.RequestsPerSecond,
	}, apiLimiter, log)

	// OAuth client and one-time state store
	oauthClient := shopifyinfra.NewOAuthClient(
		cfg.Shopify.AppKey,
		cfg.Shopify.AppSecret,
		cfg.Shopify.RequestTimeout,
		log,
	)
	var stateStore shopifydomain.OAuthStateStore
	if redisClient != nil {
		stateStore = shopifyinfra.NewRedisStateStore(redisClient, "shopify:oauth")
	} else {
		stateStore = shopifyinfra.NewMemoryStateStore()
	}

	// Initialize application services
	integrationService := shopifyapp.NewIntegrationService(
		integrationRepo,
		syncLogRepo,
		recordStore,
		clientFactory,
		stateStore,
		oauthClient,
		oauthClient,
		shopifyapp.OAuthSettings{
			RedirectURI: cfg.Shopify.OAuthRedirectURI,
			Scopes:      cfg.Shopify.OAuthScopes,
		},
		10*time.Minute,
		log,
	)
	syncService := shopifyapp.NewSyncService(integrationRepo, syncLogRepo, recordStore, clientFactory, log)
	webhookService := shopifyapp.NewWebhookService(integrationRepo, syncLogRepo, recordStore, log)

	// Scheduled background syncing
	if cfg.Scheduler.Enabled {
		schedulerConfig := scheduler.DefaultSyncSchedulerConfig()
		if cfg.Scheduler.MaxConcurrent > 0 {
			schedulerConfig.MaxConcurrentJobs = cfg.Scheduler.MaxConcurrent
		}
		if cfg.Scheduler.JobTimeout > 0 {
			schedulerConfig.JobTimeout = cfg.Scheduler.JobTimeout
		}

		syncScheduler, err := scheduler.NewSyncScheduler(
			schedulerConfig,
			scheduler.NewRunnerExecutor(syncService),
			log,
		)
		if err != nil {
			log.Fatal("Failed to create sync scheduler", zap.Error(err))
		}
		if err := syncScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start sync scheduler", zap.Error(err))
		}
		defer func() {
			if err := syncScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping sync scheduler", zap.Error(err))
			}
		}()

		triggerConfig := scheduler.DefaultSyncCronTriggerConfig()
		if cfg.Scheduler.TickInterval > 0 {
			triggerConfig.CheckInterval = cfg.Scheduler.TickInterval
		}
		cronTrigger := scheduler.NewSyncCronTrigger(triggerConfig, syncScheduler, integrationRepo, log)
		if err := cronTrigger.Start(context.Background()); err != nil {
			log.Fatal("Failed to start sync cron trigger", zap.Error(err))
		}
		defer func() {
			if err := cronTrigger.Stop(context.Background()); err != nil {
				log.Error("Error stopping sync cron trigger", zap.Error(err))
			}
		}()

		log.Info("Sync scheduler started",
			zap.Int("max_concurrent_jobs", schedulerConfig.MaxConcurrentJobs),
			zap.Duration("check_interval", triggerConfig.CheckInterval),
		)
	}

	// Initialize HTTP handlers
	integrationHandler := handler.NewShopifyIntegrationHandler(integrationService)
	syncHandler := handler.NewShopifySyncHandler(syncService, integrationService)
	webhookHandler := handler.NewShopifyWebhookHandler(webhookService)
	oauthHandler := handler.NewShopifyOAuthHandler(integrationService)

	// JWT validation service; tokens are issued by the identity service
	jwtService := auth.NewJWTService(cfg.JWT)
	var tokenBlacklist auth.TokenBlacklist
	if redisClient != nil {
		tokenBlacklist = auth.NewRedisTokenBlacklistWithClient(redisClient)
	}

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	// 7. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Apply JWT authentication middleware to API routes.
	// The webhook endpoint is verified by its HMAC signature and the
	// OAuth callback arrives from Shopify without a token.
	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: tokenBlacklist,
		SkipPaths: []string{
			"/api/v1/ping",
			"/api/v1/system/ping",
			"/api/v1/system/info",
			"/api/v1/shopify/webhook",
			"/api/v1/shopify/oauth/callback",
		},
		Logger: log,
	}
	r.Use(
		middleware.JWTAuthMiddlewareWithConfig(jwtConfig),
		middleware.OptionalTenantMiddleware(),
	)

	// Shopify integration domain
	shopifyRoutes := router.NewDomainGroup("shopify", "/shopify")

	// Store connection lifecycle
	shopifyRoutes.POST("/connect", integrationHandler.Connect)
	shopifyRoutes.DELETE("/connect", integrationHandler.DisconnectStore)
	shopifyRoutes.GET("/status", integrationHandler.ConnectionStatus)
	shopifyRoutes.GET("/integrations", integrationHandler.List)
	shopifyRoutes.GET("/integrations/:id", integrationHandler.GetByID)
	shopifyRoutes.DELETE("/integrations/:id", integrationHandler.Delete)
	shopifyRoutes.GET("/integrations/:id/status", integrationHandler.Status)
	shopifyRoutes.PUT("/integrations/:id/settings", integrationHandler.UpdateSettings)
	shopifyRoutes.POST("/integrations/:id/pause", integrationHandler.Pause)
	shopifyRoutes.POST("/integrations/:id/resume", integrationHandler.Resume)
	shopifyRoutes.POST("/integrations/:id/test", integrationHandler.TestConnection)

	// Sync runs and synced records
	shopifyRoutes.POST("/sync", syncHandler.TriggerSync)
	shopifyRoutes.GET("/sync-logs", syncHandler.ListSyncLogs)
	shopifyRoutes.GET("/sync-logs/:id", syncHandler.GetSyncLog)
	shopifyRoutes.GET("/products", syncHandler.ListProducts)
	shopifyRoutes.GET("/orders", syncHandler.ListOrders)
	shopifyRoutes.GET("/customers", syncHandler.ListCustomers)
	shopifyRoutes.GET("/inventory", syncHandler.ListInventory)

	// OAuth authorization code flow
	shopifyRoutes.POST("/oauth/initiate", oauthHandler.Initiate)
	shopifyRoutes.GET("/oauth/callback", oauthHandler.Callback)

	// Inbound webhook deliveries, authenticated by their HMAC signature
	shopifyRoutes.POST("/webhook", webhookHandler.Receive)

	r.Register(shopifyRoutes)

	// Register system routes
	systemHandler := handler.NewSystemHandler()
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)
	r.Register(systemRoutes)

	// Setup routes
	r.Setup()

	// Also keep a simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
