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
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Lwan2205/storefront/internal/cache"
	"github.com/Lwan2205/storefront/internal/config"
	"github.com/Lwan2205/storefront/internal/database"
	"github.com/Lwan2205/storefront/internal/events"
	"github.com/Lwan2205/storefront/internal/handler"
	"github.com/Lwan2205/storefront/internal/middleware"
	"github.com/Lwan2205/storefront/internal/repository"
	"github.com/Lwan2205/storefront/internal/service"
	"github.com/Lwan2205/storefront/internal/sse"
	"github.com/Lwan2205/storefront/internal/storage"
	"github.com/Lwan2205/storefront/internal/worker"
	"github.com/Lwan2205/storefront/pkg/shopapi"
)

// main is the entrypoint of the storefront BFF.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting storefront bff")

	// Context for startup calls and graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	checks := map[string]handler.HealthCheck{}

	// 3. Connect database (optional submission journal)
	var journal service.SubmissionJournal = service.NopJournal{}
	if cfg.DB.Enabled() {
		db, err := database.Connect(ctx, &cfg.DB)
		if err != nil {
			log.Error().Err(err).Msg("database connection failed")
			fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()

		// 3a. Run migrations
		if err := database.Migrate(db.DB, "migrations"); err != nil {
			log.Error().Err(err).Msg("migration failed")
			fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
			os.Exit(1)
		}
		log.Info().Msg("migrations completed successfully")

		journal = repository.NewSubmissionRepository(db)
		checks["database"] = db.PingContext
	} else {
		log.Warn().Msg("DB_HOST not set, submission journal disabled")
	}

	// 3b. Connect to Redis, or keep drafts in process memory
	var store cache.Store
	if cfg.Redis.Host != "" {
		redisClient, err := cache.NewRedisClient(&cfg.Redis)
		if err != nil {
			log.Error().Err(err).Msg("redis connection failed")
			fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		log.Info().Msg("redis connected successfully")
		store = redisClient
		checks["redis"] = redisClient.Ping
	} else {
		log.Warn().Msg("REDIS_HOST not set, drafts are kept in memory and lost on restart")
		store = cache.NewMemoryStore()
	}

	// 4. Initialize backend client
	backend := shopapi.NewClient(shopapi.Config{
		BaseURL:       cfg.Backend.BaseURL,
		SessionCookie: cfg.Backend.SessionCookie,
		Timeout:       cfg.Backend.Timeout,
	})

	// 5. Initialize image staging, moderation and events
	images, err := storage.New(ctx, &cfg.Storage)
	if err != nil {
		log.Error().Err(err).Msg("image storage initialization failed")
		fmt.Fprintf(os.Stderr, "image storage initialization failed: %v\n", err)
		os.Exit(1)
	}

	moderator, err := service.NewModerationService(ctx, &cfg.AWS)
	if err != nil {
		log.Warn().Err(err).Msg("Image moderation initialization failed - moderation will be disabled")
		moderator = service.NopModerator{}
	}

	publisher := events.New(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer publisher.Close()

	// 6. Initialize notification hub
	hub := sse.NewHub()
	notifier := sse.NewHubNotifier(hub)

	// 7. Initialize caches
	draftCache := cache.NewDraftCache(store, cfg.Draft.TTL)
	refCache := cache.NewReferenceCache(store, cfg.Draft.ReferenceTTL)
	cartCounts := cache.NewCartCountCache(store, cfg.Draft.CartCountTTL)
	submitLock := cache.NewSubmitLock(store, cfg.Draft.SubmitLock)
	viewCache := cache.NewViewCache(store, cfg.Draft.TTL)

	// 8. Initialize services
	refSvc := service.NewReferenceService(backend, refCache, notifier)
	refSvc.SetServiceToken(cfg.Backend.ServiceToken)
	draftSvc := service.NewDraftService(draftCache, backend, images, moderator, cfg.Storage.MaxImageBytes)
	submissionSvc := service.NewSubmissionService(draftSvc, backend, images, submitLock, journal, publisher, notifier)
	cartSvc := service.NewCartCoordinator(backend, cartCounts, notifier, publisher)
	detailSvc := service.NewProductDetailService(backend, backend, cartSvc, viewCache, notifier)

	// Reload update-flow drafts so the form shows what the backend stored
	submissionSvc.SetOnUpdated(draftSvc.Refresh)

	// 9. Initialize handlers
	handlers := &Handlers{
		Health:     handler.NewHealthHandler(checks),
		Events:     handler.NewSSEHandler(hub),
		Product:    handler.NewProductHandler(detailSvc, cartSvc),
		Reference:  handler.NewReferenceHandler(refSvc),
		Draft:      handler.NewDraftHandler(draftSvc, submissionSvc, cfg.Storage.MaxImageBytes),
		Submission: handler.NewSubmissionHandler(submissionSvc),
	}

	// 10. Initialize middleware
	sessionMw := middleware.NewSessionMiddleware(cfg, middleware.NewInvalidSessionRateLimiter(20, time.Minute))

	// 11. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.AllowedHosts))
	router.Use(sessionMw.Handle())
	router.Use(middleware.LoggingMiddleware())
	if cfg.Storage.Driver == "local" {
		router.Static("/uploads", cfg.Storage.LocalDir)
	}
	setupRoutes(router, handlers)

	// 12. Start workers
	go worker.NewReferenceSyncWorker(refSvc, cfg.Worker.ReferenceSyncInterval).Start(ctx)
	go worker.NewImageSweepWorker(draftSvc, cfg.Worker.ImageSweepInterval, cfg.Worker.ImageSweepGrace).Start(ctx)

	// 13. Start HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 14. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 15. Cancel context to stop workers and open event streams
	cancel()

	// 16. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health     *handler.HealthHandler
	Events     *handler.SSEHandler
	Product    *handler.ProductHandler
	Reference  *handler.ReferenceHandler
	Draft      *handler.DraftHandler
	Submission *handler.SubmissionHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers) {
	router.GET("/v1/health", handlers.Health.GetHealth)
	router.GET("/v1/events", handlers.Events.Stream)

	// Shopper routes
	router.GET("/v1/products/:id", handlers.Product.GetProduct)
	router.POST("/v1/products/:id/retry", handlers.Product.Retry)
	router.POST("/v1/products/:id/size", handlers.Product.SelectSize)
	router.POST("/v1/products/:id/quantity/increment", handlers.Product.IncrementQuantity)
	router.POST("/v1/products/:id/quantity/decrement", handlers.Product.DecrementQuantity)
	router.POST("/v1/products/:id/cart", handlers.Product.AddToCart)
	router.GET("/v1/cart/count", handlers.Product.CartCount)

	// Admin routes (backend session required; the backend enforces the role)
	admin := router.Group("/v1/admin")
	admin.Use(middleware.RequireBackendAuth())
	{
		admin.GET("/references", handlers.Reference.GetReferences)

		// Product form drafts
		admin.POST("/drafts", handlers.Draft.CreateDraft)
		admin.POST("/drafts/from-product/:productId", handlers.Draft.CreateDraftFromProduct)
		admin.GET("/drafts/:draftId", handlers.Draft.GetDraft)
		admin.PATCH("/drafts/:draftId", handlers.Draft.PatchDraft)
		admin.DELETE("/drafts/:draftId", handlers.Draft.DiscardDraft)

		// Variants
		admin.POST("/drafts/:draftId/variants", handlers.Draft.AddVariant)
		admin.PUT("/drafts/:draftId/variants/:key", handlers.Draft.EditVariant)
		admin.DELETE("/drafts/:draftId/variants/:key", handlers.Draft.RemoveVariant)
		admin.PUT("/drafts/:draftId/variants/at/:index", handlers.Draft.EditVariantAt)
		admin.DELETE("/drafts/:draftId/variants/at/:index", handlers.Draft.RemoveVariantAt)

		admin.PUT("/drafts/:draftId/image", handlers.Draft.SetImage)
		admin.POST("/drafts/:draftId/submit", handlers.Draft.Submit)

		admin.GET("/submissions", handlers.Submission.ListSubmissions)
	}
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
