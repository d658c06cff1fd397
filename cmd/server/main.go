package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"daybook/internal/config"
	"daybook/internal/database"
	"daybook/internal/handlers"
	"daybook/internal/jobs"
	"daybook/internal/logging"
	"daybook/internal/middleware"
	"daybook/internal/services"
	"daybook/internal/store"
	"daybook/pkg/auth"
)

func main() {
	// Load .env file if present
	if err := godotenv.Load(); err != nil {
		log.Println("ℹ️  No .env file found, using environment variables")
	}

	logging.Init()
	cfg := config.Load()

	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	log.Printf("🕐 Journal timezone: %s", loc)

	// MongoDB
	db, err := database.NewMongoDB(cfg.MongoURI)
	if err != nil {
		log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer closeCancel()
		if err := db.Close(closeCtx); err != nil {
			log.Printf("⚠️ Error closing MongoDB connection: %v", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.Initialize(ctx); err != nil {
		cancel()
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}
	cancel()

	// Metrics
	services.InitMetrics()

	// Optional Redis event publishing
	var eventsService *services.EventsService
	if cfg.RedisURL != "" {
		eventsService, err = services.NewEventsService(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️ Redis unavailable, event publishing disabled: %v", err)
			eventsService = nil
		} else {
			defer eventsService.Close()
		}
	} else {
		log.Println("ℹ️  REDIS_URL not set, event publishing disabled")
	}

	// Stores
	entryStore := store.NewMongoEntryStore(db)
	snippetStore := store.NewMongoSnippetStore(db)

	// Remote collaborators
	userClient := services.NewUserClient(cfg.UserServiceURL, cfg.UserSyncRate)
	userSync := services.NewUserSyncService(userClient)
	genaiClient := services.NewGenAIClient(cfg.GenAIServiceURL)

	// Services
	snippetService := services.NewSnippetService(entryStore, snippetStore, userSync, loc)
	journalService := services.NewJournalService(entryStore, snippetStore, userSync, loc)
	statsService := services.NewStatisticsService(entryStore, snippetStore, loc, cfg.StatsCacheTTL)
	summaryService := services.NewSummaryService(entryStore, snippetStore, genaiClient)

	snippetService.SetEventsService(eventsService)
	snippetService.SetStatisticsService(statsService)
	journalService.SetEventsService(eventsService)
	journalService.SetStatisticsService(statsService)

	// JWT auth (gateway boundary)
	var jwtAuth *auth.LocalJWTAuth
	if cfg.JWTSecret != "" {
		jwtAuth, err = auth.NewLocalJWTAuth(cfg.JWTSecret, 0)
		if err != nil {
			log.Fatalf("❌ Failed to initialize JWT auth: %v", err)
		}
		log.Println("🔐 JWT authentication enabled")
	} else if cfg.Environment == "production" {
		log.Fatal("❌ JWT_SECRET is required in production")
	} else {
		log.Println("⚠️  JWT_SECRET not set, authentication disabled (development mode)")
	}

	// Background jobs
	scheduler, err := jobs.NewScheduler(loc)
	if err != nil {
		log.Fatalf("❌ Failed to create scheduler: %v", err)
	}
	insightsJob := jobs.NewInsightsJob(entryStore, summaryService, loc)
	if err := scheduler.Register("nightly-insights", cfg.InsightsCron, func() {
		jobCtx, jobCancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer jobCancel()
		if err := insightsJob.Run(jobCtx); err != nil {
			log.Printf("⚠️ Nightly insights job failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("❌ Failed to register insights job: %v", err)
	}
	scheduler.Start()

	// Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Daybook v1.0",
		ReadTimeout:  120 * time.Second, // summary generation waits on the LLM
		WriteTimeout: 120 * time.Second,
		BodyLimit:    1 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(logger.New())

	prometheus := fiberprometheus.New("daybook")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	rateLimitConfig := middleware.LoadRateLimitConfig()
	log.Printf("🛡️  [RATE-LIMIT] Loaded config: Global=%d/min, Write=%d/min, Summary=%d/min",
		rateLimitConfig.GlobalAPIMax, rateLimitConfig.WriteMax, rateLimitConfig.SummaryMax)

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:5173,http://localhost:3000"
		log.Println("⚠️  ALLOWED_ORIGINS not set, using development defaults")
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: allowedOrigins != "*",
	}))

	app.Use("/api", middleware.GlobalAPIRateLimiter(rateLimitConfig))

	// Handlers
	healthHandler := handlers.NewHealthHandler(db)
	snippetHandler := handlers.NewSnippetHandler(snippetService)
	journalHandler := handlers.NewJournalHandler(journalService, statsService)
	summaryHandler := handlers.NewSummaryHandler(summaryService)

	app.Get("/health", healthHandler.Health)

	api := app.Group("/api", middleware.LocalAuthMiddleware(jwtAuth))
	writeLimiter := middleware.WriteRateLimiter(rateLimitConfig)

	snippets := api.Group("/snippets")
	snippets.Post("/", writeLimiter, snippetHandler.CreateSnippet)
	snippets.Get("/", snippetHandler.GetSnippets)
	snippets.Get("/:userId", snippetHandler.GetUserSnippets)
	snippets.Put("/:id", writeLimiter, snippetHandler.UpdateSnippet)
	snippets.Delete("/:id", writeLimiter, snippetHandler.DeleteSnippet)

	journals := api.Group("/journalEntries")
	journals.Post("/", writeLimiter, journalHandler.CreateJournalEntry)
	journals.Get("/:userId", journalHandler.GetUserJournals)
	journals.Get("/:userId/statistics", journalHandler.GetUserStatistics)
	journals.Put("/:id", writeLimiter, journalHandler.UpdateJournalEntry)
	journals.Delete("/:id", writeLimiter, journalHandler.DeleteJournalEntry)

	api.Get("/summary/:journalId", middleware.SummaryRateLimiter(rateLimitConfig), summaryHandler.GenerateSummary)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("\n🛑 Shutting down server...")
		scheduler.Stop()
		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}
	}()

	log.Printf("🚀 Daybook journal service listening on :%s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}
