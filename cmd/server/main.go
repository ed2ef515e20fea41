package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"crosspost-backend/internal/config"
	"crosspost-backend/internal/database"
	"crosspost-backend/internal/handlers"
	"crosspost-backend/internal/metrics"
	"crosspost-backend/internal/middleware"
	"crosspost-backend/internal/models"
	"crosspost-backend/internal/platform"
	"crosspost-backend/internal/repository"
	"crosspost-backend/internal/router"
	"crosspost-backend/internal/scheduler"
	"crosspost-backend/internal/services"
	"crosspost-backend/internal/websocket"
	"crosspost-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting Crosspost Backend...")

	ctx := context.Background()

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	videoRepo := repository.NewVideoRepo(pool)
	postRepo := repository.NewPostRepo(pool)
	credRepo := repository.NewCredentialRepo(pool)
	jobRepo := repository.NewJobRepo(pool)

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	authService := services.NewAuthService(userRepo, jwtAuth)

	credService := services.NewCredentialService(credRepo, oauthConfigs(cfg))

	adapters := map[platform.Platform]platform.Adapter{
		platform.YouTube:   platform.NewYouTubeAdapter(credService),
		platform.Facebook:  platform.NewFacebookAdapter(credService, cfg.FacebookPageID),
		platform.Instagram: platform.NewInstagramAdapter(credService, cfg.InstagramUserID),
		platform.LinkedIn:  platform.NewLinkedInAdapter(credService, cfg.LinkedInAuthor),
	}

	events := services.NewRedisEvents(redisClients.Queue)
	queue := services.NewRedisQueue(redisClients.Queue)
	notifier := services.NewNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, userRepo.ListActiveEmails)

	executor := services.NewPublishExecutor(adapters, postRepo, videoRepo, credRepo, events, notifier)

	composer, err := services.NewComposer(ctx, cfg.GeminiAPIKey)
	if err != nil {
		log.Fatalf("✗ Composer initialization failed: %v", err)
	}
	defer composer.Close()
	log.Println("✓ Composer initialized")

	cadenceLoc := cfg.CadenceLocation()
	cadence := scheduler.Cadence{
		Weekday:      time.Weekday(cfg.CadenceWeekday),
		Hour:         cfg.CadenceHour,
		Minute:       cfg.CadenceMinute,
		HorizonWeeks: cfg.CadenceHorizonWeeks,
		Location:     cadenceLoc,
	}

	targeting := services.NewTargetingService(postRepo, videoRepo, jobRepo, queue, executor, events, composer, cadence)
	projections := services.NewProjectionService(postRepo, cadenceLoc)

	autopilotPlatforms := make([]platform.Platform, 0, len(cfg.AutopilotPlatforms))
	for _, name := range cfg.AutopilotPlatforms {
		p, err := platform.Parse(name)
		if err != nil {
			log.Fatalf("✗ Invalid AUTOPILOT_PLATFORMS entry %q", name)
		}
		autopilotPlatforms = append(autopilotPlatforms, p)
	}
	autopilot := services.NewAutopilotService(videoRepo, targeting, composer, autopilotPlatforms)

	ingest, err := services.NewIngestService(ctx, cfg.YouTubeAPIKey, videoRepo)
	if err != nil {
		log.Fatalf("✗ Ingest service initialization failed: %v", err)
	}
	log.Println("✓ Ingest service initialized")

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(authService)
	scheduleHandler := handlers.NewScheduleHandler(targeting)
	queueHandler := handlers.NewQueueHandler(projections, targeting)
	calendarHandler := handlers.NewCalendarHandler(projections)
	autopilotHandler := handlers.NewAutopilotHandler(autopilot, targeting)
	videoHandler := handlers.NewVideoHandler(videoRepo, jobRepo, queue)
	platformHandler := handlers.NewPlatformHandler(credService)
	jobHandler := handlers.NewJobHandler(jobRepo)

	// ──── Step 5: Start Job Worker Pool ────
	workerPool := worker.NewPool(redisClients.Queue, jobRepo, postRepo, ingest, executor, cfg.WorkerCount)
	workerPool.Start()
	log.Printf("✓ Worker pool started (%d goroutines)", cfg.WorkerCount)

	queueDepth := metrics.NewQueueDepthCollector(redisClients.Queue, []string{
		models.QueuePublishPost,
		models.QueueVideoIngest,
	})
	queueDepth.Start(15 * time.Second)
	log.Println("✓ Queue depth collector started")

	// ──── Step 6: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, cfg.JWTSecret)
	log.Println("✓ WebSocket hub started")

	// ──── Step 7: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		authHandler,
		scheduleHandler,
		queueHandler,
		calendarHandler,
		autopilotHandler,
		videoHandler,
		platformHandler,
		jobHandler,
		wsHub,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		workerPool.Stop()
		queueDepth.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Printf("✓ Crosspost Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}

// oauthConfigs builds the refresh configs for platforms whose app credentials
// are present. A missing pair just disables refresh for that platform.
func oauthConfigs(cfg *config.Config) map[platform.Platform]*oauth2.Config {
	configs := make(map[platform.Platform]*oauth2.Config)
	if cfg.GoogleClientID != "" {
		configs[platform.YouTube] = &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			Endpoint:     endpoints.Google,
		}
	}
	if cfg.FacebookClientID != "" {
		fb := &oauth2.Config{
			ClientID:     cfg.FacebookClientID,
			ClientSecret: cfg.FacebookClientSecret,
			Endpoint:     endpoints.Facebook,
		}
		configs[platform.Facebook] = fb
		configs[platform.Instagram] = fb
	}
	if cfg.LinkedInClientID != "" {
		configs[platform.LinkedIn] = &oauth2.Config{
			ClientID:     cfg.LinkedInClientID,
			ClientSecret: cfg.LinkedInClientSecret,
			Endpoint:     endpoints.LinkedIn,
		}
	}
	return configs
}
