package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bilgisen/portal/internal/api"
	"github.com/bilgisen/portal/internal/cache"
	"github.com/bilgisen/portal/internal/chat"
	"github.com/bilgisen/portal/internal/config"
	"github.com/bilgisen/portal/internal/fees"
	"github.com/bilgisen/portal/internal/listing"
	"github.com/bilgisen/portal/internal/logger"
	"github.com/bilgisen/portal/internal/middleware"
	"github.com/bilgisen/portal/internal/repository"
	"github.com/bilgisen/portal/internal/session"
	"github.com/bilgisen/portal/internal/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	// Load and validate configuration
	cfg := config.Load()

	// Initialize logger
	output := cfg.LogFile
	if output == "" {
		output = "stdout"
	}
	if err := logger.Init(logger.Config{
		Level:  cfg.LogLevel,
		Output: output,
		Pretty: cfg.Env != "production",
	}); err != nil {
		panic(err)
	}

	log := logger.Get()
	log.Info().Msg("Starting application...")

	// Listing cache: Redis when configured, in-memory otherwise
	var store cache.Store
	if cfg.RedisURL != "" {
		redisClient, err := cache.NewRedisClient(cfg.RedisURL, cfg.RedisPrefix)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize Redis client")
		}
		store = redisClient
	} else {
		log.Warn().Msg("REDIS_URL not set, using in-memory listing cache")
		store = cache.NewMemoryStore()
	}
	defer func() {
		log.Info().Msg("Closing cache client...")
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing cache client")
		}
	}()

	client := repository.NewClient(repository.Config{
		BaseURL: cfg.RepositoryURL,
		Token:   cfg.RepositoryToken,
		Timeout: cfg.RepositoryTimeout,
	})
	articles, news := client.Articles(), client.News()

	listings := listing.NewService(
		map[string]listing.ContentSource{
			repository.PathArticles: articles,
			repository.PathNews:     news,
		},
		client.FAQ(),
		client.Applications(),
		store,
		listing.Config{TTL: cfg.CacheTTL, FetchSize: cfg.FetchSize},
	)

	log.Info().Strs("collections", listings.Collections()).Str("repository", cfg.RepositoryURL).Msg("Content repository configured")

	script, err := chat.LoadScript(cfg.ContentFile)
	if err != nil {
		log.Warn().Err(err).Str("file", cfg.ContentFile).Msg("Chat script unavailable, using defaults")
	}
	schedule, err := fees.Load(cfg.ContentFile)
	if err != nil {
		log.Warn().Err(err).Str("file", cfg.ContentFile).Msg("Fee schedule unavailable")
		schedule = fees.Schedule{Currency: "IDR"}
	}

	var images storage.ImageStore = storage.NewRepositoryImages(articles, cfg.MaxFileSize)
	if cfg.UseR2() {
		r2, err := storage.NewR2Images(context.Background(), storage.R2Config{
			Endpoint:  cfg.R2Endpoint,
			AccessKey: cfg.R2AccessKey,
			SecretKey: cfg.R2SecretKey,
			Bucket:    cfg.R2Bucket,
			PublicURL: cfg.R2PublicURL,
			MaxSize:   cfg.MaxFileSize,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize R2 image storage")
		}
		images = r2
	}

	handlers := api.NewHandlers(api.Deps{
		Config:  cfg,
		Listing: listings,
		Content: map[string]api.ContentStore{
			repository.PathArticles: articles,
			repository.PathNews:     news,
		},
		Deleters: map[string]api.Deleter{
			repository.PathFAQ:          client.FAQ(),
			repository.PathApplications: client.Applications(),
		},
		Sessions: session.NewStore(cfg.SessionTTL),
		Views:    listing.NewViews(cfg.SessionTTL),
		Chat:     chat.NewResponder(script, listings),
		Fees:     schedule,
		Images:   images,
	})

	// Create Fiber app with custom config
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.HTTPTimeout,
		WriteTimeout: cfg.HTTPTimeout,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    int(cfg.MaxFileSize) + 1<<20,
		ErrorHandler: middleware.ErrorHandler,
	})

	// Global middleware
	app.Use(recover.New()) // Recover from panics
	app.Use(middleware.RequestLogger())

	// Setup API routes
	api.SetupRoutes(app, handlers)

	// Portal pages
	app.Static("/", cfg.StaticDir)

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Create a deadline for graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}
