package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/a-s-adam/streamlink/pkg/config"
	"github.com/a-s-adam/streamlink/pkg/database"
	"github.com/a-s-adam/streamlink/pkg/embeddings"
	"github.com/a-s-adam/streamlink/pkg/handlers"
	"github.com/a-s-adam/streamlink/pkg/logging"
	"github.com/a-s-adam/streamlink/pkg/metadata"
	"github.com/a-s-adam/streamlink/pkg/middleware"
	"github.com/a-s-adam/streamlink/pkg/repositories"
	"github.com/a-s-adam/streamlink/pkg/services"
	"github.com/a-s-adam/streamlink/pkg/services/workqueue"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.String("database", cfg.Database.Host),
		zap.Bool("mock_mode", cfg.MockMode),
		zap.Bool("redis_enabled", cfg.Redis.Host != ""),
		zap.Bool("tmdb_configured", cfg.TMDB.APIKey != ""),
		zap.String("embeddings_provider", cfg.Embeddings.Provider))

	ctx := context.Background()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database",
			zap.String("url", logging.SanitizeURL(cfg.Database.ConnectionString())),
			zap.Error(err))
	}
	defer db.Close()

	// golang-migrate drives migrations over database/sql, so borrow a
	// stdlib adapter from the pool for the duration of startup.
	sqlDB := stdlib.OpenDBFromPool(db.Pool)
	if err := database.RunMigrations(sqlDB, cfg.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	if err := sqlDB.Close(); err != nil {
		logger.Warn("Failed to close migration connection", zap.Error(err))
	}

	redisClient, err := database.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	var jobStore services.JobStore
	if redisClient != nil {
		jobStore = services.NewRedisJobStore(redisClient)
		logger.Info("Job status backed by Redis")
	} else {
		jobStore = services.NewMemoryJobStore()
		logger.Info("Job status backed by in-process store")
	}

	userRepo := repositories.NewUserRepository(db)
	itemRepo := repositories.NewItemRepository(db)
	eventRepo := repositories.NewEventRepository(db)
	recRepo := repositories.NewRecommendationRepository(db)

	embedClient, err := embeddings.NewClient(&cfg.Embeddings, cfg.MockMode, logger)
	if err != nil {
		logger.Fatal("Failed to build embedding client", zap.Error(err))
	}
	tmdbClient := metadata.NewClient(&cfg.TMDB)

	parser := services.NewNetflixCSVParser(logger)
	ingestSvc := services.NewIngestionService(itemRepo, eventRepo, parser, logger)
	enrichSvc := services.NewEnrichmentService(itemRepo, tmdbClient, logger)
	embedSvc := services.NewEmbeddingService(itemRepo, embedClient, logger)
	youtubeSvc := services.NewYouTubeService(&cfg.YouTube, cfg.MockMode, logger)
	recommenderSvc := services.NewRecommenderService(itemRepo, eventRepo, recRepo, cfg.Recommender, logger)
	jobSvc := services.NewJobService(jobStore, logger)

	queue := workqueue.New(logger,
		workqueue.WithStrategy(workqueue.NewBoundedStrategy(cfg.Ingest.Workers)))

	// Pick up items stranded without metadata by an earlier outage.
	if cfg.TMDB.APIKey != "" {
		queue.Enqueue(services.NewEnrichmentSweepTask(itemRepo, enrichSvc, embedSvc, jobSvc, logger))
	}

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewUsersHandler(userRepo, logger).RegisterRoutes(mux)
	handlers.NewItemsHandler(itemRepo, logger).RegisterRoutes(mux)
	handlers.NewIngestHandler(userRepo, ingestSvc, enrichSvc, embedSvc, youtubeSvc, jobSvc, queue, cfg.MockMode, logger).RegisterRoutes(mux)
	handlers.NewRecommendationsHandler(recommenderSvc, jobSvc, queue, logger).RegisterRoutes(mux)
	handlers.NewJobsHandler(jobSvc, logger).RegisterRoutes(mux)

	handler := middleware.CORS(cfg.CORSOrigin)(middleware.RequestLogger(logger)(mux))

	server := &http.Server{
		Addr:              cfg.BindAddr + ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting streamlink",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down")
	queue.Cancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", zap.Error(err))
	}
}
