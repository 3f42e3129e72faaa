package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/bioinsight/backend/internal/api/handlers"
	"github.com/bioinsight/backend/internal/app"
	"github.com/bioinsight/backend/internal/metrics"
	"github.com/bioinsight/backend/internal/middleware/ratelimit"
	"github.com/bioinsight/backend/internal/middleware/security"
	"github.com/bioinsight/backend/internal/middleware/validation"
	"github.com/bioinsight/backend/pkg/config"
	appLogger "github.com/bioinsight/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting BioInsight API Server")
	metrics.Init()

	initCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	services, err := app.Build(initCtx, cfg)
	cancel()
	if err != nil {
		appLogger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	fiberApp := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: cfg.RateLimit.MaxRequestsPerMinute,
		Logger:               appLogger.GetLogger(),
	})
	defer limiter.Stop()

	allowOrigins := "*"
	if len(cfg.Server.AllowedOrigins) > 0 {
		allowOrigins = strings.Join(cfg.Server.AllowedOrigins, ", ")
	}

	fiberApp.Use(recover.New())
	fiberApp.Use(logger.New())
	fiberApp.Use(cors.New(cors.Config{
		AllowOrigins: allowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Client-ID",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	fiberApp.Use(security.HeadersMiddleware(security.HeadersConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		IsDevelopment:  cfg.Server.IsDevelopment,
	}))

	queryHandler := handlers.NewQueryHandler(services.Engine, services.Pipeline, services.Matcher)
	scoreHandler := handlers.NewScoreHandler()
	corpusHandler := handlers.NewCorpusHandler(services.SQLite)
	wsHandler := handlers.NewWebSocketHandler(services.Engine, cfg.Server.MaxQueryLength)

	var graph handlers.GraphReader
	deps := map[string]handlers.Pinger{"sqlite": services.SQLite}
	if services.Neo4j != nil {
		graph = services.Neo4j
		deps["neo4j"] = services.Neo4j
	}
	if services.Redis != nil {
		deps["redis"] = services.Redis
	}
	historyHandler := handlers.NewHistoryHandler(services.SQLite, graph)
	healthHandler := handlers.NewHealthHandler(deps)

	fiberApp.Get("/metrics", metrics.MetricsHandler())

	api := fiberApp.Group("/api/v1")

	api.Get("/health", healthHandler.Health)
	api.Get("/ready", healthHandler.Ready)

	api.Use(limiter.Middleware())
	api.Use(validation.Middleware(validation.Config{
		MaxQueryLength: cfg.Server.MaxQueryLength,
		Logger:         appLogger.GetLogger(),
	}))

	api.Post("/chat", queryHandler.HandleChat)
	api.Post("/resolve", queryHandler.HandleResolve)
	api.Post("/extract", queryHandler.HandleExtract)
	api.Post("/score", scoreHandler.HandleScore)
	api.Get("/analyses", historyHandler.ListAnalyses)
	api.Get("/interactions/:drug", historyHandler.GraphInteractions)
	api.Get("/interactions/:drug/:target", historyHandler.PairInteraction)
	api.Get("/corpus/interactions", corpusHandler.Interactions)
	api.Get("/corpus/stats", corpusHandler.Stats)

	fiberApp.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	fiberApp.Get("/ws/chat", websocket.New(wsHandler.HandleConnection))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := fiberApp.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	if err := fiberApp.ShutdownWithTimeout(30 * time.Second); err != nil {
		appLogger.Warn("Shutdown did not complete cleanly", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}
