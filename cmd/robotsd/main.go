package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/chosunone/robots-server/internal/cache"
	"github.com/chosunone/robots-server/internal/config"
	"github.com/chosunone/robots-server/internal/coordinator"
	"github.com/chosunone/robots-server/internal/fetcher"
	"github.com/chosunone/robots-server/internal/policy"
	"github.com/chosunone/robots-server/internal/rpcserver"
)

func main() {
	// Load .env file if exists
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Initialize logger at the configured level.
	zapCfg := zap.NewProductionConfig()
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal("invalid LOG_LEVEL:", err)
	}
	zapCfg.Level = level
	logger, err := zapCfg.Build()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	// Initialize the policy snapshot cache: in-process by default, or
	// Redis-backed when ROBOTS_CACHE_BACKEND=redis.
	var robotsCache cache.Cache[string, *policy.Snapshot]
	switch cfg.CacheBackend {
	case config.CacheBackendRedis:
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
		robotsCache = cache.NewRedisCache[*policy.Snapshot](redisClient, "robots:")
		logger.Info("using redis cache backend", zap.String("addr", cfg.RedisAddr))
	default:
		robotsCache = cache.NewTTLCache[string, *policy.Snapshot]()
		logger.Info("using in-process cache backend")
	}

	// Initialize the fetcher (E) and coordinator (G).
	f := fetcher.New(fetcher.Config{
		Timeout:      cfg.FetchTimeout,
		MaxRedirects: cfg.MaxRedirects,
		MaxBodyBytes: cfg.MaxBodyBytes,
		UserAgent:    cfg.UserAgent,
	}, logger)
	coord := coordinator.New(robotsCache, f, cfg.CacheTTL, logger)

	// Initialize the RPC surface (H).
	server := rpcserver.New(coord, logger)

	app := fiber.New(fiber.Config{
		ErrorHandler: rpcserver.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "POST,OPTIONS",
		AllowHeaders: "Content-Type",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"name":    "robots-server",
			"version": "1.0.0",
			"status":  "running",
			"endpoints": fiber.Map{
				"health":       "/health",
				"get_robots":   "/v1/robots",
				"is_allowed":   "/v1/robots/allowed",
			},
		})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	server.Register(app)

	logger.Info("starting server", zap.String("addr", cfg.ListenAddr))
	if err := app.Listen(cfg.ListenAddr); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}
