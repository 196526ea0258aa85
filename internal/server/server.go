package server

import (
	"time"

	"github.com/tedlu-tw/townpass-dev/internal/config"
	"github.com/tedlu-tw/townpass-dev/internal/history"
	"github.com/tedlu-tw/townpass-dev/internal/ride"
	"github.com/tedlu-tw/townpass-dev/internal/station"
	"github.com/tedlu-tw/townpass-dev/internal/stream"
	"github.com/tedlu-tw/townpass-dev/internal/weather"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Stream *stream.Hub
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     db,
		Redis:  redisClient,
		Stream: stream.NewHub(redisClient),
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "townpass-bike",
			"endpoints": fiber.Map{
				"ride":    "/api/ride",
				"station": "/api/station",
				"weather": "/api/weather",
				"stream":  "/api/stream",
			},
		})
	})
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	archive := history.NewStore(s.DB)
	rideSvc := ride.NewService(ride.NewRedisSessionStore(s.Redis), archive, s.Stream)

	cacheTTL := time.Duration(s.Cfg.StationCacheTTL) * time.Second
	stationFeed := station.NewFeed(s.Cfg.YouBikeURL, cacheTTL)
	stationSvc := station.NewService(stationFeed, s.Redis, cacheTTL)

	weatherSvc := weather.NewService(
		weather.NewCWAClient(s.Cfg.CWAAPIKey),
		weather.NewMOENVClient(s.Cfg.MOENVAPIKey),
	)

	api := s.App.Group("/api")
	rideGroup := api.Group("/ride")
	ride.RegisterRoutes(rideGroup, rideSvc)
	history.RegisterRoutes(rideGroup, archive)
	station.RegisterRoutes(api.Group("/station"), stationSvc)
	weather.RegisterRoutes(api, weatherSvc)
	stream.RegisterRoutes(api.Group("/stream"), s.Stream)
}
