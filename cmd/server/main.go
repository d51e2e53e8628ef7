package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/emclab/station-booking/internal/config"
	"github.com/emclab/station-booking/internal/database"
	"github.com/emclab/station-booking/internal/handler"
	"github.com/emclab/station-booking/internal/middleware"
	"github.com/emclab/station-booking/internal/queue"
	"github.com/emclab/station-booking/internal/repository"
	"github.com/emclab/station-booking/internal/router"
	"github.com/emclab/station-booking/internal/service"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger := newLogger(cfg.Env)

	userDB, err := database.Open(cfg.UserDBPath, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open user database")
	}
	bizDB, err := database.Open(cfg.BizDBPath, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open biz database")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := database.InitUserSchema(ctx, userDB); err != nil {
		logger.Fatal().Err(err).Msg("init user schema")
	}
	if err := database.InitBizSchema(ctx, bizDB); err != nil {
		logger.Fatal().Err(err).Msg("init biz schema")
	}

	users := repository.NewUserRepo(userDB, &logger)
	reservations := repository.NewReservationRepo(bizDB, &logger)
	stations := repository.NewStationRepo(bizDB, &logger)
	sevents := repository.NewSeventRepo(bizDB, &logger)

	publisher := service.NewEventPublisher(queue.BrokerURL(), &logger)
	go queue.StartReservationConsumer(&logger)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())

	// Redis is optional tuning; a nil client turns both middlewares into
	// pass-throughs.
	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Warn().Msg("redis unreachable, rate limiting and response cache disabled")
	}

	router.Register(e, router.Handlers{
		Auth:        handler.NewAuthHandler(cfg, users, &logger),
		Reservation: handler.NewReservationHandler(reservations, publisher, cfg.DataDir, &logger),
		Station:     handler.NewStationHandler(stations, &logger),
		Sevent:      handler.NewSeventHandler(sevents, &logger),
		Settings:    handler.NewSettingsHandler(cfg.DataDir, &logger),
		Health:      handler.NewHealthHandler(stations),
		JWTSecret:   cfg.JWTSecret,
		RateLimit:   middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		Cache:       middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	})

	addr := ":" + cfg.Port
	logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("server starting")
	if err := e.Start(addr); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

// newLogger returns the process logger: human-readable console output in dev,
// JSON everywhere else.
func newLogger(env string) zerolog.Logger {
	if env == "dev" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
