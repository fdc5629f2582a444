package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"anoa.com/dailydebate/internal/bootstrap"
	"anoa.com/dailydebate/internal/config"
	"anoa.com/dailydebate/internal/server"
	"anoa.com/dailydebate/pkg/calendar"
	"anoa.com/dailydebate/pkg/database"
	"anoa.com/dailydebate/pkg/logger"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	appLogger := logger.New(cfg.AppEnv, cfg.LogLevel)

	db, err := database.Connect(database.Options{
		DSN:             cfg.DatabaseURL,
		Host:            cfg.DBHost,
		User:            cfg.DBUser,
		Password:        cfg.DBPass,
		Name:            cfg.DBName,
		Port:            cfg.DBPort,
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		LogSQL:          cfg.IsDevelopment(),
	})
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect database")
	}

	if err := bootstrap.Migrate(db); err != nil {
		appLogger.Fatal().Err(err).Msg("migration failed")
	}
	if err := bootstrap.SeedRoles(db); err != nil {
		appLogger.Fatal().Err(err).Msg("failed to seed roles")
	}
	if cfg.IsDevelopment() {
		if err := bootstrap.SeedAdminUser(db, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			appLogger.Fatal().Err(err).Msg("failed to seed admin user")
		}
	}

	redisClient := connectRedis(cfg.RedisURL, appLogger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	cal, err := calendar.New(cfg.Timezone)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to load debate timezone")
	}

	srv, err := server.NewServer(cfg, db, redisClient, cal, appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to build server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx, ":"+cfg.Port); err != nil {
		appLogger.Fatal().Err(err).Msg("server exited with error")
	}
	appLogger.Info().Msg("server stopped")
}

// connectRedis returns nil when REDIS_URL is unset or unreachable; the
// service then runs without caching, live events and the rollover lock.
func connectRedis(url string, logger zerolog.Logger) *redis.Client {
	if url == "" {
		logger.Warn().Msg("REDIS_URL not set, redis features disabled")
		return nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		logger.Warn().Err(err).Msg("invalid REDIS_URL, redis features disabled")
		return nil
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Msg("redis unreachable, redis features disabled")
		_ = client.Close()
		return nil
	}
	return client
}
