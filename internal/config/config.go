package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"anoa.com/dailydebate/pkg/calendar"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins string
	LogLevel       string

	DatabaseURL string
	DBHost      string
	DBUser      string
	DBPass      string
	DBName      string
	DBPort      string
	RedisURL    string

	JWTSecret string
	JWTTTL    time.Duration

	Timezone        string
	RolloverCron    string
	RolloverLockTTL time.Duration
	ResultsCacheTTL time.Duration

	AdminEmail    string
	AdminPassword string
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:4200"),
		LogLevel:       os.Getenv("LOG_LEVEL"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPass:      os.Getenv("DB_PASS"),
		DBName:      getEnv("DB_NAME", "daily_debate"),
		DBPort:      getEnv("DB_PORT", "5432"),
		RedisURL:    os.Getenv("REDIS_URL"),

		JWTSecret: getEnv("JWT_SECRET", "change-me"),

		Timezone:     getEnv("DEBATE_TIMEZONE", calendar.DefaultZone),
		RolloverCron: getEnv("ROLLOVER_CRON", "0 0 * * *"),

		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}

	ttlMinutes, err := strconv.Atoi(getEnv("JWT_TTL_MINUTES", "60"))
	if err != nil || ttlMinutes <= 0 {
		return nil, fmt.Errorf("invalid JWT_TTL_MINUTES: %q", os.Getenv("JWT_TTL_MINUTES"))
	}
	cfg.JWTTTL = time.Duration(ttlMinutes) * time.Minute

	// Parsing durations
	cfg.RolloverLockTTL, err = parseDuration(getEnv("ROLLOVER_LOCK_TTL", "60s"))
	if err != nil {
		return nil, fmt.Errorf("invalid ROLLOVER_LOCK_TTL: %w", err)
	}
	cfg.ResultsCacheTTL, err = parseDuration(getEnv("RESULTS_CACHE_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid RESULTS_CACHE_TTL: %w", err)
	}

	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("invalid DEBATE_TIMEZONE: %w", err)
	}
	if _, err := cron.ParseStandard(cfg.RolloverCron); err != nil {
		return nil, fmt.Errorf("invalid ROLLOVER_CRON: %w", err)
	}

	return cfg, nil
}

// IsDevelopment reports whether dev-only seeding and console logging apply.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func parseDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %s", s)
	}
	return d, nil
}
