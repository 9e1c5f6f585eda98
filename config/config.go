package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL       string
	JWTSecretKey      string
	AdminPasswordHash string
	ServerPort        int

	// Параметры арены
	MatchTimeout      time.Duration
	MonitorInterval   time.Duration
	SchedulerInterval time.Duration
	EloKFactor        int
	DefaultRating     int

	// Cloudflare R2 (архив результатов)
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	// Загружаем .env файл, если он есть. Ошибку не считаем фатальной.
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	adminHash := os.Getenv("ADMIN_PASSWORD_HASH")
	if adminHash == "" {
		return nil, fmt.Errorf("ADMIN_PASSWORD_HASH environment variable is not set")
	}

	port, err := intFromEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	matchTimeout, err := durationFromEnv("MATCH_TIMEOUT", 10*time.Minute)
	if err != nil {
		return nil, err
	}
	monitorInterval, err := durationFromEnv("MONITOR_INTERVAL", time.Minute)
	if err != nil {
		return nil, err
	}
	schedulerInterval, err := durationFromEnv("SCHEDULER_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, err
	}

	kFactor, err := intFromEnv("ELO_K_FACTOR", 32)
	if err != nil {
		return nil, err
	}
	if kFactor <= 0 {
		return nil, fmt.Errorf("ELO_K_FACTOR must be positive, got %d", kFactor)
	}

	defaultRating, err := intFromEnv("DEFAULT_RATING", 1000)
	if err != nil {
		return nil, err
	}
	if defaultRating < 0 {
		return nil, fmt.Errorf("DEFAULT_RATING must not be negative, got %d", defaultRating)
	}

	cfg := &Config{
		DatabaseURL:       dbURL,
		JWTSecretKey:      jwtKey,
		AdminPasswordHash: adminHash,
		ServerPort:        port,
		MatchTimeout:      matchTimeout,
		MonitorInterval:   monitorInterval,
		SchedulerInterval: schedulerInterval,
		EloKFactor:        kFactor,
		DefaultRating:     defaultRating,
		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
	}

	return cfg, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return value, nil
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %s", key, value)
	}
	return value, nil
}
