package config

import (
	"os"
	"strconv"

	"streampay/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort   string
	JWTSecret string
	Version   string

	// Ledger backend: "memory" or "postgres"
	LedgerBackend string
	DatabaseURL   string

	// Redis rate limiter (optional, falls back to in-process limiter)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Withdrawal accounting: when true, hosts draw against a cumulative
	// withdrawn counter instead of all-time revenue totals.
	TrackWithdrawals bool

	LogLevel string
	LogJSON  bool
}

// Load reads configuration from the environment (.env is honored).
func Load() *Config {
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	backend := os.Getenv("LEDGER_BACKEND")
	if backend == "" {
		backend = "memory"
	}
	if backend != "memory" && backend != "postgres" {
		logger.Fatal("LEDGER_BACKEND must be memory or postgres", "got", backend)
	}

	dbURL := os.Getenv("DATABASE_URL")
	if backend == "postgres" && dbURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	version := os.Getenv("APP_VERSION")
	if version == "" {
		version = "dev"
	}

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			redisDB = n
		}
	}

	return &Config{
		AppPort:          port,
		JWTSecret:        jwtSecret,
		Version:          version,
		LedgerBackend:    backend,
		DatabaseURL:      dbURL,
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		RedisDB:          redisDB,
		TrackWithdrawals: os.Getenv("TRACK_WITHDRAWALS") == "true",
		LogLevel:         os.Getenv("LOG_LEVEL"),
		LogJSON:          os.Getenv("LOG_JSON") == "true",
	}
}
