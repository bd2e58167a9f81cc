package api

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/marcus/tdash/internal/serverdb"
)

// Config holds the server configuration, loaded from environment variables
// and an optional .env file.
type Config struct {
	ListenAddr      string
	ShutdownTimeout time.Duration
	LogFormat       string // "json" (default) or "text"
	LogLevel        string // "debug", "info" (default), "warn", "error"

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	JWTSecret string
	JWTExpiry time.Duration // zero = tokens never expire

	RateLimit int // requests per user per minute (default: 300)
}

// LoadConfig reads configuration from the environment with sensible
// defaults. A .env file in the working directory is loaded first if present.
func LoadConfig() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("load .env", "err", err)
	}

	cfg := Config{
		ListenAddr:      getEnv("SERVER_ADDR", ":8080"),
		ShutdownTimeout: 30 * time.Second,
		LogFormat:       getEnv("LOG_FORMAT", "json"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "tdash"),
		DBPassword: getEnv("DB_PASSWORD", "tdash"),
		DBName:     getEnv("DB_NAME", "tdash"),

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTExpiry: 30 * 24 * time.Hour,

		RateLimit: 300,
	}

	if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ShutdownTimeout = d
		}
	}
	if v := os.Getenv("JWT_EXPIRY_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.JWTExpiry = time.Duration(n) * time.Hour
		}
	}
	if v := os.Getenv("RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RateLimit = n
		}
	}
	return cfg
}

// DSN returns the postgres connection string.
func (c Config) DSN() string {
	return serverdb.DSN(c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
