package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	// Server
	Port string
	Host string
	Env  string

	// MongoDB (optional: empty URI keeps the in-memory store)
	MongoURI     string
	DatabaseName string
	MongoTimeout int

	// JWT
	JWTSecret     string
	JWTExpiration int

	// CORS
	AllowedOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Notification pipeline
	MutedTypes      []string
	MinSeverity     string
	MaxAttempts     int
	RetryDelay      time.Duration
	CleanupInterval time.Duration
	MaxDeliveredAge time.Duration

	// Admin sessions
	SessionWindow time.Duration
	SweepInterval time.Duration

	// Dashboard poller
	APIBaseURL      string
	PollInterval    time.Duration
	VisibilityDelay time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debugf("no .env file loaded: %v", err)
	}

	return &Config{
		Port:         getEnv("PORT", "8080"),
		Host:         getEnv("HOST", "0.0.0.0"),
		Env:          getEnv("ENV", "development"),
		MongoURI:     getEnv("MONGO_URI", ""),
		DatabaseName: getEnv("DATABASE_NAME", "skillbridge_admin"),
		MongoTimeout: getEnvAsInt("MONGO_TIMEOUT", 10),

		JWTSecret:     getEnv("JWT_SECRET", "your-secret-key"),
		JWTExpiration: getEnvAsInt("JWT_EXPIRATION", 24), // hours

		AllowedOrigins: getEnvAsSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),

		RateLimitEnabled:  getEnvAsBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: getEnvAsInt("RATE_LIMIT_REQUESTS", 120),
		RateLimitWindow:   getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute),

		MutedTypes:      getEnvAsSlice("NOTIFY_MUTED_TYPES", nil),
		MinSeverity:     getEnv("NOTIFY_MIN_SEVERITY", "low"),
		MaxAttempts:     getEnvAsInt("NOTIFY_MAX_ATTEMPTS", 3),
		RetryDelay:      getEnvAsDuration("NOTIFY_RETRY_DELAY", 60*time.Second),
		CleanupInterval: getEnvAsDuration("NOTIFY_CLEANUP_INTERVAL", 24*time.Hour),
		MaxDeliveredAge: getEnvAsDuration("NOTIFY_MAX_DELIVERED_AGE", 7*24*time.Hour),

		SessionWindow: getEnvAsDuration("SESSION_ACTIVE_WINDOW", 30*time.Minute),
		SweepInterval: getEnvAsDuration("SESSION_SWEEP_INTERVAL", 10*time.Minute),

		APIBaseURL:      getEnv("API_BASE_URL", "http://localhost:8080"),
		PollInterval:    getEnvAsDuration("POLL_INTERVAL", 30*time.Second),
		VisibilityDelay: getEnvAsDuration("VISIBILITY_DELAY", 2*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
