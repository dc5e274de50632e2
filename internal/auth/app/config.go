package app

import (
	"os"
	"strconv"
	"time"

	"github.com/aussiebroadwan/doorman/internal/auth/lockout"
	"github.com/aussiebroadwan/doorman/internal/auth/service"
	"github.com/aussiebroadwan/doorman/pkg/jwtx"
)

type Config struct {
	JWTSecret []byte // Required: HS256 signing secret for access/refresh tokens
	Issuer    string // Optional: issuer claim for tokens (default: doorman)

	AccessTTL  time.Duration // Optional: access token lifetime (default: 15m)
	RefreshTTL time.Duration // Optional: refresh token lifetime (default: 168h)
	JWTLeeway  time.Duration // Optional: clock-skew leeway during verification (default: 30s)

	LockoutThreshold int           // Optional: consecutive failures before lock (default: 5)
	LockoutDuration  time.Duration // Optional: lock duration once engaged (default: 15m)

	ResetTTL        time.Duration // Optional: password-reset token lifetime (default: 1h)
	VerificationTTL time.Duration // Optional: email-verification token lifetime (default: 24h)

	DatabaseFile string // Optional: path to SQLite database file (default: ./doorman.db)
	PepperFile   string // Optional: path to pepper file for password hashing (default: ./pepper)

	RedisAddr     string // Optional: redis host:port for the revocation list (default: localhost:6379)
	RedisPassword string // Optional: redis password
	RedisDB       int    // Optional: redis database index

	BaseURL string // Optional: public origin for reset/verification links (default: http://localhost:8080)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping sweep interval (default: 1h)
	AuditRetention       time.Duration // Audit event retention window (default: 90 days)
}

func LoadConfig() Config {
	return Config{
		JWTSecret: []byte(os.Getenv("AUTH_JWT_SECRET")),
		Issuer:    getEnvOrDefault("AUTH_ISSUER", "doorman"),

		AccessTTL:  getEnvDurationOrDefault("AUTH_ACCESS_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL: getEnvDurationOrDefault("AUTH_REFRESH_TTL", jwtx.DefaultRefreshTokenTTL),
		JWTLeeway:  getEnvDurationOrDefault("AUTH_JWT_LEEWAY", 30*time.Second),

		LockoutThreshold: getEnvIntOrDefault("AUTH_LOCKOUT_THRESHOLD", lockout.DefaultThreshold),
		LockoutDuration:  getEnvDurationOrDefault("AUTH_LOCKOUT_DURATION", lockout.DefaultDuration),

		ResetTTL:        getEnvDurationOrDefault("AUTH_RESET_TTL", service.DefaultResetTTL),
		VerificationTTL: getEnvDurationOrDefault("AUTH_VERIFICATION_TTL", service.DefaultVerificationTTL),

		DatabaseFile: getEnvOrDefault("AUTH_DATABASE_FILE", "doorman.db"),
		PepperFile:   getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),

		RedisAddr:     getEnvOrDefault("AUTH_REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("AUTH_REDIS_PASSWORD"),
		RedisDB:       getEnvIntOrDefault("AUTH_REDIS_DB", 0),

		BaseURL: getEnvOrDefault("AUTH_BASE_URL", "http://localhost:8080"),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", time.Hour),
		AuditRetention:       getEnvDurationOrDefault("AUDIT_RETENTION", service.DefaultAuditRetention),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
