package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	DatabaseFile string // Optional: path to SQLite database file (default: ./portfolio.db)
	PepperFile   string // Optional: path to file containing pepper for password hashing (default: ./pepper)
	UploadDir    string // Optional: root directory for uploaded files (default: ./uploads)

	SessionBackend string // Session store: "memory" or "redis" (default: memory)
	RedisAddr      string // Redis address when SessionBackend is "redis"
	RedisPassword  string // Optional Redis auth
	RedisDB        int    // Redis database number

	MFAEnforcement string // Which accounts get the MFA challenge: "admin" or "all" (default: admin)
	Issuer         string // Issuer name shown in authenticator apps (default: Portfolio)

	SMTPHost     string // Optional: without it reset emails are logged instead of sent
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	EmailFrom    string
	BaseURL      string // Public frontend URL used in reset links

	AdminUsername string // Initial admin account, created only on an empty database
	AdminEmail    string
	AdminPassword string // Generated and logged once when empty

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	SecureCookies        bool          // Mark session cookies Secure (default: true outside dev)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	env := getEnvOrDefault("ENV", "dev")

	return Config{
		DatabaseFile: getEnvOrDefault("PORTFOLIO_DATABASE_FILE", "portfolio.db"),
		PepperFile:   getEnvOrDefault("PORTFOLIO_PEPPER_FILE", "pepper"),
		UploadDir:    getEnvOrDefault("PORTFOLIO_UPLOAD_DIR", "uploads"),

		SessionBackend: getEnvOrDefault("PORTFOLIO_SESSION_BACKEND", "memory"),
		RedisAddr:      getEnvOrDefault("PORTFOLIO_REDIS_ADDR", "localhost:6379"),
		RedisPassword:  os.Getenv("PORTFOLIO_REDIS_PASSWORD"),
		RedisDB:        getEnvIntOrDefault("PORTFOLIO_REDIS_DB", 0),

		MFAEnforcement: getEnvOrDefault("PORTFOLIO_MFA_ENFORCEMENT", "admin"),
		Issuer:         getEnvOrDefault("PORTFOLIO_ISSUER", "Portfolio"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnvIntOrDefault("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		EmailFrom:    getEnvOrDefault("EMAIL_FROM", "noreply@localhost"),
		BaseURL:      getEnvOrDefault("PORTFOLIO_BASE_URL", "http://localhost:8080"),

		AdminUsername: getEnvOrDefault("PORTFOLIO_ADMIN_USERNAME", "admin"),
		AdminEmail:    getEnvOrDefault("PORTFOLIO_ADMIN_EMAIL", "admin@localhost"),
		AdminPassword: os.Getenv("PORTFOLIO_ADMIN_PASSWORD"),

		Env:                  env,
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		SecureCookies:        getEnvBoolOrDefault("PORTFOLIO_SECURE_COOKIES", env != "dev"),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
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

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
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

	// Integer values are taken as minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
