package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds all configuration for the Tarang backend service
type Config struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Server configuration
	Port           string
	AllowedOrigins string

	// Gemini configuration
	GeminiAPIKey string
	GeminiModels []string

	// Auth configuration
	JWTSecret string

	// Email configuration
	SendGridAPIKey string
	EmailFromName  string
	EmailFrom      string

	// Messaging configuration (optional; empty disables publishing)
	AMQPUrl          string
	AMQPExchange     string
	AMQPRoutingKey   string

	// Rate limiting
	ChatRateLimitPerMinute int

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables
func Load() *Config {
	config := &Config{
		// Database defaults
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "server"),
		DBPassword: getEnv("DB_PASSWORD", "secret"),
		DBName:     getEnv("DB_NAME", "tarang"),

		// Server defaults
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "*"),

		// Gemini defaults. Highest capability first, most stable last.
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModels: getListEnv("GEMINI_MODELS", []string{
			"gemini-2.0-flash",
			"gemini-1.5-flash",
			"gemini-1.5-pro",
		}),

		// Auth defaults
		JWTSecret: getEnv("JWT_SECRET", "tarang-dev-secret"),

		// Email defaults
		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		EmailFromName:  getEnv("EMAIL_FROM_NAME", "Tarang"),
		EmailFrom:      getEnv("EMAIL_FROM", "no-reply@tarang.org"),

		// Messaging defaults
		AMQPUrl:        getEnv("AMQP_URL", ""),
		AMQPExchange:   getEnv("AMQP_EXCHANGE", "tarang-events"),
		AMQPRoutingKey: getEnv("AMQP_ROUTING_KEY", "reports.created"),

		// Rate limit defaults
		ChatRateLimitPerMinute: getIntEnv("CHAT_RATE_LIMIT_PER_MINUTE", 20),

		// Logging defaults
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return config
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv gets an integer environment variable or returns a default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getListEnv gets a comma-separated environment variable or returns a default value
func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
