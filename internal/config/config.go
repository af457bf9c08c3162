package config

import (
	"flag"
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string
	LogLevel    string

	// Crawler settings
	TempDir      string
	MediaDir     string
	UserAgent    string
	FetchTimeout time.Duration

	// Outbound email settings
	SMTPAddr     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string
	SupportEmail string

	// Base URL used in verification / reset links sent by email
	BaseURL string
}

func Load() *Config {
	config := fromEnv()

	// Required environment variables (for database/redis services)
	config.DatabaseURL = mustGetEnv("DATABASE_URL")
	config.RedisURL = mustGetEnv("REDIS_URL")

	// Command line flags override environment
	flag.StringVar(&config.Port, "port", config.Port, "Server port")
	flag.StringVar(&config.LogLevel, "log-level", config.LogLevel, "Log level")
	flag.Parse()

	return config
}

// fromEnv reads the optional settings, falling back to defaults
func fromEnv() *Config {
	return &Config{
		Port:         getEnvWithDefault("PORT", "8080"),
		LogLevel:     getEnvWithDefault("LOG_LEVEL", "info"),
		TempDir:      getEnvWithDefault("TEMP_DIR", "data/temp"),
		MediaDir:     getEnvWithDefault("MEDIA_DIR", "data/media"),
		UserAgent:    getEnvWithDefault("CRAWLER_USER_AGENT", ""),
		FetchTimeout: getEnvDuration("FETCH_TIMEOUT_SECONDS", 10),
		SMTPAddr:     getEnvWithDefault("SMTP_ADDR", ""),
		SMTPFrom:     getEnvWithDefault("SMTP_FROM", "noreply@capellawish.local"),
		SMTPUsername: getEnvWithDefault("SMTP_USERNAME", ""),
		SMTPPassword: getEnvWithDefault("SMTP_PASSWORD", ""),
		SupportEmail: getEnvWithDefault("SUPPORT_EMAIL", ""),
		BaseURL:      getEnvWithDefault("BASE_URL", "http://localhost:8080"),
	}
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultSeconds int) time.Duration {
	if value := os.Getenv(key); value != "" {
		if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return time.Duration(defaultSeconds) * time.Second
}

func mustGetEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("Environment variable %s is required", key)
	}
	return value
}

// ValidateForWorker ensures all required fields for worker service are present
func (c *Config) ValidateForWorker() error {
	// Worker only needs database and Redis; SMTP is optional (email jobs
	// are logged and dropped when no SMTP server is configured)
	return nil
}

// ValidateForAPI ensures all required fields for API service are present
func (c *Config) ValidateForAPI() error {
	// API only needs basic config
	return nil
}
