package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// JWT
	JWTSecret string

	// Posting cadence (one slot per week)
	CadenceWeekday      int
	CadenceHour         int
	CadenceMinute       int
	CadenceHorizonWeeks int
	CadenceTimezone     string

	// Auto-pilot
	AutopilotPlatforms []string

	// Workers
	WorkerCount int

	// Platform identities
	FacebookPageID   string
	InstagramUserID  string
	LinkedInAuthor   string

	// OAuth apps (token refresh)
	GoogleClientID       string
	GoogleClientSecret   string
	FacebookClientID     string
	FacebookClientSecret string
	LinkedInClientID     string
	LinkedInClientSecret string

	// External APIs
	YouTubeAPIKey string
	GeminiAPIKey  string

	// SMTP
	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:        getEnvOrDefault("PORT", "8080"),
		Env:         getEnvOrDefault("ENV", "development"),
		DatabaseURL: mustGetEnv("DATABASE_URL"),
		RedisURL:    mustGetEnv("REDIS_URL"),
		JWTSecret:   mustGetEnv("JWT_SECRET"),

		CadenceWeekday:      getEnvAsIntOrDefault("CADENCE_WEEKDAY", 3), // Wednesday
		CadenceHour:         getEnvAsIntOrDefault("CADENCE_HOUR", 23),
		CadenceMinute:       getEnvAsIntOrDefault("CADENCE_MINUTE", 0),
		CadenceHorizonWeeks: getEnvAsIntOrDefault("CADENCE_HORIZON_WEEKS", 52),
		CadenceTimezone:     getEnvOrDefault("CADENCE_TIMEZONE", "UTC"),

		AutopilotPlatforms: splitCSV(getEnvOrDefault("AUTOPILOT_PLATFORMS", "youtube,linkedin,facebook,instagram")),

		WorkerCount: getEnvAsIntOrDefault("WORKER_COUNT", 3),

		FacebookPageID:  getEnvOrDefault("FACEBOOK_PAGE_ID", ""),
		InstagramUserID: getEnvOrDefault("INSTAGRAM_USER_ID", ""),
		LinkedInAuthor:  getEnvOrDefault("LINKEDIN_AUTHOR_URN", ""),

		GoogleClientID:       getEnvOrDefault("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:   getEnvOrDefault("GOOGLE_CLIENT_SECRET", ""),
		FacebookClientID:     getEnvOrDefault("FACEBOOK_CLIENT_ID", ""),
		FacebookClientSecret: getEnvOrDefault("FACEBOOK_CLIENT_SECRET", ""),
		LinkedInClientID:     getEnvOrDefault("LINKEDIN_CLIENT_ID", ""),
		LinkedInClientSecret: getEnvOrDefault("LINKEDIN_CLIENT_SECRET", ""),

		YouTubeAPIKey: getEnvOrDefault("YOUTUBE_API_KEY", ""),
		GeminiAPIKey:  getEnvOrDefault("GEMINI_API_KEY", ""),

		SMTPHost: getEnvOrDefault("SMTP_HOST", ""),
		SMTPPort: getEnvOrDefault("SMTP_PORT", "587"),
		SMTPUser: getEnvOrDefault("SMTP_USER", ""),
		SMTPPass: getEnvOrDefault("SMTP_PASS", ""),
		SMTPFrom: getEnvOrDefault("SMTP_FROM", "noreply@crosspost.app"),

		FrontendURL: getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

// CadenceLocation resolves the configured timezone, falling back to UTC on a
// bad name so a typo does not take the service down.
func (c *Config) CadenceLocation() *time.Location {
	loc, err := time.LoadLocation(c.CadenceTimezone)
	if err != nil {
		log.Printf("⚠ Unknown timezone %q, using UTC", c.CadenceTimezone)
		return time.UTC
	}
	return loc
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
