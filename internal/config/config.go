// Package config provides centralized configuration loaded from environment
// variables. Shared by cmd/server and cmd/pushctl.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Fallback location — central Jakarta, used when a subscriber sends no
// coordinates. Matches the coordinates the web client falls back to.
// --------------------------------------------------------------------------

const (
	FallbackLat = -6.2088
	FallbackLng = 106.8456
)

// --------------------------------------------------------------------------
// Config struct — populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// HTTP server
	Host        string
	Port        int
	Environment string // development, staging, production

	// Storage
	DataFile    string // subscriptions JSON document
	DatabaseURL string // optional; Postgres store when set

	// VAPID
	VAPIDKeysFile string
	VAPIDSubject  string

	// Prayer times API
	AladhanBaseURL string
	AladhanMethod  int // calculation method (20 = KEMENAG Indonesia)
	AladhanRPM     int // request budget per minute

	// Dispatch loop
	DispatchInterval time.Duration

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	return &Config{
		Host:        envOr("HOST", "0.0.0.0"),
		Port:        envInt("PORT", 3005),
		Environment: envOr("ENVIRONMENT", "development"),

		DataFile:    envOr("DATA_FILE", "subscriptions.json"),
		DatabaseURL: envOr("DATABASE_URL", ""),

		VAPIDKeysFile: envOr("VAPID_KEYS_FILE", "vapid-keys.json"),
		VAPIDSubject:  envOr("VAPID_SUBJECT", "mailto:ajek@sholatku.app"),

		AladhanBaseURL: envOr("ALADHAN_BASE_URL", "https://api.aladhan.com"),
		AladhanMethod:  envInt("ALADHAN_METHOD", 20),
		AladhanRPM:     envInt("ALADHAN_RPM", 60),

		DispatchInterval: time.Duration(envInt("DISPATCH_INTERVAL_SECONDS", 30)) * time.Second,

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{"*"}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,
	}, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
