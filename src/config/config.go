package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application.
// The values are loaded from environment variables.
type AppConfig struct {
	// Core settings
	Port         string
	DatabasePath string
	LogLevel     string

	// Security settings
	JWTSecret             string
	AccessTokenExpiry     time.Duration
	DashboardUser         string
	DashboardPasswordHash string

	// Broker API settings
	BrokerBaseURL      string
	MarketDataBaseURL  string
	BrokerTokenPath    string
	BrokerHTTPTimeout  time.Duration
	BrokerAccountIndex int

	// Option reconciliation settings
	CommissionPerShare  float64
	WindowLookbackDays  int
	WindowLookaheadDays int
	ExpirationKeyword   string
	AssignmentKeyword   string
	RealizedFilterMode  string // "pre" or "post": drop assignment legs before or after matching

	// Frontend URL for reference (e.g., CORS)
	FrontendBaseURL string
}

// Cfg is a global instance of the AppConfig.
var Cfg *AppConfig

// LoadConfig loads configuration from environment variables or a .env file.
// It centralizes all configuration logic for the application.
func LoadConfig() {
	// 1. Try loading from the current directory (standard behavior)
	errEnv := godotenv.Load()

	// 2. If not found, try loading from the parent directory (common when running from /backend)
	if errEnv != nil {
		errEnv = godotenv.Load("../.env")
	}

	if errEnv != nil {
		if os.IsNotExist(errEnv) {
			log.Println("Info: No .env file found in current or parent directory. Relying on OS environment variables (expected in production).")
		} else {
			log.Printf("Warning: Error loading .env file: %v. Relying on OS environment variables.", errEnv)
		}
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	// --- Security (Secrets) ---
	jwtSecret := getRequiredEnv("JWT_SECRET")
	dashboardPasswordHash := getRequiredEnv("DASHBOARD_PASSWORD_HASH")

	// --- Matching policy ---
	realizedFilterMode := strings.ToLower(getEnv("REALIZED_FILTER_MODE", "pre"))
	if realizedFilterMode != "pre" && realizedFilterMode != "post" {
		log.Printf("WARNING: Invalid REALIZED_FILTER_MODE '%s'. Using 'pre'.", realizedFilterMode)
		realizedFilterMode = "pre"
	}

	// --- Populate the Global Config Struct ---
	Cfg = &AppConfig{
		// Core
		Port:         getEnv("PORT", "8080"),
		DatabasePath: getEnv("DATABASE_PATH", "./optionvisor.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		// Security
		JWTSecret:             jwtSecret,
		AccessTokenExpiry:     getEnvAsDuration("ACCESS_TOKEN_EXPIRY", 12*time.Hour),
		DashboardUser:         getEnv("DASHBOARD_USER", "owner"),
		DashboardPasswordHash: dashboardPasswordHash,

		// Broker API
		BrokerBaseURL:      getEnv("BROKER_BASE_URL", "https://api.schwabapi.com/trader/v1"),
		MarketDataBaseURL:  getEnv("MARKET_DATA_BASE_URL", "https://api.schwabapi.com/marketdata/v1"),
		BrokerTokenPath:    getEnv("BROKER_TOKEN_PATH", "token.json"),
		BrokerHTTPTimeout:  getEnvAsDuration("BROKER_HTTP_TIMEOUT", 20*time.Second),
		BrokerAccountIndex: getEnvAsInt("BROKER_ACCOUNT_INDEX", 0),

		// Option reconciliation
		CommissionPerShare:  getEnvAsFloat("COMMISSION_PER_SHARE", 0.0065),
		WindowLookbackDays:  getEnvAsInt("WINDOW_LOOKBACK_DAYS", 30),
		WindowLookaheadDays: getEnvAsInt("WINDOW_LOOKAHEAD_DAYS", 5),
		ExpirationKeyword:   getEnv("EXPIRATION_KEYWORD", "Expiration"),
		AssignmentKeyword:   getEnv("ASSIGNMENT_KEYWORD", "Assignment"),
		RealizedFilterMode:  realizedFilterMode,

		// URLs
		FrontendBaseURL: getEnv("APP_BASE_URL", "http://localhost:3000"),
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, BrokerURL=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.BrokerBaseURL)
}

// getEnv retrieves an environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

// getRequiredEnv retrieves an environment variable or terminates the application if not set.
func getRequiredEnv(key string) string {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		log.Fatalf("FATAL: Required environment variable %s is not set or is empty. Application cannot start securely.", key)
	}
	return value
}

// getEnvAsInt retrieves an environment variable as an integer or returns a fallback.
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

// getEnvAsFloat retrieves an environment variable as a float64 or returns a fallback.
func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	log.Printf("Invalid float value for %s ('%s'), using default: %g", key, valueStr, fallback)
	return fallback
}

// getEnvAsDuration retrieves an environment variable as a time.Duration or returns a fallback.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
