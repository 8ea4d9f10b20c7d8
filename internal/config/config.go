package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// HTTP server
	Addr string

	// Resource paths
	DataDir     string
	CatalogPath string // optional; empty means the embedded default catalog

	// Storage
	StorageType string // "memory" or "sqlite"

	// Elasticsearch open-history archive (optional)
	ElasticEnabled bool
	ElasticURL     string

	// Draw authority
	DrawAuthority string // "local" or "remote"
	RemoteDrawURL string

	// Points policy
	PaidRewardPoints int64 // credited per paid open, to ALL and pack scopes
	FreeOpenCost     int64 // debited before a free open is attempted

	// Draw odds overrides
	OddsLegendary float64
	OddsUltra     float64
	OddsEpic      float64

	// Operation bounds
	RemoteDrawTimeout time.Duration
	SettleTimeout     time.Duration

	// Authentication
	AuthTokens  map[string]string // static bearer token -> user ID table
	AllowGuests bool

	// Environment
	Environment string // "development" or "production"
	LogLevel    string
}

// Load reads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Only return error if file exists but couldn't be loaded
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	cfg := &Config{
		Addr:              getEnvWithDefault("VAULTSPIN_ADDR", ":8080"),
		DataDir:           getEnvWithDefault("VAULTSPIN_DATA_DIR", filepath.Join(wd, "data")),
		CatalogPath:       os.Getenv("VAULTSPIN_CATALOG_PATH"),
		StorageType:       getEnvWithDefault("VAULTSPIN_STORAGE", "memory"),
		ElasticEnabled:    getEnvBool("VAULTSPIN_ES_ENABLED", false),
		ElasticURL:        getEnvWithDefault("VAULTSPIN_ES_URL", "http://localhost:9200"),
		DrawAuthority:     getEnvWithDefault("VAULTSPIN_DRAW_AUTHORITY", "local"),
		RemoteDrawURL:     os.Getenv("VAULTSPIN_REMOTE_DRAW_URL"),
		PaidRewardPoints:  getEnvInt64("VAULTSPIN_PAID_REWARD", 25),
		FreeOpenCost:      getEnvInt64("VAULTSPIN_FREE_COST", 2500),
		OddsLegendary:     getEnvFloat("VAULTSPIN_ODDS_LEGENDARY", 1.0/5000),
		OddsUltra:         getEnvFloat("VAULTSPIN_ODDS_ULTRA", 1.0/50),
		OddsEpic:          getEnvFloat("VAULTSPIN_ODDS_EPIC", 1.0/20),
		RemoteDrawTimeout: getEnvDuration("VAULTSPIN_REMOTE_DRAW_TIMEOUT", 10*time.Second),
		SettleTimeout:     getEnvDuration("VAULTSPIN_SETTLE_TIMEOUT", 15*time.Second),
		AuthTokens:        getEnvTokenMap("VAULTSPIN_AUTH_TOKENS"),
		AllowGuests:       getEnvBool("VAULTSPIN_ALLOW_GUESTS", true),
		Environment:       getEnvWithDefault("ENVIRONMENT", "development"),
		LogLevel:          getEnvWithDefault("VAULTSPIN_LOG_LEVEL", "INFO"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// validate checks if all required configuration is present and coherent
func (c *Config) validate() error {
	if c.StorageType != "memory" && c.StorageType != "sqlite" {
		return fmt.Errorf("VAULTSPIN_STORAGE must be \"memory\" or \"sqlite\", got %q", c.StorageType)
	}
	if c.DrawAuthority != "local" && c.DrawAuthority != "remote" {
		return fmt.Errorf("VAULTSPIN_DRAW_AUTHORITY must be \"local\" or \"remote\", got %q", c.DrawAuthority)
	}
	if c.DrawAuthority == "remote" && c.RemoteDrawURL == "" {
		return fmt.Errorf("VAULTSPIN_REMOTE_DRAW_URL is required when draw authority is remote")
	}
	if c.PaidRewardPoints <= 0 {
		return fmt.Errorf("VAULTSPIN_PAID_REWARD must be positive")
	}
	if c.FreeOpenCost <= 0 {
		return fmt.Errorf("VAULTSPIN_FREE_COST must be positive")
	}
	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// getEnvWithDefault returns environment variable value or default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// getEnvTokenMap parses a "token:user,token:user" list into a table.
// Malformed entries are skipped.
func getEnvTokenMap(key string) map[string]string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}

	tokens := make(map[string]string)
	for _, pair := range strings.Split(value, ",") {
		token, user, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok || token == "" || user == "" {
			continue
		}
		tokens[token] = user
	}
	return tokens
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
