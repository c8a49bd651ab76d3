package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"streameconomy/database"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL      string
	DatabaseName     string
	DatabaseMaxConns int32 // 0 keeps the driver default

	// Store operations are bounded by this timeout per use case
	StoreTimeout time.Duration

	// HTTP configuration
	HTTPAddr string

	// NATS configuration
	NATSServers string // NATS server addresses (comma-separated)

	// Redis configuration, empty RedisAddr selects the in-process fanout
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Economy configuration
	ChatPointIncrement int64
	RouletteStake      int64
	RouletteSectors    string // "coins:weight,coins:weight,..."
	GiftMaxQuantity    int64

	// Tier maintenance
	CascadeBatchSize      int
	TierReconcileSchedule string // cron spec, empty disables the sweep

	// OpenTelemetry configuration
	OTelEnabled              bool
	OTelServiceName          string
	OTelExporterType         string // "console", "otlp" or "none"
	OTelOTLPEndpoint         string
	OTelExportIntervalMillis int

	// Logging
	LogLevel string

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// UsesRedisFanout reports whether real-time events should go through Redis
func (c *Config) UsesRedisFanout() bool {
	return c.RedisAddr != ""
}

// load loads configuration from environment variables
func load() (*Config, error) {
	// A missing .env file is fine, the environment may already be populated
	_ = godotenv.Load()

	config := &Config{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		DatabaseName:     os.Getenv("DATABASE_NAME"),
		DatabaseMaxConns: int32(getEnvInt("DATABASE_MAX_CONNS", 0)),

		StoreTimeout: getEnvDuration("STORE_TIMEOUT", 5*time.Second),

		HTTPAddr: getEnvWithDefault("HTTP_ADDR", ":8080"),

		NATSServers: getEnvWithDefault("NATS_SERVERS", "nats://nats:4222"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       int(getEnvInt("REDIS_DB", 0)),

		ChatPointIncrement: getEnvInt("CHAT_POINT_INCREMENT", 1),
		RouletteStake:      getEnvInt("ROULETTE_STAKE", 100),
		RouletteSectors:    getEnvWithDefault("ROULETTE_SECTORS", DefaultRouletteSectors),
		GiftMaxQuantity:    getEnvInt("GIFT_MAX_QUANTITY", 999),

		CascadeBatchSize:      int(getEnvInt("CASCADE_BATCH_SIZE", 500)),
		TierReconcileSchedule: getEnvWithDefault("TIER_RECONCILE_SCHEDULE", "@every 15m"),

		OTelEnabled:              os.Getenv("OTEL_ENABLED") == "true",
		OTelServiceName:          getEnvWithDefault("OTEL_SERVICE_NAME", "streameconomy"),
		OTelExporterType:         getEnvWithDefault("OTEL_EXPORTER_TYPE", "console"),
		OTelOTLPEndpoint:         getEnvWithDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "otel-collector:4317"),
		OTelExportIntervalMillis: int(getEnvInt("OTEL_EXPORT_INTERVAL_MILLIS", 60000)),

		LogLevel: getEnvWithDefault("LOG_LEVEL", "info"),

		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.DatabaseName != "" && strings.TrimSpace(config.DatabaseName) == "" {
			return nil, fmt.Errorf("DATABASE_NAME cannot be empty when provided")
		}
	}

	if config.RouletteStake <= 0 {
		return nil, fmt.Errorf("ROULETTE_STAKE must be positive")
	}
	if config.ChatPointIncrement <= 0 {
		return nil, fmt.Errorf("CHAT_POINT_INCREMENT must be positive")
	}
	if config.GiftMaxQuantity <= 0 {
		return nil, fmt.Errorf("GIFT_MAX_QUANTITY must be positive")
	}
	if config.CascadeBatchSize <= 0 {
		return nil, fmt.Errorf("CASCADE_BATCH_SIZE must be positive")
	}

	return config, nil
}

// DefaultRouletteSectors is the sector table used when ROULETTE_SECTORS is unset.
// Smaller payouts carry heavier weights.
const DefaultRouletteSectors = "10:40,25:25,50:15,100:10,250:7,1000:3"

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
// This should only be called from test files
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
// This should only be called from test files
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:           "test",
		StoreTimeout:          5 * time.Second,
		HTTPAddr:              ":0",
		ChatPointIncrement:    1,
		RouletteStake:         100,
		RouletteSectors:       DefaultRouletteSectors,
		GiftMaxQuantity:       999,
		CascadeBatchSize:      500,
		TierReconcileSchedule: "",
		OTelExporterType:      "none",
		LogLevel:              "debug",
	}
}
