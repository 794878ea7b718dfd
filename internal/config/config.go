package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// account
	AccountCurrency string

	// trade reconstruction
	GroupingMethod string
	MatchingOrder  string
	LiveMode       bool
	MaxTradeCount  int
	MaxTradeAge    time.Duration

	// margin
	Leverage                  float64
	InitialMarginFraction     float64
	MaintenanceMarginFraction float64
	MarginCallBuffer          float64
	FillWaitTimeout           time.Duration

	// fee dedup
	FeeCacheCapacity int

	// settlement
	SettlementSweepSchedule string

	// infrastructure
	DatabasePath string
	LogLevel     string
	Port         int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		AccountCurrency: getEnv("ACCOUNT_CURRENCY", "USD"),

		GroupingMethod: getEnv("TRADE_GROUPING_METHOD", "FillToFill"),
		MatchingOrder:  getEnv("TRADE_MATCHING_ORDER", "FIFO"),
		LiveMode:       getEnvAsBool("LIVE_MODE", false),
		MaxTradeCount:  getEnvAsInt("MAX_TRADE_COUNT", 10000),
		MaxTradeAge:    getEnvAsDuration("MAX_TRADE_AGE", 365*24*time.Hour),

		Leverage:                  getEnvAsFloat("LEVERAGE", 0),
		InitialMarginFraction:     getEnvAsFloat("INITIAL_MARGIN_FRACTION", 0.5),
		MaintenanceMarginFraction: getEnvAsFloat("MAINTENANCE_MARGIN_FRACTION", 0.25),
		MarginCallBuffer:          getEnvAsFloat("MARGIN_CALL_BUFFER", 0.10),
		FillWaitTimeout:           getEnvAsDuration("FILL_WAIT_TIMEOUT", 5*time.Second),

		FeeCacheCapacity: getEnvAsInt("FEE_CACHE_CAPACITY", 1000),

		SettlementSweepSchedule: getEnv("SETTLEMENT_SWEEP_SCHEDULE", "@every 1m"),

		DatabasePath: getEnv("DATABASE_PATH", "./data/ledger.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		Port:         getEnvAsInt("PORT", 8001),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if len(c.AccountCurrency) != 3 {
		return fmt.Errorf("ACCOUNT_CURRENCY must be a 3-letter code, got %q", c.AccountCurrency)
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.MarginCallBuffer < 0 {
		return fmt.Errorf("MARGIN_CALL_BUFFER must not be negative")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if dur, err := time.ParseDuration(value); err == nil {
			return dur
		}
	}
	return defaultValue
}
