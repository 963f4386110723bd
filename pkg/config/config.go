package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration
type Config struct {
	Environment            string
	DBPath                 string
	LogLevel               string
	BcryptCost             int
	LowStockThreshold      int64
	LoginAttemptsPerMinute int
	RememberMeTTL          time.Duration
	TokenSecret            string
	PurgeInterval          time.Duration
	PurgeRetention         time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	bcryptCost, err := strconv.Atoi(getEnv("BCRYPT_COST", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
	}

	lowStock, err := strconv.ParseInt(getEnv("LOW_STOCK_THRESHOLD", "5"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid LOW_STOCK_THRESHOLD: %w", err)
	}

	loginAttempts, err := strconv.Atoi(getEnv("LOGIN_ATTEMPTS_PER_MINUTE", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOGIN_ATTEMPTS_PER_MINUTE: %w", err)
	}

	rememberTTL, err := strconv.Atoi(getEnv("REMEMBER_ME_TTL_MINUTES", "43200")) // 30 days
	if err != nil {
		return nil, fmt.Errorf("invalid REMEMBER_ME_TTL_MINUTES: %w", err)
	}

	purgeInterval, err := strconv.Atoi(getEnv("PURGE_INTERVAL_MINUTES", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid PURGE_INTERVAL_MINUTES: %w", err)
	}

	purgeRetention, err := strconv.Atoi(getEnv("PURGE_RETENTION_DAYS", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid PURGE_RETENTION_DAYS: %w", err)
	}

	return &Config{
		Environment:            getEnv("ENVIRONMENT", "development"),
		DBPath:                 getEnv("STOCKROOM_DB_PATH", "product-crud.db"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		BcryptCost:             bcryptCost,
		LowStockThreshold:      lowStock,
		LoginAttemptsPerMinute: loginAttempts,
		RememberMeTTL:          time.Duration(rememberTTL) * time.Minute,
		TokenSecret:            getEnv("STOCKROOM_TOKEN_SECRET", ""),
		PurgeInterval:          time.Duration(purgeInterval) * time.Minute,
		PurgeRetention:         time.Duration(purgeRetention) * 24 * time.Hour,
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
