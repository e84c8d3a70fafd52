package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool
	JWTSecret     string

	// Scheduler tunables
	ReminderHorizonDays  int
	DueSoonThresholdDays int
	SchedulerLockTTL     time.Duration

	// Late fee policy applied when a cheque bounces
	LateFeePolicyType  string
	LateFeePolicyValue decimal.Decimal

	// External services
	LedgerBaseURL        string
	NotificationBaseURL  string
	ExternalCallTimeout  time.Duration
	NotifyRetryAttempts  int
	NotifyRetryBackoff   time.Duration

	// Cache / run-lock backend: "memory" or "redis"
	CacheBackend string
	RedisURL     string
	CacheTTL     time.Duration
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("REMINDER_HORIZON_DAYS", 7)
	viper.SetDefault("DUE_SOON_THRESHOLD_DAYS", 3)
	viper.SetDefault("SCHEDULER_LOCK_TTL", "10m")
	viper.SetDefault("LATE_FEE_POLICY_TYPE", "PERCENT")
	viper.SetDefault("LATE_FEE_POLICY_VALUE", "5")
	viper.SetDefault("LEDGER_BASE_URL", "http://localhost:8081")
	viper.SetDefault("NOTIFICATION_BASE_URL", "http://localhost:8082")
	viper.SetDefault("EXTERNAL_CALL_TIMEOUT", "10s")
	viper.SetDefault("NOTIFY_RETRY_ATTEMPTS", 3)
	viper.SetDefault("NOTIFY_RETRY_BACKOFF", "2s")
	viper.SetDefault("CACHE_BACKEND", "memory")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("CACHE_TTL", "5m")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	cfg.ReminderHorizonDays = viper.GetInt("REMINDER_HORIZON_DAYS")
	if cfg.ReminderHorizonDays <= 0 {
		log.Printf("Warning: Invalid REMINDER_HORIZON_DAYS (%d). Defaulting to 7.\n", cfg.ReminderHorizonDays)
		cfg.ReminderHorizonDays = 7
	}
	cfg.DueSoonThresholdDays = viper.GetInt("DUE_SOON_THRESHOLD_DAYS")
	if cfg.DueSoonThresholdDays <= 0 {
		log.Printf("Warning: Invalid DUE_SOON_THRESHOLD_DAYS (%d). Defaulting to 3.\n", cfg.DueSoonThresholdDays)
		cfg.DueSoonThresholdDays = 3
	}
	cfg.SchedulerLockTTL = parseDurationOrDefault("SCHEDULER_LOCK_TTL", 10*time.Minute)

	cfg.LateFeePolicyType = viper.GetString("LATE_FEE_POLICY_TYPE")
	if cfg.LateFeePolicyType != "FLAT" && cfg.LateFeePolicyType != "PERCENT" {
		log.Printf("Warning: Invalid LATE_FEE_POLICY_TYPE ('%s'). Defaulting to PERCENT.\n", cfg.LateFeePolicyType)
		cfg.LateFeePolicyType = "PERCENT"
	}
	feeValue, err := decimal.NewFromString(viper.GetString("LATE_FEE_POLICY_VALUE"))
	if err != nil || feeValue.IsNegative() {
		log.Printf("Warning: Invalid LATE_FEE_POLICY_VALUE ('%s'). Defaulting to 5.\n", viper.GetString("LATE_FEE_POLICY_VALUE"))
		feeValue = decimal.NewFromInt(5)
	}
	cfg.LateFeePolicyValue = feeValue

	cfg.LedgerBaseURL = viper.GetString("LEDGER_BASE_URL")
	cfg.NotificationBaseURL = viper.GetString("NOTIFICATION_BASE_URL")
	cfg.ExternalCallTimeout = parseDurationOrDefault("EXTERNAL_CALL_TIMEOUT", 10*time.Second)
	cfg.NotifyRetryAttempts = viper.GetInt("NOTIFY_RETRY_ATTEMPTS")
	cfg.NotifyRetryBackoff = parseDurationOrDefault("NOTIFY_RETRY_BACKOFF", 2*time.Second)

	cfg.CacheBackend = viper.GetString("CACHE_BACKEND")
	cfg.RedisURL = viper.GetString("REDIS_URL")
	cfg.CacheTTL = parseDurationOrDefault("CACHE_TTL", 5*time.Minute)
	if cfg.CacheBackend == "redis" && cfg.RedisURL == "" {
		log.Println("Warning: CACHE_BACKEND is redis but REDIS_URL is not set. Falling back to memory backend.")
		cfg.CacheBackend = "memory"
	}

	return cfg, nil
}

func parseDurationOrDefault(key string, fallback time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, fallback)
		return fallback
	}
	return d
}
