package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName     string
	AppEnv      string
	Port        string
	ContentPath string

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Security
	JWTSecret string
	JWTExpiry time.Duration

	// Engine rules
	SupporterBonusRate float64 // Share of total staked coins paid out as supporter bonus on completion
	MaxSupportCoins    int64   // Hard per-transaction cap for a single support stake
	MaxConflictRetries uint64  // Optimistic update attempts before a conflict is surfaced

	// Settlement
	SettleRetryBase    time.Duration
	SettleRetryMax     time.Duration
	SettleRetryTimeout time.Duration

	// Workers
	SweepInterval  time.Duration
	SettleInterval time.Duration

	// Health score advisory copy (optional YAML file)
	HealthCopyPath string

	// Observability (optional)
	SentryDSN string

	// Receipt archive (S3-compatible, optional: receipts are logged when S3_BUCKET is empty)
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3Endpoint  string // Optional: for S3-compatible services (MinIO, R2, etc.)
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName:     envString("APP_NAME", "Gameia"),
		AppEnv:      envRequired("APP_ENV"), // Required: 'development' or 'production'
		Port:        envString("PORT", "8090"),
		ContentPath: envString("CONTENT_PATH", "content"),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/gameia.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"),

		// Security
		JWTSecret: envRequired("JWT_SECRET"),
		JWTExpiry: envDuration("JWT_EXPIRY", 24*time.Hour),

		// Engine rules
		SupporterBonusRate: envFloat("SUPPORTER_BONUS_RATE", 0.2),
		MaxSupportCoins:    int64(envInt("MAX_SUPPORT_COINS", 500)),
		MaxConflictRetries: uint64(envInt("MAX_CONFLICT_RETRIES", 5)),

		// Settlement
		SettleRetryBase:    envDuration("SETTLE_RETRY_BASE", 200*time.Millisecond),
		SettleRetryMax:     envDuration("SETTLE_RETRY_MAX", 30*time.Second),
		SettleRetryTimeout: envDuration("SETTLE_RETRY_TIMEOUT", 5*time.Minute),

		// Workers
		SweepInterval:  envDuration("SWEEP_INTERVAL", time.Minute),
		SettleInterval: envDuration("SETTLE_INTERVAL", 2*time.Minute),

		HealthCopyPath: envString("HEALTH_COPY_PATH", ""),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),

		// Receipt archive
		S3Region:    envString("S3_REGION", "us-east-1"),
		S3Bucket:    envString("S3_BUCKET", ""),
		S3AccessKey: envString("S3_ACCESS_KEY", ""),
		S3SecretKey: envString("S3_SECRET_KEY", ""),
		S3Endpoint:  envString("S3_ENDPOINT", ""),
	}

	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction ensures settings that are only relaxed for local testing are set.
func validateProduction(cfg *Config) {
	if cfg.DBDriver == "sqlite" {
		slog.Warn("production deployment is using sqlite",
			"hint", "set DB_DRIVER=pgx and DB_CONNECTION to a postgres URL")
	}
	if cfg.S3Bucket == "" {
		slog.Error("production deployment requires S3_BUCKET for settlement receipts")
		os.Exit(1)
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil || i < 0 {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return i
}

func envFloat(key string, def float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		slog.Warn("config invalid float, using default", "key", key, "value", v, "default", def)
		return def
	}
	return f
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// ReceiptArchiveEnabled reports whether settlement receipts go to object storage.
func (c *Config) ReceiptArchiveEnabled() bool {
	return c.S3Bucket != "" && !envBool("DISABLE_RECEIPT_ARCHIVE", false)
}
