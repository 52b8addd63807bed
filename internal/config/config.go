package config

import (
	"fmt"
	"github.com/joho/godotenv"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	// Environment
	RunMode string // Set via flag, not env

	// MongoDB
	MongoURI    string
	MongoDbName string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// JWT
	JwtSecret string
	JwtTTL    time.Duration

	// Server
	ApiPort string

	// External Inquiry Source
	ExternalInquiryURL    string
	ExternalInquiryAPIKey string
	ExternalInquiryBearer string
	ExternalFetchTimeout  time.Duration // per-response timeout
	ExternalTotalTimeout  time.Duration // overall budget including retries
	ExternalFetchRetries  int

	// Outbound webhook
	WebhookURL           string
	WebhookSecret        string
	WebhookForwardAPIKey string

	// AWS S3 (optional invoice archive)
	AwsAccessKeyID     string
	AwsSecretAccessKey string
	AwsRegion          string
	InvoiceS3Bucket    string

	// Invoicing
	InvoiceTaxRate float64

	// Migration (run mode "migrate")
	MigrateSourceURI   string
	MigrateTargetURI   string
	MigrateDbName      string
	MigrateCollections string // comma-separated; empty means the default set

	// App Defaults
	AppName string

	// Rate Limiting Defaults
	RateLimitBucketSize int
	RateLimitRefillRate int // tokens per second
}

// Load configuration from environment variables.
// RunMode needs to be passed in as it comes from command-line flags.
func Load(runMode string) (*Config, error) {
	// Load .env file, ignoring errors if it doesn't exist
	godotenv.Load()

	cfg := &Config{
		RunMode: runMode, // Set from flag
	}

	var err error

	// Helper function to get env var or default
	getEnv := func(key, defaultValue string) string {
		if value, exists := os.LookupEnv(key); exists {
			return value
		}
		return defaultValue
	}

	// Helper function to get required env var
	getRequiredEnv := func(key string) (string, error) {
		value, exists := os.LookupEnv(key)
		if !exists {
			return "", fmt.Errorf("missing required environment variable: %s", key)
		}
		return value, nil
	}

	cfg.MongoURI, err = getRequiredEnv("MONGO_URI")
	if err != nil {
		return nil, err
	}
	cfg.MongoDbName = getEnv("MONGO_DB_NAME", "")
	cfg.RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.JwtSecret, err = getRequiredEnv("JWT_SECRET")
	if err != nil {
		return nil, err
	}
	cfg.ApiPort = getEnv("API_PORT", "8080")

	cfg.ExternalInquiryURL = getEnv("EXTERNAL_INQUIRY_URL", "")
	cfg.ExternalInquiryAPIKey = getEnv("EXTERNAL_INQUIRY_API_KEY", "")
	cfg.ExternalInquiryBearer = getEnv("EXTERNAL_INQUIRY_BEARER_TOKEN", "")

	cfg.WebhookURL = getEnv("WEBHOOK_URL", "")
	cfg.WebhookSecret = getEnv("WEBHOOK_SECRET", "")
	cfg.WebhookForwardAPIKey = getEnv("WEBHOOK_FORWARD_API_KEY", "")

	cfg.AwsAccessKeyID = getEnv("AWS_ACCESS_KEY_ID", "")
	cfg.AwsSecretAccessKey = getEnv("AWS_SECRET_ACCESS_KEY", "")
	cfg.AwsRegion = getEnv("AWS_REGION", "")
	cfg.InvoiceS3Bucket = getEnv("INVOICE_S3_BUCKET", "")

	cfg.MigrateSourceURI = getEnv("MIGRATE_SOURCE_URI", "")
	cfg.MigrateTargetURI = getEnv("MIGRATE_TARGET_URI", "")
	cfg.MigrateDbName = getEnv("MIGRATE_DB_NAME", cfg.MongoDbName)
	cfg.MigrateCollections = getEnv("MIGRATE_COLLECTIONS", "")

	cfg.AppName = getEnv("APP_NAME", "Mustafa Travel")

	// Load numeric and time duration values with defaults and parsing
	cfg.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	jwtTTLSeconds, err := strconv.ParseInt(getEnv("JWT_TTL_SECONDS", "86400"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL_SECONDS: %w", err)
	}
	cfg.JwtTTL = time.Duration(jwtTTLSeconds) * time.Second

	fetchTimeoutSeconds, err := strconv.ParseInt(getEnv("EXTERNAL_FETCH_TIMEOUT_SECONDS", "10"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid EXTERNAL_FETCH_TIMEOUT_SECONDS: %w", err)
	}
	cfg.ExternalFetchTimeout = time.Duration(fetchTimeoutSeconds) * time.Second

	totalTimeoutSeconds, err := strconv.ParseInt(getEnv("EXTERNAL_TOTAL_TIMEOUT_SECONDS", "15"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid EXTERNAL_TOTAL_TIMEOUT_SECONDS: %w", err)
	}
	cfg.ExternalTotalTimeout = time.Duration(totalTimeoutSeconds) * time.Second

	cfg.ExternalFetchRetries, err = strconv.Atoi(getEnv("EXTERNAL_FETCH_RETRIES", "2"))
	if err != nil {
		return nil, fmt.Errorf("invalid EXTERNAL_FETCH_RETRIES: %w", err)
	}

	cfg.InvoiceTaxRate, err = strconv.ParseFloat(getEnv("INVOICE_TAX_RATE", "0"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid INVOICE_TAX_RATE: %w", err)
	}

	// Rate Limiting
	cfg.RateLimitBucketSize, err = strconv.Atoi(getEnv("RATE_LIMIT_BUCKET_SIZE", "8"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BUCKET_SIZE: %w", err)
	}
	cfg.RateLimitRefillRate, err = strconv.Atoi(getEnv("RATE_LIMIT_REFILL_RATE", "4"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_REFILL_RATE: %w", err)
	}

	return cfg, nil
}
