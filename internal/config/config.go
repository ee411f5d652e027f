package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
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

	// AWS S3 (closet item photos)
	AwsAccessKeyID     string
	AwsSecretAccessKey string
	AwsRegion          string
	AwsS3Bucket        string
	ImageBaseURL       string // Public base URL for stored objects
	ThumbMaxDimension  int

	// Anthropic (style AI proxy)
	AnthropicAPIKey  string
	AnthropicModel   string
	AnthropicBaseURL string
	AITimeout        time.Duration

	// Weather (Open-Meteo, no key required)
	WeatherBaseURL string
	WeatherTimeout time.Duration

	// Email notifications
	SmtpHost        string
	SmtpPort        int
	SmtpUsername    string
	SmtpPassword    string
	SmtpFromAddress string

	// App defaults
	AppName          string
	DiscoverLimit    int
	DiscoverCacheTTL time.Duration

	// Rate limiting defaults
	RateLimitBucketSize int
	RateLimitRefillRate int // tokens per second
}

// Load configuration from environment variables.
// RunMode needs to be passed in as it comes from command-line flags.
func Load(runMode string) (*Config, error) {
	// Load .env file, ignoring errors if it doesn't exist
	godotenv.Load()

	cfg := &Config{RunMode: runMode}

	getEnv := func(key, defaultValue string) string {
		if value, exists := os.LookupEnv(key); exists {
			return value
		}
		return defaultValue
	}

	getRequiredEnv := func(key string) (string, error) {
		value, exists := os.LookupEnv(key)
		if !exists {
			return "", fmt.Errorf("missing required environment variable: %s", key)
		}
		return value, nil
	}

	getEnvInt := func(key string, defaultValue int) int {
		if value, exists := os.LookupEnv(key); exists {
			if n, err := strconv.Atoi(value); err == nil {
				return n
			}
		}
		return defaultValue
	}

	getEnvDuration := func(key string, defaultValue time.Duration) time.Duration {
		if value, exists := os.LookupEnv(key); exists {
			if d, err := time.ParseDuration(value); err == nil {
				return d
			}
		}
		return defaultValue
	}

	var err error
	cfg.MongoURI, err = getRequiredEnv("MONGO_URI")
	if err != nil {
		return nil, err
	}
	cfg.MongoDbName = getEnv("MONGO_DB_NAME", "stylevault")
	cfg.RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.RedisDB = getEnvInt("REDIS_DB", 0)

	cfg.JwtSecret, err = getRequiredEnv("JWT_SECRET")
	if err != nil {
		return nil, err
	}
	cfg.JwtTTL = getEnvDuration("JWT_TTL", 7*24*time.Hour)

	cfg.ApiPort = getEnv("API_PORT", "8080")

	cfg.AwsAccessKeyID = getEnv("AWS_ACCESS_KEY_ID", "")
	cfg.AwsSecretAccessKey = getEnv("AWS_SECRET_ACCESS_KEY", "")
	cfg.AwsRegion = getEnv("AWS_REGION", "us-east-1")
	cfg.AwsS3Bucket = getEnv("AWS_S3_BUCKET", "")
	cfg.ImageBaseURL = getEnv("IMAGE_BASE_URL", "")
	cfg.ThumbMaxDimension = getEnvInt("THUMB_MAX_DIMENSION", 512)

	cfg.AnthropicAPIKey = getEnv("ANTHROPIC_API_KEY", "")
	cfg.AnthropicModel = getEnv("ANTHROPIC_MODEL", "claude-haiku-4-5-20251001")
	cfg.AnthropicBaseURL = getEnv("ANTHROPIC_BASE_URL", "https://api.anthropic.com")
	cfg.AITimeout = getEnvDuration("AI_TIMEOUT", 30*time.Second)

	cfg.WeatherBaseURL = getEnv("WEATHER_BASE_URL", "https://api.open-meteo.com")
	cfg.WeatherTimeout = getEnvDuration("WEATHER_TIMEOUT", 5*time.Second)

	cfg.SmtpHost = getEnv("SMTP_HOST", "")
	cfg.SmtpPort = getEnvInt("SMTP_PORT", 587)
	cfg.SmtpUsername = getEnv("SMTP_USERNAME", "")
	cfg.SmtpPassword = getEnv("SMTP_PASSWORD", "")
	cfg.SmtpFromAddress = getEnv("SMTP_FROM_ADDRESS", "noreply@stylevault.app")

	cfg.AppName = getEnv("APP_NAME", "StyleVault")
	cfg.DiscoverLimit = getEnvInt("DISCOVER_LIMIT", 60)
	cfg.DiscoverCacheTTL = getEnvDuration("DISCOVER_CACHE_TTL", 30*time.Second)

	cfg.RateLimitBucketSize = getEnvInt("RATE_LIMIT_BUCKET_SIZE", 30)
	cfg.RateLimitRefillRate = getEnvInt("RATE_LIMIT_REFILL_RATE", 10)

	return cfg, nil
}
