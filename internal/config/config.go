package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port          string
	Env           string
	SessionSecret string
	AllowedHosts  []string

	Backend BackendConfig
	Session SessionConfig
	DB      DatabaseConfig
	Redis   RedisConfig
	Storage StorageConfig
	AWS     AWSConfig
	Kafka   KafkaConfig
	Worker  WorkerConfig
	Draft   DraftConfig
}

// BackendConfig points at the storefront REST backend that owns products,
// carts and authentication.
type BackendConfig struct {
	BaseURL       string
	SessionCookie string // name of the backend's auth cookie forwarded on every call
	ServiceToken  string // credential for background calls made outside any user session
	Timeout       time.Duration
}

// SessionConfig controls the BFF's own signed session cookie.
type SessionConfig struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// Enabled reports whether the submission journal database is configured.
func (c DatabaseConfig) Enabled() bool {
	return c.Host != "" && c.User != "" && c.Name != ""
}

// RedisConfig contains Redis connection parameters.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// StorageConfig selects where staged draft images live.
type StorageConfig struct {
	Driver        string // "local" or "s3"
	LocalDir      string
	S3Region      string
	S3Bucket      string
	S3Prefix      string
	MaxImageBytes int64
}

// AWSConfig contains AWS configuration for optional image moderation.
type AWSConfig struct {
	RekognitionRegion string
	ModerationEnabled bool
	MinConfidence     float64
}

// KafkaConfig contains broker addresses for storefront events.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// WorkerConfig contains interval configuration for background workers.
type WorkerConfig struct {
	ReferenceSyncInterval time.Duration
	ImageSweepInterval    time.Duration
	ImageSweepGrace       time.Duration // staged images younger than this are never swept
}

// DraftConfig bounds the lifetime of server-side drafts and caches.
type DraftConfig struct {
	TTL          time.Duration
	SubmitLock   time.Duration
	ReferenceTTL time.Duration
	CartCountTTL time.Duration
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first.
func Load() (*Config, error) {
	// Missing .env is fine; production sets real environment variables.
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")
	cfg.SessionSecret = getEnv("SESSION_SECRET", "")
	cfg.AllowedHosts = splitList(getEnv("CORS_ALLOWED_HOSTS", "localhost:3000,127.0.0.1:3000"))

	// Backend
	cfg.Backend = BackendConfig{
		BaseURL:       strings.TrimRight(getEnv("BACKEND_BASE_URL", "http://localhost:8000"), "/"),
		SessionCookie: getEnv("BACKEND_SESSION_COOKIE", "token"),
		ServiceToken:  getEnv("BACKEND_SERVICE_TOKEN", ""),
	}

	cfg.Session = SessionConfig{
		CookieName: getEnv("SESSION_COOKIE", "sf_session"),
		Secure:     cfg.Env == "production",
	}

	// Database (optional: journal is disabled without it)
	cfg.DB = DatabaseConfig{
		Host:     getEnv("DB_HOST", ""),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Redis
	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", ""),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	// Image staging
	cfg.Storage = StorageConfig{
		Driver:        getEnv("STORAGE_DRIVER", "local"),
		LocalDir:      getEnv("LOCAL_UPLOAD_DIR", "./storage/drafts"),
		S3Region:      getEnv("S3_REGION", ""),
		S3Bucket:      getEnv("S3_BUCKET", ""),
		S3Prefix:      getEnv("S3_PREFIX", "drafts"),
		MaxImageBytes: int64(getEnvInt("MAX_IMAGE_BYTES", 5<<20)),
	}

	// AWS Rekognition moderation
	cfg.AWS = AWSConfig{
		RekognitionRegion: getEnv("AWS_REKOGNITION_REGION", "ap-southeast-1"),
		ModerationEnabled: getEnv("IMAGE_MODERATION", "false") == "true",
		MinConfidence:     float64(getEnvInt("IMAGE_MODERATION_MIN_CONFIDENCE", 80)),
	}

	// Kafka (optional)
	cfg.Kafka = KafkaConfig{
		Brokers: splitList(getEnv("KAFKA_BROKERS", "")),
		Topic:   getEnv("KAFKA_TOPIC", "storefront.events"),
	}

	// Durations
	var err error
	if cfg.Backend.Timeout, err = parseDurationEnv("BACKEND_TIMEOUT", "30s"); err != nil {
		return nil, fmt.Errorf("invalid BACKEND_TIMEOUT: %w", err)
	}
	if cfg.Session.TTL, err = parseDurationEnv("SESSION_TTL", "168h"); err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}
	if cfg.Worker.ReferenceSyncInterval, err = parseDurationEnv("REFERENCE_SYNC_INTERVAL", "5m"); err != nil {
		return nil, fmt.Errorf("invalid REFERENCE_SYNC_INTERVAL: %w", err)
	}
	if cfg.Worker.ImageSweepInterval, err = parseDurationEnv("IMAGE_SWEEP_INTERVAL", "1h"); err != nil {
		return nil, fmt.Errorf("invalid IMAGE_SWEEP_INTERVAL: %w", err)
	}
	if cfg.Worker.ImageSweepGrace, err = parseDurationEnv("IMAGE_SWEEP_GRACE", "15m"); err != nil {
		return nil, fmt.Errorf("invalid IMAGE_SWEEP_GRACE: %w", err)
	}
	if cfg.Draft.TTL, err = parseDurationEnv("DRAFT_TTL", "24h"); err != nil {
		return nil, fmt.Errorf("invalid DRAFT_TTL: %w", err)
	}
	if cfg.Draft.SubmitLock, err = parseDurationEnv("SUBMIT_LOCK_TTL", "30s"); err != nil {
		return nil, fmt.Errorf("invalid SUBMIT_LOCK_TTL: %w", err)
	}
	if cfg.Draft.ReferenceTTL, err = parseDurationEnv("REFERENCE_CACHE_TTL", "10m"); err != nil {
		return nil, fmt.Errorf("invalid REFERENCE_CACHE_TTL: %w", err)
	}
	if cfg.Draft.CartCountTTL, err = parseDurationEnv("CART_COUNT_TTL", "10m"); err != nil {
		return nil, fmt.Errorf("invalid CART_COUNT_TTL: %w", err)
	}

	if cfg.SessionSecret == "" {
		return nil, errors.New("SESSION_SECRET must be set for session signing")
	}
	if cfg.Storage.Driver == "s3" && (cfg.Storage.S3Region == "" || cfg.Storage.S3Bucket == "") {
		return nil, errors.New("S3 storage configuration incomplete: ensure S3_REGION and S3_BUCKET are set")
	}
	if cfg.Storage.Driver != "s3" && cfg.Storage.Driver != "local" {
		return nil, fmt.Errorf("unknown STORAGE_DRIVER: %s", cfg.Storage.Driver)
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
