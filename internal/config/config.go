// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes settings for the HTTP
// server, persistence, the image synthesis client, payments, artifact storage,
// the generation queue and observability.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Artifact storage backends.
const (
	ArtifactLocal = "local"
	ArtifactGCS   = "gcs"
	ArtifactS3    = "s3"
)

// Queue backends.
const (
	QueueMemory = "memory"
	QueueRedis  = "redis"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "pet-calendar-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// OpenAIConfig configures the image synthesis client.
type OpenAIConfig struct {
	APIKey    string        // OPENAI_API_KEY
	BaseURL   string        // OPENAI_BASE_URL
	Model     string        // OPENAI_IMAGE_MODEL
	ImageSize string        // OPENAI_IMAGE_SIZE, square only
	Timeout   time.Duration // per request
}

// StripeConfig configures the payment collaborator. Payments are enabled
// exactly when SecretKey is set.
type StripeConfig struct {
	SecretKey      string
	PublishableKey string
	WebhookSecret  string
	PriceCents     int64
	Currency       string
}

// Enabled reports whether checkout can be offered.
func (s StripeConfig) Enabled() bool { return strings.TrimSpace(s.SecretKey) != "" }

// ArtifactConfig selects and configures where generated images are written.
type ArtifactConfig struct {
	Backend   string // local|gcs|s3
	Dir       string // local root, served at /generated
	PublicURL string // URL prefix for object-store references

	GCSBucket          string
	GCSCredentialsFile string

	S3Bucket          string
	S3Region          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Endpoint        string
}

// QueueConfig configures the generation queue and its worker pool.
type QueueConfig struct {
	Backend       string // memory|redis
	Buffer        int    // memory queue capacity
	RedisAddr     string
	RedisPassword string
	RedisKey      string
	Workers       int
}

// SMTPConfig configures purchase receipt mail. Disabled when Host is empty.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Enabled reports whether receipts should be sent.
func (s SMTPConfig) Enabled() bool { return strings.TrimSpace(s.Host) != "" }

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 60s
	IdleTimeout       time.Duration // e.g. 60s
	ShutdownTimeout   time.Duration // graceful drain
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Persistence
	DatabaseURL string // Postgres DSN; SQLite is used when empty
	DBPath      string // SQLite path

	// App
	PublicBaseURL  string // used to build checkout redirect links
	MaxUploadBytes int64  // photo upload limit

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Collaborators
	OpenAI    OpenAIConfig
	Stripe    StripeConfig
	Artifacts ArtifactConfig
	Queue     QueueConfig
	SMTP      SMTPConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:   getdur("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api")),

		// Persistence
		DatabaseURL: getenv("DATABASE_URL", ""),
		DBPath:      getenv("DB_PATH", "data/app.db"),

		// App
		PublicBaseURL:  strings.TrimRight(getenv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		MaxUploadBytes: int64(getint("MAX_UPLOAD_BYTES", 10<<20)),

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 10.0),
		RateBurst: getint("RATE_BURST", 20),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		OpenAI: OpenAIConfig{
			APIKey:    getenv("OPENAI_API_KEY", ""),
			BaseURL:   strings.TrimRight(getenv("OPENAI_BASE_URL", "https://api.openai.com"), "/"),
			Model:     getenv("OPENAI_IMAGE_MODEL", "gpt-image-1"),
			ImageSize: getenv("OPENAI_IMAGE_SIZE", "1024x1024"),
			Timeout:   getdur("OPENAI_TIMEOUT", 180*time.Second),
		},
		Stripe: StripeConfig{
			SecretKey:      getenv("STRIPE_SECRET_KEY", ""),
			PublishableKey: getenv("STRIPE_PUBLISHABLE_KEY", ""),
			WebhookSecret:  getenv("STRIPE_WEBHOOK_SECRET", ""),
			PriceCents:     int64(getint("CALENDAR_PRICE_CENTS", 2999)),
			Currency:       strings.ToLower(getenv("CALENDAR_CURRENCY", "usd")),
		},
		Artifacts: ArtifactConfig{
			Backend:            strings.ToLower(getenv("ARTIFACT_BACKEND", ArtifactLocal)),
			Dir:                getenv("ARTIFACT_DIR", "data/generated"),
			PublicURL:          strings.TrimRight(getenv("ARTIFACT_PUBLIC_URL", ""), "/"),
			GCSBucket:          getenv("GCS_BUCKET", ""),
			GCSCredentialsFile: getenv("GCS_CREDENTIALS_FILE", ""),
			S3Bucket:           getenv("S3_BUCKET", ""),
			S3Region:           getenv("S3_REGION", "us-east-1"),
			S3AccessKeyID:      getenv("S3_ACCESS_KEY_ID", ""),
			S3SecretAccessKey:  getenv("S3_SECRET_ACCESS_KEY", ""),
			S3Endpoint:         getenv("S3_ENDPOINT", ""),
		},
		Queue: QueueConfig{
			Backend:       strings.ToLower(getenv("QUEUE_BACKEND", QueueMemory)),
			Buffer:        getint("QUEUE_BUFFER", 64),
			RedisAddr:     getenv("REDIS_ADDR", ""),
			RedisPassword: getenv("REDIS_PASSWORD", ""),
			RedisKey:      getenv("REDIS_QUEUE_KEY", "calendar:generation"),
			Workers:       getint("WORKER_CONCURRENCY", 2),
		},
		SMTP: SMTPConfig{
			Host:     getenv("SMTP_HOST", ""),
			Port:     getint("SMTP_PORT", 587),
			Username: getenv("SMTP_USERNAME", ""),
			Password: getenv("SMTP_PASSWORD", ""),
			From:     getenv("SMTP_FROM", "no-reply@localhost"),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "pet-calendar-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (cfg Config) validate() error {
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 || cfg.ShutdownTimeout <= 0 {
		return errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" && strings.TrimSpace(cfg.DBPath) == "" {
		return errors.New("DB_PATH must not be empty when DATABASE_URL is unset")
	}
	if cfg.MaxUploadBytes <= 0 {
		return errors.New("MAX_UPLOAD_BYTES must be > 0")
	}
	if cfg.RateRPS < 0 {
		return errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OpenAI.Timeout <= 0 {
		return errors.New("OPENAI_TIMEOUT must be > 0")
	}
	if w, h, ok := strings.Cut(cfg.OpenAI.ImageSize, "x"); !ok || w != h {
		return errors.New("OPENAI_IMAGE_SIZE must be square, e.g. 1024x1024")
	}
	if cfg.Stripe.PriceCents <= 0 {
		return errors.New("CALENDAR_PRICE_CENTS must be > 0")
	}
	switch cfg.Artifacts.Backend {
	case ArtifactLocal:
		if strings.TrimSpace(cfg.Artifacts.Dir) == "" {
			return errors.New("ARTIFACT_DIR must not be empty")
		}
	case ArtifactGCS:
		if cfg.Artifacts.GCSBucket == "" {
			return errors.New("GCS_BUCKET is required for the gcs artifact backend")
		}
	case ArtifactS3:
		if cfg.Artifacts.S3Bucket == "" {
			return errors.New("S3_BUCKET is required for the s3 artifact backend")
		}
	default:
		return fmt.Errorf("ARTIFACT_BACKEND must be one of: local, gcs, s3 (got %q)", cfg.Artifacts.Backend)
	}
	switch cfg.Queue.Backend {
	case QueueMemory:
		if cfg.Queue.Buffer < 1 {
			return errors.New("QUEUE_BUFFER must be >= 1")
		}
	case QueueRedis:
		if cfg.Queue.RedisAddr == "" {
			return errors.New("REDIS_ADDR is required for the redis queue backend")
		}
	default:
		return fmt.Errorf("QUEUE_BACKEND must be one of: memory, redis (got %q)", cfg.Queue.Backend)
	}
	if cfg.Queue.Workers < 1 {
		return errors.New("WORKER_CONCURRENCY must be >= 1")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}
	return nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
