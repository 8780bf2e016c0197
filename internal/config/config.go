package config

import (
	"fmt"
	"slices"
	"time"

	pkgconfig "github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/config"
)

// Config holds all configuration for the storefront service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort       int           `env:"STOREFRONT_HTTP_PORT" envDefault:"8080"`
	RequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"30s"`
	SSEHeartbeat   time.Duration `env:"SSE_HEARTBEAT" envDefault:"15s"`

	// PostgreSQL
	PostgresHost  string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort  int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser  string `env:"POSTGRES_USER" envDefault:"storefront"`
	PostgresPass  string `env:"POSTGRES_PASSWORD" envDefault:"storefront_secret"`
	PostgresDB    string `env:"STOREFRONT_DB_NAME" envDefault:"storefront_db"`
	PostgresSSL   string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	RunMigrations bool   `env:"RUN_MIGRATIONS" envDefault:"true"`

	// Database pool
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`

	// Redis
	RedisHost string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaBrokers        []string      `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	ConsumeStatusEvents bool          `env:"CONSUME_ORDER_STATUS" envDefault:"true"`
	EventDedupTTL       time.Duration `env:"EVENT_DEDUP_TTL" envDefault:"24h"`

	// Auth
	JWTSecret   string        `env:"JWT_SECRET" envDefault:""`
	JWTIssuer   string        `env:"JWT_ISSUER" envDefault:""`
	JWTAudience string        `env:"JWT_AUDIENCE" envDefault:""`
	JWTLeeway   time.Duration `env:"JWT_LEEWAY" envDefault:"30s"`

	// Anonymous sessions
	SessionCookieDomain string        `env:"SESSION_COOKIE_DOMAIN" envDefault:""`
	SessionSecureCookie bool          `env:"SESSION_SECURE_COOKIE" envDefault:"false"`
	SessionMaxAge       time.Duration `env:"SESSION_MAX_AGE" envDefault:"8760h"`
	MergeLockTTL        time.Duration `env:"MERGE_LOCK_TTL" envDefault:"30s"`

	// Pricing
	BaseCurrency string        `env:"BASE_CURRENCY" envDefault:"INR"`
	RateCacheTTL time.Duration `env:"CURRENCY_RATE_CACHE_TTL" envDefault:"10m"`

	// Payments
	PaymentProviders       []string      `env:"PAYMENT_PROVIDERS" envDefault:"hosted,widget" envSeparator:","`
	PaymentTimeout         time.Duration `env:"PAYMENT_HTTP_TIMEOUT" envDefault:"10s"`
	HostedBaseURL          string        `env:"HOSTED_PAYMENT_BASE_URL" envDefault:"https://api.stripe.com"`
	HostedSecretKey        string        `env:"HOSTED_PAYMENT_SECRET_KEY" envDefault:""`
	HostedWebhookSecret    string        `env:"HOSTED_PAYMENT_WEBHOOK_SECRET" envDefault:""`
	HostedSuccessURL       string        `env:"HOSTED_PAYMENT_SUCCESS_URL" envDefault:"http://localhost:3000/orders/{order_id}?paid=1"`
	HostedCancelURL        string        `env:"HOSTED_PAYMENT_CANCEL_URL" envDefault:"http://localhost:3000/checkout?order={order_id}"`
	HostedWebhookTolerance time.Duration `env:"HOSTED_PAYMENT_WEBHOOK_TOLERANCE" envDefault:"5m"`
	WidgetBaseURL          string        `env:"WIDGET_PAYMENT_BASE_URL" envDefault:"https://api.razorpay.com"`
	WidgetKeyID            string        `env:"WIDGET_PAYMENT_KEY_ID" envDefault:""`
	WidgetKeySecret        string        `env:"WIDGET_PAYMENT_KEY_SECRET" envDefault:""`

	// Rate limiting of abuse-prone writes
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"2"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"10"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Pprof debug endpoints (IP allowlist in CIDR notation)
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,127.0.0.0/8,::1/128" envSeparator:","`

	// Slow query logging
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`
}

var knownProviders = []string{"hosted", "widget"}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsDevelopment reports whether the service runs with development defaults.
func (c *Config) IsDevelopment() bool { return c.Environment == "development" }

// HasProvider reports whether a payment provider is enabled.
func (c *Config) HasProvider(name string) bool { return slices.Contains(c.PaymentProviders, name) }

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.PostgresHost == "" {
		return fmt.Errorf("POSTGRES_HOST is required")
	}
	if c.PostgresUser == "" {
		return fmt.Errorf("POSTGRES_USER is required")
	}
	if len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required")
	}
	if c.JWTSecret == "" && !c.IsDevelopment() {
		return fmt.Errorf("JWT_SECRET is required outside development")
	}
	if len(c.BaseCurrency) != 3 {
		return fmt.Errorf("BASE_CURRENCY must be an ISO 4217 code, got %q", c.BaseCurrency)
	}
	if len(c.PaymentProviders) == 0 {
		return fmt.Errorf("PAYMENT_PROVIDERS must name at least one provider")
	}
	for _, p := range c.PaymentProviders {
		if !slices.Contains(knownProviders, p) {
			return fmt.Errorf("unknown payment provider %q", p)
		}
	}
	if c.HasProvider("hosted") && !c.IsDevelopment() && (c.HostedSecretKey == "" || c.HostedWebhookSecret == "") {
		return fmt.Errorf("HOSTED_PAYMENT_SECRET_KEY and HOSTED_PAYMENT_WEBHOOK_SECRET are required")
	}
	if c.HasProvider("widget") && !c.IsDevelopment() && (c.WidgetKeyID == "" || c.WidgetKeySecret == "") {
		return fmt.Errorf("WIDGET_PAYMENT_KEY_ID and WIDGET_PAYMENT_KEY_SECRET are required")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst < 1 {
		return fmt.Errorf("rate limit must be positive, got %g rps burst %d", c.RateLimitRPS, c.RateLimitBurst)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	return nil
}

// PostgresDSN returns the PostgreSQL connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPass, c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresSSL,
	)
}
