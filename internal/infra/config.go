package infra

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store backends selectable through STORE_BACKEND.
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	// Record store
	StoreBackend  string        `env:"STORE_BACKEND" envDefault:"postgres"`
	DatabaseURL   string        `env:"DATABASE_URL"`
	PGHost        string        `env:"PGHOST" envDefault:"localhost"`
	PGPort        int           `env:"PGPORT" envDefault:"5432"`
	PGUser        string        `env:"PGUSER" envDefault:"portal"`
	PGPassword    string        `env:"PGPASSWORD" envDefault:"portal"`
	PGDatabase    string        `env:"PGDATABASE" envDefault:"portal"`
	AutoMigrate   bool          `env:"AUTO_MIGRATE" envDefault:"true"`
	MigrationsDir string        `env:"MIGRATIONS_DIR"`
	PGMaxConns    int32         `env:"PG_MAX_CONNS" envDefault:"10"`
	PGSlowQuery   time.Duration `env:"PG_SLOW_QUERY" envDefault:"250ms"`

	// JWT
	JWTSecret        string        `env:"JWT_SECRET" envDefault:"change-me-in-production"`
	JWTManagerExpiry time.Duration `env:"JWT_MANAGER_EXPIRY" envDefault:"8h"`
	JWTAgentExpiry   time.Duration `env:"JWT_AGENT_EXPIRY" envDefault:"12h"`

	// Bootstrap manager account, created on startup if missing
	BootstrapManagerEmail    string `env:"BOOTSTRAP_MANAGER_EMAIL"`
	BootstrapManagerPassword string `env:"BOOTSTRAP_MANAGER_PASSWORD"`

	// Server
	APIPort        int    `env:"API_PORT" envDefault:"3100"`
	LoginRateLimit int    `env:"LOGIN_RATE_LIMIT" envDefault:"10"` // attempts per email per minute
	CORSOrigin     string `env:"CORS_ORIGIN" envDefault:"*"`

	// Portal behaviour
	NotificationPageSize int    `env:"NOTIFICATION_PAGE_SIZE" envDefault:"50"`
	AnalyticsDate        string `env:"ANALYTICS_DATE"` // fixed YYYY-MM-DD target, default today (UTC)

	// Kafka / outbox
	KafkaBrokers       string        `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	KafkaEnabled       bool          `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaTopicPrefix   string        `env:"KAFKA_TOPIC_PREFIX"`
	OutboxPollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"2s"`
	OutboxBatchSize    int           `env:"OUTBOX_BATCH_SIZE" envDefault:"100"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Dev
	AllowInsecureDefaults bool `env:"ALLOW_INSECURE_DEFAULTS" envDefault:"false"`
}

// LoadConfig parses environment variables into a Config struct.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks for insecure or inconsistent configuration.
// Set ALLOW_INSECURE_DEFAULTS=true to bypass the secret checks (local dev only).
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendPostgres, BackendMemory:
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendPostgres, BackendMemory, c.StoreBackend)
	}
	if c.StoreBackend == BackendPostgres && c.PGMaxConns <= 0 {
		return fmt.Errorf("PG_MAX_CONNS must be positive, got %d", c.PGMaxConns)
	}
	if c.NotificationPageSize <= 0 {
		return fmt.Errorf("NOTIFICATION_PAGE_SIZE must be positive, got %d", c.NotificationPageSize)
	}
	if c.AnalyticsDate != "" {
		if _, err := time.Parse("2006-01-02", c.AnalyticsDate); err != nil {
			return fmt.Errorf("ANALYTICS_DATE must be YYYY-MM-DD: %w", err)
		}
	}
	if c.AllowInsecureDefaults {
		return nil
	}
	if c.JWTSecret == "change-me-in-production" {
		return fmt.Errorf("JWT_SECRET is set to the insecure default; set a strong secret or set ALLOW_INSECURE_DEFAULTS=true for local dev")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET is too short (%d chars); minimum 32 characters required", len(c.JWTSecret))
	}
	return nil
}

// DSN returns the PostgreSQL connection string, preferring DATABASE_URL if set.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDatabase)
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
