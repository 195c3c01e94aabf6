// Package config defines all configuration structures for the docket service.
// No I/O or parsing logic lives in this file, only plain data types and
// validation.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/monitoring/logging"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP and gRPC server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	GRPCPort        int           `mapstructure:"grpc_port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Driver string `mapstructure:"driver"` // "postgres" | "sqlite"
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// SQLiteConfig holds the embedded store location.
type SQLiteConfig struct {
	Path        string        `mapstructure:"path"`
	BusyTimeout time.Duration `mapstructure:"busy_timeout"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Addr          string        `mapstructure:"addr"`
	Password      string        `mapstructure:"password"`
	DB            int           `mapstructure:"db"`
	PoolSize      int           `mapstructure:"pool_size"`
	DialTimeout   time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	DefaultTTL    time.Duration `mapstructure:"default_ttl"`
	KeyPrefix     string        `mapstructure:"key_prefix"`
	SubmitLockTTL time.Duration `mapstructure:"submit_lock_ttl"`
}

// KafkaConfig holds Apache Kafka producer/consumer parameters.
type KafkaConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Brokers      []string      `mapstructure:"brokers"`
	GroupID      string        `mapstructure:"group_id"`
	ClientID     string        `mapstructure:"client_id"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	MaxAttempts  int           `mapstructure:"max_attempts"`

	// SASLMechanism is empty, PLAIN, SCRAM-SHA-256 or SCRAM-SHA-512.
	SASLMechanism string `mapstructure:"sasl_mechanism"`
	SASLUsername  string `mapstructure:"sasl_username"`
	SASLPassword  string `mapstructure:"sasl_password"`
	TLSEnabled    bool   `mapstructure:"tls_enabled"`
	TLSCAPath     string `mapstructure:"tls_ca_path"`
}

// MinIOConfig holds MinIO / S3-compatible object-storage parameters.
type MinIOConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Endpoint      string        `mapstructure:"endpoint"`
	AccessKey     string        `mapstructure:"access_key"`
	SecretKey     string        `mapstructure:"secret_key"`
	Bucket        string        `mapstructure:"bucket"`
	Region        string        `mapstructure:"region"`
	UseSSL        bool          `mapstructure:"use_ssl"`
	PresignExpiry time.Duration `mapstructure:"presign_expiry"`
	MaxFileSize   int64         `mapstructure:"max_file_size"`
}

// BulletinConfig configures the trademark bulletin data source.
type BulletinConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
	RetryMax int           `mapstructure:"retry_max"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// CalendarConfig holds due-date arithmetic parameters and holiday sources.
type CalendarConfig struct {
	Location               string   `mapstructure:"location"`
	OperationalLeadDays    int      `mapstructure:"operational_lead_days"`
	RenewalPeriodYears     int      `mapstructure:"renewal_period_years"`
	OppositionOffsetMonths int      `mapstructure:"opposition_offset_months"`
	ExtraHolidays          []string `mapstructure:"extra_holidays"` // "2006-01-02" or "01-02"
	GoogleCalendarID       string   `mapstructure:"google_calendar_id"`
	GoogleAPIKey           string   `mapstructure:"google_api_key"`
	GoogleAccessToken      string   `mapstructure:"google_access_token"`
	GoogleEndpoint         string   `mapstructure:"google_endpoint"`
	HolidayHorizonYears    int      `mapstructure:"holiday_horizon_years"`
}

// AccrualConfig holds billing policy parameters.
type AccrualConfig struct {
	DefaultAssigneeID    string  `mapstructure:"default_assignee_id"`
	DefaultAssigneeName  string  `mapstructure:"default_assignee_name"`
	DefaultAssigneeEmail string  `mapstructure:"default_assignee_email"`
	DefaultCurrency      string  `mapstructure:"default_currency"`
	DefaultVATRate       float64 `mapstructure:"default_vat_rate"`
}

// SequencerConfig bounds contention retries of the deferred-billing counter.
type SequencerConfig struct {
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
}

// TaskingConfig holds orchestration tunables.
type TaskingConfig struct {
	SideEffectRetries int           `mapstructure:"side_effect_retries"`
	SideEffectBackoff time.Duration `mapstructure:"side_effect_backoff"`
	SideEffectTimeout time.Duration `mapstructure:"side_effect_timeout"`
}

// MetricsConfig holds Prometheus collector parameters.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Subsystem string `mapstructure:"subsystem"`
	Path      string `mapstructure:"path"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig      `mapstructure:"server"`
	Storage   StorageConfig     `mapstructure:"storage"`
	Database  DatabaseConfig    `mapstructure:"database"`
	SQLite    SQLiteConfig      `mapstructure:"sqlite"`
	Redis     RedisConfig       `mapstructure:"redis"`
	Kafka     KafkaConfig       `mapstructure:"kafka"`
	MinIO     MinIOConfig       `mapstructure:"minio"`
	Bulletin  BulletinConfig    `mapstructure:"bulletin"`
	Calendar  CalendarConfig    `mapstructure:"calendar"`
	Accrual   AccrualConfig     `mapstructure:"accrual"`
	Sequencer SequencerConfig   `mapstructure:"sequencer"`
	Tasking   TaskingConfig     `mapstructure:"tasking"`
	Metrics   MetricsConfig     `mapstructure:"metrics"`
	Log       logging.LogConfig `mapstructure:"log"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered.
func (c *Config) Validate() error {
	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	if c.Server.GRPCPort < 0 || c.Server.GRPCPort > 65535 {
		return fmt.Errorf("config: server.grpc_port %d is out of range [0, 65535]", c.Server.GRPCPort)
	}

	// Storage
	switch c.Storage.Driver {
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("config: database.host is required")
		}
		if c.Database.Port < 1 || c.Database.Port > 65535 {
			return fmt.Errorf("config: database.port %d is out of range [1, 65535]", c.Database.Port)
		}
		if c.Database.User == "" {
			return fmt.Errorf("config: database.user is required")
		}
		if c.Database.DBName == "" {
			return fmt.Errorf("config: database.db_name is required")
		}
		if c.Database.MaxConns < 1 {
			return fmt.Errorf("config: database.max_conns must be ≥ 1, got %d", c.Database.MaxConns)
		}
	case "sqlite":
		if c.SQLite.Path == "" {
			return fmt.Errorf("config: sqlite.path is required")
		}
	default:
		return fmt.Errorf("config: storage.driver %q is invalid; expected postgres|sqlite", c.Storage.Driver)
	}

	// Redis
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required when redis is enabled")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be ≥ 0, got %d", c.Redis.DB)
	}

	// Kafka
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
	}

	// MinIO
	if c.MinIO.Enabled {
		if c.MinIO.Endpoint == "" {
			return fmt.Errorf("config: minio.endpoint is required when minio is enabled")
		}
		if c.MinIO.Bucket == "" {
			return fmt.Errorf("config: minio.bucket is required when minio is enabled")
		}
	}

	// Calendar
	if c.Calendar.OperationalLeadDays < 0 {
		return fmt.Errorf("config: calendar.operational_lead_days must be ≥ 0, got %d", c.Calendar.OperationalLeadDays)
	}
	if c.Calendar.RenewalPeriodYears < 1 {
		return fmt.Errorf("config: calendar.renewal_period_years must be ≥ 1, got %d", c.Calendar.RenewalPeriodYears)
	}
	if _, err := time.LoadLocation(c.Calendar.Location); err != nil {
		return fmt.Errorf("config: calendar.location %q is invalid: %w", c.Calendar.Location, err)
	}

	// Accrual
	if c.Accrual.DefaultAssigneeID == "" {
		return fmt.Errorf("config: accrual.default_assignee_id is required")
	}
	if c.Accrual.DefaultVATRate < 0 {
		return fmt.Errorf("config: accrual.default_vat_rate must be ≥ 0, got %v", c.Accrual.DefaultVATRate)
	}

	// Sequencer
	if c.Sequencer.MaxRetries < 1 {
		return fmt.Errorf("config: sequencer.max_retries must be ≥ 1, got %d", c.Sequencer.MaxRetries)
	}

	// Log
	switch c.Log.Level {
	case logging.LevelDebug, logging.LevelInfo, logging.LevelWarn, logging.LevelError:
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}

// PostgresDSN renders the database section as a postgres:// URL.
func (c *Config) PostgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
		Path:     c.Database.DBName,
		RawQuery: url.Values{"sslmode": []string{c.Database.SSLMode}}.Encode(),
	}
	return u.String()
}

//Personal.AI order the ending
