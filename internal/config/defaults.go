package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerPort      = 8080
	DefaultGRPCPort        = 9090
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultMaxBodySize     = 32 << 20
	DefaultShutdownTimeout = 30 * time.Second

	DefaultStorageDriver = "sqlite"
	DefaultSQLitePath    = "docket.db"
	DefaultBusyTimeout   = 5 * time.Second

	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBName     = "docket"
	DefaultDBMaxConns = 25
	DefaultDBMinConns = 2

	DefaultRedisAddr     = "localhost:6379"
	DefaultRedisPoolSize = 10
	DefaultRedisTTL      = 10 * time.Minute
	DefaultRedisPrefix   = "docket"
	DefaultSubmitLockTTL = 30 * time.Second

	DefaultKafkaBroker   = "localhost:9092"
	DefaultKafkaGroupID  = "docket-worker"
	DefaultKafkaClientID = "docket"

	DefaultMinIOEndpoint   = "localhost:9000"
	DefaultMinIOBucket     = "docket"
	DefaultPresignExpiry   = 15 * time.Minute
	DefaultMaxFileSize     = 25 << 20
	DefaultBulletinTimeout = 10 * time.Second
	DefaultBulletinTTL     = time.Hour

	DefaultCalendarLocation       = "UTC"
	DefaultOperationalLeadDays    = 3
	DefaultRenewalPeriodYears     = 10
	DefaultOppositionOffsetMonths = 2
	DefaultHolidayHorizonYears    = 12

	DefaultAccrualAssigneeID   = "accounting"
	DefaultAccrualAssigneeName = "Accounting"
	DefaultCurrency            = "TRY"

	DefaultSequencerRetries = 5
	DefaultSequencerBackoff = 20 * time.Millisecond

	DefaultSideEffectRetries = 3
	DefaultSideEffectBackoff = 100 * time.Millisecond
	DefaultSideEffectTimeout = 30 * time.Second

	DefaultMetricsNamespace = "docket"
	DefaultMetricsPath      = "/metrics"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// ApplyDefaults fills every zero-value field in cfg with its default. Fields
// already set are left unchanged so explicit configuration always wins.
//
// It must run after unmarshalling and before Validate.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.GRPCPort == 0 {
		cfg.Server.GRPCPort = DefaultGRPCPort
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = DefaultMaxBodySize
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	// ── Storage ───────────────────────────────────────────────────────────────
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DefaultStorageDriver
	}
	if cfg.SQLite.Path == "" {
		cfg.SQLite.Path = DefaultSQLitePath
	}
	if cfg.SQLite.BusyTimeout == 0 {
		cfg.SQLite.BusyTimeout = DefaultBusyTimeout
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.MinConns == 0 {
		cfg.Database.MinConns = DefaultDBMinConns
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = DefaultRedisPoolSize
	}
	if cfg.Redis.DefaultTTL == 0 {
		cfg.Redis.DefaultTTL = DefaultRedisTTL
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisPrefix
	}
	if cfg.Redis.SubmitLockTTL == 0 {
		cfg.Redis.SubmitLockTTL = DefaultSubmitLockTTL
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.ClientID == "" {
		cfg.Kafka.ClientID = DefaultKafkaClientID
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}
	if cfg.MinIO.PresignExpiry == 0 {
		cfg.MinIO.PresignExpiry = DefaultPresignExpiry
	}
	if cfg.MinIO.MaxFileSize == 0 {
		cfg.MinIO.MaxFileSize = DefaultMaxFileSize
	}

	// ── Bulletin ──────────────────────────────────────────────────────────────
	if cfg.Bulletin.Timeout == 0 {
		cfg.Bulletin.Timeout = DefaultBulletinTimeout
	}
	if cfg.Bulletin.CacheTTL == 0 {
		cfg.Bulletin.CacheTTL = DefaultBulletinTTL
	}

	// ── Calendar ──────────────────────────────────────────────────────────────
	if cfg.Calendar.Location == "" {
		cfg.Calendar.Location = DefaultCalendarLocation
	}
	if cfg.Calendar.OperationalLeadDays == 0 {
		cfg.Calendar.OperationalLeadDays = DefaultOperationalLeadDays
	}
	if cfg.Calendar.RenewalPeriodYears == 0 {
		cfg.Calendar.RenewalPeriodYears = DefaultRenewalPeriodYears
	}
	if cfg.Calendar.OppositionOffsetMonths == 0 {
		cfg.Calendar.OppositionOffsetMonths = DefaultOppositionOffsetMonths
	}
	if cfg.Calendar.HolidayHorizonYears == 0 {
		cfg.Calendar.HolidayHorizonYears = DefaultHolidayHorizonYears
	}

	// ── Accrual ───────────────────────────────────────────────────────────────
	if cfg.Accrual.DefaultAssigneeID == "" {
		cfg.Accrual.DefaultAssigneeID = DefaultAccrualAssigneeID
	}
	if cfg.Accrual.DefaultAssigneeName == "" {
		cfg.Accrual.DefaultAssigneeName = DefaultAccrualAssigneeName
	}
	if cfg.Accrual.DefaultCurrency == "" {
		cfg.Accrual.DefaultCurrency = DefaultCurrency
	}

	// ── Sequencer / Tasking ───────────────────────────────────────────────────
	if cfg.Sequencer.MaxRetries == 0 {
		cfg.Sequencer.MaxRetries = DefaultSequencerRetries
	}
	if cfg.Sequencer.RetryBackoff == 0 {
		cfg.Sequencer.RetryBackoff = DefaultSequencerBackoff
	}
	if cfg.Tasking.SideEffectRetries == 0 {
		cfg.Tasking.SideEffectRetries = DefaultSideEffectRetries
	}
	if cfg.Tasking.SideEffectBackoff == 0 {
		cfg.Tasking.SideEffectBackoff = DefaultSideEffectBackoff
	}
	if cfg.Tasking.SideEffectTimeout == 0 {
		cfg.Tasking.SideEffectTimeout = DefaultSideEffectTimeout
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}

// Default returns a Config with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

//Personal.AI order the ending
