// Package app assembles the stores, adapters and services shared by the API
// server and the worker from one Config.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/turtacn/KeyIP-Docket/internal/application/billing"
	"github.com/turtacn/KeyIP-Docket/internal/application/portfolio"
	"github.com/turtacn/KeyIP-Docket/internal/application/reporting"
	"github.com/turtacn/KeyIP-Docket/internal/application/tasking"
	"github.com/turtacn/KeyIP-Docket/internal/config"
	"github.com/turtacn/KeyIP-Docket/internal/domain/accrual"
	"github.com/turtacn/KeyIP-Docket/internal/domain/asset"
	"github.com/turtacn/KeyIP-Docket/internal/domain/calendar"
	"github.com/turtacn/KeyIP-Docket/internal/domain/suit"
	"github.com/turtacn/KeyIP-Docket/internal/domain/task"
	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/bulletin"
	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/calendar/google"
	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/database/postgres"
	pgrepo "github.com/turtacn/KeyIP-Docket/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/database/redis"
	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/database/sqlite"
	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/storage/minio"
	"github.com/turtacn/KeyIP-Docket/internal/interfaces/http/handlers"
	"github.com/turtacn/KeyIP-Docket/internal/interfaces/http/middleware"
)

// Container holds the wired dependencies. Optional adapters that are
// disabled in the configuration are left nil.
type Container struct {
	Config *config.Config
	Logger logging.Logger

	Tasks     task.Repository
	Sequencer task.Sequencer
	Assets    asset.Repository
	Suits     suit.Repository
	Accruals  accrual.Repository
	Rules     tasking.AssignmentRuleLookup

	Files     tasking.FileStore
	Bulletins tasking.BulletinSource
	Publisher tasking.EventPublisher
	Producer  *kafka.Producer
	Redis     *redis.Client
	Cache     redis.Cache

	Calendar  *calendar.Calculator
	Billing   billing.Service
	Collector prometheus.Collector
	Metrics   *prometheus.DocketMetrics

	checkers []handlers.HealthChecker
	closers  []func() error
}

// New connects every enabled backend described by cfg. On failure the
// connections opened so far are closed.
func New(ctx context.Context, cfg *config.Config, log logging.Logger) (c *Container, err error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	c = &Container{Config: cfg, Logger: log}
	// Error returns nil out c before the deferred cleanup runs.
	opened := c
	defer func() {
		if err != nil {
			opened.Close()
			c = nil
		}
	}()

	if cfg.Metrics.Enabled {
		if c.Collector, err = prometheus.NewCollector(cfg.Metrics, log); err != nil {
			return nil, err
		}
		c.Metrics = prometheus.NewDocketMetrics(c.Collector)
	}

	var ruleRepo task.AssignmentRuleRepository
	if ruleRepo, err = c.openStorage(ctx); err != nil {
		return nil, err
	}

	if cfg.Redis.Enabled {
		if c.Redis, err = redis.NewClient(cfg.Redis, log); err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		c.closers = append(c.closers, c.Redis.Close)
		c.checkers = append(c.checkers, handlers.CheckFunc("redis", c.Redis.Ping))
		c.Cache = redis.NewRedisCache(c.Redis, log,
			redis.WithPrefix(cfg.Redis.KeyPrefix),
			redis.WithDefaultTTL(cfg.Redis.DefaultTTL))
		c.Rules = redis.NewCachedRuleStore(ruleRepo, c.Cache, cfg.Redis.DefaultTTL)
	} else {
		c.Rules = ruleLookup{repo: ruleRepo}
	}

	if cfg.MinIO.Enabled {
		fs, ferr := minio.Connect(cfg.MinIO, log)
		if ferr != nil {
			return nil, fmt.Errorf("minio: %w", ferr)
		}
		c.Files = fs
		c.checkers = append(c.checkers, handlers.CheckFunc("minio", fs.Ping))
	}

	if cfg.Bulletin.BaseURL != "" {
		bc, berr := bulletin.NewClient(cfg.Bulletin, log)
		if berr != nil {
			return nil, fmt.Errorf("bulletin: %w", berr)
		}
		if c.Cache != nil {
			c.Bulletins = redis.NewCachedBulletinSource(bc, c.Cache, cfg.Bulletin.CacheTTL)
		} else {
			c.Bulletins = bc
		}
	}

	c.Publisher = tasking.NopPublisher()
	if cfg.Kafka.Enabled {
		if c.Producer, err = kafka.NewProducer(cfg.Kafka, log); err != nil {
			return nil, fmt.Errorf("kafka: %w", err)
		}
		c.closers = append(c.closers, c.Producer.Close)
		c.Publisher = c.Producer
	}

	if c.Calendar, err = c.buildCalendar(ctx); err != nil {
		return nil, err
	}

	c.Billing = billing.NewService(billing.Deps{
		Accruals:  c.Accruals,
		Tasks:     c.Tasks,
		Sequencer: c.Sequencer,
		Files:     c.Files,
		Rules:     c.Rules,
		Publisher: c.Publisher,
		Logger:    log,
		Config: billing.Config{
			DefaultAssignee: task.Assignee{
				ID:    cfg.Accrual.DefaultAssigneeID,
				Name:  cfg.Accrual.DefaultAssigneeName,
				Email: cfg.Accrual.DefaultAssigneeEmail,
			},
			DefaultCurrency: cfg.Accrual.DefaultCurrency,
		},
	})

	log.Info("dependencies ready",
		logging.String("storage", cfg.Storage.Driver),
		logging.Bool("redis", cfg.Redis.Enabled),
		logging.Bool("kafka", cfg.Kafka.Enabled),
		logging.Bool("minio", cfg.MinIO.Enabled),
		logging.Bool("bulletin", c.Bulletins != nil),
		logging.Bool("metrics", c.Metrics != nil))
	return c, nil
}

// openStorage opens the configured backend and fills the repositories.
func (c *Container) openStorage(ctx context.Context) (task.AssignmentRuleRepository, error) {
	cfg := c.Config
	switch cfg.Storage.Driver {
	case "postgres":
		if cfg.Database.AutoMigrate {
			if err := postgres.RunMigrations(postgres.BuildConnString(cfg.Database)); err != nil {
				return nil, fmt.Errorf("postgres migrations: %w", err)
			}
		}
		pool, err := postgres.NewConnectionPool(cfg.Database, c.Logger)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		c.closers = append(c.closers, func() error { pool.Close(); return nil })
		c.checkers = append(c.checkers, handlers.CheckFunc("postgres", func(ctx context.Context) error {
			return postgres.HealthCheck(ctx, pool, c.Logger)
		}))

		seq := pgrepo.SequencerOptions{MaxRetries: cfg.Sequencer.MaxRetries, Backoff: cfg.Sequencer.RetryBackoff}
		if c.Metrics != nil {
			seq.Observer = c.Metrics
		}
		tasks := pgrepo.NewTaskRepository(pool, c.Logger, seq)
		c.Tasks, c.Sequencer = tasks, tasks
		c.Assets = pgrepo.NewAssetRepository(pool, c.Logger)
		c.Suits = pgrepo.NewSuitRepository(pool, c.Logger)
		c.Accruals = pgrepo.NewAccrualRepository(pool, c.Logger)
		return pgrepo.NewAssignmentRuleRepository(pool, c.Logger), nil

	case "sqlite":
		db, err := sqlite.OpenDB(cfg.SQLite, c.Logger)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		c.closers = append(c.closers, db.Close)
		c.checkers = append(c.checkers, handlers.CheckFunc("sqlite", db.PingContext))

		seq := sqlite.SequencerOptions{MaxRetries: cfg.Sequencer.MaxRetries, Backoff: cfg.Sequencer.RetryBackoff}
		if c.Metrics != nil {
			seq.Observer = c.Metrics
		}
		tasks := sqlite.NewTaskRepository(db, c.Logger, seq)
		c.Tasks, c.Sequencer = tasks, tasks
		c.Assets = sqlite.NewAssetRepository(db, c.Logger)
		c.Suits = sqlite.NewSuitRepository(db, c.Logger)
		c.Accruals = sqlite.NewAccrualRepository(db, c.Logger)
		return sqlite.NewAssignmentRuleRepository(db, c.Logger), nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// buildCalendar loads the static holidays, merges the Google feed when one
// is configured and returns the calculator over the result.
func (c *Container) buildCalendar(ctx context.Context) (*calendar.Calculator, error) {
	cfg := c.Config.Calendar
	loc, err := time.LoadLocation(cfg.Location)
	if err != nil {
		return nil, fmt.Errorf("calendar location %q: %w", cfg.Location, err)
	}

	holidays := tasking.BaseHolidays(cfg.ExtraHolidays, c.Logger)
	if cfg.GoogleCalendarID != "" {
		feed, ferr := google.NewHolidayFeed(ctx, cfg, c.Logger)
		if ferr != nil {
			c.Logger.Warn("google holiday feed disabled", logging.Err(ferr))
		} else {
			var provider tasking.HolidayProvider = feed
			if c.Cache != nil {
				provider = redis.NewCachedHolidayProvider(feed, c.Cache, 24*time.Hour)
			}
			now := time.Now().In(loc)
			from := time.Date(now.Year()-1, time.January, 1, 0, 0, 0, 0, loc)
			to := time.Date(now.Year()+cfg.HolidayHorizonYears, time.December, 31, 0, 0, 0, 0, loc)
			holidays = tasking.LoadHolidays(ctx, provider, holidays, from, to, c.Logger)
		}
	}

	return calendar.NewCalculator(calendar.Options{
		Holidays:               holidays,
		Location:               loc,
		OperationalLeadDays:    cfg.OperationalLeadDays,
		RenewalPeriodYears:     cfg.RenewalPeriodYears,
		OppositionOffsetMonths: cfg.OppositionOffsetMonths,
	}), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Services
// ─────────────────────────────────────────────────────────────────────────────

func (c *Container) recorder() tasking.Recorder {
	if c.Metrics == nil {
		return nil
	}
	return c.Metrics
}

// SubmitService returns the task orchestrator.
func (c *Container) SubmitService() tasking.Service {
	return tasking.NewService(tasking.Deps{
		Tasks:     c.Tasks,
		Assets:    c.Assets,
		Suits:     c.Suits,
		Billing:   c.Billing,
		Files:     c.Files,
		Rules:     c.Rules,
		Bulletins: c.Bulletins,
		Publisher: c.Publisher,
		Calendar:  c.Calendar,
		Recorder:  c.recorder(),
		Logger:    c.Logger,
		Config: tasking.Config{
			SideEffectRetries: c.Config.Tasking.SideEffectRetries,
			SideEffectBackoff: c.Config.Tasking.SideEffectBackoff,
			SideEffectTimeout: c.Config.Tasking.SideEffectTimeout,
		},
	})
}

func (c *Container) LifecycleService() tasking.LifecycleService {
	return tasking.NewLifecycleService(tasking.LifecycleDeps{
		Tasks:  c.Tasks,
		Files:  c.Files,
		Rules:  c.Rules,
		Logger: c.Logger,
	})
}

// EffectExecutor returns the executor the worker replays failures with.
func (c *Container) EffectExecutor() *tasking.EffectExecutor {
	return tasking.NewEffectExecutor(tasking.EffectExecutorDeps{
		Tasks:     c.Tasks,
		Assets:    c.Assets,
		Suits:     c.Suits,
		Billing:   c.Billing,
		Publisher: c.Publisher,
		Recorder:  c.recorder(),
		Logger:    c.Logger,
	})
}

func (c *Container) SearchService() portfolio.SearchService {
	return portfolio.NewSearchService(portfolio.SearchDeps{
		Assets:    c.Assets,
		Bulletins: c.Bulletins,
		Logger:    c.Logger,
	})
}

func (c *Container) Exporter() reporting.AccrualExporter {
	return reporting.NewAccrualExporter(c.Accruals, c.Calendar.Location(), c.Logger)
}

// SubmitGuard returns the Redis submission lock, or nil without Redis.
func (c *Container) SubmitGuard() middleware.SubmitGuard {
	if c.Redis == nil {
		return nil
	}
	return redis.NewSubmitLock(c.Redis, c.Config.Redis.KeyPrefix+":", c.Config.Redis.SubmitLockTTL, c.Logger)
}

// Checkers returns the health probes of the connected backends.
func (c *Container) Checkers() []handlers.HealthChecker {
	return append([]handlers.HealthChecker(nil), c.checkers...)
}

// Close releases connections in reverse order of opening.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			c.Logger.Warn("close failed", logging.Err(err))
		}
	}
	c.closers = nil
}

// ruleLookup serves assignment rules straight from the store.
type ruleLookup struct {
	repo task.AssignmentRuleRepository
}

func (l ruleLookup) GetAssignmentRule(ctx context.Context, typ task.Type) (*task.AssignmentRule, error) {
	return l.repo.GetByTaskType(ctx, typ)
}

//Personal.AI order the ending
