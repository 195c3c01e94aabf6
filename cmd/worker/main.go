// Worker entry point: consumes failed side effects from Kafka and replays
// them until they succeed or land on the dead letter topic.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/KeyIP-Docket/internal/app"
	"github.com/turtacn/KeyIP-Docket/internal/config"
	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/monitoring/logging"
	httpserver "github.com/turtacn/KeyIP-Docket/internal/interfaces/http"
	"github.com/turtacn/KeyIP-Docket/internal/interfaces/http/handlers"
)

var version = "dev"

const (
	defaultHealthPort = 8081
	defaultMaxRetries = 3
	defaultBackoff    = time.Second
	defaultMaxBackoff = 30 * time.Second
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: DOCKET_* environment)")
	healthPort := flag.Int("health-port", defaultHealthPort, "port of the health and metrics endpoint (0 disables it)")
	maxRetries := flag.Int("max-retries", defaultMaxRetries, "handler retries before a message is dead-lettered")
	backoff := flag.Duration("backoff", defaultBackoff, "initial retry backoff")
	flag.Parse()

	cfg, err := config.LoadOrEnv(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(logger)

	if *configPath != "" {
		watchLogLevel(*configPath, logger)
	}

	retry := kafka.RetryConfig{
		MaxRetries:      *maxRetries,
		Backoff:         *backoff,
		MaxBackoff:      defaultMaxBackoff,
		DeadLetterTopic: kafka.TopicDeadLetter,
	}
	if err := run(cfg, logger, *healthPort, retry); err != nil {
		logger.Error("worker exited", logging.Err(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger logging.Logger, healthPort int, retry kafka.RetryConfig) error {
	if !cfg.Kafka.Enabled {
		return fmt.Errorf("worker requires kafka.enabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing dependencies: %w", err)
	}
	defer deps.Close()

	// The container producer doubles as the dead letter writer.
	consumer, err := kafka.NewConsumer(cfg.Kafka, []string{kafka.TopicSideEffectsFailed}, retry, deps.Producer, logger)
	if err != nil {
		return fmt.Errorf("creating consumer: %w", err)
	}
	consumer.Subscribe(kafka.TopicSideEffectsFailed, kafka.NewSideEffectReplayer(deps.EffectExecutor(), logger))

	var healthSrv *httpserver.Server
	if healthPort > 0 {
		healthSrv = startHealthServer(cfg, deps, healthPort, logger)
	}

	if err := consumer.Start(ctx); err != nil {
		return fmt.Errorf("starting consumer: %w", err)
	}
	logger.Info("worker started",
		logging.String("version", version),
		logging.String("topic", kafka.TopicSideEffectsFailed),
		logging.Int("max_retries", retry.MaxRetries))

	<-ctx.Done()
	logger.Info("received shutdown signal, draining consumer")

	if err := consumer.Close(); err != nil {
		logger.Error("consumer close error", logging.Err(err))
	}
	m := consumer.Metrics()
	logger.Info("consumer stopped",
		logging.Int64("processed", m.Processed.Load()),
		logging.Int64("failed", m.Failed.Load()),
		logging.Int64("dead_lettered", m.DeadLettered.Load()))

	if healthSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := healthSrv.Stop(shutdownCtx); err != nil {
			logger.Error("health server shutdown error", logging.Err(err))
		}
	}
	logger.Info("worker stopped")
	return nil
}

func startHealthServer(cfg *config.Config, deps *app.Container, port int, logger logging.Logger) *httpserver.Server {
	health := handlers.NewHealthHandler(version, deps.Checkers()...)
	r := chi.NewRouter()
	r.Get("/healthz", health.Liveness)
	r.Get("/readyz", health.Readiness)
	if deps.Metrics != nil {
		health.WithReporter(deps.Metrics)
		r.Handle("/metrics", deps.Collector.Handler())
	}

	srvCfg := cfg.Server
	srvCfg.Port = port
	srv := httpserver.NewServer(srvCfg, r, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("health server error", logging.Err(err))
		}
	}()
	return srv
}

// watchLogLevel applies log level changes from the config file at runtime.
func watchLogLevel(path string, logger logging.Logger) {
	err := config.Watch(path, func(c *config.Config) {
		if c.Log.Level != logging.CurrentLevel() {
			logging.SetLevel(c.Log.Level)
			logger.Info("log level changed", logging.String("level", c.Log.Level))
		}
	}, func(err error) {
		logger.Warn("ignoring invalid config change", logging.Err(err))
	})
	if err != nil {
		logger.Warn("config watch disabled", logging.Err(err))
	}
}

//Personal.AI order the ending
