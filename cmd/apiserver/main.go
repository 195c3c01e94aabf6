// API server entry point for the docket service: the REST API, the gRPC
// health service and the metrics endpoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/KeyIP-Docket/internal/app"
	"github.com/turtacn/KeyIP-Docket/internal/config"
	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/monitoring/logging"
	grpcserver "github.com/turtacn/KeyIP-Docket/internal/interfaces/grpc"
	httpserver "github.com/turtacn/KeyIP-Docket/internal/interfaces/http"
	"github.com/turtacn/KeyIP-Docket/internal/interfaces/http/handlers"
	"github.com/turtacn/KeyIP-Docket/internal/interfaces/http/middleware"
)

// Build-time variables injected via ldflags.
var version = "dev"

const (
	healthCheckInterval = 15 * time.Second
	slowRequest         = 2 * time.Second
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: DOCKET_* environment)")
	httpPort := flag.Int("http-port", 0, "HTTP server port (overrides config)")
	grpcPort := flag.Int("grpc-port", 0, "gRPC server port (overrides config)")
	requireUser := flag.Bool("require-user", false, "reject API calls without X-User-ID")
	flag.Parse()

	cfg, err := config.LoadOrEnv(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *httpPort > 0 {
		cfg.Server.Port = *httpPort
	}
	if *grpcPort > 0 {
		cfg.Server.GRPCPort = *grpcPort
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

	if err := run(cfg, logger, *requireUser); err != nil {
		logger.Error("API server exited", logging.Err(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger logging.Logger, requireUser bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting docket API server",
		logging.String("version", version),
		logging.Int("http_port", cfg.Server.Port),
		logging.Int("grpc_port", cfg.Server.GRPCPort))

	deps, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing dependencies: %w", err)
	}
	defer deps.Close()

	submitSvc := deps.SubmitService()
	checkers := deps.Checkers()

	health := handlers.NewHealthHandler(version, checkers...)
	routerCfg := httpserver.RouterConfig{
		TaskHandler:     handlers.NewTaskHandler(submitSvc, deps.LifecycleService(), logger),
		AssetHandler:    handlers.NewAssetHandler(deps.SearchService(), logger),
		AccrualHandler:  handlers.NewAccrualHandler(deps.Billing, deps.Exporter(), logger),
		CalendarHandler: handlers.NewCalendarHandler(submitSvc, logger),
		HealthHandler:   health,
		User:            middleware.UserConfig{HeaderName: "X-User-ID", Required: requireUser},
		SubmitGuard:     deps.SubmitGuard(),
		Logging: middleware.LoggingConfig{
			SkipPaths:     []string{"/healthz", "/readyz", "/metrics"},
			SlowThreshold: slowRequest,
		},
		Logger: logger,
	}
	if deps.Metrics != nil {
		health.WithReporter(deps.Metrics)
		routerCfg.HTTPObserver = deps.Metrics
		routerCfg.MetricsHandler = deps.Collector.Handler()
	}

	httpSrv := httpserver.NewServer(cfg.Server, httpserver.NewRouter(routerCfg), logger)

	grpcCheckers := make([]grpcserver.Checker, len(checkers))
	for i, ch := range checkers {
		grpcCheckers[i] = ch
	}
	grpcSrv, err := grpcserver.NewServer(fmt.Sprintf(":%d", cfg.Server.GRPCPort),
		grpcserver.WithLogger(logger),
		grpcserver.WithReflection(true),
		grpcserver.WithCheckers(healthCheckInterval, grpcCheckers...),
	)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(httpSrv.Start)
	g.Go(grpcSrv.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down servers")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := httpSrv.Stop(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", logging.Err(err))
		}
		return grpcSrv.Stop(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("servers stopped")
	return nil
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
