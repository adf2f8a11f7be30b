package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/trendscout/config"
	"github.com/target/trendscout/internal/adapters/analyzer"
	"github.com/target/trendscout/internal/adapters/scheduler"
	"github.com/target/trendscout/internal/core"
	"github.com/target/trendscout/internal/data"
	"github.com/target/trendscout/internal/observability/notify/pagerduty"
	"github.com/target/trendscout/internal/observability/notify/slack"
	"github.com/target/trendscout/internal/observability/statsd"
	"github.com/target/trendscout/internal/service"
	"github.com/target/trendscout/internal/service/failurenotifier"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Pipeline      *service.PipelineService
	Stream        *service.StreamRelayService
	Cleanup       *service.MediaCleanupService
	Dispatch      *service.DispatchService
	Runs          *data.WorkflowRunRepo
	Users         *data.UserScheduleRepo
	Adapters      AdapterContainer
	Observability ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	MetricsSink     *statsd.Client
	MetricsConfig   config.ObservabilityMetricsConfig
	FailureNotifier *failurenotifier.Service
	NotifierConfig  config.ObservabilityNotificationsConfig
}

// Sink returns the metrics sink, or nil when metrics are disabled.
//
//nolint:ireturn // callers accept the statsd.Sink port.
func (o ObservabilityContainer) Sink() statsd.Sink {
	if o.MetricsSink == nil {
		return nil
	}
	return o.MetricsSink
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient // Optional: the tick lease falls back to Postgres
	Logger      *slog.Logger
}

// serviceRepositories groups data adapters backing service ports; no business rules here.
type serviceRepositories struct {
	Videos    *data.VideoRepo
	Queries   *data.TrendQueryRepo
	Runs      *data.WorkflowRunRepo
	Users     *data.UserScheduleRepo
	TickLease core.TickLease
}

func buildRepositories(db *sql.DB, redisClient redis.UniversalClient) *serviceRepositories {
	return &serviceRepositories{
		Videos:    data.NewVideoRepo(db),
		Queries:   data.NewTrendQueryRepo(db),
		Runs:      data.NewWorkflowRunRepo(db),
		Users:     data.NewUserScheduleRepo(db),
		TickLease: newTickLease(db, redisClient),
	}
}

//nolint:ireturn // the lease backend is chosen at runtime.
func newTickLease(db *sql.DB, redisClient redis.UniversalClient) core.TickLease {
	if redisClient != nil {
		return data.NewRedisTickLease(redisClient)
	}
	return data.NewDBTickLease(db)
}

// buildObservability configures metrics and notification adapters.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	obsLogger := logger
	if obsLogger == nil {
		obsLogger = slog.Default()
	}

	var metricsSink *statsd.Client
	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Enabled: true,
			Address: cfg.Metrics.StatsdAddress,
			Prefix:  cfg.Metrics.Prefix,
			Logger:  obsLogger,
		})
		if err != nil {
			obsLogger.Error("failed to initialise statsd client", "error", err)
		} else {
			metricsSink = client
		}
	}

	return ObservabilityContainer{
		MetricsSink:     metricsSink,
		MetricsConfig:   cfg.Metrics,
		FailureNotifier: buildFailureNotifier(obsLogger, cfg.Notifications),
		NotifierConfig:  cfg.Notifications,
	}
}

func buildFailureNotifier(logger *slog.Logger, cfg config.ObservabilityNotificationsConfig) *failurenotifier.Service {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = slog.Default()
	}

	if !cfg.Enabled {
		return failurenotifier.NewService(failurenotifier.Options{
			Logger: baseLogger.With("component", "failure_notifier"),
		})
	}

	sinks := make([]failurenotifier.SinkRegistration, 0, 2)

	if cfg.Slack.Enabled {
		client, err := slack.NewClient(slack.Config{
			WebhookURL:   cfg.Slack.WebhookURL,
			Channel:      cfg.Slack.Channel,
			Username:     cfg.Slack.Username,
			Timeout:      cfg.Timeout,
			RetryLimit:   cfg.RetryLimit,
			RunURLPrefix: cfg.Slack.RunURLPrefix,
		})
		if err != nil {
			baseLogger.Error("failed to initialise slack notifier", "error", err)
		} else {
			sinks = append(sinks, failurenotifier.SinkRegistration{Name: "slack", Sink: client})
		}
	}

	if cfg.PagerDuty.Enabled {
		client, err := pagerduty.NewClient(pagerduty.Config{
			RoutingKey: cfg.PagerDuty.RoutingKey,
			Source:     cfg.PagerDuty.Source,
			Component:  cfg.PagerDuty.Component,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			baseLogger.Error("failed to initialise pagerduty notifier", "error", err)
		} else {
			sinks = append(sinks, failurenotifier.SinkRegistration{Name: "pagerduty", Sink: client})
		}
	}

	return failurenotifier.NewService(failurenotifier.Options{
		Logger: baseLogger.With("component", "failure_notifier"),
		Sinks:  sinks,
	})
}

// NewServices wires adapters, repositories, and services from config.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps with config are required")
	}
	if deps.DB == nil {
		return ServiceContainer{}, errors.New("database handle is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	adapters, err := BuildAdapters(cfg.Adapters)
	if err != nil {
		return ServiceContainer{}, err
	}
	repos := buildRepositories(deps.DB, deps.RedisClient)
	obs := buildObservability(logger, cfg.Observability)
	return buildDomainServices(domainServicesOptions{
		Config:        cfg,
		Adapters:      adapters,
		Repos:         repos,
		Observability: obs,
		Logger:        logger,
	}), nil
}

type domainServicesOptions struct {
	Config        *config.AppConfig
	Adapters      AdapterContainer
	Repos         *serviceRepositories
	Observability ObservabilityContainer
	Logger        *slog.Logger
}

func buildDomainServices(opts domainServicesOptions) ServiceContainer {
	a := opts.Adapters
	pipeline := service.NewPipelineService(service.PipelineServiceOptions{
		Adapters: service.PipelineAdapters{
			Queries:    a.LLM,
			Searcher:   a.Searcher,
			Downloader: a.Downloader,
			Store:      a.Store,
			Analyzer:   a.Analyzer,
			Summarizer: a.LLM,
		},
		Repos: service.PipelineRepos{
			Videos:  opts.Repos.Videos,
			Queries: opts.Repos.Queries,
			Runs:    opts.Repos.Runs,
		},
		MaxVideosPerQuery: opts.Config.Pipeline.MaxVideosPerQuery,
		AnalysisTimeout:   opts.Config.Pipeline.AnalysisTimeout,
		Metrics:           opts.Observability.Sink(),
		Logger:            opts.Logger,
	})

	stream := service.NewStreamRelayService(service.StreamRelayServiceOptions{
		Analyzer: a.Analyzer,
		Decode:   analyzer.DecodeText,
		Videos:   opts.Repos.Videos,
		Logger:   opts.Logger,
	})

	cleanup := service.NewMediaCleanupService(service.MediaCleanupServiceOptions{
		Store:  a.Store,
		Videos: opts.Repos.Videos,
		Logger: opts.Logger,
	})

	dispatch := service.NewDispatchService(service.DispatchServiceOptions{
		Users:           opts.Repos.Users,
		Runner:          pipeline,
		Mailer:          a.Mailer,
		Render:          digestRenderer(),
		Lease:           opts.Repos.TickLease,
		FailureNotifier: opts.Observability.FailureNotifier,
		Config: service.DispatchConfig{
			LeaseKey:   opts.Config.Scheduler.LeaseKey,
			LeaseTTL:   opts.Config.Scheduler.LeaseTTL,
			RunTimeout: opts.Config.Scheduler.RunTimeout,
		},
		Logger: opts.Logger,
	})

	return ServiceContainer{
		Pipeline:      pipeline,
		Stream:        stream,
		Cleanup:       cleanup,
		Dispatch:      dispatch,
		Runs:          opts.Repos.Runs,
		Users:         opts.Repos.Users,
		Adapters:      a,
		Observability: opts.Observability,
	}
}

// ServiceOrchestrationConfig contains the dependencies for RunServicesWithShutdown.
type ServiceOrchestrationConfig struct {
	Config      *config.AppConfig
	Services    ServiceContainer
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// shutdownWaitTimeout is the maximum time to wait for background services to stop.
const shutdownWaitTimeout = 15 * time.Second

// serviceStartupDeps groups dependencies for service startup.
type serviceStartupDeps struct {
	ctx             context.Context
	cfg             *ServiceOrchestrationConfig
	logger          *slog.Logger
	enabledServices map[config.ServiceMode]bool
	errCh           chan error
}

// backgroundService describes a startable background component.
type backgroundService struct {
	mode  config.ServiceMode
	name  string
	start func(context.Context) error
}

// backgroundServiceHandle tracks a running background service.
type backgroundServiceHandle struct {
	mode config.ServiceMode
	name string
	done <-chan struct{}
}

func startHTTPServerIfEnabled(deps *serviceStartupDeps) *http.Server {
	if deps == nil || deps.cfg == nil || !deps.enabledServices[config.ServiceModeHTTP] {
		return nil
	}
	return StartHTTPServer(&HTTPServerConfig{
		Config:      deps.cfg.Config,
		Services:    deps.cfg.Services,
		DB:          deps.cfg.DB,
		RedisClient: deps.cfg.RedisClient,
		ErrCh:       deps.errCh,
		Logger:      deps.logger,
	})
}

func launchBackground(ctx context.Context, deps *serviceStartupDeps, descriptor backgroundService) <-chan struct{} {
	if deps == nil || !deps.enabledServices[descriptor.mode] {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := descriptor.start(ctx); err != nil {
			errMsg := fmt.Errorf("%s failed: %w", descriptor.name, err)
			select {
			case deps.errCh <- errMsg:
			case <-ctx.Done():
			default:
				deps.logger.WarnContext(ctx, "dropping background service error", "service", descriptor.name, "error", errMsg)
			}
		}
	}()

	deps.logger.InfoContext(ctx, "background service started", "service", descriptor.name, "mode", descriptor.mode)
	return done
}

func newSchedulerBackgroundService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeScheduler,
		name: "scheduler",
		start: func(ctx context.Context) error {
			if deps == nil || deps.cfg == nil || deps.cfg.Config == nil {
				return nil
			}
			return RunScheduler(ctx, SchedulerRunConfig{
				Dispatcher: deps.cfg.Services.Dispatch,
				Scheduler:  deps.cfg.Config.Scheduler,
				Metrics:    deps.cfg.Services.Observability.Sink(),
				Logger:     deps.logger,
			})
		},
	}
}

// SchedulerRunConfig contains configuration for the scheduler loop.
type SchedulerRunConfig struct {
	Dispatcher core.Dispatcher
	Scheduler  config.SchedulerConfig
	Metrics    statsd.Sink
	Logger     *slog.Logger
}

// RunScheduler starts the cron-driven dispatcher loop and blocks until ctx is done.
func RunScheduler(ctx context.Context, cfg SchedulerRunConfig) error {
	if cfg.Dispatcher == nil {
		return errors.New("dispatcher is required")
	}
	runner, err := scheduler.NewRunner(scheduler.RunnerOptions{
		Dispatcher:  cfg.Dispatcher,
		Spec:        cfg.Scheduler.Cron,
		TickTimeout: cfg.Scheduler.TickTimeout,
		Logger:      cfg.Logger,
		Metrics:     cfg.Metrics,
	})
	if err != nil {
		return fmt.Errorf("create scheduler runner: %w", err)
	}
	return runner.Run(ctx)
}

func startBackgroundServices(deps *serviceStartupDeps) []backgroundServiceHandle {
	if deps == nil {
		return nil
	}
	services := []backgroundService{newSchedulerBackgroundService(deps)}
	handles := make([]backgroundServiceHandle, 0, len(services))
	for _, svc := range services {
		done := launchBackground(deps.ctx, deps, svc)
		if done == nil {
			continue
		}
		handles = append(handles, backgroundServiceHandle{mode: svc.mode, name: svc.name, done: done})
	}
	return handles
}

// RunServicesWithShutdown starts all enabled services and manages their lifecycle.
// It blocks until a shutdown signal is received or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}

	serviceCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	enabledServices, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}
	errCh := make(chan error, errorChannelBufferSize(enabledServices))

	deps := &serviceStartupDeps{
		ctx:             serviceCtx,
		cfg:             cfg,
		logger:          logger,
		enabledServices: enabledServices,
		errCh:           errCh,
	}
	httpServer := startHTTPServerIfEnabled(deps)
	backgrounds := startBackgroundServices(deps)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	return waitForShutdown(shutdownConfig{
		ctx:             serviceCtx,
		cancel:          cancel,
		quit:            quit,
		errCh:           errCh,
		httpServer:      httpServer,
		shutdownTimeout: cfg.Config.HTTP.ShutdownTimeout,
		logger:          logger,
		backgrounds:     backgrounds,
		metrics:         cfg.Services.Observability.MetricsSink,
	})
}

func errorChannelCapacity(enabled map[config.ServiceMode]bool) int {
	count := 0
	for _, mode := range config.ValidServiceModes() {
		if enabled[mode] {
			count++
		}
	}
	return count
}

func errorChannelBufferSize(enabled map[config.ServiceMode]bool) int {
	return errorChannelCapacity(enabled) + 1
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	ctx             context.Context
	cancel          context.CancelFunc
	quit            <-chan os.Signal
	errCh           <-chan error
	httpServer      *http.Server
	shutdownTimeout time.Duration
	logger          *slog.Logger
	backgrounds     []backgroundServiceHandle
	metrics         *statsd.Client
}

// waitForShutdown waits for a shutdown signal or a service error.
func waitForShutdown(cfg shutdownConfig) error {
	select {
	case <-cfg.quit:
		cfg.logger.Info("shutting down services...")
		cfg.cancel()
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		cfg.cancel()
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

// gracefulStop stops the HTTP server, then waits for background services.
func gracefulStop(cfg shutdownConfig) error {
	var stopErr error
	if cfg.httpServer != nil {
		// the service context is already cancelled
		timeout := cfg.shutdownTimeout
		if timeout <= 0 {
			timeout = shutdownWaitTimeout
		}
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(cfg.ctx), timeout)
		defer cancel()
		stopErr = ShutdownHTTPServer(ShutdownConfig{
			Context: shutdownCtx,
			Server:  cfg.httpServer,
			Logger:  cfg.logger,
		})
	}

	for _, svc := range cfg.backgrounds {
		waitForService(svc.done, svc.name, cfg.logger)
	}

	if cfg.metrics != nil {
		if err := cfg.metrics.Close(); err != nil {
			cfg.logger.Warn("close statsd client", "error", err)
		}
	}
	return stopErr
}

func waitForService(done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}
