package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/trendscout/config"
	httpx "github.com/target/trendscout/internal/http"
)

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config      *config.AppConfig
	Services    ServiceContainer
	DB          *sql.DB
	RedisClient redis.UniversalClient
	ErrCh       chan<- error // Optional: receives listen failures
	Logger      *slog.Logger
}

// StartHTTPServer creates and starts the HTTP server.
// Returns the server instance for graceful shutdown.
func StartHTTPServer(cfg *HTTPServerConfig) *http.Server {
	if cfg == nil {
		return nil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	handler := BuildHTTPHandler(cfg.Services, healthChecks(cfg.DB, cfg.RedisClient), logger)
	return startServer(serverParams{
		Logger:            logger,
		Handler:           handler,
		Addr:              appCfg.HTTP.Addr,
		ReadHeaderTimeout: appCfg.HTTP.ReadHeaderTimeout,
		ErrCh:             cfg.ErrCh,
	})
}

// BuildHTTPHandler builds the API router from the service container.
func BuildHTTPHandler(services ServiceContainer, checks []httpx.HealthCheck, logger *slog.Logger) http.Handler {
	rs := httpx.RouterServices{
		Runner:  services.Pipeline,
		Runs:    services.Runs,
		Stream:  services.Stream,
		Cleaner: services.Cleanup,
		Health:  checks,
		Logger:  logger,
	}
	// a typed nil would register the tick route against a nil service
	if services.Dispatch != nil {
		rs.Dispatcher = services.Dispatch
	}
	return httpx.NewRouter(rs)
}

func healthChecks(db *sql.DB, redisClient redis.UniversalClient) []httpx.HealthCheck {
	var checks []httpx.HealthCheck
	if db != nil {
		checks = append(checks, httpx.HealthCheck{Name: "postgres", Check: db.PingContext})
	}
	if redisClient != nil {
		checks = append(checks, httpx.HealthCheck{Name: "redis", Check: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}})
	}
	return checks
}

type serverParams struct {
	Logger            *slog.Logger
	Handler           http.Handler
	Addr              string
	ReadHeaderTimeout time.Duration
	ErrCh             chan<- error
}

func startServer(p serverParams) *http.Server {
	// Guard against empty addr to avoid listening on Go default
	addr := p.Addr
	if addr == "" {
		addr = ":8080"
	}
	readHeader := p.ReadHeaderTimeout
	if readHeader <= 0 {
		readHeader = 10 * time.Second
	}

	// WriteTimeout stays unset: workflow runs and analysis streams are long-lived.
	server := &http.Server{
		Addr:              addr,
		Handler:           p.Handler,
		ReadHeaderTimeout: readHeader,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		p.Logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			p.Logger.Error("HTTP server failed", "error", err)
			if p.ErrCh != nil {
				select {
				case p.ErrCh <- fmt.Errorf("http server: %w", err):
				default:
				}
			}
		}
	}()

	return server
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Context context.Context
	Server  *http.Server
	Logger  *slog.Logger
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}
	if cfg.Logger != nil {
		cfg.Logger.Info("shutting down HTTP server")
	}

	if err := cfg.Server.Shutdown(cfg.Context); err != nil {
		return err
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("HTTP server stopped")
	}
	return nil
}
