// Package bootstrap wires all dependencies and starts the service.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/artpar/duetgate/adapters/clock"
	duethttp "github.com/artpar/duetgate/adapters/http"
	"github.com/artpar/duetgate/adapters/idgen"
	"github.com/artpar/duetgate/adapters/memory"
	"github.com/artpar/duetgate/adapters/metrics"
	"github.com/artpar/duetgate/adapters/provider"
	"github.com/artpar/duetgate/adapters/sqlite"
	"github.com/artpar/duetgate/app"
	"github.com/artpar/duetgate/config"
	"github.com/artpar/duetgate/ports"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Config     *config.Config
	Holder     *config.Holder
	DB         *sqlite.DB
	Metrics    *metrics.Collector
	HTTPServer *http.Server

	// Services, exposed for the MCP and CLI surfaces.
	Accounts     *app.AccountService
	Orchestrator *app.OrchestratorService
	Generate     *app.GenerateService

	usageRecorder ports.UsageRecorder
}

// New creates and initializes the application from the given config
// file. A missing file falls back to environment-only configuration.
func New(configPath string) (*App, error) {
	cfg, err := config.LoadWithFallback(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	logger.Info().Msg("initializing duetgate")

	a := &App{
		Logger: logger,
		Config: cfg,
	}

	if cfg.Metrics.Enabled {
		a.Metrics = metrics.New()
		logger.Info().Msg("prometheus metrics enabled")
	}

	a.initConfigWatch(configPath)

	if err := a.initServices(); err != nil {
		return nil, err
	}
	a.initHTTPServer()

	return a, nil
}

// initConfigWatch starts hot reload when the config file exists on disk.
func (a *App) initConfigWatch(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}

	holder, err := config.NewHolder(path, a.Logger)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("config watch disabled")
		return
	}
	a.Holder = holder

	holder.OnChange(func(c *config.Config) {
		a.Config = c
		applyLogLevel(c.Logging.Level)
		if a.Metrics != nil {
			a.Metrics.ConfigReloads.Inc()
		}
	})
	holder.OnError(func(error) {
		if a.Metrics != nil {
			a.Metrics.ConfigReloadErrors.Inc()
		}
	})

	if err := holder.WatchFile(); err != nil {
		a.Logger.Warn().Err(err).Msg("config file watch failed")
	}
	holder.WatchSignals()
}

func (a *App) initServices() error {
	cfg := a.Config

	var (
		subStore   ports.SubscriptionStore
		usageStore ports.UsageStore
	)
	switch cfg.Storage.Driver {
	case "sqlite":
		db, err := sqlite.Open(cfg.Storage.DSN)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return fmt.Errorf("migrate: %w", err)
		}
		a.DB = db
		subStore = sqlite.NewSubscriptionStore(db)
		usageStore = sqlite.NewUsageStore(db)
		a.Logger.Info().Str("dsn", cfg.Storage.DSN).Msg("sqlite storage initialized")
	default:
		subStore = memory.NewSubscriptionStore()
		usageStore = memory.NewUsageStore()
		a.Logger.Info().Msg("in-memory storage initialized")
	}

	a.usageRecorder = NewLocalUsageRecorder(usageStore, cfg.Usage.BatchSize, cfg.Usage.FlushInterval, a.Logger)

	var collector ports.MetricsCollector = noopMetrics{}
	if a.Metrics != nil {
		collector = a.Metrics
	}

	v0, gateway := a.buildProviders()

	a.Orchestrator = app.NewOrchestratorService(app.OrchestratorDeps{
		V0:      v0,
		Gateway: gateway,
		Metrics: collector,
		Logger:  a.Logger,
	})
	a.Generate = app.NewGenerateService(app.GenerateDeps{
		Orchestrator: a.Orchestrator,
		Usage:        a.usageRecorder,
		Clock:        clock.Real{},
		IDGen:        idgen.UUID{},
		Metrics:      collector,
		Logger:       a.Logger,
	})
	a.Accounts = app.NewAccountService(app.AccountDeps{
		Store:  subStore,
		Clock:  clock.Real{},
		Logger: a.Logger,
	})

	return nil
}

func (a *App) buildProviders() (ports.Provider, ports.Provider) {
	cfg := a.Config

	var v0 ports.Provider = provider.NewV0(providerConfig(cfg.Providers.V0, a.Logger))
	var gateway ports.Provider = provider.NewGateway(providerConfig(cfg.Providers.Gateway, a.Logger))

	if cfg.Breaker.Enabled {
		bc := provider.BreakerConfig{
			MaxRequests:      uint32(cfg.Breaker.MaxRequests),
			Interval:         cfg.Breaker.Interval,
			Timeout:          cfg.Breaker.Timeout,
			FailureThreshold: uint32(cfg.Breaker.FailureThreshold),
		}
		v0 = provider.NewBreaker(v0, bc, a.Logger)
		gateway = provider.NewBreaker(gateway, bc, a.Logger)
		a.Logger.Info().Msg("provider circuit breakers enabled")
	}

	return v0, gateway
}

func providerConfig(ep config.ProviderEndpoint, logger zerolog.Logger) provider.Config {
	systemPrompt := ""
	if ep.SystemPromptFile != "" {
		data, err := os.ReadFile(ep.SystemPromptFile)
		if err != nil {
			logger.Warn().Err(err).Str("file", ep.SystemPromptFile).Msg("system prompt file not readable")
		} else {
			systemPrompt = string(data)
		}
	}

	return provider.Config{
		BaseURL:      ep.BaseURL,
		APIKey:       ep.APIKey,
		DefaultModel: ep.Model,
		SystemPrompt: systemPrompt,
		Timeout:      ep.Timeout,
	}
}

func (a *App) initHTTPServer() {
	cfg := a.Config

	handler := duethttp.NewHandler(duethttp.HandlerDeps{
		Generate:     a.Generate,
		Orchestrator: a.Orchestrator,
		Accounts:     a.Accounts,
		BaseURL:      cfg.Server.BaseURL,
		AuthServers:  cfg.Server.AuthServers,
		Logger:       a.Logger,
	})

	routerCfg := duethttp.RouterConfig{Metrics: a.Metrics}
	if cfg.Metrics.Enabled {
		routerCfg.MetricsHandler = promhttp.Handler()
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	a.HTTPServer = &http.Server{
		Addr:         addr,
		Handler:      duethttp.NewRouter(handler, a.Logger, routerCfg),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	a.Logger.Info().Str("addr", addr).Msg("http server configured")
}

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().Str("addr", a.HTTPServer.Addr).Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
		}
	}

	if a.usageRecorder != nil {
		if err := a.usageRecorder.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("usage recorder close error")
		}
	}

	if a.Holder != nil {
		a.Holder.Stop()
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("database close error")
		}
	}

	a.Logger.Info().Msg("shutdown complete")
	return nil
}

func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	applyLogLevel(cfg.Level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func applyLogLevel(levelStr string) {
	level, err := zerolog.ParseLevel(levelStr)
	if err != nil || levelStr == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

// noopMetrics discards all measurements when metrics are disabled.
type noopMetrics struct{}

func (noopMetrics) RecordRequest(string, int, time.Duration) {}
func (noopMetrics) RecordGeneration(string, bool, time.Duration) {}
func (noopMetrics) RecordSpend(float64, int) {}
