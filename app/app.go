package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/searchktools/wire-server/config"
	"github.com/searchktools/wire-server/core"
	"github.com/searchktools/wire-server/core/middleware"
	"github.com/searchktools/wire-server/core/observability"
	"github.com/searchktools/wire-server/core/pools"
	"github.com/searchktools/wire-server/core/transport"
	"github.com/searchktools/wire-server/logging"
)

// App wires configuration, logging, telemetry and the engine together.
type App struct {
	cfg       *config.Config
	engine    *core.Engine
	logger    *slog.Logger
	logCloser io.Closer
	telemetry *observability.Providers
	workers   *pools.WorkerPool
}

// New builds an application from cfg: telemetry first, so the logger can
// bridge into it, then the engine and the configured middleware chain.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	providers, err := observability.Setup(ctx, observability.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Telemetry.ServiceName,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		ExportInterval: cfg.Telemetry.ExportInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up telemetry: %w", err)
	}

	logger, closer, err := logging.New(cfg.Logging, providers.LoggerProvider())
	if err != nil {
		_ = providers.Shutdown(ctx)
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	a := &App{
		cfg:       cfg,
		logger:    logger,
		logCloser: closer,
		telemetry: providers,
	}

	opts := []core.Option{
		core.WithLogger(logger),
		core.WithMonitor(observability.Global()),
		core.WithLimits(core.Limits{
			ReadBufferSize: cfg.Limits.ReadBufferSize,
			MaxHeaders:     cfg.Limits.MaxHeaders,
			MaxParams:      cfg.Limits.MaxParams,
		}),
		core.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
		core.WithListener(transport.Config{
			ReusePort:      cfg.Server.ReusePort,
			MaxConnections: cfg.Server.MaxConnections,
		}),
	}
	if cfg.Server.Workers > 0 {
		a.workers = pools.NewWorkerPool(cfg.Server.Workers)
		opts = append(opts, core.WithScheduler(a.workers))
	}
	a.engine = core.NewEngine(opts...)

	for _, mc := range cfg.Middleware {
		mw, err := middleware.Build(mc.Name, mc.Options, logger)
		if err != nil {
			a.close(ctx)
			return nil, fmt.Errorf("middleware %q: %w", mc.Name, err)
		}
		a.engine.Use(mw)
	}

	return a, nil
}

// Engine returns the underlying engine for route registration
func (a *App) Engine() *core.Engine {
	return a.engine
}

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM arrives, then shuts
// down gracefully within the configured shutdown timeout.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := a.cfg.Server.Addr()
	a.logger.Info("server starting",
		slog.String("addr", addr),
		slog.String("env", a.cfg.Env),
		slog.Int("routes", len(a.engine.Routes())),
		slog.Int("workers", a.cfg.Server.Workers),
	)

	serveErr := make(chan error, 1)
	go func() {
		// Detached: Shutdown, not the signal, ends in-flight connections.
		serveErr <- a.engine.Run(context.WithoutCancel(ctx), addr)
	}()

	var err error
	select {
	case err = <-serveErr:
	case <-ctx.Done():
		a.logger.Info("signal received, shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		err = a.engine.Shutdown(shutdownCtx)
		cancel()
		if serr := <-serveErr; !errors.Is(serr, core.ErrServerClosed) {
			err = errors.Join(err, serr)
		}
	}
	if errors.Is(err, core.ErrServerClosed) {
		err = nil
	}

	a.close(context.Background())
	return err
}

func (a *App) close(ctx context.Context) {
	if a.workers != nil {
		a.workers.Close()
	}
	if err := a.telemetry.Shutdown(ctx); err != nil {
		a.logger.Error("telemetry shutdown failed", slog.Any("error", err))
	}
	if a.logCloser != nil {
		_ = a.logCloser.Close()
	}
}
