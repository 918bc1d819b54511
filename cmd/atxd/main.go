package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"atxcontrol/internal/api"
	"atxcontrol/internal/clock"
	"atxcontrol/internal/config"
	"atxcontrol/internal/controller"
	"atxcontrol/internal/events"
	"atxcontrol/internal/shadowstate"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Bootstrap logger until the configured level is known
	bootstrap, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	config.LoadDotEnv(bootstrap)

	path := config.Path()
	cfg, err := config.Load(path, bootstrap)
	if err != nil {
		bootstrap.Fatal("Failed to load configuration", zap.String("path", path), zap.Error(err))
	}
	bootstrap.Sync()

	level := zap.NewAtomicLevelAt(parseLevel(cfg.LogLevel))
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = level
	logger, err := zapCfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, path, level, logger); err != nil {
		logger.Fatal("ATX daemon failed", zap.Error(err))
	}
}

func run(cfg config.Config, path string, level zap.AtomicLevel, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting ATX power control daemon",
		zap.String("config", path),
		zap.Bool("atx_enabled", cfg.ATX.Enabled),
		zap.Int("http_port", cfg.HTTP.Port))

	clk := clock.NewRealClock()

	ctrl := controller.New(cfg.ATX, controller.Drivers{}, clk, logger)
	if err := ctrl.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize ATX controller: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		ctrl.Shutdown(shutdownCtx)
	}()

	bus := events.NewBus(logger)
	shadow := shadowstate.NewTracker(clk)
	server := api.NewServer(ctrl, bus, shadow, "/dev", logger, cfg.HTTP.Port)

	watcher := config.NewWatcher(path, func(next config.Config) {
		level.SetLevel(parseLevel(next.LogLevel))
		if next.HTTP.Port != cfg.HTTP.Port {
			logger.Warn("HTTP port change requires a restart",
				zap.Int("current", cfg.HTTP.Port),
				zap.Int("configured", next.HTTP.Port))
		}
		if err := ctrl.Reload(ctx, next.ATX); err != nil {
			logger.Error("Failed to reload ATX controller", zap.Error(err))
			return
		}
		event := ctrl.CurrentStateEvent(ctx)
		shadow.UpdateCurrentInputs(event.State)
		bus.Publish(event)
	}, clk, logger)
	if err := watcher.Start(); err != nil {
		logger.Warn("Config hot reload disabled", zap.Error(err))
	} else {
		defer watcher.Stop()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Serve)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down gracefully...")
		return server.Stop()
	})

	logger.Info("ATX daemon running. Press Ctrl+C to exit.")
	return g.Wait()
}

func parseLevel(s string) zapcore.Level {
	level, err := zapcore.ParseLevel(s)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}
