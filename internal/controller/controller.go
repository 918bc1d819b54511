// Package controller implements the ATX power controller: it binds the power
// and reset buttons and the status sensor to their configured backends,
// supports hot reload, and infers the host power status.
package controller

import (
	"context"
	"fmt"
	"sync"

	"atxcontrol/internal/clock"
	"atxcontrol/internal/events"
	"atxcontrol/internal/miot"
	"atxcontrol/pkg/atx"

	"go.uber.org/zap"
)

// inner is the state bundle guarded by Controller.mu. Config and handles
// live together so a reader never sees one updated without the other.
type inner struct {
	config        atx.ControllerConfig
	powerExecutor atx.Executor
	resetExecutor atx.Executor
	ledSensor     atx.Sensor
	miotBackend   *miot.Backend // shared by every component with driver=miot
}

// Controller manages ATX power control through independent backends for
// each action. Actions and queries take the read lock for their whole
// duration; Init, Reload and Shutdown take the write lock.
type Controller struct {
	drivers Drivers
	clock   clock.Clock
	logger  *zap.Logger

	mu    sync.RWMutex
	inner inner
}

// New creates a controller for cfg. No backend is built until Init.
func New(cfg atx.ControllerConfig, drivers Drivers, clk clock.Clock, logger *zap.Logger) *Controller {
	if clk == nil {
		clk = clock.NewRealClock()
	}
	return &Controller{
		drivers: drivers.withDefaults(),
		clock:   clk,
		logger:  logger.Named("atx"),
		inner:   inner{config: cfg},
	}
}

// Disabled creates a controller with the default (disabled) configuration
func Disabled(logger *zap.Logger) *Controller {
	return New(atx.DefaultControllerConfig(), Drivers{}, nil, logger)
}

// Init builds every configured backend. A backend that fails to initialize
// is logged and left absent; Init itself always succeeds, so callers must
// use State or the readiness checks to learn what is usable.
func (c *Controller) Init(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.initLocked(ctx)
	return nil
}

func (c *Controller) initLocked(ctx context.Context) {
	cfg := c.inner.config
	if !cfg.Enabled {
		c.logger.Info("ATX disabled in configuration")
		return
	}

	c.logger.Info("Initializing ATX controller")

	if cfg.NeedsMiot() {
		if cfg.Miot.IsConfigured() {
			c.initMiot(ctx, cfg.Miot)
		} else {
			c.logger.Warn("Component(s) configured with MiIoT driver but MiIoT device ID not set")
		}
	}

	if cfg.Power.Driver != atx.DriverMiot && cfg.Power.IsConfigured() {
		c.inner.powerExecutor = c.initExecutor(ctx, "power", cfg.Power)
	}

	if cfg.Reset.Driver != atx.DriverMiot && cfg.Reset.IsConfigured() {
		c.inner.resetExecutor = c.initExecutor(ctx, "reset", cfg.Reset)
	}

	if cfg.Status.Driver == atx.StatusDriverLed && cfg.Status.IsConfigured() {
		c.inner.ledSensor = c.initSensor(ctx, cfg.Status.LedConfig())
	}

	c.logger.Info("ATX controller initialized",
		zap.Bool("miot", c.inner.miotBackend != nil),
		zap.Bool("power_executor", c.inner.powerExecutor != nil),
		zap.Bool("reset_executor", c.inner.resetExecutor != nil),
		zap.Bool("led_sensor", c.inner.ledSensor != nil))
}

func (c *Controller) initMiot(ctx context.Context, cfg atx.MiotConfig) {
	c.logger.Info("ATX using MiIoT backend", zap.String("did", cfg.Did))

	backend := miot.NewBackend(cfg, c.drivers.Runner, c.logger)
	if err := backend.Init(ctx); err != nil {
		c.logger.Warn("Failed to initialize MiIoT backend", zap.Error(err))
		return
	}
	c.inner.miotBackend = backend
}

func (c *Controller) initExecutor(ctx context.Context, name string, cfg atx.KeyConfig) atx.Executor {
	executor, err := c.drivers.NewExecutor(cfg)
	if err == nil {
		err = executor.Init(ctx)
	}
	if err != nil {
		c.logger.Warn("Failed to initialize executor",
			zap.String("key", name),
			zap.Stringer("driver", cfg.Driver),
			zap.Error(err))
		return nil
	}

	c.logger.Info("Executor initialized",
		zap.String("key", name),
		zap.Stringer("driver", cfg.Driver),
		zap.String("device", cfg.Device),
		zap.Uint32("pin", cfg.Pin))
	return executor
}

func (c *Controller) initSensor(ctx context.Context, cfg atx.LedConfig) atx.Sensor {
	sensor, err := c.drivers.NewSensor(cfg)
	if err == nil {
		err = sensor.Init(ctx)
	}
	if err != nil {
		c.logger.Warn("Failed to initialize LED sensor", zap.Error(err))
		return nil
	}

	c.logger.Info("LED sensor initialized",
		zap.String("gpio_chip", cfg.GpioChip),
		zap.Uint32("gpio_pin", cfg.GpioPin))
	return sensor
}

// Reload tears down every backend, swaps in cfg and initializes again. The
// phases take the lock separately, so a concurrent query may briefly see
// the controller with no backends.
func (c *Controller) Reload(ctx context.Context, cfg atx.ControllerConfig) error {
	c.logger.Info("Reloading ATX controller with new configuration")

	c.mu.Lock()
	c.shutdownLocked(ctx)
	c.mu.Unlock()

	c.mu.Lock()
	c.inner.config = cfg
	c.mu.Unlock()

	if err := c.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize after reload: %w", err)
	}

	c.logger.Info("ATX controller reloaded")
	return nil
}

// Shutdown releases every backend and keeps the configuration, so Init may
// be called again. Teardown errors are swallowed.
func (c *Controller) Shutdown(ctx context.Context) error {
	c.logger.Info("Shutting down ATX controller")

	c.mu.Lock()
	c.shutdownLocked(ctx)
	c.mu.Unlock()

	c.logger.Info("ATX controller shutdown complete")
	return nil
}

func (c *Controller) shutdownLocked(ctx context.Context) {
	if b := c.inner.miotBackend; b != nil {
		c.inner.miotBackend = nil
		c.logTeardown("miot", b.Shutdown(ctx))
	}
	if e := c.inner.powerExecutor; e != nil {
		c.inner.powerExecutor = nil
		c.logTeardown("power executor", e.Shutdown(ctx))
	}
	if e := c.inner.resetExecutor; e != nil {
		c.inner.resetExecutor = nil
		c.logTeardown("reset executor", e.Shutdown(ctx))
	}
	if s := c.inner.ledSensor; s != nil {
		c.inner.ledSensor = nil
		c.logTeardown("led sensor", s.Shutdown(ctx))
	}
}

func (c *Controller) logTeardown(component string, err error) {
	if err != nil {
		c.logger.Debug("Ignoring shutdown error", zap.String("component", component), zap.Error(err))
	}
}

// Config returns a copy of the active configuration
func (c *Controller) Config() atx.ControllerConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.inner.config
}

// State takes a fresh snapshot under a single read lock
func (c *Controller) State(ctx context.Context) atx.State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	in := &c.inner
	cfg := in.config

	var statusSupported bool
	switch cfg.Status.Driver {
	case atx.StatusDriverLed:
		statusSupported = in.ledSensor != nil && in.ledSensor.IsInitialized()
	case atx.StatusDriverMiot:
		statusSupported = in.miotBackend != nil
	}

	return atx.State{
		Available:       cfg.Enabled,
		PowerConfigured: cfg.Power.IsConfigured() && (cfg.Power.Driver != atx.DriverMiot || in.miotBackend != nil),
		ResetConfigured: cfg.Reset.IsConfigured() && (cfg.Reset.Driver != atx.DriverMiot || in.miotBackend != nil),
		PowerStatus:     c.resolveStatus(ctx, in),
		StatusSupported: statusSupported,
	}
}

// CurrentStateEvent returns the current snapshot as a state-changed event
// for publication on the event bus.
func (c *Controller) CurrentStateEvent(ctx context.Context) events.StateChanged {
	return events.NewStateChanged(c.State(ctx), c.clock.Now())
}

// IsAvailable reports whether ATX control is enabled
func (c *Controller) IsAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.inner.config.Enabled
}

// IsPowerReady reports whether the power button backend is initialized
func (c *Controller) IsPowerReady() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.keyReady(c.inner.config.Power, c.inner.powerExecutor)
}

// IsResetReady reports whether the reset button backend is initialized
func (c *Controller) IsResetReady() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.keyReady(c.inner.config.Reset, c.inner.resetExecutor)
}

func (c *Controller) keyReady(cfg atx.KeyConfig, executor atx.Executor) bool {
	if cfg.Driver == atx.DriverMiot {
		return c.inner.miotBackend != nil && c.inner.miotBackend.IsInitialized()
	}
	return executor != nil && executor.IsInitialized()
}

// PowerStatus returns the sensed power status. Sensing failures are already
// folded into PowerUnknown, so the error is always nil.
func (c *Controller) PowerStatus(ctx context.Context) (atx.PowerStatus, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resolveStatus(ctx, &c.inner), nil
}
