package controller

import (
	"context"
	"fmt"

	"atxcontrol/internal/miot"
	"atxcontrol/pkg/atx"

	"go.uber.org/zap"
)

// Do dispatches an API action to the matching button operation
func (c *Controller) Do(ctx context.Context, action atx.Action) error {
	switch action {
	case atx.ActionShort:
		return c.PowerShort(ctx)
	case atx.ActionLong:
		return c.PowerLong(ctx)
	case atx.ActionReset:
		return c.Reset(ctx)
	default:
		return fmt.Errorf("%w: %q", atx.ErrInvalidAction, action)
	}
}

// PowerShort presses the power button briefly. With the smart-plug driver
// it toggles on the sensed status: On sends off_prop=off_value, Off and
// Unknown send prop=value.
func (c *Controller) PowerShort(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cfg := c.inner.config.Power
	if cfg.Driver == atx.DriverMiot {
		backend, err := c.sharedBackend()
		if err != nil {
			return err
		}

		status := c.resolveStatus(ctx, &c.inner)
		prop, value := cfg.Prop, cfg.Value
		switch status {
		case atx.PowerOn:
			prop, value = cfg.OffProp, cfg.OffValue
		case atx.PowerUnknown:
			c.logger.Warn("Power status unknown, sending power-on command")
		}

		c.logger.Info("ATX MiIoT: short press power",
			zap.Stringer("status", status),
			zap.String("prop", prop),
			zap.String("value", value))
		return backend.SetProp(ctx, prop, value)
	}

	executor, err := keyExecutor("power", c.inner.powerExecutor)
	if err != nil {
		return err
	}

	c.logger.Info("ATX: short press power button", zap.Duration("duration", ShortPress))
	return executor.Pulse(ctx, ShortPress)
}

// PowerLong holds the power button to force the host off. With the
// smart-plug driver it always sends off_prop=off_value.
func (c *Controller) PowerLong(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cfg := c.inner.config.Power
	if cfg.Driver == atx.DriverMiot {
		backend, err := c.sharedBackend()
		if err != nil {
			return err
		}

		c.logger.Info("ATX MiIoT: force power off",
			zap.String("prop", cfg.OffProp),
			zap.String("value", cfg.OffValue))
		return backend.SetProp(ctx, cfg.OffProp, cfg.OffValue)
	}

	executor, err := keyExecutor("power", c.inner.powerExecutor)
	if err != nil {
		return err
	}

	c.logger.Info("ATX: long press power button", zap.Duration("duration", LongPress))
	return executor.Pulse(ctx, LongPress)
}

// Reset presses the reset button
func (c *Controller) Reset(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cfg := c.inner.config.Reset
	if cfg.Driver == atx.DriverMiot {
		backend, err := c.sharedBackend()
		if err != nil {
			return err
		}

		c.logger.Info("ATX MiIoT: reset",
			zap.String("prop", cfg.Prop),
			zap.String("value", cfg.Value))
		return backend.SetProp(ctx, cfg.Prop, cfg.Value)
	}

	executor, err := keyExecutor("reset", c.inner.resetExecutor)
	if err != nil {
		return err
	}

	c.logger.Info("ATX: press reset button", zap.Duration("duration", ResetPress))
	return executor.Pulse(ctx, ResetPress)
}

// sharedBackend returns the MiIoT backend; caller holds the read lock
func (c *Controller) sharedBackend() (*miot.Backend, error) {
	if c.inner.miotBackend == nil {
		return nil, fmt.Errorf("MiIoT backend: %w", atx.ErrNotConfigured)
	}
	return c.inner.miotBackend, nil
}

func keyExecutor(name string, executor atx.Executor) (atx.Executor, error) {
	if executor == nil {
		return nil, fmt.Errorf("%s button: %w", name, atx.ErrNotConfigured)
	}
	return executor, nil
}
