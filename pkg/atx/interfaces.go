package atx

import (
	"context"
	"time"
)

// Executor presses a button by driving a GPIO line or relay channel for a
// fixed duration. Implementations own the wire protocol.
type Executor interface {
	Init(ctx context.Context) error
	Pulse(ctx context.Context, d time.Duration) error
	Shutdown(ctx context.Context) error
	IsInitialized() bool
}

// Sensor reads the host power LED
type Sensor interface {
	Init(ctx context.Context) error
	Read(ctx context.Context) (PowerStatus, error)
	Shutdown(ctx context.Context) error
	IsInitialized() bool
}

// ExecutorFactory builds an uninitialized executor for a GPIO or USB relay key
type ExecutorFactory func(cfg KeyConfig) (Executor, error)

// SensorFactory builds an uninitialized LED sensor
type SensorFactory func(cfg LedConfig) (Sensor, error)
