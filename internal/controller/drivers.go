package controller

import (
	"fmt"
	"time"

	"atxcontrol/internal/miot"
	"atxcontrol/pkg/atx"
)

// Button press durations shared by every GPIO and USB relay key
const (
	ShortPress = 500 * time.Millisecond
	LongPress  = 5 * time.Second
	ResetPress = 500 * time.Millisecond
)

// Drivers supplies the hardware collaborators. Nil fields fall back to
// factories that report the driver as unavailable and to miot.ExecRunner.
type Drivers struct {
	NewExecutor atx.ExecutorFactory
	NewSensor   atx.SensorFactory
	Runner      miot.Runner
}

func (d Drivers) withDefaults() Drivers {
	if d.NewExecutor == nil {
		d.NewExecutor = unavailableExecutor
	}
	if d.NewSensor == nil {
		d.NewSensor = unavailableSensor
	}
	if d.Runner == nil {
		d.Runner = miot.NewExecRunner()
	}
	return d
}

func unavailableExecutor(cfg atx.KeyConfig) (atx.Executor, error) {
	return nil, fmt.Errorf("%w: no %s executor in this build", atx.ErrDriverUnavailable, cfg.Driver)
}

func unavailableSensor(cfg atx.LedConfig) (atx.Sensor, error) {
	return nil, fmt.Errorf("%w: no LED sensor in this build", atx.ErrDriverUnavailable)
}
