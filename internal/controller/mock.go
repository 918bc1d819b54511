package controller

import (
	"context"
	"sync"
	"time"

	"atxcontrol/internal/miot"
	"atxcontrol/pkg/atx"
)

// MockExecutor implements atx.Executor for testing
type MockExecutor struct {
	Config  atx.KeyConfig
	InitErr error

	mu          sync.Mutex
	initialized bool
	pulses      []time.Duration
	shutdowns   int
}

// NewMockExecutor creates an executor for cfg
func NewMockExecutor(cfg atx.KeyConfig) *MockExecutor {
	return &MockExecutor{Config: cfg}
}

func (m *MockExecutor) Init(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InitErr != nil {
		return m.InitErr
	}
	m.initialized = true
	return nil
}

func (m *MockExecutor) Pulse(ctx context.Context, d time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pulses = append(m.pulses, d)
	return nil
}

func (m *MockExecutor) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initialized = false
	m.shutdowns++
	return nil
}

func (m *MockExecutor) IsInitialized() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initialized
}

// Pulses returns the durations of every pulse so far
func (m *MockExecutor) Pulses() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.pulses...)
}

// Shutdowns returns how many times Shutdown was called
func (m *MockExecutor) Shutdowns() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shutdowns
}

// MockSensor implements atx.Sensor for testing
type MockSensor struct {
	Config  atx.LedConfig
	InitErr error

	mu          sync.Mutex
	initialized bool
	status      atx.PowerStatus
	readErr     error
	shutdownErr error
}

// NewMockSensor creates a sensor for cfg that reads PowerUnknown
func NewMockSensor(cfg atx.LedConfig) *MockSensor {
	return &MockSensor{Config: cfg}
}

// SetReading scripts the next reads
func (m *MockSensor) SetReading(status atx.PowerStatus, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = status
	m.readErr = err
}

// SetShutdownError makes Shutdown fail with err
func (m *MockSensor) SetShutdownError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdownErr = err
}

func (m *MockSensor) Init(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InitErr != nil {
		return m.InitErr
	}
	m.initialized = true
	return nil
}

func (m *MockSensor) Read(ctx context.Context) (atx.PowerStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status, m.readErr
}

func (m *MockSensor) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initialized = false
	return m.shutdownErr
}

func (m *MockSensor) IsInitialized() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initialized
}

// MockDrivers hands out mock executors and sensors and remembers them
type MockDrivers struct {
	mu        sync.Mutex
	Executors []*MockExecutor
	Sensors   []*MockSensor

	// ExecutorInitErr and SensorInitErr are copied into every new mock
	ExecutorInitErr error
	SensorInitErr   error
}

// Drivers returns factories bound to m that use runner for the smart plug
func (m *MockDrivers) Drivers(runner miot.Runner) Drivers {
	return Drivers{
		NewExecutor: func(cfg atx.KeyConfig) (atx.Executor, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			e := NewMockExecutor(cfg)
			e.InitErr = m.ExecutorInitErr
			m.Executors = append(m.Executors, e)
			return e, nil
		},
		NewSensor: func(cfg atx.LedConfig) (atx.Sensor, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			s := NewMockSensor(cfg)
			s.InitErr = m.SensorInitErr
			m.Sensors = append(m.Sensors, s)
			return s, nil
		},
		Runner: runner,
	}
}

// Executor returns the mock built for the given device, or nil
func (m *MockDrivers) Executor(device string) *MockExecutor {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.Executors) - 1; i >= 0; i-- {
		if m.Executors[i].Config.Device == device {
			return m.Executors[i]
		}
	}
	return nil
}

// LastSensor returns the most recently built sensor, or nil
func (m *MockDrivers) LastSensor() *MockSensor {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sensors) == 0 {
		return nil
	}
	return m.Sensors[len(m.Sensors)-1]
}
