// Package miot drives a MiIoT smart plug (such as an LKRQ power-on card)
// through the mijiaAPI command-line tool. Each get or set is one child
// process bounded by CommandTimeout.
package miot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"atxcontrol/pkg/atx"

	"go.uber.org/zap"
)

// CommandTimeout bounds every tool invocation
const CommandTimeout = 30 * time.Second

// Backend issues get/set property requests for one device
type Backend struct {
	config      atx.MiotConfig
	runner      Runner
	logger      *zap.Logger
	timeout     time.Duration
	initialized atomic.Bool
}

// NewBackend creates an unready backend. A nil runner selects ExecRunner.
func NewBackend(config atx.MiotConfig, runner Runner, logger *zap.Logger) *Backend {
	if runner == nil {
		runner = NewExecRunner()
	}
	if config.Command == "" {
		config.Command = atx.DefaultMiotCommand
	}
	return &Backend{
		config:  config,
		runner:  runner,
		logger:  logger.Named("miot"),
		timeout: CommandTimeout,
	}
}

// IsConfigured reports whether a device ID is set
func (b *Backend) IsConfigured() bool {
	return b.config.IsConfigured()
}

// IsInitialized reports whether the backend is ready
func (b *Backend) IsInitialized() bool {
	return b.initialized.Load()
}

// Init marks the backend ready without contacting the device; connectivity
// is verified on first use. An unconfigured backend stays unready and Init
// still succeeds.
func (b *Backend) Init(ctx context.Context) error {
	if !b.config.IsConfigured() {
		b.logger.Debug("MiIoT backend not configured, skipping init")
		return nil
	}

	b.initialized.Store(true)
	b.logger.Info("MiIoT backend initialized, device connectivity will be verified on first use",
		zap.String("did", b.config.Did),
		zap.String("command", b.config.Command))
	return nil
}

// Shutdown marks the backend unready. In-flight calls keep their own time box.
func (b *Backend) Shutdown(ctx context.Context) error {
	b.initialized.Store(false)
	b.logger.Debug("MiIoT backend shutdown complete")
	return nil
}

// SetProp runs `set --did <DID> --prop_name <prop> --value <value>`
func (b *Backend) SetProp(ctx context.Context, prop, value string) error {
	b.logger.Info("Setting property",
		zap.String("did", b.config.Did),
		zap.String("prop", prop),
		zap.String("value", value))

	args := []string{"set", "--did", b.config.Did, "--prop_name", prop, "--value", value}
	if _, err := b.run(ctx, args); err != nil {
		return fmt.Errorf("mijiaAPI set %s=%s: %w", prop, value, err)
	}

	b.logger.Debug("Set command sent successfully")
	return nil
}

// GetProp runs `get --did <DID> --prop_name <prop>` and returns the parsed value
func (b *Backend) GetProp(ctx context.Context, prop string) (string, error) {
	output, err := b.runGet(ctx, prop)
	if err != nil {
		return "", err
	}

	value, ok := ParseValue(output)
	if !ok {
		return "", fmt.Errorf("mijiaAPI get %s: %w: %q", prop, atx.ErrParse, strings.TrimSpace(output))
	}
	return value, nil
}

// GetPowerStatus reads prop and compares it with onValue. An unready backend
// answers PowerUnknown without spawning anything; output that cannot be
// parsed also yields PowerUnknown with a nil error.
func (b *Backend) GetPowerStatus(ctx context.Context, prop, onValue string) (atx.PowerStatus, error) {
	if !b.IsInitialized() {
		return atx.PowerUnknown, nil
	}

	output, err := b.runGet(ctx, prop)
	if err != nil {
		return atx.PowerUnknown, err
	}

	status := ParsePowerStatus(output, onValue)
	if status == atx.PowerUnknown {
		b.logger.Warn("Could not parse MiIoT output", zap.String("output", strings.TrimSpace(output)))
	}
	b.logger.Debug("Power status read",
		zap.String("did", b.config.Did),
		zap.String("prop", prop),
		zap.Stringer("status", status))
	return status, nil
}

func (b *Backend) runGet(ctx context.Context, prop string) (string, error) {
	args := []string{"get", "--did", b.config.Did, "--prop_name", prop}
	result, err := b.run(ctx, args)
	if err != nil {
		return "", fmt.Errorf("mijiaAPI get %s: %w", prop, err)
	}
	return result.Stdout, nil
}

// run applies the timeout and exit-code policy shared by get and set
func (b *Backend) run(parent context.Context, args []string) (Result, error) {
	ctx, cancel := context.WithTimeout(parent, b.timeout)
	defer cancel()

	b.logger.Debug("Running command",
		zap.String("command", b.config.Command),
		zap.Strings("args", args))

	result, err := b.runner.Run(ctx, b.config.Command, args)
	if err != nil {
		if parent.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			b.logger.Warn("Command timed out, process killed", zap.Duration("timeout", b.timeout))
			return result, fmt.Errorf("%w after %s", atx.ErrTimeout, b.timeout)
		}
		return result, err
	}

	b.logger.Debug("Command finished",
		zap.Int("exit", result.ExitCode),
		zap.String("stdout", strings.TrimSpace(result.Stdout)),
		zap.String("stderr", strings.TrimSpace(result.Stderr)))

	if result.ExitCode != 0 {
		return result, fmt.Errorf("%w (exit %d): stdout=%s, stderr=%s",
			atx.ErrCommandFailed,
			result.ExitCode,
			strings.TrimSpace(result.Stdout),
			strings.TrimSpace(result.Stderr))
	}
	return result, nil
}
