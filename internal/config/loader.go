// Package config loads the service configuration from a YAML file, applies
// environment overrides and watches the file for changes.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"atxcontrol/pkg/atx"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultPath is read when ATX_CONFIG is unset
	DefaultPath = "config.yaml"

	// DefaultHTTPPort is the API port when none is configured
	DefaultHTTPPort = 8088
)

// Environment variables that override the file
const (
	EnvConfigPath  = "ATX_CONFIG"
	EnvMiotDid     = "ATX_MIOT_DID"
	EnvMiotCommand = "ATX_MIOT_COMMAND"
	EnvHTTPPort    = "ATX_HTTP_PORT"
	EnvLogLevel    = "ATX_LOG_LEVEL"
)

// HTTPConfig configures the API listener
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Config represents the config.yaml structure
type Config struct {
	LogLevel string               `yaml:"log_level"`
	HTTP     HTTPConfig           `yaml:"http"`
	ATX      atx.ControllerConfig `yaml:"atx"`
}

// Default returns a config with ATX disabled
func Default() Config {
	return Config{
		LogLevel: "info",
		HTTP:     HTTPConfig{Port: DefaultHTTPPort},
		ATX:      atx.DefaultControllerConfig(),
	}
}

// Path returns the config path from ATX_CONFIG or DefaultPath
func Path() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return DefaultPath
}

// LoadDotEnv loads a .env file into the process environment. A missing file
// is not an error.
func LoadDotEnv(logger *zap.Logger, filenames ...string) {
	if err := godotenv.Load(filenames...); err != nil {
		logger.Warn("No .env file found, using environment variables", zap.Error(err))
	}
}

// Load reads path and applies environment overrides. A missing file yields
// the defaults so the service can start unconfigured.
func Load(path string, logger *zap.Logger) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Warn("Config file not found, ATX disabled unless overridden", zap.String("path", path))
	case err != nil:
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		logger.Debug("Config file loaded", zap.String("path", path))
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	normalize(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv(EnvMiotDid); ok {
		cfg.ATX.Miot.Did = v
	}
	if v := os.Getenv(EnvMiotCommand); v != "" {
		cfg.ATX.Miot.Command = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvHTTPPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return fmt.Errorf("invalid %s %q", EnvHTTPPort, v)
		}
		cfg.HTTP.Port = port
	}
	return nil
}

func normalize(cfg *Config) {
	if cfg.ATX.Miot.Command == "" {
		cfg.ATX.Miot.Command = atx.DefaultMiotCommand
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = DefaultHTTPPort
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}
