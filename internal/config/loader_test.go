package config

import (
	"os"
	"path/filepath"
	"testing"

	"atxcontrol/pkg/atx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const sampleConfig = `log_level: debug
http:
  port: 9090
atx:
  enabled: true
  power:
    driver: miot
    prop: "on"
    value: "True"
    off_prop: "on"
    off_value: "False"
  reset:
    driver: gpio
    device: /dev/gpiochip0
    pin: 17
    active_level: low
  status:
    driver: miot
    prop: "on"
    on_value: "True"
    off_value: "False"
  miot:
    did: "2094828328"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, sampleConfig)

	cfg, err := Load(path, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.True(t, cfg.ATX.Enabled)
	assert.Equal(t, atx.KeyConfig{Driver: atx.DriverMiot, Prop: "on", Value: "True", OffProp: "on", OffValue: "False"}, cfg.ATX.Power)
	assert.Equal(t, atx.KeyConfig{Driver: atx.DriverGpio, Device: "/dev/gpiochip0", Pin: 17, ActiveLevel: atx.ActiveLow}, cfg.ATX.Reset)
	assert.Equal(t, atx.StatusDriverMiot, cfg.ATX.Status.Driver)
	assert.Equal(t, "2094828328", cfg.ATX.Miot.Did)
	assert.Equal(t, atx.DefaultMiotCommand, cfg.ATX.Miot.Command, "command defaults when omitted")
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.False(t, cfg.ATX.Enabled)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "atx:\n  enabled: true\n")

	cfg, err := Load(path, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, cfg.ATX.Enabled)
	assert.Equal(t, DefaultHTTPPort, cfg.HTTP.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, atx.DriverNone, cfg.ATX.Power.Driver)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed yaml", "atx: [enabled"},
		{"unknown driver", "atx:\n  power:\n    driver: bluetooth\n"},
		{"unknown active level", "atx:\n  power:\n    driver: gpio\n    active_level: sideways\n"},
		{"unknown status driver", "atx:\n  status:\n    driver: camera\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content), zap.NewNop())
			assert.Error(t, err)
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	t.Setenv(EnvMiotDid, "42")
	t.Setenv(EnvMiotCommand, "/opt/mijia/bin/mijiaAPI")
	t.Setenv(EnvHTTPPort, "8181")
	t.Setenv(EnvLogLevel, "WARN")

	cfg, err := Load(path, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "42", cfg.ATX.Miot.Did)
	assert.Equal(t, "/opt/mijia/bin/mijiaAPI", cfg.ATX.Miot.Command)
	assert.Equal(t, 8181, cfg.HTTP.Port)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_EmptyDidOverrideClearsDevice(t *testing.T) {
	t.Setenv(EnvMiotDid, "")

	cfg, err := Load(writeConfig(t, sampleConfig), zap.NewNop())
	require.NoError(t, err)
	assert.False(t, cfg.ATX.Miot.IsConfigured())
}

func TestLoad_InvalidPortOverride(t *testing.T) {
	for _, port := range []string{"http", "0", "70000"} {
		t.Setenv(EnvHTTPPort, port)
		_, err := Load(writeConfig(t, sampleConfig), zap.NewNop())
		assert.Error(t, err, port)
	}
}

func TestPath(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	assert.Equal(t, DefaultPath, Path())

	t.Setenv(EnvConfigPath, "/etc/atxd/config.yaml")
	assert.Equal(t, "/etc/atxd/config.yaml", Path())
}

func TestLoadDotEnv(t *testing.T) {
	const key = "ATX_TEST_DOTENV_VALUE"
	require.NoError(t, os.Unsetenv(key))
	t.Cleanup(func() { os.Unsetenv(key) })

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(key+"=from-dotenv\n"), 0644))

	LoadDotEnv(zap.NewNop(), envFile)
	assert.Equal(t, "from-dotenv", os.Getenv(key))

	// missing file only warns
	LoadDotEnv(zap.NewNop(), filepath.Join(t.TempDir(), "missing.env"))
}
