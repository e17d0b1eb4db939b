package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/h3platform/pciemon/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(nil)
	require.NoError(t, err)

	assert.Equal(t, AllDevices, cfg.Device)
	assert.Empty(t, cfg.Ports)
	assert.Equal(t, ModuleThroughput, cfg.Module)
	assert.Equal(t, DefaultInterval, cfg.Interval)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.False(t, cfg.Telemetry)
	assert.False(t, cfg.Simulate)
}

func TestLoadFlags(t *testing.T) {
	cfg, err := load([]string{"-i", "0", "-p", "0,32", "-m", "error", "-t", "250"})
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.Device)
	assert.Equal(t, []int{0, 32}, cfg.Ports)
	assert.Equal(t, ModuleError, cfg.Module)
	assert.Equal(t, 250, cfg.Interval)
}

func TestLoadBarePortArgs(t *testing.T) {
	cfg, err := load([]string{"-p", "0", "32", "48"})
	require.NoError(t, err)

	assert.Equal(t, []int{0, 32, 48}, cfg.Ports)
}

func TestLoadInvalidModule(t *testing.T) {
	_, err := load([]string{"-m", "latency"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrInvalidModule, errors.CodeOf(err))
}

func TestLoadInvalidInterval(t *testing.T) {
	_, err := load([]string{"-t", "0"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrInvalidInterval, errors.CodeOf(err))

	_, err = load([]string{"-t", "-5"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrInvalidInterval, errors.CodeOf(err))
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pciemon.toml")
	content := `
device = 1
module = "error"
interval = 500
log-level = "debug"
telemetry = true
telemetry-db = "/tmp/pciemon-test.db"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv(envConfigPath, path)

	cfg, err := load(nil)
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Device)
	assert.Equal(t, ModuleError, cfg.Module)
	assert.Equal(t, 500, cfg.Interval)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Telemetry)
	assert.Equal(t, "/tmp/pciemon-test.db", cfg.TelemetryDB)
}

func TestLoadFlagsOverrideConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pciemon.toml")
	require.NoError(t, os.WriteFile(path, []byte("interval = 500\n"), 0o600))
	t.Setenv(envConfigPath, path)

	cfg, err := load([]string{"-t", "50"})
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Interval)
}

func TestLoadMalformedConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pciemon.toml")
	require.NoError(t, os.WriteFile(path, []byte("interval = =\n"), 0o600))
	t.Setenv(envConfigPath, path)

	_, err := load(nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrReadConfig, errors.CodeOf(err))
	assert.Contains(t, err.Error(), "Failed to read config file")
}

func TestLoadMissingConfigFile(t *testing.T) {
	t.Setenv(envConfigPath, filepath.Join(t.TempDir(), "absent.toml"))

	_, err := load(nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrReadConfig, errors.CodeOf(err))
}

func TestParsePorts(t *testing.T) {
	ports, err := ParsePorts([]string{"0,32", " 48 ", ""})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 32, 48}, ports)

	ports, err = ParsePorts(nil)
	require.NoError(t, err)
	assert.Empty(t, ports)

	_, err = ParsePorts([]string{"0,x"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrInvalidArgument, errors.CodeOf(err))
}
