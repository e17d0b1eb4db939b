package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/h3platform/pciemon/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Module selects which counter family the sampling loop reads.
type Module string

const (
	ModuleThroughput Module = "throughput"
	ModuleError      Module = "error"
)

func (m Module) IsValid() bool {
	switch m {
	case ModuleThroughput, ModuleError:
		return true
	default:
		return false
	}
}

func (m Module) String() string {
	return string(m)
}

const (
	// AllDevices monitors every enumerated device.
	AllDevices = -1

	DefaultInterval = 100 // milliseconds
	DefaultLogLevel = "info"

	envPrefix     = "PCIEMON"
	envConfigPath = "PCIEMON_CONFIG"
)

type Config struct {
	Device      int
	Ports       []int
	Module      Module
	Interval    int
	LogLevel    string
	Telemetry   bool
	TelemetryDB string
	Simulate    bool
}

// Load reads configuration from defaults, an optional TOML file, PCIEMON_*
// environment variables and command-line flags, in ascending precedence.
func Load() (*Config, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Config, error) {
	errFactory := errors.New()

	fs := pflag.NewFlagSet("pciemon", pflag.ContinueOnError)
	fs.IntP("device", "i", AllDevices, "device index to monitor (default: all)")
	fs.StringSliceP("ports", "p", nil, "port indices (comma separated, default: all)")
	fs.StringP("module", "m", ModuleThroughput.String(), "module: throughput | error")
	fs.IntP("interval", "t", DefaultInterval, "sampling interval in milliseconds")
	fs.String("log-level", DefaultLogLevel, "log level: debug | info | warn | error")
	fs.Bool("telemetry", false, "persist samples to the telemetry database")
	fs.String("telemetry-db", "", "telemetry database path")
	fs.Bool("simulate", false, "run against the simulated switch")

	if err := fs.Parse(args); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := os.Getenv(envConfigPath); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errFactory.WithMessage(errors.ErrReadConfig,
				"Failed to read config file").WithData(err.Error())
		}
	} else {
		v.SetConfigName("pciemon")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errFactory.WithMessage(errors.ErrReadConfig,
					"Failed to read config file").WithData(err.Error())
			}
		}
	}

	ports, err := ParsePorts(append(v.GetStringSlice("ports"), fs.Args()...))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Device:      v.GetInt("device"),
		Ports:       ports,
		Module:      Module(v.GetString("module")),
		Interval:    v.GetInt("interval"),
		LogLevel:    v.GetString("log-level"),
		Telemetry:   v.GetBool("telemetry"),
		TelemetryDB: v.GetString("telemetry-db"),
		Simulate:    v.GetBool("simulate"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects configurations before any device interaction happens.
func (c *Config) Validate() error {
	errFactory := errors.New()

	if !c.Module.IsValid() {
		return errFactory.WithData(errors.ErrInvalidModule, c.Module.String())
	}

	if c.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Interval)
	}

	return nil
}

// ParsePorts flattens port index arguments. Each element may itself be a
// comma-separated list, matching the original tool's "-p 0,32" and
// "-p 0 32" forms.
func ParsePorts(values []string) ([]int, error) {
	errFactory := errors.New()

	var ports []int
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}

			port, err := strconv.Atoi(part)
			if err != nil {
				return nil, errFactory.WithData(errors.ErrInvalidArgument, part)
			}
			ports = append(ports, port)
		}
	}

	return ports, nil
}
