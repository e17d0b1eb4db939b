package telemetry

import "github.com/h3platform/pciemon/internal/errors"

const (
	defaultDirPerm      = 0o755
	defaultDBPath       = "/var/lib/pciemon/telemetry.db"
	defaultBatchSize    = 64
	defaultBatchTimeout = 5 // seconds
)

type Config struct {
	DBPath       string
	BatchSize    int
	BatchTimeout int
}

func DefaultConfig() Config {
	return Config{
		DBPath:       defaultDBPath,
		BatchSize:    defaultBatchSize,
		BatchTimeout: defaultBatchTimeout,
	}
}

func (c Config) Validate() error {
	if c.DBPath == "" {
		return errors.New().New(ErrInvalidDBPath)
	}
	return nil
}
