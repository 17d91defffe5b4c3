package app

import (
	"path/filepath"

	"ciphera/internal/config"
)

// Overrides are command line values that take precedence over the
// configuration file. Empty fields are ignored.
type Overrides struct {
	Address  string
	Suite    string
	KeyFile  string
	LogLevel string
	Metrics  string
}

// LoadConfig reads path, or starts from the defaults when path is empty, and
// applies o.
func LoadConfig(path string, o Overrides) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path == "" {
		cfg = config.Default()
	} else if cfg, err = config.LoadFile(path); err != nil {
		return nil, err
	}

	if o.Address != "" {
		cfg.Server.Address = o.Address
	}
	if o.Suite != "" {
		cfg.Crypto.Suite = o.Suite
	}
	if o.KeyFile != "" {
		abs, err := filepath.Abs(o.KeyFile)
		if err != nil {
			return nil, err
		}
		cfg.Crypto.Key, cfg.Crypto.Passphrase = "", ""
		cfg.Crypto.KeyFile = abs
	}
	if o.LogLevel != "" {
		cfg.Logging.Level = o.LogLevel
	}
	if o.Metrics != "" {
		cfg.Metrics.Address = o.Metrics
	}
	if err := cfg.FixupAndValidate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
