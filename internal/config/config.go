// Package config provides the relay and chat client configuration.
//
// The configuration is a TOML document with Server, Crypto, Logging and
// Metrics sections. Only the key source is mandatory; everything else falls
// back to the reference defaults (127.0.0.1:8080, 1024-byte frames, one
// session).
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"ciphera/internal/crypto"
	"ciphera/internal/domain"
	"ciphera/internal/wire"
)

const (
	DefaultAddress     = "127.0.0.1:8080"
	DefaultMaxSessions = 1
	DefaultFullNotice  = "server full\n"
	DefaultLogLevel    = "NOTICE"

	// KeyEnv, when set, overrides every key source in the file.
	KeyEnv = "CIPHERA_KEY"
)

var errNoKey = errors.New("config: no key configured (Crypto.Key, Crypto.KeyFile or Crypto.Passphrase)")

// Server is the relay listener configuration.
type Server struct {
	// Address is the host:port the relay listens on and the client dials.
	Address string

	// MaxFrameSize bounds a single frame read.
	MaxFrameSize int

	// MaxSessions is the number of concurrently relayed pairs.
	MaxSessions int

	// FullNotice is sent verbatim to connections turned away at capacity.
	FullNotice string
}

func (s *Server) applyDefaults() {
	if s.Address == "" {
		s.Address = DefaultAddress
	}
	if s.MaxFrameSize == 0 {
		s.MaxFrameSize = wire.DefaultMaxFrameSize
	}
	if s.MaxSessions == 0 {
		s.MaxSessions = DefaultMaxSessions
	}
	if s.FullNotice == "" {
		s.FullNotice = DefaultFullNotice
	}
}

func (s *Server) validate() error {
	if s.MaxFrameSize <= domain.NonceSize {
		return fmt.Errorf("config: Server.MaxFrameSize %d must exceed the %d-byte nonce", s.MaxFrameSize, domain.NonceSize)
	}
	if s.MaxSessions < 0 {
		return fmt.Errorf("config: Server.MaxSessions %d is negative", s.MaxSessions)
	}
	return nil
}

// Crypto selects the AEAD suite and the source of the shared key. Exactly one
// of Key, KeyFile and Passphrase may be set.
type Crypto struct {
	Suite string

	// Key is the hex encoded 32-byte key.
	Key string

	// KeyFile is a file holding the hex encoded key, relative paths resolve
	// against the configuration file's directory.
	KeyFile string

	// Passphrase and Salt (hex, 16 bytes) derive the key with Argon2id.
	Passphrase string
	Salt       string
}

func (c *Crypto) validate() error {
	if _, err := crypto.ParseSuite(c.Suite); err != nil {
		return err
	}
	n := 0
	for _, s := range []string{c.Key, c.KeyFile, c.Passphrase} {
		if s != "" {
			n++
		}
	}
	if n > 1 {
		return errors.New("config: Crypto.Key, Crypto.KeyFile and Crypto.Passphrase are mutually exclusive")
	}
	if c.Passphrase != "" && c.Salt == "" {
		return errors.New("config: Crypto.Passphrase requires Crypto.Salt")
	}
	return nil
}

// Logging is the logging configuration.
type Logging struct {
	// Disable disables logging entirely.
	Disable bool

	// File specifies the log file, if omitted stdout will be used.
	File string

	// Level specifies the log level.
	Level string
}

// Metrics configures the Prometheus endpoint.
type Metrics struct {
	// Address to serve /metrics on, empty disables it.
	Address string
}

// Config is the top level configuration.
type Config struct {
	Server  *Server
	Crypto  *Crypto
	Logging *Logging
	Metrics *Metrics

	// dir is where relative KeyFile paths resolve.
	dir string
}

// FixupAndValidate applies defaults to config entries and validates them.
func (cfg *Config) FixupAndValidate() error {
	if cfg.Server == nil {
		cfg.Server = &Server{}
	}
	if cfg.Crypto == nil {
		cfg.Crypto = &Crypto{}
	}
	if cfg.Logging == nil {
		cfg.Logging = &Logging{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = &Metrics{}
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	cfg.Server.applyDefaults()

	if err := cfg.Server.validate(); err != nil {
		return err
	}
	return cfg.Crypto.validate()
}

// Suite returns the configured AEAD suite.
func (cfg *Config) Suite() crypto.Suite {
	s, _ := crypto.ParseSuite(cfg.Crypto.Suite)
	return s
}

// ResolveKey produces the shared key from the environment or the configured
// source.
func (cfg *Config) ResolveKey() (domain.SymmetricKey, error) {
	if v := os.Getenv(KeyEnv); v != "" {
		return crypto.ParseKey(v)
	}
	c := cfg.Crypto
	switch {
	case c.Key != "":
		return crypto.ParseKey(c.Key)
	case c.KeyFile != "":
		path := c.KeyFile
		if !filepath.IsAbs(path) && cfg.dir != "" {
			path = filepath.Join(cfg.dir, path)
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return domain.SymmetricKey{}, fmt.Errorf("config: reading key file: %w", err)
		}
		return crypto.ParseKey(string(b))
	case c.Passphrase != "":
		salt, err := hex.DecodeString(c.Salt)
		if err != nil {
			return domain.SymmetricKey{}, fmt.Errorf("config: decoding salt: %w", err)
		}
		return crypto.DeriveKey(c.Passphrase, salt)
	default:
		return domain.SymmetricKey{}, errNoKey
	}
}

// Default returns a validated configuration with every default applied and no
// key source.
func Default() *Config {
	cfg := new(Config)
	_ = cfg.FixupAndValidate()
	return cfg
}

// Load parses and validates the provided buffer b as a config file body and
// returns the Config.
func Load(b []byte) (*Config, error) {
	if b == nil {
		return nil, errors.New("No nil buffer as config file")
	}

	cfg := new(Config)
	if _, err := toml.Decode(string(b), cfg); err != nil {
		return nil, err
	}
	if err := cfg.FixupAndValidate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads, parses and validates the provided file and returns the
// Config.
func LoadFile(f string) (*Config, error) {
	b, err := os.ReadFile(f)
	if err != nil {
		return nil, err
	}
	cfg, err := Load(b)
	if err != nil {
		return nil, err
	}
	cfg.dir = filepath.Dir(f)
	return cfg, nil
}
