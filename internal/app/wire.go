package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"ciphera/internal/client"
	"ciphera/internal/config"
	"ciphera/internal/crypto"
	"ciphera/internal/log"
	"ciphera/internal/relay"
)

// Wire bundles the shared dependencies built from a configuration.
type Wire struct {
	Config   *config.Config
	Log      *log.Backend
	Codec    *crypto.Codec
	Registry *prometheus.Registry
	Metrics  *relay.Metrics
}

// NewWire constructs the dependency graph from cfg. The key is resolved once
// here and never again.
func NewWire(cfg *config.Config) (*Wire, error) {
	lb, err := log.New(cfg.Logging.File, cfg.Logging.Level, cfg.Logging.Disable)
	if err != nil {
		return nil, err
	}

	key, err := cfg.ResolveKey()
	if err != nil {
		_ = lb.Close()
		return nil, err
	}
	codec, err := crypto.NewCodec(key, cfg.Suite())
	if err != nil {
		_ = lb.Close()
		return nil, fmt.Errorf("app: building codec: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Wire{
		Config:   cfg,
		Log:      lb,
		Codec:    codec,
		Registry: reg,
		Metrics:  relay.NewMetrics(reg),
	}, nil
}

// NewPairer builds a relay Pairer from the wired dependencies.
func (w *Wire) NewPairer() (*relay.Pairer, error) {
	return relay.NewPairer(relay.Config{
		Codec:        w.Codec,
		Log:          w.Log,
		Metrics:      w.Metrics,
		MaxFrameSize: w.Config.Server.MaxFrameSize,
		MaxSessions:  w.Config.Server.MaxSessions,
		FullNotice:   w.Config.Server.FullNotice,
	})
}

// Dial connects a chat client to the configured relay address.
func (w *Wire) Dial(ctx context.Context) (*client.Client, error) {
	return client.Dial(ctx, w.Config.Server.Address, w.Codec, client.Options{
		MaxFrameSize: w.Config.Server.MaxFrameSize,
		FullNotice:   w.Config.Server.FullNotice,
		Log:          w.Log.GetLogger("client"),
	})
}

// Close releases the log backend.
func (w *Wire) Close() error { return w.Log.Close() }
