package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const metricsShutdownTimeout = 5 * time.Second

// RunRelay listens on the configured address and relays until ctx is
// cancelled. When a metrics address is configured /metrics is served
// alongside.
func RunRelay(ctx context.Context, w *Wire) error {
	p, err := w.NewPairer()
	if err != nil {
		return err
	}
	ln, err := net.Listen("tcp", w.Config.Server.Address)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return p.Serve(gctx, ln) })
	if addr := w.Config.Metrics.Address; addr != "" {
		srv := newMetricsServer(addr, w)
		g.Go(func() error {
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
			defer cancel()
			return srv.Shutdown(sctx)
		})
	}
	return g.Wait()
}

func newMetricsServer(addr string, w *Wire) *http.Server {
	log := w.Log.GetLogger("metrics")
	log.Noticef("Serving metrics on %s/metrics", addr)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(w.Registry, promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
