package relay

import "github.com/prometheus/client_golang/prometheus"

const (
	frameRelayed  = "relayed"
	frameShort    = "short"
	frameRejected = "unauthenticated"
)

// Metrics holds the relay's Prometheus collectors.
type Metrics struct {
	accepted prometheus.Counter
	rejected prometheus.Counter
	sessions prometheus.Gauge
	frames   *prometheus.CounterVec
}

// NewMetrics creates the relay collectors and registers them with reg. A nil
// reg leaves them unregistered, which is what tests want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		accepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ciphera_relay_accepted_connections_total",
			Help: "Number of accepted client connections",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ciphera_relay_rejected_connections_total",
			Help: "Number of connections turned away because the relay was full",
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ciphera_relay_live_sessions",
			Help: "Number of sessions currently relaying",
		}),
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ciphera_relay_frames_total",
			Help: "Number of frames read from clients by outcome",
		}, []string{"outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.accepted, m.rejected, m.sessions, m.frames)
	}
	return m
}
