// Author: momentics <momentics@gmail.com>
package control

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics promotes the teacher's ad hoc MetricsRegistry (control/metrics.go:
// a sync.RWMutex-guarded map[string]any) to real Prometheus collectors. It
// is deliberately not wired into the request dispatch path — a host mounts
// promhttp.Handler() as an ordinary request handler if it wants metrics
// exposed (spec §1 Non-goals exclude built-in observability surfaces, but
// ambient metrics collection inside the core is not a Non-goal).
type Metrics struct {
	Registry *prometheus.Registry

	ConnectionsAccepted prometheus.Counter
	ConnectionsActive    prometheus.Gauge
	ConnectionsRejected prometheus.Counter
	RequestsTotal       *prometheus.CounterVec
	BytesRead           prometheus.Counter
	BytesWritten        prometheus.Counter
	WebSocketFrames     *prometheus.CounterVec
	QueueDepth          prometheus.Gauge
}

// NewMetrics registers a fresh collector set on its own registry, so one
// process can run multiple Contexts without collisions.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		ConnectionsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "corehttpd_connections_accepted_total",
			Help: "Total accepted TCP connections.",
		}),
		ConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "corehttpd_connections_active",
			Help: "Currently open connections.",
		}),
		ConnectionsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "corehttpd_connections_rejected_total",
			Help: "Accepted connections closed without being handed to a worker because the hand-off queue was closed.",
		}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "corehttpd_requests_total",
			Help: "Completed requests by status class.",
		}, []string{"status"}),
		BytesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "corehttpd_bytes_read_total",
			Help: "Bytes read from client sockets.",
		}),
		BytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "corehttpd_bytes_written_total",
			Help: "Bytes written to client sockets.",
		}),
		WebSocketFrames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "corehttpd_websocket_frames_total",
			Help: "WebSocket frames processed by opcode.",
		}, []string{"opcode"}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "corehttpd_accept_queue_depth",
			Help: "Current depth of the acceptor-to-worker hand-off queue.",
		}),
	}
	reg.MustRegister(
		m.ConnectionsAccepted, m.ConnectionsActive, m.ConnectionsRejected,
		m.RequestsTotal, m.BytesRead, m.BytesWritten, m.WebSocketFrames, m.QueueDepth,
	)
	return m
}
