// Package metrics exposes the Prometheus counters and gauges the
// transmitter, receiver and state machine update as the client runs.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PacketsSent     = prometheus.NewCounter(prometheus.CounterOpts{Name: "mqttc_packets_sent_total", Help: "Total control packets written to the transport"})
	PacketsReceived = prometheus.NewCounter(prometheus.CounterOpts{Name: "mqttc_packets_received_total", Help: "Total control packets read from the transport"})
	BytesSent       = prometheus.NewCounter(prometheus.CounterOpts{Name: "mqttc_bytes_sent_total", Help: "Total bytes written to the transport"})
	BytesReceived   = prometheus.NewCounter(prometheus.CounterOpts{Name: "mqttc_bytes_received_total", Help: "Total bytes read from the transport"})
	Reconnects      = prometheus.NewCounter(prometheus.CounterOpts{Name: "mqttc_reconnects_total", Help: "Total reconnect attempts entered"})
	ActiveConn      = prometheus.NewGauge(prometheus.GaugeOpts{Name: "mqttc_connection_active", Help: "1 if the client believes it holds a live connection"})
	FSMState        = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "mqttc_fsm_state", Help: "1 for the state the FSM currently occupies, 0 otherwise"}, []string{"state"})
)

var registerOnce sync.Once

// Register adds this package's collectors to the default Prometheus
// registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(PacketsSent, PacketsReceived, BytesSent, BytesReceived, Reconnects, ActiveConn, FSMState)
	})
}

// Handler serves /metrics for an embedder that already runs an HTTP mux.
func Handler() http.Handler {
	return promhttp.Handler()
}

// SetState zeroes every other state's gauge and sets current to 1, so the
// vector always reports exactly one active state.
func SetState(all []string, current string) {
	for _, s := range all {
		v := 0.0
		if s == current {
			v = 1.0
		}
		FSMState.WithLabelValues(s).Set(v)
	}
}
