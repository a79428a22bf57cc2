// Package prometheus provides the Prometheus-backed implementation of
// the client metrics interfaces.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/nfsclient/pkg/metrics"
)

// clientMetrics implements metrics.ClientMetrics.
type clientMetrics struct {
	calls       *prometheus.CounterVec
	retransmits *prometheus.CounterVec
	timeouts    *prometheus.CounterVec
	bytes       *prometheus.HistogramVec
	mounts      prometheus.Gauge
}

// NewClientMetrics creates a Prometheus-backed ClientMetrics.
//
// Returns nil when metrics are disabled (metrics.InitRegistry not
// called), which downstream consumers treat as no-op.
func NewClientMetrics() metrics.ClientMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &clientMetrics{
		calls: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nfsclient_rpc_calls_total",
				Help: "Total RPC calls issued, by program",
			},
			[]string{"program"},
		),
		retransmits: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nfsclient_rpc_retransmits_total",
				Help: "Total UDP retransmissions, by program",
			},
			[]string{"program"},
		),
		timeouts: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nfsclient_rpc_timeouts_total",
				Help: "Total calls that exhausted the retry budget, by program",
			},
			[]string{"program"},
		),
		bytes: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "nfsclient_transfer_bytes",
				Help: "Distribution of READ/WRITE payload sizes",
				Buckets: []float64{
					512,
					4096, // common rtpref/wtpref floor
					8192, // default scratch buffer
					32768,
					65536, // common server preference ceiling
				},
			},
			[]string{"direction"},
		),
		mounts: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "nfsclient_mounted_devices",
				Help: "Number of currently registered mounts",
			},
		),
	}
}

func (m *clientMetrics) RecordCall(program string) {
	m.calls.WithLabelValues(program).Inc()
}

func (m *clientMetrics) RecordRetransmit(program string) {
	m.retransmits.WithLabelValues(program).Inc()
}

func (m *clientMetrics) RecordTimeout(program string) {
	m.timeouts.WithLabelValues(program).Inc()
}

func (m *clientMetrics) RecordBytesTransferred(direction string, bytes uint64) {
	m.bytes.WithLabelValues(direction).Observe(float64(bytes))
}

func (m *clientMetrics) RecordMount(string) {
	m.mounts.Inc()
}

func (m *clientMetrics) RecordUnmount(string) {
	m.mounts.Dec()
}
