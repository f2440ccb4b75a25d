// Package obs contains the Prometheus metrics of the receiver.
package obs

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is the set of metrics exported by the receiver.
type Metrics struct {
	ConnectionsActive     prometheus.Gauge
	RequestsTotal         *prometheus.CounterVec
	StreamGrantsTotal     prometheus.Counter
	StreamEvictionsTotal  prometheus.Counter
	KeyGenerationDuration prometheus.Histogram
	RTPPacketsTotal       prometheus.Counter
	RTPBytesTotal         prometheus.Counter
	RTPPacketsLostTotal   prometheus.Counter
}

// NewMetrics allocates the metrics and registers them into reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		ConnectionsActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "airsink_connections_active",
			Help: "Open control connections",
		}),
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "airsink_requests_total",
			Help: "Requests by method and status",
		}, []string{"method", "status"}),
		StreamGrantsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "airsink_stream_grants_total",
			Help: "Stream claims granted",
		}),
		StreamEvictionsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "airsink_stream_evictions_total",
			Help: "Stream holders evicted by a new claim",
		}),
		KeyGenerationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "airsink_key_generation_duration_seconds",
			Help:    "FairPlay key generation time",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		}),
		RTPPacketsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "airsink_rtp_packets_total",
			Help: "RTP packets received",
		}),
		RTPBytesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "airsink_rtp_bytes_total",
			Help: "RTP payload bytes received",
		}),
		RTPPacketsLostTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "airsink_rtp_packets_lost_total",
			Help: "RTP packets never received",
		}),
	}
}

// ObserveRequest counts a request.
func (m *Metrics) ObserveRequest(method string, status int) {
	if method == "" {
		method = "unknown"
	}
	m.RequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
}
