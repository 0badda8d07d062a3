package rest

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments a Dispatcher reports REST call
// latency and outcome to. A nil *Metrics is safe to use (all methods become
// no-ops), so Dispatcher.Metrics can be left unset in tests.
type Metrics struct {
	latency *prometheus.HistogramVec
}

// NewMetrics registers the rest package's instruments against reg. Pass
// prometheus.DefaultRegisterer unless the caller maintains its own registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "polygon_rest_request_duration_seconds",
			Help:    "Latency of REST requests issued through the endpoint dispatcher, by method and outcome status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "status"}),
	}
}

// observe records one completed request's latency. status is "200", "429",
// "error" (request never reached the server), etc.
func (m *Metrics) observe(method, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.latency.WithLabelValues(method, status).Observe(d.Seconds())
}

func statusLabel(code int) string {
	if code == 0 {
		return "error"
	}
	return strconv.Itoa(code)
}
