package stream

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"polygongo/wire"
)

// Metrics holds the Prometheus instruments a Session reports to. The zero
// value is not usable; construct with NewMetrics.
type Metrics struct {
	connections  *prometheus.CounterVec
	disconnects  *prometheus.CounterVec
	framesTotal  prometheus.Counter
	itemsPerMsg  prometheus.Histogram
	eventsByKind *prometheus.CounterVec
}

// NewMetrics registers the stream package's instruments against reg. Pass
// prometheus.DefaultRegisterer unless the caller maintains its own registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		connections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "polygon_stream_connections_total",
			Help: "Total number of streaming connection attempts, by outcome.",
		}, []string{"status"}),
		disconnects: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "polygon_stream_disconnects_total",
			Help: "Total number of streaming session terminations, by reason.",
		}, []string{"reason"}),
		framesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "polygon_stream_frames_total",
			Help: "Total number of WebSocket frames received after the handshake completed.",
		}),
		itemsPerMsg: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "polygon_stream_items_per_frame",
			Help:    "Number of decoded items carried by a single WebSocket frame.",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
		}),
		eventsByKind: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "polygon_stream_events_total",
			Help: "Total number of data events delivered to a consumer, by event kind.",
		}, []string{"kind"}),
	}
}

// RecordConnection records a dial attempt's outcome.
func (m *Metrics) RecordConnection(success bool) {
	status := "success"
	if !success {
		status = "failed"
	}
	m.connections.WithLabelValues(status).Inc()
}

// RecordDisconnect records why a session ended.
func (m *Metrics) RecordDisconnect(reason string) {
	m.disconnects.WithLabelValues(reason).Inc()
}

// ObserveFrame records that a frame carrying n items was received.
func (m *Metrics) ObserveFrame(n int) {
	m.framesTotal.Inc()
	m.itemsPerMsg.Observe(float64(n))
}

// ObserveEvent records one delivered data event of the given kind.
func (m *Metrics) ObserveEvent(kind wire.EventKind) {
	m.eventsByKind.WithLabelValues(string(kind)).Inc()
}
