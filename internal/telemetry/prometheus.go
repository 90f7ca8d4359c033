package telemetry

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gridhold/server/internal/net/frame"
	"gridhold/server/internal/world/palette"
)

// PrometheusConfig configures the Prometheus backed metrics.
type PrometheusConfig struct {
	// Namespace prefixes every metric (default: "gridhold").
	Namespace string
	// Registry receives the collectors (default: a fresh registry).
	Registry *prometheus.Registry
}

// Prometheus records server metrics. It implements Metrics for keyed
// counters and the frame recorder used by message composers.
type Prometheus struct {
	registry *prometheus.Registry

	counters       *prometheus.CounterVec
	values         *prometheus.GaugeVec
	framesSent     *prometheus.CounterVec
	bytesSent      prometheus.Counter
	encodeFailures *prometheus.CounterVec
	activeSessions prometheus.Gauge
	tickDuration   prometheus.Histogram
	paletteBuilds  prometheus.Counter
}

// NewPrometheus registers the collectors and returns the recorder.
func NewPrometheus(cfg PrometheusConfig) *Prometheus {
	if cfg.Namespace == "" {
		cfg.Namespace = "gridhold"
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}
	factory := promauto.With(cfg.Registry)

	return &Prometheus{
		registry: cfg.Registry,

		counters: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "counter_total",
			Help:      "Keyed counters reported by server components",
		}, []string{"key"}),

		values: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      "value",
			Help:      "Keyed values reported by server components",
		}, []string{"key"}),

		framesSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "frames_sent_total",
			Help:      "Outbound frames handed to sessions, by message",
		}, []string{"message"}),

		bytesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "frame_bytes_sent_total",
			Help:      "Wire bytes of outbound frames handed to sessions",
		}),

		encodeFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "frame_encode_failures_total",
			Help:      "Outbound frames discarded because they failed to encode",
		}, []string{"message", "kind"}),

		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      "active_sessions",
			Help:      "Number of connected game sessions",
		}),

		tickDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      "tick_duration_seconds",
			Help:      "Simulation tick duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.6},
		}),

		paletteBuilds: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "palette_builds_total",
			Help:      "Region palettes built for constructed views",
		}),
	}
}

// Registry returns the registry holding the collectors.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

func (p *Prometheus) Add(key string, delta uint64) {
	p.counters.WithLabelValues(key).Add(float64(delta))
}

func (p *Prometheus) Store(key string, value uint64) {
	p.values.WithLabelValues(key).Set(float64(value))
}

// FrameSent counts a frame handed to a session.
func (p *Prometheus) FrameSent(name string, opcode uint8, size int) {
	p.framesSent.WithLabelValues(name).Inc()
	p.bytesSent.Add(float64(size))
}

// FrameRejected counts a frame discarded before it reached a session.
func (p *Prometheus) FrameRejected(name string, err error) {
	p.encodeFailures.WithLabelValues(name, ErrorKind(err)).Inc()
}

// SetActiveSessions records the number of connected sessions.
func (p *Prometheus) SetActiveSessions(n int) {
	p.activeSessions.Set(float64(n))
}

// ObserveTick records how long one simulation tick took.
func (p *Prometheus) ObserveTick(d time.Duration) {
	p.tickDuration.Observe(d.Seconds())
}

// PaletteBuilt counts one palette construction.
func (p *Prometheus) PaletteBuilt() {
	p.paletteBuilds.Inc()
}

// ErrorKind classifies protocol errors for metric labels.
func ErrorKind(err error) string {
	var (
		rangeErr  *frame.EncodingRangeError
		stateErr  *frame.ProtocolStateError
		sizeErr   *frame.FrameTooLargeError
		boundsErr *palette.BoundsError
	)
	switch {
	case err == nil:
		return "none"
	case errors.As(err, &rangeErr):
		return "encoding_range"
	case errors.As(err, &stateErr):
		return "protocol_state"
	case errors.As(err, &sizeErr):
		return "frame_too_large"
	case errors.As(err, &boundsErr):
		return "palette_bounds"
	default:
		return "other"
	}
}
