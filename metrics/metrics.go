package metrics

import (
	"net/http"

	"github.com/TFMV/graphsurface/physics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the layout metrics
type Registry struct {
	TicksTotal        prometheus.Counter
	TickDuration      prometheus.Histogram
	Vertices          prometheus.Gauge
	PairsTotal        prometheus.Counter
	OverridesTotal    prometheus.Counter
	MaxDisplacement   prometheus.Gauge
	Stable            prometheus.Gauge
	HTTPRequestsTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewRegistry creates a registry with all layout metrics registered
func NewRegistry() *Registry {
	r := &Registry{
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "graphsurface",
			Name:      "ticks_total",
			Help:      "Simulation ticks run",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "graphsurface",
			Name:      "tick_duration_seconds",
			Help:      "Wall time of one simulation tick",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		Vertices: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "graphsurface",
			Name:      "vertices",
			Help:      "Vertices in the layout",
		}),
		PairsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "graphsurface",
			Name:      "force_pairs_total",
			Help:      "Pairwise force evaluations",
		}),
		OverridesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "graphsurface",
			Name:      "overrides_total",
			Help:      "Drag overrides applied",
		}),
		MaxDisplacement: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "graphsurface",
			Name:      "max_displacement",
			Help:      "Largest vertex displacement in the last tick",
		}),
		Stable: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "graphsurface",
			Name:      "stable",
			Help:      "1 when the last tick left the layout at rest",
		}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "graphsurface",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"route", "status"}),
		registry: prometheus.NewRegistry(),
	}

	r.registry.MustRegister(
		r.TicksTotal,
		r.TickDuration,
		r.Vertices,
		r.PairsTotal,
		r.OverridesTotal,
		r.MaxDisplacement,
		r.Stable,
		r.HTTPRequestsTotal,
	)
	return r
}

// ObserveTick records the stats of one tick
func (r *Registry) ObserveTick(s physics.Stats) {
	r.TicksTotal.Inc()
	r.TickDuration.Observe(s.Duration.Seconds())
	r.Vertices.Set(float64(s.Vertices))
	r.PairsTotal.Add(float64(s.Pairs))
	r.OverridesTotal.Add(float64(s.Overrides))
	r.MaxDisplacement.Set(s.MaxDisplacement)
	if s.Stable {
		r.Stable.Set(1)
	} else {
		r.Stable.Set(0)
	}
}

// RecordHTTPRequest counts a served request
func (r *Registry) RecordHTTPRequest(route, status string) {
	r.HTTPRequestsTotal.WithLabelValues(route, status).Inc()
}

// Gatherer exposes the underlying registry
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler serves the metrics in the Prometheus exposition format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
