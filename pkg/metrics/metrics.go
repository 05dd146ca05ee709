// Package metrics records viewer lifecycle metrics in a Prometheus registry.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all viewer metrics. A nil *Registry records nothing.
type Registry struct {
	FramesTotal   prometheus.Counter
	TicksTotal    prometheus.Counter
	FetchesTotal  *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
	StaleTotal    *prometheus.CounterVec
	ActiveNodes   prometheus.Gauge

	registry *prometheus.Registry
}

// NewRegistry creates a registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Registry{
		FramesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "execgraph_frames_total",
			Help: "Animation frames processed",
		}),
		TicksTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "execgraph_physics_ticks_total",
			Help: "Frames in which the force simulation advanced",
		}),
		FetchesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "execgraph_fetches_total",
			Help: "Applied fetch results by source and outcome",
		}, []string{"source", "outcome"}),
		FetchDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "execgraph_fetch_duration_seconds",
			Help:    "Provider fetch latency",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"source"}),
		StaleTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "execgraph_stale_results_total",
			Help: "Fetch results discarded because a newer request superseded them",
		}, []string{"source"}),
		ActiveNodes: f.NewGauge(prometheus.GaugeOpts{
			Name: "execgraph_active_nodes",
			Help: "Nodes in the active simulation",
		}),
		registry: reg,
	}
}

// ObserveFetch records a fetch outcome and its latency.
func (r *Registry) ObserveFetch(source, outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.FetchesTotal.WithLabelValues(source, outcome).Inc()
	r.FetchDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}

// ObserveStale records a discarded result.
func (r *Registry) ObserveStale(source string) {
	if r == nil {
		return
	}
	r.StaleTotal.WithLabelValues(source).Inc()
}

// ObserveFrame records one animation frame.
func (r *Registry) ObserveFrame(ticked bool) {
	if r == nil {
		return
	}
	r.FramesTotal.Inc()
	if ticked {
		r.TicksTotal.Inc()
	}
}

// ObserveNodes sets the active node gauge.
func (r *Registry) ObserveNodes(n int) {
	if r == nil {
		return
	}
	r.ActiveNodes.Set(float64(n))
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (r *Registry) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
