package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "nucleus_sidecar"

// PrometheusRecorder implements Recorder using Prometheus metrics
type PrometheusRecorder struct {
	registry      *prom.Registry
	cacheLookups  *prom.CounterVec
	buildDuration *prom.HistogramVec
	builds        *prom.CounterVec
	invocations   *prom.HistogramVec
}

// NewPrometheusRecorder constructs the metrics and registers them on reg
// A nil reg gets a private registry
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}

	pr := &PrometheusRecorder{
		registry: reg,
		cacheLookups: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Executable cache lookups by result",
		}, []string{"result"}),
		buildDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Duration of companion builds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"backend"}),
		builds: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "builds_total",
			Help:      "Companion builds by backend and result",
		}, []string{"backend", "result"}),
		invocations: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "invocation_duration_seconds",
			Help:      "Duration of companion invocations by outcome",
			Buckets:   prom.DefBuckets,
		}, []string{"outcome"}),
	}

	reg.MustRegister(pr.cacheLookups, pr.buildDuration, pr.builds, pr.invocations)
	return pr
}

// Registry returns the registry the metrics are registered on
func (p *PrometheusRecorder) Registry() *prom.Registry {
	return p.registry
}

func (p *PrometheusRecorder) IncCacheLookup(hit bool) {
	if p == nil {
		return
	}

	res := "miss"
	if hit {
		res = "hit"
	}

	p.cacheLookups.WithLabelValues(res).Inc()
}

func (p *PrometheusRecorder) ObserveBuild(backend string, d time.Duration, success bool) {
	if p == nil {
		return
	}

	res := "failed"
	if success {
		res = "success"
	}

	p.buildDuration.WithLabelValues(backend).Observe(d.Seconds())
	p.builds.WithLabelValues(backend, res).Inc()
}

func (p *PrometheusRecorder) ObserveInvocation(outcome string, d time.Duration) {
	if p == nil {
		return
	}

	p.invocations.WithLabelValues(outcome).Observe(d.Seconds())
}

// WriteTextfile writes the current metrics in the text exposition format,
// for the node_exporter textfile collector
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}

	if err := prom.WriteToTextfile(path, p.registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}

	return nil
}
