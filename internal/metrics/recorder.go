// Package metrics exposes build and invocation counters. The default
// NoopRecorder keeps the build path free of observability concerns; the
// Prometheus recorder is wired in when a metrics file is configured.
package metrics

import "time"

// Invocation outcomes
const (
	OutcomeOK       = "ok"
	OutcomeDomain   = "domain_error"
	OutcomeProtocol = "protocol_error"
	OutcomeTimeout  = "timeout"
	OutcomeFailed   = "failed"
)

// Recorder defines observability hooks for the build orchestrator and invoker
type Recorder interface {
	IncCacheLookup(hit bool)
	ObserveBuild(backend string, d time.Duration, success bool)
	ObserveInvocation(outcome string, d time.Duration)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured)
type NoopRecorder struct{}

func (NoopRecorder) IncCacheLookup(bool)                      {}
func (NoopRecorder) ObserveBuild(string, time.Duration, bool) {}
func (NoopRecorder) ObserveInvocation(string, time.Duration)  {}
