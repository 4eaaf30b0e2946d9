package sidecar

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nucleus-apple/sidecar/internal/compiler"
	"github.com/nucleus-apple/sidecar/internal/metrics"
	"github.com/nucleus-apple/sidecar/internal/runner"
)

// DefaultTimeout bounds a single companion invocation
const DefaultTimeout = 30 * time.Second

// Options configures the build layer. It is always passed explicitly;
// nothing below this point reads the environment.
type Options struct {
	// GOOS is the target platform; empty means the running one
	GOOS string

	// SourceDir is the root of the companion's sources
	SourceDir string

	// CacheDir overrides the cache root; empty means the user cache directory
	CacheDir string

	// Product is the executable name
	Product string

	// Package and Version identify the distribution the sources belong to
	Package string
	Version string

	// Toolchain holds the build tool commands
	Toolchain compiler.Toolchain

	// Timeout bounds each invocation; zero means DefaultTimeout
	Timeout time.Duration

	// ForceRebuild makes Client.Run rebuild before every invocation
	ForceRebuild bool

	// SingleFlight collapses concurrent in-process builds of the same BuildID
	SingleFlight bool
}

// Option injects a collaborator into a Builder, Invoker or Client
type Option func(*deps)

type deps struct {
	runner   runner.Runner
	log      logrus.FieldLogger
	recorder metrics.Recorder
	now      func() time.Time
}

func newDeps(options []Option) *deps {
	silent := logrus.New()
	silent.SetOutput(io.Discard)

	d := &deps{
		runner:   runner.New(),
		log:      silent,
		recorder: metrics.NoopRecorder{},
		now:      time.Now,
	}

	for _, opt := range options {
		opt(d)
	}

	return d
}

// WithRunner sets the process runner
func WithRunner(r runner.Runner) Option {
	return func(d *deps) { d.runner = r }
}

// WithLogger sets the logger
func WithLogger(l logrus.FieldLogger) Option {
	return func(d *deps) { d.log = l }
}

// WithRecorder sets the metrics recorder
func WithRecorder(r metrics.Recorder) Option {
	return func(d *deps) { d.recorder = r }
}

// WithClock sets the time source used for durations and timestamps
func WithClock(now func() time.Time) Option {
	return func(d *deps) { d.now = now }
}
