// Package sidecar builds the companion executable on demand and invokes it.
//
// EnsureBuilt compiles the embedded sources at most once per distinct input:
// the sources, package version and backend are hashed into a BuildID, and a
// published executable under that id is reused across processes. Invoke runs
// the executable and decodes its single JSON response envelope.
package sidecar

import (
	"context"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/nucleus-apple/sidecar/internal/cache"
	"github.com/nucleus-apple/sidecar/internal/compiler"
	sidecarerrors "github.com/nucleus-apple/sidecar/internal/errors"
	"github.com/nucleus-apple/sidecar/internal/source"
	"github.com/nucleus-apple/sidecar/internal/utils"
)

// Build is the outcome of EnsureBuilt, for cache hits and misses alike
type Build struct {
	// ID is the content digest of the inputs
	ID string `json:"build_id" yaml:"build_id"`
	// Path is the stable executable path
	Path string `json:"path" yaml:"path"`
	// Backend is the tag of the backend selected for the sources
	Backend string `json:"backend" yaml:"backend"`
	// Cached is true when no build ran
	Cached bool `json:"cached" yaml:"cached"`
	// Duration is how long the build took; zero for cache hits
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Builder ensures the companion executable exists for the current sources
type Builder struct {
	opts  Options
	root  string
	deps  *deps
	group singleflight.Group
}

// NewBuilder creates a Builder. No filesystem or process work happens here.
func NewBuilder(opts Options, options ...Option) (*Builder, error) {
	if opts.SourceDir == "" {
		return nil, sidecarerrors.InvalidInput("source directory is required")
	}

	if err := compiler.CheckProduct(opts.Product); err != nil {
		return nil, err
	}

	if opts.Toolchain == (compiler.Toolchain{}) {
		opts.Toolchain = compiler.DefaultToolchain()
	}

	root, err := cache.ResolveRoot(opts.CacheDir)
	if err != nil {
		return nil, err
	}

	return &Builder{opts: opts, root: root, deps: newDeps(options)}, nil
}

// CacheRoot returns the resolved cache root
func (b *Builder) CacheRoot() string {
	return b.root
}

// EnsureBuilt returns the executable for the current sources, building and
// publishing it first unless a cached copy exists (or force is set)
func (b *Builder) EnsureBuilt(ctx context.Context, force bool) (*Build, error) {
	if err := utils.CheckPlatform(b.opts.GOOS); err != nil {
		return nil, err
	}

	info, err := os.Stat(b.opts.SourceDir)
	if err != nil {
		return nil, sidecarerrors.Wrap(err, sidecarerrors.KindInvalidSource, "sidecar sources not found").WithPath(b.opts.SourceDir)
	}

	if !info.IsDir() {
		return nil, sidecarerrors.New(sidecarerrors.KindInvalidSource, "sidecar sources are not a directory").WithPath(b.opts.SourceDir)
	}

	backend := compiler.Select(b.deps.runner, b.opts.SourceDir, b.opts.Toolchain)

	tree, err := source.Collect(b.opts.SourceDir, source.SwiftExt, backend.Manifests()...)
	if err != nil {
		return nil, err
	}

	id := cache.BuildID(tree, cache.Params{
		Package: b.opts.Package,
		Version: b.opts.Version,
		Backend: backend.Tag(),
	})

	log := b.deps.log.WithFields(logrus.Fields{
		"build_id": id,
		"backend":  backend.Tag(),
	})

	store, err := cache.NewStore(b.root)
	if err != nil {
		return nil, err
	}

	if !force {
		path, ok := store.Lookup(id, b.opts.Product)
		b.deps.recorder.IncCacheLookup(ok)

		if ok {
			log.WithField("path", path).Debug("Using cached sidecar")
			return &Build{ID: id, Path: path, Backend: backend.Tag(), Cached: true}, nil
		}
	}

	if !b.opts.SingleFlight {
		return b.build(ctx, log, store, backend, tree, id)
	}

	// Concurrent callers for the same id share the first caller's build (and context)
	v, err, _ := b.group.Do(id, func() (any, error) {
		return b.build(ctx, log, store, backend, tree, id)
	})
	if err != nil {
		return nil, err
	}

	build := *v.(*Build)
	return &build, nil
}

func (b *Builder) build(ctx context.Context, log logrus.FieldLogger, store *cache.Store, backend compiler.Backend, tree *source.Tree, id string) (*Build, error) {
	log.WithFields(logrus.Fields{"files": tree.Len(), "bytes": tree.Size()}).Info("Building sidecar")
	start := b.deps.now()

	output, err := store.TempPath(id, b.opts.Product)
	if err != nil {
		return nil, err
	}

	artifact, err := backend.Build(ctx, compiler.Request{
		Tree:       tree,
		ScratchDir: store.EntryDir(id),
		Product:    b.opts.Product,
		Output:     output,
		Log:        log,
	})
	if err != nil {
		b.deps.recorder.ObserveBuild(backend.Name(), b.deps.now().Sub(start), false)
		return nil, err
	}

	built := artifact.Path
	if built == "" {
		if built, err = compiler.Locate(artifact.Root, b.opts.Product); err != nil {
			b.deps.recorder.ObserveBuild(backend.Name(), b.deps.now().Sub(start), false)
			return nil, err
		}
	}

	path, err := store.Publish(id, b.opts.Product, built)
	if err != nil {
		b.deps.recorder.ObserveBuild(backend.Name(), b.deps.now().Sub(start), false)
		return nil, err
	}

	duration := b.deps.now().Sub(start)
	b.deps.recorder.ObserveBuild(backend.Name(), duration, true)

	b.record(log, store, tree, backend, id, path, duration)
	log.WithFields(logrus.Fields{"path": path, "duration": duration}).Info("Built sidecar")

	return &Build{ID: id, Path: path, Backend: backend.Tag(), Duration: duration}, nil
}

// record saves build metadata to the index; failures are only logged
func (b *Builder) record(log logrus.FieldLogger, store *cache.Store, tree *source.Tree, backend compiler.Backend, id, path string, duration time.Duration) {
	entry := cache.Entry{
		BuildID:    id,
		Backend:    backend.Tag(),
		Product:    b.opts.Product,
		Path:       path,
		Package:    b.opts.Package,
		Version:    b.opts.Version,
		SourceRoot: tree.Root,
		Files:      tree.Len(),
		BuiltAt:    b.deps.now().UTC(),
		Duration:   duration,
	}

	if info, err := os.Stat(path); err == nil {
		entry.Size = info.Size()
	}

	if sum, err := cache.HashFile(path); err == nil {
		entry.SHA256 = sum
	}

	if err := cache.NewIndex(store.Root()).Record(entry); err != nil {
		log.WithError(err).Warn("Failed to record build metadata")
	}
}
