package sidecar

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nucleus-apple/sidecar/internal/cache"
	"github.com/nucleus-apple/sidecar/internal/compiler"
	sidecarerrors "github.com/nucleus-apple/sidecar/internal/errors"
	"github.com/nucleus-apple/sidecar/internal/runner"
	"github.com/nucleus-apple/sidecar/internal/runner/runnertest"
)

const testProduct = "nucleus-apple-sidecar"

var directSources = map[string]string{
	"main.swift":              "print(\"hello\")",
	"Core/Output.swift":       "struct Output {}",
	"CLI/Commands/Ping.swift": "struct Ping {}",
}

type recorder struct {
	mu     sync.Mutex
	hits   int
	misses int
	builds map[bool]int
}

func (r *recorder) IncCacheLookup(hit bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if hit {
		r.hits++
	} else {
		r.misses++
	}
}

func (r *recorder) ObserveBuild(_ string, _ time.Duration, success bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.builds == nil {
		r.builds = map[bool]int{}
	}
	r.builds[success]++
}

func (r *recorder) ObserveInvocation(string, time.Duration) {}

func writeSources(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func argAfter(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}

	return ""
}

// toolchain emulates swiftc and swift build writing their outputs
func toolchain(t *testing.T, binary string) func(context.Context, runner.Command) runnertest.Response {
	return func(_ context.Context, cmd runner.Command) runnertest.Response {
		switch filepath.Base(cmd.Path) {
		case "swiftc":
			out := argAfter(cmd.Args, "-o")
			require.NoError(t, os.WriteFile(out, []byte(binary), 0o755))
		case "swift":
			scratch := argAfter(cmd.Args, "--scratch-path")
			product := argAfter(cmd.Args, "--product")
			for _, dir := range []string{"arm64-apple-macosx/debug", "arm64-apple-macosx/release"} {
				out := filepath.Join(scratch, filepath.FromSlash(dir), product)
				require.NoError(t, os.MkdirAll(filepath.Dir(out), 0o755))
				require.NoError(t, os.WriteFile(out, []byte(binary+" "+filepath.Base(dir)), 0o755))
			}
		}

		return runnertest.Response{}
	}
}

type fixture struct {
	src      string
	cacheDir string
	fake     *runnertest.Fake
	recorder *recorder
}

func newFixture(t *testing.T, files map[string]string) *fixture {
	t.Helper()

	f := &fixture{
		src:      filepath.Join(t.TempDir(), "swift"),
		cacheDir: filepath.Join(t.TempDir(), "cache"),
		fake:     runnertest.New("swift", "swiftc"),
		recorder: &recorder{},
	}

	writeSources(t, f.src, files)
	f.fake.Handler = toolchain(t, "binary")

	return f
}

func (f *fixture) options() Options {
	return Options{
		GOOS:      "darwin",
		SourceDir: f.src,
		CacheDir:  f.cacheDir,
		Product:   testProduct,
		Package:   "nucleus-apple-mcp",
		Version:   "1.0.0",
	}
}

func (f *fixture) builder(t *testing.T, mutate ...func(*Options)) *Builder {
	t.Helper()

	opts := f.options()
	for _, m := range mutate {
		m(&opts)
	}

	b, err := NewBuilder(opts, WithRunner(f.fake), WithRecorder(f.recorder))
	require.NoError(t, err)

	return b
}

func TestNewBuilder_Validation(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{name: "missing source dir", opts: Options{Product: testProduct}},
		{name: "missing product", opts: Options{SourceDir: "/src"}},
		{name: "product named like the package copy", opts: Options{SourceDir: "/src", Product: "package"}},
		{name: "product escaping the entry", opts: Options{SourceDir: "/src", Product: ".."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBuilder(tt.opts)
			require.Error(t, err)
			assert.True(t, sidecarerrors.IsKind(err, sidecarerrors.KindInvalidInput))
		})
	}
}

func TestEnsureBuilt_UnsupportedPlatform(t *testing.T) {
	f := newFixture(t, directSources)
	b := f.builder(t, func(o *Options) {
		o.GOOS = "linux"
		o.SourceDir = filepath.Join(t.TempDir(), "does-not-exist")
	})

	_, err := b.EnsureBuilt(context.Background(), false)
	require.Error(t, err)

	assert.True(t, sidecarerrors.IsKind(err, sidecarerrors.KindUnsupportedPlatform))
	assert.Contains(t, err.Error(), "linux")
	assert.Zero(t, f.fake.CallCount())
	assert.NoDirExists(t, f.cacheDir, "no filesystem work before the platform check")
}

func TestEnsureBuilt_MissingSources(t *testing.T) {
	f := newFixture(t, directSources)
	b := f.builder(t, func(o *Options) { o.SourceDir = filepath.Join(t.TempDir(), "missing") })

	_, err := b.EnsureBuilt(context.Background(), false)
	require.Error(t, err)
	assert.True(t, sidecarerrors.IsKind(err, sidecarerrors.KindInvalidSource))
	assert.Zero(t, f.fake.CallCount())
}

func TestEnsureBuilt_DirectBuildThenCacheHit(t *testing.T) {
	f := newFixture(t, directSources)
	b := f.builder(t)

	first, err := b.EnsureBuilt(context.Background(), false)
	require.NoError(t, err)

	assert.False(t, first.Cached)
	assert.Equal(t, compiler.DirectTag, first.Backend)
	assert.Len(t, first.ID, cache.IDLength)
	assert.Equal(t, filepath.Join(f.cacheDir, "sidecar", first.ID, testProduct), first.Path)
	assert.Equal(t, 1, f.fake.CallCount())

	content, err := os.ReadFile(first.Path)
	require.NoError(t, err)
	assert.Equal(t, "binary", string(content))

	matches, err := filepath.Glob(filepath.Join(f.cacheDir, "sidecar", first.ID, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)

	// Second call is served from the cache without running any backend
	second, err := b.EnsureBuilt(context.Background(), false)
	require.NoError(t, err)

	assert.True(t, second.Cached)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Path, second.Path)
	assert.Equal(t, 1, f.fake.CallCount())

	assert.Equal(t, 1, f.recorder.hits)
	assert.Equal(t, 1, f.recorder.misses)
	assert.Equal(t, 1, f.recorder.builds[true])
}

func TestEnsureBuilt_RecordsMetadata(t *testing.T) {
	f := newFixture(t, directSources)
	build, err := f.builder(t).EnsureBuilt(context.Background(), false)
	require.NoError(t, err)

	entry, err := cache.NewIndex(f.cacheDir).Get(build.ID)
	require.NoError(t, err)
	require.NotNil(t, entry)

	assert.Equal(t, compiler.DirectTag, entry.Backend)
	assert.Equal(t, build.Path, entry.Path)
	assert.Equal(t, int64(len("binary")), entry.Size)
	assert.Equal(t, 3, entry.Files)
	assert.Equal(t, "1.0.0", entry.Version)
	assert.NotEmpty(t, entry.SHA256)
}

func TestEnsureBuilt_ForceRebuild(t *testing.T) {
	f := newFixture(t, directSources)
	b := f.builder(t)

	first, err := b.EnsureBuilt(context.Background(), false)
	require.NoError(t, err)

	f.fake.Handler = toolchain(t, "rebuilt")

	forced, err := b.EnsureBuilt(context.Background(), true)
	require.NoError(t, err)

	assert.False(t, forced.Cached)
	assert.Equal(t, first.ID, forced.ID)
	assert.Equal(t, first.Path, forced.Path)
	assert.Equal(t, 2, f.fake.CallCount())

	content, err := os.ReadFile(forced.Path)
	require.NoError(t, err)
	assert.Equal(t, "rebuilt", string(content))
}

func TestEnsureBuilt_SourceChangeRebuilds(t *testing.T) {
	f := newFixture(t, directSources)
	b := f.builder(t)

	first, err := b.EnsureBuilt(context.Background(), false)
	require.NoError(t, err)

	writeSources(t, f.src, map[string]string{"Core/Output.swift": "struct Output { let v = 2 }"})

	second, err := b.EnsureBuilt(context.Background(), false)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.False(t, second.Cached)
	assert.Equal(t, 2, f.fake.CallCount())
	assert.FileExists(t, first.Path, "published entries are never removed")
}

func TestEnsureBuilt_VersionChangeRebuilds(t *testing.T) {
	f := newFixture(t, directSources)

	first, err := f.builder(t).EnsureBuilt(context.Background(), false)
	require.NoError(t, err)

	second, err := f.builder(t, func(o *Options) { o.Version = "1.0.1" }).EnsureBuilt(context.Background(), false)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 2, f.fake.CallCount())
}

func TestEnsureBuilt_PackageBackend(t *testing.T) {
	f := newFixture(t, map[string]string{
		"Package.swift":                          "// swift-tools-version:5.9",
		"Sources/NucleusAppleSidecar/main.swift": "print(1)",
	})

	build, err := f.builder(t).EnsureBuilt(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, compiler.PackageTag, build.Backend)

	content, err := os.ReadFile(build.Path)
	require.NoError(t, err)
	assert.Equal(t, "binary release", string(content), "release build should be published")

	calls := f.fake.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "swift", calls[0].Path)
	assert.Equal(t, filepath.Join(f.cacheDir, "sidecar", build.ID, "package"), argAfter(calls[0].Args, "--package-path"))
}

func TestEnsureBuilt_BackendsNeverShareEntries(t *testing.T) {
	files := map[string]string{"main.swift": "print(1)"}

	direct := newFixture(t, files)
	directBuild, err := direct.builder(t).EnsureBuilt(context.Background(), false)
	require.NoError(t, err)

	withManifest := map[string]string{"main.swift": "print(1)", "Package.swift": "// manifest"}
	pkg := newFixture(t, withManifest)
	pkgBuild, err := pkg.builder(t).EnsureBuilt(context.Background(), false)
	require.NoError(t, err)

	assert.NotEqual(t, directBuild.ID, pkgBuild.ID)
}

func TestEnsureBuilt_BuildFailed(t *testing.T) {
	f := newFixture(t, directSources)
	f.fake.Handler = runnertest.Reply(runnertest.Response{
		Stderr:   "main.swift:1:1: error: expected expression",
		ExitCode: 1,
	})

	b := f.builder(t)
	_, err := b.EnsureBuilt(context.Background(), false)
	require.Error(t, err)

	assert.True(t, sidecarerrors.IsKind(err, sidecarerrors.KindBuildFailed))
	assert.Contains(t, err.Error(), "expected expression")
	assert.Equal(t, 1, f.recorder.builds[false])

	matches, err := filepath.Glob(filepath.Join(f.cacheDir, "sidecar", "*", "*"))
	require.NoError(t, err)
	assert.Empty(t, matches, "a failed build should leave nothing behind")
}

func TestEnsureBuilt_ArtifactMissing(t *testing.T) {
	f := newFixture(t, map[string]string{"Package.swift": "// manifest", "main.swift": "print(1)"})
	f.fake.Handler = nil

	_, err := f.builder(t).EnsureBuilt(context.Background(), false)
	require.Error(t, err)
	assert.True(t, sidecarerrors.IsKind(err, sidecarerrors.KindArtifactMissing))
}

func TestEnsureBuilt_ToolchainOnlyNeededOnMiss(t *testing.T) {
	f := newFixture(t, directSources)

	first, err := f.builder(t).EnsureBuilt(context.Background(), false)
	require.NoError(t, err)

	// Same cache, no toolchain installed
	f.fake = runnertest.New()
	cached, err := f.builder(t).EnsureBuilt(context.Background(), false)
	require.NoError(t, err)
	assert.True(t, cached.Cached)
	assert.Equal(t, first.Path, cached.Path)

	_, err = f.builder(t).EnsureBuilt(context.Background(), true)
	require.Error(t, err)
	assert.True(t, sidecarerrors.IsKind(err, sidecarerrors.KindToolchainNotFound))
	assert.Contains(t, err.Error(), compiler.SwiftcEnv)
}

func TestEnsureBuilt_ConcurrentCallersGetCompleteBinary(t *testing.T) {
	f := newFixture(t, directSources)
	b := f.builder(t)

	const callers = 6
	results := make([]*Build, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = b.EnsureBuilt(context.Background(), false)
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0].ID, results[i].ID)
		assert.Equal(t, results[0].Path, results[i].Path)
	}

	content, err := os.ReadFile(results[0].Path)
	require.NoError(t, err)
	assert.Equal(t, "binary", string(content))
}

func TestEnsureBuilt_SingleFlight(t *testing.T) {
	f := newFixture(t, directSources)

	release := make(chan struct{})
	build := toolchain(t, "binary")
	f.fake.Handler = func(ctx context.Context, cmd runner.Command) runnertest.Response {
		<-release
		return build(ctx, cmd)
	}

	b := f.builder(t, func(o *Options) { o.SingleFlight = true })

	const callers = 5
	var wg sync.WaitGroup
	results := make(chan *Build, callers)

	run := func() {
		defer wg.Done()
		res, err := b.EnsureBuilt(context.Background(), false)
		assert.NoError(t, err)
		results <- res
	}

	wg.Add(1)
	go run()
	require.Eventually(t, func() bool { return f.fake.CallCount() == 1 }, 5*time.Second, 5*time.Millisecond)

	for i := 1; i < callers; i++ {
		wg.Add(1)
		go run()
	}

	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()
	close(results)

	assert.Equal(t, 1, f.fake.CallCount(), "callers should share one build")
	for res := range results {
		require.NotNil(t, res)
		assert.FileExists(t, res.Path)
	}
}
