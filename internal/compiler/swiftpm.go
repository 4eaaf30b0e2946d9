package compiler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nucleus-apple/sidecar/internal/cache"
	sidecarerrors "github.com/nucleus-apple/sidecar/internal/errors"
	"github.com/nucleus-apple/sidecar/internal/runner"
)

const (
	packageDir = "package"
	scratchDir = ".build"
)

// PackageBackend builds a Swift package with `swift build`
type PackageBackend struct {
	runner runner.Runner
	swift  string
}

// NewPackageBackend creates a package-manager backend using the given swift command
func NewPackageBackend(r runner.Runner, swift string) *PackageBackend {
	return &PackageBackend{runner: r, swift: swift}
}

func (b *PackageBackend) Name() string { return "swiftpm" }

func (b *PackageBackend) Tag() string { return PackageTag }

func (b *PackageBackend) Manifests() []string { return []string{PackageManifest} }

// Args builds the swift command arguments
func (b *PackageBackend) Args(product, pkg, scratch string) []string {
	return []string{
		"build",
		"-c", "release",
		"--product", product,
		"--package-path", pkg,
		"--scratch-path", scratch,
	}
}

// Build copies the package into a fresh private directory and builds the product
func (b *PackageBackend) Build(ctx context.Context, req Request) (*Artifact, error) {
	swift, err := ResolveTool(b.runner, b.swift, SwiftEnv)
	if err != nil {
		return nil, err
	}

	pkg := filepath.Join(req.ScratchDir, packageDir)
	scratch := filepath.Join(req.ScratchDir, scratchDir)

	// Start from a clean copy so leftovers from an aborted build never leak in
	for _, dir := range []string{pkg, scratch} {
		if err := os.RemoveAll(dir); err != nil {
			return nil, sidecarerrors.CacheIO("clean", dir, err)
		}
	}

	if err := cache.CopyTree(req.Tree.Root, pkg); err != nil {
		return nil, sidecarerrors.CacheIO("copy package", pkg, err)
	}

	cmd := runner.Command{Path: swift, Args: b.Args(req.Product, pkg, scratch)}
	if _, err := executeCommand(ctx, b.runner, logger(req), "swift build", cmd); err != nil {
		return nil, err
	}

	return &Artifact{Root: scratch}, nil
}

func (b *PackageBackend) String() string {
	return fmt.Sprintf("%s (%s)", b.Name(), b.swift)
}
