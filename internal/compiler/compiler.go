// Package compiler turns a source tree into the companion executable.
//
// Two backends exist. A tree with a Package.swift manifest is built with
// `swift build` in a private package copy; anything else is compiled directly
// with `swiftc`. Each backend carries a tag that is mixed into the BuildID, so
// the two never share cache entries.
package compiler

import (
	"context"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	sidecarerrors "github.com/nucleus-apple/sidecar/internal/errors"
	"github.com/nucleus-apple/sidecar/internal/runner"
	"github.com/nucleus-apple/sidecar/internal/source"
)

const (
	// PackageManifest marks a source tree as a Swift package
	PackageManifest = "Package.swift"

	// PackageTag identifies the package-manager backend in the BuildID
	PackageTag = "swiftpm-v1"

	// DirectTag identifies the direct-compile backend in the BuildID
	DirectTag = "swiftc-v1"

	// SwiftEnv and SwiftcEnv name the variables that override the tools
	SwiftEnv  = "NUCLEUS_SWIFT"
	SwiftcEnv = "NUCLEUS_SWIFTC"
)

// Toolchain holds the configured build tool commands
type Toolchain struct {
	// Swift is the package manager driver (default "swift")
	Swift string
	// Swiftc is the compiler driver (default "swiftc")
	Swiftc string
}

// DefaultToolchain returns the tools as found on PATH
func DefaultToolchain() Toolchain {
	return Toolchain{Swift: "swift", Swiftc: "swiftc"}
}

// Request describes one build
type Request struct {
	// Tree is the collected source tree
	Tree *source.Tree
	// ScratchDir is a private working directory (the cache entry directory)
	ScratchDir string
	// Product is the executable name
	Product string
	// Output is where a backend that produces a single file writes it
	Output string
	// Log receives command-level diagnostics; nil discards them
	Log logrus.FieldLogger
}

// Artifact is the result of a successful build.
// Exactly one of Root and Path is set.
type Artifact struct {
	// Root is a directory to search for the product
	Root string
	// Path is the exact output file
	Path string
}

// Backend builds a source tree
type Backend interface {
	// Name is the short backend name used in logs and metrics
	Name() string
	// Tag is mixed into the BuildID
	Tag() string
	// Manifests lists extra files, beyond sources, that belong to the tree
	Manifests() []string
	// Build runs the toolchain; the tool is resolved here, not before
	Build(ctx context.Context, req Request) (*Artifact, error)
}

// Select picks the backend for the tree rooted at root
func Select(r runner.Runner, root string, tc Toolchain) Backend {
	if source.HasManifest(root, PackageManifest) {
		return NewPackageBackend(r, tc.Swift)
	}

	return NewDirectBackend(r, tc.Swiftc)
}

// CheckProduct rejects executable names that cannot live as a plain file in
// an entry directory next to the package backend's working directories
func CheckProduct(name string) error {
	switch name {
	case "":
		return sidecarerrors.InvalidInput("product name is required")
	case ".", "..", packageDir, scratchDir:
		return sidecarerrors.InvalidInput("invalid product name: %q is reserved", name)
	}

	if strings.ContainsAny(name, `/\`) {
		return sidecarerrors.InvalidInput("invalid product name: %q contains a path separator", name)
	}

	return nil
}

func logger(req Request) logrus.FieldLogger {
	if req.Log != nil {
		return req.Log
	}

	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
