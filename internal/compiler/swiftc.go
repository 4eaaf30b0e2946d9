package compiler

import (
	"context"
	"fmt"
	"os"

	"github.com/nucleus-apple/sidecar/internal/runner"
	"github.com/nucleus-apple/sidecar/internal/source"
)

// DirectBackend compiles every source file with a single swiftc invocation
type DirectBackend struct {
	runner runner.Runner
	swiftc string
}

// NewDirectBackend creates a direct-compile backend using the given swiftc command
func NewDirectBackend(r runner.Runner, swiftc string) *DirectBackend {
	return &DirectBackend{runner: r, swiftc: swiftc}
}

func (b *DirectBackend) Name() string { return "swiftc" }

func (b *DirectBackend) Tag() string { return DirectTag }

func (b *DirectBackend) Manifests() []string { return nil }

// Args builds the swiftc command arguments
func (b *DirectBackend) Args(output string, files []string) []string {
	args := []string{"-O", "-o", output}
	return append(args, files...)
}

// Build compiles the tree straight into req.Output
func (b *DirectBackend) Build(ctx context.Context, req Request) (*Artifact, error) {
	if req.Output == "" {
		return nil, fmt.Errorf("direct build requires an output path")
	}

	swiftc, err := ResolveTool(b.runner, b.swiftc, SwiftcEnv)
	if err != nil {
		return nil, err
	}

	cmd := runner.Command{Path: swiftc, Args: b.Args(req.Output, req.Tree.SourcePaths(source.SwiftExt))}
	if _, err := executeCommand(ctx, b.runner, logger(req), "swiftc", cmd); err != nil {
		os.Remove(req.Output)
		return nil, err
	}

	return &Artifact{Path: req.Output}, nil
}

func (b *DirectBackend) String() string {
	return fmt.Sprintf("%s (%s)", b.Name(), b.swiftc)
}
