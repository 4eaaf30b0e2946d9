package compiler

import (
	sidecarerrors "github.com/nucleus-apple/sidecar/internal/errors"
	"github.com/nucleus-apple/sidecar/internal/runner"
)

// ResolveTool resolves a build tool on PATH (or as a path)
// envVar is named in the error as the way to point at another tool
func ResolveTool(r runner.Runner, name, envVar string) (string, error) {
	if name == "" {
		return "", sidecarerrors.ToolchainNotFound(name, envVar, nil)
	}

	path, err := r.LookPath(name)
	if err != nil {
		return "", sidecarerrors.ToolchainNotFound(name, envVar, err)
	}

	return path, nil
}
