package errors

import (
	"fmt"
	"strings"
	"time"
)

// UnsupportedPlatform reports that the companion cannot be built on goos
func UnsupportedPlatform(goos string) *Error {
	return Newf(KindUnsupportedPlatform, "sidecar is only supported on macOS (darwin), running on %s", goos)
}

// ToolchainNotFound reports a compiler or build tool missing from PATH
func ToolchainNotFound(tool, envVar string, cause error) *Error {
	return Wrapf(cause, KindToolchainNotFound,
		"%s not found: %q. Install Xcode Command Line Tools, or set %s", baseName(tool), tool, envVar)
}

// BuildFailed reports a non-zero exit from a build tool
func BuildFailed(tool string, argv []string, exitCode int, stdout, stderr string, cause error) *Error {
	return Wrapf(cause, KindBuildFailed, "%s failed", tool).
		WithCommand(argv).
		WithStreams(exitCode, stdout, stderr)
}

// ArtifactMissing reports a successful build whose product cannot be found
func ArtifactMissing(product, root string) *Error {
	return Newf(KindArtifactMissing, "build succeeded but binary %q was not found", product).
		WithPath(root)
}

// CacheIO reports a failure reading or writing the cache directory
func CacheIO(op, path string, cause error) *Error {
	return Wrapf(cause, KindCacheIO, "cache %s failed", op).WithPath(path)
}

// InvocationTimeout reports that the companion did not finish in time
func InvocationTimeout(argv []string, timeout time.Duration, stderr string) *Error {
	return Newf(KindTimeout, "sidecar did not complete within %s", timeout).
		WithCommand(argv).
		WithStreams(0, "", stderr)
}

// Protocol reports a companion response that violates the JSON envelope contract
func Protocol(message string, exitCode int, stdout, stderr string) *Error {
	return New(KindProtocol, message).WithStreams(exitCode, stdout, stderr)
}

// InvalidInput reports caller-supplied arguments that cannot be used
func InvalidInput(format string, args ...any) *Error {
	return Newf(KindInvalidInput, format, args...)
}

// InvalidArguments is the domain error for tool arguments rejected before invocation
func InvalidArguments(format string, args ...any) *DomainError {
	return &DomainError{Code: "INVALID_ARGUMENTS", Message: fmt.Sprintf(format, args...)}
}

func baseName(tool string) string {
	if i := strings.LastIndexAny(tool, `/\`); i >= 0 {
		return tool[i+1:]
	}

	return tool
}
