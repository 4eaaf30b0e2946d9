// Package errors defines the error taxonomy of the sidecar build and
// invocation layer.
//
// Every fatal condition is an *Error carrying a Kind plus whatever diagnostic
// context the failure has (command line, captured streams, paths). The one
// expected, recoverable outcome is a *DomainError: a well-formed ok:false
// response from the companion executable.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Kind classifies an Error
type Kind string

const (
	KindUnsupportedPlatform Kind = "unsupported_platform"
	KindToolchainNotFound   Kind = "toolchain_not_found"
	KindBuildFailed         Kind = "build_failed"
	KindArtifactMissing     Kind = "artifact_missing"
	KindCacheIO             Kind = "cache_io"
	KindTimeout             Kind = "timeout"
	KindProtocol            Kind = "protocol"
	KindInvocation          Kind = "invocation"
	KindInvalidSource       Kind = "invalid_source"
	KindInvalidInput        Kind = "invalid_input"
	KindDomain              Kind = "domain"
	KindInternal            Kind = "internal"
)

// Error is a fatal failure of the build or invocation layer
type Error struct {
	Kind    Kind
	Message string
	Cause   error

	// Diagnostic context, rendered by Error() when set
	Command  []string
	Path     string
	ExitCode int
	Stdout   string
	Stderr   string

	// streams forces the stdout/stderr block even when both are empty
	streams bool
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(e.Message)
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}

	if len(e.Command) > 0 {
		fmt.Fprintf(&b, "\ncmd: %s", strings.Join(e.Command, " "))
	}

	if e.Path != "" {
		fmt.Fprintf(&b, "\npath: %s", e.Path)
	}

	if e.streams || e.Stdout != "" || e.Stderr != "" {
		if e.ExitCode != 0 {
			fmt.Fprintf(&b, "\nexit: %d", e.ExitCode)
		}

		fmt.Fprintf(&b, "\nstdout:\n%s\nstderr:\n%s", e.Stdout, e.Stderr)
	}

	return b.String()
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithStreams attaches captured process output and always renders it
func (e *Error) WithStreams(exitCode int, stdout, stderr string) *Error {
	e.ExitCode = exitCode
	e.Stdout = stdout
	e.Stderr = stderr
	e.streams = true
	return e
}

// WithCommand attaches the invoked command line
func (e *Error) WithCommand(argv []string) *Error {
	e.Command = append([]string(nil), argv...)
	return e
}

// WithPath attaches the filesystem path the failure relates to
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// DomainError is an ok:false response from the companion executable
type DomainError struct {
	Code    string
	Message string
}

// Error formats the error as "<code>: <message>"
func (e *DomainError) Error() string {
	return e.Code + ": " + e.Message
}

// New creates a new Error
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a new Error with a formatted message
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a new Error around an existing cause
func Wrap(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Cause: err}
}

// Wrapf creates a new Error around an existing cause with a formatted message
func Wrapf(err error, kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: err}
}

// KindOf returns the kind of err, KindDomain for domain errors and
// KindInternal for anything else
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}

	var domain *DomainError
	if stderrors.As(err, &domain) {
		return KindDomain
	}

	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}

	return KindInternal
}

// IsKind reports whether err is classified as kind
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// AsDomain returns the DomainError in err's chain, if any
func AsDomain(err error) (*DomainError, bool) {
	var domain *DomainError
	if stderrors.As(err, &domain) {
		return domain, true
	}

	return nil, false
}
