// Package runner is the process execution boundary. Build backends and the
// companion invoker only ever spawn processes through a Runner, so tests can
// substitute scripted exit codes and streams for a real toolchain.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// DefaultWaitDelay bounds how long Run waits for output pipes after the
// process was killed on context expiry
const DefaultWaitDelay = 2 * time.Second

// Command describes a single process invocation
type Command struct {
	Path string
	Args []string
	// Dir is the working directory; empty means the caller's
	Dir string
	// Env entries are appended to the inherited environment
	Env []string
	// Stdin is fed to the process when non-nil
	Stdin *string
}

// Argv returns the full command line, path first
func (c Command) Argv() []string {
	return append([]string{c.Path}, c.Args...)
}

// String renders the command line for logs and errors
func (c Command) String() string {
	return strings.Join(c.Argv(), " ")
}

// Result is the captured outcome of a finished process
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Runner executes commands and resolves executables
type Runner interface {
	// Run executes cmd and waits for it. A non-nil error is always an
	// *ExecError; the Result is returned alongside it whenever the process
	// was started.
	Run(ctx context.Context, cmd Command) (*Result, error)

	// LookPath resolves an executable name against PATH
	LookPath(file string) (string, error)
}

// ExecError represents a failed, killed or unstartable process
type ExecError struct {
	Command  []string
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

// Error implements the error interface
func (e *ExecError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("command %v failed with exit code %d: %v", e.Command, e.ExitCode, e.Err)
	}

	return fmt.Sprintf("command %v failed with exit code %d", e.Command, e.ExitCode)
}

// Unwrap returns the underlying error
func (e *ExecError) Unwrap() error {
	return e.Err
}

// TimedOut reports whether the process was killed because its deadline passed
func (e *ExecError) TimedOut() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// Exec runs commands with os/exec
type Exec struct {
	WaitDelay time.Duration
}

// New creates a Runner backed by os/exec
func New() *Exec {
	return &Exec{WaitDelay: DefaultWaitDelay}
}

// Run executes the command, capturing stdout and stderr in full
func (r *Exec) Run(ctx context.Context, c Command) (*Result, error) {
	if c.Path == "" {
		return nil, &ExecError{Command: c.Argv(), ExitCode: -1, Err: exec.ErrNotFound}
	}

	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Dir = c.Dir
	cmd.WaitDelay = r.WaitDelay

	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	if c.Stdin != nil {
		cmd.Stdin = strings.NewReader(*c.Stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()

	if cmd.Process == nil {
		return nil, &ExecError{Command: c.Argv(), ExitCode: -1, Err: err}
	}

	result := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode(cmd),
		Duration: time.Since(start),
	}

	if err != nil {
		// The kill on expiry surfaces as "signal: killed"; report the deadline instead
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w (%v)", ctxErr, err)
		}

		return result, &ExecError{
			Command:  c.Argv(),
			ExitCode: result.ExitCode,
			Stdout:   result.Stdout,
			Stderr:   result.Stderr,
			Err:      err,
		}
	}

	return result, nil
}

// LookPath resolves file using exec.LookPath
func (r *Exec) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func exitCode(cmd *exec.Cmd) int {
	if cmd.ProcessState == nil {
		return -1
	}

	return cmd.ProcessState.ExitCode()
}
