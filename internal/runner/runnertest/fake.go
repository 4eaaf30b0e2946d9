// Package runnertest provides a scripted runner.Runner for tests.
package runnertest

import (
	"context"
	"fmt"
	"os/exec"
	"sync"

	"github.com/nucleus-apple/sidecar/internal/runner"
)

// Response scripts the outcome of one Run call
type Response struct {
	Stdout   string
	Stderr   string
	ExitCode int
	// Err, when set, is returned as the ExecError cause (e.g. context.DeadlineExceeded)
	Err error
	// StartErr simulates a process that could not be started
	StartErr error
}

// Fake records every command and answers from a handler
type Fake struct {
	mu    sync.Mutex
	calls []runner.Command

	// Handler produces the response for a command; nil means success with no output
	Handler func(ctx context.Context, cmd runner.Command) Response

	// Paths maps names accepted by LookPath to their resolved path; names
	// missing from the map are not found
	Paths map[string]string
}

// New creates a Fake that resolves the given tool names to themselves
func New(tools ...string) *Fake {
	paths := make(map[string]string, len(tools))
	for _, tool := range tools {
		paths[tool] = tool
	}

	return &Fake{Paths: paths}
}

// Run records cmd and returns the scripted response
func (f *Fake) Run(ctx context.Context, cmd runner.Command) (*runner.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	handler := f.Handler
	f.mu.Unlock()

	var resp Response
	if handler != nil {
		resp = handler(ctx, cmd)
	}

	if resp.StartErr != nil {
		return nil, &runner.ExecError{Command: cmd.Argv(), ExitCode: -1, Err: resp.StartErr}
	}

	result := &runner.Result{Stdout: resp.Stdout, Stderr: resp.Stderr, ExitCode: resp.ExitCode}

	err := resp.Err
	if err == nil && resp.ExitCode != 0 {
		err = fmt.Errorf("exit status %d", resp.ExitCode)
	}

	if err != nil {
		return result, &runner.ExecError{
			Command:  cmd.Argv(),
			ExitCode: resp.ExitCode,
			Stdout:   resp.Stdout,
			Stderr:   resp.Stderr,
			Err:      err,
		}
	}

	return result, nil
}

// LookPath resolves file from Paths
func (f *Fake) LookPath(file string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if path, ok := f.Paths[file]; ok {
		return path, nil
	}

	return "", &exec.Error{Name: file, Err: exec.ErrNotFound}
}

// Calls returns a copy of the recorded commands
func (f *Fake) Calls() []runner.Command {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]runner.Command(nil), f.calls...)
}

// CallCount returns how many commands were run
func (f *Fake) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.calls)
}

// Reply returns a handler that always answers with resp
func Reply(resp Response) func(context.Context, runner.Command) Response {
	return func(context.Context, runner.Command) Response {
		return resp
	}
}
