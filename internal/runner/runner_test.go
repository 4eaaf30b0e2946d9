package runner

import (
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireTool(t *testing.T, name string) string {
	t.Helper()

	path, err := exec.LookPath(name)
	if err != nil {
		t.Skipf("%s not available: %v", name, err)
	}

	return path
}

func TestExec_Run_CapturesStreams(t *testing.T) {
	sh := requireTool(t, "sh")

	r := New()
	result, err := r.Run(context.Background(), Command{
		Path: sh,
		Args: []string{"-c", "printf out; printf err >&2"},
	})

	require.NoError(t, err)
	assert.Equal(t, "out", result.Stdout)
	assert.Equal(t, "err", result.Stderr)
	assert.Equal(t, 0, result.ExitCode)
}

func TestExec_Run_NonZeroExit(t *testing.T) {
	sh := requireTool(t, "sh")

	r := New()
	result, err := r.Run(context.Background(), Command{
		Path: sh,
		Args: []string{"-c", "printf partial; printf broken >&2; exit 3"},
	})

	require.Error(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 3, result.ExitCode)
	assert.Equal(t, "partial", result.Stdout)

	var execErr *ExecError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, 3, execErr.ExitCode)
	assert.Equal(t, "broken", execErr.Stderr)
	assert.False(t, execErr.TimedOut())

	var exitErr *exec.ExitError
	assert.ErrorAs(t, err, &exitErr)
	assert.Equal(t, []string{sh, "-c", "printf partial; printf broken >&2; exit 3"}, execErr.Command)
}

func TestExec_Run_Stdin(t *testing.T) {
	cat := requireTool(t, "cat")

	input := `{"hello":"world"}`
	result, err := New().Run(context.Background(), Command{Path: cat, Stdin: &input})

	require.NoError(t, err)
	assert.Equal(t, input, result.Stdout)
}

func TestExec_Run_Dir(t *testing.T) {
	pwd := requireTool(t, "pwd")
	dir := t.TempDir()

	result, err := New().Run(context.Background(), Command{Path: pwd, Dir: dir})

	require.NoError(t, err)
	assert.Contains(t, result.Stdout, filepath.Base(dir))
}

func TestExec_Run_Env(t *testing.T) {
	sh := requireTool(t, "sh")

	result, err := New().Run(context.Background(), Command{
		Path: sh,
		Args: []string{"-c", "printf %s \"$SIDECAR_TEST_VALUE\""},
		Env:  []string{"SIDECAR_TEST_VALUE=42"},
	})

	require.NoError(t, err)
	assert.Equal(t, "42", result.Stdout)
}

func TestExec_Run_Timeout(t *testing.T) {
	sleep := requireTool(t, "sleep")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := New().Run(ctx, Command{Path: sleep, Args: []string{"5"}})

	require.Error(t, err)
	assert.Less(t, time.Since(start), 4*time.Second)

	var execErr *ExecError
	require.ErrorAs(t, err, &execErr)
	assert.True(t, execErr.TimedOut())
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestExec_Run_NotFound(t *testing.T) {
	result, err := New().Run(context.Background(), Command{Path: "definitely-not-a-real-binary-xyz"})

	require.Error(t, err)
	assert.Nil(t, result)

	var execErr *ExecError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, -1, execErr.ExitCode)
	assert.False(t, execErr.TimedOut())
}

func TestExec_Run_EmptyPath(t *testing.T) {
	_, err := New().Run(context.Background(), Command{})

	require.Error(t, err)
	assert.True(t, errors.Is(err, exec.ErrNotFound))
}

func TestCommand_String(t *testing.T) {
	c := Command{Path: "swiftc", Args: []string{"-O", "-o", "/tmp/out", "a.swift"}}
	assert.Equal(t, "swiftc -O -o /tmp/out a.swift", c.String())
	assert.Equal(t, []string{"swiftc", "-O", "-o", "/tmp/out", "a.swift"}, c.Argv())
}

func TestExec_LookPath(t *testing.T) {
	sh := requireTool(t, "sh")

	path, err := New().LookPath("sh")
	require.NoError(t, err)
	assert.Equal(t, sh, path)

	_, err = New().LookPath("definitely-not-a-real-binary-xyz")
	assert.Error(t, err)
}
