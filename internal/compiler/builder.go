package compiler

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	sidecarerrors "github.com/nucleus-apple/sidecar/internal/errors"
	"github.com/nucleus-apple/sidecar/internal/runner"
)

// executeCommand runs a build tool, converting a failed run into a
// build_failed error that carries the command line and both streams
func executeCommand(ctx context.Context, r runner.Runner, log logrus.FieldLogger, tool string, cmd runner.Command) (*runner.Result, error) {
	log.WithField("command", cmd.String()).Debug("Running build tool")

	res, err := r.Run(ctx, cmd)
	if err == nil {
		log.WithField("duration", res.Duration).Debug("Build tool finished")
		return res, nil
	}

	var execErr *runner.ExecError
	if !errors.As(err, &execErr) {
		return nil, sidecarerrors.BuildFailed(tool, cmd.Argv(), -1, "", "", err)
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, sidecarerrors.Wrapf(ctxErr, sidecarerrors.KindBuildFailed, "%s interrupted", tool).
			WithCommand(cmd.Argv()).
			WithStreams(execErr.ExitCode, execErr.Stdout, execErr.Stderr)
	}

	return nil, sidecarerrors.BuildFailed(tool, cmd.Argv(), execErr.ExitCode, execErr.Stdout, execErr.Stderr, execErr.Err)
}
