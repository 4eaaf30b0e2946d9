package sidecar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nucleus-apple/sidecar/internal/codes"
	sidecarerrors "github.com/nucleus-apple/sidecar/internal/errors"
	"github.com/nucleus-apple/sidecar/internal/metrics"
	"github.com/nucleus-apple/sidecar/internal/runner"
)

// Invoker runs the companion executable and decodes its response envelope:
//
//	{"ok": true, "result": {...}}
//	{"ok": false, "error": {"code": "...", "message": "..."}}
type Invoker struct {
	deps *deps
}

// NewInvoker creates an Invoker
func NewInvoker(options ...Option) *Invoker {
	return &Invoker{deps: newDeps(options)}
}

const unknownMessage = "Unknown error"

type envelopeError struct {
	Code    any `json:"code"`
	Message any `json:"message"`
}

// Invoke runs exe with argv, feeding stdin when non-nil, and returns the
// envelope's result object byte-for-byte. The process is killed once timeout
// elapses; a zero timeout means DefaultTimeout.
func (i *Invoker) Invoke(ctx context.Context, exe string, argv []string, stdin *string, timeout time.Duration) (json.RawMessage, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := runner.Command{Path: exe, Args: argv, Stdin: stdin}
	log := i.deps.log.WithField("command", cmd.String())
	log.Debug("Invoking sidecar")

	start := i.deps.now()
	result, err := i.invoke(ctx, cmd, timeout)
	elapsed := i.deps.now().Sub(start)

	i.deps.recorder.ObserveInvocation(outcome(err), elapsed)
	log.WithFields(logrus.Fields{"duration": elapsed, "outcome": outcome(err)}).Debug("Sidecar finished")

	return result, err
}

func (i *Invoker) invoke(ctx context.Context, cmd runner.Command, timeout time.Duration) (json.RawMessage, error) {
	res, err := i.deps.runner.Run(ctx, cmd)
	if err != nil {
		var execErr *runner.ExecError
		if !errors.As(err, &execErr) {
			return nil, sidecarerrors.Wrap(err, sidecarerrors.KindInvocation, "failed to run sidecar").WithCommand(cmd.Argv())
		}

		if execErr.TimedOut() || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, sidecarerrors.InvocationTimeout(cmd.Argv(), timeout, execErr.Stderr)
		}

		if res == nil || ctx.Err() != nil {
			return nil, sidecarerrors.Wrap(execErr.Err, sidecarerrors.KindInvocation, "failed to run sidecar").
				WithCommand(cmd.Argv()).
				WithStreams(execErr.ExitCode, execErr.Stdout, execErr.Stderr)
		}

		// A non-zero exit still carries an envelope on stdout
	}

	return decodeEnvelope(res)
}

// decodeEnvelope validates the response shape and extracts the result
func decodeEnvelope(res *runner.Result) (json.RawMessage, error) {
	stdout := bytes.TrimSpace([]byte(res.Stdout))
	if len(stdout) == 0 {
		return nil, sidecarerrors.Protocol("sidecar produced no stdout", res.ExitCode, "", res.Stderr)
	}

	if !json.Valid(stdout) {
		return nil, sidecarerrors.Protocol("failed to parse sidecar JSON response", res.ExitCode, res.Stdout, res.Stderr)
	}

	if stdout[0] != '{' {
		return nil, sidecarerrors.Protocol(
			fmt.Sprintf("sidecar response is not a JSON object: %s", jsonType(stdout)), res.ExitCode, res.Stdout, res.Stderr)
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(stdout, &envelope); err != nil {
		return nil, sidecarerrors.Protocol("failed to parse sidecar JSON response", res.ExitCode, res.Stdout, res.Stderr)
	}

	// A missing or falsy "ok" is a failure; any truthy value is success
	if !truthy(envelope["ok"]) {
		return nil, domainError(envelope["error"])
	}

	result, found := envelope["result"]
	if !found {
		return nil, sidecarerrors.Protocol(`sidecar response is missing "result"`, res.ExitCode, res.Stdout, res.Stderr)
	}

	if t := jsonType(result); t != "object" {
		return nil, sidecarerrors.Protocol(
			fmt.Sprintf(`sidecar "result" is not a JSON object: %s`, t), res.ExitCode, res.Stdout, res.Stderr)
	}

	return result, nil
}

// domainError builds the caller-facing error for an ok:false envelope.
// Missing or malformed fields fall back to INTERNAL / "Unknown error".
func domainError(raw json.RawMessage) *sidecarerrors.DomainError {
	derr := &sidecarerrors.DomainError{Code: codes.Default, Message: unknownMessage}

	var e envelopeError
	if len(raw) == 0 || json.Unmarshal(raw, &e) != nil {
		return derr
	}

	if code, ok := e.Code.(string); ok && code != "" {
		derr.Code = code
	}

	if msg, ok := e.Message.(string); ok && msg != "" {
		derr.Message = msg
	}

	return derr
}

// truthy reports whether a JSON value is true, non-zero or non-empty;
// absent and null values are not
func truthy(raw json.RawMessage) bool {
	var v any
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil {
		return false
	}

	switch x := v.(type) {
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	default:
		return false
	}
}

func jsonType(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "empty"
	}

	switch raw[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	case '"':
		return "string"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}

func outcome(err error) string {
	switch sidecarerrors.KindOf(err) {
	case "":
		return metrics.OutcomeOK
	case sidecarerrors.KindDomain:
		return metrics.OutcomeDomain
	case sidecarerrors.KindProtocol:
		return metrics.OutcomeProtocol
	case sidecarerrors.KindTimeout:
		return metrics.OutcomeTimeout
	default:
		return metrics.OutcomeFailed
	}
}
