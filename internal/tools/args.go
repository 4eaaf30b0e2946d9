package tools

import (
	"bytes"
	"encoding/json"
	"slices"
	"strconv"
	"strings"

	sidecarerrors "github.com/nucleus-apple/sidecar/internal/errors"
)

func invalid(format string, args ...any) error {
	return sidecarerrors.InvalidArguments(format, args...)
}

// decode strictly unmarshals tool arguments; empty input means no arguments
func decode(raw json.RawMessage, v any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		raw = []byte("{}")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return invalid("invalid arguments: %v", err)
	}

	if dec.More() {
		return invalid("invalid arguments: trailing data after JSON object")
	}

	return nil
}

func required(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return invalid("%s is required", name)
	}

	return nil
}

func oneOf(name string, value *string, allowed ...string) error {
	if value == nil || slices.Contains(allowed, *value) {
		return nil
	}

	return invalid("%s must be one of %s, got %q", name, strings.Join(allowed, ", "), *value)
}

func positive(name string, value *int) error {
	if value == nil || *value > 0 {
		return nil
	}

	return invalid("%s must be greater than 0, got %d", name, *value)
}

func between(name string, value *int, lo, hi int) error {
	if value == nil || (*value >= lo && *value <= hi) {
		return nil
	}

	return invalid("%s must be between %d and %d, got %d", name, lo, hi, *value)
}

// firstError returns the first non-nil error
func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	return nil
}

// argv accumulates companion arguments; unset optional values emit nothing
type argv []string

func (a *argv) add(args ...string) {
	*a = append(*a, args...)
}

func (a *argv) str(flag string, value *string) {
	if value != nil {
		a.add(flag, *value)
	}
}

func (a *argv) each(flag string, values []string) {
	for _, v := range values {
		a.add(flag, v)
	}
}

func (a *argv) set(flag string, on bool) {
	if on {
		a.add(flag)
	}
}

// tri emits flag true|false when value is set
func (a *argv) tri(flag string, value *bool) {
	if value != nil {
		a.add(flag, strconv.FormatBool(*value))
	}
}

// num emits flag value when value is set and differs from def
func (a *argv) num(flag string, value *int, def int) {
	if value != nil && *value != def {
		a.add(flag, strconv.Itoa(*value))
	}
}

// choice emits flag value when value is set and differs from def
func (a *argv) choice(flag string, value *string, def string) {
	if value != nil && *value != def {
		a.add(flag, *value)
	}
}
