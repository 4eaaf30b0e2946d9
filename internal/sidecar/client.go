package sidecar

import (
	"context"
	"encoding/json"
	"time"
)

// Client builds the companion if needed and invokes it
type Client struct {
	builder *Builder
	invoker *Invoker
	timeout time.Duration
	force   bool
}

// NewClient creates a Client from the build options
func NewClient(opts Options, options ...Option) (*Client, error) {
	builder, err := NewBuilder(opts, options...)
	if err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		builder: builder,
		invoker: NewInvoker(options...),
		timeout: timeout,
		force:   opts.ForceRebuild,
	}, nil
}

// Run ensures the companion is built (rebuilding it when ForceRebuild is set),
// then invokes it with argv and stdin
func (c *Client) Run(ctx context.Context, argv []string, stdin *string) (*Build, json.RawMessage, error) {
	build, err := c.builder.EnsureBuilt(ctx, c.force)
	if err != nil {
		return nil, nil, err
	}

	result, err := c.invoker.Invoke(ctx, build.Path, argv, stdin, c.timeout)
	if err != nil {
		return build, nil, err
	}

	return build, result, nil
}
