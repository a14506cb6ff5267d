// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package middleware

import (
	"context"
	"strings"

	"github.com/remote-debug/remote-debug/cli/rdl/cmd/actions"
	"github.com/remote-debug/remote-debug/cli/rdl/internal/tracing"
	"github.com/remote-debug/remote-debug/cli/rdl/internal/tracing/events"
)

// TracingMiddleware wraps every command in a span named after the command path.
type TracingMiddleware struct {
	options *Options
}

func NewTracingMiddleware(options *Options) Middleware {
	return &TracingMiddleware{
		options: options,
	}
}

func (m *TracingMiddleware) Run(ctx context.Context, next NextFn) (*actions.ActionResult, error) {
	// Note: CommandPath is constructed using the Use member on each command up to the root.
	// It does not contain user input, and is safe for telemetry emission.
	spanCtx, span := tracing.Start(ctx, commandEventName(m.options.Name))

	result, err := next(spanCtx)
	span.EndWithStatus(err)

	return result, err
}

// commandEventName returns the span name for a command path, ex) 'rdl config set' becomes 'cmd.config.set'.
func commandEventName(commandPath string) string {
	fields := strings.Fields(commandPath)
	if len(fields) > 1 {
		fields = fields[1:]
	}

	return events.CommandEventPrefix + strings.Join(fields, ".")
}
