// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package tracing

import (
	"context"
	"os"

	"go.opentelemetry.io/otel/propagation"
)

const (
	traceparentKey = "traceparent"
	tracestateKey  = "tracestate"

	// https://github.com/open-telemetry/opentelemetry-specification/blob/main/specification/context/env-carriers.md

	traceparentEnv = "TRACEPARENT"
	tracestateEnv  = "TRACESTATE"
)

// ContextFromEnv initializes the tracing context from environment variables, so a launch started by the IDE host
// continues the host's trace.
func ContextFromEnv(ctx context.Context) context.Context {
	parent := os.Getenv(traceparentEnv)
	state := os.Getenv(tracestateEnv)

	if parent != "" {
		tc := propagation.TraceContext{}
		return tc.Extract(ctx, propagation.MapCarrier{
			traceparentKey: parent,
			tracestateKey:  state})
	}

	return ctx
}

// Environ returns environment variables that carry the tracing context of ctx to a child process, or nil when ctx
// has no span.
func Environ(ctx context.Context) []string {
	tm := propagation.MapCarrier{}
	tc := propagation.TraceContext{}
	tc.Inject(ctx, &tm)

	parent := tm.Get(traceparentKey)
	if parent == "" {
		return nil
	}

	environ := []string{traceparentEnv + "=" + parent}
	if state := tm.Get(tracestateKey); state != "" {
		environ = append(environ, tracestateEnv+"="+state)
	}

	return environ
}
