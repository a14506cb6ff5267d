// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

// Package tracing wraps OpenTelemetry tracing for rdl. Spans are only exported when a provider is installed with
// [Init]; otherwise they are no-ops.
package tracing

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/remote-debug/remote-debug/cli/rdl"

// Span is a trace.Span with a helper to record the outcome of an operation.
type Span struct {
	trace.Span
}

// EndWithStatus sets the status of the span from err and ends it.
func (s Span) EndWithStatus(err error) {
	if err != nil {
		s.SetStatus(codes.Error, err.Error())
	} else {
		s.SetStatus(codes.Ok, "")
	}

	s.End()
}

// Start creates a span and a context containing it. The span is a child of any span already in ctx.
func Start(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, Span) {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, spanName, opts...)
	return ctx, Span{span}
}

// Init installs a tracer provider that writes finished spans to w as JSON. The returned function flushes and shuts
// down the provider.
func Init(w io.Writer, serviceVersion string) (func(context.Context) error, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}

	return install(sdktrace.WithSyncer(exporter), serviceVersion), nil
}

// InitOtlp installs a tracer provider that sends spans to an OTLP/HTTP collector at endpointURL, for example
// http://localhost:4318/v1/traces. Spans are sent in batches; the returned function sends the remaining ones.
func InitOtlp(ctx context.Context, endpointURL string, serviceVersion string) (func(context.Context) error, error) {
	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpointURL))
	if err != nil {
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}

	return install(sdktrace.WithBatcher(exporter), serviceVersion), nil
}

func install(processor sdktrace.TracerProviderOption, serviceVersion string) func(context.Context) error {
	provider := sdktrace.NewTracerProvider(
		processor,
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", "rdl"),
			attribute.String("service.version", serviceVersion),
		)),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return provider.Shutdown
}
