//
// Tencent is pleased to support the open source community by making compound-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// compound-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package telemetry provides tracing and metrics for agent runs. The
// global Tracer and Meter default to noop implementations, so
// instrumented code works without any collector; Start switches them to
// OTLP export. Endpoints with an http:// or https:// scheme export over
// HTTP, bare host:port endpoints over gRPC.
package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	noopm "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	"go.opentelemetry.io/otel/trace"
	noopt "go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

var (
	// Tracer is the global tracer for agent spans.
	Tracer trace.Tracer = noopt.Tracer{}
	// Meter is the global meter for agent metrics.
	Meter metric.Meter = noopm.Meter{}
)

// Telemetry service constants.
const (
	ServiceName      = "compound-agent"
	ServiceVersion   = "v1.0.0"
	ServiceNamespace = "compound-agent-go"
	InstrumentName   = "compound.agent.go"

	SpanNameRunAgent          = "run_agent"
	SpanNamePrefixChat        = "chat"
	SpanNamePrefixExecuteTool = "execute_tool"
	SpanNamePrefixPlanStep    = "plan_step"
)

// Telemetry attribute keys.
const (
	KeyInvocationID   = "compound.agent.invocation_id"
	KeyEventID        = "compound.agent.event_id"
	KeyUserID         = "compound.agent.user_id"
	KeyQuery          = "compound.agent.query"
	KeyIntent         = "compound.agent.intent"
	KeyDecisionAction = "compound.agent.decision_action"
	KeyReasoning      = "compound.agent.reasoning"
	KeyToolCallArgs   = "compound.agent.tool_call_args"
	KeyToolResponse   = "compound.agent.tool_response"
	KeyFinalAnswer    = "compound.agent.final_answer"
)

// NewChatSpanName returns the span name of a model call.
func NewChatSpanName(modelName string) string {
	if modelName == "" {
		return SpanNamePrefixChat
	}
	return SpanNamePrefixChat + " " + modelName
}

// NewExecuteToolSpanName returns the span name of a tool invocation.
func NewExecuteToolSpanName(toolName string) string {
	if toolName == "" {
		return SpanNamePrefixExecuteTool
	}
	return SpanNamePrefixExecuteTool + " " + toolName
}

// NewPlanStepSpanName returns the span name of a plan step execution.
func NewPlanStepSpanName(stepID string) string {
	if stepID == "" {
		return SpanNamePrefixPlanStep
	}
	return SpanNamePrefixPlanStep + " " + stepID
}

// TraceToolCall records a tool invocation on its span.
func TraceToolCall(span trace.Span, toolName string, args map[string]any, result string) {
	span.SetAttributes(
		attribute.String("gen_ai.system", InstrumentName),
		attribute.String("gen_ai.operation.name", "execute_tool"),
		attribute.String("gen_ai.tool.name", toolName),
		attribute.String(KeyToolCallArgs, marshalForSpan(args)),
		attribute.String(KeyToolResponse, result),
	)
}

// TraceDecision records the outcome of a decision round on its span.
func TraceDecision(span trace.Span, action, toolName, reasoning string) {
	span.SetAttributes(
		attribute.String("gen_ai.system", InstrumentName),
		attribute.String("gen_ai.operation.name", "chat"),
		attribute.String(KeyDecisionAction, action),
	)
	if toolName != "" {
		span.SetAttributes(attribute.String("gen_ai.tool.name", toolName))
	}
	if reasoning != "" {
		span.SetAttributes(attribute.String(KeyReasoning, reasoning))
	}
}

func marshalForSpan(v any) string {
	bts, err := json.Marshal(v)
	if err != nil {
		return "<not json serializable>"
	}
	return string(bts)
}

// options holds the configuration options for telemetry.
type options struct {
	tracesEndpoint  string
	metricsEndpoint string
	serviceName     string
	serviceVersion  string
}

// Option is a function that configures telemetry options.
type Option func(*options)

// WithEndpoint sets both the traces and metrics endpoint. An http:// or
// https:// scheme selects the HTTP exporter, a bare host:port the gRPC
// one.
func WithEndpoint(endpoint string) Option {
	return func(opts *options) {
		opts.tracesEndpoint = endpoint
		opts.metricsEndpoint = endpoint
	}
}

// WithTracesEndpoint sets the endpoint the trace exporter connects to.
// Without it, OTEL_EXPORTER_OTLP_TRACES_ENDPOINT then
// OTEL_EXPORTER_OTLP_ENDPOINT are consulted before the localhost
// default.
func WithTracesEndpoint(endpoint string) Option {
	return func(opts *options) {
		opts.tracesEndpoint = endpoint
	}
}

// WithMetricsEndpoint sets the endpoint the metric exporter connects
// to. Environment fallbacks mirror WithTracesEndpoint with
// OTEL_EXPORTER_OTLP_METRICS_ENDPOINT.
func WithMetricsEndpoint(endpoint string) Option {
	return func(opts *options) {
		opts.metricsEndpoint = endpoint
	}
}

// WithServiceName overrides the reported service name.
func WithServiceName(name string) Option {
	return func(opts *options) {
		opts.serviceName = name
	}
}

// WithServiceVersion overrides the reported service version.
func WithServiceVersion(version string) Option {
	return func(opts *options) {
		opts.serviceVersion = version
	}
}

// Start configures OTLP export and swaps the global Tracer and Meter.
// The returned clean function flushes and shuts down both providers.
func Start(ctx context.Context, opts ...Option) (clean func() error, err error) {
	options := &options{
		tracesEndpoint:  tracesEndpoint(),
		metricsEndpoint: metricsEndpoint(),
		serviceName:     ServiceName,
		serviceVersion:  ServiceVersion,
	}
	for _, opt := range opts {
		opt(options)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNamespace(ServiceNamespace),
			semconv.ServiceName(options.serviceName),
			semconv.ServiceVersion(options.serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	shutdownTracerProvider, err := initTracerProvider(ctx, res, options.tracesEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer provider: %w", err)
	}
	shutdownMeterProvider, err := initMeterProvider(ctx, res, options.metricsEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize meter provider: %w", err)
	}

	clean = func() error {
		var err error
		if tracerErr := shutdownTracerProvider(ctx); tracerErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to shutdown TracerProvider: %w", tracerErr))
		}
		if meterErr := shutdownMeterProvider(ctx); meterErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to shutdown MeterProvider: %w", meterErr))
		}
		return err
	}

	Tracer = otel.Tracer(InstrumentName)
	Meter = otel.Meter(InstrumentName)
	return clean, nil
}

func tracesEndpoint() string {
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"); endpoint != "" {
		return endpoint
	}
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		return endpoint
	}
	return "localhost:4317"
}

func metricsEndpoint() string {
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"); endpoint != "" {
		return endpoint
	}
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		return endpoint
	}
	return "localhost:4317"
}

// httpEndpoint splits an http(s) endpoint into host, path and TLS flag.
// ok is false for scheme-less endpoints, which export over gRPC.
func httpEndpoint(endpoint string) (host, urlPath string, secure, ok bool) {
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		return "", "", false, false
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return "", "", false, false
	}
	return u.Host, strings.TrimSuffix(u.Path, "/"), u.Scheme == "https", true
}

func initTracerProvider(ctx context.Context, res *resource.Resource, endpoint string) (func(context.Context) error, error) {
	var exporter sdktrace.SpanExporter
	if host, urlPath, secure, ok := httpEndpoint(endpoint); ok {
		httpOpts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(host)}
		if urlPath != "" {
			httpOpts = append(httpOpts, otlptracehttp.WithURLPath(urlPath))
		}
		if !secure {
			httpOpts = append(httpOpts, otlptracehttp.WithInsecure())
		}
		var err error
		exporter, err = otlptracehttp.New(ctx, httpOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP trace exporter: %w", err)
		}
	} else {
		conn, err := newConn(endpoint)
		if err != nil {
			return nil, err
		}
		exporter, err = otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
		if err != nil {
			return nil, fmt.Errorf("failed to create gRPC trace exporter: %w", err)
		}
	}

	bsp := sdktrace.NewBatchSpanProcessor(exporter)
	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp),
	)
	otel.SetTracerProvider(tracerProvider)

	// Set global propagator to tracecontext (the default is no-op).
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tracerProvider.Shutdown, nil
}

func initMeterProvider(ctx context.Context, res *resource.Resource, endpoint string) (func(context.Context) error, error) {
	var exporter sdkmetric.Exporter
	if host, urlPath, secure, ok := httpEndpoint(endpoint); ok {
		httpOpts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(host)}
		if urlPath != "" {
			httpOpts = append(httpOpts, otlpmetrichttp.WithURLPath(urlPath))
		}
		if !secure {
			httpOpts = append(httpOpts, otlpmetrichttp.WithInsecure())
		}
		var err error
		exporter, err = otlpmetrichttp.New(ctx, httpOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP metrics exporter: %w", err)
		}
	} else {
		conn, err := newConn(endpoint)
		if err != nil {
			return nil, err
		}
		exporter, err = otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithGRPCConn(conn))
		if err != nil {
			return nil, fmt.Errorf("failed to create gRPC metrics exporter: %w", err)
		}
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(meterProvider)

	return meterProvider.Shutdown, nil
}

func newConn(endpoint string) (*grpc.ClientConn, error) {
	// It connects the OpenTelemetry Collector through gRPC connection.
	// Note the use of insecure transport here. TLS is recommended in production.
	conn, err := grpc.NewClient(endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection to collector: %w", err)
	}
	return conn, nil
}
