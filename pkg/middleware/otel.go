package middleware

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name for chain spans.
const defaultTracerName = "dirroute"

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "dirroute").
	TracerName string

	// IncludeParams includes path parameter values in spans.
	// May contain sensitive information - disabled by default.
	IncludeParams bool

	// Filter determines which requests to trace.
	// Return true to trace the request, false to skip.
	// If nil, all requests are traced.
	Filter func(c *Ctx) bool

	// AttributeExtractor extracts custom attributes from the context.
	// Called for each traced request.
	AttributeExtractor func(c *Ctx) []attribute.KeyValue

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithIncludeParams enables including path parameters in spans.
func WithIncludeParams(include bool) OTelOption {
	return func(c *OTelConfig) {
		c.IncludeParams = include
	}
}

// WithTraceFilter sets a filter function for requests.
func WithTraceFilter(filter func(c *Ctx) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(c *Ctx) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

func defaultOTelConfig() OTelConfig {
	return OTelConfig{
		TracerName: defaultTracerName,
	}
}

// OpenTelemetry creates middleware that opens a span around each chain
// execution and records the route, method, outcome, and any error.
//
// The tracer comes from the global OpenTelemetry tracer provider; configure
// the provider in main() before serving.
func OpenTelemetry(opts ...OTelOption) Middleware {
	config := defaultOTelConfig()
	for _, opt := range opts {
		opt(&config)
	}
	config.tracer = otel.Tracer(config.TracerName)

	return Func(func(c *Ctx, next Next) (Outcome, error) {
		if config.Filter != nil && !config.Filter(c) {
			return next(c)
		}

		ctx, span := config.tracer.Start(c.Context(),
			fmt.Sprintf("%s %s", c.Method, c.Route),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.route", c.Route),
				attribute.String("http.method", c.Method),
			),
		)
		defer span.End()

		if config.IncludeParams {
			for name, value := range c.Params {
				span.SetAttributes(attribute.String("route.param."+name, value))
			}
		}
		if config.AttributeExtractor != nil {
			span.SetAttributes(config.AttributeExtractor(c)...)
		}

		// Downstream chain steps see the span context.
		c.WithContext(ctx)

		out, err := next(c)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return out, err
		}

		span.SetAttributes(attribute.Bool("chain.short_circuit", out.Halted()))
		span.SetStatus(codes.Ok, "")
		return out, nil
	})
}
