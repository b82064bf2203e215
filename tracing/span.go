// Package tracing wraps OpenTelemetry spans around Zabbix API operations
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName names the tracer of API operations
const TracerName = "zbxctl"

// TraceAttrOption defines option to set span attribute
type TraceAttrOption func(span trace.Span)

// StartTraceSpan starts a client span
func StartTraceSpan(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	opts = append([]trace.SpanStartOption{trace.WithSpanKind(trace.SpanKindClient)}, opts...)
	return otel.GetTracerProvider().
		Tracer(TracerName).Start(ctx, spanName, opts...)
}

// EndTraceSpan ends span, optionally sets attributes
func EndTraceSpan(span trace.Span, opts ...TraceAttrOption) {
	for _, optFn := range opts {
		optFn(span)
	}
	span.End()
}

// TraceAttrInt sets an int attribute
func TraceAttrInt(k string, v int) TraceAttrOption {
	return func(span trace.Span) { span.SetAttributes(attribute.Int(k, v)) }
}

// TraceAttrStr sets a string attribute, skipped if empty
func TraceAttrStr(k, v string) TraceAttrOption {
	return func(span trace.Span) {
		if v != "" {
			span.SetAttributes(attribute.String(k, v))
		}
	}
}

// TraceAttrStrs sets an string slice attribute
func TraceAttrStrs(k string, v []string) TraceAttrOption {
	return func(span trace.Span) { span.SetAttributes(attribute.StringSlice(k, v)) }
}

// TraceAttrError records error and marks span failed
func TraceAttrError(v error) TraceAttrOption {
	return func(span trace.Span) {
		if v == nil {
			span.SetStatus(codes.Ok, "")
			return
		}
		span.RecordError(v)
		span.SetStatus(codes.Error, v.Error())
	}
}
