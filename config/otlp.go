package config

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.7.0"
)

// ErrTelemetryNotConfigured is returned when no OTLP endpoint is set
var ErrTelemetryNotConfigured = errors.New("telemetry is not configured")

// otlpEndpoint returns the endpoint from standard OTEL environment
func otlpEndpoint() string {
	if s := os.Getenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"); s != "" {
		return s
	}
	return os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
}

// newOTLPExporter picks gRPC for port 4317 or "grpc" endpoints, HTTP otherwise.
// Exporters read the rest of the settings from environment.
func newOTLPExporter(ctx context.Context, endpoint string) (*otlptrace.Exporter, error) {
	switch {
	case endpoint == "":
		return nil, ErrTelemetryNotConfigured
	case strings.Contains(endpoint, "4317"), strings.Contains(endpoint, "grpc"):
		return otlptracegrpc.New(ctx)
	default:
		return otlptracehttp.New(ctx)
	}
}

func initOTLP(serviceName string) (*tracesdk.TracerProvider, error) {
	endpoint := otlpEndpoint()
	exp, err := newOTLPExporter(context.Background(), endpoint)
	if errors.Is(err, ErrTelemetryNotConfigured) {
		log.Debug().Msg(err.Error())
		return nil, err
	}
	if err != nil {
		log.Err(err).Str("endpoint", endpoint).Msg("could not create exporter")
		return nil, err
	}
	log.Debug().Str("endpoint", endpoint).Msg("telemetry configured")

	res := resource.NewWithAttributes(semconv.SchemaURL,
		semconv.ServiceNameKey.String(serviceName),
		semconv.ServiceVersionKey.String(buildTag),
		attribute.String("buildTime", buildTime),
	)
	return tracesdk.NewTracerProvider(
		tracesdk.WithBatcher(exp),
		tracesdk.WithResource(res),
	), nil
}
