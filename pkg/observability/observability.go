package observability

import (
	"context"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// SetupTracing initializes OpenTelemetry tracing with stdout exporter (for demo; replace with OTLP in prod)
func SetupTracing(serviceName string) func() {
	exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		log.Fatalf("failed to initialize stdouttrace exporter: %v", err)
	}
	res, _ := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
	provider := trace.NewTracerProvider(
		trace.WithBatcher(exp),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	return func() { _ = provider.Shutdown(context.Background()) }
}

// SetupPrometheusMetrics initializes the Prometheus metrics exporter and
// returns the /metrics handler for the router to mount.
func SetupPrometheusMetrics() (*metric.MeterProvider, http.Handler) {
	exp, err := prometheus.New()
	if err != nil {
		log.Fatalf("failed to initialize prometheus exporter: %v", err)
	}
	mp := metric.NewMeterProvider(metric.WithReader(exp))
	otel.SetMeterProvider(mp)
	return mp, promhttp.Handler()
}

// GenerationMetrics counts image generation requests and records provider latency
type GenerationMetrics struct {
	generations     otelmetric.Int64Counter
	providerLatency otelmetric.Float64Histogram
}

// NewGenerationMetrics registers the pipeline's instruments on the global meter
func NewGenerationMetrics() *GenerationMetrics {
	meter := otel.Meter("casting-studio/backend")

	generations, err := meter.Int64Counter("character_generations_total",
		otelmetric.WithDescription("Number of character generation requests by path and outcome"))
	if err != nil {
		log.Printf("failed to register generation counter: %v", err)
	}

	latency, err := meter.Float64Histogram("image_provider_latency_seconds",
		otelmetric.WithDescription("Latency of image provider calls"))
	if err != nil {
		log.Printf("failed to register provider latency histogram: %v", err)
	}

	return &GenerationMetrics{generations: generations, providerLatency: latency}
}

// RecordGeneration records one generation attempt
func (m *GenerationMetrics) RecordGeneration(ctx context.Context, path string, success bool) {
	if m == nil || m.generations == nil {
		return
	}
	m.generations.Add(ctx, 1,
		otelmetric.WithAttributes(
			attribute.String("path", path),
			attribute.Bool("success", success),
		))
}

// RecordProviderLatency records one provider round trip
func (m *GenerationMetrics) RecordProviderLatency(ctx context.Context, seconds float64) {
	if m == nil || m.providerLatency == nil {
		return
	}
	m.providerLatency.Record(ctx, seconds)
}
