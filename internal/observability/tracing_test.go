package observability

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"

	"github.com/signalsfoundry/kite-simulator/internal/logging"
)

func TestTracingConfigFromEnvDefaults(t *testing.T) {
	t.Setenv("KITESIM_TRACING_ENABLED", "")
	t.Setenv("KITESIM_TRACING_EXPORTER", "")
	t.Setenv("KITESIM_TRACING_SERVICE_NAME", "")
	t.Setenv("KITESIM_TRACING_SAMPLE_RATIO", "")

	cfg := TracingConfigFromEnv()
	if cfg.Enabled {
		t.Fatalf("Enabled = true, want false")
	}
	if cfg.Exporter != "stdout" {
		t.Fatalf("Exporter = %q, want stdout", cfg.Exporter)
	}
	if cfg.ServiceName != "kitesim" {
		t.Fatalf("ServiceName = %q, want kitesim", cfg.ServiceName)
	}
	if cfg.SampleRatio != 1 {
		t.Fatalf("SampleRatio = %v, want 1", cfg.SampleRatio)
	}
}

func TestTracingConfigFromEnvOverrides(t *testing.T) {
	t.Setenv("KITESIM_TRACING_ENABLED", "TRUE")
	t.Setenv("KITESIM_TRACING_EXPORTER", "OTLP")
	t.Setenv("KITESIM_TRACING_SAMPLE_RATIO", "0.25")
	t.Setenv("KITESIM_OTLP_ENDPOINT", "collector:4317")

	cfg := TracingConfigFromEnv()
	if !cfg.Enabled || cfg.Exporter != "otlp" || cfg.SampleRatio != 0.25 || cfg.Endpoint != "collector:4317" {
		t.Fatalf("TracingConfigFromEnv() = %+v", cfg)
	}

	t.Setenv("KITESIM_TRACING_SAMPLE_RATIO", "7")
	if got := TracingConfigFromEnv().SampleRatio; got != 1 {
		t.Fatalf("out of range SampleRatio = %v, want 1", got)
	}
}

func TestInitTracingDisabledIsNoop(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), TracingConfig{}, logging.Noop())
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}
	_, span := otel.Tracer("test").Start(context.Background(), "noop")
	if span.SpanContext().IsValid() {
		t.Fatalf("disabled tracing produced a valid span context")
	}
	span.End()
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestInitTracingRejectsUnknownExporter(t *testing.T) {
	_, err := InitTracing(context.Background(), TracingConfig{Enabled: true, Exporter: "zipkin"}, nil)
	if err == nil {
		t.Fatalf("expected an error for an unsupported exporter")
	}
}

func TestParseLabels(t *testing.T) {
	got := parseLabels(" preset = trainer ,bad, =x,sweep=wind")
	if len(got) != 2 || got["preset"] != "trainer" || got["sweep"] != "wind" {
		t.Fatalf("parseLabels() = %v", got)
	}
	if parseLabels("") != nil || parseLabels("nothing") != nil {
		t.Fatalf("parseLabels without pairs should be nil")
	}
}

func TestResourceAttributesIncludeLabels(t *testing.T) {
	cfg := TracingConfig{Labels: map[string]string{"sweep": "wind", "preset": "trainer"}}
	attrs := cfg.resourceAttributes()
	if len(attrs) != 4 {
		t.Fatalf("resourceAttributes() = %v, want 4 entries", attrs)
	}
	if attrs[0].Value.AsString() != "kitesim" {
		t.Fatalf("service.name = %q, want the default", attrs[0].Value.AsString())
	}
	if attrs[2].Key != "kitesim.preset" || attrs[3].Key != "kitesim.sweep" {
		t.Fatalf("label keys = %s, %s; want sorted kitesim.* keys", attrs[2].Key, attrs[3].Key)
	}
}
