package observability

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/signalsfoundry/kite-simulator/internal/logging"
)

// Span exporters understood by InitTracing.
const (
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

const (
	defaultServiceName  = "kitesim"
	defaultOTLPEndpoint = "localhost:4317"
	shutdownTimeout     = 5 * time.Second
)

// TracingConfig controls the spans a simulator run emits. Each run produces a
// single simulation.run span with one child per logged sample, so tracing is
// off unless explicitly enabled.
type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Exporter    string
	Endpoint    string
	SampleRatio float64
	// Labels are attached to the trace resource, e.g. the preset name of a
	// batch of runs, so traces from different sweeps can be told apart.
	Labels map[string]string
}

// TracingConfigFromEnv reads the KITESIM_TRACING_* variables. Unparseable or
// out of range values fall back to the defaults.
func TracingConfigFromEnv() TracingConfig {
	cfg := TracingConfig{
		Enabled:     strings.EqualFold(os.Getenv("KITESIM_TRACING_ENABLED"), "true"),
		ServiceName: envOr("KITESIM_TRACING_SERVICE_NAME", defaultServiceName),
		Exporter:    strings.ToLower(envOr("KITESIM_TRACING_EXPORTER", ExporterStdout)),
		Endpoint:    os.Getenv("KITESIM_OTLP_ENDPOINT"),
		SampleRatio: 1,
		Labels:      parseLabels(os.Getenv("KITESIM_TRACING_LABELS")),
	}
	if r, err := strconv.ParseFloat(os.Getenv("KITESIM_TRACING_SAMPLE_RATIO"), 64); err == nil && r >= 0 && r <= 1 {
		cfg.SampleRatio = r
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parseLabels reads "key=value,key=value". Entries without '=' are skipped.
func parseLabels(raw string) map[string]string {
	if raw == "" {
		return nil
	}
	labels := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		k, v, ok := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			continue
		}
		labels[k] = strings.TrimSpace(v)
	}
	if len(labels) == 0 {
		return nil
	}
	return labels
}

// InitTracing installs the global tracer provider used by state.Run and
// returns the function that flushes it. A disabled config installs a noop
// provider so span creation in the stepping loop costs nothing.
func InitTracing(ctx context.Context, cfg TracingConfig, log logging.Logger) (func(context.Context) error, error) {
	if log == nil {
		log = logging.Noop()
	}
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if !cfg.Enabled {
		otel.SetTracerProvider(noop.NewTracerProvider())
		log.Debug(ctx, "tracing disabled")
		return func(context.Context) error { return nil }, nil
	}

	tp, err := newTracerProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	otel.SetTracerProvider(tp)

	log.Info(ctx, "tracing enabled",
		logging.String("exporter", cfg.Exporter),
		logging.String("service_name", cfg.serviceName()),
		logging.Float("sample_ratio", cfg.SampleRatio),
	)
	return tp.Shutdown, nil
}

func (c TracingConfig) serviceName() string {
	if c.ServiceName == "" {
		return defaultServiceName
	}
	return c.ServiceName
}

func (c TracingConfig) resourceAttributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("service.name", c.serviceName()),
		attribute.String("service.namespace", defaultServiceName),
	}
	keys := make([]string, 0, len(c.Labels))
	for k := range c.Labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, attribute.String("kitesim."+k, c.Labels[k]))
	}
	return attrs
}

func newTracerProvider(ctx context.Context, cfg TracingConfig) (*sdktrace.TracerProvider, error) {
	exp, err := exporterFromConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx, resource.WithAttributes(cfg.resourceAttributes()...))
	if err != nil {
		return nil, fmt.Errorf("tracing resource: %w", err)
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	), nil
}

func exporterFromConfig(ctx context.Context, cfg TracingConfig) (sdktrace.SpanExporter, error) {
	switch strings.ToLower(cfg.Exporter) {
	case "", ExporterStdout:
		// Telemetry rows own stdout.
		return stdouttrace.New(
			stdouttrace.WithWriter(os.Stderr),
			stdouttrace.WithoutTimestamps(),
		)
	case ExporterOTLP, "otlpgrpc":
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = defaultOTLPEndpoint
		}
		return otlptrace.New(ctx, otlptracegrpc.NewClient(
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		))
	default:
		return nil, fmt.Errorf("tracing exporter %q: want %s or %s", cfg.Exporter, ExporterStdout, ExporterOTLP)
	}
}

// ShutdownWithTimeout flushes pending spans. Failures are logged, not
// returned, because it runs on the way out of the process.
func ShutdownWithTimeout(ctx context.Context, shutdown func(context.Context) error, log logging.Logger) {
	if shutdown == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := shutdown(ctx); err != nil && log != nil {
		log.Warn(ctx, "flush spans", logging.Err(err))
	}
}
