package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Sumatoshi-tech/adlens/pkg/observability"
)

func recordSpan(t *testing.T, logger *slog.Logger, attrs ...attribute.KeyValue) map[string]any {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	filter := observability.NewAttributeFilter(sdktrace.NewSimpleSpanProcessor(exporter), logger)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(filter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	_, span := tp.Tracer("test").Start(context.Background(), "op")
	span.SetAttributes(attrs...)
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)

	return spanAttrMap(spans[0])
}

func TestAttributeFilter_AllowsKnownKeys(t *testing.T) {
	t.Parallel()

	attrs := recordSpan(t, nil,
		attribute.String("error.type", "timeout"),
		attribute.Int("dedup.documents", 100),
		attribute.String("stage", "confirm"),
	)

	assert.Equal(t, "timeout", attrs["error.type"])
	assert.Equal(t, int64(100), attrs["dedup.documents"])
	assert.Equal(t, "confirm", attrs["stage"])
}

func TestAttributeFilter_BlocksListingTextAndPII(t *testing.T) {
	t.Parallel()

	attrs := recordSpan(t, nil,
		attribute.String("user.email", "alice@example.com"),
		attribute.String("email", "bob@example.com"),
		attribute.String("request.body", "{}"),
		attribute.String("dedup.text", "2br apartment, call 555"),
		attribute.String("unlisted", "x"),
		attribute.String("error.type", "internal"),
	)

	assert.NotContains(t, attrs, "user.email")
	assert.NotContains(t, attrs, "email")
	assert.NotContains(t, attrs, "request.body")
	assert.NotContains(t, attrs, "dedup.text")
	assert.NotContains(t, attrs, "unlisted")
	assert.Equal(t, "internal", attrs["error.type"])
}

func TestAttributeFilter_WarnsWithLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	recordSpan(t, logger, attribute.String("user.secret", "val"))

	assert.Contains(t, buf.String(), "user.secret")
	assert.Contains(t, buf.String(), "blocked")
}

// spanAttrMap converts a span's attributes into a map for easy assertion.
func spanAttrMap(s tracetest.SpanStub) map[string]any {
	m := make(map[string]any, len(s.Attributes))
	for _, a := range s.Attributes {
		m[string(a.Key)] = a.Value.AsInterface()
	}

	return m
}

func TestAttributeFilter_NamespaceBoundaries(t *testing.T) {
	t.Parallel()

	attrs := recordSpan(t, nil,
		attribute.String("http.route", "/v1/dedup"),
		attribute.String("stage", "lsh"),
		attribute.String("stages", "x"),
		attribute.String("dedupe.count", "x"),
		attribute.String("mcp.request.body", "{}"),
	)

	assert.Equal(t, "/v1/dedup", attrs["http.route"])
	assert.Equal(t, "lsh", attrs["stage"])
	assert.NotContains(t, attrs, "stages")
	assert.NotContains(t, attrs, "dedupe.count")
	assert.NotContains(t, attrs, "mcp.request.body")
}
