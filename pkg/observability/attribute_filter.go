package observability

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// spanNamespaces are the attribute namespaces adlens exports. A key is in a
// namespace when it equals the namespace or starts with namespace + ".".
var spanNamespaces = []string{
	"adlens",
	"dedup",
	"error",
	"http",
	"mcp",
	"request.id",
	"stage",
	"method",
}

// sensitiveSuffixes mark keys that carry scraped listing content or payloads.
// They are stripped even inside an exported namespace.
var sensitiveSuffixes = []string{
	".text",
	".body",
	"email",
	".secret",
}

// attributeFilter is a SpanProcessor that forwards spans with sensitive and
// unknown attributes removed.
type attributeFilter struct {
	delegate sdktrace.SpanProcessor
	logger   *slog.Logger
}

// NewAttributeFilter wraps delegate so that only exported, non-sensitive
// attributes reach it. When logger is non-nil, stripped keys are logged as
// warnings.
func NewAttributeFilter(delegate sdktrace.SpanProcessor, logger *slog.Logger) sdktrace.SpanProcessor {
	return &attributeFilter{delegate: delegate, logger: logger}
}

// OnStart delegates to the wrapped processor.
func (f *attributeFilter) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	f.delegate.OnStart(parent, s)
}

// OnEnd delegates a filtered view of s.
func (f *attributeFilter) OnEnd(s sdktrace.ReadOnlySpan) {
	f.delegate.OnEnd(&filteredSpan{ReadOnlySpan: s, filter: f})
}

// Shutdown delegates to the wrapped processor.
func (f *attributeFilter) Shutdown(ctx context.Context) error {
	if err := f.delegate.Shutdown(ctx); err != nil {
		return fmt.Errorf("attribute filter shutdown: %w", err)
	}

	return nil
}

// ForceFlush delegates to the wrapped processor.
func (f *attributeFilter) ForceFlush(ctx context.Context) error {
	if err := f.delegate.ForceFlush(ctx); err != nil {
		return fmt.Errorf("attribute filter flush: %w", err)
	}

	return nil
}

func (f *attributeFilter) keep(key string) bool {
	if exportable(key) {
		return true
	}

	if f.logger != nil {
		f.logger.Warn("span attribute blocked", "key", key)
	}

	return false
}

func exportable(key string) bool {
	for _, suffix := range sensitiveSuffixes {
		if strings.HasSuffix(key, suffix) || key == strings.TrimPrefix(suffix, ".") {
			return false
		}
	}

	if strings.HasPrefix(key, "user.") {
		return false
	}

	for _, ns := range spanNamespaces {
		if key == ns || strings.HasPrefix(key, ns+".") {
			return true
		}
	}

	return false
}

type filteredSpan struct {
	sdktrace.ReadOnlySpan

	filter *attributeFilter
}

// Attributes returns the kept attributes.
func (s *filteredSpan) Attributes() []attribute.KeyValue {
	orig := s.ReadOnlySpan.Attributes()
	kept := make([]attribute.KeyValue, 0, len(orig))

	for _, kv := range orig {
		if s.filter.keep(string(kv.Key)) {
			kept = append(kept, kv)
		}
	}

	return kept
}
