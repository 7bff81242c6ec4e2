package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Prometheus bridges OTel instruments into a dedicated client_golang
// registry. Pass Reader in Config.MetricReaders, then serve Handler or dump
// the registry with WriteTextfile.
type Prometheus struct {
	registry *prometheus.Registry
	reader   sdkmetric.Reader
}

// NewPrometheus creates an exporter backed by a fresh registry, so repeated
// calls never collide on collector registration.
func NewPrometheus() (*Prometheus, error) {
	registry := prometheus.NewRegistry()

	exporter, err := promexporter.New(
		promexporter.WithRegisterer(registry),
	)
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	return &Prometheus{registry: registry, reader: exporter}, nil
}

// Reader returns the OTel metric reader feeding the registry.
func (p *Prometheus) Reader() sdkmetric.Reader {
	return p.reader
}

// Registry returns the underlying registry.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// WriteTextfile writes the current metrics to path in the node_exporter
// textfile format.
func (p *Prometheus) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, p.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}

	return nil
}
