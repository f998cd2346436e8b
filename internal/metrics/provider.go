// Package metrics provides OpenTelemetry metrics instrumentation with Prometheus export.
// It covers HTTP requests, use case operations and the reliability pipeline (outbox
// publishing, event consumption and notification delivery).
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Provider owns one Prometheus registry per process. The three services share a
// namespace, so every series carries a constant service label to tell them apart.
type Provider struct {
	meterProvider *metric.MeterProvider
	exporter      *promexporter.Exporter
	registry      *prometheus.Registry
}

// NewProvider registers the runtime collectors and the OpenTelemetry exporter. An empty
// service leaves series unlabelled.
func NewProvider(namespace, service string) (*Provider, error) {
	registry := prometheus.NewRegistry()

	var registerer prometheus.Registerer = registry
	if service != "" {
		registerer = prometheus.WrapRegistererWith(prometheus.Labels{"service": service}, registry)
	}

	runtime := []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: namespace}),
	}
	for _, c := range runtime {
		if err := registerer.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register runtime collector: %w", err)
		}
	}

	exporter, err := promexporter.New(promexporter.WithRegisterer(registerer))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	return &Provider{
		meterProvider: metric.NewMeterProvider(metric.WithReader(exporter)),
		exporter:      exporter,
		registry:      registry,
	}, nil
}

// Handler serves the registry in OpenMetrics format when the scraper asks for it.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (p *Provider) MeterProvider() *metric.MeterProvider {
	return p.meterProvider
}

// Shutdown flushes pending metrics. Safe on a zero Provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.meterProvider == nil {
		return nil
	}
	return p.meterProvider.Shutdown(ctx)
}
