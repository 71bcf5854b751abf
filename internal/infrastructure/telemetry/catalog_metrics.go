package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// CatalogMetrics records shared cache and catalog enrichment metrics
type CatalogMetrics struct {
	cacheLookups   metric.Int64Counter
	enrichFailures metric.Int64Counter
	pageDuration   metric.Float64Histogram
}

// NewCatalogMetrics creates the catalog instruments on meter
func NewCatalogMetrics(meter metric.Meter) (*CatalogMetrics, error) {
	cacheLookups, err := meter.Int64Counter("catalog.cache.lookups",
		metric.WithDescription("Shared SKU cache lookups by cache and result"),
		metric.WithUnit("{lookup}"))
	if err != nil {
		return nil, err
	}
	enrichFailures, err := meter.Int64Counter("catalog.enrichment.failures",
		metric.WithDescription("Failed bulk enrichment lookups by source"),
		metric.WithUnit("{failure}"))
	if err != nil {
		return nil, err
	}
	pageDuration, err := meter.Float64Histogram("catalog.page.duration",
		metric.WithDescription("Time to assemble an enriched catalog page"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000))
	if err != nil {
		return nil, err
	}
	return &CatalogMetrics{
		cacheLookups:   cacheLookups,
		enrichFailures: enrichFailures,
		pageDuration:   pageDuration,
	}, nil
}

// CacheHit implements cache.Observer
func (m *CatalogMetrics) CacheHit(ctx context.Context, name string) {
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("cache", name),
		attribute.String("result", "hit")))
}

// CacheMiss implements cache.Observer
func (m *CatalogMetrics) CacheMiss(ctx context.Context, name string) {
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("cache", name),
		attribute.String("result", "miss")))
}

// EnrichmentFailed counts a failed balances, prices or reviews lookup
func (m *CatalogMetrics) EnrichmentFailed(ctx context.Context, kind string) {
	m.enrichFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("source", kind)))
}

// PageServed records the page latency
func (m *CatalogMetrics) PageServed(ctx context.Context, elapsed time.Duration, degraded bool) {
	m.pageDuration.Record(ctx, float64(elapsed.Microseconds())/1000,
		metric.WithAttributes(attribute.Bool("degraded", degraded)))
}
