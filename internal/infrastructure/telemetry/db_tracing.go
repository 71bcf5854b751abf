package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultSlowQueryThreshold marks queries slower than this on their span
const DefaultSlowQueryThreshold = 200 * time.Millisecond

// DBTracingOptions configures GORM tracing
type DBTracingOptions struct {
	SlowQueryThreshold time.Duration
	// TracerProvider defaults to the global provider
	TracerProvider trace.TracerProvider
	Logger         *zap.Logger
}

type queryStartKey struct{}

// RegisterDBTracing installs the otelgorm plugin plus callbacks that tag
// spans with rows affected and flag slow queries. Query variables are never
// recorded since product searches carry customer input.
func RegisterDBTracing(db *gorm.DB, opts DBTracingOptions) error {
	if opts.SlowQueryThreshold <= 0 {
		opts.SlowQueryThreshold = DefaultSlowQueryThreshold
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	pluginOpts := []otelgorm.Option{
		otelgorm.WithDBName("postgresql"),
		otelgorm.WithoutQueryVariables(),
	}
	if opts.TracerProvider != nil {
		pluginOpts = append(pluginOpts, otelgorm.WithTracerProvider(opts.TracerProvider))
	}
	if err := db.Use(otelgorm.NewPlugin(pluginOpts...)); err != nil {
		return err
	}

	before := func(tx *gorm.DB) {
		if tx.Statement.Context != nil {
			tx.Statement.Context = context.WithValue(tx.Statement.Context, queryStartKey{}, time.Now())
		}
	}
	after := func(tx *gorm.DB) {
		annotateSpan(tx, opts.SlowQueryThreshold, opts.Logger)
	}

	cb := db.Callback()
	steps := []func() error{
		func() error { return cb.Create().Before("gorm:create").Register("telemetry:before_create", before) },
		func() error { return cb.Create().After("gorm:create").Register("telemetry:after_create", after) },
		func() error { return cb.Query().Before("gorm:query").Register("telemetry:before_query", before) },
		func() error { return cb.Query().After("gorm:query").Register("telemetry:after_query", after) },
		func() error { return cb.Update().Before("gorm:update").Register("telemetry:before_update", before) },
		func() error { return cb.Update().After("gorm:update").Register("telemetry:after_update", after) },
		func() error { return cb.Delete().Before("gorm:delete").Register("telemetry:before_delete", before) },
		func() error { return cb.Delete().After("gorm:delete").Register("telemetry:after_delete", after) },
		func() error { return cb.Raw().Before("gorm:raw").Register("telemetry:before_raw", before) },
		func() error { return cb.Raw().After("gorm:raw").Register("telemetry:after_raw", after) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}

	opts.Logger.Info("Database tracing enabled", zap.Duration("slow_query_threshold", opts.SlowQueryThreshold))
	return nil
}

func annotateSpan(tx *gorm.DB, threshold time.Duration, logger *zap.Logger) {
	ctx := tx.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)

	if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) && span.IsRecording() {
		span.SetStatus(codes.Error, tx.Error.Error())
		span.RecordError(tx.Error)
	}

	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}
	elapsed := time.Since(start)
	if elapsed <= threshold {
		return
	}
	if span.IsRecording() {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			attribute.String("db.sql.table", tx.Statement.Table),
		)
	}
	logger.Warn("Slow query",
		zap.String("table", tx.Statement.Table),
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", tx.Statement.RowsAffected))
}

// RegisterPoolMetrics reports database/sql pool statistics as observable gauges
func RegisterPoolMetrics(meter metric.Meter, sqlDB *sql.DB) error {
	open, err := meter.Int64ObservableGauge("db.pool.open_connections",
		metric.WithDescription("Open database connections"))
	if err != nil {
		return err
	}
	inUse, err := meter.Int64ObservableGauge("db.pool.in_use",
		metric.WithDescription("Connections currently in use"))
	if err != nil {
		return err
	}
	waits, err := meter.Int64ObservableCounter("db.pool.wait_count",
		metric.WithDescription("Total connections waited for"))
	if err != nil {
		return err
	}
	_, err = meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(open, int64(stats.OpenConnections))
		o.ObserveInt64(inUse, int64(stats.InUse))
		o.ObserveInt64(waits, stats.WaitCount)
		return nil
	}, open, inUse, waits)
	return err
}
