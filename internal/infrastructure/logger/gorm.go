package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"
)

// maxSQLLength caps the logged statement; catalog sync upserts can render
// hundreds of rows into a single INSERT.
const maxSQLLength = 2048

// GormLogger adapts GORM logging to zap. Entries carry the same request
// fields as L(ctx).
type GormLogger struct {
	logger        *zap.Logger
	logLevel      gormlogger.LogLevel
	slowThreshold time.Duration
}

func NewGormLogger(zapLogger *zap.Logger, level gormlogger.LogLevel, slowThreshold time.Duration) *GormLogger {
	if slowThreshold <= 0 {
		slowThreshold = 200 * time.Millisecond
	}
	return &GormLogger{
		logger:        zapLogger.Named("gorm"),
		logLevel:      level,
		slowThreshold: slowThreshold,
	}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.logLevel = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Info, zapcore.InfoLevel, msg, data)
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Warn, zapcore.WarnLevel, msg, data)
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Error, zapcore.ErrorLevel, msg, data)
}

func (l *GormLogger) printf(ctx context.Context, enabledAt gormlogger.LogLevel, level zapcore.Level, msg string, data []any) {
	if l.logLevel < enabledAt {
		return
	}
	if ce := l.logger.Check(level, fmt.Sprintf(msg, data...)); ce != nil {
		ce.Write(requestFields(ctx)...)
	}
}

// Trace logs one executed statement. Record-not-found is only logged when
// slow: repositories translate it to a domain error.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.logLevel <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	notFound := errors.Is(err, gormlogger.ErrRecordNotFound)
	failed := err != nil && !notFound
	slow := elapsed > l.slowThreshold
	if notFound && !slow {
		return
	}

	var msg string
	var level zapcore.Level
	switch {
	case failed && l.logLevel >= gormlogger.Error:
		msg, level = "SQL Error", zapcore.ErrorLevel
	case slow && l.logLevel >= gormlogger.Warn:
		msg, level = "Slow SQL", zapcore.WarnLevel
	case l.logLevel >= gormlogger.Info:
		msg, level = "SQL Query", zapcore.DebugLevel
	default:
		return
	}

	ce := l.logger.Check(level, msg)
	if ce == nil {
		return
	}
	sql, rows := fc()
	fields := append(requestFields(ctx),
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", truncateSQL(sql)),
	)
	if len(sql) > maxSQLLength {
		fields = append(fields, zap.Int("sql_length", len(sql)))
	}
	switch level {
	case zapcore.ErrorLevel:
		fields = append(fields, zap.Error(err))
	case zapcore.WarnLevel:
		fields = append(fields, zap.Duration("threshold", l.slowThreshold))
	}
	ce.Write(fields...)
}

func truncateSQL(sql string) string {
	if len(sql) <= maxSQLLength {
		return sql
	}
	return sql[:maxSQLLength] + "..."
}

// requestFields mirrors the enrichment done by L without requiring a
// context logger.
func requestFields(ctx context.Context) []zap.Field {
	var fields []zap.Field
	if id := GetTraceID(ctx); id != "" {
		fields = append(fields, zap.String("trace_id", id))
	}
	if id := GetRequestID(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	if id := GetAdminID(ctx); id != "" {
		fields = append(fields, zap.String("admin_id", id))
	}
	return fields
}

// MapGormLogLevel maps the application log level to a GORM log level
func MapGormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info", "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
