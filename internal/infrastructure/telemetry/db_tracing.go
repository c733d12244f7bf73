package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled         bool
	DBSystem        string        // reported as db.name, e.g. "postgresql"
	LogFullSQL      bool          // include query variables in spans
	SlowQueryThresh time.Duration // default 200ms
}

type contextKey string

const queryStartTimeKey contextKey = "otel_query_start_time"

// RegisterDBTracing installs the otelgorm plugin plus a slow-query callback on db.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystem)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	before := func(tx *gorm.DB) {
		if tx.Statement.Context != nil {
			tx.Statement.Context = context.WithValue(tx.Statement.Context, queryStartTimeKey, time.Now())
		}
	}
	after := slowQueryCallback(cfg.SlowQueryThresh, logger)

	cb := db.Callback()
	steps := []struct {
		name     string
		register func(name string, fn func(*gorm.DB)) error
		isAfter  bool
	}{
		{"zakat_timing:before_create", cb.Create().Before("gorm:create").Register, false},
		{"zakat_timing:before_query", cb.Query().Before("gorm:query").Register, false},
		{"zakat_timing:before_raw", cb.Raw().Before("gorm:raw").Register, false},
		{"zakat_slow_query:create", cb.Create().After("gorm:create").Register, true},
		{"zakat_slow_query:query", cb.Query().After("gorm:query").Register, true},
		{"zakat_slow_query:raw", cb.Raw().After("gorm:raw").Register, true},
	}
	for _, s := range steps {
		fn := before
		if s.isAfter {
			fn = after
		}
		if err := s.register(s.name, fn); err != nil {
			return err
		}
	}

	logger.Info("Database tracing enabled",
		zap.String("db_system", cfg.DBSystem),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh),
	)
	return nil
}

func slowQueryCallback(threshold time.Duration, logger *zap.Logger) func(*gorm.DB) {
	return func(tx *gorm.DB) {
		ctx := tx.Statement.Context
		if ctx == nil {
			return
		}
		span := trace.SpanFromContext(ctx)
		if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			RecordError(span, tx.Error)
		}
		start, ok := ctx.Value(queryStartTimeKey).(time.Time)
		if !ok {
			return
		}
		if elapsed := time.Since(start); elapsed > threshold {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
			logger.Warn("Slow database query",
				zap.String("table", tx.Statement.Table),
				zap.Duration("elapsed", elapsed),
				zap.Duration("threshold", threshold),
			)
		}
	}
}
