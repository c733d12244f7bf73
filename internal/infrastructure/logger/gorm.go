package logger

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// DefaultSlowQuery is the threshold above which a statement is logged at warn.
const DefaultSlowQuery = 200 * time.Millisecond

// SQLLogger routes gorm's statement log into zap with request correlation.
type SQLLogger struct {
	log            *zap.Logger
	level          gormlogger.LogLevel
	slowQuery      time.Duration
	reportNotFound bool
}

// SQLLoggerOption configures a SQLLogger.
type SQLLoggerOption func(*SQLLogger)

// WithSlowQuery sets the slow statement threshold. Zero disables slow logging.
func WithSlowQuery(d time.Duration) SQLLoggerOption {
	return func(l *SQLLogger) { l.slowQuery = d }
}

// WithReportNotFound logs gorm.ErrRecordNotFound as an error.
func WithReportNotFound(report bool) SQLLoggerOption {
	return func(l *SQLLogger) { l.reportNotFound = report }
}

// NewSQLLogger wraps log for gorm.Config.Logger.
func NewSQLLogger(log *zap.Logger, level gormlogger.LogLevel, opts ...SQLLoggerOption) *SQLLogger {
	if log == nil {
		log = zap.NewNop()
	}
	l := &SQLLogger{log: log.Named("sql"), level: level, slowQuery: DefaultSlowQuery}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LogMode implements gormlogger.Interface.
func (l *SQLLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

// Info implements gormlogger.Interface.
func (l *SQLLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Info {
		l.log.With(TraceFields(ctx)...).Sugar().Infof(msg, data...)
	}
}

// Warn implements gormlogger.Interface.
func (l *SQLLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Warn {
		l.log.With(TraceFields(ctx)...).Sugar().Warnf(msg, data...)
	}
}

// Error implements gormlogger.Interface.
func (l *SQLLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Error {
		l.log.With(TraceFields(ctx)...).Sugar().Errorf(msg, data...)
	}
}

// Trace implements gormlogger.Interface.
func (l *SQLLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	stmt, rows := fc()
	fields := append([]zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", stmt),
	}, TraceFields(ctx)...)

	switch {
	case err != nil && l.level >= gormlogger.Error:
		if errors.Is(err, gormlogger.ErrRecordNotFound) && !l.reportNotFound {
			return
		}
		l.log.Error("sql failed", append(fields, zap.Error(err))...)
	case l.slowQuery > 0 && elapsed > l.slowQuery && l.level >= gormlogger.Warn:
		l.log.Warn("slow sql", append(fields, zap.Duration("threshold", l.slowQuery))...)
	case l.level >= gormlogger.Info:
		l.log.Debug("sql", fields...)
	}
}

// GormLevel maps an application log level to gorm's level.
func GormLevel(level string) gormlogger.LogLevel {
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
