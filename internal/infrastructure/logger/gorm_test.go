package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func stmt(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestSQLLogger_Trace(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-7")

	t.Run("error", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		l := NewSQLLogger(zap.New(core), gormlogger.Warn)
		l.Trace(ctx, time.Now(), stmt("SELECT 1", 0), errors.New("broken"))
		entries := logs.FilterMessage("sql failed").All()
		if assert.Len(t, entries, 1) {
			assert.Equal(t, "req-7", entries[0].ContextMap()["request_id"])
		}
	})

	t.Run("record not found ignored by default", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		l := NewSQLLogger(zap.New(core), gormlogger.Warn)
		l.Trace(ctx, time.Now(), stmt("SELECT 1", 0), gormlogger.ErrRecordNotFound)
		assert.Equal(t, 0, logs.Len())
	})

	t.Run("record not found reported", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		l := NewSQLLogger(zap.New(core), gormlogger.Warn, WithReportNotFound(true))
		l.Trace(ctx, time.Now(), stmt("SELECT 1", 0), gormlogger.ErrRecordNotFound)
		assert.Equal(t, 1, logs.Len())
	})

	t.Run("slow", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		l := NewSQLLogger(zap.New(core), gormlogger.Warn, WithSlowQuery(time.Millisecond))
		l.Trace(ctx, time.Now().Add(-time.Second), stmt("SELECT 1", 1), nil)
		assert.Equal(t, 1, logs.FilterMessage("slow sql").Len())
	})

	t.Run("silent", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		l := NewSQLLogger(zap.New(core), gormlogger.Silent)
		l.Trace(ctx, time.Now(), stmt("SELECT 1", 0), errors.New("broken"))
		assert.Equal(t, 0, logs.Len())
	})

	t.Run("info logs every statement", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		l := NewSQLLogger(zap.New(core), gormlogger.Info)
		l.Trace(ctx, time.Now(), stmt("SELECT 1", 1), nil)
		assert.Equal(t, 1, logs.FilterMessage("sql").Len())
	})
}

func TestSQLLogger_LogModeCopies(t *testing.T) {
	l := NewSQLLogger(nil, gormlogger.Warn)
	other := l.LogMode(gormlogger.Info).(*SQLLogger)
	assert.Equal(t, gormlogger.Warn, l.level)
	assert.Equal(t, gormlogger.Info, other.level)
}

func TestGormLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, GormLevel("silent"))
	assert.Equal(t, gormlogger.Error, GormLevel("error"))
	assert.Equal(t, gormlogger.Info, GormLevel("debug"))
	assert.Equal(t, gormlogger.Warn, GormLevel("whatever"))
}
