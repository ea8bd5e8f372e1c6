package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func newObservedGormLogger(zapLevel zapcore.Level, gormLevel gormlogger.LogLevel) (*GormLogger, *observer.ObservedLogs) {
	core, recorded := observer.New(zapLevel)
	return NewGormLogger(zap.New(core), gormLevel), recorded
}

func catalogQuery() (string, int64) {
	return "SELECT * FROM platform_links WHERE platform = ?", 42
}

func TestGormLogger_LogMode(t *testing.T) {
	gl, _ := newObservedGormLogger(zapcore.InfoLevel, gormlogger.Info)

	demoted := gl.LogMode(gormlogger.Warn)

	// The original keeps its level; LogMode hands back a copy.
	assert.Equal(t, gormlogger.Info, gl.level)
	clone, ok := demoted.(*GormLogger)
	require.True(t, ok)
	assert.Equal(t, gormlogger.Warn, clone.level)
}

func TestGormLogger_LevelGating(t *testing.T) {
	gl, recorded := newObservedGormLogger(zapcore.DebugLevel, gormlogger.Silent)

	gl.Info(context.Background(), "migrating %s", "products")
	gl.Warn(context.Background(), "warning")
	gl.Error(context.Background(), "error")

	assert.Empty(t, recorded.All())

	gl, recorded = newObservedGormLogger(zapcore.DebugLevel, gormlogger.Info)
	gl.Info(context.Background(), "migrating %s", "products")

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0].Message, "migrating products")
}

func TestGormLogger_TraceError(t *testing.T) {
	gl, recorded := newObservedGormLogger(zapcore.ErrorLevel, gormlogger.Error)

	gl.Trace(context.Background(), time.Now(), catalogQuery, errors.New("connection reset"))

	logs := recorded.FilterMessage("sql error").All()
	require.Len(t, logs, 1)
	assert.Equal(t, zapcore.ErrorLevel, logs[0].Level)
}

func TestGormLogger_TraceRecordNotFoundIgnored(t *testing.T) {
	gl, recorded := newObservedGormLogger(zapcore.ErrorLevel, gormlogger.Error)

	// Lookup misses surface as domain sentinels, not as SQL errors.
	gl.Trace(context.Background(), time.Now(), catalogQuery, gormlogger.ErrRecordNotFound)

	assert.Empty(t, recorded.All())
}

func TestGormLogger_TraceSlowQuery(t *testing.T) {
	gl, recorded := newObservedGormLogger(zapcore.WarnLevel, gormlogger.Warn)
	gl.slowThreshold = time.Nanosecond

	gl.Trace(context.Background(), time.Now().Add(-time.Second), catalogQuery, nil)

	logs := recorded.FilterMessage("slow sql").All()
	require.Len(t, logs, 1)
	assert.Equal(t, zapcore.WarnLevel, logs[0].Level)
}

func TestGormLogger_TraceNormalQuery(t *testing.T) {
	gl, recorded := newObservedGormLogger(zapcore.DebugLevel, gormlogger.Info)

	gl.Trace(context.Background(), time.Now(), catalogQuery, nil)

	logs := recorded.FilterMessage("sql trace").All()
	require.Len(t, logs, 1)
	assert.Equal(t, zapcore.DebugLevel, logs[0].Level)
}

func TestGormLogger_TraceSilent(t *testing.T) {
	gl, recorded := newObservedGormLogger(zapcore.DebugLevel, gormlogger.Silent)

	gl.Trace(context.Background(), time.Now(), catalogQuery, nil)

	assert.Empty(t, recorded.All())
}

func TestGormLogger_TraceCarriesRequestID(t *testing.T) {
	gl, recorded := newObservedGormLogger(zapcore.DebugLevel, gormlogger.Info)

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-90271822")
	gl.Trace(ctx, time.Now(), catalogQuery, nil)

	logs := recorded.All()
	require.Len(t, logs, 1)

	found := false
	for _, f := range logs[0].Context {
		if f.Key == "request_id" {
			found = true
			assert.Equal(t, "req-90271822", f.String)
		}
	}
	assert.True(t, found)
}

func TestMapGormLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected gormlogger.LogLevel
	}{
		{"silent", gormlogger.Silent},
		{"error", gormlogger.Error},
		{"warn", gormlogger.Warn},
		{"info", gormlogger.Info},
		{"debug", gormlogger.Info},
		{"verbose", gormlogger.Warn},
		{"", gormlogger.Warn},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, MapGormLogLevel(tt.level))
		})
	}
}

func TestGormLoggerImplementsInterface(t *testing.T) {
	gl, _ := newObservedGormLogger(zapcore.InfoLevel, gormlogger.Info)
	var _ gormlogger.Interface = gl
}
