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

func query(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestGormLogger_Trace(t *testing.T) {
	tests := []struct {
		name    string
		level   gormlogger.LogLevel
		begin   time.Time
		err     error
		wantLen int
		wantLvl zapcore.Level
	}{
		{"error logged", gormlogger.Warn, time.Now(), errors.New("deadlock"), 1, zapcore.ErrorLevel},
		{"not found ignored", gormlogger.Warn, time.Now(), gormlogger.ErrRecordNotFound, 0, 0},
		{"slow query warned", gormlogger.Warn, time.Now().Add(-time.Second), nil, 1, zapcore.WarnLevel},
		{"fast query quiet at warn", gormlogger.Warn, time.Now(), nil, 0, 0},
		{"fast query debug at info", gormlogger.Info, time.Now(), nil, 1, zapcore.DebugLevel},
		{"silent", gormlogger.Silent, time.Now(), errors.New("x"), 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, recorded := observer.New(zapcore.DebugLevel)
			gl := NewGormLogger(zap.New(core), tt.level, 200*time.Millisecond)

			gl.Trace(context.Background(), tt.begin, query("UPDATE products SET stock = stock - 1", 1), tt.err)

			require.Equal(t, tt.wantLen, recorded.Len())
			if tt.wantLen > 0 {
				assert.Equal(t, tt.wantLvl, recorded.All()[0].Level)
			}
		})
	}
}

func TestGormLogger_TraceCarriesRequestID(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), gormlogger.Info, 0)
	ctx := WithRequestID(context.Background(), "req-5")

	gl.Trace(ctx, time.Now(), query("SELECT 1", 1), nil)

	require.Equal(t, 1, recorded.Len())
	assert.Equal(t, "req-5", recorded.All()[0].ContextMap()["request_id"])
}

func TestGormLogger_LogMode(t *testing.T) {
	gl := NewGormLogger(zap.NewNop(), gormlogger.Info, 0)
	quiet := gl.LogMode(gormlogger.Silent).(*GormLogger)

	assert.Equal(t, gormlogger.Info, gl.level)
	assert.Equal(t, gormlogger.Silent, quiet.level)
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("warn"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel(""))
}
