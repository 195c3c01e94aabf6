package logging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

// Helper to create a logger that writes to a buffer for verification
func newTestLogger(t *testing.T) (Logger, *zaptest.Buffer) {
	t.Helper()
	buf := &zaptest.Buffer{}
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderConfig)
	core := zapcore.NewCore(encoder, buf, zapcore.DebugLevel)
	return &zapLogger{z: zap.New(core)}, buf
}

func TestNewLogger_JSONFormat(t *testing.T) {
	l, err := NewLogger(LogConfig{Level: LevelInfo, Format: "json", OutputPaths: []string{"stdout"}})
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestNewLogger_ConsoleFormat(t *testing.T) {
	l, err := NewLogger(LogConfig{Level: LevelDebug, Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, l)
	assert.Equal(t, "debug", CurrentLevel())
	SetLevel(LevelInfo)
}

func TestNewLogger_EmptyOutputPaths(t *testing.T) {
	l, err := NewLogger(LogConfig{OutputPaths: []string{}})
	assert.Error(t, err)
	assert.Nil(t, l)
}

func TestSetLevel(t *testing.T) {
	defer SetLevel(LevelInfo)

	SetLevel("WARN")
	assert.Equal(t, "warn", CurrentLevel())
	SetLevel("bogus")
	assert.Equal(t, "info", CurrentLevel())
}

func TestNopLogger_AllMethodsNoOp(t *testing.T) {
	l := NewNopLogger()
	l.Debug("msg")
	l.Info("msg")
	l.Warn("msg")
	l.Error("msg")
	l.Fatal("msg")
	assert.Equal(t, l, l.With(String("k", "v")))
	assert.Equal(t, l, l.Named("x"))
}

func TestZapLogger_Levels_WriteLog(t *testing.T) {
	cases := []struct {
		level string
		emit  func(Logger)
	}{
		{"debug", func(l Logger) { l.Debug("m") }},
		{"info", func(l Logger) { l.Info("m") }},
		{"warn", func(l Logger) { l.Warn("m") }},
		{"error", func(l Logger) { l.Error("m") }},
	}
	for _, tc := range cases {
		t.Run(tc.level, func(t *testing.T) {
			l, buf := newTestLogger(t)
			tc.emit(l)
			assert.Contains(t, buf.String(), "\"level\":\""+tc.level+"\"")
		})
	}
}

func TestZapLogger_FieldTypes(t *testing.T) {
	l, buf := newTestLogger(t)
	l.Info("submitted",
		String("task_id", "T-9"),
		Int("attempt", 2),
		Int64("counter", 41),
		Float64("vat", 20.5),
		Bool("free", false),
		Duration("elapsed", 1500*time.Millisecond),
		Strings("warnings", []string{"upload"}),
		Err(errors.New("boom")),
		Any("meta", map[string]int{"a": 1}),
	)
	out := buf.String()
	assert.Contains(t, out, "\"task_id\":\"T-9\"")
	assert.Contains(t, out, "\"attempt\":2")
	assert.Contains(t, out, "\"counter\":41")
	assert.Contains(t, out, "\"vat\":20.5")
	assert.Contains(t, out, "\"free\":false")
	assert.Contains(t, out, "\"warnings\":[\"upload\"]")
	assert.Contains(t, out, "\"error\":\"boom\"")
}

func TestErr_Nil(t *testing.T) {
	f := Err(nil)
	assert.Equal(t, "error", f.Key)
	assert.Equal(t, "<nil>", f.Value)
}

func TestZapLogger_WithAndNamed(t *testing.T) {
	l, buf := newTestLogger(t)
	l.Named("tasking").With(String("foo", "bar")).Info("msg")
	assert.Contains(t, buf.String(), "\"foo\":\"bar\"")
	assert.Contains(t, buf.String(), "\"logger\":\"tasking\"")
}

func TestDefault_SetAndGet(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	l, _ := newTestLogger(t)
	SetDefault(l)
	assert.Equal(t, l, Default())

	SetDefault(nil)
	assert.Equal(t, l, Default())
}

func TestFromContext(t *testing.T) {
	l, buf := newTestLogger(t)
	fallback := NewNopLogger()

	assert.Equal(t, fallback, FromContext(context.Background(), fallback))

	ctx := WithContext(context.Background(), l)
	FromContext(ctx, fallback).Info("scoped")
	assert.Contains(t, buf.String(), "scoped")
}

//Personal.AI order the ending
