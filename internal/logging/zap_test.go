package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger_LevelsAndFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapLogger(zap.New(core))
	ctx := context.Background()

	log.Debug(ctx, "dbg", "a", 1)
	log.Info(ctx, "inf", "b", 2)
	log.Warn(ctx, "wrn", "c", 3)
	log.Error(ctx, "err", "d", 4)

	entries := logs.All()
	require.Len(t, entries, 4)

	want := []struct {
		level zapcore.Level
		msg   string
		key   string
	}{
		{zapcore.DebugLevel, "dbg", "a"},
		{zapcore.InfoLevel, "inf", "b"},
		{zapcore.WarnLevel, "wrn", "c"},
		{zapcore.ErrorLevel, "err", "d"},
	}
	for i, w := range want {
		assert.Equal(t, w.level, entries[i].Level)
		assert.Equal(t, w.msg, entries[i].Message)
		assert.Contains(t, entries[i].ContextMap(), w.key)
	}
}

func TestZapLogger_With(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := NewZapLogger(zap.New(core)).With("module", "optimizer")

	log.Info(context.Background(), "hello", "photo_id", "p1")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "optimizer", fields["module"])
	assert.Equal(t, "p1", fields["photo_id"])
}

func TestNew_Backends(t *testing.T) {
	var buf bytes.Buffer

	l, err := New(BackendSlog, &buf, false)
	require.NoError(t, err)
	l.Info(context.Background(), "json line", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"json line"`)

	buf.Reset()
	l, err = New(BackendSlogText, &buf, true)
	require.NoError(t, err)
	l.Debug(context.Background(), "text line")
	assert.Contains(t, buf.String(), "msg=\"text line\"")

	l, err = New(BackendZap, &buf, false)
	require.NoError(t, err)
	assert.IsType(t, &ZapLogger{}, l)

	_, err = New("logrus", &buf, false)
	assert.Error(t, err)
}
