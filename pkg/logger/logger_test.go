package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestNew(t *testing.T) {
	log, err := New("debug", "production")
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))

	log, err = New("warn", "development")
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
}

func TestGet_WithoutInit(t *testing.T) {
	assert.NotNil(t, Get())
	assert.Same(t, Get(), Get())
}

func TestRunID(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", RunID(ctx))

	ctx = WithRunID(ctx, "run-42")
	assert.Equal(t, "run-42", RunID(ctx))
	assert.NotNil(t, WithContext(ctx))
}
