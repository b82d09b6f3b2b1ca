package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{in: "", want: zapcore.InfoLevel},
		{in: "debug", want: zapcore.DebugLevel},
		{in: " WARN ", want: zapcore.WarnLevel},
		{in: "error", want: zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			level, err := ParseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, level.Level())
		})
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewWritesLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "run.log")

	log, level, err := New(Options{Level: "warn", File: path})
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, level.Level())

	log.Info("suppressed")
	log.Warn("kept")
	_ = log.Sync()

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"msg":"kept"`)
	assert.NotContains(t, string(content), "suppressed")
}

func TestNewDevelopmentForcesDebug(t *testing.T) {
	log, level, err := New(Options{Level: "error", Development: true})
	require.NoError(t, err)
	require.NotNil(t, log)
	assert.Equal(t, zapcore.DebugLevel, level.Level())
}

func TestNewInvalidLevel(t *testing.T) {
	log, _, err := New(Options{Level: "chatty"})
	require.Error(t, err)
	assert.Nil(t, log)
}
