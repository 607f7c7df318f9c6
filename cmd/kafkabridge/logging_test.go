// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap/zapcore"
)

func TestKgoLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		level zapcore.Level
		want  kgo.LogLevel
	}{
		{zapcore.DebugLevel, kgo.LogLevelDebug},
		{zapcore.InfoLevel, kgo.LogLevelInfo},
		{zapcore.WarnLevel, kgo.LogLevelWarn},
		{zapcore.ErrorLevel, kgo.LogLevelError},
		{zapcore.FatalLevel, kgo.LogLevelError},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, kgoLevel(tt.level))
		})
	}
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	t.Run("invalid level", func(t *testing.T) {
		t.Parallel()
		logger, err := newLogger(LogConfig{Level: "loud"})
		assert.Error(t, err)
		assert.Nil(t, logger)
	})

	t.Run("file output", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "bridge.log")
		logger, err := newLogger(LogConfig{Level: "warn", File: path, MaxSizeMB: 1})
		require.NoError(t, err)

		logger.Info("dropped")
		logger.Warn("kept")

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"msg":"kept"`)
		assert.NotContains(t, string(data), "dropped")
	})

	t.Run("kafka logger follows the level", func(t *testing.T) {
		t.Parallel()
		logger, err := newLogger(LogConfig{Level: "debug"})
		require.NoError(t, err)
		assert.Equal(t, kgo.LogLevelDebug, kafkaLogger(logger).Level())
	})
}
