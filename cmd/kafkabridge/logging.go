// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/natefinch/lumberjack"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger builds a JSON zap logger writing to stderr, or to a rotated file
// when cfg.File is set.
func newLogger(cfg LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	encoder := zap.NewProductionEncoderConfig()
	encoder.EncodeTime = zapcore.ISO8601TimeEncoder

	var out zapcore.WriteSyncer = zapcore.Lock(os.Stderr)
	if cfg.File != "" {
		out = zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		})
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoder), out, level)
	return zap.New(core, zap.AddCaller()), nil
}

// kafkaLogger adapts zl for the Kafka client at the same level.
func kafkaLogger(zl *zap.Logger) kgo.Logger {
	return kzap.New(zl.Named("kafka"), kzap.Level(kgoLevel(zl.Level())))
}

func kgoLevel(l zapcore.Level) kgo.LogLevel {
	switch {
	case l <= zapcore.DebugLevel:
		return kgo.LogLevelDebug
	case l == zapcore.InfoLevel:
		return kgo.LogLevelInfo
	case l == zapcore.WarnLevel:
		return kgo.LogLevelWarn
	default:
		return kgo.LogLevelError
	}
}
