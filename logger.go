// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkabridge

import "github.com/twmb/franz-go/pkg/kgo"

// nopLogger, the default logger, drops everything.
type nopLogger struct{}

func (*nopLogger) Level() kgo.LogLevel { return kgo.LogLevelNone }
func (*nopLogger) Log(kgo.LogLevel, string, ...any) {
}

// levelLogger caps the level of the wrapped logger at max.
type levelLogger struct {
	next kgo.Logger
	max  kgo.LogLevel
}

func (l *levelLogger) Level() kgo.LogLevel {
	return min(l.next.Level(), l.max)
}

func (l *levelLogger) Log(level kgo.LogLevel, msg string, keyvals ...any) {
	if level == kgo.LogLevelNone || level > l.Level() {
		return
	}
	l.next.Log(level, msg, keyvals...)
}

// syslogLevel maps a syslog severity (0 emergency .. 7 debug) onto the
// closest franz-go level.
func syslogLevel(severity int) kgo.LogLevel {
	switch {
	case severity <= 3:
		return kgo.LogLevelError
	case severity == 4:
		return kgo.LogLevelWarn
	case severity <= 6:
		return kgo.LogLevelInfo
	default:
		return kgo.LogLevelDebug
	}
}

// newLogger returns the logger used by a handle: the host's logger, or the
// nopLogger, capped by log_level when it was configured.
func newLogger(host kgo.Logger, s *clientSettings) kgo.Logger {
	if host == nil {
		return &nopLogger{}
	}
	if s != nil && s.logLevelSet {
		return &levelLogger{next: host, max: s.logLevel}
	}
	return host
}
