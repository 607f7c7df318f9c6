// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkabridge

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

// mockProducerClient is a mock implementation of producerClient for testing.
type mockProducerClient struct {
	mock.Mock
}

func (m *mockProducerClient) TryProduce(ctx context.Context, r *kgo.Record, cb func(*kgo.Record, error)) {
	m.Called(ctx, r, cb)
}

func (m *mockProducerClient) Flush(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockProducerClient) Close() {
	m.Called()
}

func (m *mockProducerClient) BufferedProduceRecords() int64 {
	args := m.Called()
	return args.Get(0).(int64)
}

func (m *mockProducerClient) BufferedProduceBytes() int64 {
	args := m.Called()
	return args.Get(0).(int64)
}

// fakeProducerClient keeps produced records and their promises so tests
// decide when and how each delivery completes.
type fakeProducerClient struct {
	mu       sync.Mutex
	records  []*kgo.Record
	contexts []context.Context
	promises []func(*kgo.Record, error)
	buffered int64
	flushErr error
	flushCtx context.Context
	flushes  int
	closes   int
}

func (f *fakeProducerClient) TryProduce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, r)
	f.contexts = append(f.contexts, ctx)
	f.promises = append(f.promises, promise)
}

func (f *fakeProducerClient) Flush(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushCtx = ctx
	f.flushes++
	return f.flushErr
}

func (f *fakeProducerClient) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
}

func (f *fakeProducerClient) BufferedProduceRecords() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.buffered
}

func (f *fakeProducerClient) BufferedProduceBytes() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.buffered * 10
}

// complete runs the promise of the i-th produced record.
func (f *fakeProducerClient) complete(i int, offset int64, err error) {
	f.mu.Lock()
	rec := f.records[i]
	promise := f.promises[i]
	f.mu.Unlock()

	if err == nil {
		rec.Offset = offset
		if rec.Partition < 0 {
			rec.Partition = 0
		}
	}
	promise(rec, err)
}

func (f *fakeProducerClient) produced() []*kgo.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*kgo.Record(nil), f.records...)
}

func (f *fakeProducerClient) counts() (flushes, closes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.flushes, f.closes
}

// mockConsumerClient is a mock implementation of consumerClient for testing.
type mockConsumerClient struct {
	mock.Mock
}

func (m *mockConsumerClient) PollRecords(ctx context.Context, maxPollRecords int) kgo.Fetches {
	args := m.Called(ctx, maxPollRecords)
	return args.Get(0).(kgo.Fetches)
}

func (m *mockConsumerClient) SetOffsets(offsets map[string]map[int32]kgo.EpochOffset) {
	m.Called(offsets)
}

func (m *mockConsumerClient) Close() {
	m.Called()
}

// mockOffsetAdmin is a mock implementation of offsetAdmin for testing.
type mockOffsetAdmin struct {
	mock.Mock
}

func (m *mockOffsetAdmin) FetchOffsets(ctx context.Context, group string) (kadm.OffsetResponses, error) {
	args := m.Called(ctx, group)
	resps, _ := args.Get(0).(kadm.OffsetResponses)
	return resps, args.Error(1)
}

func (m *mockOffsetAdmin) CommitOffsets(ctx context.Context, group string, os kadm.Offsets) (kadm.OffsetResponses, error) {
	args := m.Called(ctx, group, os)
	resps, _ := args.Get(0).(kadm.OffsetResponses)
	return resps, args.Error(1)
}

type logEntry struct {
	level   kgo.LogLevel
	msg     string
	keyvals []any
}

// recordingLogger is a kgo.Logger keeping every entry.
type recordingLogger struct {
	mu      sync.Mutex
	level   kgo.LogLevel
	entries []logEntry
}

func newRecordingLogger() *recordingLogger {
	return &recordingLogger{level: kgo.LogLevelDebug}
}

func (l *recordingLogger) Level() kgo.LogLevel { return l.level }

func (l *recordingLogger) Log(level kgo.LogLevel, msg string, keyvals ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, keyvals: keyvals})
}

// find returns the first entry with msg.
func (l *recordingLogger) find(msg string) (logEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.msg == msg {
			return e, true
		}
	}
	return logEntry{}, false
}

// value returns the value logged for key.
func (e logEntry) value(key string) any {
	for i := 0; i+1 < len(e.keyvals); i += 2 {
		if e.keyvals[i] == key {
			return e.keyvals[i+1]
		}
	}
	return nil
}
