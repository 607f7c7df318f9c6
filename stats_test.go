// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkabridge

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

func TestStatsCollector_Emit(t *testing.T) {
	t.Parallel()

	var got []*Stats
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	c := newStatsCollector(&clientSettings{clientID: "bridge", statsInterval: time.Second}, func(s *Stats) {
		got = append(got, s)
	})
	c.now = func() time.Time { return clock }
	c.last = clock

	c.recordDelivery(nil)
	c.recordDelivery(nil)
	c.recordDelivery(errors.New("failed"))
	c.recordReceive()
	c.recordBrokerError()

	fake := &fakeProducerClient{buffered: 2}

	c.emit(fake)
	assert.Empty(t, got, "interval has not elapsed")

	clock = clock.Add(time.Second)
	c.emit(fake)
	require.Len(t, got, 1)
	assert.Equal(t, &Stats{
		Time:            clock,
		ClientID:        "bridge",
		BufferedRecords: 2,
		BufferedBytes:   20,
		Delivered:       2,
		Failed:          1,
		Received:        1,
		BrokerErrors:    1,
	}, got[0])

	c.emit(fake)
	assert.Len(t, got, 1)

	clock = clock.Add(2 * time.Second)
	c.emit(nil)
	require.Len(t, got, 2)
	assert.Zero(t, got[1].BufferedRecords)
}

func TestStatsCollector_Disabled(t *testing.T) {
	t.Parallel()

	called := false
	c := newStatsCollector(&clientSettings{}, func(*Stats) { called = true })
	c.now = func() time.Time { return time.Now().Add(time.Hour) }
	c.emit(nil)
	assert.False(t, called)

	// No listener is fine too.
	newStatsCollector(&clientSettings{statsInterval: time.Millisecond}, nil).emit(nil)
}

func TestProducerPoll_EmitsStats(t *testing.T) {
	t.Parallel()

	var got []*Stats
	fake := &fakeProducerClient{}
	p, err := NewProducer("localhost:9092", ConfigMap{"statistics.interval.ms": 1}, Options{
		StatsListener: func(s *Stats) { got = append(got, s) },
		clientFactory: func(...kgo.Opt) (producerClient, error) {
			return fake, nil
		},
	})
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	_, err = p.Poll(0)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestBrokerHook(t *testing.T) {
	t.Parallel()

	logger := newRecordingLogger()
	stats := newStatsCollector(&clientSettings{}, nil)
	h := &brokerHook{logger: logger, stats: stats}

	meta := kgo.BrokerMetadata{NodeID: 1, Host: "kafka", Port: 9092}

	h.OnBrokerConnect(meta, time.Millisecond, nil, nil)
	_, ok := logger.find("broker connection failed")
	assert.False(t, ok)
	assert.Zero(t, stats.brokerErrors.Load())

	h.OnBrokerConnect(meta, time.Millisecond, nil, &net.OpError{Op: "dial", Err: errors.New("refused")})
	entry, ok := logger.find("broker connection failed")
	require.True(t, ok)
	assert.Equal(t, kgo.LogLevelError, entry.level)
	assert.Equal(t, "kafka:9092", entry.value("broker"))
	assert.Equal(t, uint64(1), stats.brokerErrors.Load())
}
