// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xmidt-org/kafkabridge"
	"go.uber.org/zap"
)

type sentRecord struct {
	topic     string
	partition int32
	token     uint64
	value     string
}

// fakeSender reports every send as delivered on the next Poll.
type fakeSender struct {
	listeners []func(*kafkabridge.DeliveryEvent)
	pending   []*kafkabridge.DeliveryEvent
	sent      []sentRecord
	polls     int

	// full is the number of sends rejected with ErrQueueFull first.
	full    int
	fail    map[uint64]bool
	sendErr error
}

func (f *fakeSender) Send(topic string, partition int32, token uint64, payload []byte) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	if f.full > 0 {
		f.full--
		return kafkabridge.ErrQueueFull
	}

	f.sent = append(f.sent, sentRecord{topic: topic, partition: partition, token: token, value: string(payload)})

	e := kafkabridge.DeliveryEvent{Token: token, Topic: topic, Partition: partition}
	if f.fail[token] {
		e.Error = errors.Join(kafkabridge.ErrDelivery, errors.New("record timed out"))
		e.ErrorType = "delivery_failure"
	}
	f.pending = append(f.pending, &e)
	return nil
}

func (f *fakeSender) SendSegments(topic string, partition int32, token uint64, segs ...[]byte) error {
	return f.Send(topic, partition, token, bytes.Join(segs, nil))
}

func (f *fakeSender) Poll(time.Duration) (kafkabridge.PollResult, error) {
	f.polls++

	var result kafkabridge.PollResult
	for _, e := range f.pending {
		result.Token = e.Token
		result.Valid = true
		if e.Error != nil {
			result.Failures++
		}
		for _, fn := range f.listeners {
			fn(e)
		}
	}
	f.pending = nil
	return result, nil
}

func (f *fakeSender) AddDeliveryListener(fn func(*kafkabridge.DeliveryEvent)) func() {
	f.listeners = append(f.listeners, fn)
	return func() { f.listeners = nil }
}

func TestProduceLines(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		args      produceArgs
		sender    *fakeSender
		wantSent  []sentRecord
		wantTally tally
	}{
		{
			name:   "lines",
			input:  "a\nb\nc\n",
			args:   produceArgs{topic: "t", partition: kafkabridge.PartitionUnassigned},
			sender: &fakeSender{},
			wantSent: []sentRecord{
				{"t", -1, 1, "a"},
				{"t", -1, 2, "b"},
				{"t", -1, 3, "c"},
			},
			wantTally: tally{sent: 3, delivered: 3},
		},
		{
			name:   "segments",
			input:  "a\n\nc",
			args:   produceArgs{topic: "t", partition: 2, segments: true},
			sender: &fakeSender{},
			wantSent: []sentRecord{
				{"t", 2, 1, "1\ta"},
				{"t", 2, 2, "2\t"},
				{"t", 2, 3, "3\tc"},
			},
			wantTally: tally{sent: 3, delivered: 3},
		},
		{
			name:   "full queue is retried",
			input:  "a\nb\n",
			args:   produceArgs{topic: "t", partition: 0},
			sender: &fakeSender{full: 2},
			wantSent: []sentRecord{
				{"t", 0, 1, "a"},
				{"t", 0, 2, "b"},
			},
			wantTally: tally{sent: 2, delivered: 2},
		},
		{
			name:   "failures are counted",
			input:  "a\nb\nc\n",
			args:   produceArgs{topic: "t", partition: 0},
			sender: &fakeSender{fail: map[uint64]bool{2: true}},
			wantSent: []sentRecord{
				{"t", 0, 1, "a"},
				{"t", 0, 2, "b"},
				{"t", 0, 3, "c"},
			},
			wantTally: tally{sent: 3, delivered: 2, failed: 1},
		},
		{
			name:      "empty input",
			args:      produceArgs{topic: "t", partition: 0},
			sender:    &fakeSender{},
			wantTally: tally{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := produceLines(context.Background(), tt.sender, tt.args, strings.NewReader(tt.input), zap.NewNop())
			require.NoError(t, err)
			assert.Equal(t, tt.wantTally, got)
			assert.Equal(t, tt.wantSent, tt.sender.sent)
			assert.Empty(t, tt.sender.listeners, "listener must be removed")
		})
	}
}

func TestProduceLines_SendError(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{sendErr: kafkabridge.ErrInvalidTopic}
	got, err := produceLines(context.Background(), sender, produceArgs{topic: "t"}, strings.NewReader("a\n"), zap.NewNop())

	require.ErrorIs(t, err, kafkabridge.ErrInvalidTopic)
	assert.Contains(t, err.Error(), "line 1")
	assert.Equal(t, tally{}, got)
}

func TestProduceLines_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sender := &fakeSender{}
	got, err := produceLines(ctx, sender, produceArgs{topic: "t"}, strings.NewReader("a\nb\n"), zap.NewNop())

	require.NoError(t, err)
	assert.Equal(t, tally{}, got)
	assert.Empty(t, sender.sent)
}
