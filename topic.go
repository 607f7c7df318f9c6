// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkabridge

import (
	"bytes"
	"sync"
	"sync/atomic"
	"time"
)

// Topic is a producer topic handle.  It holds a reference to the producer's
// client, so the client outlives every open Topic.
type Topic struct {
	name     string
	producer *Producer
	handle   *clientHandle
	settings topicSettings

	// seq generates the tokens of Topic.Send, starting at 0.
	seq atomic.Uint64

	closeOnce sync.Once
	closed    atomic.Bool
	closeErr  error
}

// Name returns the topic name.
func (t *Topic) Name() string {
	return t.name
}

// Send queues a copy of payload using the topic's next sequence number as
// the token, which is returned.
func (t *Topic) Send(partition int32, payload []byte) (uint64, error) {
	if t.closed.Load() {
		return 0, ErrClosed
	}

	token := t.seq.Add(1) - 1
	if err := t.producer.enqueue(t, partition, token, bytes.Clone(payload)); err != nil {
		return token, err
	}
	return token, nil
}

// Poll delegates to the shared client; deliveries of every topic of the
// producer are reported.
func (t *Topic) Poll(timeout time.Duration) (PollResult, error) {
	return t.handle.poll(timeout)
}

// Close removes the topic from its producer and releases its client
// reference.  Close is idempotent.
func (t *Topic) Close() error {
	t.producer.forget(t)
	return t.release()
}

func (t *Topic) release() error {
	t.closeOnce.Do(func() {
		t.closed.Store(true)
		t.closeErr = t.handle.release()
	})
	return t.closeErr
}
