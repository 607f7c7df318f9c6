// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkabridge

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Producer sends records asynchronously and reports their delivery through
// Poll.
//
// A Producer is meant to be driven from a single goroutine that sends and
// polls in a loop.  The internal state is nonetheless guarded, so Close may
// be called from another goroutine.
type Producer struct {
	handle   *clientHandle
	settings *clientSettings

	mu     sync.Mutex
	topics map[string]*Topic
	closed bool
}

// NewProducer translates cfg and creates the producer client.  brokers is a
// comma separated list of "host[:port]" entries, combined with any
// bootstrap.servers in cfg.  Invalid entries are skipped; an error is
// returned if none is valid.
func NewProducer(brokers string, cfg ConfigMap, opts Options) (*Producer, error) {
	s, err := translateClientConfig(cfg)
	if err != nil {
		return nil, err
	}

	h, err := newClientHandle(brokers, s, opts)
	if err != nil {
		return nil, err
	}
	h.reference()

	return &Producer{
		handle:   h,
		settings: s,
		topics:   make(map[string]*Topic),
	}, nil
}

// CreateTopic returns the topic handle for name, creating it on first use.
// cfg holds topic properties applied on top of the producer's default topic
// settings; it is ignored when the topic already exists.
func (p *Producer) CreateTopic(name string, cfg ConfigMap) (*Topic, error) {
	if name == "" {
		return nil, errors.Join(ErrInvalidTopic, errors.New("topic name is empty"))
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrClosed
	}

	if t, ok := p.topics[name]; ok {
		return t, nil
	}

	settings, err := translateTopicConfig(p.settings.topic, cfg)
	if err != nil {
		return nil, err
	}

	t := &Topic{
		name:     name,
		producer: p,
		handle:   p.handle,
		settings: settings,
	}
	p.handle.partitioner.set(name, settings.partitioner)
	p.handle.reference()
	p.topics[name] = t

	return t, nil
}

// HasTopic reports whether name has been created and not destroyed.
func (p *Producer) HasTopic(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.topics[name]
	return ok
}

// DestroyTopic closes the topic handle of name.  Unknown names are ignored.
func (p *Producer) DestroyTopic(name string) error {
	p.mu.Lock()
	t, ok := p.topics[name]
	delete(p.topics, name)
	p.mu.Unlock()

	if !ok {
		return nil
	}
	return t.release()
}

// forget removes t from the cache if it is still the cached handle.
func (p *Producer) forget(t *Topic) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.topics[t.name] == t {
		delete(p.topics, t.name)
	}
}

func (p *Producer) topic(name string) (*Topic, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrClosed
	}
	t, ok := p.topics[name]
	if !ok {
		return nil, errors.Join(ErrInvalidTopic, fmt.Errorf("topic %q has not been created", name))
	}
	return t, nil
}

// Send queues a copy of payload for topic.  partition is either
// PartitionUnassigned or a partition number.  token is reported back by
// Poll once the record completes.  A nil error means the record was
// accepted for asynchronous delivery.
func (p *Producer) Send(topic string, partition int32, token uint64, payload []byte) error {
	t, err := p.topic(topic)
	if err != nil {
		return err
	}
	return p.enqueue(t, partition, token, bytes.Clone(payload))
}

// SendSegments sends the concatenation of segs as one record.  A single
// segment is handed to the client without copying and must not be modified
// until the delivery is polled.  Sending nothing succeeds without producing
// a delivery report.
func (p *Producer) SendSegments(topic string, partition int32, token uint64, segs ...[]byte) error {
	t, err := p.topic(topic)
	if err != nil {
		return err
	}

	value, _, ok := assembleSegments(segs)
	if !ok {
		return nil
	}
	return p.enqueue(t, partition, token, value)
}

// enqueue runs the local checks and hands value to the client.
func (p *Producer) enqueue(t *Topic, partition int32, token uint64, value []byte) error {
	if t.closed.Load() || p.handle.closed() {
		return ErrClosed
	}

	if partition < PartitionUnassigned {
		return errors.Join(ErrSendRejected,
			fmt.Errorf("invalid partition %d for topic %q", partition, t.name))
	}

	if len(value) > p.settings.maxMessageBytes {
		return errors.Join(ErrSendRejected, ErrMessageTooLarge,
			fmt.Errorf("%d bytes exceeds message.max.bytes %d", len(value), p.settings.maxMessageBytes))
	}

	if p.handle.client.BufferedProduceRecords() >= int64(p.settings.maxBufferedRecords) {
		return errors.Join(ErrSendRejected, ErrQueueFull)
	}

	rec := &kgo.Record{
		Topic:     t.name,
		Partition: partition,
		Value:     value,
	}
	return p.handle.produce(rec, token, t.settings.messageTimeout)
}

// Poll reports the deliveries completed since the previous poll, waiting up
// to timeout for one when none has.  A zero timeout never blocks; a negative
// one waits until a delivery completes.
func (p *Producer) Poll(timeout time.Duration) (PollResult, error) {
	return p.handle.poll(timeout)
}

// AddDeliveryListener adds a listener receiving every DeliveryEvent.
// Listeners run on the goroutine calling Poll.  The returned function
// removes the listener.
func (p *Producer) AddDeliveryListener(fn func(*DeliveryEvent)) func() {
	return p.handle.listeners.Add(fn)
}

// BufferedRecords returns the current and maximum buffer counts and bytes.
// maxBytes is 0 when queue.buffering.max.kbytes is not set.
func (p *Producer) BufferedRecords() (currentRecords int64, maxRecords int, currentBytes int64, maxBytes int) {
	currentRecords, currentBytes = p.handle.bufferedRecords()
	return currentRecords, p.settings.maxBufferedRecords, currentBytes, p.settings.maxBufferedBytes
}

// Close destroys every topic and releases the producer's own reference.  The
// last release flushes buffered records for at most Options.FlushTimeout
// and closes the client.  Close is idempotent.
func (p *Producer) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	topics := p.topics
	p.topics = make(map[string]*Topic)
	p.mu.Unlock()

	var errs []error
	for _, t := range topics {
		if err := t.release(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := p.handle.release(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
