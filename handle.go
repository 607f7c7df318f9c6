// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkabridge

import (
	"context"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/xmidt-org/eventor"
)

// clientHandle owns a producing Kafka client shared by a Producer and its
// topics.  Every holder takes a reference; the client is flushed and closed
// when the last one is released.
type clientHandle struct {
	client       producerClient
	logger       kgo.Logger
	partitioner  *bridgePartitioner
	stats        *statsCollector
	flushTimeout time.Duration
	queue        *deliveryQueue
	listeners    eventor.Eventor[func(*DeliveryEvent)]

	mu        sync.Mutex
	refs      int
	destroyed bool
	result    PollResult
}

// newClientHandle creates the client.  The handle starts without references.
func newClientHandle(brokers string, s *clientSettings, o Options) (*clientHandle, error) {
	logger := newLogger(o.Logger, s)

	h := clientHandle{
		logger:       logger,
		partitioner:  newBridgePartitioner(s.topic.partitioner),
		stats:        newStatsCollector(s, o.StatsListener),
		flushTimeout: o.flushTimeout(),
		queue:        newDeliveryQueue(),
	}

	opts, err := o.baseOpts(brokers, s, logger, h.stats)
	if err != nil {
		return nil, err
	}
	opts = append(opts, o.hookOpts()...)
	opts = append(opts, kgo.RecordPartitioner(h.partitioner))

	factory := o.clientFactory
	if factory == nil {
		factory = defaultClientFactory
	}

	client, err := factory(opts...)
	if err != nil {
		return nil, connectionError(err)
	}
	h.client = client

	for _, listener := range o.InitialDeliveryListeners {
		h.listeners.Add(listener)
	}

	logger.Log(kgo.LogLevelInfo, "producer client created")
	return &h, nil
}

func (h *clientHandle) reference() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.refs++
	h.logger.Log(kgo.LogLevelDebug, "increased client reference count", "refs", h.refs)
}

// release drops a reference, destroying the client when none remain.
func (h *clientHandle) release() error {
	h.mu.Lock()
	if h.refs == 0 || h.destroyed {
		h.mu.Unlock()
		return ErrRefCount
	}

	h.refs--
	h.logger.Log(kgo.LogLevelDebug, "decreased client reference count", "refs", h.refs)
	if h.refs > 0 {
		h.mu.Unlock()
		return nil
	}
	h.destroyed = true
	h.mu.Unlock()

	h.destroy()
	return nil
}

// destroy flushes with a bounded wait, then closes the client.
func (h *clientHandle) destroy() {
	h.logger.Log(kgo.LogLevelInfo, "all client references gone, flushing buffered records")

	ctx, cancel := context.WithTimeout(context.Background(), h.flushTimeout)
	if err := h.client.Flush(ctx); err != nil {
		h.logger.Log(kgo.LogLevelWarn, "flush incomplete during shutdown",
			"undelivered", h.client.BufferedProduceRecords(),
			"error", err.Error(),
		)
	}
	cancel()

	h.client.Close()
	h.logger.Log(kgo.LogLevelInfo, "producer client closed")
}

func (h *clientHandle) closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.destroyed
}

// produce hands rec to the client.  The delivery outcome is queued for the
// next poll.  A positive timeout bounds the time the record may wait for
// delivery.
func (h *clientHandle) produce(rec *kgo.Record, token uint64, timeout time.Duration) error {
	if h.closed() {
		return ErrClosed
	}

	ctx, cancel := context.Background(), context.CancelFunc(func() {})
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	}

	h.client.TryProduce(ctx, rec, func(r *kgo.Record, err error) {
		cancel()
		h.queue.push(deliveryReport{token: token, record: r, err: err})
	})
	return nil
}

// poll runs the delivery callback for every report that completed since the
// previous poll.  See deliveryQueue.await for the timeout semantics.
func (h *clientHandle) poll(timeout time.Duration) (PollResult, error) {
	h.mu.Lock()
	if h.destroyed {
		h.mu.Unlock()
		return PollResult{}, ErrClosed
	}
	h.result = PollResult{}
	h.mu.Unlock()

	for _, report := range h.queue.await(timeout) {
		h.deliver(&report)
	}

	h.stats.emit(h.client)

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.result, nil
}

// deliver is the delivery callback.  The token is last-write-wins.
func (h *clientHandle) deliver(r *deliveryReport) {
	h.mu.Lock()
	h.result.Token = r.token
	h.result.Valid = true
	if r.err != nil {
		h.result.Failures++
	}
	h.mu.Unlock()

	h.stats.recordDelivery(r.err)

	event := r.event()
	if event.Error != nil {
		h.logger.Log(kgo.LogLevelWarn, "message delivery failed",
			"token", event.Token,
			"topic", event.Topic,
			"partition", event.Partition,
			"code", event.ErrorCode,
			"error", r.err.Error(),
		)
	}

	h.listeners.Visit(func(listener func(*DeliveryEvent)) {
		listener(event)
	})
}

func (h *clientHandle) bufferedRecords() (records, bytes int64) {
	if h.closed() {
		return 0, 0
	}
	return h.client.BufferedProduceRecords(), h.client.BufferedProduceBytes()
}
