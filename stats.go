// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkabridge

import (
	"sync"
	"sync/atomic"
	"time"
)

// Stats is a point in time snapshot of a client's counters, emitted every
// statistics.interval.ms.
type Stats struct {
	// Time is when the snapshot was taken.
	Time time.Time `json:"time"`

	// ClientID is the configured client.id, if any.
	ClientID string `json:"client_id,omitempty"`

	// BufferedRecords and BufferedBytes describe the producer queue.
	BufferedRecords int64 `json:"buffered_records"`
	BufferedBytes   int64 `json:"buffered_bytes"`

	// Delivered and Failed count delivery reports seen by Poll.
	Delivered uint64 `json:"delivered"`
	Failed    uint64 `json:"failed"`

	// Received counts messages returned by Receive.
	Received uint64 `json:"received"`

	// BrokerErrors counts failed broker connection attempts.
	BrokerErrors uint64 `json:"broker_errors"`
}

// statsCollector accumulates counters and hands snapshots to the listener.
// The counters are written from franz-go goroutines (broker errors) and the
// polling goroutine.
type statsCollector struct {
	clientID string
	interval time.Duration
	listener func(*Stats)
	now      func() time.Time

	delivered    atomic.Uint64
	failed       atomic.Uint64
	received     atomic.Uint64
	brokerErrors atomic.Uint64

	mu   sync.Mutex
	last time.Time
}

func newStatsCollector(s *clientSettings, listener func(*Stats)) *statsCollector {
	c := statsCollector{
		clientID: s.clientID,
		interval: s.statsInterval,
		listener: listener,
		now:      time.Now,
	}
	c.last = c.now()
	return &c
}

func (c *statsCollector) recordDelivery(err error) {
	if err != nil {
		c.failed.Add(1)
		return
	}
	c.delivered.Add(1)
}

func (c *statsCollector) recordReceive() {
	c.received.Add(1)
}

func (c *statsCollector) recordBrokerError() {
	c.brokerErrors.Add(1)
}

// emit sends a snapshot when the interval has elapsed since the previous one.
// buffered may be nil for clients without a producer queue.
func (c *statsCollector) emit(buffered producerClient) {
	if c.listener == nil || c.interval <= 0 {
		return
	}

	c.mu.Lock()
	now := c.now()
	if now.Sub(c.last) < c.interval {
		c.mu.Unlock()
		return
	}
	c.last = now
	c.mu.Unlock()

	c.listener(c.snapshot(now, buffered))
}

func (c *statsCollector) snapshot(now time.Time, buffered producerClient) *Stats {
	stats := Stats{
		Time:         now,
		ClientID:     c.clientID,
		Delivered:    c.delivered.Load(),
		Failed:       c.failed.Load(),
		Received:     c.received.Load(),
		BrokerErrors: c.brokerErrors.Load(),
	}
	if buffered != nil {
		stats.BufferedRecords = buffered.BufferedProduceRecords()
		stats.BufferedBytes = buffered.BufferedProduceBytes()
	}
	return &stats
}
