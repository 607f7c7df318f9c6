// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkabridge

import (
	"errors"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// DeliveryEvent describes the outcome of one produced record.
type DeliveryEvent struct {
	// Token is the caller supplied token of the record.
	Token uint64

	// Topic and Partition are where the record was (or would have been)
	// written.  Partition is -1 if no partition was chosen.
	Topic     string
	Partition int32

	// Offset is the record offset on success, -1 otherwise.
	Offset int64

	// Error is nil for delivered records.
	Error error

	// ErrorCode is the Kafka protocol error code, 0 if the failure did not
	// come from a broker.
	ErrorCode int16

	// ErrorType is the error classification (empty for successful deliveries).
	ErrorType string
}

// PollResult is what a poll observed.
//
// Only the last token is kept.  When several records complete during the
// same poll the earlier tokens are lost; Failures still counts every failed
// record, and delivery listeners see each event.
type PollResult struct {
	// Token is the token of the last record that completed.
	Token uint64

	// Valid reports whether any record completed; Token is meaningless
	// otherwise.
	Valid bool

	// Failures is the number of records that failed during the poll.
	Failures int
}

// deliveryReport is a completed promise waiting to be polled.
type deliveryReport struct {
	token  uint64
	record *kgo.Record
	err    error
}

func (r *deliveryReport) event() *DeliveryEvent {
	ev := DeliveryEvent{
		Token:     r.token,
		Partition: PartitionUnassigned,
		Offset:    -1,
		Error:     r.err,
	}
	if r.record != nil {
		ev.Topic = r.record.Topic
		ev.Partition = r.record.Partition
		if r.err == nil {
			ev.Offset = r.record.Offset
		}
	}
	if r.err != nil {
		ev.Error = errors.Join(ErrDelivery, r.err)
		ev.ErrorType = errorType(ev.Error)
		var ke *kerr.Error
		if errors.As(r.err, &ke) {
			ev.ErrorCode = ke.Code
		}
	}
	return &ev
}

// deliveryQueue carries reports from franz-go promise goroutines to the
// polling goroutine.
type deliveryQueue struct {
	mu      sync.Mutex
	reports []deliveryReport
	ready   chan struct{}
}

func newDeliveryQueue() *deliveryQueue {
	return &deliveryQueue{ready: make(chan struct{}, 1)}
}

func (q *deliveryQueue) push(r deliveryReport) {
	q.mu.Lock()
	q.reports = append(q.reports, r)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

func (q *deliveryQueue) drain() []deliveryReport {
	q.mu.Lock()
	defer q.mu.Unlock()

	select {
	case <-q.ready:
	default:
	}

	reports := q.reports
	q.reports = nil
	return reports
}

// await drains the queue, waiting up to timeout for the first report when
// it is empty.  A zero timeout never waits; a negative one waits forever.
func (q *deliveryQueue) await(timeout time.Duration) []deliveryReport {
	reports := q.drain()
	if len(reports) > 0 || timeout == 0 {
		return reports
	}

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	for len(reports) == 0 {
		select {
		case <-q.ready:
			reports = q.drain()
		case <-expired:
			return q.drain()
		}
	}
	return reports
}
