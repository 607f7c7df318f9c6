// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkabridge

import "errors"

var (
	// ErrConfiguration indicates a bad key or value type, a rejected setting
	// or a missing required key.  Always reported at construction time.
	ErrConfiguration = &metricError{
		metric:  "configuration_error",
		message: "configuration error",
	}

	// ErrConnection indicates the client could not be created, for example
	// because the broker list holds no valid entry.
	ErrConnection = &metricError{
		metric:  "connection_error",
		message: "connection error",
	}

	// ErrSendRejected indicates a send was refused locally.  The message was
	// not queued; a later retry by the caller may still succeed.
	ErrSendRejected = &metricError{
		metric:  "send_rejected",
		message: "send rejected",
	}

	// ErrQueueFull indicates the local outbound queue is at capacity.
	ErrQueueFull = &metricError{
		metric:  "queue_full",
		message: "local queue full",
	}

	// ErrMessageTooLarge indicates the payload exceeds message.max.bytes.
	ErrMessageTooLarge = &metricError{
		metric:  "message_too_large",
		message: "message size too large",
	}

	// ErrInvalidTopic indicates the topic is not known to the producer.
	ErrInvalidTopic = &metricError{
		metric:  "invalid_topic",
		message: "invalid topic",
	}

	// ErrInvalidPartition indicates a topic specifier carried a partition
	// that is not an integer in [0, MaxInt32].
	ErrInvalidPartition = &metricError{
		metric:  "invalid_partition",
		message: "invalid topic partition",
	}

	// ErrDelivery indicates the broker rejected or timed out a previously
	// accepted send.  Only observed through Poll.
	ErrDelivery = &metricError{
		metric:  "delivery_failure",
		message: "delivery failed",
	}

	// ErrConsumerTopic indicates an unknown topic or partition while
	// receiving.
	ErrConsumerTopic = &metricError{
		metric:  "consumer_topic_error",
		message: "consumer topic error",
	}

	// ErrClosed indicates the producer, topic or consumer was closed.
	ErrClosed = &metricError{
		metric:  "closed",
		message: "client closed",
	}

	// ErrRefCount indicates a client handle was released more often than it
	// was referenced.
	ErrRefCount = &metricError{
		metric:  "reference_count",
		message: "reference count underflow",
	}
)

// metricError is an internal error type that wraps errors with a type classification
// for metrics and observability. The errorType field provides a string label for grouping
// errors in metrics systems.
type metricError struct {
	metric  string // Type classification for metrics (e.g., "configuration_error")
	message string // Human-readable message
}

// Error implements the error interface.
func (e *metricError) Error() string {
	return e.message
}

func (e *metricError) Metric() string {
	return e.metric
}

func (e *metricError) Is(target error) bool {
	if t, ok := target.(*metricError); ok {
		return e.message == t.message
	}
	return false
}

// errorType extracts the error type string for metrics classification.
// Walks the error chain to find metricError types.
func errorType(err error) string {
	if err == nil {
		return ""
	}

	var me *metricError
	if errors.As(err, &me) {
		return me.Metric()
	}

	return "unknown"
}
