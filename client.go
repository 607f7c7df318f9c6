// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkabridge

import (
	"context"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

// producerClient is an interface for the franz-go client methods a producer
// needs.  This allows us to mock the client for testing while using the real
// kgo.Client in production.
type producerClient interface {
	// TryProduce buffers a record without blocking; the promise reports the
	// delivery outcome from a franz-go goroutine.
	TryProduce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))

	// Flush waits for all buffered records to be delivered.
	Flush(ctx context.Context) error

	// Close closes the Kafka client and releases resources.
	Close()

	// BufferedProduceRecords returns the current number of buffered records.
	BufferedProduceRecords() int64

	// BufferedProduceBytes returns the current number of buffered bytes.
	BufferedProduceBytes() int64
}

// consumerClient is the consuming counterpart of producerClient.
type consumerClient interface {
	// PollRecords waits for fetched records until ctx is done.
	PollRecords(ctx context.Context, maxPollRecords int) kgo.Fetches

	// SetOffsets moves the consume position of the given partitions.
	SetOffsets(map[string]map[int32]kgo.EpochOffset)

	// Close closes the Kafka client, leaving any group it joined.
	Close()
}

// offsetAdmin stores consumer positions on the broker for consumers that
// are not group members.
type offsetAdmin interface {
	FetchOffsets(ctx context.Context, group string) (kadm.OffsetResponses, error)
	CommitOffsets(ctx context.Context, group string, os kadm.Offsets) (kadm.OffsetResponses, error)
}

// Verify the franz-go types implement the interfaces at compile time.
var (
	_ producerClient = (*kgo.Client)(nil)
	_ consumerClient = (*kgo.Client)(nil)
	_ offsetAdmin    = (*kadm.Client)(nil)
)

// clientFactory is a function that creates a producing Kafka client from
// options.  This allows dependency injection for testing.
type clientFactory func(opts ...kgo.Opt) (producerClient, error)

// consumerFactory creates a consuming Kafka client and its offset admin.
type consumerFactory func(opts ...kgo.Opt) (consumerClient, offsetAdmin, error)

// defaultClientFactory is the production client factory that uses franz-go.
func defaultClientFactory(opts ...kgo.Opt) (producerClient, error) {
	return kgo.NewClient(opts...)
}

func defaultConsumerFactory(opts ...kgo.Opt) (consumerClient, offsetAdmin, error) {
	cl, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, nil, err
	}
	return cl, kadm.NewClient(cl), nil
}
