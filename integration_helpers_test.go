// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

//go:build integration

package kafkabridge_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/xmidt-org/kafkabridge"
)

const (
	messageConsumeWait = 10 * time.Second
	deliveryWait       = 10 * time.Second
)

// setupKafka starts Kafka using testcontainers and returns the broker address.
// The container is stopped when the test completes.
func setupKafka(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	// confluent-local runs in KRaft mode; testcontainers validates the tag.
	kafkaContainer, err := kafka.Run(ctx,
		"confluentinc/confluent-local:7.8.0",
		kafka.WithClusterID("test-cluster"),
	)
	require.NoError(t, err, "Failed to start Kafka container")

	t.Cleanup(func() {
		t.Log("Stopping Kafka container...")
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate Kafka container: %v", err)
		}
	})

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "Failed to get Kafka brokers")
	require.NotEmpty(t, brokers, "No Kafka brokers available")

	broker := brokers[0]
	t.Logf("Kafka broker available at: %s", broker)

	require.NoError(t, waitForKafka(ctx, t, broker))

	return broker
}

// waitForKafka pings the broker until it responds or 30 seconds pass.
func waitForKafka(ctx context.Context, t *testing.T, broker string) error {
	t.Helper()

	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		client, err := kgo.NewClient(
			kgo.SeedBrokers(broker),
			kgo.RequestTimeoutOverhead(5*time.Second),
		)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := client.Ping(pingCtx)
			cancel()
			client.Close()

			if err == nil {
				t.Log("Kafka is ready!")
				return nil
			}
			t.Logf("Kafka not ready yet: %v", err)
		}

		time.Sleep(1 * time.Second)
	}

	return context.DeadlineExceeded
}

// createTopic creates a topic with the given number of partitions.
func createTopic(t *testing.T, broker, topic string, partitions int32) {
	t.Helper()

	client, err := kgo.NewClient(kgo.SeedBrokers(broker))
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := kadm.NewClient(client).CreateTopic(ctx, partitions, 1, nil, topic)
	require.NoError(t, err)
	require.NoError(t, resp.Err)
}

// createTestProducer creates a Producer that may create topics on demand.
func createTestProducer(t *testing.T, broker string, cfg kafkabridge.ConfigMap) *kafkabridge.Producer {
	t.Helper()

	all := kafkabridge.ConfigMap{
		"allow.auto.create.topics": true,
		"linger.ms":                1,
	}
	for k, v := range cfg {
		all[k] = v
	}

	p, err := kafkabridge.NewProducer(broker, all, kafkabridge.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

// awaitDelivery polls until token is reported or deliveryWait passes.
func awaitDelivery(t *testing.T, p *kafkabridge.Producer, token uint64) kafkabridge.PollResult {
	t.Helper()

	deadline := time.Now().Add(deliveryWait)
	for time.Now().Before(deadline) {
		result, err := p.Poll(100 * time.Millisecond)
		require.NoError(t, err)
		if result.Valid && result.Token == token {
			return result
		}
	}

	t.Fatalf("token %d was not reported", token)
	return kafkabridge.PollResult{}
}

// receiveMessages receives until want messages arrived or timeout passes.
func receiveMessages(t *testing.T, c *kafkabridge.Consumer, want int, timeout time.Duration) []*kafkabridge.Message {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var msgs []*kafkabridge.Message
	for len(msgs) < want && ctx.Err() == nil {
		msg, err := c.Receive(ctx)
		if err != nil {
			t.Logf("Receive error: %v", err)
			continue
		}
		if msg != nil {
			msgs = append(msgs, msg)
		}
	}

	return msgs
}

// consumeRecords reads the raw records of a topic from the beginning.
func consumeRecords(t *testing.T, broker, topic string, timeout time.Duration) []*kgo.Record {
	t.Helper()

	client, err := kgo.NewClient(
		kgo.SeedBrokers(broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err, "Failed to create Kafka consumer")
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var records []*kgo.Record
	for ctx.Err() == nil {
		fetches := client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			break
		}

		fetches.EachError(func(topic string, partition int32, err error) {
			t.Logf("Fetch error on %s[%d]: %v", topic, partition, err)
		})

		fetches.EachRecord(func(r *kgo.Record) {
			records = append(records, r)
		})

		if len(records) > 0 {
			break
		}
	}

	return records
}
