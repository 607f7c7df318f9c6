// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Package kafkabridge exposes an Apache Kafka client to a host environment
// that works with loosely typed configuration maps, byte buffers and a
// poll-driven call pattern.
//
// # Overview
//
// The host supplies librdkafka style configuration (map keys like
// "linger.ms" or "group.id") which is validated against an explicit property
// schema and translated into franz-go options.  Producer delivery
// confirmations arrive asynchronously; they are queued and reported by Poll
// as the token of the last completed send plus the number of failures, so
// the host never has to deal with callbacks running on other goroutines.
//
// # Quick Start
//
//	producer, err := kafkabridge.NewProducer("localhost:9092", kafkabridge.ConfigMap{
//	    "linger.ms":        5,
//	    "compression.codec": "snappy",
//	}, kafkabridge.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer producer.Close()
//
//	if _, err := producer.CreateTopic("device-events", nil); err != nil {
//	    log.Fatal(err)
//	}
//
//	err = producer.Send("device-events", kafkabridge.PartitionUnassigned, 42, []byte("hello"))
//	if err != nil {
//	    log.Printf("send rejected: %v", err)
//	}
//
//	result, _ := producer.Poll(time.Second)
//	if result.Valid {
//	    log.Printf("last delivered token %d, %d failures", result.Token, result.Failures)
//	}
//
// # Client Lifetime
//
// A Producer owns one franz-go client shared by all of its topics.  The
// producer and every Topic hold a reference to it; releasing the last
// reference flushes buffered records for at most Options.FlushTimeout and
// closes the client.  Topics may be closed in any order, before or after the
// producer.
//
// # Zero Copy Sends
//
// Producer.SendSegments accepts a payload split over several buffers.  A
// single segment is handed to the client as is, without a copy; several
// segments are assembled into one new buffer.
//
// # Consumers
//
// NewConsumer takes a list of topic specifiers, either "topic" or
// "topic:partition".  A list of bare names subscribes through the consumer
// group named by group.id.  As soon as one entry names a partition the whole
// list is consumed by direct assignment; offsets are still stored on the
// broker under group.id, and assigned partitions resume from them.
//
//	consumer, err := kafkabridge.NewConsumer("localhost:9092",
//	    []string{"device-events:0", "device-events:1"},
//	    kafkabridge.ConfigMap{"group.id": "bridge"}, nil, kafkabridge.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer consumer.Close()
//
//	for {
//	    msg, err := consumer.Receive(ctx)
//	    var topicErr *kafkabridge.TopicError
//	    switch {
//	    case errors.As(err, &topicErr):
//	        log.Printf("topic error: %v", topicErr)
//	    case err != nil:
//	        return err
//	    case msg != nil:
//	        handle(msg)
//	    }
//	}
//
// # Errors
//
// Errors are classified by sentinel values such as ErrConfiguration,
// ErrSendRejected or ErrConsumerTopic; test for them with errors.Is.
// Delivery failures are only observed through Poll and delivery listeners.
//
// # Observability
//
// Options.Logger accepts any kgo.Logger (for example the kzap plugin); the
// log_level property caps the levels passed through.  Options.Hooks accepts
// franz-go hooks such as the kprom metrics plugin.  Setting
// statistics.interval.ms delivers periodic Stats snapshots to
// Options.StatsListener.
package kafkabridge
