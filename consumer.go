// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkabridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

const (
	receiveTimeout = time.Second
	offsetTimeout  = 5 * time.Second
)

// Message is a received record.
type Message struct {
	Value []byte

	// Key is nil when the record has no key.
	Key []byte

	Topic     string
	Partition int32
	Offset    int64
	Timestamp time.Time
}

// TopicError reports an unknown topic or partition while receiving.  It
// matches ErrConsumerTopic and the broker error with errors.Is.
type TopicError struct {
	Topic     string
	Partition int32

	// Offset is the last offset received from the partition, -1 if none.
	Offset int64

	Err error
}

func (e *TopicError) Error() string {
	return fmt.Sprintf("topic: %s partition: %d offset: %d err: %v", e.Topic, e.Partition, e.Offset, e.Err)
}

func (e *TopicError) Unwrap() []error {
	return []error{ErrConsumerTopic, e.Err}
}

// Consumer receives records from a subscription or an explicit partition
// assignment.  Offsets are always stored on the broker under group.id.
//
// Receive and Close may be called from different goroutines; Receive itself
// is meant to be called from one goroutine in a loop.
type Consumer struct {
	client     consumerClient
	admin      offsetAdmin
	logger     kgo.Logger
	stats      *statsCollector
	assignment *ConsumerAssignment
	groupID    string
	topic      topicSettings
	now        func() time.Time

	mu         sync.Mutex
	closed     bool
	records    []*kgo.Record
	errs       []error
	lastOffset map[string]map[int32]int64

	// positions tracks the next offset per partition in assignment mode,
	// committed every auto.commit.interval.ms.
	positions  map[string]map[int32]kgo.EpochOffset
	dirty      bool
	lastCommit time.Time
}

// NewConsumer creates a consumer for the topic specifiers.  cfg holds client
// properties and must set group.id; topicCfg holds topic properties applied
// on top of the defaults in cfg.  Offsets are always stored on the broker
// and committed automatically.
//
// In assignment mode pinned partitions resume from the offsets committed
// under group.id.  Bare topics in an assignment list are moved to their
// committed offsets only for partitions the client already tracks when the
// consumer is created; the others start at auto.offset.reset.
func NewConsumer(brokers string, specifiers []string, cfg, topicCfg ConfigMap, opts Options) (*Consumer, error) {
	assignment, err := ParseTopicSpecifiers(specifiers)
	if err != nil {
		return nil, err
	}

	s, err := translateClientConfig(cfg)
	if err != nil {
		return nil, err
	}
	if s.groupID == "" {
		return nil, errors.Join(ErrConfiguration, errors.New("group.id must be set"))
	}

	topic, err := translateTopicConfig(s.topic, topicCfg)
	if err != nil {
		return nil, err
	}
	topic.offsetStoreMethod = "broker"
	topic.autoCommit = true

	logger := newLogger(opts.Logger, s)
	if !s.autoCommit {
		logger.Log(kgo.LogLevelWarn, "enable.auto.commit=false is overridden, offsets are committed automatically")
	}

	c := Consumer{
		logger:     logger,
		stats:      newStatsCollector(s, opts.StatsListener),
		assignment: assignment,
		groupID:    s.groupID,
		topic:      topic,
		now:        time.Now,
		lastOffset: make(map[string]map[int32]int64),
		positions:  make(map[string]map[int32]kgo.EpochOffset),
	}

	kopts, err := opts.baseOpts(brokers, s, logger, c.stats)
	if err != nil {
		return nil, err
	}

	factory := opts.consumerFactory
	if factory == nil {
		factory = defaultConsumerFactory
	}

	var committed map[string]map[int32]kgo.EpochOffset
	if assignment.Mode == Assignment {
		committed = c.fetchCommitted(factory, kopts)
	}
	kopts = append(kopts, opts.hookOpts()...)
	kopts = append(kopts, c.bindOpts(committed)...)

	client, admin, err := factory(kopts...)
	if err != nil {
		return nil, connectionError(err)
	}
	c.client = client
	c.admin = admin
	c.lastCommit = c.now()

	c.restoreOffsets(committed)

	logger.Log(kgo.LogLevelInfo, "consumer client created",
		"group", c.groupID,
		"mode", assignment.Mode.String(),
	)
	return &c, nil
}

// bindOpts returns the options subscribing to or assigning the topics.
// Pinned partitions start at their committed offsets when known.
func (c *Consumer) bindOpts(committed map[string]map[int32]kgo.EpochOffset) []kgo.Opt {
	reset := c.topic.resetOffset()

	if c.assignment.Mode == Subscription {
		return []kgo.Opt{
			kgo.ConsumerGroup(c.groupID),
			kgo.ConsumeTopics(c.assignment.Topics()...),
			kgo.ConsumeResetOffset(reset),
			kgo.AutoCommitInterval(c.topic.autoCommitInterval),
		}
	}

	opts := []kgo.Opt{kgo.ConsumeResetOffset(reset)}

	if pinned := c.assignment.pinned(); len(pinned) > 0 {
		partitions := make(map[string]map[int32]kgo.Offset, len(pinned))
		for topic, ps := range pinned {
			partitions[topic] = make(map[int32]kgo.Offset, len(ps))
			for _, p := range ps {
				partitions[topic][p] = reset
				if eo, ok := committed[topic][p]; ok {
					partitions[topic][p] = kgo.NewOffset().At(eo.Offset).WithEpoch(eo.Epoch)
				}
			}
		}
		opts = append(opts, kgo.ConsumePartitions(partitions))
	}

	if unpinned := c.assignment.unpinned(); len(unpinned) > 0 {
		opts = append(opts, kgo.ConsumeTopics(unpinned...))
	}

	return opts
}

// fetchCommitted reads the offsets committed under the group for the
// assigned partitions, using a short lived client.  Failures are logged and
// leave the reset offsets in place.
func (c *Consumer) fetchCommitted(factory consumerFactory, opts []kgo.Opt) map[string]map[int32]kgo.EpochOffset {
	probe, admin, err := factory(opts...)
	if err != nil {
		c.logger.Log(kgo.LogLevelWarn, "unable to fetch committed offsets", "group", c.groupID, "error", err.Error())
		return nil
	}
	defer probe.Close()

	ctx, cancel := context.WithTimeout(context.Background(), offsetTimeout)
	defer cancel()

	resps, err := admin.FetchOffsets(ctx, c.groupID)
	if err != nil {
		c.logger.Log(kgo.LogLevelWarn, "unable to fetch committed offsets", "group", c.groupID, "error", err.Error())
		return nil
	}

	committed := make(map[string]map[int32]kgo.EpochOffset)
	for topic, partitions := range resps {
		for partition, resp := range partitions {
			if resp.Err != nil || resp.At < 0 || !c.assignment.includes(topic, partition) {
				continue
			}
			if committed[topic] == nil {
				committed[topic] = make(map[int32]kgo.EpochOffset)
			}
			committed[topic][partition] = kgo.EpochOffset{Epoch: resp.LeaderEpoch, Offset: resp.At}
		}
	}
	return committed
}

// restoreOffsets moves partitions of fully consumed topics to their committed
// offsets.  Only partitions the client already tracks are moved.
func (c *Consumer) restoreOffsets(committed map[string]map[int32]kgo.EpochOffset) {
	pinned := c.assignment.pinned()

	set := make(map[string]map[int32]kgo.EpochOffset)
	for topic, partitions := range committed {
		if _, ok := pinned[topic]; !ok {
			set[topic] = partitions
		}
	}

	if len(set) > 0 {
		c.client.SetOffsets(set)
	}
	if len(committed) > 0 {
		c.logger.Log(kgo.LogLevelInfo, "restored committed offsets", "group", c.groupID, "topics", len(committed))
	}
}

// Mode returns how the consumer is bound to its topics.
func (c *Consumer) Mode() BindMode {
	return c.assignment.Mode
}

// Assignment returns a copy of the parsed topic list.
func (c *Consumer) Assignment() *ConsumerAssignment {
	return c.assignment.clone()
}

// Receive waits up to one second, or until ctx is done, for the next record.
//
// It returns the message, or a *TopicError for an unknown topic or
// partition, or nil, nil when nothing arrived.  Other fetch errors are logged
// and reported as nil, nil.  Errors fetched together with a record are
// returned by the following calls.  After Close it returns ErrClosed.
func (c *Consumer) Receive(ctx context.Context) (*Message, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if c.buffered() {
		msg, err := c.next()
		c.mu.Unlock()
		return msg, err
	}
	c.mu.Unlock()

	c.maybeCommit(ctx)

	pctx, cancel := context.WithTimeout(ctx, receiveTimeout)
	fetches := c.client.PollRecords(pctx, 1)
	cancel()

	c.stats.emit(nil)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}

	for _, fe := range fetches.Errors() {
		switch {
		case errors.Is(fe.Err, context.DeadlineExceeded), errors.Is(fe.Err, context.Canceled):
		case errors.Is(fe.Err, kgo.ErrClientClosed):
			return nil, ErrClosed
		case errors.Is(fe.Err, kerr.UnknownTopicOrPartition), errors.Is(fe.Err, kerr.UnknownTopicID):
			c.errs = append(c.errs, &TopicError{
				Topic:     fe.Topic,
				Partition: fe.Partition,
				Offset:    c.offsetOf(fe.Topic, fe.Partition),
				Err:       fe.Err,
			})
		default:
			c.logger.Log(kgo.LogLevelWarn, "fetch error",
				"topic", fe.Topic,
				"partition", fe.Partition,
				"error", fe.Err.Error(),
			)
		}
	}

	c.records = append(c.records, fetches.Records()...)

	return c.next()
}

// buffered reports whether records or errors are waiting.  Must be called
// with mu held.
func (c *Consumer) buffered() bool {
	return len(c.records) > 0 || len(c.errs) > 0
}

// next pops the next buffered record, then the next queued error.  Must be
// called with mu held.
func (c *Consumer) next() (*Message, error) {
	if len(c.records) > 0 {
		rec := c.records[0]
		c.records = c.records[1:]
		return c.track(rec), nil
	}
	if len(c.errs) > 0 {
		err := c.errs[0]
		c.errs = c.errs[1:]
		return nil, err
	}
	return nil, nil
}

// track records the position of rec and converts it.  Must be called with
// mu held.
func (c *Consumer) track(rec *kgo.Record) *Message {
	if c.lastOffset[rec.Topic] == nil {
		c.lastOffset[rec.Topic] = make(map[int32]int64)
	}
	c.lastOffset[rec.Topic][rec.Partition] = rec.Offset

	if c.assignment.Mode == Assignment {
		if c.positions[rec.Topic] == nil {
			c.positions[rec.Topic] = make(map[int32]kgo.EpochOffset)
		}
		c.positions[rec.Topic][rec.Partition] = kgo.EpochOffset{
			Epoch:  rec.LeaderEpoch,
			Offset: rec.Offset + 1,
		}
		c.dirty = true
	}

	c.stats.recordReceive()

	msg := Message{
		Value:     rec.Value,
		Topic:     rec.Topic,
		Partition: rec.Partition,
		Offset:    rec.Offset,
		Timestamp: rec.Timestamp,
	}
	if len(rec.Key) > 0 {
		msg.Key = rec.Key
	}
	return &msg
}

func (c *Consumer) offsetOf(topic string, partition int32) int64 {
	if off, ok := c.lastOffset[topic][partition]; ok {
		return off
	}
	return -1
}

// maybeCommit commits the tracked positions once the commit interval has
// elapsed.
func (c *Consumer) maybeCommit(ctx context.Context) {
	c.mu.Lock()
	due := c.dirty && c.now().Sub(c.lastCommit) >= c.topic.autoCommitInterval
	c.mu.Unlock()

	if due {
		c.commit(ctx)
	}
}

// commit stores the tracked positions under the group.
func (c *Consumer) commit(ctx context.Context) {
	c.mu.Lock()
	if !c.dirty {
		c.mu.Unlock()
		return
	}
	offsets := make(kadm.Offsets, len(c.positions))
	for topic, partitions := range c.positions {
		offsets[topic] = make(map[int32]kadm.Offset, len(partitions))
		for partition, pos := range partitions {
			offsets[topic][partition] = kadm.Offset{
				Topic:       topic,
				Partition:   partition,
				At:          pos.Offset,
				LeaderEpoch: pos.Epoch,
			}
		}
	}
	c.dirty = false
	c.lastCommit = c.now()
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, offsetTimeout)
	defer cancel()

	resps, err := c.admin.CommitOffsets(ctx, c.groupID, offsets)
	if err != nil {
		c.logger.Log(kgo.LogLevelWarn, "offset commit failed", "group", c.groupID, "error", err.Error())
		c.markDirty()
		return
	}

	for topic, partitions := range resps {
		for partition, resp := range partitions {
			if resp.Err != nil {
				c.logger.Log(kgo.LogLevelWarn, "offset commit rejected",
					"group", c.groupID,
					"topic", topic,
					"partition", partition,
					"error", resp.Err.Error(),
				)
				c.markDirty()
			}
		}
	}
}

func (c *Consumer) markDirty() {
	c.mu.Lock()
	c.dirty = true
	c.mu.Unlock()
}

// Close commits the tracked positions (assignment mode) and closes the
// client.  Close is idempotent.
func (c *Consumer) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	if c.assignment.Mode == Assignment {
		c.commit(context.Background())
	}

	c.client.Close()
	c.logger.Log(kgo.LogLevelInfo, "consumer client closed", "group", c.groupID)
	return nil
}
