// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkabridge

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// TopicPartition is one entry of a consumer topic list.
type TopicPartition struct {
	Topic string

	// Partition is PartitionUnassigned for bare topic names.
	Partition int32
}

// String returns the specifier form, "topic" or "topic:partition".
func (tp TopicPartition) String() string {
	if tp.Partition == PartitionUnassigned {
		return tp.Topic
	}
	return tp.Topic + ":" + strconv.FormatInt(int64(tp.Partition), 10)
}

// ConsumerAssignment is a parsed topic specifier list.
type ConsumerAssignment struct {
	// Mode is Assignment as soon as one entry names a partition.
	Mode BindMode

	// Entries keeps the order of the specifiers.
	Entries []TopicPartition
}

// ParseTopicSpecifiers parses "topic" and "topic:partition" specifiers.
// Partitions must be integers in [0, MaxInt32].
func ParseTopicSpecifiers(specs []string) (*ConsumerAssignment, error) {
	if len(specs) == 0 {
		return nil, errors.Join(ErrConfiguration, errors.New("topic list is empty"))
	}

	a := ConsumerAssignment{
		Mode:    Subscription,
		Entries: make([]TopicPartition, 0, len(specs)),
	}

	for _, spec := range specs {
		tp, err := parseTopicSpecifier(spec)
		if err != nil {
			return nil, err
		}
		if tp.Partition != PartitionUnassigned {
			a.Mode = Assignment
		}
		a.Entries = append(a.Entries, tp)
	}

	return &a, nil
}

func parseTopicSpecifier(spec string) (TopicPartition, error) {
	topic, partition, pinned := strings.Cut(strings.TrimSpace(spec), ":")
	if topic == "" {
		return TopicPartition{}, errors.Join(ErrInvalidTopic,
			fmt.Errorf("topic specifier %q has no topic name", spec))
	}

	if !pinned {
		return TopicPartition{Topic: topic, Partition: PartitionUnassigned}, nil
	}

	n, err := strconv.ParseInt(partition, 10, 64)
	if err != nil || n < 0 || n > math.MaxInt32 {
		return TopicPartition{}, errors.Join(ErrInvalidPartition,
			fmt.Errorf("topic specifier %q: partition must be an integer in [0, %d]", spec, math.MaxInt32))
	}

	return TopicPartition{Topic: topic, Partition: int32(n)}, nil
}

// Topics returns the distinct topic names, in order.
func (a *ConsumerAssignment) Topics() []string {
	seen := make(map[string]struct{}, len(a.Entries))
	var topics []string
	for _, tp := range a.Entries {
		if _, ok := seen[tp.Topic]; ok {
			continue
		}
		seen[tp.Topic] = struct{}{}
		topics = append(topics, tp.Topic)
	}
	return topics
}

// unpinned returns the distinct topics listed without a partition.  Such
// topics are consumed in full, even if other entries pin one of their
// partitions.
func (a *ConsumerAssignment) unpinned() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, tp := range a.Entries {
		if tp.Partition != PartitionUnassigned {
			continue
		}
		if _, ok := seen[tp.Topic]; ok {
			continue
		}
		seen[tp.Topic] = struct{}{}
		out = append(out, tp.Topic)
	}
	return out
}

// pinned returns the pinned partitions of the topics not consumed in full,
// grouped by topic.
func (a *ConsumerAssignment) pinned() map[string][]int32 {
	full := make(map[string]struct{})
	for _, topic := range a.unpinned() {
		full[topic] = struct{}{}
	}

	out := make(map[string][]int32)
	for _, tp := range a.Entries {
		if tp.Partition == PartitionUnassigned {
			continue
		}
		if _, ok := full[tp.Topic]; ok {
			continue
		}
		if !slices.Contains(out[tp.Topic], tp.Partition) {
			out[tp.Topic] = append(out[tp.Topic], tp.Partition)
		}
	}
	return out
}

// includes reports whether the assignment covers topic/partition.
func (a *ConsumerAssignment) includes(topic string, partition int32) bool {
	for _, tp := range a.Entries {
		if tp.Topic != topic {
			continue
		}
		if tp.Partition == PartitionUnassigned || tp.Partition == partition {
			return true
		}
	}
	return false
}

func (a *ConsumerAssignment) clone() *ConsumerAssignment {
	c := *a
	c.Entries = append([]TopicPartition(nil), a.Entries...)
	return &c
}
