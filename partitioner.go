// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkabridge

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/twmb/franz-go/pkg/kgo"
)

// PartitionUnassigned lets the topic's partitioner choose the partition.
const PartitionUnassigned int32 = -1

// Partitioner names the partition selection algorithm of a topic (the
// partitioner topic property).
type Partitioner string

const (
	// PartitionerRandom picks a random partition for every record.
	PartitionerRandom Partitioner = "random"

	// PartitionerConsistent hashes the key with CRC32.  Records without a key
	// all land on the same partition.
	PartitionerConsistent Partitioner = "consistent"

	// PartitionerConsistentRandom hashes the key with CRC32; records without a
	// key are spread randomly.  This is the default.
	PartitionerConsistentRandom Partitioner = "consistent_random"

	// PartitionerMurmur2 uses the Java client compatible murmur2 hash.  Records
	// without a key all land on the same partition.
	PartitionerMurmur2 Partitioner = "murmur2"

	// PartitionerMurmur2Random uses murmur2; records without a key are spread
	// randomly.
	PartitionerMurmur2Random Partitioner = "murmur2_random"

	// PartitionerFNV1a hashes the key with FNV-1a.  Records without a key all
	// land on the same partition.
	PartitionerFNV1a Partitioner = "fnv1a"

	// PartitionerFNV1aRandom hashes the key with FNV-1a; records without a key
	// are spread randomly.
	PartitionerFNV1aRandom Partitioner = "fnv1a_random"
)

var partitionerTypes map[string]Partitioner
var partitionerList []string

func init() {
	list := []Partitioner{
		PartitionerRandom,
		PartitionerConsistent,
		PartitionerConsistentRandom,
		PartitionerMurmur2,
		PartitionerMurmur2Random,
		PartitionerFNV1a,
		PartitionerFNV1aRandom,
	}

	partitionerTypes = make(map[string]Partitioner)
	for _, p := range list {
		partitionerTypes[string(p)] = p
		partitionerList = append(partitionerList, string(p))
	}
}

func parsePartitioner(value string) (Partitioner, error) {
	p, ok := partitionerTypes[strings.ToLower(value)]
	if ok {
		return p, nil
	}

	list := strings.Join(partitionerList, "', '")
	list = "'" + list + "'"
	return "", fmt.Errorf("Invalid value \"%s\" for configuration property \"partitioner\": must be %s", value, list)
}

// randomKeyless reports whether records without a key are spread randomly.
func (p Partitioner) randomKeyless() bool {
	switch p {
	case PartitionerConsistent, PartitionerMurmur2, PartitionerFNV1a:
		return false
	}
	return true
}

// bridgePartitioner is the kgo.Partitioner installed in every producer
// client.  Topics register their algorithm when they are created; records
// carrying an explicit partition bypass the algorithm.
type bridgePartitioner struct {
	mu       sync.RWMutex
	topics   map[string]Partitioner
	fallback Partitioner
	murmur2  kgo.Partitioner
}

var _ kgo.Partitioner = (*bridgePartitioner)(nil)

func newBridgePartitioner(fallback Partitioner) *bridgePartitioner {
	if fallback == "" {
		fallback = PartitionerConsistentRandom
	}
	return &bridgePartitioner{
		topics:   make(map[string]Partitioner),
		fallback: fallback,
		murmur2:  kgo.StickyKeyPartitioner(nil),
	}
}

// set registers the algorithm of topic.
func (b *bridgePartitioner) set(topic string, p Partitioner) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.topics[topic] = p
}

func (b *bridgePartitioner) algorithm(topic string) Partitioner {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if p, ok := b.topics[topic]; ok {
		return p
	}
	return b.fallback
}

func (b *bridgePartitioner) ForTopic(topic string) kgo.TopicPartitioner {
	return &topicPartitioner{
		owner:   b,
		topic:   topic,
		murmur2: b.murmur2.ForTopic(topic),
	}
}

type topicPartitioner struct {
	owner   *bridgePartitioner
	topic   string
	murmur2 kgo.TopicPartitioner
}

// RequiresConsistency is true whenever the partition number itself matters:
// explicit pinning and key hashing.
func (t *topicPartitioner) RequiresConsistency(r *kgo.Record) bool {
	if r.Partition >= 0 {
		return true
	}
	algo := t.owner.algorithm(t.topic)
	if algo == PartitionerRandom {
		return false
	}
	return len(r.Key) > 0 || !algo.randomKeyless()
}

func (t *topicPartitioner) Partition(r *kgo.Record, n int) int {
	if r.Partition >= 0 {
		return int(r.Partition)
	}

	algo := t.owner.algorithm(t.topic)
	if algo == PartitionerRandom || (len(r.Key) == 0 && algo.randomKeyless()) {
		return rand.IntN(n)
	}

	switch algo {
	case PartitionerMurmur2, PartitionerMurmur2Random:
		if r.Key == nil {
			// The sticky partitioner treats a nil key as keyless.
			keyed := *r
			keyed.Key = []byte{}
			return t.murmur2.Partition(&keyed, n)
		}
		return t.murmur2.Partition(r, n)
	case PartitionerFNV1a, PartitionerFNV1aRandom:
		return keyIndex(fnv1aSum(r.Key), n)
	default:
		return keyIndex(crc32Sum(r.Key), n)
	}
}
