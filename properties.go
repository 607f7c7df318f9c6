// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkabridge

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// property is a client level configuration property.
type property struct {
	name  string
	apply func(s *clientSettings, value string) error
}

// topicProperty is a topic level configuration property.  Topic properties
// set in a client ConfigMap become the default topic configuration.
type topicProperty struct {
	name  string
	apply func(t *topicSettings, value string) error
}

var (
	globalProperties map[string]property
	topicProperties  map[string]topicProperty

	// propertyAliases maps alternative librdkafka names onto the canonical one.
	propertyAliases = map[string]string{
		"metadata.broker.list":   "bootstrap.servers",
		"request.required.acks":  "acks",
		"compression.type":       "compression.codec",
		"queue.buffering.max.ms": "linger.ms",
		"retries":                "message.send.max.retries",
		"sasl.mechanisms":        "sasl.mechanism",
	}
)

func init() {
	globals := []property{
		stringProp("bootstrap.servers", func(s *clientSettings, v string) {
			s.brokers = append(s.brokers, splitBrokerList(v)...)
		}),
		stringProp("client.id", func(s *clientSettings, v string) { s.clientID = v }),
		stringProp("client.software.name", func(s *clientSettings, v string) { s.softwareName = v }),
		stringProp("client.software.version", func(s *clientSettings, v string) { s.softwareVersion = v }),
		stringProp("group.id", func(s *clientSettings, v string) { s.groupID = v }),
		{
			name: "acks",
			apply: func(s *clientSettings, v string) error {
				a, err := parseAcks(v)
				if err != nil {
					return err
				}
				s.acks = a
				return nil
			},
		},
		boolProp("enable.idempotence", func(s *clientSettings, b bool) {
			s.idempotence = b
			s.idempotenceSet = true
		}),
		{
			name: "compression.codec",
			apply: func(s *clientSettings, v string) error {
				c, err := parseCompression(v)
				if err != nil {
					return err
				}
				s.compression = c
				return nil
			},
		},
		msProp("linger.ms", 0, 900000, func(s *clientSettings, d time.Duration) {
			s.opts = append(s.opts, kgo.ProducerLinger(d))
		}),
		intProp("queue.buffering.max.messages", 1, 10000000, func(s *clientSettings, n int64) {
			s.maxBufferedRecords = int(n)
		}),
		intProp("queue.buffering.max.kbytes", 1, math.MaxInt32, func(s *clientSettings, n int64) {
			s.maxBufferedBytes = int(n) * 1024
		}),
		intProp("message.max.bytes", 1000, 1000000000, func(s *clientSettings, n int64) {
			s.maxMessageBytes = int(n)
			s.batchMaxBytesSet = true
		}),
		intProp("message.send.max.retries", 0, math.MaxInt32, func(s *clientSettings, n int64) {
			s.opts = append(s.opts, kgo.RecordRetries(int(n)))
		}),
		msProp("request.timeout.ms", 1, 900000, func(s *clientSettings, d time.Duration) {
			s.opts = append(s.opts, kgo.ProduceRequestTimeout(d))
		}),
		msProp("socket.timeout.ms", 10, 300000, func(s *clientSettings, d time.Duration) {
			s.opts = append(s.opts, kgo.RequestTimeoutOverhead(d))
		}),
		msProp("socket.connection.setup.timeout.ms", 1000, math.MaxInt32, func(s *clientSettings, d time.Duration) {
			s.opts = append(s.opts, kgo.DialTimeout(d))
		}),
		msProp("metadata.max.age.ms", 1, 86400000, func(s *clientSettings, d time.Duration) {
			s.opts = append(s.opts, kgo.MetadataMaxAge(d))
		}),
		msProp("delivery.timeout.ms", 0, math.MaxInt32, func(s *clientSettings, d time.Duration) {
			s.opts = append(s.opts, kgo.RecordDeliveryTimeout(d))
		}),
		boolProp("allow.auto.create.topics", func(s *clientSettings, b bool) {
			if b {
				s.opts = append(s.opts, kgo.AllowAutoTopicCreation())
			}
		}),
		msProp("session.timeout.ms", 1, 3600000, func(s *clientSettings, d time.Duration) {
			s.opts = append(s.opts, kgo.SessionTimeout(d))
		}),
		msProp("heartbeat.interval.ms", 1, 3600000, func(s *clientSettings, d time.Duration) {
			s.opts = append(s.opts, kgo.HeartbeatInterval(d))
		}),
		boolProp("enable.auto.commit", func(s *clientSettings, b bool) { s.autoCommit = b }),
		intProp("fetch.max.bytes", 0, math.MaxInt32-1, func(s *clientSettings, n int64) {
			s.opts = append(s.opts, kgo.FetchMaxBytes(int32(n)))
		}),
		intProp("fetch.min.bytes", 1, 100000000, func(s *clientSettings, n int64) {
			s.opts = append(s.opts, kgo.FetchMinBytes(int32(n)))
		}),
		msProp("fetch.wait.max.ms", 0, 300000, func(s *clientSettings, d time.Duration) {
			s.opts = append(s.opts, kgo.FetchMaxWait(d))
		}),
		enumProp("isolation.level", []string{"read_committed", "read_uncommitted"}, func(s *clientSettings, v string) {
			if v == "read_committed" {
				s.opts = append(s.opts, kgo.FetchIsolationLevel(kgo.ReadCommitted()))
			} else {
				s.opts = append(s.opts, kgo.FetchIsolationLevel(kgo.ReadUncommitted()))
			}
		}),
		enumProp("security.protocol", []string{"plaintext", "ssl", "sasl_plaintext", "sasl_ssl"}, func(s *clientSettings, v string) {
			s.securityProtocol = v
		}),
		{
			name: "sasl.mechanism",
			apply: func(s *clientSettings, v string) error {
				switch strings.ToUpper(v) {
				case "PLAIN", "SCRAM-SHA-256", "SCRAM-SHA-512":
					s.saslMechanism = strings.ToUpper(v)
					return nil
				}
				return fmt.Errorf("Unsupported value \"%s\" for configuration property \"sasl.mechanism\": must be 'PLAIN', 'SCRAM-SHA-256' or 'SCRAM-SHA-512'", v)
			},
		},
		stringProp("sasl.username", func(s *clientSettings, v string) { s.saslUsername = v }),
		stringProp("sasl.password", func(s *clientSettings, v string) { s.saslPassword = v }),
		stringProp("ssl.ca.location", func(s *clientSettings, v string) { s.sslCALocation = v }),
		stringProp("ssl.certificate.location", func(s *clientSettings, v string) { s.sslCertLocation = v }),
		stringProp("ssl.key.location", func(s *clientSettings, v string) { s.sslKeyLocation = v }),
		msProp("statistics.interval.ms", 0, 86400000, func(s *clientSettings, d time.Duration) {
			s.statsInterval = d
		}),
		intProp("log_level", 0, 7, func(s *clientSettings, n int64) {
			s.logLevel = syslogLevel(int(n))
			s.logLevelSet = true
		}),
	}

	topics := []topicProperty{
		{
			name: "partitioner",
			apply: func(t *topicSettings, v string) error {
				p, err := parsePartitioner(v)
				if err != nil {
					return err
				}
				t.partitioner = p
				return nil
			},
		},
		{
			name: "message.timeout.ms",
			apply: func(t *topicSettings, v string) error {
				n, err := parseIntRange("message.timeout.ms", v, 0, math.MaxInt32)
				if err != nil {
					return err
				}
				t.messageTimeout = time.Duration(n) * time.Millisecond
				return nil
			},
		},
		{
			name: "offset.store.method",
			apply: func(t *topicSettings, v string) error {
				if strings.ToLower(v) != "broker" {
					return fmt.Errorf("Invalid value \"%s\" for configuration property \"offset.store.method\": only 'broker' is supported", v)
				}
				t.offsetStoreMethod = "broker"
				return nil
			},
		},
		{
			name: "auto.commit.enable",
			apply: func(t *topicSettings, v string) error {
				b, err := parseBool("auto.commit.enable", v)
				if err != nil {
					return err
				}
				t.autoCommit = b
				return nil
			},
		},
		{
			name: "auto.commit.interval.ms",
			apply: func(t *topicSettings, v string) error {
				n, err := parseIntRange("auto.commit.interval.ms", v, 1, 86400000)
				if err != nil {
					return err
				}
				t.autoCommitInterval = time.Duration(n) * time.Millisecond
				return nil
			},
		},
		{
			name: "auto.offset.reset",
			apply: func(t *topicSettings, v string) error {
				switch strings.ToLower(v) {
				case "smallest", "earliest", "beginning", "largest", "latest", "end":
					t.autoOffsetReset = strings.ToLower(v)
					return nil
				}
				return fmt.Errorf("Invalid value \"%s\" for configuration property \"auto.offset.reset\"", v)
			},
		},
	}

	globalProperties = make(map[string]property, len(globals))
	for _, p := range globals {
		globalProperties[p.name] = p
	}

	topicProperties = make(map[string]topicProperty, len(topics))
	for _, p := range topics {
		topicProperties[p.name] = p
	}
}

// canonicalName resolves property aliases.
func canonicalName(key string) string {
	if name, ok := propertyAliases[key]; ok {
		return name
	}
	return key
}

func stringProp(name string, set func(*clientSettings, string)) property {
	return property{
		name: name,
		apply: func(s *clientSettings, v string) error {
			set(s, v)
			return nil
		},
	}
}

func boolProp(name string, set func(*clientSettings, bool)) property {
	return property{
		name: name,
		apply: func(s *clientSettings, v string) error {
			b, err := parseBool(name, v)
			if err != nil {
				return err
			}
			set(s, b)
			return nil
		},
	}
}

func intProp(name string, lo, hi int64, set func(*clientSettings, int64)) property {
	return property{
		name: name,
		apply: func(s *clientSettings, v string) error {
			n, err := parseIntRange(name, v, lo, hi)
			if err != nil {
				return err
			}
			set(s, n)
			return nil
		},
	}
}

func msProp(name string, lo, hi int64, set func(*clientSettings, time.Duration)) property {
	return intProp(name, lo, hi, func(s *clientSettings, n int64) {
		set(s, time.Duration(n)*time.Millisecond)
	})
}

func enumProp(name string, values []string, set func(*clientSettings, string)) property {
	return property{
		name: name,
		apply: func(s *clientSettings, v string) error {
			lower := strings.ToLower(v)
			for _, allowed := range values {
				if lower == allowed {
					set(s, lower)
					return nil
				}
			}
			list := "'" + strings.Join(values, "', '") + "'"
			return fmt.Errorf("Invalid value \"%s\" for configuration property \"%s\": must be %s", v, name, list)
		},
	}
}

func parseBool(name, value string) (bool, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false, fmt.Errorf("Expected bool value for \"%s\": true or false", name)
	}
	return b, nil
}

func parseIntRange(name, value string, lo, hi int64) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("Invalid value \"%s\" for configuration property \"%s\"", value, name)
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("Configuration property \"%s\" value %d is outside allowed range %d..%d", name, n, lo, hi)
	}
	return n, nil
}
