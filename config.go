// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkabridge

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl"
	"github.com/twmb/franz-go/pkg/sasl/plain"
	"github.com/twmb/franz-go/pkg/sasl/scram"
)

const (
	defaultSoftwareName       = "kafkabridge"
	defaultMaxBufferedRecords = 100000
	defaultMaxMessageBytes    = 1000000
	defaultAutoCommitInterval = 5 * time.Second
)

// Version is reported to brokers as the client software version.
var Version = "0.1.0"

// ConfigMap holds client or topic properties keyed by their librdkafka style
// names, e.g. "linger.ms" or "group.id".  Values may be strings, booleans or
// numbers.  A nil ConfigMap is valid and yields the defaults.
type ConfigMap map[string]any

// ConfigMapFrom converts a loosely typed host structure into a ConfigMap.
// Accepted inputs are nil, ConfigMap, map[string]any, map[string]string and
// map[any]any with string keys.
func ConfigMapFrom(v any) (ConfigMap, error) {
	switch m := v.(type) {
	case nil:
		return nil, nil
	case ConfigMap:
		return m, nil
	case map[string]any:
		return ConfigMap(m), nil
	case map[string]string:
		cm := make(ConfigMap, len(m))
		for k, v := range m {
			cm[k] = v
		}
		return cm, nil
	case map[any]any:
		cm := make(ConfigMap, len(m))
		for k, v := range m {
			key, ok := k.(string)
			if !ok {
				return nil, errors.Join(ErrConfiguration,
					fmt.Errorf("invalid config key type: %T", k))
			}
			cm[key] = v
		}
		return cm, nil
	default:
		return nil, errors.Join(ErrConfiguration,
			fmt.Errorf("invalid config type: %T", v))
	}
}

// renderValue converts a property value into the text form the property
// parsers consume.  Numbers render as base-10 integers, truncating any
// fraction.  ok is false for nil values, which are treated as absent.
func renderValue(value any) (text string, ok bool, err error) {
	switch v := value.(type) {
	case nil:
		return "", false, nil
	case string:
		return v, true, nil
	case bool:
		if v {
			return "true", true, nil
		}
		return "false", true, nil
	case int:
		return strconv.FormatInt(int64(v), 10), true, nil
	case int8:
		return strconv.FormatInt(int64(v), 10), true, nil
	case int16:
		return strconv.FormatInt(int64(v), 10), true, nil
	case int32:
		return strconv.FormatInt(int64(v), 10), true, nil
	case int64:
		return strconv.FormatInt(v, 10), true, nil
	case uint:
		return strconv.FormatUint(uint64(v), 10), true, nil
	case uint8:
		return strconv.FormatUint(uint64(v), 10), true, nil
	case uint16:
		return strconv.FormatUint(uint64(v), 10), true, nil
	case uint32:
		return strconv.FormatUint(uint64(v), 10), true, nil
	case uint64:
		return strconv.FormatUint(v, 10), true, nil
	case float32:
		return strconv.FormatInt(int64(v), 10), true, nil
	case float64:
		return strconv.FormatInt(int64(v), 10), true, nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return strconv.FormatInt(i, 10), true, nil
		}
		f, err := v.Float64()
		if err != nil {
			return "", false, err
		}
		return strconv.FormatInt(int64(f), 10), true, nil
	default:
		return "", false, fmt.Errorf("invalid config value type: %T", value)
	}
}

// sortedKeys returns the keys of cfg so errors are reported deterministically.
func sortedKeys(cfg ConfigMap) []string {
	keys := make([]string, 0, len(cfg))
	for k := range cfg {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// clientSettings is the typed result of translating a client ConfigMap.
type clientSettings struct {
	brokers         []string
	clientID        string
	softwareName    string
	softwareVersion string
	groupID         string

	acks           Acks
	idempotence    bool
	idempotenceSet bool
	compression    Compression

	maxBufferedRecords int
	maxBufferedBytes   int
	maxMessageBytes    int
	batchMaxBytesSet   bool

	autoCommit bool

	securityProtocol string
	saslMechanism    string
	saslUsername     string
	saslPassword     string
	sslCALocation    string
	sslCertLocation  string
	sslKeyLocation   string

	statsInterval time.Duration
	logLevel      kgo.LogLevel
	logLevelSet   bool

	// opts holds franz-go options of properties without cross-property rules.
	opts []kgo.Opt

	// topic is the default topic configuration.
	topic topicSettings
}

// topicSettings is the typed result of translating a topic ConfigMap.
type topicSettings struct {
	partitioner        Partitioner
	messageTimeout     time.Duration
	offsetStoreMethod  string
	autoCommit         bool
	autoCommitInterval time.Duration
	autoOffsetReset    string
}

func defaultClientSettings() clientSettings {
	return clientSettings{
		softwareName:       defaultSoftwareName,
		softwareVersion:    Version,
		acks:               AcksAll,
		compression:        CompressionNone,
		maxBufferedRecords: defaultMaxBufferedRecords,
		maxMessageBytes:    defaultMaxMessageBytes,
		autoCommit:         true,
		securityProtocol:   "plaintext",
		saslMechanism:      "PLAIN",
		topic:              defaultTopicSettings(),
	}
}

func defaultTopicSettings() topicSettings {
	return topicSettings{
		partitioner:        PartitionerConsistentRandom,
		offsetStoreMethod:  "broker",
		autoCommit:         true,
		autoCommitInterval: defaultAutoCommitInterval,
		autoOffsetReset:    "largest",
	}
}

// translateClientConfig validates cfg against the property schema and returns
// the resulting settings.  Nothing is applied unless every key is valid.
func translateClientConfig(cfg ConfigMap) (*clientSettings, error) {
	s := defaultClientSettings()

	for _, key := range sortedKeys(cfg) {
		value, ok, err := renderValue(cfg[key])
		if err != nil {
			return nil, errors.Join(ErrConfiguration,
				fmt.Errorf("invalid config value for %q: %w", key, err))
		}
		if !ok {
			continue
		}

		name := canonicalName(key)
		if p, found := globalProperties[name]; found {
			err = p.apply(&s, value)
		} else if tp, found := topicProperties[name]; found {
			err = tp.apply(&s.topic, value)
		} else {
			err = fmt.Errorf("No such configuration property: \"%s\"", key)
		}

		if err != nil {
			return nil, errors.Join(ErrConfiguration,
				fmt.Errorf("failed to set %s = %s: %w", key, value, err))
		}
	}

	if err := s.validate(); err != nil {
		return nil, errors.Join(ErrConfiguration, err)
	}

	return &s, nil
}

// translateTopicConfig applies cfg on top of base.
func translateTopicConfig(base topicSettings, cfg ConfigMap) (topicSettings, error) {
	t := base

	for _, key := range sortedKeys(cfg) {
		value, ok, err := renderValue(cfg[key])
		if err != nil {
			return base, errors.Join(ErrConfiguration,
				fmt.Errorf("invalid config value for %q: %w", key, err))
		}
		if !ok {
			continue
		}

		tp, found := topicProperties[canonicalName(key)]
		if !found {
			err = fmt.Errorf("No such configuration property: \"%s\"", key)
		} else {
			err = tp.apply(&t, value)
		}

		if err != nil {
			return base, errors.Join(ErrConfiguration,
				fmt.Errorf("failed to set %s = %s: %w", key, value, err))
		}
	}

	return t, nil
}

// validate checks rules spanning several properties.
func (s *clientSettings) validate() error {
	if s.idempotenceSet && s.idempotence && s.acks != AcksAll {
		return errors.New("`acks` must be set to `all` when `enable.idempotence` is true")
	}

	if s.sslCertLocation != "" && s.sslKeyLocation == "" ||
		s.sslCertLocation == "" && s.sslKeyLocation != "" {
		return errors.New("ssl.certificate.location and ssl.key.location must be set together")
	}

	return nil
}

// kgoOpts converts the settings into franz-go client options.  The seed
// brokers are supplied by the caller.
func (s *clientSettings) kgoOpts() ([]kgo.Opt, error) {
	opts := []kgo.Opt{
		kgo.SoftwareNameAndVersion(s.softwareName, s.softwareVersion),
		s.acks.opt(),
		s.compression.opt(),
		kgo.MaxBufferedRecords(s.maxBufferedRecords),
	}

	if s.clientID != "" {
		opts = append(opts, kgo.ClientID(s.clientID))
	}

	// franz-go defaults to idempotent writes, which require acks=all.
	if s.acks != AcksAll || (s.idempotenceSet && !s.idempotence) {
		opts = append(opts, kgo.DisableIdempotentWrite())
	}

	if s.maxBufferedBytes > 0 {
		opts = append(opts, kgo.MaxBufferedBytes(s.maxBufferedBytes))
	}

	if s.batchMaxBytesSet {
		//nolint:gosec // G115: bounded by the property range
		opts = append(opts, kgo.ProducerBatchMaxBytes(int32(s.maxMessageBytes)))
	}

	security, err := s.securityOpts()
	if err != nil {
		return nil, errors.Join(ErrConfiguration, err)
	}
	opts = append(opts, security...)

	return append(opts, s.opts...), nil
}

// securityOpts builds the TLS and SASL options selected by security.protocol.
func (s *clientSettings) securityOpts() ([]kgo.Opt, error) {
	var opts []kgo.Opt

	switch s.securityProtocol {
	case "ssl", "sasl_ssl":
		cfg, err := s.tlsConfig()
		if err != nil {
			return nil, err
		}
		opts = append(opts, kgo.DialTLSConfig(cfg))
	}

	switch s.securityProtocol {
	case "sasl_plaintext", "sasl_ssl":
		m, err := s.saslMechanismFor()
		if err != nil {
			return nil, err
		}
		opts = append(opts, kgo.SASL(m))
	}

	return opts, nil
}

func (s *clientSettings) tlsConfig() (*tls.Config, error) {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}

	if s.sslCALocation != "" {
		pem, err := os.ReadFile(s.sslCALocation)
		if err != nil {
			return nil, fmt.Errorf("ssl.ca.location: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("ssl.ca.location: no certificates found in %s", s.sslCALocation)
		}
		cfg.RootCAs = pool
	}

	if s.sslCertLocation != "" {
		cert, err := tls.LoadX509KeyPair(s.sslCertLocation, s.sslKeyLocation)
		if err != nil {
			return nil, fmt.Errorf("ssl.certificate.location: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}

	return cfg, nil
}

func (s *clientSettings) saslMechanismFor() (sasl.Mechanism, error) {
	switch strings.ToUpper(s.saslMechanism) {
	case "PLAIN":
		return plain.Auth{User: s.saslUsername, Pass: s.saslPassword}.AsMechanism(), nil
	case "SCRAM-SHA-256":
		return scram.Auth{User: s.saslUsername, Pass: s.saslPassword}.AsSha256Mechanism(), nil
	case "SCRAM-SHA-512":
		return scram.Auth{User: s.saslUsername, Pass: s.saslPassword}.AsSha512Mechanism(), nil
	default:
		return nil, fmt.Errorf("unsupported sasl.mechanism %q", s.saslMechanism)
	}
}

// resetOffset maps auto.offset.reset onto a franz-go offset.
func (t *topicSettings) resetOffset() kgo.Offset {
	switch t.autoOffsetReset {
	case "smallest", "earliest", "beginning":
		return kgo.NewOffset().AtStart()
	default:
		return kgo.NewOffset().AtEnd()
	}
}
