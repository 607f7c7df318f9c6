// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkabridge

import (
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

const defaultFlushTimeout = 2 * time.Second

// Options holds the host supplied collaborators of a Producer or Consumer.
// The zero value is valid.
type Options struct {
	// Logger is the logger instance (same interface as franz-go).
	// Optional. If nil, a no-op logger will be used.  The log_level property
	// caps the level passed through.
	Logger kgo.Logger

	// Hooks are additional franz-go hooks, e.g. a kprom metrics plugin.
	// Optional.
	Hooks []kgo.Hook

	// FlushTimeout bounds the flush performed when the last reference to a
	// producer client is released.
	// Default: 2s.
	FlushTimeout time.Duration

	// StatsListener receives a Stats snapshot every statistics.interval.ms,
	// checked whenever the producer is polled or the consumer receives.
	// Optional.
	StatsListener func(*Stats)

	// InitialDeliveryListeners are registered when the producer is created.
	// They receive every DeliveryEvent from the goroutine that polls.
	// Optional.
	InitialDeliveryListeners []func(*DeliveryEvent)

	// clientFactory is for internal use only (testing hook).
	clientFactory clientFactory

	// consumerFactory is for internal use only (testing hook).
	consumerFactory consumerFactory
}

func (o *Options) flushTimeout() time.Duration {
	if o.FlushTimeout > 0 {
		return o.FlushTimeout
	}
	return defaultFlushTimeout
}

// baseOpts builds the franz-go options shared by producers and consumers:
// seed brokers, logging, the broker hook and the translated settings.
func (o *Options) baseOpts(brokers string, s *clientSettings, logger kgo.Logger, stats *statsCollector) ([]kgo.Opt, error) {
	entries := append(splitBrokerList(brokers), s.brokers...)
	seeds, skipped, err := resolveBrokers(entries)
	for _, entry := range skipped {
		logger.Log(kgo.LogLevelWarn, "skipping invalid broker address", "broker", entry)
	}
	if err != nil {
		return nil, err
	}

	settingOpts, err := s.kgoOpts()
	if err != nil {
		return nil, err
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(seeds...),
		kgo.WithLogger(logger),
		kgo.WithHooks(&brokerHook{logger: logger, stats: stats}),
	}
	return append(opts, settingOpts...), nil
}

// hookOpts attaches the host hooks.  Short lived helper clients go without
// them so plugins registering metrics per client see one client only.
func (o *Options) hookOpts() []kgo.Opt {
	if len(o.Hooks) == 0 {
		return nil
	}
	return []kgo.Opt{kgo.WithHooks(o.Hooks...)}
}

// connectionError wraps a client construction failure.
func connectionError(err error) error {
	return errors.Join(ErrConnection, fmt.Errorf("failed to create Kafka client: %w", err))
}
