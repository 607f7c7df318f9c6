// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/xmidt-org/kafkabridge"
)

// Config is the command configuration.  The producer, consumer and topic
// sections hold Kafka properties passed through unchanged.
type Config struct {
	Brokers      string        `mapstructure:"brokers"`
	FlushTimeout time.Duration `mapstructure:"flush_timeout"`

	Producer map[string]any `mapstructure:"producer"`
	Consumer map[string]any `mapstructure:"consumer"`
	Topic    map[string]any `mapstructure:"topic"`

	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Retry   RetryConfig   `mapstructure:"retry"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type MetricsConfig struct {
	Addr      string `mapstructure:"addr"`
	Namespace string `mapstructure:"namespace"`
}

// RetryConfig bounds the backoff applied when a consumed topic is missing.
type RetryConfig struct {
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	MaxElapsedTime  time.Duration `mapstructure:"max_elapsed_time"`
}

// flagKeys maps persistent flags onto configuration keys.
var flagKeys = map[string]string{
	"brokers":      "brokers",
	"log-level":    "log::level",
	"log-file":     "log::file",
	"metrics-addr": "metrics::addr",
}

// loadConfig reads the optional config file, the KAFKABRIDGE_ environment
// and the flags, in increasing precedence.  Keys are split on "::" so Kafka
// property names keep their dots.
func loadConfig(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.NewWithOptions(viper.KeyDelimiter("::"))

	v.SetDefault("brokers", "localhost:9092")
	v.SetDefault("flush_timeout", "2s")
	v.SetDefault("log::level", "info")
	v.SetDefault("log::max_size_mb", 100)
	v.SetDefault("log::max_backups", 3)
	v.SetDefault("log::max_age_days", 7)
	v.SetDefault("metrics::namespace", "kafkabridge")
	v.SetDefault("retry::initial_interval", "500ms")
	v.SetDefault("retry::max_interval", "30s")
	v.SetDefault("retry::max_elapsed_time", "5m")

	v.SetEnvPrefix("KAFKABRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer("::", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           &cfg,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	return &cfg, nil
}

// configMap converts a config section into a kafkabridge.ConfigMap.
func configMap(section map[string]any) (kafkabridge.ConfigMap, error) {
	if len(section) == 0 {
		return nil, nil
	}
	return kafkabridge.ConfigMapFrom(section)
}
