// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/xmidt-org/kafkabridge"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultStatsIntervalMS = 5000

// app holds what every command needs: configuration, logging and metrics.
type app struct {
	cfg     *Config
	logger  *zap.Logger
	metrics *metrics
}

func newApp(cmd *cobra.Command) (*app, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg, err := loadConfig(path, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		metrics: newMetrics(cfg.Metrics.Namespace),
	}, nil
}

func (a *app) options() kafkabridge.Options {
	return kafkabridge.Options{
		Logger:        kafkaLogger(a.logger),
		Hooks:         a.metrics.hooks(),
		FlushTimeout:  a.cfg.FlushTimeout,
		StatsListener: a.metrics.observe,
	}
}

// clientConfig converts section and turns statistics on for the metrics
// endpoint unless configured otherwise.
func (a *app) clientConfig(section map[string]any) (kafkabridge.ConfigMap, error) {
	cm, err := configMap(section)
	if err != nil {
		return nil, err
	}
	if cm == nil {
		cm = kafkabridge.ConfigMap{}
	}
	if _, ok := cm["statistics.interval.ms"]; !ok && a.cfg.Metrics.Addr != "" {
		cm["statistics.interval.ms"] = defaultStatsIntervalMS
	}
	return cm, nil
}

// run calls fn next to the metrics endpoint.  Both stop when fn returns or
// an interrupt arrives.
func (a *app) run(ctx context.Context, fn func(context.Context) error) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	work, cancel := context.WithCancel(gctx)
	defer cancel()

	g.Go(func() error {
		defer cancel()
		return fn(work)
	})

	if addr := a.cfg.Metrics.Addr; addr != "" {
		g.Go(func() error {
			return a.metrics.serve(work, addr, a.logger)
		})
	}

	return g.Wait()
}
