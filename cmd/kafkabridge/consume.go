// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/cobra"
	"github.com/xmidt-org/kafkabridge"
	"go.uber.org/zap"
)

// receiver is the part of *kafkabridge.Consumer used to print records.
type receiver interface {
	Receive(ctx context.Context) (*kafkabridge.Message, error)
}

var _ receiver = (*kafkabridge.Consumer)(nil)

func newConsumeCommand() *cobra.Command {
	var topics []string

	cmd := &cobra.Command{
		Use:   "consume",
		Short: "Print the records received from topics or topic:partition pairs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.logger.Sync() }()

			cfg, err := a.clientConfig(a.cfg.Consumer)
			if err != nil {
				return err
			}
			topicCfg, err := configMap(a.cfg.Topic)
			if err != nil {
				return err
			}

			c, err := kafkabridge.NewConsumer(a.cfg.Brokers, topics, cfg, topicCfg, a.options())
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			a.logger.Info("consuming",
				zap.Strings("topics", topics),
				zap.String("mode", c.Mode().String()),
			)

			return a.run(cmd.Context(), func(ctx context.Context) error {
				return consumeMessages(ctx, c, newBackoff(a.cfg.Retry), cmd.OutOrStdout(), a.logger)
			})
		},
	}

	cmd.Flags().StringSliceVar(&topics, "topic", nil, "topic or topic:partition, repeatable")
	_ = cmd.MarkFlagRequired("topic")

	return cmd
}

func newBackoff(cfg RetryConfig) *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	if cfg.InitialInterval > 0 {
		bo.InitialInterval = cfg.InitialInterval
	}
	if cfg.MaxInterval > 0 {
		bo.MaxInterval = cfg.MaxInterval
	}
	bo.MaxElapsedTime = cfg.MaxElapsedTime
	return bo
}

// consumeMessages prints received records to out until ctx is done.  Topic
// errors are retried with bo; other errors end the loop.
func consumeMessages(ctx context.Context, r receiver, bo backoff.BackOff, out io.Writer, logger *zap.Logger) error {
	notify := func(err error, delay time.Duration) {
		logger.Warn("topic unavailable, retrying", zap.Error(err), zap.Duration("delay", delay))
	}

	receive := func() (*kafkabridge.Message, error) {
		msg, err := r.Receive(ctx)
		var topicErr *kafkabridge.TopicError
		if err != nil && !errors.As(err, &topicErr) {
			return nil, backoff.Permanent(err)
		}
		return msg, err
	}

	for ctx.Err() == nil {
		msg, err := backoff.RetryNotifyWithData(receive, backoff.WithContext(bo, ctx), notify)
		switch {
		case errors.Is(err, kafkabridge.ErrClosed), ctx.Err() != nil:
			return nil
		case err != nil:
			return err
		case msg == nil:
			continue
		}

		if _, err := fmt.Fprintf(out, "%s[%d]@%d\t%s\n", msg.Topic, msg.Partition, msg.Offset, msg.Value); err != nil {
			return err
		}
	}

	return nil
}
