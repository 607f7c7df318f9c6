// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/xmidt-org/kafkabridge"
	"go.uber.org/zap"
)

const (
	pollInterval = 100 * time.Millisecond
	drainTimeout = 30 * time.Second
)

// lineSender is the part of *kafkabridge.Producer used to send lines.
type lineSender interface {
	Send(topic string, partition int32, token uint64, payload []byte) error
	SendSegments(topic string, partition int32, token uint64, segs ...[]byte) error
	Poll(timeout time.Duration) (kafkabridge.PollResult, error)
	AddDeliveryListener(fn func(*kafkabridge.DeliveryEvent)) func()
}

var _ lineSender = (*kafkabridge.Producer)(nil)

type produceArgs struct {
	topic     string
	partition int32
	segments  bool
}

// tally counts the outcome of a produce run.
type tally struct {
	sent      int
	delivered int
	failed    int
}

func newProduceCommand() *cobra.Command {
	var args produceArgs

	cmd := &cobra.Command{
		Use:   "produce",
		Short: "Send stdin lines to a topic, using the line number as token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.logger.Sync() }()

			cfg, err := a.clientConfig(a.cfg.Producer)
			if err != nil {
				return err
			}
			topicCfg, err := configMap(a.cfg.Topic)
			if err != nil {
				return err
			}

			p, err := kafkabridge.NewProducer(a.cfg.Brokers, cfg, a.options())
			if err != nil {
				return err
			}
			defer func() {
				if err := p.Close(); err != nil {
					a.logger.Warn("producer close failed", zap.Error(err))
				}
			}()

			if _, err := p.CreateTopic(args.topic, topicCfg); err != nil {
				return err
			}

			return a.run(cmd.Context(), func(ctx context.Context) error {
				t, err := produceLines(ctx, p, args, cmd.InOrStdin(), a.logger)
				fmt.Fprintf(cmd.OutOrStdout(), "sent=%d delivered=%d failed=%d\n", t.sent, t.delivered, t.failed)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&args.topic, "topic", "", "destination topic")
	cmd.Flags().Int32Var(&args.partition, "partition", kafkabridge.PartitionUnassigned, "destination partition, -1 lets the partitioner decide")
	cmd.Flags().BoolVar(&args.segments, "segments", false, "send the line number and the line as separate segments")
	_ = cmd.MarkFlagRequired("topic")

	return cmd
}

// produceLines sends every line of in and waits up to drainTimeout for the
// outstanding delivery reports.
func produceLines(ctx context.Context, p lineSender, args produceArgs, in io.Reader, logger *zap.Logger) (tally, error) {
	var t tally

	remove := p.AddDeliveryListener(func(e *kafkabridge.DeliveryEvent) {
		if e.Error != nil {
			t.failed++
			logger.Warn("delivery failed",
				zap.Uint64("line", e.Token),
				zap.String("type", e.ErrorType),
				zap.Error(e.Error),
			)
			return
		}
		t.delivered++
	})
	defer remove()

	send := func(token uint64, line []byte) error {
		if args.segments {
			prefix := strconv.AppendUint(nil, token, 10)
			prefix = append(prefix, '\t')
			return p.SendSegments(args.topic, args.partition, token, prefix, line)
		}
		return p.Send(args.topic, args.partition, token, line)
	}

	scanner := bufio.NewScanner(in)
	var token uint64
	for scanner.Scan() && ctx.Err() == nil {
		token++
		line := scanner.Bytes()

		err := send(token, line)
		for errors.Is(err, kafkabridge.ErrQueueFull) && ctx.Err() == nil {
			if _, err = p.Poll(pollInterval); err != nil {
				return t, err
			}
			err = send(token, line)
		}
		if err != nil {
			return t, fmt.Errorf("line %d: %w", token, err)
		}
		t.sent++

		if _, err := p.Poll(0); err != nil {
			return t, err
		}
	}
	if err := scanner.Err(); err != nil {
		return t, fmt.Errorf("reading input: %w", err)
	}

	deadline := time.Now().Add(drainTimeout)
	for t.delivered+t.failed < t.sent && ctx.Err() == nil && time.Now().Before(deadline) {
		if _, err := p.Poll(pollInterval); err != nil {
			return t, err
		}
	}

	return t, nil
}
