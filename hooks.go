// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkabridge

import (
	"net"
	"strconv"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// brokerHook reports broker connection failures, the equivalent of a client
// level error callback.
type brokerHook struct {
	logger kgo.Logger
	stats  *statsCollector
}

var _ kgo.HookBrokerConnect = (*brokerHook)(nil)

func (h *brokerHook) OnBrokerConnect(meta kgo.BrokerMetadata, dialDur time.Duration, _ net.Conn, err error) {
	if err == nil {
		return
	}

	if h.stats != nil {
		h.stats.recordBrokerError()
	}

	h.logger.Log(kgo.LogLevelError, "broker connection failed",
		"broker", net.JoinHostPort(meta.Host, strconv.Itoa(int(meta.Port))),
		"node", meta.NodeID,
		"dial_duration", dialDur,
		"error", err.Error(),
	)
}
