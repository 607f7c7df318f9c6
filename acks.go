// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkabridge

import (
	"fmt"
	"strings"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Acks specifies the broker acknowledgment requirements (the acks /
// request.required.acks property).
type Acks string

const (
	// AcksAll requires all ISR replicas to acknowledge (strongest durability).
	AcksAll Acks = "all"

	// AcksLeader requires only the leader replica to acknowledge.
	AcksLeader Acks = "1"

	// AcksNone requires no acknowledgment (fire-and-forget).
	AcksNone Acks = "0"
)

var acksTypes map[string]Acks
var acksList []string

func init() {
	list := []struct {
		value string
		acks  Acks
	}{
		{"all", AcksAll},
		{"-1", AcksAll},
		{"1", AcksLeader},
		{"0", AcksNone},
	}

	acksTypes = make(map[string]Acks)
	for _, a := range list {
		acksTypes[a.value] = a.acks
		acksList = append(acksList, a.value)
	}
}

// parseAcks maps a property value onto an Acks value.
func parseAcks(value string) (Acks, error) {
	a, ok := acksTypes[strings.ToLower(value)]
	if ok {
		return a, nil
	}

	list := strings.Join(acksList, "', '")
	list = "'" + list + "'"
	return "", fmt.Errorf("Invalid value \"%s\" for configuration property \"acks\": must be %s", value, list)
}

// opt converts the value into the franz-go option.
func (a Acks) opt() kgo.Opt {
	switch a {
	case AcksLeader:
		return kgo.RequiredAcks(kgo.LeaderAck())
	case AcksNone:
		return kgo.RequiredAcks(kgo.NoAck())
	default:
		return kgo.RequiredAcks(kgo.AllISRAcks())
	}
}
