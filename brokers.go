// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkabridge

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

const defaultBrokerPort = "9092"

// splitBrokerList splits a comma or whitespace separated broker list,
// dropping blank entries.
func splitBrokerList(list string) []string {
	return strings.FieldsFunc(list, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}

// resolveBrokers validates the broker entries and returns the seed addresses
// in "host:port" form, in order and without duplicates.  Invalid entries are
// skipped and returned separately so the caller can log them.  An error is
// returned only when no entry is valid.
func resolveBrokers(entries []string) (seeds []string, skipped []string, err error) {
	seen := make(map[string]struct{}, len(entries))

	for _, entry := range entries {
		addr, err := normalizeBroker(entry)
		if err != nil {
			skipped = append(skipped, entry)
			continue
		}
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		seeds = append(seeds, addr)
	}

	if len(seeds) == 0 {
		return nil, skipped, errors.Join(ErrConnection,
			fmt.Errorf("invalid broker list %q", strings.Join(entries, ",")))
	}

	return seeds, skipped, nil
}

// normalizeBroker accepts "host", "host:port", "[v6]:port" and the same
// forms prefixed with a "protocol://" security scheme.
func normalizeBroker(entry string) (string, error) {
	entry = strings.TrimSpace(entry)
	if i := strings.Index(entry, "://"); i >= 0 {
		entry = entry[i+3:]
	}
	if entry == "" {
		return "", errors.New("empty broker address")
	}

	host, port, err := net.SplitHostPort(entry)
	if err != nil {
		// A bare host (or bracketed IPv6 literal) gets the default port.
		host = strings.TrimSuffix(strings.TrimPrefix(entry, "["), "]")
		port = defaultBrokerPort
		if strings.ContainsAny(host, "[]") || (strings.Contains(host, ":") && !strings.HasPrefix(entry, "[")) {
			return "", fmt.Errorf("malformed broker address %q", entry)
		}
	}

	if host == "" || strings.ContainsAny(host, "/ ") {
		return "", fmt.Errorf("malformed broker host in %q", entry)
	}

	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return "", fmt.Errorf("invalid broker port in %q", entry)
	}

	return net.JoinHostPort(host, port), nil
}
