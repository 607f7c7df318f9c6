// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Command kafkabridge produces stdin lines to a topic or prints the records
// received from a topic list.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "kafkabridge",
		Short:        "Produce and consume Kafka records",
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "path to a YAML, JSON or TOML config file")
	pf.String("brokers", "", "comma separated broker list")
	pf.String("log-level", "", "log level: debug, info, warn or error")
	pf.String("log-file", "", "write logs to a rotated file instead of stderr")
	pf.String("metrics-addr", "", "serve /metrics and /healthz on this address")

	root.AddCommand(newProduceCommand(), newConsumeCommand())
	return root
}
