// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkabridge

// BindMode is how a consumer binds to its topics.
type BindMode int

const (
	// Subscription joins the consumer group and lets the group balance the
	// partitions of every listed topic.
	Subscription BindMode = iota

	// Assignment consumes the listed partitions directly, without group
	// membership.  Bare topic names consume every partition.
	Assignment
)

// String returns the string representation of the BindMode.
func (m BindMode) String() string {
	switch m {
	case Subscription:
		return "Subscription"
	case Assignment:
		return "Assignment"
	default:
		return "Unknown"
	}
}
