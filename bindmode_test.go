// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkabridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBindMode_String(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		mode BindMode
		want string
	}{
		{"Subscription", Subscription, "Subscription"},
		{"Assignment", Assignment, "Assignment"},
		{"Unknown", BindMode(99), "Unknown"},
		{"Negative", BindMode(-1), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.mode.String())
		})
	}
}
