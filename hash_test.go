// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkabridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestKeyIndex tests the edge cases and bounds checking of keyIndex.
// Note: We trust the standard library's hash implementations for distribution.
func TestKeyIndex(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		sum  uint32
		n    int
		want int
	}{
		{"n=0 returns 0", 12345, 0, 0},
		{"negative n returns 0", 12345, -5, 0},
		{"n=1 always returns 0", 12345, 1, 0},
		{"modulo", 10, 4, 2},
		{"max sum", 0xffffffff, 7, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, keyIndex(tt.sum, tt.n))
		})
	}

	t.Run("result within bounds", func(t *testing.T) {
		t.Parallel()

		testCases := []struct {
			key []byte
			n   int
		}{
			{[]byte("mac:112233445566"), 3},
			{[]byte("device-id"), 10},
			{nil, 5},
		}

		for _, tc := range testCases {
			for _, sum := range []uint32{fnv1aSum(tc.key), crc32Sum(tc.key)} {
				result := keyIndex(sum, tc.n)
				assert.GreaterOrEqual(t, result, 0)
				assert.Less(t, result, tc.n)
			}
		}
	})
}

func TestHashSums(t *testing.T) {
	t.Parallel()

	// Offset basis of 32 bit FNV-1a and the CRC32 of nothing.
	assert.Equal(t, uint32(0x811c9dc5), fnv1aSum(nil))
	assert.Equal(t, uint32(0), crc32Sum(nil))

	assert.Equal(t, fnv1aSum([]byte("key")), fnv1aSum([]byte("key")))
	assert.NotEqual(t, fnv1aSum([]byte("key-a")), fnv1aSum([]byte("key-b")))
	assert.Equal(t, uint32(0x352441c2), crc32Sum([]byte("abc")))
}
