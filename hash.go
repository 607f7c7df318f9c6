// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkabridge

import (
	"hash/crc32"
	"hash/fnv"
)

// keyIndex maps a hash sum onto [0, n).
// Returns 0 if n <= 0.
func keyIndex(sum uint32, n int) int {
	if n <= 0 {
		return 0
	}

	//nolint:gosec // G115: Modulo ensures result fits in int range
	return int(sum % uint32(n))
}

// fnv1aSum computes the 32 bit FNV-1a hash of key.
func fnv1aSum(key []byte) uint32 {
	h := fnv.New32a()
	_, _ = h.Write(key)
	return h.Sum32()
}

// crc32Sum computes the IEEE CRC32 checksum of key.
func crc32Sum(key []byte) uint32 {
	return crc32.ChecksumIEEE(key)
}
