// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkabridge

// assembleSegments turns caller segments into one record value.
//
// A single non-empty segment is returned as is; the caller must not modify
// it until its delivery has been polled.  Several segments are copied, in
// order, into one new buffer owned by the client from then on.  ok is false
// when there is nothing to send.
func assembleSegments(segs [][]byte) (value []byte, copied bool, ok bool) {
	total := 0
	nonEmpty := 0
	last := -1
	for i, seg := range segs {
		if len(seg) > 0 {
			total += len(seg)
			nonEmpty++
			last = i
		}
	}

	switch nonEmpty {
	case 0:
		return nil, false, false
	case 1:
		return segs[last], false, true
	}

	value = make([]byte, 0, total)
	for _, seg := range segs {
		value = append(value, seg...)
	}
	return value, true, true
}
