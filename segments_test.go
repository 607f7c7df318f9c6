// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkabridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssembleSegments(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		segs       [][]byte
		want       []byte
		wantCopied bool
		wantOK     bool
	}{
		{"no segments", nil, nil, false, false},
		{"only empty segments", [][]byte{{}, nil}, nil, false, false},
		{"single segment", [][]byte{[]byte("xyz")}, []byte("xyz"), false, true},
		{"single non empty segment", [][]byte{nil, []byte("xyz"), {}}, []byte("xyz"), false, true},
		{"several segments", [][]byte{[]byte("ab"), []byte("cd"), []byte("ef")}, []byte("abcdef"), true, true},
		{"several with gaps", [][]byte{[]byte("ab"), nil, []byte("ef")}, []byte("abef"), true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, copied, ok := assembleSegments(tt.segs)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantCopied, copied)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAssembleSegments_Ownership(t *testing.T) {
	t.Parallel()

	t.Run("single segment is borrowed", func(t *testing.T) {
		t.Parallel()
		seg := []byte("xyz")
		got, _, _ := assembleSegments([][]byte{seg})
		assert.Same(t, &seg[0], &got[0])
	})

	t.Run("several segments get a new buffer", func(t *testing.T) {
		t.Parallel()
		a, b := []byte("ab"), []byte("cd")
		got, _, _ := assembleSegments([][]byte{a, b})
		assert.Equal(t, 4, cap(got))

		a[0] = 'z'
		assert.Equal(t, []byte("abcd"), got)
	})
}
