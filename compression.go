// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkabridge

import (
	"fmt"
	"strings"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Compression specifies the message compression algorithm (the
// compression.codec property).
type Compression string

const (
	// CompressionSnappy uses Snappy compression.
	CompressionSnappy Compression = "snappy"

	// CompressionGzip uses Gzip compression.
	CompressionGzip Compression = "gzip"

	// CompressionLz4 uses LZ4 compression.
	CompressionLz4 Compression = "lz4"

	// CompressionZstd uses Zstandard compression.
	CompressionZstd Compression = "zstd"

	// CompressionNone disables compression.
	CompressionNone Compression = "none"
)

var compressionTypes map[Compression]struct{}
var compressionList []string

func init() {
	list := []Compression{
		CompressionNone,
		CompressionGzip,
		CompressionSnappy,
		CompressionLz4,
		CompressionZstd,
	}

	compressionTypes = make(map[Compression]struct{})
	for _, c := range list {
		compressionTypes[c] = struct{}{}
		compressionList = append(compressionList, string(c))
	}
}

// parseCompression validates a compression.codec value.
func parseCompression(value string) (Compression, error) {
	codec := Compression(strings.ToLower(value))
	if _, ok := compressionTypes[codec]; ok {
		return codec, nil
	}

	list := strings.Join(compressionList, "', '")
	list = "'" + list + "'"
	return "", fmt.Errorf("Invalid value \"%s\" for configuration property \"compression.codec\": must be %s", value, list)
}

// opt converts the codec into the franz-go batch compression option.
func (c Compression) opt() kgo.Opt {
	switch c {
	case CompressionSnappy:
		return kgo.ProducerBatchCompression(kgo.SnappyCompression())
	case CompressionGzip:
		return kgo.ProducerBatchCompression(kgo.GzipCompression())
	case CompressionLz4:
		return kgo.ProducerBatchCompression(kgo.Lz4Compression())
	case CompressionZstd:
		return kgo.ProducerBatchCompression(kgo.ZstdCompression())
	default:
		return kgo.ProducerBatchCompression(kgo.NoCompression())
	}
}
