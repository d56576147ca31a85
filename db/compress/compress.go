// Package compress implements the at-rest encoding of stored values.
// Small values are kept as-is; values over a threshold are brotli-compressed
// when that actually saves space.
package compress

import (
	"bytes"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
)

// Encodings recorded next to each stored value.
const (
	EncodingIdentity = "identity"
	EncodingBrotli   = "br"
)

// Encode returns the at-rest form of value and the encoding used.
// A threshold <= 0 disables compression.
func Encode(value []byte, threshold int) ([]byte, string, error) {
	if threshold <= 0 || len(value) < threshold {
		return value, EncodingIdentity, nil
	}

	var buf bytes.Buffer
	w := brotli.NewWriterLevel(&buf, brotli.DefaultCompression)
	if _, err := w.Write(value); err != nil {
		return nil, "", fmt.Errorf("compressing value: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("flushing compressed value: %w", err)
	}

	if buf.Len() >= len(value) {
		return value, EncodingIdentity, nil
	}
	return buf.Bytes(), EncodingBrotli, nil
}

// Decode reverses Encode.
func Decode(data []byte, encoding string) ([]byte, error) {
	switch encoding {
	case EncodingIdentity, "":
		return data, nil
	case EncodingBrotli:
		decoded, err := io.ReadAll(brotli.NewReader(bytes.NewReader(data)))
		if err != nil {
			return nil, fmt.Errorf("decompressing value: %w", err)
		}
		return decoded, nil
	default:
		return nil, fmt.Errorf("unknown encoding %q", encoding)
	}
}
