// Package codec transcodes file bytes to and from the base64 text
// representation used on the wire.
package codec

import (
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/fsbridge/backend/internal/fs"
)

// ChunkSize is the read buffer for streaming encoding. It must stay a
// multiple of 3: base64 only pads when the final group has fewer than 3
// input bytes, so full chunks encode with zero interior padding and the
// concatenated segments equal the encoding of the whole stream.
const ChunkSize = 3 * 1024

// EncodeStream base64-encodes everything readable from r without holding
// more than one chunk of raw bytes in memory at a time. A read failure
// aborts the whole operation with the underlying error.
func EncodeStream(r io.Reader) (string, error) {
	var out strings.Builder
	buf := make([]byte, ChunkSize)
	for {
		n, err := io.ReadFull(r, buf)
		if n == ChunkSize {
			out.WriteString(base64.StdEncoding.EncodeToString(buf))
			continue
		}
		if n > 0 {
			// short final read, may legitimately pad
			out.WriteString(base64.StdEncoding.EncodeToString(buf[:n]))
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return out.String(), nil
		}
		return "", err
	}
}

// Decode decodes a complete base64 string into raw bytes. Malformed input
// fails with the encoding error kind, distinct from I/O failures.
func Decode(content string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", fs.ErrEncoding, err)
	}
	return data, nil
}
