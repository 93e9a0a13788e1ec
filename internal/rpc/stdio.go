package rpc

import (
	"bufio"
	"io"
	"sync"
)

// StdioTransport frames messages as newline-delimited JSON on a byte
// stream, typically the process's stdin/stdout.
type StdioTransport struct {
	reader  *bufio.Scanner
	writer  io.Writer
	closer  io.Closer
	closeMu sync.Once
}

// DefaultMaxMessageSize bounds a single framed message. File content rides
// inside messages as base64 text, so the bound is generous.
const DefaultMaxMessageSize = 64 * 1024 * 1024

// NewStdioTransport creates a transport over a reader/writer pair. closer
// may be nil.
func NewStdioTransport(r io.Reader, w io.Writer, closer io.Closer, maxMessageSize int) *StdioTransport {
	if maxMessageSize <= 0 {
		maxMessageSize = DefaultMaxMessageSize
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxMessageSize)
	return &StdioTransport{
		reader: scanner,
		writer: w,
		closer: closer,
	}
}

func (t *StdioTransport) ReadMessage() ([]byte, error) {
	for t.reader.Scan() {
		line := t.reader.Bytes()
		if len(line) == 0 {
			continue
		}
		// scanner reuses its buffer between calls
		out := make([]byte, len(line))
		copy(out, line)
		return out, nil
	}
	if err := t.reader.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

func (t *StdioTransport) WriteMessage(data []byte) error {
	if _, err := t.writer.Write(data); err != nil {
		return err
	}
	_, err := t.writer.Write([]byte{'\n'})
	return err
}

func (t *StdioTransport) Close() error {
	var err error
	t.closeMu.Do(func() {
		if t.closer != nil {
			err = t.closer.Close()
		}
	})
	return err
}
