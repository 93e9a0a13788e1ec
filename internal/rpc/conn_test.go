package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/fsbridge/backend/internal/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chanTransport is an in-memory Transport for tests.
type chanTransport struct {
	in   chan []byte
	out  chan []byte
	once sync.Once
}

func newChanTransport() *chanTransport {
	return &chanTransport{
		in:  make(chan []byte, 16),
		out: make(chan []byte, 16),
	}
}

func (t *chanTransport) ReadMessage() ([]byte, error) {
	data, ok := <-t.in
	if !ok {
		return nil, io.EOF
	}
	return data, nil
}

func (t *chanTransport) WriteMessage(data []byte) error {
	t.out <- data
	return nil
}

func (t *chanTransport) Close() error {
	t.once.Do(func() { close(t.in) })
	return nil
}

func (t *chanTransport) send(tb testing.TB, v interface{}) {
	tb.Helper()
	data, err := json.Marshal(v)
	require.NoError(tb, err)
	t.in <- data
}

func (t *chanTransport) recv(tb testing.TB) map[string]json.RawMessage {
	tb.Helper()
	select {
	case data := <-t.out:
		var msg map[string]json.RawMessage
		require.NoError(tb, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(5 * time.Second):
		tb.Fatal("timed out waiting for outbound message")
		return nil
	}
}

func serve(t *testing.T, conn *Conn) <-chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() {
		done <- conn.Serve(context.Background())
	}()
	return done
}

func TestRequestResponse(t *testing.T) {
	transport := newChanTransport()
	conn := NewConn(transport, nil, nil)
	conn.Handle("echo", func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		return json.RawMessage(params), nil
	})

	done := serve(t, conn)

	transport.send(t, map[string]interface{}{
		"id": 1, "method": "echo", "params": map[string]string{"hello": "world"},
	})

	reply := transport.recv(t)
	assert.JSONEq(t, `1`, string(reply["id"]))
	assert.JSONEq(t, `{"hello":"world"}`, string(reply["result"]))

	transport.Close()
	assert.NoError(t, <-done)
}

func TestRequestFailureIsLocal(t *testing.T) {
	transport := newChanTransport()
	conn := NewConn(transport, nil, nil)
	conn.Handle("boom", func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		return nil, fs.ErrNotFound
	})
	conn.Handle("fine", func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		return "ok", nil
	})

	done := serve(t, conn)

	transport.send(t, map[string]interface{}{"id": 1, "method": "boom"})
	reply := transport.recv(t)

	var wireErr Error
	require.NoError(t, json.Unmarshal(reply["error"], &wireErr))
	assert.Equal(t, CodeNotFound, wireErr.Code)

	// the loop keeps serving after a request failure
	transport.send(t, map[string]interface{}{"id": 2, "method": "fine"})
	reply = transport.recv(t)
	assert.JSONEq(t, `"ok"`, string(reply["result"]))

	transport.Close()
	assert.NoError(t, <-done)
}

func TestUnknownMethod(t *testing.T) {
	transport := newChanTransport()
	conn := NewConn(transport, nil, nil)

	done := serve(t, conn)

	transport.send(t, map[string]interface{}{"id": 7, "method": "filesystem/teleport"})
	reply := transport.recv(t)

	var wireErr Error
	require.NoError(t, json.Unmarshal(reply["error"], &wireErr))
	assert.Equal(t, CodeMethodNotFound, wireErr.Code)

	transport.Close()
	assert.NoError(t, <-done)
}

func TestSlowRequestDoesNotBlockOthers(t *testing.T) {
	transport := newChanTransport()
	conn := NewConn(transport, nil, nil)

	release := make(chan struct{})
	conn.Handle("slow", func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		<-release
		return "slow done", nil
	})
	conn.Handle("fast", func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		return "fast done", nil
	})

	done := serve(t, conn)

	transport.send(t, map[string]interface{}{"id": 1, "method": "slow"})
	transport.send(t, map[string]interface{}{"id": 2, "method": "fast"})

	// fast reply arrives while slow is still stalled
	reply := transport.recv(t)
	assert.JSONEq(t, `2`, string(reply["id"]))

	close(release)
	reply = transport.recv(t)
	assert.JSONEq(t, `1`, string(reply["id"]))

	transport.Close()
	assert.NoError(t, <-done)
}

func TestNotifyPushesUncorrelatedMessage(t *testing.T) {
	transport := newChanTransport()
	conn := NewConn(transport, nil, nil)

	require.NoError(t, conn.Notify("filesystem/onDidChangeFile", map[string]interface{}{
		"type": 2, "uri": "mem:///x",
	}))

	msg := transport.recv(t)
	assert.JSONEq(t, `"filesystem/onDidChangeFile"`, string(msg["method"]))
	assert.JSONEq(t, `{"type":2,"uri":"mem:///x"}`, string(msg["params"]))
	_, hasID := msg["id"]
	assert.False(t, hasID)
}

func TestMalformedMessageIsFatal(t *testing.T) {
	transport := newChanTransport()
	conn := NewConn(transport, nil, nil)

	done := serve(t, conn)

	transport.in <- []byte("{this is not json")

	err := <-done
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed")
}

func TestTransportFaultIsFatal(t *testing.T) {
	fault := errors.New("socket ripped out")
	transport := &faultTransport{err: fault}
	conn := NewConn(transport, nil, nil)

	err := conn.Serve(context.Background())
	assert.ErrorIs(t, err, fault)
}

type faultTransport struct{ err error }

func (t *faultTransport) ReadMessage() ([]byte, error) { return nil, t.err }
func (t *faultTransport) WriteMessage([]byte) error    { return nil }
func (t *faultTransport) Close() error                 { return nil }

func TestCanceledContextUnblocksServe(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	transport := NewStdioTransport(pr, io.Discard, pr, 0)
	conn := NewConn(transport, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- conn.Serve(ctx)
	}()

	// the reader is parked on an idle stream; cancel then close to unblock
	cancel()
	require.NoError(t, transport.Close())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel and transport close")
	}
}

func TestCleanEOFIsNotAnError(t *testing.T) {
	transport := newChanTransport()
	conn := NewConn(transport, nil, nil)

	done := serve(t, conn)
	transport.Close()
	assert.NoError(t, <-done)
}

func TestClientNotificationGetsNoReply(t *testing.T) {
	transport := newChanTransport()
	conn := NewConn(transport, nil, nil)

	handled := make(chan struct{})
	conn.Handle("fire-and-forget", func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		close(handled)
		return nil, nil
	})

	done := serve(t, conn)

	transport.send(t, map[string]interface{}{"method": "fire-and-forget"})

	select {
	case <-handled:
	case <-time.After(5 * time.Second):
		t.Fatal("notification never dispatched")
	}

	select {
	case data := <-transport.out:
		t.Fatalf("unexpected reply to notification: %s", data)
	case <-time.After(100 * time.Millisecond):
	}

	transport.Close()
	assert.NoError(t, <-done)
}
