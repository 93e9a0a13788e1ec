// Package rpc runs the JSON request/response/notification loop between one
// client and the bridge. Each request is dispatched on its own goroutine so
// a slow backend call never blocks unrelated requests.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fsbridge/backend/internal/infrastructure/monitoring"
	"go.uber.org/zap"
)

// Transport carries opaque JSON messages in both directions. ReadMessage
// returns io.EOF on clean peer shutdown. WriteMessage must tolerate
// concurrent callers or be wrapped; Conn serializes writes itself.
type Transport interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	Close() error
}

// Handler processes one request's raw params and returns a result or a
// failure. A nil result with nil error responds with JSON null.
type Handler func(ctx context.Context, params json.RawMessage) (interface{}, error)

type message struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result interface{}     `json:"result,omitempty"`
	Error  *Error          `json:"error,omitempty"`
}

// Conn is one logical protocol connection.
type Conn struct {
	transport Transport
	handlers  map[string]Handler
	logger    *zap.Logger
	metrics   *monitoring.Metrics

	writeMu sync.Mutex
	wg      sync.WaitGroup
}

// NewConn creates a connection over a transport.
func NewConn(transport Transport, logger *zap.Logger, metrics *monitoring.Metrics) *Conn {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Conn{
		transport: transport,
		handlers:  make(map[string]Handler),
		logger:    logger,
		metrics:   metrics,
	}
}

// Handle registers a request handler for a method name.
func (c *Conn) Handle(method string, h Handler) {
	c.handlers[method] = h
}

// Notify pushes a fire-and-forget notification to the client.
func (c *Conn) Notify(method string, params interface{}) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return err
	}
	return c.write(message{Method: method, Params: raw})
}

// Serve drives the listening loop until the transport closes. A clean close
// or a canceled context returns nil; a transport fault or a malformed
// top-level message returns the fatal error. Failures inside individual
// requests are reported on that request's response and never end the loop.
func (c *Conn) Serve(ctx context.Context) error {
	defer c.wg.Wait()

	for {
		data, err := c.transport.ReadMessage()
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("transport failure: %w", err)
		}

		var msg message
		if err := json.Unmarshal(data, &msg); err != nil {
			return fmt.Errorf("malformed message: %w", err)
		}
		if msg.Method == "" {
			// response from the client; nothing here awaits one
			c.logger.Debug("discarding unexpected response", zap.ByteString("id", msg.ID))
			continue
		}

		c.wg.Add(1)
		go func(msg message) {
			defer c.wg.Done()
			c.dispatch(ctx, msg)
		}(msg)
	}
}

func (c *Conn) dispatch(ctx context.Context, msg message) {
	start := time.Now()

	handler, ok := c.handlers[msg.Method]
	if !ok {
		c.logger.Warn("unknown method", zap.String("method", msg.Method))
		c.reply(msg.ID, nil, &Error{Code: CodeMethodNotFound, Message: "method not found: " + msg.Method})
		c.metrics.RecordRequest(msg.Method, "unknown", time.Since(start))
		return
	}

	result, err := handler(ctx, msg.Params)
	if err != nil {
		wireErr := Translate(err)
		c.logger.Debug("request failed",
			zap.String("method", msg.Method),
			zap.Int("code", wireErr.Code),
			zap.Error(err))
		c.reply(msg.ID, nil, wireErr)
		c.metrics.RecordRequest(msg.Method, "error", time.Since(start))
		c.metrics.RecordRequestError(msg.Method, wireErr.Kind())
		return
	}

	c.reply(msg.ID, result, nil)
	c.metrics.RecordRequest(msg.Method, "ok", time.Since(start))
}

func (c *Conn) reply(id json.RawMessage, result interface{}, wireErr *Error) {
	if id == nil {
		return // request was a notification
	}
	if err := c.write(message{ID: id, Result: result, Error: wireErr}); err != nil {
		c.logger.Warn("failed to write response", zap.Error(err))
	}
}

func (c *Conn) write(msg message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.transport.WriteMessage(data)
}

// Close shuts down the underlying transport.
func (c *Conn) Close() error {
	return c.transport.Close()
}
