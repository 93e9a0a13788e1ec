package rpc

import (
	"io"

	"github.com/gorilla/websocket"
)

// WSTransport adapts a gorilla websocket connection to the Transport
// interface; each protocol message is one text frame.
type WSTransport struct {
	conn *websocket.Conn
}

// NewWSTransport wraps an upgraded websocket connection.
func NewWSTransport(conn *websocket.Conn) *WSTransport {
	return &WSTransport{conn: conn}
}

func (t *WSTransport) ReadMessage() ([]byte, error) {
	_, data, err := t.conn.ReadMessage()
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
		return nil, io.EOF
	}
	return data, err
}

func (t *WSTransport) WriteMessage(data []byte) error {
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

func (t *WSTransport) Close() error {
	return t.conn.Close()
}
