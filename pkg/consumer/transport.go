package consumer

import (
	"errors"
	"io"
	"net"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketTransport adapts a gorilla/websocket connection to Transport.
type WebSocketTransport struct {
	conn *websocket.Conn
	cfg  Config
}

// NewWebSocketTransport sets the read limit and the pong-driven read deadline on conn.
func NewWebSocketTransport(conn *websocket.Conn, cfg Config) *WebSocketTransport {
	t := &WebSocketTransport{conn: conn, cfg: cfg}

	if cfg.MaxMessageSize > 0 {
		conn.SetReadLimit(cfg.MaxMessageSize)
	}
	if cfg.PongWait > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
		})
	}
	return t
}

// Read returns the next text or binary message. A close frame or a closed
// connection is reported as io.EOF.
func (t *WebSocketTransport) Read() ([]byte, error) {
	_, msg, err := t.conn.ReadMessage()
	if err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) ||
			errors.Is(err, net.ErrClosed) {
			return nil, io.EOF
		}
		return nil, err
	}
	return msg, nil
}

// Write sends frame as a text message.
func (t *WebSocketTransport) Write(frame []byte) error {
	if t.cfg.WriteWait > 0 {
		if err := t.conn.SetWriteDeadline(time.Now().Add(t.cfg.WriteWait)); err != nil {
			return err
		}
	}
	return t.conn.WriteMessage(websocket.TextMessage, frame)
}

// Ping sends a protocol ping.
func (t *WebSocketTransport) Ping() error {
	return t.conn.WriteControl(websocket.PingMessage, nil, t.deadline())
}

// Close sends a normal close frame and closes the connection.
func (t *WebSocketTransport) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = t.conn.WriteControl(websocket.CloseMessage, msg, t.deadline())
	return t.conn.Close()
}

func (t *WebSocketTransport) deadline() time.Time {
	wait := t.cfg.WriteWait
	if wait <= 0 {
		wait = DefaultConfig().WriteWait
	}
	return time.Now().Add(wait)
}
