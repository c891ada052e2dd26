package transport

import (
	"context"
	"fmt"
	"sync"
)

// subEndpointRelay is the WebSocket relay's sub-endpoint byte for "this
// message's body is a Pebble frame bound for/from the watch". Other
// sub-endpoint values are phone-directed control messages the relay uses
// for its own bookkeeping (install status, proxy auth, connection state)
// and are delivered to Phone-origin handlers untouched.
const subEndpointRelay = 0x01

// WSConn is the minimal message-oriented surface the WebSocket transport
// needs. A real binary WebSocket client library adapts to this at the
// call site; the transport package itself stays free of a hard dependency
// on any one WebSocket library.
type WSConn interface {
	ReadMessage() ([]byte, error)
	WriteMessage([]byte) error
	Close() error
}

// WebSocket is the relay transport used when a watch is reached through a
// phone acting as a Bluetooth/WebSocket bridge. Every message carries a
// 1-byte sub-endpoint prefix; subEndpointRelay carries Pebble frames, anything else
// is a relay control message tagged OriginPhone.
type WebSocket struct {
	conn WSConn

	mu     sync.Mutex
	closed bool
}

func NewWebSocket(conn WSConn) *WebSocket {
	return &WebSocket{conn: conn}
}

func (w *WebSocket) Connect(ctx context.Context) error { return nil }

func (w *WebSocket) Connected() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.closed
}

func (w *WebSocket) MustInitialize() bool { return false }

func (w *WebSocket) ReadPacket(ctx context.Context) ([]byte, Origin, error) {
	if !w.Connected() {
		return nil, OriginWatch, ErrTransportClosed
	}
	for {
		msg, err := w.conn.ReadMessage()
		if err != nil {
			return nil, OriginWatch, fmt.Errorf("transport/websocket: read: %w", err)
		}
		if len(msg) == 0 {
			continue
		}
		sub, body := msg[0], msg[1:]
		if sub == subEndpointRelay {
			return body, OriginWatch, nil
		}
		// A phone-directed control message: surface it to the connection
		// core tagged OriginPhone so it can be dispatched by endpoint like
		// any other payload, rather than silently dropped.
		return body, OriginPhone, nil
	}
}

func (w *WebSocket) SendPacket(ctx context.Context, payload []byte) error {
	if !w.Connected() {
		return ErrTransportClosed
	}
	msg := make([]byte, 1+len(payload))
	msg[0] = subEndpointRelay
	copy(msg[1:], payload)
	if err := w.conn.WriteMessage(msg); err != nil {
		return fmt.Errorf("transport/websocket: write: %w", err)
	}
	return nil
}

func (w *WebSocket) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.conn.Close()
}
