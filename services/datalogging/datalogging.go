// Package datalogging is the typed client for the data-logging endpoint:
// tracking sessions the watch opens, accumulating SendData chunks, and
// ACKing/NACKing each one by its declared CRC.
package datalogging

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/pebblekit/pebble2/crc"
	"github.com/pebblekit/pebble2/packet"
	pdl "github.com/pebblekit/pebble2/packet/datalogging"
)

// Sender is the surface Client needs from a connection.
type Sender interface {
	SendPacket(ctx context.Context, msg packet.Descriptor) error
	RegisterEndpoint(endpoint uint16, fn func(packet.Descriptor)) func()
}

// Session is an open data-logging session the watch has told us about.
type Session struct {
	AppUUID      uuid.UUID
	LogTag       uint32
	DataItemType pdl.ItemType
	DataItemSize uint16
}

// Client dispatches OpenSession/SendData/CloseSession notifications to a
// caller-supplied handler and ACKs or NACKs each chunk on the handler's
// behalf: a handler returning a non-nil error NACKs the chunk (the watch
// is expected to resend it).
type Client struct {
	conn Sender

	mu       sync.Mutex
	sessions map[uint8]Session

	unsubscribe func()
}

// Handler is invoked once per SendData chunk with the accumulated session
// state and the chunk's payload bytes.
type Handler func(ctx context.Context, sessionID uint8, session Session, data []byte) error

func New(ctx context.Context, conn Sender, handler Handler) *Client {
	c := &Client{conn: conn, sessions: make(map[uint8]Session)}
	c.unsubscribe = conn.RegisterEndpoint(pdl.EndpointDataLogging, func(d packet.Descriptor) {
		msg, ok := d.(*pdl.DataLogging)
		if !ok {
			return
		}
		c.handle(ctx, msg, handler)
	})
	return c
}

func (c *Client) Close() { c.unsubscribe() }

func (c *Client) handle(ctx context.Context, msg *pdl.DataLogging, handler Handler) {
	switch {
	case msg.IsOpenSession():
		c.mu.Lock()
		c.sessions[msg.Open.SessionID] = Session{
			AppUUID:      msg.Open.AppUUID,
			LogTag:       msg.Open.LogTag,
			DataItemType: pdl.ItemType(msg.Open.DataItemType),
			DataItemSize: msg.Open.DataItemSize,
		}
		c.mu.Unlock()

	case msg.IsSendData():
		c.mu.Lock()
		session := c.sessions[msg.Send.SessionID]
		c.mu.Unlock()

		want := crc.Crc32(msg.Send.Data)
		var err error
		if want != msg.Send.CRC {
			err = fmt.Errorf("datalogging: crc mismatch for session %d", msg.Send.SessionID)
		} else if handler != nil {
			err = handler(ctx, msg.Send.SessionID, session, msg.Send.Data)
		}
		reply := pdl.NewACK(msg.Send.SessionID)
		if err != nil {
			reply = pdl.NewNACK(msg.Send.SessionID)
		}
		_ = c.conn.SendPacket(ctx, reply)

	case msg.IsCloseSession():
		c.mu.Lock()
		delete(c.sessions, msg.Session.SessionID)
		c.mu.Unlock()
		_ = c.conn.SendPacket(ctx, pdl.NewACK(msg.Session.SessionID))
	}
}

// SetSendEnable toggles whether the watch should open logging sessions at
// all.
func (c *Client) SetSendEnable(ctx context.Context, enabled bool) error {
	return c.conn.SendPacket(ctx, pdl.NewSetSendEnable(enabled))
}
