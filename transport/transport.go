// Package transport implements the four byte-level carriers a Connection
// can run over: Serial, WebSocket (relay), QEMU and PULSE. Each hides its
// own framing behind the same Transport interface; the connection core
// never branches on transport kind.
package transport

import (
	"context"
	"errors"
)

// Origin tags which side of a relay a packet actually came from — the
// physical watch, the phone pretending to be part of the link (WebSocket
// relay control messages), or the QEMU emulator standing in for a watch.
type Origin int

const (
	OriginWatch Origin = iota
	OriginPhone
	OriginQEMU
)

// MustInitialize marks a transport that requires the PhoneAppVersion
// handshake to complete before any other traffic is meaningful; the
// connection core auto-responds to it for transports that report true.
type Transport interface {
	Connect(ctx context.Context) error
	Connected() bool
	// ReadPacket blocks for the next inbound payload and the Origin it
	// arrived tagged with. The payload excludes any transport-specific
	// envelope (WebSocket's sub-endpoint byte, QEMU's magic/protocol
	// wrapper, PULSE's opcode byte) but includes the Pebble frame header.
	ReadPacket(ctx context.Context) (payload []byte, origin Origin, err error)
	SendPacket(ctx context.Context, payload []byte) error
	MustInitialize() bool
	Close() error
}

// ErrTransportClosed is returned by ReadPacket/SendPacket once Close has
// been called.
var ErrTransportClosed = errors.New("transport: closed")
