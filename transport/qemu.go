package transport

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"sync"
)

const (
	qemuMagicOpen  = 0xFEED
	qemuMagicClose = 0xBEEF

	// qemuProtocolPebble is the protocol id used for ordinary Pebble
	// frames; other protocol ids (tap, compass, battery, accel, and the
	// rest of the QEMU peripheral set) are still delivered but tagged
	// OriginQEMU so a caller interested in emulator-only traffic can tell
	// them apart from real watch protocol data.
	qemuProtocolPebble = 0
)

// QEMU talks to the Pebble emulator's TCP control socket:
// u16 0xFEED magic || u16 protocol || u16 length || payload || u16 0xBEEF
// magic, all big-endian.
type QEMU struct {
	rwc io.ReadWriteCloser

	mu     sync.Mutex
	closed bool
}

func NewQEMU(rwc io.ReadWriteCloser) *QEMU {
	return &QEMU{rwc: rwc}
}

func (q *QEMU) Connect(ctx context.Context) error { return nil }

func (q *QEMU) Connected() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return !q.closed
}

func (q *QEMU) MustInitialize() bool { return false }

func (q *QEMU) ReadPacket(ctx context.Context) ([]byte, Origin, error) {
	if !q.Connected() {
		return nil, OriginQEMU, ErrTransportClosed
	}
	var header [6]byte
	if _, err := io.ReadFull(q.rwc, header[:]); err != nil {
		return nil, OriginQEMU, fmt.Errorf("transport/qemu: read header: %w", err)
	}
	magic := binary.BigEndian.Uint16(header[0:2])
	if magic != qemuMagicOpen {
		return nil, OriginQEMU, fmt.Errorf("transport/qemu: bad open magic %#04x", magic)
	}
	protocol := binary.BigEndian.Uint16(header[2:4])
	length := binary.BigEndian.Uint16(header[4:6])

	body := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(q.rwc, body); err != nil {
			return nil, OriginQEMU, fmt.Errorf("transport/qemu: read body: %w", err)
		}
	}
	var trailer [2]byte
	if _, err := io.ReadFull(q.rwc, trailer[:]); err != nil {
		return nil, OriginQEMU, fmt.Errorf("transport/qemu: read close magic: %w", err)
	}
	if binary.BigEndian.Uint16(trailer[:]) != qemuMagicClose {
		return nil, OriginQEMU, fmt.Errorf("transport/qemu: bad close magic")
	}

	origin := OriginQEMU
	if protocol == qemuProtocolPebble {
		origin = OriginWatch
	}
	return body, origin, nil
}

func (q *QEMU) SendPacket(ctx context.Context, payload []byte) error {
	if !q.Connected() {
		return ErrTransportClosed
	}
	out := make([]byte, 6+len(payload)+2)
	binary.BigEndian.PutUint16(out[0:2], qemuMagicOpen)
	binary.BigEndian.PutUint16(out[2:4], qemuProtocolPebble)
	binary.BigEndian.PutUint16(out[4:6], uint16(len(payload)))
	copy(out[6:], payload)
	binary.BigEndian.PutUint16(out[6+len(payload):], qemuMagicClose)
	if _, err := q.rwc.Write(out); err != nil {
		return fmt.Errorf("transport/qemu: write: %w", err)
	}
	return nil
}

func (q *QEMU) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	return q.rwc.Close()
}
