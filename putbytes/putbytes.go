// Package putbytes implements the chunked binary upload state machine used
// to push firmware, app binaries and other blobs to the watch:
// Init -> Put* -> Commit -> Install, driven entirely by server ACK/NACK
// responses with no mid-session retry.
package putbytes

import (
	"context"
	"fmt"
	"time"

	"github.com/pebblekit/pebble2/codec"
	"github.com/pebblekit/pebble2/crc"
	"github.com/pebblekit/pebble2/packet"
)

const (
	EndpointPutBytes uint16 = 0xbeef

	// maxChunk is the largest payload a single Put packet may carry.
	maxChunk = 2000

	appInstallFlag uint8 = 0x80
)

// ObjectType selects what kind of blob is being transferred. App-install
// variants set the high bit of the wire value; application code passes
// the plain (non-flagged) constant and Init sets the bit itself.
type ObjectType uint8

const (
	ObjectFirmware ObjectType = 1
	ObjectRecovery ObjectType = 2
	ObjectSysResources ObjectType = 3
	ObjectResources   ObjectType = 4
	ObjectAppBinary   ObjectType = 5
	ObjectAppResources ObjectType = 6
	ObjectAppWorker   ObjectType = 7
	ObjectFile        ObjectType = 8
)

// Error reports a NACK from the watch at any stage; the session is
// aborted and never retried.
type Error struct {
	Stage  string
	Result uint8
}

func (e *Error) Error() string {
	return fmt.Sprintf("putbytes: %s NACKed (result=%d)", e.Stage, e.Result)
}

// Progress describes how much of the object has been sent after a Put
// chunk.
type Progress struct {
	ChunkLen int
	Sent     int
	Total    int
}

// putBytesInit is the Init packet: command 1, then total transfer size,
// object type (high bit set for app-install variants), and a bank/app id
// cookie.
type putBytesInit struct {
	Command    uint8
	Size       uint32
	ObjectType uint8
	Cookie     uint32
}

func (p *putBytesInit) Fields() []codec.Field {
	return []codec.Field{codec.Uint8(&p.Command), codec.Uint32(&p.Size), codec.Uint8(&p.ObjectType), codec.Uint32(&p.Cookie)}
}
func (p *putBytesInit) Meta() packet.Meta {
	return packet.Meta{Endianness: codec.BigEndian, HasEndpoint: true, Endpoint: EndpointPutBytes, Register: false}
}

type putBytesPut struct {
	Command uint8
	Cookie  uint32
	Size    uint32
	Payload []byte
}

func (p *putBytesPut) Fields() []codec.Field {
	return []codec.Field{
		codec.Uint8(&p.Command), codec.Uint32(&p.Cookie),
		codec.Uint32(&p.Size), codec.BinaryArrayWithLength(&p.Payload, codec.Uint32Ref(&p.Size)),
	}
}
func (p *putBytesPut) Meta() packet.Meta {
	return packet.Meta{Endianness: codec.BigEndian, HasEndpoint: true, Endpoint: EndpointPutBytes, Register: false}
}

type putBytesCommit struct {
	Command uint8
	Cookie  uint32
	CRC     uint32
}

func (p *putBytesCommit) Fields() []codec.Field {
	return []codec.Field{codec.Uint8(&p.Command), codec.Uint32(&p.Cookie), codec.Uint32(&p.CRC)}
}
func (p *putBytesCommit) Meta() packet.Meta {
	return packet.Meta{Endianness: codec.BigEndian, HasEndpoint: true, Endpoint: EndpointPutBytes, Register: false}
}

type putBytesInstall struct {
	Command uint8
	Cookie  uint32
}

func (p *putBytesInstall) Fields() []codec.Field {
	return []codec.Field{codec.Uint8(&p.Command), codec.Uint32(&p.Cookie)}
}
func (p *putBytesInstall) Meta() packet.Meta {
	return packet.Meta{Endianness: codec.BigEndian, HasEndpoint: true, Endpoint: EndpointPutBytes, Register: false}
}

// PutBytesResponse is the watch's reply to every stage: a result byte
// (0 = ACK, anything else = NACK) and, for Init only, a cookie to echo
// back on subsequent Put/Commit/Install packets.
type PutBytesResponse struct {
	Result uint8
	Cookie uint32
}

func (p *PutBytesResponse) Fields() []codec.Field {
	return []codec.Field{codec.Uint8(&p.Result), codec.Uint32(&p.Cookie)}
}
func (p *PutBytesResponse) Meta() packet.Meta {
	return packet.Meta{Endianness: codec.BigEndian, HasEndpoint: true, Endpoint: EndpointPutBytes, Register: true}
}

func init() {
	packet.Global.Register(EndpointPutBytes, func() packet.Descriptor { return &PutBytesResponse{} })
}

const ackResult = 0

// Upload drives the whole Init -> Put* -> Commit -> Install sequence,
// reporting progress after each Put chunk. appInstall sets the object
// type's high bit for app binary/resource/worker transfers; appID is the
// install id the watch's AppFetchRequest supplied and is only meaningful
// when appInstall is true (it's ignored, as 0, for firmware/bank
// transfers).
func Upload(ctx context.Context, conn transferConn, objectType ObjectType, appInstall bool, appID uint32, data []byte, progress func(Progress)) error {
	ot := uint8(objectType)
	if appInstall {
		ot |= appInstallFlag
	}

	init := &putBytesInit{Command: 1, Size: uint32(len(data)), ObjectType: ot}
	if appInstall {
		init.Cookie = appID
	}
	resp, err := roundTrip(ctx, conn, init, "init")
	if err != nil {
		return err
	}
	cookie := resp.Cookie

	sent := 0
	for sent < len(data) {
		n := maxChunk
		if n > len(data)-sent {
			n = len(data) - sent
		}
		chunk := data[sent : sent+n]
		put := &putBytesPut{Command: 2, Cookie: cookie, Payload: chunk}
		if _, err := roundTrip(ctx, conn, put, "put"); err != nil {
			return err
		}
		sent += n
		if progress != nil {
			progress(Progress{ChunkLen: n, Sent: sent, Total: len(data)})
		}
	}

	commit := &putBytesCommit{Command: 3, Cookie: cookie, CRC: crc.Crc32(data)}
	if _, err := roundTrip(ctx, conn, commit, "commit"); err != nil {
		return err
	}

	install := &putBytesInstall{Command: 4, Cookie: cookie}
	if _, err := roundTrip(ctx, conn, install, "install"); err != nil {
		return err
	}
	return nil
}

// transferConn is implemented by *connection.Connection; kept as a small
// local interface so this package doesn't import connection directly and
// create a cycle with services built atop both.
type transferConn interface {
	SendPacket(ctx context.Context, msg packet.Descriptor) error
	ReadFromEndpoint(ctx context.Context, endpoint uint16, timeout time.Duration) (packet.Descriptor, error)
}

const responseTimeout = 5 * time.Second

func roundTrip(ctx context.Context, conn transferConn, msg packet.Descriptor, stage string) (*PutBytesResponse, error) {
	if err := conn.SendPacket(ctx, msg); err != nil {
		return nil, fmt.Errorf("putbytes: send %s: %w", stage, err)
	}
	reply, err := conn.ReadFromEndpoint(ctx, EndpointPutBytes, responseTimeout)
	if err != nil {
		return nil, fmt.Errorf("putbytes: await %s response: %w", stage, err)
	}
	resp, ok := reply.(*PutBytesResponse)
	if !ok {
		return nil, fmt.Errorf("putbytes: unexpected response type for %s", stage)
	}
	if resp.Result != ackResult {
		return nil, &Error{Stage: stage, Result: resp.Result}
	}
	return resp, nil
}
