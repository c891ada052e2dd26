// Package datalogging implements the data-logging endpoint (0x1a7a):
// little-endian, the watch opening/despooling/closing logging sessions
// and the phone ACKing/NACKing each chunk.
package datalogging

import (
	"github.com/google/uuid"

	"github.com/pebblekit/pebble2/codec"
	"github.com/pebblekit/pebble2/packet"
)

const EndpointDataLogging uint16 = 0x1a7a

type command uint8

const (
	cmdOpenSession   command = 0x01
	cmdSendData      command = 0x02
	cmdCloseSession  command = 0x03
	cmdTimeout       command = 0x07
	cmdReportSessions command = 0x84
	cmdACK           command = 0x85
	cmdNACK          command = 0x86
	cmdEmptySession  command = 0x88
	cmdGetSendEnableReq command = 0x89
	cmdGetSendEnableResp command = 0x0A
	cmdSetSendEnable command = 0x8B
)

type ItemType uint8

const (
	ItemByteArray  ItemType = 0x00
	ItemUnsignedInt ItemType = 0x02
	ItemSignedInt  ItemType = 0x03
)

type OpenSession struct {
	SessionID    uint8
	AppUUID      uuid.UUID
	Timestamp    uint32
	LogTag       uint32
	DataItemType uint8
	DataItemSize uint16
}

func (s *OpenSession) Fields() []codec.Field {
	return []codec.Field{
		codec.Uint8(&s.SessionID), codec.UUID(&s.AppUUID), codec.Uint32(&s.Timestamp),
		codec.Uint32(&s.LogTag), codec.Uint8(&s.DataItemType), codec.Uint16(&s.DataItemSize),
	}
}

type SendData struct {
	SessionID uint8
	ItemsLeft uint32
	CRC       uint32
	Data      []byte
}

func (s *SendData) Fields() []codec.Field {
	return []codec.Field{
		codec.Uint8(&s.SessionID), codec.Uint32(&s.ItemsLeft), codec.Uint32(&s.CRC),
		codec.BinaryArrayRestOfBuffer(&s.Data),
	}
}

// SessionOnly covers CloseSession/ACK/NACK/EmptySession, all of which
// carry only a session id.
type SessionOnly struct{ SessionID uint8 }

func (s *SessionOnly) Fields() []codec.Field { return []codec.Field{codec.Uint8(&s.SessionID)} }

type SendEnable struct{ Enabled bool }

func (s *SendEnable) Fields() []codec.Field { return []codec.Field{codec.Bool(&s.Enabled)} }

// DataLogging is the endpoint 0x1a7a envelope.
type DataLogging struct {
	Command     uint8
	Open        OpenSession
	Send        SendData
	Session     SessionOnly
	SendEnabled SendEnable
}

func (d *DataLogging) is(c command) func() bool {
	return func() bool { return command(d.Command) == c }
}

func (d *DataLogging) Fields() []codec.Field {
	return []codec.Field{
		codec.Uint8(&d.Command),
		codec.Union(codec.Uint8Ref(&d.Command),
			codec.UnionVariant{Tag: uint64(cmdOpenSession), Active: d.is(cmdOpenSession), Field: codec.Embed(&d.Open)},
			codec.UnionVariant{Tag: uint64(cmdSendData), Active: d.is(cmdSendData), Field: codec.Embed(&d.Send)},
			codec.UnionVariant{Tag: uint64(cmdCloseSession), Active: d.is(cmdCloseSession), Field: codec.Embed(&d.Session)},
			codec.UnionVariant{Tag: uint64(cmdReportSessions), Active: d.is(cmdReportSessions), Field: codec.Embed(codec.EmptyMessage{})},
			codec.UnionVariant{Tag: uint64(cmdACK), Active: d.is(cmdACK), Field: codec.Embed(&d.Session)},
			codec.UnionVariant{Tag: uint64(cmdNACK), Active: d.is(cmdNACK), Field: codec.Embed(&d.Session)},
			codec.UnionVariant{Tag: uint64(cmdTimeout), Active: d.is(cmdTimeout), Field: codec.Embed(codec.EmptyMessage{})},
			codec.UnionVariant{Tag: uint64(cmdEmptySession), Active: d.is(cmdEmptySession), Field: codec.Embed(&d.Session)},
			codec.UnionVariant{Tag: uint64(cmdGetSendEnableReq), Active: d.is(cmdGetSendEnableReq), Field: codec.Embed(codec.EmptyMessage{})},
			codec.UnionVariant{Tag: uint64(cmdGetSendEnableResp), Active: d.is(cmdGetSendEnableResp), Field: codec.Embed(&d.SendEnabled)},
			codec.UnionVariant{Tag: uint64(cmdSetSendEnable), Active: d.is(cmdSetSendEnable), Field: codec.Embed(&d.SendEnabled)},
		),
	}
}

func (d *DataLogging) Meta() packet.Meta {
	return packet.Meta{Endianness: codec.LittleEndian, HasEndpoint: true, Endpoint: EndpointDataLogging, Register: true}
}

func NewACK(sessionID uint8) *DataLogging {
	return &DataLogging{Command: uint8(cmdACK), Session: SessionOnly{SessionID: sessionID}}
}

func NewNACK(sessionID uint8) *DataLogging {
	return &DataLogging{Command: uint8(cmdNACK), Session: SessionOnly{SessionID: sessionID}}
}

func NewSetSendEnable(enabled bool) *DataLogging {
	return &DataLogging{Command: uint8(cmdSetSendEnable), SendEnabled: SendEnable{Enabled: enabled}}
}

func (d *DataLogging) IsOpenSession() bool  { return d.is(cmdOpenSession)() }
func (d *DataLogging) IsSendData() bool     { return d.is(cmdSendData)() }
func (d *DataLogging) IsCloseSession() bool { return d.is(cmdCloseSession)() }

func init() {
	packet.Global.Register(EndpointDataLogging, func() packet.Descriptor { return &DataLogging{} })
}
