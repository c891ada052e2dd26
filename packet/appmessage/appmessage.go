// Package appmessage implements the AppMessage tuple-dictionary protocol
// (endpoint 0x0030): a little-endian envelope carrying a push/ack/nack
// union, where a push's payload is itself a pascal-list of typed
// key/value tuples.
package appmessage

import (
	"github.com/google/uuid"

	"github.com/pebblekit/pebble2/codec"
	"github.com/pebblekit/pebble2/packet"
)

const EndpointAppMessage uint16 = 0x30

type opCommand uint8

const (
	commandPush opCommand = 0x01
	commandACK  opCommand = 0x03
	commandNACK opCommand = 0x04
)

// TupleType distinguishes how an AppMessageTuple's raw bytes should be
// interpreted; the wire only ever carries the raw bytes, this is metadata
// for the application layer consuming the dictionary.
type TupleType uint8

const (
	TupleByteArray TupleType = 0
	TupleCString   TupleType = 1
	TupleUint      TupleType = 2
	TupleInt       TupleType = 3
)

// Tuple is one key/value entry in an AppMessage dictionary: a 4-byte key,
// a type tag, and a length-prefixed (via a u16 sibling) byte payload.
type Tuple struct {
	Key    uint32
	Type   uint8
	Length uint16
	Data   []byte
}

func (t *Tuple) Fields() []codec.Field {
	return []codec.Field{
		codec.Uint32(&t.Key),
		codec.Uint8(&t.Type),
		codec.Uint16(&t.Length),
		codec.BinaryArrayWithLength(&t.Data, codec.Uint16Ref(&t.Length)),
	}
}

// Push carries a target app's UUID and its dictionary of tuples, each
// individually pascal-length-prefixed (the wrapping list prefix, not the
// tuple's own Length field which bounds just its Data).
type Push struct {
	UUID       uuid.UUID
	Dictionary []Tuple
}

func (p *Push) Fields() []codec.Field {
	return []codec.Field{
		codec.UUID(&p.UUID),
		codec.PascalList(&p.Dictionary, (*Tuple).Fields),
	}
}

// AppMessage is the endpoint 0x0030 envelope: a command byte selects
// which of Push/ACK/NACK follows, correlated across the exchange by
// TransactionID. ACK/NACK carry no payload, so Command alone (compared via
// IsPush/IsACK/IsNACK) tells the caller which variant was sent or decoded.
type AppMessage struct {
	Command       uint8
	TransactionID uint8
	PushVal       Push
}

// NewPush builds an outbound AppMessagePush envelope.
func NewPush(transactionID uint8, push Push) *AppMessage {
	return &AppMessage{Command: uint8(commandPush), TransactionID: transactionID, PushVal: push}
}

// NewACK builds an outbound AppMessageACK envelope echoing transactionID.
func NewACK(transactionID uint8) *AppMessage {
	return &AppMessage{Command: uint8(commandACK), TransactionID: transactionID}
}

// NewNACK builds an outbound AppMessageNACK envelope echoing transactionID.
func NewNACK(transactionID uint8) *AppMessage {
	return &AppMessage{Command: uint8(commandNACK), TransactionID: transactionID}
}

func (m *AppMessage) IsPush() bool { return opCommand(m.Command) == commandPush }
func (m *AppMessage) IsACK() bool  { return opCommand(m.Command) == commandACK }
func (m *AppMessage) IsNACK() bool { return opCommand(m.Command) == commandNACK }

func (m *AppMessage) Fields() []codec.Field {
	return []codec.Field{
		codec.Uint8(&m.Command),
		codec.Uint8(&m.TransactionID),
		codec.Union(codec.Uint8Ref(&m.Command),
			codec.UnionVariant{Tag: uint64(commandPush), Active: m.IsPush, Field: codec.Embed(&m.PushVal)},
			codec.UnionVariant{Tag: uint64(commandACK), Active: m.IsACK, Field: codec.Embed(codec.EmptyMessage{})},
			codec.UnionVariant{Tag: uint64(commandNACK), Active: m.IsNACK, Field: codec.Embed(codec.EmptyMessage{})},
		),
	}
}

func (m *AppMessage) Meta() packet.Meta {
	return packet.Meta{Endianness: codec.LittleEndian, HasEndpoint: true, Endpoint: EndpointAppMessage, Register: true}
}

func init() {
	packet.Global.Register(EndpointAppMessage, func() packet.Descriptor { return &AppMessage{} })
}
