// Package phone implements the phone-notification endpoint (0x0021):
// call-control commands the watch can send (answer/hang up/state
// request) and the call events the phone pushes back (incoming/outgoing/
// missed/ring/start/end), all multiplexed through one command-tagged
// union the way the reference kernel's PhoneNotification does it.
package phone

import (
	"github.com/pebblekit/pebble2/codec"
	"github.com/pebblekit/pebble2/packet"
)

const EndpointPhoneNotification uint16 = 0x21

type command uint8

const (
	cmdAnswerCall       command = 0x01
	cmdHangUpCall       command = 0x02
	cmdPhoneStateReq    command = 0x03
	cmdIncomingCall     command = 0x04
	cmdOutgoingCall     command = 0x05
	cmdMissedCall       command = 0x06
	cmdRing             command = 0x07
	cmdCallStart        command = 0x08
	cmdCallEnd          command = 0x09
	cmdPhoneStateResp   command = 0x83
)

// IncomingCall and MissedCall both carry a caller's number and name.
type CallerInfo struct {
	Number string
	Name   string
}

func (c *CallerInfo) Fields() []codec.Field {
	return []codec.Field{codec.PascalString(&c.Number, false), codec.PascalString(&c.Name, false)}
}

// PhoneNotification is the endpoint 0x0021 envelope: a command id, a
// cookie correlating a call's lifecycle events, and a command-tagged
// payload. Only IncomingCall/MissedCall carry fields; the rest (answer,
// hang up, state request, outgoing, ring, start, end) are commands with
// no payload.
type PhoneNotification struct {
	Command command
	Cookie  uint32
	Caller  CallerInfo
}

func newWithCommand(cmd command, cookie uint32) *PhoneNotification {
	return &PhoneNotification{Command: cmd, Cookie: cookie}
}

func NewAnswerCall(cookie uint32) *PhoneNotification    { return newWithCommand(cmdAnswerCall, cookie) }
func NewHangUpCall(cookie uint32) *PhoneNotification    { return newWithCommand(cmdHangUpCall, cookie) }
func NewPhoneStateRequest(cookie uint32) *PhoneNotification { return newWithCommand(cmdPhoneStateReq, cookie) }
func NewOutgoingCall(cookie uint32) *PhoneNotification  { return newWithCommand(cmdOutgoingCall, cookie) }
func NewRing(cookie uint32) *PhoneNotification          { return newWithCommand(cmdRing, cookie) }
func NewCallStart(cookie uint32) *PhoneNotification     { return newWithCommand(cmdCallStart, cookie) }
func NewCallEnd(cookie uint32) *PhoneNotification       { return newWithCommand(cmdCallEnd, cookie) }

func NewIncomingCall(cookie uint32, number, name string) *PhoneNotification {
	return &PhoneNotification{Command: cmdIncomingCall, Cookie: cookie, Caller: CallerInfo{Number: number, Name: name}}
}

func NewMissedCall(cookie uint32, number, name string) *PhoneNotification {
	return &PhoneNotification{Command: cmdMissedCall, Cookie: cookie, Caller: CallerInfo{Number: number, Name: name}}
}

func (p *PhoneNotification) IsIncomingCall() bool { return p.Command == cmdIncomingCall }
func (p *PhoneNotification) IsMissedCall() bool   { return p.Command == cmdMissedCall }
func (p *PhoneNotification) IsOutgoingCall() bool { return p.Command == cmdOutgoingCall }
func (p *PhoneNotification) IsRing() bool         { return p.Command == cmdRing }
func (p *PhoneNotification) IsCallStart() bool    { return p.Command == cmdCallStart }
func (p *PhoneNotification) IsCallEnd() bool      { return p.Command == cmdCallEnd }

func (p *PhoneNotification) Fields() []codec.Field {
	cmdByte := codec.Uint8Ref((*uint8)(&p.Command))
	return []codec.Field{
		codec.Uint8((*uint8)(&p.Command)),
		codec.Uint32(&p.Cookie),
		codec.Union(cmdByte,
			codec.UnionVariant{Tag: uint64(cmdAnswerCall), Active: func() bool { return p.Command == cmdAnswerCall }, Field: codec.Embed(codec.EmptyMessage{})},
			codec.UnionVariant{Tag: uint64(cmdHangUpCall), Active: func() bool { return p.Command == cmdHangUpCall }, Field: codec.Embed(codec.EmptyMessage{})},
			codec.UnionVariant{Tag: uint64(cmdPhoneStateReq), Active: func() bool { return p.Command == cmdPhoneStateReq }, Field: codec.Embed(codec.EmptyMessage{})},
			codec.UnionVariant{Tag: uint64(cmdIncomingCall), Active: p.IsIncomingCall, Field: codec.Embed(&p.Caller)},
			codec.UnionVariant{Tag: uint64(cmdOutgoingCall), Active: p.IsOutgoingCall, Field: codec.Embed(codec.EmptyMessage{})},
			codec.UnionVariant{Tag: uint64(cmdMissedCall), Active: p.IsMissedCall, Field: codec.Embed(&p.Caller)},
			codec.UnionVariant{Tag: uint64(cmdRing), Active: p.IsRing, Field: codec.Embed(codec.EmptyMessage{})},
			codec.UnionVariant{Tag: uint64(cmdCallStart), Active: p.IsCallStart, Field: codec.Embed(codec.EmptyMessage{})},
			codec.UnionVariant{Tag: uint64(cmdCallEnd), Active: p.IsCallEnd, Field: codec.Embed(codec.EmptyMessage{})},
		),
	}
}

func (p *PhoneNotification) Meta() packet.Meta {
	return packet.Meta{Endianness: codec.BigEndian, HasEndpoint: true, Endpoint: EndpointPhoneNotification, Register: true}
}

func init() {
	packet.Global.Register(EndpointPhoneNotification, func() packet.Descriptor { return &PhoneNotification{} })
}
