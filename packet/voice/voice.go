// Package voice implements the voice-control endpoint (0x2af8):
// little-endian, a SessionSetup command the phone sends to start a
// dictation/command session, and a result variant (shipped under the
// same endpoint id but never registered for dispatch, since it shares the
// number with the request — the "register" flag is what disambiguates
// them) reporting session setup and dictation outcomes.
package voice

import (
	"github.com/pebblekit/pebble2/codec"
	"github.com/pebblekit/pebble2/packet"
)

const EndpointVoiceControl uint16 = 0x2af8

type SessionType uint8

const (
	SessionDictation SessionType = 0x01
	SessionCommand   SessionType = 0x02
)

type Result uint8

const (
	ResultSuccess                      Result = 0x00
	ResultFailServiceUnavailable       Result = 0x01
	ResultFailTimeout                  Result = 0x02
	ResultFailRecognizerError          Result = 0x03
	ResultFailInvalidRecognizerResponse Result = 0x04
	ResultFailDisabled                 Result = 0x05
	ResultFailInvalidMessage           Result = 0x06
)

// SessionSetupCommand starts a new voice session of the given type.
type SessionSetupCommand struct {
	SessionType uint8
	SessionID   uint16
}

func (c *SessionSetupCommand) Fields() []codec.Field {
	return []codec.Field{codec.Uint8(&c.SessionType), codec.Uint16(&c.SessionID)}
}

type command uint8

const commandSessionSetup command = 0x01

// VoiceControlCommand is the request-direction envelope: only
// SessionSetup is modeled as an outbound command.
type VoiceControlCommand struct {
	Command uint8
	Flags   uint32
	Setup   SessionSetupCommand
}

func NewSessionSetup(sessionType SessionType, sessionID uint16, appInitiated bool) *VoiceControlCommand {
	var flags uint32
	if appInitiated {
		flags = 1
	}
	return &VoiceControlCommand{
		Command: uint8(commandSessionSetup),
		Flags:   flags,
		Setup:   SessionSetupCommand{SessionType: uint8(sessionType), SessionID: sessionID},
	}
}

func (c *VoiceControlCommand) Fields() []codec.Field {
	return []codec.Field{
		codec.Uint8(&c.Command),
		codec.Uint32(&c.Flags),
		codec.Union(codec.Uint8Ref(&c.Command),
			codec.UnionVariant{Tag: uint64(commandSessionSetup), Active: func() bool { return true }, Field: codec.Embed(&c.Setup)},
		),
	}
}

func (c *VoiceControlCommand) Meta() packet.Meta {
	return packet.Meta{Endianness: codec.LittleEndian, HasEndpoint: true, Endpoint: EndpointVoiceControl, Register: true}
}

// SessionSetupResult reports whether the requested session was accepted.
type SessionSetupResult struct {
	SessionType uint8
	Result      uint8
}

func (r *SessionSetupResult) Fields() []codec.Field {
	return []codec.Field{codec.Uint8(&r.SessionType), codec.Uint8(&r.Result)}
}

// DictationResult reports a completed dictation; Attributes is left
// unparsed here (a raw byte capture) since the transcription attribute
// list's internal layout (FixedList of Sentence/Word) is consumed by the
// caller once it knows the session's codec, not by the envelope itself.
type DictationResult struct {
	SessionID  uint16
	Result     uint8
	Attributes []byte
}

func (d *DictationResult) Fields() []codec.Field {
	return []codec.Field{
		codec.Uint16(&d.SessionID), codec.Uint8(&d.Result),
		codec.BinaryArrayRestOfBuffer(&d.Attributes),
	}
}

const (
	resultCommandSessionSetup  command = 0x01
	resultCommandDictationResult command = 0x02
)

// VoiceControlResult is the response-direction envelope for the same
// endpoint id; it's a distinct Go type (not registered) so the connection
// core's registry, keyed purely by endpoint id, doesn't have to choose
// between two shapes for one number — callers that expect a result parse
// it directly via packet.Parse instead of going through dispatch.
type VoiceControlResult struct {
	Command uint8
	Flags   uint32
	Setup   SessionSetupResult
	Dict    DictationResult
}

func (r *VoiceControlResult) IsSessionSetup() bool { return command(r.Command) == resultCommandSessionSetup }
func (r *VoiceControlResult) IsDictation() bool    { return command(r.Command) == resultCommandDictationResult }

func (r *VoiceControlResult) Fields() []codec.Field {
	return []codec.Field{
		codec.Uint8(&r.Command),
		codec.Uint32(&r.Flags),
		codec.Union(codec.Uint8Ref(&r.Command),
			codec.UnionVariant{Tag: uint64(resultCommandSessionSetup), Active: r.IsSessionSetup, Field: codec.Embed(&r.Setup)},
			codec.UnionVariant{Tag: uint64(resultCommandDictationResult), Active: r.IsDictation, Field: codec.Embed(&r.Dict)},
		),
	}
}

func (r *VoiceControlResult) Meta() packet.Meta {
	return packet.Meta{Endianness: codec.LittleEndian, HasEndpoint: true, Endpoint: EndpointVoiceControl, Register: false}
}

func init() {
	packet.Global.Register(EndpointVoiceControl, func() packet.Descriptor { return &VoiceControlCommand{} })
}
