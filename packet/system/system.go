// Package system implements the watch/phone handshake and time-sync
// packets: PhoneAppVersion/PhoneAppVersionResponse (the must_initialize
// handshake), WatchVersion request/response, and the Time message's SetUTC
// variant.
package system

import (
	"github.com/pebblekit/pebble2/codec"
	"github.com/pebblekit/pebble2/packet"
)

const (
	EndpointTime         uint16 = 11
	EndpointWatchVersion uint16 = 16
	EndpointPhoneVersion uint16 = 17
)

func init() {
	packet.Global.Register(EndpointTime, func() packet.Descriptor { return &TimeSetUTC{} })
	packet.Global.Register(EndpointWatchVersion, func() packet.Descriptor { return &WatchVersionResponse{} })
	packet.Global.Register(EndpointPhoneVersion, func() packet.Descriptor { return &PhoneAppVersion{} })
}

// TimeSetUTC sets the watch's clock: command byte 3 (the SetUTC variant of
// the Time message's kind union), then a u32 unix timestamp, an i16 UTC
// offset in minutes, and a pascal-encoded timezone name.
type TimeSetUTC struct {
	Command   uint8
	UnixTime  uint32
	UTCOffset int16
	TZName    string
}

func NewTimeSetUTC(unixTime uint32, utcOffsetMinutes int16, tzName string) *TimeSetUTC {
	return &TimeSetUTC{Command: 3, UnixTime: unixTime, UTCOffset: utcOffsetMinutes, TZName: tzName}
}

func (p *TimeSetUTC) Fields() []codec.Field {
	return []codec.Field{
		codec.Uint8(&p.Command),
		codec.Uint32(&p.UnixTime),
		codec.Int16(&p.UTCOffset),
		codec.PascalString(&p.TZName, false),
	}
}

func (p *TimeSetUTC) Meta() packet.Meta {
	return packet.Meta{Endianness: codec.BigEndian, HasEndpoint: true, Endpoint: EndpointTime, Register: true}
}

// WatchVersionRequest has no payload; sending it prompts a
// WatchVersionResponse.
type WatchVersionRequest struct{}

func (p *WatchVersionRequest) Fields() []codec.Field { return nil }
func (p *WatchVersionRequest) Meta() packet.Meta {
	return packet.Meta{Endianness: codec.BigEndian, HasEndpoint: true, Endpoint: EndpointWatchVersion, Register: false}
}

// WatchVersionResponse reports the watch's running firmware and hardware
// platform.
type WatchVersionResponse struct {
	Running     uint8
	Version     string
	HardwarePlatform uint8
}

func (p *WatchVersionResponse) Fields() []codec.Field {
	return []codec.Field{
		codec.Uint8(&p.Running),
		codec.FixedString(&p.Version, 32),
		codec.Uint8(&p.HardwarePlatform),
	}
}

func (p *WatchVersionResponse) Meta() packet.Meta {
	return packet.Meta{Endianness: codec.BigEndian, HasEndpoint: true, Endpoint: EndpointWatchVersion, Register: true}
}

// appVersionRequest is the empty watch -> phone variant (kind 0x00): the
// watch sends this to ask the phone to identify itself.
type appVersionRequest struct{}

func (appVersionRequest) Fields() []codec.Field { return nil }

// AppVersionResponse is the phone's version/capability report, sent back
// to the watch under kind 0x01 in reply to an AppVersionRequest.
type AppVersionResponse struct {
	ProtocolVersion uint32 // unused as of firmware v3.0
	SessionCaps     uint32 // unused as of firmware v3.0
	PlatformFlags   uint32
	ResponseVersion uint8
	MajorVersion    uint8
	MinorVersion    uint8
	BugfixVersion   uint8
	ProtocolCaps    uint64
}

func (r *AppVersionResponse) Fields() []codec.Field {
	return []codec.Field{
		codec.Uint32(&r.ProtocolVersion),
		codec.Uint32(&r.SessionCaps),
		codec.Uint32(&r.PlatformFlags),
		codec.Uint8(&r.ResponseVersion),
		codec.Uint8(&r.MajorVersion),
		codec.Uint8(&r.MinorVersion),
		codec.Uint8(&r.BugfixVersion),
		codec.Uint64(&r.ProtocolCaps),
	}
}

const (
	kindAppVersionRequest  uint8 = 0x00
	kindAppVersionResponse uint8 = 0x01
)

// PhoneAppVersion is the inbound side of the handshake: the empty request
// the watch sends asking the phone to identify itself. Kind is decoded via
// an embedded union that only declares the request variant; any other
// kind (including the phone's own 0x01 response, which this side only
// ever sends, never receives) is tolerated as an unrecognized tag and its
// remaining bytes are captured raw rather than rejected outright.
type PhoneAppVersion struct {
	Kind     uint8
	request  appVersionRequest
	Unparsed []byte
}

func (p *PhoneAppVersion) Fields() []codec.Field {
	return []codec.Field{
		codec.Uint8(&p.Kind),
		codec.UnionAcceptMissing(codec.Uint8Ref(&p.Kind), nil, &p.Unparsed,
			codec.UnionVariant{Tag: uint64(kindAppVersionRequest), Active: func() bool { return true }, Field: codec.Embed(p.request)},
		),
	}
}

func (p *PhoneAppVersion) Meta() packet.Meta {
	return packet.Meta{Endianness: codec.BigEndian, HasEndpoint: true, Endpoint: EndpointPhoneVersion, Register: true}
}

// PhoneAppVersionResponse is the outbound side of the handshake: the
// phone's reply, kind fixed at 0x01 followed by its version/capability
// report. It isn't registered for decode — this library only ever sends
// one, it never receives one back over the same endpoint.
type PhoneAppVersionResponse struct {
	Kind     uint8
	Response AppVersionResponse
}

// DefaultPhoneAppVersion builds the handshake reply the connection core
// auto-sends when a transport that reports MustInitialize() true delivers
// the watch's PhoneAppVersion request, so callers don't need to build one
// by hand just to unblock the link.
func DefaultPhoneAppVersion() *PhoneAppVersionResponse {
	return &PhoneAppVersionResponse{
		Kind: kindAppVersionResponse,
		Response: AppVersionResponse{
			ResponseVersion: 2,
			MajorVersion:    4,
			MinorVersion:    0,
			BugfixVersion:   0,
			ProtocolCaps:    0xFFFFFFFF,
		},
	}
}

func (p *PhoneAppVersionResponse) Fields() []codec.Field {
	return []codec.Field{
		codec.Uint8(&p.Kind),
		codec.Embed(&p.Response),
	}
}

func (p *PhoneAppVersionResponse) Meta() packet.Meta {
	return packet.Meta{Endianness: codec.BigEndian, HasEndpoint: true, Endpoint: EndpointPhoneVersion, Register: false}
}
