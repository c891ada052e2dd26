// Package appinstall implements the app run-state endpoint (0x0034) and
// the app-fetch endpoint (0x1771, per original_source/libpebble2's
// protocol/apps.py — spec.md's listing of 0x1771 gives both "reset" and
// "app fetch", which original_source resolves unambiguously as app
// fetch), plus the BlobDB app-metadata record shape services/appinstall
// writes before launching a modern (3.x+) app install.
package appinstall

import (
	"github.com/google/uuid"

	"github.com/pebblekit/pebble2/codec"
	"github.com/pebblekit/pebble2/packet"
)

const (
	EndpointAppRunState uint16 = 0x34
	EndpointAppFetch    uint16 = 0x1771
)

type runCommand uint8

const (
	runStart   runCommand = 0x01
	runStop    runCommand = 0x02
	runRequest runCommand = 0x03
)

// AppRunState is the 0x0034 envelope driving the watch's foreground app:
// Start/Stop carry the target app's UUID, Request carries nothing.
type AppRunState struct {
	Command runCommand
	UUID    uuid.UUID
}

func NewAppRunStateStart(appUUID uuid.UUID) *AppRunState {
	return &AppRunState{Command: runStart, UUID: appUUID}
}

func NewAppRunStateStop(appUUID uuid.UUID) *AppRunState {
	return &AppRunState{Command: runStop, UUID: appUUID}
}

func NewAppRunStateRequest() *AppRunState { return &AppRunState{Command: runRequest} }

type uuidOnly struct{ uuid *uuid.UUID }

func (u uuidOnly) Fields() []codec.Field { return []codec.Field{codec.UUID(u.uuid)} }

func (s *AppRunState) Fields() []codec.Field {
	cmdByte := codec.Uint8Ref((*uint8)(&s.Command))
	return []codec.Field{
		codec.Uint8((*uint8)(&s.Command)),
		codec.Union(cmdByte,
			codec.UnionVariant{Tag: uint64(runStart), Active: func() bool { return s.Command == runStart }, Field: codec.Embed(uuidOnly{&s.UUID})},
			codec.UnionVariant{Tag: uint64(runStop), Active: func() bool { return s.Command == runStop }, Field: codec.Embed(uuidOnly{&s.UUID})},
			codec.UnionVariant{Tag: uint64(runRequest), Active: func() bool { return s.Command == runRequest }, Field: codec.Embed(codec.EmptyMessage{})},
		),
	}
}

func (s *AppRunState) Meta() packet.Meta {
	return packet.Meta{Endianness: codec.LittleEndian, HasEndpoint: true, Endpoint: EndpointAppRunState, Register: true}
}

// FetchRequest is the watch asking the phone to push a specific app's
// binary over PutBytes; AppID is the app-install id PutBytes.Upload's
// app-install variant must echo back.
type FetchRequest struct {
	Command uint8
	UUID    uuid.UUID
	AppID   int32
}

func (r *FetchRequest) Fields() []codec.Field {
	return []codec.Field{codec.Uint8(&r.Command), codec.UUID(&r.UUID), codec.Int32(&r.AppID)}
}
func (r *FetchRequest) Meta() packet.Meta {
	return packet.Meta{Endianness: codec.LittleEndian, HasEndpoint: true, Endpoint: EndpointAppFetch, Register: true}
}

type FetchStatus uint8

const (
	FetchStart       FetchStatus = 0x01
	FetchBusy        FetchStatus = 0x02
	FetchInvalidUUID FetchStatus = 0x03
	FetchNoData      FetchStatus = 0x04
)

// FetchResponse answers a FetchRequest; it's a distinct, unregistered type
// sharing FetchRequest's endpoint id, exactly like voice.VoiceControlResult
// shares its request's endpoint.
type FetchResponse struct {
	Command  uint8
	Response uint8
}

func NewFetchResponse(status FetchStatus) *FetchResponse {
	return &FetchResponse{Command: 0x01, Response: uint8(status)}
}

func (r *FetchResponse) Fields() []codec.Field {
	return []codec.Field{codec.Uint8(&r.Command), codec.Uint8(&r.Response)}
}
func (r *FetchResponse) Meta() packet.Meta {
	return packet.Meta{Endianness: codec.LittleEndian, HasEndpoint: true, Endpoint: EndpointAppFetch, Register: false}
}

// Metadata is the BlobDB record services/appinstall writes to the App
// database before starting a modern app: a much-trimmed projection of the
// reference's full AppMetadata (icon/version/name), enough for the watch
// to accept the record and proceed to AppFetchRequest.
type Metadata struct {
	UUID            uuid.UUID
	Flags           uint32
	Icon            uint32
	AppVersionMajor uint8
	AppVersionMinor uint8
	SDKVersionMajor uint8
	SDKVersionMinor uint8
	AppName         string
}

func (m *Metadata) Fields() []codec.Field {
	return []codec.Field{
		codec.UUID(&m.UUID), codec.Uint32(&m.Flags), codec.Uint32(&m.Icon),
		codec.Uint8(&m.AppVersionMajor), codec.Uint8(&m.AppVersionMinor),
		codec.Uint8(&m.SDKVersionMajor), codec.Uint8(&m.SDKVersionMinor),
		codec.FixedString(&m.AppName, 96),
	}
}

func init() {
	packet.Global.Register(EndpointAppRunState, func() packet.Descriptor { return &AppRunState{} })
	packet.Global.Register(EndpointAppFetch, func() packet.Descriptor { return &FetchRequest{} })
}
