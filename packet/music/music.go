// Package music implements the music-control endpoint (0x0020):
// little-endian, 12 sub-commands (0x01-0x08 and 0x10-0x13) multiplexed
// through one command-tagged union, from the bare playback controls
// (play/pause/next/...) through the richer now-playing metadata pushes the
// phone sends the watch. Any other command byte is not decoded.
package music

import (
	"github.com/pebblekit/pebble2/codec"
	"github.com/pebblekit/pebble2/packet"
)

const EndpointMusicControl uint16 = 0x20

type command uint8

const (
	cmdPlayPause          command = 0x01
	cmdPause              command = 0x02
	cmdPlay               command = 0x03
	cmdNextTrack          command = 0x04
	cmdPreviousTrack      command = 0x05
	cmdVolumeUp           command = 0x06
	cmdVolumeDown         command = 0x07
	cmdGetCurrentTrack    command = 0x08
	cmdUpdateCurrentTrack command = 0x10
	cmdUpdatePlayState    command = 0x11
	cmdUpdateVolume       command = 0x12
	cmdUpdatePlayerInfo   command = 0x13
)

// CurrentTrack is the phone's now-playing metadata push; TrackLength,
// TrackCount and CurrentTrackIdx are all optional trailing fields, absent
// on watches/firmware that don't send them.
type CurrentTrack struct {
	Artist          string
	Album           string
	Title           string
	TrackLength     uint32
	HasTrackLength  bool
	TrackCount      uint16
	HasTrackCount   bool
	CurrentTrackIdx uint16
	HasCurrentTrack bool
}

func (t *CurrentTrack) Fields() []codec.Field {
	return []codec.Field{
		codec.PascalString(&t.Artist, false),
		codec.PascalString(&t.Album, false),
		codec.PascalString(&t.Title, false),
		codec.Optional(codec.Uint32(&t.TrackLength), &t.HasTrackLength),
		codec.Optional(codec.Uint16(&t.TrackCount), &t.HasTrackCount),
		codec.Optional(codec.Uint16(&t.CurrentTrackIdx), &t.HasCurrentTrack),
	}
}

type PlayState struct {
	State         uint8
	TrackPosition uint32
	PlayRate      uint32
	Shuffle       uint8
	Repeat        uint8
}

func (p *PlayState) Fields() []codec.Field {
	return []codec.Field{
		codec.Uint8(&p.State), codec.Uint32(&p.TrackPosition), codec.Uint32(&p.PlayRate),
		codec.Uint8(&p.Shuffle), codec.Uint8(&p.Repeat),
	}
}

type Volume struct{ Percent uint8 }

func (v *Volume) Fields() []codec.Field { return []codec.Field{codec.Uint8(&v.Percent)} }

type PlayerInfo struct{ Package, Name string }

func (p *PlayerInfo) Fields() []codec.Field {
	return []codec.Field{codec.PascalString(&p.Package, false), codec.PascalString(&p.Name, false)}
}

// MusicControl is the endpoint 0x0020 envelope. The bare playback
// commands carry no payload; UpdateCurrentTrack/UpdatePlayState/
// UpdateVolume/UpdatePlayerInfo carry the structs above.
type MusicControl struct {
	Command      uint8
	Track        CurrentTrack
	PlayState    PlayState
	Volume       Volume
	PlayerInfo   PlayerInfo
}

func bare(cmd command) *MusicControl { return &MusicControl{Command: uint8(cmd)} }

func NewPlayPause() *MusicControl       { return bare(cmdPlayPause) }
func NewPause() *MusicControl           { return bare(cmdPause) }
func NewPlay() *MusicControl            { return bare(cmdPlay) }
func NewNextTrack() *MusicControl       { return bare(cmdNextTrack) }
func NewPreviousTrack() *MusicControl   { return bare(cmdPreviousTrack) }
func NewVolumeUp() *MusicControl        { return bare(cmdVolumeUp) }
func NewVolumeDown() *MusicControl      { return bare(cmdVolumeDown) }
func NewGetCurrentTrack() *MusicControl { return bare(cmdGetCurrentTrack) }

func NewUpdateCurrentTrack(t CurrentTrack) *MusicControl {
	return &MusicControl{Command: uint8(cmdUpdateCurrentTrack), Track: t}
}
func NewUpdatePlayState(s PlayState) *MusicControl {
	return &MusicControl{Command: uint8(cmdUpdatePlayState), PlayState: s}
}
func NewUpdateVolume(percent uint8) *MusicControl {
	return &MusicControl{Command: uint8(cmdUpdateVolume), Volume: Volume{Percent: percent}}
}
func NewUpdatePlayerInfo(pkg, name string) *MusicControl {
	return &MusicControl{Command: uint8(cmdUpdatePlayerInfo), PlayerInfo: PlayerInfo{Package: pkg, Name: name}}
}

func (m *MusicControl) is(c command) func() bool {
	return func() bool { return command(m.Command) == c }
}

func (m *MusicControl) Fields() []codec.Field {
	return []codec.Field{
		codec.Uint8(&m.Command),
		codec.Union(codec.Uint8Ref(&m.Command),
			codec.UnionVariant{Tag: uint64(cmdPlayPause), Active: m.is(cmdPlayPause), Field: codec.Embed(codec.EmptyMessage{})},
			codec.UnionVariant{Tag: uint64(cmdPause), Active: m.is(cmdPause), Field: codec.Embed(codec.EmptyMessage{})},
			codec.UnionVariant{Tag: uint64(cmdPlay), Active: m.is(cmdPlay), Field: codec.Embed(codec.EmptyMessage{})},
			codec.UnionVariant{Tag: uint64(cmdNextTrack), Active: m.is(cmdNextTrack), Field: codec.Embed(codec.EmptyMessage{})},
			codec.UnionVariant{Tag: uint64(cmdPreviousTrack), Active: m.is(cmdPreviousTrack), Field: codec.Embed(codec.EmptyMessage{})},
			codec.UnionVariant{Tag: uint64(cmdVolumeUp), Active: m.is(cmdVolumeUp), Field: codec.Embed(codec.EmptyMessage{})},
			codec.UnionVariant{Tag: uint64(cmdVolumeDown), Active: m.is(cmdVolumeDown), Field: codec.Embed(codec.EmptyMessage{})},
			codec.UnionVariant{Tag: uint64(cmdGetCurrentTrack), Active: m.is(cmdGetCurrentTrack), Field: codec.Embed(codec.EmptyMessage{})},
			codec.UnionVariant{Tag: uint64(cmdUpdateCurrentTrack), Active: m.is(cmdUpdateCurrentTrack), Field: codec.Embed(&m.Track)},
			codec.UnionVariant{Tag: uint64(cmdUpdatePlayState), Active: m.is(cmdUpdatePlayState), Field: codec.Embed(&m.PlayState)},
			codec.UnionVariant{Tag: uint64(cmdUpdateVolume), Active: m.is(cmdUpdateVolume), Field: codec.Embed(&m.Volume)},
			codec.UnionVariant{Tag: uint64(cmdUpdatePlayerInfo), Active: m.is(cmdUpdatePlayerInfo), Field: codec.Embed(&m.PlayerInfo)},
		),
	}
}

func (m *MusicControl) Meta() packet.Meta {
	return packet.Meta{Endianness: codec.LittleEndian, HasEndpoint: true, Endpoint: EndpointMusicControl, Register: true}
}

func init() {
	packet.Global.Register(EndpointMusicControl, func() packet.Descriptor { return &MusicControl{} })
}
