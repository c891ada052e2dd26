// Package screenshot implements the screenshot endpoint (0x0bb8): a
// one-byte request, command 0x00 (unregistered — the watch never sends one back to
// the phone) and a response carrying the raw, possibly multi-chunk image
// stream. The header describing width/height/version/response-code is
// itself just the first bytes of that stream; see services/screenshot for
// the reassembly and pixel-decoding logic that makes sense of it.
package screenshot

import (
	"github.com/pebblekit/pebble2/codec"
	"github.com/pebblekit/pebble2/packet"
)

const EndpointScreenshot uint16 = 0x0bb8

// Request asks the watch to begin streaming a screenshot.
type Request struct {
	command uint8
}

func NewRequest() *Request { return &Request{command: 0x00} }

func (r *Request) Fields() []codec.Field { return []codec.Field{codec.Uint8(&r.command)} }
func (r *Request) Meta() packet.Meta {
	return packet.Meta{Endianness: codec.BigEndian, HasEndpoint: true, Endpoint: EndpointScreenshot, Register: false}
}

// ResponseCode is the first byte of a screenshot stream's header chunk.
type ResponseCode uint8

const (
	ResponseOK                ResponseCode = 0
	ResponseMalformedCommand  ResponseCode = 1
	ResponseOutOfMemory       ResponseCode = 2
	ResponseAlreadyInProgress ResponseCode = 3
)

// Response is one raw chunk of the screenshot stream: the watch doesn't
// frame individual chunks itself, so every inbound payload for this
// endpoint is just "more bytes to append" until the caller has collected
// as much as the header promised.
type Response struct {
	Data []byte
}

func (r *Response) Fields() []codec.Field {
	return []codec.Field{codec.BinaryArrayRestOfBuffer(&r.Data)}
}

func (r *Response) Meta() packet.Meta {
	return packet.Meta{Endianness: codec.BigEndian, HasEndpoint: true, Endpoint: EndpointScreenshot, Register: true}
}

// Header is the fixed-size prefix of the first Response chunk's Data.
type Header struct {
	ResponseCode uint8
	Version      uint32
	Width        uint32
	Height       uint32
}

func (h *Header) Fields() []codec.Field {
	return []codec.Field{
		codec.Uint8(&h.ResponseCode), codec.Uint32(&h.Version), codec.Uint32(&h.Width), codec.Uint32(&h.Height),
	}
}

func init() {
	packet.Global.Register(EndpointScreenshot, func() packet.Descriptor { return &Response{} })
}
