// Package packet composes codec.Field schemas into whole Pebble Protocol
// packets: the two-pass prepare/emit serialise step, the parse step with
// its IncompleteMessage short-buffer signal, and the endpoint framing
// prefix used by the connection core and every transport.
package packet

import (
	"bytes"
	"encoding/binary"

	"github.com/pebblekit/pebble2/codec"
)

// Meta carries the per-packet-type metadata the schema declares alongside
// its fields: the endianness fields fall back to absent an override, the
// endpoint it's registered under (if any), and whether decoding this type
// should be exposed through the global registry at all.
type Meta struct {
	Endianness   codec.Endianness
	HasEndpoint  bool
	Endpoint     uint16
	Register     bool
}

// Descriptor is a Message that also declares packet-level metadata.
// Embedded sub-packets and union variants implement only codec.Message;
// top-level wire packets implement Descriptor too.
type Descriptor interface {
	codec.Message
	Meta() Meta
}

// Serialise runs the prepare pass (dependent-field fixups, in declaration
// order) then the emit pass, producing the packet's payload bytes with no
// framing prefix.
func Serialise(msg codec.Message, def codec.Endianness) ([]byte, error) {
	end := def
	if d, ok := msg.(Descriptor); ok {
		end = d.Meta().Endianness
	}
	fields := msg.Fields()
	for _, f := range fields {
		if err := f.Prepare(); err != nil {
			return nil, err
		}
	}
	var buf bytes.Buffer
	for _, f := range fields {
		if err := f.Encode(&buf, end); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// SerialisePacket wraps Serialise's payload with the framing prefix
// (u16 length || u16 endpoint) the connection core and transports expect.
// msg must be a Descriptor with a declared endpoint.
func SerialisePacket(msg Descriptor, def codec.Endianness) ([]byte, error) {
	payload, err := Serialise(msg, def)
	if err != nil {
		return nil, err
	}
	if !msg.Meta().HasEndpoint {
		return nil, codec.NewEncodeError("packet", "type has no declared endpoint")
	}
	out := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint16(out[0:2], uint16(len(payload)))
	binary.BigEndian.PutUint16(out[2:4], msg.Meta().Endpoint)
	copy(out[4:], payload)
	return out, nil
}

// Parse decodes msg's fields from data (no framing prefix) and returns how
// many bytes were consumed.
func Parse(msg codec.Message, data []byte, def codec.Endianness) (int, error) {
	end := def
	if d, ok := msg.(Descriptor); ok {
		end = d.Meta().Endianness
	}
	r := codec.NewReader(data)
	for _, f := range msg.Fields() {
		if err := f.Decode(r, end); err != nil {
			return 0, err
		}
	}
	return r.Off, nil
}

// ParseMessage reads the u16-length-prefixed framing header from data and
// returns the endpoint id plus the payload slice, without decoding the
// payload into any particular packet type — that's ParseMessage's caller's
// job, once it has looked the endpoint up in the registry. Returns
// codec.ErrIncompleteMessage if data is shorter than the declared length.
func ParseMessage(data []byte) (endpoint uint16, payload []byte, consumed int, err error) {
	if len(data) < 4 {
		return 0, nil, 0, codec.ErrIncompleteMessage
	}
	length := binary.BigEndian.Uint16(data[0:2])
	endpoint = binary.BigEndian.Uint16(data[2:4])
	total := 4 + int(length)
	if len(data) < total {
		return 0, nil, 0, codec.ErrIncompleteMessage
	}
	return endpoint, data[4:total], total, nil
}
