// Package settingsfile encodes and decodes the watch's settings-file
// format: an 8-byte header followed by bitfield-packed records, each
// keyed and CRC8-hashed, terminated by a run of 0xFF bytes. It is a pure
// codec with no connection dependency — callers read/write the bytes
// however they obtain them.
package settingsfile

import (
	"bytes"

	"github.com/pebblekit/pebble2/codec"
	"github.com/pebblekit/pebble2/crc"
)

const (
	magic   uint32 = 0x746573
	version uint16 = 1
	flags   uint16 = 0xFFFF
)

// Record is one key/value entry. Overwritten records (flagged as such on
// the wire) and partially-written trailing records are filtered out by
// Load rather than surfaced to the caller.
type Record struct {
	RecordFlags  uint8
	LastModified uint32
	Key          []byte
	Value        []byte
}

type header struct {
	Magic   uint32
	Version uint16
	Flags   uint16
}

func (h *header) Fields() []codec.Field {
	return []codec.Field{codec.Uint32(&h.Magic), codec.Uint16(&h.Version), codec.Uint16(&h.Flags)}
}

type recordWire struct {
	flags        uint8
	keyLen       uint8
	valLen       uint16
	lastModified uint32
	keyCRC       uint8
	key          []byte
	value        []byte
}

func (r *recordWire) Fields() []codec.Field {
	return []codec.Field{
		codec.Bitfield(32,
			codec.BitUint8(6, &r.flags),
			codec.BitUint8(7, &r.keyLen),
			codec.BitUint16(11, &r.valLen),
			codec.BitUint8(8, new(uint8)), // 8 unused high bits pad the word to 32
		),
		codec.Uint32(&r.lastModified),
		codec.Uint8(&r.keyCRC),
		codec.BinaryArrayWithLength(&r.key, codec.Uint8Ref(&r.keyLen)),
		codec.BinaryArrayWithLength(&r.value, codec.Uint16Ref(&r.valLen)),
	}
}

const overwrittenFlag uint8 = 1 << 0

// Load parses a settings file, skipping overwritten records and stopping
// at the first 0xFF-fill terminator (or end of buffer).
func Load(data []byte) ([]Record, error) {
	h := &header{}
	r := codec.NewReader(data)
	for _, f := range h.Fields() {
		if err := f.Decode(r, codec.BigEndian); err != nil {
			return nil, codec.NewDecodeError("settingsfile", "header: %v", err)
		}
	}
	if h.Magic != magic {
		return nil, codec.NewDecodeError("settingsfile", "bad magic %#x", h.Magic)
	}

	var out []Record
	for !r.AtEnd() {
		if isFill(r.Buf[r.Off:]) {
			break
		}
		rw := &recordWire{}
		start := r.Off
		ok := true
		for _, f := range rw.Fields() {
			if err := f.Decode(r, codec.BigEndian); err != nil {
				ok = false
				break
			}
		}
		if !ok {
			r.Off = start
			break
		}
		if rw.flags&overwrittenFlag != 0 {
			continue
		}
		out = append(out, Record{
			RecordFlags:  rw.flags,
			LastModified: rw.lastModified,
			Key:          rw.key,
			Value:        rw.value,
		})
	}
	return out, nil
}

func isFill(b []byte) bool {
	if len(b) == 0 {
		return true
	}
	for _, c := range b {
		if c != 0xFF {
			return false
		}
	}
	return true
}

// Dumps serialises records into a settings file, each keyed by its CRC8
// hash as computed over the record's key bytes.
func Dumps(records []Record) ([]byte, error) {
	var out bytes.Buffer
	h := &header{Magic: magic, Version: version, Flags: flags}
	for _, f := range h.Fields() {
		if err := f.Encode(&out, codec.BigEndian); err != nil {
			return nil, err
		}
	}

	for _, rec := range records {
		rw := &recordWire{
			flags:        rec.RecordFlags,
			lastModified: rec.LastModified,
			key:          rec.Key,
			value:        rec.Value,
			keyCRC:       crc.Crc8(rec.Key),
		}
		fields := rw.Fields()
		for _, f := range fields {
			if err := f.Prepare(); err != nil {
				return nil, err
			}
		}
		for _, f := range fields {
			if err := f.Encode(&out, codec.BigEndian); err != nil {
				return nil, err
			}
		}
	}
	return out.Bytes(), nil
}
