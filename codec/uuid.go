package codec

import (
	"bytes"

	"github.com/google/uuid"
)

// uuidField encodes a raw 16-byte UUID. Byte order within the 16 bytes is
// not affected by packet endianness: UUIDs are an opaque byte string on
// the wire, per libpebble2's UUID field.
type uuidField struct {
	ptr *uuid.UUID
}

func UUID(ptr *uuid.UUID) Field { return &uuidField{ptr: ptr} }

func (f *uuidField) Prepare() error { return nil }

func (f *uuidField) Encode(buf *bytes.Buffer, _ Endianness) error {
	b := *f.ptr
	buf.Write(b[:])
	return nil
}

func (f *uuidField) Decode(r *Reader, _ Endianness) error {
	b, err := r.Slice(16)
	if err != nil {
		return NewDecodeError("uuid", "short buffer: %v", err)
	}
	var u uuid.UUID
	copy(u[:], b)
	*f.ptr = u
	r.Off += 16
	return nil
}
