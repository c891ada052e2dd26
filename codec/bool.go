package codec

import "bytes"

// boolField encodes as a single byte: 0x00 false, any nonzero true on
// decode (mirroring the Python kernel's `bool(value)` leniency).
type boolField struct {
	ptr *bool
}

func Bool(ptr *bool) Field { return &boolField{ptr: ptr} }

func (f *boolField) Prepare() error { return nil }

func (f *boolField) Encode(buf *bytes.Buffer, _ Endianness) error {
	if *f.ptr {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	return nil
}

func (f *boolField) Decode(r *Reader, _ Endianness) error {
	b, err := r.Slice(1)
	if err != nil {
		return err
	}
	*f.ptr = b[0] != 0
	r.Off++
	return nil
}
