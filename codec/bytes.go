package codec

import "bytes"

// binaryArrayField is a raw byte string whose length is either a compile
// time constant, driven by a sibling length field (written during Prepare,
// read during Decode), or "the rest of the buffer".
type binaryArrayField struct {
	ptr    *[]byte
	fixed  int  // >0: exactly this many bytes
	length *LengthRef // non-nil: sibling carries the length
	rest   bool // true: consume everything left in the buffer
}

// BinaryArrayFixed is a byte string of a compile-time-constant length;
// Encode truncates a longer value and zero-pads a shorter one to n bytes.
func BinaryArrayFixed(ptr *[]byte, n int) Field {
	return &binaryArrayField{ptr: ptr, fixed: n}
}

// BinaryArrayWithLength is a byte string whose length lives in a sibling
// field; Prepare writes len(*ptr) into that sibling.
func BinaryArrayWithLength(ptr *[]byte, length LengthRef) Field {
	return &binaryArrayField{ptr: ptr, length: &length}
}

// BinaryArrayRestOfBuffer consumes every remaining byte; valid only as a
// packet's last field.
func BinaryArrayRestOfBuffer(ptr *[]byte) Field {
	return &binaryArrayField{ptr: ptr, rest: true}
}

func (f *binaryArrayField) Prepare() error {
	if f.length != nil {
		f.length.Set(len(*f.ptr))
	}
	return nil
}

func (f *binaryArrayField) Encode(buf *bytes.Buffer, _ Endianness) error {
	b := *f.ptr
	if f.fixed > 0 {
		if len(b) > f.fixed {
			b = b[:f.fixed]
		}
		buf.Write(b)
		buf.Write(make([]byte, f.fixed-len(b)))
		return nil
	}
	buf.Write(b)
	return nil
}

func (f *binaryArrayField) Decode(r *Reader, _ Endianness) error {
	var n int
	switch {
	case f.rest:
		n = r.Remaining()
	case f.length != nil:
		n = f.length.Get()
	default:
		n = f.fixed
	}
	b, err := r.Slice(n)
	if err != nil {
		return NewDecodeError("binary_array", "need %d bytes, have %d", n, r.Remaining())
	}
	*f.ptr = append([]byte(nil), b...)
	r.Off += n
	return nil
}
