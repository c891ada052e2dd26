package codec

import (
	"bytes"
)

// nullTerminatedStringField reads/writes a string followed by a single
// 0x00 byte. Decode fails with a DecodeError if no terminator is found
// before the buffer ends.
type nullTerminatedStringField struct {
	ptr *string
}

func NullTerminatedString(ptr *string) Field {
	return &nullTerminatedStringField{ptr: ptr}
}

func (f *nullTerminatedStringField) Prepare() error { return nil }

func (f *nullTerminatedStringField) Encode(buf *bytes.Buffer, _ Endianness) error {
	buf.WriteString(*f.ptr)
	buf.WriteByte(0)
	return nil
}

func (f *nullTerminatedStringField) Decode(r *Reader, _ Endianness) error {
	idx := bytes.IndexByte(r.Buf[r.Off:], 0)
	if idx < 0 {
		return NewDecodeError("null_terminated_string", "no terminator before end of buffer")
	}
	*f.ptr = string(r.Buf[r.Off : r.Off+idx])
	r.Off += idx + 1
	return nil
}

// pascalStringField is a 1-byte length prefix followed by that many bytes.
// nullTerminated and countTerminator are independent: the former decides
// whether a trailing 0x00 is appended on encode (and stripped from the
// decoded Go string), the latter decides whether that terminator byte is
// included in the length prefix at all. A 255-char null-terminated string
// with countTerminator false still serialises with length byte 255 — the
// terminator rides along in the payload without inflating the count. The
// length byte can never exceed 255, so an over-length string is silently
// truncated to fit — matching the reference kernel's PascalString
// behavior.
type pascalStringField struct {
	ptr             *string
	nullTerminated  bool
	countTerminator bool
}

// PascalString returns a pascal-string field whose terminator, if any, is
// counted in the length byte — the common case used throughout this
// package's packet types.
func PascalString(ptr *string, nullTerminated bool) Field {
	return &pascalStringField{ptr: ptr, nullTerminated: nullTerminated, countTerminator: nullTerminated}
}

// PascalStringUncountedTerminator returns a null-terminated pascal-string
// field whose length byte reports only the string's own bytes, not the
// trailing terminator appended after it.
func PascalStringUncountedTerminator(ptr *string) Field {
	return &pascalStringField{ptr: ptr, nullTerminated: true, countTerminator: false}
}

func (f *pascalStringField) Prepare() error { return nil }

func (f *pascalStringField) Encode(buf *bytes.Buffer, _ Endianness) error {
	data := []byte(*f.ptr)
	if len(data) > 255 {
		data = data[:255]
	}
	n := len(data)
	if f.countTerminator && f.nullTerminated {
		if n == 255 {
			n--
			data = data[:n]
		}
		n++
	}
	buf.WriteByte(byte(n))
	buf.Write(data)
	if f.nullTerminated {
		buf.WriteByte(0)
	}
	return nil
}

func (f *pascalStringField) Decode(r *Reader, _ Endianness) error {
	lb, err := r.Slice(1)
	if err != nil {
		return err
	}
	n := int(lb[0])
	r.Off++
	if f.nullTerminated && !f.countTerminator {
		n++
	}
	data, err := r.Slice(n)
	if err != nil {
		return NewDecodeError("pascal_string", "need %d bytes, have %d", n, r.Remaining())
	}
	if f.nullTerminated && n > 0 && data[n-1] == 0 {
		data = data[:n-1]
	}
	*f.ptr = string(data)
	r.Off += n
	return nil
}

// fixedStringField is a constant-width field: encode pads the string with
// 0x00 bytes up to width (truncating if too long), decode reads exactly
// width bytes and trims trailing 0x00 padding from the result.
type fixedStringField struct {
	ptr    *string
	width  int
	length *LengthRef
	rest   bool
}

func FixedString(ptr *string, width int) Field {
	return &fixedStringField{ptr: ptr, width: width}
}

func FixedStringWithLength(ptr *string, length LengthRef) Field {
	return &fixedStringField{ptr: ptr, length: &length}
}

func FixedStringRestOfBuffer(ptr *string) Field {
	return &fixedStringField{ptr: ptr, rest: true}
}

func (f *fixedStringField) Prepare() error {
	if f.length != nil {
		f.length.Set(f.width)
	}
	return nil
}

func (f *fixedStringField) width_() int {
	if f.length != nil {
		return f.length.Get()
	}
	return f.width
}

func (f *fixedStringField) Encode(buf *bytes.Buffer, _ Endianness) error {
	w := f.width_()
	data := []byte(*f.ptr)
	if len(data) > w {
		data = data[:w]
	}
	buf.Write(data)
	for i := len(data); i < w; i++ {
		buf.WriteByte(0)
	}
	return nil
}

func (f *fixedStringField) Decode(r *Reader, _ Endianness) error {
	var w int
	switch {
	case f.rest:
		w = r.Remaining()
	default:
		w = f.width_()
	}
	b, err := r.Slice(w)
	if err != nil {
		return NewDecodeError("fixed_string", "need %d bytes, have %d", w, r.Remaining())
	}
	if idx := bytes.IndexByte(b, 0); idx >= 0 {
		b = b[:idx]
	}
	*f.ptr = string(b)
	r.Off += w
	return nil
}
