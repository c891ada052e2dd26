package codec

import "bytes"

// embedField nests another Message's field schema inline. With no bound,
// the embedded fields decode straight from the parent Reader (consuming as
// many bytes as they need). With length, a sibling field carries the
// embedded packet's encoded byte length, written during Prepare and used
// to scope a sub-Reader during Decode. With maxLen, encoding that would
// exceed the bound fails with an EncodeError instead of silently growing
// the packet.
type embedField struct {
	msg    Message
	length *LengthRef
	maxLen int
}

func Embed(msg Message) Field { return &embedField{msg: msg} }

func EmbedWithLength(msg Message, length LengthRef) Field {
	return &embedField{msg: msg, length: &length}
}

func EmbedBounded(msg Message, maxLen int) Field {
	return &embedField{msg: msg, maxLen: maxLen}
}

func (f *embedField) encodeInner(end Endianness) ([]byte, error) {
	var buf bytes.Buffer
	for _, fld := range f.msg.Fields() {
		if err := fld.Prepare(); err != nil {
			return nil, err
		}
	}
	for _, fld := range f.msg.Fields() {
		if err := fld.Encode(&buf, end); err != nil {
			return nil, err
		}
	}
	if f.maxLen > 0 && buf.Len() > f.maxLen {
		return nil, NewEncodeError("embed", "encodes to %d bytes, exceeds bound %d", buf.Len(), f.maxLen)
	}
	return buf.Bytes(), nil
}

func (f *embedField) Prepare() error {
	if f.length == nil {
		return nil
	}
	b, err := f.encodeInner(BigEndian)
	if err != nil {
		return err
	}
	f.length.Set(len(b))
	return nil
}

func (f *embedField) Encode(buf *bytes.Buffer, end Endianness) error {
	b, err := f.encodeInner(end)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

func (f *embedField) Decode(r *Reader, end Endianness) error {
	var sub *Reader
	switch {
	case f.length != nil:
		n := f.length.Get()
		b, err := r.Slice(n)
		if err != nil {
			return NewDecodeError("embed", "need %d bytes, have %d", n, r.Remaining())
		}
		sub = &Reader{Buf: b}
		r.Off += n
	case f.maxLen > 0:
		n := f.maxLen
		if n > r.Remaining() {
			n = r.Remaining()
		}
		b, err := r.Slice(n)
		if err != nil {
			return err
		}
		sub = &Reader{Buf: b}
		r.Off += n
	default:
		sub = r
	}
	for _, fld := range f.msg.Fields() {
		if err := fld.Decode(sub, end); err != nil {
			return err
		}
	}
	return nil
}
