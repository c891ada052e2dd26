package codec

import "bytes"

// UnionVariant binds one tag value to the Field that encodes/decodes the
// payload when that tag is selected. Active reports whether this variant's
// Go storage is the one currently populated (used to choose a variant and
// to write its tag back into the tag sibling during Prepare).
type UnionVariant struct {
	Tag    uint64
	Active func() bool
	Field  Field
}

// unionField dispatches on a sibling tag field (declared and encoded/
// decoded separately, referenced here via tag). When acceptMissing is set
// and the decoded tag matches no variant, the union degrades to an
// "unrecognized tag" result instead of failing: it stores the raw payload
// bytes (bounded by length, if given, else the rest of the buffer) into
// unparsed rather than returning a DecodeError.
type unionField struct {
	tag           LengthRef
	length        *LengthRef
	acceptMissing bool
	unparsed      *[]byte
	variants      []UnionVariant
}

func Union(tag LengthRef, variants ...UnionVariant) Field {
	return &unionField{tag: tag, variants: variants}
}

// UnionAcceptMissing is a union that tolerates an unrecognized tag: instead
// of a decode error it captures the raw payload into unparsed. length, if
// non-nil, bounds how many payload bytes to capture; otherwise the payload
// runs to the end of the buffer.
func UnionAcceptMissing(tag LengthRef, length *LengthRef, unparsed *[]byte, variants ...UnionVariant) Field {
	return &unionField{tag: tag, length: length, acceptMissing: true, unparsed: unparsed, variants: variants}
}

func (f *unionField) find(t uint64) *UnionVariant {
	for i := range f.variants {
		if f.variants[i].Tag == t {
			return &f.variants[i]
		}
	}
	return nil
}

func (f *unionField) active() *UnionVariant {
	for i := range f.variants {
		if f.variants[i].Active != nil && f.variants[i].Active() {
			return &f.variants[i]
		}
	}
	return nil
}

func (f *unionField) Prepare() error {
	v := f.active()
	if v == nil {
		if f.acceptMissing {
			return nil
		}
		return NewEncodeError("union", "no variant selected for tag %v", f.tag.Get())
	}
	f.tag.Set(int(v.Tag))
	return v.Field.Prepare()
}

func (f *unionField) Encode(buf *bytes.Buffer, end Endianness) error {
	v := f.active()
	if v == nil {
		if f.acceptMissing && f.unparsed != nil {
			buf.Write(*f.unparsed)
			return nil
		}
		return NewEncodeError("union", "no variant selected for tag %v", f.tag.Get())
	}
	return v.Field.Encode(buf, end)
}

func (f *unionField) Decode(r *Reader, end Endianness) error {
	tag := uint64(f.tag.Get())
	v := f.find(tag)
	if v == nil {
		if !f.acceptMissing {
			return NewDecodeError("union", "unrecognized tag %d", tag)
		}
		n := r.Remaining()
		if f.length != nil {
			n = f.length.Get()
		}
		b, err := r.Slice(n)
		if err != nil {
			return NewDecodeError("union", "unrecognized tag %d: need %d bytes, have %d", tag, n, r.Remaining())
		}
		if f.unparsed != nil {
			*f.unparsed = append([]byte(nil), b...)
		}
		r.Off += n
		return nil
	}
	return v.Field.Decode(r, end)
}
